package plugin_test

import (
	"github.com/bugcenter/helpscot"
	"github.com/bugcenter/helpscot/actions"
	"github.com/bugcenter/helpscot/plugin"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestDefaultNewPlugin(t *testing.T) {
	p := plugin.New("loopy").Build()

	require.NotNil(t, p)
	assert.Equal(t, "loopy", p.Name)
	assert.Empty(t, p.Commands)
	assert.Empty(t, p.HearActions)
	assert.Empty(t, p.Interactions)
	assert.Empty(t, p.Suggestions)
	assert.Empty(t, p.ScheduledActions)
}

func TestPluginWithManyCommands(t *testing.T) {
	p := plugin.New("loopy").
		WithCommand(actions.NewCommand("command1").Build()).
		WithCommand(actions.NewCommand("command2").Build()).
		Build()

	require.NotNil(t, p)
	require.Len(t, p.Commands, 2)
	assert.Equal(t, "command1", p.Commands[0].Name)
	assert.Equal(t, "command2", p.Commands[1].Name)
	assert.Empty(t, p.HearActions)
	assert.Empty(t, p.ScheduledActions)
}

func TestPluginWithAllActionTypes(t *testing.T) {
	p := plugin.New("loopy").
		WithCommand(actions.NewCommand("command").Build()).
		WithHearAction(actions.NewHearAction().WithUsage("listener").Build()).
		WithInteraction(actions.NewBlockAction("button").Build()).
		WithInteraction(actions.NewMessageShortcut("shortcut").Build()).
		WithSuggestion(actions.NewSuggestion("picker", func(i *helpscot.Interaction) []*slack.OptionBlockObject { return nil })).
		WithScheduledAction(actions.NewScheduledAction().WithDescription("scheduled").Build()).
		Build()

	require.NotNil(t, p)
	require.Len(t, p.Commands, 1)
	require.Len(t, p.HearActions, 1)
	require.Len(t, p.Interactions, 2)
	require.Len(t, p.Suggestions, 1)
	require.Len(t, p.ScheduledActions, 1)

	assert.Equal(t, "command", p.Commands[0].Name)
	assert.Equal(t, "listener", p.HearActions[0].Usage)
	assert.Equal(t, slack.InteractionTypeBlockActions, p.Interactions[0].Type)
	assert.Equal(t, slack.InteractionTypeMessageAction, p.Interactions[1].Type)
	assert.Equal(t, "picker", p.Suggestions[0].ActionID)
	assert.Equal(t, "scheduled", p.ScheduledActions[0].Description)
}
