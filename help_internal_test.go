package helpscot

import (
	"fmt"
	"github.com/bugcenter/helpscot/config"
	"github.com/bugcenter/helpscot/schedule"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

type fakeUserInfoFinder struct {
	fail bool
}

func (f fakeUserInfoFinder) GetUserInfo(userID string) (user *slack.User, err error) {
	if f.fail {
		return nil, fmt.Errorf("user [%s] not found", userID)
	}

	return &slack.User{ID: userID, RealName: "Daniel Quinn"}, nil
}

func newPluginWithActionsOfAllTypes() (p *Plugin) {
	p = new(Plugin)
	p.Name = "thank"
	p.Commands = []CommandDefinition{{
		Name:        "thank",
		Usage:       "/thank <someone or something to thank>",
		Description: "Format a thank you note",
		Answer: func(m *IncomingMessage) *Answer {
			return nil
		}}, {
		Name:        "about",
		Description: "Say what this is about",
		Answer: func(m *IncomingMessage) *Answer {
			return nil
		}}, {
		Hidden: true,
		Name:   "secret",
		Answer: func(m *IncomingMessage) *Answer {
			return nil
		}}}

	p.HearActions = []ActionDefinition{{
		Match: func(m *IncomingMessage) bool {
			return strings.Contains(m.NormalizedText, "chickadee")
		},
		Usage:       "say `chickadee` and hear a chirp",
		Description: "Chirp when hearing people talk about chickadees",
		Answer: func(m *IncomingMessage) *Answer {
			return nil
		}}}

	p.Interactions = []InteractionDefinition{
		{Type: slack.InteractionTypeMessageAction, ID: "thank_message", Description: "Thank the author of a message"},
		{Type: slack.InteractionTypeBlockActions, ID: "thank_button", Description: "Not a shortcut"},
	}

	p.ScheduledActions = []ScheduledActionDefinition{{Schedule: schedule.Definition{Interval: 30, Unit: schedule.Seconds}, Description: "Sends a heartbeat every 30 seconds", Action: func() {}}}

	return p
}

func TestHelpListsVisibleActions(t *testing.T) {
	s, err := New("robert", config.NewViperWithDefaults(), OptionLog(discardLog()))
	require.NoError(t, err)
	s.RegisterPlugin(newPluginWithActionsOfAllTypes())

	help := s.newHelpPlugin("1.0.0")
	help.UserInfoFinder = fakeUserInfoFinder{}
	help.Logger = newDiscardLogger()

	require.Len(t, help.Commands, 1)
	cmd := help.Commands[0]
	assert.Equal(t, "robert", cmd.Name)

	a := cmd.Answer(&IncomingMessage{Command: "robert", Msg: slack.Msg{User: "U1"}})
	require.NotNil(t, a)

	assert.Equal(t, "🤝 You're `Daniel Quinn` and I'm `robert` (engine `v1.0.0`). I answer the community's questions with tags and a few other tricks :genie:.\n\n"+
		"I currently support the following commands:\n\t• `/about` - Say what this is about\n\t• `/thank <someone or something to thank>` - Format a thank you note\n\n"+
		"And these message shortcuts:\n\t• `thank_message` - Thank the author of a message\n\n"+
		"And listen for the following:\n\t• `say `chickadee` and hear a chirp` - Chirp when hearing people talk about chickadees\n\n"+
		"And do those things periodically:\n\t• [`thank`] `Every 30 seconds` (`Local`) - Sends a heartbeat every 30 seconds\n", a.Text)
	assert.Len(t, a.ContentBlocks, 1)
}

func TestHelpWithoutUserInfo(t *testing.T) {
	s, err := New("robert", config.NewViperWithDefaults(), OptionLog(discardLog()))
	require.NoError(t, err)

	help := s.newHelpPlugin("1.0.0")
	help.UserInfoFinder = fakeUserInfoFinder{fail: true}
	help.Logger = newDiscardLogger()

	a := help.Commands[0].Answer(&IncomingMessage{Msg: slack.Msg{User: "U1"}})
	require.NotNil(t, a)

	assert.Equal(t, "🤝 I'm `robert` (engine `v1.0.0`). I answer the community's questions with tags and a few other tricks :genie:.\n", a.Text)
}
