/*
Package actions provides a fluent API for creating helpscot plugin actions. Typical usages
will also involve using the plugin fluent API from github.com/bugcenter/helpscot/plugin.

Plugin examples using this API can be found in github.com/bugcenter/helpscot/plugins but
a quick one could look like:

	import (
		"github.com/bugcenter/helpscot"
		"github.com/bugcenter/helpscot/plugin"
		"github.com/bugcenter/helpscot/actions"
	)

	func newPlugin() (p *helpscot.Plugin) {
		p = plugin.New("maker").
			WithCommand(actions.NewCommand("make").
				WithUsage("/make <something>").
				WithDescription("Make the `<something>` you need").
				WithAnswerer(func(m *helpscot.IncomingMessage) *helpscot.Answer {
					return &helpscot.Answer{Text: fmt.Sprintf(":white_check_mark: %s is ready for you!", m.NormalizedText)}
				}).
				Build()).
			WithHearAction(actions.NewHearAction().
				Hidden().
				WithMatcher(func(m *helpscot.IncomingMessage) bool {
					return strings.HasPrefix(m.NormalizedText, "chirp")
				}).
				WithAnswerer(func(m *helpscot.IncomingMessage) *helpscot.Answer {
					return &helpscot.Answer{Text: "Did I hear a bird?"}
				}).
				Build()).
			WithInteraction(actions.NewBlockAction("approve").
				WithInteractionAnswerer(approve).
				Build()).
			WithScheduledAction(actions.NewScheduledAction().
				WithSchedule(schedule.New().Every(time.Monday.String()).AtTime("10:00").Build()).
				WithDescription("Start the week off").
				WithAction(weeklyKickoff).
				Build()).
			Build()
		return p
	}
*/
package actions

import (
	"fmt"
	"github.com/bugcenter/helpscot"
	"github.com/bugcenter/helpscot/schedule"
	"github.com/slack-go/slack"
)

// ActionBuilder holds the hear action to build
type ActionBuilder struct {
	action helpscot.ActionDefinition
}

// CommandBuilder holds the slash command to build
type CommandBuilder struct {
	command helpscot.CommandDefinition
}

// InteractionBuilder holds the interaction to build
type InteractionBuilder struct {
	interaction helpscot.InteractionDefinition
}

// ScheduledActionBuilder holds the scheduled action to build
type ScheduledActionBuilder struct {
	scheduledAction helpscot.ScheduledActionDefinition
}

var (
	// Default to always match. Returning nil from the Answerer achieves the same as not matching
	defaultMatcher = func(m *helpscot.IncomingMessage) bool {
		return true
	}

	// Default to always return nil. This is not a default you want to use in most cases
	defaultAnswerer = func(m *helpscot.IncomingMessage) *helpscot.Answer {
		return nil
	}

	defaultInteractionAnswerer = func(i *helpscot.Interaction) *helpscot.Answer {
		return nil
	}
)

// NewCommand returns a new CommandBuilder to build the slash command /name
func NewCommand(name string) (cb *CommandBuilder) {
	cb = new(CommandBuilder)
	cb.command = helpscot.CommandDefinition{Name: name, Usage: "/" + name, Answer: defaultAnswerer}

	return cb
}

// WithUsage sets the command usage
func (cb *CommandBuilder) WithUsage(usage string) *CommandBuilder {
	cb.command.Usage = usage
	return cb
}

// WithDescription sets the command description
func (cb *CommandBuilder) WithDescription(description string) *CommandBuilder {
	cb.command.Description = description
	return cb
}

// WithDescriptionf sets the command description delegating format and arguments to fmt.Sprintf
func (cb *CommandBuilder) WithDescriptionf(format string, a ...interface{}) *CommandBuilder {
	cb.command.Description = fmt.Sprintf(format, a...)
	return cb
}

// WithAnswerer sets the command's answerer function
func (cb *CommandBuilder) WithAnswerer(answerer helpscot.Answerer) *CommandBuilder {
	cb.command.Answer = answerer
	return cb
}

// Hidden sets the command to hidden
func (cb *CommandBuilder) Hidden() *CommandBuilder {
	cb.command.Hidden = true
	return cb
}

// Build returns the CommandDefinition
func (cb *CommandBuilder) Build() helpscot.CommandDefinition {
	return cb.command
}

// NewHearAction returns a new ActionBuilder to build a new hear action
func NewHearAction() (ab *ActionBuilder) {
	ab = new(ActionBuilder)
	ab.action = helpscot.ActionDefinition{Hidden: false}

	ab.action.Match = defaultMatcher
	ab.action.Answer = defaultAnswerer

	return ab
}

// WithMatcher sets the action's matcher function
func (ab *ActionBuilder) WithMatcher(matcher helpscot.Matcher) *ActionBuilder {
	ab.action.Match = matcher
	return ab
}

// WithUsage sets the action usage
func (ab *ActionBuilder) WithUsage(usage string) *ActionBuilder {
	ab.action.Usage = usage
	return ab
}

// WithDescription sets the action description
func (ab *ActionBuilder) WithDescription(description string) *ActionBuilder {
	ab.action.Description = description
	return ab
}

// WithDescriptionf sets the action description delegating format and arguments to fmt.Sprintf
func (ab *ActionBuilder) WithDescriptionf(format string, a ...interface{}) *ActionBuilder {
	ab.action.Description = fmt.Sprintf(format, a...)
	return ab
}

// WithAnswerer sets the action's answerer function
func (ab *ActionBuilder) WithAnswerer(answerer helpscot.Answerer) *ActionBuilder {
	ab.action.Answer = answerer
	return ab
}

// Hidden sets the action to hidden
func (ab *ActionBuilder) Hidden() *ActionBuilder {
	ab.action.Hidden = true
	return ab
}

// Build returns the ActionDefinition
func (ab *ActionBuilder) Build() helpscot.ActionDefinition {
	return ab.action
}

func newInteraction(t slack.InteractionType, id string) (ib *InteractionBuilder) {
	ib = new(InteractionBuilder)
	ib.interaction = helpscot.InteractionDefinition{Type: t, ID: id, Answer: defaultInteractionAnswerer}

	return ib
}

// NewBlockAction returns a new InteractionBuilder to build the handling of block actions on elements with actionID
func NewBlockAction(actionID string) (ib *InteractionBuilder) {
	return newInteraction(slack.InteractionTypeBlockActions, actionID)
}

// NewMessageShortcut returns a new InteractionBuilder to build the message shortcut with callbackID
func NewMessageShortcut(callbackID string) (ib *InteractionBuilder) {
	return newInteraction(slack.InteractionTypeMessageAction, callbackID)
}

// WithDescription sets the interaction description
func (ib *InteractionBuilder) WithDescription(description string) *InteractionBuilder {
	ib.interaction.Description = description
	return ib
}

// WithInteractionAnswerer sets the interaction's answerer function
func (ib *InteractionBuilder) WithInteractionAnswerer(answerer helpscot.InteractionAnswerer) *InteractionBuilder {
	ib.interaction.Answer = answerer
	return ib
}

// Hidden sets the interaction to hidden
func (ib *InteractionBuilder) Hidden() *InteractionBuilder {
	ib.interaction.Hidden = true
	return ib
}

// Build returns the InteractionDefinition
func (ib *InteractionBuilder) Build() helpscot.InteractionDefinition {
	return ib.interaction
}

// NewSuggestion returns the SuggestionDefinition of the external select element with actionID
func NewSuggestion(actionID string, suggester helpscot.Suggester) helpscot.SuggestionDefinition {
	return helpscot.SuggestionDefinition{ActionID: actionID, Suggest: suggester}
}

// NewScheduledAction returns a new ScheduledActionBuilder to build a new ScheduledActionDefinition
func NewScheduledAction() (sab *ScheduledActionBuilder) {
	sab = new(ScheduledActionBuilder)
	sab.scheduledAction = helpscot.ScheduledActionDefinition{Hidden: false}
	sab.scheduledAction.Action = func() {}

	return sab
}

// WithSchedule sets the schedule for the scheduled action
func (sab *ScheduledActionBuilder) WithSchedule(schedule schedule.Definition) *ScheduledActionBuilder {
	sab.scheduledAction.Schedule = schedule
	return sab
}

// WithDescription sets the scheduled action description
func (sab *ScheduledActionBuilder) WithDescription(desc string) *ScheduledActionBuilder {
	sab.scheduledAction.Description = desc
	return sab
}

// WithDescriptionf sets the scheduled action description delegating format and arguments to fmt.Sprintf
func (sab *ScheduledActionBuilder) WithDescriptionf(format string, a ...interface{}) *ScheduledActionBuilder {
	sab.scheduledAction.Description = fmt.Sprintf(format, a...)
	return sab
}

// WithAction sets the action function to run on schedule
func (sab *ScheduledActionBuilder) WithAction(action helpscot.ScheduledAction) *ScheduledActionBuilder {
	sab.scheduledAction.Action = action
	return sab
}

// Hidden sets the scheduled action to hidden
func (sab *ScheduledActionBuilder) Hidden() *ScheduledActionBuilder {
	sab.scheduledAction.Hidden = true
	return sab
}

// RunOnStart sets the scheduled action to also run once when the scheduler starts
func (sab *ScheduledActionBuilder) RunOnStart() *ScheduledActionBuilder {
	sab.scheduledAction.RunOnStart = true
	return sab
}

// Build returns the ScheduledActionDefinition
func (sab *ScheduledActionBuilder) Build() helpscot.ScheduledActionDefinition {
	return sab.scheduledAction
}
