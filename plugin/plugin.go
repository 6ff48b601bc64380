// Package plugin provides a fluent API for assembling helpscot plugins from actions built with
// github.com/bugcenter/helpscot/actions
package plugin

import (
	"github.com/bugcenter/helpscot"
)

// PluginBuilder holds a plugin to build
type PluginBuilder struct {
	plugin *helpscot.Plugin
}

// New creates a new PluginBuilder with a plugin with the given name and empty set of actions
func New(name string) (pb *PluginBuilder) {
	pb = new(PluginBuilder)
	pb.plugin = new(helpscot.Plugin)
	pb.plugin.Name = name
	pb.plugin.Commands = make([]helpscot.CommandDefinition, 0)
	pb.plugin.HearActions = make([]helpscot.ActionDefinition, 0)
	pb.plugin.Interactions = make([]helpscot.InteractionDefinition, 0)
	pb.plugin.Suggestions = make([]helpscot.SuggestionDefinition, 0)
	pb.plugin.ScheduledActions = make([]helpscot.ScheduledActionDefinition, 0)

	return pb
}

// WithCommand adds a slash command to the plugin
func (pb *PluginBuilder) WithCommand(command helpscot.CommandDefinition) *PluginBuilder {
	pb.plugin.Commands = append(pb.plugin.Commands, command)
	return pb
}

// WithHearAction adds an hear action to the plugin
func (pb *PluginBuilder) WithHearAction(hearAction helpscot.ActionDefinition) *PluginBuilder {
	pb.plugin.HearActions = append(pb.plugin.HearActions, hearAction)
	return pb
}

// WithInteraction adds a block action or message shortcut handler to the plugin
func (pb *PluginBuilder) WithInteraction(interaction helpscot.InteractionDefinition) *PluginBuilder {
	pb.plugin.Interactions = append(pb.plugin.Interactions, interaction)
	return pb
}

// WithSuggestion adds the options provider of an external select to the plugin
func (pb *PluginBuilder) WithSuggestion(suggestion helpscot.SuggestionDefinition) *PluginBuilder {
	pb.plugin.Suggestions = append(pb.plugin.Suggestions, suggestion)
	return pb
}

// WithScheduledAction adds a scheduled action to the plugin
func (pb *PluginBuilder) WithScheduledAction(scheduledAction helpscot.ScheduledActionDefinition) *PluginBuilder {
	pb.plugin.ScheduledActions = append(pb.plugin.ScheduledActions, scheduledAction)
	return pb
}

// Build returns the created Plugin instance
func (pb *PluginBuilder) Build() (p *helpscot.Plugin) {
	return pb.plugin
}
