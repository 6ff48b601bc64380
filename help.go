package helpscot

import (
	"fmt"
	"github.com/bugcenter/helpscot/config"
	"github.com/slack-go/slack"
	"io"
	"sort"
	"strings"
)

const (
	helpPluginName = "help"
)

type helpPlugin struct {
	Plugin

	name             string
	version          string
	timeLocation     string
	commands         []CommandDefinition
	hearActions      []ActionDefinition
	shortcuts        []InteractionDefinition
	scheduledActions []pluginScheduledAction
}

// pluginScheduledAction represents a plugin's scheduled action with the plugin name and the action's definition
type pluginScheduledAction struct {
	plugin string
	ScheduledActionDefinition
}

// newHelpPlugin creates the help plugin answering the command named after the bot with the list of
// everything the registered plugins do
func (s *Helpscot) newHelpPlugin(version string) *helpPlugin {
	h := new(helpPlugin)
	h.name = s.name
	h.version = version
	h.timeLocation = s.config.GetString(config.TimeLocationKey)
	h.commands, h.hearActions, h.shortcuts, h.scheduledActions = findAllActions(s.plugins)

	h.Plugin = Plugin{Name: helpPluginName, Commands: []CommandDefinition{{
		Name:        s.name,
		Usage:       fmt.Sprintf("/%s", s.name),
		Description: "Reply with usage instructions",
		Answer:      h.showHelp,
	}}}

	return h
}

// showHelp generates a message providing a list of all of the commands, shortcuts, hear actions and scheduled
// actions. Note that definitions with the flag Hidden set to true won't be included in the list
func (h *helpPlugin) showHelp(m *IncomingMessage) *Answer {
	var b strings.Builder

	user, err := h.UserInfoFinder.GetUserInfo(m.User)
	if err != nil {
		h.Logger.Debugf("Error getting user info for user id [%s] so skipping mentioning the name (it would be awkward): %v\n", m.User, err)
		fmt.Fprintf(&b, "🤝 I'm `%s` (engine `v%s`). ", h.name, h.version)
	} else {
		fmt.Fprintf(&b, "🤝 You're `%s` and I'm `%s` (engine `v%s`). ", user.RealName, h.name, h.version)
	}

	fmt.Fprintf(&b, "I answer the community's questions with tags and a few other tricks :genie:.\n")

	if len(h.commands) > 0 {
		fmt.Fprintf(&b, "\nI currently support the following commands:\n")
		for _, c := range h.commands {
			usage := c.Usage
			if usage == "" {
				usage = fmt.Sprintf("/%s", c.Name)
			}

			appendEntry(&b, usage, c.Description)
		}
	}

	if len(h.shortcuts) > 0 {
		fmt.Fprintf(&b, "\nAnd these message shortcuts:\n")
		for _, sc := range h.shortcuts {
			appendEntry(&b, sc.ID, sc.Description)
		}
	}

	if len(h.hearActions) > 0 {
		fmt.Fprintf(&b, "\nAnd listen for the following:\n")
		for _, a := range h.hearActions {
			if a.Usage != "" {
				appendEntry(&b, a.Usage, a.Description)
			}
		}
	}

	if len(h.scheduledActions) > 0 {
		fmt.Fprintf(&b, "\nAnd do those things periodically:\n")
		appendScheduledActions(&b, h.timeLocation, h.scheduledActions)
	}

	return &Answer{Text: b.String(), ContentBlocks: []slack.Block{slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, b.String(), false, false), nil, nil)}}
}

func appendEntry(w io.Writer, usage string, description string) {
	fmt.Fprintf(w, "\t• `%s` - %s\n", usage, description)
}

func appendScheduledActions(w io.Writer, timeLocationName string, scheduledActions []pluginScheduledAction) {
	for _, value := range scheduledActions {
		fmt.Fprintf(w, "\t• [`%s`] `%s` (`%s`) - %s\n", value.plugin, value.Schedule, timeLocationName, value.Description)
	}
}

// findAllActions returns all visible commands (sorted by name), hear actions, message shortcuts and scheduled
// actions of plugins
func findAllActions(plugins []*Plugin) (commands []CommandDefinition, hearActions []ActionDefinition, shortcuts []InteractionDefinition, scheduledActions []pluginScheduledAction) {
	commands = make([]CommandDefinition, 0)
	hearActions = make([]ActionDefinition, 0)
	shortcuts = make([]InteractionDefinition, 0)
	scheduledActions = make([]pluginScheduledAction, 0)

	for _, p := range plugins {
		for _, c := range p.Commands {
			if !c.Hidden {
				commands = append(commands, c)
			}
		}

		for _, a := range p.HearActions {
			if !a.Hidden {
				hearActions = append(hearActions, a)
			}
		}

		for _, i := range p.Interactions {
			if !i.Hidden && i.Type == slack.InteractionTypeMessageAction {
				shortcuts = append(shortcuts, i)
			}
		}

		for _, sa := range p.ScheduledActions {
			if !sa.Hidden {
				scheduledActions = append(scheduledActions, pluginScheduledAction{plugin: p.Name, ScheduledActionDefinition: sa})
			}
		}
	}

	sort.SliceStable(commands, func(i, j int) bool {
		return commands[i].Name < commands[j].Name
	})

	return commands, hearActions, shortcuts, scheduledActions
}
