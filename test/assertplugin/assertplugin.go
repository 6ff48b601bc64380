package assertplugin

import (
	"github.com/bugcenter/helpscot"
	"github.com/bugcenter/helpscot/test/capture"
	"github.com/slack-go/slack"
	"io"
	"log"
	"strings"
	"testing"
)

// Asserter represents a plugin driver/asserter along with the services it injects in the plugins it drives
type Asserter struct {
	logger         *log.Logger
	userInfoFinder helpscot.UserInfoFinder
	files          map[string]string
}

// New creates a new asserter
func New(options ...Option) (a *Asserter) {
	a = new(Asserter)

	for _, option := range options {
		option(a)
	}

	return a
}

// Option defines an option for the Asserter
type Option func(*Asserter)

// OptionLog sets a logger for the asserter such that this logger is attached to the plugin when driven by
// the asserter
func OptionLog(logger *log.Logger) func(*Asserter) {
	return func(a *Asserter) {
		a.logger = logger
	}
}

// OptionUserInfoFinder sets the user info finder attached to the plugin when driven by the asserter
func OptionUserInfoFinder(userInfoFinder helpscot.UserInfoFinder) func(*Asserter) {
	return func(a *Asserter) {
		a.userInfoFinder = userInfoFinder
	}
}

// OptionFiles registers files, keyed by download url, that plugins driven by the asserter can download through
// their ChatDriver
func OptionFiles(files map[string]string) func(*Asserter) {
	return func(a *Asserter) {
		a.files = files
	}
}

// ResultValidator is a function to do further validation of the answers and messages sent through the chat
// driver resulting from a plugin processing of a message or interaction. The return value is meant to be true
// if validation is successful and false otherwise (following the testify convention)
type ResultValidator func(t *testing.T, answers []*helpscot.Answer, sent []capture.Message) bool

// SuggestionsValidator is a function to do further validation of the options suggested by a plugin
type SuggestionsValidator func(t *testing.T, options []*slack.OptionBlockObject) bool

// AnswersAndSends drives the hear actions of a plugin with a channel message and collects Answers as well as
// messages the plugin sent through its ChatDriver. Once all of those have been collected, it passes handling
// to a validator. It follows the style of github.com/stretchr/testify/assert as far as returning true/false to
// indicate success for further nested testing
func (a *Asserter) AnswersAndSends(t *testing.T, p *helpscot.Plugin, m *slack.Msg, validate ResultValidator) (valid bool) {
	cd := a.inject(p)

	answers := make([]*helpscot.Answer, 0)
	inMsg := helpscot.IncomingMessage{NormalizedText: strings.TrimSpace(m.Text), Msg: *m}

	for _, action := range p.HearActions {
		if action.Match(&inMsg) {
			if answer := action.Answer(&inMsg); answer != nil {
				answers = append(answers, answer)
			}
		}
	}

	return validate(t, answers, cd.SentMessages())
}

// CommandAnswers drives the command of a plugin named after m.Command
func (a *Asserter) CommandAnswers(t *testing.T, p *helpscot.Plugin, m *helpscot.IncomingMessage, validate ResultValidator) (valid bool) {
	cd := a.inject(p)

	answers := make([]*helpscot.Answer, 0)
	m.NormalizedText = strings.TrimSpace(m.NormalizedText)

	for _, c := range p.Commands {
		if c.Name == m.Command {
			if answer := c.Answer(m); answer != nil {
				answers = append(answers, answer)
			}
		}
	}

	return validate(t, answers, cd.SentMessages())
}

// InteractionAnswers drives the interaction of a plugin matching the interaction's type and action id (for
// block actions) or callback id (for message shortcuts)
func (a *Asserter) InteractionAnswers(t *testing.T, p *helpscot.Plugin, i *helpscot.Interaction, validate ResultValidator) (valid bool) {
	cd := a.inject(p)

	id := i.CallbackID
	if i.Action != nil {
		id = i.Action.ActionID
	}

	answers := make([]*helpscot.Answer, 0)
	for _, in := range p.Interactions {
		if in.Type == i.Type && in.ID == id {
			if answer := in.Answer(i); answer != nil {
				answers = append(answers, answer)
			}
		}
	}

	return validate(t, answers, cd.SentMessages())
}

// Suggests drives the suggestions of a plugin for the external select identified by the interaction's action id
func (a *Asserter) Suggests(t *testing.T, p *helpscot.Plugin, i *helpscot.Interaction, validate SuggestionsValidator) (valid bool) {
	a.inject(p)

	options := make([]*slack.OptionBlockObject, 0)
	for _, sg := range p.Suggestions {
		if sg.ActionID == i.ActionID {
			options = append(options, sg.Suggest(i)...)
		}
	}

	return validate(t, options)
}

// inject attaches the asserter's services to the plugin, along with a new chat driver captor
func (a *Asserter) inject(p *helpscot.Plugin) (cd *capture.ChatDriverCaptor) {
	cd = capture.NewChatDriver()
	for url, content := range a.files {
		cd.Files[url] = content
	}
	p.ChatDriver = cd
	p.Logger = helpscot.NewSLogger(getLogger(a), true)

	if a.userInfoFinder != nil {
		p.UserInfoFinder = a.userInfoFinder
	}

	return cd
}

func getLogger(a *Asserter) (logger *log.Logger) {
	if a.logger != nil {
		return a.logger
	}

	return log.New(io.Discard, "", 0)
}
