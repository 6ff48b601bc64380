package plugins

import (
	"fmt"
	"github.com/bugcenter/helpscot"
	"github.com/bugcenter/helpscot/actions"
	"github.com/bugcenter/helpscot/plugin"
	"net/url"
	"strings"
)

const (
	// GoogleItPluginName holds identifying name for the googleit plugin
	GoogleItPluginName = "googleit"

	maxSearchWords      = 32
	maxSearchWordLength = 50
)

// NewGoogleIt creates a new instance of the googleit plugin. It answers /googleit <search> with a link
// to an animated google search
func NewGoogleIt() (p *helpscot.Plugin) {
	p = plugin.New(GoogleItPluginName).
		WithCommand(actions.NewCommand("googleit").
			WithUsage("/googleit <search>").
			WithDescription("Show how to do a google search").
			WithAnswerer(func(m *helpscot.IncomingMessage) *helpscot.Answer {
				if m.NormalizedText == "" {
					return &helpscot.Answer{Text: "What should I search for? Try `/googleit <search>`"}
				}

				return &helpscot.Answer{Text: fmt.Sprintf("The google tool is very powerful, see how it works!\n<https://googlethatforyou.com/?q=%s>", url.QueryEscape(searchQuery(m.NormalizedText))),
					Options: []helpscot.AnswerOption{helpscot.AnswerInChannel()}}
			}).
			Build()).
		Build()

	return p
}

// searchQuery keeps the first words of search, each cut to a maximum length
func searchQuery(search string) string {
	words := strings.Split(search, " ")
	if len(words) > maxSearchWords {
		words = words[:maxSearchWords]
	}

	for i, w := range words {
		if r := []rune(w); len(r) > maxSearchWordLength {
			words[i] = string(r[:maxSearchWordLength])
		}
	}

	return strings.Join(words, " ")
}
