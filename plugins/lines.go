package plugins

import (
	"fmt"
	"github.com/bugcenter/helpscot"
	"github.com/bugcenter/helpscot/actions"
	"github.com/bugcenter/helpscot/plugin"
	"strings"
	"unicode"
)

const (
	// LinesPluginName holds identifying name for the lines plugin
	LinesPluginName = "lines"

	minCodeLength = 5
	maxCodeLength = 1950
)

// NewLines creates a new instance of the lines plugin. It answers /lines <language> <code> with the
// code, its lines numbered
func NewLines() (p *helpscot.Plugin) {
	p = plugin.New(LinesPluginName).
		WithCommand(actions.NewCommand("lines").
			WithUsage("/lines <language> <code>").
			WithDescription("Number the lines of your code").
			WithAnswerer(numberLines).
			Build()).
		Build()

	return p
}

func numberLines(m *helpscot.IncomingMessage) *helpscot.Answer {
	language, code := splitLanguage(m.NormalizedText)
	if l := len([]rune(code)); l < minCodeLength || l > maxCodeLength {
		return &helpscot.Answer{Text: fmt.Sprintf("The code must be between %d and %d characters long. Try `/lines <language> <code>`", minCodeLength, maxCodeLength)}
	}

	lines := strings.Split(strings.ReplaceAll(code, "\r\n", "\n"), "\n")

	var b strings.Builder
	for i, l := range lines {
		fmt.Fprintf(&b, "%3d | %s\n", i+1, l)
	}

	return &helpscot.Answer{Text: fmt.Sprintf("Numbered %s code of <@%s>:\n```\n%s```", language, m.User, b.String()), Options: []helpscot.AnswerOption{helpscot.AnswerInChannel()}}
}

// splitLanguage splits the language, the first word of text, from the code following it
func splitLanguage(text string) (language string, code string) {
	i := strings.IndexFunc(text, unicode.IsSpace)
	if i < 0 {
		return text, ""
	}

	return text[:i], strings.TrimLeft(text[i:], " \t\r\n")
}
