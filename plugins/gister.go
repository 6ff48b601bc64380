package plugins

import (
	"bytes"
	"context"
	"fmt"
	"github.com/bugcenter/helpscot"
	"github.com/bugcenter/helpscot/actions"
	"github.com/bugcenter/helpscot/paste"
	"github.com/bugcenter/helpscot/plugin"
	"github.com/hashicorp/golang-lru"
	"github.com/slack-go/slack"
	"path"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// GisterPluginName holds identifying name for the gister plugin
	GisterPluginName = "gister"

	// MakeGistCallbackID is the callback id of the message shortcut turning a file into a gist
	MakeGistCallbackID = "make_gist"

	// GistFileActionID is the action id of the select picking a file among many
	GistFileActionID = "gist_file"

	pendingGistsSize      = 128
	defaultRequestTimeout = 30 * time.Second
)

// extensions maps the languages detected by slack to file extensions
var extensions = map[string]string{
	"c":          ".c",
	"cpp":        ".cpp",
	"csharp":     ".cs",
	"css":        ".css",
	"go":         ".go",
	"html":       ".html",
	"java":       ".java",
	"javascript": ".js",
	"json":       ".json",
	"kotlin":     ".kt",
	"markdown":   ".md",
	"php":        ".php",
	"python":     ".py",
	"ruby":       ".rb",
	"rust":       ".rs",
	"shell":      ".sh",
	"sql":        ".sql",
	"typescript": ".ts",
	"yaml":       ".yaml",
}

// Gister holds the plugin data for the gister plugin
type Gister struct {
	*helpscot.Plugin

	paster paste.Paster

	// pending holds the files of messages with many files until one is picked, keyed by message timestamp
	pending *lru.Cache
}

// NewGister creates a new instance of the gister plugin. It adds a "Make a gist" message shortcut
// creating a gist with the file attached to a message
func NewGister(paster paste.Paster) (p *helpscot.Plugin, err error) {
	g := new(Gister)
	g.paster = paster

	if g.pending, err = lru.New(pendingGistsSize); err != nil {
		return nil, err
	}

	g.Plugin = plugin.New(GisterPluginName).
		WithInteraction(actions.NewMessageShortcut(MakeGistCallbackID).
			WithDescription("Make a gist with the file attached to a message").
			WithInteractionAnswerer(g.makeGist).
			Build()).
		WithInteraction(actions.NewBlockAction(GistFileActionID).
			WithInteractionAnswerer(g.pickFile).
			Hidden().
			Build()).
		Build()

	return g.Plugin, nil
}

func (g *Gister) makeGist(i *helpscot.Interaction) *helpscot.Answer {
	files := i.Message.Files
	switch len(files) {
	case 0:
		return &helpscot.Answer{Text: "The message must have a file attached to make a gist"}
	case 1:
		return g.gist(files[0])
	}

	g.pending.Add(i.Message.Timestamp, files)

	options := make([]*slack.OptionBlockObject, 0, len(files))
	for idx, f := range files {
		options = append(options, slack.NewOptionBlockObject(fmt.Sprintf("%s|%d", i.Message.Timestamp, idx), slack.NewTextBlockObject(slack.PlainTextType, truncate(f.Name, maxOptionText), false, false), nil))
	}

	picker := slack.NewOptionsSelectBlockElement(slack.OptTypeStatic, slack.NewTextBlockObject(slack.PlainTextType, "Pick a file", false, false), GistFileActionID, options...)
	text := "Select the file to make a gist with"

	return &helpscot.Answer{Text: text, ContentBlocks: []slack.Block{
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, slack.NewAccessory(picker)),
	}}
}

func (g *Gister) pickFile(i *helpscot.Interaction) *helpscot.Answer {
	ts, index, ok := strings.Cut(i.Action.SelectedOption.Value, "|")
	if !ok {
		return nil
	}

	v, found := g.pending.Get(ts)
	idx, err := strconv.Atoi(index)
	if !found || err != nil {
		return &helpscot.Answer{Text: "This selection expired, use the shortcut on the message again", Options: []helpscot.AnswerOption{helpscot.AnswerReplaceOriginal()}}
	}

	files := v.([]slack.File)
	if idx < 0 || idx >= len(files) {
		return nil
	}

	a := g.gist(files[idx])
	a.Options = append(a.Options, helpscot.AnswerReplaceOriginal())
	return a
}

// gist downloads f and creates a gist with its content
func (g *Gister) gist(f slack.File) *helpscot.Answer {
	ctx, cancel := context.WithTimeout(context.Background(), defaultRequestTimeout)
	defer cancel()

	var b bytes.Buffer
	if err := g.ChatDriver.GetFileContext(ctx, f.URLPrivateDownload, &b); err != nil {
		g.Logger.Printf("Unable to download file [%s]: %v\n", f.Name, err)
		return &helpscot.Answer{Text: fmt.Sprintf("Unable to download `%s`", f.Name)}
	}

	if !utf8.Valid(b.Bytes()) {
		return &helpscot.Answer{Text: fmt.Sprintf("`%s` isn't a text file, only text files can be made into gists", f.Name)}
	}

	filename := gistFilename(f)
	p, err := g.paster.Create(ctx, filename, b.String())
	if err != nil {
		g.Logger.Printf("Unable to create gist for [%s]: %v\n", filename, err)
		return &helpscot.Answer{Text: "Unable to create the gist"}
	}

	g.Logger.Debugf("Created gist [%s] for [%s]\n", p.ID, filename)

	return &helpscot.Answer{Text: fmt.Sprintf("A gist was created:\n<%s>", p.URL)}
}

// gistFilename returns the name of the gist file. A .txt file gets the extension of the language slack
// detected, if known
func gistFilename(f slack.File) string {
	ext := path.Ext(f.Name)
	if ext != ".txt" {
		return f.Name
	}

	if langExt, ok := extensions[strings.ToLower(f.Filetype)]; ok {
		return strings.TrimSuffix(f.Name, ext) + langExt
	}

	return f.Name
}
