package plugins

import (
	"context"
	"fmt"
	"github.com/bugcenter/helpscot"
	"github.com/bugcenter/helpscot/actions"
	"github.com/bugcenter/helpscot/docsearch"
	"github.com/bugcenter/helpscot/plugin"
	"github.com/slack-go/slack"
	"strings"
)

const (
	// DocSearchPluginName holds identifying name for the docsearch plugin
	DocSearchPluginName = "docsearch"

	maxResults         = 4
	maxBlocksPerResult = 2
	maxProjects        = 25
	minProjectTerm     = 4
	projectsKeyword    = "projects"
)

// DocSearch holds the plugin data for the docsearch plugin
type DocSearch struct {
	*helpscot.Plugin

	searcher docsearch.Searcher
}

// NewDocSearch creates a new instance of the docsearch plugin. It searches documentations hosted on
// readthedocs with /doc <project> <query> and finds projects with /doc projects <term>
func NewDocSearch(searcher docsearch.Searcher) (p *helpscot.Plugin) {
	ds := new(DocSearch)
	ds.searcher = searcher

	ds.Plugin = plugin.New(DocSearchPluginName).
		WithCommand(actions.NewCommand("doc").
			WithUsage("/doc <project> <query> | /doc projects <term>").
			WithDescription("Search a documentation on readthedocs").
			WithAnswerer(ds.answer).
			Build()).
		Build()

	return ds.Plugin
}

func (ds *DocSearch) answer(m *helpscot.IncomingMessage) *helpscot.Answer {
	project, query, _ := strings.Cut(m.NormalizedText, " ")
	query = strings.TrimSpace(query)
	if project == "" || query == "" {
		return &helpscot.Answer{Text: "Try `/doc <project> <query>` or `/doc projects <term>`"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRequestTimeout)
	defer cancel()

	if project == projectsKeyword {
		return ds.findProjects(ctx, query)
	}

	results, err := ds.searcher.Search(ctx, project, query)
	if err != nil {
		ds.Logger.Printf("Unable to search [%s] in [%s]: %v\n", query, project, err)
		return &helpscot.Answer{Text: fmt.Sprintf("Unable to search `%s` right now", project)}
	}

	if results.Count == 0 || len(results.Results) == 0 {
		return &helpscot.Answer{Text: "Nothing found."}
	}

	links := make([]string, 0, maxResults*maxBlocksPerResult)
	for i, r := range results.Results {
		if i == maxResults {
			break
		}

		links = append(links, resultLinks(r, query)...)
	}

	title := fmt.Sprintf("%d result(s) for *%s* in *%s*", results.Count, query, project)
	return &helpscot.Answer{Text: title, ContentBlocks: []slack.Block{
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, title, false, false), nil, nil),
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, strings.Join(links, "\n"), false, false), nil, nil),
		slack.NewContextBlock("", slack.NewTextBlockObject(slack.MarkdownType, "Documentations provided by https://readthedocs.org", false, false)),
	}, Options: []helpscot.AnswerOption{helpscot.AnswerInChannel()}}
}

// resultLinks returns links to the first blocks of a result, followed by their highlighted content
func resultLinks(r docsearch.Result, query string) (links []string) {
	if len(r.Blocks) == 0 {
		return []string{fmt.Sprintf("• <%s|%s>", r.URL(query, ""), r.Title)}
	}

	for i, b := range r.Blocks {
		if i == maxBlocksPerResult {
			break
		}

		link := fmt.Sprintf("• <%s|%s>", r.URL(query, b.ID), b.Title)
		if len(b.Highlights.Content) > 0 {
			link = fmt.Sprintf("%s\n> %s", link, docsearch.ToMarkdown(b.Highlights.Content[0]))
		}

		links = append(links, link)
	}

	return links
}

func (ds *DocSearch) findProjects(ctx context.Context, term string) *helpscot.Answer {
	if len([]rune(term)) < minProjectTerm {
		return &helpscot.Answer{Text: fmt.Sprintf("Search terms need at least %d characters", minProjectTerm)}
	}

	projects, err := ds.searcher.Projects(ctx, term)
	if err != nil {
		ds.Logger.Printf("Unable to search projects matching [%s]: %v\n", term, err)
		return &helpscot.Answer{Text: "Unable to search projects right now"}
	}

	if len(projects) == 0 {
		return &helpscot.Answer{Text: "Nothing found."}
	}

	if len(projects) > maxProjects {
		projects = projects[:maxProjects]
	}

	quoted := make([]string, 0, len(projects))
	for _, p := range projects {
		quoted = append(quoted, fmt.Sprintf("`%s`", p))
	}

	return &helpscot.Answer{Text: fmt.Sprintf("Projects matching *%s*: %s", term, strings.Join(quoted, ", "))}
}
