package plugins_test

import (
	"context"
	"fmt"
	"github.com/bugcenter/helpscot"
	"github.com/bugcenter/helpscot/plugins"
	"github.com/bugcenter/helpscot/store"
	"github.com/bugcenter/helpscot/tags"
	"github.com/bugcenter/helpscot/test/assertanswer"
	"github.com/bugcenter/helpscot/test/assertplugin"
	"github.com/bugcenter/helpscot/test/capture"
	"github.com/slack-go/slack"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"log"
	"sort"
	"sync"
	"testing"
	"time"
)

const loopsJSON = `{"name": "loops", "description": "Loops", "choices": [
	{"name": "slow", "content": "for i in range(n)"},
	{"name": "fast", "content": "map(f, xs)"}
]}`

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (fc *fixedClock) Now() time.Time {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	return fc.now
}

func (fc *fixedClock) Advance(d time.Duration) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	fc.now = fc.now.Add(d)
}

// tagSource serves a single revision of documents keyed by category and then filename
type tagSource struct {
	revision  string
	docs      map[string]map[string]string
	latestErr error
}

func (ts *tagSource) LatestRevision(ctx context.Context) (string, error) {
	return ts.revision, ts.latestErr
}

func (ts *tagSource) Categories(ctx context.Context, revision string) (categories []string, err error) {
	for c := range ts.docs {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	return categories, nil
}

func (ts *tagSource) Documents(ctx context.Context, category string, revision string) (refs []tags.DocumentRef, err error) {
	for name := range ts.docs[category] {
		refs = append(refs, tags.DocumentRef{Category: category, Name: name, Path: category + "/" + name})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })

	return refs, nil
}

func (ts *tagSource) Fetch(ctx context.Context, ref tags.DocumentRef) ([]byte, error) {
	return []byte(ts.docs[ref.Category][ref.Name]), nil
}

func newTagSource() *tagSource {
	return &tagSource{revision: "8c1f2a9", docs: map[string]map[string]string{
		"python": {
			"basics.toml": "name = \"basics\"\ndescription = \"The basics\"\naliases = [\"intro\"]\ncontent = \"Read the tutorial\"\n",
			"loops.json":  loopsJSON,
		},
	}}
}

type localeUserInfoFinder struct {
	locale string
}

func (f localeUserInfoFinder) GetUserInfo(userID string) (user *slack.User, err error) {
	return &slack.User{ID: userID, Locale: f.locale}, nil
}

func newTaggerConfig() *viper.Viper {
	v := viper.New()
	v.Set("repository", "bugcenter/tags")
	v.Set("admins", []string{"UADMIN"})

	return v
}

func newTestTagger(t *testing.T, source tags.Source, storer store.StringStorer, clock *fixedClock) (closer io.Closer, p *helpscot.Plugin) {
	closer, p, err := plugins.NewTagger(newTaggerConfig(), storer, plugins.OptionTagSource(source), plugins.OptionTaggerClock(clock))
	require.NoError(t, err)

	p.Logger = helpscot.NewSLogger(log.New(io.Discard, "", 0), false)

	return closer, p
}

func newLoadedTagger(t *testing.T) (p *helpscot.Plugin, clock *fixedClock) {
	clock = &fixedClock{now: time.Date(2024, time.March, 4, 10, 0, 0, 0, time.UTC)}
	_, p = newTestTagger(t, newTagSource(), nil, clock)

	require.Len(t, p.ScheduledActions, 1)
	require.True(t, p.ScheduledActions[0].RunOnStart)
	p.ScheduledActions[0].Action()

	return p, clock
}

func choiceBlockID(t *testing.T, blocks []slack.Block) string {
	for _, b := range blocks {
		if a, ok := b.(*slack.ActionBlock); ok {
			return a.BlockID
		}
	}

	require.Fail(t, "no choice control in blocks")
	return ""
}

func TestTaggerRequiresRepository(t *testing.T) {
	_, _, err := plugins.NewTagger(viper.New(), nil)

	assert.EqualError(t, err, "Missing [repository] configuration key for plugin [tagger]")
}

func TestTaggerBeforeFirstSync(t *testing.T) {
	clock := &fixedClock{now: time.Now()}
	_, p := newTestTagger(t, newTagSource(), nil, clock)

	assertplugin.New().CommandAnswers(t, p, &helpscot.IncomingMessage{Command: "tag", NormalizedText: "basics"}, func(t *testing.T, answers []*helpscot.Answer, sent []capture.Message) bool {
		return assert.Len(t, answers, 1) && assertanswer.HasText(t, answers[0], "Tags aren't loaded yet, try again in a minute")
	})
}

func TestTagCommand(t *testing.T) {
	p, _ := newLoadedTagger(t)
	asserter := assertplugin.New(assertplugin.OptionUserInfoFinder(localeUserInfoFinder{locale: "en-US"}))

	testCases := []struct {
		text         string
		expectedText string
		blockTypes   []slack.MessageBlockType
	}{
		{"basics", "python.basics", []slack.MessageBlockType{slack.MBTSection}},
		{"python.basics", "python.basics", []slack.MessageBlockType{slack.MBTSection}},
		{"intro", "python.basics", []slack.MessageBlockType{slack.MBTSection}},
		{"basic", "Tag `basic` not found. Did you mean `python.basics`?", []slack.MessageBlockType{slack.MBTSection, slack.MBTAction}},
		{"bsc", "Tag `bsc` not found. The closest one is `python.basics`", []slack.MessageBlockType{}},
		{"zzzzzzzz", "Tag `zzzzzzzz` not found. Categories are `python`, try `/tag <category> list`", []slack.MessageBlockType{}},
		{"python list", "Tags in python", nil},
		{"python.list", "Tags in python", nil},
		{"rust list", "Category `rust` not found. Categories are `python`", []slack.MessageBlockType{}},
		{"", "Pick a tag", []slack.MessageBlockType{slack.MBTSection}},
	}

	for _, tc := range testCases {
		t.Run(tc.text, func(t *testing.T) {
			asserter.CommandAnswers(t, p, &helpscot.IncomingMessage{Command: "tag", NormalizedText: tc.text, Msg: slack.Msg{User: "U1"}}, func(t *testing.T, answers []*helpscot.Answer, sent []capture.Message) bool {
				if !assert.Len(t, answers, 1) || !assertanswer.HasText(t, answers[0], tc.expectedText) {
					return false
				}

				return tc.blockTypes == nil || assertanswer.HasBlockTypes(t, answers[0], tc.blockTypes...)
			})
		})
	}
}

func TestTagShownInChannel(t *testing.T) {
	p, _ := newLoadedTagger(t)

	assertplugin.New().CommandAnswers(t, p, &helpscot.IncomingMessage{Command: "tag", NormalizedText: "basics", Msg: slack.Msg{User: "U1"}}, func(t *testing.T, answers []*helpscot.Answer, sent []capture.Message) bool {
		return assert.Len(t, answers, 1) && assertanswer.HasOptions(t, answers[0], assertanswer.ResolvedAnswerOption{Key: helpscot.InChannelOpt, Value: "true"})
	})
}

func TestTagPickerSuggestions(t *testing.T) {
	p, _ := newLoadedTagger(t)

	i := &helpscot.Interaction{InteractionCallback: &slack.InteractionCallback{Type: slack.InteractionTypeBlockSuggestion, ActionID: plugins.TagPickerActionID, Value: "loo", User: slack.User{ID: "U1"}}}

	assertplugin.New().Suggests(t, p, i, func(t *testing.T, options []*slack.OptionBlockObject) bool {
		return assert.Len(t, options, 1) && assert.Equal(t, "python.loops", options[0].Value) && assert.Equal(t, "Loops", options[0].Description.Text)
	})
}

func TestTagPickerSelectionShowsTag(t *testing.T) {
	p, _ := newLoadedTagger(t)

	i := &helpscot.Interaction{InteractionCallback: &slack.InteractionCallback{Type: slack.InteractionTypeBlockActions, User: slack.User{ID: "U1"}},
		Action: &slack.BlockAction{ActionID: plugins.TagPickerActionID, SelectedOption: slack.OptionBlockObject{Value: "python.basics"}}}

	assertplugin.New().InteractionAnswers(t, p, i, func(t *testing.T, answers []*helpscot.Answer, sent []capture.Message) bool {
		return assert.Len(t, answers, 1) && assertanswer.HasText(t, answers[0], "python.basics") &&
			assertanswer.HasOptions(t, answers[0], assertanswer.ResolvedAnswerOption{Key: helpscot.InChannelOpt, Value: "true"})
	})
}

func TestDidYouMeanShowsTag(t *testing.T) {
	p, _ := newLoadedTagger(t)

	i := &helpscot.Interaction{InteractionCallback: &slack.InteractionCallback{Type: slack.InteractionTypeBlockActions, User: slack.User{ID: "U1"}},
		Action: &slack.BlockAction{ActionID: plugins.DidYouMeanActionID, Value: "python.basics"}}

	assertplugin.New().InteractionAnswers(t, p, i, func(t *testing.T, answers []*helpscot.Answer, sent []capture.Message) bool {
		return assert.Len(t, answers, 1) && assertanswer.HasText(t, answers[0], "python.basics")
	})
}

func TestTagChoiceSelection(t *testing.T) {
	p, clock := newLoadedTagger(t)
	asserter := assertplugin.New()

	var blockID string
	asserter.CommandAnswers(t, p, &helpscot.IncomingMessage{Command: "tag", NormalizedText: "loops", Msg: slack.Msg{User: "U1"}}, func(t *testing.T, answers []*helpscot.Answer, sent []capture.Message) bool {
		if !assert.Len(t, answers, 1) {
			return false
		}

		blockID = choiceBlockID(t, answers[0].ContentBlocks)
		return true
	})

	choose := func(user string) *helpscot.Interaction {
		return &helpscot.Interaction{InteractionCallback: &slack.InteractionCallback{Type: slack.InteractionTypeBlockActions, User: slack.User{ID: user}},
			Action: &slack.BlockAction{ActionID: tags.ChoiceActionID, BlockID: blockID, SelectedOption: slack.OptionBlockObject{Value: "fast"}}}
	}

	asserter.InteractionAnswers(t, p, choose("U2"), func(t *testing.T, answers []*helpscot.Answer, sent []capture.Message) bool {
		return assert.Empty(t, answers)
	})

	asserter.InteractionAnswers(t, p, choose("U1"), func(t *testing.T, answers []*helpscot.Answer, sent []capture.Message) bool {
		return assert.Len(t, answers, 1) && assertanswer.HasText(t, answers[0], "fast") &&
			assertanswer.HasOptions(t, answers[0], assertanswer.ResolvedAnswerOption{Key: helpscot.ReplaceOriginalOpt, Value: "true"}, assertanswer.ResolvedAnswerOption{Key: helpscot.InChannelOpt, Value: "true"})
	})

	clock.Advance(4 * time.Minute)

	asserter.InteractionAnswers(t, p, choose("U1"), func(t *testing.T, answers []*helpscot.Answer, sent []capture.Message) bool {
		return assert.Empty(t, answers)
	})
}

func TestForceResync(t *testing.T) {
	clock := &fixedClock{now: time.Date(2024, time.March, 4, 10, 0, 0, 0, time.UTC)}
	_, p := newTestTagger(t, newTagSource(), nil, clock)
	asserter := assertplugin.New()

	asserter.CommandAnswers(t, p, &helpscot.IncomingMessage{Command: "force_resync", Msg: slack.Msg{User: "U1"}}, func(t *testing.T, answers []*helpscot.Answer, sent []capture.Message) bool {
		return assert.Len(t, answers, 1) && assertanswer.HasText(t, answers[0], "Only admins can force a resync of tags")
	})

	asserter.CommandAnswers(t, p, &helpscot.IncomingMessage{Command: "force_resync", Msg: slack.Msg{User: "UADMIN"}}, func(t *testing.T, answers []*helpscot.Answer, sent []capture.Message) bool {
		return assert.Len(t, answers, 1) && assertanswer.HasTextContaining(t, answers[0], "Resynced [2] tag(s)\nSync state: ")
	})
}

func TestForceResyncFailure(t *testing.T) {
	clock := &fixedClock{now: time.Date(2024, time.March, 4, 10, 0, 0, 0, time.UTC)}
	source := newTagSource()
	source.latestErr = fmt.Errorf("github is down")
	_, p := newTestTagger(t, source, nil, clock)

	assertplugin.New().CommandAnswers(t, p, &helpscot.IncomingMessage{Command: "force_resync", Msg: slack.Msg{User: "UADMIN"}}, func(t *testing.T, answers []*helpscot.Answer, sent []capture.Message) bool {
		return assert.Len(t, answers, 1) && assertanswer.HasTextContaining(t, answers[0], "Resync failed: github is down")
	})
}

func TestTaggerRestoresSnapshotOnStartup(t *testing.T) {
	dir := t.TempDir()
	clock := &fixedClock{now: time.Date(2024, time.March, 4, 10, 0, 0, 0, time.UTC)}

	ldb, err := store.NewLevelDB("tagger", dir)
	require.NoError(t, err)

	closer, p := newTestTagger(t, newTagSource(), ldb, clock)
	p.ScheduledActions[0].Action()
	require.NoError(t, closer.Close())

	ldb, err = store.NewLevelDB("tagger", dir)
	require.NoError(t, err)

	unreachable := newTagSource()
	unreachable.latestErr = fmt.Errorf("github is down")
	closer, p = newTestTagger(t, unreachable, ldb, clock)
	defer closer.Close()

	assertplugin.New().CommandAnswers(t, p, &helpscot.IncomingMessage{Command: "tag", NormalizedText: "basics", Msg: slack.Msg{User: "U1"}}, func(t *testing.T, answers []*helpscot.Answer, sent []capture.Message) bool {
		return assert.Len(t, answers, 1) && assertanswer.HasText(t, answers[0], "python.basics")
	})
}
