package plugins

import (
	"context"
	"fmt"
	"github.com/bugcenter/helpscot"
	"github.com/bugcenter/helpscot/actions"
	"github.com/bugcenter/helpscot/config"
	"github.com/bugcenter/helpscot/plugin"
	"github.com/bugcenter/helpscot/schedule"
	"github.com/bugcenter/helpscot/store"
	"github.com/bugcenter/helpscot/tags"
	"github.com/slack-go/slack"
	"github.com/spf13/cast"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

const (
	// TaggerPluginName holds identifying name for the tagger plugin
	TaggerPluginName = "tagger"

	// TagPickerActionID is the action id of the external select listing tags
	TagPickerActionID = "tag_picker"

	// DidYouMeanActionID is the action id of the button accepting a correction
	DidYouMeanActionID = "tag_did_you_mean"
)

// Configuration keys
const (
	repositoryKey        = "repository"
	rootKey              = "root"
	githubTokenKey       = "githubToken"
	githubBaseURLKey     = "githubBaseURL"
	syncIntervalKey      = "syncInterval"
	settleDelayKey       = "settleDelay"
	staleAfterKey        = "staleAfter"
	choiceTimeoutKey     = "choiceTimeout"
	defaultLocaleKey     = "defaultLocale"
	adminsKey            = "admins"
	requestsPerSecondKey = "requestsPerSecond"
)

const (
	defaultRoot              = "src"
	defaultGitHubBaseURL     = "https://api.github.com"
	defaultSyncInterval      = time.Minute
	defaultSettleDelay       = 5 * time.Minute
	defaultStaleAfter        = time.Hour
	defaultChoiceTimeout     = 3 * time.Minute
	defaultTagLocale         = "fr_FR"
	defaultRequestsPerSecond = 5

	syncTimeout   = 2 * time.Minute
	maxOptionText = 75
)

// Tagger holds the plugin data for the tagger plugin. It serves the tags of a github repository kept in sync
// by a poller ticking on a schedule
type Tagger struct {
	*helpscot.Plugin

	repository string
	store      *tags.Store
	poller     *tags.Poller
	responder  *tags.Responder
	admins     map[string]bool
	storer     store.StringStorer
	logger     helpscot.SLogger
}

// TaggerOption defines an option for the tagger
type TaggerOption func(*taggerOptions)

type taggerOptions struct {
	source tags.Source
	clock  tags.Clock
}

// OptionTagSource sets the source of tags. Defaults to the configured github repository
func OptionTagSource(source tags.Source) func(*taggerOptions) {
	return func(o *taggerOptions) {
		o.source = source
	}
}

// OptionTaggerClock sets the clock of the poller and choice controls
func OptionTaggerClock(clock tags.Clock) func(*taggerOptions) {
	return func(o *taggerOptions) {
		o.clock = clock
	}
}

// pluginLogger logs with the logger injected in the plugin once registered, and to stdout until then
type pluginLogger struct {
	p        *helpscot.Plugin
	fallback helpscot.SLogger
}

func (pl pluginLogger) logger() helpscot.SLogger {
	if pl.p.Logger != nil {
		return pl.p.Logger
	}

	return pl.fallback
}

func (pl pluginLogger) Printf(format string, v ...interface{}) {
	pl.logger().Printf(format, v...)
}

func (pl pluginLogger) Debugf(format string, v ...interface{}) {
	pl.logger().Debugf(format, v...)
}

// NewTagger creates a new instance of the tagger plugin. When storer isn't nil, the catalogue is restored from
// the snapshot it holds and every successful refresh is saved to it. The returned closer closes the storer
func NewTagger(c *config.PluginConfig, storer store.StringStorer, options ...TaggerOption) (closer io.Closer, p *helpscot.Plugin, err error) {
	t, err := newTagger(c, storer, options...)
	if err != nil {
		return nil, nil, err
	}

	return t, t.Plugin, nil
}

func newTagger(c *config.PluginConfig, storer store.StringStorer, options ...TaggerOption) (t *Tagger, err error) {
	if !c.IsSet(repositoryKey) {
		return nil, fmt.Errorf("Missing [%s] configuration key for plugin [%s]", repositoryKey, TaggerPluginName)
	}

	c.SetDefault(rootKey, defaultRoot)
	c.SetDefault(githubBaseURLKey, defaultGitHubBaseURL)
	c.SetDefault(syncIntervalKey, defaultSyncInterval)
	c.SetDefault(settleDelayKey, defaultSettleDelay)
	c.SetDefault(staleAfterKey, defaultStaleAfter)
	c.SetDefault(choiceTimeoutKey, defaultChoiceTimeout)
	c.SetDefault(defaultLocaleKey, defaultTagLocale)
	c.SetDefault(requestsPerSecondKey, defaultRequestsPerSecond)

	opts := taggerOptions{clock: tags.SystemClock()}
	for _, opt := range options {
		opt(&opts)
	}

	t = new(Tagger)
	t.repository = c.GetString(repositoryKey)
	t.storer = storer
	t.admins = make(map[string]bool)
	for _, a := range cast.ToStringSlice(c.Get(adminsKey)) {
		t.admins[a] = true
	}

	if opts.source == nil {
		opts.source = tags.NewGitHubSource(t.repository, tags.OptionBaseURL(c.GetString(githubBaseURLKey)), tags.OptionRoot(c.GetString(rootKey)),
			tags.OptionToken(c.GetString(githubTokenKey)), tags.OptionRequestsPerSecond(c.GetFloat64(requestsPerSecondKey)))
	}

	syncInterval := c.GetDuration(syncIntervalKey)
	t.Plugin = plugin.New(TaggerPluginName).
		WithCommand(actions.NewCommand("tag").
			WithUsage("/tag <category.name | name | category list>").
			WithDescription("Show a tag, the tags of a category or, without argument, a tag picker").
			WithAnswerer(t.answerTag).
			Build()).
		WithCommand(actions.NewCommand("force_resync").
			WithDescription("Reload tags from the repository right away (admins only)").
			WithAnswerer(t.forceResync).
			Build()).
		WithInteraction(actions.NewBlockAction(tags.ChoiceActionID).
			WithInteractionAnswerer(t.selectChoice).
			Build()).
		WithInteraction(actions.NewBlockAction(DidYouMeanActionID).
			WithInteractionAnswerer(t.showSelectedTag).
			Build()).
		WithInteraction(actions.NewBlockAction(TagPickerActionID).
			WithInteractionAnswerer(t.showSelectedTag).
			Build()).
		WithSuggestion(actions.NewSuggestion(TagPickerActionID, t.suggestTags)).
		WithScheduledAction(actions.NewScheduledAction().
			WithSchedule(schedule.Every(syncInterval)).
			WithDescriptionf("Sync tags from [%s]", t.repository).
			WithAction(t.sync).
			RunOnStart().
			Build()).
		Build()

	logger := pluginLogger{p: t.Plugin, fallback: helpscot.NewSLogger(log.New(os.Stdout, fmt.Sprintf("%s: ", TaggerPluginName), log.Lshortfile|log.LstdFlags), false)}
	t.logger = logger

	t.store = tags.NewStore(c.GetString(defaultLocaleKey), tags.OptionStoreClock(opts.clock))
	t.responder = tags.NewResponder(tags.OptionResponderClock(opts.clock), tags.OptionChoiceTimeout(c.GetDuration(choiceTimeoutKey)))

	pollerOptions := []tags.PollerOption{tags.OptionInterval(syncInterval), tags.OptionSettleDelay(c.GetDuration(settleDelayKey)),
		tags.OptionStaleAfter(c.GetDuration(staleAfterKey)), tags.OptionClock(opts.clock), tags.OptionLogger(logger)}

	if storer != nil {
		snapshotter := tags.NewSnapshotter(storer)

		restored, errs, err := snapshotter.Restore(t.store)
		if err != nil {
			logger.Printf("Unable to restore tags snapshot: %v\n", err)
		} else if restored {
			logger.Printf("Restored [%d] tag(s) at revision [%s] with [%d] error(s)\n", t.store.Snapshot().Size(), t.store.Snapshot().Revision(), len(errs))
			for _, e := range errs {
				logger.Debugf("Skipped document on restore: %v\n", e)
			}
		}

		pollerOptions = append(pollerOptions, tags.OptionPersister(snapshotter))
	}

	if t.poller, err = tags.NewPoller(opts.source, t.store, pollerOptions...); err != nil {
		return nil, err
	}

	return t, nil
}

// Close closes the snapshot storer, if any
func (t *Tagger) Close() (err error) {
	if t.storer != nil {
		return t.storer.Close()
	}

	return nil
}

// sync runs one tick of the poller
func (t *Tagger) sync() {
	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	if err := t.poller.Tick(ctx); err != nil {
		t.logger.Debugf("Tag sync tick failed: %v\n", err)
	}
}

// locale returns the locale of a user in tag form (en_US) or an empty string if unknown
func (t *Tagger) locale(userID string) string {
	if t.UserInfoFinder == nil || userID == "" {
		return ""
	}

	u, err := t.UserInfoFinder.GetUserInfo(userID)
	if err != nil || u == nil {
		return ""
	}

	return strings.Replace(u.Locale, "-", "_", 1)
}

func (t *Tagger) answerTag(m *helpscot.IncomingMessage) *helpscot.Answer {
	c := t.store.Snapshot()
	if c.Size() == 0 && len(c.Categories()) == 0 {
		return &helpscot.Answer{Text: "Tags aren't loaded yet, try again in a minute"}
	}

	query := m.NormalizedText
	if query == "" {
		return newTagPicker()
	}

	locale := t.locale(m.User)

	fields := strings.Fields(query)
	if len(fields) == 2 && strings.EqualFold(fields[1], tags.ListKeyword) {
		return t.answerListing(c, fields[0], locale)
	}

	if category, name, ok := strings.Cut(query, "."); ok && strings.EqualFold(name, tags.ListKeyword) {
		return t.answerListing(c, category, locale)
	}

	r := tags.Resolve(c, query, locale)
	switch {
	case r.Found():
		return t.renderTag(r.Tag, m.User)

	case r.Correction():
		text := fmt.Sprintf("Tag `%s` not found. Did you mean `%s`?", query, r.Candidate.Identifier())
		button := slack.NewButtonBlockElement(DidYouMeanActionID, r.Candidate.Identifier(), slack.NewTextBlockObject(slack.PlainTextType, fmt.Sprintf("Show %s", r.Candidate.Identifier()), false, false))
		button.Style = slack.StylePrimary

		return &helpscot.Answer{Text: text, ContentBlocks: []slack.Block{
			slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil),
			slack.NewActionBlock("", button),
		}}

	case r.Hint():
		return &helpscot.Answer{Text: fmt.Sprintf("Tag `%s` not found. The closest one is `%s`", query, r.Candidate.Identifier())}

	default:
		return &helpscot.Answer{Text: fmt.Sprintf("Tag `%s` not found. Categories are %s, try `/tag <category> list`", query, formatCategories(c.Categories()))}
	}
}

func (t *Tagger) answerListing(c *tags.Catalogue, category string, locale string) *helpscot.Answer {
	listing, err := c.List(category, locale)
	if err != nil {
		return &helpscot.Answer{Text: fmt.Sprintf("Category `%s` not found. Categories are %s", category, formatCategories(c.Categories()))}
	}

	return &helpscot.Answer{Text: fmt.Sprintf("Tags in %s", category), ContentBlocks: tags.RenderListing(category, listing)}
}

func (t *Tagger) renderTag(tag *tags.Tag, requester string) *helpscot.Answer {
	return &helpscot.Answer{Text: tag.Identifier(), ContentBlocks: t.responder.Render(tag, requester), Options: []helpscot.AnswerOption{helpscot.AnswerInChannel()}}
}

func formatCategories(categories []string) string {
	if len(categories) == 0 {
		return "none"
	}

	quoted := make([]string, 0, len(categories))
	for _, c := range categories {
		quoted = append(quoted, fmt.Sprintf("`%s`", c))
	}

	return strings.Join(quoted, ", ")
}

// newTagPicker returns an answer holding an external select suggesting tags as the user types
func newTagPicker() *helpscot.Answer {
	minQueryLength := 1
	picker := slack.NewOptionsSelectBlockElement(slack.OptTypeExternal, slack.NewTextBlockObject(slack.PlainTextType, "Search tags", false, false), TagPickerActionID)
	picker.MinQueryLength = &minQueryLength

	return &helpscot.Answer{Text: "Pick a tag", ContentBlocks: []slack.Block{
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, "Pick a tag to show", false, false), nil, slack.NewAccessory(picker)),
	}}
}

func (t *Tagger) forceResync(m *helpscot.IncomingMessage) *helpscot.Answer {
	if !t.admins[m.User] {
		return &helpscot.Answer{Text: "Only admins can force a resync of tags"}
	}

	t.logger.Printf("Forced resync of tags requested by [%s]\n", m.User)

	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	st, err := t.poller.ForceRefresh(ctx)
	if err != nil {
		return &helpscot.Answer{Text: fmt.Sprintf("Resync failed: %v\nSync state: %s", err, st)}
	}

	return &helpscot.Answer{Text: fmt.Sprintf("Resynced [%d] tag(s)\nSync state: %s", t.store.Snapshot().Size(), st)}
}

// selectChoice switches the choice shown by a multi-choice tag. Selections that have no effect are acknowledged
// without an answer
func (t *Tagger) selectChoice(i *helpscot.Interaction) *helpscot.Answer {
	blocks, ok := t.responder.Select(t.store.Snapshot(), i.Action.BlockID, i.Action.SelectedOption.Value, i.User.ID)
	if !ok {
		t.logger.Debugf("Ignoring selection of [%s] by [%s] on [%s]\n", i.Action.SelectedOption.Value, i.User.ID, i.Action.BlockID)
		return nil
	}

	return &helpscot.Answer{Text: i.Action.SelectedOption.Value, ContentBlocks: blocks, Options: []helpscot.AnswerOption{helpscot.AnswerReplaceOriginal(), helpscot.AnswerInChannel()}}
}

// showSelectedTag shows the tag picked from the tag picker or accepted as a correction
func (t *Tagger) showSelectedTag(i *helpscot.Interaction) *helpscot.Answer {
	identifier := i.Action.Value
	if identifier == "" {
		identifier = i.Action.SelectedOption.Value
	}

	tag, ok := t.store.Snapshot().Find(identifier, t.locale(i.User.ID))
	if !ok {
		return &helpscot.Answer{Text: fmt.Sprintf("Tag `%s` is gone", identifier)}
	}

	return t.renderTag(tag, i.User.ID)
}

// suggestTags returns the ranked tags matching what the user typed in the tag picker
func (t *Tagger) suggestTags(i *helpscot.Interaction) []*slack.OptionBlockObject {
	suggestions := tags.Suggest(t.store.Snapshot(), i.Value, t.locale(i.User.ID), tags.MaxSuggestions)

	options := make([]*slack.OptionBlockObject, 0, len(suggestions))
	for _, s := range suggestions {
		var description *slack.TextBlockObject
		if s.Tag.Description != "" {
			description = slack.NewTextBlockObject(slack.PlainTextType, truncate(s.Tag.Description, maxOptionText), false, false)
		}

		options = append(options, slack.NewOptionBlockObject(s.Tag.Identifier(), slack.NewTextBlockObject(slack.PlainTextType, truncate(s.Tag.Identifier(), maxOptionText), false, false), description))
	}

	return options
}

// truncate cuts s to max runes, ending it with an ellipsis when cut
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}

	return string(r[:max-1]) + "…"
}
