package tags

import (
	"fmt"
	"github.com/slack-go/slack"
	"strconv"
	"strings"
	"time"
)

const (
	// ChoiceActionID is the action id of the select control of multi-choice tags
	ChoiceActionID = "tag_choice"

	defaultChoiceTimeout = 3 * time.Minute

	maxSectionText = 3000
	maxFields      = 10
	maxOptionText  = 75
)

// ChoiceContext is what the select control of a multi-choice tag remembers about the message it
// was rendered in. It round-trips through the block id of the control
type ChoiceContext struct {
	Requester  string
	Identifier string
	Locale     string
	IssuedAt   time.Time
}

// BlockID encodes the context as a block id. The identifier goes last since it is the only part
// that could contain the separator
func (cc ChoiceContext) BlockID() string {
	return strings.Join([]string{ChoiceActionID, cc.Requester, cc.Locale, strconv.FormatInt(cc.IssuedAt.Unix(), 10), cc.Identifier}, "|")
}

// ParseChoiceBlockID decodes a block id generated by BlockID
func ParseChoiceBlockID(blockID string) (cc ChoiceContext, ok bool) {
	parts := strings.SplitN(blockID, "|", 5)
	if len(parts) != 5 || parts[0] != ChoiceActionID {
		return cc, false
	}

	issuedAt, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return cc, false
	}

	return ChoiceContext{Requester: parts[1], Locale: parts[2], IssuedAt: time.Unix(issuedAt, 0).UTC(), Identifier: parts[4]}, true
}

// Responder renders tags as slack blocks and handles the selection of choices of multi-choice tags
type Responder struct {
	clock         Clock
	choiceTimeout time.Duration
}

// ResponderOption defines an option for a Responder
type ResponderOption func(*Responder)

// OptionResponderClock sets the clock used to timestamp and expire choice controls
func OptionResponderClock(clock Clock) func(*Responder) {
	return func(r *Responder) {
		r.clock = clock
	}
}

// OptionChoiceTimeout sets how long the requester can switch between the choices of a tag
func OptionChoiceTimeout(timeout time.Duration) func(*Responder) {
	return func(r *Responder) {
		r.choiceTimeout = timeout
	}
}

// NewResponder returns a new Responder
func NewResponder(options ...ResponderOption) (r *Responder) {
	r = new(Responder)
	r.clock = SystemClock()
	r.choiceTimeout = defaultChoiceTimeout

	for _, opt := range options {
		opt(r)
	}

	return r
}

// Render renders a tag requested by requester. A multi-choice tag shows its first choice along
// with a select control listing all of them
func (r *Responder) Render(t *Tag, requester string) []slack.Block {
	cc := ChoiceContext{Requester: requester, Identifier: t.Identifier(), Locale: t.Locale, IssuedAt: r.clock.Now()}

	shown := ""
	if mc, ok := t.Content.(MultiChoice); ok && len(mc.Choices) > 0 {
		shown = mc.Choices[0].Name
	}

	return r.render(t, cc, shown)
}

// Select handles the selection of choice by actor on the control identified by blockID. It
// returns the blocks to replace the message with, or false when the selection has no effect:
// the actor isn't the requester, the control expired or the tag/choice is gone from c
func (r *Responder) Select(c *Catalogue, blockID string, choice string, actor string) (blocks []slack.Block, ok bool) {
	cc, ok := ParseChoiceBlockID(blockID)
	if !ok || cc.Requester != actor {
		return nil, false
	}

	if r.clock.Now().Sub(cc.IssuedAt) > r.choiceTimeout {
		return nil, false
	}

	t, ok := c.Find(cc.Identifier, cc.Locale)
	if !ok {
		return nil, false
	}

	mc, ok := t.Content.(MultiChoice)
	if !ok {
		return nil, false
	}

	for _, ch := range mc.Choices {
		if ch.Name == choice {
			return r.render(t, cc, choice), true
		}
	}

	return nil, false
}

func (r *Responder) render(t *Tag, cc ChoiceContext, shown string) (blocks []slack.Block) {
	switch ct := t.Content.(type) {
	case Single:
		blocks = renderPayload(ct.Payload)

	case MultiChoice:
		options := make([]*slack.OptionBlockObject, 0, len(ct.Choices))
		var initial *slack.OptionBlockObject

		for _, ch := range ct.Choices {
			o := slack.NewOptionBlockObject(ch.Name, slack.NewTextBlockObject(slack.PlainTextType, truncate(ch.Name, maxOptionText), false, false), nil)
			options = append(options, o)

			if initial == nil && ch.Name == shown {
				initial = o
				blocks = renderPayload(ch.Payload)
			}
		}

		sel := slack.NewOptionsSelectBlockElement(slack.OptTypeStatic, slack.NewTextBlockObject(slack.PlainTextType, "Pick another answer", false, false), ChoiceActionID, options...)
		sel.InitialOption = initial

		blocks = append(blocks, slack.NewActionBlock(cc.BlockID(), sel))
	}

	footer := fmt.Sprintf("`/tag %s`", t.Identifier())
	if cc.Requester != "" {
		footer = fmt.Sprintf("%s requested by <@%s>", footer, cc.Requester)
	}

	return append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject(slack.MarkdownType, footer, false, false)))
}

func renderPayload(p Payload) (blocks []slack.Block) {
	blocks = make([]slack.Block, 0)

	if p.Text != "" {
		blocks = append(blocks, markdownSection(p.Text))
	}

	for _, e := range p.Embeds {
		blocks = append(blocks, renderEmbed(e)...)
	}

	if len(p.Attachments) > 0 {
		var b strings.Builder
		for _, a := range p.Attachments {
			fmt.Fprintf(&b, ":paperclip: <%s|%s>", a.URL, a.Filename)
			if a.Description != "" {
				fmt.Fprintf(&b, " - %s", a.Description)
			}
			b.WriteString("\n")
		}

		blocks = append(blocks, markdownSection(strings.TrimSuffix(b.String(), "\n")))
	}

	return blocks
}

func renderEmbed(e Embed) (blocks []slack.Block) {
	text := fmt.Sprintf("*%s*", e.Title)
	if e.Description != "" {
		text = fmt.Sprintf("%s\n%s", text, e.Description)
	}

	var fields []*slack.TextBlockObject
	for i, f := range e.Fields {
		if i == maxFields {
			break
		}

		fields = append(fields, slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*%s*\n%s", f.Name, f.Value), false, false))
	}

	var accessory *slack.Accessory
	if e.ThumbnailURL != "" {
		accessory = slack.NewAccessory(slack.NewImageBlockElement(e.ThumbnailURL, e.Title))
	}

	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, truncate(text, maxSectionText), false, false), fields, accessory))

	if e.ImageURL != "" {
		blocks = append(blocks, slack.NewImageBlock(e.ImageURL, e.Title, "", nil))
	}

	return blocks
}

// RenderListing renders the listing of the tags of a category
func RenderListing(category string, listing []*Tag) []slack.Block {
	if len(listing) == 0 {
		return []slack.Block{markdownSection(fmt.Sprintf("No tags in *%s* yet", category))}
	}

	var b strings.Builder
	for _, t := range listing {
		fmt.Fprintf(&b, "• `%s`", t.Name)
		if t.Description != "" {
			fmt.Fprintf(&b, " - %s", t.Description)
		}
		b.WriteString("\n")
	}

	return []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, fmt.Sprintf("Tags in %s", category), false, false)),
		markdownSection(strings.TrimSuffix(b.String(), "\n")),
	}
}

func markdownSection(text string) *slack.SectionBlock {
	return slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, truncate(text, maxSectionText), false, false), nil, nil)
}

// truncate shortens s to at most max runes, ending it with an ellipsis when cut
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}

	return string(runes[:max-1]) + "…"
}
