package plugins

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/bugcenter/helpscot"
	"github.com/bugcenter/helpscot/actions"
	"github.com/bugcenter/helpscot/config"
	"github.com/bugcenter/helpscot/paste"
	"github.com/bugcenter/helpscot/plugin"
	"github.com/pkg/errors"
	"github.com/slack-go/slack"
	"io"
	"net/http"
	"regexp"
	"sync"
	"time"
)

const (
	// TokenGuardPluginName holds identifying name for the token guard plugin
	TokenGuardPluginName = "tokenguard"

	revokeDelayKey    = "revokeDelay"
	discordBaseURLKey = "discordBaseURL"
	slackAPIURLKey    = "slackAPIURL"

	defaultRevokeDelay    = 30 * time.Second
	defaultDiscordBaseURL = "https://discord.com/api/v10"
	revokeGistFilename    = "token revoke"
)

var (
	discordTokenRegex = regexp.MustCompile(`[\w\-=]{24}\.[\w\-=]{6}\.[\w\-=]{27}`)
	slackTokenRegex   = regexp.MustCompile(`xox[abeoprs]-[0-9A-Za-z\-]{10,}`)
)

// TokenGuard holds the plugin data for the token guard plugin. It watches messages for live Slack and
// Discord tokens and gets them revoked by publishing them to a short-lived public gist. Secret scanning
// of the gist host notifies the token provider which revokes them
type TokenGuard struct {
	*helpscot.Plugin

	paster         paste.Paster
	client         *http.Client
	discordBaseURL string
	slackAPIURL    string
	revokeDelay    time.Duration

	ctx         context.Context
	cancel      context.CancelFunc
	revocations sync.WaitGroup
}

type discordUser struct {
	ID string `json:"id"`
}

// NewTokenGuard creates a new instance of the token guard plugin. Closing it deletes the gists of
// revocations still waiting for their delay to pass
func NewTokenGuard(c *config.PluginConfig, paster paste.Paster) (closer io.Closer, p *helpscot.Plugin, err error) {
	c.SetDefault(revokeDelayKey, defaultRevokeDelay)
	c.SetDefault(discordBaseURLKey, defaultDiscordBaseURL)
	c.SetDefault(slackAPIURLKey, slack.APIURL)

	tg := new(TokenGuard)
	tg.paster = paster
	tg.client = &http.Client{Timeout: defaultRequestTimeout}
	tg.discordBaseURL = c.GetString(discordBaseURLKey)
	tg.slackAPIURL = c.GetString(slackAPIURLKey)
	tg.revokeDelay = c.GetDuration(revokeDelayKey)
	tg.ctx, tg.cancel = context.WithCancel(context.Background())

	tg.Plugin = plugin.New(TokenGuardPluginName).
		WithHearAction(actions.NewHearAction().
			WithMatcher(func(m *helpscot.IncomingMessage) bool {
				return discordTokenRegex.MatchString(m.Text) || slackTokenRegex.MatchString(m.Text)
			}).
			WithUsage("post a token").
			WithDescription("Get leaked Slack and Discord tokens revoked").
			WithAnswerer(tg.guard).
			Hidden().
			Build()).
		Build()

	return tg, tg.Plugin, nil
}

// Close deletes pending revocation gists right away and waits for their deletion
func (tg *TokenGuard) Close() (err error) {
	tg.cancel()
	tg.revocations.Wait()

	return nil
}

func (tg *TokenGuard) guard(m *helpscot.IncomingMessage) *helpscot.Answer {
	ctx, cancel := context.WithTimeout(context.Background(), defaultRequestTimeout)
	defer cancel()

	if token := discordTokenRegex.FindString(m.Text); token != "" {
		if u, ok := tg.verifyDiscord(ctx, "Bot "+token); ok {
			tg.contain(ctx, m, token)
			return &helpscot.Answer{Text: fmt.Sprintf("*<@%s> you just posted a valid Discord bot token.*\nIt is being reset automatically but reset it yourself too on the developer portal (https://discord.com/developers/applications/%s).", m.User, u.ID)}
		}

		if _, ok := tg.verifyDiscord(ctx, token); ok {
			tg.contain(ctx, m, token)
			return &helpscot.Answer{Text: fmt.Sprintf("*<@%s> you just posted a valid Discord user token.*\nIt is being reset automatically, change your password to be safe.", m.User)}
		}
	}

	if token := slackTokenRegex.FindString(m.Text); token != "" {
		if resp, ok := tg.verifySlack(ctx, token); ok {
			tg.contain(ctx, m, token)
			return &helpscot.Answer{Text: fmt.Sprintf("*<@%s> you just posted a valid Slack token for `%s`.*\nIt is being revoked automatically, rotate it on https://api.slack.com/apps too.", m.User, resp.Team)}
		}
	}

	return nil
}

// verifyDiscord returns the user authenticated by authorization, if any
func (tg *TokenGuard) verifyDiscord(ctx context.Context, authorization string) (u discordUser, ok bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tg.discordBaseURL+"/users/@me", nil)
	if err != nil {
		return u, false
	}
	req.Header.Set("Authorization", authorization)

	resp, err := tg.client.Do(req)
	if err != nil {
		tg.Logger.Printf("Unable to verify discord token: %v\n", err)
		return u, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return u, false
	}

	if err = json.NewDecoder(resp.Body).Decode(&u); err != nil {
		tg.Logger.Printf("Unable to decode discord user: %v\n", err)
	}

	return u, true
}

// verifySlack returns the identity of a live slack token
func (tg *TokenGuard) verifySlack(ctx context.Context, token string) (resp *slack.AuthTestResponse, ok bool) {
	client := slack.New(token, slack.OptionAPIURL(tg.slackAPIURL), slack.OptionHTTPClient(tg.client))

	resp, err := client.AuthTestContext(ctx)
	if err != nil {
		tg.Logger.Debugf("Slack token candidate isn't live: %v\n", err)
		return nil, false
	}

	return resp, true
}

// contain deletes the message holding the token and publishes the token for revocation
func (tg *TokenGuard) contain(ctx context.Context, m *helpscot.IncomingMessage, token string) {
	tg.Logger.Printf("Live token posted by [%s] in [%s], revoking it\n", m.User, m.Channel)

	if _, _, err := tg.ChatDriver.DeleteMessageContext(ctx, m.Channel, m.Timestamp); err != nil {
		tg.Logger.Printf("Unable to delete message [%s] in [%s]: %v\n", m.Timestamp, m.Channel, err)
	}

	if err := tg.revoke(ctx, token); err != nil {
		tg.Logger.Printf("Unable to publish token for revocation: %v\n", err)
	}
}

// revoke publishes token to a gist that gets deleted after the revoke delay
func (tg *TokenGuard) revoke(ctx context.Context, token string) (err error) {
	p, err := tg.paster.Create(ctx, revokeGistFilename, token)
	if err != nil {
		return errors.Wrap(err, "failed to create revocation gist")
	}

	tg.revocations.Add(1)
	go func() {
		defer tg.revocations.Done()

		timer := time.NewTimer(tg.revokeDelay)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-tg.ctx.Done():
		}

		ctx, cancel := context.WithTimeout(context.Background(), defaultRequestTimeout)
		defer cancel()

		if err := tg.paster.Delete(ctx, p.ID); err != nil && !errors.Is(err, paste.ErrNotFound) {
			tg.Logger.Printf("Unable to delete revocation gist [%s]: %v\n", p.ID, err)
		}
	}()

	return nil
}
