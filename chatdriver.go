package helpscot

import (
	"context"
	"github.com/slack-go/slack"
	"io"
)

// ChatDriver is implemented by any value able to post, delete messages and download files on
// slack. It's injected into plugins for interactions outside of the normal answer flow (i.e.
// deleting a message leaking a token or downloading a shared file).
//
// slack.Client implements this interface
type ChatDriver interface {
	// PostMessageContext sends a message to a channel. See https://pkg.go.dev/github.com/slack-go/slack#Client.PostMessageContext
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (respChannel string, respTimestamp string, err error)

	// PostEphemeralContext sends a message visible only to userID. See https://pkg.go.dev/github.com/slack-go/slack#Client.PostEphemeralContext
	PostEphemeralContext(ctx context.Context, channelID string, userID string, options ...slack.MsgOption) (timestamp string, err error)

	// DeleteMessageContext deletes a message. See https://pkg.go.dev/github.com/slack-go/slack#Client.DeleteMessageContext
	DeleteMessageContext(ctx context.Context, channel string, messageTimestamp string) (respChannel string, respTimestamp string, err error)

	// GetFileContext downloads a private file. See https://pkg.go.dev/github.com/slack-go/slack#Client.GetFileContext
	GetFileContext(ctx context.Context, downloadURL string, writer io.Writer) (err error)
}

// SelfIdentifier is implemented by any value able to tell who the bot is.
//
// slack.Client implements this interface
type SelfIdentifier interface {
	AuthTestContext(ctx context.Context) (response *slack.AuthTestResponse, err error)
}

// webhookPoster posts a message to a response url
type webhookPoster func(ctx context.Context, url string, msg *slack.WebhookMessage) (err error)
