package helpscot

import (
	"github.com/slack-go/slack"
)

const (
	// ThreadedReplyOpt is the name of the option indicating a threaded-reply answer
	ThreadedReplyOpt = "threadedReply"
	// ThreadTimestamp is the name of the option indicating the explicit timestamp of the thread to reply to
	ThreadTimestamp = "threadTimestamp"
	// EphemeralAnswerToOpt marks an answer to be sent as an ephemeral message to the provided userID
	EphemeralAnswerToOpt = "ephemeralMsgToUserID"
	// InChannelOpt marks an answer to a slash command or interaction as visible to everyone in the channel
	InChannelOpt = "inChannel"
	// ReplaceOriginalOpt marks an answer to an interaction as replacing the message the interaction happened on
	ReplaceOriginalOpt = "replaceOriginal"
	// DeleteOriginalOpt marks an answer to an interaction as deleting the message the interaction happened on
	DeleteOriginalOpt = "deleteOriginal"
)

const (
	responseTypeEphemeral = "ephemeral"
	responseTypeInChannel = "in_channel"
)

// Answer holds data of an Action's Answer: namely, its text and options
// to use when delivering it
type Answer struct {
	Text string

	// Options to apply when sending a message
	Options []AnswerOption

	// BlockKit content blocks to apply when sending the message
	ContentBlocks []slack.Block
}

// AnswerOption defines a function applied to Answers
type AnswerOption func(sendOpts map[string]string)

// AnswerInThread sets threaded replying
func AnswerInThread() AnswerOption {
	return func(sendOpts map[string]string) {
		sendOpts[ThreadedReplyOpt] = "true"
	}
}

// AnswerInExistingThread sets threaded replying with the existing thread timestamp
func AnswerInExistingThread(threadTimestamp string) AnswerOption {
	return func(sendOpts map[string]string) {
		sendOpts[ThreadedReplyOpt] = "true"
		sendOpts[ThreadTimestamp] = threadTimestamp
	}
}

// AnswerEphemeral sends the answer as an ephemeral message to the provided userID
func AnswerEphemeral(userID string) AnswerOption {
	return func(sendOpts map[string]string) {
		sendOpts[EphemeralAnswerToOpt] = userID
	}
}

// AnswerInChannel makes the answer to a slash command or interaction visible to the whole channel.
// Answers to those are only visible to the user otherwise
func AnswerInChannel() AnswerOption {
	return func(sendOpts map[string]string) {
		sendOpts[InChannelOpt] = "true"
	}
}

// AnswerReplaceOriginal replaces the message an interaction happened on with the answer
func AnswerReplaceOriginal() AnswerOption {
	return func(sendOpts map[string]string) {
		sendOpts[ReplaceOriginalOpt] = "true"
	}
}

// AnswerDeleteOriginal deletes the message an interaction happened on
func AnswerDeleteOriginal() AnswerOption {
	return func(sendOpts map[string]string) {
		sendOpts[DeleteOriginalOpt] = "true"
	}
}

// ApplyAnswerOpts applies answering options to build the send configuration
func ApplyAnswerOpts(opts ...AnswerOption) (sendOptions map[string]string) {
	sendOptions = make(map[string]string)
	for _, opt := range opts {
		opt(sendOptions)
	}

	return sendOptions
}

// newWebhookMessage converts an answer to the message posted to a response url
func newWebhookMessage(a *Answer) (msg *slack.WebhookMessage) {
	sendOpts := ApplyAnswerOpts(a.Options...)

	msg = &slack.WebhookMessage{Text: a.Text, ResponseType: responseTypeEphemeral}
	if len(a.ContentBlocks) > 0 {
		msg.Blocks = &slack.Blocks{BlockSet: a.ContentBlocks}
	}

	if sendOpts[InChannelOpt] == "true" {
		msg.ResponseType = responseTypeInChannel
	}

	msg.ReplaceOriginal = sendOpts[ReplaceOriginalOpt] == "true"
	msg.DeleteOriginal = sendOpts[DeleteOriginalOpt] == "true"
	if ts, ok := sendOpts[ThreadTimestamp]; ok {
		msg.ThreadTimestamp = ts
	}

	return msg
}

// newMsgOptions converts an answer to the options of a message posted on a channel in response
// to a message
func newMsgOptions(a *Answer, m *IncomingMessage) (options []slack.MsgOption) {
	sendOpts := ApplyAnswerOpts(a.Options...)

	options = []slack.MsgOption{slack.MsgOptionText(a.Text, false)}
	if len(a.ContentBlocks) > 0 {
		options = append(options, slack.MsgOptionBlocks(a.ContentBlocks...))
	}

	if sendOpts[ThreadedReplyOpt] == "true" {
		threadTS := m.ThreadTimestamp
		if ts, ok := sendOpts[ThreadTimestamp]; ok {
			threadTS = ts
		} else if threadTS == "" {
			threadTS = m.Timestamp
		}

		options = append(options, slack.MsgOptionTS(threadTS))
	}

	return options
}
