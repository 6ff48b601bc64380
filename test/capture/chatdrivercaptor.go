// Package capture provides fakes capturing what plugins and the engine send to slack
package capture

import (
	"context"
	"fmt"
	"github.com/slack-go/slack"
	"io"
	"strconv"
	"sync"
)

// Message is a message captured by ChatDriverCaptor
type Message struct {
	Channel         string
	Text            string
	ThreadTimestamp string
	Blocks          string

	// EphemeralTo is the user the message was only shown to. Empty for regular messages
	EphemeralTo string
}

// ChatDriverCaptor captures messages posted and deleted through it and serves files
// registered in Files
type ChatDriverCaptor struct {
	mu sync.Mutex

	Messages []Message
	Deleted  []string

	// Files maps download urls to their content
	Files map[string]string

	// Err, when set, is returned by all calls
	Err error

	currentTS int
}

// NewChatDriver returns a new initialized ChatDriverCaptor
func NewChatDriver() (c *ChatDriverCaptor) {
	c = new(ChatDriverCaptor)
	c.Messages = make([]Message, 0)
	c.Deleted = make([]string, 0)
	c.Files = make(map[string]string)

	return c
}

// PostMessageContext captures a message posted to a channel
func (c *ChatDriverCaptor) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (respChannel string, respTimestamp string, err error) {
	m, err := c.capture(channelID, "", options...)
	if err != nil {
		return "", "", err
	}

	return m.Channel, c.nextTimestamp(), nil
}

// PostEphemeralContext captures a message posted to a channel for userID only
func (c *ChatDriverCaptor) PostEphemeralContext(ctx context.Context, channelID string, userID string, options ...slack.MsgOption) (timestamp string, err error) {
	if _, err = c.capture(channelID, userID, options...); err != nil {
		return "", err
	}

	return c.nextTimestamp(), nil
}

// DeleteMessageContext captures the deletion of a message as channel/timestamp
func (c *ChatDriverCaptor) DeleteMessageContext(ctx context.Context, channel string, messageTimestamp string) (respChannel string, respTimestamp string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Err != nil {
		return "", "", c.Err
	}

	c.Deleted = append(c.Deleted, fmt.Sprintf("%s/%s", channel, messageTimestamp))
	return channel, messageTimestamp, nil
}

// GetFileContext writes the content of a file registered in Files
func (c *ChatDriverCaptor) GetFileContext(ctx context.Context, downloadURL string, writer io.Writer) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Err != nil {
		return c.Err
	}

	content, ok := c.Files[downloadURL]
	if !ok {
		return fmt.Errorf("file [%s] not found", downloadURL)
	}

	_, err = io.WriteString(writer, content)
	return err
}

// SentMessages returns a copy of the captured messages
func (c *ChatDriverCaptor) SentMessages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]Message(nil), c.Messages...)
}

func (c *ChatDriverCaptor) capture(channelID string, ephemeralTo string, options ...slack.MsgOption) (m Message, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Err != nil {
		return m, c.Err
	}

	_, values, err := slack.UnsafeApplyMsgOptions("", channelID, "", options...)
	if err != nil {
		return m, err
	}

	m = Message{Channel: channelID, Text: values.Get("text"), ThreadTimestamp: values.Get("thread_ts"), Blocks: values.Get("blocks"), EphemeralTo: ephemeralTo}
	c.Messages = append(c.Messages, m)

	return m, nil
}

func (c *ChatDriverCaptor) nextTimestamp() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.currentTS++
	return "1700000000." + strconv.Itoa(c.currentTS)
}
