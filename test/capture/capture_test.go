package capture_test

import (
	"bytes"
	"context"
	"fmt"
	"github.com/bugcenter/helpscot/test/capture"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestChatDriverCaptorCapturesMessages(t *testing.T) {
	c := capture.NewChatDriver()

	_, ts, err := c.PostMessageContext(context.Background(), "C1", slack.MsgOptionText("hello", false), slack.MsgOptionTS("1.1"))
	require.NoError(t, err)
	assert.NotEmpty(t, ts)

	_, err = c.PostEphemeralContext(context.Background(), "C1", "U1", slack.MsgOptionText("psst", false))
	require.NoError(t, err)

	_, _, err = c.DeleteMessageContext(context.Background(), "C1", "1.2")
	require.NoError(t, err)

	assert.Equal(t, []capture.Message{{Channel: "C1", Text: "hello", ThreadTimestamp: "1.1"}, {Channel: "C1", Text: "psst", EphemeralTo: "U1"}}, c.SentMessages())
	assert.Equal(t, []string{"C1/1.2"}, c.Deleted)
}

func TestChatDriverCaptorServesFiles(t *testing.T) {
	c := capture.NewChatDriver()
	c.Files["https://files.slack.com/main.py"] = "print('hi')"

	var b bytes.Buffer
	require.NoError(t, c.GetFileContext(context.Background(), "https://files.slack.com/main.py", &b))
	assert.Equal(t, "print('hi')", b.String())

	assert.Error(t, c.GetFileContext(context.Background(), "https://files.slack.com/missing", &b))
}

func TestChatDriverCaptorErr(t *testing.T) {
	c := capture.NewChatDriver()
	c.Err = fmt.Errorf("channel_not_found")

	_, _, err := c.PostMessageContext(context.Background(), "C1", slack.MsgOptionText("hello", false))
	assert.EqualError(t, err, "channel_not_found")
	assert.Empty(t, c.SentMessages())
}

func TestWebhookCaptor(t *testing.T) {
	w := capture.NewWebhookCaptor(1)

	require.NoError(t, w.Post(context.Background(), "https://hooks.slack.com/1", &slack.WebhookMessage{Text: "first"}))
	require.NoError(t, w.Post(context.Background(), "https://hooks.slack.com/2", &slack.WebhookMessage{Text: "second"}))

	wh := <-w.Posted()
	assert.Equal(t, "https://hooks.slack.com/1", wh.URL)
	assert.Equal(t, "first", wh.Text)
	assert.Len(t, w.Webhooks(), 2)
}
