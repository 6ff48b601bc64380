package helpscot

import (
	"context"
	"github.com/slack-go/slack"
	"go.opentelemetry.io/otel/metric"
	"io"
	"time"
)

// chatDriverWithTelemetry implements ChatDriver with all methods wrapped with open telemetry metrics
type chatDriverWithTelemetry struct {
	base ChatDriver
	methodTelemetry
}

// newChatDriverWithTelemetry returns an instance of the ChatDriver decorated with open telemetry timing and count metrics
func newChatDriverWithTelemetry(base ChatDriver, name string, meter metric.Meter) (cd *chatDriverWithTelemetry, err error) {
	cd = &chatDriverWithTelemetry{base: base}
	if cd.methodTelemetry, err = newMethodTelemetry("chatDriver", name, meter); err != nil {
		return nil, err
	}

	return cd, nil
}

// PostMessageContext implements ChatDriver
func (cd *chatDriverWithTelemetry) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (respChannel string, respTimestamp string, err error) {
	start := time.Now()
	respChannel, respTimestamp, err = cd.base.PostMessageContext(ctx, channelID, options...)
	cd.record(ctx, "PostMessage", start, err)

	return respChannel, respTimestamp, err
}

// PostEphemeralContext implements ChatDriver
func (cd *chatDriverWithTelemetry) PostEphemeralContext(ctx context.Context, channelID string, userID string, options ...slack.MsgOption) (timestamp string, err error) {
	start := time.Now()
	timestamp, err = cd.base.PostEphemeralContext(ctx, channelID, userID, options...)
	cd.record(ctx, "PostEphemeral", start, err)

	return timestamp, err
}

// DeleteMessageContext implements ChatDriver
func (cd *chatDriverWithTelemetry) DeleteMessageContext(ctx context.Context, channel string, messageTimestamp string) (respChannel string, respTimestamp string, err error) {
	start := time.Now()
	respChannel, respTimestamp, err = cd.base.DeleteMessageContext(ctx, channel, messageTimestamp)
	cd.record(ctx, "DeleteMessage", start, err)

	return respChannel, respTimestamp, err
}

// GetFileContext implements ChatDriver
func (cd *chatDriverWithTelemetry) GetFileContext(ctx context.Context, downloadURL string, writer io.Writer) (err error) {
	start := time.Now()
	err = cd.base.GetFileContext(ctx, downloadURL, writer)
	cd.record(ctx, "GetFile", start, err)

	return err
}
