package helpscot

import (
	"context"
	"github.com/slack-go/slack"
	"go.opentelemetry.io/otel/metric"
	"time"
)

// userInfoFinderWithTelemetry implements UserInfoFinder with all methods wrapped with open telemetry metrics
type userInfoFinderWithTelemetry struct {
	base UserInfoFinder
	methodTelemetry
}

// newUserInfoFinderWithTelemetry returns an instance of the UserInfoFinder decorated with open telemetry timing and count metrics
func newUserInfoFinderWithTelemetry(base UserInfoFinder, name string, meter metric.Meter) (uf *userInfoFinderWithTelemetry, err error) {
	uf = &userInfoFinderWithTelemetry{base: base}
	if uf.methodTelemetry, err = newMethodTelemetry("userInfoFinder", name, meter); err != nil {
		return nil, err
	}

	return uf, nil
}

// GetUserInfo implements UserInfoFinder
func (uf *userInfoFinderWithTelemetry) GetUserInfo(userID string) (user *slack.User, err error) {
	start := time.Now()
	user, err = uf.base.GetUserInfo(userID)
	uf.record(context.Background(), "GetUserInfo", start, err)

	return user, err
}
