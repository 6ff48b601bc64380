package helpscot

import (
	"context"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"time"
)

const (
	meterName = "github.com/bugcenter/helpscot"

	commandRequest     = "command"
	interactionRequest = "interaction"
	eventRequest       = "event"
)

// instrumenter holds data for core instrumentation
type instrumenter struct {
	appName     string
	coreMetrics coreMetrics
	meter       metric.Meter
}

// coreMetrics holds core helpscot metrics
type coreMetrics struct {
	requestsSeen              metric.Int64Counter
	requestsRejected          metric.Int64Counter
	answers                   metric.Int64Counter
	msgDispatchLatencyMillis  metric.Int64Histogram
	processingTimeMillis      metric.Int64Histogram
	answerDeliveryErrors      metric.Int64Counter
	scheduledActionsTriggered metric.Int64Counter
}

// newInstrumenter creates a new core instrumenter
func newInstrumenter(appName string, meter metric.Meter) (ins *instrumenter, err error) {
	ins = new(instrumenter)
	ins.appName = appName
	ins.meter = meter

	cm := &ins.coreMetrics
	if cm.requestsSeen, err = meter.Int64Counter("requestsSeen"); err != nil {
		return nil, err
	}

	if cm.requestsRejected, err = meter.Int64Counter("requestsRejected"); err != nil {
		return nil, err
	}

	if cm.answers, err = meter.Int64Counter("answerCount"); err != nil {
		return nil, err
	}

	if cm.msgDispatchLatencyMillis, err = meter.Int64Histogram("msgDispatchLatencyMillis"); err != nil {
		return nil, err
	}

	if cm.processingTimeMillis, err = meter.Int64Histogram("processingTimeMillis"); err != nil {
		return nil, err
	}

	if cm.answerDeliveryErrors, err = meter.Int64Counter("answerDeliveryErrors"); err != nil {
		return nil, err
	}

	if cm.scheduledActionsTriggered, err = meter.Int64Counter("scheduledActionsTriggered"); err != nil {
		return nil, err
	}

	return ins, nil
}

// attrs returns the measurement options with the app name and the given attributes
func (ins *instrumenter) attrs(kv ...attribute.KeyValue) metric.MeasurementOption {
	return metric.WithAttributes(append([]attribute.KeyValue{attribute.String("name", ins.appName)}, kv...)...)
}

// requestSeen counts an incoming request of the given type
func (ins *instrumenter) requestSeen(requestType string) {
	ins.coreMetrics.requestsSeen.Add(context.Background(), 1, ins.attrs(attribute.String("type", requestType)))
}

// requestRejected counts a request that failed verification or parsing
func (ins *instrumenter) requestRejected(requestType string) {
	ins.coreMetrics.requestsRejected.Add(context.Background(), 1, ins.attrs(attribute.String("type", requestType)))
}

// pluginProcessed records the processing time of a plugin action and counts its answer, if any
func (ins *instrumenter) pluginProcessed(pluginName string, d time.Duration, answered bool) {
	pluginAttr := attribute.String("plugin", pluginName)
	ins.coreMetrics.processingTimeMillis.Record(context.Background(), d.Milliseconds(), ins.attrs(pluginAttr))

	if answered {
		ins.coreMetrics.answers.Add(context.Background(), 1, ins.attrs(pluginAttr))
	}
}

type timed func()

// measure returns the execution duration of a timed function
func measure(operation timed) (d time.Duration) {
	before := time.Now()

	operation()

	return time.Since(before)
}

// methodTelemetry holds the call, error and latency instruments of a wrapped interface
type methodTelemetry struct {
	appName string
	calls   metric.Int64Counter
	errors  metric.Int64Counter
	latency metric.Int64Histogram
}

// newMethodTelemetry creates the instruments for the methods of an interface named iface
func newMethodTelemetry(iface string, appName string, meter metric.Meter) (mt methodTelemetry, err error) {
	mt.appName = appName

	if mt.calls, err = meter.Int64Counter(iface + "Calls"); err != nil {
		return mt, err
	}

	if mt.errors, err = meter.Int64Counter(iface + "Errors"); err != nil {
		return mt, err
	}

	if mt.latency, err = meter.Int64Histogram(iface + "ProcessingTimeMillis"); err != nil {
		return mt, err
	}

	return mt, nil
}

// record records a call to method that started at start and completed with err
func (mt methodTelemetry) record(ctx context.Context, method string, start time.Time, err error) {
	attrs := metric.WithAttributes(attribute.String("name", mt.appName), attribute.String("method", method))

	mt.calls.Add(ctx, 1, attrs)
	mt.latency.Record(ctx, time.Since(start).Milliseconds(), attrs)
	if err != nil {
		mt.errors.Add(ctx, 1, attrs)
	}
}
