package helpscot_test

import (
	"fmt"
	"github.com/bugcenter/helpscot"
	"github.com/bugcenter/helpscot/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"log"
	"testing"
)

func TestNewBotWithoutPlugins(t *testing.T) {
	b, err := helpscot.NewBot("jane", config.NewViperWithDefaults(), helpscot.OptionLog(log.New(io.Discard, "", 0))).
		Build()

	require.NoError(t, err)
	require.NotNil(t, b)
}

func TestNewBotWithSimplePlugin(t *testing.T) {
	b, err := helpscot.NewBot("jane", config.NewViperWithDefaults()).
		WithPlugin(newPlugin()).
		Build()

	require.NoError(t, err)
	require.NotNil(t, b)
}

func TestNewBotWithInvalidPartitionCount(t *testing.T) {
	v := config.NewViperWithDefaults()
	v.Set(config.MessageProcessingPartitionCount, 3)

	_, err := helpscot.NewBot("jane", v).
		WithPlugin(newPlugin()).
		Build()

	assert.EqualError(t, err, "A partition router can only work with a partitionCount that is a power of two but was [3]")
}

func TestNewBotWithPluginAndNilError(t *testing.T) {
	b, err := helpscot.NewBot("jane", config.NewViperWithDefaults()).
		WithPluginErr(newPluginWithErr("")).
		Build()

	require.NoError(t, err)
	require.NotNil(t, b)
}

func TestNewBotWithPluginAndManyErrors(t *testing.T) {
	b, err := helpscot.NewBot("jane", config.NewViperWithDefaults()).
		WithPluginErr(newPluginWithErr("error1")).
		WithPluginErr(newPluginWithErr("error2")).
		WithPlugin(newPlugin()).
		Build()

	require.Error(t, err)
	assert.EqualError(t, err, "error1")
	assert.Nil(t, b)
}

func TestNewBotWithCloserPluginClosingWithError(t *testing.T) {
	b, err := helpscot.NewBot("jane", config.NewViperWithDefaults()).
		WithPluginCloserErr(newPluginWithErrAndCloser("", CloseTester{errorMsg: "should be called"})).
		Build()

	require.NoError(t, err)
	require.NotNil(t, b)

	assert.EqualError(t, b.Close(), "should be called")
}

func TestNewBotWithCloserPluginClosingWithoutError(t *testing.T) {
	b, err := helpscot.NewBot("jane", config.NewViperWithDefaults()).
		WithPluginCloserErr(newPluginWithErrAndCloser("", CloseTester{})).
		Build()

	require.NoError(t, err)
	require.NotNil(t, b)

	assert.NoError(t, b.Close())
}

func TestNewBotWithConfigurablePluginMissingConfig(t *testing.T) {
	b, err := helpscot.NewBot("jane", config.NewViperWithDefaults()).
		WithConfigurablePluginErr("tester", func(c *config.PluginConfig) (p *helpscot.Plugin, err error) { return newPluginWithErr("") }).
		WithConfigurablePluginErr("testerClone", func(c *config.PluginConfig) (p *helpscot.Plugin, err error) { return newPluginWithErr("") }).
		Build()

	require.Error(t, err)
	assert.EqualError(t, err, "Missing plugin configuration for plugin [tester]")
	assert.Nil(t, b)
}

func TestNewBotWithConfigurablePluginValidConfig(t *testing.T) {
	c := config.NewViperWithDefaults()
	c.Set("plugins.tester", map[string]string{"enabled": "true"})

	var enabled string
	b, err := helpscot.NewBot("jane", c).
		WithConfigurablePluginErr("tester", func(c *config.PluginConfig) (p *helpscot.Plugin, err error) {
			enabled = c.GetString("enabled")
			return newPluginWithErr("")
		}).
		Build()

	assert.NoError(t, err)
	assert.NotNil(t, b)
	assert.Equal(t, "true", enabled)
}

func TestNewBotWithConfigurableCloserPluginValidConfig(t *testing.T) {
	c := config.NewViperWithDefaults()
	c.Set("plugins.tester", map[string]string{"enabled": "true"})

	b, err := helpscot.NewBot("jane", c).
		WithConfigurablePluginCloserErr("tester", func(conf *config.PluginConfig) (c io.Closer, p *helpscot.Plugin, err error) {
			p, err = newPluginWithErr("")
			return CloseTester{errorMsg: "closed"}, p, err
		}).
		Build()

	require.NoError(t, err)
	assert.EqualError(t, b.Close(), "closed")
}

// newPlugin returns a new tester plugin
func newPlugin() (p *helpscot.Plugin) {
	p = new(helpscot.Plugin)
	p.Name = "tester"
	p.Commands = []helpscot.CommandDefinition{{
		Name:        "make",
		Usage:       "/make `<something>`",
		Description: "Have the test bot make something for you",
		Answer: func(m *helpscot.IncomingMessage) *helpscot.Answer {
			return &helpscot.Answer{Text: fmt.Sprintf("Ready: %s", m.NormalizedText)}
		},
	}}

	return p
}

// newPluginWithErr returns the plugin along with an error if errorMsg is not empty
func newPluginWithErr(errorMsg string) (p *helpscot.Plugin, err error) {
	if errorMsg != "" {
		return nil, fmt.Errorf("%s", errorMsg)
	}

	return newPlugin(), nil
}

// newPluginWithErrAndCloser returns the plugin along with an error if errorMsg is not empty and the closer
func newPluginWithErrAndCloser(errorMsg string, closer io.Closer) (c io.Closer, p *helpscot.Plugin, err error) {
	p, err = newPluginWithErr(errorMsg)

	return closer, p, err
}

// CloseTester is a Closer that either doesn't do anything or returns the error set on it
type CloseTester struct {
	errorMsg string
}

// Close returns the CloseTester error if set, or just returns nil and does nothing otherwise
func (c CloseTester) Close() (err error) {
	if c.errorMsg != "" {
		return fmt.Errorf("%s", c.errorMsg)
	}

	return nil
}
