package helpscot

import (
	"github.com/bugcenter/helpscot/config"
	"github.com/spf13/viper"
	"io"
)

// Builder holds a helpscot instance to build
type Builder struct {
	bot *Helpscot
	err error
}

// NewBot returns a new Builder used to set up a new helpscot
func NewBot(name string, v *viper.Viper, options ...Option) (sb *Builder) {
	sb = new(Builder)
	sb.bot, sb.err = New(name, v, options...)

	return sb
}

// WithPlugin adds a plugin to the helpscot instance
func (sb *Builder) WithPlugin(p *Plugin) *Builder {
	if sb.err != nil {
		return sb
	}

	sb.bot.RegisterPlugin(p)

	return sb
}

// WithPluginErr adds a plugin that has a creation function returning (Plugin, error) to the helpscot instance
func (sb *Builder) WithPluginErr(p *Plugin, err error) *Builder {
	return sb.WithPluginCloserErr(nil, p, err)
}

// WithPluginCloserErr adds a plugin that has a creation function returning (io.Closer, Plugin, error) to the helpscot instance.
// The closer is closed along with the bot
func (sb *Builder) WithPluginCloserErr(closer io.Closer, p *Plugin, err error) *Builder {
	if sb.err == nil && err != nil {
		sb.err = err
	}

	if sb.err != nil {
		return sb
	}

	sb.bot.RegisterPlugin(p)

	if closer != nil {
		sb.bot.closers = append(sb.bot.closers, closer)
	}

	return sb
}

// WithConfigurablePluginErr adds a plugin created from its configuration at plugins.<name>. A missing
// configuration results in an error
func (sb *Builder) WithConfigurablePluginErr(name string, newPlugin func(c *config.PluginConfig) (p *Plugin, err error)) *Builder {
	return sb.WithConfigurablePluginCloserErr(name, func(c *config.PluginConfig) (io.Closer, *Plugin, error) {
		p, err := newPlugin(c)
		return nil, p, err
	})
}

// WithConfigurablePluginCloserErr adds a plugin with a closer created from its configuration at plugins.<name>. A missing
// configuration results in an error
func (sb *Builder) WithConfigurablePluginCloserErr(name string, newPlugin func(c *config.PluginConfig) (closer io.Closer, p *Plugin, err error)) *Builder {
	if sb.err != nil {
		return sb
	}

	pc, err := config.GetPluginConfig(sb.bot.config, name)
	if err != nil {
		sb.err = err
		return sb
	}

	return sb.WithPluginCloserErr(newPlugin(pc))
}

// Build returns the built helpscot instance. If there was an error during
// setup, the error is returned along with a nil helpscot
func (sb *Builder) Build() (s *Helpscot, err error) {
	if sb.err != nil {
		return nil, sb.err
	}

	return sb.bot, nil
}
