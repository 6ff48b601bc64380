// Package plugins provides the plugins of helpscot: tags, gists, token revocation, documentation
// search, code execution and a few smaller helpers
package plugins

import (
	"fmt"
	"github.com/bugcenter/helpscot"
	"github.com/bugcenter/helpscot/actions"
	"github.com/bugcenter/helpscot/plugin"
)

const (
	// VersionerPluginName holds identifying name for the versioner plugin
	VersionerPluginName = "versioner"
)

// NewVersioner creates a new instance of the versioner plugin
func NewVersioner(name string, version string) (p *helpscot.Plugin) {
	p = plugin.New(VersionerPluginName).
		WithCommand(actions.NewCommand("version").
			WithDescriptionf("Reply with `%s`'s `version` number", name).
			WithAnswerer(func(m *helpscot.IncomingMessage) *helpscot.Answer {
				return &helpscot.Answer{Text: fmt.Sprintf("I'm `%s`, version `%s`", name, version)}
			}).
			Build()).
		Build()

	return p
}
