/*
Package helpscot provides the engine of a community-support slack bot.

It is extended via plugins that can combine slash commands, hear actions (listeners),
interactions (block actions, block suggestions and message shortcuts) as well as
scheduled actions. Slack reaches the bot over http: slash commands, interactivity
payloads and events are all received by the handler returned by Handler, verified with
the app signing secret and routed to plugins.

Plugins also have access to services injected on registration such as:
 - UserInfoFinder: To query user info
 - SLogger: To log debug/info statements
 - ChatDriver: To post, delete messages and download files outside of the normal answer flow

Example code:

	package main

	import (
		"context"
		"github.com/bugcenter/helpscot"
		"github.com/bugcenter/helpscot/config"
		"github.com/bugcenter/helpscot/plugins"
		"io"
		"log"
	)

	func main() {
		v, err := config.NewFromFile("helpscot.yaml")
		if err != nil {
			log.Fatal(err)
		}

		bot, err := helpscot.NewBot("helpscot", v).
			WithPlugin(plugins.NewGoogleIt()).
			WithPlugin(plugins.NewVersioner("helpscot", helpscot.VERSION)).
			WithConfigurablePluginCloserErr(plugins.TaggerPluginName, func(c *config.PluginConfig) (io.Closer, *helpscot.Plugin, error) {
				return plugins.NewTagger(c, storer)
			}).
			Build()
		if err != nil {
			log.Fatal(err)
		}
		defer bot.Close()

		err = bot.Run(context.Background())
		if err != nil {
			log.Fatal(err)
		}
	}
*/
package helpscot

// VERSION represents the current helpscot version
const VERSION = "1.4.0"
