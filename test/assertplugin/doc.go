// Package assertplugin provides testing functions to validate a plugin's overall functionality.
// This package is designed to play well but not require the assertanswer package for validation
// of answers
//
// Note that the driver is a simplified version of how helpscot actually drives plugins: commands
// are looked up by name, every matching hear action answers a message and interactions are looked
// up by type and id. It aims to provide the minimal processing required to allow a plugin to test
// functionality given an incoming message or interaction.
//
// Example:
//
//	func TestPlugin(t *testing.T) {
//	    assertplugin := assertplugin.New()
//	    yourPlugin := newPlugin()
//
//	    assertplugin.AnswersAndSends(t, yourPlugin, &slack.Msg{Text: "are you up?"}, func(t *testing.T, answers []*helpscot.Answer, sent []capture.Message) bool {
//	        return assert.Len(t, answers, 1) && assertanswer.HasText(t, answers[0], "I'm 😴, you?")
//	    })
//	}
package assertplugin // import "github.com/bugcenter/helpscot/test/assertplugin"
