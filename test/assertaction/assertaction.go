// Package assertaction provides testing functions for validation a plugin action's behavior
package assertaction

import (
	"github.com/bugcenter/helpscot"
	"github.com/stretchr/testify/assert"
	"testing"
)

// AnswerValidator is a function to do further validation of an action's answer. The return value is meant to be true if validation
// is successful and false otherwise (following the testify convention)
type AnswerValidator func(t *testing.T, a *helpscot.Answer) bool

// MatchesAndAnswers asserts that the action.Match is true and gets the action's answer to be further validated by AnswerValidator
func MatchesAndAnswers(t *testing.T, action helpscot.ActionDefinition, m *helpscot.IncomingMessage, validateAnswer AnswerValidator) bool {
	isMatch := action.Match(m)

	if !assert.Equalf(t, true, isMatch, "Message [%s] expected to match but action.Match returned false", m.NormalizedText) {
		return false
	}

	return validateAnswer(t, action.Answer(m))
}

// NotMatch asserts that action.Match is false
func NotMatch(t *testing.T, action helpscot.ActionDefinition, m *helpscot.IncomingMessage) bool {
	isMatch := action.Match(m)

	return assert.Equalf(t, false, isMatch, "Message [%s] should not be a match but action.Match returned true", m.NormalizedText)
}

// Answers invokes a command with m and gets its answer to be further validated by AnswerValidator
func Answers(t *testing.T, command helpscot.CommandDefinition, m *helpscot.IncomingMessage, validateAnswer AnswerValidator) bool {
	if m.Command == "" {
		m.Command = command.Name
	}

	return validateAnswer(t, command.Answer(m))
}

// AnswersInteraction invokes an interaction with i and gets its answer to be further validated by AnswerValidator
func AnswersInteraction(t *testing.T, interaction helpscot.InteractionDefinition, i *helpscot.Interaction, validateAnswer AnswerValidator) bool {
	return validateAnswer(t, interaction.Answer(i))
}
