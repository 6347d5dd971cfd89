package confirm_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/fleet/internal/confirm"
)

const (
	testPromptConstant   = "Create release v1.2.4 for datoso?"
	testQuestionConstant = "Commit message:"
)

func TestIOPrompterConfirm(testInstance *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "short_yes", input: "y\n", expected: true},
		{name: "long_yes_uppercase", input: " YES \n", expected: true},
		{name: "no", input: "n\n", expected: false},
		{name: "empty_line", input: "\n", expected: false},
		{name: "end_of_input", input: "", expected: false},
		{name: "yes_without_newline", input: "yes", expected: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			output := &bytes.Buffer{}
			prompter := confirm.NewIOPrompter(strings.NewReader(testCase.input), output)

			accepted, confirmError := prompter.Confirm(testPromptConstant)
			require.NoError(subtest, confirmError)
			require.Equal(subtest, testCase.expected, accepted)
			require.Equal(subtest, testPromptConstant+" [y/N] ", output.String())
		})
	}
}

func TestIOPrompterAsk(testInstance *testing.T) {
	output := &bytes.Buffer{}
	prompter := confirm.NewIOPrompter(strings.NewReader("  Bump nointro plugin  \nignored\n"), output)

	answer, askError := prompter.Ask(testQuestionConstant)
	require.NoError(testInstance, askError)
	require.Equal(testInstance, "Bump nointro plugin", answer)
	require.Equal(testInstance, testQuestionConstant+" ", output.String())
}

func TestResolveConfirmer(testInstance *testing.T) {
	declining := confirm.Confirmer(func(string) (bool, error) { return false, nil })

	accepted, confirmError := confirm.Resolve(declining, true)(testPromptConstant)
	require.NoError(testInstance, confirmError)
	require.True(testInstance, accepted)

	accepted, confirmError = confirm.Resolve(declining, false)(testPromptConstant)
	require.NoError(testInstance, confirmError)
	require.False(testInstance, accepted)

	accepted, confirmError = confirm.Resolve(nil, false)(testPromptConstant)
	require.NoError(testInstance, confirmError)
	require.True(testInstance, accepted)
}

func TestRequire(testInstance *testing.T) {
	promptFailure := errors.New("terminal closed")
	testCases := []struct {
		name          string
		confirmer     confirm.Confirmer
		expectedError error
	}{
		{name: "accepted", confirmer: confirm.AssumeYes()},
		{name: "declined", confirmer: func(string) (bool, error) { return false, nil }, expectedError: confirm.ErrUserAbort},
		{name: "failed", confirmer: func(string) (bool, error) { return false, promptFailure }, expectedError: promptFailure},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			requireError := confirm.Require(testCase.confirmer, testPromptConstant)
			if testCase.expectedError == nil {
				require.NoError(subtest, requireError)
				return
			}
			require.ErrorIs(subtest, requireError, testCase.expectedError)
		})
	}
}
