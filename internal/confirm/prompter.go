package confirm

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

const (
	userAbortMessageConstant       = "operation declined by user"
	affirmativeShortAnswerConstant = "y"
	affirmativeLongAnswerConstant  = "yes"
	promptSuffixConstant           = " [y/N] "
	questionSuffixConstant         = " "
	responseDelimiterConstant      = '\n'
)

// ErrUserAbort indicates the user declined a confirmation prompt.
var ErrUserAbort = errors.New(userAbortMessageConstant)

// Confirmer asks a yes/no question and reports whether the answer was affirmative.
type Confirmer func(prompt string) (bool, error)

// Asker asks a free-text question and returns the trimmed answer.
type Asker func(question string) (string, error)

// IOPrompter reads answers from an io.Reader and writes prompts to an io.Writer.
type IOPrompter struct {
	reader *bufio.Reader
	writer io.Writer
}

// NewIOPrompter constructs a prompter from the provided reader and writer.
func NewIOPrompter(input io.Reader, output io.Writer) *IOPrompter {
	return &IOPrompter{reader: bufio.NewReader(input), writer: output}
}

// Confirm writes the prompt and interprets affirmative responses (y/yes).
// Any other answer, including end of input, is a refusal.
func (prompter *IOPrompter) Confirm(prompt string) (bool, error) {
	response, readError := prompter.prompt(prompt + promptSuffixConstant)
	if readError != nil {
		return false, readError
	}

	switch strings.ToLower(response) {
	case affirmativeShortAnswerConstant, affirmativeLongAnswerConstant:
		return true, nil
	default:
		return false, nil
	}
}

// Ask writes the question and returns the trimmed answer.
func (prompter *IOPrompter) Ask(question string) (string, error) {
	return prompter.prompt(question + questionSuffixConstant)
}

func (prompter *IOPrompter) prompt(text string) (string, error) {
	if prompter.writer != nil {
		if _, writeError := io.WriteString(prompter.writer, text); writeError != nil {
			return "", writeError
		}
	}

	response, readError := prompter.reader.ReadString(responseDelimiterConstant)
	if readError != nil && !errors.Is(readError, io.EOF) {
		return "", readError
	}
	return strings.TrimSpace(response), nil
}

// AssumeYes returns a Confirmer that accepts every prompt without reading input.
func AssumeYes() Confirmer {
	return func(string) (bool, error) {
		return true, nil
	}
}

// Resolve selects the confirmer for a run: assume-yes when requested,
// otherwise the provided confirmer, otherwise an AssumeYes fallback so
// non-interactive callers never block.
func Resolve(existing Confirmer, assumeYes bool) Confirmer {
	if assumeYes || existing == nil {
		return AssumeYes()
	}
	return existing
}

// Require runs the confirmer and converts a refusal into ErrUserAbort.
func Require(confirmer Confirmer, prompt string) error {
	accepted, confirmationError := confirmer(prompt)
	if confirmationError != nil {
		return confirmationError
	}
	if !accepted {
		return ErrUserAbort
	}
	return nil
}
