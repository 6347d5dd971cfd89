package shared

import (
	"fmt"
	"io"
	"os"
)

// Reporter emits operator-facing progress lines.
type Reporter interface {
	Printf(format string, args ...any)
}

type writerReporter struct {
	writer io.Writer
}

// NewWriterReporter constructs a Reporter that writes to the provided io.Writer, or standard output when nil.
func NewWriterReporter(writer io.Writer) Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return writerReporter{writer: writer}
}

func (reporter writerReporter) Printf(format string, args ...any) {
	fmt.Fprintf(reporter.writer, format, args...)
}

// ResolveReporter returns the provided reporter or one that discards everything.
func ResolveReporter(existing Reporter) Reporter {
	if existing != nil {
		return existing
	}
	return writerReporter{writer: io.Discard}
}
