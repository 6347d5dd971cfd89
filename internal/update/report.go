package update

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"
)

const (
	reportFormatTextValueConstant      = "text"
	reportFormatYAMLValueConstant      = "yaml"
	unsupportedFormatTemplateConstant  = "unsupported report format %q"
	dryRunBannerConstant               = "Dry run: no files or branches were changed"
	updatedLineTemplateConstant        = "%s %s %s -> %s (branch %s)\n"
	skippedLineTemplateConstant        = "%s %s no untracked or modified files\n"
	restoredLineTemplateConstant       = "%s %s back on %s\n"
	rewrittenLineTemplateConstant      = "%s %s %d dependency line(s) in %s\n"
	failedLineTemplateConstant         = "%s %s %s\n"
	filesLineTemplateConstant          = "    files: %s\n"
	restoreFailureLineTemplateConstant = "    could not restore %s\n"
	fileListSeparatorConstant          = ", "
	lineTerminatorConstant             = "\n"
	reportRenderFailedTemplateConstant = "failed to render report: %w"
	reportWriterMissingMessageConstant = "report writer not configured"
)

// ErrReportWriterNotConfigured indicates rendering was requested without a destination.
var ErrReportWriterNotConfigured = errors.New(reportWriterMissingMessageConstant)

// Action names what happened to one repository during a run.
type Action string

// Report actions.
const (
	ActionUpdated   Action = Action("updated")
	ActionSkipped   Action = Action("skipped")
	ActionRestored  Action = Action("restored")
	ActionRewritten Action = Action("rewritten")
	ActionFailed    Action = Action("failed")
)

// ReportFormat selects how a Report is rendered.
type ReportFormat string

// Supported report formats.
const (
	ReportFormatText ReportFormat = ReportFormat(reportFormatTextValueConstant)
	ReportFormatYAML ReportFormat = ReportFormat(reportFormatYAMLValueConstant)
)

// ParseReportFormat converts a textual format name; blank selects text.
func ParseReportFormat(value string) (ReportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", reportFormatTextValueConstant:
		return ReportFormatText, nil
	case reportFormatYAMLValueConstant:
		return ReportFormatYAML, nil
	default:
		return "", fmt.Errorf(unsupportedFormatTemplateConstant, value)
	}
}

// ReportEntry describes the outcome for one repository.
type ReportEntry struct {
	Repository      string   `yaml:"repository"`
	Action          Action   `yaml:"action"`
	PreviousVersion string   `yaml:"previous_version,omitempty"`
	NextVersion     string   `yaml:"next_version,omitempty"`
	Branch          string   `yaml:"branch,omitempty"`
	Files           []string `yaml:"files,omitempty"`
	ChangedLines    int      `yaml:"changed_lines,omitempty"`
	RestoreFailures []string `yaml:"restore_failures,omitempty"`
	ReplacedPending bool     `yaml:"replaced_pending,omitempty"`
	Error           string   `yaml:"error,omitempty"`
}

// Report collects the entries of one run in the order they happened.
type Report struct {
	Intent  string        `yaml:"intent"`
	DryRun  bool          `yaml:"dry_run"`
	Entries []ReportEntry `yaml:"entries"`
}

// EntriesWithAction filters entries by action.
func (report Report) EntriesWithAction(action Action) []ReportEntry {
	var matching []ReportEntry
	for _, entry := range report.Entries {
		if entry.Action == action {
			matching = append(matching, entry)
		}
	}
	return matching
}

func (report *Report) add(entry ReportEntry) {
	report.Entries = append(report.Entries, entry)
}

// ReportRenderer writes reports for operators.
type ReportRenderer struct {
	writer    io.Writer
	format    ReportFormat
	colorized bool
}

// ColorSupported reports whether writer is a terminal that accepts ANSI colors.
// Wrapping writers are unwrapped through an Unwrap() io.Writer method.
func ColorSupported(writer io.Writer) bool {
	if color.NoColor {
		return false
	}
	for writer != nil {
		if file, isFile := writer.(*os.File); isFile {
			descriptor := file.Fd()
			return isatty.IsTerminal(descriptor) || isatty.IsCygwinTerminal(descriptor)
		}
		wrapper, wraps := writer.(interface{ Unwrap() io.Writer })
		if !wraps {
			return false
		}
		writer = wrapper.Unwrap()
	}
	return false
}

// NewReportRenderer constructs a renderer. Colors apply to the text format only.
func NewReportRenderer(writer io.Writer, format ReportFormat, colorized bool) *ReportRenderer {
	return &ReportRenderer{writer: writer, format: format, colorized: colorized}
}

// Render writes the report in the configured format.
func (renderer *ReportRenderer) Render(report Report) error {
	if renderer.writer == nil {
		return ErrReportWriterNotConfigured
	}

	var rendered string
	switch renderer.format {
	case ReportFormatYAML:
		encoded, encodeError := yaml.Marshal(report)
		if encodeError != nil {
			return fmt.Errorf(reportRenderFailedTemplateConstant, encodeError)
		}
		rendered = string(encoded)
	case ReportFormatText, "":
		rendered = renderer.renderText(report)
	default:
		return fmt.Errorf(unsupportedFormatTemplateConstant, renderer.format)
	}

	if _, writeError := io.WriteString(renderer.writer, rendered); writeError != nil {
		return fmt.Errorf(reportRenderFailedTemplateConstant, writeError)
	}
	return nil
}

func (renderer *ReportRenderer) renderText(report Report) string {
	actionColor := renderer.palette()
	repositoryColor := renderer.paint(color.FgCyan)
	versionColor := renderer.paint(color.FgMagenta)
	noticeColor := renderer.paint(color.FgYellow)

	var builder strings.Builder
	if report.DryRun {
		builder.WriteString(noticeColor(dryRunBannerConstant) + lineTerminatorConstant)
	}
	for _, entry := range report.Entries {
		paintAction, known := actionColor[entry.Action]
		if !known {
			paintAction = fmt.Sprint
		}
		label := paintAction(string(entry.Action))
		repository := repositoryColor(entry.Repository)
		switch entry.Action {
		case ActionUpdated:
			fmt.Fprintf(&builder, updatedLineTemplateConstant, label, repository, entry.PreviousVersion, versionColor(entry.NextVersion), entry.Branch)
			if len(entry.Files) > 0 {
				fmt.Fprintf(&builder, filesLineTemplateConstant, strings.Join(entry.Files, fileListSeparatorConstant))
			}
		case ActionSkipped:
			fmt.Fprintf(&builder, skippedLineTemplateConstant, label, repository)
		case ActionRestored:
			fmt.Fprintf(&builder, restoredLineTemplateConstant, label, repository, entry.Branch)
			for _, failure := range entry.RestoreFailures {
				fmt.Fprintf(&builder, restoreFailureLineTemplateConstant, noticeColor(failure))
			}
		case ActionRewritten:
			fmt.Fprintf(&builder, rewrittenLineTemplateConstant, label, repository, entry.ChangedLines, strings.Join(entry.Files, fileListSeparatorConstant))
		default:
			fmt.Fprintf(&builder, failedLineTemplateConstant, label, repository, entry.Error)
		}
	}
	return builder.String()
}

func (renderer *ReportRenderer) palette() map[Action]func(a ...any) string {
	return map[Action]func(a ...any) string{
		ActionUpdated:   renderer.paint(color.FgGreen),
		ActionSkipped:   renderer.paint(color.FgHiBlack),
		ActionRestored:  renderer.paint(color.FgBlue),
		ActionRewritten: renderer.paint(color.FgGreen),
		ActionFailed:    renderer.paint(color.FgRed, color.Bold),
	}
}

func (renderer *ReportRenderer) paint(attributes ...color.Attribute) func(a ...any) string {
	painter := color.New(attributes...)
	if renderer.colorized {
		painter.EnableColor()
	} else {
		painter.DisableColor()
	}
	return painter.SprintFunc()
}
