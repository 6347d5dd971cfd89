package update

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/fleet/internal/branches"
	"github.com/temirov/fleet/internal/dependencies"
	"github.com/temirov/fleet/internal/fleet"
	"github.com/temirov/fleet/internal/manifest"
	"github.com/temirov/fleet/internal/repostate"
	"github.com/temirov/fleet/internal/shared"
	"github.com/temirov/fleet/internal/utils/flags"
	pathutils "github.com/temirov/fleet/internal/utils/path"
	"github.com/temirov/fleet/internal/versioning"
)

const (
	commandUseConstant                     = "update"
	commandShortDescriptionConstant        = "Bump versions, create version branches and re-pin fleet dependencies"
	commandLongDescriptionConstant         = "update writes the next version into the declaration file of the selected repositories, parks each one on a branch named after that version, and rewrites the fleet dependency pins of the core package and seeds. --restore rolls the version edits back and returns to the trunk branch."
	commandExampleConstant                 = "fleet update --repo datoso_seed_nointro --minor\nfleet update --automatic --dev --dry-run\nfleet update --all --restore"
	outputFlagNameConstant                 = "output"
	outputFlagUsageConstant                = "Report format"
	unexpectedArgumentsMessageConstant     = "update does not accept positional arguments"
	explicitVersionInvalidTemplateConstant = "invalid --version value: %w"
	commandExecutionErrorTemplateConstant  = "fleet update failed: %w"
	reportRenderErrorTemplateConstant      = "fleet update report could not be written: %w"
)

var errUnexpectedArguments = errors.New(unexpectedArgumentsMessageConstant)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// HumanReadableLoggingProvider reports whether console logging is active.
type HumanReadableLoggingProvider func() bool

// ConfigurationProvider supplies the fleet configuration.
type ConfigurationProvider func() fleet.Configuration

// CommandBuilder assembles the update cobra command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider HumanReadableLoggingProvider
	ConfigurationProvider        ConfigurationProvider
	GitExecutor                  shared.GitExecutor
	GitManager                   shared.GitRepositoryManager
	FileSystem                   afero.Fs
}

type commandFlags struct {
	target    *flags.TargetFlagValues
	bump      *flags.BumpFlagValues
	execution *flags.ExecutionFlagValues
	output    string
}

// Build constructs the update command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:     commandUseConstant,
		Short:   commandShortDescriptionConstant,
		Long:    commandLongDescriptionConstant,
		Example: commandExampleConstant,
	}

	boundFlags := &commandFlags{
		target:    flags.BindTargetFlags(command, true),
		bump:      flags.BindBumpFlags(command),
		execution: flags.BindExecutionFlags(command, flags.ExecutionFlagValues{}, false),
	}
	command.Flags().StringVar(
		&boundFlags.output,
		outputFlagNameConstant,
		string(ReportFormatText),
		flags.FormatChoiceUsage(string(ReportFormatText), []string{string(ReportFormatText), string(ReportFormatYAML)}, outputFlagUsageConstant),
	)

	command.RunE = func(command *cobra.Command, arguments []string) error {
		return builder.run(command, arguments, boundFlags)
	}
	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string, boundFlags *commandFlags) error {
	if len(arguments) > 0 {
		return errUnexpectedArguments
	}

	options, optionsError := builder.parseOptions(boundFlags)
	if optionsError != nil {
		return optionsError
	}
	reportFormat, formatError := ParseReportFormat(boundFlags.output)
	if formatError != nil {
		return formatError
	}

	logger := builder.resolveLogger()
	orchestrator, orchestratorError := builder.buildOrchestrator(logger)
	if orchestratorError != nil {
		return orchestratorError
	}

	report, runError := orchestrator.Run(command.Context(), options)
	output := command.OutOrStdout()
	renderer := NewReportRenderer(output, reportFormat, ColorSupported(output))
	if renderError := renderer.Render(report); renderError != nil && runError == nil {
		return fmt.Errorf(reportRenderErrorTemplateConstant, renderError)
	}
	if runError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, runError)
	}
	return nil
}

func (builder *CommandBuilder) parseOptions(boundFlags *commandFlags) (Options, error) {
	target, targetError := fleet.NewTarget(boundFlags.target.Repository, boundFlags.target.Automatic, boundFlags.target.All)
	if targetError != nil {
		return Options{}, targetError
	}
	intent, intentError := IntentFromFlags(*boundFlags.bump)
	if intentError != nil {
		return Options{}, intentError
	}
	return Options{Target: target, Intent: intent, DryRun: boundFlags.execution.DryRun}, nil
}

// IntentFromFlags converts the mutually exclusive bump selectors; none selects a patch bump.
func IntentFromFlags(values flags.BumpFlagValues) (Intent, error) {
	switch {
	case len(strings.TrimSpace(values.Version)) > 0:
		explicitVersion, parseError := versioning.Parse(values.Version)
		if parseError != nil {
			return Intent{}, fmt.Errorf(explicitVersionInvalidTemplateConstant, parseError)
		}
		return ExplicitIntent(explicitVersion), nil
	case values.Restore:
		return Intent{Kind: IntentRestore}, nil
	case values.Dev:
		return Intent{Kind: IntentDev}, nil
	case values.Major:
		return Intent{Kind: IntentMajor}, nil
	case values.Minor:
		return Intent{Kind: IntentMinor}, nil
	default:
		return Intent{Kind: IntentPatch}, nil
	}
}

func (builder *CommandBuilder) buildOrchestrator(logger *zap.Logger) (*Orchestrator, error) {
	roster, rosterError := fleet.NewRoster(builder.resolveConfiguration(), pathutils.NewHomeExpander())
	if rosterError != nil {
		return nil, rosterError
	}

	gitExecutor, executorError := dependencies.ResolveGitExecutor(builder.GitExecutor, logger, builder.humanReadableLogging())
	if executorError != nil {
		return nil, executorError
	}
	gitManager, managerError := dependencies.ResolveGitRepositoryManager(builder.GitManager, gitExecutor)
	if managerError != nil {
		return nil, managerError
	}
	inspector, inspectorError := repostate.NewInspector(gitManager, logger)
	if inspectorError != nil {
		return nil, inspectorError
	}
	coordinator, coordinatorError := branches.NewCoordinator(gitManager, logger)
	if coordinatorError != nil {
		return nil, coordinatorError
	}

	fileSystem := dependencies.ResolveFileSystem(builder.FileSystem)
	return NewOrchestrator(ServiceDependencies{
		Roster:             roster,
		VersionStore:       manifest.NewVersionStore(fileSystem, logger),
		DependencyRewriter: manifest.NewDependencyRewriter(fileSystem, logger),
		StateInspector:     inspector,
		BranchCoordinator:  coordinator,
		Logger:             logger,
	})
}

func (builder *CommandBuilder) resolveConfiguration() fleet.Configuration {
	if builder.ConfigurationProvider == nil {
		return fleet.DefaultConfiguration()
	}
	return builder.ConfigurationProvider()
}

func (builder *CommandBuilder) humanReadableLogging() bool {
	if builder.HumanReadableLoggingProvider == nil {
		return false
	}
	return builder.HumanReadableLoggingProvider()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	return dependencies.ResolveLogger(builder.LoggerProvider())
}
