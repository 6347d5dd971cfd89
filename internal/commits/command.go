package commits

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/fleet/internal/branches"
	"github.com/temirov/fleet/internal/confirm"
	"github.com/temirov/fleet/internal/dependencies"
	"github.com/temirov/fleet/internal/fleet"
	"github.com/temirov/fleet/internal/manifest"
	"github.com/temirov/fleet/internal/repostate"
	"github.com/temirov/fleet/internal/shared"
	"github.com/temirov/fleet/internal/utils/flags"
	pathutils "github.com/temirov/fleet/internal/utils/path"
)

const (
	commandUseConstant                    = "commit"
	commandShortDescriptionConstant       = "Commit pending work on the branch of each repository's version"
	commandLongDescriptionConstant        = "commit stages every untracked, modified and staged file of the selected repositories and commits it on the branch named after the declared version, creating that branch from the current head when it does not exist yet. Repositories whose only changes are the dependency manifest and the version declaration are skipped."
	commandExampleConstant                = "fleet commit --repo datoso_seed_nointro --auto-message\nfleet commit --automatic --message \"Refresh dat parsers\" --yes"
	messageFlagNameConstant               = "message"
	messageFlagShorthandConstant          = "m"
	messageFlagUsageConstant              = "Commit message"
	autoMessageFlagNameConstant           = "auto-message"
	autoMessageFlagUsageConstant          = "Use the configured automatic commit message"
	unexpectedArgumentsMessageConstant    = "commit does not accept positional arguments"
	commandExecutionErrorTemplateConstant = "fleet commit failed: %w"
)

var errUnexpectedArguments = errors.New(unexpectedArgumentsMessageConstant)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// HumanReadableLoggingProvider reports whether console logging is active.
type HumanReadableLoggingProvider func() bool

// FleetConfigurationProvider supplies the fleet configuration.
type FleetConfigurationProvider func() fleet.Configuration

// ConfigurationProvider supplies the commit configuration.
type ConfigurationProvider func() Configuration

// CommandBuilder assembles the commit cobra command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider HumanReadableLoggingProvider
	FleetConfigurationProvider   FleetConfigurationProvider
	ConfigurationProvider        ConfigurationProvider
	GitExecutor                  shared.GitExecutor
	GitManager                   shared.GitRepositoryManager
	FileSystem                   afero.Fs
}

type commandFlags struct {
	target      *flags.TargetFlagValues
	execution   *flags.ExecutionFlagValues
	message     string
	autoMessage bool
}

// Build constructs the commit command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:     commandUseConstant,
		Short:   commandShortDescriptionConstant,
		Long:    commandLongDescriptionConstant,
		Example: commandExampleConstant,
	}

	boundFlags := &commandFlags{
		target:    flags.BindTargetFlags(command, true),
		execution: flags.BindExecutionFlags(command, flags.ExecutionFlagValues{}, true),
	}
	command.Flags().StringVarP(&boundFlags.message, messageFlagNameConstant, messageFlagShorthandConstant, "", messageFlagUsageConstant)
	command.Flags().BoolVar(&boundFlags.autoMessage, autoMessageFlagNameConstant, false, autoMessageFlagUsageConstant)
	command.MarkFlagsMutuallyExclusive(messageFlagNameConstant, autoMessageFlagNameConstant)

	command.RunE = func(command *cobra.Command, arguments []string) error {
		return builder.run(command, arguments, boundFlags)
	}
	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string, boundFlags *commandFlags) error {
	if len(arguments) > 0 {
		return errUnexpectedArguments
	}

	target, targetError := fleet.NewTarget(boundFlags.target.Repository, boundFlags.target.Automatic, boundFlags.target.All)
	if targetError != nil {
		return targetError
	}
	options := Options{
		Target:      target,
		Message:     boundFlags.message,
		AutoMessage: boundFlags.autoMessage || boundFlags.execution.AssumeYes,
		DryRun:      boundFlags.execution.DryRun,
	}

	service, serviceError := builder.buildService(command, builder.resolveLogger(), boundFlags.execution.AssumeYes)
	if serviceError != nil {
		return serviceError
	}
	if _, commitError := service.Commit(command.Context(), options); commitError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, commitError)
	}
	return nil
}

func (builder *CommandBuilder) buildService(command *cobra.Command, logger *zap.Logger, assumeYes bool) (*Service, error) {
	roster, rosterError := fleet.NewRoster(builder.resolveFleetConfiguration(), pathutils.NewHomeExpander())
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

	prompter := confirm.NewIOPrompter(command.InOrStdin(), command.OutOrStdout())
	return NewService(ServiceDependencies{
		Roster:            roster,
		Configuration:     builder.resolveConfiguration(),
		VersionStore:      manifest.NewVersionStore(dependencies.ResolveFileSystem(builder.FileSystem), logger),
		ChangeInspector:   inspector,
		BranchCoordinator: coordinator,
		Committer:         gitManager,
		Confirmer:         confirm.Resolve(prompter.Confirm, assumeYes),
		Asker:             prompter.Ask,
		Reporter:          shared.NewWriterReporter(command.OutOrStdout()),
		Logger:            logger,
	})
}

func (builder *CommandBuilder) resolveConfiguration() Configuration {
	if builder.ConfigurationProvider == nil {
		return DefaultConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveFleetConfiguration() fleet.Configuration {
	if builder.FleetConfigurationProvider == nil {
		return fleet.DefaultConfiguration()
	}
	return builder.FleetConfigurationProvider()
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
