package releases

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/fleet/internal/confirm"
	"github.com/temirov/fleet/internal/dependencies"
	"github.com/temirov/fleet/internal/fleet"
	"github.com/temirov/fleet/internal/githubauth"
	"github.com/temirov/fleet/internal/githubcli"
	"github.com/temirov/fleet/internal/manifest"
	"github.com/temirov/fleet/internal/shared"
	"github.com/temirov/fleet/internal/utils/flags"
	pathutils "github.com/temirov/fleet/internal/utils/path"
)

const (
	commandUseConstant                    = "release"
	commandShortDescriptionConstant       = "Publish GitHub releases for repositories with a newer local version"
	commandLongDescriptionConstant        = "release compares the version declared in each selected repository with its latest published GitHub release and creates a release tagged v<version> when the local version is newer. Every release is confirmed interactively unless --yes is set."
	commandExampleConstant                = "fleet release --repo datoso_seed_nointro --latest\nfleet release --all --draft --dry-run"
	ownerFlagNameConstant                 = "owner"
	ownerFlagUsageConstant                = "GitHub owner of the repositories (defaults to the owner of the origin remote)"
	branchFlagNameConstant                = "branch"
	branchFlagUsageConstant               = "Branch the release tag points at"
	prereleaseFlagNameConstant            = "prerelease"
	prereleaseFlagUsageConstant           = "Mark the release as a prerelease (development versions always are)"
	latestFlagNameConstant                = "latest"
	latestFlagUsageConstant               = "Publish the release and mark it as the latest one"
	draftFlagNameConstant                 = "draft"
	draftFlagUsageConstant                = "Create the release as a draft"
	unexpectedArgumentsMessageConstant    = "release does not accept positional arguments"
	tokenResolutionFailedTemplateConstant = "github token unavailable: %w"
	commandExecutionErrorTemplateConstant = "fleet release failed: %w"
)

var errUnexpectedArguments = errors.New(unexpectedArgumentsMessageConstant)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// HumanReadableLoggingProvider reports whether console logging is active.
type HumanReadableLoggingProvider func() bool

// FleetConfigurationProvider supplies the fleet configuration.
type FleetConfigurationProvider func() fleet.Configuration

// ConfigurationProvider supplies the release configuration.
type ConfigurationProvider func() Configuration

// CommandBuilder assembles the release cobra command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider HumanReadableLoggingProvider
	FleetConfigurationProvider   FleetConfigurationProvider
	ConfigurationProvider        ConfigurationProvider
	GitExecutor                  shared.GitExecutor
	GitManager                   shared.GitRepositoryManager
	FileSystem                   afero.Fs
	GitHubExecutor               githubcli.GitHubCommandExecutor
	Confirmer                    confirm.Confirmer
	EnvironmentLookup            githubauth.EnvironmentLookup
}

type commandFlags struct {
	target     *flags.TargetFlagValues
	execution  *flags.ExecutionFlagValues
	owner      string
	branch     string
	prerelease bool
	latest     bool
	draft      bool
}

// Build constructs the release command.
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
	flagSet := command.Flags()
	flagSet.StringVar(&boundFlags.owner, ownerFlagNameConstant, "", ownerFlagUsageConstant)
	flagSet.StringVar(&boundFlags.branch, branchFlagNameConstant, "", branchFlagUsageConstant)
	flagSet.BoolVar(&boundFlags.prerelease, prereleaseFlagNameConstant, false, prereleaseFlagUsageConstant)
	flagSet.BoolVar(&boundFlags.latest, latestFlagNameConstant, false, latestFlagUsageConstant)
	flagSet.BoolVar(&boundFlags.draft, draftFlagNameConstant, false, draftFlagUsageConstant)
	command.MarkFlagsMutuallyExclusive(latestFlagNameConstant, draftFlagNameConstant)
	command.MarkFlagsOneRequired(latestFlagNameConstant, draftFlagNameConstant)

	command.RunE = func(command *cobra.Command, arguments []string) error {
		return builder.run(command, arguments, boundFlags)
	}
	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string, boundFlags *commandFlags) error {
	if len(arguments) > 0 {
		return errUnexpectedArguments
	}

	configuration := builder.resolveConfiguration()
	options, optionsError := builder.parseOptions(boundFlags, configuration)
	if optionsError != nil {
		return optionsError
	}

	logger := builder.resolveLogger()
	service, serviceError := builder.buildService(command, logger, configuration, boundFlags.execution)
	if serviceError != nil {
		return serviceError
	}

	if _, publishError := service.Publish(command.Context(), options); publishError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, publishError)
	}
	return nil
}

func (builder *CommandBuilder) parseOptions(boundFlags *commandFlags, configuration Configuration) (Options, error) {
	target, targetError := fleet.NewTarget(boundFlags.target.Repository, boundFlags.target.Automatic, boundFlags.target.All)
	if targetError != nil {
		return Options{}, targetError
	}

	owner := strings.TrimSpace(boundFlags.owner)
	if len(owner) == 0 {
		owner = configuration.Owner
	}
	branch := strings.TrimSpace(boundFlags.branch)
	if len(branch) == 0 {
		branch = configuration.Branch
	}

	return Options{
		Target:     target,
		Owner:      owner,
		Branch:     branch,
		Body:       configuration.Body,
		Prerelease: boundFlags.prerelease,
		Draft:      boundFlags.draft,
		Latest:     boundFlags.latest,
		DryRun:     boundFlags.execution.DryRun,
	}, nil
}

func (builder *CommandBuilder) buildService(command *cobra.Command, logger *zap.Logger, configuration Configuration, execution *flags.ExecutionFlagValues) (*Service, error) {
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

	fileSystem := dependencies.ResolveFileSystem(builder.FileSystem)
	token, tokenError := builder.resolveToken(configuration, fileSystem)
	if tokenError != nil {
		if !execution.DryRun || !errors.Is(tokenError, githubauth.ErrTokenNotFound) {
			return nil, fmt.Errorf(tokenResolutionFailedTemplateConstant, tokenError)
		}
	}

	githubExecutor, githubExecutorError := dependencies.ResolveGitHubExecutor(builder.GitHubExecutor, logger, builder.humanReadableLogging())
	if githubExecutorError != nil {
		return nil, githubExecutorError
	}
	client, clientError := githubcli.NewClient(githubExecutor, githubcli.ClientConfiguration{Hostname: configuration.Host, Token: token})
	if clientError != nil {
		return nil, clientError
	}
	publisher, publisherError := NewPublisher(client, NewCache(), builder.resolveConfirmer(command, execution.AssumeYes), logger)
	if publisherError != nil {
		return nil, publisherError
	}

	return NewService(ServiceDependencies{
		Roster:        roster,
		VersionStore:  manifest.NewVersionStore(fileSystem, logger),
		Publisher:     publisher,
		RemoteLocator: gitManager,
		Reporter:      shared.NewWriterReporter(command.OutOrStdout()),
		Logger:        logger,
	})
}

func (builder *CommandBuilder) resolveToken(configuration Configuration, fileSystem afero.Fs) (string, error) {
	source, sourceError := githubauth.ParseSource(configuration.Token)
	if sourceError != nil {
		return "", sourceError
	}
	environmentLookup := builder.EnvironmentLookup
	if environmentLookup == nil {
		environmentLookup = os.LookupEnv
	}
	return githubauth.NewResolver(environmentLookup, fileSystem, pathutils.NewHomeExpander()).Resolve(source)
}

func (builder *CommandBuilder) resolveConfirmer(command *cobra.Command, assumeYes bool) confirm.Confirmer {
	existing := builder.Confirmer
	if existing == nil {
		existing = confirm.NewIOPrompter(command.InOrStdin(), command.OutOrStdout()).Confirm
	}
	return confirm.Resolve(existing, assumeYes)
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
