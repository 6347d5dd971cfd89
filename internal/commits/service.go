package commits

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/fleet/internal/confirm"
	"github.com/temirov/fleet/internal/fleet"
	"github.com/temirov/fleet/internal/shared"
	"github.com/temirov/fleet/internal/versioning"
)

const (
	versionStoreMissingMessageConstant      = "version store not configured"
	changeInspectorMissingMessageConstant   = "change inspector not configured"
	branchCoordinatorMissingMessageConstant = "branch coordinator not configured"
	repositoryManagerMissingMessageConstant = "repository manager not configured"
	stepFailedTemplateConstant              = "%s: %s failed: %w"
	stepInspectConstant                     = "inspect"
	stepReadVersionConstant                 = "read version"
	stepCurrentBranchConstant               = "current branch"
	stepSwitchBranchConstant                = "switch branch"
	stepPromptConstant                      = "prompt"
	stepStageConstant                       = "stage"
	stepCommitConstant                      = "commit"
	sameBranchPromptTemplateConstant        = "%s is on the branch of its current version %s. Add the new files?"
	otherBranchPromptTemplateConstant       = "%s is on branch %s instead of %s. Create the commit anyway?"
	commitPromptTemplateConstant            = "%s was updated to version %s. Commit %d file(s)?"
	messageQuestionTemplateConstant         = "Commit message for %s:"
	reportSkippedTemplateConstant           = "%s: nothing to commit\n"
	reportDeclinedTemplateConstant          = "%s: commit declined\n"
	reportPlannedTemplateConstant           = "%s: would commit %s on %s: %q\n"
	reportCommittedTemplateConstant         = "%s: committed %s on %s: %q\n"
	logMessageCommitStartedConstant         = "fleet commit started"
	logMessageCommittedConstant             = "repository committed"
	logFieldRepositoryConstant              = "repository"
	logFieldBranchConstant                  = "branch"
	logFieldFilesConstant                   = "files"
	logFieldTargetConstant                  = "target"
	logFieldDryRunConstant                  = "dry_run"
	fileListSeparatorConstant               = ", "
)

var (
	// ErrVersionStoreNotConfigured indicates a missing version store dependency.
	ErrVersionStoreNotConfigured = errors.New(versionStoreMissingMessageConstant)
	// ErrChangeInspectorNotConfigured indicates a missing change inspector dependency.
	ErrChangeInspectorNotConfigured = errors.New(changeInspectorMissingMessageConstant)
	// ErrBranchCoordinatorNotConfigured indicates a missing branch coordinator dependency.
	ErrBranchCoordinatorNotConfigured = errors.New(branchCoordinatorMissingMessageConstant)
	// ErrRepositoryManagerNotConfigured indicates a missing git repository manager.
	ErrRepositoryManagerNotConfigured = errors.New(repositoryManagerMissingMessageConstant)
)

// Status describes what happened to one repository during a commit run.
type Status string

// Supported commit statuses.
const (
	StatusCommitted Status = Status("committed")
	StatusPlanned   Status = Status("planned")
	StatusSkipped   Status = Status("skipped")
	StatusDeclined  Status = Status("declined")
)

// VersionReader reads the local version of a repository.
type VersionReader interface {
	Read(repository fleet.Repository) (versioning.Version, error)
}

// ChangeInspector lists the pending changes of a repository.
type ChangeInspector interface {
	AllChangedFiles(executionContext context.Context, repository fleet.Repository) ([]string, error)
}

// BranchCoordinator inspects and moves between local branches.
type BranchCoordinator interface {
	Exists(executionContext context.Context, repository fleet.Repository, branchName string) bool
	Current(executionContext context.Context, repository fleet.Repository) (string, error)
	Switch(executionContext context.Context, repository fleet.Repository, branchName string, dryRun bool) error
	Fork(executionContext context.Context, repository fleet.Repository, branchName string, dryRun bool) error
}

// Committer stages files and records commits.
type Committer interface {
	StageFiles(executionContext context.Context, repositoryPath string, filePaths []string) error
	Commit(executionContext context.Context, repositoryPath string, message string) error
}

// ServiceDependencies enumerates the collaborators of the commit service.
type ServiceDependencies struct {
	Roster            fleet.Roster
	Configuration     Configuration
	VersionStore      VersionReader
	ChangeInspector   ChangeInspector
	BranchCoordinator BranchCoordinator
	Committer         Committer
	Confirmer         confirm.Confirmer
	Asker             confirm.Asker
	Reporter          shared.Reporter
	Logger            *zap.Logger
}

// Options configures one commit run.
type Options struct {
	Target      fleet.Target
	Message     string
	AutoMessage bool
	DryRun      bool
}

// ResultEntry records the outcome for one repository.
type ResultEntry struct {
	Repository string
	Version    string
	Branch     string
	Files      []string
	Message    string
	Status     Status
}

// Result aggregates the entries of a commit run in roster order.
type Result struct {
	Entries []ResultEntry
}

// EntriesWithStatus filters entries by status.
func (result Result) EntriesWithStatus(status Status) []ResultEntry {
	var filtered []ResultEntry
	for _, entry := range result.Entries {
		if entry.Status == status {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}

// Service commits pending repository work on version branches.
type Service struct {
	roster            fleet.Roster
	configuration     Configuration
	versionStore      VersionReader
	changeInspector   ChangeInspector
	branchCoordinator BranchCoordinator
	committer         Committer
	confirmer         confirm.Confirmer
	asker             confirm.Asker
	reporter          shared.Reporter
	logger            *zap.Logger
}

// NewService validates dependencies and constructs a Service. A nil confirmer
// accepts every prompt; a nil asker falls back to the automatic message.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.VersionStore == nil {
		return nil, ErrVersionStoreNotConfigured
	}
	if dependencies.ChangeInspector == nil {
		return nil, ErrChangeInspectorNotConfigured
	}
	if dependencies.BranchCoordinator == nil {
		return nil, ErrBranchCoordinatorNotConfigured
	}
	if dependencies.Committer == nil {
		return nil, ErrRepositoryManagerNotConfigured
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		roster:            dependencies.Roster,
		configuration:     dependencies.Configuration.Sanitize(),
		versionStore:      dependencies.VersionStore,
		changeInspector:   dependencies.ChangeInspector,
		branchCoordinator: dependencies.BranchCoordinator,
		committer:         dependencies.Committer,
		confirmer:         confirm.Resolve(dependencies.Confirmer, false),
		asker:             dependencies.Asker,
		reporter:          shared.ResolveReporter(dependencies.Reporter),
		logger:            logger,
	}, nil
}

// Commit walks the selected repositories and commits their pending changes on
// the branch named after their version. Declined prompts skip the repository;
// git failures stop the run.
func (service *Service) Commit(executionContext context.Context, options Options) (Result, error) {
	repositories, selectionError := service.roster.Select(options.Target)
	if selectionError != nil {
		return Result{}, selectionError
	}
	service.logger.Info(logMessageCommitStartedConstant, zap.String(logFieldTargetConstant, options.Target.String()), zap.Bool(logFieldDryRunConstant, options.DryRun))

	result := Result{}
	for _, repository := range repositories {
		if contextError := executionContext.Err(); contextError != nil {
			return result, contextError
		}
		entry, commitError := service.commitRepository(executionContext, repository, options)
		if commitError != nil {
			return result, commitError
		}
		result.Entries = append(result.Entries, entry)
	}
	return result, nil
}

func (service *Service) commitRepository(executionContext context.Context, repository fleet.Repository, options Options) (ResultEntry, error) {
	entry := ResultEntry{Repository: repository.Name}

	changedFiles, inspectError := service.changeInspector.AllChangedFiles(executionContext, repository)
	if inspectError != nil {
		return ResultEntry{}, stepError(repository, stepInspectConstant, inspectError)
	}
	entry.Files = changedFiles
	if onlyBookkeeping(repository, changedFiles) {
		entry.Status = StatusSkipped
		service.reporter.Printf(reportSkippedTemplateConstant, repository.Name)
		return entry, nil
	}

	version, readError := service.versionStore.Read(repository)
	if readError != nil {
		return ResultEntry{}, stepError(repository, stepReadVersionConstant, readError)
	}
	versionBranch := version.String()
	entry.Version = versionBranch
	entry.Branch = versionBranch

	currentBranch, branchError := service.branchCoordinator.Current(executionContext, repository)
	if branchError != nil {
		return ResultEntry{}, stepError(repository, stepCurrentBranchConstant, branchError)
	}

	if !options.DryRun && !slices.Contains(changedFiles, repository.DeclarationFile) {
		prompt := fmt.Sprintf(otherBranchPromptTemplateConstant, repository.Name, currentBranch, versionBranch)
		if currentBranch == versionBranch {
			prompt = fmt.Sprintf(sameBranchPromptTemplateConstant, repository.Name, versionBranch)
		}
		if declined, promptError := service.declined(prompt); declined || promptError != nil {
			return service.decline(repository, entry, promptError)
		}
	}

	if currentBranch != versionBranch {
		if switchError := service.moveToBranch(executionContext, repository, versionBranch, options.DryRun); switchError != nil {
			return ResultEntry{}, stepError(repository, stepSwitchBranchConstant, switchError)
		}
	}

	if options.DryRun {
		entry.Message = service.plannedMessage(repository, version, options)
		entry.Status = StatusPlanned
		service.reporter.Printf(reportPlannedTemplateConstant, repository.Name, strings.Join(changedFiles, fileListSeparatorConstant), versionBranch, entry.Message)
		return entry, nil
	}

	if declined, promptError := service.declined(fmt.Sprintf(commitPromptTemplateConstant, repository.Name, versionBranch, len(changedFiles))); declined || promptError != nil {
		return service.decline(repository, entry, promptError)
	}

	message, messageError := service.resolveMessage(repository, version, options)
	if messageError != nil {
		return ResultEntry{}, stepError(repository, stepPromptConstant, messageError)
	}
	entry.Message = message

	if stageError := service.committer.StageFiles(executionContext, repository.Root, changedFiles); stageError != nil {
		return ResultEntry{}, stepError(repository, stepStageConstant, stageError)
	}
	if commitError := service.committer.Commit(executionContext, repository.Root, message); commitError != nil {
		return ResultEntry{}, stepError(repository, stepCommitConstant, commitError)
	}

	entry.Status = StatusCommitted
	service.logger.Info(
		logMessageCommittedConstant,
		zap.String(logFieldRepositoryConstant, repository.Name),
		zap.String(logFieldBranchConstant, versionBranch),
		zap.Strings(logFieldFilesConstant, changedFiles),
	)
	service.reporter.Printf(reportCommittedTemplateConstant, repository.Name, strings.Join(changedFiles, fileListSeparatorConstant), versionBranch, message)
	return entry, nil
}

func (service *Service) moveToBranch(executionContext context.Context, repository fleet.Repository, branchName string, dryRun bool) error {
	if service.branchCoordinator.Exists(executionContext, repository, branchName) {
		return service.branchCoordinator.Switch(executionContext, repository, branchName, dryRun)
	}
	return service.branchCoordinator.Fork(executionContext, repository, branchName, dryRun)
}

func (service *Service) declined(prompt string) (bool, error) {
	confirmError := confirm.Require(service.confirmer, prompt)
	if errors.Is(confirmError, confirm.ErrUserAbort) {
		return true, nil
	}
	return false, confirmError
}

func (service *Service) decline(repository fleet.Repository, entry ResultEntry, promptError error) (ResultEntry, error) {
	if promptError != nil {
		return ResultEntry{}, stepError(repository, stepPromptConstant, promptError)
	}
	entry.Status = StatusDeclined
	service.reporter.Printf(reportDeclinedTemplateConstant, repository.Name)
	return entry, nil
}

func (service *Service) plannedMessage(repository fleet.Repository, version versioning.Version, options Options) string {
	if trimmedMessage := strings.TrimSpace(options.Message); len(trimmedMessage) > 0 {
		return trimmedMessage
	}
	return service.configuration.AutomaticMessage(repository, version)
}

// resolveMessage prefers the explicit message, then the automatic one when
// requested, then asks. A blank answer falls back to the automatic message.
func (service *Service) resolveMessage(repository fleet.Repository, version versioning.Version, options Options) (string, error) {
	if trimmedMessage := strings.TrimSpace(options.Message); len(trimmedMessage) > 0 {
		return trimmedMessage, nil
	}
	automaticMessage := service.configuration.AutomaticMessage(repository, version)
	if options.AutoMessage || service.asker == nil {
		return automaticMessage, nil
	}
	answer, askError := service.asker(fmt.Sprintf(messageQuestionTemplateConstant, repository.Name))
	if askError != nil {
		return "", askError
	}
	if len(strings.TrimSpace(answer)) == 0 {
		return automaticMessage, nil
	}
	return strings.TrimSpace(answer), nil
}

// onlyBookkeeping reports whether the changes are absent or limited to the
// manifest, alone or together with the declaration file.
func onlyBookkeeping(repository fleet.Repository, changedFiles []string) bool {
	switch len(changedFiles) {
	case 0:
		return true
	case 1:
		return changedFiles[0] == repository.ManifestFile
	case 2:
		return slices.Contains(changedFiles, repository.ManifestFile) && slices.Contains(changedFiles, repository.DeclarationFile)
	default:
		return false
	}
}

func stepError(repository fleet.Repository, step string, cause error) error {
	return fmt.Errorf(stepFailedTemplateConstant, repository.Name, step, cause)
}
