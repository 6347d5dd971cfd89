package update

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/fleet/internal/fleet"
	"github.com/temirov/fleet/internal/manifest"
	"github.com/temirov/fleet/internal/repostate"
	"github.com/temirov/fleet/internal/versioning"
)

const (
	versionStoreMissingMessageConstant       = "version store not configured"
	dependencyRewriterMissingMessageConstant = "dependency rewriter not configured"
	stateInspectorMissingMessageConstant     = "repository state inspector not configured"
	branchCoordinatorMissingMessageConstant  = "branch coordinator not configured"
	restoreFailureTemplateConstant           = "%s (%s): %v"
	repositoryUpdatedMessageConstant         = "repository version bumped"
	repositorySkippedMessageConstant         = "repository has no changes; skipping"
	repositoryRestoredMessageConstant        = "repository restored to trunk"
	pendingUpdateReplacedMessageConstant     = "pending version bump discarded before re-bumping"
	dependenciesRewrittenMessageConstant     = "dependency pins rewritten"
	runStartedMessageConstant                = "fleet update started"
	repositoryLogFieldConstant               = "repository"
	previousVersionLogFieldConstant          = "previous_version"
	nextVersionLogFieldConstant              = "next_version"
	intentLogFieldConstant                   = "intent"
	targetLogFieldConstant                   = "target"
	filesLogFieldConstant                    = "files"
	changedLinesLogFieldConstant             = "changed_lines"
	declarationChangedLogFieldConstant       = "declaration_changed"
	dryRunLogFieldConstant                   = "dry_run"
)

var (
	// ErrVersionStoreNotConfigured indicates a missing VersionStore dependency.
	ErrVersionStoreNotConfigured = errors.New(versionStoreMissingMessageConstant)
	// ErrDependencyRewriterNotConfigured indicates a missing DependencyRewriter dependency.
	ErrDependencyRewriterNotConfigured = errors.New(dependencyRewriterMissingMessageConstant)
	// ErrStateInspectorNotConfigured indicates a missing state inspector dependency.
	ErrStateInspectorNotConfigured = errors.New(stateInspectorMissingMessageConstant)
	// ErrBranchCoordinatorNotConfigured indicates a missing branch coordinator dependency.
	ErrBranchCoordinatorNotConfigured = errors.New(branchCoordinatorMissingMessageConstant)
)

// VersionStore reads and writes repository version declarations.
type VersionStore interface {
	Read(repository fleet.Repository) (versioning.Version, error)
	Write(repository fleet.Repository, version versioning.Version, dryRun bool) (manifest.WriteResult, error)
}

// DependencyRewriter re-pins fleet dependencies inside a manifest.
type DependencyRewriter interface {
	Rewrite(repository fleet.Repository, core manifest.PinnedVersion, siblings []manifest.PinnedVersion, dryRun bool) (manifest.RewriteResult, error)
}

// StateInspector exposes working-tree queries and rollback.
type StateInspector interface {
	UntrackedFiles(executionContext context.Context, repository fleet.Repository) ([]string, error)
	ModifiedFiles(executionContext context.Context, repository fleet.Repository) ([]string, error)
	IsUpdatePending(executionContext context.Context, repository fleet.Repository) (bool, error)
	Restore(executionContext context.Context, repository fleet.Repository, dryRun bool) (repostate.RestoreResult, error)
}

// BranchCoordinator creates the per-version branch.
type BranchCoordinator interface {
	Create(executionContext context.Context, repository fleet.Repository, branchName string, dryRun bool) error
}

// ServiceDependencies enumerates the collaborators of an Orchestrator.
type ServiceDependencies struct {
	Roster             fleet.Roster
	VersionStore       VersionStore
	DependencyRewriter DependencyRewriter
	StateInspector     StateInspector
	BranchCoordinator  BranchCoordinator
	Logger             *zap.Logger
}

// Options configure one orchestration run.
type Options struct {
	Target fleet.Target
	Intent Intent
	DryRun bool
}

// Orchestrator drives version bumps across the fleet.
type Orchestrator struct {
	roster             fleet.Roster
	versionStore       VersionStore
	dependencyRewriter DependencyRewriter
	stateInspector     StateInspector
	branchCoordinator  BranchCoordinator
	logger             *zap.Logger
}

// NewOrchestrator validates dependencies and constructs an Orchestrator.
func NewOrchestrator(dependencies ServiceDependencies) (*Orchestrator, error) {
	if dependencies.VersionStore == nil {
		return nil, ErrVersionStoreNotConfigured
	}
	if dependencies.DependencyRewriter == nil {
		return nil, ErrDependencyRewriterNotConfigured
	}
	if dependencies.StateInspector == nil {
		return nil, ErrStateInspectorNotConfigured
	}
	if dependencies.BranchCoordinator == nil {
		return nil, ErrBranchCoordinatorNotConfigured
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		roster:             dependencies.Roster,
		versionStore:       dependencies.VersionStore,
		dependencyRewriter: dependencies.DependencyRewriter,
		stateInspector:     dependencies.StateInspector,
		branchCoordinator:  dependencies.BranchCoordinator,
		logger:             logger,
	}, nil
}

type runState struct {
	options Options
	report  Report
	planned map[string]versioning.Version
}

// Run executes the options against the roster. The returned report contains
// every entry produced before a failure, including the failed entry.
func (orchestrator *Orchestrator) Run(executionContext context.Context, options Options) (Report, error) {
	options.Intent = options.Intent.Normalized()
	state := &runState{
		options: options,
		report:  Report{Intent: options.Intent.String(), DryRun: options.DryRun},
		planned: map[string]versioning.Version{},
	}

	targets, targetError := orchestrator.roster.Select(options.Target)
	if targetError != nil {
		return state.report, targetError
	}

	orchestrator.logger.Info(
		runStartedMessageConstant,
		zap.String(intentLogFieldConstant, state.report.Intent),
		zap.String(targetLogFieldConstant, options.Target.String()),
		zap.Bool(dryRunLogFieldConstant, options.DryRun),
	)

	for _, repository := range targets {
		if contextError := executionContext.Err(); contextError != nil {
			return state.report, contextError
		}
		if processError := orchestrator.process(executionContext, state, repository); processError != nil {
			return state.report, processError
		}
	}

	if options.Intent.IsRestore() {
		return state.report, nil
	}
	if rewriteError := orchestrator.rewriteDependencies(state); rewriteError != nil {
		return state.report, rewriteError
	}
	return state.report, nil
}

func (orchestrator *Orchestrator) process(executionContext context.Context, state *runState, repository fleet.Repository) error {
	options := state.options
	if options.Intent.IsRestore() {
		return orchestrator.restore(executionContext, state, repository)
	}
	if !options.Target.FleetWide() {
		return orchestrator.bump(executionContext, state, repository, nil, false)
	}

	pendingUpdate, pendingError := orchestrator.stateInspector.IsUpdatePending(executionContext, repository)
	if pendingError != nil {
		return orchestrator.fail(state, repository, StepInspect, pendingError)
	}
	if pendingUpdate {
		orchestrator.logger.Info(pendingUpdateReplacedMessageConstant, zap.String(repositoryLogFieldConstant, repository.Name))
	}
	if _, restoreError := orchestrator.stateInspector.Restore(executionContext, repository, options.DryRun); restoreError != nil {
		return orchestrator.fail(state, repository, StepRestore, restoreError)
	}
	changedFiles, inspectError := orchestrator.changedFiles(executionContext, repository)
	if inspectError != nil {
		return orchestrator.fail(state, repository, StepInspect, inspectError)
	}
	if len(changedFiles) == 0 && options.Target.Mode != fleet.TargetModeAll {
		orchestrator.logger.Info(repositorySkippedMessageConstant, zap.String(repositoryLogFieldConstant, repository.Name))
		state.report.add(ReportEntry{Repository: repository.Name, Action: ActionSkipped, ReplacedPending: pendingUpdate})
		return nil
	}
	return orchestrator.bump(executionContext, state, repository, changedFiles, pendingUpdate)
}

func (orchestrator *Orchestrator) changedFiles(executionContext context.Context, repository fleet.Repository) ([]string, error) {
	untrackedFiles, untrackedError := orchestrator.stateInspector.UntrackedFiles(executionContext, repository)
	if untrackedError != nil {
		return nil, untrackedError
	}
	modifiedFiles, modifiedError := orchestrator.stateInspector.ModifiedFiles(executionContext, repository)
	if modifiedError != nil {
		return nil, modifiedError
	}
	return repostate.Union(untrackedFiles, modifiedFiles), nil
}

func (orchestrator *Orchestrator) restore(executionContext context.Context, state *runState, repository fleet.Repository) error {
	result, restoreError := orchestrator.stateInspector.Restore(executionContext, repository, state.options.DryRun)
	if restoreError != nil {
		return orchestrator.fail(state, repository, StepRestore, restoreError)
	}

	entry := ReportEntry{Repository: repository.Name, Action: ActionRestored, Branch: repository.Trunk}
	for _, failure := range result.Failures() {
		entry.RestoreFailures = append(entry.RestoreFailures, fmt.Sprintf(restoreFailureTemplateConstant, failure.File, failure.Operation, failure.Failure))
	}
	orchestrator.logger.Info(
		repositoryRestoredMessageConstant,
		zap.String(repositoryLogFieldConstant, repository.Name),
		zap.Bool(dryRunLogFieldConstant, state.options.DryRun),
	)
	state.report.add(entry)
	return nil
}

func (orchestrator *Orchestrator) bump(executionContext context.Context, state *runState, repository fleet.Repository, changedFiles []string, replacedPending bool) error {
	dryRun := state.options.DryRun
	currentVersion, readError := orchestrator.versionStore.Read(repository)
	if readError != nil {
		return orchestrator.fail(state, repository, StepRead, readError)
	}

	nextVersion := state.options.Intent.Next(currentVersion)
	writeResult, writeError := orchestrator.versionStore.Write(repository, nextVersion, dryRun)
	if writeError != nil {
		return orchestrator.fail(state, repository, StepWrite, writeError)
	}
	branchName := nextVersion.String()
	if branchError := orchestrator.branchCoordinator.Create(executionContext, repository, branchName, dryRun); branchError != nil {
		return orchestrator.fail(state, repository, StepBranch, branchError)
	}
	state.planned[repository.Name] = nextVersion

	orchestrator.logger.Info(
		repositoryUpdatedMessageConstant,
		zap.String(repositoryLogFieldConstant, repository.Name),
		zap.String(previousVersionLogFieldConstant, currentVersion.String()),
		zap.String(nextVersionLogFieldConstant, nextVersion.String()),
		zap.Strings(filesLogFieldConstant, changedFiles),
		zap.Bool(declarationChangedLogFieldConstant, writeResult.Changed()),
		zap.Bool(dryRunLogFieldConstant, dryRun),
	)
	state.report.add(ReportEntry{
		Repository:      repository.Name,
		Action:          ActionUpdated,
		PreviousVersion: currentVersion.String(),
		NextVersion:     nextVersion.String(),
		Branch:          branchName,
		Files:           changedFiles,
		ReplacedPending: replacedPending,
	})
	return nil
}

// rewriteDependencies resolves every pinned version before touching any
// manifest, so no manifest observes another manifest's rewrite.
func (orchestrator *Orchestrator) rewriteDependencies(state *runState) error {
	pins := make(map[string]manifest.PinnedVersion)
	for _, repository := range orchestrator.roster.Repositories() {
		version, planned := state.planned[repository.Name]
		if !planned {
			currentVersion, readError := orchestrator.versionStore.Read(repository)
			if readError != nil {
				return orchestrator.fail(state, repository, StepRead, readError)
			}
			version = currentVersion
		}
		pins[repository.Name] = manifest.PinnedVersion{Repository: repository, Version: version}
	}

	corePin := pins[orchestrator.roster.Core().Name]
	siblingPins := make([]manifest.PinnedVersion, 0, len(pins))
	for _, sibling := range orchestrator.roster.Siblings() {
		siblingPins = append(siblingPins, pins[sibling.Name])
	}

	for _, repository := range orchestrator.roster.Repositories() {
		if !orchestrator.pinsDependencies(state.options.Target, repository) {
			continue
		}
		result, rewriteError := orchestrator.dependencyRewriter.Rewrite(repository, corePin, siblingPins, state.options.DryRun)
		if rewriteError != nil {
			return orchestrator.fail(state, repository, StepRewrite, rewriteError)
		}
		orchestrator.logger.Info(
			dependenciesRewrittenMessageConstant,
			zap.String(repositoryLogFieldConstant, repository.Name),
			zap.Int(changedLinesLogFieldConstant, len(result.Changes)),
			zap.Bool(dryRunLogFieldConstant, state.options.DryRun),
		)
		state.report.add(ReportEntry{
			Repository:   repository.Name,
			Action:       ActionRewritten,
			Files:        []string{repository.ManifestFile},
			ChangedLines: len(result.Changes),
		})
	}
	return nil
}

// pinsDependencies skips plugins unless the run targets one by name.
func (orchestrator *Orchestrator) pinsDependencies(target fleet.Target, repository fleet.Repository) bool {
	return !repository.Plugin || target.Names(repository)
}

func (orchestrator *Orchestrator) fail(state *runState, repository fleet.Repository, step Step, cause error) error {
	repositoryError := RepositoryError{Repository: repository.Name, Step: step, Cause: cause}
	state.report.add(ReportEntry{Repository: repository.Name, Action: ActionFailed, Error: repositoryError.Error()})
	return repositoryError
}
