package repostate

import (
	"context"
	"errors"
	"slices"

	"go.uber.org/zap"

	"github.com/temirov/fleet/internal/fleet"
	"github.com/temirov/fleet/internal/shared"
)

const (
	repositoryManagerMissingMessageConstant = "repository manager not configured"
	restoreAttemptFailedMessageConstant     = "unable to restore file"
	restoreListingFailedMessageConstant     = "unable to list changed files before restore"
	restoreCompletedMessageConstant         = "repository restored"
	repositoryLogFieldConstant              = "repository"
	fileLogFieldConstant                    = "file"
	operationLogFieldConstant               = "operation"
	branchLogFieldConstant                  = "branch"
	dryRunLogFieldConstant                  = "dry_run"
)

// ErrRepositoryManagerNotConfigured indicates the inspector was constructed without git access.
var ErrRepositoryManagerNotConfigured = errors.New(repositoryManagerMissingMessageConstant)

// RestoreOperation names the kind of git restore applied to one file.
type RestoreOperation string

// Restore operations in the order they are attempted for a file.
const (
	RestoreOperationUnstage RestoreOperation = RestoreOperation("unstage")
	RestoreOperationDiscard RestoreOperation = RestoreOperation("discard")
)

// FileChangeSet captures the untracked, modified and staged paths of a repository at one instant.
type FileChangeSet struct {
	Untracked []string
	Modified  []string
	Staged    []string
}

// RestoreAction records one attempted file restore.
type RestoreAction struct {
	File      string
	Operation RestoreOperation
	Applied   bool
	Failure   error
}

// RestoreResult summarises a restore of one repository.
type RestoreResult struct {
	Repository string
	Actions    []RestoreAction
	Trunk      string
	Switched   bool
}

// Failures returns the actions whose restore attempt failed.
func (result RestoreResult) Failures() []RestoreAction {
	var failures []RestoreAction
	for _, action := range result.Actions {
		if action.Failure != nil {
			failures = append(failures, action)
		}
	}
	return failures
}

// Inspector reads and resets working-tree state through git.
type Inspector struct {
	repositoryManager shared.GitRepositoryManager
	logger            *zap.Logger
}

// NewInspector constructs an Inspector.
func NewInspector(repositoryManager shared.GitRepositoryManager, logger *zap.Logger) (*Inspector, error) {
	if repositoryManager == nil {
		return nil, ErrRepositoryManagerNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Inspector{repositoryManager: repositoryManager, logger: logger}, nil
}

// UntrackedFiles lists files git does not track and does not ignore.
func (inspector *Inspector) UntrackedFiles(executionContext context.Context, repository fleet.Repository) ([]string, error) {
	return inspector.repositoryManager.UntrackedFiles(executionContext, repository.Root)
}

// StagedFiles lists files staged in the index.
func (inspector *Inspector) StagedFiles(executionContext context.Context, repository fleet.Repository) ([]string, error) {
	return inspector.repositoryManager.StagedFiles(executionContext, repository.Root)
}

// ModifiedFiles lists files differing from HEAD.
func (inspector *Inspector) ModifiedFiles(executionContext context.Context, repository fleet.Repository) ([]string, error) {
	return inspector.repositoryManager.ModifiedFiles(executionContext, repository.Root)
}

// ChangeSet gathers all three file lists.
func (inspector *Inspector) ChangeSet(executionContext context.Context, repository fleet.Repository) (FileChangeSet, error) {
	stagedFiles, stagedError := inspector.StagedFiles(executionContext, repository)
	if stagedError != nil {
		return FileChangeSet{}, stagedError
	}
	modifiedFiles, modifiedError := inspector.ModifiedFiles(executionContext, repository)
	if modifiedError != nil {
		return FileChangeSet{}, modifiedError
	}
	untrackedFiles, untrackedError := inspector.UntrackedFiles(executionContext, repository)
	if untrackedError != nil {
		return FileChangeSet{}, untrackedError
	}
	return FileChangeSet{Untracked: untrackedFiles, Modified: modifiedFiles, Staged: stagedFiles}, nil
}

// AllChangedFiles returns the union of staged, modified and untracked paths,
// keeping the position of each path's first occurrence.
func (inspector *Inspector) AllChangedFiles(executionContext context.Context, repository fleet.Repository) ([]string, error) {
	changeSet, changeSetError := inspector.ChangeSet(executionContext, repository)
	if changeSetError != nil {
		return nil, changeSetError
	}
	return Union(changeSet.Staged, changeSet.Modified, changeSet.Untracked), nil
}

// IsUpdatePending reports whether the declaration file is modified together
// with at least one other file.
func (inspector *Inspector) IsUpdatePending(executionContext context.Context, repository fleet.Repository) (bool, error) {
	modifiedFiles, modifiedError := inspector.ModifiedFiles(executionContext, repository)
	if modifiedError != nil {
		return false, modifiedError
	}
	return len(modifiedFiles) > 1 && slices.Contains(modifiedFiles, repository.DeclarationFile), nil
}

// Restore unstages and discards changes to the manifest and declaration files,
// then switches back to trunk. File restores are fail-soft and recorded in the
// result; only a failed switch is returned as an error. In dry-run mode nothing
// is executed and the planned actions are reported.
func (inspector *Inspector) Restore(executionContext context.Context, repository fleet.Repository, dryRun bool) (RestoreResult, error) {
	result := RestoreResult{Repository: repository.Name, Trunk: repository.Trunk}

	stagedFiles, stagedError := inspector.StagedFiles(executionContext, repository)
	if stagedError != nil {
		inspector.logger.Warn(restoreListingFailedMessageConstant, zap.String(repositoryLogFieldConstant, repository.Name), zap.Error(stagedError))
	}
	modifiedFiles, modifiedError := inspector.ModifiedFiles(executionContext, repository)
	if modifiedError != nil {
		inspector.logger.Warn(restoreListingFailedMessageConstant, zap.String(repositoryLogFieldConstant, repository.Name), zap.Error(modifiedError))
	}

	for _, filePath := range []string{repository.ManifestFile, repository.DeclarationFile} {
		if slices.Contains(stagedFiles, filePath) {
			result.Actions = append(result.Actions, inspector.attempt(executionContext, repository, filePath, RestoreOperationUnstage, dryRun))
		}
		if slices.Contains(modifiedFiles, filePath) {
			result.Actions = append(result.Actions, inspector.attempt(executionContext, repository, filePath, RestoreOperationDiscard, dryRun))
		}
	}

	if !dryRun {
		if switchError := inspector.repositoryManager.SwitchBranch(executionContext, repository.Root, repository.Trunk); switchError != nil {
			return result, switchError
		}
		result.Switched = true
	}

	inspector.logger.Info(
		restoreCompletedMessageConstant,
		zap.String(repositoryLogFieldConstant, repository.Name),
		zap.String(branchLogFieldConstant, repository.Trunk),
		zap.Bool(dryRunLogFieldConstant, dryRun),
	)
	return result, nil
}

func (inspector *Inspector) attempt(executionContext context.Context, repository fleet.Repository, filePath string, operation RestoreOperation, dryRun bool) RestoreAction {
	action := RestoreAction{File: filePath, Operation: operation}
	if dryRun {
		return action
	}

	var restoreError error
	switch operation {
	case RestoreOperationUnstage:
		restoreError = inspector.repositoryManager.RestoreStaged(executionContext, repository.Root, filePath)
	case RestoreOperationDiscard:
		restoreError = inspector.repositoryManager.RestoreWorktree(executionContext, repository.Root, filePath)
	}
	if restoreError != nil {
		inspector.logger.Warn(
			restoreAttemptFailedMessageConstant,
			zap.String(repositoryLogFieldConstant, repository.Name),
			zap.String(fileLogFieldConstant, filePath),
			zap.String(operationLogFieldConstant, string(operation)),
			zap.Error(restoreError),
		)
		action.Failure = restoreError
		return action
	}
	action.Applied = true
	return action
}

// Union merges path lists, dropping repeats and keeping first-seen order.
func Union(pathLists ...[]string) []string {
	seen := make(map[string]struct{})
	merged := []string{}
	for _, pathList := range pathLists {
		for _, path := range pathList {
			if _, exists := seen[path]; exists {
				continue
			}
			seen[path] = struct{}{}
			merged = append(merged, path)
		}
	}
	return merged
}
