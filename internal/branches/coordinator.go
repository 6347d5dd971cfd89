package branches

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/fleet/internal/fleet"
	"github.com/temirov/fleet/internal/shared"
)

const (
	repositoryManagerMissingMessageConstant = "repository manager not configured"
	branchNotFoundMessageConstant           = "branch does not exist"
	branchNotFoundTemplateConstant          = "%w: %s in %s"
	branchCheckFailedMessageConstant        = "branch existence check failed; treating branch as absent"
	branchCreatedMessageConstant            = "branch created"
	branchReplacedMessageConstant           = "existing branch replaced"
	branchForkedMessageConstant             = "branch created from current head"
	branchSwitchedMessageConstant           = "branch switched"
	branchDeletedMessageConstant            = "branch deleted"
	repositoryLogFieldConstant              = "repository"
	branchLogFieldConstant                  = "branch"
	dryRunLogFieldConstant                  = "dry_run"
)

var (
	// ErrRepositoryManagerNotConfigured indicates the coordinator was constructed without git access.
	ErrRepositoryManagerNotConfigured = errors.New(repositoryManagerMissingMessageConstant)
	// ErrBranchNotFound indicates a switch or delete targeted a missing branch.
	ErrBranchNotFound = errors.New(branchNotFoundMessageConstant)
)

// Coordinator manages the local branches of fleet repositories.
type Coordinator struct {
	repositoryManager shared.GitRepositoryManager
	logger            *zap.Logger
}

// NewCoordinator constructs a Coordinator.
func NewCoordinator(repositoryManager shared.GitRepositoryManager, logger *zap.Logger) (*Coordinator, error) {
	if repositoryManager == nil {
		return nil, ErrRepositoryManagerNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{repositoryManager: repositoryManager, logger: logger}, nil
}

// Exists reports whether a local branch exists. Any git failure counts as absent.
func (coordinator *Coordinator) Exists(executionContext context.Context, repository fleet.Repository, branchName string) bool {
	exists, existsError := coordinator.repositoryManager.BranchExists(executionContext, repository.Root, branchName)
	if existsError != nil {
		coordinator.logger.Debug(
			branchCheckFailedMessageConstant,
			zap.String(repositoryLogFieldConstant, repository.Name),
			zap.String(branchLogFieldConstant, branchName),
			zap.Error(existsError),
		)
		return false
	}
	return exists
}

// Current returns the checked out branch.
func (coordinator *Coordinator) Current(executionContext context.Context, repository fleet.Repository) (string, error) {
	return coordinator.repositoryManager.GetCurrentBranch(executionContext, repository.Root)
}

// Create moves to trunk, removes any existing branch with the name and creates
// it afresh from trunk. Calling it twice leaves a single branch at the latest
// creation point.
func (coordinator *Coordinator) Create(executionContext context.Context, repository fleet.Repository, branchName string, dryRun bool) error {
	exists := coordinator.Exists(executionContext, repository, branchName)
	if dryRun {
		coordinator.log(branchCreatedMessageConstant, repository, branchName, dryRun)
		return nil
	}

	if switchError := coordinator.repositoryManager.SwitchBranch(executionContext, repository.Root, repository.Trunk); switchError != nil {
		return switchError
	}
	if exists {
		if deleteError := coordinator.repositoryManager.DeleteBranch(executionContext, repository.Root, branchName); deleteError != nil {
			return deleteError
		}
		coordinator.log(branchReplacedMessageConstant, repository, branchName, dryRun)
	}
	if createError := coordinator.repositoryManager.CreateBranch(executionContext, repository.Root, branchName); createError != nil {
		return createError
	}
	coordinator.log(branchCreatedMessageConstant, repository, branchName, dryRun)
	return nil
}

// Fork creates the branch from the current HEAD and checks it out, carrying
// uncommitted work along.
func (coordinator *Coordinator) Fork(executionContext context.Context, repository fleet.Repository, branchName string, dryRun bool) error {
	if !dryRun {
		if createError := coordinator.repositoryManager.CreateBranch(executionContext, repository.Root, branchName); createError != nil {
			return createError
		}
	}
	coordinator.log(branchForkedMessageConstant, repository, branchName, dryRun)
	return nil
}

// Switch checks out an existing branch.
func (coordinator *Coordinator) Switch(executionContext context.Context, repository fleet.Repository, branchName string, dryRun bool) error {
	if !coordinator.Exists(executionContext, repository, branchName) {
		return fmt.Errorf(branchNotFoundTemplateConstant, ErrBranchNotFound, branchName, repository.Name)
	}
	if !dryRun {
		if switchError := coordinator.repositoryManager.SwitchBranch(executionContext, repository.Root, branchName); switchError != nil {
			return switchError
		}
	}
	coordinator.log(branchSwitchedMessageConstant, repository, branchName, dryRun)
	return nil
}

// Delete force-deletes an existing branch.
func (coordinator *Coordinator) Delete(executionContext context.Context, repository fleet.Repository, branchName string, dryRun bool) error {
	if !coordinator.Exists(executionContext, repository, branchName) {
		return fmt.Errorf(branchNotFoundTemplateConstant, ErrBranchNotFound, branchName, repository.Name)
	}
	if !dryRun {
		if deleteError := coordinator.repositoryManager.DeleteBranch(executionContext, repository.Root, branchName); deleteError != nil {
			return deleteError
		}
	}
	coordinator.log(branchDeletedMessageConstant, repository, branchName, dryRun)
	return nil
}

func (coordinator *Coordinator) log(message string, repository fleet.Repository, branchName string, dryRun bool) {
	coordinator.logger.Info(
		message,
		zap.String(repositoryLogFieldConstant, repository.Name),
		zap.String(branchLogFieldConstant, branchName),
		zap.Bool(dryRunLogFieldConstant, dryRun),
	)
}
