// Package gitrepotest provides an in-memory git repository manager for tests.
package gitrepotest

import (
	"context"
	"fmt"
	"slices"
)

// Operation names recorded by the fake and accepted as failure keys.
const (
	OperationUntracked       = "untracked"
	OperationStaged          = "staged"
	OperationModified        = "modified"
	OperationRestoreStaged   = "restore_staged"
	OperationRestoreWorktree = "restore_worktree"
	OperationCurrentBranch   = "current_branch"
	OperationBranchExists    = "branch_exists"
	OperationSwitch          = "switch"
	OperationCreate          = "create"
	OperationDelete          = "delete"
	OperationStage           = "stage"
	OperationCommit          = "commit"
	OperationRemoteURL       = "remote_url"
)

const (
	unknownRepositoryTemplateConstant = "not a git repository: %s"
	missingBranchTemplateConstant     = "invalid reference: %s"
	existingBranchTemplateConstant    = "a branch named %q already exists"
	currentBranchTemplateConstant     = "cannot delete branch %q checked out at %s"
	nothingToCommitTemplateConstant   = "nothing to commit in %s"
	missingRemoteTemplateConstant     = "no such remote %q"
	failureKeyTemplateConstant        = "%s %s"
)

// Call records one invocation against the fake.
type Call struct {
	Operation  string
	Repository string
	Argument   string
}

// Commit records one commit created through the fake.
type Commit struct {
	Branch  string
	Message string
	Files   []string
}

// Repository is the mutable state of one fake repository.
type Repository struct {
	CurrentBranch string
	Branches      []string
	Untracked     []string
	Modified      []string
	Staged        []string
	Remotes       map[string]string
	Commits       []Commit
	// Failures maps an operation name, or "<operation> <argument>", to the error it returns.
	Failures map[string]error
}

// HasBranch reports whether the branch exists.
func (repository *Repository) HasBranch(branchName string) bool {
	return slices.Contains(repository.Branches, branchName)
}

// RepositoryManager is an in-memory implementation of the git primitives used by fleet services.
type RepositoryManager struct {
	Repositories map[string]*Repository
	Calls        []Call
}

// NewRepositoryManager constructs an empty fake.
func NewRepositoryManager() *RepositoryManager {
	return &RepositoryManager{Repositories: map[string]*Repository{}}
}

// AddRepository registers a repository at the path, checked out on trunk.
func (manager *RepositoryManager) AddRepository(repositoryPath string, trunk string) *Repository {
	repository := &Repository{
		CurrentBranch: trunk,
		Branches:      []string{trunk},
		Remotes:       map[string]string{},
		Failures:      map[string]error{},
	}
	manager.Repositories[repositoryPath] = repository
	return repository
}

// CallsFor returns the recorded operations for one repository.
func (manager *RepositoryManager) CallsFor(repositoryPath string) []Call {
	var calls []Call
	for _, call := range manager.Calls {
		if call.Repository == repositoryPath {
			calls = append(calls, call)
		}
	}
	return calls
}

// OperationsFor returns the operation names recorded for one repository, with arguments.
func (manager *RepositoryManager) OperationsFor(repositoryPath string) []string {
	var operations []string
	for _, call := range manager.CallsFor(repositoryPath) {
		if len(call.Argument) == 0 {
			operations = append(operations, call.Operation)
			continue
		}
		operations = append(operations, fmt.Sprintf(failureKeyTemplateConstant, call.Operation, call.Argument))
	}
	return operations
}

func (manager *RepositoryManager) enter(operation string, repositoryPath string, argument string) (*Repository, error) {
	manager.Calls = append(manager.Calls, Call{Operation: operation, Repository: repositoryPath, Argument: argument})
	repository, exists := manager.Repositories[repositoryPath]
	if !exists {
		return nil, fmt.Errorf(unknownRepositoryTemplateConstant, repositoryPath)
	}
	if failure, configured := repository.Failures[fmt.Sprintf(failureKeyTemplateConstant, operation, argument)]; configured {
		return nil, failure
	}
	if failure, configured := repository.Failures[operation]; configured {
		return nil, failure
	}
	return repository, nil
}

// UntrackedFiles returns a copy of the untracked list.
func (manager *RepositoryManager) UntrackedFiles(_ context.Context, repositoryPath string) ([]string, error) {
	repository, enterError := manager.enter(OperationUntracked, repositoryPath, "")
	if enterError != nil {
		return nil, enterError
	}
	return slices.Clone(repository.Untracked), nil
}

// StagedFiles returns a copy of the staged list.
func (manager *RepositoryManager) StagedFiles(_ context.Context, repositoryPath string) ([]string, error) {
	repository, enterError := manager.enter(OperationStaged, repositoryPath, "")
	if enterError != nil {
		return nil, enterError
	}
	return slices.Clone(repository.Staged), nil
}

// ModifiedFiles returns a copy of the modified list.
func (manager *RepositoryManager) ModifiedFiles(_ context.Context, repositoryPath string) ([]string, error) {
	repository, enterError := manager.enter(OperationModified, repositoryPath, "")
	if enterError != nil {
		return nil, enterError
	}
	return slices.Clone(repository.Modified), nil
}

// RestoreStaged removes the file from the staged list.
func (manager *RepositoryManager) RestoreStaged(_ context.Context, repositoryPath string, filePath string) error {
	repository, enterError := manager.enter(OperationRestoreStaged, repositoryPath, filePath)
	if enterError != nil {
		return enterError
	}
	repository.Staged = remove(repository.Staged, filePath)
	return nil
}

// RestoreWorktree removes the file from the modified list unless it is still staged.
func (manager *RepositoryManager) RestoreWorktree(_ context.Context, repositoryPath string, filePath string) error {
	repository, enterError := manager.enter(OperationRestoreWorktree, repositoryPath, filePath)
	if enterError != nil {
		return enterError
	}
	if !slices.Contains(repository.Staged, filePath) {
		repository.Modified = remove(repository.Modified, filePath)
	}
	return nil
}

// GetCurrentBranch returns the checked out branch.
func (manager *RepositoryManager) GetCurrentBranch(_ context.Context, repositoryPath string) (string, error) {
	repository, enterError := manager.enter(OperationCurrentBranch, repositoryPath, "")
	if enterError != nil {
		return "", enterError
	}
	return repository.CurrentBranch, nil
}

// BranchExists reports whether the branch exists.
func (manager *RepositoryManager) BranchExists(_ context.Context, repositoryPath string, branchName string) (bool, error) {
	repository, enterError := manager.enter(OperationBranchExists, repositoryPath, branchName)
	if enterError != nil {
		return false, enterError
	}
	return repository.HasBranch(branchName), nil
}

// SwitchBranch checks out an existing branch.
func (manager *RepositoryManager) SwitchBranch(_ context.Context, repositoryPath string, branchName string) error {
	repository, enterError := manager.enter(OperationSwitch, repositoryPath, branchName)
	if enterError != nil {
		return enterError
	}
	if !repository.HasBranch(branchName) {
		return fmt.Errorf(missingBranchTemplateConstant, branchName)
	}
	repository.CurrentBranch = branchName
	return nil
}

// CreateBranch creates and checks out a new branch.
func (manager *RepositoryManager) CreateBranch(_ context.Context, repositoryPath string, branchName string) error {
	repository, enterError := manager.enter(OperationCreate, repositoryPath, branchName)
	if enterError != nil {
		return enterError
	}
	if repository.HasBranch(branchName) {
		return fmt.Errorf(existingBranchTemplateConstant, branchName)
	}
	repository.Branches = append(repository.Branches, branchName)
	repository.CurrentBranch = branchName
	return nil
}

// DeleteBranch removes a branch that is not checked out.
func (manager *RepositoryManager) DeleteBranch(_ context.Context, repositoryPath string, branchName string) error {
	repository, enterError := manager.enter(OperationDelete, repositoryPath, branchName)
	if enterError != nil {
		return enterError
	}
	if !repository.HasBranch(branchName) {
		return fmt.Errorf(missingBranchTemplateConstant, branchName)
	}
	if repository.CurrentBranch == branchName {
		return fmt.Errorf(currentBranchTemplateConstant, branchName, repositoryPath)
	}
	repository.Branches = remove(repository.Branches, branchName)
	return nil
}

// StageFiles moves the files into the staged list.
func (manager *RepositoryManager) StageFiles(_ context.Context, repositoryPath string, filePaths []string) error {
	repository, enterError := manager.enter(OperationStage, repositoryPath, "")
	if enterError != nil {
		return enterError
	}
	for _, filePath := range filePaths {
		if !slices.Contains(repository.Staged, filePath) {
			repository.Staged = append(repository.Staged, filePath)
		}
		repository.Untracked = remove(repository.Untracked, filePath)
	}
	return nil
}

// Commit records the staged files and clears them from the change lists.
func (manager *RepositoryManager) Commit(_ context.Context, repositoryPath string, message string) error {
	repository, enterError := manager.enter(OperationCommit, repositoryPath, "")
	if enterError != nil {
		return enterError
	}
	if len(repository.Staged) == 0 {
		return fmt.Errorf(nothingToCommitTemplateConstant, repositoryPath)
	}
	repository.Commits = append(repository.Commits, Commit{Branch: repository.CurrentBranch, Message: message, Files: slices.Clone(repository.Staged)})
	for _, filePath := range repository.Staged {
		repository.Modified = remove(repository.Modified, filePath)
	}
	repository.Staged = nil
	return nil
}

// GetRemoteURL returns the configured remote URL.
func (manager *RepositoryManager) GetRemoteURL(_ context.Context, repositoryPath string, remoteName string) (string, error) {
	repository, enterError := manager.enter(OperationRemoteURL, repositoryPath, remoteName)
	if enterError != nil {
		return "", enterError
	}
	remoteURL, exists := repository.Remotes[remoteName]
	if !exists {
		return "", fmt.Errorf(missingRemoteTemplateConstant, remoteName)
	}
	return remoteURL, nil
}

func remove(values []string, target string) []string {
	return slices.DeleteFunc(slices.Clone(values), func(value string) bool {
		return value == target
	})
}
