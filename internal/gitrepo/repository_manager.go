package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/fleet/internal/execshell"
	"github.com/temirov/fleet/internal/shared"
)

const (
	gitExecutorMissingMessageConstant     = "git executor not configured"
	repositoryPathRequiredMessageConstant = "repository path must be provided"
	branchNameRequiredMessageConstant     = "branch name must be provided"
	gitListFilesSubcommandConstant        = "ls-files"
	gitOthersFlagConstant                 = "--others"
	gitExcludeStandardFlagConstant        = "--exclude-standard"
	gitDiffSubcommandConstant             = "diff"
	gitCachedFlagConstant                 = "--cached"
	gitNameOnlyFlagConstant               = "--name-only"
	gitHeadReferenceConstant              = "HEAD"
	gitRestoreSubcommandConstant          = "restore"
	gitStagedFlagConstant                 = "--staged"
	gitArgumentTerminatorConstant         = "--"
	gitRevParseSubcommandConstant         = "rev-parse"
	gitAbbrevRefFlagConstant              = "--abbrev-ref"
	gitShowRefSubcommandConstant          = "show-ref"
	gitVerifyFlagConstant                 = "--verify"
	gitQuietFlagConstant                  = "--quiet"
	gitBranchReferencePrefixConstant      = "refs/heads/"
	gitSwitchSubcommandConstant           = "switch"
	gitCreateBranchFlagConstant           = "-c"
	gitBranchSubcommandConstant           = "branch"
	gitForceDeleteFlagConstant            = "-D"
	gitAddSubcommandConstant              = "add"
	gitCommitSubcommandConstant           = "commit"
	gitMessageFlagConstant                = "-m"
	gitRemoteSubcommandConstant           = "remote"
	gitGetURLSubcommandConstant           = "get-url"
	outputLineSeparatorConstant           = "\n"
	listFilesFailureTemplateConstant      = "failed to list %s files in %s: %w"
	untrackedLabelConstant                = "untracked"
	stagedLabelConstant                   = "staged"
	modifiedLabelConstant                 = "modified"
	restoreFailureTemplateConstant        = "failed to restore %s in %s: %w"
	currentBranchFailureTemplateConstant  = "failed to determine current branch of %s: %w"
	switchBranchFailureTemplateConstant   = "failed to switch %s to branch %q: %w"
	createBranchFailureTemplateConstant   = "failed to create branch %q in %s: %w"
	deleteBranchFailureTemplateConstant   = "failed to delete branch %q in %s: %w"
	stageFilesFailureTemplateConstant     = "failed to stage files in %s: %w"
	commitFailureTemplateConstant         = "failed to commit in %s: %w"
	remoteURLFailureTemplateConstant      = "failed to read remote %q of %s: %w"
	branchExistsFailureTemplateConstant   = "failed to check branch %q in %s: %w"
	branchMissingExitCodeConstant         = 1
)

var (
	// ErrGitExecutorNotConfigured indicates the manager was constructed without an executor.
	ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)
	// ErrRepositoryPathRequired indicates an empty repository path.
	ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessageConstant)
	// ErrBranchNameRequired indicates an empty branch name.
	ErrBranchNameRequired = errors.New(branchNameRequiredMessageConstant)
)

// RepositoryManager issues git primitives against repositories on disk.
type RepositoryManager struct {
	executor shared.GitExecutor
}

// NewRepositoryManager constructs a RepositoryManager backed by the executor.
func NewRepositoryManager(executor shared.GitExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// UntrackedFiles lists files that are neither tracked nor ignored.
func (manager *RepositoryManager) UntrackedFiles(executionContext context.Context, repositoryPath string) ([]string, error) {
	return manager.listFiles(executionContext, repositoryPath, untrackedLabelConstant, gitListFilesSubcommandConstant, gitOthersFlagConstant, gitExcludeStandardFlagConstant)
}

// StagedFiles lists files whose index state differs from HEAD.
func (manager *RepositoryManager) StagedFiles(executionContext context.Context, repositoryPath string) ([]string, error) {
	return manager.listFiles(executionContext, repositoryPath, stagedLabelConstant, gitDiffSubcommandConstant, gitCachedFlagConstant, gitNameOnlyFlagConstant)
}

// ModifiedFiles lists files whose working tree state differs from HEAD, staged or not.
func (manager *RepositoryManager) ModifiedFiles(executionContext context.Context, repositoryPath string) ([]string, error) {
	return manager.listFiles(executionContext, repositoryPath, modifiedLabelConstant, gitDiffSubcommandConstant, gitHeadReferenceConstant, gitNameOnlyFlagConstant)
}

// RestoreStaged removes the file from the index, keeping working tree changes.
func (manager *RepositoryManager) RestoreStaged(executionContext context.Context, repositoryPath string, filePath string) error {
	if _, executionError := manager.run(executionContext, repositoryPath, gitRestoreSubcommandConstant, gitStagedFlagConstant, gitArgumentTerminatorConstant, filePath); executionError != nil {
		return fmt.Errorf(restoreFailureTemplateConstant, filePath, repositoryPath, executionError)
	}
	return nil
}

// RestoreWorktree discards working tree changes to the file.
func (manager *RepositoryManager) RestoreWorktree(executionContext context.Context, repositoryPath string, filePath string) error {
	if _, executionError := manager.run(executionContext, repositoryPath, gitRestoreSubcommandConstant, gitArgumentTerminatorConstant, filePath); executionError != nil {
		return fmt.Errorf(restoreFailureTemplateConstant, filePath, repositoryPath, executionError)
	}
	return nil
}

// GetCurrentBranch returns the checked out branch, or HEAD when detached.
func (manager *RepositoryManager) GetCurrentBranch(executionContext context.Context, repositoryPath string) (string, error) {
	executionResult, executionError := manager.run(executionContext, repositoryPath, gitRevParseSubcommandConstant, gitAbbrevRefFlagConstant, gitHeadReferenceConstant)
	if executionError != nil {
		return "", fmt.Errorf(currentBranchFailureTemplateConstant, repositoryPath, executionError)
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// BranchExists reports whether a local branch with the name exists.
// A missing reference is reported as false without an error.
func (manager *RepositoryManager) BranchExists(executionContext context.Context, repositoryPath string, branchName string) (bool, error) {
	trimmedBranchName := strings.TrimSpace(branchName)
	if len(trimmedBranchName) == 0 {
		return false, ErrBranchNameRequired
	}

	_, executionError := manager.run(executionContext, repositoryPath, gitShowRefSubcommandConstant, gitVerifyFlagConstant, gitQuietFlagConstant, gitBranchReferencePrefixConstant+trimmedBranchName)
	if executionError == nil {
		return true, nil
	}

	var failedError execshell.CommandFailedError
	if errors.As(executionError, &failedError) && failedError.Result.ExitCode == branchMissingExitCodeConstant {
		return false, nil
	}
	return false, fmt.Errorf(branchExistsFailureTemplateConstant, trimmedBranchName, repositoryPath, executionError)
}

// SwitchBranch checks out an existing branch.
func (manager *RepositoryManager) SwitchBranch(executionContext context.Context, repositoryPath string, branchName string) error {
	if len(strings.TrimSpace(branchName)) == 0 {
		return ErrBranchNameRequired
	}
	if _, executionError := manager.run(executionContext, repositoryPath, gitSwitchSubcommandConstant, branchName); executionError != nil {
		return fmt.Errorf(switchBranchFailureTemplateConstant, repositoryPath, branchName, executionError)
	}
	return nil
}

// CreateBranch creates the branch at the current HEAD and checks it out.
func (manager *RepositoryManager) CreateBranch(executionContext context.Context, repositoryPath string, branchName string) error {
	if len(strings.TrimSpace(branchName)) == 0 {
		return ErrBranchNameRequired
	}
	if _, executionError := manager.run(executionContext, repositoryPath, gitSwitchSubcommandConstant, gitCreateBranchFlagConstant, branchName); executionError != nil {
		return fmt.Errorf(createBranchFailureTemplateConstant, branchName, repositoryPath, executionError)
	}
	return nil
}

// DeleteBranch force-deletes a local branch.
func (manager *RepositoryManager) DeleteBranch(executionContext context.Context, repositoryPath string, branchName string) error {
	if len(strings.TrimSpace(branchName)) == 0 {
		return ErrBranchNameRequired
	}
	if _, executionError := manager.run(executionContext, repositoryPath, gitBranchSubcommandConstant, gitForceDeleteFlagConstant, branchName); executionError != nil {
		return fmt.Errorf(deleteBranchFailureTemplateConstant, branchName, repositoryPath, executionError)
	}
	return nil
}

// StageFiles adds the listed paths to the index.
func (manager *RepositoryManager) StageFiles(executionContext context.Context, repositoryPath string, filePaths []string) error {
	if len(filePaths) == 0 {
		return nil
	}
	arguments := append([]string{gitAddSubcommandConstant, gitArgumentTerminatorConstant}, filePaths...)
	if _, executionError := manager.run(executionContext, repositoryPath, arguments...); executionError != nil {
		return fmt.Errorf(stageFilesFailureTemplateConstant, repositoryPath, executionError)
	}
	return nil
}

// Commit records the index with the message.
func (manager *RepositoryManager) Commit(executionContext context.Context, repositoryPath string, message string) error {
	if _, executionError := manager.run(executionContext, repositoryPath, gitCommitSubcommandConstant, gitMessageFlagConstant, message); executionError != nil {
		return fmt.Errorf(commitFailureTemplateConstant, repositoryPath, executionError)
	}
	return nil
}

// GetRemoteURL returns the fetch URL configured for the remote.
func (manager *RepositoryManager) GetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string) (string, error) {
	executionResult, executionError := manager.run(executionContext, repositoryPath, gitRemoteSubcommandConstant, gitGetURLSubcommandConstant, remoteName)
	if executionError != nil {
		return "", fmt.Errorf(remoteURLFailureTemplateConstant, remoteName, repositoryPath, executionError)
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

func (manager *RepositoryManager) listFiles(executionContext context.Context, repositoryPath string, label string, arguments ...string) ([]string, error) {
	executionResult, executionError := manager.run(executionContext, repositoryPath, arguments...)
	if executionError != nil {
		return nil, fmt.Errorf(listFilesFailureTemplateConstant, label, repositoryPath, executionError)
	}
	return splitOutputLines(executionResult.StandardOutput), nil
}

func (manager *RepositoryManager) run(executionContext context.Context, repositoryPath string, arguments ...string) (execshell.ExecutionResult, error) {
	trimmedRepositoryPath := strings.TrimSpace(repositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return execshell.ExecutionResult{}, ErrRepositoryPathRequired
	}
	return manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: trimmedRepositoryPath,
	})
}

func splitOutputLines(output string) []string {
	lines := []string{}
	for _, line := range strings.Split(output, outputLineSeparatorConstant) {
		trimmedLine := strings.TrimSpace(line)
		if len(trimmedLine) > 0 {
			lines = append(lines, trimmedLine)
		}
	}
	return lines
}
