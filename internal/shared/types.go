package shared

import (
	"context"

	"github.com/temirov/fleet/internal/execshell"
)

// GitExecutor exposes the subset of shell execution used by fleet services.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// GitRepositoryManager exposes the repository-level git primitives the fleet engine relies on.
type GitRepositoryManager interface {
	UntrackedFiles(executionContext context.Context, repositoryPath string) ([]string, error)
	StagedFiles(executionContext context.Context, repositoryPath string) ([]string, error)
	ModifiedFiles(executionContext context.Context, repositoryPath string) ([]string, error)
	RestoreStaged(executionContext context.Context, repositoryPath string, filePath string) error
	RestoreWorktree(executionContext context.Context, repositoryPath string, filePath string) error
	GetCurrentBranch(executionContext context.Context, repositoryPath string) (string, error)
	BranchExists(executionContext context.Context, repositoryPath string, branchName string) (bool, error)
	SwitchBranch(executionContext context.Context, repositoryPath string, branchName string) error
	CreateBranch(executionContext context.Context, repositoryPath string, branchName string) error
	DeleteBranch(executionContext context.Context, repositoryPath string, branchName string) error
	StageFiles(executionContext context.Context, repositoryPath string, filePaths []string) error
	Commit(executionContext context.Context, repositoryPath string, message string) error
	GetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string) (string, error)
}
