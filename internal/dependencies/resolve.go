// Package dependencies supplies production collaborators when callers leave them unset.
package dependencies

import (
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/fleet/internal/execshell"
	"github.com/temirov/fleet/internal/githubcli"
	"github.com/temirov/fleet/internal/gitrepo"
	"github.com/temirov/fleet/internal/shared"
)

// ResolveLogger returns the provided logger or a no-op logger.
func ResolveLogger(existing *zap.Logger) *zap.Logger {
	if existing != nil {
		return existing
	}
	return zap.NewNop()
}

// ResolveFileSystem returns the provided filesystem or an OS-backed default.
func ResolveFileSystem(existing afero.Fs) afero.Fs {
	if existing != nil {
		return existing
	}
	return afero.NewOsFs()
}

// ResolveGitExecutor returns the provided executor or constructs a shell-backed default.
func ResolveGitExecutor(existing shared.GitExecutor, logger *zap.Logger, humanReadableLogging bool) (shared.GitExecutor, error) {
	if existing != nil {
		return existing, nil
	}

	shellExecutor, creationError := execshell.NewShellExecutor(ResolveLogger(logger), execshell.NewOSCommandRunner(), humanReadableLogging)
	if creationError != nil {
		return nil, creationError
	}
	return shellExecutor, nil
}

// ResolveGitHubExecutor returns the provided GitHub CLI executor or constructs a shell-backed default.
func ResolveGitHubExecutor(existing githubcli.GitHubCommandExecutor, logger *zap.Logger, humanReadableLogging bool) (githubcli.GitHubCommandExecutor, error) {
	if existing != nil {
		return existing, nil
	}

	shellExecutor, creationError := execshell.NewShellExecutor(ResolveLogger(logger), execshell.NewOSCommandRunner(), humanReadableLogging)
	if creationError != nil {
		return nil, creationError
	}
	return shellExecutor, nil
}

// ResolveGitRepositoryManager returns the provided repository manager or constructs one from the executor.
func ResolveGitRepositoryManager(existing shared.GitRepositoryManager, executor shared.GitExecutor) (shared.GitRepositoryManager, error) {
	if existing != nil {
		return existing, nil
	}

	repositoryManager, creationError := gitrepo.NewRepositoryManager(executor)
	if creationError != nil {
		return nil, creationError
	}
	return repositoryManager, nil
}
