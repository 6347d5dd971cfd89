package gitrepotest_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/fleet/internal/gitrepo/gitrepotest"
	"github.com/temirov/fleet/internal/shared"
)

var _ shared.GitRepositoryManager = (*gitrepotest.RepositoryManager)(nil)

func TestFakeBranchLifecycle(testInstance *testing.T) {
	manager := gitrepotest.NewRepositoryManager()
	repository := manager.AddRepository("/fleet/datoso", "master")

	require.NoError(testInstance, manager.CreateBranch(context.Background(), "/fleet/datoso", "1.0.1"))
	require.Error(testInstance, manager.CreateBranch(context.Background(), "/fleet/datoso", "1.0.1"))
	require.Error(testInstance, manager.DeleteBranch(context.Background(), "/fleet/datoso", "1.0.1"))
	require.NoError(testInstance, manager.SwitchBranch(context.Background(), "/fleet/datoso", "master"))
	require.NoError(testInstance, manager.DeleteBranch(context.Background(), "/fleet/datoso", "1.0.1"))
	require.Equal(testInstance, []string{"master"}, repository.Branches)
	require.Equal(testInstance, []string{"create 1.0.1", "create 1.0.1", "delete 1.0.1", "switch master", "delete 1.0.1"}, manager.OperationsFor("/fleet/datoso"))
}

func TestFakeFailureKeys(testInstance *testing.T) {
	manager := gitrepotest.NewRepositoryManager()
	repository := manager.AddRepository("/fleet/datoso", "master")
	specificFailure := errors.New("pathspec did not match")
	repository.Failures["restore_staged pyproject.toml"] = specificFailure

	require.ErrorIs(testInstance, manager.RestoreStaged(context.Background(), "/fleet/datoso", "pyproject.toml"), specificFailure)
	require.NoError(testInstance, manager.RestoreStaged(context.Background(), "/fleet/datoso", "README.md"))

	_, unknownError := manager.ModifiedFiles(context.Background(), "/fleet/missing")
	require.Error(testInstance, unknownError)
}
