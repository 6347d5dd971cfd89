package githubcli_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/fleet/internal/execshell"
	"github.com/temirov/fleet/internal/githubcli"
)

const (
	testRepositoryIdentifierConstant = "laromicas/datoso"
	testTokenConstant                = "ghp_test"
	testReleaseListOutputConstant    = `[{"id":2,"tag_name":"v1.1.0","html_url":"https://github.com/laromicas/datoso/releases/tag/v1.1.0"},{"id":1,"tag_name":"v1.0.0"}]`
	testCreatedReleaseOutputConstant = `{"id":3,"tag_name":"v1.2.0","name":"v1.2.0","html_url":"https://github.com/laromicas/datoso/releases/tag/v1.2.0","prerelease":true}`
)

type stubGitHubExecutor struct {
	executeFunc     func(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error)
	recordedDetails []execshell.CommandDetails
	deadlines       []bool
}

func (executor *stubGitHubExecutor) ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedDetails = append(executor.recordedDetails, details)
	_, hasDeadline := executionContext.Deadline()
	executor.deadlines = append(executor.deadlines, hasDeadline)
	if executor.executeFunc != nil {
		return executor.executeFunc(executionContext, details)
	}
	return execshell.ExecutionResult{}, nil
}

func respondWith(output string) func(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error) {
	return func(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error) {
		return execshell.ExecutionResult{StandardOutput: output}, nil
	}
}

func failWithExitCode(standardError string) func(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error) {
	return func(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
		return execshell.ExecutionResult{}, execshell.CommandFailedError{
			Command: execshell.ShellCommand{Name: execshell.CommandGitHub, Details: details},
			Result:  execshell.ExecutionResult{ExitCode: 1, StandardError: standardError},
		}
	}
}

func TestNewClientValidation(testInstance *testing.T) {
	client, creationError := githubcli.NewClient(nil, githubcli.ClientConfiguration{})
	require.ErrorIs(testInstance, creationError, githubcli.ErrExecutorNotConfigured)
	require.Nil(testInstance, client)
}

func TestListReleases(testInstance *testing.T) {
	testCases := []struct {
		name          string
		repository    string
		limit         int
		configuration githubcli.ClientConfiguration
		executor      *stubGitHubExecutor
		errorType     any
		verify        func(testInstance *testing.T, releases []githubcli.Release, executor *stubGitHubExecutor)
	}{
		{
			name:          "list_success",
			repository:    testRepositoryIdentifierConstant,
			limit:         1,
			configuration: githubcli.ClientConfiguration{Token: testTokenConstant},
			executor:      &stubGitHubExecutor{executeFunc: respondWith(testReleaseListOutputConstant)},
			verify: func(testInstance *testing.T, releases []githubcli.Release, executor *stubGitHubExecutor) {
				require.Len(testInstance, releases, 2)
				require.Equal(testInstance, "v1.1.0", releases[0].TagName)
				require.Equal(testInstance, int64(2), releases[0].ID)
				require.Len(testInstance, executor.recordedDetails, 1)
				details := executor.recordedDetails[0]
				require.Equal(testInstance, []string{
					"api", "repos/laromicas/datoso/releases?per_page=1",
					"-H", "Accept: application/vnd.github+json",
					"-H", "X-GitHub-Api-Version: 2022-11-28",
				}, details.Arguments)
				require.Equal(testInstance, map[string]string{"GH_TOKEN": testTokenConstant}, details.EnvironmentVariables)
				require.Empty(testInstance, details.StandardInput)
				require.Equal(testInstance, []bool{true}, executor.deadlines)
			},
		},
		{
			name:          "enterprise_host_without_token",
			repository:    testRepositoryIdentifierConstant,
			configuration: githubcli.ClientConfiguration{Hostname: "github.example.com"},
			executor:      &stubGitHubExecutor{executeFunc: respondWith("[]")},
			verify: func(testInstance *testing.T, releases []githubcli.Release, executor *stubGitHubExecutor) {
				require.Empty(testInstance, releases)
				details := executor.recordedDetails[0]
				require.Equal(testInstance, "repos/laromicas/datoso/releases?per_page=30", details.Arguments[1])
				require.Equal(testInstance, []string{"--hostname", "github.example.com"}, details.Arguments[len(details.Arguments)-2:])
				require.Nil(testInstance, details.EnvironmentVariables)
			},
		},
		{
			name:       "list_decode_failure",
			repository: testRepositoryIdentifierConstant,
			executor:   &stubGitHubExecutor{executeFunc: respondWith("not-json")},
			errorType:  githubcli.ResponseDecodingError{},
		},
		{
			name:       "list_command_failure",
			repository: testRepositoryIdentifierConstant,
			executor:   &stubGitHubExecutor{executeFunc: failWithExitCode("gh: Not Found (HTTP 404)")},
			errorType:  githubcli.OperationError{},
		},
		{
			name:       "list_repository_validation",
			repository: "datoso",
			executor:   &stubGitHubExecutor{},
			errorType:  githubcli.InvalidInputError{},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			client, creationError := githubcli.NewClient(testCase.executor, testCase.configuration)
			require.NoError(subtest, creationError)

			releases, listError := client.ListReleases(context.Background(), testCase.repository, testCase.limit)
			if testCase.errorType != nil {
				require.Error(subtest, listError)
				require.IsType(subtest, testCase.errorType, listError)
				return
			}
			require.NoError(subtest, listError)
			testCase.verify(subtest, releases, testCase.executor)
		})
	}
}

func TestCreateRelease(testInstance *testing.T) {
	testCases := []struct {
		name       string
		repository string
		request    githubcli.ReleaseRequest
		executor   *stubGitHubExecutor
		errorType  any
		verify     func(testInstance *testing.T, release githubcli.Release, executor *stubGitHubExecutor)
	}{
		{
			name:       "create_success",
			repository: testRepositoryIdentifierConstant,
			request: githubcli.ReleaseRequest{
				TagName:         "v1.2.0",
				TargetCommitish: "master",
				Name:            "v1.2.0",
				Body:            "Description of the release",
				Prerelease:      true,
				MakeLatest:      true,
			},
			executor: &stubGitHubExecutor{executeFunc: respondWith(testCreatedReleaseOutputConstant)},
			verify: func(testInstance *testing.T, release githubcli.Release, executor *stubGitHubExecutor) {
				require.Equal(testInstance, int64(3), release.ID)
				require.Equal(testInstance, "https://github.com/laromicas/datoso/releases/tag/v1.2.0", release.HTMLURL)
				require.Len(testInstance, executor.recordedDetails, 1)
				details := executor.recordedDetails[0]
				require.Equal(testInstance, []string{"api", "repos/laromicas/datoso/releases", "-X", "POST", "--input", "-"}, details.Arguments[:6])

				payload := map[string]any{}
				require.NoError(testInstance, json.Unmarshal(details.StandardInput, &payload))
				require.Equal(testInstance, map[string]any{
					"tag_name":               "v1.2.0",
					"target_commitish":       "master",
					"name":                   "v1.2.0",
					"body":                   "Description of the release",
					"draft":                  false,
					"prerelease":             true,
					"generate_release_notes": false,
					"make_latest":            "true",
				}, payload)
			},
		},
		{
			name:       "draft_not_latest",
			repository: testRepositoryIdentifierConstant,
			request:    githubcli.ReleaseRequest{TagName: "v1.2.0", Draft: true},
			executor:   &stubGitHubExecutor{executeFunc: respondWith(testCreatedReleaseOutputConstant)},
			verify: func(testInstance *testing.T, _ githubcli.Release, executor *stubGitHubExecutor) {
				payload := map[string]any{}
				require.NoError(testInstance, json.Unmarshal(executor.recordedDetails[0].StandardInput, &payload))
				require.Equal(testInstance, "false", payload["make_latest"])
				require.Equal(testInstance, true, payload["draft"])
				require.NotContains(testInstance, payload, "target_commitish")
			},
		},
		{
			name:       "create_command_failure",
			repository: testRepositoryIdentifierConstant,
			request:    githubcli.ReleaseRequest{TagName: "v1.2.0"},
			executor:   &stubGitHubExecutor{executeFunc: failWithExitCode("gh: Validation Failed (HTTP 422)")},
			errorType:  githubcli.OperationError{},
		},
		{
			name:       "create_decode_failure",
			repository: testRepositoryIdentifierConstant,
			request:    githubcli.ReleaseRequest{TagName: "v1.2.0"},
			executor:   &stubGitHubExecutor{executeFunc: respondWith("")},
			errorType:  githubcli.ResponseDecodingError{},
		},
		{
			name:       "tag_validation",
			repository: testRepositoryIdentifierConstant,
			request:    githubcli.ReleaseRequest{TagName: "  "},
			executor:   &stubGitHubExecutor{},
			errorType:  githubcli.InvalidInputError{},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			client, creationError := githubcli.NewClient(testCase.executor, githubcli.ClientConfiguration{RequestTimeout: time.Second})
			require.NoError(subtest, creationError)

			release, createError := client.CreateRelease(context.Background(), testCase.repository, testCase.request)
			if testCase.errorType != nil {
				require.Error(subtest, createError)
				require.IsType(subtest, testCase.errorType, createError)
				if testCase.name == "tag_validation" {
					require.Empty(subtest, testCase.executor.recordedDetails)
				}
				return
			}
			require.NoError(subtest, createError)
			testCase.verify(subtest, release, testCase.executor)
		})
	}
}

func TestOperationErrorExposesCommandFailure(testInstance *testing.T) {
	executor := &stubGitHubExecutor{executeFunc: failWithExitCode("gh: Validation Failed (HTTP 422)")}
	client, creationError := githubcli.NewClient(executor, githubcli.ClientConfiguration{})
	require.NoError(testInstance, creationError)

	_, createError := client.CreateRelease(context.Background(), testRepositoryIdentifierConstant, githubcli.ReleaseRequest{TagName: "v1.2.0"})
	var operationError githubcli.OperationError
	require.ErrorAs(testInstance, createError, &operationError)
	require.Equal(testInstance, githubcli.OperationName("CreateRelease"), operationError.Operation)
	var failedError execshell.CommandFailedError
	require.ErrorAs(testInstance, createError, &failedError)
	require.Contains(testInstance, createError.Error(), "HTTP 422")
}
