package releases_test

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/temirov/fleet/internal/execshell"
	"github.com/temirov/fleet/internal/githubcli"
)

const (
	testOwnerConstant      = "laromicas"
	testTokenConstant      = "ghp_test"
	testRepositoryConstant = "datoso_seed_nointro"
)

type createdRelease struct {
	Owner      string
	Repository string
	Payload    map[string]any
}

// releaseExecutor answers gh api release calls from memory.
type releaseExecutor struct {
	published    map[string][]githubcli.Release
	failures     map[string]string
	created      []createdRelease
	environments []map[string]string
	listCalls    int
}

func newReleaseExecutor() *releaseExecutor {
	return &releaseExecutor{published: map[string][]githubcli.Release{}, failures: map[string]string{}}
}

func (executor *releaseExecutor) publish(owner string, repository string, tags ...string) {
	key := owner + "/" + repository
	for _, tag := range tags {
		executor.published[key] = append(executor.published[key], githubcli.Release{TagName: tag})
	}
}

func (executor *releaseExecutor) fail(method string, owner string, repository string, standardError string) {
	executor.failures[method+" "+owner+"/"+repository] = standardError
}

func (executor *releaseExecutor) createdReleases() []createdRelease {
	return append([]createdRelease{}, executor.created...)
}

func (executor *releaseExecutor) lastEnvironment() map[string]string {
	return executor.environments[len(executor.environments)-1]
}

func (executor *releaseExecutor) listCount() int {
	return executor.listCalls
}

func (executor *releaseExecutor) ExecuteGitHubCLI(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.environments = append(executor.environments, details.EnvironmentVariables)

	endpoint := details.Arguments[1]
	endpointPath, _, _ := strings.Cut(endpoint, "?")
	key := strings.TrimSuffix(strings.TrimPrefix(endpointPath, "repos/"), "/releases")
	method := "GET"
	for index := 0; index < len(details.Arguments)-1; index++ {
		if details.Arguments[index] == "-X" {
			method = details.Arguments[index+1]
		}
	}

	if standardError, failing := executor.failures[method+" "+key]; failing {
		return execshell.ExecutionResult{}, execshell.CommandFailedError{
			Command: execshell.ShellCommand{Name: execshell.CommandGitHub, Details: details},
			Result:  execshell.ExecutionResult{ExitCode: 1, StandardError: standardError},
		}
	}

	if method == "GET" {
		executor.listCalls++
		published := executor.published[key]
		if published == nil {
			published = []githubcli.Release{}
		}
		encoded, _ := json.Marshal(published)
		return execshell.ExecutionResult{StandardOutput: string(encoded)}, nil
	}

	payload := map[string]any{}
	if decodeError := json.Unmarshal(details.StandardInput, &payload); decodeError != nil {
		return execshell.ExecutionResult{}, decodeError
	}
	owner, repository, _ := strings.Cut(key, "/")
	executor.created = append(executor.created, createdRelease{Owner: owner, Repository: repository, Payload: payload})

	tag, _ := payload["tag_name"].(string)
	encoded, _ := json.Marshal(githubcli.Release{
		ID:      int64(len(executor.created)),
		TagName: tag,
		HTMLURL: fmt.Sprintf("https://github.com/%s/releases/tag/%s", key, tag),
	})
	return execshell.ExecutionResult{StandardOutput: string(encoded)}, nil
}
