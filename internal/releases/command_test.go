package releases_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/fleet/internal/fleet"
	"github.com/temirov/fleet/internal/githubauth"
	"github.com/temirov/fleet/internal/releases"
)

func newCommandBuilder(fixture *serviceFixture, environment map[string]string) *releases.CommandBuilder {
	return &releases.CommandBuilder{
		FleetConfigurationProvider: func() fleet.Configuration {
			return fleet.Configuration{
				Root:         testFleetRootConstant,
				Trunk:        testTrunkConstant,
				Core:         testCoreNameConstant,
				Repositories: []string{testCoreNameConstant, testPluginNameConstant, testSeedNameConstant},
			}
		},
		ConfigurationProvider: releases.DefaultConfiguration,
		GitManager:            fixture.gitManager,
		FileSystem:            fixture.fileSystem,
		GitHubExecutor:        fixture.executor,
		EnvironmentLookup: func(key string) (string, bool) {
			value, found := environment[key]
			return value, found
		},
	}
}

func executeReleaseCommand(testInstance *testing.T, builder *releases.CommandBuilder, input string, arguments ...string) (string, error) {
	testInstance.Helper()
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	output := &bytes.Buffer{}
	command.SetIn(strings.NewReader(input))
	command.SetOut(output)
	command.SetErr(&bytes.Buffer{})
	command.SetArgs(arguments)
	command.SetContext(context.Background())
	executionError := command.Execute()
	return output.String(), executionError
}

func TestReleaseCommandCreatesRelease(testInstance *testing.T) {
	fixture := newServiceFixture(testInstance)
	builder := newCommandBuilder(fixture, map[string]string{githubauth.EnvGitHubToken: testTokenConstant})

	output, executionError := executeReleaseCommand(testInstance, builder, "", "--repo", testSeedNameConstant, "--latest", "--yes")
	require.NoError(testInstance, executionError)
	require.Contains(testInstance, output, "datoso_seed_nointro: created release v1.1.0")

	createdReleases := fixture.executor.createdReleases()
	require.Len(testInstance, createdReleases, 1)
	require.Equal(testInstance, "master", createdReleases[0].Payload["target_commitish"])
	require.Equal(testInstance, "Description of the release", createdReleases[0].Payload["body"])
	require.Equal(testInstance, map[string]string{"GH_TOKEN": testTokenConstant}, fixture.executor.lastEnvironment())
}

func TestReleaseCommandPromptsOnStandardInput(testInstance *testing.T) {
	fixture := newServiceFixture(testInstance)
	builder := newCommandBuilder(fixture, map[string]string{githubauth.EnvGitHubToken: testTokenConstant})

	output, executionError := executeReleaseCommand(testInstance, builder, "n\n", "--repo", testSeedNameConstant, "--draft", "--branch", "develop", "--owner", "datoso-org")
	require.NoError(testInstance, executionError)
	require.Contains(testInstance, output, "Create release v1.1.0 of datoso-org/datoso_seed_nointro from develop (draft: true, prerelease: false, latest: false)? [y/N] ")
	require.Contains(testInstance, output, "datoso_seed_nointro: release v1.1.0 declined\n")
	require.Empty(testInstance, fixture.executor.createdReleases())
}

func TestReleaseCommandTokenHandling(testInstance *testing.T) {
	testCases := []struct {
		name          string
		arguments     []string
		expectSuccess bool
	}{
		{name: "missing_token_fails", arguments: []string{"--repo", testSeedNameConstant, "--latest", "--yes"}},
		{name: "missing_token_allowed_in_dry_run", arguments: []string{"--repo", testSeedNameConstant, "--latest", "--dry-run"}, expectSuccess: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			fixture := newServiceFixture(subtest)
			builder := newCommandBuilder(fixture, map[string]string{})

			_, executionError := executeReleaseCommand(subtest, builder, "", testCase.arguments...)
			if testCase.expectSuccess {
				require.NoError(subtest, executionError)
				return
			}
			require.ErrorIs(subtest, executionError, githubauth.ErrTokenNotFound)
			require.Empty(subtest, fixture.executor.createdReleases())
		})
	}
}

func TestReleaseCommandRejectsInvalidFlags(testInstance *testing.T) {
	testCases := []struct {
		name      string
		arguments []string
	}{
		{name: "missing_latest_or_draft", arguments: []string{"--repo", testSeedNameConstant}},
		{name: "latest_and_draft", arguments: []string{"--repo", testSeedNameConstant, "--latest", "--draft"}},
		{name: "conflicting_targets", arguments: []string{"--repo", testSeedNameConstant, "--all", "--latest"}},
		{name: "no_target", arguments: []string{"--latest"}},
		{name: "positional_argument", arguments: []string{"--repo", testSeedNameConstant, "--latest", "extra"}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			fixture := newServiceFixture(subtest)
			builder := newCommandBuilder(fixture, map[string]string{githubauth.EnvGitHubToken: testTokenConstant})

			_, executionError := executeReleaseCommand(subtest, builder, "", testCase.arguments...)
			require.Error(subtest, executionError)
			require.Empty(subtest, fixture.executor.createdReleases())
		})
	}
}

func TestConfigurationSanitize(testInstance *testing.T) {
	sanitized := releases.Configuration{Owner: "  laromicas ", Branch: " ", Host: "", Token: " env:DATOSO_TOKEN "}.Sanitize()
	require.Equal(testInstance, releases.Configuration{
		Owner:  "laromicas",
		Branch: "master",
		Host:   "github.com",
		Token:  "env:DATOSO_TOKEN",
	}, sanitized)

	defaults := releases.DefaultConfigurationValues("release")
	require.Equal(testInstance, "master", defaults["release.branch"])
	require.Equal(testInstance, "Description of the release", defaults["release.body"])
}
