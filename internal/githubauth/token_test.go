package githubauth_test

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/temirov/fleet/internal/githubauth"
	pathutils "github.com/temirov/fleet/internal/utils/path"
)

const (
	testTokenFilePathConstant = "/home/fleet/.config/fleet/token"
	testTokenValueConstant    = "ghp_fleettoken"
)

func TestParseSource(testInstance *testing.T) {
	testCases := []struct {
		name          string
		input         string
		expected      githubauth.Source
		expectedError bool
	}{
		{name: "empty", input: "  ", expected: githubauth.Source{}},
		{name: "bare_variable", input: "FLEET_TOKEN", expected: githubauth.Source{Type: githubauth.SourceTypeEnvironment, Reference: "FLEET_TOKEN"}},
		{name: "env_prefix", input: "ENV: FLEET_TOKEN", expected: githubauth.Source{Type: githubauth.SourceTypeEnvironment, Reference: "FLEET_TOKEN"}},
		{name: "file_prefix", input: "file:" + testTokenFilePathConstant, expected: githubauth.Source{Type: githubauth.SourceTypeFile, Reference: testTokenFilePathConstant}},
		{name: "literal_prefix", input: "literal:" + testTokenValueConstant, expected: githubauth.Source{Type: githubauth.SourceTypeLiteral, Reference: testTokenValueConstant}},
		{name: "literal_keeps_colons", input: "literal:abc:def", expected: githubauth.Source{Type: githubauth.SourceTypeLiteral, Reference: "abc:def"}},
		{name: "env_without_name", input: "env:", expectedError: true},
		{name: "literal_without_token", input: "literal:", expectedError: true},
		{name: "file_without_path", input: "file: ", expectedError: true},
		{name: "unknown_type", input: "vault:secret/github", expectedError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			source, parseError := githubauth.ParseSource(testCase.input)
			if testCase.expectedError {
				require.Error(subtest, parseError)
				return
			}
			require.NoError(subtest, parseError)
			require.Equal(subtest, testCase.expected, source)
		})
	}
}

func TestResolverResolve(testInstance *testing.T) {
	fileSystem := afero.NewMemMapFs()
	require.NoError(testInstance, afero.WriteFile(fileSystem, testTokenFilePathConstant, []byte(testTokenValueConstant+"\n"), 0o600))
	require.NoError(testInstance, afero.WriteFile(fileSystem, "/empty", []byte("\n"), 0o600))

	homeExpander := pathutils.NewHomeExpanderWithProvider(func() (string, error) { return "/home/fleet", nil })

	testCases := []struct {
		name          string
		environment   map[string]string
		source        githubauth.Source
		expectedToken string
		expectedError error
		expectFailure bool
	}{
		{
			name:          "fallback_prefers_gh_token",
			environment:   map[string]string{githubauth.EnvGitHubToken: "second", githubauth.EnvGitHubCLIToken: "first"},
			expectedToken: "first",
		},
		{
			name:          "fallback_skips_blank_values",
			environment:   map[string]string{githubauth.EnvGitHubCLIToken: "  ", githubauth.EnvGitHubAPIToken: "third"},
			expectedToken: "third",
		},
		{
			name:          "fallback_missing",
			environment:   map[string]string{},
			expectedError: githubauth.ErrTokenNotFound,
		},
		{
			name:          "explicit_environment",
			environment:   map[string]string{"FLEET_TOKEN": testTokenValueConstant, githubauth.EnvGitHubCLIToken: "ignored"},
			source:        githubauth.Source{Type: githubauth.SourceTypeEnvironment, Reference: "FLEET_TOKEN"},
			expectedToken: testTokenValueConstant,
		},
		{
			name:          "explicit_environment_missing",
			environment:   map[string]string{githubauth.EnvGitHubCLIToken: "ignored"},
			source:        githubauth.Source{Type: githubauth.SourceTypeEnvironment, Reference: "FLEET_TOKEN"},
			expectFailure: true,
		},
		{
			name:          "file",
			source:        githubauth.Source{Type: githubauth.SourceTypeFile, Reference: testTokenFilePathConstant},
			expectedToken: testTokenValueConstant,
		},
		{
			name:          "file_under_home",
			source:        githubauth.Source{Type: githubauth.SourceTypeFile, Reference: "~/.config/fleet/token"},
			expectedToken: testTokenValueConstant,
		},
		{
			name:          "literal",
			source:        githubauth.Source{Type: githubauth.SourceTypeLiteral, Reference: testTokenValueConstant},
			expectedToken: testTokenValueConstant,
		},
		{
			name:          "empty_file",
			source:        githubauth.Source{Type: githubauth.SourceTypeFile, Reference: "/empty"},
			expectFailure: true,
		},
		{
			name:          "missing_file",
			source:        githubauth.Source{Type: githubauth.SourceTypeFile, Reference: "/missing"},
			expectFailure: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			environment := testCase.environment
			resolver := githubauth.NewResolver(func(key string) (string, bool) {
				value, exists := environment[key]
				return value, exists
			}, fileSystem, homeExpander)

			token, resolveError := resolver.Resolve(testCase.source)
			switch {
			case testCase.expectedError != nil:
				require.ErrorIs(subtest, resolveError, testCase.expectedError)
			case testCase.expectFailure:
				require.Error(subtest, resolveError)
			default:
				require.NoError(subtest, resolveError)
				require.Equal(subtest, testCase.expectedToken, token)
			}
		})
	}
}

func TestResolverReadsTildePathVerbatimWithoutExpander(testInstance *testing.T) {
	fileSystem := afero.NewMemMapFs()
	resolver := githubauth.NewResolver(nil, fileSystem, nil)

	_, resolveError := resolver.Resolve(githubauth.Source{Type: githubauth.SourceTypeFile, Reference: "~/.config/fleet/token"})
	require.ErrorContains(testInstance, resolveError, "~/.config/fleet/token")
}
