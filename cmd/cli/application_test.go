package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/temirov/fleet/internal/commits"
	"github.com/temirov/fleet/internal/fleet"
	"github.com/temirov/fleet/internal/gitrepo/gitrepotest"
	"github.com/temirov/fleet/internal/releases"
)

const (
	testConfigurationFileNameConstant = "config.yaml"
	testFleetRootConstant             = "/fleet"
	testSeedNameConstant              = "datoso_seed_nointro"
	testConfigurationContentConstant  = `common:
  log_level: debug
  log_format: console
fleet:
  root: /fleet
  trunk: main
  repositories:
    - datoso
    - datoso_seed_nointro
release:
  owner: laromicas
commit:
  message: "Release {name} {version}"
`
)

type applicationFixture struct {
	application *Application
	fileSystem  afero.Fs
	gitManager  *gitrepotest.RepositoryManager
	output      *bytes.Buffer
	logOutput   *bytes.Buffer
	configPath  string
}

func newApplicationFixture(testInstance *testing.T) *applicationFixture {
	testInstance.Helper()
	configurationDirectory := testInstance.TempDir()
	configurationPath := filepath.Join(configurationDirectory, testConfigurationFileNameConstant)
	require.NoError(testInstance, os.WriteFile(configurationPath, []byte(testConfigurationContentConstant), 0o600))

	fixture := &applicationFixture{
		fileSystem: afero.NewMemMapFs(),
		gitManager: gitrepotest.NewRepositoryManager(),
		output:     &bytes.Buffer{},
		logOutput:  &bytes.Buffer{},
		configPath: configurationPath,
	}
	versions := map[string]string{"datoso": "3.2.0", testSeedNameConstant: "1.1.0"}
	for repositoryName, version := range versions {
		repositoryRoot := filepath.Join(testFleetRootConstant, repositoryName)
		declarationPath := filepath.Join(repositoryRoot, "src", repositoryName, "__init__.py")
		require.NoError(testInstance, fixture.fileSystem.MkdirAll(filepath.Dir(declarationPath), 0o755))
		require.NoError(testInstance, afero.WriteFile(fixture.fileSystem, declarationPath, []byte("__version__ = '"+version+"'\n"), 0o644))
		require.NoError(testInstance, afero.WriteFile(fixture.fileSystem, filepath.Join(repositoryRoot, "pyproject.toml"), []byte("[project]\ndependencies = [\n    \"datoso>=3.0.0\",\n]\n"), 0o644))
		fixture.gitManager.AddRepository(repositoryRoot, "main")
	}

	fixture.application = newApplication(applicationDependencies{
		gitManager:        fixture.gitManager,
		fileSystem:        fixture.fileSystem,
		environmentLookup: func(string) (string, bool) { return "", false },
		output:            fixture.output,
		logOutput:         fixture.logOutput,
		searchPaths:       []string{configurationDirectory},
	})
	return fixture
}

func (fixture *applicationFixture) execute(arguments ...string) error {
	fixture.application.rootCommand.SetArgs(arguments)
	return fixture.application.Execute()
}

func TestEmbeddedDefaultConfigurationMatchesPackageDefaults(testInstance *testing.T) {
	content, configurationType := EmbeddedDefaultConfiguration()
	require.Equal(testInstance, "yaml", configurationType)

	var decoded struct {
		Fleet struct {
			Root         string   `yaml:"root"`
			Trunk        string   `yaml:"trunk"`
			Core         string   `yaml:"core"`
			Repositories []string `yaml:"repositories"`
		} `yaml:"fleet"`
		Release struct {
			Branch string `yaml:"branch"`
			Host   string `yaml:"host"`
			Body   string `yaml:"body"`
		} `yaml:"release"`
		Commit struct {
			Message string `yaml:"message"`
		} `yaml:"commit"`
	}
	require.NoError(testInstance, yaml.Unmarshal(content, &decoded))

	fleetDefaults := fleet.DefaultConfiguration()
	require.Equal(testInstance, fleetDefaults.Root, decoded.Fleet.Root)
	require.Equal(testInstance, fleetDefaults.Trunk, decoded.Fleet.Trunk)
	require.Equal(testInstance, fleetDefaults.Core, decoded.Fleet.Core)
	require.Equal(testInstance, fleetDefaults.Repositories, decoded.Fleet.Repositories)

	releaseDefaults := releases.DefaultConfiguration()
	require.Equal(testInstance, releaseDefaults.Branch, decoded.Release.Branch)
	require.Equal(testInstance, releaseDefaults.Host, decoded.Release.Host)
	require.Equal(testInstance, releaseDefaults.Body, decoded.Release.Body)
	require.Equal(testInstance, commits.DefaultConfiguration().MessageTemplate, decoded.Commit.Message)
}

func TestInitializeConfigurationLayers(testInstance *testing.T) {
	fixture := newApplicationFixture(testInstance)
	testInstance.Setenv("FLEET_RELEASE_BRANCH", "develop")

	require.NoError(testInstance, fixture.application.initializeConfiguration(fixture.application.rootCommand))

	configuration := fixture.application.configuration
	require.Equal(testInstance, "debug", configuration.Common.LogLevel)
	require.True(testInstance, fixture.application.humanReadableLoggingEnabled())
	require.Equal(testInstance, testFleetRootConstant, configuration.Fleet.Root)
	require.Equal(testInstance, "main", configuration.Fleet.Trunk)
	require.Equal(testInstance, "datoso", configuration.Fleet.Core)
	require.Equal(testInstance, []string{"datoso", testSeedNameConstant}, configuration.Fleet.Repositories)
	require.Equal(testInstance, "laromicas", configuration.Release.Owner)
	require.Equal(testInstance, "develop", configuration.Release.Branch)
	require.Equal(testInstance, "Description of the release", configuration.Release.Body)
	require.Equal(testInstance, "Release {name} {version}", configuration.Commit.MessageTemplate)

	configurationFilePath, available := fixture.application.commandContextAccessor.ConfigurationFilePath(fixture.application.rootCommand.Context())
	require.True(testInstance, available)
	require.Equal(testInstance, fixture.configPath, configurationFilePath)
}

func TestLogFlagsOverrideConfiguration(testInstance *testing.T) {
	fixture := newApplicationFixture(testInstance)

	executionError := fixture.execute("--log-format", "structured", "--log-level", "error", "update", "--repo", testSeedNameConstant, "--dry-run")
	require.NoError(testInstance, executionError)
	require.Equal(testInstance, "structured", fixture.application.configuration.Common.LogFormat)
	require.False(testInstance, fixture.application.humanReadableLoggingEnabled())
	require.Empty(testInstance, fixture.logOutput.String())
}

func TestUpdateCommandRunsThroughRoot(testInstance *testing.T) {
	fixture := newApplicationFixture(testInstance)

	require.NoError(testInstance, fixture.execute("update", "--repo", testSeedNameConstant, "--minor"))

	declaration, readError := afero.ReadFile(fixture.fileSystem, filepath.Join(testFleetRootConstant, testSeedNameConstant, "src", testSeedNameConstant, "__init__.py"))
	require.NoError(testInstance, readError)
	require.Equal(testInstance, "__version__ = '1.2.0'\n", string(declaration))
	require.Contains(testInstance, fixture.output.String(), "1.1.0 -> 1.2.0")
	require.True(testInstance, fixture.gitManager.Repositories[filepath.Join(testFleetRootConstant, testSeedNameConstant)].HasBranch("1.2.0"))
	require.Contains(testInstance, fixture.logOutput.String(), "configuration initialized")
}

func TestCommitCommandUsesConfiguredMessage(testInstance *testing.T) {
	fixture := newApplicationFixture(testInstance)
	seed := fixture.gitManager.Repositories[filepath.Join(testFleetRootConstant, testSeedNameConstant)]
	seed.Modified = []string{"src/datoso_seed_nointro/__init__.py", "src/datoso_seed_nointro/dats.py"}

	require.NoError(testInstance, fixture.execute("commit", "--repo", testSeedNameConstant, "--yes"))
	require.Len(testInstance, seed.Commits, 1)
	require.Equal(testInstance, "Release datoso_seed_nointro 1.1.0", seed.Commits[0].Message)
}

func TestReleaseCommandRequiresToken(testInstance *testing.T) {
	fixture := newApplicationFixture(testInstance)

	executionError := fixture.execute("release", "--repo", testSeedNameConstant, "--latest", "--yes")
	require.Error(testInstance, executionError)
	require.ErrorContains(testInstance, executionError, "github token unavailable")
}

func TestUnknownRepositoryFails(testInstance *testing.T) {
	fixture := newApplicationFixture(testInstance)

	executionError := fixture.execute("update", "--repo", "datoso_seed_missing")
	var unknownError fleet.UnknownRepositoryError
	require.ErrorAs(testInstance, executionError, &unknownError)
}

func TestInvalidLogLevelFails(testInstance *testing.T) {
	fixture := newApplicationFixture(testInstance)

	executionError := fixture.execute("--log-level", "verbose", "update", "--repo", testSeedNameConstant)
	require.ErrorContains(testInstance, executionError, "unable to create logger")
}

func TestRootCommandPrintsHelp(testInstance *testing.T) {
	fixture := newApplicationFixture(testInstance)

	require.NoError(testInstance, fixture.execute())
	require.Contains(testInstance, fixture.output.String(), "update")
	require.Contains(testInstance, fixture.output.String(), "release")
	require.Contains(testInstance, fixture.output.String(), "commit")
}
