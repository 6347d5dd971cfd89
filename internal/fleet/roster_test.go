package fleet_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/fleet/internal/fleet"
)

type staticExpander struct {
	home string
}

func (expander staticExpander) Expand(candidatePath string) string {
	if candidatePath == "~/fleet" {
		return filepath.Join(expander.home, "fleet")
	}
	return candidatePath
}

func TestNewRosterDerivesRepositories(testInstance *testing.T) {
	configuration := fleet.Configuration{
		Root:         "~/fleet",
		Repositories: []string{"datoso", "datoso_plugin_internetarchive", " datoso_seed_base ", "datoso", ""},
	}

	roster, rosterError := fleet.NewRoster(configuration, staticExpander{home: "/home/maintainer"})
	require.NoError(testInstance, rosterError)

	repositories := roster.Repositories()
	require.Len(testInstance, repositories, 3)

	core := roster.Core()
	require.Equal(testInstance, "datoso", core.Name)
	require.True(testInstance, core.Core)
	require.False(testInstance, core.Plugin)
	require.Equal(testInstance, filepath.Join("/home/maintainer", "fleet", "datoso"), core.Root)
	require.Equal(testInstance, filepath.Join("/home/maintainer", "fleet", "datoso", "src", "datoso", "__init__.py"), core.DeclarationPath())
	require.Equal(testInstance, filepath.Join("/home/maintainer", "fleet", "datoso", "pyproject.toml"), core.ManifestPath())
	require.Equal(testInstance, "master", core.Trunk)

	plugin, found := roster.Lookup("datoso_plugin_internetarchive")
	require.True(testInstance, found)
	require.True(testInstance, plugin.Plugin)
	require.Equal(testInstance, "datoso-plugin-internetarchive", plugin.ManifestName())
	require.Equal(testInstance, "internetarchive", plugin.ExtrasKey())

	seed, found := roster.Lookup("datoso_seed_base")
	require.True(testInstance, found)
	require.False(testInstance, seed.Plugin)
	require.Equal(testInstance, "src/datoso_seed_base/__init__.py", seed.DeclarationFile)

	siblings := roster.Siblings()
	require.Len(testInstance, siblings, 2)
	require.Equal(testInstance, "datoso_plugin_internetarchive", siblings[0].Name)

	_, found = roster.Lookup("datoso_seed_missing")
	require.False(testInstance, found)
}

func TestNewRosterRequiresCore(testInstance *testing.T) {
	_, rosterError := fleet.NewRoster(fleet.Configuration{Repositories: []string{"datoso_seed_base"}}, nil)

	require.ErrorIs(testInstance, rosterError, fleet.ErrCoreNotInRoster)
}

func TestSanitizeFallsBackToDefaults(testInstance *testing.T) {
	sanitized := fleet.Configuration{Trunk: "  ", DeclarationFile: "pkg/{name}/version.py"}.Sanitize()

	require.Equal(testInstance, "master", sanitized.Trunk)
	require.Equal(testInstance, "pkg/{name}/version.py", sanitized.DeclarationFile)
	require.Equal(testInstance, fleet.DefaultConfiguration().Repositories, sanitized.Repositories)
	require.Contains(testInstance, fleet.DefaultConfigurationValues("fleet"), "fleet.plugin_marker")
}
