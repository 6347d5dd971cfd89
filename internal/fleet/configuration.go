package fleet

import "strings"

const (
	defaultRootConstant                = "."
	defaultTrunkConstant               = "master"
	defaultCoreConstant                = "datoso"
	defaultPluginMarkerConstant        = "plugin"
	defaultDeclarationFileConstant     = "src/{name}/__init__.py"
	defaultManifestFileConstant        = "pyproject.toml"
	declarationNamePlaceholderConstant = "{name}"
)

var defaultRepositories = []string{
	"datoso",
	"datoso_plugin_internetarchive",
	"datoso_seed_base",
	"datoso_seed_fbneo",
	"datoso_seed_md_enhanced",
	"datoso_seed_nointro",
	"datoso_seed_pleasuredome",
	"datoso_seed_private",
	"datoso_seed_redump",
	"datoso_seed_sfc_enhancedcolors",
	"datoso_seed_sfc_msu1",
	"datoso_seed_sfc_speedhacks",
	"datoso_seed_tdc",
	"datoso_seed_translatedenglish",
	"datoso_seed_vpinmame",
	"datoso_seed_whdload",
}

// Configuration captures the fleet section of the configuration file.
type Configuration struct {
	Root            string   `mapstructure:"root"`
	Trunk           string   `mapstructure:"trunk"`
	Core            string   `mapstructure:"core"`
	PluginMarker    string   `mapstructure:"plugin_marker"`
	DeclarationFile string   `mapstructure:"declaration_file"`
	ManifestFile    string   `mapstructure:"manifest_file"`
	Repositories    []string `mapstructure:"repositories"`
}

// DefaultConfiguration returns the datoso fleet layout.
func DefaultConfiguration() Configuration {
	return Configuration{
		Root:            defaultRootConstant,
		Trunk:           defaultTrunkConstant,
		Core:            defaultCoreConstant,
		PluginMarker:    defaultPluginMarkerConstant,
		DeclarationFile: defaultDeclarationFileConstant,
		ManifestFile:    defaultManifestFileConstant,
		Repositories:    append([]string{}, defaultRepositories...),
	}
}

// DefaultConfigurationValues exposes the defaults as configuration keys below prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultConfiguration()
	return map[string]any{
		prefix + ".root":             defaults.Root,
		prefix + ".trunk":            defaults.Trunk,
		prefix + ".core":             defaults.Core,
		prefix + ".plugin_marker":    defaults.PluginMarker,
		prefix + ".declaration_file": defaults.DeclarationFile,
		prefix + ".manifest_file":    defaults.ManifestFile,
		prefix + ".repositories":     defaults.Repositories,
	}
}

// Sanitize trims values and falls back to defaults for blank settings.
// Blank and duplicate repository names are dropped while keeping roster order.
func (configuration Configuration) Sanitize() Configuration {
	defaults := DefaultConfiguration()
	sanitized := Configuration{
		Root:            fallback(configuration.Root, defaults.Root),
		Trunk:           fallback(configuration.Trunk, defaults.Trunk),
		Core:            fallback(configuration.Core, defaults.Core),
		PluginMarker:    fallback(configuration.PluginMarker, defaults.PluginMarker),
		DeclarationFile: fallback(configuration.DeclarationFile, defaults.DeclarationFile),
		ManifestFile:    fallback(configuration.ManifestFile, defaults.ManifestFile),
	}

	seen := make(map[string]struct{}, len(configuration.Repositories))
	for _, repositoryName := range configuration.Repositories {
		trimmedName := strings.TrimSpace(repositoryName)
		if len(trimmedName) == 0 {
			continue
		}
		if _, duplicate := seen[trimmedName]; duplicate {
			continue
		}
		seen[trimmedName] = struct{}{}
		sanitized.Repositories = append(sanitized.Repositories, trimmedName)
	}
	if len(sanitized.Repositories) == 0 {
		sanitized.Repositories = defaults.Repositories
	}
	return sanitized
}

func fallback(value string, defaultValue string) string {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return defaultValue
	}
	return trimmedValue
}
