package commits

import (
	"strings"

	"github.com/temirov/fleet/internal/fleet"
	"github.com/temirov/fleet/internal/versioning"
)

const (
	defaultMessageTemplateConstant = "Update {name} version to {version}"
	namePlaceholderConstant        = "{name}"
	versionPlaceholderConstant     = "{version}"
)

// Configuration captures the commit section of the configuration file.
type Configuration struct {
	MessageTemplate string `mapstructure:"message"`
}

// DefaultConfiguration returns the commit defaults.
func DefaultConfiguration() Configuration {
	return Configuration{MessageTemplate: defaultMessageTemplateConstant}
}

// DefaultConfigurationValues exposes the defaults as configuration keys below prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	return map[string]any{prefix + ".message": DefaultConfiguration().MessageTemplate}
}

// Sanitize restores the default template when it is blank.
func (configuration Configuration) Sanitize() Configuration {
	if len(strings.TrimSpace(configuration.MessageTemplate)) == 0 {
		return DefaultConfiguration()
	}
	return configuration
}

// AutomaticMessage renders the template for the repository and version.
func (configuration Configuration) AutomaticMessage(repository fleet.Repository, version versioning.Version) string {
	replacer := strings.NewReplacer(namePlaceholderConstant, repository.Name, versionPlaceholderConstant, version.String())
	return replacer.Replace(configuration.Sanitize().MessageTemplate)
}
