package releases

import (
	"strings"

	"github.com/temirov/fleet/internal/githubcli"
)

const (
	defaultBranchConstant = "master"
	defaultBodyConstant   = "Description of the release"
)

// Configuration captures the release section of the configuration file.
type Configuration struct {
	Owner  string `mapstructure:"owner"`
	Branch string `mapstructure:"branch"`
	Host   string `mapstructure:"host"`
	Token  string `mapstructure:"token"`
	Body   string `mapstructure:"body"`
}

// DefaultConfiguration returns the release defaults. A blank owner is resolved
// from each repository's origin remote.
func DefaultConfiguration() Configuration {
	return Configuration{
		Branch: defaultBranchConstant,
		Host:   githubcli.DefaultHostname,
		Body:   defaultBodyConstant,
	}
}

// DefaultConfigurationValues exposes the defaults as configuration keys below prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultConfiguration()
	return map[string]any{
		prefix + ".owner":   defaults.Owner,
		prefix + ".branch":  defaults.Branch,
		prefix + ".host":    defaults.Host,
		prefix + ".token":   defaults.Token,
		prefix + ".body":    defaults.Body,
	}
}

// Sanitize trims values and restores defaults for a blank branch or host.
func (configuration Configuration) Sanitize() Configuration {
	defaults := DefaultConfiguration()
	sanitized := Configuration{
		Owner:  strings.TrimSpace(configuration.Owner),
		Branch: strings.TrimSpace(configuration.Branch),
		Host:   strings.TrimSpace(configuration.Host),
		Token:  strings.TrimSpace(configuration.Token),
		Body:   configuration.Body,
	}
	if len(sanitized.Branch) == 0 {
		sanitized.Branch = defaults.Branch
	}
	if len(sanitized.Host) == 0 {
		sanitized.Host = defaults.Host
	}
	return sanitized
}
