package fleet

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

const (
	coreNotInRosterTemplateConstant = "%w: %q"
	manifestNameSeparatorConstant   = "-"
	packageNameSeparatorConstant    = "_"
)

// ErrCoreNotInRoster indicates the configured core repository is missing from the roster.
var ErrCoreNotInRoster = errors.New("core repository is not part of the fleet roster")

// PathExpander resolves user supplied paths such as "~/src".
type PathExpander interface {
	Expand(candidatePath string) string
}

// Repository identifies one member of the fleet and where its files live.
type Repository struct {
	Name            string
	Root            string
	DeclarationFile string
	ManifestFile    string
	Trunk           string
	Plugin          bool
	Core            bool
}

// DeclarationPath returns the absolute path of the version declaration file.
func (repository Repository) DeclarationPath() string {
	return filepath.Join(repository.Root, filepath.FromSlash(repository.DeclarationFile))
}

// ManifestPath returns the absolute path of the dependency manifest file.
func (repository Repository) ManifestPath() string {
	return filepath.Join(repository.Root, filepath.FromSlash(repository.ManifestFile))
}

// ManifestName returns the package name used inside dependency manifests.
func (repository Repository) ManifestName() string {
	return strings.ReplaceAll(repository.Name, packageNameSeparatorConstant, manifestNameSeparatorConstant)
}

// ExtrasKey returns the trailing segment of the manifest name, which names the
// optional-dependency group that installs this repository.
func (repository Repository) ExtrasKey() string {
	segments := strings.Split(repository.ManifestName(), manifestNameSeparatorConstant)
	return segments[len(segments)-1]
}

// Roster is the ordered, immutable list of fleet repositories.
type Roster struct {
	repositories []Repository
	coreName     string
}

// NewRoster derives repositories from the configuration. The core repository must be listed.
func NewRoster(configuration Configuration, expander PathExpander) (Roster, error) {
	sanitized := configuration.Sanitize()
	fleetRoot := sanitized.Root
	if expander != nil {
		fleetRoot = expander.Expand(fleetRoot)
	}

	roster := Roster{coreName: sanitized.Core}
	coreListed := false
	for _, repositoryName := range sanitized.Repositories {
		isCore := repositoryName == sanitized.Core
		coreListed = coreListed || isCore
		roster.repositories = append(roster.repositories, Repository{
			Name:            repositoryName,
			Root:            filepath.Join(fleetRoot, repositoryName),
			DeclarationFile: strings.ReplaceAll(sanitized.DeclarationFile, declarationNamePlaceholderConstant, repositoryName),
			ManifestFile:    sanitized.ManifestFile,
			Trunk:           sanitized.Trunk,
			Plugin:          strings.Contains(repositoryName, sanitized.PluginMarker),
			Core:            isCore,
		})
	}

	if !coreListed {
		return Roster{}, fmt.Errorf(coreNotInRosterTemplateConstant, ErrCoreNotInRoster, sanitized.Core)
	}
	return roster, nil
}

// Repositories returns the roster in configuration order.
func (roster Roster) Repositories() []Repository {
	return append([]Repository{}, roster.repositories...)
}

// Lookup finds a repository by name.
func (roster Roster) Lookup(name string) (Repository, bool) {
	trimmedName := strings.TrimSpace(name)
	for _, repository := range roster.repositories {
		if repository.Name == trimmedName {
			return repository, true
		}
	}
	return Repository{}, false
}

// Core returns the core repository every other member depends on.
func (roster Roster) Core() Repository {
	coreRepository, _ := roster.Lookup(roster.coreName)
	return coreRepository
}

// Siblings returns every repository other than the core.
func (roster Roster) Siblings() []Repository {
	siblings := make([]Repository, 0, len(roster.repositories))
	for _, repository := range roster.repositories {
		if !repository.Core {
			siblings = append(siblings, repository)
		}
	}
	return siblings
}
