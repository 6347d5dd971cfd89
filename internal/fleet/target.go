package fleet

import (
	"errors"
	"fmt"
	"strings"
)

const (
	unknownRepositoryTemplateConstant = "repository %q is not part of the fleet"
	targetRequiredMessageConstant     = "a repository, --automatic or --all must be selected"
)

// ErrTargetRequired indicates no repository selector was supplied.
var ErrTargetRequired = errors.New(targetRequiredMessageConstant)

// UnknownRepositoryError reports a targeted name missing from the roster.
type UnknownRepositoryError struct {
	Name string
}

// Error describes the unknown repository.
func (unknownError UnknownRepositoryError) Error() string {
	return fmt.Sprintf(unknownRepositoryTemplateConstant, unknownError.Name)
}

// TargetMode selects which repositories a command visits.
type TargetMode string

// Supported target modes.
const (
	// TargetModeSingle visits one named repository.
	TargetModeSingle TargetMode = TargetMode("single")
	// TargetModeAutomatic visits every repository, acting only where there is work to do.
	TargetModeAutomatic TargetMode = TargetMode("automatic")
	// TargetModeAll visits every repository and acts on each of them.
	TargetModeAll TargetMode = TargetMode("all")
)

// Target identifies the repositories of a run.
type Target struct {
	Mode       TargetMode
	Repository string
}

// SingleTarget targets one repository by name.
func SingleTarget(repositoryName string) Target {
	return Target{Mode: TargetModeSingle, Repository: strings.TrimSpace(repositoryName)}
}

// NewTarget converts the mutually exclusive selectors into a Target.
func NewTarget(repositoryName string, automatic bool, all bool) (Target, error) {
	switch {
	case all:
		return Target{Mode: TargetModeAll}, nil
	case automatic:
		return Target{Mode: TargetModeAutomatic}, nil
	case len(strings.TrimSpace(repositoryName)) > 0:
		return SingleTarget(repositoryName), nil
	default:
		return Target{}, ErrTargetRequired
	}
}

// FleetWide reports whether the target walks the whole roster.
func (target Target) FleetWide() bool {
	return target.Mode == TargetModeAutomatic || target.Mode == TargetModeAll
}

// Names reports whether the target explicitly names the repository.
func (target Target) Names(repository Repository) bool {
	return !target.FleetWide() && target.Repository == repository.Name
}

// String describes the target for logs.
func (target Target) String() string {
	if target.FleetWide() {
		return string(target.Mode)
	}
	return target.Repository
}

// Select returns the repositories the target visits, in roster order.
func (roster Roster) Select(target Target) ([]Repository, error) {
	if target.FleetWide() {
		return roster.Repositories(), nil
	}
	trimmedName := strings.TrimSpace(target.Repository)
	if len(trimmedName) == 0 {
		return nil, ErrTargetRequired
	}
	repository, found := roster.Lookup(trimmedName)
	if !found {
		return nil, UnknownRepositoryError{Name: trimmedName}
	}
	return []Repository{repository}, nil
}
