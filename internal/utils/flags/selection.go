package flags

import "github.com/spf13/cobra"

const (
	// RepositoryFlagName selects a single repository of the fleet.
	RepositoryFlagName = "repo"
	// RepositoryFlagUsage describes the repository flag.
	RepositoryFlagUsage = "Repository of the fleet to operate on"
	// AutomaticFlagName selects every repository with pending changes.
	AutomaticFlagName = "automatic"
	// AutomaticFlagUsage describes the automatic flag.
	AutomaticFlagUsage = "Operate on every repository with untracked or modified files"
	// AllFlagName selects every repository of the fleet.
	AllFlagName = "all"
	// AllFlagUsage describes the all flag.
	AllFlagUsage = "Operate on every repository of the fleet"
	// VersionFlagName sets an explicit version.
	VersionFlagName = "version"
	// VersionFlagUsage describes the version flag.
	VersionFlagUsage = "Set this exact version instead of bumping"
	// DevFlagName requests a development bump.
	DevFlagName = "dev"
	// DevFlagUsage describes the dev flag.
	DevFlagUsage = "Bump the patch number and mark the version as a development release"
	// PatchFlagName requests a patch bump.
	PatchFlagName = "patch"
	// PatchFlagUsage describes the patch flag.
	PatchFlagUsage = "Bump the patch number (default)"
	// MinorFlagName requests a minor bump.
	MinorFlagName = "minor"
	// MinorFlagUsage describes the minor flag.
	MinorFlagUsage = "Bump the minor number and reset the patch number"
	// MajorFlagName requests a major bump.
	MajorFlagName = "major"
	// MajorFlagUsage describes the major flag.
	MajorFlagUsage = "Bump the major number and reset minor and patch numbers"
	// RestoreFlagName requests a rollback.
	RestoreFlagName = "restore"
	// RestoreFlagUsage describes the restore flag.
	RestoreFlagUsage = "Discard version edits and return to the trunk branch"
)

// TargetFlagValues stores the mutually exclusive repository selectors.
type TargetFlagValues struct {
	Repository string
	Automatic  bool
	All        bool
}

// BumpFlagValues stores the mutually exclusive version selectors.
type BumpFlagValues struct {
	Version string
	Dev     bool
	Patch   bool
	Minor   bool
	Major   bool
	Restore bool
}

// BindTargetFlags attaches --repo, and optionally --automatic and --all, as a mutually exclusive group.
func BindTargetFlags(command *cobra.Command, includeFleetWide bool) *TargetFlagValues {
	values := &TargetFlagValues{}
	if command == nil {
		return values
	}

	flagSet := command.Flags()
	flagSet.StringVar(&values.Repository, RepositoryFlagName, "", RepositoryFlagUsage)
	if !includeFleetWide {
		return values
	}
	flagSet.BoolVar(&values.Automatic, AutomaticFlagName, false, AutomaticFlagUsage)
	flagSet.BoolVar(&values.All, AllFlagName, false, AllFlagUsage)
	command.MarkFlagsMutuallyExclusive(RepositoryFlagName, AutomaticFlagName, AllFlagName)
	return values
}

// BindBumpFlags attaches the version selectors as a mutually exclusive group.
func BindBumpFlags(command *cobra.Command) *BumpFlagValues {
	values := &BumpFlagValues{}
	if command == nil {
		return values
	}

	flagSet := command.Flags()
	flagSet.StringVar(&values.Version, VersionFlagName, "", VersionFlagUsage)
	flagSet.BoolVar(&values.Dev, DevFlagName, false, DevFlagUsage)
	flagSet.BoolVar(&values.Patch, PatchFlagName, false, PatchFlagUsage)
	flagSet.BoolVar(&values.Minor, MinorFlagName, false, MinorFlagUsage)
	flagSet.BoolVar(&values.Major, MajorFlagName, false, MajorFlagUsage)
	flagSet.BoolVar(&values.Restore, RestoreFlagName, false, RestoreFlagUsage)
	command.MarkFlagsMutuallyExclusive(VersionFlagName, DevFlagName, PatchFlagName, MinorFlagName, MajorFlagName, RestoreFlagName)
	return values
}
