// Package flags provides helpers for binding the shared fleet flags to Cobra commands.
package flags

import (
	"github.com/spf13/cobra"
)

const (
	// DryRunFlagName exposes the shared dry-run flag name.
	DryRunFlagName = "dry-run"
	// DryRunFlagUsage describes the shared dry-run flag purpose.
	DryRunFlagUsage = "Report every change without touching files, branches, or the release API"
	// AssumeYesFlagName exposes the shared assume-yes flag name.
	AssumeYesFlagName = "yes"
	// AssumeYesFlagShorthand provides the shorthand for the assume-yes flag.
	AssumeYesFlagShorthand = "y"
	// AssumeYesFlagUsage describes the shared assume-yes flag purpose.
	AssumeYesFlagUsage = "Automatically confirm prompts"
)

// ExecutionFlagValues stores the dry-run and assume-yes switches of one command.
type ExecutionFlagValues struct {
	DryRun    bool
	AssumeYes bool
}

// BindExecutionFlags attaches --dry-run and --yes to the command. The assume-yes
// flag is only bound when includeAssumeYes is set.
func BindExecutionFlags(command *cobra.Command, defaults ExecutionFlagValues, includeAssumeYes bool) *ExecutionFlagValues {
	values := defaults
	if command == nil {
		return &values
	}

	flagSet := command.Flags()
	flagSet.BoolVar(&values.DryRun, DryRunFlagName, defaults.DryRun, DryRunFlagUsage)
	if includeAssumeYes {
		flagSet.BoolVarP(&values.AssumeYes, AssumeYesFlagName, AssumeYesFlagShorthand, defaults.AssumeYes, AssumeYesFlagUsage)
	}
	return &values
}
