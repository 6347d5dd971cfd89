// Package execshell provides structured helpers for invoking external tools.
//
// It wraps os/exec with zap logging via ShellExecutor, exposes OSCommandRunner
// for default process execution, and formats human-readable lifecycle
// messages for the git invocations issued while updating a repository fleet.
package execshell
