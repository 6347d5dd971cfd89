// Package commits stages and commits pending work of fleet repositories on the
// branch named after their current version.
package commits
