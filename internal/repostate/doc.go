// Package repostate classifies the working tree of a fleet repository and rolls
// interrupted version bumps back to the trunk branch.
package repostate
