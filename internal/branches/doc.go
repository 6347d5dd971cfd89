// Package branches parks fleet repositories on the branch named after the
// version being prepared, creating, replacing and deleting local branches.
package branches
