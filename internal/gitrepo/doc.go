// Package gitrepo wraps the git primitives the fleet engine depends on.
//
// RepositoryManager issues every command through an execshell-compatible
// executor so each invocation is logged, and ParseRemoteURL extracts the
// owner and repository name from an origin remote.
package gitrepo
