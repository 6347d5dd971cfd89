// Package update drives fleet-wide version bumps and rollbacks.
//
// The Orchestrator walks the roster one repository at a time, writing the next
// version into the declaration file and parking the repository on a branch
// named after that version. A final pass re-pins fleet dependencies inside
// the manifests of the core package and seeds.
package update
