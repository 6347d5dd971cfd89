// Package cli constructs the fleet command-line interface, wiring the Cobra
// command hierarchy, the layered configuration loader, and structured logging
// for the update, release and commit workflows.
package cli
