// Package shared declares the collaborator interfaces and reporting helpers
// used across the fleet services.
package shared
