// Package releases publishes GitHub releases for fleet repositories whose
// local version is newer than the last published release.
package releases
