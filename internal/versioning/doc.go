// Package versioning models the release versions carried by fleet repositories.
//
// A Version is a major.minor.patch triple with an optional development
// qualifier. Parsing is strict, rendering is canonical, and ordering follows
// PEP 440 so a development release sorts below the final release it precedes.
package versioning
