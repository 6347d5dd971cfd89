// Package manifest reads and rewrites the two version-bearing files of a
// fleet repository: the version declaration inside the package source and
// the dependency pins inside the build manifest.
//
// Both files are processed line by line. Lines that are not rewritten pass
// through byte for byte, and every emitted line ends with a single newline.
package manifest
