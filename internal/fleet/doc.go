// Package fleet describes the roster of repositories maintained together and
// derives the per-repository paths the other packages operate on.
package fleet
