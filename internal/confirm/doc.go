// Package confirm provides the interactive yes/no and free-text prompts used
// before fleet commands mutate repositories or publish releases.
package confirm
