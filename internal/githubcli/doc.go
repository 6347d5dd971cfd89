// Package githubcli wraps the GitHub CLI for fleet release workflows.
//
// It layers typed request and response structures over gh api calls to the
// releases endpoints and integrates with execshell so interactions with
// GitHub can be stubbed during testing.
package githubcli
