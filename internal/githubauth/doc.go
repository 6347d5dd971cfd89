// Package githubauth locates the GitHub API token used for release publication.
package githubauth
