package githubauth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
)

const (
	tokenSourceSeparatorConstant            = ":"
	environmentSourceTypeValueConstant      = "env"
	fileSourceTypeValueConstant             = "file"
	literalSourceTypeValueConstant          = "literal"
	environmentNameMissingMessageConstant   = "environment variable name must be provided"
	filePathMissingMessageConstant          = "token file path must be provided"
	literalTokenMissingMessageConstant      = "literal token must be provided"
	tokenNotFoundMessageConstant            = "github token not found; set GH_TOKEN, GITHUB_TOKEN, GITHUB_API_TOKEN or release.token"
	environmentTokenMissingTemplateConstant = "environment variable %s is not set"
	fileReadErrorTemplateConstant           = "unable to read token file %s: %w"
	fileTokenEmptyTemplateConstant          = "token file %s is empty"
	unsupportedSourceTemplateConstant       = "unsupported token source type %q"
)

// Environment variable names consulted when no explicit source is configured.
const (
	EnvGitHubCLIToken = "GH_TOKEN"
	EnvGitHubToken    = "GITHUB_TOKEN"
	EnvGitHubAPIToken = "GITHUB_API_TOKEN"
)

var fallbackEnvironmentVariables = []string{
	EnvGitHubCLIToken,
	EnvGitHubToken,
	EnvGitHubAPIToken,
}

// ErrTokenNotFound indicates no configured or fallback source yielded a token.
var ErrTokenNotFound = errors.New(tokenNotFoundMessageConstant)

// SourceType enumerates the supported token retrieval mechanisms.
type SourceType string

// Supported token sources.
const (
	SourceTypeEnvironment SourceType = SourceType(environmentSourceTypeValueConstant)
	SourceTypeFile        SourceType = SourceType(fileSourceTypeValueConstant)
	SourceTypeLiteral     SourceType = SourceType(literalSourceTypeValueConstant)
)

// Source names where a token is read from, such as "env:FLEET_TOKEN",
// "file:~/.github-token" or "literal:ghp_...".
type Source struct {
	Type      SourceType
	Reference string
}

// ParseSource interprets a textual source declaration. A bare value names an
// environment variable, never a token; tokens written inline need the literal:
// prefix. An empty value yields the zero Source, which selects the fallback
// variables.
func ParseSource(sourceValue string) (Source, error) {
	trimmedValue := strings.TrimSpace(sourceValue)
	if len(trimmedValue) == 0 {
		return Source{}, nil
	}

	components := strings.SplitN(trimmedValue, tokenSourceSeparatorConstant, 2)
	if len(components) == 1 {
		return Source{Type: SourceTypeEnvironment, Reference: trimmedValue}, nil
	}

	sourceType := strings.ToLower(strings.TrimSpace(components[0]))
	reference := strings.TrimSpace(components[1])
	switch sourceType {
	case environmentSourceTypeValueConstant:
		if len(reference) == 0 {
			return Source{}, errors.New(environmentNameMissingMessageConstant)
		}
		return Source{Type: SourceTypeEnvironment, Reference: reference}, nil
	case fileSourceTypeValueConstant:
		if len(reference) == 0 {
			return Source{}, errors.New(filePathMissingMessageConstant)
		}
		return Source{Type: SourceTypeFile, Reference: reference}, nil
	case literalSourceTypeValueConstant:
		if len(reference) == 0 {
			return Source{}, errors.New(literalTokenMissingMessageConstant)
		}
		return Source{Type: SourceTypeLiteral, Reference: reference}, nil
	default:
		return Source{}, fmt.Errorf(unsupportedSourceTemplateConstant, sourceType)
	}
}

// EnvironmentLookup obtains an environment variable value.
type EnvironmentLookup func(key string) (string, bool)

// PathExpander resolves a leading "~" in token file paths.
type PathExpander interface {
	Expand(candidatePath string) string
}

// Resolver reads tokens from the environment or from files.
type Resolver struct {
	environmentLookup EnvironmentLookup
	fileSystem        afero.Fs
	pathExpander      PathExpander
}

// NewResolver constructs a Resolver over the provided environment lookup and
// filesystem. A nil expander reads file paths as written.
func NewResolver(environmentLookup EnvironmentLookup, fileSystem afero.Fs, pathExpander PathExpander) *Resolver {
	return &Resolver{environmentLookup: environmentLookup, fileSystem: fileSystem, pathExpander: pathExpander}
}

// Resolve returns the token named by the source. The zero Source tries
// GH_TOKEN, GITHUB_TOKEN and GITHUB_API_TOKEN in order.
func (resolver *Resolver) Resolve(source Source) (string, error) {
	switch source.Type {
	case "":
		for _, variableName := range fallbackEnvironmentVariables {
			if token, found := resolver.lookupEnvironment(variableName); found {
				return token, nil
			}
		}
		return "", ErrTokenNotFound
	case SourceTypeEnvironment:
		token, found := resolver.lookupEnvironment(source.Reference)
		if !found {
			return "", fmt.Errorf(environmentTokenMissingTemplateConstant, source.Reference)
		}
		return token, nil
	case SourceTypeFile:
		tokenPath := source.Reference
		if resolver.pathExpander != nil {
			tokenPath = resolver.pathExpander.Expand(tokenPath)
		}
		contents, readError := afero.ReadFile(resolver.fileSystem, tokenPath)
		if readError != nil {
			return "", fmt.Errorf(fileReadErrorTemplateConstant, tokenPath, readError)
		}
		token := strings.TrimSpace(string(contents))
		if len(token) == 0 {
			return "", fmt.Errorf(fileTokenEmptyTemplateConstant, tokenPath)
		}
		return token, nil
	case SourceTypeLiteral:
		return source.Reference, nil
	default:
		return "", fmt.Errorf(unsupportedSourceTemplateConstant, source.Type)
	}
}

func (resolver *Resolver) lookupEnvironment(variableName string) (string, bool) {
	if resolver.environmentLookup == nil {
		return "", false
	}
	value, exists := resolver.environmentLookup(variableName)
	if !exists {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, len(value) > 0
}
