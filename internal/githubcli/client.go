package githubcli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/temirov/fleet/internal/execshell"
)

const (
	// DefaultHostname is the GitHub host gh talks to when none is configured.
	DefaultHostname = "github.com"
	// DefaultRequestTimeout bounds every gh api invocation.
	DefaultRequestTimeout = 10 * time.Second

	apiSubcommandConstant                   = "api"
	methodFlagConstant                      = "-X"
	inputFlagConstant                       = "--input"
	hostnameFlagConstant                    = "--hostname"
	stdinReferenceConstant                  = "-"
	headerFlagConstant                      = "-H"
	acceptHeaderValueConstant               = "Accept: application/vnd.github+json"
	apiVersionHeaderValueConstant           = "X-GitHub-Api-Version: 2022-11-28"
	httpMethodPostConstant                  = "POST"
	tokenEnvironmentVariableConstant        = "GH_TOKEN"
	releasesEndpointTemplateConstant        = "repos/%s/releases"
	releaseListEndpointTemplateConstant     = "repos/%s/releases?per_page=%d"
	releaseListLimitDefaultValueConstant    = 30
	makeLatestTrueValueConstant             = "true"
	makeLatestFalseValueConstant            = "false"
	repositoryFieldNameConstant             = "repository"
	tagNameFieldNameConstant                = "tag_name"
	requiredValueMessageConstant            = "value required"
	ownerRepositoryFormatMessageConstant    = "expected owner/name"
	executorNotConfiguredMessageConstant    = "github cli executor not configured"
	operationErrorMessageTemplateConstant   = "%s operation failed"
	operationErrorWithCauseTemplateConstant = "%s operation failed: %s"
	responseDecodingErrorTemplateConstant   = "%s response decoding failed: %s"
	payloadEncodingErrorTemplateConstant    = "%s payload encoding failed: %s"
	invalidInputErrorTemplateConstant       = "%s: %s"
	listReleasesOperationNameConstant       = OperationName("ListReleases")
	createReleaseOperationNameConstant      = OperationName("CreateRelease")
)

// OperationName describes a named GitHub CLI workflow supported by the client.
type OperationName string

// Release is the subset of a GitHub release the fleet relies on.
type Release struct {
	ID         int64  `json:"id"`
	TagName    string `json:"tag_name"`
	Name       string `json:"name"`
	HTMLURL    string `json:"html_url"`
	Draft      bool   `json:"draft"`
	Prerelease bool   `json:"prerelease"`
}

// ReleaseRequest describes a release to create.
type ReleaseRequest struct {
	TagName         string
	TargetCommitish string
	Name            string
	Body            string
	Draft           bool
	Prerelease      bool
	GenerateNotes   bool
	MakeLatest      bool
}

// GitHubCommandExecutor is the minimal interface required from execshell.ShellExecutor.
type GitHubCommandExecutor interface {
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// ClientConfiguration configures a Client. A blank token leaves gh to its own
// authentication; a blank hostname targets github.com.
type ClientConfiguration struct {
	Hostname       string
	Token          string
	RequestTimeout time.Duration
}

// Client coordinates GitHub CLI invocations through execshell.
type Client struct {
	executor       GitHubCommandExecutor
	hostname       string
	token          string
	requestTimeout time.Duration
}

var (
	// ErrExecutorNotConfigured indicates the client was constructed without an executor.
	ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
)

// InvalidInputError surfaces validation issues for operation inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// OperationError wraps execution issues for GitHub CLI operations.
type OperationError struct {
	Operation OperationName
	Cause     error
}

// Error describes the operation failure.
func (operationError OperationError) Error() string {
	if operationError.Cause == nil {
		return fmt.Sprintf(operationErrorMessageTemplateConstant, operationError.Operation)
	}
	return fmt.Sprintf(operationErrorWithCauseTemplateConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// ResponseDecodingError indicates JSON decoding failures.
type ResponseDecodingError struct {
	Operation OperationName
	Cause     error
}

// Error describes the decoding failure.
func (decodingError ResponseDecodingError) Error() string {
	return fmt.Sprintf(responseDecodingErrorTemplateConstant, decodingError.Operation, decodingError.Cause)
}

// Unwrap exposes the underlying JSON error.
func (decodingError ResponseDecodingError) Unwrap() error {
	return decodingError.Cause
}

// PayloadEncodingError indicates JSON encoding issues.
type PayloadEncodingError struct {
	Operation OperationName
	Cause     error
}

// Error describes the encoding failure.
func (encodingError PayloadEncodingError) Error() string {
	return fmt.Sprintf(payloadEncodingErrorTemplateConstant, encodingError.Operation, encodingError.Cause)
}

// Unwrap exposes the underlying error.
func (encodingError PayloadEncodingError) Unwrap() error {
	return encodingError.Cause
}

// NewClient constructs a GitHub CLI client.
func NewClient(executor GitHubCommandExecutor, configuration ClientConfiguration) (*Client, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	requestTimeout := configuration.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = DefaultRequestTimeout
	}
	return &Client{
		executor:       executor,
		hostname:       strings.TrimSpace(configuration.Hostname),
		token:          strings.TrimSpace(configuration.Token),
		requestTimeout: requestTimeout,
	}, nil
}

// ListReleases returns up to limit releases of owner/name, newest first.
func (client *Client) ListReleases(executionContext context.Context, repository string, limit int) ([]Release, error) {
	repositoryIdentifier, validationError := validateRepository(repository)
	if validationError != nil {
		return nil, validationError
	}
	if limit <= 0 {
		limit = releaseListLimitDefaultValueConstant
	}

	commandDetails := client.commandDetails(fmt.Sprintf(releaseListEndpointTemplateConstant, repositoryIdentifier, limit))
	executionResult, executionError := client.execute(executionContext, commandDetails)
	if executionError != nil {
		return nil, OperationError{Operation: listReleasesOperationNameConstant, Cause: executionError}
	}

	var releases []Release
	if decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &releases); decodingError != nil {
		return nil, ResponseDecodingError{Operation: listReleasesOperationNameConstant, Cause: decodingError}
	}
	return releases, nil
}

// CreateRelease creates a release through gh api and returns the created entry.
func (client *Client) CreateRelease(executionContext context.Context, repository string, request ReleaseRequest) (Release, error) {
	repositoryIdentifier, validationError := validateRepository(repository)
	if validationError != nil {
		return Release{}, validationError
	}
	if len(strings.TrimSpace(request.TagName)) == 0 {
		return Release{}, InvalidInputError{FieldName: tagNameFieldNameConstant, Message: requiredValueMessageConstant}
	}

	makeLatest := makeLatestFalseValueConstant
	if request.MakeLatest {
		makeLatest = makeLatestTrueValueConstant
	}
	payload := struct {
		TagName              string `json:"tag_name"`
		TargetCommitish      string `json:"target_commitish,omitempty"`
		Name                 string `json:"name"`
		Body                 string `json:"body"`
		Draft                bool   `json:"draft"`
		Prerelease           bool   `json:"prerelease"`
		GenerateReleaseNotes bool   `json:"generate_release_notes"`
		MakeLatest           string `json:"make_latest"`
	}{
		TagName:              request.TagName,
		TargetCommitish:      request.TargetCommitish,
		Name:                 request.Name,
		Body:                 request.Body,
		Draft:                request.Draft,
		Prerelease:           request.Prerelease,
		GenerateReleaseNotes: request.GenerateNotes,
		MakeLatest:           makeLatest,
	}

	payloadBytes, encodingError := json.Marshal(payload)
	if encodingError != nil {
		return Release{}, PayloadEncodingError{Operation: createReleaseOperationNameConstant, Cause: encodingError}
	}

	commandDetails := client.commandDetails(
		fmt.Sprintf(releasesEndpointTemplateConstant, repositoryIdentifier),
		methodFlagConstant,
		httpMethodPostConstant,
		inputFlagConstant,
		stdinReferenceConstant,
	)
	commandDetails.StandardInput = payloadBytes

	executionResult, executionError := client.execute(executionContext, commandDetails)
	if executionError != nil {
		return Release{}, OperationError{Operation: createReleaseOperationNameConstant, Cause: executionError}
	}

	var created Release
	if decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &created); decodingError != nil {
		return Release{}, ResponseDecodingError{Operation: createReleaseOperationNameConstant, Cause: decodingError}
	}
	return created, nil
}

func (client *Client) commandDetails(endpoint string, extraArguments ...string) execshell.CommandDetails {
	arguments := []string{apiSubcommandConstant, endpoint}
	arguments = append(arguments, extraArguments...)
	arguments = append(arguments, headerFlagConstant, acceptHeaderValueConstant, headerFlagConstant, apiVersionHeaderValueConstant)
	if len(client.hostname) > 0 && client.hostname != DefaultHostname {
		arguments = append(arguments, hostnameFlagConstant, client.hostname)
	}

	details := execshell.CommandDetails{Arguments: arguments}
	if len(client.token) > 0 {
		details.EnvironmentVariables = map[string]string{tokenEnvironmentVariableConstant: client.token}
	}
	return details
}

func (client *Client) execute(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	boundedContext, cancel := context.WithTimeout(executionContext, client.requestTimeout)
	defer cancel()
	return client.executor.ExecuteGitHubCLI(boundedContext, details)
}

func validateRepository(repository string) (string, error) {
	repositoryIdentifier := strings.TrimSpace(repository)
	if len(repositoryIdentifier) == 0 {
		return "", InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}
	owner, name, found := strings.Cut(repositoryIdentifier, "/")
	if !found || len(owner) == 0 || len(name) == 0 || strings.Contains(name, "/") {
		return "", InvalidInputError{FieldName: repositoryFieldNameConstant, Message: ownerRepositoryFormatMessageConstant}
	}
	return repositoryIdentifier, nil
}
