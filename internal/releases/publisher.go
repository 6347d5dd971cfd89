package releases

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/fleet/internal/confirm"
	"github.com/temirov/fleet/internal/githubcli"
	"github.com/temirov/fleet/internal/versioning"
)

const (
	clientNotConfiguredMessageConstant   = "release api client not configured"
	confirmerMissingMessageConstant      = "release confirmer not configured"
	noPublishedReleaseMessageConstant    = "no published release"
	publishedTagInvalidTemplateConstant  = "latest release tag %q of %s/%s is not a version: %w"
	confirmationPromptTemplateConstant   = "Create release %s of %s/%s from %s (draft: %t, prerelease: %t, latest: %t)?"
	logMessageLatestPublishedConstant    = "Resolved latest published release"
	logMessageReleaseCreatedConstant     = "Created release"
	logMessageReleaseDeclinedConstant    = "Release declined"
	logFieldRepositoryConstant           = "repository"
	logFieldVersionConstant              = "version"
	logFieldBranchConstant               = "branch"
	logFieldURLConstant                  = "url"
	logFieldCachedConstant               = "cached"
	repositoryIdentifierTemplateConstant = "%s/%s"
	latestReleaseLookupLimitConstant     = 1
)

var (
	// ErrClientNotConfigured indicates the publisher was built without an API client.
	ErrClientNotConfigured = errors.New(clientNotConfiguredMessageConstant)
	// ErrConfirmerNotConfigured indicates the publisher was built without a confirmation capability.
	ErrConfirmerNotConfigured = errors.New(confirmerMissingMessageConstant)
	// ErrNoPublishedRelease indicates the repository has never published a release.
	ErrNoPublishedRelease = errors.New(noPublishedReleaseMessageConstant)
	// ErrUserAbort indicates the operator declined to create a release.
	ErrUserAbort = confirm.ErrUserAbort
)

// API captures the release operations the publisher calls. Repositories are
// identified as owner/name.
type API interface {
	ListReleases(executionContext context.Context, repository string, limit int) ([]githubcli.Release, error)
	CreateRelease(executionContext context.Context, repository string, request githubcli.ReleaseRequest) (githubcli.Release, error)
}

// Request describes one release to create.
type Request struct {
	Owner         string
	Repository    string
	Version       versioning.Version
	TargetBranch  string
	Name          string
	Body          string
	Draft         bool
	Prerelease    bool
	GenerateNotes bool
	MakeLatest    bool
}

// Release is the outcome of a created release.
type Release struct {
	Request Request
	ID      int64
	URL     string
}

// Publisher resolves published releases and creates new ones.
type Publisher struct {
	client    API
	cache     *Cache
	confirmer confirm.Confirmer
	logger    *zap.Logger
}

// NewPublisher constructs a Publisher. A nil cache starts an empty one. Every
// release goes through confirmer, so it is required.
func NewPublisher(client API, cache *Cache, confirmer confirm.Confirmer, logger *zap.Logger) (*Publisher, error) {
	if client == nil {
		return nil, ErrClientNotConfigured
	}
	if confirmer == nil {
		return nil, ErrConfirmerNotConfigured
	}
	if cache == nil {
		cache = NewCache()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{client: client, cache: cache, confirmer: confirmer, logger: logger}, nil
}

// LatestPublished returns the version of the newest release of owner/repository.
func (publisher *Publisher) LatestPublished(executionContext context.Context, owner string, repository string) (versioning.Version, error) {
	if cachedVersion, published, cached := publisher.cache.Lookup(owner, repository); cached {
		publisher.logLatest(owner, repository, cachedVersion, published, true)
		if !published {
			return versioning.Version{}, ErrNoPublishedRelease
		}
		return cachedVersion, nil
	}

	remoteReleases, listError := publisher.client.ListReleases(executionContext, repositoryIdentifier(owner, repository), latestReleaseLookupLimitConstant)
	if listError != nil {
		return versioning.Version{}, listError
	}
	if len(remoteReleases) == 0 {
		publisher.cache.StoreUnpublished(owner, repository)
		publisher.logLatest(owner, repository, versioning.Version{}, false, false)
		return versioning.Version{}, ErrNoPublishedRelease
	}

	latestTag := remoteReleases[0].TagName
	latestVersion, parseError := versioning.Parse(latestTag)
	if parseError != nil {
		return versioning.Version{}, fmt.Errorf(publishedTagInvalidTemplateConstant, latestTag, owner, repository, parseError)
	}
	publisher.cache.StorePublished(owner, repository, latestVersion)
	publisher.logLatest(owner, repository, latestVersion, true, false)
	return latestVersion, nil
}

// IsNewVersionValid reports whether local may be released on top of published.
func IsNewVersionValid(local versioning.Version, published versioning.Version) bool {
	return local.GreaterThan(published)
}

// Create asks for confirmation and creates the release. Development versions are
// always published as prereleases.
func (publisher *Publisher) Create(executionContext context.Context, request Request) (Release, error) {
	request.Prerelease = request.Prerelease || request.Version.IsDevelopment()
	if len(request.Name) == 0 {
		request.Name = request.Version.Tag()
	}

	prompt := fmt.Sprintf(
		confirmationPromptTemplateConstant,
		request.Version.Tag(),
		request.Owner,
		request.Repository,
		request.TargetBranch,
		request.Draft,
		request.Prerelease,
		request.MakeLatest,
	)
	if confirmError := confirm.Require(publisher.confirmer, prompt); confirmError != nil {
		if errors.Is(confirmError, confirm.ErrUserAbort) {
			publisher.logger.Info(logMessageReleaseDeclinedConstant, zap.String(logFieldRepositoryConstant, request.Repository), zap.String(logFieldVersionConstant, request.Version.String()))
		}
		return Release{}, confirmError
	}

	created, createError := publisher.client.CreateRelease(executionContext, repositoryIdentifier(request.Owner, request.Repository), githubcli.ReleaseRequest{
		TagName:         request.Version.Tag(),
		TargetCommitish: request.TargetBranch,
		Name:            request.Name,
		Body:            request.Body,
		Draft:           request.Draft,
		Prerelease:      request.Prerelease,
		GenerateNotes:   request.GenerateNotes,
		MakeLatest:      request.MakeLatest,
	})
	if createError != nil {
		return Release{}, createError
	}

	publisher.logger.Info(
		logMessageReleaseCreatedConstant,
		zap.String(logFieldRepositoryConstant, request.Repository),
		zap.String(logFieldVersionConstant, request.Version.String()),
		zap.String(logFieldBranchConstant, request.TargetBranch),
		zap.String(logFieldURLConstant, created.HTMLURL),
	)
	return Release{Request: request, ID: created.ID, URL: created.HTMLURL}, nil
}

func (publisher *Publisher) logLatest(owner string, repository string, version versioning.Version, published bool, cached bool) {
	versionValue := noPublishedReleaseMessageConstant
	if published {
		versionValue = version.String()
	}
	publisher.logger.Debug(
		logMessageLatestPublishedConstant,
		zap.String(logFieldRepositoryConstant, repositoryIdentifier(owner, repository)),
		zap.String(logFieldVersionConstant, versionValue),
		zap.Bool(logFieldCachedConstant, cached),
	)
}

func repositoryIdentifier(owner string, repository string) string {
	return fmt.Sprintf(repositoryIdentifierTemplateConstant, owner, repository)
}
