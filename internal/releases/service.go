package releases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/fleet/internal/fleet"
	"github.com/temirov/fleet/internal/gitrepo"
	"github.com/temirov/fleet/internal/shared"
	"github.com/temirov/fleet/internal/versioning"
)

const (
	versionStoreMissingMessageConstant    = "version store not configured"
	publisherMissingMessageConstant       = "release publisher not configured"
	remoteLocatorMissingMessageConstant   = "remote locator not configured"
	originRemoteNameConstant              = "origin"
	readVersionFailedTemplateConstant     = "%s: read version failed: %w"
	ownerResolutionFailedTemplateConstant = "%s: could not determine the release owner: %w"
	lookupFailedTemplateConstant          = "%s: published release lookup failed: %w"
	createFailedTemplateConstant          = "%s: release creation failed: %w"
	reportNotNewerTemplateConstant        = "%s: %s is not newer than published %s; skipping\n"
	reportPlannedTemplateConstant         = "%s: would create release %s of %s/%s from %s\n"
	reportCreatedTemplateConstant         = "%s: created release %s %s\n"
	reportDeclinedTemplateConstant        = "%s: release %s declined\n"
	logMessagePublishStartedConstant      = "fleet release started"
	logFieldTargetConstant                = "target"
	logFieldDryRunConstant                = "dry_run"
)

var (
	// ErrVersionStoreNotConfigured indicates a missing version store dependency.
	ErrVersionStoreNotConfigured = errors.New(versionStoreMissingMessageConstant)
	// ErrPublisherNotConfigured indicates a missing publisher dependency.
	ErrPublisherNotConfigured = errors.New(publisherMissingMessageConstant)
	// ErrRemoteLocatorNotConfigured indicates a missing remote locator dependency.
	ErrRemoteLocatorNotConfigured = errors.New(remoteLocatorMissingMessageConstant)
)

// Status describes what happened to one repository during a release run.
type Status string

// Supported release statuses.
const (
	StatusCreated  Status = Status("created")
	StatusPlanned  Status = Status("planned")
	StatusNotNewer Status = Status("not_newer")
	StatusDeclined Status = Status("declined")
)

// VersionReader reads the local version of a repository.
type VersionReader interface {
	Read(repository fleet.Repository) (versioning.Version, error)
}

// ReleaseCreator resolves and creates releases.
type ReleaseCreator interface {
	LatestPublished(executionContext context.Context, owner string, repository string) (versioning.Version, error)
	Create(executionContext context.Context, request Request) (Release, error)
}

// RemoteLocator resolves git remote URLs.
type RemoteLocator interface {
	GetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string) (string, error)
}

// ServiceDependencies enumerates the collaborators of the release service.
type ServiceDependencies struct {
	Roster        fleet.Roster
	VersionStore  VersionReader
	Publisher     ReleaseCreator
	RemoteLocator RemoteLocator
	Reporter      shared.Reporter
	Logger        *zap.Logger
}

// Options configures one release run.
type Options struct {
	Target        fleet.Target
	Owner         string
	Branch        string
	Body          string
	Prerelease    bool
	Draft         bool
	Latest        bool
	GenerateNotes bool
	DryRun        bool
}

// ResultEntry records the outcome for one repository.
type ResultEntry struct {
	Repository       string
	LocalVersion     versioning.Version
	PublishedVersion *versioning.Version
	Status           Status
	URL              string
}

// Result aggregates the entries of a release run in roster order.
type Result struct {
	Entries []ResultEntry
}

// EntriesWithStatus filters entries by status.
func (result Result) EntriesWithStatus(status Status) []ResultEntry {
	var filtered []ResultEntry
	for _, entry := range result.Entries {
		if entry.Status == status {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}

// Service publishes releases for fleet repositories.
type Service struct {
	roster        fleet.Roster
	versionStore  VersionReader
	publisher     ReleaseCreator
	remoteLocator RemoteLocator
	reporter      shared.Reporter
	logger        *zap.Logger
}

// NewService validates dependencies and constructs a Service.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.VersionStore == nil {
		return nil, ErrVersionStoreNotConfigured
	}
	if dependencies.Publisher == nil {
		return nil, ErrPublisherNotConfigured
	}
	if dependencies.RemoteLocator == nil {
		return nil, ErrRemoteLocatorNotConfigured
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		roster:        dependencies.Roster,
		versionStore:  dependencies.VersionStore,
		publisher:     dependencies.Publisher,
		remoteLocator: dependencies.RemoteLocator,
		reporter:      shared.ResolveReporter(dependencies.Reporter),
		logger:        logger,
	}, nil
}

// Publish releases every selected repository whose local version is newer than
// its latest published release. Declined releases are skipped; every other
// failure stops the run.
func (service *Service) Publish(executionContext context.Context, options Options) (Result, error) {
	repositories, selectionError := service.roster.Select(options.Target)
	if selectionError != nil {
		return Result{}, selectionError
	}
	service.logger.Info(logMessagePublishStartedConstant, zap.String(logFieldTargetConstant, options.Target.String()), zap.Bool(logFieldDryRunConstant, options.DryRun))

	result := Result{}
	for _, repository := range repositories {
		if contextError := executionContext.Err(); contextError != nil {
			return result, contextError
		}
		entry, publishError := service.publishRepository(executionContext, repository, options)
		if publishError != nil {
			return result, publishError
		}
		result.Entries = append(result.Entries, entry)
	}
	return result, nil
}

func (service *Service) publishRepository(executionContext context.Context, repository fleet.Repository, options Options) (ResultEntry, error) {
	localVersion, readError := service.versionStore.Read(repository)
	if readError != nil {
		return ResultEntry{}, fmt.Errorf(readVersionFailedTemplateConstant, repository.Name, readError)
	}

	owner, remoteRepository, ownerError := service.resolveOwner(executionContext, repository, options.Owner)
	if ownerError != nil {
		return ResultEntry{}, fmt.Errorf(ownerResolutionFailedTemplateConstant, repository.Name, ownerError)
	}

	entry := ResultEntry{Repository: repository.Name, LocalVersion: localVersion}
	publishedVersion, lookupError := service.publisher.LatestPublished(executionContext, owner, remoteRepository)
	switch {
	case lookupError == nil:
		entry.PublishedVersion = &publishedVersion
		if !IsNewVersionValid(localVersion, publishedVersion) {
			entry.Status = StatusNotNewer
			service.reporter.Printf(reportNotNewerTemplateConstant, repository.Name, localVersion.Tag(), publishedVersion.Tag())
			return entry, nil
		}
	case errors.Is(lookupError, ErrNoPublishedRelease):
	default:
		return ResultEntry{}, fmt.Errorf(lookupFailedTemplateConstant, repository.Name, lookupError)
	}

	request := Request{
		Owner:         owner,
		Repository:    remoteRepository,
		Version:       localVersion,
		TargetBranch:  options.Branch,
		Name:          localVersion.Tag(),
		Body:          options.Body,
		Draft:         options.Draft,
		Prerelease:    options.Prerelease || localVersion.IsDevelopment(),
		GenerateNotes: options.GenerateNotes,
		MakeLatest:    options.Latest,
	}

	if options.DryRun {
		entry.Status = StatusPlanned
		service.reporter.Printf(reportPlannedTemplateConstant, repository.Name, request.Version.Tag(), owner, remoteRepository, request.TargetBranch)
		return entry, nil
	}

	release, createError := service.publisher.Create(executionContext, request)
	if createError != nil {
		if errors.Is(createError, ErrUserAbort) {
			entry.Status = StatusDeclined
			service.reporter.Printf(reportDeclinedTemplateConstant, repository.Name, request.Version.Tag())
			return entry, nil
		}
		return ResultEntry{}, fmt.Errorf(createFailedTemplateConstant, repository.Name, createError)
	}

	entry.Status = StatusCreated
	entry.URL = release.URL
	service.reporter.Printf(reportCreatedTemplateConstant, repository.Name, request.Version.Tag(), release.URL)
	return entry, nil
}

// resolveOwner returns the configured owner with the fleet repository name, or
// the owner and repository parsed from the origin remote.
func (service *Service) resolveOwner(executionContext context.Context, repository fleet.Repository, configuredOwner string) (string, string, error) {
	trimmedOwner := strings.TrimSpace(configuredOwner)
	if len(trimmedOwner) > 0 {
		return trimmedOwner, repository.Name, nil
	}

	remoteURL, remoteError := service.remoteLocator.GetRemoteURL(executionContext, repository.Root, originRemoteNameConstant)
	if remoteError != nil {
		return "", "", remoteError
	}
	parsedRemote, parseError := gitrepo.ParseRemoteURL(remoteURL)
	if parseError != nil {
		return "", "", parseError
	}
	return parsedRemote.Owner, parsedRemote.Repository, nil
}
