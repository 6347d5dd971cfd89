package manifest

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/fleet/internal/fleet"
	"github.com/temirov/fleet/internal/versioning"
)

const (
	requirementPrefixTemplateConstant  = "\"%s>"
	requirementPatternTemplateConstant = `"%s>=?\s*[^"',;\s\]]*`
	requirementTemplateConstant        = "\"%s>=%s"
	corePatternTemplateConstant        = `(^|[^A-Za-z0-9_.-])%s>=?\s*[^"',;\s\]]*`
	coreTemplateConstant               = "${1}%s>=%s"
	extrasPrefixTemplateConstant       = "%s ="
	extrasLineTemplateConstant         = "%s%s = [ \"%s>=%s\" ]"
	manifestMissingTemplateConstant    = "%w: %s"
	manifestReadTemplateConstant       = "failed to read manifest %s: %w"
	manifestWriteTemplateConstant      = "failed to write manifest %s: %w"
	manifestWrittenMessageConstant     = "manifest dependencies rewritten"
	manifestPlannedMessageConstant     = "manifest dependency rewrite planned"
)

// ErrManifestNotFound indicates the dependency manifest is missing.
var ErrManifestNotFound = errors.New("dependency manifest not found")

// PinnedVersion pairs a fleet repository with the version its dependents should require.
type PinnedVersion struct {
	Repository fleet.Repository
	Version    versioning.Version
}

// LineChange records one rewritten manifest line.
type LineChange struct {
	LineNumber   int
	PreviousLine string
	NextLine     string
}

// RewriteResult describes the outcome of rewriting a manifest.
type RewriteResult struct {
	Path    string
	Changes []LineChange
	Applied bool
}

// DependencyRewriter updates minimum-version pins on fleet packages inside build manifests.
type DependencyRewriter struct {
	fileSystem afero.Fs
	logger     *zap.Logger
}

// NewDependencyRewriter constructs a DependencyRewriter over the provided filesystem.
func NewDependencyRewriter(fileSystem afero.Fs, logger *zap.Logger) *DependencyRewriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DependencyRewriter{fileSystem: fileSystem, logger: logger}
}

type requirementRule struct {
	prefix      string
	pattern     *regexp.Regexp
	replacement string
}

func newRequirementRule(manifestName string, version versioning.Version) requirementRule {
	quotedName := regexp.QuoteMeta(manifestName)
	return requirementRule{
		prefix:      fmt.Sprintf(requirementPrefixTemplateConstant, manifestName),
		pattern:     regexp.MustCompile(fmt.Sprintf(requirementPatternTemplateConstant, quotedName)),
		replacement: fmt.Sprintf(requirementTemplateConstant, manifestName, version.String()),
	}
}

// newCoreRequirementRule matches the core name followed by ">" under any
// quoting, but not as the tail of a longer package name.
func newCoreRequirementRule(manifestName string, version versioning.Version) requirementRule {
	quotedName := regexp.QuoteMeta(manifestName)
	return requirementRule{
		pattern:     regexp.MustCompile(fmt.Sprintf(corePatternTemplateConstant, quotedName)),
		replacement: fmt.Sprintf(coreTemplateConstant, manifestName, version.String()),
	}
}

func (rule requirementRule) apply(line string) string {
	return rule.pattern.ReplaceAllString(line, rule.replacement)
}

// Rewrite pins the core package to coreVersion and every sibling to its
// paired version. The caller resolves all versions before the first rewrite
// of a pass so that no manifest observes a half-applied bump.
func (rewriter *DependencyRewriter) Rewrite(repository fleet.Repository, core PinnedVersion, siblings []PinnedVersion, dryRun bool) (RewriteResult, error) {
	manifestPath := repository.ManifestPath()
	manifestFile, readError := readLineFile(rewriter.fileSystem, manifestPath)
	if readError != nil {
		if isNotExist(readError) {
			return RewriteResult{}, fmt.Errorf(manifestMissingTemplateConstant, ErrManifestNotFound, manifestPath)
		}
		return RewriteResult{}, fmt.Errorf(manifestReadTemplateConstant, manifestPath, readError)
	}

	coreRule := newCoreRequirementRule(core.Repository.ManifestName(), core.Version)
	siblingRules := make([]requirementRule, 0, len(siblings))
	for _, sibling := range siblings {
		siblingRules = append(siblingRules, newRequirementRule(sibling.Repository.ManifestName(), sibling.Version))
	}

	result := RewriteResult{Path: manifestPath}
	for lineIndex, previousLine := range manifestFile.lines {
		nextLine := rewriteLine(previousLine, core, coreRule, siblings, siblingRules)
		if nextLine == previousLine {
			continue
		}
		manifestFile.lines[lineIndex] = nextLine
		result.Changes = append(result.Changes, LineChange{LineNumber: lineIndex + 1, PreviousLine: previousLine, NextLine: nextLine})
	}

	fields := []zap.Field{
		zap.String(logFieldRepositoryConstant, repository.Name),
		zap.String(logFieldPathConstant, manifestPath),
		zap.Int(logFieldChangedLinesConstant, len(result.Changes)),
		zap.Bool(logFieldDryRunConstant, dryRun),
	}
	if dryRun {
		rewriter.logger.Debug(manifestPlannedMessageConstant, fields...)
		return result, nil
	}

	if writeError := manifestFile.write(rewriter.fileSystem); writeError != nil {
		return RewriteResult{}, fmt.Errorf(manifestWriteTemplateConstant, manifestPath, writeError)
	}
	result.Applied = true
	rewriter.logger.Debug(manifestWrittenMessageConstant, fields...)
	return result, nil
}

func rewriteLine(line string, core PinnedVersion, coreRule requirementRule, siblings []PinnedVersion, siblingRules []requirementRule) string {
	if coreRule.pattern.MatchString(line) {
		return coreRule.apply(line)
	}

	trimmedLine := strings.TrimSpace(line)

	for siblingIndex, sibling := range siblings {
		if strings.HasPrefix(trimmedLine, siblingRules[siblingIndex].prefix) {
			return siblingRules[siblingIndex].apply(line)
		}

		extrasKey := sibling.Repository.ExtrasKey()
		if extrasKey == core.Repository.ManifestName() {
			continue
		}
		if strings.HasPrefix(trimmedLine, fmt.Sprintf(extrasPrefixTemplateConstant, extrasKey)) {
			return fmt.Sprintf(extrasLineTemplateConstant, leadingWhitespace(line), extrasKey, sibling.Repository.ManifestName(), sibling.Version.String())
		}
	}
	return line
}
