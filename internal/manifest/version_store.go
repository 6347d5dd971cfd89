package manifest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/fleet/internal/fleet"
	"github.com/temirov/fleet/internal/versioning"
)

const (
	declarationMarkerConstant           = "__version__"
	declarationAssignmentConstant       = "="
	declarationLineTemplateConstant     = "%s__version__ = '%s'"
	declarationMissingTemplateConstant  = "%w: %s"
	declarationReadTemplateConstant     = "failed to read version declaration %s: %w"
	declarationWriteTemplateConstant    = "failed to write version declaration %s: %w"
	declarationParseTemplateConstant    = "failed to parse version declaration %s: %w"
	declarationWrittenMessageConstant   = "version declaration updated"
	declarationPlannedMessageConstant   = "version declaration update planned"
	declarationUnchangedMessageConstant = "version declaration line not found; file left unchanged"
	logFieldRepositoryConstant          = "repository"
	logFieldPathConstant                = "path"
	logFieldVersionConstant             = "version"
	logFieldDryRunConstant              = "dry_run"
	logFieldChangedLinesConstant        = "changed_lines"
)

// ErrDeclarationNotFound indicates the declaration file or its version line is missing.
var ErrDeclarationNotFound = errors.New("version declaration not found")

// WriteResult describes the outcome of rewriting a declaration file.
type WriteResult struct {
	Path         string
	LineNumber   int
	PreviousLine string
	NextLine     string
	Applied      bool
}

// Changed reports whether the declaration line differs after the rewrite.
func (result WriteResult) Changed() bool {
	return result.LineNumber > 0 && result.PreviousLine != result.NextLine
}

// VersionStore reads and writes the version declaration of fleet repositories.
type VersionStore struct {
	fileSystem afero.Fs
	logger     *zap.Logger
}

// NewVersionStore constructs a VersionStore over the provided filesystem.
func NewVersionStore(fileSystem afero.Fs, logger *zap.Logger) *VersionStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VersionStore{fileSystem: fileSystem, logger: logger}
}

// Read returns the version declared by the first "__version__" line.
func (store *VersionStore) Read(repository fleet.Repository) (versioning.Version, error) {
	declarationFile, readError := store.load(repository)
	if readError != nil {
		return versioning.Version{}, readError
	}

	lineIndex := findDeclarationLine(declarationFile.lines)
	if lineIndex < 0 {
		return versioning.Version{}, fmt.Errorf(declarationMissingTemplateConstant, ErrDeclarationNotFound, declarationFile.path)
	}

	declaredVersion, parseError := parseDeclarationLine(declarationFile.lines[lineIndex])
	if parseError != nil {
		return versioning.Version{}, fmt.Errorf(declarationParseTemplateConstant, declarationFile.path, parseError)
	}
	return declaredVersion, nil
}

// Write replaces the declaration line with the canonical form for version.
// A file without a declaration line is rewritten with identical content.
// Nothing is written when dryRun is set.
func (store *VersionStore) Write(repository fleet.Repository, version versioning.Version, dryRun bool) (WriteResult, error) {
	declarationFile, readError := store.load(repository)
	if readError != nil {
		return WriteResult{}, readError
	}

	result := WriteResult{Path: declarationFile.path}
	if lineIndex := findDeclarationLine(declarationFile.lines); lineIndex >= 0 {
		previousLine := declarationFile.lines[lineIndex]
		nextLine := fmt.Sprintf(declarationLineTemplateConstant, leadingWhitespace(previousLine), version.String())
		declarationFile.lines[lineIndex] = nextLine
		result.LineNumber = lineIndex + 1
		result.PreviousLine = previousLine
		result.NextLine = nextLine
	}

	fields := []zap.Field{
		zap.String(logFieldRepositoryConstant, repository.Name),
		zap.String(logFieldPathConstant, declarationFile.path),
		zap.String(logFieldVersionConstant, version.String()),
		zap.Bool(logFieldDryRunConstant, dryRun),
	}
	if result.LineNumber == 0 {
		store.logger.Warn(declarationUnchangedMessageConstant, fields...)
	}

	if dryRun {
		store.logger.Debug(declarationPlannedMessageConstant, fields...)
		return result, nil
	}

	if writeError := declarationFile.write(store.fileSystem); writeError != nil {
		return WriteResult{}, fmt.Errorf(declarationWriteTemplateConstant, declarationFile.path, writeError)
	}
	result.Applied = true
	store.logger.Debug(declarationWrittenMessageConstant, fields...)
	return result, nil
}

func (store *VersionStore) load(repository fleet.Repository) (lineFile, error) {
	declarationPath := repository.DeclarationPath()
	declarationFile, readError := readLineFile(store.fileSystem, declarationPath)
	if readError != nil {
		if isNotExist(readError) {
			return lineFile{}, fmt.Errorf(declarationMissingTemplateConstant, ErrDeclarationNotFound, declarationPath)
		}
		return lineFile{}, fmt.Errorf(declarationReadTemplateConstant, declarationPath, readError)
	}
	return declarationFile, nil
}

func findDeclarationLine(lines []string) int {
	for lineIndex, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), declarationMarkerConstant) {
			return lineIndex
		}
	}
	return -1
}

func parseDeclarationLine(line string) (versioning.Version, error) {
	_, value, _ := strings.Cut(line, declarationAssignmentConstant)
	return versioning.Parse(value)
}
