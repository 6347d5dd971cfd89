package versioning

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	pep440 "github.com/aquasecurity/go-pep440-version"
)

const (
	releaseTemplateConstant         = "%d.%d.%d"
	developmentTemplateConstant     = "%d.%d.%d.dev%d"
	tagPrefixConstant               = "v"
	quoteCharactersConstant         = "'\" \t"
	emptyVersionMessageConstant     = "version is empty"
	malformedVersionMessageConstant = "expected MAJOR.MINOR.PATCH with an optional .devN suffix"
	parseErrorTemplateConstant      = "invalid version %q: %s"
)

var versionPattern = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)(?:\.?dev(\d*))?$`)

// ParseError reports a version string that does not follow the MAJOR.MINOR.PATCH[.devN] form.
type ParseError struct {
	Input  string
	Reason string
}

// Error describes the rejected input.
func (parseError *ParseError) Error() string {
	return fmt.Sprintf(parseErrorTemplateConstant, parseError.Input, parseError.Reason)
}

// Version is an ordered release identifier. The zero value is 0.0.0.
type Version struct {
	Major             int
	Minor             int
	Patch             int
	Development       bool
	DevelopmentNumber int
}

// New constructs a final release version.
func New(major int, minor int, patch int) Version {
	return Version{Major: major, Minor: minor, Patch: patch}
}

// Parse converts text such as "1.2.3", "'1.2.3.dev0'" or "v1.2.3" into a Version.
// Surrounding quotes and whitespace are ignored; everything else must match exactly.
func Parse(rawVersion string) (Version, error) {
	trimmedVersion := strings.Trim(rawVersion, quoteCharactersConstant)
	trimmedVersion = strings.TrimPrefix(trimmedVersion, tagPrefixConstant)
	if len(trimmedVersion) == 0 {
		return Version{}, &ParseError{Input: rawVersion, Reason: emptyVersionMessageConstant}
	}

	matches := versionPattern.FindStringSubmatch(trimmedVersion)
	if matches == nil {
		return Version{}, &ParseError{Input: rawVersion, Reason: malformedVersionMessageConstant}
	}

	components := make([]int, 0, 4)
	for _, component := range matches[1:4] {
		value, conversionError := strconv.Atoi(component)
		if conversionError != nil {
			return Version{}, &ParseError{Input: rawVersion, Reason: conversionError.Error()}
		}
		components = append(components, value)
	}

	parsedVersion := New(components[0], components[1], components[2])
	if strings.Contains(trimmedVersion, "dev") {
		parsedVersion.Development = true
		if len(matches[4]) > 0 {
			developmentNumber, conversionError := strconv.Atoi(matches[4])
			if conversionError != nil {
				return Version{}, &ParseError{Input: rawVersion, Reason: conversionError.Error()}
			}
			parsedVersion.DevelopmentNumber = developmentNumber
		}
	}
	return parsedVersion, nil
}

// MustParse is Parse for literals known to be valid. It panics otherwise.
func MustParse(rawVersion string) Version {
	parsedVersion, parseError := Parse(rawVersion)
	if parseError != nil {
		panic(parseError)
	}
	return parsedVersion
}

// String renders the canonical form, which is also the branch name for the version.
func (version Version) String() string {
	if version.Development {
		return fmt.Sprintf(developmentTemplateConstant, version.Major, version.Minor, version.Patch, version.DevelopmentNumber)
	}
	return fmt.Sprintf(releaseTemplateConstant, version.Major, version.Minor, version.Patch)
}

// Tag renders the release tag for the version.
func (version Version) Tag() string {
	return tagPrefixConstant + version.String()
}

// IsDevelopment reports whether the version carries a development qualifier.
func (version Version) IsDevelopment() bool {
	return version.Development
}

// BumpPatch increments the patch number.
func (version Version) BumpPatch() Version {
	return New(version.Major, version.Minor, version.Patch+1)
}

// BumpMinor increments the minor number and resets the patch number.
func (version Version) BumpMinor() Version {
	return New(version.Major, version.Minor+1, 0)
}

// BumpMajor increments the major number and resets minor and patch numbers.
func (version Version) BumpMajor() Version {
	return New(version.Major+1, 0, 0)
}

// BumpDevelopment increments the patch number and marks the result as the first development release.
func (version Version) BumpDevelopment() Version {
	nextVersion := version.BumpPatch()
	nextVersion.Development = true
	return nextVersion
}

// Compare returns -1, 0 or 1 as version sorts before, equal to, or after other.
func (version Version) Compare(other Version) int {
	left, leftError := pep440.Parse(version.String())
	right, rightError := pep440.Parse(other.String())
	if leftError != nil || rightError != nil {
		return strings.Compare(version.String(), other.String())
	}
	return left.Compare(right)
}

// GreaterThan reports whether version sorts strictly after other.
func (version Version) GreaterThan(other Version) bool {
	return version.Compare(other) > 0
}
