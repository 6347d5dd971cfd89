package update

import (
	"fmt"
	"strings"

	"github.com/temirov/fleet/internal/versioning"
)

const unknownIntentTemplateConstant = "unknown update intent %q"

// IntentKind enumerates the bump requested for a run.
type IntentKind string

// Supported intents.
const (
	IntentPatch    IntentKind = IntentKind("patch")
	IntentMinor    IntentKind = IntentKind("minor")
	IntentMajor    IntentKind = IntentKind("major")
	IntentDev      IntentKind = IntentKind("dev")
	IntentExplicit IntentKind = IntentKind("explicit")
	IntentRestore  IntentKind = IntentKind("restore")
)

// Intent is the bump resolved once per run. The zero value is a patch bump.
type Intent struct {
	Kind    IntentKind
	Version versioning.Version
}

// ExplicitIntent sets every targeted repository to the version.
func ExplicitIntent(version versioning.Version) Intent {
	return Intent{Kind: IntentExplicit, Version: version}
}

// ParseIntentKind converts a textual intent name.
func ParseIntentKind(value string) (IntentKind, error) {
	switch IntentKind(strings.ToLower(strings.TrimSpace(value))) {
	case "", IntentPatch:
		return IntentPatch, nil
	case IntentMinor:
		return IntentMinor, nil
	case IntentMajor:
		return IntentMajor, nil
	case IntentDev:
		return IntentDev, nil
	case IntentExplicit:
		return IntentExplicit, nil
	case IntentRestore:
		return IntentRestore, nil
	default:
		return "", fmt.Errorf(unknownIntentTemplateConstant, value)
	}
}

// Normalized replaces the zero kind with the patch default.
func (intent Intent) Normalized() Intent {
	if len(intent.Kind) == 0 {
		intent.Kind = IntentPatch
	}
	return intent
}

// IsRestore reports whether the run rolls repositories back instead of bumping.
func (intent Intent) IsRestore() bool {
	return intent.Kind == IntentRestore
}

// Next computes the version that follows current. Explicit versions are used
// as given, without an ordering check.
func (intent Intent) Next(current versioning.Version) versioning.Version {
	switch intent.Normalized().Kind {
	case IntentMinor:
		return current.BumpMinor()
	case IntentMajor:
		return current.BumpMajor()
	case IntentDev:
		return current.BumpDevelopment()
	case IntentExplicit:
		return intent.Version
	case IntentRestore:
		return current
	default:
		return current.BumpPatch()
	}
}

// String names the intent, including the explicit version when present.
func (intent Intent) String() string {
	normalized := intent.Normalized()
	if normalized.Kind == IntentExplicit {
		return string(normalized.Kind) + "(" + normalized.Version.String() + ")"
	}
	return string(normalized.Kind)
}
