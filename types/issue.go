package types

// Severity levels, highest first.
const (
	SeverityBlocker  = "BLOCKER"
	SeverityCritical = "CRITICAL"
	SeverityMajor    = "MAJOR"
	SeverityMinor    = "MINOR"
	SeverityInfo     = "INFO"
)

// Issue types.
const (
	TypeBug             = "BUG"
	TypeVulnerability   = "VULNERABILITY"
	TypeCodeSmell       = "CODE_SMELL"
	TypeSecurityHotspot = "SECURITY_HOTSPOT"
)

// Issue is a single rule violation raised by the engine.
type Issue struct {
	Severity string
	Type     string
	RuleKey  string
	RuleName string
	Message  string

	// InputFile is nil for issues that are not attached to a file.
	InputFile InputFile

	StartLine       int
	StartLineOffset int
	EndLine         int
	EndLineOffset   int
}

// ValidSeverity reports whether s is a known severity.
func ValidSeverity(s string) bool {
	switch s {
	case SeverityBlocker, SeverityCritical, SeverityMajor, SeverityMinor, SeverityInfo:
		return true
	}
	return false
}

// ValidType reports whether t is a known issue type.
func ValidType(t string) bool {
	switch t {
	case TypeBug, TypeVulnerability, TypeCodeSmell, TypeSecurityHotspot:
		return true
	}
	return false
}
