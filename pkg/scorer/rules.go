package scorer

// Rule represents a scoring rule.
type Rule struct {
	Name        string
	Category    string // completeness, structure
	Severity    string // major, minor
	Description string
	// Weight is the percentage of a heading's share lost for per-heading rules,
	// and flat points deducted for document-level rules.
	Weight   int
	PerShare bool
}

// Rule names.
const (
	RuleSectionMissing     = "SECTION_MISSING"
	RuleSectionEmpty       = "SECTION_EMPTY"
	RuleSectionNotProvided = "SECTION_NOT_PROVIDED"
	RuleHeaderMissing      = "HEADER_MISSING"
	RuleUnexpectedSection  = "UNEXPECTED_SECTION"
)

//nolint:gochecknoglobals // Scoring configuration constants
var ScoringRules = map[string]Rule{
	// Completeness Rules
	RuleSectionMissing: {
		Name:        RuleSectionMissing,
		Category:    "completeness",
		Severity:    "major",
		Description: "Expected heading has no block in the extraction",
		Weight:      100,
		PerShare:    true,
	},
	RuleSectionEmpty: {
		Name:        RuleSectionEmpty,
		Category:    "completeness",
		Severity:    "major",
		Description: "Block exists but carries no content",
		Weight:      100,
		PerShare:    true,
	},
	RuleSectionNotProvided: {
		Name:        RuleSectionNotProvided,
		Category:    "completeness",
		Severity:    "minor",
		Description: "Block content is the not-provided marker",
		Weight:      50,
		PerShare:    true,
	},

	// Structure Rules
	RuleHeaderMissing: {
		Name:        RuleHeaderMissing,
		Category:    "structure",
		Severity:    "minor",
		Description: "No [HEADER] block with the consultant's name and position",
		Weight:      5,
	},
	RuleUnexpectedSection: {
		Name:        RuleUnexpectedSection,
		Category:    "structure",
		Severity:    "minor",
		Description: "Block heading is not one of the expected headings and will be appended",
		Weight:      2,
	},
}
