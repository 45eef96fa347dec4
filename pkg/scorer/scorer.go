package scorer

import (
	"fmt"
	"math"
	"strings"

	"github.com/nikogura/cv-convert/pkg/sections"
)

// Violation records one rule hit. Heading is empty for document-level rules.
type Violation struct {
	Rule    string `json:"rule"`
	Heading string `json:"heading,omitempty"`
}

// Score summarizes how completely an extraction covers the expected headings.
type Score struct {
	Percent     int         `json:"percent"`
	Filled      []string    `json:"filled"`
	Missing     []string    `json:"missing"`
	NotProvided []string    `json:"not_provided"`
	Empty       []string    `json:"empty"`
	Unexpected  []string    `json:"unexpected"`
	Violations  []Violation `json:"violations"`
}

// Scorer calculates completeness scores against a list of expected headings.
type Scorer struct {
	Expected []string
	// ExpectHeader adds HEADER_MISSING when the document has no header block.
	ExpectHeader bool
}

// NewScorer creates a new scorer instance.
func NewScorer(expected []string) (scorer *Scorer) {
	scorer = &Scorer{Expected: expected}
	return scorer
}

// Score evaluates doc. Every expected heading holds an equal share of 100 points.
func (s *Scorer) Score(doc sections.TaggedDocument) (score Score) {
	score = Score{
		Filled:      []string{},
		Missing:     []string{},
		NotProvided: []string{},
		Empty:       []string{},
		Unexpected:  []string{},
		Violations:  []Violation{},
	}

	for _, heading := range s.Expected {
		block, ok := findBlock(doc, heading)
		switch {
		case !ok:
			score.Missing = append(score.Missing, heading)
			score.Violations = append(score.Violations, Violation{Rule: RuleSectionMissing, Heading: heading})
		case strings.TrimSpace(block.Text()) == "":
			score.Empty = append(score.Empty, heading)
			score.Violations = append(score.Violations, Violation{Rule: RuleSectionEmpty, Heading: heading})
		case isNotProvided(block.Text()):
			score.NotProvided = append(score.NotProvided, heading)
			score.Violations = append(score.Violations, Violation{Rule: RuleSectionNotProvided, Heading: heading})
		default:
			score.Filled = append(score.Filled, heading)
		}
	}

	for _, b := range doc.Blocks {
		if b.Heading == "" || s.expects(b.Heading) {
			continue
		}
		score.Unexpected = append(score.Unexpected, b.Heading)
		score.Violations = append(score.Violations, Violation{Rule: RuleUnexpectedSection, Heading: b.Heading})
	}

	if s.ExpectHeader && (doc.Header == nil || len(doc.Header.Content) == 0) {
		score.Violations = append(score.Violations, Violation{Rule: RuleHeaderMissing})
	}

	score.Percent = s.calculatePercent(score.Violations)
	return score
}

func (s *Scorer) calculatePercent(violations []Violation) (percent int) {
	total := 100.0
	share := 0.0
	if len(s.Expected) > 0 {
		share = 100.0 / float64(len(s.Expected))
	}

	for _, v := range violations {
		rule, exists := ScoringRules[v.Rule]
		if !exists {
			continue
		}
		if rule.PerShare {
			total -= share * float64(rule.Weight) / 100.0
			continue
		}
		total -= float64(rule.Weight)
	}

	if total < 0 {
		total = 0
	}

	percent = int(math.Round(total))
	return percent
}

func (s *Scorer) expects(heading string) (ok bool) {
	for _, e := range s.Expected {
		if sameHeading(e, heading) {
			ok = true
			return ok
		}
	}
	return ok
}

// sameHeading compares trimmed headings, treating "[SKILLS]" and "Skills" as the same placeholder.
func sameHeading(a, b string) (same bool) {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == b {
		same = true
		return same
	}
	ta, okA := sections.TokenFor(a)
	tb, okB := sections.TokenFor(b)
	same = okA && okB && ta == tb
	return same
}

func findBlock(doc sections.TaggedDocument, heading string) (block sections.Block, ok bool) {
	for _, b := range doc.Blocks {
		if b.Heading != "" && sameHeading(b.Heading, heading) {
			block = b
			ok = true
			return block, ok
		}
	}
	return block, ok
}

func isNotProvided(text string) (ok bool) {
	trimmed := strings.TrimRight(strings.TrimSpace(text), ".")
	ok = strings.EqualFold(trimmed, sections.NotProvided)
	return ok
}

// Lessons turns a score into short remarks for the user.
func (s *Scorer) Lessons(score Score) (lessons []string) {
	lessons = []string{}

	if len(score.Missing) > 0 {
		lessons = append(lessons, "Sections not found in the extraction: "+strings.Join(score.Missing, ", "))
	}

	if len(score.NotProvided) > 0 {
		lessons = append(lessons, "The CV did not provide: "+strings.Join(score.NotProvided, ", "))
	}

	if len(score.Unexpected) > 0 {
		lessons = append(lessons, "Sections outside the expected list: "+strings.Join(score.Unexpected, ", "))
	}

	for _, v := range score.Violations {
		if v.Rule == RuleHeaderMissing {
			lessons = append(lessons, "No consultant name and position header was produced")
		}
	}

	if score.Percent < 50 {
		lessons = append(lessons, "Less than half of the template could be filled - review the output before sending it")
	}

	return lessons
}

// Summary renders the score and its lessons as plain text.
func (s *Scorer) Summary(score Score) (summary string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Completeness: %d/100 (%d of %d sections filled)\n", score.Percent, len(score.Filled), len(s.Expected))

	lessons := s.Lessons(score)
	if len(lessons) > 0 {
		b.WriteString("\nNotes:\n")
		for _, lesson := range lessons {
			b.WriteString("- " + lesson + "\n")
		}
	}

	summary = b.String()
	return summary
}
