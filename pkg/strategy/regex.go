package strategy

import (
	"context"
	"regexp"
	"strings"

	"github.com/nikogura/cv-convert/pkg/sections"
)

//nolint:gochecknoglobals // compiled once
var (
	emailRegex   = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phoneRegex   = regexp.MustCompile(`\+\d{1,3}(?:[\s.-]?\(?\d{2,4}\)?){2,4}|\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
	nameWord     = regexp.MustCompile(`^[A-Z][A-Za-z'.-]+$`)
	addressLabel = regexp.MustCompile(`(?i)^\s*(?:address|location)\s*:\s*(.+)$`)
	streetRegex  = regexp.MustCompile(`(?i)^\d+[A-Za-z]?\s+[A-Za-z][\w\s.'-]*\b(?:street|st|road|rd|avenue|ave|lane|ln|drive|dr|boulevard|blvd|way|court|ct|place|pl|square|sq)\b\.?`)
	headerTrim   = regexp.MustCompile(`^[#*\s]+|[#*:\s]+$`)
)

// sectionHeaders maps heading phrases to placeholder tokens. An empty token marks a section that is
// recognized only so its lines do not leak into the previous one.
//
//nolint:gochecknoglobals // lookup table
var sectionHeaders = map[string]string{
	"summary":                 sections.TokenSummary,
	"profile":                 sections.TokenSummary,
	"professional summary":    sections.TokenSummary,
	"career summary":          sections.TokenSummary,
	"objective":               sections.TokenSummary,
	"about me":                sections.TokenSummary,
	"experience":              sections.TokenExperience,
	"work experience":         sections.TokenExperience,
	"professional experience": sections.TokenExperience,
	"employment":              sections.TokenExperience,
	"employment history":      sections.TokenExperience,
	"career history":          sections.TokenExperience,
	"education":               sections.TokenEducation,
	"academic background":     sections.TokenEducation,
	"qualifications":          sections.TokenEducation,
	"skills":                  sections.TokenSkills,
	"technical skills":        sections.TokenSkills,
	"key skills":              sections.TokenSkills,
	"competencies":            sections.TokenSkills,
	"core competencies":       sections.TokenSkills,
	"technologies":            sections.TokenSkills,
	"projects":                "",
	"certifications":          "",
	"awards":                  "",
	"languages":               "",
	"interests":               "",
	"hobbies":                 "",
	"references":              "",
	"contact":                 "",
}

// RegexStrategy finds contact details with patterns and slices the text into sections by well-known headings.
type RegexStrategy struct{}

// NewRegexStrategy returns a RegexStrategy.
func NewRegexStrategy() (s *RegexStrategy) {
	s = &RegexStrategy{}
	return s
}

// Name returns KindRegex.
func (s *RegexStrategy) Name() (name string) {
	name = KindRegex
	return name
}

// Extract never fails; text without recognizable fields yields an empty document.
func (s *RegexStrategy) Extract(ctx context.Context, cvText string) (doc sections.TaggedDocument, err error) {
	text := strings.ReplaceAll(cvText, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return doc, err
	}

	lines := strings.Split(text, "\n")
	values := make(map[string][]string)

	if name := findName(lines); name != "" {
		values[sections.TokenName] = []string{name}
	}
	if address := findAddress(lines); address != "" {
		values[sections.TokenAddress] = []string{address}
	}
	if phone := phoneRegex.FindString(text); phone != "" {
		values[sections.TokenPhone] = []string{strings.TrimSpace(phone)}
	}
	if email := emailRegex.FindString(text); email != "" {
		values[sections.TokenEmail] = []string{email}
	}

	for token, content := range splitSections(lines) {
		values[token] = content
	}

	doc = placeholderDocument(values)
	return doc, err
}

// headerToken reports whether a line is a section heading, and which token it feeds.
func headerToken(line string) (token string, ok bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || len(trimmed) > 50 {
		return token, ok
	}
	key := strings.ToLower(headerTrim.ReplaceAllString(trimmed, ""))
	token, ok = sectionHeaders[key]
	return token, ok
}

// findName looks at the first five non-blank lines for two to four capitalized words.
func findName(lines []string) (name string) {
	seen := 0
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		seen++
		if seen > 5 {
			break
		}
		if strings.Contains(line, "@") || phoneRegex.MatchString(line) {
			continue
		}
		if _, isHeader := headerToken(line); isHeader {
			continue
		}
		if looksLikeName(line) {
			name = line
			return name
		}
	}
	return name
}

func looksLikeName(line string) (ok bool) {
	words := strings.Fields(line)
	if len(words) < 2 || len(words) > 4 {
		return ok
	}
	for _, word := range words {
		if !nameWord.MatchString(word) {
			return ok
		}
	}
	ok = true
	return ok
}

// findAddress prefers an explicit "Address:" line and falls back to a street-looking line.
func findAddress(lines []string) (address string) {
	for _, line := range lines {
		if m := addressLabel.FindStringSubmatch(line); m != nil {
			address = strings.TrimSpace(m[1])
			return address
		}
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if streetRegex.MatchString(line) {
			address = line
			return address
		}
	}
	return address
}

// splitSections collects the non-blank lines under each recognized heading. Repeated headings accumulate.
func splitSections(lines []string) (found map[string][]string) {
	found = make(map[string][]string)
	current := ""
	inSection := false

	for _, line := range lines {
		if token, isHeader := headerToken(line); isHeader {
			current = token
			inSection = true
			continue
		}
		line = strings.TrimSpace(line)
		if !inSection || current == "" || line == "" {
			continue
		}
		found[current] = append(found[current], line)
	}

	return found
}
