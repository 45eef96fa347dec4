package strategy

import (
	"context"
	"regexp"
	"strings"

	"github.com/nikogura/cv-convert/pkg/sections"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Entity labels produced by Tag.
const (
	LabelPerson   = "PERSON"
	LabelOrg      = "ORG"
	LabelDate     = "DATE"
	LabelLocation = "LOCATION"
	LabelSkill    = "SKILL"
	LabelDegree   = "DEGREE"
)

// Entity is a labelled span of CV text. Line is the zero-based line index it was found on.
type Entity struct {
	Label string `json:"label"`
	Text  string `json:"text"`
	Line  int    `json:"line"`
}

//nolint:gochecknoglobals // compiled once
var (
	dateRegex   = regexp.MustCompile(`(?i)\b(?:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?\s+(?:19|20)\d{2}\b|\b(?:19|20)\d{2}\s*[-\x{2013}]\s*(?:(?:19|20)\d{2}|present|current|now)\b|\b\d{1,2}/(?:19|20)\d{2}\b|\b(?:19|20)\d{2}\b`)
	degreeRegex = regexp.MustCompile(`(?i)\b(?:bachelor(?:'s)?(?:\s+of\s+\w+)?|master(?:'s)?(?:\s+of\s+\w+)?|doctorate|ph\.?d|diploma|b\.?sc|m\.?sc|b\.?eng|m\.?eng|mba|hnd|a-levels?)\b`)
	orgRegex    = regexp.MustCompile(`\b(?:[A-Z][\w&'-]*\s+){0,3}(?:Inc|Ltd|LLC|PLC|plc|GmbH|Corp|Corporation|Company|Group|Bank|Consulting|Technologies|Solutions|Systems|Labs|Partners|University|College|Institute|School|Academy)\b\.?(?:\s+of\s+[A-Z][\w&'-]*(?:\s+[A-Z][\w&'-]*)?)?`)
	atOrgRegex  = regexp.MustCompile(`\bat\s+([A-Z][\w&.'-]*(?:\s+[A-Z][\w&.'-]*){0,3})`)
	eduOrgWords = regexp.MustCompile(`\b(?:University|College|Institute|School|Academy)\b`)
	bulletLine  = regexp.MustCompile(`^\s*(?:[-*\x{2022}]|\d+\.)\s+`)
)

// NLPStrategy labels entities line by line and assembles placeholder fields from the labels.
type NLPStrategy struct{}

// NewNLPStrategy returns an NLPStrategy.
func NewNLPStrategy() (s *NLPStrategy) {
	s = &NLPStrategy{}
	return s
}

// Name returns KindNLP.
func (s *NLPStrategy) Name() (name string) {
	name = KindNLP
	return name
}

// Tag labels PERSON, ORG, DATE, LOCATION, SKILL and DEGREE entities in text.
func Tag(text string) (entities []Entity) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	title := cases.Title(language.English)

	nonBlank := 0
	personFound := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		nonBlank++

		found := tagLine(i, trimmed)
		if !personFound && nonBlank <= 5 && len(found) == 0 && isPersonLine(trimmed, title) {
			found = append(found, Entity{Label: LabelPerson, Text: trimmed, Line: i})
			personFound = true
		}
		entities = append(entities, found...)
	}

	return entities
}

func tagLine(i int, line string) (found []Entity) {
	add := func(label, text string) {
		text = strings.TrimSpace(text)
		if text == "" {
			return
		}
		for _, e := range found {
			if e.Label == label && e.Text == text {
				return
			}
		}
		found = append(found, Entity{Label: label, Text: text, Line: i})
	}

	for _, m := range dateRegex.FindAllString(line, -1) {
		add(LabelDate, m)
	}
	for _, m := range degreeRegex.FindAllString(line, -1) {
		add(LabelDegree, m)
	}
	for _, m := range orgRegex.FindAllString(line, -1) {
		add(LabelOrg, m)
	}
	for _, m := range atOrgRegex.FindAllStringSubmatch(line, -1) {
		add(LabelOrg, m[1])
	}

	normalized := NormalizeText(line)
	for _, name := range findTerms(normalized, locationTerms) {
		add(LabelLocation, name)
	}
	for _, name := range findTerms(normalized, skillTerms) {
		add(LabelSkill, name)
	}

	return found
}

// isPersonLine accepts two to four alphabetic words already in title case.
func isPersonLine(line string, title cases.Caser) (ok bool) {
	if strings.Contains(line, "@") || phoneRegex.MatchString(line) {
		return ok
	}
	if _, isHeader := headerToken(line); isHeader {
		return ok
	}
	if !looksLikeName(line) {
		return ok
	}
	ok = title.String(strings.ToLower(line)) == line
	return ok
}

// Extract never fails; text without recognizable entities yields an empty document.
func (s *NLPStrategy) Extract(ctx context.Context, cvText string) (doc sections.TaggedDocument, err error) {
	text := strings.ReplaceAll(cvText, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return doc, err
	}

	lines := strings.Split(text, "\n")
	entities := Tag(text)
	byLine := make(map[int][]Entity)
	for _, e := range entities {
		byLine[e.Line] = append(byLine[e.Line], e)
	}

	values := make(map[string][]string)

	for _, e := range entities {
		if e.Label == LabelPerson {
			values[sections.TokenName] = []string{e.Text}
			break
		}
	}

	if address := nlpAddress(lines, byLine); address != "" {
		values[sections.TokenAddress] = []string{address}
	}
	if phone := phoneRegex.FindString(text); phone != "" {
		values[sections.TokenPhone] = []string{strings.TrimSpace(phone)}
	}
	if email := emailRegex.FindString(text); email != "" {
		values[sections.TokenEmail] = []string{email}
	}

	if summary := nlpSummary(lines, byLine); summary != "" {
		values[sections.TokenSummary] = []string{summary}
	}

	experience, education := nlpHistory(lines, byLine)
	values[sections.TokenExperience] = experience
	values[sections.TokenEducation] = education

	var skills []string
	for _, e := range entities {
		if e.Label == LabelSkill && !containsString(skills, e.Text) {
			skills = append(skills, e.Text)
		}
	}
	if len(skills) > 0 {
		values[sections.TokenSkills] = []string{strings.Join(skills, ", ")}
	}

	doc = placeholderDocument(values)
	return doc, err
}

func hasLabel(entities []Entity, labels ...string) (ok bool) {
	for _, e := range entities {
		for _, l := range labels {
			if e.Label == l {
				ok = true
				return ok
			}
		}
	}
	return ok
}

// nlpAddress prefers an explicit "Address:" line, then the first line naming a place without an employer or date.
func nlpAddress(lines []string, byLine map[int][]Entity) (address string) {
	for _, line := range lines {
		if m := addressLabel.FindStringSubmatch(line); m != nil {
			address = strings.TrimSpace(m[1])
			return address
		}
	}
	for i, line := range lines {
		found := byLine[i]
		if hasLabel(found, LabelLocation) && !hasLabel(found, LabelOrg, LabelDate, LabelDegree, LabelPerson) {
			address = strings.TrimSpace(line)
			return address
		}
	}
	return address
}

// nlpSummary picks the first prose line: twelve words or more, no dates, no degrees.
func nlpSummary(lines []string, byLine map[int][]Entity) (summary string) {
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if bulletLine.MatchString(line) || len(strings.Fields(line)) < 12 {
			continue
		}
		if hasLabel(byLine[i], LabelDate, LabelDegree) {
			continue
		}
		summary = line
		return summary
	}
	return summary
}

// nlpHistory sorts dated or employer lines into experience and education. Bullet lines following an
// experience line stay with it.
func nlpHistory(lines []string, byLine map[int][]Entity) (experience, education []string) {
	inExperience := false
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if _, isHeader := headerToken(line); isHeader {
			inExperience = false
			continue
		}

		found := byLine[i]
		switch {
		case hasLabel(found, LabelDegree) || (hasLabel(found, LabelOrg) && eduOrgWords.MatchString(line)):
			education = append(education, line)
			inExperience = false
		case hasLabel(found, LabelDate, LabelOrg):
			experience = append(experience, line)
			inExperience = true
		case inExperience && bulletLine.MatchString(line):
			experience = append(experience, line)
		default:
			inExperience = false
		}
	}
	return experience, education
}
