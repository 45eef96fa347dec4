package sections

import (
	"strings"
)

// NotProvided is the content written for a section the CV has no information for.
const NotProvided = "Information not provided"

// Block is one heading and content unit of an extracted CV.
type Block struct {
	// Heading is matched against template paragraphs. An empty heading marks continuation text that is always appended.
	Heading string   `json:"heading"`
	Content []string `json:"content"`
}

// Text returns the content lines joined by newlines.
func (b Block) Text() (text string) {
	text = strings.Join(b.Content, "\n")
	return text
}

// Empty reports whether the block carries no content.
func (b Block) Empty() (empty bool) {
	empty = strings.TrimSpace(b.Text()) == ""
	return empty
}

// TaggedDocument is the ordered result of parsing a delimited text blob.
type TaggedDocument struct {
	Header *Block  `json:"header,omitempty"`
	Blocks []Block `json:"blocks"`
}

// Len returns the number of section blocks, not counting the header.
func (d TaggedDocument) Len() (n int) {
	n = len(d.Blocks)
	return n
}

// Empty reports whether the document has neither header nor blocks.
func (d TaggedDocument) Empty() (empty bool) {
	empty = d.Header == nil && len(d.Blocks) == 0
	return empty
}

// Headings lists the non-empty headings in order.
func (d TaggedDocument) Headings() (headings []string) {
	headings = make([]string, 0, len(d.Blocks))
	for _, b := range d.Blocks {
		if b.Heading != "" {
			headings = append(headings, b.Heading)
		}
	}
	return headings
}

// Lookup returns the first block with the given heading.
func (d TaggedDocument) Lookup(heading string) (block Block, ok bool) {
	for _, b := range d.Blocks {
		if b.Heading == heading {
			block = b
			ok = true
			return block, ok
		}
	}
	return block, ok
}

// DefaultHeadings are the section headings of the standard consultant CV template.
//
//nolint:gochecknoglobals // fixed vocabulary
var DefaultHeadings = []string{
	"Years of experience",
	"Discipline",
	"Role",
	"Technical skills",
	"Professional skills",
	"Professional Summary",
	"Work Experience - Summary",
	"Work Experience - Detailed",
	"Education and training",
	"Personal skills and competencies",
}

// Placeholder tokens understood by placeholder mode, in substitution order.
const (
	TokenName       = "[NAME]"
	TokenAddress    = "[ADDRESS]"
	TokenPhone      = "[PHONE]"
	TokenEmail      = "[EMAIL]"
	TokenSummary    = "[SUMMARY]"
	TokenExperience = "[EXPERIENCE]"
	TokenEducation  = "[EDUCATION]"
	TokenSkills     = "[SKILLS]"
)

// Placeholders is the closed token set, in substitution order.
//
//nolint:gochecknoglobals // fixed vocabulary
var Placeholders = []string{
	TokenName,
	TokenAddress,
	TokenPhone,
	TokenEmail,
	TokenSummary,
	TokenExperience,
	TokenEducation,
	TokenSkills,
}

// Label returns the bare label of a token, e.g. "Name" for "[NAME]".
func Label(token string) (label string) {
	inner := strings.TrimSuffix(strings.TrimPrefix(token, "["), "]")
	if inner == "" {
		return label
	}
	label = inner[:1] + strings.ToLower(inner[1:])
	return label
}

// TokenFor maps a heading such as "[SKILLS]", "Skills" or "skills" to its token.
func TokenFor(heading string) (token string, ok bool) {
	h := strings.TrimSpace(heading)
	for _, t := range Placeholders {
		if h == t || strings.EqualFold(h, Label(t)) {
			token = t
			ok = true
			return token, ok
		}
	}
	return token, ok
}
