package sections

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// Grammar selects how a text blob marks its section headings.
type Grammar int

const (
	// GrammarTagged is the [HEADER]...[/HEADER] [SECTION]Heading...[/SECTION] form.
	GrammarTagged Grammar = iota
	// GrammarBold is the **Heading** form; a bold line or a blank line starts a new section.
	GrammarBold
	// GrammarEntities is the "Label: value" form keyed by placeholder labels.
	GrammarEntities
)

const (
	tagHeader     = "[HEADER]"
	tagHeaderEnd  = "[/HEADER]"
	tagSection    = "[SECTION]"
	tagSectionEnd = "[/SECTION]"
	boldMarker    = "**"
)

//nolint:gochecknoglobals // compiled once
var blankLine = regexp.MustCompile(`\n[ \t]*\n`)

// String returns the configuration name of the grammar.
func (g Grammar) String() (name string) {
	switch g {
	case GrammarTagged:
		name = "tagged"
	case GrammarBold:
		name = "bold"
	case GrammarEntities:
		name = "entities"
	default:
		name = "unknown"
	}
	return name
}

// ParseGrammar maps a configuration string to a Grammar. Empty means tagged.
func ParseGrammar(name string) (g Grammar, err error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "tagged", "tags":
		g = GrammarTagged
	case "bold", "markdown":
		g = GrammarBold
	case "entities", "labels":
		g = GrammarEntities
	default:
		err = errors.Errorf("unknown grammar %q (expected tagged, bold or entities)", name)
	}
	return g, err
}

// Parse converts a formatted text blob into a TaggedDocument using the given grammar.
// It never fails: unexpected shapes degrade to heading-less blocks or are dropped.
func Parse(text string, g Grammar) (doc TaggedDocument) {
	switch g {
	case GrammarBold:
		doc = ParseBold(text)
	case GrammarEntities:
		doc = ParseEntities(text)
	default:
		doc = ParseTagged(text)
	}
	return doc
}

// ParseTagged parses the explicit-tag grammar.
func ParseTagged(text string) (doc TaggedDocument) {
	doc.Blocks = make([]Block, 0)
	text = normalizeNewlines(text)
	if strings.TrimSpace(text) == "" {
		return doc
	}

	segments := strings.Split(text, tagSection)
	doc.Header = parseHeader(segments[0])

	for _, seg := range segments[1:] {
		if idx := strings.Index(seg, tagSectionEnd); idx >= 0 {
			seg = seg[:idx]
		}

		heading, rest, _ := strings.Cut(seg, "\n")
		heading = strings.TrimSpace(heading)
		content := splitContent(rest)

		if heading == "" && len(content) == 0 {
			continue
		}

		doc.Blocks = append(doc.Blocks, Block{Heading: heading, Content: content})
	}

	return doc
}

func parseHeader(segment string) (header *Block) {
	start := strings.Index(segment, tagHeader)
	if start < 0 {
		return header
	}

	inner := segment[start+len(tagHeader):]
	if end := strings.Index(inner, tagHeaderEnd); end >= 0 {
		inner = inner[:end]
	}

	lines := make([]string, 0)
	for _, line := range strings.Split(inner, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}

	header = &Block{Content: lines}
	return header
}

// ParseBold parses the bold-marker grammar.
func ParseBold(text string) (doc TaggedDocument) {
	doc.Blocks = make([]Block, 0)
	text = normalizeNewlines(text)

	for _, chunk := range blankLine.Split(text, -1) {
		if strings.TrimSpace(chunk) == "" {
			continue
		}

		doc.Blocks = append(doc.Blocks, boldBlocks(chunk)...)
	}

	return doc
}

// boldBlocks splits one chunk at every **Heading** line. Text before the first heading is a
// heading-less block.
func boldBlocks(chunk string) (blocks []Block) {
	heading := ""
	started := false
	body := make([]string, 0)

	flush := func() {
		content := splitContent(strings.Join(body, "\n"))
		if started || len(content) > 0 {
			blocks = append(blocks, Block{Heading: heading, Content: content})
		}
		body = make([]string, 0)
	}

	for _, line := range strings.Split(chunk, "\n") {
		if h, ok := boldHeading(line); ok {
			flush()
			heading = h
			started = true
			continue
		}
		body = append(body, line)
	}
	flush()

	return blocks
}

func boldHeading(line string) (heading string, ok bool) {
	line = strings.TrimSpace(line)
	if len(line) <= 2*len(boldMarker) || !strings.HasPrefix(line, boldMarker) || !strings.HasSuffix(line, boldMarker) {
		return heading, ok
	}
	heading = strings.TrimSpace(line[len(boldMarker) : len(line)-len(boldMarker)])
	ok = heading != "" && !strings.Contains(heading, boldMarker)
	return heading, ok
}

// splitContent trims surrounding whitespace and returns the remaining lines.
func splitContent(text string) (lines []string) {
	lines = make([]string, 0)
	text = strings.TrimSpace(text)
	if text == "" {
		return lines
	}
	for _, line := range strings.Split(text, "\n") {
		lines = append(lines, strings.TrimRight(line, " \t"))
	}
	return lines
}

func normalizeNewlines(text string) (out string) {
	out = strings.ReplaceAll(text, "\r\n", "\n")
	out = strings.ReplaceAll(out, "\r", "\n")
	return out
}

// Render writes the document back out in the given grammar.
func (d TaggedDocument) Render(g Grammar) (text string) {
	var b strings.Builder

	switch g {
	case GrammarBold:
		for i, block := range d.Blocks {
			if i > 0 {
				b.WriteString("\n\n")
			}
			if block.Heading != "" {
				b.WriteString(boldMarker + block.Heading + boldMarker)
				if len(block.Content) > 0 {
					b.WriteString("\n")
				}
			}
			b.WriteString(block.Text())
		}
	case GrammarEntities:
		for _, block := range d.Blocks {
			token, ok := TokenFor(block.Heading)
			if !ok {
				continue
			}
			b.WriteString(Label(token) + ": " + block.Text() + "\n")
		}
	default:
		if d.Header != nil {
			b.WriteString(tagHeader + "\n" + d.Header.Text() + "\n" + tagHeaderEnd + "\n")
		}
		for _, block := range d.Blocks {
			b.WriteString(tagSection + block.Heading + "\n")
			if len(block.Content) > 0 {
				b.WriteString(block.Text() + "\n")
			}
			b.WriteString(tagSectionEnd + "\n")
		}
	}

	text = b.String()
	return text
}
