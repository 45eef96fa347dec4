package sections

import (
	"regexp"
	"strings"
)

// entityLine matches a label line. The label may follow a list marker ("-", "*", "1.", "2)")
// and may be a phrase of up to three words ("Full Name", "Email Address", "Phone Number").
//
//nolint:gochecknoglobals // compiled once
var entityLine = regexp.MustCompile(`^\s*(?:(?:\d+[.)]|[-*])\s+)?(?:\*\*)?([A-Za-z]+(?:[ \t]+[A-Za-z]+){0,2})(?:\*\*)?\s*:(?:\*\*)?\s*(.*)$`)

// entityToken returns the token of the first placeholder label word in a label phrase.
func entityToken(phrase string) (token string, ok bool) {
	for _, word := range strings.Fields(phrase) {
		token, ok = TokenFor(word)
		if ok {
			return token, ok
		}
	}
	return token, ok
}

// ParseEntities parses "Label: value" lines for the placeholder labels (Name, Address, Phone,
// Email, Summary, Experience, Education, Skills), case-insensitively. A qualified label such
// as "Full Name" or "Email Address" counts as its first placeholder word. Lines following a label
// line that do not start another label continue its value. The first occurrence of a label
// wins. Headings of the result are the bracketed tokens, in placeholder order.
func ParseEntities(text string) (doc TaggedDocument) {
	doc.Blocks = make([]Block, 0)
	values := make(map[string][]string)

	current := ""
	for _, line := range strings.Split(normalizeNewlines(text), "\n") {
		if m := entityLine.FindStringSubmatch(line); m != nil {
			if token, ok := entityToken(m[1]); ok {
				if _, seen := values[token]; seen {
					current = ""
					continue
				}
				current = token
				values[token] = make([]string, 0)
				if v := strings.TrimSpace(m[2]); v != "" {
					values[token] = append(values[token], v)
				}
				continue
			}
		}

		if current == "" {
			continue
		}
		if v := strings.TrimSpace(line); v != "" {
			values[current] = append(values[current], v)
		}
	}

	for _, token := range Placeholders {
		content, ok := values[token]
		if !ok {
			continue
		}
		doc.Blocks = append(doc.Blocks, Block{Heading: token, Content: content})
	}

	return doc
}
