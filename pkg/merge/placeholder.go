package merge

import (
	"strings"

	"github.com/nikogura/cv-convert/pkg/docx"
	"github.com/nikogura/cv-convert/pkg/sections"
	"github.com/pkg/errors"
)

// Substitute replaces placeholder tokens in body paragraphs, table cells, headers and footers.
// Tokens without a value become empty strings; keys outside sections.Placeholders are ignored.
// The returned count covers body and table paragraphs.
func Substitute(doc *docx.Document, values map[string]string) (replaced int, err error) {
	paragraphs := doc.Paragraphs()
	for _, t := range doc.Tables() {
		paragraphs = append(paragraphs, t.Paragraphs()...)
	}

	for _, p := range paragraphs {
		text := p.Text()
		updated := text
		for _, token := range sections.Placeholders {
			n := strings.Count(updated, token)
			if n == 0 {
				continue
			}
			replaced += n
			updated = strings.ReplaceAll(updated, token, values[token])
		}
		if updated != text {
			p.SetText(updated)
		}
	}

	for _, token := range sections.Placeholders {
		// Header and footer parts are edited as raw XML, where a break inside w:t is not valid.
		err = doc.ReplaceInHeadersFooters(token, strings.ReplaceAll(values[token], "\n", " "))
		if err != nil {
			err = errors.Wrapf(err, "failed to substitute %s", token)
			return replaced, err
		}
	}

	return replaced, err
}

// PlaceholderValues builds the substitution map from extracted sections. A block supplies a token's
// value when its heading is the token itself or its label ("Name", "skills"). The first block wins.
// Without a name block, the first header line is used as the name.
func PlaceholderValues(tagged sections.TaggedDocument) (values map[string]string) {
	values = make(map[string]string)

	for _, block := range tagged.Blocks {
		token, ok := sections.TokenFor(block.Heading)
		if !ok {
			continue
		}
		if _, seen := values[token]; seen {
			continue
		}
		values[token] = block.Text()
	}

	if _, ok := values[sections.TokenName]; !ok && tagged.Header != nil && len(tagged.Header.Content) > 0 {
		values[sections.TokenName] = tagged.Header.Content[0]
	}

	return values
}
