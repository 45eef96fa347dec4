package cvtext

import (
	"html"
	"regexp"
	"strings"
)

//nolint:gochecknoglobals // compiled once
var blockTag = regexp.MustCompile(`(?i)<\s*(br|/p|/div|/li|/h[1-6]|/tr)\b[^>]*>`)

// stripBasicHTML removes markup and keeps block boundaries as newlines.
func stripBasicHTML(page string) (text string) {
	text = page

	// Remove script and style tags with their content
	text = removeTagAndContent(text, "script")
	text = removeTagAndContent(text, "style")

	text = blockTag.ReplaceAllString(text, "\n")

	// Remove HTML tags
	inTag := false
	result := strings.Builder{}
	for _, char := range text {
		if char == '<' {
			inTag = true
			continue
		}
		if char == '>' {
			inTag = false
			continue
		}
		if !inTag {
			result.WriteRune(char)
		}
	}

	text = html.UnescapeString(result.String())
	text = strings.TrimSpace(text)

	return text
}

// removeTagAndContent removes a specific HTML tag and its content.
func removeTagAndContent(page, tag string) (result string) {
	re := regexp.MustCompile(`(?is)<` + regexp.QuoteMeta(tag) + `\b.*?</` + regexp.QuoteMeta(tag) + `\s*>`)
	result = re.ReplaceAllString(page, "")
	return result
}
