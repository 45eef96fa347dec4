package llm

import (
	"fmt"
	"strings"

	"github.com/nikogura/cv-convert/pkg/sections"
)

// SystemPrompt restricts the model to the consultant's own CV.
const SystemPrompt = "You are a CV formatting assistant. Only use information provided in the consultant's CV."

// EntitySystemPrompt is the system message for entity extraction.
const EntitySystemPrompt = "You are a helpful assistant that extracts information from CVs."

// BuildTaggedPrompt asks for the CV in the [HEADER]/[SECTION] grammar. The template text, when given,
// is shown for structure only. An empty heading list uses sections.DefaultHeadings.
func BuildTaggedPrompt(cv, template string, headings []string) (prompt string) {
	if len(headings) == 0 {
		headings = sections.DefaultHeadings
	}

	var structure strings.Builder
	structure.WriteString("[HEADER]\nConsultant's Name\nConsultant's Current Position\n[/HEADER]\n")
	for _, h := range headings {
		fmt.Fprintf(&structure, "\n[SECTION]%s\nContent\n[/SECTION]\n", h)
	}

	prompt = fmt.Sprintf(`You are tasked with formatting a consultant's CV according to a fixed template structure.
Use ONLY the information from the consultant's CV. DO NOT use any specific information from the template CV.

The structure should be as follows:
%s
Fill each section with relevant information from the consultant's CV. If information for a section is not available, write '%s' as the content.
Do not invent or assume any information not present in the consultant's CV.
Keep the section headings exactly as written above, one [SECTION] per heading, in the same order.
%s
Consultant CV to format:
%s

Please provide the formatted CV content, using ONLY information from the consultant's CV.`,
		structure.String(), sections.NotProvided, templateReference(template), cv)

	return prompt
}

// BuildBoldPrompt asks for the CV as **Heading** blocks separated by blank lines.
func BuildBoldPrompt(cv, template string, headings []string) (prompt string) {
	if len(headings) == 0 {
		headings = sections.DefaultHeadings
	}

	var structure strings.Builder
	for _, h := range headings {
		fmt.Fprintf(&structure, "**%s**\nContent\n\n", h)
	}

	prompt = fmt.Sprintf(`You are tasked with formatting a consultant's CV according to a fixed template structure.
Use ONLY the information from the consultant's CV.

Write each section as a line holding the heading wrapped in double asterisks, followed by its content.
Separate sections with exactly one blank line and never put a blank line inside a section.
The sections, in order, are:

%sIf information for a section is not available, write '%s' as the content.
Do not invent or assume any information not present in the consultant's CV.
%s
Consultant CV to format:
%s`,
		structure.String(), sections.NotProvided, templateReference(template), cv)

	return prompt
}

// BuildEntityPrompt asks for "Label: value" lines for the placeholder labels.
func BuildEntityPrompt(cv string) (prompt string) {
	labels := make([]string, 0, len(sections.Placeholders))
	for _, token := range sections.Placeholders {
		labels = append(labels, sections.Label(token))
	}

	prompt = fmt.Sprintf(`Extract the following entities from the text: %s.
Answer with one line per entity in the form "Label: value", using exactly these labels.
Multi-line values (experience, education) continue on the following lines.
Leave the value empty when the text does not contain it.

Text: %s`, strings.Join(labels, ", "), cv)

	return prompt
}

func templateReference(template string) (ref string) {
	if strings.TrimSpace(template) == "" {
		return ref
	}
	ref = fmt.Sprintf("\nTemplate CV, for structure and tone only:\n%s\n", template)
	return ref
}
