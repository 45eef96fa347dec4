package pipeline

import (
	"os"
	"strings"

	"github.com/nikogura/cv-convert/pkg/docx"
	"github.com/nikogura/cv-convert/pkg/sections"
	"github.com/nikogura/cv-convert/pkg/strategy"
	"github.com/pkg/errors"
)

const (
	// ModeReconcile overwrites or appends template paragraphs by heading.
	ModeReconcile = "reconcile"
	// ModePlaceholder replaces [NAME]-style tokens in the template.
	ModePlaceholder = "placeholder"
)

// DefaultTemplateName names the bundled template in logs and errors.
const DefaultTemplateName = "bundled default template"

// ResolveMode validates mode. An empty mode picks placeholder mode for the field strategies and the
// entity grammar, and reconcile mode otherwise.
func ResolveMode(mode, strategyKind string, grammar sections.Grammar) (resolved string, err error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case ModeReconcile:
		resolved = ModeReconcile
	case ModePlaceholder:
		resolved = ModePlaceholder
	case "":
		kind := strings.ToLower(strings.TrimSpace(strategyKind))
		if kind == strategy.KindRegex || kind == strategy.KindNLP || grammar == sections.GrammarEntities {
			resolved = ModePlaceholder
			return resolved, err
		}
		resolved = ModeReconcile
	default:
		err = errors.Errorf("unknown mode %q (expected %s or %s)", mode, ModeReconcile, ModePlaceholder)
	}
	return resolved, err
}

// DefaultBlueprint describes the bundled template for mode. Reconcile templates list one Heading 1
// paragraph per heading; an empty list uses sections.DefaultHeadings.
func DefaultBlueprint(mode string, headings []string) (bp docx.Blueprint) {
	if mode == ModePlaceholder {
		bp = docx.Blueprint{
			PageHeader:  sections.TokenName + " - Curriculum Vitae",
			HeaderLines: []string{sections.TokenName, sections.TokenEmail + " | " + sections.TokenPhone, sections.TokenAddress},
			Paragraphs: []docx.Line{
				{Text: "Professional Summary", Style: "Heading1"},
				{Text: sections.TokenSummary},
				{Text: "Experience", Style: "Heading1"},
				{Text: sections.TokenExperience},
				{Text: "Education", Style: "Heading1"},
				{Text: sections.TokenEducation},
				{Text: "Skills", Style: "Heading1"},
				{Text: sections.TokenSkills},
			},
		}
		return bp
	}

	if len(headings) == 0 {
		headings = sections.DefaultHeadings
	}
	bp = docx.Blueprint{
		PageHeader:  "Curriculum Vitae",
		HeaderLines: []string{"Consultant Name", "Consultant Position"},
		Paragraphs:  make([]docx.Line, 0, len(headings)),
	}
	for _, h := range headings {
		bp.Paragraphs = append(bp.Paragraphs, docx.Line{Text: h, Style: "Heading1"})
	}
	return bp
}

// DefaultTemplate builds the bundled template for mode.
func DefaultTemplate(mode string, headings []string) (data []byte, err error) {
	data, err = docx.New(DefaultBlueprint(mode, headings))
	if err != nil {
		err = &docx.TemplateError{Name: DefaultTemplateName, Err: err}
		return data, err
	}
	return data, err
}

// resolveTemplate picks the uploaded template, then the configured path, then the bundled default.
func resolveTemplate(req Request, mode string) (data []byte, name string, err error) {
	if len(req.Template) > 0 {
		data = req.Template
		name = req.TemplateName
		if name == "" {
			name = "uploaded template"
		}
		return data, name, err
	}

	if req.Options.TemplatePath != "" {
		name = req.Options.TemplatePath
		data, err = os.ReadFile(req.Options.TemplatePath)
		if err != nil {
			err = &docx.TemplateError{Name: name, Err: errors.Wrap(err, "failed to read template")}
			return data, name, err
		}
		return data, name, err
	}

	name = DefaultTemplateName
	data, err = DefaultTemplate(mode, req.Options.Headings)
	return data, name, err
}

// expectedHeadings are the headings a complete extraction should fill in mode.
func expectedHeadings(mode string, headings []string) (expected []string) {
	if mode == ModePlaceholder {
		expected = sections.Placeholders
		return expected
	}
	if len(headings) == 0 {
		expected = sections.DefaultHeadings
		return expected
	}
	expected = headings
	return expected
}
