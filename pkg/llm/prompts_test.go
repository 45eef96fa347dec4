package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nikogura/cv-convert/pkg/sections"
)

type fakeModel struct {
	reply  string
	err    error
	system string
	user   string
	calls  int
}

func (f *fakeModel) Ask(ctx context.Context, system, user string) (reply string, err error) {
	f.calls++
	f.system = system
	f.user = user
	return f.reply, f.err
}

func (f *fakeModel) Model() (model string) {
	model = "fake"
	return model
}

func TestBuildTaggedPrompt(t *testing.T) {
	cv := "Jane Doe\nSenior Engineer at Acme"
	template := "THREE60 consultant template"

	prompt := BuildTaggedPrompt(cv, template, []string{"Professional Summary", "Technical skills"})

	expected := []string{
		"[HEADER]",
		"[SECTION]Professional Summary",
		"[SECTION]Technical skills",
		sections.NotProvided,
		"Template CV, for structure and tone only:",
		template,
		cv,
	}
	for _, want := range expected {
		if !strings.Contains(prompt, want) {
			t.Errorf("Prompt missing %q", want)
		}
	}

	if strings.Contains(prompt, "[SECTION]Education") {
		t.Error("Prompt should only list the requested headings")
	}
}

func TestBuildTaggedPromptDefaults(t *testing.T) {
	prompt := BuildTaggedPrompt("cv text", "", nil)

	for _, h := range sections.DefaultHeadings {
		if !strings.Contains(prompt, "[SECTION]"+h+"\n") {
			t.Errorf("Prompt missing default heading %q", h)
		}
	}

	if strings.Contains(prompt, "Template CV") {
		t.Error("Prompt should not reference a template when none is given")
	}
}

func TestBuildBoldPrompt(t *testing.T) {
	prompt := BuildBoldPrompt("cv text", "", []string{"Summary", "Skills"})

	if !strings.Contains(prompt, "**Summary**\nContent\n\n**Skills**") {
		t.Errorf("Prompt does not list bold headings in order:\n%s", prompt)
	}

	if !strings.Contains(prompt, sections.NotProvided) {
		t.Error("Prompt missing the not-provided marker")
	}
}

func TestBuildEntityPrompt(t *testing.T) {
	prompt := BuildEntityPrompt("Jane Doe, jane@example.com")

	for _, label := range []string{"Name", "Address", "Phone", "Email", "Summary", "Experience", "Education", "Skills"} {
		if !strings.Contains(prompt, label) {
			t.Errorf("Prompt missing label %q", label)
		}
	}

	if !strings.HasSuffix(prompt, "Text: Jane Doe, jane@example.com") {
		t.Error("Prompt should end with the CV text")
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name       string
		grammar    sections.Grammar
		reply      string
		wantSystem string
		wantMarker string
		expected   string
	}{
		{
			name:       "tagged",
			grammar:    sections.GrammarTagged,
			reply:      "```\n[SECTION]Role\nLead\n[/SECTION]\n```",
			wantSystem: SystemPrompt,
			wantMarker: "[SECTION]",
			expected:   "[SECTION]Role\nLead\n[/SECTION]",
		},
		{
			name:       "bold",
			grammar:    sections.GrammarBold,
			reply:      "**Role**\nLead",
			wantSystem: SystemPrompt,
			wantMarker: "double asterisks",
			expected:   "**Role**\nLead",
		},
		{
			name:       "entities",
			grammar:    sections.GrammarEntities,
			reply:      "```text\nName: Jane Doe\n```",
			wantSystem: EntitySystemPrompt,
			wantMarker: "Extract the following entities",
			expected:   "Name: Jane Doe",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &fakeModel{reply: tt.reply}

			text, err := Format(context.Background(), model, FormatRequest{CV: "Jane Doe", Grammar: tt.grammar})
			if err != nil {
				t.Fatalf("Format failed: %v", err)
			}

			if text != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, text)
			}

			if model.system != tt.wantSystem {
				t.Errorf("Expected system prompt %q, got %q", tt.wantSystem, model.system)
			}

			if !strings.Contains(model.user, tt.wantMarker) {
				t.Errorf("User prompt missing %q", tt.wantMarker)
			}
		})
	}
}

func TestFormatErrors(t *testing.T) {
	t.Run("empty cv", func(t *testing.T) {
		model := &fakeModel{reply: "unused"}

		_, err := Format(context.Background(), model, FormatRequest{CV: "  \n"})
		if err == nil {
			t.Fatal("Expected error for empty CV")
		}

		if model.calls != 0 {
			t.Errorf("Model should not be called, got %d calls", model.calls)
		}
	})

	t.Run("service error is preserved", func(t *testing.T) {
		cause := &ServiceError{Provider: ProviderOpenAI, StatusCode: 429, Err: errors.New("quota")}
		model := &fakeModel{err: cause}

		_, err := Format(context.Background(), model, FormatRequest{CV: "Jane Doe"})

		var serviceErr *ServiceError
		if !errors.As(err, &serviceErr) {
			t.Fatalf("Expected ServiceError, got %v", err)
		}

		if serviceErr.StatusCode != 429 {
			t.Errorf("Expected status 429, got %d", serviceErr.StatusCode)
		}
	})
}
