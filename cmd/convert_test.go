package cmd

import (
	"testing"

	"github.com/nikogura/cv-convert/pkg/sections"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"spaces", "Jane Doe", "jane-doe"},
		{"extension dropped", "Jane_Doe_CV.pdf", "jane-doe-cv"},
		{"special chars", "  O'Brien & Sons (2024) ", "o-brien-sons-2024"},
		{"only symbols", "***", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sanitizeFilename(tt.input)
			if result != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestConsultantName(t *testing.T) {
	tests := []struct {
		name     string
		doc      sections.TaggedDocument
		expected string
	}{
		{
			name:     "header line",
			doc:      sections.TaggedDocument{Header: &sections.Block{Content: []string{"Jane Doe", "Platform Engineer"}}},
			expected: "Jane Doe",
		},
		{
			name:     "shouted header is title-cased",
			doc:      sections.TaggedDocument{Header: &sections.Block{Content: []string{"JANE DOE"}}},
			expected: "Jane Doe",
		},
		{
			name:     "name placeholder block",
			doc:      sections.TaggedDocument{Blocks: []sections.Block{{Heading: sections.TokenName, Content: []string{"John Smith"}}}},
			expected: "John Smith",
		},
		{
			name:     "nothing",
			doc:      sections.TaggedDocument{Blocks: []sections.Block{{Heading: "Role", Content: []string{"Lead"}}}},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := consultantName(tt.doc)
			if result != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result)
			}
		})
	}
}
