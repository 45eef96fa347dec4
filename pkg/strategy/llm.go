package strategy

import (
	"context"

	"github.com/nikogura/cv-convert/pkg/llm"
	"github.com/nikogura/cv-convert/pkg/sections"
)

// LLMStrategy delegates formatting to a chat model and parses the reply in the configured grammar.
type LLMStrategy struct {
	model    llm.ChatModel
	grammar  sections.Grammar
	template string
	headings []string
}

// Name returns KindLLM.
func (s *LLMStrategy) Name() (name string) {
	name = KindLLM
	return name
}

// Extract formats the CV with the model. Service failures are returned unchanged so callers can classify them.
func (s *LLMStrategy) Extract(ctx context.Context, cvText string) (doc sections.TaggedDocument, err error) {
	var text string
	text, err = llm.Format(ctx, s.model, llm.FormatRequest{
		CV:       cvText,
		Template: s.template,
		Headings: s.headings,
		Grammar:  s.grammar,
	})
	if err != nil {
		return doc, err
	}

	doc = sections.Parse(text, s.grammar)
	return doc, err
}
