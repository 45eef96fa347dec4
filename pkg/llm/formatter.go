package llm

import (
	"context"
	"strings"

	"github.com/nikogura/cv-convert/pkg/sections"
	"github.com/pkg/errors"
)

// FormatRequest is the input of a single formatting call.
type FormatRequest struct {
	CV       string
	Template string
	Headings []string
	Grammar  sections.Grammar
}

// Format asks the model for the CV in the requested grammar and returns the reply without code fences.
func Format(ctx context.Context, model ChatModel, req FormatRequest) (text string, err error) {
	if strings.TrimSpace(req.CV) == "" {
		err = errors.New("CV text is empty")
		return text, err
	}

	system := SystemPrompt
	var prompt string
	switch req.Grammar {
	case sections.GrammarBold:
		prompt = BuildBoldPrompt(req.CV, req.Template, req.Headings)
	case sections.GrammarEntities:
		system = EntitySystemPrompt
		prompt = BuildEntityPrompt(req.CV)
	default:
		prompt = BuildTaggedPrompt(req.CV, req.Template, req.Headings)
	}

	var reply string
	reply, err = model.Ask(ctx, system, prompt)
	if err != nil {
		err = errors.Wrapf(err, "%s formatting request failed", req.Grammar)
		return text, err
	}

	// Clean markdown code fences if present
	text = stripMarkdownCodeFences(reply)

	return text, err
}
