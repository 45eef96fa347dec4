package strategy

import (
	"context"
	"strings"

	"github.com/nikogura/cv-convert/pkg/llm"
	"github.com/nikogura/cv-convert/pkg/sections"
	"github.com/pkg/errors"
)

const (
	// KindRegex extracts placeholder fields with pattern heuristics.
	KindRegex = "regex"
	// KindNLP extracts placeholder fields from rule-based entity labels.
	KindNLP = "nlp"
	// KindLLM asks a language model for a formatted CV.
	KindLLM = "llm"
)

// Strategy turns raw CV text into a TaggedDocument.
type Strategy interface {
	Name() (name string)
	Extract(ctx context.Context, cvText string) (doc sections.TaggedDocument, err error)
}

// Options selects and configures a Strategy. Model is only used, and then required, by KindLLM.
type Options struct {
	Kind     string
	Model    llm.ChatModel
	Grammar  sections.Grammar
	Template string
	Headings []string
}

// Kinds lists the accepted strategy names.
func Kinds() (kinds []string) {
	kinds = []string{KindRegex, KindNLP, KindLLM}
	return kinds
}

// New builds the strategy named by opts.Kind. An empty kind selects KindLLM.
func New(opts Options) (s Strategy, err error) {
	switch strings.ToLower(strings.TrimSpace(opts.Kind)) {
	case KindRegex:
		s = NewRegexStrategy()
	case KindNLP:
		s = NewNLPStrategy()
	case "", KindLLM:
		if opts.Model == nil {
			err = errors.New("llm strategy requires a chat model")
			return s, err
		}
		s = &LLMStrategy{
			model:    opts.Model,
			grammar:  opts.Grammar,
			template: opts.Template,
			headings: opts.Headings,
		}
	default:
		err = errors.Errorf("unknown strategy %q (expected one of %s)", opts.Kind, strings.Join(Kinds(), ", "))
	}

	return s, err
}

// placeholderDocument keeps the non-empty values in placeholder order.
func placeholderDocument(values map[string][]string) (doc sections.TaggedDocument) {
	for _, token := range sections.Placeholders {
		lines := values[token]
		if len(lines) == 0 {
			continue
		}
		doc.Blocks = append(doc.Blocks, sections.Block{Heading: token, Content: lines})
	}
	return doc
}
