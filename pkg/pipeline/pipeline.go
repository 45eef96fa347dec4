package pipeline

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/nikogura/cv-convert/pkg/cvtext"
	"github.com/nikogura/cv-convert/pkg/docx"
	"github.com/nikogura/cv-convert/pkg/llm"
	"github.com/nikogura/cv-convert/pkg/merge"
	"github.com/nikogura/cv-convert/pkg/scorer"
	"github.com/nikogura/cv-convert/pkg/sections"
	"github.com/nikogura/cv-convert/pkg/strategy"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultFilename is used when the source name gives nothing usable.
const DefaultFilename = "formatted_cv.docx"

// Options is the per-request configuration. Nothing is read from the environment or shared between runs.
type Options struct {
	Strategy string
	Grammar  sections.Grammar
	// Mode is ModeReconcile, ModePlaceholder, or empty to choose from the strategy and grammar.
	Mode        string
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int64
	Temperature float64
	// Headings overrides the section list sent to the model and scored against.
	Headings      []string
	FirstPageOnly bool
	// FillEmpty replaces empty block content in reconcile mode, e.g. sections.NotProvided.
	FillEmpty    string
	TemplatePath string
	// OutputName overrides the generated download filename.
	OutputName string
}

// Request is one conversion. Template, when set, takes precedence over Options.TemplatePath.
type Request struct {
	Source       []byte
	SourceName   string
	Template     []byte
	TemplateName string
	Options      Options
}

// Result is a converted CV plus what happened on the way.
type Result struct {
	Document    []byte                  `json:"-"`
	Filename    string                  `json:"filename"`
	ContentType string                  `json:"content_type"`
	Text        string                  `json:"text,omitempty"`
	Sections    sections.TaggedDocument `json:"sections"`
	Report      merge.Report            `json:"report"`
	Replaced    int                     `json:"replaced"`
	Mode        string                  `json:"mode"`
	Strategy    string                  `json:"strategy"`
	Template    string                  `json:"template"`
	Score       scorer.Score            `json:"score"`
	Expected    []string                `json:"expected"`
}

// Pipeline runs extraction, section extraction and template reconciliation for one request at a time.
// It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	Logger *logrus.Logger
	// NewModel builds the chat model for the llm strategy. Defaults to llm.NewChatModel.
	NewModel func(s llm.Settings) (model llm.ChatModel, err error)
}

// New creates a pipeline logging to logger, or to the standard logrus logger when nil.
func New(logger *logrus.Logger) (p *Pipeline) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	p = &Pipeline{
		Logger:   logger,
		NewModel: llm.NewChatModel,
	}
	return p
}

// Run converts the CV bytes in req.Source.
func (p *Pipeline) Run(ctx context.Context, req Request) (result Result, err error) {
	if len(req.Source) == 0 {
		err = preconditionf("no CV provided")
		return result, err
	}

	err = checkOptions(req.Options)
	if err != nil {
		return result, err
	}

	p.logger().WithFields(logrus.Fields{
		"source": req.SourceName,
		"bytes":  len(req.Source),
	}).Debug("extracting CV text")

	var text string
	text, err = cvtext.Extractor{FirstPageOnly: req.Options.FirstPageOnly}.Extract(req.SourceName, req.Source)
	if err != nil {
		err = classify(err, KindExtraction)
		return result, err
	}

	result, err = p.RunText(ctx, text, req)
	return result, err
}

// RunText converts already-extracted CV text. req.Source is ignored.
func (p *Pipeline) RunText(ctx context.Context, text string, req Request) (result Result, err error) {
	if strings.TrimSpace(text) == "" {
		err = preconditionf("CV text is empty")
		return result, err
	}

	err = checkOptions(req.Options)
	if err != nil {
		return result, err
	}

	opts := req.Options
	var mode string
	mode, err = ResolveMode(opts.Mode, opts.Strategy, opts.Grammar)
	if err != nil {
		err = newError(KindPrecondition, err)
		return result, err
	}

	var model llm.ChatModel
	if isLLM(opts.Strategy) {
		model, err = p.newModel(opts)
		if err != nil {
			err = newError(KindPrecondition, err)
			return result, err
		}
	}

	var t template
	t, err = openTemplate(req, mode)
	if err != nil {
		return result, err
	}
	defer t.close()

	headings := opts.Headings
	if len(headings) == 0 && mode == ModeReconcile {
		headings = t.headings
	}

	var s strategy.Strategy
	s, err = strategy.New(strategy.Options{
		Kind:     opts.Strategy,
		Model:    model,
		Grammar:  opts.Grammar,
		Template: t.text,
		Headings: headings,
	})
	if err != nil {
		err = newError(KindPrecondition, err)
		return result, err
	}

	log := p.logger().WithFields(logrus.Fields{
		"strategy": s.Name(),
		"grammar":  opts.Grammar.String(),
		"mode":     mode,
		"template": t.name,
	})
	log.Info("extracting sections")

	var tagged sections.TaggedDocument
	tagged, err = s.Extract(ctx, text)
	if err != nil {
		err = classify(err, KindService)
		return result, err
	}
	log.WithField("blocks", tagged.Len()).Debug("sections extracted")

	result, err = p.apply(t, tagged, mode, headings, req)
	if err != nil {
		return result, err
	}
	result.Text = text
	result.Strategy = s.Name()

	return result, err
}

// Merge applies a saved TaggedDocument to the template without running a strategy.
func (p *Pipeline) Merge(tagged sections.TaggedDocument, req Request) (result Result, err error) {
	opts := req.Options
	var mode string
	mode, err = ResolveMode(opts.Mode, opts.Strategy, opts.Grammar)
	if err != nil {
		err = newError(KindPrecondition, err)
		return result, err
	}

	var t template
	t, err = openTemplate(req, mode)
	if err != nil {
		return result, err
	}
	defer t.close()

	headings := opts.Headings
	if len(headings) == 0 && mode == ModeReconcile {
		headings = t.headings
	}

	result, err = p.apply(t, tagged, mode, headings, req)
	return result, err
}

func (p *Pipeline) apply(t template, tagged sections.TaggedDocument, mode string, headings []string, req Request) (result Result, err error) {
	result = Result{
		Filename:    OutputFilename(req.SourceName, req.Options.OutputName),
		ContentType: docx.ContentType,
		Sections:    tagged,
		Mode:        mode,
		Template:    t.name,
		Report: merge.Report{
			Matched:       []string{},
			Appended:      []string{},
			Continuations: []string{},
		},
	}

	switch mode {
	case ModePlaceholder:
		result.Replaced, err = merge.Substitute(t.doc, merge.PlaceholderValues(tagged))
		if err != nil {
			err = newError(KindMerge, errors.Wrap(err, "placeholder substitution failed"))
			return result, err
		}
	default:
		result.Report = merge.Merger{FillEmpty: req.Options.FillEmpty}.Apply(t.doc, tagged)
	}

	result.Document, err = t.doc.Bytes()
	if err != nil {
		err = newError(KindTemplate, &docx.TemplateError{Name: t.name, Err: err})
		return result, err
	}

	sc := &scorer.Scorer{
		Expected:     expectedHeadings(mode, headings),
		ExpectHeader: mode == ModeReconcile && req.Options.Grammar == sections.GrammarTagged && isLLM(req.Options.Strategy),
	}
	result.Score = sc.Score(tagged)
	result.Expected = sc.Expected

	p.logger().WithFields(logrus.Fields{
		"mode":          mode,
		"matched":       len(result.Report.Matched),
		"appended":      len(result.Report.Appended),
		"continuations": len(result.Report.Continuations),
		"replaced":      result.Replaced,
		"completeness":  result.Score.Percent,
		"bytes":         len(result.Document),
	}).Info("template filled")

	return result, err
}

func (p *Pipeline) logger() (logger *logrus.Logger) {
	logger = p.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return logger
}

func (p *Pipeline) newModel(opts Options) (model llm.ChatModel, err error) {
	factory := p.NewModel
	if factory == nil {
		factory = llm.NewChatModel
	}
	model, err = factory(llm.Settings{
		Provider:    opts.Provider,
		APIKey:      opts.APIKey,
		Model:       opts.Model,
		BaseURL:     opts.BaseURL,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	})
	return model, err
}

func isLLM(kind string) (ok bool) {
	k := strings.ToLower(strings.TrimSpace(kind))
	ok = k == "" || k == strategy.KindLLM
	return ok
}

// checkOptions rejects options that would fail later, before any delegate runs.
func checkOptions(opts Options) (err error) {
	kind := strings.ToLower(strings.TrimSpace(opts.Strategy))
	known := kind == ""
	for _, k := range strategy.Kinds() {
		if kind == k {
			known = true
		}
	}
	if !known {
		err = preconditionf("unknown strategy %q (expected one of %s)", opts.Strategy, strings.Join(strategy.Kinds(), ", "))
		return err
	}

	if isLLM(opts.Strategy) && strings.TrimSpace(opts.APIKey) == "" {
		err = preconditionf("an API key is required for the llm strategy")
		return err
	}

	_, err = ResolveMode(opts.Mode, opts.Strategy, opts.Grammar)
	if err != nil {
		err = newError(KindPrecondition, err)
		return err
	}

	return err
}

// template is an opened template and what the strategies may learn from it.
type template struct {
	doc      *docx.Document
	name     string
	text     string
	headings []string
}

func (t template) close() {
	_ = t.doc.Close()
}

func openTemplate(req Request, mode string) (t template, err error) {
	var data []byte
	data, t.name, err = resolveTemplate(req, mode)
	if err != nil {
		err = classify(err, KindTemplate)
		return t, err
	}

	t.doc, err = docx.Open(data)
	if err != nil {
		var templateErr *docx.TemplateError
		if errors.As(err, &templateErr) && templateErr.Name == "" {
			templateErr.Name = t.name
		}
		err = classify(err, KindTemplate)
		return t, err
	}

	// Only user templates are shown to the model and mined for headings.
	if t.name != DefaultTemplateName {
		t.text = t.doc.PlainText()
		t.headings = templateHeadings(t.doc)
	}

	return t, err
}

// templateHeadings lists the text of heading-styled body paragraphs.
func templateHeadings(doc *docx.Document) (headings []string) {
	for _, p := range doc.Paragraphs() {
		text := strings.TrimSpace(p.Text())
		if text == "" {
			continue
		}
		if strings.HasPrefix(strings.ToLower(p.Style()), "heading") {
			headings = append(headings, text)
		}
	}
	return headings
}

//nolint:gochecknoglobals // compiled once
var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// OutputFilename derives the download name from the uploaded file name, e.g. "Jane Doe.pdf" becomes
// "Jane_Doe_formatted.docx". An explicit name wins and gets a .docx extension when it lacks one.
func OutputFilename(sourceName, explicit string) (name string) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		name = filepath.Base(explicit)
		if !strings.EqualFold(filepath.Ext(name), ".docx") {
			name += ".docx"
		}
		return name
	}

	base := filepath.Base(strings.TrimSpace(sourceName))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.Trim(unsafeFilenameChars.ReplaceAllString(base, "_"), "_")
	if base == "" {
		name = DefaultFilename
		return name
	}

	name = base + "_formatted.docx"
	return name
}
