package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nikogura/cv-convert/pkg/config"
	"github.com/nikogura/cv-convert/pkg/cvtext"
	"github.com/nikogura/cv-convert/pkg/pipeline"
	"github.com/nikogura/cv-convert/pkg/renderer"
	"github.com/nikogura/cv-convert/pkg/scorer"
	"github.com/nikogura/cv-convert/pkg/sections"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// pipelineFlags override the configuration for one run.
type pipelineFlags struct {
	strategy      string
	grammar       string
	mode          string
	provider      string
	model         string
	apiKey        string
	template      string
	headings      []string
	firstPageOnly bool
	outputDir     string
}

func (f *pipelineFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.strategy, "strategy", "", "Extraction strategy: llm, regex or nlp (default from config)")
	cmd.Flags().StringVar(&f.grammar, "grammar", "", "LLM output grammar: tagged, bold or entities (default from config)")
	cmd.Flags().StringVar(&f.mode, "mode", "", "Template mode: reconcile or placeholder (chosen from strategy when empty)")
	cmd.Flags().StringVar(&f.provider, "provider", "", "LLM provider: openai or anthropic (default from config)")
	cmd.Flags().StringVar(&f.model, "model", "", "LLM model (default per provider)")
	cmd.Flags().StringVar(&f.apiKey, "api-key", "", "API key for the LLM provider (default from config or environment)")
	cmd.Flags().StringVar(&f.template, "template", "", "Template .docx (default from config, else the bundled template)")
	cmd.Flags().StringSliceVar(&f.headings, "headings", nil, "Section headings to extract, comma separated (default from config or template)")
	cmd.Flags().BoolVar(&f.firstPageOnly, "first-page-only", false, "Only read the first page of PDF CVs")
	cmd.Flags().StringVar(&f.outputDir, "output-dir", "", "Output directory (default from config)")
}

// loadConfig loads the config file and applies the flags on top of it.
func (f *pipelineFlags) loadConfig() (cfg config.Config, err error) {
	cfg, err = config.Load(getConfigFile())
	if err != nil {
		err = errors.Wrap(err, "failed to load config")
		return cfg, err
	}

	if f.strategy != "" {
		cfg.Strategy = f.strategy
	}
	if f.grammar != "" {
		cfg.Grammar = f.grammar
	}
	if f.mode != "" {
		cfg.Mode = f.mode
	}
	cfg.OverrideProvider(f.provider, f.model)
	if f.template != "" {
		cfg.TemplatePath = f.template
	}
	if len(f.headings) > 0 {
		cfg.Headings = f.headings
	}
	if f.firstPageOnly {
		cfg.FirstPageOnly = true
	}
	if f.outputDir != "" {
		cfg.Defaults.OutputDir = f.outputDir
	}

	err = cfg.Validate()
	if err != nil {
		err = errors.Wrap(err, "invalid options")
		return cfg, err
	}

	return cfg, err
}

func (f *pipelineFlags) options(cfg config.Config) (opts pipeline.Options) {
	opts = cfg.PipelineOptions()
	if f.apiKey != "" {
		opts.APIKey = f.apiKey
	}
	return opts
}

//nolint:gochecknoglobals // Cobra boilerplate
var convertFlags pipelineFlags

//nolint:gochecknoglobals // Cobra boilerplate
var convertOutput string

//nolint:gochecknoglobals // Cobra boilerplate
var convertSections string

//nolint:gochecknoglobals // Cobra boilerplate
var renderPDF bool

//nolint:gochecknoglobals // Cobra boilerplate
var keepDocx bool

//nolint:gochecknoglobals // Cobra boilerplate
var convertCmd = &cobra.Command{
	Use:   "convert <cv-file-or-url>",
	Short: "Convert a CV into the standard template",
	Long: `Convert a CV into the standard consultant CV template.

The CV can be provided as:
- A file path (PDF, DOCX, TXT, MD or HTML)
- A URL (e.g., https://example.com/cv.pdf)

Use --sections to skip extraction and merge a sections file saved by 'extract'
(after editing it by hand, for instance).

Example:
  cv-convert convert jane-doe.pdf
  cv-convert convert jane-doe.pdf --strategy regex --template house.docx
  cv-convert convert jane-doe.pdf --provider anthropic --pdf
  cv-convert convert jane-doe.pdf --sections jane-doe.sections.json`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(convertCmd)
	convertFlags.register(convertCmd)
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "Output filename (default <cv name>_formatted.docx)")
	convertCmd.Flags().StringVar(&convertSections, "sections", "", "Merge a saved sections JSON file instead of extracting")
	convertCmd.Flags().BoolVar(&renderPDF, "pdf", false, "Also render a PDF with pandoc")
	convertCmd.Flags().BoolVar(&keepDocx, "keep-docx", true, "Keep the .docx after PDF generation")
}

func runConvert(cmd *cobra.Command, args []string) (err error) {
	ctx := context.Background()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	input := args[0]

	var cfg config.Config
	cfg, err = convertFlags.loadConfig()
	if err != nil {
		return err
	}

	req := pipeline.Request{
		SourceName: input,
		Options:    convertFlags.options(cfg),
	}
	req.Options.OutputName = convertOutput

	p := pipeline.New(logrus.StandardLogger())

	var result pipeline.Result
	if convertSections != "" {
		result, err = mergeSavedSections(p, req)
	} else {
		result, err = convertSource(ctx, p, req)
	}
	if err != nil {
		return err
	}

	// Write the document
	outDir := cfg.Defaults.OutputDir
	docxPath := filepath.Join(outDir, result.Filename)
	err = renderer.WriteDocument(result.Document, docxPath)
	if err != nil {
		return err
	}

	printResult(result, docxPath)

	if !renderPDF {
		return err
	}

	pdfPath := strings.TrimSuffix(docxPath, filepath.Ext(docxPath)) + ".pdf"
	err = runPDFRender(ctx, docxPath, pdfPath, cfg.Pandoc.PDFEngine)
	if err != nil {
		return err
	}

	if !keepDocx {
		err = renderer.Cleanup(docxPath)
		if err != nil {
			return err
		}
	}

	return err
}

func convertSource(ctx context.Context, p *pipeline.Pipeline, req pipeline.Request) (result pipeline.Result, err error) {
	var src cvtext.Source
	src, err = fetchAndLogCV(ctx, req.SourceName)
	if err != nil {
		return result, err
	}
	req.Source = src.Data
	req.SourceName = src.Name

	// Show spinner during extraction unless in verbose mode
	message := fmt.Sprintf("Extracting sections with the %s strategy...", strategyLabel(req.Options))
	var convertSpinner *spinner
	if !getVerbose() {
		convertSpinner = newSpinner(message)
		convertSpinner.start()
	} else {
		fmt.Println(message)
	}

	result, err = p.Run(ctx, req)

	if convertSpinner != nil {
		convertSpinner.stopSpinner()
	}

	if err != nil {
		err = errors.Wrapf(err, "conversion failed (%s)", pipeline.KindOf(err))
		return result, err
	}

	fmt.Println("✓ Sections extracted")
	return result, err
}

func mergeSavedSections(p *pipeline.Pipeline, req pipeline.Request) (result pipeline.Result, err error) {
	var tagged sections.TaggedDocument
	tagged, err = sections.Load(convertSections)
	if err != nil {
		return result, err
	}

	if getVerbose() {
		fmt.Printf("Loaded %d sections from: %s\n", tagged.Len(), convertSections)
	}

	result, err = p.Merge(tagged, req)
	if err != nil {
		err = errors.Wrapf(err, "merge failed (%s)", pipeline.KindOf(err))
		return result, err
	}

	return result, err
}

func fetchAndLogCV(ctx context.Context, input string) (src cvtext.Source, err error) {
	if getVerbose() {
		fmt.Printf("Fetching CV from: %s\n", input)
	}

	src, err = cvtext.Fetch(ctx, input)
	if err != nil {
		return src, err
	}

	if getVerbose() {
		fmt.Printf("CV fetched: %s (%d bytes)\n", src.Name, len(src.Data))
	}

	return src, err
}

func runPDFRender(ctx context.Context, docxPath, pdfPath, engine string) (err error) {
	var pdfSpinner *spinner
	if !getVerbose() {
		pdfSpinner = newSpinner("Rendering PDF with pandoc...")
		pdfSpinner.start()
	} else {
		fmt.Println("Rendering PDF with pandoc...")
	}

	err = renderer.RenderPDF(ctx, docxPath, pdfPath, engine)

	if pdfSpinner != nil {
		pdfSpinner.stopSpinner()
	}

	if err != nil {
		err = errors.Wrap(err, "failed to render PDF")
		return err
	}

	fmt.Printf("✓ PDF: %s\n", pdfPath)
	return err
}

func strategyLabel(opts pipeline.Options) (label string) {
	label = opts.Strategy
	if label == "" || label == "llm" {
		label = fmt.Sprintf("llm (%s %s)", opts.Provider, opts.Model)
	}
	return label
}

// printResult reports what was written and how complete the extraction is.
func printResult(result pipeline.Result, docxPath string) {
	if name := consultantName(result.Sections); name != "" {
		fmt.Printf("Consultant: %s\n", name)
	}

	fmt.Printf("✓ Document: %s (%s mode, %s)\n", docxPath, result.Mode, result.Template)

	if getVerbose() {
		fmt.Printf("  Matched: %d, appended: %d, continuations: %d, placeholders replaced: %d\n",
			len(result.Report.Matched), len(result.Report.Appended), len(result.Report.Continuations), result.Replaced)
	}

	fmt.Println()
	fmt.Print(scorer.NewScorer(result.Expected).Summary(result.Score))
}

// consultantName returns the display name from the header or the Name block, title-cased when the CV shouts it.
func consultantName(tagged sections.TaggedDocument) (name string) {
	if tagged.Header != nil && len(tagged.Header.Content) > 0 {
		name = tagged.Header.Content[0]
	} else if block, ok := tagged.Lookup(sections.TokenName); ok {
		name = block.Text()
	} else if block, ok := tagged.Lookup(sections.Label(sections.TokenName)); ok {
		name = block.Text()
	}

	name = strings.TrimSpace(name)
	if name != "" && name == strings.ToUpper(name) {
		name = cases.Title(language.English).String(strings.ToLower(name))
	}

	return name
}

// spinner provides a simple text-based progress indicator.
type spinner struct {
	message string
	stop    chan bool
	done    chan bool
	mu      sync.Mutex
	active  bool
}

func newSpinner(message string) (s *spinner) {
	s = &spinner{
		message: message,
		stop:    make(chan bool),
		done:    make(chan bool),
	}
	return s
}

func (s *spinner) start() {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return
	}
	s.active = true
	s.mu.Unlock()

	go func() {
		chars := []string{"|", "/", "-", "\\"}
		i := 0
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()

		fmt.Printf("%s ", s.message)
		for {
			select {
			case <-s.stop:
				// Clear the line and ensure cursor is at start of new line
				fmt.Printf("\r%s\r", strings.Repeat(" ", len(s.message)+2))
				s.done <- true
				return
			case <-ticker.C:
				fmt.Printf("\r%s %s", s.message, chars[i%len(chars)])
				i++
			}
		}
	}()
}

func (s *spinner) stopSpinner() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.stop <- true
	<-s.done

	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
}

// sanitizeFilename turns a name into a lowercase, hyphenated file stem.
func sanitizeFilename(name string) (sanitized string) {
	sanitized = strings.TrimSpace(name)
	sanitized = strings.TrimSuffix(sanitized, filepath.Ext(sanitized))

	// Convert to lowercase
	sanitized = strings.ToLower(sanitized)

	// Replace spaces and special chars with hyphens
	sanitized = strings.Map(func(r rune) (result rune) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			result = r
			return result
		}
		result = '-'
		return result
	}, sanitized)

	// Remove consecutive hyphens
	for strings.Contains(sanitized, "--") {
		sanitized = strings.ReplaceAll(sanitized, "--", "-")
	}

	// Trim hyphens from ends
	sanitized = strings.Trim(sanitized, "-")

	return sanitized
}
