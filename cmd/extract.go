package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/nikogura/cv-convert/pkg/config"
	"github.com/nikogura/cv-convert/pkg/pipeline"
	"github.com/nikogura/cv-convert/pkg/renderer"
	"github.com/nikogura/cv-convert/pkg/scorer"
	"github.com/nikogura/cv-convert/pkg/sections"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var extractFlags pipelineFlags

//nolint:gochecknoglobals // Cobra boilerplate
var extractKeepMarkdown bool

//nolint:gochecknoglobals // Cobra boilerplate
var extractCmd = &cobra.Command{
	Use:   "extract <cv-file-or-url>",
	Short: "Extract CV sections to JSON without writing a document",
	Long: `Extract the sections of a CV and save them as <name>.sections.json, plus a
markdown preview, and print the completeness score.

The JSON file can be edited and merged later with 'convert --sections'.

Example:
  cv-convert extract jane-doe.pdf
  cv-convert extract jane-doe.pdf --strategy nlp --output-dir ./review`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(extractCmd)
	extractFlags.register(extractCmd)
	extractCmd.Flags().BoolVar(&extractKeepMarkdown, "keep-markdown", true, "Write a markdown preview next to the JSON")
}

func runExtract(cmd *cobra.Command, args []string) (err error) {
	ctx := context.Background()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	var cfg config.Config
	cfg, err = extractFlags.loadConfig()
	if err != nil {
		return err
	}

	req := pipeline.Request{
		SourceName: args[0],
		Options:    extractFlags.options(cfg),
	}

	var result pipeline.Result
	result, err = convertSource(ctx, pipeline.New(logrus.StandardLogger()), req)
	if err != nil {
		return err
	}

	stem := sanitizeFilename(strings.TrimSuffix(result.Filename, "_formatted.docx"))
	if stem == "" {
		stem = "cv"
	}
	jsonPath := filepath.Join(cfg.Defaults.OutputDir, stem+".sections.json")
	mdPath := filepath.Join(cfg.Defaults.OutputDir, stem+".sections.md")

	err = writeSections(result.Sections, jsonPath, mdPath)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Sections: %s (%d blocks)\n", jsonPath, result.Sections.Len())
	if extractKeepMarkdown {
		fmt.Printf("✓ Preview: %s\n", mdPath)
	}

	fmt.Println()
	fmt.Print(scorer.NewScorer(result.Expected).Summary(result.Score))

	return err
}

func writeSections(tagged sections.TaggedDocument, jsonPath, mdPath string) (err error) {
	// The markdown write also creates the output directory
	err = renderer.WriteMarkdown(tagged.Markdown(), mdPath)
	if err != nil {
		return err
	}

	err = sections.Save(jsonPath, tagged)
	if err != nil {
		return err
	}

	if !extractKeepMarkdown {
		err = renderer.Cleanup(mdPath)
		if err != nil {
			return err
		}
	}

	return err
}
