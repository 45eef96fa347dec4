package cmd

import (
	"fmt"
	"strings"

	"github.com/nikogura/cv-convert/pkg/docx"
	"github.com/nikogura/cv-convert/pkg/sections"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var inspectAll bool

//nolint:gochecknoglobals // Cobra boilerplate
var inspectCmd = &cobra.Command{
	Use:   "inspect <template.docx>",
	Short: "Show what a template offers for filling",
	Long: `Inspect a .docx template or converted CV: heading paragraphs that reconcile
mode matches against, placeholder tokens that placeholder mode replaces, and
the header table used for the consultant name.

Example:
  cv-convert inspect house-template.docx
  cv-convert inspect Jane_Doe_formatted.docx --all`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().BoolVar(&inspectAll, "all", false, "List every body paragraph with its style")
}

func runInspect(cmd *cobra.Command, args []string) (err error) {
	var doc *docx.Document
	doc, err = docx.OpenFile(args[0])
	if err != nil {
		err = errors.Wrap(err, "failed to open document")
		return err
	}
	defer doc.Close()

	paragraphs := doc.Paragraphs()
	tables := doc.Tables()

	fmt.Printf("Document: %s\n", args[0])
	fmt.Printf("  Paragraphs: %d\n", len(paragraphs))
	fmt.Printf("  Tables: %d\n", len(tables))

	if len(tables) > 0 {
		if cell, ok := tables[0].Cell(0, 0); ok {
			fmt.Printf("  Header cell: %q\n", firstLineOf(cell.Text()))
		}
	}

	fmt.Println("\nHeadings:")
	found := 0
	for _, p := range paragraphs {
		text := strings.TrimSpace(p.Text())
		if text == "" || !strings.HasPrefix(strings.ToLower(p.Style()), "heading") {
			continue
		}
		fmt.Printf("  - %s\n", text)
		found++
	}
	if found == 0 {
		fmt.Println("  (none)")
	}

	fmt.Println("\nPlaceholders:")
	text := doc.PlainText()
	found = 0
	for _, token := range sections.Placeholders {
		if n := strings.Count(text, token); n > 0 {
			fmt.Printf("  - %s (%d)\n", token, n)
			found++
		}
	}
	if found == 0 {
		fmt.Println("  (none in body or tables)")
	}

	if inspectAll {
		fmt.Println("\nParagraphs:")
		for i, p := range paragraphs {
			style := p.Style()
			if style == "" {
				style = "Normal"
			}
			fmt.Printf("  %3d [%s] %s\n", i, style, firstLineOf(p.Text()))
		}
	}

	return err
}

func firstLineOf(text string) (line string) {
	line, _, _ = strings.Cut(strings.TrimSpace(text), "\n")
	return line
}
