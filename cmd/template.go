package cmd

import (
	"fmt"
	"strings"

	"github.com/nikogura/cv-convert/pkg/pipeline"
	"github.com/nikogura/cv-convert/pkg/renderer"
	"github.com/nikogura/cv-convert/pkg/sections"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var templateMode string

//nolint:gochecknoglobals // Cobra boilerplate
var templateHeadings []string

//nolint:gochecknoglobals // Cobra boilerplate
var templateCmd = &cobra.Command{
	Use:   "template <output.docx>",
	Short: "Write the bundled default template",
	Long: `Write the bundled template to a file so it can be restyled in Word and
configured as template_path.

Reconcile templates carry one heading paragraph per section; placeholder
templates carry [NAME]-style tokens.

Example:
  cv-convert template house.docx
  cv-convert template fields.docx --mode placeholder
  cv-convert template short.docx --headings "Role,Technical skills,Education and training"`,
	Args: cobra.ExactArgs(1),
	RunE: runTemplate,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(templateCmd)
	templateCmd.Flags().StringVar(&templateMode, "mode", pipeline.ModeReconcile, "Template mode: reconcile or placeholder")
	templateCmd.Flags().StringSliceVar(&templateHeadings, "headings", nil, "Section headings for a reconcile template (default: standard consultant headings)")
}

func runTemplate(cmd *cobra.Command, args []string) (err error) {
	var mode string
	mode, err = pipeline.ResolveMode(templateMode, "", sections.GrammarTagged)
	if err != nil {
		return err
	}

	for _, h := range templateHeadings {
		if strings.TrimSpace(h) == "" {
			err = errors.New("headings must not be blank")
			return err
		}
	}

	var data []byte
	data, err = pipeline.DefaultTemplate(mode, templateHeadings)
	if err != nil {
		return err
	}

	err = renderer.WriteDocument(data, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("✓ Template (%s mode): %s\n", mode, args[0])
	return err
}
