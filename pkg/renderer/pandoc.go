package renderer

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/pkg/errors"
)

// DefaultPDFEngine is passed to pandoc when no engine is configured.
const DefaultPDFEngine = "xelatex"

// RenderPDF converts a .docx file to PDF using pandoc.
func RenderPDF(ctx context.Context, docxPath, outputPath, engine string) (err error) {
	// Validate pandoc exists
	err = checkPandocExists(ctx)
	if err != nil {
		return err
	}

	// Validate input file exists
	err = validateFiles(docxPath)
	if err != nil {
		return err
	}

	// Ensure output directory exists
	outputDir := filepath.Dir(outputPath)
	err = os.MkdirAll(outputDir, 0750)
	if err != nil {
		err = errors.Wrapf(err, "failed to create output directory: %s", outputDir)
		return err
	}

	cmd := exec.CommandContext(ctx, "pandoc", pandocArgs(docxPath, outputPath, engine)...)

	// Capture output
	var output []byte
	output, err = cmd.CombinedOutput()
	if err != nil {
		err = errors.Wrapf(err, "pandoc failed: %s", string(output))
		return err
	}

	return err
}

func pandocArgs(docxPath, outputPath, engine string) (args []string) {
	if engine == "" {
		engine = DefaultPDFEngine
	}
	args = []string{
		"-f", "docx",
		"-o", outputPath,
		"--pdf-engine=" + engine,
		docxPath,
	}
	return args
}

// checkPandocExists verifies pandoc is installed.
func checkPandocExists(ctx context.Context) (err error) {
	cmd := exec.CommandContext(ctx, "pandoc", "--version")
	err = cmd.Run()
	if err != nil {
		err = errors.New("pandoc not found in PATH (install pandoc to generate PDFs)")
		return err
	}
	return err
}

// validateFiles checks that required files exist.
func validateFiles(paths ...string) (err error) {
	for _, path := range paths {
		_, err = os.Stat(path)
		if os.IsNotExist(err) {
			err = errors.Errorf("file not found: %s", path)
			return err
		}
	}
	return err
}

// WriteDocument writes a serialized .docx to a file.
func WriteDocument(data []byte, outputPath string) (err error) {
	err = writeFile(data, outputPath)
	if err != nil {
		err = errors.Wrap(err, "failed to write document")
		return err
	}
	return err
}

// WriteMarkdown writes markdown content to a file.
func WriteMarkdown(content, outputPath string) (err error) {
	err = writeFile([]byte(content), outputPath)
	if err != nil {
		err = errors.Wrap(err, "failed to write markdown")
		return err
	}
	return err
}

func writeFile(data []byte, outputPath string) (err error) {
	// Ensure output directory exists
	outputDir := filepath.Dir(outputPath)
	err = os.MkdirAll(outputDir, 0750)
	if err != nil {
		err = errors.Wrapf(err, "failed to create output directory: %s", outputDir)
		return err
	}

	// Write file
	err = os.WriteFile(outputPath, data, 0600)
	if err != nil {
		err = errors.Wrapf(err, "failed to write file: %s", outputPath)
		return err
	}

	return err
}

// Cleanup removes intermediate files, e.g. the .docx after PDF generation.
func Cleanup(paths ...string) (err error) {
	for _, path := range paths {
		err = os.Remove(path)
		if err != nil {
			err = errors.Wrapf(err, "failed to remove file: %s", path)
			return err
		}
	}
	return err
}
