package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/johnquangdev/mai-recap/internal/usecase/export"
	"github.com/johnquangdev/mai-recap/internal/usecase/minutes"
)

type renderOptions struct {
	input    string
	defaults string
	format   string
	out      string
}

// newRenderCommand creates the 'render' command.
func newRenderCommand() *cobra.Command {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render minutes from a meeting record",
		Long: `Render the minutes document from a JSON meeting record.

The input may be raw model output: a fenced json block or JSON surrounded
by prose is accepted. Missing fields fall back to the defaults table.

Examples:
  mai render --input record.json
  mai render --input record.json --defaults defaults.yaml --format docx --out minutes.docx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Meeting record JSON file (- for stdin)")
	cmd.Flags().StringVar(&opts.defaults, "defaults", "", "YAML defaults table overriding the built-in one")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "txt", "Output format: txt, docx")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Output file (default stdout)")
	return cmd
}

func runRender(cmd *cobra.Command, opts *renderOptions) error {
	format := strings.ToLower(opts.format)
	if format != "txt" && format != "docx" {
		return fmt.Errorf("unsupported format %q: use txt or docx", opts.format)
	}
	if format == "docx" && (opts.out == "" || opts.out == "-") {
		return fmt.Errorf("--out is required for docx output")
	}

	raw, err := readInput(cmd, opts.input)
	if err != nil {
		return err
	}

	defaults, err := minutes.LoadDefaults(opts.defaults)
	if err != nil {
		return err
	}

	text := minutes.NewRenderer(defaults).RenderJSON(string(raw))
	if format == "txt" {
		return writeOutput(cmd, opts.out, []byte(text))
	}

	doc, err := export.BuildDOCX("", text)
	if err != nil {
		return fmt.Errorf("failed to build docx: %w", err)
	}
	return writeOutput(cmd, opts.out, doc)
}
