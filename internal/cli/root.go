// Package cli implements the mai command-line tool: offline rendering of
// meeting records and speaker label clean-up for transcripts.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCommand creates the mai root command with all subcommands.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mai",
		Short: "Render meeting minutes and tidy transcripts",
		Long: `mai works on files produced by the MAI Recap service.

Examples:
  # Render minutes from an extracted record
  mai render --input record.json

  # List speaker labels in a transcript
  mai speakers detect --input transcript.txt

  # Rename a speaker everywhere
  mai speakers rename --input transcript.txt --map "Speaker 1=Dr. Smith"`,
		SilenceUsage: true,
	}

	cmd.AddCommand(newRenderCommand())
	cmd.AddCommand(newSpeakersCommand())
	return cmd
}

// readInput reads path, or stdin when path is "-"
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("--input is required")
	}
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// writeOutput writes data to path, or to the command output when path is empty
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s (%d bytes)\n", path, len(data))
	return nil
}
