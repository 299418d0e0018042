package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/johnquangdev/mai-recap/internal/usecase/speaker"
)

// newSpeakersCommand creates the 'speakers' command with its subcommands.
func newSpeakersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "speakers",
		Short:   "Detect and rename speaker labels",
		Aliases: []string{"speaker"},
	}

	cmd.AddCommand(newSpeakersDetectCommand())
	cmd.AddCommand(newSpeakersRenameCommand())
	return cmd
}

type detectOptions struct {
	input  string
	maxLen int
	output string
}

func newSpeakersDetectCommand() *cobra.Command {
	opts := &detectOptions{}

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "List speaker labels found in a transcript",
		Long: `List the distinct labels that start a line and are followed by a colon,
such as "Speaker 1:" or "**Dr. Smith**:". Labels as long as --max-len or
longer are ignored.

Examples:
  mai speakers detect --input transcript.txt
  mai speakers detect --input transcript.txt -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSpeakersDetect(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Transcript file (- for stdin)")
	cmd.Flags().IntVar(&opts.maxLen, "max-len", speaker.DefaultMaxLabelLen, "Ignore labels this long or longer")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "text", "Output format: text, json, yaml")
	return cmd
}

func runSpeakersDetect(cmd *cobra.Command, opts *detectOptions) error {
	if opts.maxLen <= 0 {
		return fmt.Errorf("--max-len must be positive")
	}

	raw, err := readInput(cmd, opts.input)
	if err != nil {
		return err
	}

	labels := speaker.New(speaker.WithMaxLabelLen(opts.maxLen)).Detect(string(raw))
	out := cmd.OutOrStdout()

	switch strings.ToLower(opts.output) {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string][]string{"speakers": labels})
	case "yaml":
		return yaml.NewEncoder(out).Encode(map[string][]string{"speakers": labels})
	case "text", "":
		if len(labels) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "No speaker labels found")
			return nil
		}
		for _, l := range labels {
			fmt.Fprintln(out, l)
		}
		return nil
	default:
		return fmt.Errorf("unsupported output format %q", opts.output)
	}
}

type renameOptions struct {
	input    string
	mappings []string
	out      string
}

func newSpeakersRenameCommand() *cobra.Command {
	opts := &renameOptions{}

	cmd := &cobra.Command{
		Use:   "rename",
		Short: "Rename speaker labels in a transcript",
		Long: `Rewrite labels given as OLD=NEW pairs. All pairs apply in one pass, so
swapping two names works. A label is rewritten where it starts a line before
a colon (plain, **bold** or __bold__) and wherever it appears as **Label**.

Examples:
  mai speakers rename --input transcript.txt --map "Speaker 1=Dr. Smith"
  mai speakers rename -i t.txt --map "Speaker 1=Ann" --map "Speaker 2=Bob" --out named.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSpeakersRename(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Transcript file (- for stdin)")
	cmd.Flags().StringArrayVarP(&opts.mappings, "map", "m", nil, "OLD=NEW label pair (repeatable)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Output file (default stdout)")
	return cmd
}

func runSpeakersRename(cmd *cobra.Command, opts *renameOptions) error {
	mapping, err := parseMappings(opts.mappings)
	if err != nil {
		return err
	}

	raw, err := readInput(cmd, opts.input)
	if err != nil {
		return err
	}

	result := speaker.New().Rename(string(raw), mapping)
	if err := writeOutput(cmd, opts.out, []byte(result.Text)); err != nil {
		return err
	}

	fmt.Fprintln(cmd.ErrOrStderr(), result.Summary())
	labels := make([]string, 0, len(result.PerLabel))
	for l := range result.PerLabel {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	for _, l := range labels {
		fmt.Fprintf(cmd.ErrOrStderr(), "  %s → %s: %d\n", l, mapping[l], result.PerLabel[l])
	}
	return nil
}

// parseMappings turns "OLD=NEW" flags into a mapping. The first '=' splits.
func parseMappings(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, fmt.Errorf("at least one --map OLD=NEW is required")
	}

	mapping := make(map[string]string, len(pairs))
	for _, p := range pairs {
		from, to, ok := strings.Cut(p, "=")
		from, to = strings.TrimSpace(from), strings.TrimSpace(to)
		if !ok || from == "" || to == "" {
			return nil, fmt.Errorf("invalid --map %q: want OLD=NEW", p)
		}
		if prev, dup := mapping[from]; dup && prev != to {
			return nil, fmt.Errorf("label %q mapped twice", from)
		}
		mapping[from] = to
	}
	return mapping, nil
}
