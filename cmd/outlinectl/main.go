// Package main implements outlinectl, the command-line interface to the
// outlined workshop outline library and generator.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/outlined/internal/ingest"
)

var (
	// configPath overrides the default config file location
	configPath string
	// logLevel overrides logging.level from the config file
	logLevel string
	// jsonOutput switches listings to JSON
	jsonOutput bool
	// version information, set at build time
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "outlinectl",
	Short: "Workshop outline library and generator",
	Long: `outlinectl parses workshop programme outlines, keeps a library of reference
outlines and generates new outlines in their style.

Core commands (parse, style, merge, patterns, rank, prompt, splice, chunk,
normalize) work on local files or stdin and need no configuration. Library and
generation commands read ~/.config/outlined/config.yaml and OUTLINED_*
environment variables.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/outlined/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the outlinectl version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if jsonOutput {
			return outputJSON(cmd.OutOrStdout(), map[string]string{"version": version})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "outlinectl %s\n", version)
		return nil
	},
}

// readDocument decodes the file at path, or stdin when path is "-" or empty.
func readDocument(stdin io.Reader, path string, format ingest.Format) (*ingest.Document, error) {
	if path != "" && path != "-" {
		return ingest.ReadFile(path, format)
	}
	data, err := readLimited(stdin)
	if err != nil {
		return nil, err
	}
	return ingest.Decode("stdin", data, format)
}

// readText returns the raw text of the file at path, or of stdin.
func readText(stdin io.Reader, path string) (string, error) {
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		stdin = f
	}
	data, err := readLimited(stdin)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, ingest.MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	if len(data) > ingest.MaxFileSize {
		return nil, fmt.Errorf("%w: input exceeds %d bytes", ingest.ErrFileTooLarge, ingest.MaxFileSize)
	}
	return data, nil
}

// parseFormatFlag parses --format, where empty means detection.
func parseFormatFlag(cmd *cobra.Command) (ingest.Format, error) {
	s, err := cmd.Flags().GetString("format")
	if err != nil {
		return "", err
	}
	return ingest.ParseFormat(s)
}

func truncate(s string, maxLen int) string {
	r := []rune(strings.Join(strings.Fields(s), " "))
	if len(r) <= maxLen {
		return string(r)
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

func outputJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
