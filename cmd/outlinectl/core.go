package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/outlined/internal/ingest"
	"github.com/fyrsmithlabs/outlined/internal/outline"
	"github.com/fyrsmithlabs/outlined/internal/prompt"
	"github.com/fyrsmithlabs/outlined/internal/ranker"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse an outline into its structure",
	Long: `Parse a workshop outline and print its title, segments and format style as JSON.

Examples:
  # Parse a Word document
  outlinectl parse leadership.docx

  # Parse from stdin
  cat outline.txt | outlinectl parse -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

var styleCmd = &cobra.Command{
	Use:   "style [file]",
	Short: "Detect the format style of an outline",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStyle,
}

var mergeCmd = &cobra.Command{
	Use:   "merge <file>...",
	Short: "Merge the format styles of several outlines",
	Long: `Detect the format style of every file and print the dominant style.

A convention holds in the merged style only when a strict majority of the
files use it.

Examples:
  outlinectl merge a.txt b.docx c.pdf`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMerge,
}

var patternsCmd = &cobra.Command{
	Use:   "patterns <file>...",
	Short: "Extract segment patterns across outlines",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPatterns,
}

var rankCmd = &cobra.Command{
	Use:   "rank [file]",
	Short: "Rank vectors by cosine similarity",
	Long: `Rank candidate vectors by cosine similarity to a query vector.

Input is JSON:
  {"query": [1, 0], "candidates": [{"id": "a", "vector": [1, 0]}], "k": 3}

Examples:
  outlinectl rank vectors.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRank,
}

var promptCmd = &cobra.Command{
	Use:   "prompt [reference]...",
	Short: "Render a generation request without sending it",
	Long: `Render the outline generation request built from a specification and
reference outlines. With --outline and --index the request that regenerates
one segment of that outline is rendered instead.

The specification is JSON:
  {"title": "...", "objectives": "...", "total_duration": 120,
   "segments": [{"title": "Welcome", "duration": 10}]}

Examples:
  outlinectl prompt --spec spec.json ref1.docx ref2.pdf
  outlinectl prompt --outline draft.txt --index 1 --title "Deep Dive" --duration 30`,
	RunE: runPrompt,
}

var spliceCmd = &cobra.Command{
	Use:   "splice <file>",
	Short: "Show or replace one segment of an outline",
	Long: `Print the text of segment --index, or with --with replace it and print the
whole outline. An out-of-range index prints the outline unchanged.

Examples:
  outlinectl splice outline.txt --index 2
  outlinectl splice outline.txt --index 2 --with new-segment.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runSplice,
}

var chunkCmd = &cobra.Command{
	Use:   "chunk [file]",
	Short: "Split an outline into segment-aligned chunks",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runChunk,
}

var normalizeCmd = &cobra.Command{
	Use:   "normalize [file]",
	Short: "Normalize text extracted from a PDF",
	Long: `Restore headers, bullets and durations broken by PDF text extraction.

Examples:
  pdftotext handout.pdf - | outlinectl normalize -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNormalize,
}

func init() {
	for _, cmd := range []*cobra.Command{parseCmd, styleCmd, mergeCmd, patternsCmd, promptCmd, chunkCmd} {
		cmd.Flags().String("format", "", "input format: text, docx, pdf (default: by extension)")
	}

	promptCmd.Flags().String("spec", "", "specification JSON file")
	promptCmd.Flags().Float64("adherence", prompt.DefaultStyleAdherence, "style adherence between 0 and 1")
	promptCmd.Flags().Int("excerpt", prompt.DefaultExcerptChars, "maximum characters per reference example")
	promptCmd.Flags().String("outline", "", "outline whose segment is regenerated")
	promptCmd.Flags().Int("index", 0, "segment index for --outline")
	promptCmd.Flags().String("title", "", "replacement segment title")
	promptCmd.Flags().Int("duration", 0, "replacement segment duration in minutes")
	promptCmd.Flags().String("description", "", "replacement segment description")

	spliceCmd.Flags().Int("index", 0, "zero-based segment index")
	spliceCmd.Flags().String("with", "", "replacement segment file (- for stdin)")

	chunkCmd.Flags().Int("size", outline.DefaultChunkSize, "maximum chunk size in bytes")

	rootCmd.AddCommand(parseCmd, styleCmd, mergeCmd, patternsCmd, rankCmd,
		promptCmd, spliceCmd, chunkCmd, normalizeCmd)
}

func argOrStdin(args []string) string {
	if len(args) == 0 {
		return "-"
	}
	return args[0]
}

func runParse(cmd *cobra.Command, args []string) error {
	format, err := parseFormatFlag(cmd)
	if err != nil {
		return err
	}
	doc, err := readDocument(cmd.InOrStdin(), argOrStdin(args), format)
	if err != nil {
		return err
	}
	return outputJSON(cmd.OutOrStdout(), outline.Parse(doc.Text))
}

func runStyle(cmd *cobra.Command, args []string) error {
	format, err := parseFormatFlag(cmd)
	if err != nil {
		return err
	}
	doc, err := readDocument(cmd.InOrStdin(), argOrStdin(args), format)
	if err != nil {
		return err
	}
	return outputJSON(cmd.OutOrStdout(), outline.DetectStyle(doc.Text))
}

// readDocuments decodes every path, allowing at most one "-".
func readDocuments(cmd *cobra.Command, paths []string) ([]*ingest.Document, error) {
	format, err := parseFormatFlag(cmd)
	if err != nil {
		return nil, err
	}
	docs := make([]*ingest.Document, 0, len(paths))
	stdinUsed := false
	for _, path := range paths {
		if path == "-" {
			if stdinUsed {
				return nil, fmt.Errorf("stdin can only be read once")
			}
			stdinUsed = true
		}
		doc, err := readDocument(cmd.InOrStdin(), path, format)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func runMerge(cmd *cobra.Command, args []string) error {
	docs, err := readDocuments(cmd, args)
	if err != nil {
		return err
	}
	styles := make([]outline.FormatStyle, len(docs))
	for i, doc := range docs {
		styles[i] = outline.DetectStyle(doc.Text)
	}
	return outputJSON(cmd.OutOrStdout(), outline.MergeStyles(styles))
}

func runPatterns(cmd *cobra.Command, args []string) error {
	docs, err := readDocuments(cmd, args)
	if err != nil {
		return err
	}
	refs := make([]outline.ReferenceSegments, len(docs))
	for i, doc := range docs {
		refs[i] = outline.ReferenceSegments{
			ID:       doc.Filename,
			Segments: outline.Parse(doc.Text).Segments,
		}
	}
	return outputJSON(cmd.OutOrStdout(), outline.ExtractPatterns(refs))
}

// rankInput is the JSON document read by the rank command.
type rankInput struct {
	Query      []float32 `json:"query"`
	Candidates []struct {
		ID     string    `json:"id"`
		Vector []float32 `json:"vector"`
	} `json:"candidates"`
	K int `json:"k"`
}

type rankOutput struct {
	ID           string  `json:"id"`
	Score        float64 `json:"score"`
	OriginalRank int     `json:"original_rank"`
}

func runRank(cmd *cobra.Command, args []string) error {
	raw, err := readText(cmd.InOrStdin(), argOrStdin(args))
	if err != nil {
		return err
	}
	var in rankInput
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return fmt.Errorf("decoding rank input: %w", err)
	}

	candidates := make([]ranker.Candidate, len(in.Candidates))
	for i, c := range in.Candidates {
		candidates[i] = ranker.Candidate{ID: c.ID, Vector: c.Vector}
	}

	results := ranker.Rank(in.Query, candidates, in.K)
	out := make([]rankOutput, len(results))
	for i, r := range results {
		out[i] = rankOutput{ID: r.ID, Score: r.Score, OriginalRank: r.OriginalRank}
	}
	return outputJSON(cmd.OutOrStdout(), out)
}

func runPrompt(cmd *cobra.Command, args []string) error {
	outlinePath, _ := cmd.Flags().GetString("outline")
	if outlinePath != "" {
		return runSegmentPrompt(cmd, outlinePath, args)
	}

	specPath, _ := cmd.Flags().GetString("spec")
	if specPath == "" {
		return fmt.Errorf("--spec or --outline is required")
	}
	spec, err := readSpecification(specPath)
	if err != nil {
		return err
	}

	adherence, _ := cmd.Flags().GetFloat64("adherence")
	if adherence < 0 || adherence > 1 {
		return fmt.Errorf("--adherence must be between 0 and 1, got %v", adherence)
	}
	excerpt, _ := cmd.Flags().GetInt("excerpt")

	refs, err := promptReferences(cmd, args)
	if err != nil {
		return err
	}

	body := prompt.Assemble(prompt.Request{
		Spec:           spec,
		References:     prompt.BuildReferenceData(refs),
		StyleAdherence: adherence,
		ExcerptChars:   excerpt,
	})
	_, err = io.WriteString(cmd.OutOrStdout(), body)
	return err
}

func runSegmentPrompt(cmd *cobra.Command, outlinePath string, refPaths []string) error {
	text, err := readText(cmd.InOrStdin(), outlinePath)
	if err != nil {
		return err
	}
	index, _ := cmd.Flags().GetInt("index")
	current, ok := outline.SegmentText(text, index)
	if !ok {
		return fmt.Errorf("segment %d not found in %s", index, outlinePath)
	}

	title, _ := cmd.Flags().GetString("title")
	duration, _ := cmd.Flags().GetInt("duration")
	description, _ := cmd.Flags().GetString("description")

	refs, err := promptReferences(cmd, refPaths)
	if err != nil {
		return err
	}

	body := prompt.AssembleSegment(prompt.SegmentRequest{
		Index:       index,
		CurrentText: current,
		Replacement: prompt.SegmentRequirement{
			Title:           title,
			DurationMinutes: duration,
			Description:     description,
		},
		Style: prompt.BuildReferenceData(refs).Style,
	})
	_, err = io.WriteString(cmd.OutOrStdout(), body)
	return err
}

func readSpecification(path string) (prompt.Specification, error) {
	var spec prompt.Specification
	data, err := os.ReadFile(path)
	if err != nil {
		return spec, fmt.Errorf("reading specification: %w", err)
	}
	if err := json.Unmarshal(data, &spec); err != nil {
		return spec, fmt.Errorf("decoding specification %s: %w", path, err)
	}
	return spec, nil
}

func promptReferences(cmd *cobra.Command, paths []string) ([]prompt.Reference, error) {
	docs, err := readDocuments(cmd, paths)
	if err != nil {
		return nil, err
	}
	refs := make([]prompt.Reference, len(docs))
	for i, doc := range docs {
		refs[i] = prompt.Reference{
			ID:      filepath.Base(doc.Filename),
			Title:   outline.Parse(doc.Text).Title,
			Content: doc.Text,
			FromPDF: doc.Format == ingest.FormatPDF,
		}
	}
	return refs, nil
}

func runSplice(cmd *cobra.Command, args []string) error {
	text, err := readText(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}
	index, _ := cmd.Flags().GetInt("index")
	withPath, _ := cmd.Flags().GetString("with")

	if withPath == "" {
		segment, ok := outline.SegmentText(text, index)
		if !ok {
			return fmt.Errorf("segment %d not found in %s", index, args[0])
		}
		fmt.Fprintln(cmd.OutOrStdout(), segment)
		return nil
	}

	if args[0] == "-" && withPath == "-" {
		return fmt.Errorf("stdin can only be read once")
	}
	replacement, err := readText(cmd.InOrStdin(), withPath)
	if err != nil {
		return err
	}
	_, err = io.WriteString(cmd.OutOrStdout(), outline.SpliceSegment(text, index, strings.TrimSpace(replacement)))
	return err
}

func runChunk(cmd *cobra.Command, args []string) error {
	format, err := parseFormatFlag(cmd)
	if err != nil {
		return err
	}
	doc, err := readDocument(cmd.InOrStdin(), argOrStdin(args), format)
	if err != nil {
		return err
	}
	size, _ := cmd.Flags().GetInt("size")
	return outputJSON(cmd.OutOrStdout(), outline.ChunkText(doc.Text, size))
}

func runNormalize(cmd *cobra.Command, args []string) error {
	text, err := readText(cmd.InOrStdin(), argOrStdin(args))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), outline.NormalizePDFText(text))
	return nil
}
