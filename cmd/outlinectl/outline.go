package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/outlined/internal/generator"
	"github.com/fyrsmithlabs/outlined/internal/library"
	"github.com/fyrsmithlabs/outlined/internal/prompt"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a workshop outline",
	Long: `Generate a workshop outline in the style of the reference library.

Without --ref the most similar references are retrieved by embedding
similarity. Segments are given as "Title:minutes" or "Title:minutes:description".

Examples:
  # Generate from flags
  outlinectl generate --title "Leadership Day" --objectives "Build trust" \
    --duration 180 --segment "Welcome:15" --segment "Break:20"

  # Generate from a specification file using two references
  outlinectl generate --spec spec.json --ref <id> --ref <id>`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

var regenerateCmd = &cobra.Command{
	Use:   "regenerate <outline-id>",
	Short: "Regenerate one segment of a generated outline",
	Long: `Replace segment --index of a stored outline with newly generated text.

An empty --title or a zero --duration keeps the current value. An index
outside the outline leaves it unchanged.

Examples:
  outlinectl regenerate <id> --index 2 --title "Group Exercise" --duration 45`,
	Args: cobra.ExactArgs(1),
	RunE: runRegenerate,
}

var outlineCmd = &cobra.Command{
	Use:   "outline",
	Short: "Manage generated outlines",
	Long: `Manage generated outlines.

Examples:
  outlinectl outline list
  outlinectl outline show <id>
  outlinectl outline rm <id>`,
}

var outlineListCmd = &cobra.Command{
	Use:   "list",
	Short: "List generated outlines",
	Args:  cobra.NoArgs,
	RunE:  runOutlineList,
}

var outlineShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a generated outline",
	Args:  cobra.ExactArgs(1),
	RunE:  runOutlineShow,
}

var outlineRmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Remove a generated outline",
	Args:    cobra.ExactArgs(1),
	RunE:    runOutlineRm,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search reference outline chunks",
	Long: `Semantic search over segment-aligned chunks of the reference library.

Examples:
  outlinectl search "icebreaker activity" --limit 3`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	generateCmd.Flags().String("spec", "", "specification JSON file")
	generateCmd.Flags().String("title", "", "workshop title")
	generateCmd.Flags().String("objectives", "", "workshop objectives")
	generateCmd.Flags().Int("duration", 0, "total duration in minutes")
	generateCmd.Flags().StringArray("segment", nil, "required segment as Title:minutes[:description] (repeatable)")
	generateCmd.Flags().StringSlice("ref", nil, "reference IDs to use instead of retrieval")
	generateCmd.Flags().Float64("adherence", -1, "style adherence between 0 and 1 (default from config)")

	regenerateCmd.Flags().Int("index", 0, "zero-based segment index")
	regenerateCmd.Flags().String("title", "", "new segment title")
	regenerateCmd.Flags().Int("duration", 0, "new segment duration in minutes")
	regenerateCmd.Flags().String("description", "", "new segment description")
	regenerateCmd.Flags().StringSlice("ref", nil, "reference IDs to use")

	searchCmd.Flags().Int("limit", 5, "maximum number of results")

	outlineCmd.AddCommand(outlineListCmd, outlineShowCmd, outlineRmCmd)
	rootCmd.AddCommand(generateCmd, regenerateCmd, outlineCmd, searchCmd)
}

// parseSegmentFlag parses "Title:minutes[:description]". The duration may be
// omitted or empty.
func parseSegmentFlag(s string) (prompt.SegmentRequirement, error) {
	parts := strings.SplitN(s, ":", 3)
	seg := prompt.SegmentRequirement{Title: strings.TrimSpace(parts[0])}
	if seg.Title == "" {
		return seg, fmt.Errorf("segment %q has no title", s)
	}
	if len(parts) > 1 {
		if d := strings.TrimSpace(parts[1]); d != "" {
			minutes, err := strconv.Atoi(d)
			if err != nil || minutes < 0 {
				return seg, fmt.Errorf("segment %q: invalid duration %q", s, d)
			}
			seg.DurationMinutes = minutes
		}
	}
	if len(parts) > 2 {
		seg.Description = strings.TrimSpace(parts[2])
	}
	return seg, nil
}

// buildSpecification merges the --spec file with flag overrides.
func buildSpecification(cmd *cobra.Command) (prompt.Specification, error) {
	var spec prompt.Specification
	if path, _ := cmd.Flags().GetString("spec"); path != "" {
		var err error
		if spec, err = readSpecification(path); err != nil {
			return spec, err
		}
	}

	if title, _ := cmd.Flags().GetString("title"); title != "" {
		spec.Title = title
	}
	if objectives, _ := cmd.Flags().GetString("objectives"); objectives != "" {
		spec.Objectives = objectives
	}
	if duration, _ := cmd.Flags().GetInt("duration"); duration > 0 {
		spec.TotalDurationMinutes = duration
	}
	segments, _ := cmd.Flags().GetStringArray("segment")
	for _, s := range segments {
		seg, err := parseSegmentFlag(s)
		if err != nil {
			return spec, err
		}
		spec.Segments = append(spec.Segments, seg)
	}
	return spec, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	spec, err := buildSpecification(cmd)
	if err != nil {
		return err
	}
	refIDs, _ := cmd.Flags().GetStringSlice("ref")

	req := generator.GenerateRequest{Spec: spec, ReferenceIDs: refIDs}
	if adherence, _ := cmd.Flags().GetFloat64("adherence"); adherence >= 0 {
		req.StyleAdherence = &adherence
	}

	return withApp(cmd.Context(), func(a *app) error {
		result, err := a.service.Generate(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("generating outline: %w", err)
		}
		if jsonOutput {
			return outputJSON(cmd.OutOrStdout(), result)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Generated outline %s", result.Outline.ID)
		if len(result.ReferenceIDs) > 0 {
			fmt.Fprintf(out, " (references: %s)", strings.Join(result.ReferenceIDs, ", "))
		}
		fmt.Fprintf(out, "\n\n%s\n", result.Outline.Content)
		return nil
	})
}

func runRegenerate(cmd *cobra.Command, args []string) error {
	index, _ := cmd.Flags().GetInt("index")
	title, _ := cmd.Flags().GetString("title")
	duration, _ := cmd.Flags().GetInt("duration")
	description, _ := cmd.Flags().GetString("description")
	refIDs, _ := cmd.Flags().GetStringSlice("ref")

	return withApp(cmd.Context(), func(a *app) error {
		result, err := a.service.RegenerateSegment(cmd.Context(), generator.RegenerateRequest{
			OutlineID:    args[0],
			SegmentIndex: index,
			Segment: prompt.SegmentRequirement{
				Title:           title,
				DurationMinutes: duration,
				Description:     description,
			},
			ReferenceIDs: refIDs,
		})
		if err != nil {
			return fmt.Errorf("regenerating segment: %w", err)
		}
		if jsonOutput {
			return outputJSON(cmd.OutOrStdout(), result)
		}
		out := cmd.OutOrStdout()
		if !result.Changed {
			fmt.Fprintf(out, "Segment %d not found, outline %s unchanged\n", index, result.Outline.ID)
			return nil
		}
		fmt.Fprintf(out, "Regenerated segment %d of outline %s\n\n%s\n", index, result.Outline.ID, result.Outline.Content)
		return nil
	})
}

func runOutlineList(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		outlines, err := a.service.ListOutlines(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing outlines: %w", err)
		}
		if jsonOutput {
			return outputJSON(cmd.OutOrStdout(), outlines)
		}
		if len(outlines) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No generated outlines.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tDURATION\tREFERENCE\tUPDATED")
		for _, o := range outlines {
			ref := o.ReferenceID
			if ref == "" {
				ref = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%d min\t%s\t%s\n",
				o.ID,
				truncate(o.Title, 40),
				o.TotalDuration,
				ref,
				o.UpdatedAt.Format("2006-01-02 15:04"),
			)
		}
		return w.Flush()
	})
}

func runOutlineShow(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		o, err := a.service.GetOutline(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("getting outline: %w", err)
		}
		if jsonOutput {
			return outputJSON(cmd.OutOrStdout(), o)
		}
		printOutline(cmd, o)
		return nil
	})
}

func printOutline(cmd *cobra.Command, o library.Outline) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:         %s\n", o.ID)
	fmt.Fprintf(out, "Title:      %s\n", o.Title)
	if o.Objectives != "" {
		fmt.Fprintf(out, "Objectives: %s\n", o.Objectives)
	}
	fmt.Fprintf(out, "Duration:   %d min\n", o.TotalDuration)
	if o.ReferenceID != "" {
		fmt.Fprintf(out, "Reference:  %s\n", o.ReferenceID)
	}
	fmt.Fprintf(out, "Updated:    %s\n", o.UpdatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintln(out)
	fmt.Fprintln(out, o.Content)
}

func runOutlineRm(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		if err := a.service.DeleteOutline(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("removing outline: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed outline %s\n", args[0])
		return nil
	})
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	limit, _ := cmd.Flags().GetInt("limit")

	return withApp(cmd.Context(), func(a *app) error {
		hits, err := a.service.Search(cmd.Context(), query, limit)
		if err != nil {
			return fmt.Errorf("searching: %w", err)
		}
		if jsonOutput {
			return outputJSON(cmd.OutOrStdout(), hits)
		}
		if len(hits) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No matches.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SCORE\tREFERENCE\tSEGMENT\tCONTENT")
		for _, h := range hits {
			fmt.Fprintf(w, "%.3f\t%s\t%s\t%s\n",
				h.Score,
				truncate(h.ReferenceTitle, 30),
				truncate(h.SegmentTitle, 30),
				truncate(h.Content, 60),
			)
		}
		return w.Flush()
	})
}
