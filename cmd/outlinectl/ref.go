package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/outlined/internal/generator"
	"github.com/fyrsmithlabs/outlined/internal/library"
	"github.com/fyrsmithlabs/outlined/internal/outline"
)

var refCmd = &cobra.Command{
	Use:   "ref",
	Short: "Manage reference outlines",
	Long: `Manage the library of reference outlines that guide generation.

Examples:
  # Add a reference outline
  outlinectl ref add leadership.docx --description "Two hour leadership session"

  # List references
  outlinectl ref list

  # Show one reference
  outlinectl ref show <id>

  # Remove a reference
  outlinectl ref rm <id>`,
}

var refAddCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Add a reference outline",
	Args:  cobra.ExactArgs(1),
	RunE:  runRefAdd,
}

var refListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reference outlines",
	Args:  cobra.NoArgs,
	RunE:  runRefList,
}

var refShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a reference outline",
	Args:  cobra.ExactArgs(1),
	RunE:  runRefShow,
}

var refRmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Remove a reference outline",
	Args:    cobra.ExactArgs(1),
	RunE:    runRefRm,
}

func init() {
	refAddCmd.Flags().String("title", "", "title (default: detected from the document)")
	refAddCmd.Flags().String("description", "", "description")
	refAddCmd.Flags().String("format", "", "input format: text, docx, pdf (default: by extension)")

	refCmd.AddCommand(refAddCmd, refListCmd, refShowCmd, refRmCmd)
	rootCmd.AddCommand(refCmd)
}

func runRefAdd(cmd *cobra.Command, args []string) error {
	format, err := parseFormatFlag(cmd)
	if err != nil {
		return err
	}
	title, _ := cmd.Flags().GetString("title")
	description, _ := cmd.Flags().GetString("description")

	path := args[0]
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	data, err := readText(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}

	return withApp(cmd.Context(), func(a *app) error {
		result, err := a.service.AddReference(cmd.Context(), generator.ReferenceInput{
			Title:       title,
			Description: description,
			Filename:    filepath.Base(path),
			Data:        []byte(data),
			Format:      format,
		})
		if err != nil {
			return fmt.Errorf("adding reference: %w", err)
		}

		if jsonOutput {
			return outputJSON(cmd.OutOrStdout(), result)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Added reference %s\n", result.Reference.ID)
		fmt.Fprintf(out, "  Title:    %s\n", result.Reference.Title)
		fmt.Fprintf(out, "  Source:   %s\n", result.Reference.Source)
		fmt.Fprintf(out, "  Segments: %d (%d min)\n",
			result.Structure.SegmentCount(), result.Structure.TotalDurationMinutes())
		fmt.Fprintf(out, "  Chunks:   %d\n", result.Chunks)
		if !result.Embedded {
			fmt.Fprintln(out, "  Warning:  embedding failed, stored without a similarity vector")
		}
		return nil
	})
}

func runRefList(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		refs, err := a.service.ListReferences(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing references: %w", err)
		}

		if jsonOutput {
			return outputJSON(cmd.OutOrStdout(), refs)
		}
		if len(refs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No reference outlines.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tSOURCE\tSEGMENTS\tCREATED")
		for _, ref := range refs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
				ref.ID,
				truncate(ref.Title, 40),
				ref.Source,
				outline.Parse(ref.Content).SegmentCount(),
				ref.CreatedAt.Format("2006-01-02 15:04"),
			)
		}
		return w.Flush()
	})
}

func runRefShow(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		ref, err := a.service.GetReference(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("getting reference: %w", err)
		}
		if jsonOutput {
			return outputJSON(cmd.OutOrStdout(), referenceDetail{
				Reference: ref,
				Structure: outline.Parse(ref.Content),
			})
		}
		printReference(cmd, ref)
		return nil
	})
}

// referenceDetail is the JSON form of ref show.
type referenceDetail struct {
	library.Reference
	Structure outline.Structure `json:"structure"`
}

func printReference(cmd *cobra.Command, ref library.Reference) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:       %s\n", ref.ID)
	fmt.Fprintf(out, "Title:    %s\n", ref.Title)
	if ref.Description != "" {
		fmt.Fprintf(out, "Desc:     %s\n", ref.Description)
	}
	if ref.Filename != "" {
		fmt.Fprintf(out, "File:     %s\n", ref.Filename)
	}
	fmt.Fprintf(out, "Source:   %s\n", ref.Source)
	fmt.Fprintf(out, "Created:  %s\n", ref.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintln(out)
	fmt.Fprintln(out, ref.Content)
}

func runRefRm(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		if err := a.service.DeleteReference(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("removing reference: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed reference %s\n", args[0])
		return nil
	})
}
