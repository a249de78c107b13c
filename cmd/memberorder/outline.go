package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/c360studio/memberorder/order"
)

type outlineMember struct {
	Line     int            `json:"line"`
	Category order.Category `json:"category"`
	Name     string         `json:"name"`
	Rank     int            `json:"rank"`
}

type outlineBody struct {
	StartLine int             `json:"start_line"`
	EndLine   int             `json:"end_line"`
	Members   []outlineMember `json:"members"`
}

func outlineCmd(global *globalOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "outline <file.cs>",
		Short: "Show how each member of a file is classified",
		Long: `Outline prints every type body found in a C# file with its members, their
category and their rank in the configured order. Useful for checking why a
member is reported, or for tuning memberOrder.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, global, ".")
			if err != nil {
				return err
			}
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			analyzer, err := a.analyzer()
			if err != nil {
				return err
			}
			return writeOutline(cmd.OutOrStdout(), analyzer, string(content), asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of text")

	return cmd
}

func writeOutline(out io.Writer, analyzer *order.Analyzer, text string, asJSON bool) error {
	o := analyzer.Order()
	bodies := make([]outlineBody, 0)
	for _, b := range analyzer.Outline(text) {
		body := outlineBody{
			StartLine: b.Range.StartLine + 1,
			EndLine:   b.Range.EndLine + 1,
			Members:   make([]outlineMember, 0, len(b.Members)),
		}
		for _, m := range b.Members {
			body.Members = append(body.Members, outlineMember{
				Line:     m.Line + 1,
				Category: m.Category,
				Name:     m.Name,
				Rank:     o.Rank(m.Category),
			})
		}
		bodies = append(bodies, body)
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(bodies)
	}

	for _, body := range bodies {
		if _, err := fmt.Fprintf(out, "body lines %d-%d\n", body.StartLine, body.EndLine); err != nil {
			return err
		}
		for _, m := range body.Members {
			if _, err := fmt.Fprintf(out, "  %4d  %-16s %2d  %s\n", m.Line, m.Category, m.Rank, m.Name); err != nil {
				return err
			}
		}
	}
	return nil
}
