package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"score-handler/internal/survey"
)

func boundsCmd() *cobra.Command {
	var (
		sections int
		legacy   bool
	)

	cmd := &cobra.Command{
		Use:   "bounds",
		Short: "Show the raw totals mapped to risk level 0 and 100",
		RunE: func(cmd *cobra.Command, args []string) error {
			b := survey.DeriveBounds(sections)
			if legacy {
				b = survey.LegacyBounds
			}
			fmt.Fprintf(cmd.OutOrStdout(), "min %.4f\nmax %.4f\n", b.Min, b.Max)
			return nil
		},
	}

	cmd.Flags().IntVarP(&sections, "sections", "s", 10, "Number of unit-weight factor sections")
	cmd.Flags().BoolVar(&legacy, "legacy", false, "Show the legacy hardcoded bounds instead")

	return cmd
}

func surveyCmd() *cobra.Command {
	var (
		sections int
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "survey [file]",
		Short: "Score a survey submission from a JSON file (or - for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			sub, err := survey.DecodeSubmission(payload)
			if err != nil {
				return err
			}
			res, err := survey.NewAggregator(survey.DeriveBounds(sections)).Aggregate(sub)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, res)
			}

			fmt.Fprintf(out, "user %s\n\n", res.UserID)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SECTION\tSCORE")
			for _, s := range res.Sections {
				fmt.Fprintf(tw, "%s\t%.4f\n", s.Name, s.Score)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nraw total %.4f\nrisk level %.2f\n", res.RawTotal, res.RiskLevel)
			return nil
		},
	}

	cmd.Flags().IntVarP(&sections, "sections", "s", 10, "Number of unit-weight factor sections used for the bounds")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output as JSON")

	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
