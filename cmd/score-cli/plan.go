package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"score-handler/internal/amortization"
	"score-handler/internal/rates"
)

func rateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rate [riskScore]",
		Short: "Show the annual rate for a risk score, or the whole table",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				score, err := strconv.ParseFloat(args[0], 64)
				if err != nil {
					return fmt.Errorf("risk score: %w", err)
				}
				fmt.Fprintf(out, "%.2f\n", rates.ForRisk(score))
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SCORE\tRATE")
			for _, t := range rates.Tiers() {
				fmt.Fprintf(tw, ">= %g\t%.2f\n", t.Floor, t.Rate)
			}
			fmt.Fprintf(tw, "below\t%.2f\n", rates.FallbackRate)
			return tw.Flush()
		},
	}
	return cmd
}

func scheduleCmd() *cobra.Command {
	var (
		amount     float64
		risk       float64
		periods    int
		instalment float64
		noFees     bool
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Print a repayment schedule",
		Long: `Print a repayment schedule for an amount and a risk score.

Give either --periods (the payment is solved) or --instalment (the number of
periods is solved).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := amortization.Request{Amount: amount, RiskScore: risk}
			switch {
			case periods > 0:
				req.Mode, req.Periods = amortization.ModePeriod, periods
			case instalment > 0:
				req.Mode, req.Instalment = amortization.ModeInstalment, instalment
			default:
				return fmt.Errorf("either --periods or --instalment is required")
			}

			fees := amortization.DefaultFees
			if noFees {
				fees = amortization.NoFees
			}
			schedule, err := amortization.NewCalculator(fees).Plan(req)
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), schedule)
			}
			return printSchedule(cmd, schedule)
		},
	}

	cmd.Flags().Float64VarP(&amount, "amount", "a", 0, "Principal")
	cmd.Flags().Float64VarP(&risk, "risk", "r", 0, "Risk score 0-100")
	cmd.Flags().IntVarP(&periods, "periods", "p", 0, "Number of monthly periods")
	cmd.Flags().Float64VarP(&instalment, "instalment", "i", 0, "Target monthly instalment")
	cmd.Flags().BoolVar(&noFees, "no-fees", false, "Leave service and insurance fees out")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output as JSON")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func printSchedule(cmd *cobra.Command, s *amortization.Schedule) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "mode %s, rate %.2f, %d periods, payment %.2f\n\n", s.Mode, s.AnnualRate, s.Periods, s.Payment)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "#\tDUE\tINSTALMENT\tPRINCIPAL\tINTEREST\tFEES\tBALANCE\t")

	total := decimal.Zero
	for _, r := range s.Rows {
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t\n",
			r.Period, r.DueDate, r.Instalment, r.Principal, r.Interest, r.ServiceFee+r.InsuranceFee, r.Balance)
		total = total.Add(decimal.NewFromFloat(r.Instalment))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\ntotal payable %s\n", total.StringFixed(2))
	return nil
}
