// Command score-cli runs the scoring and amortization math offline, without
// a database or broker.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "score-cli",
		Short:   "Offline tools for the score handler",
		Version: Version,
	}

	rootCmd.AddCommand(rateCmd())
	rootCmd.AddCommand(scheduleCmd())
	rootCmd.AddCommand(boundsCmd())
	rootCmd.AddCommand(surveyCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
