package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild-aggregates",
	Short: "Recompute every person's reference vector from confirmed faces",
	Args:  cobra.NoArgs,
	RunE:  runRebuild,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every face encoding and person aggregate",
	Long: `Deletes all face encodings and person aggregates. Photo tags are kept, so a
following training run can rebuild the index from them.

Example:
  facectl clear --yes`,
	Args: cobra.NoArgs,
	RunE: runClear,
}

func init() {
	rootCmd.AddCommand(rebuildCmd)
	rootCmd.AddCommand(clearCmd)

	clearCmd.Flags().Bool("yes", false, "Skip confirmation prompt")
}

func runRebuild(cmd *cobra.Command, _ []string) error {
	a, _, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	counts, err := a.Faces.RebuildAggregates(cmd.Context())
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PERSON\tNAME\tFACES")
	for _, c := range counts {
		fmt.Fprintf(tw, "%d\t%s\t%d\n", c.PersonID, c.PersonName, c.SourceCount)
	}
	fmt.Fprintf(tw, "\n%d aggregates rebuilt\n", len(counts))
	return tw.Flush()
}

func runClear(cmd *cobra.Command, _ []string) error {
	if !mustGetBool(cmd, "yes") && !confirmAction(cmd.InOrStdin(), cmd.OutOrStdout(), "Delete ALL face encodings? [y/N] ") {
		fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
		return nil
	}

	a, _, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	n, err := a.Faces.ClearAll(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d face encodings\n", n)
	return nil
}

func confirmAction(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	response, _ := bufio.NewReader(in).ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
