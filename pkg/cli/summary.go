package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/m-mizutani/drover/pkg/domain/model"
)

var (
	passMark = color.New(color.FgGreen, color.Bold).Sprint("PASS")
	failMark = color.New(color.FgRed, color.Bold).Sprint("FAIL")
)

// printSummary renders the per-entry results and aggregate status of a run
// to the terminal.
func printSummary(report *model.RunReport) {
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)

	fmt.Fprintf(w, "\nRun %s (%s)\n", report.ID, report.Pipeline)
	fmt.Fprintln(w, "CONFIG\tRUNTIME\tSTATUS\tDURATION\tPUBLISHED")
	for _, e := range report.Entries {
		mark := passMark
		if !e.Passed() {
			mark = failMark
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n",
			e.Config, e.Runtime, mark, e.Duration.Round(time.Millisecond), e.Published)
	}
	w.Flush()

	aggregate := passMark
	if !report.Passed() {
		aggregate = failMark
	}
	fmt.Printf("\nAggregate: %s", aggregate)
	if report.Deployed {
		fmt.Printf("  (deployed %s)", report.Trigger.Tag)
	}
	fmt.Println()

	for _, e := range report.Failed() {
		if e.FailureReason != "" {
			color.Red("  %s: %s", e.Config, e.FailureReason)
		} else {
			color.Red("  %s: command %q exited with %d", e.Config, e.FailedCommand, e.ExitCode)
		}
	}
}
