package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/familyalbum/faces/internal/domain"
	"github.com/familyalbum/faces/internal/training"
)

var trainCmd = &cobra.Command{
	Use:   "train <person-id>",
	Short: "Label a person's faces from the order of photo tags",
	Long: `Detects faces on photos tagged with the person and binds the person to the
face whose left-to-right position equals their position in the photo's tag
list. Photos with no faces, too many faces or a position outside the
detections are reported and skipped.

Without --photos a sample of the person's photos with at most three tagged
people is spread over the timeline.

Examples:
  facectl train 12
  facectl train 12 --photos 3051,3077
  facectl train 12 --max-photos 20 --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)

	trainCmd.Flags().Int64Slice("photos", nil, "Train on these photo IDs only")
	trainCmd.Flags().Int("max-photos", 0, "Cap the automatic sample size")
	trainCmd.Flags().Bool("dry-run", false, "List the selected photos without detecting faces")
	trainCmd.Flags().Bool("json", false, "Output the run as JSON instead of a progress bar")
}

func runTrain(cmd *cobra.Command, args []string) error {
	personID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || personID <= 0 {
		return fmt.Errorf("invalid person id %q", args[0])
	}
	req := training.Request{
		PersonID:  personID,
		PhotoIDs:  mustGetInt64Slice(cmd, "photos"),
		MaxPhotos: mustGetInt(cmd, "max-photos"),
	}
	jsonOutput := mustGetBool(cmd, "json")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, _, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	out := cmd.OutOrStdout()

	if mustGetBool(cmd, "dry-run") {
		photos, err := a.Labeler.Select(ctx, req)
		if err != nil {
			return err
		}
		return writeSelection(out, photos, personID)
	}

	if err := a.Loader.EnsureLoaded(ctx); err != nil {
		return fmt.Errorf("load detector: %w", err)
	}

	var bar *progressbar.ProgressBar
	progress := func(p training.Progress) {
		if jsonOutput {
			return
		}
		if bar == nil {
			bar = progressbar.NewOptions(p.Total,
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionSetDescription(fmt.Sprintf("Training person %d", personID)),
				progressbar.OptionShowCount(),
				progressbar.OptionShowIts(),
				progressbar.OptionSetItsString("photos"),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionSetPredictTime(true),
				progressbar.OptionFullWidth(),
			)
		}
		_ = bar.Add(1)
	}

	run, err := a.Labeler.Train(ctx, req, progress)
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(cmd.ErrOrStderr())
	}
	if err != nil && run == nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(run); encErr != nil {
			return encErr
		}
	} else {
		writeRunSummary(out, run)
	}
	return err
}

func writeSelection(w io.Writer, photos []domain.TrainingPhoto, personID int64) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PHOTO\tFILE\tTAKEN\tPOSITION\tTAGS")
	for _, p := range photos {
		taken := "-"
		if !p.TakenAt.IsZero() {
			taken = p.TakenAt.Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\n", p.PhotoID, p.FileName, taken, p.PositionOf(personID), len(p.Tags))
	}
	fmt.Fprintf(tw, "\n%d photos selected\n", len(photos))
	return tw.Flush()
}

func writeRunSummary(w io.Writer, run *domain.TrainingRun) {
	fmt.Fprintf(w, "Run %s: %s\n", run.ID, run.Status)
	fmt.Fprintf(w, "  photos: %d  bound: %d  failed: %d\n", run.PhotosTotal, run.PhotosBound, run.PhotosFailed)

	reasons := map[string]int{}
	var order []string
	for _, r := range run.Results {
		if r.Succeeded() {
			continue
		}
		if _, seen := reasons[r.Reason]; !seen {
			order = append(order, r.Reason)
		}
		reasons[r.Reason]++
	}
	if len(order) == 0 {
		return
	}

	fmt.Fprintln(w, "  failures:")
	for _, reason := range order {
		fmt.Fprintf(w, "    %4d  %s\n", reasons[reason], reason)
	}
}
