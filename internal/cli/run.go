package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/srmjournal/oja/internal/classify"
	"github.com/srmjournal/oja/internal/engine"
	"github.com/srmjournal/oja/internal/planner"
)

var (
	runRoot   string
	runDryRun bool
	runSkip   bool
	runDebug  bool
)

var runCmd = &cobra.Command{
	Use:   "run [submission-id | folder]",
	Short: "Prepare and upload a submission's publication files",
	Long: `Classify the files in a submission folder, compare them with the galleys
already online, and upload everything that is missing.

The argument is either a submission ID (the matching folder is searched for
under --root) or a path to the folder itself. Without an argument you are
asked for one.

Conflicting files are never replaced without confirmation. Use --dry-run to
see the plan without uploading anything.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := ""
		if len(args) > 0 {
			target = args[0]
		} else {
			var err error
			target, err = promptLine("Submission ID or folder:")
			if err != nil {
				return err
			}
		}
		if target == "" {
			return fmt.Errorf("no submission given")
		}

		eng, err := newEngine(runDebug)
		if err != nil {
			return err
		}

		ctx := context.Background()
		insp, err := eng.Inspect(ctx, engine.InspectRequest{Target: target, Root: runRoot})
		if err != nil {
			return err
		}
		defer insp.Close()

		showLocalFiles(insp)
		showRemoteState(insp.Snapshot)
		showReport(insp.Report)

		policy, err := choosePolicy(insp)
		if err != nil {
			return err
		}

		result, err := eng.Run(ctx, engine.RunRequest{
			Inspection: insp,
			Policy:     policy,
			DryRun:     runDryRun,
		})
		switch {
		case errors.Is(err, engine.ErrCancelled):
			PrintInfo("Cancelled, nothing uploaded.")
			return nil
		case errors.Is(err, engine.ErrNothingToUpload):
			PrintSuccess("Everything is already online, nothing to upload.")
			return nil
		}

		if result != nil && result.Plan != nil && runDryRun {
			PrintSection("Dry Run")
			PrintInfo(fmt.Sprintf("Would perform %s:", PrintCount(len(result.Plan.Actions), "action", "actions")))
			showPlan(result.Plan)
			if insp.PageRange != "" && planUploadsPDF(result.Plan) {
				PrintInfo(fmt.Sprintf("Would set publication pages to %s", insp.PageRange))
			}
			return err
		}

		if result != nil {
			showRunResult(result)
		}
		if err != nil {
			return err
		}

		PrintSuccess(fmt.Sprintf("Uploaded %s", PrintCount(result.Exec.Uploaded, "file", "files")))
		return nil
	},
}

func planUploadsPDF(plan *planner.Plan) bool {
	for _, a := range plan.Uploads() {
		if a.File.Role == classify.RolePDF {
			return true
		}
	}
	return false
}

// choosePolicy decides what happens to conflicting files. Without conflicts
// a single confirmation suffices; with conflicts the user picks between
// skipping them, replacing them, or aborting. --skip answers every prompt
// with the safe choice.
func choosePolicy(insp *engine.Inspection) (planner.Policy, error) {
	report := insp.Report

	if !report.HasConflicts() {
		if runSkip || report.UploadableCount() == 0 {
			return planner.PolicyUploadNonConflicting, nil
		}
		ok, err := promptYesNo(fmt.Sprintf("Upload %s?", PrintCount(report.UploadableCount(), "file", "files")))
		if err != nil {
			return 0, err
		}
		if !ok {
			return planner.PolicyCancel, nil
		}
		return planner.PolicyUploadNonConflicting, nil
	}

	if runSkip {
		// Unattended runs never replace online files.
		return planner.PolicyUploadNonConflicting, nil
	}

	fmt.Println()
	choice, err := promptChoice("Upload [n]on-conflicting only, [o]verwrite conflicts, or [c]ancel?", "n", "o", "c")
	if err != nil {
		return 0, err
	}
	switch choice {
	case "n":
		return planner.PolicyUploadNonConflicting, nil
	case "o":
		return planner.PolicyOverwriteConflicts, nil
	default:
		return planner.PolicyCancel, nil
	}
}

func init() {
	runCmd.Flags().StringVar(&runRoot, "root", ".", "Directory searched for the submission folder")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Show the plan without uploading")
	runCmd.Flags().BoolVar(&runSkip, "skip", false, "Answer prompts automatically, never overwriting")
	runCmd.Flags().BoolVar(&runDebug, "debug", false, "Print platform requests and responses")
}
