package cli

import (
	"fmt"
	"time"

	"github.com/ppiankov/factlens/internal/feedback"
	"github.com/ppiankov/factlens/internal/verify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	feedbackClaim int
	feedbackVote  string
)

// feedbackCmd represents the feedback command
var feedbackCmd = &cobra.Command{
	Use:   "feedback <report.json>",
	Short: "Record a vote on one claim of a report",
	Long: `Feedback records whether a verdict in a saved report was right.

Claims are numbered from 1 in the order "factlens verify" prints them.

Example:
  factlens feedback report.json --claim 2 --vote no
  factlens feedback report.json --claim 1 --vote yes --sink sqlite`,
	Args: cobra.ExactArgs(1),
	PreRunE: bindFlags(map[string]string{
		"feedback.sink": "sink",
		"feedback.path": "path",
	}),
	RunE: runFeedback,
}

func init() {
	rootCmd.AddCommand(feedbackCmd)

	feedbackCmd.Flags().IntVar(&feedbackClaim, "claim", 0, "claim number in the report (from 1)")
	feedbackCmd.Flags().StringVar(&feedbackVote, "vote", "", "yes or no")
	feedbackCmd.Flags().String("sink", "csv", "feedback sink (csv, sqlite)")
	feedbackCmd.Flags().String("path", "feedback_log.csv", "feedback file or database path")
	_ = feedbackCmd.MarkFlagRequired("claim")
	_ = feedbackCmd.MarkFlagRequired("vote")
}

func runFeedback(cmd *cobra.Command, args []string) error {
	vote, err := feedback.ParseVote(feedbackVote)
	if err != nil {
		return err
	}

	report, err := verify.ReadReport(args[0])
	if err != nil {
		return err
	}
	if feedbackClaim < 1 || feedbackClaim > len(report.ClaimResults) {
		return fmt.Errorf("claim %d out of range (report has %d claims)", feedbackClaim, len(report.ClaimResults))
	}
	res := report.ClaimResults[feedbackClaim-1]

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	sink, err := feedback.Open(cfg.Feedback)
	if err != nil {
		return err
	}
	defer func() { _ = sink.Close() }()

	ctx := commandContext(cmd)

	err = sink.Record(ctx, feedback.Entry{
		Time:     time.Now(),
		Claim:    res.Subject,
		Result:   res,
		Feedback: vote,
	})
	if err != nil {
		return fmt.Errorf("record feedback: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Recorded %q for claim %d (%s)\n", vote, feedbackClaim, res.Verdict())
	return nil
}
