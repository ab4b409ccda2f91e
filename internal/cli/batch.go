package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/ppiankov/factlens/internal/metrics"
	"github.com/ppiankov/factlens/internal/model"
	"github.com/ppiankov/factlens/internal/verify"
	"github.com/ppiankov/factlens/internal/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	metricsAddr  string
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Verify many inputs from a file in parallel",
	Long: `Batch verifies every non-empty line of the input file:
- Lines starting with # and duplicate lines are skipped
- Inputs are verified in parallel with a configurable worker count
- Each input gets its own JSON report in the output directory
- Prometheus metrics can be served while the batch runs

Example:
  factlens batch claims.txt
  factlens batch claims.txt --concurrency 8 --output-dir ./reports
  factlens batch claims.txt --metrics-addr :9090`,
	Args: cobra.ExactArgs(1),
	PreRunE: bindFlags(map[string]string{
		"verify.threshold": "threshold",
		"extract.mode":     "extract",
	}),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of inputs verified at once")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./factlens-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
	batchCmd.Flags().Float64("threshold", 0.5, "retrieval confidence needed before the LLM is asked (0-1)")
	batchCmd.Flags().String("extract", "llm", "extraction mode (llm, heuristic)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx := commandContext(cmd)
	ctx, cancel := context.WithTimeout(ctx, batchTimeout)
	defer cancel()

	rec := metrics.New()
	if metricsAddr != "" {
		srv := &http.Server{Addr: metricsAddr, Handler: metricsMux(rec), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "addr", metricsAddr, "err", err)
			}
		}()
		defer func() {
			shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logger.Info("serving metrics", "addr", metricsAddr)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  factlens Batch Verification\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Threshold:    %.2f\n", cfg.Verify.Threshold)
	fmt.Fprintf(os.Stderr, "  LLM:          %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	svc, err := buildServices(ctx, cfg, logger, rec)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	processor := worker.NewBatchProcessor(svc.orchestrator, concurrency, logger)
	results, err := processor.ProcessFile(ctx, file, cfg.Verify.Threshold)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	successCount := 0
	failureCount := 0

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ line %d: %v\n", result.Line, result.Error)
			continue
		}

		jsonPath := filepath.Join(outputDir, reportName(result.Line, result.Input))
		if err := verify.RenderJSON(result.Report, jsonPath); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ line %d: failed to write JSON: %v\n", result.Line, err)
			continue
		}

		successCount++
		fmt.Fprintf(os.Stderr, "✓ line %d: %s (%s)\n", result.Line, tallyLine(result.Report.Tally()), result.Duration.Round(time.Millisecond))
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d inputs\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

func metricsMux(rec *metrics.Recorder) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", rec.Handler())
	return mux
}

// reportName builds a stable file name from the line number and the start
// of the input
func reportName(line int, input string) string {
	return fmt.Sprintf("%04d-%s.json", line, sanitizeFilename(input))
}

// sanitizeFilename sanitizes a string for use as a filename
func sanitizeFilename(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
		if b.Len() >= 48 {
			break
		}
	}

	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "input"
	}
	return out
}

func tallyLine(tally map[model.Verdict]int) string {
	var parts []string
	for _, v := range []model.Verdict{model.VerdictTrue, model.VerdictFalse, model.VerdictUnverifiable, model.VerdictError} {
		if n := tally[v]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", v, n))
		}
	}
	if len(parts) == 0 {
		return "no claims"
	}
	return strings.Join(parts, " ")
}
