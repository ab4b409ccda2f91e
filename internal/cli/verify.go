package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/factlens/internal/verify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	verifyFile string
	outJSON    string
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify [text|-]",
	Short: "Verify the claims in a piece of text",
	Long: `Verify extracts claims and named entities from the input text, retrieves
the closest reference statements for each and asks the LLM for a verdict.

Input is taken from the argument, from --file, or from stdin when the
argument is "-" or missing.

Example:
  factlens verify "The Eiffel Tower was completed in 1899."
  factlens verify --file article.html --json report.json
  echo "Mount Fuji is in Japan." | factlens verify - --threshold 0.6`,
	Args: cobra.MaximumNArgs(1),
	PreRunE: bindFlags(map[string]string{
		"verify.threshold": "threshold",
		"verify.workers":   "workers",
		"extract.mode":     "extract",
	}),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVarP(&verifyFile, "file", "f", "", "read input text from file")
	verifyCmd.Flags().Float64("threshold", 0.5, "retrieval confidence needed before the LLM is asked (0-1)")
	verifyCmd.Flags().StringVar(&outJSON, "json", "", `write the JSON report to this path ("-" for stdout)`)
	verifyCmd.Flags().Int("workers", 4, "concurrent adjudications")
	verifyCmd.Flags().String("extract", "llm", "extraction mode (llm, heuristic)")
}

func runVerify(cmd *cobra.Command, args []string) error {
	text, err := readInput(cmd.InOrStdin(), args, verifyFile)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx := commandContext(cmd)

	svc, err := buildServices(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	report, err := svc.orchestrator.Verify(ctx, text, cfg.Verify.Threshold)
	if err != nil {
		return fmt.Errorf("verify failed: %w", err)
	}

	if outJSON != "" {
		if err := verify.RenderJSON(report, outJSON); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		if outJSON == "-" {
			return nil
		}
		logger.Info("wrote report", "path", outJSON)
	}

	verify.RenderSummary(cmd.OutOrStdout(), report)
	return nil
}

// bindFlags binds command flags to config keys when the command runs, so
// commands sharing a key do not overwrite each other's binding
func bindFlags(bindings map[string]string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		for key, name := range bindings {
			if err := viper.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
				return fmt.Errorf("bind --%s: %w", name, err)
			}
		}
		return nil
	}
}

// readInput picks the text to verify from the argument, a file or stdin
func readInput(stdin io.Reader, args []string, file string) (string, error) {
	if file != "" {
		if len(args) > 0 {
			return "", fmt.Errorf("give either text or --file, not both")
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		return string(data), nil
	}
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", fmt.Errorf("no input text (pass text, --file or pipe to stdin)")
	}
	return string(data), nil
}
