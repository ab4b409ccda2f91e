package verify

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/factlens/internal/model"
)

// RenderJSON writes the report as indented JSON. The file is replaced
// atomically; "-" writes to stdout.
func RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	data = append(data, '\n')

	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".report-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ReadReport loads a report written by RenderJSON
func ReadReport(path string) (*model.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var report model.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parse report %s: %w", path, err)
	}
	return &report, nil
}

// RenderSummary prints a human-readable summary of the report
func RenderSummary(w io.Writer, report *model.Report) {
	if report.NoClaims() {
		fmt.Fprintln(w, "No check-worthy claims found.")
	}

	for i, res := range report.ClaimResults {
		fmt.Fprintf(w, "[%d] %s\n", i+1, res.Subject)
		writeResult(w, res)
	}

	if len(report.EntityResults) > 0 {
		fmt.Fprintln(w, "\nEntities:")
		for _, res := range report.EntityResults {
			fmt.Fprintf(w, "  - %s: %s (confidence %.2f)", res.Subject, res.Verdict(), res.Confidence)
			if !res.OK() {
				fmt.Fprintf(w, " error: %s", res.Failure.Message)
			}
			fmt.Fprintln(w)
		}
	}

	tally := report.Tally()
	var parts []string
	for _, v := range []model.Verdict{
		model.VerdictTrue, model.VerdictFalse, model.VerdictUnverifiable,
		model.VerdictValid, model.VerdictInvalid, model.VerdictUnverified, model.VerdictError,
	} {
		if n := tally[v]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", v, n))
		}
	}
	if len(parts) > 0 {
		fmt.Fprintf(w, "\nSummary: %s\n", strings.Join(parts, " "))
	}
}

func writeResult(w io.Writer, res model.VerificationResult) {
	fmt.Fprintf(w, "    verdict:    %s\n", res.Verdict())
	fmt.Fprintf(w, "    confidence: %.2f\n", res.Confidence)
	if !res.OK() {
		fmt.Fprintf(w, "    error:      %s\n", res.Failure.Message)
		if res.Failure.RawResponse != "" {
			fmt.Fprintf(w, "    raw:        %s\n", res.Failure.RawResponse)
		}
		return
	}
	fmt.Fprintf(w, "    reasoning:  %s\n", res.Reasoning())
	for _, e := range res.Evidence() {
		fmt.Fprintf(w, "      - %s\n", e)
	}
}
