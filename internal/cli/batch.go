package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ckwokli/pws/internal/model"
	"github.com/ckwokli/pws/internal/pipeline"
	"github.com/ckwokli/pws/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchMode    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Verify many links or files listed in a file",
	Long: `Batch reads one source per line (an https link or a local file path;
blank lines and # comments are skipped), verifies them concurrently and
writes a JSON and Markdown report per source.

Example:
  pws batch sources.txt
  pws batch sources.txt --concurrency 8 --output-dir ./reports`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent sources (default: workers.concurrency)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./pws-reports", "output directory for reports")
	batchCmd.Flags().StringVar(&batchMode, "mode", string(model.ModeSearch), "mode applied to every source")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for the batch")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if concurrency > 0 {
		cfg.Workers.Concurrency = concurrency
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Workers.Concurrency)
	fmt.Fprintf(os.Stderr, "  Mode:         %s\n", batchMode)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n\n", outputDir)

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	verifier := &pipeline.SourceVerifier{Pipeline: pipeline.NewPipeline(cfg), Mode: batchMode}
	processor := worker.NewBatchProcessor(verifier, cfg.Workers.Concurrency)

	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	renderer := pipeline.NewRenderer()
	successCount := 0
	for i, result := range results {
		if result.Error != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Source, result.Error)
			continue
		}

		slug := fmt.Sprintf("%03d-%s", i+1, sanitizeFilename(result.Source))
		if err := renderer.RenderJSON(result.Response, filepath.Join(outputDir, slug+".json")); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Source, err)
			continue
		}
		if err := renderer.RenderMarkdown(result.Response, filepath.Join(outputDir, slug+".md")); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", result.Source, err)
			continue
		}

		successCount++
		fmt.Fprintf(os.Stderr, "✓ %s ", result.Source)
		renderer.RenderSummary(os.Stderr, result.Response)
	}

	fmt.Fprintf(os.Stderr, "\n  Total:     %d\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", len(results)-successCount)

	if successCount == 0 && len(results) > 0 {
		return fmt.Errorf("all %d sources failed", len(results))
	}
	return nil
}

var filenameReplacer = strings.NewReplacer(
	"https://", "",
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	" ", "-",
)

// sanitizeFilename turns a link or path into a file name stem
func sanitizeFilename(s string) string {
	s = strings.Trim(filenameReplacer.Replace(s), "._-")
	if len(s) > 80 {
		s = s[:80]
	}
	if s == "" {
		s = "source"
	}
	return s
}
