package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ckwokli/pws/internal/ingest"
	"github.com/ckwokli/pws/internal/model"
	"github.com/ckwokli/pws/internal/pipeline"
)

var (
	verifyText       string
	verifyLink       string
	verifyMode       string
	outputSchemaFile string
	outJSON          string
	outMD            string
	verifyTimeout    time.Duration
	noCache          bool
	llmProvider      string
	llmModel         string
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify [files...]",
	Short: "Verify claims in text, files or a linked page",
	Long: `Verify gathers text from --text, any PDF/DOCX/text files given as
arguments and the --link page, then runs the selected mode over it.

Example:
  pws verify --text "The Eiffel Tower was completed in 1889."
  pws verify report.pdf notes.docx --md report.md
  pws verify --link https://example.org/article --mode deep_research
  pws verify --text "..." --mode task --output-schema schema.json`,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&verifyText, "text", "", "text to verify")
	verifyCmd.Flags().StringVar(&verifyLink, "link", "", "https page to scrape and verify")
	verifyCmd.Flags().StringVar(&verifyMode, "mode", string(model.ModeSearch), "search, deep_research, task or findall")
	verifyCmd.Flags().StringVar(&outputSchemaFile, "output-schema", "", "JSON schema file for task mode")

	verifyCmd.Flags().StringVar(&outJSON, "json", "-", "output JSON path (- for stdout)")
	verifyCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")

	verifyCmd.Flags().DurationVar(&verifyTimeout, "timeout", 10*time.Minute, "overall timeout")
	verifyCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable run-scoped memoization")
	verifyCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "generate queries with openai, anthropic or ollama instead of a PWS task")
	verifyCmd.Flags().StringVar(&llmModel, "llm-model", "", "model for --llm-provider")
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if llmProvider != "" {
		cfg.LLM.Provider = llmProvider
	}
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}

	in := pipeline.Input{Text: verifyText, Link: verifyLink, Mode: verifyMode}

	if outputSchemaFile != "" {
		raw, err := os.ReadFile(outputSchemaFile)
		if err != nil {
			return fmt.Errorf("read output schema: %w", err)
		}
		in.OutputSchema = string(raw)
	}

	for _, path := range args {
		file, err := pipeline.LoadFile(path, cfg.Limits.MaxFileBytes)
		if err != nil {
			return err
		}
		in.Files = append(in.Files, file)
	}
	if err := ingest.CheckUploads(in.Files, cfg.Limits); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), verifyTimeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Mode: %s\n", verifyMode)
		fmt.Fprintf(os.Stderr, "Files: %d\n", len(in.Files))
		if verifyLink != "" {
			fmt.Fprintf(os.Stderr, "Link: %s\n", verifyLink)
		}
		fmt.Fprintf(os.Stderr, "⚙️  Verifying...\n")
	}

	start := time.Now()
	resp, err := pipeline.NewPipeline(cfg).Verify(ctx, in)
	if err != nil {
		return fmt.Errorf("verify failed: %w", err)
	}

	renderer := pipeline.NewRenderer()
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Done in %s\n\n", time.Since(start).Round(time.Millisecond))
		renderer.RenderSummary(os.Stderr, resp)
	}

	if outJSON == "-" {
		if err := renderer.WriteJSON(os.Stdout, resp); err != nil {
			return fmt.Errorf("write JSON: %w", err)
		}
	} else if outJSON != "" {
		if err := renderer.RenderJSON(resp, outJSON); err != nil {
			return fmt.Errorf("write JSON: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ JSON report: %s\n", outJSON)
	}

	if outMD != "" {
		if err := renderer.RenderMarkdown(resp, outMD); err != nil {
			return fmt.Errorf("write Markdown: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Markdown report: %s\n", outMD)
	}

	return nil
}
