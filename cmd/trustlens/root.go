package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kiranshivaraju/trustlens/internal/ai"
	"github.com/kiranshivaraju/trustlens/internal/config"
	"github.com/kiranshivaraju/trustlens/internal/fetch"
	"github.com/kiranshivaraju/trustlens/internal/fingerprint"
	"github.com/kiranshivaraju/trustlens/internal/pipeline"
	"github.com/kiranshivaraju/trustlens/internal/scoring"
	"github.com/kiranshivaraju/trustlens/pkg/models"
)

var errNoInput = errors.New("no input: pass text as an argument, --file, or pipe it on stdin")

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "trustlens",
		Short: "Credibility scoring for text and images",
		Long: `trustlens runs the TrustLens credibility checks locally.

Text is scored with the keyword heuristic unless --llm is given, in which
case the provider configured through AI_PROVIDER (or TRUSTLENS_CONFIG) is used.`,
		SilenceUsage: true,
	}

	root.AddCommand(newScoreCmd())
	root.AddCommand(newImageCmd())
	root.AddCommand(newAnalyzeCmd())
	root.AddCommand(newFingerprintCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newScoreCmd() *cobra.Command {
	var (
		file   string
		useLLM bool
	)
	cmd := &cobra.Command{
		Use:   "score [text]",
		Short: "Score a piece of text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(cmd.InOrStdin(), args, file)
			if err != nil {
				return err
			}
			scorer, err := textScorer(useLLM)
			if err != nil {
				return err
			}
			analysis, err := scorer.ScoreText(cmd.Context(), text)
			if err != nil {
				return fmt.Errorf("scoring text: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), analysis)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read text from a file")
	cmd.Flags().BoolVar(&useLLM, "llm", false, "score with the configured LLM provider")
	return cmd
}

func newImageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "image <path>",
		Short: "Run the image size heuristics on a local file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading image: %w", err)
			}
			analysis, err := scoring.AnalyzeImage(data)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), analysis)
		},
	}
}

func newAnalyzeCmd() *cobra.Command {
	var (
		file     string
		imageURL string
		useLLM   bool
	)
	cmd := &cobra.Command{
		Use:   "analyze [text]",
		Short: "Run the full text and image pipeline and print the API response",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(cmd.InOrStdin(), args, file)
			if err != nil {
				return err
			}
			scorer, err := textScorer(useLLM)
			if err != nil {
				return err
			}
			svc := pipeline.New(scorer, nil, fetch.NewImageFetcher(0, 0, ""), nil)
			result, err := svc.Analyze(cmd.Context(), pipeline.Request{Text: text, ImageURL: imageURL})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read text from a file")
	cmd.Flags().StringVar(&imageURL, "image-url", "", "image to download and score alongside the text")
	cmd.Flags().BoolVar(&useLLM, "llm", false, "score with the configured LLM provider")
	return cmd
}

func newFingerprintCmd() *cobra.Command {
	var imagePath string
	cmd := &cobra.Command{
		Use:   "fingerprint [text]",
		Short: "Print the dedup fingerprint of text or an image file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				fp  string
				err error
			)
			if imagePath != "" {
				data, rerr := os.ReadFile(imagePath)
				if rerr != nil {
					return fmt.Errorf("reading image: %w", rerr)
				}
				fp, err = fingerprint.Image(data)
			} else {
				text, rerr := readText(cmd.InOrStdin(), args, "")
				if rerr != nil {
					return rerr
				}
				fp, err = fingerprint.Text(text)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), fp)
			return nil
		},
	}
	cmd.Flags().StringVar(&imagePath, "image", "", "fingerprint an image file instead of text")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "trustlens %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func textScorer(useLLM bool) (models.TextScorer, error) {
	if !useLLM {
		return scoring.NewHeuristicScorer(), nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	provider, err := ai.NewProvider(cfg.AI)
	if err != nil {
		return nil, fmt.Errorf("creating provider: %w", err)
	}
	if !ai.IsConfigured(provider) {
		return nil, fmt.Errorf("--llm needs AI_PROVIDER: %w", ai.ErrProviderUnavailable)
	}
	return ai.NewSemanticScorer(provider, cfg.AI.InferenceTimeout,
		ai.WithTemperature(cfg.AI.Temperature),
		ai.WithMaxTokens(cfg.AI.MaxTokens),
	), nil
}

// readText takes the positional argument first, then --file, then stdin.
func readText(stdin io.Reader, args []string, file string) (string, error) {
	switch {
	case len(args) == 1:
		return args[0], nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", file, err)
		}
		return string(b), nil
	}

	if f, ok := stdin.(*os.File); ok {
		if info, err := f.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
			return "", errNoInput
		}
	}
	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	if strings.TrimSpace(string(b)) == "" {
		return "", errNoInput
	}
	return string(b), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
