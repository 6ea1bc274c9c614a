// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/deep-research/internal/history"
	"github.com/mesh-intelligence/deep-research/internal/logging"
	"github.com/mesh-intelligence/deep-research/internal/outline"
	"github.com/mesh-intelligence/deep-research/internal/research"
	"github.com/mesh-intelligence/deep-research/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run [topic]",
	Short: "Research a topic and write the full report",
	Long: `Run executes the whole pipeline for a topic: outline planning, per-chapter
web searches, and chapter drafting. Progress streams to stderr while the
finished Markdown report goes to stdout or, with --output, to a file.
Every completed run is saved to the local history.

Pass --outline to skip planning and research a reviewed outline file
instead (see the outline subcommand).`,
	RunE: runResearch,
}

func init() {
	runCmd.Flags().String("depth", "standard", "outline depth: brief, standard, or deep")
	runCmd.Flags().Int("breadth", 0, "search queries per chapter (default 3)")
	runCmd.Flags().String("provider", "", "LLM provider: gemini or openai")
	runCmd.Flags().String("model", "", "model identifier (default per provider)")
	runCmd.Flags().String("outline", "", "reviewed outline YAML; skips the planning phase")
	runCmd.Flags().String("output", "", "write the report Markdown to a file instead of stdout")
	runCmd.Flags().Duration("timeout", 0, "abort the run after this duration (default none)")

	rootCmd.AddCommand(runCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	topic := strings.TrimSpace(strings.Join(args, " "))
	if topic == "" {
		return fmt.Errorf("provide a research topic")
	}

	depthFlag, _ := cmd.Flags().GetString("depth")
	depth, err := types.ParseDepth(depthFlag)
	if err != nil {
		return err
	}
	breadth, _ := cmd.Flags().GetInt("breadth")

	app := appConfig(cmd)
	logger, err := logging.New(app.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	client, searcher, err := buildProvider(cmd.Context(), app, logger)
	if err != nil {
		return err
	}
	store, err := history.NewStore(app.History)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	engine := &research.Engine{
		Provider: client,
		Searcher: searcher,
		History:  store,
		Config:   app.Engine,
		Log:      logger,
		OnEvent:  printProgress,
	}
	cfg := types.ResearchConfig{Query: topic, Depth: depth, Breadth: breadth}

	var result *types.ResearchResult
	if outlinePath, _ := cmd.Flags().GetString("outline"); outlinePath != "" {
		o, err := outline.Load(outlinePath)
		if err != nil {
			return err
		}
		result, err = engine.Research(ctx, cfg, o, 0)
		if err != nil {
			return err
		}
	} else {
		result, err = engine.Run(ctx, cfg)
		if err != nil {
			return err
		}
	}

	if outPath, _ := cmd.Flags().GetString("output"); outPath != "" {
		if err := os.WriteFile(outPath, []byte(result.Report), 0o644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Report written to %s\n", outPath)
	} else {
		fmt.Println(result.Report)
	}
	fmt.Fprintf(os.Stderr, "%d words, %d sources, %d queries, %d tokens (saved as %s)\n",
		result.WordCount, len(result.Sources), result.TotalQueries, result.TotalTokens, result.ID)
	return nil
}

// logColors maps each progress event type to its terminal color.
var logColors = map[types.LogType]*color.Color{
	types.LogPlan:     color.New(color.FgCyan),
	types.LogSearch:   color.New(color.FgBlue),
	types.LogAnalysis: color.New(color.FgMagenta),
	types.LogWriting:  color.New(color.FgGreen),
	types.LogError:    color.New(color.FgRed),
	types.LogInfo:     color.New(color.FgHiBlack),
}

// printProgress renders one progress event to stderr, colored by type. The
// report itself goes to stdout, so the two streams never interleave.
func printProgress(l types.ResearchLog) {
	c, ok := logColors[l.Type]
	if !ok {
		c = color.New(color.Reset)
	}
	line := fmt.Sprintf("[%s] %s", l.Type, l.Message)
	if l.Details != "" {
		line += ": " + l.Details
	}
	c.Fprintln(color.Error, line)
}
