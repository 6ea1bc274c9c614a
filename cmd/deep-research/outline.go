// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/mesh-intelligence/deep-research/internal/logging"
	"github.com/mesh-intelligence/deep-research/internal/outline"
	"github.com/mesh-intelligence/deep-research/internal/research"
	"github.com/mesh-intelligence/deep-research/pkg/types"
)

var outlineCmd = &cobra.Command{
	Use:   "outline [topic]",
	Short: "Plan a report outline and write it as YAML",
	Long: `Outline runs only the planning phase and emits the proposed outline as
YAML. Review or edit the chapters, then hand the file back with
"run --outline FILE" to research exactly those chapters.`,
	RunE: runOutline,
}

func init() {
	outlineCmd.Flags().String("depth", "standard", "outline depth: brief, standard, or deep")
	outlineCmd.Flags().String("provider", "", "LLM provider: gemini or openai")
	outlineCmd.Flags().String("model", "", "model identifier (default per provider)")
	outlineCmd.Flags().String("output", "", "write the outline YAML to a file instead of stdout")

	rootCmd.AddCommand(outlineCmd)
}

func runOutline(cmd *cobra.Command, args []string) error {
	topic := strings.TrimSpace(strings.Join(args, " "))
	if topic == "" {
		return fmt.Errorf("provide a research topic")
	}

	depthFlag, _ := cmd.Flags().GetString("depth")
	depth, err := types.ParseDepth(depthFlag)
	if err != nil {
		return err
	}

	app := appConfig(cmd)
	logger, err := logging.New(app.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	client, _, err := buildProvider(cmd.Context(), app, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	engine := &research.Engine{
		Provider: client,
		Config:   app.Engine,
		Log:      logger,
		OnEvent:  printProgress,
	}
	o, tokens, err := engine.Plan(ctx, types.ResearchConfig{Query: topic, Depth: depth})
	if err != nil {
		return err
	}

	if outPath, _ := cmd.Flags().GetString("output"); outPath != "" {
		if err := outline.Save(outPath, o); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Outline written to %s (%d tokens)\n", outPath, tokens)
		return nil
	}

	data, err := yaml.Marshal(o)
	if err != nil {
		return fmt.Errorf("encoding outline: %w", err)
	}
	os.Stdout.Write(data)
	fmt.Fprintf(os.Stderr, "Planning used %d tokens\n", tokens)
	return nil
}
