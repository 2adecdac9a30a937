package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/grippy-ci/grippy/internal/ciconfig"
	"github.com/grippy-ci/grippy/internal/orchestrator"
	"github.com/spf13/cobra"
)

// reviewCmd is the single CI entrypoint: parse the event file, fetch the
// diff, run the structured-output agent, persist and post the review.
var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Run the review pipeline for one PR event",
	Long: `review reads the CI-provided PR event and diff, invokes the
configured LLM agent for a schema-conformant review, persists the result
as a typed graph, and posts inline comments plus a summary dashboard.

Configuration is read from the environment (GRIPPY_TOKEN,
GRIPPY_EVENT_PATH, GRIPPY_ENDPOINT_BASE_URL, GRIPPY_MODEL,
GRIPPY_EMBEDDING_MODEL, GRIPPY_TRANSPORT, GRIPPY_API_KEY,
GRIPPY_DATA_DIR, GRIPPY_TIMEOUT_SECONDS) plus GITHUB_OUTPUT and
GITHUB_WORKSPACE. The process exits nonzero if the verdict is
merge-blocking or if a config/diff-fetch/parse/timeout error occurs.`,
	RunE: runReview,
}

func runReview(cmd *cobra.Command, args []string) error {
	cfg, err := ciconfig.FromEnv()
	if err != nil {
		return fmt.Errorf("failed to resolve configuration: %w", err)
	}
	if transportFlag != "" {
		cfg.Transport = transportFlag
	}

	level := slog.LevelInfo
	if verboseFlag {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	deps, teardown, err := orchestrator.Bootstrap(cfg, log)
	if err != nil {
		return err
	}
	defer teardown()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := orchestrator.Run(ctx, cfg, deps)
	if err != nil {
		return err
	}

	if result.MergeBlocking {
		log.WarnContext(ctx, "verdict is merge-blocking, exiting nonzero")
		os.Exit(1)
	}

	return nil
}
