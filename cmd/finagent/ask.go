package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/finagentlabs/finagent"
	"github.com/finagentlabs/finagent/internal/cli"
	"github.com/finagentlabs/finagent/pkg/domain"
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question over the ingested documents",
	Long: `Runs one agent turn: the question is classified, planned if needed,
executed against the tool palette, and answered with citations.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		conversationID, _ := cmd.Flags().GetString("conversation")
		jsonMode, _ := cmd.Flags().GetBool("json")
		stream, _ := cmd.Flags().GetBool("stream")

		ctx := context.Background()
		app, err := cli.Build(ctx, cfg, false)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		if stream {
			runStreamed(ctx, app, args[0], conversationID, jsonMode)
			return
		}

		result, err := app.Agent.Run(ctx, args[0], conversationID)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		if jsonMode {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			enc.Encode(result)
			return
		}

		render := cli.NewRenderer()
		out, err := render(cli.FormatResult(result))
		if err != nil {
			out = cli.FormatResult(result)
		}
		fmt.Print(out)
	},
}

// runStreamed prints one line per completed node, then the final answer.
// A reasoning-service outage degrades to the fallback answer, matching the
// batch path; only unexpected errors exit non-zero.
func runStreamed(ctx context.Context, app *cli.App, query, conversationID string, jsonMode bool) {
	events, errs := app.Agent.RunStream(ctx, query, conversationID)

	enc := json.NewEncoder(os.Stdout)
	var answer string
	for ev := range events {
		if jsonMode {
			enc.Encode(ev)
		} else if line := cli.FormatNodeEvent(ev); line != "" {
			fmt.Println(line)
		}
		if ev.Delta.FinalAnswer != "" {
			answer = ev.Delta.FinalAnswer
		}
	}
	if err := <-errs; err != nil {
		if !errors.Is(err, domain.ErrReasonerUnavailable) {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		answer = finagent.DegradedAnswer()
		if jsonMode {
			enc.Encode(finagent.Result{Answer: answer, Degraded: true})
			return
		}
	}
	if !jsonMode && answer != "" {
		render := cli.NewRenderer()
		if out, err := render(answer); err == nil {
			fmt.Print(out)
		} else {
			fmt.Println(answer)
		}
	}
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().StringP("conversation", "c", "", "Conversation id for history persistence")
	askCmd.Flags().Bool("json", false, "Emit JSON instead of rendered markdown")
	askCmd.Flags().Bool("stream", false, "Stream per-node progress")
}
