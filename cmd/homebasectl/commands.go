package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"nhooyr.io/websocket"
)

type record struct {
	ID      string          `json:"id"`
	Status  string          `json:"status"`
	Rank    float64         `json:"rank"`
	Payload json.RawMessage `json:"payload"`
	Outcome string          `json:"outcome,omitempty"`
}

type batch struct {
	PeriodKey string   `json:"period_key"`
	Records   []record `json:"records"`
}

func printBatch(b batch) {
	if len(b.Records) == 0 {
		printWarning("No records in period %s", b.PeriodKey)
		return
	}

	fmt.Fprintf(os.Stdout, "%s\n", colorize(colorBold, b.PeriodKey))
	for _, rec := range b.Records {
		status := colorize(statusColor(rec.Status), fmt.Sprintf("%-12s", rec.Status))
		outcome := ""
		if rec.Outcome != "" {
			outcome = " [" + rec.Outcome + "]"
		}
		fmt.Fprintf(os.Stdout, "  %s %s%s  %s\n", status, rec.ID, outcome, string(rec.Payload))
	}
}

// --- current ---

var currentCmd = &cobra.Command{
	Use:   "current <feed>",
	Short: "Show the latest batch of a feed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		route, err := feedRoute(args[0])
		if err != nil {
			return err
		}

		resp, err := newAPIClient().get(cmd.Context(), route+"/current")
		if err != nil {
			return err
		}

		var b batch
		if err := decodeJSON(resp, &b); err != nil {
			return err
		}

		printBatch(b)
		return nil
	},
}

// --- periods ---

var periodsCmd = &cobra.Command{
	Use:   "periods <feed>",
	Short: "List the known periods of a feed, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		route, err := feedRoute(args[0])
		if err != nil {
			return err
		}

		resp, err := newAPIClient().get(cmd.Context(), route+"/periods")
		if err != nil {
			return err
		}

		var result struct {
			Periods []string `json:"periods"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		for _, p := range result.Periods {
			fmt.Fprintln(os.Stdout, p)
		}
		return nil
	},
}

// --- period ---

var periodCmd = &cobra.Command{
	Use:   "period <feed> <key>",
	Short: "Show one period of a feed",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		route, err := feedRoute(args[0])
		if err != nil {
			return err
		}

		resp, err := newAPIClient().get(cmd.Context(), route+"/period/"+args[1])
		if err != nil {
			return err
		}

		var b batch
		if err := decodeJSON(resp, &b); err != nil {
			return err
		}

		printBatch(b)
		return nil
	},
}

// --- promote ---

var promoteCmd = &cobra.Command{
	Use:   "promote <feed> <id> <status>",
	Short: "Move a record to its next status",
	Long: `Move a record to its next status.

Examples:
  homebasectl promote action-items 3f2a approved
  homebasectl promote action-items 3f2a implementing
  homebasectl promote weekend-ideas 9c41 skipped`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		route, err := feedRoute(args[0])
		if err != nil {
			return err
		}

		resp, err := newAPIClient().post(cmd.Context(), route+"/"+args[1]+"/status", map[string]string{
			"status": args[2],
		})
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Record %s is now %s", args[1], result["status"])
		return nil
	},
}

// --- resolve ---

var resolveCmd = &cobra.Command{
	Use:   "resolve <feed> <id>",
	Short: "Record the real-world outcome of a prediction",
	Long: `Record the real-world outcome of a prediction.

Examples:
  homebasectl resolve btc-signals 7b1d --direction UP
  homebasectl resolve polymarket 4e9f --won
  homebasectl resolve polymarket 4e9f --lost`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		feed, id := args[0], args[1]
		route, err := feedRoute(feed)
		if err != nil {
			return err
		}

		direction, _ := cmd.Flags().GetString("direction")
		won, _ := cmd.Flags().GetBool("won")
		lost, _ := cmd.Flags().GetBool("lost")

		var body any
		switch feed {
		case "btc-signals":
			if direction == "" {
				return fmt.Errorf("--direction UP|DOWN is required for btc-signals")
			}
			body = map[string]string{"direction": direction}
		case "polymarket":
			if won == lost {
				return fmt.Errorf("exactly one of --won or --lost is required for polymarket")
			}
			body = map[string]bool{"won": won}
		default:
			return fmt.Errorf("feed %q has no resolvable outcome", feed)
		}

		resp, err := newAPIClient().post(cmd.Context(), route+"/"+id+"/resolve", body)
		if err != nil {
			return err
		}

		var result map[string]any
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Record %s resolved", id)
		return printJSON(result)
	},
}

func init() {
	resolveCmd.Flags().String("direction", "", "observed direction (UP or DOWN)")
	resolveCmd.Flags().Bool("won", false, "the position won")
	resolveCmd.Flags().Bool("lost", false, "the position lost")
}

// --- refresh ---

var refreshCmd = &cobra.Command{
	Use:   "refresh <feed> <period-key>",
	Short: "Replace a period's pending records with a candidate batch",
	Long: `Replace a period's pending records with a candidate batch.

The candidates file holds a JSON array of payloads in the feed's shape:
  homebasectl refresh action-items 2026-08-29 --file items.json
  homebasectl refresh flight-deals 2026-08-24 --file deals.json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		route, err := feedRoute(args[0])
		if err != nil {
			return err
		}

		file, _ := cmd.Flags().GetString("file")
		if file == "" {
			return fmt.Errorf("--file is required")
		}

		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("reading candidates file: %w", err)
		}

		var candidates json.RawMessage
		if err := json.Unmarshal(data, &candidates); err != nil {
			return fmt.Errorf("candidates file is not valid JSON: %w", err)
		}

		resp, err := newAPIClient().post(cmd.Context(), route+"/refresh", map[string]any{
			"period_key": args[1],
			"candidates": candidates,
		})
		if err != nil {
			return err
		}

		var result struct {
			IDs []string `json:"ids"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Period %s refreshed with %d records", args[1], len(result.IDs))
		return nil
	},
}

func init() {
	refreshCmd.Flags().String("file", "", "path to a JSON array of candidate payloads")
}

// --- status ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server status and database stats",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := newAPIClient().get(cmd.Context(), "/api/system/status")
		if err != nil {
			return err
		}

		var status map[string]any
		if err := decodeJSON(resp, &status); err != nil {
			return err
		}

		return printJSON(status)
	},
}

// --- backup ---

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Trigger a cloud backup now",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := newAPIClient().post(cmd.Context(), "/api/system/backup", nil)
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Backup started")
		return nil
	},
}

var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "List cloud backups",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := newAPIClient().get(cmd.Context(), "/api/system/backups")
		if err != nil {
			return err
		}

		var backups map[string]any
		if err := decodeJSON(resp, &backups); err != nil {
			return err
		}

		return printJSON(backups)
	},
}

// --- watch ---

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream live events from the server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		client := newAPIClient()
		wsURL := strings.Replace(client.baseURL, "http", "ws", 1) + "/api/events/ws"

		conn, _, err := websocket.Dial(ctx, wsURL, nil)
		if err != nil {
			return fmt.Errorf("connecting to event stream: %w", err)
		}
		defer conn.Close(websocket.StatusNormalClosure, "")

		printSuccess("Connected, streaming events (Ctrl+C to stop)")

		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("event stream closed: %w", err)
			}
			fmt.Fprintln(os.Stdout, string(data))
		}
	},
}
