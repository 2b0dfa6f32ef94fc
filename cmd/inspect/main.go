package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/jalsathi/go-controller/internal/config"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/logging"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/query"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/store"
)

// #region main

func main() {
	var (
		dbPath  string
		last    int
		runID   string
		session string
		outcome string
		jsonOut bool
	)

	rootCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Inspect recorded query runs and dialog turns",
		Long: `Read the controller's audit database.

Example:
  inspect --last 10
  inspect --last 50 --outcome no_data
  inspect --run 6f1c0d4e-...
  inspect --session 3b9a... --json`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				dbPath = config.Default().DBPath
			}
			if runID != "" && session != "" {
				return fmt.Errorf("--run and --session are mutually exclusive")
			}
			var filter *query.Failure
			if outcome != "" {
				f, err := parseOutcome(outcome)
				if err != nil {
					return err
				}
				filter = &f
			}

			st, err := store.NewStore(dbPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer st.Close()

			ctx := cmd.Context()
			switch {
			case runID != "":
				return runDetailMode(ctx, st, runID, jsonOut)
			case session != "":
				return runSessionMode(ctx, st, session, jsonOut)
			default:
				return runListMode(ctx, st, last, filter, jsonOut)
			}
		},
	}
	rootCmd.Flags().StringVar(&dbPath, "db", "", "path to the audit database (default from config)")
	rootCmd.Flags().IntVar(&last, "last", 20, "show N most recent runs")
	rootCmd.Flags().StringVar(&runID, "run", "", "show a single run in detail")
	rootCmd.Flags().StringVar(&session, "session", "", "show every turn of a session")
	rootCmd.Flags().StringVar(&outcome, "outcome", "", "only list runs with this outcome (ok, transport, not_found, server, no_data, unknown)")
	rootCmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON instead of a table")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	RunID     string `json:"run_id"`
	SessionID string `json:"session_id"`
	Turn      int    `json:"turn"`
	Location  string `json:"location"`
	Years     string `json:"years"`
	Outcome   string `json:"outcome"`
	CreatedAt string `json:"created_at"`
}

func toListRow(r store.RunRecord) listRow {
	return listRow{
		RunID:     r.RunID,
		SessionID: r.SessionID,
		Turn:      r.Turn,
		Location:  requestedLocation(r),
		Years:     yearsText(r.Years),
		Outcome:   r.Outcome,
		CreatedAt: r.CreatedAt.Format(time.RFC3339),
	}
}

func runListMode(ctx context.Context, st *store.Store, last int, filter *query.Failure, jsonOut bool) error {
	runs, err := st.ListRuns(ctx, last)
	if err != nil {
		return err
	}
	if filter != nil {
		runs = filterRuns(runs, *filter)
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no runs found")
		return nil
	}

	// Store returns newest first; print chronologically.
	rows := make([]listRow, len(runs))
	for i, r := range runs {
		rows[len(runs)-1-i] = toListRow(r)
	}

	if jsonOut {
		return printJSON(rows)
	}
	fmt.Printf("%-8s  %4s  %-36s  %-12s  %-10s  %s\n", "Run", "Turn", "Location", "Years", "Outcome", "Time")
	fmt.Printf("%-8s+-%4s+-%-36s+-%-12s+-%-10s+-%s\n",
		"--------", "----", strings.Repeat("-", 36), "------------", "----------", "--------------------")
	for _, r := range rows {
		fmt.Printf("%-8s  %4d  %-36s  %-12s  %-10s  %s\n",
			shortID(r.RunID), r.Turn, truncate(r.Location, 36), r.Years, r.Outcome, r.CreatedAt)
	}
	return nil
}

// parseOutcome accepts only the stored outcome names.
func parseOutcome(s string) (query.Failure, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	f := query.ParseFailure(name)
	if f.String() != name {
		return 0, fmt.Errorf("unknown outcome %q", s)
	}
	return f, nil
}

func filterRuns(runs []store.RunRecord, want query.Failure) []store.RunRecord {
	var out []store.RunRecord
	for _, r := range runs {
		if query.ParseFailure(r.Outcome) == want {
			out = append(out, r)
		}
	}
	return out
}

// #endregion list-mode

// #region detail-mode

type detailView struct {
	listRow
	Message string          `json:"message,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
}

func runDetailMode(ctx context.Context, st *store.Store, id string, jsonOut bool) error {
	r, err := st.GetRun(ctx, id)
	if err != nil {
		return err
	}
	view := detailView{listRow: toListRow(r), Message: r.Message}
	if r.ResultJSON != "" {
		view.Result = json.RawMessage(r.ResultJSON)
	}
	if jsonOut {
		return printJSON(view)
	}

	fmt.Printf("Run:      %s\n", view.RunID)
	fmt.Printf("Session:  %s (turn %d)\n", view.SessionID, view.Turn)
	fmt.Printf("Location: %s\n", view.Location)
	if r.Location != "" {
		fmt.Printf("Resolved: %s\n", r.Location)
	}
	fmt.Printf("Years:    %s\n", view.Years)
	fmt.Printf("Outcome:  %s\n", view.Outcome)
	fmt.Printf("Time:     %s\n", view.CreatedAt)
	if view.Message != "" {
		fmt.Printf("\n%s\n", view.Message)
	}
	return nil
}

// #endregion detail-mode

// #region session-mode

type turnRow struct {
	Turn      int             `json:"turn"`
	Input     string          `json:"input"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Slots     json.RawMessage `json:"slots,omitempty"`
	Reply     string          `json:"reply"`
	CreatedAt string          `json:"created_at"`
}

func runSessionMode(ctx context.Context, st *store.Store, sessionID string, jsonOut bool) error {
	entries, err := st.ListTurns(ctx, sessionID)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintf(os.Stderr, "no turns for session %s\n", sessionID)
		return nil
	}

	rows := make([]turnRow, len(entries))
	for i, e := range entries {
		rows[i] = toTurnRow(e)
	}
	if jsonOut {
		return printJSON(rows)
	}

	for _, r := range rows {
		fmt.Printf("#%d  %s -> %s  %s\n", r.Turn, r.From, r.To, r.CreatedAt)
		fmt.Printf("  > %s\n", r.Input)
		for _, line := range strings.Split(r.Reply, "\n") {
			fmt.Printf("    %s\n", line)
		}
	}
	return nil
}

func toTurnRow(e logging.TurnEntry) turnRow {
	row := turnRow{
		Turn:      e.Turn,
		Input:     e.Input,
		From:      e.FromState,
		To:        e.ToState,
		Reply:     e.Reply,
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
	}
	if e.SlotsJSON != "" {
		row.Slots = json.RawMessage(e.SlotsJSON)
	}
	return row
}

// #endregion session-mode

// #region helpers

func requestedLocation(r store.RunRecord) string {
	parts := []string{}
	for _, p := range []string{r.State, r.District, r.Block} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "All states"
	}
	return strings.Join(parts, " › ")
}

func yearsText(years []int) string {
	if len(years) == 0 {
		return "latest"
	}
	s := make([]string, len(years))
	for i, y := range years {
		s[i] = fmt.Sprint(y)
	}
	return strings.Join(s, ",")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// #endregion helpers
