package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/jalsathi/go-controller/internal/config"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/dataservice"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/dialog"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/export"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/logging"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/metadata"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/query"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/slots"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/store"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/telemetry"
)

const turnTimeout = 30 * time.Second

// #region main
func main() {
	var (
		configPath string
		serviceURL string
		dbPath     string
	)

	rootCmd := &cobra.Command{
		Use:   "controller",
		Short: "Conversational groundwater assessment lookup",
		Long: `Start an interactive session that resolves a state, district or block
and assessment years from free text, then queries the data service.

Type "pick <state>[; district[; block[; years]]]" to make an exact
selection instead, "export csv" or "export json" after a result, and
"quit" to leave.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if serviceURL != "" {
				cfg.Service.BaseURL = serviceURL
			}
			if dbPath != "" {
				cfg.DBPath = dbPath
			}
			return run(cmd.Context(), cfg)
		},
	}
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.Flags().StringVar(&serviceURL, "service-url", "", "data service base URL (overrides config)")
	rootCmd.Flags().StringVar(&dbPath, "db", "", "path to the audit database (overrides config)")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// #endregion main

// #region run
func run(ctx context.Context, cfg config.Config) error {
	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	st, err := store.NewStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr, logger)
		defer srv.Close()
	}

	matcher, err := cfg.NewMatcher()
	if err != nil {
		return err
	}
	client := dataservice.NewClient(cfg.Service.BaseURL,
		dataservice.WithTimeout(cfg.Service.Timeout),
		dataservice.WithLogger(logger))

	machine := dialog.NewMachine(
		metadata.NewCache(client, logger, metadata.WithFetchTimeout(cfg.Service.Timeout)),
		query.NewExecutor(client, logger),
		dialog.Config{
			Matcher:         matcher,
			Years:           slots.NewYearParser(cfg.KnownYears),
			SuggestionLimit: cfg.Matcher.SuggestionLimit,
		},
		logger,
	)
	years := slots.NewYearParser(cfg.KnownYears)
	sess := dialog.NewSession(machine,
		dialog.WithExporter(export.Dir{Path: cfg.ExportDir}),
		dialog.WithRecorder(store.NewRecorder(st)),
		dialog.WithSessionLogger(logger))

	logger.Info("controller ready",
		zap.String("session", sess.ID()),
		zap.String("service", cfg.Service.BaseURL),
		zap.String("db", cfg.DBPath))

	fmt.Printf("JalSathi ready. Session %s | Service: %s\n", sess.ID(), cfg.Service.BaseURL)
	fmt.Printf("%s\n", sess.ResetConversation().Text())

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "quit" || input == "exit" {
			break
		}

		turnCtx, cancel := context.WithTimeout(ctx, turnTimeout)
		var reply dialog.Reply
		if sel, ok := parsePick(input, years); ok {
			reply = sess.ApplyAssistedSelection(turnCtx, sel)
		} else {
			reply = sess.HandleUserInput(turnCtx, input)
		}
		cancel()

		fmt.Printf("\n%s\n\n", reply.Text())
		if ctx.Err() != nil {
			break
		}
	}
	return scanner.Err()
}

func serveMetrics(addr string, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", telemetry.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", addr))
	return srv
}

// #endregion run

// #region pick
// parsePick reads "pick state; district; block; years". Empty parts are
// left unset; a years part that names no year becomes an empty explicit
// selection so validation can reject it.
func parsePick(input string, years slots.YearParser) (dialog.Selection, bool) {
	head, rest, _ := strings.Cut(input, " ")
	if !strings.EqualFold(head, "pick") {
		return dialog.Selection{}, false
	}

	parts := strings.SplitN(rest, ";", 4)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	for len(parts) < 4 {
		parts = append(parts, "")
	}

	sel := dialog.Selection{State: parts[0], District: parts[1], Block: parts[2]}
	if parts[3] != "" {
		ys, ok := years.Parse(parts[3])
		if !ok {
			ys = slots.Explicit()
		}
		sel.Years = &ys
	}
	return sel, true
}

// #endregion pick
