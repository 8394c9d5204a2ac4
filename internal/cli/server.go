package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/poolworks/swapd/internal/config"
	"github.com/poolworks/swapd/internal/core/op"
	"github.com/poolworks/swapd/internal/core/state"
	"github.com/poolworks/swapd/internal/ledger"
	"github.com/poolworks/swapd/internal/node"
	"github.com/poolworks/swapd/internal/oracle"
	"github.com/poolworks/swapd/internal/rpc"
	"github.com/poolworks/swapd/internal/storage/history"
	historypg "github.com/poolworks/swapd/internal/storage/history/postgres"
	historysqlite "github.com/poolworks/swapd/internal/storage/history/sqlite"
	"github.com/poolworks/swapd/internal/storage/kv"
	kvleveldb "github.com/poolworks/swapd/internal/storage/kv/leveldb"
	kvpebble "github.com/poolworks/swapd/internal/storage/kv/pebble"
)

// serverCmd represents the server command (default action)
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the pool daemon",
	Long: `Start the swapd server: HTTP JSON-RPC for pool operations and
queries, a WebSocket endpoint for applied-operation subscriptions, and a
health check endpoint. This is the default command.`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)

	// Running swapd with no subcommand starts the server.
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runServer(cmd, args)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return err
	}

	if cfg.DebugLogfile != "" {
		f, err := os.OpenFile(cfg.DebugLogfile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open debug logfile: %w", err)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	db, err := openStateStore(&cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open state store: %w", err)
	}
	defer db.Close()

	view, err := state.NewDurableView(db, cfg.Store.CacheSize)
	if err != nil {
		return fmt.Errorf("failed to build state view: %w", err)
	}

	book := ledger.New(db, cfg.Pool.AssetA, cfg.Pool.AssetB)

	params := op.Params{
		AssetA:          cfg.Pool.AssetA,
		AssetB:          cfg.Pool.AssetB,
		FeeBps:          uint16(cfg.Pool.FeeBps),
		OracleValuation: cfg.Pool.OracleValuation,
	}

	var engineOpts []op.Option
	var feed *manualFeed
	if cfg.Pool.OracleValuation {
		source := oracle.NewManualSource()
		adapter := oracle.NewAdapter(source, cfg.Oracle.MaxAge(), cfg.Oracle.TWAPWindow())
		engineOpts = append(engineOpts, op.WithValuation(adapter))
		feed = &manualFeed{source: source, adapter: adapter}
	}

	engine := op.NewEngine(view, params, book, engineOpts...)

	var nodeOpts []node.Option

	if cfg.History.Enabled {
		journal, err := openJournal(cmd.Context(), &cfg.History.Database)
		if err != nil {
			return fmt.Errorf("failed to open history journal: %w", err)
		}
		manager := history.NewManager(journal)
		if err := manager.Open(cmd.Context()); err != nil {
			return fmt.Errorf("failed to start history journal: %w", err)
		}
		defer manager.Close()
		nodeOpts = append(nodeOpts, node.WithJournal(manager))
	}

	subscriptions := rpc.NewSubscriptionManager()
	nodeOpts = append(nodeOpts, node.WithPublisher(rpc.NewPublisher(subscriptions)))

	n := node.New(engine, view, nodeOpts...)

	httpServer := rpc.NewServer(n, cfg.Server.RequestTimeout())
	httpServer.RegisterBalanceBook(book)
	if feed != nil {
		httpServer.RegisterPriceFeed(feed)
	}
	wsServer := rpc.NewWebSocketServer(httpServer.Registry(), subscriptions)

	mux := http.NewServeMux()
	mux.Handle("/", httpServer)
	mux.Handle("/rpc", httpServer)
	mux.Handle("/ws", wsServer)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"swapd"}`))
	})

	addr := cfg.Server.Addr()
	if !quiet {
		fmt.Printf("swapd %s\n", rootCmd.Version)
		fmt.Printf("  pool:      %s/%s, fee %d bps\n", cfg.Pool.AssetA, cfg.Pool.AssetB, cfg.Pool.FeeBps)
		fmt.Printf("  store:     %s\n", cfg.Store.Backend)
		fmt.Printf("  JSON-RPC:  http://%s/\n", displayAddr(addr))
		fmt.Printf("  WebSocket: ws://%s/ws\n", displayAddr(addr))
		if cfg.Pool.OracleValuation {
			fmt.Println("  oracle valuation enabled (feed prices with set_price)")
		}
		fmt.Printf("Starting server on %s...\n", addr)
	}

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openStateStore opens the configured kv backend.
func openStateStore(cfg *config.StoreConfig) (kv.DB, error) {
	switch strings.ToLower(cfg.Backend) {
	case "pebble":
		return kvpebble.Open(cfg.StatePath())
	case "leveldb":
		return kvleveldb.Open(cfg.StatePath())
	case "memory":
		return kvpebble.OpenMemory()
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// openJournal opens the configured history backend.
func openJournal(ctx context.Context, cfg *history.Config) (history.Journal, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Driver {
	case "sqlite":
		return historysqlite.Open(cfg.Database)
	case "postgres":
		return historypg.Open(ctx, cfg)
	default:
		return nil, history.ErrUnsupportedDriver
	}
}

// manualFeed couples the manual price source with the valuation adapter
// so a set_price call lands in the smoothing window immediately.
type manualFeed struct {
	source  *oracle.ManualSource
	adapter *oracle.Adapter
}

func (f *manualFeed) SubmitPrice(value uint64) error {
	f.source.SetPrice(value)
	return f.adapter.Observe()
}

func displayAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}
