package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/wl-go/wlgo/internal/cli/output"
	"github.com/wl-go/wlgo/internal/config"
	"github.com/wl-go/wlgo/internal/dispatch"
	"github.com/wl-go/wlgo/internal/logger"
	"github.com/wl-go/wlgo/internal/metrics"
	"github.com/wl-go/wlgo/internal/objtable"
	"github.com/wl-go/wlgo/internal/wire"
)

var (
	serveSocketPath string
	serveSide       string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Accept connections on a Unix domain socket and dispatch wire messages",
	Long: `serve binds a Unix domain socket and, for each connection, drives a
dispatch harness from decoded wire messages: create requests allocate
objects, destroy requests zombify them, and ping messages are routed or
silently discarded the way a real compositor discards messages addressed
to an object it has already destroyed.

This is a demonstration peer, not a Wayland compositor: the protocol
spoken here (see protocol.go) exists only to drive the table from a real
socket instead of an in-process script. Pair it with "wlinspect feed".`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveSocketPath, "socket", "/tmp/wlinspect.sock", "Unix domain socket path to listen on")
	serveCmd.Flags().StringVar(&serveSide, "side", "server", "table side to drive (client|server)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	side, err := parseSide(serveSide)
	if err != nil {
		return err
	}

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
		metricsServer = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server error", logger.Err(err))
			}
		}()
		logger.Info("metrics enabled", "addr", cfg.Metrics.Addr)
	}

	if err := os.RemoveAll(serveSocketPath); err != nil {
		return fmt.Errorf("clear stale socket: %w", err)
	}
	listener, err := net.Listen("unix", serveSocketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", serveSocketPath, err)
	}
	defer listener.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
		listener.Close()
		if metricsServer != nil {
			_ = metricsServer.Close()
		}
	}()

	printer := output.NewPrinter(os.Stdout, output.FormatTable, true)
	printer.Success(fmt.Sprintf("listening on %s (side=%s)", serveSocketPath, side))

	rec := metrics.NewRecorder(side)
	connID := 0
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		connID++
		go serveConn(ctx, conn, side, fmt.Sprintf("conn-%d", connID), rec)
	}
}

func serveConn(ctx context.Context, conn net.Conn, side objtable.Side, connID string, rec *metrics.Recorder) {
	defer conn.Close()
	h := dispatch.New(side, connID, rec)

	for {
		msg, err := wire.Decode(conn)
		if err != nil {
			return
		}
		switch msg.Opcode {
		case opCreate:
			name, _, err := wire.TakeString(msg.Payload)
			if err != nil {
				logger.Warn("malformed create request", logger.Err(err))
				continue
			}
			id, err := h.Create(0, name)
			if err != nil {
				logger.Warn("create failed", logger.Err(err))
				continue
			}
			reply := wire.Message{ObjectID: id, Opcode: opCreate}
			if err := wire.WriteMessage(conn, reply); err != nil {
				return
			}
		case opDestroy:
			if err := h.Destroy(msg.ObjectID, demoInterface); err != nil {
				logger.Warn("destroy failed", logger.ObjectID(msg.ObjectID), logger.Err(err))
			}
		case opPing:
			h.Dispatch(msg)
		default:
			logger.Warn("unknown opcode", logger.Opcode(msg.Opcode))
		}
	}
}
