package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/codereview/internal/daemon"
	"github.com/joescharf/codereview/internal/gateway"
)

const (
	shutdownTimeout = 10 * time.Second
	stopWait        = 5 * time.Second
)

var serveDetach bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the review gateway HTTP server",
	Long: `Start the HTTP gateway exposing /api/review, /api/refactor, /api/chat
and /health. It listens on port 4000 unless --port, CODEREVIEW_PORT or PORT
say otherwise. Use --detach to run it in the background.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveDetach {
			return serveStartRun()
		}
		return serveRun(cmd.Context())
	},
}

var serveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a background server is running",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveStatusRun()
	},
}

var serveStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the background server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveStopRun()
	},
}

func init() {
	serveCmd.Flags().IntP("port", "p", 4000, "port to listen on")
	serveCmd.Flags().BoolVarP(&serveDetach, "detach", "d", false, "run the server in the background")
	_ = viper.BindPFlag("port", serveCmd.Flags().Lookup("port"))

	serveCmd.AddCommand(serveStatusCmd)
	serveCmd.AddCommand(serveStopCmd)
	rootCmd.AddCommand(serveCmd)
}

func pidFile() *daemon.PIDFile {
	return daemon.InDir(viper.GetString("state_dir"))
}

func serveLogPath() string {
	return filepath.Join(viper.GetString("state_dir"), "codereview-serve.log")
}

// serveRun serves in the foreground until a shutdown signal arrives.
func serveRun(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	pf := pidFile()
	if info, running := pf.IsRunning(); running && info.PID != os.Getpid() {
		return fmt.Errorf("server already running (pid %d) at %s", info.PID, info.Addr())
	}

	svc, closeSvc, err := newReviewService(ctx)
	if err != nil {
		return err
	}
	defer closeSvc()

	port := viper.GetInt("port")
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           newAPIHandler(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if err := pf.Write(port); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer func() { _ = pf.Remove() }()

	ctx, stop := signal.NotifyContext(ctx, shutdownSignals()...)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("gateway listening", "addr", srv.Addr, "backend", svc.Backend())
		errCh <- srv.ListenAndServe()
	}()
	ui.Success("Serving review gateway at http://localhost:%d", port)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	ui.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// serveStartRun re-executes serve in the background with output sent to the
// serve log.
func serveStartRun() error {
	pf := pidFile()
	if info, running := pf.IsRunning(); running {
		return fmt.Errorf("server already running (pid %d) at %s", info.PID, info.Addr())
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("find executable: %w", err)
	}

	logPath := serveLogPath()
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open serve log: %w", err)
	}
	defer logFile.Close()

	port := viper.GetInt("port")
	child := exec.Command(exe, "serve", "--port", strconv.Itoa(port))
	child.Stdout = logFile
	child.Stderr = logFile
	setDaemonAttrs(child)

	if err := child.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	pid := child.Process.Pid
	_ = child.Process.Release()

	ui.Success("Server started in background (pid %d) at http://localhost:%d", pid, port)
	ui.Info("Logs: %s", logPath)
	return nil
}

func serveStatusRun() error {
	info, running := pidFile().IsRunning()
	if !running {
		ui.Info("Server is not running")
		return nil
	}

	ui.Success("Server running (pid %d) at %s", info.PID, info.Addr())
	if info.Port == 0 {
		return nil
	}

	c, err := gateway.New(gateway.Options{BaseURL: info.Addr(), Timeout: 2 * time.Second})
	if err != nil {
		return err
	}
	if err := c.Health(context.Background()); err != nil {
		ui.Warning("Health check failed: %v", err)
		return nil
	}
	ui.VerboseLog("Health check ok")
	return nil
}

func serveStopRun() error {
	pf := pidFile()
	info, running := pf.IsRunning()
	if !running {
		_ = pf.Remove()
		return errors.New("server is not running")
	}

	if err := pf.Signal(sigTERM()); err != nil {
		return fmt.Errorf("signal server: %w", err)
	}

	deadline := time.Now().Add(stopWait)
	for time.Now().Before(deadline) {
		if _, alive := pf.IsRunning(); !alive {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if _, alive := pf.IsRunning(); alive {
		ui.Warning("Server did not stop in %s, killing pid %d", stopWait, info.PID)
		if err := pf.Signal(sigKILL()); err != nil {
			return fmt.Errorf("kill server: %w", err)
		}
	}

	_ = pf.Remove()
	ui.Success("Server stopped (pid %d)", info.PID)
	return nil
}
