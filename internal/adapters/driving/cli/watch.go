package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/vnexus-labs/chronicle/internal/logger"
	"github.com/vnexus-labs/chronicle/internal/metrics"
)

var (
	watchMetricsAddr string

	// watchSettle delays processing after a write event so partially
	// copied files are not analyzed mid-transfer.
	watchSettle = 500 * time.Millisecond
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch a directory and analyze incoming documents",
	Long: `Watches a directory and analyzes every .txt or .json document
created or modified in it, printing a one-line summary per document.
Runs until interrupted.

With --metrics-addr, pipeline metrics are exposed in Prometheus format
at /metrics on the given address.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "address to serve Prometheus metrics on (e.g. :9090)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if analysisService == nil || documentSource == nil {
		return errors.New("analysis service not configured")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir := args[0]
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if watchMetricsAddr != "" {
		startMetricsServer(ctx, cmd, watchMetricsAddr)
	}

	cmd.Printf("Watching %s (Ctrl-C to stop)\n", dir)

	// Per-path timers debounce bursts of write events into one run.
	pending := make(map[string]*time.Timer)
	ready := make(chan string)

	for {
		select {
		case <-ctx.Done():
			cmd.Println("Stopped.")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			if !watchableFile(event.Name) {
				continue
			}
			path := event.Name
			if timer, exists := pending[path]; exists {
				timer.Reset(watchSettle)
				continue
			}
			pending[path] = time.AfterFunc(watchSettle, func() {
				select {
				case ready <- path:
				case <-ctx.Done():
				}
			})

		case path := <-ready:
			delete(pending, path)
			analyzeWatched(ctx, cmd, path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

func watchableFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".json":
		return true
	}
	return false
}

func analyzeWatched(ctx context.Context, cmd *cobra.Command, path string) {
	doc, err := documentSource.Load(ctx, path)
	if err != nil {
		cmd.Printf("%s: load failed: %v\n", filepath.Base(path), err)
		return
	}

	result, err := analysisService.Analyze(ctx, doc, baseConfig)
	if err != nil {
		cmd.Printf("%s: analysis failed: %v\n", filepath.Base(path), err)
		return
	}

	cmd.Printf("%s: %s, %d entries, %d retained (%s)\n",
		filepath.Base(path), result.Strategy, result.Timeline.Len(),
		len(result.Filter.Retained), result.Metrics.Duration.Round(time.Millisecond))
}

func startMetricsServer(ctx context.Context, cmd *cobra.Command, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Metrics server: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx) //nolint:errcheck // Best-effort shutdown
	}()

	cmd.Printf("Serving metrics on %s/metrics\n", addr)
}
