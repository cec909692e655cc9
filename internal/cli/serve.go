package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/flatdoc/flatdoc/internal/server"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "http", "", "address to listen on (overrides config)")

	return cmd
}

func runServe(opts *ServeOptions) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	store, err := opts.openStore()
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	// The watcher needs the file on disk; a fresh store only gets one
	// lazily on first read.
	if err := store.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}

	if err := watchStoreFile(ctx, store.Path()); err != nil {
		return err
	}

	addr := opts.Config.HTTPAddr
	if opts.Addr != "" {
		addr = opts.Addr
	}
	httpServer := &http.Server{
		Addr:        addr,
		Handler:     server.NewRouter(store, opts.Config),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "addr", addr, "store", store.Path())
		serverErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		slog.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		slog.Info("Server stopped")
	}
	return nil
}

// watchStoreFile logs writes to the store file, including hand-edits
// made while the server runs. Every operation re-reads the file, so no
// reload is needed. The watcher cannot tell our own writes apart from
// external ones, hence debug level.
func watchStoreFile(ctx context.Context, path string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(path); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to watch store file: %w", err)
	}
	go func() {
		defer func() { _ = w.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Write) {
					slog.DebugContext(ctx, "Store file written", "path", path)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.WarnContext(ctx, "Store file watcher error", "err", err)
			}
		}
	}()
	return nil
}
