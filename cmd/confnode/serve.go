package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"confnode/internal/handler"
	"confnode/internal/hub"
	"confnode/internal/service"
	"confnode/internal/watcher"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the node classification HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = a.cfg.Server.Addr
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sseHub := hub.New(a.logger)
		go sseHub.Run(ctx)

		eventChan := make(chan service.Event, 100)
		a.events.Subscribe(eventChan)
		go hub.Forward(ctx, sseHub, eventChan)

		if a.cfg.Environments.Watch {
			w := watcher.ForRegistry(a.cfg.Environments.Path, a.registry, a.svc.EnvironmentsReloaded, a.logger)
			go func() {
				if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
					a.logger.Error("environment watcher stopped", "error", err)
				}
			}()
		}

		srv := &http.Server{
			Addr:              addr,
			Handler:           handler.NewRouter(handler.NewNodeHandler(a.svc, a.logger), sseHub),
			ReadHeaderTimeout: 10 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			a.logger.Info("starting confnode server",
				"addr", srv.Addr,
				"config", a.cfgPath,
				"node_terminus", a.terminus.Name(),
				"facts_terminus", a.facts.Name(),
			)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		a.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "error", err)
			return srv.Close()
		}
		a.logger.Info("server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "HTTP listen address (default from config)")
}
