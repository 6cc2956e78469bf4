package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hanpama/jobgraph/internal/gqlrt"
	"github.com/hanpama/jobgraph/internal/otel"
	"github.com/hanpama/jobgraph/internal/server"
)

type serveFlags struct {
	addr         string
	pretty       bool
	timeout      time.Duration
	otelEndpoint string
	introspect   bool
}

func newServeCmd(a *app) *cobra.Command {
	var f serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the GraphQL HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("addr") {
				a.cfg.HTTP.Addr = f.addr
			}
			if flags.Changed("pretty") {
				a.cfg.HTTP.Pretty = f.pretty
			}
			if flags.Changed("timeout") {
				a.cfg.HTTP.Timeout = f.timeout
			}
			if flags.Changed("introspection") {
				a.cfg.HTTP.Introspection = f.introspect
			}
			if flags.Changed("otel-endpoint") {
				a.cfg.OTel.Endpoint = f.otelEndpoint
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().StringVar(&f.addr, "addr", "", "HTTP listen address")
	cmd.Flags().BoolVar(&f.pretty, "pretty", false, "Pretty-print JSON responses")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "Per-request timeout, e.g. 10s")
	cmd.Flags().BoolVar(&f.introspect, "introspection", true, "Answer __schema and __type queries")
	cmd.Flags().StringVar(&f.otelEndpoint, "otel-endpoint", "", "OTLP collector endpoint")
	return cmd
}

// handler builds the HTTP routes for an open backend.
func (a *app) handler(b *backend) (http.Handler, error) {
	exec, err := gqlrt.NewExecutor(b.reg, gqlrt.WithIntrospection(a.cfg.HTTP.Introspection))
	if err != nil {
		return nil, fmt.Errorf("build executor: %w", err)
	}
	c := a.cfg.HTTP
	opts := []server.Option{
		server.WithTimeout(c.Timeout),
		server.WithMaxBodyBytes(c.MaxBodyBytes),
		server.WithHealthCheck(func(ctx context.Context) error {
			sqlDB, err := b.db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}),
	}
	if c.Pretty {
		opts = append(opts, server.WithPretty())
	}
	if len(c.CORSOrigins) > 0 {
		opts = append(opts, server.WithCORS(c.CORSOrigins...))
	}
	h, err := server.New(exec, opts...)
	if err != nil {
		return nil, fmt.Errorf("server init: %w", err)
	}
	return h.Routes(), nil
}

func (a *app) serve(ctx context.Context) error {
	shutdownTracing, err := otel.Setup(ctx, a.bus, a.cfg.OTel.Endpoint, a.cfg.OTel.Service)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	b, err := a.open(ctx, a.cfg.Database.AutoMigrate)
	if err != nil {
		return err
	}
	defer b.Close()

	routes, err := a.handler(b)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           routes,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		a.logger.Info("GraphQL server listening", slog.String("addr", srv.Addr), slog.String("driver", a.cfg.Database.Driver))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down", slog.Duration("timeout", a.cfg.HTTP.ShutdownTimeout))
	sctx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
