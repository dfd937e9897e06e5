package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	adapthttp "babyplate/internal/adapter/http"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and sync in the background",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	var syncer adapthttp.Syncer
	if rt.engine != nil {
		syncer = rt.engine
		if rt.cfg.SyncInterval > 0 {
			go rt.engine.Run(ctx, rt.cfg.SyncInterval)
		}
	}
	h := adapthttp.New(rt.catalog, rt.plans, rt.recs, syncer, adapthttp.Options{
		WebDir:         rt.cfg.WebDir,
		AllowedOrigins: rt.cfg.CORSOrigins,
		Logger:         rt.log.Named("http"),
	}).Handler()

	rt.log.Info("listening", zap.String("addr", rt.cfg.Addr), zap.String("store", rt.cfg.Store),
		zap.Bool("sync", rt.engine != nil))
	return listen(ctx, rt.cfg.Addr, h)
}

// listen serves h until ctx is done, then shuts down gracefully.
func listen(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
