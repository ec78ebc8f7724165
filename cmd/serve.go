package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/choropleth/internal/api"
	"github.com/sells-group/choropleth/internal/classify"
	"github.com/sells-group/choropleth/internal/thematic"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the classification and style API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		srv, err := buildServer(ctx)
		if err != nil {
			return err
		}
		defer srv.close()

		httpSrv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           srv.api.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			_ = httpSrv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", cfg.Server.Port))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

type server struct {
	api   *api.Server
	close func()
}

// buildServer wires the store, the optional source and the style template
// into an API server.
func buildServer(ctx context.Context) (*server, error) {
	tmpl, err := thematic.FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	mode, err := classify.ParseMode(cfg.Classify.Mode)
	if err != nil {
		return nil, err
	}

	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	src, err := openSource(ctx, true)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	deps := api.Deps{
		Store:          st,
		Source:         src,
		Template:       tmpl,
		DefaultMode:    mode,
		DefaultClasses: cfg.Classify.Classes,
		MaxConcurrent:  cfg.Thematic.MaxConcurrent,
		Config:         cfg.Server,
	}
	return &server{
		api: api.New(deps),
		close: func() {
			if src != nil {
				_ = src.Close()
			}
			_ = st.Close()
		},
	}, nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
