package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/phenrril/booklibrary/internal/adapters/repo/gormdb"
	"github.com/phenrril/booklibrary/internal/app"
	"github.com/phenrril/booklibrary/internal/config"
	"github.com/phenrril/booklibrary/internal/logging"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "booklibrary",
	Short: "Book library customer service",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		logging.Init(cfg.AppEnv, cfg.LogLevel)
	},
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Migrate the schema and serve the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.Migrate(cmd.Context()); err != nil {
			return err
		}

		ln, err := net.Listen("tcp", ":"+cfg.Port)
		if err != nil {
			return err
		}
		server := &http.Server{Handler: a.HTTPHandler(), ReadHeaderTimeout: 10 * time.Second}
		go func() {
			if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				zlog.Error().Err(err).Msg("serve")
			}
		}()
		zlog.Info().Str("addr", ln.Addr().String()).Str("driver", cfg.DBDriver).Msg("listening")

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(ctx)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.Migrate(cmd.Context()); err != nil {
			return err
		}
		zlog.Info().Msg("schema created")
		return nil
	},
}

var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Drop the schema and every customer in it",
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return errors.New("refusing to drop without --yes")
		}
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.Drop(cmd.Context()); err != nil {
			return err
		}
		zlog.Warn().Msg("schema dropped")
		return nil
	},
}

func init() {
	dropCmd.Flags().Bool("yes", false, "confirm dropping all tables")
	rootCmd.AddCommand(serveCmd, migrateCmd, dropCmd)
}

func openApp() (*app.App, error) {
	db, err := gormdb.Open(cfg)
	if err != nil {
		return nil, err
	}
	return app.NewApp(db)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		zlog.Error().Err(err).Msg("booklibrary")
		os.Exit(1)
	}
}
