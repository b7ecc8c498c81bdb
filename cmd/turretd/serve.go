package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/stellar/stellar-turrets/api"
	"github.com/stellar/stellar-turrets/config"
	"github.com/stellar/stellar-turrets/heal"
	"github.com/stellar/stellar-turrets/kv"
	"github.com/stellar/stellar-turrets/kv/memkv"
	"github.com/stellar/stellar-turrets/kv/rediskv"
	"github.com/stellar/stellar-turrets/ledger"
	"github.com/stellar/stellar-turrets/trust"
	"github.com/stellar/stellar-turrets/txfunc"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the turret HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, _ := cmd.Flags().GetString("config")
		return serve(cfgPath)
	},
}

func init() {
	serveCmd.Flags().StringP("config", "c", "turret.toml", "Path to the turret config file")
	rootCmd.AddCommand(serveCmd)
}

func newLogger() zerolog.Logger {
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	return zerolog.New(output).With().Timestamp().Str("app", "turretd").Logger()
}

func serve(cfgPath string) error {
	log := newLogger()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Error().Err(err).Msg("configuration invalid")
		return err
	}

	// An unreadable trust document is fatal: trust queries fail closed, the
	// process never starts with a default-trust registry.
	registry, err := trust.Load(cfg.TrustDocument)
	if err != nil {
		log.Error().Err(err).Msg("trust document invalid")
		return err
	}
	log.Info().Int("trusted_turrets", registry.Len()).Msg("trust registry loaded")

	var functions, allowed kv.Store
	if cfg.Redis.Addr != "" {
		functions = rediskv.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, rediskv.WithPrefix("txf:"))
		allowed = rediskv.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, rediskv.WithPrefix("allowed:"))
	} else {
		log.Warn().Msg("no redis configured, using in-memory stores")
		functions = memkv.New()
		allowed = memkv.New()
	}

	gateway := ledger.NewHorizonGateway(cfg.HorizonURL)
	store := txfunc.New(functions, allowed, gateway, txfunc.Config{
		NetworkPassphrase: cfg.NetworkPassphrase,
		TurretAddress:     cfg.TurretAddress,
		UploadDivisor:     cfg.UploadDivisor,
		Restricted:        cfg.Restricted(),
	})
	engine := heal.New(registry, gateway, store, heal.Config{
		TurretAddress:     cfg.TurretAddress,
		NetworkPassphrase: cfg.NetworkPassphrase,
	})

	server := api.NewServer(cfg, store, engine, log)
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Str("turret", cfg.TurretAddress).Msg("turret listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Error().Err(err).Msg("server error")
		return err
	case sig := <-shutdown:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown did not complete")
			return srv.Close()
		}
	}
	return nil
}
