// Command signer runs the JSON-RPC keystore/signing service (spec §7,
// "CLI surface": one server subcommand).
//
// Grounded on kgiusti-go-fdo-server/cmd (cobra root + subcommand, viper
// flag binding, signal.Notify graceful shutdown) and the teacher's
// cmd/bot/main.go (bracketed startup logging, quit channel pattern).
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gipsh/emerald-signer/internal/config"
	"github.com/gipsh/emerald-signer/internal/contract"
	"github.com/gipsh/emerald-signer/internal/logging"
	"github.com/gipsh/emerald-signer/internal/rpc"
	"github.com/gipsh/emerald-signer/internal/storage"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "emerald-signer",
		Short: "local keystore and signing service for Ethereum-family chains",
	}
	root.AddCommand(newServerCmd())
	return root
}

func newServerCmd() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "server",
		Short: "start the JSON-RPC signing server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}
	config.BindFlags(cmd, v)
	return cmd
}

func runServer(cfg config.Config) error {
	logging.Init(cfg.Verbosity)
	log := logging.Component("server")
	log.Info().Str("base_path", cfg.BasePath).Str("storage_type", string(cfg.StorageType)).Msg("starting emerald-signer")

	controller, err := storage.NewController(cfg.BasePath, cfg.StorageType)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize storage controller")
		return err
	}
	defer controller.Close()

	contracts := make(map[string]*contract.Backend, len(storage.ChainNames))
	for _, chain := range storage.ChainNames {
		backend, err := contract.NewBackend(filepath.Join(cfg.BasePath, chain, "contracts"))
		if err != nil {
			log.Error().Err(err).Str("chain", chain).Msg("failed to initialize contract backend")
			return err
		}
		contracts[chain] = backend
	}

	svc := &rpc.Service{
		Controller:    controller,
		Contracts:     contracts,
		DefaultChain:  cfg.DefaultChain,
		SecurityLevel: cfg.SecurityLevel,
		UsePbkdf2:     cfg.UsePbkdf2,
		Log:           log,
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           rpc.NewRouter(svc, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server failed")
			return err
		}
	case <-stop:
		log.Info().Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
			return err
		}
	}
	return nil
}
