package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/rainbow-dataspace/authority/internal/core/gatekeeper"
	"github.com/rainbow-dataspace/authority/internal/core/issuer"
	"github.com/rainbow-dataspace/authority/internal/core/orchestrator"
	"github.com/rainbow-dataspace/authority/internal/core/store"
	"github.com/rainbow-dataspace/authority/internal/core/verifier"
	"github.com/rainbow-dataspace/authority/internal/httpserver"
	"github.com/rainbow-dataspace/authority/internal/storage/postgres"
	"github.com/rainbow-dataspace/authority/internal/storage/rediscache"
	"github.com/rainbow-dataspace/authority/pkg/configuration"
	"github.com/rainbow-dataspace/authority/pkg/keycache"
	"github.com/rainbow-dataspace/authority/pkg/logger"
	"github.com/rainbow-dataspace/authority/pkg/outboundclient"
	"github.com/rainbow-dataspace/authority/pkg/walletclient"
)

type service interface {
	Close(ctx context.Context) error
}

func main() {
	mode := "start"
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}

	ctx := context.Background()

	cfg, err := configuration.New(ctx)
	if err != nil {
		panic(err)
	}

	log, err := logger.New("authority", cfg.LogPath, cfg.Production)
	if err != nil {
		panic(err)
	}

	dbCfg := postgres.Config{
		URL:      cfg.DB.URL,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		Database: cfg.DB.Database,
	}
	db, err := postgres.New(ctx, dbCfg, log.New("postgres"))
	if err != nil {
		panic(err)
	}

	switch mode {
	case "setup":
		runSetup(ctx, db, log)
	case "start":
		runStart(ctx, cfg, db, log)
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q: expected \"start\" or \"setup\"\n", mode)
		os.Exit(1)
	}
}

// runSetup runs the one-shot schema migration (spec §6 "setup" subcommand)
// and exits.
func runSetup(ctx context.Context, db *postgres.Service, log *logger.Log) {
	if err := db.Setup(ctx); err != nil {
		log.Info("setup failed", "error", err.Error())
		os.Exit(1)
	}
	log.Info("setup complete")
}

// runStart wires the ceremony engine and blocks serving HTTP until
// terminated.
func runStart(ctx context.Context, cfg *configuration.Cfg, db *postgres.Service, log *logger.Log) {
	wg := &sync.WaitGroup{}
	services := make(map[string]service)

	var st store.Store = db
	if cfg.Redis.Addr != "" {
		st = rediscache.New(st, cfg.Redis.Addr, log.New("rediscache"))
		log.Info("redis cache-aside layer enabled", "addr", cfg.Redis.Addr)
	}

	wallet := walletclient.New(walletclient.Config{
		BaseURL:  cfg.Wallet.WalletBase(),
		Type:     cfg.Wallet.Type,
		Name:     cfg.Wallet.Name,
		Email:    cfg.Wallet.Email,
		Password: cfg.Wallet.Password,
	}, log.New("walletclient"))

	poster := outboundclient.New()

	apiPath := "/api/" + cfg.APIVersion

	gk := gatekeeper.New(gatekeeper.Config{
		Host:    cfg.HostBase(),
		APIPath: apiPath,
	}, poster, log.New("gatekeeper"))

	vf := verifier.New(verifier.Config{
		Host:    cfg.HostBase(),
		APIPath: apiPath,
		IsLocal: cfg.IsLocal,
	}, log.New("verifier"))

	keys := keycache.New(filepath.Join(cfg.KeysPath, "signing_key.pem"))

	is := issuer.New(issuer.Config{
		Host:    cfg.HostBase(),
		APIPath: apiPath,
		IsLocal: cfg.IsLocal,
	}, keys, log.New("issuer"))

	orch := orchestrator.New(gk, vf, is, wallet, st, log.New("orchestrator"))

	httpService, err := httpserver.New(ctx, cfg, orch, log.New("httpserver"))
	if err != nil {
		panic(err)
	}
	services["httpserver"] = httpService
	services["db"] = db

	termChan := make(chan os.Signal, 1)
	signal.Notify(termChan, syscall.SIGINT, syscall.SIGTERM)
	<-termChan

	mainLog := log.New("main")
	mainLog.Info("shutting down")

	for name, svc := range services {
		if err := svc.Close(ctx); err != nil {
			mainLog.Info("shutdown error", "service", name, "error", err.Error())
		}
	}

	wg.Wait()
	mainLog.Info("stopped")
}
