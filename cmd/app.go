package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/Harshkesharwani789/talk-space/auth"
	"github.com/Harshkesharwani789/talk-space/config"
	"github.com/Harshkesharwani789/talk-space/relay"
	httpServer "github.com/Harshkesharwani789/talk-space/server/http"
	websocketServer "github.com/Harshkesharwani789/talk-space/server/websocket"
	"github.com/Harshkesharwani789/talk-space/service"
	memStore "github.com/Harshkesharwani789/talk-space/storage/memory"
	mongoStore "github.com/Harshkesharwani789/talk-space/storage/mongo"
)

const (
	defaultStoreCloseTimeout = 5 * time.Second
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	fs := pflag.NewFlagSet("main", pflag.ContinueOnError)

	var (
		apiListenAddr = fs.StringP("api-listen-addr", "a", ":4000", "api listen address")
		wsListenAddr  = fs.StringP("ws-listen-addr", "w", ":4001", "websocket relay listen address")
		logLevel      = fs.StringP("log-level", "l", "debug", "log level")
	)
	if err := fs.Parse(os.Args[1:]); err != nil {
		logger.Fatal().Err(err).Msg("failed to parse command line arguments")
	}

	lvl, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse loglevel")
	}
	logger = logger.Level(lvl)

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse environment")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var store httpServer.Store
	if cfg.MongoURI != "" {
		mSt, errSt := mongoStore.NewStore(ctx, mongoStore.Config{
			URI:      cfg.MongoURI,
			Database: cfg.MongoDatabase,
		})
		if errSt != nil {
			logger.Fatal().Err(errSt).Msg("failed to connect to mongodb")
		}
		defer func() {
			clCtx, clCancel := context.WithTimeout(context.Background(), defaultStoreCloseTimeout)
			defer clCancel()
			if errCl := mSt.Close(clCtx); errCl != nil {
				logger.Error().Err(errCl).Msg("failed to close mongodb connection")
			}
		}()
		store = mSt
		logger.Info().Msg("database connected")
	} else {
		store = memStore.NewMemStore()
		logger.Warn().Msg("MONGODB_URI is not set, using in-memory store")
	}

	svc := service.NewService(service.Config{
		Relay:  relay.New(&logger, relay.NewRegistry()),
		Logger: &logger,
	})
	authSvc := service.NewAuth(service.AuthConfig{
		Store:  store,
		Tokens: auth.NewManager(cfg.TokenSecret, cfg.TokenTTL),
		Logger: &logger,
	})
	httpSrv := httpServer.NewServer(httpServer.Config{
		Logger:     &logger,
		Store:      store,
		Auth:       authSvc,
		ListenAddr: *apiListenAddr,
	})
	wsSrv := websocketServer.NewServer(websocketServer.Config{
		Logger:     &logger,
		Service:    svc,
		ListenAddr: *wsListenAddr,
	})

	var (
		wg   = &sync.WaitGroup{}
		errc = make(chan error, 2)
	)
	wg.Add(2)
	go httpSrv.Run(ctx, wg, errc)
	go wsSrv.Run(ctx, wg, errc)

	select {
	case err = <-errc:
		logger.Error().Err(err).Msg("unexpected server error, shutting down")
	case <-ctx.Done():
		logger.Warn().Msg("interrupted")
	}
	cancel()
	wg.Wait()
}
