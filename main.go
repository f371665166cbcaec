package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	logging "github.com/ipfs/go-log/v2"

	"github.com/llehouerou/aikta/internal/bot"
	"github.com/llehouerou/aikta/internal/config"
	"github.com/llehouerou/aikta/internal/lastfm"
	"github.com/llehouerou/aikta/internal/nowplaying"
	"github.com/llehouerou/aikta/internal/store"
)

var log = logging.Logger("aikta")

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := logging.SetLogLevel("*", cfg.LogLevel); err != nil {
		return fmt.Errorf("log level %q: %w", cfg.LogLevel, err)
	}

	// Store: configured URL > data_dir > XDG data dir
	storeURL := cfg.Store.URL
	if storeURL == "" {
		if storeURL, err = store.DefaultURL(cfg.DataDir); err != nil {
			return err
		}
	}
	ids, err := store.Open(ctx, storeURL)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer ids.Close()

	httpClient := &http.Client{Timeout: cfg.LastfmTimeout()}
	client := lastfm.NewClient(httpClient, cfg.Lastfm.APIKey, lastfm.WithBaseURL(cfg.Lastfm.BaseURL))

	resolver := nowplaying.NewResolver(ids, client)
	aggregator := nowplaying.NewAggregator(resolver,
		nowplaying.WithConcurrency(cfg.Lastfm.MaxConcurrency),
		// recent track + play count, each bounded by the http client timeout
		nowplaying.WithListenerTimeout(2*cfg.LastfmTimeout()),
	)

	deps := bot.Deps{
		Identities: ids,
		Resolver:   resolver,
		Aggregator: aggregator,
		LineDelay:  cfg.LineDelay(),
		Version:    bot.Version(),

		VerifyTimeout: cfg.LastfmTimeout(),
	}
	if cfg.Lastfm.VerifyUsers {
		deps.Verifier = lastfm.NewVerifier(cfg.Lastfm.APIKey)
	}

	b := bot.New(cfg.IRC, cfg.Address(), deps)
	log.Infow("starting", "version", deps.Version, "channels", cfg.IRC.Channels)
	return b.Run(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
