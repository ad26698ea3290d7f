// Command botswarmdemo logs a handful of bots into a RuneScape 317
// server and reports their handshake outcome. It exists to exercise the
// library end to end.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs317/botswarm"
)

const ConfigPath = "config/botswarm.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfgPath := ConfigPath
	if p := os.Getenv("BOTSWARM_CONFIG"); p != "" {
		cfgPath = p
	}
	count := flag.Int("bots", 3, "number of bots to log in")
	flag.Parse()

	cfg, err := botswarm.LoadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	slog.Info("config loaded", "connect_address", cfg.ConnectAddress, "bots", *count)

	group, err := botswarm.NewGroup(cfg,
		botswarm.WithExceptionHandler(func(username string, err error) {
			slog.Warn("bot exception", "username", username, "err", err)
		}),
		botswarm.WithMessageHandler(func(username string, _ *botswarm.Message) {
			slog.Debug("message received", "username", username)
		}),
	)
	if err != nil {
		return fmt.Errorf("creating group: %w", err)
	}
	defer group.Close()

	for i := 0; i < *count; i++ {
		username := fmt.Sprintf("bot%02d", i)
		bot, err := group.Add(username, "password1")
		if err != nil {
			return fmt.Errorf("adding %s: %w", username, err)
		}

		go func(username string, bot *botswarm.Bot) {
			ok := botswarm.WaitLoggedInTimeout(bot, 10*time.Second)
			slog.Info("login result", "username", username, "logged_in", ok)
		}(username, bot)
	}

	<-ctx.Done()
	return nil
}
