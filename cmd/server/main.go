package main

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/playbrawl/party-backend/internal/auth"
	"github.com/playbrawl/party-backend/internal/clock"
	"github.com/playbrawl/party-backend/internal/codes"
	"github.com/playbrawl/party-backend/internal/config"
	"github.com/playbrawl/party-backend/internal/httpapi"
	"github.com/playbrawl/party-backend/internal/mailbox"
	"github.com/playbrawl/party-backend/internal/room"
	"github.com/playbrawl/party-backend/internal/round"
	"github.com/playbrawl/party-backend/internal/session"
	"github.com/playbrawl/party-backend/internal/sweeper"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	clk := clock.System()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	alloc := codes.NewAllocator(rng)
	store := session.NewStore(alloc)
	mail := mailbox.New()
	orch := room.NewOrchestrator(store, alloc, mail, clk, logger, room.Config{
		ReadyCountdown: cfg.RoomReadyCountdown,
	})

	roundCfg := round.Config{
		PromptTimeout:   cfg.PromptTimeout,
		ResponseTimeout: cfg.ResponseTimeout,
		VoteTimeout:     cfg.VoteTimeout,
		RestartTimeout:  cfg.RestartTimeout,
		MaxVoteTargets:  cfg.MaxVoteTargets,
	}
	emoji := round.NewEngine(round.NewEmojiPolicy(clk), store, mail, clk, rng, logger, roundCfg)
	guess := round.NewEngine(round.NewGuessFirstPolicy(clk), store, mail, clk, rng, logger, roundCfg)

	tokens := auth.NewTokenService([]byte(cfg.JWTSecret), clk, cfg.TokenTTL)

	playerSweeper := sweeper.Start(clk, logger, sweeper.Config{
		Label:          "player",
		TickInterval:   cfg.HeartbeatTick,
		StaleThreshold: cfg.StaleThreshold,
		ListClients: func() []sweeper.Client {
			players := store.AllPlayers()
			out := make([]sweeper.Client, len(players))
			for i, p := range players {
				out[i] = p
			}
			return out
		},
		Expire: func(c sweeper.Client) error {
			orch.ExpirePlayer(c.(*session.Player))
			return nil
		},
	})
	defer playerSweeper.Shutdown()

	hostSweeper := sweeper.Start(clk, logger, sweeper.Config{
		Label:          "host",
		TickInterval:   cfg.HeartbeatTick,
		StaleThreshold: cfg.StaleThreshold,
		ListClients: func() []sweeper.Client {
			hosts := store.AllHosts()
			out := make([]sweeper.Client, len(hosts))
			for i, h := range hosts {
				out[i] = h
			}
			return out
		},
		Expire: func(c sweeper.Client) error {
			orch.ExpireHost(c.(*session.Host))
			return nil
		},
	})
	defer hostSweeper.Shutdown()

	handler := httpapi.SetupRoutes(httpapi.Deps{
		Store:     store,
		Rooms:     orch,
		Emoji:     emoji,
		Guess:     guess,
		Tokens:    tokens,
		Log:       logger,
		PollRate:  rate.Limit(cfg.PollRate),
		PollBurst: cfg.PollBurst,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
	logger.Info("server stopped")
}
