package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dkeye/Huddle/internal/adapters/http"
	"github.com/dkeye/Huddle/internal/adapters/media"
	"github.com/dkeye/Huddle/internal/adapters/rtc"
	sig "github.com/dkeye/Huddle/internal/adapters/signal"
	"github.com/dkeye/Huddle/internal/adapters/view"
	"github.com/dkeye/Huddle/internal/app"
	"github.com/dkeye/Huddle/internal/app/orch"
	"github.com/dkeye/Huddle/internal/config"
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/google/uuid"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file")
	}

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	if cfg.Mode == "release" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	if err := run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg(core.UserMessage(err))
		os.Exit(1)
	}
	log.Info().Msg("Client exited gracefully")
}

func run(ctx context.Context, cfg *config.Config) error {
	sid := uuid.NewString()

	iceClient := resty.New().SetTimeout(5 * time.Second)
	conn, err := rtc.NewWebRTCConnection(rtc.Configuration(ctx, iceClient, cfg.ICE.ConfigURL, cfg.ICE.STUN), sid)
	if err != nil {
		return err
	}

	socket, err := sig.Dial(ctx, cfg.Server.URL, sig.Options{
		Heartbeat:  cfg.Server.Heartbeat,
		SendBuffer: cfg.Server.SendBuffer,
	}, nil)
	if err != nil {
		_ = conn.Close()
		return errors.Join(core.ErrChannelClosed, err)
	}
	limiter := sig.NewPushRateLimiter(cfg.Chat.RateLimit, cfg.Chat.RateWindow)
	channel := sig.NewRoomChannel(socket, limiter, core.EventNewMessage)

	bus := router.NewBroadcaster(64)
	joinCtx, joinCancel := context.WithTimeout(ctx, cfg.Server.JoinTimeout)
	defer joinCancel()
	session, err := orch.Join(joinCtx, domain.NormalizeRoomID(cfg.Server.Room), cfg.Server.Name, orch.Deps{
		ID:        sid,
		Channel:   channel,
		Transport: conn,
		Devices: media.NewFileDevices(media.Config{
			CameraFile: cfg.Media.CameraFile,
			MicFile:    cfg.Media.MicFile,
			ScreenFile: cfg.Media.ScreenFile,
			Loop:       cfg.Media.Loop,
		}),
		View: view.Multi{view.NewLogView(sid), bus},
		Restart: app.NewBackoffPolicy(app.RestartConfig{
			Attempts: cfg.ICE.RestartAttempts,
			Initial:  cfg.ICE.RestartInitial,
			Max:      cfg.ICE.RestartMax,
		}),
		RestartTimeout: cfg.ICE.RestartTimeout,
		RestartOffer:   cfg.ICE.RestartOffer,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: router.SetupRouter(cfg, session, bus, conn.Stats),
	}
	go func() {
		log.Info().Str("addr", cfg.HTTP.Addr).Str("room", string(session.Room)).Msg("Huddle client started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down")
		session.Leave()
	case <-session.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	if err := session.Err(); err != nil && !errors.Is(err, core.ErrSessionClosed) {
		return err
	}
	return nil
}
