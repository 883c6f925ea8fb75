package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/dkeye/Huddle/internal/adapters/rtc"
	"github.com/dkeye/Huddle/internal/adapters/signal"
	"github.com/dkeye/Huddle/internal/app/orch"
	"github.com/dkeye/Huddle/internal/app/share"
	"github.com/dkeye/Huddle/internal/config"
	"github.com/dkeye/Huddle/internal/core"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Controller is the session as driven by the control API. *orch.Session satisfies it.
type Controller interface {
	Snapshot() orch.Snapshot
	ShareURL(raw string) error
	StartScreenShare(ctx context.Context) error
	StopSharing() error
	SendChat(body string) error
	ToggleAudio() (bool, error)
	ToggleVideo() (bool, error)
	Leave()
	Done() <-chan struct{}
}

// StatsFunc reports inbound feed statistics.
type StatsFunc func() []rtc.FeedStats

func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// statusOf maps session errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, core.ErrSessionClosed):
		return http.StatusGone
	case errors.Is(err, share.ErrAlreadySharing):
		return http.StatusConflict
	case errors.Is(err, share.ErrInvalidShareURL):
		return http.StatusBadRequest
	case errors.Is(err, signal.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, core.ErrMediaUnavailable), errors.Is(err, share.ErrNoVideoSender):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func abort(c *gin.Context, err error) {
	code := statusOf(err)
	log.Warn().
		Str("module", "adapters.http").
		Str("request_id", c.GetString("request_id")).
		Str("path", c.FullPath()).
		Int("status", code).
		Err(err).
		Msg("request failed")
	c.JSON(code, gin.H{"error": err.Error()})
}

func ended(ctrl Controller) bool {
	select {
	case <-ctrl.Done():
		return true
	default:
		return false
	}
}

func SetupRouter(cfg *config.Config, ctrl Controller, bus *Broadcaster, stats StatsFunc) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())

	log.Info().Str("module", "adapters.http").Str("addr", cfg.HTTP.Addr).Msg("router setup")

	api := r.Group("/api")

	api.GET("/state", func(c *gin.Context) {
		c.JSON(http.StatusOK, ctrl.Snapshot())
	})

	api.GET("/stats", func(c *gin.Context) {
		if stats == nil {
			c.JSON(http.StatusOK, gin.H{"feeds": []rtc.FeedStats{}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"feeds": stats()})
	})

	api.GET("/events", func(c *gin.Context) {
		events, unsubscribe := bus.Subscribe()
		defer unsubscribe()
		c.SSEvent("state", ctrl.Snapshot())
		c.Writer.Flush()

		c.Stream(func(w io.Writer) bool {
			select {
			case ev, ok := <-events:
				if !ok {
					return false
				}
				e, ok := ev.Args[0].(Event)
				if !ok {
					return true
				}
				c.SSEvent(e.Name, e.Data)
				return e.Name != "ended"
			case <-ctrl.Done():
				return false
			case <-c.Request.Context().Done():
				return false
			}
		})
	})

	api.POST("/share", func(c *gin.Context) {
		var req struct {
			URL string `json:"url"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.URL) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid url"})
			return
		}
		if err := ctrl.ShareURL(strings.TrimSpace(req.URL)); err != nil {
			abort(c, err)
			return
		}
		c.Status(http.StatusAccepted)
	})

	api.POST("/share/screen", func(c *gin.Context) {
		if err := ctrl.StartScreenShare(c.Request.Context()); err != nil {
			abort(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	api.DELETE("/share", func(c *gin.Context) {
		if err := ctrl.StopSharing(); err != nil {
			abort(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	api.POST("/chat", func(c *gin.Context) {
		var req struct {
			Body string `json:"body"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Body) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing or empty body"})
			return
		}
		if err := ctrl.SendChat(req.Body); err != nil {
			abort(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	api.POST("/media/:kind/toggle", func(c *gin.Context) {
		var (
			enabled bool
			err     error
		)
		switch kind := c.Param("kind"); kind {
		case "audio":
			enabled, err = ctrl.ToggleAudio()
		case "video":
			enabled, err = ctrl.ToggleVideo()
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be audio or video"})
			return
		}
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"kind": c.Param("kind"), "enabled": enabled})
	})

	api.POST("/leave", func(c *gin.Context) {
		if ended(ctrl) {
			abort(c, core.ErrSessionClosed)
			return
		}
		log.Info().Str("module", "adapters.http").Msg("leave requested")
		ctrl.Leave()
		c.Status(http.StatusNoContent)
	})

	return r
}
