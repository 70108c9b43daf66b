package web

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/PancyStudios/XLZRBotGo/internal/engine"
	"github.com/PancyStudios/XLZRBotGo/internal/store"
	"github.com/PancyStudios/XLZRBotGo/pkg/config"
	"github.com/PancyStudios/XLZRBotGo/pkg/logger"
	"github.com/PancyStudios/XLZRBotGo/pkg/models"
)

const sweepTimeout = 30 * time.Minute

// StateReader is the read side of the bot state
type StateReader interface {
	Level(guildID, userID string) (models.LevelState, bool)
	Warnings(guildID, userID string) []models.Warn
	Verifications(guildID string) map[string]models.VerificationRecord
	Stats() store.Stats
	LastFlush() time.Time
}

// SweepRunner exposes the verification sweep
type SweepRunner interface {
	TriggerSweep(timeout time.Duration, done func(engine.SweepReport, error)) error
	LastSweep() (engine.SweepReport, bool)
	Sweeping() bool
}

// API holds what the routes read from
type API struct {
	State  StateReader
	Sweeps SweepRunner
	// BotOnline reports the gateway state. Nil means offline.
	BotOnline func() bool
	// Backend names the persistence backend and reports whether it is up
	Backend func() (string, bool)
	// Token guards the mutating endpoints. Empty disables them.
	Token string
}

// SetupAPIRoutes sets up the API routes
func SetupAPIRoutes(s *Server, a API) {
	s.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.Group("/api")
	{
		api.GET("/health", healthHandler)
		api.GET("/status", a.statusHandler)

		guild := api.Group("/guilds/:guildId")
		guild.GET("/levels/:userId", a.levelHandler)
		guild.GET("/warnings/:userId", a.warningsHandler)
		guild.GET("/verifications", a.verificationsHandler)

		api.GET("/sweep/last", a.lastSweepHandler)
		api.POST("/sweep", a.requireToken(), a.triggerSweepHandler)
	}
}

// healthHandler returns a simple health check response
func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "XLZR Bot is running",
	})
}

func (a API) statusHandler(c *gin.Context) {
	botOnline := a.BotOnline != nil && a.BotOnline()

	backend, backendOnline := "unknown", false
	if a.Backend != nil {
		backend, backendOnline = a.Backend()
	}

	resp := gin.H{
		"status":   "ok",
		"version":  config.Version,
		"bot":      gin.H{"isOnline": botOnline},
		"storage":  gin.H{"backend": backend, "isOnline": backendOnline},
		"state":    a.State.Stats(),
		"sweeping": a.Sweeps.Sweeping(),
	}
	if last := a.State.LastFlush(); !last.IsZero() {
		resp["lastFlush"] = last
	}

	c.JSON(http.StatusOK, resp)
}

func (a API) levelHandler(c *gin.Context) {
	st, ok := a.State.Level(c.Param("guildId"), c.Param("userId"))
	if !ok {
		notFound(c, "No level data for this member.")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"guildId":  c.Param("guildId"),
		"userId":   c.Param("userId"),
		"level":    st.Level,
		"xp":       st.XP,
		"required": st.Required(),
	})
}

func (a API) warningsHandler(c *gin.Context) {
	warns := a.State.Warnings(c.Param("guildId"), c.Param("userId"))
	if warns == nil {
		warns = []models.Warn{}
	}
	c.JSON(http.StatusOK, models.WarnsDocument{
		GuildID: c.Param("guildId"),
		UserID:  c.Param("userId"),
		Warns:   warns,
	})
}

func (a API) verificationsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"guildId":       c.Param("guildId"),
		"verifications": a.State.Verifications(c.Param("guildId")),
	})
}

func (a API) lastSweepHandler(c *gin.Context) {
	report, ok := a.Sweeps.LastSweep()
	if !ok {
		notFound(c, "No sweep has finished yet.")
		return
	}
	c.JSON(http.StatusOK, report)
}

// triggerSweepHandler starts a sweep in the background
func (a API) triggerSweepHandler(c *gin.Context) {
	err := a.Sweeps.TriggerSweep(sweepTimeout, func(report engine.SweepReport, err error) {
		if err == nil {
			logger.Info("API sweep finished: "+report.ID, "WebServer")
		}
	})
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Conflict", "message": "A sweep is already running."})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "started"})
}

func (a API) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.Token == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden", "message": "This endpoint is disabled."})
			return
		}
		got := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(got), []byte(a.Token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

func notFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, gin.H{
		"error":   "Not Found",
		"message": message,
		"status":  http.StatusNotFound,
	})
}
