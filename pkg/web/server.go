// Package web provides the HTTP API of the bot, built on Gin.
package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/PancyStudios/XLZRBotGo/pkg/logger"
)

// Options configures a Server
type Options struct {
	// WebhookURL receives a log embed for every request when set
	WebhookURL string
	// HostPattern restricts the accepted Host header. Empty accepts all.
	HostPattern string
	// RequestsPerMinute is the per-IP budget, 100 by default
	RequestsPerMinute int
}

// Server represents the web server
type Server struct {
	engine           *gin.Engine
	httpMu           sync.Mutex
	http             *http.Server
	webhookURL       string
	allowedHostRegex *regexp.Regexp
	client           *http.Client
	limiters         *lru.Cache[string, *rate.Limiter]
	perMinute        int
}

var server *Server

// Init initializes the global web server
func Init(opts Options) (*Server, error) {
	s, err := NewServer(opts)
	if err != nil {
		return nil, err
	}
	server = s
	return server, nil
}

// Get returns the global web server
func Get() *Server {
	return server
}

// NewServer creates a new web server
func NewServer(opts Options) (*Server, error) {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = 100
	}

	var hostRe *regexp.Regexp
	if opts.HostPattern != "" {
		re, err := regexp.Compile(opts.HostPattern)
		if err != nil {
			return nil, fmt.Errorf("invalid host pattern: %w", err)
		}
		hostRe = re
	}

	limiters, err := lru.New[string, *rate.Limiter](4096)
	if err != nil {
		return nil, err
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:           engine,
		webhookURL:       opts.WebhookURL,
		allowedHostRegex: hostRe,
		client:           &http.Client{Timeout: 5 * time.Second},
		limiters:         limiters,
		perMinute:        opts.RequestsPerMinute,
	}

	s.engine.Use(s.logsMiddleware())
	s.engine.Use(s.rateLimitMiddleware())

	s.setupErrorHandlers()

	return s, nil
}

// Engine returns the underlying Gin engine
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// logsMiddleware logs incoming requests and rejects unexpected hosts
func (s *Server) logsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.allowedHostRegex == nil || s.allowedHostRegex.MatchString(c.Request.Host) {
			logger.Debug(fmt.Sprintf("Request: %s %s", c.Request.Method, c.Request.URL.Path), "WebServer")
			go s.sendLogToWebhook(c.Copy(), false)
			c.Next()
			return
		}

		logger.Warn(fmt.Sprintf("Suspicious request: %s %s | %s", c.Request.Method, c.Request.URL.Path, c.ClientIP()), "WebServer")
		go s.sendLogToWebhook(c.Copy(), true)
		c.AbortWithStatus(http.StatusForbidden)
	}
}

type logEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
	Timestamp   string `json:"timestamp"`
}

// sendLogToWebhook sends a request log to the Discord webhook
func (s *Server) sendLogToWebhook(c *gin.Context, suspicious bool) {
	if s.webhookURL == "" {
		return
	}

	title := fmt.Sprintf("💫 | New %s request to the web server", c.Request.Method)
	color := 0x00AE86
	if suspicious {
		title = fmt.Sprintf("💫 | Suspicious request rejected: %s %s", c.Request.Method, c.Request.URL.Path)
		color = 0xFFA500
	}

	query := c.Request.URL.RawQuery
	if query == "" {
		query = "{}"
	}

	payload := map[string][]logEmbed{
		"embeds": {{
			Title: title,
			Description: fmt.Sprintf("> **Path:** `%s`\n> **IP:** `%s`\n> **Query:** ```%s```",
				c.Request.URL.Path, c.ClientIP(), query),
			Color:     color,
			Timestamp: time.Now().Format(time.RFC3339),
		}},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}

	req, err := http.NewRequest(http.MethodPost, s.webhookURL, bytes.NewBuffer(data))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return
	}
	resp.Body.Close()
}

// rateLimitMiddleware gives every client IP a token bucket of perMinute
// requests
func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	every := time.Minute / time.Duration(s.perMinute)

	return func(c *gin.Context) {
		ip := c.ClientIP()

		lim, ok := s.limiters.Get(ip)
		if !ok {
			lim = rate.NewLimiter(rate.Every(every), s.perMinute)
			// a concurrent request may have inserted one already
			if prev, found, _ := s.limiters.PeekOrAdd(ip, lim); found {
				lim = prev
			}
		}

		if !lim.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests, please try again later.",
			})
			return
		}
		c.Next()
	}
}

// setupErrorHandlers sets up error handling routes
func (s *Server) setupErrorHandlers() {
	s.engine.HandleMethodNotAllowed = true

	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not Found",
			"message": "The requested route does not exist.",
			"status":  http.StatusNotFound,
		})
	})

	s.engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"error":   "Method Not Allowed",
			"message": "The HTTP method is not allowed for this route.",
			"status":  http.StatusMethodNotAllowed,
		})
	})
}

// Start serves on port until Shutdown is called
func (s *Server) Start(port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpMu.Lock()
	s.http = srv
	s.httpMu.Unlock()

	logger.Info(fmt.Sprintf("🚀 Server listening on http://localhost:%s", port), "WebServer")

	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync(port string) {
	go func() {
		if err := s.Start(port); err != nil {
			logger.Error(fmt.Sprintf("Error starting web server: %v", err), "WebServer")
		}
	}()
}

// Shutdown stops accepting requests and waits for active ones
func (s *Server) Shutdown(ctx context.Context) error {
	s.httpMu.Lock()
	srv := s.http
	s.httpMu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Group creates a new router group
func (s *Server) Group(path string, handlers ...gin.HandlerFunc) *gin.RouterGroup {
	return s.engine.Group(path, handlers...)
}

// GET registers a GET route
func (s *Server) GET(path string, handlers ...gin.HandlerFunc) {
	s.engine.GET(path, handlers...)
}
