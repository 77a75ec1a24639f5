package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Services are the collaborators behind the HTTP API.
type Services struct {
	Representatives RepresentativeService
	Profiles        ProfileService
	Tidy            TidyService
	Suggestions     SuggestionService
	Letters         LetterStore
	Captcha         CaptchaVerifier
	Limiter         Limiter
	Pingers         map[string]Pinger
}

type Options struct {
	RepresentativeLimit int
	TidyLimit           int
	Window              time.Duration
	TrustedProxies      []string
}

func NewRouter(svc Services, opts Options, logger *zap.Logger) (*gin.Engine, error) {
	router := gin.New()
	if err := router.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, fmt.Errorf("set trusted proxies: %w", err)
	}
	router.Use(RequestID(), AccessLog(logger), Recovery(logger))

	h := &handlers{
		reps:        svc.Representatives,
		profiles:    svc.Profiles,
		tidy:        svc.Tidy,
		suggestions: svc.Suggestions,
		letters:     svc.Letters,
		pingers:     svc.Pingers,
		logger:      logger,
	}

	router.GET("/health", h.health)

	api := router.Group("/api")
	{
		api.GET("/representative",
			RateLimit(svc.Limiter, "representative", opts.RepresentativeLimit, opts.Window, logger),
			Recaptcha(svc.Captcha, logger),
			h.getRepresentative,
		)
		api.GET("/stats", h.getStats)
		api.POST("/letters/tidy",
			RateLimit(svc.Limiter, "tidy", opts.TidyLimit, opts.Window, logger),
			h.tidyLetter,
		)
		api.POST("/suggestions", h.getSuggestions)
		api.POST("/letters", h.insertLetter)
		api.GET("/engagement", h.getEngagement)
	}

	router.NoRoute(func(c *gin.Context) {
		RespondWithError(c, http.StatusNotFound, CodeNotFound, "Route not found", gin.H{"path": c.Request.URL.Path})
	})

	return router, nil
}

// Server owns the listening http.Server.
type Server struct {
	http   *http.Server
	logger *zap.Logger
}

func New(port int, handler http.Handler, readTimeout, writeTimeout time.Duration, logger *zap.Logger) *Server {
	return &Server{
		http: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadTimeout:       readTimeout,
			ReadHeaderTimeout: readTimeout,
			WriteTimeout:      writeTimeout,
		},
		logger: logger,
	}
}

// Start blocks until the server stops. A graceful shutdown returns nil.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
