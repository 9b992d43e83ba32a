package api

import (
	"net/http"
	"os"
	"time"

	"github.com/angelmondragon/retailpos-backend/pkg/config"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
)

// ListenAddr prefers the platform-provided PORT over the configured one.
func ListenAddr(cfg *config.Config) string {
	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	return ":" + port
}

// NewServer wraps handler in an http.Server with bounded timeouts.
func NewServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ListenAddr(cfg),
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
}
