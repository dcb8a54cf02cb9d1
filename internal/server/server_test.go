package server

import (
	"context"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/policydesk/internal/config"
	loggerPkg "github.com/deppfellow/policydesk/internal/logger"
)

func TestStartRequiresHTTPServer(t *testing.T) {
	log := zerolog.Nop()
	s := &Server{Config: &config.Config{}, Logger: &log}
	assert.EqualError(t, s.Start(), "HTTP server not initialized")
}

func TestSetupHTTPServerAppliesTimeouts(t *testing.T) {
	s := &Server{Config: &config.Config{Server: config.ServerConfig{
		Port:         "8080",
		ReadTimeout:  5,
		WriteTimeout: 10,
		IdleTimeout:  60,
	}}}
	s.SetupHTTPServer(http.NotFoundHandler())

	require.NotNil(t, s.httpServer)
	assert.Equal(t, ":8080", s.httpServer.Addr)
	assert.Equal(t, "5s", s.httpServer.ReadTimeout.String())
	assert.Equal(t, "10s", s.httpServer.WriteTimeout.String())
	assert.Equal(t, "1m0s", s.httpServer.IdleTimeout.String())
}

func TestShutdownToleratesMissingDependencies(t *testing.T) {
	s := &Server{LoggerService: loggerPkg.NewLoggerService(config.DefaultObservabilityConfig())}
	assert.NoError(t, s.Shutdown(context.Background()))
}
