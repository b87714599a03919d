package graceful

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Stopper is implemented by components owning background work that must
// not outlive the process, such as the refresh scheduler's timers.
type Stopper interface {
	Stop() error
}

type ShutdownManager struct {
	server   *http.Server
	db       *sqlx.DB
	stoppers []Stopper
	logger   *zap.Logger
}

func NewShutdownManager(server *http.Server, db *sqlx.DB, logger *zap.Logger) *ShutdownManager {
	return &ShutdownManager{
		server:   server,
		db:       db,
		stoppers: make([]Stopper, 0),
		logger:   logger,
	}
}

func (sm *ShutdownManager) Register(s Stopper) {
	sm.stoppers = append(sm.stoppers, s)
}

func (sm *ShutdownManager) WaitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	sm.logger.Info("Shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop background components first so no timer keeps issuing chain
	// calls while the server drains.
	for _, s := range sm.stoppers {
		if err := s.Stop(); err != nil {
			sm.logger.Warn("Component shutdown error", zap.Error(err))
		}
	}

	if err := sm.server.Shutdown(ctx); err != nil {
		sm.logger.Error("Server forced shutdown", zap.Error(err))
	}

	if err := sm.db.Close(); err != nil {
		sm.logger.Warn("Database close error", zap.Error(err))
	}

	sm.logger.Info("Shutdown complete")
}
