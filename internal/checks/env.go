package checks

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/novacheck/novacheck/internal/compute"
	"github.com/novacheck/novacheck/internal/config"
	"github.com/novacheck/novacheck/internal/logging"
)

// Env is the shared environment checks run in: the suite configuration, the
// API clients, and the cleanup stack for resources created along the way.
type Env struct {
	Config      *config.Config
	Provisioner *compute.Provisioner

	mu       sync.Mutex
	cleanups []cleanupEntry
}

type cleanupEntry struct {
	description string
	fn          func(ctx context.Context) error
}

// NewEnv builds an environment with clients derived from cfg.
func NewEnv(cfg *config.Config) *Env {
	return &Env{
		Config:      cfg,
		Provisioner: compute.NewProvisioner(cfg),
	}
}

// Defer pushes a cleanup onto the stack. Cleanups run in reverse order of
// registration when the current check finishes, pass or fail, so dependent
// resources (a server booted from a volume) unwind before what they depend
// on.
func (e *Env) Defer(description string, fn func(ctx context.Context) error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cleanups = append(e.cleanups, cleanupEntry{description: description, fn: fn})
}

// DeferServer registers deletion of a server, the most common cleanup.
func (e *Env) DeferServer(serverID string) {
	e.Defer(fmt.Sprintf("delete server %s", serverID), func(ctx context.Context) error {
		return e.Provisioner.DeleteTestServer(ctx, serverID)
	})
}

// runCleanups drains the stack in LIFO order. Individual failures are
// logged and counted but never stop the remaining cleanups; the cloud ends
// up as empty as it can get.
func (e *Env) runCleanups(ctx context.Context) int {
	e.mu.Lock()
	pending := e.cleanups
	e.cleanups = nil
	e.mu.Unlock()

	failed := 0
	for i := len(pending) - 1; i >= 0; i-- {
		entry := pending[i]
		logging.Debug("running cleanup", zap.String("cleanup", entry.description))
		if err := entry.fn(ctx); err != nil {
			failed++
			logging.Warn("cleanup failed",
				zap.String("cleanup", entry.description),
				zap.Error(err))
		}
	}
	return failed
}

// PendingCleanups reports how many cleanups are currently registered.
func (e *Env) PendingCleanups() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.cleanups)
}
