package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mentormatch/mentor-match-go/internal/config"
)

// SessionCompleter is implemented by *service.SessionService.
type SessionCompleter interface {
	AutoCompleteDue(ctx context.Context) (int64, error)
}

// TokenPurger is implemented by *service.AuthService.
type TokenPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// ExpiredDeleter is implemented by repository.OAuthStateRepository.
type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// MaintenanceJob completes accepted sessions whose end time has passed and
// removes expired credentials. Each tick runs every task even if an earlier
// one failed.
type MaintenanceJob struct {
	sessions SessionCompleter
	tokens   TokenPurger
	states   ExpiredDeleter
	interval time.Duration
	timeout  time.Duration
	done     chan struct{}
	wg       sync.WaitGroup
}

func NewMaintenanceJob(sessions SessionCompleter, tokens TokenPurger, states ExpiredDeleter, interval time.Duration) *MaintenanceJob {
	return &MaintenanceJob{
		sessions: sessions,
		tokens:   tokens,
		states:   states,
		interval: interval,
		timeout:  config.MaintenanceJobTimeout,
		done:     make(chan struct{}),
	}
}

func (j *MaintenanceJob) Start() {
	j.wg.Add(1)
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("maintenance job started")
}

// Stop blocks until an in-flight tick has finished.
func (j *MaintenanceJob) Stop() {
	close(j.done)
	j.wg.Wait()
	log.Info().Msg("maintenance job stopped")
}

func (j *MaintenanceJob) run() {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.tick()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.tick()
		}
	}
}

func (j *MaintenanceJob) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	j.RunOnce(ctx)
}

// RunOnce runs every task a single time.
func (j *MaintenanceJob) RunOnce(ctx context.Context) {
	if j.sessions != nil {
		j.runTask(ctx, "completed sessions", "auto-completed", j.sessions.AutoCompleteDue)
	}
	if j.tokens != nil {
		j.runTask(ctx, "access and reset tokens", "purged", j.tokens.PurgeExpired)
	}
	if j.states != nil {
		j.runTask(ctx, "oauth states", "purged", j.states.DeleteExpired)
	}
}

func (j *MaintenanceJob) runTask(ctx context.Context, name, verb string, fn func(context.Context) (int64, error)) {
	count, err := fn(ctx)
	if err != nil {
		log.Error().Err(err).Msgf("maintenance: %s failed", name)
	} else if count > 0 {
		log.Info().Int64("count", count).Msgf("maintenance: %s %s", verb, name)
	}
}
