package storage

import (
	"context"
	"log/slog"
	"time"

	"github.com/tidechat/tidechat/internal/service"
)

// Janitor periodically reclaims expired records: volatile messages and
// guest accounts. It replaces database-native TTL indexes; expiry emits no
// push events.
type Janitor struct {
	users    service.UserStore
	messages service.MessageStore
	interval time.Duration
	logger   *slog.Logger

	doneCh chan struct{}
}

func NewJanitor(users service.UserStore, messages service.MessageStore, interval time.Duration, logger *slog.Logger) *Janitor {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Janitor{
		users:    users,
		messages: messages,
		interval: interval,
		logger:   logger,
		doneCh:   make(chan struct{}),
	}
}

// Start launches the sweep loop. An immediate first sweep clears anything
// that expired while the process was down.
func (j *Janitor) Start() {
	go j.loop()
}

func (j *Janitor) Stop() {
	close(j.doneCh)
}

func (j *Janitor) loop() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.sweep()
	for {
		select {
		case <-j.doneCh:
			return
		case <-ticker.C:
			j.sweep()
		}
	}
}

func (j *Janitor) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now()

	msgs, err := j.messages.DeleteExpired(ctx, now)
	if err != nil {
		j.logger.Error("janitor: message sweep failed", "err", err)
	}

	users, err := j.users.DeleteExpired(ctx, now)
	if err != nil {
		j.logger.Error("janitor: user sweep failed", "err", err)
	}

	if msgs > 0 || users > 0 {
		j.logger.Info("janitor sweep", "expired_messages", msgs, "expired_guests", users)
	}
}
