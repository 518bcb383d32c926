package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	pgBatchSize     = 50
	pgFlushInterval = 5 * time.Second
)

// PGHandler is an slog.Handler that batches WARN+ logs (security events and
// server errors) to PostgreSQL.
type PGHandler struct {
	db      *gorm.DB
	state   *pgState
	attrs   []slog.Attr
	ticker  *time.Ticker
	done    chan struct{}
	stopped chan struct{}
}

type pgState struct {
	mu     sync.Mutex
	buffer []models.SystemLog
}

func NewPGHandler(db *gorm.DB) *PGHandler {
	h := &PGHandler{
		db:      db,
		state:   &pgState{buffer: make([]models.SystemLog, 0, pgBatchSize)},
		ticker:  time.NewTicker(pgFlushInterval),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go h.flushLoop()
	return h
}

func (h *PGHandler) flushLoop() {
	defer close(h.stopped)
	for {
		select {
		case <-h.ticker.C:
			h.flush()
		case <-h.done:
			h.flush()
			return
		}
	}
}

func (h *PGHandler) flush() {
	h.state.mu.Lock()
	if len(h.state.buffer) == 0 {
		h.state.mu.Unlock()
		return
	}
	batch := h.state.buffer
	h.state.buffer = make([]models.SystemLog, 0, pgBatchSize)
	h.state.mu.Unlock()

	if err := h.db.CreateInBatches(batch, pgBatchSize).Error; err != nil {
		// Logged at INFO so it does not loop back into this handler.
		slog.Info("failed to flush system logs to DB", "error", err.Error(), "count", len(batch))
	}
}

// Stop flushes what is buffered and waits for the flush loop to exit.
func (h *PGHandler) Stop() {
	h.ticker.Stop()
	close(h.done)
	<-h.stopped
}

// Enabled only handles WARN and above.
func (h *PGHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelWarn
}

func (h *PGHandler) Handle(_ context.Context, record slog.Record) error {
	entry := models.SystemLog{
		ID:        uuid.New(),
		Timestamp: record.Time,
		Level:     record.Level.String(),
		Message:   record.Message,
	}

	extra := make(map[string]interface{})
	apply := func(a slog.Attr) bool {
		if isSensitive(a.Key) {
			extra[a.Key] = redacted
			return true
		}
		switch a.Key {
		case "request_id":
			entry.RequestID = a.Value.String()
		case "user_id":
			s := a.Value.String()
			entry.UserID = &s
		case "action":
			entry.Action = a.Value.String()
		case "remote_ip":
			entry.RemoteIP = a.Value.String()
		case "error":
			entry.Error = a.Value.String()
		default:
			extra[a.Key] = a.Value.Resolve().Any()
		}
		return true
	}
	for _, a := range h.attrs {
		apply(a)
	}
	record.Attrs(apply)

	if len(extra) > 0 {
		if b, err := json.Marshal(extra); err == nil {
			entry.Extra = datatypes.JSON(b)
		}
	}

	h.state.mu.Lock()
	h.state.buffer = append(h.state.buffer, entry)
	needFlush := len(h.state.buffer) >= pgBatchSize
	h.state.mu.Unlock()

	if needFlush {
		go h.flush()
	}
	return nil
}

// WithAttrs shares the buffer and flush loop with the parent handler.
func (h *PGHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

func (h *PGHandler) WithGroup(string) slog.Handler {
	return h
}

// pending reports how many records wait for the next flush.
func (h *PGHandler) pending() int {
	h.state.mu.Lock()
	defer h.state.mu.Unlock()
	return len(h.state.buffer)
}
