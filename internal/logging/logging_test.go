package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockGorm(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Discard,
	})
	require.NoError(t, err)
	return db, mock
}

func TestJSONHandler_RedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewJSONHandler(&buf, slog.LevelInfo))

	log.Info("login", "email", "a@x.io", "password", "Secret123", "Token", "eyJ...")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "a@x.io", line["email"])
	assert.Equal(t, redacted, line["password"])
	assert.Equal(t, redacted, line["Token"])
	assert.NotContains(t, buf.String(), "Secret123")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestMultiHandler_FansOutByLevel(t *testing.T) {
	var info, errs bytes.Buffer
	log := slog.New(NewMultiHandler(
		NewJSONHandler(&info, slog.LevelInfo),
		NewJSONHandler(&errs, slog.LevelError),
	))

	log.Info("hello")
	log.Error("boom")

	assert.Contains(t, info.String(), "hello")
	assert.Contains(t, info.String(), "boom")
	assert.NotContains(t, errs.String(), "hello")
	assert.Contains(t, errs.String(), "boom")
}

type failingSink struct{ slog.Handler }

func (failingSink) Handle(context.Context, slog.Record) error { return errors.New("sink down") }

func TestMultiHandler_FailingSinkDoesNotStopOthers(t *testing.T) {
	var out bytes.Buffer
	h := NewMultiHandler(
		failingSink{NewJSONHandler(io.Discard, slog.LevelInfo)},
		nil,
		NewJSONHandler(&out, slog.LevelInfo),
	)

	err := h.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelWarn, "still logged", 0))

	assert.EqualError(t, err, "sink down")
	assert.Contains(t, out.String(), "still logged")
}

func TestMultiHandler_WithAttrsReachesEverySink(t *testing.T) {
	var a, b bytes.Buffer
	log := slog.New(NewMultiHandler(
		NewJSONHandler(&a, slog.LevelInfo),
		NewJSONHandler(&b, slog.LevelInfo),
	)).With("request_id", "req-9", "token", "eyJ...")

	log.Info("hello")

	for _, out := range []string{a.String(), b.String()} {
		assert.Contains(t, out, `"request_id":"req-9"`)
		assert.NotContains(t, out, "eyJ")
	}
}

func TestPGHandler_BuffersWarningsAndFlushesOnStop(t *testing.T) {
	db, mock := newMockGorm(t)
	h := NewPGHandler(db)

	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelWarn))

	log := slog.New(h).With("request_id", "req-1")
	log.Warn("admin access denied", "action", "admin_access", "user_id", "u-1", "password", "Secret123")
	log.Error("unhandled server error", "error", "boom")
	assert.Equal(t, 2, h.pending())

	mock.ExpectExec(`INSERT INTO "system_logs"`).WillReturnResult(sqlmock.NewResult(0, 2))
	h.Stop()

	assert.Equal(t, 0, h.pending())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGHandler_MapsKnownAttributes(t *testing.T) {
	db, _ := newMockGorm(t)
	h := NewPGHandler(db)
	defer func() {
		h.state.mu.Lock()
		h.state.buffer = nil
		h.state.mu.Unlock()
		h.Stop()
	}()

	record := slog.NewRecord(time.Now(), slog.LevelWarn, "bootstrap rejected", 0)
	record.AddAttrs(
		slog.String("action", "bootstrap"),
		slog.String("user_id", "u-1"),
		slog.String("remote_ip", "10.0.0.1"),
		slog.String("new_password", "Fresh4567"),
		slog.Int("attempt", 3),
	)
	require.NoError(t, h.WithAttrs([]slog.Attr{slog.String("request_id", "req-9")}).Handle(context.Background(), record))

	h.state.mu.Lock()
	entry := h.state.buffer[0]
	h.state.mu.Unlock()

	assert.Equal(t, "WARN", entry.Level)
	assert.Equal(t, "bootstrap", entry.Action)
	assert.Equal(t, "req-9", entry.RequestID)
	assert.Equal(t, "10.0.0.1", entry.RemoteIP)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, "u-1", *entry.UserID)
	assert.NotContains(t, string(entry.Extra), "Fresh4567")
	assert.Contains(t, string(entry.Extra), `"attempt":3`)
}

func TestCleanup_DeletesOldRows(t *testing.T) {
	db, mock := newMockGorm(t)

	mock.ExpectExec(`DELETE FROM "system_logs" WHERE timestamp < \$1`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	deleted, err := Cleanup(db, Retention)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
