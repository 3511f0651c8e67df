// Package transcript writes chat turns to per-session NDJSON files.
package transcript

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/ashureev/collabmatch/internal/logger"
)

const defaultQueueSize = 256

// Config controls transcript logging.
type Config struct {
	Enabled   bool
	Dir       string
	QueueSize int
}

// Event is one line of a transcript file.
type Event struct {
	ID        string    `json:"id"`
	Time      time.Time `json:"time"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
}

// Logger queues events and writes them from a single goroutine. Events are
// dropped when the queue is full.
type Logger struct {
	dir     string
	queue   chan Event
	done    chan struct{}
	log     *zap.Logger
	entropy *rand.Rand

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

// New starts a transcript logger. It returns nil when cfg.Enabled is false;
// a nil *Logger ignores every call.
func New(cfg Config, log *zap.Logger) (*Logger, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	dir := strings.TrimSpace(cfg.Dir)
	if dir == "" {
		return nil, errors.New("transcript dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create transcript dir: %w", err)
	}
	size := cfg.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}

	l := &Logger{
		dir:     dir,
		queue:   make(chan Event, size),
		done:    make(chan struct{}),
		log:     logger.OrNop(log),
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	go l.run()
	return l, nil
}

// Record queues one chat message.
func (l *Logger) Record(sessionID, role, content string) {
	l.Log(Event{SessionID: sessionID, Role: role, Content: content})
}

// Log queues an event without blocking.
func (l *Logger) Log(ev Event) {
	if l == nil {
		return
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return
	}
	select {
	case l.queue <- ev:
	default:
		l.log.Warn("transcript queue full, dropping event", zap.String(logger.FieldSessionID, ev.SessionID))
	}
}

// Close flushes queued events and stops the writer.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.closeOnce.Do(func() {
		l.mu.Lock()
		l.closed = true
		close(l.queue)
		l.mu.Unlock()
		<-l.done
	})
	return nil
}

func (l *Logger) run() {
	defer close(l.done)
	for ev := range l.queue {
		ev.ID = ulid.MustNew(ulid.Timestamp(ev.Time), l.entropy).String()
		if err := l.write(ev); err != nil {
			l.log.Warn("transcript write failed", zap.String(logger.FieldSessionID, ev.SessionID), zap.Error(err))
		}
	}
}

func (l *Logger) write(ev Event) error {
	path := l.Path(ev.SessionID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	line, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Path returns the file for a session key. Keys of the form "user:session"
// are split into a per-user directory.
func (l *Logger) Path(sessionID string) string {
	user, session, ok := strings.Cut(sessionID, ":")
	if !ok {
		user, session = "anonymous", sessionID
	}
	return filepath.Join(l.dir, safeName(user), safeName(session)+".ndjson")
}

func safeName(s string) string {
	s = unsafeChars.ReplaceAllString(s, "_")
	if s == "" || s == "_" {
		return "default"
	}
	return s
}
