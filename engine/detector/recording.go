package detector

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-facedepth/common"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// openStore opens or creates a recording database at path.
// The database runs in WAL mode with a single connection so the recorder never hits SQLITE_BUSY.
func openStore(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("detector: open recording: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("detector: connect recording: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("detector: %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("detector: apply schema: %w", err)
	}
	return db, nil
}

// Recorder captures frames into a SQLite recording under a fresh session.
type Recorder struct {
	mu sync.Mutex

	db         *sql.DB
	session    string
	resolution int
	seq        int
	logger     *slog.Logger
}

// OpenRecorder opens (or creates) the recording at path and starts a new session.
// The session row is written with the first frame, which also fixes the session resolution.
//
// Parameters:
//   - path: the SQLite file
//   - opts: WithLogger, WithSession to choose the session id
//
// Returns:
//   - *Recorder: the recorder
//   - error: an error if the database cannot be opened
func OpenRecorder(path string, opts ...DetectorBuilderOption) (*Recorder, error) {
	o := newOptions(opts)
	db, err := openStore(path)
	if err != nil {
		return nil, err
	}
	return &Recorder{
		db:      db,
		session: common.Coalesce(o.session, uuid.NewString()),
		logger:  common.LoggerOr(o.logger).With("component", "detector", "source", "recorder"),
	}, nil
}

// SessionID returns the identifier of the session being recorded.
func (r *Recorder) SessionID() string {
	return r.session
}

// Frames returns how many frames have been recorded.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seq
}

// Record appends f to the session.
//
// Parameters:
//   - ctx: bounds the insert
//   - f: the frame to store
//
// Returns:
//   - error: ErrClosed, an encoding error, a resolution mismatch with the session, or a database error
func (r *Recorder) Record(ctx context.Context, f Frame) error {
	payload, err := EncodeFrame(f)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db == nil {
		return ErrClosed
	}

	if r.seq == 0 {
		if _, err := r.db.ExecContext(ctx,
			"INSERT INTO sessions (id, resolution, created_at) VALUES (?, ?, ?)",
			r.session, f.Resolution, time.Now().UnixMilli()); err != nil {
			return fmt.Errorf("detector: create session %s: %w", r.session, err)
		}
		r.resolution = f.Resolution
		r.logger.Info("recording started", "session", r.session, "resolution", f.Resolution)
	} else if f.Resolution != r.resolution {
		return fmt.Errorf("detector: frame resolution %d does not match session resolution %d", f.Resolution, r.resolution)
	}

	if _, err := r.db.ExecContext(ctx,
		"INSERT INTO frames (session_id, seq, payload) VALUES (?, ?, ?)",
		r.session, r.seq, payload); err != nil {
		return fmt.Errorf("detector: record frame %d: %w", r.seq, err)
	}
	r.seq++
	return nil
}

// Close closes the database.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db == nil {
		return nil
	}
	r.logger.Info("recording stopped", "session", r.session, "frames", r.seq)
	err := r.db.Close()
	r.db = nil
	return err
}

// Replay is a Detector that plays a recorded session back, one frame per Poll.
type Replay struct {
	base

	db      *sql.DB
	session string
	loop    bool
	count   int
	next    int
}

var _ Detector = &Replay{}

// OpenReplay opens a recording for playback.
//
// Parameters:
//   - path: the SQLite file
//   - opts: WithSession, WithLoop, WithLogger, WithWorkers
//
// Returns:
//   - *Replay: the replay detector
//   - error: an error if the database cannot be opened
func OpenReplay(path string, opts ...DetectorBuilderOption) (*Replay, error) {
	o := newOptions(opts)
	db, err := openStore(path)
	if err != nil {
		return nil, err
	}
	return &Replay{
		base:    newBase("replay", o),
		db:      db,
		session: o.session,
		loop:    o.loop,
	}, nil
}

// Init resolves the session and its frame count.
func (p *Replay) Init(ctx context.Context, cfg Config) *Ready {
	return p.init(ctx, cfg, func(ctx context.Context) (BufferInfo, error) {
		var (
			id  string
			res int
			err error
		)
		if p.session == "" {
			err = p.db.QueryRowContext(ctx,
				"SELECT id, resolution FROM sessions ORDER BY created_at DESC, rowid DESC LIMIT 1").Scan(&id, &res)
		} else {
			err = p.db.QueryRowContext(ctx,
				"SELECT id, resolution FROM sessions WHERE id = ?", p.session).Scan(&id, &res)
		}
		if errors.Is(err, sql.ErrNoRows) {
			return BufferInfo{}, fmt.Errorf("%w: session %q", ErrNoFrames, p.session)
		}
		if err != nil {
			return BufferInfo{}, fmt.Errorf("detector: read session: %w", err)
		}

		var count int
		if err := p.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM frames WHERE session_id = ?", id).Scan(&count); err != nil {
			return BufferInfo{}, fmt.Errorf("detector: count frames: %w", err)
		}
		if count == 0 {
			return BufferInfo{}, fmt.Errorf("%w: session %s is empty", ErrNoFrames, id)
		}

		p.mu.Lock()
		p.session = id
		p.count = count
		p.mu.Unlock()
		return BufferInfo{Resolution: res}, nil
	})
}

// Poll returns the next recorded frame. At the end of the session it returns false, or starts over when looping.
func (p *Replay) Poll() (Frame, bool) {
	if !p.isReady() {
		return Frame{}, false
	}
	p.mu.Lock()
	if p.next >= p.count {
		if !p.loop {
			p.mu.Unlock()
			return Frame{}, false
		}
		p.next = 0
	}
	seq := p.next
	p.next++
	session := p.session
	p.mu.Unlock()

	var payload []byte
	if err := p.db.QueryRow(
		"SELECT payload FROM frames WHERE session_id = ? AND seq = ?", session, seq).Scan(&payload); err != nil {
		p.logger.Warn("replay frame missing", "seq", seq, "error", err)
		return Frame{}, false
	}
	f, err := DecodeFrame(payload)
	if err != nil {
		p.logger.Warn("replay frame corrupt", "seq", seq, "error", err)
		return Frame{}, false
	}
	p.offer(f)
	return p.take()
}

// SessionID returns the session being replayed, or "" before Init resolves.
func (p *Replay) SessionID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.count == 0 {
		return ""
	}
	return p.session
}

func (p *Replay) Close() error {
	if !p.close() {
		return nil
	}
	return p.db.Close()
}

// recording tees every polled frame of a Detector into a Recorder.
type recording struct {
	Detector
	rec *Recorder
	log *slog.Logger
}

// Recording wraps det so every frame it polls is also appended to rec. Record failures are logged and
// do not interrupt the stream.
//
// Parameters:
//   - det: the source detector
//   - rec: the recorder receiving the frames
//
// Returns:
//   - Detector: the tee
func Recording(det Detector, rec *Recorder) Detector {
	return &recording{Detector: det, rec: rec, log: rec.logger}
}

func (r *recording) Poll() (Frame, bool) {
	f, ok := r.Detector.Poll()
	if ok {
		if err := r.rec.Record(context.Background(), f); err != nil {
			r.log.Warn("record frame failed", "error", err)
		}
	}
	return f, ok
}
