package persistence

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"tilefield/server/models"
)

// AuditEntry records one query served to a client
type AuditEntry struct {
	Time     time.Time       `json:"time"`
	PlayerID string          `json:"player_id,omitempty"`
	World    string          `json:"world"`
	Action   string          `json:"action"`
	Position models.Position `json:"position"`
	RadiusX  int             `json:"radius_x,omitempty"`
	RadiusY  int             `json:"radius_y,omitempty"`
	Terrain  string          `json:"terrain,omitempty"`
	Walkable *bool           `json:"walkable,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// AuditLog writes JSONL audit entries, zstd compressed, one file per UTC hour.
// A nil *AuditLog discards everything.
type AuditLog struct {
	baseDir string
	prefix  string
	now     func() time.Time

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

// NewAuditLog creates an audit log writing under baseDir
func NewAuditLog(baseDir string) *AuditLog {
	return &AuditLog{
		baseDir: baseDir,
		prefix:  "audit",
		now:     time.Now,
	}
}

// Write appends one entry, rotating to a new file when the hour changes
func (l *AuditLog) Write(e AuditEntry) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now().UTC()
	if e.Time.IsZero() {
		e.Time = now
	}
	hour := now.Format("2006-01-02-15")
	if hour != l.curHour {
		if err := l.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := l.w.Write(b); err != nil {
		return err
	}
	if err := l.w.WriteByte('\n'); err != nil {
		return err
	}
	return l.w.Flush()
}

// Close flushes and closes the current file
func (l *AuditLog) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closeLocked()
}

func (l *AuditLog) rotateLocked(hour string) error {
	if err := l.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(l.baseDir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(l.pathForHour(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	l.f = f
	l.enc = enc
	l.w = bufio.NewWriterSize(enc, 64*1024)
	l.curHour = hour
	return nil
}

func (l *AuditLog) closeLocked() error {
	var err error
	if l.w != nil {
		_ = l.w.Flush()
	}
	if l.enc != nil {
		err = l.enc.Close()
		l.enc = nil
	}
	if l.f != nil {
		_ = l.f.Close()
		l.f = nil
	}
	l.w = nil
	l.curHour = ""
	return err
}

func (l *AuditLog) pathForHour(hour string) string {
	return filepath.Join(l.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", l.prefix, hour))
}

// ReadAuditFile decodes every entry of one compressed audit file
func ReadAuditFile(path string) ([]AuditEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var entries []AuditEntry
	scanner := bufio.NewScanner(dec)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		var e AuditEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, scanner.Err()
}
