// Package journal keeps a compressed audit trail of equipment transactions.
package journal

import (
	"time"

	"github.com/l1jgo/armory/internal/equipment"
	"go.uber.org/zap"
)

// Entry is one journal line.
type Entry struct {
	Time time.Time `json:"ts"`
	equipment.Record
}

// Journal records equipment transactions to disk. Write failures are logged
// and never block the game loop's caller.
type Journal struct {
	w   *JSONLZstdWriter
	log *zap.Logger
}

func New(dir string, log *zap.Logger) *Journal {
	if log == nil {
		log = zap.NewNop()
	}
	return &Journal{w: NewJSONLZstdWriter(dir, "equipment"), log: log}
}

func (j *Journal) Record(r equipment.Record) {
	e := Entry{Time: j.w.now().UTC(), Record: r}
	if err := j.w.Write(e); err != nil {
		j.log.Warn("journal write failed", zap.String("kind", r.Kind), zap.Error(err))
	}
}

func (j *Journal) Close() error {
	return j.w.Close()
}
