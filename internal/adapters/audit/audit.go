// Package audit persists domain.AuditEntry records to SQLite via GORM, kept
// entirely independent of the in-memory storage.Aggregate so operational
// history survives a restart even though the MAC table itself does not.
package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sasetz/psip-switch/internal/core/domain"
)

// entryModel is the GORM row shape for one audit entry, kept out of the
// domain package so GORM tags never leak into domain.AuditEntry.
type entryModel struct {
	ID        string `gorm:"primaryKey"`
	Timestamp int64  `gorm:"index"`
	Actor     string `gorm:"index"`
	Action    string `gorm:"index"`
	Detail    string
	Outcome   string
}

func (entryModel) TableName() string { return "audit_entries" }

// Log is a durable, append-mostly audit trail.
type Log struct {
	db  *gorm.DB
	log *slog.Logger
}

// Open migrates and returns a Log backed by the SQLite file at path.
func Open(path string, log *slog.Logger) (*Log, error) {
	if log == nil {
		log = slog.Default()
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&entryModel{}); err != nil {
		return nil, err
	}

	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA busy_timeout=5000;")
	db.Exec("PRAGMA synchronous=NORMAL;")

	return &Log{db: db, log: log}, nil
}

// Record appends a new audit entry.
func (l *Log) Record(ctx context.Context, actor, action, detail string, outcome domain.AuditOutcome) error {
	entry := domain.AuditEntry{
		ID:        uuid.NewString(),
		Timestamp: timeNow(),
		Actor:     actor,
		Action:    action,
		Detail:    detail,
		Outcome:   outcome,
	}
	model := toModel(entry)
	if err := l.db.WithContext(ctx).Create(&model).Error; err != nil {
		l.log.Error("audit write failed", "action", action, "error", err)
		return err
	}
	return nil
}

// Recent returns the most recent audit entries, newest first, bounded to
// limit rows.
func (l *Log) Recent(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	var models []entryModel
	if err := l.db.WithContext(ctx).Order("timestamp desc").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}
	entries := make([]domain.AuditEntry, len(models))
	for i, m := range models {
		entries[i] = toDomain(m)
	}
	return entries, nil
}

// Close releases the underlying database handle.
func (l *Log) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toModel(e domain.AuditEntry) entryModel {
	return entryModel{
		ID:        e.ID,
		Timestamp: e.Timestamp.UnixNano(),
		Actor:     e.Actor,
		Action:    e.Action,
		Detail:    e.Detail,
		Outcome:   string(e.Outcome),
	}
}

func toDomain(m entryModel) domain.AuditEntry {
	return domain.AuditEntry{
		ID:        m.ID,
		Timestamp: timeFromUnixNano(m.Timestamp),
		Actor:     m.Actor,
		Action:    m.Action,
		Detail:    m.Detail,
		Outcome:   domain.AuditOutcome(m.Outcome),
	}
}
