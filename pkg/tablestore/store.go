// Package tablestore exports live resource tables to SQLite so analysis
// tools can query what a replay produced without linking against ChronoGL.
package tablestore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/willibrandon/ChronoGL/pkg/logging"
	"github.com/willibrandon/ChronoGL/pkg/resource"
)

// Texture is one exported live texture. Rows are keyed by capture session and
// resource ID.
type Texture struct {
	SessionID      string `gorm:"primaryKey;size:36"`
	ResourceID     uint64 `gorm:"primaryKey"`
	Handle         uint32
	Target         uint32
	InternalFormat uint32
	Levels         int32
	Width          uint32
	Height         uint32
	Depth          uint32
	Dimension      uint32
	Format         uint32
	SavedAt        time.Time
}

// TableName sets the table rows are stored in
func (Texture) TableName() string {
	return "live_textures"
}

// Store is an open export database
type Store struct {
	db  *gorm.DB
	log *slog.Logger
}

// Open opens or creates the database at dsn and migrates its schema
func Open(dsn string) (*Store, error) {
	l := logging.Logger().With("component", "tablestore")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: newGormLogger(l)})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dsn, err)
	}
	if err := db.AutoMigrate(&Texture{}); err != nil {
		return nil, fmt.Errorf("migrate %s: %w", dsn, err)
	}
	return &Store{db: db, log: l}, nil
}

// Close closes the database
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Save replaces the stored table of one session. Entries are upserted in one
// transaction and rows for resources no longer in the table are removed.
func (s *Store) Save(ctx context.Context, sessionID uuid.UUID, table *resource.LiveTable) error {
	entries := table.Entries()
	now := time.Now().UTC()
	rows := make([]Texture, 0, len(entries))
	ids := make([]uint64, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, Texture{
			SessionID:      sessionID.String(),
			ResourceID:     uint64(e.ID),
			Handle:         e.Handle.Name,
			Target:         e.Target,
			InternalFormat: e.InternalFormat,
			Levels:         e.Levels,
			Width:          e.Extent.Width,
			Height:         e.Extent.Height,
			Depth:          e.Extent.DepthOrArrayLayers,
			Dimension:      uint32(e.Dimension),
			Format:         uint32(e.Format),
			SavedAt:        now,
		})
		ids = append(ids, uint64(e.ID))
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stale := tx.Where("session_id = ?", sessionID.String())
		if len(ids) > 0 {
			stale = stale.Where("resource_id NOT IN ?", ids)
		}
		if err := stale.Delete(&Texture{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows).Error
	})
	if err != nil {
		return fmt.Errorf("save session %s: %w", sessionID, err)
	}
	s.log.Info("live table exported", "session", sessionID.String(), "textures", len(rows))
	return nil
}

// Load returns the stored rows of one session ordered by resource ID
func (s *Store) Load(ctx context.Context, sessionID uuid.UUID) ([]Texture, error) {
	var rows []Texture
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID.String()).
		Order("resource_id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	return rows, nil
}

// Sessions lists the sessions with stored rows
func (s *Store) Sessions(ctx context.Context) ([]uuid.UUID, error) {
	var names []string
	err := s.db.WithContext(ctx).Model(&Texture{}).
		Distinct("session_id").
		Order("session_id").
		Pluck("session_id", &names).Error
	if err != nil {
		return nil, err
	}
	out := make([]uuid.UUID, 0, len(names))
	for _, n := range names {
		id, err := uuid.Parse(n)
		if err != nil {
			return nil, fmt.Errorf("stored session %q: %w", n, err)
		}
		out = append(out, id)
	}
	return out, nil
}
