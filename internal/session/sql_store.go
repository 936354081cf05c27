package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yungbote/coursemarket-client/internal/domain"
	"github.com/yungbote/coursemarket-client/internal/platform/logger"
)

const sessionRowID = 1

// SessionRow is the single persisted session. The principal's profile lives
// in a JSON column so new profile fields need no migration.
type SessionRow struct {
	ID          uint           `gorm:"primaryKey"`
	Token       string         `gorm:"not null"`
	PrincipalID int64          `gorm:"index"`
	Profile     datatypes.JSON `gorm:"type:json"`
	UpdatedAt   time.Time
}

func (SessionRow) TableName() string { return "client_sessions" }

type SQLStore struct {
	db  *gorm.DB
	log *logger.Logger
}

// OpenSQLStore opens (or creates) a sqlite database at path.
func OpenSQLStore(path string, log *logger.Logger) (*SQLStore, error) {
	if log == nil {
		log = logger.NewNop()
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// one connection keeps :memory: databases coherent
	sqlDB.SetMaxOpenConns(1)
	return NewSQLStore(db, log)
}

func NewSQLStore(db *gorm.DB, log *logger.Logger) (*SQLStore, error) {
	if db == nil {
		return nil, errors.New("db required")
	}
	if log == nil {
		log = logger.NewNop()
	}
	if err := db.AutoMigrate(&SessionRow{}); err != nil {
		return nil, fmt.Errorf("migrate session table: %w", err)
	}
	return &SQLStore{db: db, log: log.With("store", "SQLSessionStore")}, nil
}

func (s *SQLStore) Load(ctx context.Context) (domain.Session, bool, error) {
	var row SessionRow
	err := s.db.WithContext(ctx).Where("id = ?", sessionRowID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Session{}, false, nil
	}
	if err != nil {
		return domain.Session{}, false, err
	}
	out := domain.Session{Token: row.Token}
	if len(row.Profile) > 0 && string(row.Profile) != "null" {
		var p domain.Principal
		if err := json.Unmarshal(row.Profile, &p); err != nil {
			s.log.Warn("discarding unreadable stored profile", "error", err)
		} else {
			out.Principal = &p
		}
	}
	return out, true, nil
}

func (s *SQLStore) Save(ctx context.Context, sess domain.Session) error {
	row := SessionRow{ID: sessionRowID, Token: sess.Token, UpdatedAt: time.Now().UTC()}
	if sess.Principal != nil {
		raw, err := json.Marshal(sess.Principal)
		if err != nil {
			return err
		}
		row.Profile = datatypes.JSON(raw)
		row.PrincipalID = sess.Principal.ID
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
}

func (s *SQLStore) Delete(ctx context.Context) error {
	return s.db.WithContext(ctx).Where("id = ?", sessionRowID).Delete(&SessionRow{}).Error
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
