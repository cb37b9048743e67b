package database

import (
	"context"
	"fmt"
	"time"

	"github.com/gamestatus/gamestatus-bot/internal/models"
	glebarez "github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	sqlite3 "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// documentName is the primary key of the single row holding the monitors.
const documentName = "monitors"

// GormStore keeps the document as one row of the state_documents table.
type GormStore struct {
	db  *gorm.DB
	log zerolog.Logger
}

func OpenGorm(driver, dsn string, log zerolog.Logger) (*GormStore, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = glebarez.Open(dsn)
	case "sqlite3":
		dialector = sqlite3.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	if err := db.AutoMigrate(&models.StateDocument{}); err != nil {
		return nil, fmt.Errorf("migrate %s database: %w", driver, err)
	}

	return &GormStore{
		db:  db,
		log: log.With().Str("component", "gorm_store").Str("driver", driver).Logger(),
	}, nil
}

func (s *GormStore) Load(ctx context.Context) models.Document {
	var rows []models.StateDocument
	err := WithRetry(ctx, func() error {
		return s.db.WithContext(ctx).Where("name = ?", documentName).Limit(1).Find(&rows).Error
	})
	if err != nil {
		s.log.Error().Err(err).Msg("reading state document failed, starting with no monitors")
		return models.NewDocument()
	}
	if len(rows) == 0 {
		s.log.Info().Msg("no state document stored, starting with no monitors")
		return models.NewDocument()
	}

	doc, err := DecodeDocument([]byte(rows[0].Body))
	if err != nil {
		s.log.Error().Err(err).Int("version", rows[0].Version).Msg("state document is unreadable, starting with no monitors")
		s.quarantine(ctx, rows[0])
		return models.NewDocument()
	}

	s.log.Info().Int("monitors", len(doc.States())).Msg("loaded state document")
	return doc
}

// quarantine copies a rejected row under another name so the next save does
// not destroy it.
func (s *GormStore) quarantine(ctx context.Context, row models.StateDocument) {
	row.Name = fmt.Sprintf("%s.corrupt-%d", documentName, time.Now().Unix())
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		s.log.Warn().Err(err).Msg("could not keep a copy of the unreadable state document")
		return
	}
	s.log.Warn().Str("copied_to", row.Name).Msg("kept a copy of the unreadable state document")
}

func (s *GormStore) Save(ctx context.Context, doc models.Document) error {
	data, err := EncodeDocument(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	row := &models.StateDocument{
		Name:      documentName,
		Version:   models.CurrentDocumentVersion,
		Body:      string(data),
		UpdatedAt: time.Now().UTC(),
	}
	err = WithRetry(ctx, func() error {
		// Save upserts on the primary key.
		return s.db.WithContext(ctx).Save(row).Error
	})
	if err != nil {
		return fmt.Errorf("save state document: %w", err)
	}
	return nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
