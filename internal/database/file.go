package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gamestatus/gamestatus-bot/internal/models"
	"github.com/rs/zerolog"
)

// FileStore keeps the document in one JSON file, replaced atomically on save.
type FileStore struct {
	path string
	log  zerolog.Logger
	now  func() time.Time

	mu sync.Mutex
}

func NewFileStore(path string, log zerolog.Logger) *FileStore {
	return &FileStore{
		path: path,
		log:  log.With().Str("component", "file_store").Str("path", path).Logger(),
		now:  time.Now,
	}
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load(ctx context.Context) models.Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.log.Info().Msg("state file not found, starting with no monitors")
		} else {
			s.log.Error().Err(err).Msg("reading state file failed, starting with no monitors")
		}
		return models.NewDocument()
	}

	doc, err := DecodeDocument(data)
	if err != nil {
		s.log.Error().Err(err).Msg("state file is unreadable, starting with no monitors")
		s.quarantine()
		return models.NewDocument()
	}

	s.log.Info().Int("monitors", len(doc.States())).Msg("loaded state file")
	return doc
}

// quarantine moves a rejected file aside so the next save cannot overwrite it.
func (s *FileStore) quarantine() {
	dst := fmt.Sprintf("%s.corrupt-%d", s.path, s.now().Unix())
	if err := os.Rename(s.path, dst); err != nil {
		s.log.Warn().Err(err).Msg("could not move unreadable state file aside")
		return
	}
	s.log.Warn().Str("moved_to", dst).Msg("moved unreadable state file aside")
}

func (s *FileStore) Save(ctx context.Context, doc models.Document) error {
	data, err := EncodeDocument(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure state dir %q: %w", dir, err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp state file %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("commit state file %q: %w", s.path, err)
	}

	s.log.Debug().Msg("saved state file")
	return nil
}

func (s *FileStore) Close() error { return nil }
