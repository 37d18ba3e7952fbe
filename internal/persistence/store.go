package persistence

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/htm-project/temporal-api/internal/domain/htm"
)

// Store reads and writes snapshot files. Writes go through a temp file and
// rename, so a crash mid-write never leaves a torn snapshot behind.
type Store struct {
	codec *Codec
}

// NewStore creates a snapshot store.
func NewStore(compress bool) *Store {
	return &Store{codec: NewCodec(compress)}
}

// Save writes an envelope to path atomically.
func (s *Store) Save(path string, envelope *Envelope) error {
	data, err := s.codec.Encode(envelope)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return htm.NewTemporalError(htm.TemporalErrorPersistence,
			fmt.Sprintf("create snapshot directory: %v", err))
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return htm.NewTemporalError(htm.TemporalErrorPersistence,
			fmt.Sprintf("create temp snapshot: %v", err))
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return htm.NewTemporalError(htm.TemporalErrorPersistence,
			fmt.Sprintf("write snapshot: %v", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return htm.NewTemporalError(htm.TemporalErrorPersistence,
			fmt.Sprintf("close snapshot: %v", err))
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return htm.NewTemporalError(htm.TemporalErrorPersistence,
			fmt.Sprintf("commit snapshot: %v", err))
	}

	return nil
}

// Load reads an envelope from path.
func (s *Store) Load(path string) (*Envelope, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, htm.NewTemporalError(htm.TemporalErrorPersistence,
			fmt.Sprintf("read snapshot: %v", err))
	}
	return s.codec.Decode(data)
}
