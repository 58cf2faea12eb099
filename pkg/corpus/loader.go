package corpus

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/1acre-in/message-analytics/pkg/storage"
)

// Loader reads the corpus from the conversation database, caching the
// built snapshot until the database file changes on disk.
type Loader struct {
	path string
	log  zerolog.Logger

	mu      sync.Mutex
	cached  *Corpus
	size    int64
	modTime time.Time
}

// NewLoader creates a loader over the database at path.
func NewLoader(path string, log zerolog.Logger) *Loader {
	return &Loader{path: path, log: log}
}

// Load returns the current corpus, rebuilding it only when the database
// file's size or mtime changed since the last load.
func (l *Loader) Load(ctx context.Context) (*Corpus, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	info, err := os.Stat(l.path)
	if err != nil {
		return nil, fmt.Errorf("conversation database unavailable: %w", err)
	}
	if l.cached != nil && info.Size() == l.size && info.ModTime().Equal(l.modTime) {
		return l.cached, nil
	}

	start := time.Now()
	store, err := storage.New(l.path)
	if err != nil {
		return nil, fmt.Errorf("opening conversation database: %w", err)
	}
	defer store.Close()

	records, err := store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading conversations: %w", err)
	}

	l.cached = New(records)
	l.size = info.Size()
	l.modTime = info.ModTime()
	l.log.Info().
		Int("conversations", l.cached.Len()).
		Dur("took", time.Since(start)).
		Msg("Loaded corpus")

	return l.cached, nil
}

// Invalidate drops the cached snapshot so the next Load rebuilds it.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cached = nil
}
