package corpus

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/1acre-in/message-analytics/pkg/convo"
	"github.com/1acre-in/message-analytics/pkg/storage"
)

func writeDatabase(t *testing.T, path string, records []convo.ConversationRecord) {
	t.Helper()
	store, err := storage.New(path)
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	defer store.Close()
	if err := store.ReplaceAll(context.Background(), records); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
}

func TestLoader_CachesUntilFileChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conversations.db")
	writeDatabase(t, path, []convo.ConversationRecord{recordAt("Alice", 1)})

	l := NewLoader(path, zerolog.Nop())
	ctx := context.Background()

	first, err := l.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if first.Len() != 1 {
		t.Fatalf("len = %d, want 1", first.Len())
	}

	second, err := l.Load(ctx)
	if err != nil {
		t.Fatalf("Load (cached): %v", err)
	}
	if second != first {
		t.Fatal("expected the cached snapshot on an unchanged database")
	}

	// A touched database file forces a rebuild.
	writeDatabase(t, path, []convo.ConversationRecord{recordAt("Alice", 1), recordAt("Bob", 2)})
	if err := os.Chtimes(path, time.Now(), time.Now().Add(2*time.Second)); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	third, err := l.Load(ctx)
	if err != nil {
		t.Fatalf("Load (after change): %v", err)
	}
	if third.Len() != 2 {
		t.Fatalf("len = %d, want 2 after reload", third.Len())
	}
}

func TestLoader_Invalidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conversations.db")
	writeDatabase(t, path, []convo.ConversationRecord{recordAt("Alice", 1)})

	l := NewLoader(path, zerolog.Nop())
	first, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	l.Invalidate()
	second, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Load (after invalidate): %v", err)
	}
	if second == first {
		t.Fatal("expected a fresh snapshot after Invalidate")
	}
}

func TestLoader_MissingDatabase(t *testing.T) {
	l := NewLoader(filepath.Join(t.TempDir(), "missing.db"), zerolog.Nop())
	if _, err := l.Load(context.Background()); err == nil {
		t.Fatal("expected an error for a missing database")
	}
}
