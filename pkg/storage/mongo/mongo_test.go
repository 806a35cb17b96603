package mongo

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"censorship/pkg/storage"
)

func testStorage(t *testing.T) *Storage {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	db, err := StorageConnect(ctx)
	if err != nil {
		t.Skipf("test Mongo instance unavailable: %v", err)
	}

	t.Cleanup(func() {
		if err := RestoreDB(db); err != nil {
			t.Logf("WARNING: unable to restore DB state after the test: %v", err)
		}
		db.Close()
	})

	return db
}

func TestStorage_SaveWords(t *testing.T) {
	db := testStorage(t)
	ctx := context.Background()

	if _, err := db.Words(ctx); !errors.Is(err, storage.ErrNoWords) {
		t.Fatalf("want error %v for empty collection, got %v", storage.ErrNoWords, err)
	}

	want := []string{"zeta", "alpha", "гадина"}
	if err := db.SaveWords(ctx, want); err != nil {
		t.Fatalf("unexpected error saving words: %v", err)
	}
	got, err := db.Words(ctx)
	if err != nil {
		t.Fatalf("unexpected error reading words: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("want words %v, got %v", want, got)
	}

	if err := db.SaveWords(ctx, []string{"only"}); err != nil {
		t.Fatalf("unexpected error replacing words: %v", err)
	}
	got, err = db.Words(ctx)
	if err != nil {
		t.Fatalf("unexpected error reading words: %v", err)
	}
	if want := []string{"only"}; !reflect.DeepEqual(got, want) {
		t.Errorf("want words %v, got %v", want, got)
	}
}
