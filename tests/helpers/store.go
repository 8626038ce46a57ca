package helpers

import (
	"testing"

	"github.com/theyashgrover/gpt-clone/internal/repository"
)

func NewTestSQLiteRecord(t *testing.T) *repository.SQLiteRecord {
	t.Helper()

	r, err := repository.NewSQLiteRecord(":memory:")
	if err != nil {
		t.Fatalf("failed to create sqlite record: %v", err)
	}

	t.Cleanup(func() {
		_ = r.Close()
	})

	return r
}
