package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/docset-relay/internal/aryn"
	"github.com/tbourn/docset-relay/internal/domain"
	"github.com/tbourn/docset-relay/internal/repo"
)

// ---------- test helpers ----------

func newStore(t *testing.T) (*repo.Store, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return repo.NewStore(db), db
}

func writeFiles(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("%PDF"), 0o600); err != nil {
			t.Fatalf("write %s: %v", n, err)
		}
	}
	return dir
}

// chdir switches the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

// ---------- fakes ----------

// failingResponseStore wraps a ResponseStore and injects errors.
type failingResponseStore struct {
	ResponseStore
	findErr     error
	completeErr error
	messageErr  error
}

func (f *failingResponseStore) FindPendingResponse(ctx context.Context, sessionID string) (*domain.ServiceResponse, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.ResponseStore.FindPendingResponse(ctx, sessionID)
}

func (f *failingResponseStore) CompleteResponse(ctx context.Context, id, content string, md map[string]any) error {
	if f.completeErr != nil {
		return f.completeErr
	}
	return f.ResponseStore.CompleteResponse(ctx, id, content, md)
}

func (f *failingResponseStore) CreateMessage(ctx context.Context, m *domain.Message) error {
	if f.messageErr != nil {
		return f.messageErr
	}
	return f.ResponseStore.CreateMessage(ctx, m)
}

type fakeQueryClient struct {
	calls int
	res   aryn.QueryResult
	err   error
}

func (f *fakeQueryClient) Query(ctx context.Context, docsetID, query string) (aryn.QueryResult, error) {
	f.calls++
	return f.res, f.err
}

// fakeDocSets is an in-memory docset service.
type fakeDocSets struct {
	mu        sync.Mutex
	byName    map[string]aryn.DocSet
	docs      map[string][]aryn.DocMeta
	uploads   []string
	created   []string
	nextID    int
	failFind  map[string]bool // docset names whose lookup fails
	uploadErr error
}

func newFakeDocSets() *fakeDocSets {
	return &fakeDocSets{
		byName:   map[string]aryn.DocSet{},
		docs:     map[string][]aryn.DocMeta{},
		failFind: map[string]bool{},
	}
}

func (f *fakeDocSets) FindDocSetByName(ctx context.Context, name string) (aryn.DocSet, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFind[name] {
		return aryn.DocSet{}, false, errors.New("lookup failed")
	}
	ds, ok := f.byName[name]
	return ds, ok, nil
}

func (f *fakeDocSets) CreateDocSet(ctx context.Context, name string) (aryn.DocSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	ds := aryn.DocSet{ID: fmt.Sprintf("ds-%d", f.nextID), Name: name}
	f.byName[name] = ds
	f.created = append(f.created, name)
	return ds, nil
}

func (f *fakeDocSets) ListDocs(ctx context.Context, docsetID string) ([]aryn.DocMeta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.docs[docsetID], nil
}

func (f *fakeDocSets) AddDocAsync(ctx context.Context, docsetID, filePath string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploads = append(f.uploads, filepath.Base(filePath))
	f.docs[docsetID] = append(f.docs[docsetID], aryn.DocMeta{ID: filepath.Base(filePath)})
	return "task-" + filepath.Base(filePath), nil
}
