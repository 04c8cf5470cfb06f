package service

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/paperbase/paperbase/internal/blob"
	"github.com/paperbase/paperbase/internal/model"
	"github.com/paperbase/paperbase/internal/repository"
)

// memItemStore is an in-memory ItemStore for tests.
type memItemStore struct {
	mu    sync.Mutex
	items map[uuid.UUID]*model.Item
}

func newMemItemStore() *memItemStore {
	return &memItemStore{items: map[uuid.UUID]*model.Item{}}
}

func (s *memItemStore) Create(_ context.Context, item *model.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	clone := *item
	s.items[item.ID] = &clone
	return nil
}

func (s *memItemStore) Update(_ context.Context, item *model.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *item
	s.items[item.ID] = &clone
	return nil
}

func (s *memItemStore) FindByID(_ context.Context, ownerID, id uuid.UUID) (*model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok || item.OwnerID != ownerID {
		return nil, nil
	}
	clone := *item
	return &clone, nil
}

func (s *memItemStore) FindChildren(_ context.Context, ownerID uuid.UUID, parentID *uuid.UUID) ([]model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Item
	for _, item := range s.items {
		if item.OwnerID != ownerID {
			continue
		}
		if (parentID == nil) != (item.ParentID == nil) {
			continue
		}
		if parentID != nil && *item.ParentID != *parentID {
			continue
		}
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *memItemStore) CountChildren(ctx context.Context, ownerID, parentID uuid.UUID) (int64, error) {
	children, err := s.FindChildren(ctx, ownerID, &parentID)
	if err != nil {
		return 0, err
	}
	return int64(len(children)), nil
}

func (s *memItemStore) StorageKeyExists(_ context.Context, ownerID uuid.UUID, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.OwnerID == ownerID && item.StorageKey == key {
			return true, nil
		}
	}
	return false, nil
}

func (s *memItemStore) UpdateParent(_ context.Context, id uuid.UUID, parentID *uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item, ok := s.items[id]; ok {
		item.ParentID = parentID
	}
	return nil
}

func (s *memItemStore) DeleteByIDs(_ context.Context, ids []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.items, id)
	}
	return nil
}

func (s *memItemStore) FindFiles(_ context.Context, ownerID uuid.UUID, limit, offset int) ([]model.Item, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var files []model.Item
	for _, item := range s.items {
		if item.OwnerID == ownerID && item.Kind == model.ItemKindFile {
			files = append(files, *item)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	total := int64(len(files))
	if offset >= len(files) {
		return nil, total, nil
	}
	files = files[offset:]
	if limit > 0 && limit < len(files) {
		files = files[:limit]
	}
	return files, total, nil
}

// memUnitStore is an in-memory UnitStore. Similarity search results are
// preconfigured; set searchResults before calling SearchSimilar.
type memUnitStore struct {
	mu    sync.Mutex
	units map[uuid.UUID]*model.Unit

	searchResults []repository.SearchResult
	searchErr     error
	searchCalls   int
	lastScope     []uuid.UUID
}

func newMemUnitStore() *memUnitStore {
	return &memUnitStore{units: map[uuid.UUID]*model.Unit{}}
}

func (s *memUnitStore) CreateBatch(_ context.Context, units []model.Unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range units {
		if units[i].ID == uuid.Nil {
			units[i].ID = uuid.New()
		}
		clone := units[i]
		s.units[units[i].ID] = &clone
	}
	return nil
}

func (s *memUnitStore) Update(_ context.Context, unit *model.Unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *unit
	s.units[unit.ID] = &clone
	return nil
}

func (s *memUnitStore) FindByID(_ context.Context, id uuid.UUID) (*model.Unit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	unit, ok := s.units[id]
	if !ok {
		return nil, nil
	}
	clone := *unit
	return &clone, nil
}

func (s *memUnitStore) FindBySourceFile(_ context.Context, ownerID, fileID uuid.UUID) ([]model.Unit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Unit
	for _, unit := range s.units {
		if unit.OwnerID == ownerID && unit.SourceFileID == fileID {
			out = append(out, *unit)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SequenceIndex < out[j].SequenceIndex })
	return out, nil
}

func (s *memUnitStore) FindFailedBySourceFile(ctx context.Context, ownerID, fileID uuid.UUID) ([]model.Unit, error) {
	all, err := s.FindBySourceFile(ctx, ownerID, fileID)
	if err != nil {
		return nil, err
	}
	var failed []model.Unit
	for _, unit := range all {
		if unit.EmbeddingStatus == model.EmbeddingStatusFailed {
			failed = append(failed, unit)
		}
	}
	return failed, nil
}

func (s *memUnitStore) FindFailed(_ context.Context, limit int) ([]model.Unit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Unit
	for _, unit := range s.units {
		if unit.EmbeddingStatus == model.EmbeddingStatusFailed {
			out = append(out, *unit)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SequenceIndex < out[j].SequenceIndex })
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *memUnitStore) DeleteBySourceFiles(_ context.Context, fileIDs []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, fileID := range fileIDs {
		for id, unit := range s.units {
			if unit.SourceFileID == fileID {
				delete(s.units, id)
			}
		}
	}
	return nil
}

func (s *memUnitStore) SearchSimilar(_ context.Context, _ uuid.UUID, sourceFileIDs []uuid.UUID, _ pgvector.Vector, _ int) ([]repository.SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchCalls++
	s.lastScope = sourceFileIDs
	return s.searchResults, s.searchErr
}

// fakeEmbedder returns a canned vector. err makes every call fail; failures
// makes only the first n calls fail with failErr.
type fakeEmbedder struct {
	mu       sync.Mutex
	vector   []float32
	err      error
	failures int
	failErr  error
	calls    int
}

func (f *fakeEmbedder) EmbedContent(context.Context, string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failures > 0 {
		f.failures--
		return nil, f.failErr
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

func goodVector() []float32 {
	return make([]float32, model.ExpectedDims)
}

// fakeGenerator records the last prompt it saw.
type fakeGenerator struct {
	answer string
	err    error

	calls      int
	lastPrompt string
	lastRules  string
}

func (f *fakeGenerator) GenerateContent(_ context.Context, prompt, systemRules string) (string, error) {
	f.calls++
	f.lastPrompt = prompt
	f.lastRules = systemRules
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

// memBlobStore records puts and deletes.
type memBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{objects: map[string][]byte{}}
}

func (s *memBlobStore) Put(_ context.Context, key string, data []byte, _ string) (*blob.PutResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return &blob.PutResult{Key: key, URI: "mem://" + key}, nil
}

func (s *memBlobStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *memBlobStore) DeleteByPrefix(_ context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.objects {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(s.objects, key)
			s.deleted = append(s.deleted, key)
		}
	}
	return nil
}

func (s *memBlobStore) CreateMarker(ctx context.Context, prefixKey string) (*blob.PutResult, error) {
	if len(prefixKey) == 0 || prefixKey[len(prefixKey)-1] != '/' {
		prefixKey += "/"
	}
	return s.Put(ctx, prefixKey, nil, "application/x-directory")
}
