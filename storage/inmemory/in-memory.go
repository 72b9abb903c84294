package inmemory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/and161185/terraria-exporter/model"
)

// ErrMetricNotFound is returned by Get for an unknown series ID.
var ErrMetricNotFound = errors.New("metric not found")

// MemStorage keeps the MetricSet of the last completed cycle.
type MemStorage struct {
	metrics map[string]model.Sample
	mu      sync.RWMutex
}

func NewMemStorage() *MemStorage {
	return &MemStorage{
		metrics: make(map[string]model.Sample),
	}
}

// Replace swaps the stored set for a new one.
func (store *MemStorage) Replace(ctx context.Context, set model.MetricSet) error {
	next := make(map[string]model.Sample, len(set))
	for _, s := range set {
		next[s.ID()] = s
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	store.metrics = next
	return nil
}

func (store *MemStorage) Get(ctx context.Context, id string) (model.Sample, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	s, ok := store.metrics[id]
	if !ok {
		return model.Sample{}, ErrMetricNotFound
	}
	return s, nil
}

// GetAll returns every sample ordered by series ID.
func (store *MemStorage) GetAll(ctx context.Context) (model.MetricSet, error) {
	store.mu.RLock()
	ids := make([]string, 0, len(store.metrics))
	for id := range store.metrics {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	result := make(model.MetricSet, 0, len(ids))
	for _, id := range ids {
		result = append(result, store.metrics[id])
	}
	store.mu.RUnlock()
	return result, nil
}

func (store *MemStorage) Ping(ctx context.Context) error {
	return nil
}
