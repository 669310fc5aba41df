package memory

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"heritage-quiz-service/internal/domain"
)

// HeritageRepository is an in-memory heritage store keyed by hid.
type HeritageRepository struct {
	mu      sync.RWMutex
	records map[string]domain.HeritageRecord
	rnd     *rand.Rand
}

func NewHeritageRepository(records []domain.HeritageRecord) *HeritageRepository {
	r := &HeritageRepository{
		records: make(map[string]domain.HeritageRecord, len(records)),
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, rec := range records {
		r.records[rec.HID] = rec
	}
	return r
}

// Upsert inserts or replaces records by hid.
func (r *HeritageRepository) Upsert(_ context.Context, records []domain.HeritageRecord) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range records {
		r.records[rec.HID] = rec
	}
	return len(records), nil
}

func (r *HeritageRepository) Sample(_ context.Context, filter domain.CandidateFilter, size int) ([]domain.HeritageRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	eligible := make([]domain.HeritageRecord, 0, len(r.records))
	for _, rec := range r.records {
		if filter.Matches(rec) {
			eligible = append(eligible, rec)
		}
	}
	// Map order is not a uniform shuffle; sort first so the shuffle alone decides.
	sort.Slice(eligible, func(i, j int) bool { return eligible[i].HID < eligible[j].HID })
	r.rnd.Shuffle(len(eligible), func(i, j int) { eligible[i], eligible[j] = eligible[j], eligible[i] })
	if size < len(eligible) {
		eligible = eligible[:size]
	}
	return eligible, nil
}

func (r *HeritageRepository) WardCodes(_ context.Context, hids []string) (map[string]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(hids))
	for _, hid := range hids {
		if rec, ok := r.records[hid]; ok {
			out[hid] = rec.WardCode
		}
	}
	return out, nil
}
