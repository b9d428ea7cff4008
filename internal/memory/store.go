// Package memory implements the long-term semantic memory store: a
// capacity-bounded list of records kept in lockstep with a
// nearest-neighbor vector index, ranked by a relevance score that
// blends similarity, importance, recency decay and access frequency.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nidhogg/mnemo/internal/embedding"
	"github.com/nidhogg/mnemo/internal/mirror"
	"github.com/nidhogg/mnemo/internal/vectorindex"
	"go.uber.org/zap"
)

// Options configures a Store.
type Options struct {
	Dimension    int           // embedding vector dimension
	MaxRecords   int           // capacity; prune keeps the top MaxRecords by retention score
	DecayDays    float64       // relevance decay scale in days
	EmbedTimeout time.Duration // upper bound on a single provider call
	IndexPath    string        // vector index snapshot artifact
	RecordsPath  string        // ordered record list artifact
}

const defaultEmbedTimeout = 5 * time.Second

// Store owns the ordered record list and its companion vector index.
//
// Invariant: at every point observable outside the mutex,
// len(records) == index.Size() and records[i].Embedding is the vector
// at index position i.
type Store struct {
	opts     Options
	embedder embedding.Provider
	mirror   mirror.Mirror // optional, fire-and-forget
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	index   *vectorindex.Index
	records []*Record
}

// New creates an empty Store. Call Load afterwards to hydrate from a
// persisted snapshot.
func New(opts Options, embedder embedding.Provider, m mirror.Mirror, logger *zap.Logger) (*Store, error) {
	if opts.Dimension <= 0 {
		return nil, fmt.Errorf("memory: invalid dimension %d", opts.Dimension)
	}
	if opts.MaxRecords <= 0 {
		return nil, fmt.Errorf("memory: invalid capacity %d", opts.MaxRecords)
	}
	if opts.DecayDays <= 0 {
		return nil, fmt.Errorf("memory: invalid decay scale %f", opts.DecayDays)
	}
	if opts.EmbedTimeout <= 0 {
		opts.EmbedTimeout = defaultEmbedTimeout
	}
	ix, err := vectorindex.New(opts.Dimension)
	if err != nil {
		return nil, err
	}
	return &Store{
		opts:     opts,
		embedder: embedder,
		mirror:   m,
		logger:   logger,
		now:      time.Now,
		index:    ix,
	}, nil
}

// AddInput carries the attributes of a new memory. Embedding is
// optional; when absent the store requests one from the provider.
type AddInput struct {
	Content    string
	Type       Type
	Importance float64 // defaults to 1.0
	SessionID  string
	Metadata   map[string]interface{}
	Embedding  []float32
}

// Add ingests a new memory. A (nil, nil) return means the embedding
// provider was unavailable and no record was created; the caller's
// conversational turn must proceed without it. Errors are reserved for
// caller bugs: unknown type, invalid metadata, or a supplied embedding
// of the wrong dimension.
func (s *Store) Add(ctx context.Context, in AddInput) (*Record, error) {
	if _, err := ParseType(string(in.Type)); err != nil {
		return nil, err
	}
	if err := ValidateMetadata(in.Metadata); err != nil {
		return nil, err
	}
	if in.Importance == 0 {
		in.Importance = 1.0
	}

	vec := in.Embedding
	if vec != nil {
		if len(vec) != s.opts.Dimension {
			return nil, fmt.Errorf("memory: embedding dimension %d, store expects %d", len(vec), s.opts.Dimension)
		}
	} else {
		// Provider I/O happens strictly outside the critical section.
		var ok bool
		vec, ok = s.embed(ctx, in.Content)
		if !ok {
			s.logger.Warn("skipping memory, embedding unavailable",
				zap.String("type", string(in.Type)))
			return nil, nil
		}
	}

	rec := &Record{
		Content:    in.Content,
		Embedding:  vec,
		Type:       in.Type,
		Importance: in.Importance,
		Timestamp:  s.now().UTC(),
		SessionID:  in.SessionID,
		Metadata:   in.Metadata,
	}

	s.mu.Lock()
	if _, err := s.index.Add(vec); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.records = append(s.records, rec)
	if len(s.records) > s.opts.MaxRecords {
		// Inline while still holding the triggering Add's lock, so no
		// other writer can observe an over-capacity store.
		s.prune()
	}
	out := rec.clone()
	s.mu.Unlock()

	s.notifyMirror(rec)

	s.logger.Info("added memory",
		zap.String("type", string(in.Type)),
		zap.Float64("importance", in.Importance))
	return &out, nil
}

// RetrieveOptions narrows Retrieve results. Zero values mean no
// constraint. Embedding, when set, skips the provider call.
type RetrieveOptions struct {
	Type      Type
	SessionID string
	Embedding []float32
}

// Retrieve returns up to k records ranked by relevance to the query,
// bumping the access count of every returned record. Retrieval fails
// soft: on any embedding failure it returns an empty result.
func (s *Store) Retrieve(ctx context.Context, query string, k int, opts RetrieveOptions) []Record {
	if k <= 0 {
		return nil
	}

	vec := opts.Embedding
	if vec == nil {
		var ok bool
		vec, ok = s.embed(ctx, query)
		if !ok {
			s.logger.Warn("retrieval skipped, embedding unavailable")
			return nil
		}
	}
	if len(vec) != s.opts.Dimension {
		s.logger.Warn("retrieval skipped, query dimension mismatch",
			zap.Int("got", len(vec)), zap.Int("want", s.opts.Dimension))
		return nil
	}

	// Access-count bumps make this a writer.
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.records) == 0 {
		return nil
	}

	// Over-fetch to leave headroom for filtering.
	fetch := k * 4
	if fetch > len(s.records) {
		fetch = len(s.records)
	}
	hits, err := s.index.Search(vec, fetch)
	if err != nil {
		s.logger.Warn("index search failed", zap.Error(err))
		return nil
	}

	now := s.now().UTC()
	type candidate struct {
		rec   *Record
		score float64
	}
	candidates := make([]candidate, 0, len(hits))
	for _, h := range hits {
		rec := s.records[h.Position]
		if opts.Type != "" && rec.Type != opts.Type {
			continue
		}
		if opts.SessionID != "" && rec.SessionID != opts.SessionID {
			continue
		}
		sim := similarityFromDistance(h.Distance)
		score := relevance(sim, rec.Importance, ageDays(now, rec.Timestamp), rec.AccessCount, s.opts.DecayDays)
		candidates = append(candidates, candidate{rec: rec, score: score})
	}

	// Stable sort keeps nearest-neighbor scan order among equal scores.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	out := make([]Record, len(candidates))
	for i, c := range candidates {
		c.rec.AccessCount++
		out[i] = c.rec.clone()
	}
	return out
}

// prune evicts down to capacity, keeping the records with the highest
// retention score (relevance with similarity fixed at 1.0). Ties keep
// the lower original index. Caller must hold s.mu.
func (s *Store) prune() {
	total := len(s.records)
	if total <= s.opts.MaxRecords {
		return
	}

	now := s.now().UTC()
	scores := make([]float64, total)
	for i, rec := range s.records {
		scores[i] = relevance(1.0, rec.Importance, ageDays(now, rec.Timestamp), rec.AccessCount, s.opts.DecayDays)
	}

	order := make([]int, total)
	for i := range order {
		order[i] = i
	}
	// Stable descending sort: equal scores keep ascending original index.
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	kept := append([]int(nil), order[:s.opts.MaxRecords]...)
	sort.Ints(kept) // restore original relative order

	if err := s.rebuild(kept); err != nil {
		// Kept embeddings already passed the dimension check on insert;
		// keep the oversized store rather than corrupt it.
		s.logger.Error("prune rebuild failed", zap.Error(err))
		return
	}

	s.logger.Info("pruned memories",
		zap.Int("kept", s.opts.MaxRecords),
		zap.Int("evicted", total-s.opts.MaxRecords))
}

// rebuild replaces the record list and index with the records at the
// given original positions, in the order given. Caller must hold s.mu.
func (s *Store) rebuild(keep []int) error {
	ix, err := vectorindex.New(s.opts.Dimension)
	if err != nil {
		return err
	}
	records := make([]*Record, 0, len(keep))
	for _, i := range keep {
		if _, err := ix.Add(s.records[i].Embedding); err != nil {
			return err
		}
		records = append(records, s.records[i])
	}
	s.index = ix
	s.records = records
	return nil
}

// Delete removes the record at the given position and rebuilds the
// index from the remaining vectors, preserving relative order. An
// out-of-range position is a caller bug and reported as an error.
func (s *Store) Delete(pos int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pos < 0 || pos >= len(s.records) {
		return fmt.Errorf("memory: position %d out of range [0,%d)", pos, len(s.records))
	}

	keep := make([]int, 0, len(s.records)-1)
	for i := range s.records {
		if i != pos {
			keep = append(keep, i)
		}
	}
	if err := s.rebuild(keep); err != nil {
		return err
	}
	s.logger.Info("deleted memory", zap.Int("position", pos))
	return nil
}

// Clear empties the store in one atomic step.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	ix, _ := vectorindex.New(s.opts.Dimension)
	s.index = ix
	s.records = nil
	s.logger.Info("cleared all memories")
}

// Len returns the current record count.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// List returns a page of records in original order, optionally
// filtered by type. A zero typeFilter means no constraint.
func (s *Store) List(offset, limit int, typeFilter Type) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	var filtered []*Record
	if typeFilter == "" {
		filtered = s.records
	} else {
		for _, rec := range s.records {
			if rec.Type == typeFilter {
				filtered = append(filtered, rec)
			}
		}
	}

	if offset < 0 {
		offset = 0
	}
	if offset >= len(filtered) {
		return nil
	}
	end := len(filtered)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	out := make([]Record, 0, end-offset)
	for _, rec := range filtered[offset:end] {
		out = append(out, rec.clone())
	}
	return out
}

// Export returns a copy of every record in original order.
func (s *Store) Export() []Record {
	return s.List(0, 0, "")
}

// embed calls the provider with a bounded timeout. The second return
// is false on any provider failure, including a wrong-dimension
// response or a cancelled context.
func (s *Store) embed(ctx context.Context, text string) ([]float32, bool) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.EmbedTimeout)
	defer cancel()

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		s.logger.Warn("embedding provider failed", zap.Error(err))
		return nil, false
	}
	if ctx.Err() != nil {
		s.logger.Warn("embedding cancelled", zap.Error(ctx.Err()))
		return nil, false
	}
	if len(vec) != s.opts.Dimension {
		s.logger.Warn("embedding dimension mismatch",
			zap.Int("got", len(vec)), zap.Int("want", s.opts.Dimension))
		return nil, false
	}
	return vec, true
}

// notifyMirror publishes a record summary without blocking the caller.
// Mirror failures are logged and dropped.
func (s *Store) notifyMirror(rec *Record) {
	if s.mirror == nil {
		return
	}
	summary := mirror.Summarize(rec.Content, string(rec.Type), rec.Importance, rec.SessionID, rec.Metadata, rec.Timestamp)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.mirror.Publish(ctx, summary); err != nil {
			s.logger.Warn("mirror publish failed", zap.Error(err))
		}
	}()
}
