// Package store couples a flat vector index with its parallel document list
// and keeps both persisted as a pair of on-disk artifacts.
package store

import (
	"errors"
	"fmt"
	"os"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/vector"
)

// ErrPersistence is returned when writing or removing the artifacts fails.
var ErrPersistence = errors.New("persistence error")

// Config locates a store on disk and fixes its dimensionality.
// Artifacts live at <Path>.index and <Path>.docs.
type Config struct {
	Path      string
	Dimension int
}

// Outcome reports how Open initialized the store: resumed from both
// artifacts, or fresh with the reason the artifacts were unusable.
type Outcome struct {
	Resumed bool
	Reason  string
}

// Store owns the vector index and the parallel document list. Position i in
// the index corresponds to documents[i] at all times; Add is the only
// mutation path, so the coupling cannot drift. The store has no internal
// locking; callers serialize access.
type Store struct {
	cfg       Config
	index     *vector.FlatIndex
	documents []models.Document
	logger    *zap.Logger
}

// Open loads the store from cfg.Path when both artifacts are present and
// consistent, and otherwise starts fresh. Load problems are folded into the
// returned Outcome and logged, never returned as errors; the error return
// reports an unusable configuration only.
func Open(cfg Config, logger *zap.Logger) (*Store, Outcome, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Path == "" {
		return nil, Outcome{}, fmt.Errorf("store path cannot be empty")
	}
	index, err := vector.NewFlatIndex(cfg.Dimension)
	if err != nil {
		return nil, Outcome{}, err
	}

	s := &Store{
		cfg:       cfg,
		index:     index,
		documents: make([]models.Document, 0),
		logger:    logger,
	}

	outcome := s.load()
	if outcome.Resumed {
		logger.Info("resumed vector store",
			zap.Int("vectors", s.index.Size()),
			zap.Int("documents", len(s.documents)),
			zap.String("path", cfg.Path))
	} else {
		logger.Info("starting with fresh vector store",
			zap.String("reason", outcome.Reason),
			zap.Int("dimension", cfg.Dimension),
			zap.String("path", cfg.Path))
	}
	return s, outcome, nil
}

// load attempts to read both artifacts. Both must be present and agree on
// the entry count; any failure resets the store to empty and reports the
// reason. Errors never escape.
func (s *Store) load() Outcome {
	indexPath, docsPath := s.artifactPaths()

	if _, err := os.Stat(indexPath); err != nil {
		return Outcome{Reason: "index artifact missing"}
	}
	if _, err := os.Stat(docsPath); err != nil {
		return Outcome{Reason: "documents artifact missing"}
	}

	if err := s.index.Load(indexPath); err != nil {
		s.reset()
		return Outcome{Reason: fmt.Sprintf("load index: %v", err)}
	}
	raw, err := os.ReadFile(docsPath)
	if err != nil {
		s.reset()
		return Outcome{Reason: fmt.Sprintf("read documents: %v", err)}
	}
	var docs []models.Document
	if err := msgpack.Unmarshal(raw, &docs); err != nil {
		s.reset()
		return Outcome{Reason: fmt.Sprintf("decode documents: %v", err)}
	}
	if len(docs) != s.index.Size() {
		s.reset()
		return Outcome{Reason: fmt.Sprintf("artifact mismatch: %d vectors, %d documents", s.index.Size(), len(docs))}
	}

	s.documents = docs
	return Outcome{Resumed: true}
}

// reset discards in-memory state. The dimension was validated in Open, so
// the index constructor cannot fail here.
func (s *Store) reset() {
	index, _ := vector.NewFlatIndex(s.cfg.Dimension)
	s.index = index
	s.documents = make([]models.Document, 0)
}

// Add appends vector and document as one logical operation and persists both
// artifacts before returning. A dimension mismatch leaves the store
// unchanged. On a persistence failure the in-memory state may be ahead of
// disk; the caller should reopen the store to reconcile.
func (s *Store) Add(vec []float32, doc models.Document) error {
	if err := s.index.Add(vec); err != nil {
		return err
	}
	s.documents = append(s.documents, doc)

	if err := s.persist(); err != nil {
		s.logger.Error("failed to persist store after add",
			zap.String("id", doc.ID),
			zap.Int("count", len(s.documents)),
			zap.Error(err))
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	s.logger.Debug("added document",
		zap.String("id", doc.ID),
		zap.Int("count", len(s.documents)))
	return nil
}

// Search returns the top-k documents by similarity to query, nearest first.
// Scores are 1 - d/2 on the squared Euclidean distance, which tracks
// similarity for near-unit-norm embeddings; they are not clamped and can go
// negative for distant matches. Results are copies of stored state with the
// score attached.
func (s *Store) Search(query []float32, k int) ([]models.SearchResult, error) {
	if len(query) != s.index.Dimension() {
		return nil, fmt.Errorf("%w: got %d, expected %d",
			vector.ErrDimensionMismatch, len(query), s.index.Dimension())
	}
	if len(s.documents) == 0 {
		s.logger.Warn("search on empty store", zap.Int("k", k))
		return []models.SearchResult{}, nil
	}

	matches, err := s.index.Search(query, k)
	if err != nil {
		return nil, err
	}

	results := make([]models.SearchResult, 0, len(matches))
	for _, m := range matches {
		// No-result sentinels are dropped rather than padded.
		if m.Position < 0 || m.Position >= len(s.documents) {
			continue
		}
		results = append(results, models.SearchResult{
			Document:        s.documents[m.Position].Clone(),
			SimilarityScore: 1 - m.Distance/2,
		})
	}
	return results, nil
}

// Clear resets the store to empty and removes both artifacts. Artifacts
// that do not exist are not an error; Clear is idempotent.
func (s *Store) Clear() error {
	s.reset()
	indexPath, docsPath := s.artifactPaths()
	for _, path := range []string{indexPath, docsPath} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.Error("failed to remove artifact", zap.String("path", path), zap.Error(err))
			return fmt.Errorf("%w: remove %s: %w", ErrPersistence, path, err)
		}
	}
	s.logger.Info("cleared vector store", zap.String("path", s.cfg.Path))
	return nil
}

// persist overwrites both artifacts, index first. A crash mid-write may
// leave the pair inconsistent; load's count check catches that and falls
// back to fresh.
func (s *Store) persist() error {
	indexPath, docsPath := s.artifactPaths()
	if err := s.index.Save(indexPath); err != nil {
		return fmt.Errorf("save index: %w", err)
	}
	raw, err := msgpack.Marshal(s.documents)
	if err != nil {
		return fmt.Errorf("encode documents: %w", err)
	}
	if err := os.WriteFile(docsPath, raw, 0644); err != nil {
		return fmt.Errorf("write documents: %w", err)
	}
	return nil
}

// Count returns the number of stored documents.
func (s *Store) Count() int {
	return len(s.documents)
}

// Dimension returns the configured vector length.
func (s *Store) Dimension() int {
	return s.index.Dimension()
}

// DiskUsage returns the combined size in bytes of the on-disk artifacts.
// Missing artifacts contribute zero.
func (s *Store) DiskUsage() int64 {
	var total int64
	indexPath, docsPath := s.artifactPaths()
	for _, path := range []string{indexPath, docsPath} {
		if info, err := os.Stat(path); err == nil {
			total += info.Size()
		}
	}
	return total
}

func (s *Store) artifactPaths() (string, string) {
	return s.cfg.Path + ".index", s.cfg.Path + ".docs"
}
