package usecase

import (
	"sync/atomic"

	"promofeed/internal/core/domain"
)

// SourceHolder hands out the current normalizer snapshot. The snapshot
// itself is immutable; a reload builds a fresh index and swaps the
// pointer, so in-flight ingestions keep the view they started with.
type SourceHolder struct {
	idx atomic.Pointer[domain.SourceIndex]
}

// NewSourceHolder wraps an initial snapshot.
func NewSourceHolder(idx *domain.SourceIndex) *SourceHolder {
	h := &SourceHolder{}
	h.idx.Store(idx)
	return h
}

// Current returns the active snapshot.
func (h *SourceHolder) Current() *domain.SourceIndex {
	return h.idx.Load()
}

// Swap installs a new snapshot.
func (h *SourceHolder) Swap(idx *domain.SourceIndex) {
	h.idx.Store(idx)
}
