package service

import (
	"context"
	"sync"

	"github.com/niksmo/storefront/internal/core/cart"
	"github.com/niksmo/storefront/internal/core/domain"
)

// A session guards the cart state of one shopper.
//
// Fetches are tagged with increasing sequence numbers; only a fetch newer
// than every merged one (and every persisted write) may be merged.
type session struct {
	id string

	loadMu sync.Mutex
	loaded bool

	mu         sync.Mutex
	state      *cart.State
	issuedSeq  uint64
	appliedSeq uint64
}

func newSession(id string) *session {
	return &session{id: id, state: cart.New()}
}

// load merges the stored cart into a session this process has not served
// yet. Callers block until the first load succeeds; a failed load is
// retried by the next caller.
func (s *session) load(
	ctx context.Context,
	fetch func(context.Context, string) ([]domain.ItemRecord, error),
) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	if s.loaded {
		return nil
	}

	seq := s.beginFetch()
	records, err := fetch(ctx, s.id)
	if err != nil {
		return err
	}
	s.applyFetch(seq, records)
	s.loaded = true
	return nil
}

// do runs fn under the session lock and returns the resulting view.
func (s *session) do(fn func(*cart.State)) domain.CartView {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn != nil {
		fn(s.state)
	}
	return s.viewLocked()
}

// written runs fn after a persisted write. Fetches issued before the
// write can not contain it and become stale.
func (s *session) written(fn func(*cart.State)) domain.CartView {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.state)
	s.issuedSeq++
	s.appliedSeq = s.issuedSeq
	return s.viewLocked()
}

func (s *session) beginFetch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issuedSeq++
	return s.issuedSeq
}

// applyFetch merges records fetched under seq against the current state.
func (s *session) applyFetch(
	seq uint64, records []domain.ItemRecord,
) (domain.RefreshResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq <= s.appliedSeq {
		return domain.RefreshResult{Cart: s.viewLocked()}, false
	}
	s.appliedSeq = seq

	res := s.state.Reconcile(records)
	out := domain.RefreshResult{
		Applied: true,
		Added:   res.Added,
		Cart:    s.viewLocked(),
	}
	for _, it := range res.Dropped {
		out.Dropped = append(out.Dropped, it.ItemID)
	}
	for _, it := range res.DroppedSelected() {
		out.DroppedSelected = append(out.DroppedSelected, it.ItemID)
	}
	return out, true
}

func (s *session) prepareCheckout() domain.CheckoutIntent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.PrepareForCheckout()
}

func (s *session) item(id string) (domain.CartItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Item(id)
}

func (s *session) viewLocked() domain.CartView {
	return domain.CartView{
		SessionID:     s.id,
		Items:         s.state.Items(),
		SelectedItems: s.state.SelectedItems(),
		TotalAmount:   s.state.TotalAmount(),
		CheckoutTotal: s.state.CheckoutTotal(),
	}
}
