// Package matrixclient is the consumer side of the package matrix: a local overlay of cell
// values with per-cell draft state, reconciled against the matrix API.
package matrixclient

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// CellKey addresses one (package, item) cell of a product's matrix.
type CellKey struct {
	ItemType  string
	ItemID    string
	PackageID uint
}

func (k CellKey) String() string {
	return fmt.Sprintf("%d/%s/%s", k.PackageID, k.ItemType, k.ItemID)
}

// Change is a requested cell value.
type Change struct {
	CellKey
	Enabled bool
}

// Cell is what a screen renders for one key.
type Cell struct {
	Enabled bool
	Draft   bool
}

// Snapshot is the server aggregate as seen by the client.
type Snapshot struct {
	ProductCode string
	Packages    []Package
	Features    []Item
	Menus       []Item
	Cells       []Change
}

type Package struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type Item struct {
	ID       string  `json:"id"`
	ParentID *string `json:"parent_id"`
	Level    int     `json:"level"`
	Title    string  `json:"title"`
}

// API is the subset of the matrix endpoints the board needs.
type API interface {
	Aggregate(ctx context.Context, product string) (*Snapshot, error)
	// Toggle writes one cell and returns the value the server stored.
	Toggle(ctx context.Context, product string, change Change) (bool, error)
	BulkUpsert(ctx context.Context, product string, changes []Change) (int, error)
}

// cellState moves between committed (draft=false) and draft (draft=true).
type cellState struct {
	enabled bool
	draft   bool
}

// Board holds the optimistic view of one product's matrix. Cells absent from the server
// aggregate read as disabled. Safe for concurrent use.
type Board struct {
	api     API
	product string
	logger  *zap.Logger

	mu sync.Mutex
	// gen is bumped by Detach, loads by every completed Load.
	gen      uint64
	loads    uint64
	snapshot *Snapshot
	cells    map[CellKey]*cellState
}

func NewBoard(api API, product string, logger *zap.Logger) *Board {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Board{
		api:     api,
		product: product,
		logger:  logger.Named("matrix_board"),
		cells:   make(map[CellKey]*cellState),
	}
}

// Load replaces the board's content with the server aggregate, dropping staged drafts. A load
// that completes after Detach is discarded. Toggles still in flight when it completes are
// reconciled against the new content when their responses land.
func (b *Board) Load(ctx context.Context) error {
	b.mu.Lock()
	gen := b.gen
	b.mu.Unlock()

	snap, err := b.api.Aggregate(ctx, b.product)
	if err != nil {
		return err
	}

	cells := make(map[CellKey]*cellState, len(snap.Cells))
	for _, c := range snap.Cells {
		cells[c.CellKey] = &cellState{enabled: c.Enabled}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.gen != gen {
		b.logger.Debug("discarding aggregate loaded for a detached board")
		return nil
	}
	b.loads++
	b.snapshot = snap
	b.cells = cells
	return nil
}

// Snapshot returns the last loaded aggregate, nil before the first Load.
func (b *Board) Snapshot() *Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshot
}

func (b *Board) Cell(key CellKey) Cell {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st, ok := b.cells[key]; ok {
		return Cell{Enabled: st.enabled, Draft: st.draft}
	}
	return Cell{}
}

// state returns the cell's state, materializing the implicit disabled cell. Callers hold mu.
func (b *Board) state(key CellKey) *cellState {
	st, ok := b.cells[key]
	if !ok {
		st = &cellState{}
		b.cells[key] = st
	}
	return st
}

// Toggle flips the cell locally, marks it draft and sends the single-cell write in the
// background. The returned channel yields the request's outcome once and is then closed.
//
// On success the server's value is kept and the draft cleared. On failure the cell goes back
// to the value it had before this toggle and the draft is cleared. When two toggles of the
// same cell are in flight, whichever response arrives last decides the final state.
//
// A response that lands after a reload is reconciled: a stored value is applied, a failure
// leaves the reloaded value alone. Responses after Detach are ignored.
func (b *Board) Toggle(ctx context.Context, key CellKey) <-chan error {
	b.mu.Lock()
	st := b.state(key)
	previous := st.enabled
	st.enabled = !previous
	st.draft = true
	requested := st.enabled
	gen, loads := b.gen, b.loads
	b.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		defer close(done)
		stored, err := b.api.Toggle(ctx, b.product, Change{CellKey: key, Enabled: requested})

		b.mu.Lock()
		if b.gen != gen {
			b.mu.Unlock()
			b.logger.Debug("ignoring toggle response for a detached board", zap.Stringer("cell", key))
			done <- err
			return
		}
		reloaded := b.loads != loads
		st := b.state(key)
		switch {
		case err == nil:
			st.enabled = stored
			st.draft = false
		case !reloaded:
			st.enabled = previous
			st.draft = false
		}
		b.mu.Unlock()

		if err != nil {
			b.logger.Warn("toggle failed", zap.Stringer("cell", key), zap.Bool("reloaded", reloaded), zap.Error(err))
		}
		done <- err
	}()
	return done
}

// Stage records a local edit without sending it. Staged cells are submitted by SaveDrafts.
func (b *Board) Stage(key CellKey, enabled bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st := b.state(key)
	st.enabled = enabled
	st.draft = true
}

// Drafts lists every cell currently in draft state, ordered by key.
func (b *Board) Drafts() []Change {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.draftsLocked()
}

func (b *Board) draftsLocked() []Change {
	drafts := make([]Change, 0)
	for key, st := range b.cells {
		if st.draft {
			drafts = append(drafts, Change{CellKey: key, Enabled: st.enabled})
		}
	}
	sort.Slice(drafts, func(i, j int) bool {
		a, c := drafts[i], drafts[j]
		if a.PackageID != c.PackageID {
			return a.PackageID < c.PackageID
		}
		if a.ItemType != c.ItemType {
			return a.ItemType < c.ItemType
		}
		return a.ItemID < c.ItemID
	})
	return drafts
}

// SaveDrafts submits every draft as one bulk write in the background. On success the draft flag
// is cleared on submitted cells that still hold the submitted value. On failure every draft is
// kept so the user can retry. The returned channel yields the outcome once and is then closed.
func (b *Board) SaveDrafts(ctx context.Context) <-chan error {
	b.mu.Lock()
	drafts := b.draftsLocked()
	gen, loads := b.gen, b.loads
	b.mu.Unlock()

	done := make(chan error, 1)
	if len(drafts) == 0 {
		close(done)
		return done
	}

	go func() {
		defer close(done)
		_, err := b.api.BulkUpsert(ctx, b.product, drafts)
		if err != nil {
			b.logger.Warn("bulk save failed, drafts kept", zap.Int("drafts", len(drafts)), zap.Error(err))
			done <- err
			return
		}

		b.mu.Lock()
		// a reload already dropped the submitted drafts
		if b.gen == gen && b.loads == loads {
			for _, d := range drafts {
				if st, ok := b.cells[d.CellKey]; ok && st.enabled == d.Enabled {
					st.draft = false
				}
			}
		}
		b.mu.Unlock()
		done <- nil
	}()
	return done
}

// Detach discards local state. Responses still in flight are ignored.
func (b *Board) Detach() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gen++
	b.snapshot = nil
	b.cells = make(map[CellKey]*cellState)
}
