package composable

import (
	"github.com/yndnr/composable-go/internal/storage/memory"
	"github.com/yndnr/composable-go/pkg/addr"
)

// Mock is a Facade over an in-memory store and addr.MockAPI, for tests and
// sandboxes. Clone forks the whole environment.
type Mock struct {
	*Facade
	store *memory.Store
	api   *addr.MockAPI
	opts  []Option
}

// NewMock builds an empty mock environment.
func NewMock(opts ...Option) *Mock {
	return newMock(memory.New(), addr.NewMockAPI(0), opts)
}

func newMock(store *memory.Store, api *addr.MockAPI, opts []Option) *Mock {
	return &Mock{
		Facade: New(store, api, opts...),
		store:  store,
		api:    api,
		opts:   opts,
	}
}

// Store returns the in-memory backing store.
func (m *Mock) Store() *memory.Store { return m.store }

// Clone returns an independent copy: writes to either side are not seen by
// the other.
func (m *Mock) Clone() *Mock {
	api := *m.api
	return newMock(m.store.Clone(), &api, m.opts)
}
