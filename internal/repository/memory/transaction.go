package memory

import (
	"context"
	"sync"

	"github.com/afraexpress/attendance-backend-go/internal/pkg/database"
)

type transactor struct {
	mu sync.Mutex
}

// NewTransactor serializes transactional blocks. There is no rollback: a
// failing fn leaves whatever writes it already made.
func NewTransactor() database.Transactor {
	return &transactor{}
}

// WithinTransaction implements database.Transactor.
func (t *transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}
