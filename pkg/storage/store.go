package storage

import (
	"github.com/cuemby/maintsync/pkg/types"
)

// Store records pass summaries. Reconciliation never reads it; it exists
// for operators (maintsync status) and to hold the run lock.
type Store interface {
	RecordPass(summary *types.PassSummary) error
	LastPass() (*types.PassSummary, error)
	ListPasses(limit int) ([]*types.PassSummary, error)
	Close() error
}
