package queue

import "github.com/ydc/docpub/vault"

// RenameOp records a local rename that must be reconciled remotely.
// Never mutated once enqueued.
type RenameOp struct {
	From string     `json:"from"`
	To   vault.File `json:"to"`
}

// RemoveOp records a local delete that must be reconciled remotely
type RemoveOp struct {
	Target vault.File `json:"target"`
}
