package flowpool

import "errors"

// ErrPoolClosed is returned by Submit once Close has been called.
var ErrPoolClosed = errors.New("flowpool: pool is closed")

// ErrUnknownPredecessor is returned by Submit when preds names a task id
// that was never submitted in the current cycle (negative, or not yet
// assigned). Submitting against a predecessor id from before the last Wait
// is a caller bug, not a race: ids are only ever reused after a reset.
var ErrUnknownPredecessor = errors.New("flowpool: unknown predecessor task id")
