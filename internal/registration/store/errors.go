package store

import "errors"

var (
	errRecordRequired   = errors.New("registration record is required")
	errKeyRequired      = errors.New("registration number is required")
	errPendingViaUpsert = errors.New("pending records must be written through EnqueuePending")
)
