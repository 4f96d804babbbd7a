package env

import "errors"

var (
	ErrLayout            = errors.New("free joint layout does not fit the simulator")
	ErrBatchShape        = errors.New("achieved and desired batches differ in shape")
	ErrCheckpointCorrupt = errors.New("checkpoint fingerprint mismatch")
	ErrCheckpointShape   = errors.New("checkpoint does not match the simulator")
)
