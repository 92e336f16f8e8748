package core

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrReadOnly        = errors.New("store is in read-only mode")
	ErrNoteNotFound    = errors.New("note not found")
	ErrStorage         = errors.New("storage failure")
	ErrCorruptFragment = errors.New("corrupt fragment")
	ErrClosed          = errors.New("store is closed")
	ErrInvalidInput    = errors.New("invalid input")
)

// StorageError reports a failed operation against the backing store.
// The operation is never partially applied.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStorage, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// CorruptFragmentError reports a fragment the engine could not decode.
// Index is the position of the fragment in the replayed slice.
type CorruptFragmentError struct {
	Index int
	Err   error
}

func (e *CorruptFragmentError) Error() string {
	return fmt.Sprintf("%s at index %d: %v", ErrCorruptFragment, e.Index, e.Err)
}

func (e *CorruptFragmentError) Unwrap() error { return e.Err }

func (e *CorruptFragmentError) Is(target error) bool { return target == ErrCorruptFragment }
