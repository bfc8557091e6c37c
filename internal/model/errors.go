package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidOperation = errors.New("invalid operation")
)

// Частные случаи ErrInvalidOperation: errors.Is(err, ErrInvalidOperation) == true.
var (
	ErrSelfMove      = fmt.Errorf("%w: cannot move a node into itself", ErrInvalidOperation)
	ErrCycleDetected = fmt.Errorf("%w: cannot move a folder into its own descendant", ErrInvalidOperation)
	ErrEmptyName     = fmt.Errorf("%w: name must not be empty", ErrInvalidOperation)
	ErrInvalidName   = fmt.Errorf("%w: invalid name", ErrInvalidOperation)
	ErrConflict      = fmt.Errorf("%w: node was modified concurrently", ErrInvalidOperation)
)

// ErrBlobKeyTaken — в папке уже есть файл, ссылающийся на тот же ключ blob'а.
var ErrBlobKeyTaken = fmt.Errorf("%w: a file with this name was already uploaded here", ErrConflict)
