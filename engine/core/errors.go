package core

import (
	"errors"
)

var (
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyCached = errors.New("resource already cached at path")
	ErrResourceTypeMismatch  = errors.New("resource type mismatch")
	ErrNegativeRefCount      = errors.New("resource reference count below zero")
	ErrInvalidMeshFile       = errors.New("invalid mesh file")
	ErrInvalidSubMesh        = errors.New("submesh out of range")
	ErrUnsupportedFormat     = errors.New("unsupported format")
	ErrCapacityExceeded      = errors.New("capacity exceeded")
	ErrInvalidEntity         = errors.New("invalid entity")
	ErrMissingComponent      = errors.New("entity is missing a required component")
	ErrNoWorkers             = errors.New("attempting to create worker pool with less than 1 worker")
	ErrUnknown               = errors.New("unknown")
)
