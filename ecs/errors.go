package ecs

import "errors"

// Storage errors. Returned errors wrap these with the offending key, so
// compare with errors.Is.
var (
	ErrEntityNotFound     = errors.New("entity not found")
	ErrComponentNotFound  = errors.New("component not found")
	ErrTypeMismatch       = errors.New("component type mismatch")
	ErrTypeNotRegistered  = errors.New("component type not registered")
	ErrIntegrityViolation = errors.New("storage integrity violation")
)
