package gosnip

import (
	"errors"
	"fmt"
	"path/filepath"
)

// ErrCacheMiss is returned (wrapped in a CacheError) when no valid cached
// rendering exists.
var ErrCacheMiss = errors.New("no cached rendering available")

// NotFoundError indicates the snippet file could not be located.
type NotFoundError struct {
	File  string
	Path  string
	Cause error
}

func (e *NotFoundError) Error() string {
	location := filepath.Join(e.Path, e.File)
	if e.Cause != nil {
		return fmt.Sprintf("snippet not found: %s: %v", location, e.Cause)
	}
	return fmt.Sprintf("snippet not found: %s", location)
}

func (e *NotFoundError) Unwrap() error {
	return e.Cause
}

// RenderError indicates the template could not be read or evaluated.
type RenderError struct {
	File    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("render %s: %s: %v", e.File, e.Message, e.Cause)
	}
	return fmt.Sprintf("render %s: %s", e.File, e.Message)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// CacheError indicates a cache operation failure.
type CacheError struct {
	Message string
	Cause   error
}

func (e *CacheError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cache error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("cache error: %s", e.Message)
}

func (e *CacheError) Unwrap() error {
	return e.Cause
}

// ProcessorError indicates a content processing failure (parse error, etc.).
type ProcessorError struct {
	Message     string
	Cause       error
	ContentType string // The type of content that failed to process
}

func (e *ProcessorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("processor error (%s): %s: %v", e.ContentType, e.Message, e.Cause)
	}
	return fmt.Sprintf("processor error (%s): %s", e.ContentType, e.Message)
}

func (e *ProcessorError) Unwrap() error {
	return e.Cause
}
