package models

import (
	"fmt"
	"strings"
)

// MissingFieldError reports required request fields that were absent or blank.
type MissingFieldError struct {
	Fields []string
}

func (e *MissingFieldError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// InvalidFieldError reports a present field whose value cannot be used.
type InvalidFieldError struct {
	Field  string
	Reason string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid field %s: %s", e.Field, e.Reason)
}

type InvalidImageFormatError struct {
	Reason string
}

func (e *InvalidImageFormatError) Error() string {
	return "invalid image format: " + e.Reason
}

type ImageTooLargeError struct {
	Size  int
	Limit int
}

func (e *ImageTooLargeError) Error() string {
	return fmt.Sprintf("image size %d exceeds %d bytes limit", e.Size, e.Limit)
}

// FetchError wraps a failed remote image retrieval.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type InvalidShareLinkError struct {
	URL string
}

func (e *InvalidShareLinkError) Error() string {
	return "no file identifier in share link " + e.URL
}

// StoreError wraps a metadata store failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %s", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("entry %d not found", e.ID)
}
