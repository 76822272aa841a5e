package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNoData is returned when a stage receives no rows to work with.
	ErrNoData = errors.New("no data")
	// ErrUnsorted is returned when the regularizer receives out-of-order keys.
	ErrUnsorted = errors.New("timestamps not sorted ascending")
)

// ListingError means the bulk-download directory could not be listed.
type ListingError struct {
	URL string
	Err error
}

func (e *ListingError) Error() string {
	return fmt.Sprintf("list %s: %v", e.URL, e.Err)
}

func (e *ListingError) Unwrap() error { return e.Err }

// NoMatchingFilesError means the listing held no file for the station.
type NoMatchingFilesError struct {
	Station string
	URL     string
}

func (e *NoMatchingFilesError) Error() string {
	return fmt.Sprintf("no files for station %s in %s", e.Station, e.URL)
}

// FetchError aggregates every file that failed to download or parse. Err holds
// the per-file failures.
type FetchError struct {
	Files []string
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %d file(s): %v", len(e.Files), e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// FileError ties a failure to the file it happened on.
type FileError struct {
	File string
	Err  error
}

func (e *FileError) Error() string { return fmt.Sprintf("%s: %v", e.File, e.Err) }

func (e *FileError) Unwrap() error { return e.Err }

// SchemaError means a required column is absent, or a configured column
// could not be found.
type SchemaError struct {
	Source string
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	msg := fmt.Sprintf("column %q %s", e.Column, e.Reason)
	if e.Source != "" {
		return e.Source + ": " + msg
	}
	return msg
}

// TimestampError means a timestamp cell could not be parsed.
type TimestampError struct {
	Source string
	Line   int
	Value  string
	Err    error
}

func (e *TimestampError) Error() string {
	return fmt.Sprintf("%s line %d: parse timestamp %q: %v", e.Source, e.Line, e.Value, e.Err)
}

func (e *TimestampError) Unwrap() error { return e.Err }

// DuplicateTimestampError lists every repeated key found on a path that does
// not allow duplicates.
type DuplicateTimestampError struct {
	Step  Step
	Times []time.Time
}

func (e *DuplicateTimestampError) Error() string {
	labels := make([]string, len(e.Times))
	for i, t := range e.Times {
		labels[i] = e.Step.Format(t)
	}
	return fmt.Sprintf("duplicate %s timestamps: %s", e.Step, strings.Join(labels, ", "))
}

// IrregularGridError names the two consecutive index values that are not one
// step apart.
type IrregularGridError struct {
	Step   Step
	Before time.Time
	After  time.Time
}

func (e *IrregularGridError) Error() string {
	d := e.After.Sub(e.Before)
	if d <= 0 {
		return fmt.Sprintf("index not increasing: %s followed by %s",
			e.Step.Format(e.Before), e.Step.Format(e.After))
	}
	return fmt.Sprintf("gap of %s between %s and %s exceeds one %s",
		d, e.Step.Format(e.Before), e.Step.Format(e.After), e.Step)
}
