package services

import "errors"

var (
	// ErrConfiguration marks a missing credential that a pulse run cannot do without.
	ErrConfiguration = errors.New("configuration error")
	// ErrUpstream marks a failed news or model provider call. It is never retried here.
	ErrUpstream = errors.New("upstream error")
	// ErrPulseNotFound is returned when no pulse exists for a date.
	ErrPulseNotFound = errors.New("pulse not found")
)
