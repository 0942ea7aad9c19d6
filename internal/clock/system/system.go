// Package system provides the wall-clock implementation of registry.Clock.
package system

import "time"

// Clock returns the real current time.
type Clock struct{}

// New creates a system clock.
func New() Clock { return Clock{} }

// Now returns time.Now in UTC.
func (Clock) Now() time.Time { return time.Now().UTC() }
