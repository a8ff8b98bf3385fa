package models

import "time"

// Run is one recorded aggregation of an input file.
type Run struct {
	Timestamp  time.Time
	InputPath  string
	Total      float64
	ID         int64
	Matches    int
	Warnings   int
	DurationMs int64
}
