// Package trace keeps a bounded in-memory log of evolution steps for
// inspection. Recording is purely observational: nothing in here feeds
// back into the state computation.
package trace

import (
	"github.com/google/uuid"

	"github.com/EllenBosMarcelMulder/hexEGYptOS/field"
)

// sessionIDLength is how much of the UUID survives as the session tag.
const sessionIDLength = 8

// Config holds the trace constants.
type Config struct {
	// Capacity is the ring size; the oldest records fall off. Default: 2000.
	Capacity int `yaml:"capacity"`
}

// DefaultConfig returns the default trace constants.
func DefaultConfig() Config {
	return Config{Capacity: 2000}
}

// Record is one observed evolution step.
type Record struct {
	Step      int
	State     field.Field
	Loss      float64
	Awareness float64
}

// Log is the bounded step log of one engine. Not safe for concurrent
// use.
type Log struct {
	config  Config
	session string
	records []Record
}

// NewLog opens a log under a fresh short session id.
func NewLog(config Config) *Log {
	return &Log{
		config:  config,
		session: uuid.NewString()[:sessionIDLength],
	}
}

// Session returns the log's session id.
func (l *Log) Session() string {
	return l.session
}

// Append records one step, dropping the oldest record at capacity.
func (l *Log) Append(r Record) {
	l.records = append(l.records, r)
	if len(l.records) > l.config.Capacity {
		l.records = l.records[1:]
	}
}

// Len returns the number of retained records.
func (l *Log) Len() int {
	return len(l.records)
}

// Records returns a copy of the retained records, oldest first.
func (l *Log) Records() []Record {
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Last returns the most recent record, if any.
func (l *Log) Last() (Record, bool) {
	if len(l.records) == 0 {
		return Record{}, false
	}
	return l.records[len(l.records)-1], true
}
