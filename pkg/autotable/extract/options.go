// Package extract turns a filled-in Word document into a knowledge source,
// either as flat JSON produced by the oracle or as a workbook of its tables.
package extract

import "go.uber.org/zap"

// Default tuning values.
const (
	DefaultChunkSize   = 8000
	DefaultConcurrency = 4
	DefaultTemperature = 0.1
)

// Options configures JSON extraction.
type Options struct {
	// ChunkSize is the maximum number of characters sent per oracle call.
	ChunkSize int
	// Concurrency limits in-flight oracle calls. Values below 1 mean 1.
	Concurrency int
	// Temperature is passed to the oracle.
	Temperature float64
	// Logger receives per-chunk progress. If nil, nothing is logged.
	Logger *zap.Logger
}

// DefaultOptions returns default extraction options.
func DefaultOptions() Options {
	return Options{
		ChunkSize:   DefaultChunkSize,
		Concurrency: DefaultConcurrency,
		Temperature: DefaultTemperature,
	}
}

func (o Options) chunkSize() int {
	if o.ChunkSize > 0 {
		return o.ChunkSize
	}
	return DefaultChunkSize
}

func (o Options) concurrency() int {
	if o.Concurrency > 0 {
		return o.Concurrency
	}
	return 1
}

func (o Options) logger() *zap.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return zap.NewNop()
}
