package types

import "time"

const (
	// DefaultTimeout is the total per-request timeout when --timeout is not set
	DefaultTimeout = 15 * time.Second

	// DefaultMethod is used for targets that don't specify one
	DefaultMethod = "GET"
)

// Target is a single request definition. Targets are built once at startup
// and never mutated while the engine runs, so they are safe to share across
// dispatch goroutines.
type Target struct {
	Method  string            `json:"method" yaml:"method"`
	URL     string            `json:"url" yaml:"url"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body    []byte            `json:"-" yaml:"-"`
}

// TLSOptions carries transport-level TLS settings
type TLSOptions struct {
	InsecureSkipVerify bool `json:"insecureSkipVerify" yaml:"insecureSkipVerify"`
}
