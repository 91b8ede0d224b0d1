package jsonvalidator

import "github.com/reoring/jsonvalidator/value"

// Option configures ValidateOnce and New.
type Option func(*config)

type config struct {
	baseDir     string
	stopOnFirst bool
	parse       value.ParseOptions
}

func newConfig(opts []Option) config {
	var c config
	for _, o := range opts {
		if o != nil {
			o(&c)
		}
	}
	return c
}

// WithBaseDir sets the directory external `$ref` documents are read from.
// Without it external references fail.
func WithBaseDir(dir string) Option {
	return func(c *config) { c.baseDir = dir }
}

// WithStopOnFirstViolation reports only the first violation instead of
// collecting all of them.
func WithStopOnFirstViolation() Option {
	return func(c *config) { c.stopOnFirst = true }
}

// WithParseOptions sets duplicate-key, depth and size limits for every JSON
// text the operation parses.
func WithParseOptions(po value.ParseOptions) Option {
	return func(c *config) { c.parse = po }
}
