package domain

import (
	"fmt"
	"time"
)

// builderErr keeps the first validation failure seen by a builder.
// Once set, the owning builder ignores every later setter call and Build
// returns the recorded error.
type builderErr struct {
	err error
}

func (b *builderErr) failed() bool { return b.err != nil }

func (b *builderErr) fail(format string, args ...any) {
	if b.err != nil {
		return
	}
	b.err = fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}

func (b *builderErr) failWith(err error) {
	if b.err == nil && err != nil {
		b.err = err
	}
}

// Err returns the first validation error recorded by the builder, if any.
func (b *builderErr) Err() error { return b.err }

// now is the clock used for build timestamps. Values are UTC without a
// monotonic reading so they survive a JSON round trip unchanged.
func now() time.Time { return time.Now().UTC() }
