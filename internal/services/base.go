package services

import (
	"time"

	"github.com/rs/xid"
)

const dateLayout = "2006-01-02"

type base struct {
	broadcaster Broadcaster
	now         func() time.Time
}

// Option configures a service.
type Option func(*base)

// WithBroadcaster sends every committed mutation to b.
func WithBroadcaster(b Broadcaster) Option {
	return func(s *base) {
		s.broadcaster = b
	}
}

// WithClock overrides the wall clock used for ids and dates.
func WithClock(now func() time.Time) Option {
	return func(s *base) {
		s.now = now
	}
}

func newBase(opts []Option) base {
	b := base{now: time.Now}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// newID returns a time-ordered unique id with prefix.
func (b base) newID(prefix string) string {
	return prefix + "-" + xid.NewWithTime(b.now()).String()
}

func validDate(value string) bool {
	_, err := time.Parse(dateLayout, value)
	return err == nil
}
