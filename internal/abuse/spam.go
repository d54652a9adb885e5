package abuse

import (
	"errors"
	"strings"
	"time"
)

// ErrSpam is returned when a form submission looks automated.
var ErrSpam = errors.New("submission flagged as spam")

// SpamCheck flags form submissions that were filled out by bots.
//
// Forms carry two extra fields: a honeypot input that is hidden from
// humans, and a timestamp of when the form was rendered. Bots tend to
// fill every field and submit instantly, so a non-blank honeypot or a
// submission faster than MinFillTime is rejected.
type SpamCheck struct {
	// MinFillTime is the minimum time between rendering a form and
	// submitting it.
	MinFillTime time.Duration

	// NowFunc is used to get the current time.
	// Exposed for testing purposes.
	NowFunc func() time.Time
}

func NewSpamCheck(minFillTime time.Duration) *SpamCheck {
	return &SpamCheck{
		MinFillTime: minFillTime,
		NowFunc:     time.Now,
	}
}

// Check inspects the anti-bot fields of a form submission. The
// honeypot must be blank and renderedAt must be a plausible time in
// the past, at least MinFillTime ago. A missing or bogus timestamp is
// rejected too, a tampered form is not given the benefit of the doubt.
func (s *SpamCheck) Check(honeypot string, renderedAt time.Time) error {
	if strings.TrimSpace(honeypot) != "" {
		return ErrSpam
	}

	if renderedAt.IsZero() {
		return ErrSpam
	}

	if s.NowFunc().Sub(renderedAt) < s.MinFillTime {
		return ErrSpam
	}

	return nil
}
