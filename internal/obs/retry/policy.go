package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// RelayPolicy bounds how long one outbox publish may keep a relay worker
// busy. A message that still fails is left for the next claim.
func RelayPolicy(log *zap.Logger) Policy {
	return Policy{
		Name:     "outbox_relay",
		Attempts: 3,
		Backoff:  ExpoJitter{Base: 200 * time.Millisecond, Max: 2 * time.Second, Jitter: 0.2},
		Retryable: func(err error) bool {
			return err != nil && !errors.Is(err, ErrPermanent)
		},
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Warn("relay attempt failed", zap.Int("attempt", i+1), zap.Error(err))
			}
		},
		OnExhaust: func(err error) {
			if log != nil && !errors.Is(err, context.Canceled) {
				log.Error("relay gave up", zap.Error(err))
			}
		},
	}
}

// ErrPermanent marks failures that another attempt cannot fix, such as an
// undecodable payload.
var ErrPermanent = errors.New("permanent failure")
