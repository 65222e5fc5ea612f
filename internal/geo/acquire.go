package geo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"go.uber.org/zap"
)

var ErrPositionUnavailable = errors.New("device position unavailable")

type OutcomeKind int

const (
	Resolved OutcomeKind = iota + 1
	Rejected
)

func (k OutcomeKind) String() string {
	switch k {
	case Resolved:
		return "resolved"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Outcome is the result of one geolocation acquisition. Location is set when
// Resolved, Err when Rejected.
type Outcome struct {
	Kind     OutcomeKind
	Location models.Location
	Err      error
}

// PositionSource reports the device position.
type PositionSource interface {
	Position(ctx context.Context) (lat, lon float64, err error)
}

type PositionFunc func(ctx context.Context) (float64, float64, error)

func (f PositionFunc) Position(ctx context.Context) (float64, float64, error) {
	return f(ctx)
}

// Fixed is a source that always reports the given coordinates.
func Fixed(lat, lon float64) PositionSource {
	return PositionFunc(func(context.Context) (float64, float64, error) {
		return lat, lon, nil
	})
}

// Unavailable is a source that always rejects with err.
func Unavailable(err error) PositionSource {
	if err == nil {
		err = ErrPositionUnavailable
	}
	return PositionFunc(func(context.Context) (float64, float64, error) {
		return 0, 0, err
	})
}

// Acquire reads the device position and names it. Exactly one outcome is
// delivered unless ctx is cancelled first, in which case the channel closes
// empty.
func (s *Service) Acquire(ctx context.Context, src PositionSource, timeout time.Duration) <-chan Outcome {
	out := make(chan Outcome, 1)

	go func() {
		defer close(out)

		acquireCtx := ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			acquireCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		lat, lon, err := src.Position(acquireCtx)
		if ctx.Err() != nil {
			s.logger.Debug("Geolocation acquisition cancelled")
			return
		}
		if err != nil {
			s.logger.Info("Geolocation rejected", zap.Error(err))
			out <- Outcome{Kind: Rejected, Err: fmt.Errorf("unable to get your location: %w", err)}
			return
		}

		loc := s.Reverse(acquireCtx, lat, lon)
		if ctx.Err() != nil {
			return
		}
		out <- Outcome{Kind: Resolved, Location: loc}
	}()

	return out
}
