package utils

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"

	"go.viam.com/voxelmesh/logging"
)

// SlowLogger logs msg at warn level with the elapsed time, first after two seconds and then at a
// growing interval, until ctx is done or the returned function is called. Nothing is logged once
// the returned function has returned.
func SlowLogger(ctx context.Context, msg, fieldName, fieldVal string, logger logging.Logger) func() {
	return slowLogger(ctx, clock.New(), 2*time.Second, msg, fieldName, fieldVal, logger)
}

func slowLogger(
	ctx context.Context,
	clk clock.Clock,
	first time.Duration,
	msg, fieldName, fieldVal string,
	logger logging.Logger,
) func() {
	slowTicker := clk.Ticker(first)
	firstTick := true

	ctxWithCancel, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	startTime := clk.Now()
	go func() {
		defer close(done)
		for {
			select {
			case <-slowTicker.C:
				elapsed := clk.Since(startTime).Round(time.Millisecond).String()
				logger.Warnw(msg, fieldName, fieldVal, "time_elapsed", elapsed)
				if firstTick {
					slowTicker.Reset(first + first/2)
					firstTick = false
				} else {
					slowTicker.Reset(first + first + first/2)
				}
			case <-ctxWithCancel.Done():
				return
			}
		}
	}()
	return func() {
		slowTicker.Stop()
		cancel()
		<-done
	}
}
