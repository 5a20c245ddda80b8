package desk

import (
	"context"
	"errors"
	"time"
)

// waitFor consumes a stream until pred matches a message, the timeout
// elapses, or the context is cancelled. The stream is closed before
// returning on every path. A timeout of zero waits indefinitely (bounded
// only by ctx). Timing out is an ordinary outcome, reported through the
// bool, not through the error.
func waitFor[T any](ctx context.Context, s *Stream[T], timeout time.Duration, pred func(T) bool) (T, bool, error) {
	defer s.Close()

	var zero T
	waitCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	for {
		msg, err := s.Next(waitCtx)
		if err != nil {
			// Distinguish our own deadline from a caller cancellation.
			if timeout > 0 && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				return zero, false, nil
			}
			return zero, false, err
		}
		if pred(msg) {
			return msg, true, nil
		}
	}
}

// WaitForBrakesOpen blocks until a safety status reports every joint
// brake unlocked. Returns false if timeout elapses first (0 = no timeout).
func (c *Client) WaitForBrakesOpen(ctx context.Context, timeout time.Duration) (bool, error) {
	s, err := c.SafetyStatuses(ctx)
	if err != nil {
		return false, err
	}
	_, ok, err := waitFor(ctx, s, timeout, SafetyStatus.BrakesUnlocked)
	return ok, err
}

// WaitForBrakesClosed blocks until a safety status reports every joint
// brake locked. Returns false if timeout elapses first (0 = no timeout).
func (c *Client) WaitForBrakesClosed(ctx context.Context, timeout time.Duration) (bool, error) {
	s, err := c.SafetyStatuses(ctx)
	if err != nil {
		return false, err
	}
	_, ok, err := waitFor(ctx, s, timeout, SafetyStatus.BrakesLocked)
	return ok, err
}

// WaitForButtonPress blocks until the named Pilot button is pressed.
// Events that do not mention the button are ignored. Returns the matching
// event, or false if timeout elapses first (0 = no timeout).
func (c *Client) WaitForButtonPress(ctx context.Context, button string, timeout time.Duration) (ButtonEvent, bool, error) {
	return c.waitForButton(ctx, button, true, timeout)
}

// WaitForButtonRelease blocks until the named Pilot button is released.
// Events that do not mention the button are ignored. Returns the matching
// event, or false if timeout elapses first (0 = no timeout).
func (c *Client) WaitForButtonRelease(ctx context.Context, button string, timeout time.Duration) (ButtonEvent, bool, error) {
	return c.waitForButton(ctx, button, false, timeout)
}

func (c *Client) waitForButton(ctx context.Context, button string, pressed bool, timeout time.Duration) (ButtonEvent, bool, error) {
	s, err := c.ButtonEvents(ctx)
	if err != nil {
		return nil, false, err
	}
	return waitFor(ctx, s, timeout, func(e ButtonEvent) bool {
		state, present := e[button]
		return present && state == pressed
	})
}
