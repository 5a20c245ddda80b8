package desk

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// wsConn is the slice of a WebSocket connection a Stream needs. It exists
// so tests can substitute a scripted connection.
type wsConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// frame is one raw message from the channel, or the read error that
// ended it.
type frame struct {
	data []byte
	err  error
}

// Stream is a live subscription to one device status channel. Messages
// are delivered in receipt order, one decoded value per frame, until the
// consumer closes the stream or the connection drops. Each Stream owns
// its connection exclusively; there is no multiplexing and no replay —
// re-subscribing starts from the device's current state.
//
// Close must be called on every exit path from consumption. It is
// idempotent and releases the underlying connection exactly once.
type Stream[T any] struct {
	channel string
	conn    wsConn
	frames  chan frame
	done    chan struct{}
	log     *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// newStream wraps an open connection and starts its read pump.
func newStream[T any](channel string, conn wsConn, log *slog.Logger) *Stream[T] {
	s := &Stream[T]{
		channel: channel,
		conn:    conn,
		frames:  make(chan frame),
		done:    make(chan struct{}),
		log:     log,
	}
	go s.readPump()
	return s
}

// subscribe opens a channel and exposes it as a typed stream. The stream
// logs through the client's logger so an injected logger sees channel
// lifecycle events too.
func subscribe[T any](ctx context.Context, c *Client, channel string) (*Stream[T], error) {
	conn, err := c.openChannel(ctx, channel)
	if err != nil {
		return nil, err
	}
	return newStream[T](channel, conn, c.log.With("channel", channel)), nil
}

// readPump moves frames from the connection to the consumer. It exits on
// the first read error or when the stream is closed.
func (s *Stream[T]) readPump() {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case s.frames <- frame{err: err}:
			case <-s.done:
			}
			return
		}
		select {
		case s.frames <- frame{data: data}:
		case <-s.done:
			return
		}
	}
}

// Next blocks until the next message arrives, the context is done, or the
// stream ends. A malformed payload fails the stream at that element with a
// *DecodeError rather than being skipped; the subscription is closed and
// no further messages are delivered.
func (s *Stream[T]) Next(ctx context.Context) (T, error) {
	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-s.done:
		return zero, ErrStreamClosed
	case f := <-s.frames:
		if f.err != nil {
			s.Close()
			return zero, fmt.Errorf("read from %s: %w", s.channel, f.err)
		}
		var msg T
		if err := json.Unmarshal(f.data, &msg); err != nil {
			s.Close()
			return zero, &DecodeError{Channel: s.channel, Err: err}
		}
		return msg, nil
	}
}

// Close releases the underlying connection. Safe to call more than once;
// only the first call closes the connection.
func (s *Stream[T]) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.closeErr = s.conn.Close()
		if s.log != nil {
			s.log.Debug("channel closed")
		}
	})
	return s.closeErr
}
