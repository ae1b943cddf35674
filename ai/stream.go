package ai

import (
	"context"
	"errors"
	"io"
)

// Stream is a pull-based token stream. The consumer calls Next until it
// returns io.EOF; the producer runs on its own goroutine and blocks when
// the consumer stops pulling, so generation never outruns consumption.
//
// A Stream is single-consumer: Next and Close must be called from one
// goroutine.
type Stream struct {
	tokens <-chan string
	result <-chan error
	cancel context.CancelFunc

	err  error
	done bool
}

// NewStream starts produce on its own goroutine and returns the stream
// of tokens it emits. produce pushes tokens through emit, which blocks
// until the consumer pulls or the stream is closed; emit's error must be
// returned promptly so cancellation propagates. produce's final error
// terminates the stream: nil becomes io.EOF at the consumer.
func NewStream(ctx context.Context, produce func(ctx context.Context, emit func(token string) error) error) *Stream {
	ctx, cancel := context.WithCancel(ctx)
	tokens := make(chan string)
	result := make(chan error, 1)

	go func() {
		defer close(tokens)
		result <- produce(ctx, func(token string) error {
			select {
			case tokens <- token:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()

	return &Stream{
		tokens: tokens,
		result: result,
		cancel: cancel,
	}
}

// Next returns the next token. It returns io.EOF when the producer has
// finished cleanly or the stream was closed, and the producer's error
// otherwise. After a non-nil return, every subsequent call returns the
// same error.
func (s *Stream) Next() (string, error) {
	if s.done {
		return "", s.err
	}

	token, ok := <-s.tokens
	if ok {
		return token, nil
	}

	s.done = true
	err := <-s.result
	if err == nil || errors.Is(err, context.Canceled) {
		s.err = io.EOF
	} else {
		s.err = err
	}
	return "", s.err
}

// Close cancels the producer and discards any unread tokens. It is safe
// to call after Next returned an error, and calling Next afterwards
// keeps returning io.EOF.
func (s *Stream) Close() error {
	s.cancel()
	for !s.done {
		if _, err := s.Next(); err != nil {
			break
		}
	}
	return nil
}
