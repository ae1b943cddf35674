package ai

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStream_PullAll(t *testing.T) {
	stream := NewStream(context.Background(), func(ctx context.Context, emit func(string) error) error {
		for _, token := range []string{"one", " two", " three"} {
			if err := emit(token); err != nil {
				return err
			}
		}
		return nil
	})
	defer stream.Close()

	var got []string
	for {
		token, err := stream.Next()
		if err != nil {
			assert.ErrorIs(t, err, io.EOF)
			break
		}
		got = append(got, token)
	}

	assert.Equal(t, []string{"one", " two", " three"}, got)

	// Every call after exhaustion keeps returning io.EOF
	_, err := stream.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestStream_ProducerError(t *testing.T) {
	boom := errors.New("model unavailable")

	stream := NewStream(context.Background(), func(ctx context.Context, emit func(string) error) error {
		if err := emit("partial"); err != nil {
			return err
		}
		return boom
	})
	defer stream.Close()

	token, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, "partial", token)

	_, err = stream.Next()
	assert.ErrorIs(t, err, boom)

	// The error is sticky
	_, err = stream.Next()
	assert.ErrorIs(t, err, boom)
}

func TestStream_CloseCancelsProducer(t *testing.T) {
	canceled := make(chan struct{})

	stream := NewStream(context.Background(), func(ctx context.Context, emit func(string) error) error {
		defer close(canceled)
		for i := 0; ; i++ {
			if err := emit("token"); err != nil {
				return err
			}
		}
	})

	token, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, "token", token)

	require.NoError(t, stream.Close())

	// The producer goroutine observed cancellation and exited
	<-canceled

	// A closed stream reads as cleanly finished
	_, err = stream.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestStream_ParentContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	stream := NewStream(ctx, func(ctx context.Context, emit func(string) error) error {
		<-ctx.Done()
		return ctx.Err()
	})
	defer stream.Close()

	cancel()

	// Cancellation surfaces as end of stream, not as a failure
	_, err := stream.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestStream_EmptyProducer(t *testing.T) {
	stream := NewStream(context.Background(), func(ctx context.Context, emit func(string) error) error {
		return nil
	})
	defer stream.Close()

	_, err := stream.Next()
	assert.ErrorIs(t, err, io.EOF)
}
