package tx

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRunnerSerializes(t *testing.T) {
	runner := NewMemory()

	var active, maxActive int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = runner.RunInTx(context.Background(), func(context.Context) error {
				mu.Lock()
				active++
				if active > maxActive {
					maxActive = active
				}
				mu.Unlock()

				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxActive, "at most one mutation runs at a time")
}

func TestMemoryRunnerBlocksReadsDuringMutation(t *testing.T) {
	runner := NewMemory()

	inTx := make(chan struct{})
	release := make(chan struct{})
	readDone := make(chan struct{})

	go func() {
		_ = runner.RunInTx(context.Background(), func(context.Context) error {
			close(inTx)
			<-release
			return nil
		})
	}()
	<-inTx

	go func() {
		_ = runner.RunInReadTx(context.Background(), func(context.Context) error { return nil })
		close(readDone)
	}()

	select {
	case <-readDone:
		t.Fatal("read ran while a mutation was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-readDone:
	case <-time.After(time.Second):
		t.Fatal("read never ran after the mutation finished")
	}
}

func TestMemoryRunnerPropagatesError(t *testing.T) {
	runner := NewMemory()
	boom := errors.New("boom")

	err := runner.RunInTx(context.Background(), func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)
}

func TestFromWithoutTx(t *testing.T) {
	_, ok := From(context.Background())
	assert.False(t, ok)
}
