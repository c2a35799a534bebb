package telemetry_test

import (
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/swatch/internal/adapters/telemetry"
)

type chunks struct {
	mu   sync.Mutex
	data []string
}

func (c *chunks) add(p []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = append(c.data, string(p))
}

func (c *chunks) get() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.data...)
}

func TestOutputBatcher_SizeLimit(t *testing.T) {
	var got chunks
	b := telemetry.NewOutputBatcher(4, time.Hour, got.add)

	_, err := b.Write([]byte("ab"))
	require.NoError(t, err)
	assert.Empty(t, got.get())

	_, err = b.Write([]byte("cd"))
	require.NoError(t, err)
	assert.Equal(t, []string{"abcd"}, got.get())
	require.NoError(t, b.Close())
}

func TestOutputBatcher_TimeLimit(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var got chunks
		b := telemetry.NewOutputBatcher(0, 0, got.add)

		_, err := b.Write([]byte("line\n"))
		require.NoError(t, err)
		assert.Empty(t, got.get())

		time.Sleep(telemetry.DefaultTimeLimit)
		synctest.Wait()
		assert.Equal(t, []string{"line\n"}, got.get())
		require.NoError(t, b.Close())
	})
}

func TestOutputBatcher_Close(t *testing.T) {
	var got chunks
	b := telemetry.NewOutputBatcher(0, time.Hour, got.add)

	_, _ = b.Write([]byte("tail"))
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	assert.Equal(t, []string{"tail"}, got.get())

	_, err := b.Write([]byte("late"))
	require.Error(t, err)
}
