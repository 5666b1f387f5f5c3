package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/go-oscillogic/oscillogic/output"
)

func TestConversions(t *testing.T) {
	tests := []struct {
		code     int8
		unsigned uint8
		pcm      int16
	}{
		{output.CodeLow, 0, -32768},
		{output.CodeHigh, 255, 32512},
		{0, 128, 0},
		{-1, 127, -256},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.unsigned, ToUnsigned(tt.code), "code %d", tt.code)
		assert.Equal(t, tt.pcm, ToPCM(tt.code), "code %d", tt.code)
	}
}

func TestRing(t *testing.T) {
	r := NewRing(4)
	require.NoError(t, r.WriteBatch([]int8{1, 2, 3}))
	assert.Equal(t, 3, r.Len())

	assert.Equal(t, []int16{256, 512}, r.GetSamples(2))
	assert.Equal(t, []int16{768, 0, 0}, r.GetSamples(3))
	assert.Equal(t, uint64(2), r.Starved())

	require.NoError(t, r.WriteBatch([]int8{1, 2, 3, 4, 5, 6}))
	assert.Equal(t, uint64(2), r.Dropped())
	assert.Equal(t, []int16{768, 1024, 1280, 1536}, r.GetSamples(4))
	assert.Zero(t, r.Len())
}

type recordingSink struct {
	batches [][]int8
	err     error
}

func (s *recordingSink) WriteBatch(b []int8) error {
	s.batches = append(s.batches, append([]int8(nil), b...))
	return s.err
}

func fillBatch(buf *output.SampleBuffer, code int8) {
	for range output.BufferSize {
		buf.Push(code)
	}
}

func TestMonitor_FansOutBatches(t *testing.T) {
	buf := output.NewSampleBuffer()
	a, b := &recordingSink{}, &recordingSink{}
	m := NewMonitor(buf, a)
	m.AddSink(b)

	fillBatch(buf, output.CodeHigh)
	m.Notify()
	m.Notify() // coalesces
	m.collect()

	require.Len(t, a.batches, 1)
	require.Len(t, b.batches, 1)
	assert.Len(t, a.batches[0], output.BufferSize)
	assert.Equal(t, output.CodeHigh, m.Last()[0])
	assert.Equal(t, uint64(1), m.Batches())
	assert.False(t, buf.Ready())

	// nothing pending: no batch, no error
	m.collect()
	assert.Len(t, a.batches, 1)
}

func TestMonitor_SinkErrorsAreCounted(t *testing.T) {
	buf := output.NewSampleBuffer()
	bad := &recordingSink{err: errors.New("nope")}
	good := &recordingSink{}
	m := NewMonitor(buf, bad, good)

	fillBatch(buf, output.CodeLow)
	m.collect()
	assert.Equal(t, uint64(1), m.Errors())
	assert.Len(t, good.batches, 1, "a failing sink does not starve the others")
}

func TestMonitor_RunWithReadyCallback(t *testing.T) {
	buf := output.NewSampleBuffer()
	sink := &recordingSink{}
	m := NewMonitor(buf, sink)
	buf.RegisterReadyCallback(m.Notify)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- m.Run(ctx) }()

	fillBatch(buf, output.CodeHigh)
	require.Eventually(t, func() bool { return m.Batches() == 1 }, time.Second, time.Millisecond)

	fillBatch(buf, output.CodeLow)
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, uint64(2), m.Batches(), "pending batch is collected on shutdown")
	assert.Equal(t, output.CodeLow, m.Last()[0])
}

func TestWAVRecorder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	rec, err := CreateWAV(path, 10000)
	require.NoError(t, err)

	require.NoError(t, rec.WriteBatch([]int8{output.CodeHigh, output.CodeLow, 0}))
	require.NoError(t, rec.WriteBatch([]int8{output.CodeHigh}))
	assert.Equal(t, uint64(4), rec.Samples())
	require.NoError(t, rec.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	dec := wav.NewDecoder(f)
	require.True(t, dec.IsValidFile())
	pcm, err := dec.FullPCMBuffer()
	require.NoError(t, err)

	assert.Equal(t, uint32(10000), dec.SampleRate)
	assert.Equal(t, uint16(16), dec.BitDepth)
	assert.Equal(t, uint16(1), dec.NumChans)
	assert.Equal(t, []int{32512, -32768, 0, 32512}, pcm.Data)
}

func TestCreateWAV_BadPath(t *testing.T) {
	_, err := CreateWAV(filepath.Join(t.TempDir(), "missing", "out.wav"), 10000)
	assert.Error(t, err)
}
