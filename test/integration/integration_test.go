package integration

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-oscillogic/oscillogic"
	"github.com/valerio/go-oscillogic/oscillogic/audio"
	"github.com/valerio/go-oscillogic/oscillogic/backend/headless"
	"github.com/valerio/go-oscillogic/oscillogic/bit"
	"github.com/valerio/go-oscillogic/oscillogic/output"
	"github.com/valerio/go-oscillogic/oscillogic/patch"
	"github.com/valerio/go-oscillogic/oscillogic/timing"
)

type IntegrationTestCase struct {
	Name  string
	Patch string
	Ticks uint64
	// Expected returns the code of the tick at position i of a batch.
	Expected func(i int) int8
	// Duty is the expected fraction of high ticks.
	Duty float64
}

// through routes oscillator 0 to the output.
const through = `
oscillator(0, 625, 1)
inputs(0, "osc", 0, "osc", 0)
inputs(1, "osc", 0, "osc", 0)
operation(2, "OR")
`

// beat is oscillator 0 XOR oscillator 2 at twice the frequency.
const beat = `
oscillator(0, 625, 1)
oscillator(2, 1250, 1)
inputs(0, "osc", 0, "osc", 0)
inputs(1, "osc", 2, "osc", 2)
operation(2, "XOR")
`

func GetIntegrationTests() []IntegrationTestCase {
	return []IntegrationTestCase{
		{
			Name:     "default-patch",
			Ticks:    output.BufferSize * 8,
			Expected: func(int) int8 { return output.CodeLow },
			Duty:     0,
		},
		{
			Name:     "oscillator-through",
			Patch:    through,
			Ticks:    output.BufferSize * 8,
			Expected: func(i int) int8 { return output.Code(i%16 < 8) },
			Duty:     0.5,
		},
		{
			Name:  "xor-beat",
			Patch: beat,
			Ticks: output.BufferSize * 8,
			Expected: func(i int) int8 {
				phase := i % 16
				return output.Code(phase >= 4 && phase < 12)
			},
			Duty: 0.5,
		},
		{
			Name:     "xnor-of-twins",
			Patch:    `operation(2, "XNOR")`,
			Ticks:    output.BufferSize * 4,
			Expected: func(int) int8 { return output.CodeHigh },
			Duty:     1,
		},
	}
}

func runIntegrationTest(t *testing.T, tc IntegrationTestCase) {
	dir := t.TempDir()

	cfg := oscillogic.DefaultConfig()
	cfg.Limiter = timing.LimiterNone
	cfg.MaxTicks = tc.Ticks
	cfg.LogInterval = 0

	var bits bytes.Buffer
	sd := output.NewSigmaDelta(cfg.OversampleRatio, &bits, output.WithBackpressure())

	engine, err := oscillogic.NewEngine(cfg, sd)
	require.NoError(t, err)

	if tc.Patch != "" {
		require.NoError(t, patch.New(engine).Apply(tc.Name+".lua", tc.Patch))
	}

	wavPath := filepath.Join(dir, tc.Name+".wav")
	rec, err := audio.CreateWAV(wavPath, int(cfg.SampleRate))
	require.NoError(t, err)
	engine.AddMonitorSink(rec)

	snapshots, err := headless.CreateSnapshotConfig(1000, filepath.Join(dir, "snapshots"), tc.Name)
	require.NoError(t, err)
	b := headless.New(0, snapshots)

	frontend := oscillogic.NewFrontend(engine, b, oscillogic.FrontendConfig{Title: tc.Name})
	require.NoError(t, frontend.Run(context.Background()))
	require.NoError(t, rec.Close())
	require.NoError(t, sd.Flush())

	snap := engine.Snapshot()
	assert.Equal(t, tc.Ticks, snap.Ticks)
	assert.Zero(t, snap.Dropped, "offline rendering never drops ticks")

	// the bitstream sees every tick
	assert.Equal(t, tc.Ticks*uint64(cfg.OversampleRatio), sd.Bits())
	assert.Equal(t, int(tc.Ticks)*cfg.OversampleRatio/8, bits.Len())
	assert.InDelta(t, tc.Duty, sd.Level(), 0.01)
	assert.Zero(t, sd.Dropped())

	// low ticks emit no ones, high ticks nearly all ones
	stream := bit.Unpack(bits.Bytes(), int(sd.Bits()))
	for tick := range int(tc.Ticks) {
		ones := 0
		for _, b := range stream[tick*cfg.OversampleRatio : (tick+1)*cfg.OversampleRatio] {
			if b {
				ones++
			}
		}
		if tc.Expected(tick%output.BufferSize) == output.CodeHigh {
			require.GreaterOrEqual(t, ones, cfg.OversampleRatio-1, "tick %d", tick)
		} else {
			require.Zero(t, ones, "tick %d", tick)
		}
	}

	// the recording sees every batch the monitor collected
	batches := snap.Batches - snap.Overwritten
	assert.Equal(t, tc.Ticks/output.BufferSize, snap.Batches)
	assert.Equal(t, batches*output.BufferSize, rec.Samples())

	f, err := os.Open(wavPath)
	require.NoError(t, err)
	defer f.Close()
	dec := wav.NewDecoder(f)
	require.True(t, dec.IsValidFile())
	pcm, err := dec.FullPCMBuffer()
	require.NoError(t, err)
	require.Len(t, pcm.Data, int(rec.Samples()))

	for i, s := range pcm.Data {
		want := int(audio.ToPCM(tc.Expected(i % output.BufferSize)))
		require.Equal(t, want, s, "sample %d", i)
	}

	// the headless backend leaves at least its final snapshot behind
	assert.NotEmpty(t, b.Saved())
	for _, path := range b.Saved() {
		assert.FileExists(t, path)
	}
}

func TestIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}

	for _, tc := range GetIntegrationTests() {
		t.Run(tc.Name, func(t *testing.T) {
			t.Parallel()
			runIntegrationTest(t, tc)
		})
	}
}

func TestPatchFileDrivesEngine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "through.lua")
	require.NoError(t, os.WriteFile(path, []byte(through), 0o644))

	engine, err := oscillogic.NewEngine(oscillogic.DefaultConfig(), nil)
	require.NoError(t, err)
	require.NoError(t, patch.New(engine).ApplyFile(path))

	dst := make([]int8, output.BufferSize)
	for range output.BufferSize {
		engine.Tick()
	}
	n, err := engine.GetSamples(dst)
	require.NoError(t, err)
	require.Equal(t, output.BufferSize, n)
	for i, c := range dst {
		assert.Equal(t, output.Code(i%16 < 8), c, "sample %d", i)
	}
}
