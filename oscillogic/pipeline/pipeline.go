package pipeline

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/valerio/go-oscillogic/oscillogic/logic"
	"github.com/valerio/go-oscillogic/oscillogic/osc"
)

const (
	NumOscillators = 4
	NumBlocks      = 3

	// FinalBlock is the block whose result drives the output.
	FinalBlock = NumBlocks - 1

	DefaultFrequency = 440.0
	DefaultAmplitude = 1.0
	DefaultKind      = osc.Square
)

var (
	ErrInvalidOscillator = errors.New("invalid oscillator id")
	ErrInvalidBlock      = errors.New("invalid logic block id")
	ErrInvalidInput      = errors.New("invalid logic block input")
)

// OscillatorInfo is a read-only copy of one oscillator's configuration.
type OscillatorInfo struct {
	ID        int
	Frequency float64
	Amplitude float64
	Kind      osc.Kind
	Output    bool
}

// BlockInfo is a read-only copy of one logic block's configuration.
type BlockInfo struct {
	ID        int
	Operation logic.Operation
	Input1    logic.InputRef
	Input2    logic.InputRef
	Result    bool
}

// Pipeline is the fixed network of four oscillators feeding three logic
// blocks:
//
//	osc0 ─┐
//	      ├─ block0 (AND) ─┐
//	osc1 ─┘                │
//	                       ├─ block2 (XOR) ─> output
//	osc2 ─┐                │
//	      ├─ block1 (OR) ──┘
//	osc3 ─┘
//
// A single mutex serialises configuration writes against Evaluate, so a tick
// never observes a half-applied change.
type Pipeline struct {
	mu          sync.Mutex
	oscillators [NumOscillators]*osc.Oscillator
	blocks      [NumBlocks]*logic.Block
	enabled     bool
	final       bool
	evaluations uint64
}

// New builds the default patch at the given sample rate.
func New(sampleRate float64) (*Pipeline, error) {
	p := &Pipeline{enabled: true}

	for i := range p.oscillators {
		o, err := osc.New(i, DefaultFrequency, DefaultAmplitude, DefaultKind, sampleRate)
		if err != nil {
			return nil, errors.Wrapf(err, "oscillator %d", i)
		}
		p.oscillators[i] = o
	}

	defaults := [NumBlocks]struct {
		op   logic.Operation
		a, b logic.InputRef
	}{
		{logic.AND, logic.Osc(0), logic.Osc(1)},
		{logic.OR, logic.Osc(2), logic.Osc(3)},
		{logic.XOR, logic.Gate(0), logic.Gate(1)},
	}
	for i, d := range defaults {
		b := logic.NewBlock(i)
		if err := b.SetOperation(d.op); err != nil {
			return nil, err
		}
		b.SetInputs(d.a, d.b)
		p.blocks[i] = b
	}

	return p, nil
}

func validOscillator(id int) bool { return id >= 0 && id < NumOscillators }
func validBlock(id int) bool      { return id >= 0 && id < NumBlocks }

// validInput checks that ref can feed block target. Blocks may only read
// blocks declared before them, which keeps declaration order topological.
func validInput(target int, ref logic.InputRef) error {
	switch ref.Kind {
	case logic.Oscillator:
		if !validOscillator(ref.ID) {
			return errors.Wrapf(ErrInvalidInput, "block %d: no oscillator %d", target, ref.ID)
		}
	case logic.Block:
		if !validBlock(ref.ID) || ref.ID >= target {
			return errors.Wrapf(ErrInvalidInput, "block %d: cannot read block %d", target, ref.ID)
		}
	default:
		return errors.Wrapf(ErrInvalidInput, "block %d: unset input", target)
	}
	return nil
}

// SetOscillator updates frequency and amplitude of one oscillator. Both
// values are checked before anything changes.
func (p *Pipeline) SetOscillator(id int, frequency, amplitude float64) error {
	if !validOscillator(id) {
		return errors.Wrapf(ErrInvalidOscillator, "got %d", id)
	}
	if !(frequency > 0) {
		return errors.Wrapf(osc.ErrInvalidFrequency, "oscillator %d: got %v", id, frequency)
	}
	if !(amplitude >= 0) {
		return errors.Wrapf(osc.ErrInvalidAmplitude, "oscillator %d: got %v", id, amplitude)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	o := p.oscillators[id]
	prev := o.Frequency()
	if err := o.SetFrequency(frequency); err != nil {
		return errors.Wrapf(err, "oscillator %d", id)
	}
	if err := o.SetAmplitude(amplitude); err != nil {
		// keep the pair consistent
		_ = o.SetFrequency(prev)
		return errors.Wrapf(err, "oscillator %d", id)
	}
	return nil
}

// SetOscillatorKind swaps the waveform of one oscillator, keeping its phase.
func (p *Pipeline) SetOscillatorKind(id int, kind osc.Kind) error {
	if !validOscillator(id) {
		return errors.Wrapf(ErrInvalidOscillator, "got %d", id)
	}
	if !kind.Valid() {
		return errors.Wrapf(osc.ErrInvalidKind, "oscillator %d: got %d", id, kind)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.oscillators[id].SetKind(kind)
}

func (p *Pipeline) SetLogicOperation(blockID int, op logic.Operation) error {
	if !validBlock(blockID) {
		return errors.Wrapf(ErrInvalidBlock, "got %d", blockID)
	}
	if !op.Valid() {
		return errors.Wrapf(logic.ErrInvalidOperation, "block %d: got %d", blockID, op)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.blocks[blockID].SetOperation(op)
}

// SetLogicInputs rewires both inputs of a block.
func (p *Pipeline) SetLogicInputs(blockID int, a, b logic.InputRef) error {
	if !validBlock(blockID) {
		return errors.Wrapf(ErrInvalidBlock, "got %d", blockID)
	}
	if err := validInput(blockID, a); err != nil {
		return err
	}
	if err := validInput(blockID, b); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.blocks[blockID].SetInputs(a, b)
	return nil
}

// SetEnabled pauses or resumes evaluation. While paused Evaluate holds the
// last final result and no oscillator advances.
func (p *Pipeline) SetEnabled(enabled bool) {
	p.mu.Lock()
	p.enabled = enabled
	p.mu.Unlock()
}

func (p *Pipeline) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}

// Evaluate runs one tick: every oscillator steps, then every block is
// calculated in declaration order. It returns the final block's result.
func (p *Pipeline) Evaluate() bool {
	result, _ := p.Step()
	return result
}

// Step is Evaluate that also reports whether the network advanced, which
// is false while the pipeline is disabled.
func (p *Pipeline) Step() (result bool, advanced bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.enabled {
		return p.final, false
	}

	for _, o := range p.oscillators {
		o.Step()
	}
	for _, b := range p.blocks {
		b.Calculate(p)
	}

	p.final = p.blocks[FinalBlock].Result()
	p.evaluations++
	return p.final, true
}

// Resolve implements logic.Resolver over the pipeline's own state. Callers
// must hold p.mu.
func (p *Pipeline) Resolve(ref logic.InputRef) (bool, bool) {
	switch ref.Kind {
	case logic.Oscillator:
		if !validOscillator(ref.ID) {
			return false, false
		}
		return p.oscillators[ref.ID].Result().Bool, true
	case logic.Block:
		if !validBlock(ref.ID) {
			return false, false
		}
		return p.blocks[ref.ID].Result(), true
	}
	return false, false
}

// Final returns the last evaluated output without advancing anything.
func (p *Pipeline) Final() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.final
}

// Evaluations counts ticks that actually advanced the network.
func (p *Pipeline) Evaluations() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.evaluations
}

func (p *Pipeline) Oscillators() []OscillatorInfo {
	p.mu.Lock()
	defer p.mu.Unlock()

	infos := make([]OscillatorInfo, 0, NumOscillators)
	for _, o := range p.oscillators {
		infos = append(infos, OscillatorInfo{
			ID:        o.ID(),
			Frequency: o.Frequency(),
			Amplitude: o.Amplitude(),
			Kind:      o.Kind(),
			Output:    o.Result().Bool,
		})
	}
	return infos
}

func (p *Pipeline) LogicOps() []BlockInfo {
	p.mu.Lock()
	defer p.mu.Unlock()

	infos := make([]BlockInfo, 0, NumBlocks)
	for _, b := range p.blocks {
		in1, in2 := b.Inputs()
		infos = append(infos, BlockInfo{
			ID:        b.ID(),
			Operation: b.Operation(),
			Input1:    in1,
			Input2:    in2,
			Result:    b.Result(),
		})
	}
	return infos
}
