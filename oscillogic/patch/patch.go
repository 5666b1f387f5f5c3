package patch

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	lua "github.com/yuin/gopher-lua"

	"github.com/valerio/go-oscillogic/oscillogic/debug"
	"github.com/valerio/go-oscillogic/oscillogic/logic"
	"github.com/valerio/go-oscillogic/oscillogic/osc"
	"github.com/valerio/go-oscillogic/oscillogic/pipeline"
)

var ErrScript = errors.New("patch script failed")

// Target is the configuration surface a patch writes to. Both the engine
// and a bare pipeline satisfy it.
type Target interface {
	SetOscillator(id int, frequency, amplitude float64) error
	SetOscillatorKind(id int, kind osc.Kind) error
	SetLogicOperation(blockID int, op logic.Operation) error
	SetLogicInputs(blockID int, a, b logic.InputRef) error
	SetEnabled(enabled bool)
}

var _ Target = (*pipeline.Pipeline)(nil)

// Patch runs Lua scripts against a Target. A script sees these globals:
//
//	oscillator(id, freq, amp [, kind])
//	kind(id, "sine")
//	operation(block, "XOR")
//	inputs(block, "osc", 0, "block", 1)
//	enable(bool)
//	note("A4")          -> frequency
//	semitones(freq, n)  -> frequency
//	OSCILLATORS, BLOCKS
//
// The first rejected call aborts the script and its error is returned
// unchanged in meaning, so callers can match it with errors.Is. Calls that
// ran before the failure stay applied.
type Patch struct {
	target  Target
	applied int
	err     error
}

func New(target Target) *Patch {
	return &Patch{target: target}
}

// Applied counts configuration calls that succeeded.
func (p *Patch) Applied() int { return p.applied }

// ApplyFile runs the script at path.
func (p *Patch) ApplyFile(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading patch %s", path)
	}
	return p.Apply(filepath.Base(path), string(src))
}

// Apply runs src, using name in error messages.
func (p *Patch) Apply(name, src string) error {
	p.err = nil

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	openLibs(L)
	p.register(L)

	fn, err := L.Load(strings.NewReader(src), name)
	if err != nil {
		return errors.Wrapf(ErrScript, "%s: %v", name, err)
	}
	L.Push(fn)
	err = L.PCall(0, lua.MultRet, nil)
	if err == nil {
		// calls the script caught with pcall do not fail the patch
		return nil
	}
	if p.err != nil && strings.Contains(err.Error(), p.err.Error()) {
		return errors.Wrapf(p.err, "patch %s", name)
	}
	return errors.Wrapf(ErrScript, "%s: %v", name, err)
}

// openLibs loads the pure libraries only; patches get no io or os access.
func openLibs(L *lua.LState) {
	libs := []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	}
	for _, lib := range libs {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
}

func (p *Patch) register(L *lua.LState) {
	funcs := map[string]lua.LGFunction{
		"oscillator": p.oscillator,
		"kind":       p.kind,
		"operation":  p.operation,
		"inputs":     p.inputs,
		"enable":     p.enable,
		"note":       note,
		"semitones":  semitones,
	}
	for name, fn := range funcs {
		L.SetGlobal(name, L.NewFunction(fn))
	}
	L.SetGlobal("OSCILLATORS", lua.LNumber(pipeline.NumOscillators))
	L.SetGlobal("BLOCKS", lua.LNumber(pipeline.NumBlocks))
}

// fail records err and unwinds the script.
func (p *Patch) fail(L *lua.LState, err error) int {
	p.err = err
	L.RaiseError("%v", err)
	return 0
}

func (p *Patch) oscillator(L *lua.LState) int {
	id := L.CheckInt(1)
	freq := float64(L.CheckNumber(2))
	amp := float64(L.CheckNumber(3))

	var kind osc.Kind
	hasKind := L.GetTop() >= 4
	if hasKind {
		k, err := osc.ParseKind(L.CheckString(4))
		if err != nil {
			return p.fail(L, err)
		}
		kind = k
	}

	if err := p.target.SetOscillator(id, freq, amp); err != nil {
		return p.fail(L, err)
	}
	if hasKind {
		if err := p.target.SetOscillatorKind(id, kind); err != nil {
			return p.fail(L, err)
		}
	}
	p.applied++
	return 0
}

func (p *Patch) kind(L *lua.LState) int {
	id := L.CheckInt(1)
	k, err := osc.ParseKind(L.CheckString(2))
	if err != nil {
		return p.fail(L, err)
	}
	if err := p.target.SetOscillatorKind(id, k); err != nil {
		return p.fail(L, err)
	}
	p.applied++
	return 0
}

func (p *Patch) operation(L *lua.LState) int {
	block := L.CheckInt(1)
	op, err := logic.ParseOperation(L.CheckString(2))
	if err != nil {
		return p.fail(L, err)
	}
	if err := p.target.SetLogicOperation(block, op); err != nil {
		return p.fail(L, err)
	}
	p.applied++
	return 0
}

func (p *Patch) inputs(L *lua.LState) int {
	block := L.CheckInt(1)
	a, err := checkRef(L, 2)
	if err != nil {
		return p.fail(L, err)
	}
	b, err := checkRef(L, 4)
	if err != nil {
		return p.fail(L, err)
	}
	if err := p.target.SetLogicInputs(block, a, b); err != nil {
		return p.fail(L, err)
	}
	p.applied++
	return 0
}

// checkRef reads a (kind, id) pair starting at stack index n.
func checkRef(L *lua.LState, n int) (logic.InputRef, error) {
	kind, err := logic.ParseSourceKind(L.CheckString(n))
	if err != nil {
		return logic.InputRef{}, err
	}
	return logic.InputRef{Kind: kind, ID: L.CheckInt(n + 1)}, nil
}

func (p *Patch) enable(L *lua.LState) int {
	enabled := true
	if L.GetTop() >= 1 {
		enabled = L.CheckBool(1)
	}
	p.target.SetEnabled(enabled)
	p.applied++
	return 0
}

func note(L *lua.LState) int {
	f, err := debug.NoteToFrequency(L.CheckString(1))
	if err != nil {
		L.RaiseError("%v", err)
		return 0
	}
	L.Push(lua.LNumber(f))
	return 1
}

func semitones(L *lua.LState) int {
	f := float64(L.CheckNumber(1))
	n := L.CheckInt(2)
	L.Push(lua.LNumber(debug.Semitones(f, n)))
	return 1
}
