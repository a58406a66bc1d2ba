package wgmem

import (
	"errors"
	"testing"

	"github.com/gogpu/wgmem/gpucore"
	"github.com/gogpu/wgmem/shader"
)

type encoderFixture struct {
	enc  *ComputeEncoder
	flag gpucore.Buffer
	out  gpucore.Buffer
}

func newEncoderFixture(t *testing.T, v shader.Variant) *encoderFixture {
	t.Helper()
	dev := newSoftware(t)
	pipe, err := dev.NewComputePipeline(&gpucore.PipelineDescriptor{Function: compileFunction(t, shader.ForVariant(v))})
	if err != nil {
		t.Fatal(err)
	}
	q, _ := dev.NewCommandQueue()
	cmd, _ := q.NewCommandBuffer()
	enc, err := NewComputeEncoder(cmd, pipe, dev.Limits(), true)
	if err != nil {
		t.Fatal(err)
	}
	flag, _ := NewScalar(dev, uint32(0))
	out, _ := NewScalar(dev, uint32(0))
	return &encoderFixture{enc: enc, flag: flag, out: out}
}

func (f *encoderFixture) bind() {
	f.enc.SetBuffer(FlagIndex, f.flag)
	f.enc.SetBuffer(OutputIndex, f.out)
}

func expectStatePanic(t *testing.T, op string, state EncoderState, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		se, ok := r.(*EncoderStateError)
		if !ok {
			t.Fatalf("recovered %v, want *EncoderStateError", r)
		}
		if se.Op != op || se.State != state {
			t.Errorf("EncoderStateError = {%s %s}, want {%s %s}", se.Op, se.State, op, state)
		}
	}()
	fn()
}

func TestEncoderStateString(t *testing.T) {
	tests := []struct {
		s    EncoderState
		want string
	}{
		{EncoderCreated, "created"},
		{EncoderBound, "bound"},
		{EncoderDispatched, "dispatched"},
		{EncoderEnded, "ended"},
		{EncoderState(9), "EncoderState(9)"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestEncoderHappyPath(t *testing.T) {
	f := newEncoderFixture(t, shader.VariantLocal)
	if f.enc.State() != EncoderCreated {
		t.Fatalf("State() = %s, want created", f.enc.State())
	}
	f.bind()
	f.enc.SetThreadgroupMemory(DefaultThreadgroupMemory)
	if f.enc.State() != EncoderBound {
		t.Fatalf("State() = %s, want bound", f.enc.State())
	}
	f.enc.Dispatch(DefaultGeometry.Grid, DefaultGeometry.Group)
	if f.enc.State() != EncoderDispatched {
		t.Fatalf("State() = %s, want dispatched", f.enc.State())
	}
	if err := f.enc.End(); err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if f.enc.State() != EncoderEnded {
		t.Fatalf("State() = %s, want ended", f.enc.State())
	}
}

func TestEncoderOutOfOrderPanics(t *testing.T) {
	t.Run("dispatch before bind", func(t *testing.T) {
		f := newEncoderFixture(t, shader.VariantLocal)
		expectStatePanic(t, "Dispatch", EncoderCreated, func() {
			f.enc.Dispatch(DefaultGeometry.Grid, DefaultGeometry.Group)
		})
	})
	t.Run("end before dispatch", func(t *testing.T) {
		f := newEncoderFixture(t, shader.VariantLocal)
		f.bind()
		expectStatePanic(t, "End", EncoderBound, func() { _ = f.enc.End() })
	})
	t.Run("bind after dispatch", func(t *testing.T) {
		f := newEncoderFixture(t, shader.VariantLocal)
		f.bind()
		f.enc.SetThreadgroupMemory(DefaultThreadgroupMemory)
		f.enc.Dispatch(DefaultGeometry.Grid, DefaultGeometry.Group)
		expectStatePanic(t, "SetBuffer", EncoderDispatched, func() { f.enc.SetBuffer(0, f.flag) })
	})
	t.Run("second dispatch", func(t *testing.T) {
		f := newEncoderFixture(t, shader.VariantLocal)
		f.bind()
		f.enc.SetThreadgroupMemory(DefaultThreadgroupMemory)
		f.enc.Dispatch(DefaultGeometry.Grid, DefaultGeometry.Group)
		expectStatePanic(t, "Dispatch", EncoderDispatched, func() {
			f.enc.Dispatch(DefaultGeometry.Grid, DefaultGeometry.Group)
		})
	})
	t.Run("use after end", func(t *testing.T) {
		f := newEncoderFixture(t, shader.VariantLocal)
		f.bind()
		f.enc.SetThreadgroupMemory(DefaultThreadgroupMemory)
		f.enc.Dispatch(DefaultGeometry.Grid, DefaultGeometry.Group)
		if err := f.enc.End(); err != nil {
			t.Fatal(err)
		}
		expectStatePanic(t, "SetThreadgroupMemory", EncoderEnded, func() {
			f.enc.SetThreadgroupMemory(DefaultThreadgroupMemory)
		})
		expectStatePanic(t, "End", EncoderEnded, func() { _ = f.enc.End() })
	})
}

func TestEncoderValidation(t *testing.T) {
	tests := []struct {
		name    string
		tg      []ThreadgroupMemory
		group   Size
		skipOut bool
		want    error
	}{
		{"swapped length and index", []ThreadgroupMemory{{Length: 0, Index: 4}}, DefaultGeometry.Group, false, ErrThreadgroupMemoryMismatch},
		{"short length", []ThreadgroupMemory{{Length: 2, Index: 0}}, DefaultGeometry.Group, false, ErrThreadgroupMemoryMismatch},
		{"no request", nil, DefaultGeometry.Group, false, ErrThreadgroupMemoryMismatch},
		{"group mismatch", []ThreadgroupMemory{DefaultThreadgroupMemory}, gpucore.NewSize(64, 1, 1), false, ErrGeometry},
		{"empty group", []ThreadgroupMemory{DefaultThreadgroupMemory}, gpucore.NewSize(0, 1, 1), false, ErrGeometry},
		{"output unbound", []ThreadgroupMemory{DefaultThreadgroupMemory}, DefaultGeometry.Group, true, ErrBinding},
		{"larger length", []ThreadgroupMemory{{Length: 16, Index: 0}}, DefaultGeometry.Group, false, nil},
		{"at device limit", []ThreadgroupMemory{{Length: 16384, Index: 0}}, DefaultGeometry.Group, false, nil},
		{"over device limit", []ThreadgroupMemory{{Length: 16385, Index: 0}}, DefaultGeometry.Group, false, ErrThreadgroupMemoryMismatch},
		{"length overflows int", []ThreadgroupMemory{{Length: 1 << 63, Index: 0}}, DefaultGeometry.Group, false, ErrThreadgroupMemoryMismatch},
	}
	for _, tt := range tests {
		for _, v := range shader.Variants() {
			t.Run(tt.name+"/"+v.String(), func(t *testing.T) {
				f := newEncoderFixture(t, v)
				f.enc.SetBuffer(FlagIndex, f.flag)
				if !tt.skipOut {
					f.enc.SetBuffer(OutputIndex, f.out)
				}
				for _, tg := range tt.tg {
					f.enc.SetThreadgroupMemory(tg)
				}
				f.enc.Dispatch(DefaultGeometry.Grid, tt.group)
				err := f.enc.End()
				if tt.want == nil {
					if err != nil {
						t.Fatalf("End() error = %v", err)
					}
					return
				}
				if !errors.Is(err, tt.want) {
					t.Fatalf("End() error = %v, want %v", err, tt.want)
				}
			})
		}
	}
}
