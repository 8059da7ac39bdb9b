package embedding

import (
	"context"
	"math"
	"testing"
)

func TestEncodeDeterministic(t *testing.T) {
	model := NewModel("hashed-384", 384)
	a, err := model.Encode(context.Background(), []string{"the quick brown fox"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := model.Encode(context.Background(), []string{"the quick brown fox"})
	if err != nil {
		t.Fatal(err)
	}
	for i := range a[0] {
		if a[0][i] != b[0][i] {
			t.Fatalf("vectors differ at slot %d", i)
		}
	}
}

func TestEncodeNormalised(t *testing.T) {
	model := NewModel("", 0)
	if model.Name() != DefaultModel || model.Dim() != DefaultDim {
		t.Fatalf("defaults not applied: %s/%d", model.Name(), model.Dim())
	}
	vectors, err := model.Encode(context.Background(), []string{"alpha beta gamma delta"})
	if err != nil {
		t.Fatal(err)
	}
	var sum float64
	for _, v := range vectors[0] {
		sum += float64(v) * float64(v)
	}
	if math.Abs(sum-1.0) > 1e-5 {
		t.Errorf("squared norm = %f, want 1.0", sum)
	}
}

func TestEncodeEmptyTextIsZeroVector(t *testing.T) {
	model := NewModel("hashed-8", 8)
	vectors, err := model.Encode(context.Background(), []string{""})
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range vectors[0] {
		if v != 0 {
			t.Errorf("slot %d = %f, want 0", i, v)
		}
	}
}

func TestEncodeCaseInsensitive(t *testing.T) {
	model := NewModel("hashed-64", 64)
	vecs, err := model.Encode(context.Background(), []string{"Hello World", "hello world"})
	if err != nil {
		t.Fatal(err)
	}
	for i := range vecs[0] {
		if vecs[0][i] != vecs[1][i] {
			t.Fatalf("case changed the vector at slot %d", i)
		}
	}
}

func TestRegistrySharesInstances(t *testing.T) {
	reg := NewRegistry(64)
	a := reg.Get("hashed-64")
	b := reg.Get("hashed-64")
	if a != b {
		t.Error("repeated lookups returned distinct models")
	}
	if reg.Get("") != reg.Get(DefaultModel) {
		t.Error("empty name does not map to the default model")
	}
}

func TestVectorBytesRoundTrip(t *testing.T) {
	in := []float32{0.5, -1.25, 0, 3.75}
	out, err := VectorFromBytes(VectorBytes(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(in) {
		t.Fatalf("got %d floats, want %d", len(out), len(in))
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("slot %d: %f != %f", i, in[i], out[i])
		}
	}
}

func TestVectorFromBytesRejectsMisaligned(t *testing.T) {
	if _, err := VectorFromBytes(make([]byte, 6)); err == nil {
		t.Error("misaligned payload accepted")
	}
}
