package calldata

import "testing"

func TestBuildTransactPacksSelectorAndArgs(t *testing.T) {
	b, err := NewBuilder()
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	packed, err := b.BuildTransact([]byte("proof-bytes"), []byte("sig-bytes"))
	if err != nil {
		t.Fatalf("BuildTransact: %v", err)
	}
	if len(packed) < 4 {
		t.Fatalf("expected packed calldata to include at least a 4-byte selector, got %d bytes", len(packed))
	}
	// Same inputs must always pack to the same bytes.
	again, err := b.BuildTransact([]byte("proof-bytes"), []byte("sig-bytes"))
	if err != nil {
		t.Fatalf("BuildTransact (second call): %v", err)
	}
	if string(packed) != string(again) {
		t.Errorf("expected deterministic packing for identical inputs")
	}
}
