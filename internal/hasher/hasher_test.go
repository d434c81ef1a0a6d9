package hasher

import (
	"bytes"
	"testing"
)

func TestStreamingMatchesOneShot(t *testing.T) {
	chunks := [][]byte{
		[]byte("first chunk of data"),
		[]byte("second"),
		{},
		[]byte("and a third, longer chunk to close things out"),
	}
	h := New()
	var concat bytes.Buffer
	for _, chunk := range chunks {
		h.Update(chunk)
		concat.Write(chunk)
	}
	if got, want := h.SumHex(), HashBytes(concat.Bytes()); got != want {
		t.Errorf("streaming digest %s does not match one-shot digest %s", got, want)
	}
}

func TestResetClearsState(t *testing.T) {
	h := New()
	h.Update([]byte("stale bytes"))
	h.Reset()
	h.Update([]byte("fresh"))
	if got, want := h.SumHex(), HashBytes([]byte("fresh")); got != want {
		t.Errorf("digest after reset %s, want %s", got, want)
	}
}

func TestHashBytesStable(t *testing.T) {
	// SHA-1 of the empty input, pinned so the content addressing never
	// silently changes algorithm.
	if got, want := HashBytes(nil), "da39a3ee5e6b4b0d3255bfef95601890afd80709"; got != want {
		t.Errorf("HashBytes(nil) = %s, want %s", got, want)
	}
}
