package download

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
)

// stubAPI serves a fixed artifact body.
type stubAPI struct {
	mu     sync.Mutex
	id     string
	body   []byte
	calls  int
	ranges [][2]int64
}

func (s *stubAPI) ArtifactLength(ctx context.Context, id string) (int64, error) {
	if id != s.id {
		return 0, errors.New("artifact not found")
	}
	return int64(len(s.body)), nil
}

func (s *stubAPI) DownloadChunk(ctx context.Context, id string, offset, size int64) ([]byte, error) {
	if id != s.id {
		return nil, errors.New("artifact not found")
	}
	s.mu.Lock()
	s.calls++
	s.ranges = append(s.ranges, [2]int64{offset, size})
	s.mu.Unlock()
	return s.body[offset : offset+size], nil
}

func TestPullBeforeBeginFails(t *testing.T) {
	api := &stubAPI{id: "a1", body: []byte("data")}
	d := New(api)
	if _, err := d.Pull(context.Background(), 4); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
	if api.calls != 0 {
		t.Error("failed Pull must not reach the transport")
	}
}

func TestBeginFetchesLength(t *testing.T) {
	api := &stubAPI{id: "a1", body: bytes.Repeat([]byte{0x05}, 1000)}
	d := New(api)
	if d.Length() != -1 {
		t.Errorf("expected length -1 before Begin, got %d", d.Length())
	}
	if err := d.Begin(context.Background(), "a1"); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if d.Length() != 1000 || d.Remaining() != 1000 {
		t.Errorf("expected length and remaining 1000, got %d/%d", d.Length(), d.Remaining())
	}
}

func TestSequentialPulls(t *testing.T) {
	body := []byte("0123456789abcdef")
	api := &stubAPI{id: "a1", body: body}
	d := New(api)
	ctx := context.Background()
	if err := d.Begin(ctx, "a1"); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	var assembled []byte
	for d.Remaining() > 0 {
		chunk, err := d.Pull(ctx, 5)
		if err != nil {
			t.Fatalf("Pull failed: %v", err)
		}
		assembled = append(assembled, chunk...)
	}
	if !bytes.Equal(assembled, body) {
		t.Errorf("reassembled %q, want %q", assembled, body)
	}
	if d.Remaining() != 0 {
		t.Errorf("expected remaining 0, got %d", d.Remaining())
	}
	// 16 bytes in pulls of 5: 5+5+5+1
	wantRanges := [][2]int64{{0, 5}, {5, 5}, {10, 5}, {15, 1}}
	if len(api.ranges) != len(wantRanges) {
		t.Fatalf("expected %d pulls, got %d", len(wantRanges), len(api.ranges))
	}
	for i, want := range wantRanges {
		if api.ranges[i] != want {
			t.Errorf("pull %d: expected range %v, got %v", i, want, api.ranges[i])
		}
	}
}

func TestPullClampsToRemaining(t *testing.T) {
	api := &stubAPI{id: "a1", body: []byte("short body")}
	d := New(api)
	ctx := context.Background()
	if err := d.Begin(ctx, "a1"); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	chunk, err := d.Pull(ctx, 1_000_000)
	if err != nil {
		t.Fatalf("Pull failed: %v", err)
	}
	if len(chunk) != 10 {
		t.Errorf("expected clamped pull of 10 bytes, got %d", len(chunk))
	}
	if d.Remaining() != 0 {
		t.Errorf("expected remaining 0 after clamped pull, got %d", d.Remaining())
	}
}

func TestPullPastEndReturnsEmpty(t *testing.T) {
	api := &stubAPI{id: "a1", body: []byte("xy")}
	d := New(api)
	ctx := context.Background()
	if err := d.Begin(ctx, "a1"); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if _, err := d.Pull(ctx, 2); err != nil {
		t.Fatalf("Pull failed: %v", err)
	}
	calls := api.calls
	chunk, err := d.Pull(ctx, 10)
	if err != nil {
		t.Fatalf("Pull past end failed: %v", err)
	}
	if len(chunk) != 0 {
		t.Errorf("expected empty pull past end, got %d bytes", len(chunk))
	}
	if api.calls != calls {
		t.Error("pull past end must not reach the transport")
	}
}

func TestBeginResetsOffset(t *testing.T) {
	api := &stubAPI{id: "a1", body: []byte("abcdef")}
	d := New(api)
	ctx := context.Background()
	if err := d.Begin(ctx, "a1"); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if _, err := d.Pull(ctx, 4); err != nil {
		t.Fatalf("Pull failed: %v", err)
	}
	if err := d.Begin(ctx, "a1"); err != nil {
		t.Fatalf("second Begin failed: %v", err)
	}
	if d.Remaining() != 6 {
		t.Errorf("expected remaining reset to 6, got %d", d.Remaining())
	}
	chunk, err := d.Pull(ctx, 3)
	if err != nil {
		t.Fatalf("Pull failed: %v", err)
	}
	if !bytes.Equal(chunk, []byte("abc")) {
		t.Errorf("expected pull from offset 0, got %q", chunk)
	}
}
