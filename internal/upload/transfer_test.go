package upload

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gamepowerx/kekupload-go/internal/hasher"
	"github.com/gamepowerx/kekupload-go/internal/source"
)

// countingSource wraps a Source and records every Slice call.
type countingSource struct {
	source.Source
	mu     sync.Mutex
	slices []int64
}

func (c *countingSource) Slice(ctx context.Context, off, n int64) ([]byte, error) {
	data, err := c.Source.Slice(ctx, off, n)
	c.mu.Lock()
	c.slices = append(c.slices, int64(len(data)))
	c.mu.Unlock()
	return data, err
}

func TestUploadFileTwoLevelChunking(t *testing.T) {
	data := bytes.Repeat([]byte{0xAB}, 5_000_000)
	src := &countingSource{Source: source.NewBytes(data)}
	api := &fakeAPI{}
	transfer := NewTransfer(api, TransferConfig{ReadSize: 2_000_000, ChunkSize: 1_000_000})
	ctx := context.Background()
	if err := transfer.Begin(ctx, "bin", ""); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	var fractions []float64
	err := transfer.UploadFile(ctx, src, func(fraction float64) {
		fractions = append(fractions, fraction)
	})
	if err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}

	_, chunks, _ := api.snapshot()
	if len(chunks) != 5 {
		t.Fatalf("expected 5 chunk uploads, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk) != 1_000_000 {
			t.Errorf("chunk %d: expected 1000000 bytes, got %d", i, len(chunk))
		}
	}
	wantSlices := []int64{2_000_000, 2_000_000, 1_000_000}
	if len(src.slices) != len(wantSlices) {
		t.Fatalf("expected %d slice reads, got %d", len(wantSlices), len(src.slices))
	}
	for i, size := range wantSlices {
		if src.slices[i] != size {
			t.Errorf("slice %d: expected %d bytes, got %d", i, size, src.slices[i])
		}
	}
	wantFractions := []float64{0.0, 0.2, 0.4, 0.6, 0.8}
	if len(fractions) != len(wantFractions) {
		t.Fatalf("expected %d progress calls, got %d", len(wantFractions), len(fractions))
	}
	for i, want := range wantFractions {
		if fractions[i] != want {
			t.Errorf("progress %d: expected %v, got %v", i, want, fractions[i])
		}
	}

	artifact, err := transfer.Finish(ctx)
	if err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	if want := hasher.HashBytes(data); artifact.Hash != want {
		t.Errorf("whole-stream hash %s, want %s", artifact.Hash, want)
	}
}

func TestUploadFileUnevenChunkTiling(t *testing.T) {
	// read size not a multiple of chunk size: the last chunk of each
	// slice is the remainder
	data := bytes.Repeat([]byte{0x01}, 700)
	api := &fakeAPI{}
	transfer := NewTransfer(api, TransferConfig{ReadSize: 500, ChunkSize: 200})
	ctx := context.Background()
	if err := transfer.Begin(ctx, "bin", ""); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := transfer.UploadFile(ctx, source.NewBytes(data), nil); err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}
	_, chunks, _ := api.snapshot()
	wantSizes := []int{200, 200, 100, 200}
	if len(chunks) != len(wantSizes) {
		t.Fatalf("expected %d chunks, got %d", len(wantSizes), len(chunks))
	}
	for i, want := range wantSizes {
		if len(chunks[i]) != want {
			t.Errorf("chunk %d: expected %d bytes, got %d", i, want, len(chunks[i]))
		}
	}
}

func TestCancelWhenIdle(t *testing.T) {
	transfer := NewTransfer(&fakeAPI{}, TransferConfig{})
	if err := transfer.Cancel(context.Background()); !errors.Is(err, ErrNotUploading) {
		t.Errorf("expected ErrNotUploading, got %v", err)
	}
}

func TestCancelAbortsActiveTransfer(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	api := &fakeAPI{}
	api.onUpload = func(call int) {
		if call == 1 {
			close(started)
			<-release
		}
	}
	transfer := NewTransfer(api, TransferConfig{ReadSize: 40, ChunkSize: 10})
	ctx := context.Background()
	if err := transfer.Begin(ctx, "bin", ""); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	uploadErr := make(chan error, 1)
	go func() {
		uploadErr <- transfer.UploadFile(ctx, source.NewBytes(bytes.Repeat([]byte{0x02}, 40)), nil)
	}()
	<-started

	cancelErr := make(chan error, 1)
	go func() {
		cancelErr <- transfer.Cancel(context.Background())
	}()
	// let the cancel request register, then allow the in-flight chunk
	// to complete
	time.Sleep(50 * time.Millisecond)
	close(release)

	select {
	case err := <-uploadErr:
		if !errors.Is(err, ErrCancelled) {
			t.Errorf("expected ErrCancelled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("UploadFile did not abort")
	}
	select {
	case err := <-cancelErr:
		if err != nil {
			t.Errorf("Cancel returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Cancel did not resolve")
	}

	calls, _, removed := api.snapshot()
	if calls != 1 {
		t.Errorf("expected no further chunk uploads after the in-flight one, got %d calls", calls)
	}
	if !removed {
		t.Error("expected the stream to be destroyed on cancellation")
	}
}

func TestContextCancellationAbortsTransfer(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	api := &fakeAPI{}
	api.onUpload = func(call int) {
		if call == 1 {
			close(started)
			<-release
		}
	}
	transfer := NewTransfer(api, TransferConfig{ReadSize: 40, ChunkSize: 10})
	ctx, cancel := context.WithCancel(context.Background())
	if err := transfer.Begin(ctx, "bin", ""); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	uploadErr := make(chan error, 1)
	go func() {
		uploadErr <- transfer.UploadFile(ctx, source.NewBytes(bytes.Repeat([]byte{0x03}, 40)), nil)
	}()
	<-started
	cancel()
	close(release)

	select {
	case err := <-uploadErr:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("UploadFile did not abort")
	}
	if _, _, removed := api.snapshot(); !removed {
		t.Error("expected the stream to be destroyed on context cancellation")
	}
}
