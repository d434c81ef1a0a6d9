package upload

import (
	"context"
	"errors"
	"sync"

	"github.com/gamepowerx/kekupload-go/internal/source"
	"github.com/gamepowerx/kekupload-go/utils"
)

const (
	// DefaultReadSize is how much of the source is materialized into
	// memory per outer iteration.
	DefaultReadSize = 32 * 1024 * 1024
	// DefaultChunkSize is the size of the pieces handed to Upload.
	DefaultChunkSize = 2 * 1024 * 1024
)

type TransferConfig struct {
	ReadSize  int64
	ChunkSize int64
	Retry     RetryPolicy
}

// Transfer drives a Stream over an entire source using two-level
// chunking: read-slices pulled from the source, subdivided into
// upload-sized chunks. ReadSize should be a multiple of ChunkSize; if
// not, the last chunk of each slice is simply the remainder.
type Transfer struct {
	stream    *Stream
	readSize  int64
	chunkSize int64

	mu        sync.Mutex
	uploading bool
	cancelAck chan struct{} // non-nil while a cancel request is pending
}

func NewTransfer(api API, cfg TransferConfig) *Transfer {
	if cfg.ReadSize <= 0 {
		cfg.ReadSize = DefaultReadSize
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	return &Transfer{
		stream:    NewStream(api, cfg.Retry),
		readSize:  cfg.ReadSize,
		chunkSize: cfg.ChunkSize,
	}
}

func (t *Transfer) Begin(ctx context.Context, ext, name string) error {
	return t.stream.Begin(ctx, ext, name)
}

func (t *Transfer) Finish(ctx context.Context) (Artifact, error) {
	return t.stream.Finish(ctx)
}

func (t *Transfer) Destroy(ctx context.Context) error {
	return t.stream.Destroy(ctx)
}

// UploadFile pushes the whole source through the stream. onProgress, if
// set, is invoked before each chunk with the fraction of bytes already
// queued for upload. Cancellation (via Cancel or the context) is only
// observed between chunks, after the in-flight upload completes.
func (t *Transfer) UploadFile(ctx context.Context, src source.Source, onProgress func(float64)) error {
	log := utils.GetLogger("transfer")
	t.mu.Lock()
	if t.uploading {
		t.mu.Unlock()
		return errors.New("transfer already in progress")
	}
	t.uploading = true
	t.mu.Unlock()
	defer t.release()

	total := src.Size()
	log.Debug().Int64("size", total).Int64("readSize", t.readSize).Int64("chunkSize", t.chunkSize).Msg("Starting transfer")
	for i := int64(0); i < total; i += t.readSize {
		slice, err := src.Slice(ctx, i, t.readSize)
		if err != nil {
			return err
		}
		for f := int64(0); f < int64(len(slice)); f += t.chunkSize {
			if onProgress != nil {
				onProgress(float64(i+f) / float64(total))
			}
			if err := t.checkpoint(ctx); err != nil {
				return err
			}
			end := min(f+t.chunkSize, int64(len(slice)))
			if _, err := t.stream.Upload(ctx, slice[f:end]); err != nil {
				return err
			}
		}
	}
	log.Debug().Int64("size", total).Msg("Transfer complete")
	return nil
}

// Cancel requests cooperative cancellation of the running transfer and
// blocks until the transfer observes the request and aborts, or until
// ctx expires. Concurrent callers share the same pending request.
func (t *Transfer) Cancel(ctx context.Context) error {
	t.mu.Lock()
	if !t.uploading {
		t.mu.Unlock()
		return ErrNotUploading
	}
	if t.cancelAck == nil {
		t.cancelAck = make(chan struct{})
	}
	ack := t.cancelAck
	t.mu.Unlock()
	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// checkpoint is the per-chunk cancellation poll. On a pending cancel
// request or an expired context it discards the server-side stream,
// releases any waiting canceller, and reports the abort.
func (t *Transfer) checkpoint(ctx context.Context) error {
	t.mu.Lock()
	ack := t.cancelAck
	t.mu.Unlock()
	if ack == nil && ctx.Err() == nil {
		return nil
	}
	log := utils.GetLogger("transfer")
	if err := t.stream.Destroy(context.WithoutCancel(ctx)); err != nil {
		log.Debug().Err(err).Msg("Error removing stream during abort")
	}
	if ack != nil {
		return ErrCancelled
	}
	return ctx.Err()
}

// release clears the uploading flag and resolves any cancel request
// that arrived too late to be observed mid-transfer.
func (t *Transfer) release() {
	t.mu.Lock()
	t.uploading = false
	if t.cancelAck != nil {
		close(t.cancelAck)
		t.cancelAck = nil
	}
	t.mu.Unlock()
}
