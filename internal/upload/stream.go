// Package upload implements the chunked upload engine: a Stream that
// pushes content-addressed chunks against one open server stream, and a
// Transfer that drives a Stream across an entire source with progress
// reporting and cooperative cancellation.
package upload

import (
	"context"
	"fmt"
	"time"

	"github.com/gamepowerx/kekupload-go/internal/hasher"
	"github.com/gamepowerx/kekupload-go/utils"
)

// API is the slice of the remote surface the upload engine consumes.
type API interface {
	CreateStream(ctx context.Context, ext, name string) (string, error)
	UploadChunk(ctx context.Context, stream, hash string, chunk []byte) error
	FinishStream(ctx context.Context, stream, hash string) (string, error)
	RemoveStream(ctx context.Context, stream string) error
}

// RetryPolicy bounds the per-chunk delivery retries. MaxAttempts of 0
// retries until the context is cancelled, which matches the upstream
// protocol's retry-until-acknowledged contract; callers wanting bounded
// behavior set a positive attempt count.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration // scaled linearly by the attempt number
}

const defaultBackoff = 500 * time.Millisecond

// Artifact pairs the permanent id returned by the server with the
// locally computed whole-stream hash.
type Artifact struct {
	ID   string
	Hash string
}

// Stream owns at most one live server-side upload stream plus the
// running digest over every chunk delivered on it, in upload order.
type Stream struct {
	api    API
	digest *hasher.Hasher
	retry  RetryPolicy
	stream string
}

func NewStream(api API, retry RetryPolicy) *Stream {
	if retry.Backoff == 0 {
		retry.Backoff = defaultBackoff
	}
	return &Stream{api: api, digest: hasher.New(), retry: retry}
}

// Begin resets the running digest and opens a fresh stream. Any prior
// in-memory stream state is discarded; the caller is responsible for
// having finished or destroyed the previous stream first.
func (s *Stream) Begin(ctx context.Context, ext, name string) error {
	log := utils.GetLogger("stream")
	s.digest.Reset()
	stream, err := s.api.CreateStream(ctx, ext, name)
	if err != nil {
		return err
	}
	s.stream = stream
	log.Debug().Str("ext", ext).Str("name", name).Msg("Opened upload stream")
	return nil
}

// Upload delivers one chunk, retrying per the policy until the server
// acknowledges it, and returns the chunk's hex hash. The chunk's bytes
// are folded into the running digest exactly once.
func (s *Stream) Upload(ctx context.Context, chunk []byte) (string, error) {
	if s.stream == "" {
		return "", ErrNotInitialized
	}
	log := utils.GetLogger("stream")
	hash := hasher.HashBytes(chunk)
	s.digest.Update(chunk)
	attempt := 0
	for {
		err := s.api.UploadChunk(ctx, s.stream, hash, chunk)
		if err == nil {
			return hash, nil
		}
		attempt++
		if s.retry.MaxAttempts > 0 && attempt >= s.retry.MaxAttempts {
			return "", fmt.Errorf("chunk upload failed after %d attempts: %v", attempt, err)
		}
		log.Debug().Err(err).Int("attempt", attempt).Str("hash", hash).Msg("Retrying chunk upload")
		select {
		case <-time.After(time.Duration(attempt) * s.retry.Backoff):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// Finish finalizes the running digest and converts the stream into a
// permanent artifact. State is not reset afterward; a new Begin is
// required before the Stream can be reused.
func (s *Stream) Finish(ctx context.Context) (Artifact, error) {
	if s.stream == "" {
		return Artifact{}, ErrNotInitialized
	}
	hash := s.digest.SumHex()
	id, err := s.api.FinishStream(ctx, s.stream, hash)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{ID: id, Hash: hash}, nil
}

// Destroy discards the in-progress stream server-side.
func (s *Stream) Destroy(ctx context.Context) error {
	if s.stream == "" {
		return ErrNotInitialized
	}
	return s.api.RemoveStream(ctx, s.stream)
}
