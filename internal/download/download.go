// Package download implements sequential chunked reads of a finalized
// artifact: one handle per artifact, with a monotonically advancing
// offset and pulls clamped so they never over-read.
package download

import (
	"context"

	"github.com/gamepowerx/kekupload-go/utils"
)

// API is the slice of the remote surface the downloader consumes.
type API interface {
	ArtifactLength(ctx context.Context, id string) (int64, error)
	DownloadChunk(ctx context.Context, id string, offset, size int64) ([]byte, error)
}

type Downloader struct {
	api    API
	id     string
	length int64
	offset int64
}

func New(api API) *Downloader {
	return &Downloader{api: api, length: -1}
}

// Begin points the downloader at an artifact, fetching its total length
// and resetting the read offset to zero.
func (d *Downloader) Begin(ctx context.Context, id string) error {
	log := utils.GetLogger("download")
	d.offset = 0
	length, err := d.api.ArtifactLength(ctx, id)
	if err != nil {
		return err
	}
	d.id = id
	d.length = length
	log.Debug().Str("id", id).Int64("length", length).Msg("Opened artifact for download")
	return nil
}

// Remaining is length minus offset. Only meaningful after Begin.
func (d *Downloader) Remaining() int64 {
	return d.length - d.offset
}

// Length returns the artifact's total size, -1 before Begin.
func (d *Downloader) Length() int64 {
	return d.length
}

// Pull fetches up to size bytes at the current offset and advances it.
// Requests past the end of data return a zero-length result; callers
// detect completion via Remaining() == 0.
func (d *Downloader) Pull(ctx context.Context, size int64) ([]byte, error) {
	if d.id == "" {
		return nil, ErrNotInitialized
	}
	if remaining := d.Remaining(); size > remaining {
		size = remaining
	}
	if size <= 0 {
		return nil, nil
	}
	chunk, err := d.api.DownloadChunk(ctx, d.id, d.offset, size)
	if err != nil {
		return nil, err
	}
	d.offset += size
	return chunk, nil
}
