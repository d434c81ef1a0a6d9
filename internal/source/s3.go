package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gamepowerx/kekupload-go/utils"
)

// S3Source exposes a remote S3 object as a sliceable byte source, so it
// can be pushed through the upload engine without staging it on disk.
type S3Source struct {
	client *s3.Client
	bucket string
	key    string
	size   int64
}

func parseS3URL(rawURL string) (string, string, error) {
	trimmed := strings.TrimPrefix(rawURL, "s3://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid S3 URL: %s", rawURL)
	}
	return parts[0], parts[1], nil
}

func newS3Client(ctx context.Context) (*s3.Client, error) {
	profile := os.Getenv("AWS_PROFILE")
	if profile == "" {
		profile = "default"
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithSharedConfigProfile(profile), awsconfig.WithRetryMode("adaptive"))
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %v", err)
	}
	return s3.NewFromConfig(cfg), nil
}

// OpenS3 resolves an s3://bucket/key URL and records the object size.
func OpenS3(ctx context.Context, rawURL string) (*S3Source, error) {
	log := utils.GetLogger("s3-source")
	bucket, key, err := parseS3URL(rawURL)
	if err != nil {
		return nil, err
	}
	client, err := newS3Client(ctx)
	if err != nil {
		return nil, err
	}
	head, err := client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("error resolving S3 object: %v", err)
	}
	if head.ContentLength == nil {
		return nil, fmt.Errorf("object size is nil for s3://%s/%s", bucket, key)
	}
	log.Debug().Str("bucket", bucket).Str("key", key).Int64("size", *head.ContentLength).Msg("Resolved S3 source")
	return &S3Source{client: client, bucket: bucket, key: key, size: *head.ContentLength}, nil
}

func (s *S3Source) Size() int64 {
	return s.size
}

func (s *S3Source) Key() string {
	return s.key
}

func (s *S3Source) Slice(ctx context.Context, off, n int64) ([]byte, error) {
	n = clamp(off, n, s.size)
	if n == 0 {
		return nil, nil
	}
	rangeHeader := fmt.Sprintf("bytes=%d-%d", off, off+n-1)
	obj, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
		Range:  aws.String(rangeHeader),
	})
	if err != nil {
		return nil, fmt.Errorf("error fetching S3 range %s: %v", rangeHeader, err)
	}
	defer obj.Body.Close()
	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading S3 range body: %v", err)
	}
	if int64(len(data)) != n {
		return nil, fmt.Errorf("size mismatch: expected %d bytes for range, got %d bytes", n, len(data))
	}
	return data, nil
}
