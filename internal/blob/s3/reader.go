package s3blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/alanyoungcy/playervalue/internal/domain"
)

// Reader implements domain.BlobReader using an S3-compatible backend. Keys
// passed to and returned from the Reader are relative to its prefix.
type Reader struct {
	c      *Client
	client *s3.Client
	bucket string
	prefix string
}

// NewReader creates a new Reader that retrieves objects under prefix from
// the given client's configured bucket.
func NewReader(c *Client, prefix string) *Reader {
	return &Reader{
		c:      c,
		client: c.S3(),
		bucket: c.Bucket(),
		prefix: normalisePrefix(prefix),
	}
}

func normalisePrefix(p string) string {
	p = strings.Trim(p, "/")
	if p == "" || p == "." {
		return ""
	}
	return p + "/"
}

func (r *Reader) objectKey(key string) string {
	return r.prefix + strings.TrimPrefix(key, "/")
}

// Get retrieves the object at the given key and returns its body as an
// io.ReadCloser. The caller is responsible for closing the returned reader.
// Returns domain.ErrNotFound if the object does not exist.
func (r *Reader) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	output, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.objectKey(key)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("s3blob: get %s: %w", r.Location(key), domain.ErrNotFound)
		}
		return nil, fmt.Errorf("s3blob: get %s: %w", r.Location(key), err)
	}
	return output.Body, nil
}

// Stat issues a HeadObject request. The ETag becomes the object version.
func (r *Reader) Stat(ctx context.Context, key string) (domain.BlobInfo, error) {
	output, err := r.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.objectKey(key)),
	})
	if err != nil {
		if isNotFound(err) {
			return domain.BlobInfo{}, fmt.Errorf("s3blob: stat %s: %w", r.Location(key), domain.ErrNotFound)
		}
		return domain.BlobInfo{}, fmt.Errorf("s3blob: stat %s: %w", r.Location(key), err)
	}
	info := domain.BlobInfo{
		Path: key,
		Size: aws.ToInt64(output.ContentLength),
		ETag: aws.ToString(output.ETag),
	}
	if output.LastModified != nil {
		info.LastModified = *output.LastModified
	}
	return info, nil
}

// List returns metadata for the objects directly under the reader's prefix
// whose names start with prefix, sorted by key. It handles pagination
// transparently, following ContinuationTokens until all matching objects
// have been collected.
func (r *Reader) List(ctx context.Context, prefix string) ([]domain.BlobInfo, error) {
	var infos []domain.BlobInfo

	paginator := s3.NewListObjectsV2Paginator(r.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(r.bucket),
		Prefix:    aws.String(r.objectKey(prefix)),
		Delimiter: aws.String("/"),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3blob: list prefix %s: %w", r.Location(prefix), err)
		}

		for _, obj := range page.Contents {
			key := strings.TrimPrefix(aws.ToString(obj.Key), r.prefix)
			if key == "" {
				continue
			}
			info := domain.BlobInfo{
				Path: key,
				Size: aws.ToInt64(obj.Size),
				ETag: aws.ToString(obj.ETag),
			}
			if obj.LastModified != nil {
				info.LastModified = *obj.LastModified
			}
			infos = append(infos, info)
		}
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Path < infos[j].Path })
	return infos, nil
}

// Exists checks whether an object exists at the given key by issuing a
// HeadObject request. Returns true if the object exists, false if it does
// not. Any error other than NoSuchKey / NotFound is propagated.
func (r *Reader) Exists(ctx context.Context, key string) (bool, error) {
	_, err := r.Stat(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Location renders key as an s3:// URL.
func (r *Reader) Location(key string) string {
	return "s3://" + r.bucket + "/" + r.objectKey(key)
}

// Root returns the prefix URL and whether the bucket is reachable.
func (r *Reader) Root(ctx context.Context) (string, bool) {
	return strings.TrimSuffix("s3://"+r.bucket+"/"+r.prefix, "/"), r.c.Health(ctx) == nil
}

// isNotFound returns true when the error indicates the requested S3 object
// does not exist. It checks for both the SDK typed error (NoSuchKey) and
// the generic 404 response.
func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}

	// HeadObject does not return NoSuchKey; it returns a generic 404.
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}

	// Some S3-compatible providers return a bare ResponseError with HTTP 404.
	type httpResponseError interface {
		HTTPStatusCode() int
	}
	var httpErr httpResponseError
	if errors.As(err, &httpErr) && httpErr.HTTPStatusCode() == 404 {
		return true
	}

	return false
}

// Compile-time interface check.
var _ domain.BlobReader = (*Reader)(nil)
