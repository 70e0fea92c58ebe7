package config

import (
	"context"
	"fmt"

	"github.com/hupe1980/gramsearch/blobstore"
	"github.com/hupe1980/gramsearch/blobstore/httpstore"
	"github.com/hupe1980/gramsearch/blobstore/minio"
	"github.com/hupe1980/gramsearch/blobstore/s3"
)

// OpenStore creates the blob store described by the source settings. When
// source.compression is set, blob names are read with the codec's suffix and
// decompressed.
func (c *Config) OpenStore(ctx context.Context) (blobstore.BlobStore, error) {
	var (
		store blobstore.BlobStore
		err   error
	)

	src := c.Source
	switch src.Kind {
	case "local":
		store = blobstore.NewLocalStore(src.Root)
	case "http":
		store, err = httpstore.New(src.URL, func(o *httpstore.Options) {
			o.RequestsPerSecond = c.HTTP.Rate
			o.Burst = c.HTTP.Burst
			o.UserAgent = c.HTTP.UserAgent
		})
	case "s3":
		opts := []s3.Option{s3.WithPrefix(src.Prefix)}
		if src.Region != "" {
			opts = append(opts, s3.WithRegion(src.Region))
		}
		if src.Endpoint != "" {
			opts = append(opts, s3.WithEndpoint(src.Endpoint), s3.WithPathStyle(true))
		}
		store, err = s3.New(ctx, src.Bucket, opts...)
	case "minio":
		store, err = minio.Dial(src.Endpoint, src.AccessKey, src.SecretKey, src.Secure, src.Bucket, src.Prefix)
	default:
		return nil, fmt.Errorf("unknown source.kind %q", src.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s source: %w", src.Kind, err)
	}

	comp, err := blobstore.ParseCompression(src.Compression)
	if err != nil {
		return nil, err
	}
	if comp != blobstore.CompressionNone {
		store = blobstore.Compressed(store, comp)
	}
	return store, nil
}
