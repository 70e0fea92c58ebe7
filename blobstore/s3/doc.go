// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-archive",
//	    s3.WithPrefix("slacklog/"),
//	    s3.WithRegion("ap-northeast-1"),
//	)
//
//	eng, err := gramsearch.Open(ctx, store)
//
// # Features
//
//   - Whole-shard fetches through the transfer manager's Downloader
//   - Range reads for Blob access
//   - NoSuchKey / 404 mapped to blobstore.ErrNotFound
//   - Configurable prefix and endpoint (S3-compatible services)
package s3
