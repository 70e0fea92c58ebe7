// Package gramsearch is a client for a static, gram-sharded full-text index
// of chat messages.
//
// The index is a directory of immutable files: a channel directory and one
// shard per gram (one or two code points) listing the documents and positions
// at which the gram occurs. A search cuts the query into grams, fetches the
// shards it needs (each at most once per Engine) and intersects their
// position sets.
//
// # Quick Start
//
// Local index:
//
//	ctx := context.Background()
//	eng, _ := gramsearch.Open(ctx, blobstore.NewLocalStore("./public"))
//	res, _ := eng.Search(ctx, "こんにちは")
//	for _, hit := range eng.Hits(res, 20) {
//	    fmt.Println(hit.Link(time.Local))
//	}
//
// Published index:
//
//	store, _ := httpstore.New("https://example.org/slacklog/")
//	eng, _ := gramsearch.Open(ctx, store, gramsearch.WithFetchConcurrency(4))
//
//	s3Store, _ := s3.New(ctx, "my-bucket", s3.WithPrefix("slacklog/"))
//	eng, _ := gramsearch.Open(ctx, s3Store)
//
// # Generations
//
// Every Search takes a new generation number. Callers that render results
// asynchronously should drop a result once IsCurrent reports false for it:
// a newer search has started and its result supersedes the older one.
//
// # Building an index
//
// The indexer package writes the same layout from a message feed; see
// cmd/gramsearch for the build, search and serve commands.
package gramsearch
