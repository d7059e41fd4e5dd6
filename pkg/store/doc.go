// Package store reads Zarr documents and chunks from a dataset location.
//
// A [Store] is rooted at one dataset URL; keys are slash separated paths
// below it (".zattrs", "0/.zarray", "s0/c/0/0/0"). Two implementations
// exist:
//
//   - [HTTPStore] for http:// and https:// datasets. Requests are retried on
//     transient failures and metadata documents are cached.
//   - [BlobStore] for file://, mem://, gs:// and s3:// buckets and bare
//     filesystem paths, backed by gocloud.dev/blob.
//
// [Open] picks the implementation from the URL scheme:
//
//	st, err := store.Open(ctx, "https://example.org/data/image.zarr", store.Options{
//	    Cache: c,
//	})
//	attrs, err := st.Get(ctx, ".zattrs")
//
// Missing keys are reported as [ErrNotFound]; transport failures wrap
// [ErrNetwork].
package store
