// Package resolver turns a dataset location into everything needed to
// preview and open it: parsed metadata, channels, physical scale, a thumbnail,
// the image/segmentation classification and a Neuroglancer viewer state.
//
// A [Resolver] follows navigation between datasets. Each call to
// [Resolver.Navigate] clears the committed snapshot before issuing any fetch
// and supersedes the previous resolution, whose context is cancelled. A
// resolution that finishes after being superseded is discarded with
// [ErrStale], so the latest navigation always wins:
//
//	r, _ := resolver.New(resolver.Options{Logger: logger})
//	res, err := r.Navigate(ctx, "https://example.org/data/image.zarr")
//	if errors.Is(err, resolver.ErrStale) {
//	    return // a newer navigation owns the view
//	}
//	links := resolver.ToolURLs(res, shareURL, resolver.DefaultToolOptions())
//
// Missing or malformed metadata, thumbnail failures and inconclusive
// classification degrade to documented defaults; only unexpected errors are
// returned.
package resolver
