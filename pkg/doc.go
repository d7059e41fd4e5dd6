// Package pkg provides the core libraries of zarrlens.
//
// # Overview
//
// zarrlens looks at a folder URL, works out whether it holds a bare Zarr
// array, an OME-Zarr multiscale image or nothing interpretable, and derives
// everything a viewer needs from the answer: channels, physical scale,
// thumbnail, image/segmentation classification and a Neuroglancer state.
//
// # Architecture
//
// The typical data flow of one resolution:
//
//	dataset URL
//	     ↓
//	[store] (local disk, HTTP, S3, GCS)
//	     ↓
//	[zarr] (parse .zarray/.zattrs/zarr.json into Absent, RawArray or OmeZarrImage)
//	     ↓
//	[thumbnail] + [classify] (render a preview, pick image or segmentation)
//	     ↓
//	[neuroglancer] (viewer state, encoded links)
//
// [resolver] runs this flow and tracks navigation so that only the latest
// requested dataset is ever committed.
//
// # Quick Start
//
//	r, _ := resolver.New(resolver.Options{})
//	res, err := r.Navigate(ctx, "https://example.org/data/image.ome.zarr")
//	if err != nil {
//	    return err
//	}
//	links := resolver.ToolURLs(res, res.URL, resolver.DefaultToolOptions())
//	fmt.Println(res.State, res.LayerType(), *links.Neuroglancer)
//
// # Main Packages
//
// [zarr] - Zarr v2/v3 array metadata, OME-Zarr multiscales and omero
// attributes, dtype inspection, channel and scale resolution, chunk keys.
//
// [store] - Read-only dataset access: HTTPStore with retries and metadata
// caching, BlobStore over gocloud.dev buckets.
//
// [thumbnail] - Decodes chunks of the lowest fitting pyramid level and renders
// a composite PNG preview.
//
// [classify] - Image versus segmentation heuristics from thumbnail colors or
// chunk compression ratios.
//
// [neuroglancer] - Viewer state model, shaders, fragment encoding and
// "open with" links for external tools.
//
// [resolver] - Navigation state machine tying the above together.
//
// ## Infrastructure
//
// [cache] - File, Redis and null caches for metadata documents and thumbnails.
//
// [config] - TOML configuration.
//
// [server] - HTTP API over the resolver.
//
// [errors] - Error codes, including the degradable conditions that fall back to
// documented defaults.
//
// [observability] - Hooks for metrics and tracing.
//
// [httputil] - Retry with exponential backoff.
//
// # Testing
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/zarr/...               # Specific package
//	go test -run Example ./pkg/...       # Examples only
//	ZARRLENS_TEST_REDIS=localhost:6379 go test ./pkg/cache/...
package pkg
