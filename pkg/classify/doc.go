// Package classify decides whether a dataset holds an intensity image or a
// label (segmentation) volume.
//
// Two heuristics are available:
//
//   - Thumbnail uniqueness: label volumes render as large flat regions, so
//     even the most varied small crop of a thumbnail shows few distinct
//     colors. See [ThumbnailUniqueness].
//   - Compression ratio: label chunks compress far better than intensity
//     chunks. See [CompressionRatio]. It issues one size probe per sampled
//     chunk and is only used when explicitly enabled.
//
// [Classifier.Classify] combines them: a thumbnail, when present, is
// authoritative; without one the result is [LayerImage] unless the
// compression fallback is enabled.
package classify
