// Package neuroglancer synthesizes Neuroglancer viewer states and the
// "open with" links derived from them.
//
// Two construction modes exist. [RawArrayState] describes a bare Zarr array
// as a single layer without dimension metadata. [OmeZarrState] describes a
// multiscale image with physical dimensions and one layer per channel. It
// fails with VIEWER_STATE_CONSTRUCTION when required multiscale data is
// missing; [NewToolURLs] then falls back to the raw-array state.
//
// States serialize to the JSON shape Neuroglancer reads from a URL fragment;
// [EncodeFragment] percent-encodes that JSON for embedding.
package neuroglancer
