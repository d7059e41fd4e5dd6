// Package thumbnail renders small PNG previews of OME-Zarr images.
//
// The renderer picks the smallest pyramid level whose YX plane is at least
// Options.Size on its longer side, reads the middle Z plane of the first time
// point for every active channel, composites the channels additively in
// their display colors and scales the result to Options.Size.
//
// The result is a "data:image/png;base64," URL, the same form the layer type
// classifier accepts.
package thumbnail
