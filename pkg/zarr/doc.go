// Package zarr interprets Zarr and OME-Zarr metadata.
//
// The package is pure: it never performs I/O. Callers fetch the raw metadata
// documents (.zarray, .zattrs, zarr.json) through a store and hand the bytes
// to the parsers here, which produce typed descriptors.
//
// # Overview
//
// The main entry points are:
//
//   - [ParseArrayV2], [ParseNode] and [ParseAttributes] decode metadata
//     documents for Zarr v2 and v3.
//   - [InspectDtype] turns a dtype descriptor into a value range and byte width.
//   - [ResolveScale] composes dataset and root "scale" transforms.
//   - [NewAxisMap] indexes axes by name.
//   - [ResolveChannels] derives renderable channels from omero metadata or
//     from a "c" axis.
//   - [TranslateUnit] canonicalizes physical unit names.
//
// # Versions
//
// OME-Zarr 0.4 stores multiscales at the top level of .zattrs on a Zarr v2
// group. OME-Zarr 0.5 nests them under attributes.ome in a v3 zarr.json.
// OME-Zarr 0.3 and earlier encode axes as plain strings. All three decode to
// the same [Multiscale] type.
package zarr
