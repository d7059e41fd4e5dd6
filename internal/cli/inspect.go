package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zarrlens/zarrlens/pkg/neuroglancer"
	"github.com/zarrlens/zarrlens/pkg/resolver"
	"github.com/zarrlens/zarrlens/pkg/server"
	"github.com/zarrlens/zarrlens/pkg/zarr"
)

func (c *CLI) inspectCommand() *cobra.Command {
	var (
		asJSON  bool
		dataURL string
	)

	cmd := &cobra.Command{
		Use:   "inspect <url>",
		Short: "Resolve a dataset and summarize its metadata",
		Long: `Resolve the Zarr or OME-Zarr dataset at <url> and print its array metadata,
channels, classified layer type and "open with" links.

<url> may be a local path, file://, http(s)://, s3:// or gs:// location.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, closeCache, err := c.newResolver(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer closeCache()

			res, err := c.resolve(cmd, r, args[0])
			if err != nil {
				return err
			}
			tools := resolver.ToolURLs(res, dataURLOr(dataURL, args[0]), c.cfg.ToolOptions())

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), server.MetadataResponse{
					Resolution: res,
					Layer:      res.LayerType(),
					Tools:      tools,
				})
			}
			printResolution(newPrinter(cmd.OutOrStdout()), res, tools)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the resolution as JSON")
	cmd.Flags().StringVar(&dataURL, "data-url", "", "shareable URL used in generated links (default <url>)")
	return cmd
}

func printResolution(p printer, res *resolver.Resolution, tools neuroglancer.ToolURLs) {
	p.title(res.URL)

	if res.MetadataError != "" {
		p.warning("Metadata ignored: %s", res.MetadataError)
	}
	if res.Array == nil {
		p.info("No Zarr metadata found")
		p.nextStep("Browse child folders", fmt.Sprintf("%s browse %s", appName, res.URL))
		return
	}

	p.keyValue("Kind", res.State.String())
	p.keyValue("Zarr", fmt.Sprintf("v%d", res.Array.ZarrVersion))
	p.keyValue("Shape", formatInts(res.Array.Shape))
	p.keyValue("Chunks", formatInts(res.Array.Chunks))
	p.keyValue("Dtype", res.Array.Dtype)
	if comp := res.Array.Compression(); comp != "" {
		p.keyValue("Compression", comp)
	}
	if len(res.Axes) > 0 {
		p.keyValue("Axes", formatAxes(res.Axes))
	}
	if len(res.Scale) > 0 {
		p.keyValue("Scale", formatFloats(res.Scale))
	}
	if img, ok := res.Metadata.(zarr.OmeZarrImage); ok {
		p.keyValue("Levels", fmt.Sprint(len(img.Levels)))
	}
	layer := res.LayerType().String()
	if m := res.Classification.Method; m != "" {
		layer += " (" + string(m) + ")"
	}
	p.keyValue("Layer type", layer)

	if len(res.Channels) > 0 {
		p.newline()
		rows := make([][]string, len(res.Channels))
		for i, ch := range res.Channels {
			rows[i] = []string{
				ch.Name,
				ch.Color,
				formatRange(ch.PixelIntensityMin, ch.PixelIntensityMax),
				formatRange(ch.ContrastLimitStart, ch.ContrastLimitEnd),
			}
		}
		p.table([]string{"Channel", "Color", "Range", "Contrast"}, rows)
	}

	switch {
	case res.ThumbnailError != "":
		p.warning("Thumbnail unavailable: %s", res.ThumbnailError)
	case res.Thumbnail != "":
		p.success("Thumbnail rendered (%d bytes)", len(res.Thumbnail))
	}

	p.newline()
	p.keyValue("Open with", "")
	p.link("Copy", &tools.Copy)
	p.link("Neuroglancer", tools.Neuroglancer)
	p.link("Validator", tools.Validator)
	p.link("Vol-E", tools.Vole)
	p.link("Avivator", tools.Avivator)
}

func formatAxes(axes []zarr.Axis) string {
	parts := make([]string, len(axes))
	for i, a := range axes {
		parts[i] = a.Name
		if a.Unit != "" {
			parts[i] += " (" + a.Unit + ")"
		}
	}
	return strings.Join(parts, ", ")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
