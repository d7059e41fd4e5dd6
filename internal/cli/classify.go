package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	zerrors "github.com/zarrlens/zarrlens/pkg/errors"
	"github.com/zarrlens/zarrlens/pkg/resolver"
)

// Classification methods selectable with --method.
const (
	methodAuto        = "auto"
	methodThumbnail   = "thumbnail"
	methodCompression = "compression"
)

func (c *CLI) classifyCommand() *cobra.Command {
	var (
		method string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "classify <url>",
		Short: "Decide whether a dataset is image or segmentation data",
		Long: `Classify the dataset at <url> as an image or a segmentation layer.

Methods:
  auto         thumbnail heuristic, then compression if enabled in the config
  thumbnail    count distinct colors in random crops of the thumbnail
  compression  compare stored chunk sizes with their decoded sizes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adjust, err := classifyAdjuster(method)
			if err != nil {
				return err
			}
			r, closeCache, err := c.newResolver(cmd.Context(), adjust)
			if err != nil {
				return err
			}
			defer closeCache()

			res, err := c.resolve(cmd, r, args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), res.Classification)
			}

			p := newPrinter(cmd.OutOrStdout())
			if res.Array == nil {
				p.warning("No Zarr metadata at %s", args[0])
				return nil
			}
			cl := res.Classification
			detail := string(cl.Method)
			if cl.Ratio != 0 {
				detail += fmt.Sprintf(", ratio %.3g", cl.Ratio)
			}
			p.success("%s (%s)", cl.Type, detail)
			return nil
		},
	}

	cmd.Flags().StringVar(&method, "method", methodAuto, "classification method: auto, thumbnail or compression")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the classification as JSON")
	return cmd
}

// classifyAdjuster restricts the resolver to the heuristics of method.
func classifyAdjuster(method string) (func(*resolver.Options), error) {
	switch method {
	case methodAuto, "":
		return nil, nil
	case methodThumbnail:
		return func(o *resolver.Options) {
			o.SkipThumbnail = false
			o.Classify.CompressionFallback = false
		}, nil
	case methodCompression:
		return func(o *resolver.Options) {
			o.SkipThumbnail = true
			o.Classify.CompressionFallback = true
		}, nil
	}
	return nil, zerrors.New(zerrors.ErrCodeInvalidInput, "unknown method %q (want auto, thumbnail or compression)", method)
}
