package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	zerrors "github.com/zarrlens/zarrlens/pkg/errors"
	"github.com/zarrlens/zarrlens/pkg/resolver"
)

func (c *CLI) stateCommand() *cobra.Command {
	var (
		asURL   bool
		dataURL string
	)

	cmd := &cobra.Command{
		Use:   "state <url>",
		Short: "Print the Neuroglancer viewer state of a dataset",
		Long: `Print the Neuroglancer viewer state synthesized for the dataset at <url>.

With --url the full Neuroglancer link is printed instead, with the state
encoded in the URL fragment.`,
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
			if res.ViewerState == nil {
				return zerrors.New(zerrors.ErrCodeMetadataMissing, "no viewer state for %s: no Zarr metadata", args[0])
			}

			if !asURL {
				return writeJSON(cmd.OutOrStdout(), res.ViewerState)
			}
			tools := resolver.ToolURLs(res, dataURLOr(dataURL, args[0]), c.cfg.ToolOptions())
			if tools.Neuroglancer == nil {
				return zerrors.New(zerrors.ErrCodeViewerStateConstruction, "cannot build a Neuroglancer link for %s", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), *tools.Neuroglancer)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asURL, "url", false, "print the full Neuroglancer link")
	cmd.Flags().StringVar(&dataURL, "data-url", "", "shareable URL used in the link (default <url>)")
	return cmd
}
