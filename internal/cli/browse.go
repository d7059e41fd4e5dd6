package cli

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func (c *CLI) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse <folder-url>",
		Short: "Walk a folder of datasets interactively",
		Long: `List the child folders of <folder-url> and resolve each one as the cursor
moves over it, showing its metadata, layer type and Neuroglancer link.

Listing needs a local path, file://, s3:// or gs:// location; plain HTTP
servers cannot be listed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r, closeCache, err := c.newResolver(ctx, nil)
			if err != nil {
				return err
			}
			defer closeCache()

			m := NewBrowseModel(ctx, args[0], c.listFolder, r.Navigate, c.cfg.ToolOptions())
			_, err = tea.NewProgram(m, tea.WithContext(ctx), tea.WithOutput(cmd.OutOrStdout())).Run()
			return err
		},
	}
}

// listFolder returns the child folder names of folder.
func (c *CLI) listFolder(ctx context.Context, folder string) ([]string, error) {
	st, err := c.openStore(ctx, folder)
	if err != nil {
		return nil, err
	}
	if cl, ok := st.(io.Closer); ok {
		defer cl.Close()
	}
	return st.List(ctx, "")
}
