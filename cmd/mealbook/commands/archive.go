package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.trai.ch/mealbook/internal/core/domain"
	"go.trai.ch/zerr"
)

func (c *CLI) newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all meals as a YAML archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.open(cmd); err != nil {
				return err
			}

			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				return c.app.Export(cmd.OutOrStdout())
			}

			// #nosec G304 -- out is supplied by the user on purpose
			f, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, domain.FilePerm)
			if err != nil {
				return zerr.With(zerr.Wrap(err, domain.ErrArchiveEncodeFailed.Error()), "path", out)
			}
			if err := c.app.Export(f); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return zerr.With(zerr.Wrap(err, domain.ErrArchiveEncodeFailed.Error()), "path", out)
			}
			return nil
		},
	}
	cmd.Flags().StringP("out", "o", "", "Write the archive to this file instead of stdout")
	return cmd
}

func (c *CLI) newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Add the meals of a YAML archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// #nosec G304 -- the archive path is supplied by the user on purpose
			f, err := os.Open(args[0])
			if err != nil {
				return zerr.With(zerr.Wrap(err, domain.ErrArchiveDecodeFailed.Error()), "path", args[0])
			}
			defer func() { _ = f.Close() }()

			if err := c.open(cmd); err != nil {
				return err
			}
			added, err := c.app.Import(f)
			if err != nil {
				return zerr.With(err, "path", args[0])
			}
			emit(cmd, fmt.Sprintf("imported %d meals\n", added))
			return nil
		},
	}
}

func (c *CLI) newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every meal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			if !yes {
				return domain.ErrResetNotConfirmed
			}
			if err := c.open(cmd); err != nil {
				return err
			}
			if err := c.app.Reset(yes); err != nil {
				return err
			}
			emit(cmd, "all meals deleted\n")
			return nil
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "Confirm deleting every meal")
	return cmd
}
