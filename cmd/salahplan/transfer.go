package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/salahplan/internal/planner"
	"github.com/sandeepkv93/salahplan/internal/transfer"
)

func exportCmd(opts *rootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON backup of tasks and settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				s, err := a.rt.Snapshot(ctx)
				if err != nil {
					return err
				}
				if out == "" || out == "-" {
					return transfer.Export(cmd.OutOrStdout(), s.Saved())
				}
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create backup: %w", err)
				}
				if err := transfer.Export(f, s.Saved()); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported %d tasks to %s\n", len(s.Tasks), out)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "backup file, default stdout")
	return cmd
}

func importCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace tasks and settings with a JSON backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open backup: %w", err)
				}
				defer f.Close()
				r = f
			}
			saved, err := transfer.Import(r)
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				s, err := a.rt.Do(ctx, func(s planner.State, now time.Time) (planner.State, error) {
					return s.Import(saved, now), nil
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d tasks\n", len(s.Tasks))
				return nil
			})
		},
	}
}
