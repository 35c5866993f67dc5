package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pnewell/skip-foundation/bundle"
	"github.com/spf13/cobra"
)

func newBundleCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bundle",
		Short: "Resolve resources in a bundle directory",
	}
	cmd.AddCommand(
		newBundleResolveCmd(opts),
		newBundleIndexCmd(opts),
		newBundleLocalizationsCmd(opts),
		newBundleStringCmd(opts),
	)
	return cmd
}

func openBundle(opts *rootOptions, dir string) (*bundle.Bundle, error) {
	return bundle.NewWithPath(dir, bundle.WithLogger(opts.logger))
}

func newBundleResolveCmd(opts *rootOptions) *cobra.Command {
	var subdir, loc string
	cmd := &cobra.Command{
		Use:   "resolve <dir> <name> [ext]",
		Short: "Print the path a resource resolves to",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBundle(opts, args[0])
			if err != nil {
				return err
			}
			ext := ""
			if len(args) == 3 {
				ext = args[2]
			}
			path, ok := b.Path(args[1], ext, bundle.InSubdirectory(subdir), bundle.ForLocalization(loc))
			if !ok {
				return errors.New(bundle.Module().LocalizedString("bundle.missing", "", ""))
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&subdir, "subdir", "", "Subdirectory to resolve in")
	cmd.Flags().StringVar(&loc, "loc", "", "Localization to resolve in")
	return cmd
}

func newBundleIndexCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "index <dir>",
		Short: "Print the entries of the bundle's resources.lst",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBundle(opts, args[0])
			if err != nil {
				return err
			}
			for _, entry := range b.ResourceIndex() {
				if entry != "" {
					fmt.Fprintln(cmd.OutOrStdout(), entry)
				}
			}
			return nil
		},
	}
}

func newBundleLocalizationsCmd(opts *rootOptions) *cobra.Command {
	var prefer []string
	cmd := &cobra.Command{
		Use:   "localizations <dir>",
		Short: "List localizations, or the best match for --prefer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBundle(opts, args[0])
			if err != nil {
				return err
			}
			locs := b.Localizations()
			if len(prefer) > 0 {
				locs = b.PreferredLocalizations(prefer...)
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(locs, "\n"))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&prefer, "prefer", nil, "Preferred languages, most preferred first")
	return cmd
}

func newBundleStringCmd(opts *rootOptions) *cobra.Command {
	var table, value string
	cmd := &cobra.Command{
		Use:   "string <dir> <key>",
		Short: "Print a localized string",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBundle(opts, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), b.LocalizedString(args[1], value, table))
			return nil
		},
	}
	cmd.Flags().StringVar(&table, "table", "", "Strings table (default Localizable)")
	cmd.Flags().StringVar(&value, "value", "", "Fallback when the key is missing")
	return cmd
}
