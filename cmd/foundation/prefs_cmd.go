package main

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/pnewell/skip-foundation/bundle"
	"github.com/pnewell/skip-foundation/prefs"
	"github.com/spf13/cobra"
)

func newPrefsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Read and write preferences",
	}
	cmd.AddCommand(
		newPrefsGetCmd(opts),
		newPrefsSetCmd(opts),
		newPrefsRemoveCmd(opts),
		newPrefsListCmd(opts),
		newPrefsWatchCmd(opts),
	)
	return cmd
}

// withStore opens the configured store for the duration of fn.
func withStore(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, store *prefs.Store) error) (err error) {
	ctx := cmd.Context()
	store, closeStore, err := opts.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeStore(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(ctx, store)
}

func newPrefsGetCmd(opts *rootOptions) *cobra.Command {
	var as string
	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print a preference, coerced with --as",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(ctx context.Context, store *prefs.Store) error {
				out, ok, err := readAs(ctx, store, args[0], as)
				if err != nil {
					return err
				}
				if !ok {
					out = bundle.Module().LocalizedString("preference.unset", "", "")
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&as, "as", "object", "Reader: object, string, double, integer, bool, url, data or time")
	return cmd
}

func readAs(ctx context.Context, store *prefs.Store, key, as string) (string, bool, error) {
	switch as {
	case "object":
		v, ok := store.Object(ctx, key)
		return fmt.Sprint(v.Interface()), ok, nil
	case "string":
		s, ok := store.String(ctx, key)
		return s, ok, nil
	case "double":
		d, ok := store.Double(ctx, key)
		return strconv.FormatFloat(d, 'g', -1, 64), ok, nil
	case "integer":
		i, ok := store.Integer(ctx, key)
		return strconv.Itoa(i), ok, nil
	case "bool":
		b, ok := store.Bool(ctx, key)
		return strconv.FormatBool(b), ok, nil
	case "url":
		u, ok := store.URL(ctx, key)
		if !ok {
			return "", false, nil
		}
		return u.String(), true, nil
	case "data":
		d, ok := store.Data(ctx, key)
		return string(d), ok, nil
	case "time":
		t, ok := store.Time(ctx, key)
		return t.Format(time.RFC3339), ok, nil
	default:
		return "", false, fmt.Errorf("unknown reader %q", as)
	}
}

func newPrefsSetCmd(opts *rootOptions) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Write a preference as --type",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(ctx context.Context, store *prefs.Store) error {
				return write(ctx, store, args[0], args[1], kind)
			})
		},
	}
	cmd.Flags().StringVar(&kind, "type", "string", "Value type: string, int, long, bool, double, url, data or time")
	return cmd
}

func write(ctx context.Context, store *prefs.Store, key, raw, kind string) error {
	switch kind {
	case "string":
		return store.SetString(ctx, key, raw)
	case "int":
		i, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("parse int: %w", err)
		}
		return store.SetInt(ctx, key, i)
	case "long":
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("parse long: %w", err)
		}
		return store.Set(ctx, key, i)
	case "bool":
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("parse bool: %w", err)
		}
		return store.SetBool(ctx, key, b)
	case "double":
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("parse double: %w", err)
		}
		return store.SetDouble(ctx, key, f)
	case "url":
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("parse url: %w", err)
		}
		return store.SetURL(ctx, key, u)
	case "data":
		return store.SetData(ctx, key, []byte(raw))
	case "time":
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return fmt.Errorf("parse time: %w", err)
		}
		return store.SetTime(ctx, key, t)
	default:
		return fmt.Errorf("unknown type %q", kind)
	}
}

func newPrefsRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <key>",
		Short: "Remove a preference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(ctx context.Context, store *prefs.Store) error {
				if err := store.RemoveObject(ctx, args[0]); err != nil {
					return err
				}
				label := bundle.Module().LocalizedString("preference.removed", "", "")
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", label, args[0])
				return nil
			})
		},
	}
}

func newPrefsListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every preference in the suite",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(ctx context.Context, store *prefs.Store) error {
				dict := store.Dictionary(ctx)
				keys := make([]string, 0, len(dict))
				for key := range dict {
					keys = append(keys, key)
				}
				sort.Strings(keys)
				for _, key := range keys {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%v\n", key, dict[key].Interface())
				}
				return nil
			})
		},
	}
}

func newPrefsWatchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <key>",
		Short: "Print the key's value each time it changes, until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(ctx context.Context, store *prefs.Store) error {
				out := cmd.OutOrStdout()
				listener := store.RegisterChangeListener(args[0], func(key string) {
					value, _ := store.Object(ctx, key)
					fmt.Fprintf(out, "%s\t%v\n", key, value.Interface())
				})
				defer listener.Close()
				<-ctx.Done()
				return nil
			})
		},
	}
}
