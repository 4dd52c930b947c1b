package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/abelbrown/mentions/internal/classify"
	"github.com/abelbrown/mentions/internal/store"
)

func newOverrideCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "override",
		Short: "Manage manual product labels",
		Long:  "Set, clear, or list the manual product labels that take precedence over the classifier rules.",
	}
	cmd.AddCommand(newOverrideSetCmd(opts))
	cmd.AddCommand(newOverrideClearCmd(opts))
	cmd.AddCommand(newOverrideListCmd(opts))
	return cmd
}

func newOverrideSetCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <post-id> <label>",
		Short: "Label a post with a product",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePostID(args[0])
			if err != nil {
				return err
			}
			label := strings.TrimSpace(strings.Join(args[1:], " "))
			if label == "" {
				return fmt.Errorf("label must not be blank; use 'override clear %d' to remove it", id)
			}
			return withOverrides(opts, func(o *classify.Overrides, _ *store.Store) error {
				if err := o.Set(id, label); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Post %d labelled %s\n", id, label)
				return nil
			})
		},
	}
}

func newOverrideClearCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <post-id>",
		Short: "Remove a post's manual label",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePostID(args[0])
			if err != nil {
				return err
			}
			return withOverrides(opts, func(o *classify.Overrides, _ *store.Store) error {
				if _, ok := o.Get(id); !ok {
					fmt.Fprintf(cmd.OutOrStdout(), "Post %d has no override\n", id)
					return nil
				}
				if err := o.Set(id, ""); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared override for post %d\n", id)
				return nil
			})
		},
	}
}

func newOverrideListCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List manual labels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOverrides(opts, func(_ *classify.Overrides, st *store.Store) error {
				entries, err := st.List(classify.Namespace)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "No overrides.")
					return nil
				}
				now := time.Now()
				for _, e := range entries {
					fmt.Fprintf(out, "%-10s %-20s %s\n", e.Key, e.Value, humanize.RelTime(e.UpdatedAt, now, "ago", "from now"))
				}
				return nil
			})
		},
	}
}

// withOverrides opens the configured store for the duration of fn.
func withOverrides(opts *globalOptions, fn func(*classify.Overrides, *store.Store) error) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	overrides, err := classify.NewOverrides(st)
	if err != nil {
		return err
	}
	return fn(overrides, st)
}

func parsePostID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid post id %q", s)
	}
	return id, nil
}
