package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abelbrown/mentions/internal/classify"
)

func newClassifyCmd(opts *globalOptions) *cobra.Command {
	var (
		language string
		postID   int64
		rules    bool
	)

	cmd := &cobra.Command{
		Use:   "classify [text...]",
		Short: "Show the product label for a piece of text",
		Long: "Runs the classifier over text and prints the product it resolves to.\n" +
			"With --id, a manual override stored for that post wins over the rules.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if rules {
				for i, r := range classify.Rules() {
					fmt.Fprintf(out, "%2d. %-18s %s\n", i+1, r.Label, r.Pattern)
				}
				return nil
			}
			if len(args) == 0 {
				return fmt.Errorf("requires text to classify (or --rules)")
			}

			var overrides *classify.Overrides
			if postID > 0 {
				cfg, err := opts.load()
				if err != nil {
					return err
				}
				st, err := openStore(cfg)
				if err != nil {
					return fmt.Errorf("open store: %w", err)
				}
				defer st.Close()
				if overrides, err = classify.NewOverrides(st); err != nil {
					return err
				}
			}

			c := classify.New(overrides)
			fmt.Fprintln(out, c.Label(postID, strings.Join(args, " "), language))
			return nil
		},
	}

	cmd.Flags().StringVarP(&language, "lang", "l", "", "Post language, used when no rule matches")
	cmd.Flags().Int64Var(&postID, "id", 0, "Post id whose stored override should apply")
	cmd.Flags().BoolVar(&rules, "rules", false, "Print the rule table in evaluation order")

	return cmd
}
