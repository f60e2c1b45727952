package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gabrielmiguelok/formwizard/pkg/state"
	"github.com/gabrielmiguelok/formwizard/pkg/wizard"
)

var draftFlags struct {
	client string
}

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Inspect or remove saved drafts",
}

var draftShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the saved draft",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDrafts(func(drafts *wizard.DraftStore, _ state.Store) error {
			values, err := drafts.Load(cmd.Context())
			if errors.Is(err, wizard.ErrNoDraft) {
				fmt.Fprintf(cmd.ErrOrStderr(), "no draft under %q\n", drafts.Key())
				return nil
			}
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(values)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		})
	},
}

var draftClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the saved draft",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDrafts(func(drafts *wizard.DraftStore, _ state.Store) error {
			if err := drafts.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "cleared %q\n", drafts.Key())
			return nil
		})
	},
}

var draftListCmd = &cobra.Command{
	Use:   "list",
	Short: "List draft slots, including per-browser ones",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDrafts(func(drafts *wizard.DraftStore, store state.Store) error {
			keys, err := store.Keys(cmd.Context(), "*")
			if err != nil {
				return err
			}
			for _, k := range keys {
				if k == drafts.Key() || strings.HasSuffix(k, ":"+drafts.Key()) {
					fmt.Fprintln(cmd.OutOrStdout(), k)
				}
			}
			return nil
		})
	},
}

func init() {
	draftCmd.PersistentFlags().StringVar(&draftFlags.client, "client", "", "browser client id whose draft to use")

	draftCmd.AddCommand(draftShowCmd)
	draftCmd.AddCommand(draftClearCmd)
	draftCmd.AddCommand(draftListCmd)
}

func withDrafts(fn func(drafts *wizard.DraftStore, store state.Store) error) error {
	def, err := cfg.LoadDefinition()
	if err != nil {
		return err
	}
	store, err := cfg.OpenStore()
	if err != nil {
		return err
	}
	defer store.Close()

	drafts, err := cfg.DraftStore(store, def)
	if err != nil {
		return err
	}
	return fn(drafts.Scoped(draftFlags.client), store)
}
