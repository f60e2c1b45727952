package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/gabrielmiguelok/formwizard/internal/terminal"
	"github.com/gabrielmiguelok/formwizard/pkg/logging"
	"github.com/gabrielmiguelok/formwizard/pkg/wizard"
)

var fillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Fill in the wizard interactively in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
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
		ctrl, err := wizard.NewController(def, drafts, wizard.LogSubmitter{Logger: logger},
			wizard.WithLogger(logger.With(logging.String("draft", drafts.Key()))),
			wizard.WithToastDuration(cfg.Toast.Duration),
		)
		if err != nil {
			return err
		}

		prompter := terminal.SurveyPrompter{Opts: []survey.AskOpt{survey.WithStdio(os.Stdin, os.Stderr, os.Stderr)}}
		err = terminal.NewRunner(ctrl, prompter, os.Stderr).Run(cmd.Context())
		if errors.Is(err, terminal.ErrAborted) {
			fmt.Fprintln(os.Stderr, "aborted")
			return nil
		}
		return err
	},
}
