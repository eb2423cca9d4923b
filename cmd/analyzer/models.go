package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	selectModel string
	parserModel string
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Sign in and list the models that can generate text",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if a.Config.APIKey != "" {
			if _, err := a.Session.Authenticate(ctx, a.Config.APIKey); err != nil {
				return err
			}
		} else if err := requireModels(ctx, a); err != nil {
			return err
		}
		if selectModel != "" {
			if err := a.Session.Catalog.Select(selectModel); err != nil {
				return err
			}
		}
		if parserModel != "" {
			if err := a.Session.SetParserModel(parserModel); err != nil {
				return err
			}
		}
		defer a.SaveSnapshot()

		selected, _ := a.Session.Catalog.Selected()
		parser, _ := a.Session.ParserModel()
		fmt.Println(headerStyle.Render(fmt.Sprintf("Models (%s)", a.Session.Tier())))
		for _, m := range a.Session.Catalog.Models() {
			line := "  " + m.DisplayLabel
			if m.InternalID == selected.InternalID {
				line = selectedStyle.Render("* " + m.DisplayLabel)
			}
			if m.InternalID == parser.InternalID {
				line += idStyle.Render(" (parser)")
			}
			fmt.Printf("%s %s\n", line, idStyle.Render(m.InternalID))
		}
		return nil
	},
}

func init() {
	modelsCmd.Flags().StringVar(&selectModel, "select", "", "Display name of the model to use for analysis")
	modelsCmd.Flags().StringVar(&parserModel, "parser-model", "", "Display name of the model used to extract participants")
	rootCmd.AddCommand(modelsCmd)
}
