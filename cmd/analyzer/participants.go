package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"chat-insights-go/internal/teams"
)

var (
	assignA  []string
	assignB  []string
	unassign []string
	skipLLM  bool
)

var participantsCmd = &cobra.Command{
	Use:   "participants",
	Short: "Extract participants from the chat and assign them to teams",
	Long: `Extract participants from the loaded chat with the parser model, then
apply --group-a, --group-b and --unassign before printing both teams.
Pass --keep to edit the saved teams without asking the model again.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if !skipLLM {
			if err := requireModels(ctx, a); err != nil {
				return err
			}
			if parserModel != "" {
				if err := a.Session.SetParserModel(parserModel); err != nil {
					return err
				}
			}
			if _, err := a.Session.ParseParticipants(ctx); err != nil {
				return err
			}
		}
		a.Session.Teams.Assign(assignA, teams.GroupA)
		a.Session.Teams.Assign(assignB, teams.GroupB)
		a.Session.Teams.Unassign(unassign)
		a.SaveSnapshot()

		printTeams(a.Session.Teams.View())
		return nil
	},
}

func printTeams(v teams.View) {
	fmt.Println(headerStyle.Render(fmt.Sprintf("Participants (%d)", len(v.Participants))))
	row := func(name string, members []string) {
		list := "None"
		if len(members) > 0 {
			list = strings.Join(members, ", ")
		}
		fmt.Printf("%s %s\n", groupStyle.Render(name+":"), list)
	}
	row(v.GroupAName, v.GroupA)
	row(v.GroupBName, v.GroupB)
	row("Unassigned", v.Unassigned)
}

func init() {
	f := participantsCmd.Flags()
	f.StringSliceVar(&assignA, "group-a", nil, "Participants to put in the first team")
	f.StringSliceVar(&assignB, "group-b", nil, "Participants to put in the second team")
	f.StringSliceVar(&unassign, "unassign", nil, "Participants to take out of both teams")
	f.StringVar(&parserModel, "parser-model", "", "Display name of the model used to extract participants")
	f.BoolVar(&skipLLM, "keep", false, "Keep the saved participant list")
	rootCmd.AddCommand(participantsCmd)
}
