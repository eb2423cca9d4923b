package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"chat-insights-go/internal/config"
	"chat-insights-go/internal/prompts"
)

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Manage the prompt library",
}

func openLibrary() (*prompts.Library, error) {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return nil, err
	}
	return prompts.Load(cfg.PromptsPath)
}

var promptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored prompts",
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := openLibrary()
		if err != nil {
			return err
		}
		list := lib.List()
		fmt.Println(headerStyle.Render(fmt.Sprintf("Prompts (%d)", len(list))))
		for _, p := range list {
			name := p.Name
			if p.ID == prompts.DefaultID {
				name = selectedStyle.Render(name)
			}
			fmt.Printf("%s %s\n", name, idStyle.Render(p.ID))
			if p.UserQuery != "" {
				fmt.Printf("    %s\n", statusStyle.Render(p.UserQuery))
			}
		}
		return nil
	},
}

var promptsImportCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Replace the library with prompts from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := openLibrary()
		if err != nil {
			return err
		}
		if err := lib.Import(args[0]); err != nil {
			return err
		}
		fmt.Printf("Imported %d prompts from %s\n", len(lib.List()), args[0])
		return nil
	},
}

var promptsExportCmd = &cobra.Command{
	Use:   "export <file.json>",
	Short: "Write the library to a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := openLibrary()
		if err != nil {
			return err
		}
		if err := lib.Export(args[0]); err != nil {
			return err
		}
		fmt.Printf("Exported %d prompts to %s\n", len(lib.List()), args[0])
		return nil
	},
}

var promptsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored prompt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := openLibrary()
		if err != nil {
			return err
		}
		return lib.Delete(args[0])
	},
}

func init() {
	promptsCmd.AddCommand(promptsListCmd, promptsImportCmd, promptsExportCmd, promptsDeleteCmd)
	rootCmd.AddCommand(promptsCmd)
}
