package main

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold a facet.yml and schema file interactively",
	RunE:  runInit,
}

const configTemplate = `database:
  driver: sqlite3
  url: facet.db
redis:
  addr: ""
schema: schema.yml
`

const schemaTemplate = `entity: %s
fields:
  - name: uid
    type: puter-uuid
    prefix: %s
    generate: true
  - name: title
    type: string
    maxlen: 120
  - name: tags
    type: array
  - name: owner
    type: reference
    service: users
  - name: icon
    type: fsnode
    permission: see
`

func runInit(cmd *cobra.Command, args []string) error {
	var entity string
	prompt := &survey.Input{
		Message: "Entity name:",
		Default: "documents",
	}
	if err := survey.AskOne(prompt, &entity, survey.WithValidator(survey.Required)); err != nil {
		return err
	}

	var prefix string
	if err := survey.AskOne(&survey.Input{
		Message: "Identifier prefix for generated uids:",
		Default: entity[:min(3, len(entity))],
	}, &prefix); err != nil {
		return err
	}

	for _, target := range []string{"facet.yml", "schema.yml"} {
		if _, err := os.Stat(target); err == nil {
			overwrite := false
			if err := survey.AskOne(&survey.Confirm{
				Message: fmt.Sprintf("%s exists. Overwrite?", target),
			}, &overwrite); err != nil {
				return err
			}
			if !overwrite {
				return fmt.Errorf("aborted: %s exists", target)
			}
		}
	}

	if err := os.WriteFile("facet.yml", []byte(configTemplate), 0o644); err != nil {
		return err
	}
	if err := os.WriteFile("schema.yml", []byte(fmt.Sprintf(schemaTemplate, entity, prefix)), 0o644); err != nil {
		return err
	}

	green := color.New(color.FgGreen, color.Bold)
	green.Println("Wrote facet.yml and schema.yml")
	fmt.Println("Run `facet validate --records records.json` to process records.")
	return nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
