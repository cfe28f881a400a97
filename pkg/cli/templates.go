package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/devmock/devmock/pkg/template"
)

var templatesCount int

var templatesCmd = &cobra.Command{
	Use:   "templates [name]",
	Short: "List data templates or preview their generated output",
	Long: `Without arguments, list the built-in data templates a route can name in
its "template" field. With a name, print a freshly generated sample so
you can see the shape before wiring it into a route.`,
	Example: `  # List the available templates and their fields
  devmock templates

  # Preview one generated user
  devmock templates user

  # Preview a list of three products
  devmock templates product --count 3`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return runTemplatesList()
		}
		return runTemplatesPreview(args[0], templatesCount)
	},
}

func init() {
	templatesCmd.Flags().IntVarP(&templatesCount, "count", "n", 1, "Number of values to generate")
	rootCmd.AddCommand(templatesCmd)
}

func runTemplatesList() error {
	title := cases.Title(language.English)
	fmt.Println("Built-in templates:")
	for _, name := range template.Names() {
		v, err := template.Generate(name, 1)
		if err != nil {
			return err
		}
		fmt.Printf("  %-10s %s\n", title.String(name), strings.Join(fieldNames(v), ", "))
	}
	fmt.Println("\nPreview one with 'devmock templates <name>'.")
	return nil
}

func runTemplatesPreview(name string, count int) error {
	if count < 1 {
		return fmt.Errorf("count must be at least 1, got %d", count)
	}
	v, err := template.Generate(name, count)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func fieldNames(v any) []string {
	fields, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
