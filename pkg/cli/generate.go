package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/devmock/devmock/pkg/openapi"
)

var generateOutput string

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate mock route files from API descriptions",
}

var generateOpenAPICmd = &cobra.Command{
	Use:   "openapi <spec-file>",
	Short: "Convert an OpenAPI 3 document into a mock route file",
	Long: `Read an OpenAPI 3 document (JSON or YAML) and emit one mock route per
operation. Responses come from the first 2xx response's example, or a
skeleton built from its schema. The result is a plain route file you
can edit and drop into the mock directory.`,
	Example: `  # Print generated routes to stdout
  devmock generate openapi api.yaml

  # Write them straight into the mock directory
  devmock generate openapi api.yaml -o mocks/petstore.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerateOpenAPI(args[0], generateOutput)
	},
}

func init() {
	generateOpenAPICmd.Flags().StringVarP(&generateOutput, "output", "o", "", "Write routes to this file instead of stdout")
	generateCmd.AddCommand(generateOpenAPICmd)
	rootCmd.AddCommand(generateCmd)
}

func runGenerateOpenAPI(specPath, outPath string) error {
	data, err := os.ReadFile(specPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", specPath, err)
	}

	routes, err := openapi.Import(data)
	if err != nil {
		return fmt.Errorf("import %s: %w", specPath, err)
	}

	out, err := json.MarshalIndent(routes, "", "  ")
	if err != nil {
		return err
	}
	out = append(out, '\n')

	if outPath == "" {
		_, err = os.Stdout.Write(out)
		return err
	}
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	fmt.Printf("%s: %d route(s) from %s\n", outPath, len(routes), specPath)
	return nil
}
