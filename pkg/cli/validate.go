package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/devmock/devmock/pkg/registry"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file|glob>...",
	Short: "Check route definition files without serving them",
	Long: `Parse and validate mock route files. Each file is loaded exactly the
way the server loads it, so a file that validates here will serve.
Patterns support ** globs; quote them to keep the shell out.`,
	Example: `  # Validate a single file
  devmock validate mocks/routes.json

  # Validate a whole tree
  devmock validate "mocks/**/*.yaml"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(args)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(patterns []string) error {
	files, err := expandGlobs(patterns)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files matched %s", strings.Join(patterns, " "))
	}

	loader := registry.NewLoader()
	failed := 0
	total := 0
	for _, path := range files {
		routes, err := loader.LoadFile(path)
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			continue
		}
		total += len(routes)
		fmt.Printf("%s: %d route(s)\n", path, len(routes))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed validation", failed, len(files))
	}
	fmt.Printf("%d file(s) valid, %d route(s)\n", len(files), total)
	return nil
}

// expandGlobs resolves ** patterns to file paths. Literal paths pass
// through untouched so a typo'd filename fails loudly in LoadFile
// instead of silently matching nothing.
func expandGlobs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, pattern := range patterns {
		if !strings.ContainsAny(pattern, "*?[{") {
			add(pattern)
			continue
		}
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			add(m)
		}
	}

	sort.Strings(files)
	return files, nil
}
