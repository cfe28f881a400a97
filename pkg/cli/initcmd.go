package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/devmock/devmock/pkg/config"
)

var (
	initDir    string
	initPrefix string
	initOutput string
	initSample string
	initForce  bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold a mock directory and configuration file",
	Long: `Create a devmock configuration file and a mock directory with a sample
route file, ready for 'devmock serve'. Run without flags for a short
interactive setup; any flag skips the prompts.`,
	Example: `  # Interactive setup
  devmock init

  # Non-interactive, custom locations
  devmock init --dir ./fixtures --prefix /api/v2 -o devmock.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Bare "devmock init" walks through the form; any flag skips it.
		if cmd.Flags().NFlag() == 0 {
			if err := runInitForm(); err != nil {
				return err
			}
		}
		return runInit(initDir, initPrefix, initOutput, initSample, initForce)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVarP(&initDir, "dir", "d", config.DefaultDir, "Mock root directory to create")
	initCmd.Flags().StringVar(&initPrefix, "prefix", config.DefaultPrefix, "Path prefix to intercept, / for all")
	initCmd.Flags().StringVarP(&initOutput, "output", "o", "devmock.yaml", "Configuration filename to write")
	initCmd.Flags().StringVar(&initSample, "sample", "basic", "Sample route file: basic, users or none")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing configuration file")
}

func runInitForm() error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Where should mock files live?").
				Value(&initDir).
				Validate(func(s string) error {
					if s == "" {
						return errors.New("directory is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Which path prefix should be intercepted? (use / for all)").
				Value(&initPrefix).
				Validate(func(s string) error {
					if !strings.HasPrefix(s, "/") {
						return errors.New("prefix must start with /")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Which sample routes should be included?").
				Options(
					huh.NewOption("Basic (hello, echo)", "basic"),
					huh.NewOption("Users (template-generated CRUD)", "users"),
					huh.NewOption("None", "none"),
				).
				Value(&initSample),
		),
	)
	return form.Run()
}

func runInit(dir, prefix, output, sample string, force bool) error {
	routes, err := sampleRoutes(sample, prefix)
	if err != nil {
		return err
	}

	if _, err := os.Stat(output); err == nil && !force {
		return fmt.Errorf("%s already exists, use --force to overwrite", output)
	}

	cfg := config.Default()
	cfg.Dir = dir
	cfg.Prefix = prefix
	if err := config.Save(output, cfg); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	fmt.Printf("Created %s\n", output)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create mock directory: %w", err)
	}

	if routes != "" {
		routeFile := filepath.Join(dir, "routes.json")
		if _, err := os.Stat(routeFile); err == nil && !force {
			fmt.Printf("Kept existing %s\n", routeFile)
		} else {
			if err := os.WriteFile(routeFile, []byte(routes), 0o644); err != nil {
				return fmt.Errorf("write sample routes: %w", err)
			}
			fmt.Printf("Created %s\n", routeFile)
		}
	}

	fmt.Println("\nStart serving with:")
	fmt.Println("  devmock serve")
	return nil
}

// sampleRoutes renders the requested starter route file. Paths are
// placed under the chosen prefix so the samples answer out of the box.
func sampleRoutes(sample, prefix string) (string, error) {
	base := strings.TrimSuffix(prefix, "/")
	switch sample {
	case "basic":
		return fmt.Sprintf(`[
  {
    "url": "%[1]s/hello",
    "method": "GET",
    "response": {"message": "Hello from devmock", "time": "{{now}}"}
  },
  {
    "url": "%[1]s/echo",
    "method": "POST",
    "response": {"youSent": "{{body.message}}", "id": "{{uuid}}"}
  }
]
`, base), nil
	case "users":
		return fmt.Sprintf(`[
  {
    "url": "%[1]s/users",
    "method": "GET",
    "template": "user",
    "count": 5
  },
  {
    "url": "%[1]s/users/:id",
    "method": "GET",
    "template": "user"
  },
  {
    "url": "%[1]s/users",
    "method": "POST",
    "statusCode": 201,
    "response": {"id": "{{uuid}}", "name": "{{body.name}}"}
  }
]
`, base), nil
	case "none":
		return "", nil
	default:
		return "", fmt.Errorf("unknown sample %q, expected basic, users or none", sample)
	}
}
