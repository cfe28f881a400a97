package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/devmock/devmock/pkg/registry"
)

const widgetSpec = `openapi: 3.0.3
info:
  title: Widgets
  version: "1.0"
paths:
  /widgets:
    get:
      responses:
        "200":
          description: list widgets
          content:
            application/json:
              example:
                items:
                  - id: 1
                    name: sprocket
  /widgets/{id}:
    parameters:
      - name: id
        in: path
        required: true
        schema:
          type: string
    get:
      responses:
        "200":
          description: one widget
`

func TestRunGenerateOpenAPIWritesRouteFile(t *testing.T) {
	tmpDir := t.TempDir()
	specPath := filepath.Join(tmpDir, "widgets.yaml")
	outPath := filepath.Join(tmpDir, "routes.json")
	writeFile(t, specPath, widgetSpec)

	if err := runGenerateOpenAPI(specPath, outPath); err != nil {
		t.Fatalf("runGenerateOpenAPI failed: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var routes []map[string]any
	if err := json.Unmarshal(data, &routes); err != nil {
		t.Fatalf("output is not a JSON route array: %v", err)
	}
	if len(routes) != 2 {
		t.Fatalf("expected 2 routes, got %d", len(routes))
	}
	if routes[0]["url"] != "/widgets" {
		t.Errorf("expected /widgets first, got %v", routes[0]["url"])
	}
	if routes[1]["url"] != "/widgets/:id" {
		t.Errorf("expected {id} converted to :id, got %v", routes[1]["url"])
	}
	if routes[0]["method"] != "GET" {
		t.Errorf("expected GET, got %v", routes[0]["method"])
	}

	// The generated file must load the same way served files do.
	loaded, err := registry.NewLoader().LoadFile(outPath)
	if err != nil {
		t.Fatalf("generated file does not load: %v", err)
	}
	if len(loaded) != 2 {
		t.Errorf("expected 2 loadable routes, got %d", len(loaded))
	}
}

func TestRunGenerateOpenAPIMissingSpec(t *testing.T) {
	err := runGenerateOpenAPI(filepath.Join(t.TempDir(), "ghost.yaml"), "")
	if err == nil {
		t.Fatal("expected error for missing spec file")
	}
}

func TestRunGenerateOpenAPIInvalidSpec(t *testing.T) {
	tmpDir := t.TempDir()
	specPath := filepath.Join(tmpDir, "bad.yaml")
	writeFile(t, specPath, "openapi: 3.0.3\ninfo:\n  title: broken\npaths: {}\n")

	err := runGenerateOpenAPI(specPath, filepath.Join(tmpDir, "out.json"))
	if err == nil {
		t.Fatal("expected error for invalid spec")
	}
}
