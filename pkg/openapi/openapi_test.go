package openapi

import (
	"testing"
)

const petstoreJSON = `{
  "openapi": "3.0.3",
  "info": {"title": "Petstore", "version": "1.0.0"},
  "paths": {
    "/pets": {
      "get": {
        "responses": {
          "200": {
            "description": "pet list",
            "content": {
              "application/json": {
                "example": {"pets": [{"id": 1, "name": "Rex"}]}
              }
            }
          }
        }
      },
      "post": {
        "responses": {
          "201": {
            "description": "created",
            "content": {
              "application/json": {
                "schema": {
                  "type": "object",
                  "example": {"id": 2, "name": "Bella"}
                }
              }
            }
          }
        }
      }
    },
    "/pets/{petId}": {
      "parameters": [
        {"name": "petId", "in": "path", "required": true, "schema": {"type": "string"}}
      ],
      "get": {
        "responses": {
          "200": {"description": "one pet"},
          "404": {"description": "missing"}
        }
      },
      "delete": {
        "responses": {
          "204": {"description": "deleted"}
        }
      }
    }
  }
}`

func TestImport(t *testing.T) {
	routes, err := Import([]byte(petstoreJSON))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if len(routes) != 4 {
		t.Fatalf("expected 4 routes, got %d", len(routes))
	}

	// paths sorted, operations in method order within a path
	wantLabels := []string{
		"GET /pets",
		"POST /pets",
		"GET /pets/:petId",
		"DELETE /pets/:petId",
	}
	for i, want := range wantLabels {
		if routes[i].Label() != want {
			t.Errorf("route %d: expected %q, got %q", i, want, routes[i].Label())
		}
	}
}

func TestImportExampleBodies(t *testing.T) {
	routes, err := Import([]byte(petstoreJSON))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	list, ok := routes[0].Body.(map[string]any)
	if !ok {
		t.Fatalf("expected media-type example as body, got %T", routes[0].Body)
	}
	if _, ok := list["pets"]; !ok {
		t.Errorf("expected pets key in body, got %#v", list)
	}

	created, ok := routes[1].Body.(map[string]any)
	if !ok {
		t.Fatalf("expected schema example as body, got %T", routes[1].Body)
	}
	if created["name"] != "Bella" {
		t.Errorf("expected schema example body, got %#v", created)
	}
	if routes[1].StatusCode != 201 {
		t.Errorf("expected status 201, got %d", routes[1].StatusCode)
	}
}

func TestImportFallbackBodies(t *testing.T) {
	routes, err := Import([]byte(petstoreJSON))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	// GET /pets/:petId has a 200 with no content: minimal ok body
	body, ok := routes[2].Body.(map[string]any)
	if !ok {
		t.Fatalf("expected fallback body, got %T", routes[2].Body)
	}
	if body["status"] != "ok" {
		t.Errorf("unexpected fallback body: %#v", body)
	}

	// DELETE /pets/:petId is a 204: no body at all
	if routes[3].StatusCode != 204 {
		t.Errorf("expected status 204, got %d", routes[3].StatusCode)
	}
	if routes[3].Body != nil {
		t.Errorf("expected no body for 204, got %#v", routes[3].Body)
	}
}

func TestImportYAML(t *testing.T) {
	spec := `
openapi: 3.0.3
info:
  title: Minimal
  version: 1.0.0
paths:
  /health:
    get:
      responses:
        "200":
          description: ok
          content:
            application/json:
              example:
                healthy: true
`
	routes, err := Import([]byte(spec))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if len(routes) != 1 {
		t.Fatalf("expected 1 route, got %d", len(routes))
	}
	body := routes[0].Body.(map[string]any)
	if body["healthy"] != true {
		t.Errorf("unexpected body: %#v", body)
	}
}

func TestImportNonJSONContent(t *testing.T) {
	spec := `{
  "openapi": "3.0.3",
  "info": {"title": "Text", "version": "1.0.0"},
  "paths": {
    "/banner": {
      "get": {
        "responses": {
          "200": {
            "description": "banner",
            "content": {
              "text/plain": {"example": "hello"}
            }
          }
        }
      }
    }
  }
}`
	routes, err := Import([]byte(spec))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if routes[0].Body != "hello" {
		t.Errorf("expected raw text body, got %#v", routes[0].Body)
	}
	if routes[0].Headers["Content-Type"] != "text/plain" {
		t.Errorf("expected content type header, got %#v", routes[0].Headers)
	}
}

func TestImportRejectsGarbage(t *testing.T) {
	if _, err := Import([]byte(`{"not": "openapi"}`)); err == nil {
		t.Error("expected an error for a non-OpenAPI document")
	}
}

func TestConvertPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/pets", "/pets"},
		{"/pets/{petId}", "/pets/:petId"},
		{"/a/{b}/c/{d}", "/a/:b/c/:d"},
		{"/weird/{}", "/weird/{}"},
	}
	for _, tt := range tests {
		if got := convertPath(tt.in); got != tt.want {
			t.Errorf("convertPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
