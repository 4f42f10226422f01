package document

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const sampleV3 = `openapi: 3.0.0
info:
  title: Sample API
  version: "1.0.0"
paths:
  /widgets:
    get:
      responses:
        "200":
          description: ok
components:
  schemas:
    Widget:
      type: object
      properties:
        id:
          type: string
`

func writeTempSpec(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(strings.TrimSpace(content)+"\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoad_V3_File(t *testing.T) {
	t.Parallel()
	path := writeTempSpec(t, "api.yaml", sampleV3)

	doc, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if v, _ := doc.Root["openapi"].(string); !strings.HasPrefix(v, "3.") {
		t.Fatalf("expected openapi 3.x, got %q", v)
	}
	if _, ok := doc.Schemas()["Widget"]; !ok {
		t.Fatalf("expected Widget schema to survive loading")
	}
}

func TestLoad_BlocksFileURL(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), "file:///etc/hosts")
	if err == nil {
		t.Fatalf("expected error for file:// URL")
	}
	var derr *Error
	if !errors.As(err, &derr) || derr.Code != InputError {
		t.Fatalf("expected InputError, got %v (%T)", err, err)
	}
}

func TestLoad_AllowFileRefs(t *testing.T) {
	t.Parallel()
	path := writeTempSpec(t, "api.yaml", sampleV3)

	doc, err := Load(context.Background(), "file://"+path, WithAllowFileRefs(true))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc == nil || doc.Root == nil {
		t.Fatalf("expected document")
	}
}

func TestLoad_UnsupportedScheme(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), "ftp://example.com/spec.yaml")
	if err == nil {
		t.Fatalf("expected error for unsupported scheme")
	}
	var derr *Error
	if !errors.As(err, &derr) || derr.Code != InputError {
		t.Fatalf("expected InputError, got %v (%T)", err, err)
	}
}

func TestLoad_NetworkError(t *testing.T) {
	t.Parallel()
	// Unused port to provoke a quick network failure.
	url := "http://127.0.0.1:1/spec.yaml"
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := Load(ctx, url, WithHTTPTimeout(200*time.Millisecond), WithMaxRetries(2), WithBackoffBase(10*time.Millisecond))
	if err == nil {
		t.Fatalf("expected network error")
	}
	var derr *Error
	if !errors.As(err, &derr) || derr.Code != NetworkError {
		t.Fatalf("expected NetworkError, got %v (%T)", err, err)
	}
}

func TestLoad_HTTPRetriesTransientFailures(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(sampleV3))
	}))
	defer srv.Close()

	doc, err := Load(context.Background(), srv.URL, WithMaxRetries(3), WithBackoffBase(10*time.Millisecond))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc == nil {
		t.Fatalf("expected document after retry")
	}
	if calls.Load() < 2 {
		t.Fatalf("expected a retry, got %d calls", calls.Load())
	}
}

func TestLoad_V2_Conversion(t *testing.T) {
	t.Parallel()
	path := writeTempSpec(t, "swagger.yaml", `swagger: "2.0"
info:
  title: Sample
  version: "1.0.0"
paths:
  "/hello":
    get:
      responses:
        "200":
          description: ok
`)

	doc, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if v, _ := doc.Root["openapi"].(string); !strings.HasPrefix(v, "3.") {
		t.Fatalf("expected converted document to be v3, got %q", v)
	}
	if _, ok := doc.Paths()["/hello"]; !ok {
		t.Fatalf("expected /hello path to survive conversion")
	}
}

func TestFromBytes_UnknownVersion(t *testing.T) {
	t.Parallel()
	_, err := FromBytes([]byte("info:\n  title: nope\n"))
	if err == nil {
		t.Fatalf("expected error for missing version")
	}
	var derr *Error
	if !errors.As(err, &derr) || derr.Code != ParseError {
		t.Fatalf("expected ParseError, got %v (%T)", err, err)
	}
}

func TestPreprocessV2_MergesMultipleBodyParams(t *testing.T) {
	t.Parallel()
	root := map[string]any{
		"paths": map[string]any{
			"/things": map[string]any{
				"post": map[string]any{
					"parameters": []any{
						map[string]any{"in": "body", "name": "first", "required": true, "schema": map[string]any{"type": "string"}},
						map[string]any{"in": "body", "name": "second", "schema": map[string]any{"type": "integer"}},
						map[string]any{"in": "query", "name": "verbose"},
					},
				},
			},
		},
	}

	fixed, changed := preprocessV2Document(root)
	if !changed {
		t.Fatalf("expected preprocessing to rewrite the document")
	}
	op := fixed["paths"].(map[string]any)["/things"].(map[string]any)["post"].(map[string]any)
	params := op["parameters"].([]any)
	if len(params) != 2 {
		t.Fatalf("expected merged body + query param, got %d", len(params))
	}
	body := params[0].(map[string]any)
	schema := body["schema"].(map[string]any)
	props := schema["properties"].(map[string]any)
	if _, ok := props["first"]; !ok {
		t.Fatalf("expected merged body schema to keep property 'first'")
	}
	if _, ok := props["second"]; !ok {
		t.Fatalf("expected merged body schema to keep property 'second'")
	}
}
