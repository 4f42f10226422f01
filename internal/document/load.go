package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	openapi2 "github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"gopkg.in/yaml.v3"
)

// Settings configures loader behavior.
type Settings struct {
	// HTTPTimeout bounds each HTTP request.
	HTTPTimeout time.Duration
	// MaxRetries for transient HTTP failures (>=500, 429, or network errors).
	MaxRetries int
	// BackoffBase is the base delay for exponential backoff.
	BackoffBase time.Duration
	// AllowFileRefs permits file:// inputs.
	AllowFileRefs bool
}

// DefaultSettings returns recommended defaults.
func DefaultSettings() Settings {
	return Settings{
		HTTPTimeout: 10 * time.Second,
		MaxRetries:  3,
		BackoffBase: 200 * time.Millisecond,
	}
}

// Option mutates Settings.
type Option func(*Settings)

func WithHTTPTimeout(d time.Duration) Option  { return func(s *Settings) { s.HTTPTimeout = d } }
func WithMaxRetries(n int) Option             { return func(s *Settings) { s.MaxRetries = n } }
func WithBackoffBase(d time.Duration) Option  { return func(s *Settings) { s.BackoffBase = d } }
func WithAllowFileRefs(allow bool) Option     { return func(s *Settings) { s.AllowFileRefs = allow } }

// Load reads a bundled OpenAPI document and returns its raw tree. If the
// input is Swagger v2.0, it is up-converted to v3 via kin-openapi before the
// pipeline sees it.
//
// input may be a filesystem path or an http/https URL. The document is
// assumed to be $ref-bundled; external references are not followed.
func Load(ctx context.Context, input string, opts ...Option) (*Document, error) {
	if strings.TrimSpace(input) == "" {
		return nil, &Error{Code: InputError, Message: "document: input is empty"}
	}

	settings := DefaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}

	// Classify input as URL or file path.
	u, uerr := url.Parse(input)
	isURL := uerr == nil && u.Scheme != "" && (u.Host != "" || strings.EqualFold(u.Scheme, "file"))

	var raw []byte
	location := input
	if isURL {
		scheme := strings.ToLower(u.Scheme)
		if scheme == "file" {
			if !settings.AllowFileRefs {
				return nil, &Error{Code: InputError, Message: "document: file:// inputs are disabled (enable with WithAllowFileRefs)", Location: input}
			}
			isURL = false
			input = u.Path
		} else if scheme != "http" && scheme != "https" {
			return nil, &Error{Code: InputError, Message: fmt.Sprintf("document: unsupported URL scheme %q (only http/https allowed)", scheme), Location: input}
		}
	}
	if isURL {
		fetched, err := fetchWithRetry(ctx, input, settings)
		if err != nil {
			return nil, &Error{Code: NetworkError, Message: fmt.Sprintf("fetch %s: %v", input, err), Location: input, Cause: err}
		}
		raw = fetched
	} else {
		abs, err := filepath.Abs(input)
		if err != nil {
			return nil, &Error{Code: InputError, Message: fmt.Sprintf("resolve path: %v", err), Location: input, Cause: err}
		}
		location = abs
		raw, err = os.ReadFile(abs)
		if err != nil {
			return nil, &Error{Code: InputError, Message: fmt.Sprintf("read file %s: %v", abs, err), Location: abs, Cause: err}
		}
	}

	doc, err := FromBytes(raw)
	if err != nil {
		var derr *Error
		if errors.As(err, &derr) && derr.Location == "" {
			derr.Location = location
		}
		return nil, err
	}
	return doc, nil
}

// FromBytes parses YAML or JSON document bytes, up-converting Swagger v2.0
// when necessary.
func FromBytes(raw []byte) (*Document, error) {
	var root map[string]any
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return nil, &Error{Code: ParseError, Message: fmt.Sprintf("parse document: %v", err), Cause: err}
	}

	switch detectVersion(root) {
	case 3:
		return &Document{Root: root}, nil
	case 2:
		if fixed, changed := preprocessV2Document(root); changed {
			root = fixed
		}
		converted, err := convertV2ToV3(root)
		if err != nil {
			return nil, &Error{Code: ConversionError, Message: fmt.Sprintf("convert v2 to v3: %v", err), Cause: err}
		}
		return &Document{Root: converted}, nil
	default:
		return nil, &Error{Code: ParseError, Message: "document: missing or unknown version (expected 'openapi: 3.x' or 'swagger: 2.0')"}
	}
}

// detectVersion returns 3 for OpenAPI v3, 2 for Swagger v2, else 0.
func detectVersion(root map[string]any) int {
	if v, ok := root["openapi"]; ok {
		if s, _ := v.(string); strings.HasPrefix(strings.TrimSpace(s), "3.") {
			return 3
		}
	}
	if v, ok := root["swagger"]; ok {
		if s, _ := v.(string); strings.HasPrefix(strings.TrimSpace(s), "2.") {
			return 2
		}
	}
	return 0
}

func convertV2ToV3(root map[string]any) (map[string]any, error) {
	data, err := yaml.Marshal(root)
	if err != nil {
		return nil, err
	}
	var v2 openapi2.T
	if err := yaml.Unmarshal(data, &v2); err != nil {
		return nil, err
	}
	v3, err := openapi2conv.ToV3(&v2)
	if err != nil {
		return nil, err
	}
	// Round-trip through JSON to get back to the raw tree form the pipeline
	// rewrites.
	encoded, err := json.Marshal(v3)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(encoded, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// preprocessV2Document rewrites non-compliant Swagger v2 operations so
// kin-openapi can convert them: operations with multiple body parameters get
// them merged into a single body parameter whose schema is an object with one
// property per original parameter.
func preprocessV2Document(root map[string]any) (map[string]any, bool) {
	paths, ok := root["paths"].(map[string]any)
	if !ok || len(paths) == 0 {
		return root, false
	}
	modified := false
	for _, pim := range paths {
		pi, ok := pim.(map[string]any)
		if !ok {
			continue
		}
		for method, opm := range pi {
			switch strings.ToLower(method) {
			case "get", "post", "put", "delete", "patch", "options", "head":
			default:
				continue
			}
			op, ok := opm.(map[string]any)
			if !ok {
				continue
			}
			params, ok := op["parameters"].([]any)
			if !ok {
				continue
			}
			bodyCount := 0
			for _, p := range params {
				if pm, _ := p.(map[string]any); pm != nil {
					if in, _ := pm["in"].(string); strings.EqualFold(in, "body") {
						bodyCount++
					}
				}
			}
			if bodyCount < 2 {
				continue
			}
			props := map[string]any{}
			required := make([]any, 0)
			rest := make([]any, 0, len(params))
			for _, p := range params {
				pm, _ := p.(map[string]any)
				if pm == nil {
					continue
				}
				if in, _ := pm["in"].(string); strings.EqualFold(in, "body") {
					name, _ := pm["name"].(string)
					if name == "" {
						name = "field"
					}
					schema, _ := pm["schema"].(map[string]any)
					if schema == nil {
						schema = map[string]any{"type": "string"}
					}
					props[name] = schema
					if rb, _ := pm["required"].(bool); rb {
						required = append(required, name)
					}
					continue
				}
				rest = append(rest, p)
			}
			bodySchema := map[string]any{"type": "object", "properties": props}
			if len(required) > 0 {
				bodySchema["required"] = required
			}
			merged := map[string]any{"in": "body", "name": "body", "schema": bodySchema}
			op["parameters"] = append([]any{merged}, rest...)
			modified = true
		}
	}
	return root, modified
}

func fetchWithRetry(ctx context.Context, rawURL string, settings Settings) ([]byte, error) {
	client := &http.Client{Timeout: settings.HTTPTimeout}
	var lastErr error
	backoff := settings.BackoffBase
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	attempts := settings.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err == nil && resp != nil && resp.StatusCode < 300 {
			defer resp.Body.Close()
			return io.ReadAll(resp.Body)
		}
		if err != nil {
			lastErr = err
		} else {
			defer resp.Body.Close()
			if resp.StatusCode >= 500 || resp.StatusCode == 429 {
				lastErr = fmt.Errorf("transient http error %d", resp.StatusCode)
			} else {
				body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
				return nil, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
			}
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	if lastErr == nil {
		lastErr = errors.New("fetch failed")
	}
	return nil, lastErr
}
