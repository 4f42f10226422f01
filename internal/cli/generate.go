package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/ivorycirrus/aws-pdk/internal/codegen"
	"github.com/ivorycirrus/aws-pdk/internal/document"
	"github.com/ivorycirrus/aws-pdk/internal/emitter"
	"github.com/ivorycirrus/aws-pdk/internal/logger"
)

// GenerateConfig captures all inputs that influence the generate command
// after merging defaults, config file values, and CLI overrides.
type GenerateConfig struct {
	Input         string
	Out           string
	TemplateDirs  []string
	HTTPTimeout   time.Duration
	MaxRetries    int
	AllowFileRefs bool
	ConfigPath    string
	DryRun        bool
	Force         bool
	Verbose       bool
	JSONLogs      bool
}

func defaultGenerateConfig() GenerateConfig {
	return GenerateConfig{
		Out:          ".",
		TemplateDirs: []string{"templates"},
		HTTPTimeout:  10 * time.Second,
		MaxRetries:   3,
	}
}

var generateRunner = runGenerate

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate code from an OpenAPI/Swagger document",
		Long: "Generate code from an OpenAPI/Swagger document by rendering the " +
			"templates in the template directory against the compiled render data.",
		Example: strings.TrimSpace(`  pdk-codegen generate --input api.yaml --template-dir ./templates --out ./generated
  pdk-codegen --config config.yaml generate --force --dry-run`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd)
			if err != nil {
				return err
			}
			return generateRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("input", "", "Path or URL to the OpenAPI/Swagger document")
	flags.String("out", "", "Output directory (defaults to the working directory)")
	flags.StringSlice("template-dir", nil, "Template directories searched in order (first existing wins)")
	flags.Duration("http-timeout", 0, "Timeout for fetching URL inputs")
	flags.Int("max-retries", 0, "Retry attempts for transient fetch failures")
	flags.Bool("allow-file-refs", false, "Permit file:// inputs")
	flags.Bool("dry-run", false, "Preview planned outputs without writing files")
	flags.Bool("force", false, "Overwrite existing files even when templates do not request it")

	return cmd
}

func resolveGenerateConfig(cmd *cobra.Command) (*GenerateConfig, error) {
	cfg := defaultGenerateConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyGenerateConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
	}

	if err := applyGenerateFlagOverrides(cmd, &cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyGenerateFlagOverrides(cmd *cobra.Command, cfg *GenerateConfig) error {
	flags := cmd.Flags()
	if flags.Changed("input") {
		value, err := flags.GetString("input")
		if err != nil {
			return err
		}
		cfg.Input = strings.TrimSpace(value)
	}
	if flags.Changed("out") {
		value, err := flags.GetString("out")
		if err != nil {
			return err
		}
		cfg.Out = strings.TrimSpace(value)
	}
	if flags.Changed("template-dir") {
		value, err := flags.GetStringSlice("template-dir")
		if err != nil {
			return err
		}
		cfg.TemplateDirs = sanitizeList(value)
	}
	if flags.Changed("http-timeout") {
		value, err := flags.GetDuration("http-timeout")
		if err != nil {
			return err
		}
		cfg.HTTPTimeout = value
	}
	if flags.Changed("max-retries") {
		value, err := flags.GetInt("max-retries")
		if err != nil {
			return err
		}
		cfg.MaxRetries = value
	}
	if flags.Changed("allow-file-refs") {
		value, err := flags.GetBool("allow-file-refs")
		if err != nil {
			return err
		}
		cfg.AllowFileRefs = value
	}
	if flags.Changed("dry-run") {
		value, err := flags.GetBool("dry-run")
		if err != nil {
			return err
		}
		cfg.DryRun = value
	}
	if flags.Changed("force") {
		value, err := flags.GetBool("force")
		if err != nil {
			return err
		}
		cfg.Force = value
	}

	// Persistent flags live on the root command.
	persistent := cmd.InheritedFlags()
	if err := applyPersistentOverrides(persistent, cfg); err != nil {
		return err
	}
	return nil
}

func applyPersistentOverrides(flags *pflag.FlagSet, cfg *GenerateConfig) error {
	if flags.Changed("verbose") {
		value, err := flags.GetBool("verbose")
		if err != nil {
			return err
		}
		cfg.Verbose = value
	}
	if flags.Changed("json-logs") {
		value, err := flags.GetBool("json-logs")
		if err != nil {
			return err
		}
		cfg.JSONLogs = value
	}
	return nil
}

func (c *GenerateConfig) normalize() {
	c.Input = strings.TrimSpace(c.Input)
	c.Out = strings.TrimSpace(c.Out)
	if c.Out == "" {
		c.Out = "."
	}
	c.TemplateDirs = sanitizeList(c.TemplateDirs)
	if len(c.TemplateDirs) == 0 {
		c.TemplateDirs = []string{"templates"}
	}
}

func (c *GenerateConfig) validate() error {
	if c.Input == "" {
		return newUsageError("generate: --input is required (set via flag or config file)")
	}
	if c.MaxRetries < 0 {
		return newUsageError("generate: --max-retries must not be negative")
	}
	if c.HTTPTimeout < 0 {
		return newUsageError("generate: --http-timeout must not be negative")
	}
	return nil
}

func runGenerate(ctx context.Context, cfg *GenerateConfig) error {
	if err := logger.Initialize(cfg.Verbose, cfg.JSONLogs); err != nil {
		return err
	}
	defer logger.Cleanup()

	data, err := codegen.Compile(ctx, cfg.Input,
		document.WithHTTPTimeout(cfg.HTTPTimeout),
		document.WithMaxRetries(cfg.MaxRetries),
		document.WithAllowFileRefs(cfg.AllowFileRefs),
	)
	if err != nil {
		var derr *document.Error
		if errors.As(err, &derr) {
			msg := fmt.Sprintf("document: %s", derr.Message)
			if derr.Location != "" {
				msg = fmt.Sprintf("%s\nLocation: %s", msg, derr.Location)
			}
			if derr.Ref != "" {
				msg = fmt.Sprintf("%s\nReference: %s", msg, derr.Ref)
			}
			return newUsageError(msg)
		}
		return err
	}

	absOut := cfg.Out
	if ap, err := filepath.Abs(cfg.Out); err == nil {
		absOut = ap
	}

	res, err := emitter.Emit(ctx, data, emitter.Options{
		OutDir:       cfg.Out,
		TemplateDirs: cfg.TemplateDirs,
		Force:        cfg.Force,
		DryRun:       cfg.DryRun,
	})
	if err != nil {
		if errors.Is(err, emitter.ErrTemplateDirectoryNotFound) {
			return newUsageError(fmt.Sprintf("generate: %v\nHint: point --template-dir at a directory of *.tmpl files.", err))
		}
		return wrapOutputError(err, absOut)
	}

	if cfg.DryRun {
		printPlan(absOut, res.Planned)
	} else {
		logger.Infow("generation complete",
			"out", absOut,
			"files", len(res.Planned),
			"skipped", len(res.Skipped))
	}
	return nil
}

func printPlan(outDir string, planned []emitter.PlannedFile) {
	fmt.Fprintf(os.Stdout, "Planned writes to %s (%d files):\n", outDir, len(planned))
	for _, p := range planned {
		fmt.Fprintf(os.Stdout, "- %s\n", p.RelPath)
	}
}

func wrapOutputError(err error, outDir string) error {
	// Provide clearer guidance for common FS failures.
	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "permission") || strings.Contains(lower, "read-only") || strings.Contains(lower, "mkdir") || strings.Contains(lower, "rename") || strings.Contains(lower, "output directory") {
		return newUsageError(fmt.Sprintf("output error for %s: %s\nHint: choose a different --out or use --force when appropriate.", outDir, msg))
	}
	return err
}

func sanitizeList(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func applyGenerateConfigFromFile(cfg *GenerateConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return newUsageError(fmt.Sprintf("read config file %q: %v", path, err))
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return newUsageError(fmt.Sprintf("parse config file %q: %v", path, err))
	}

	for key, value := range raw {
		normalized := normalizeKey(key)
		switch normalized {
		case "input":
			str, err := valueAsString(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.Input = str
		case "out":
			str, err := valueAsString(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.Out = str
		case "templatedirs", "templatedir":
			list, err := valueAsStringSlice(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.TemplateDirs = sanitizeList(list)
		case "httptimeout":
			str, err := valueAsString(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			if str != "" {
				d, err := time.ParseDuration(str)
				if err != nil {
					return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
				}
				cfg.HTTPTimeout = d
			}
		case "maxretries":
			n, err := valueAsInt(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.MaxRetries = n
		case "allowfilerefs":
			val, err := valueAsBool(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.AllowFileRefs = val
		case "dryrun":
			val, err := valueAsBool(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.DryRun = val
		case "force":
			val, err := valueAsBool(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.Force = val
		case "verbose":
			val, err := valueAsBool(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.Verbose = val
		case "jsonlogs":
			val, err := valueAsBool(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.JSONLogs = val
		default:
			return newUsageError(fmt.Sprintf("config file %q: unknown field %q", path, key))
		}
	}

	return nil
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func valueAsStringSlice(v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, nil
		}
		return splitAndTrim(val), nil
	case []any:
		items := make([]string, 0, len(val))
		for idx, elem := range val {
			str, err := valueAsString(elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", idx, err)
			}
			if str != "" {
				items = append(items, str)
			}
		}
		return items, nil
	default:
		return nil, fmt.Errorf("expected string or list, got %T", v)
	}
}

func valueAsInt(v any) (int, error) {
	switch val := v.(type) {
	case int:
		return val, nil
	case float64:
		return int(val), nil
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

func valueAsBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		trimmed := strings.ToLower(strings.TrimSpace(val))
		switch trimmed {
		case "true", "t", "1", "yes", "y":
			return true, nil
		case "false", "f", "0", "no", "n":
			return false, nil
		case "":
			return false, nil
		default:
			return false, fmt.Errorf("invalid boolean value %q", val)
		}
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}
