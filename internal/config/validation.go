package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/conneroisu/kiln/internal/validation"
)

// KnownAIProviders are the AI-assist backends kiln knows how to configure.
var KnownAIProviders = []string{"anthropic", "openai", "gemini"}

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder

	write := func(title string, issues []ValidationError) {
		if len(issues) == 0 {
			return
		}
		builder.WriteString(title + ":\n")
		for _, issue := range issues {
			builder.WriteString(fmt.Sprintf("  • %s: %s\n", issue.Field, issue.Message))
			for _, suggestion := range issue.Suggestions {
				builder.WriteString(fmt.Sprintf("    hint: %s\n", suggestion))
			}
		}
	}

	write("Validation errors", vr.Errors)
	if vr.HasErrors() && vr.HasWarnings() {
		builder.WriteString("\n")
	}
	write("Validation warnings", vr.Warnings)

	return builder.String()
}

// ValidateConfigWithDetails checks a merged configuration for values that
// would break the tools kiln hands off to.
func ValidateConfigWithDetails(cfg *Config) *ValidationResult {
	result := &ValidationResult{
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	validateLayout(cfg, result)
	validateWebpack(&cfg.Webpack, result)
	validateJest(&cfg.Jest, result)
	validateAI(&cfg.AI, result)

	result.Valid = !result.HasErrors()
	return result
}

func validateLayout(cfg *Config, result *ValidationResult) {
	dirs := []struct {
		field string
		value string
	}{
		{"sourceDir", cfg.SourceDir},
		{"outputDir", cfg.OutputDir},
	}

	for _, dir := range dirs {
		if err := validation.ValidateProjectPath(dir.value); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Field:   dir.field,
				Value:   dir.value,
				Message: err.Error(),
				Suggestions: []string{
					"Use a path relative to the project root",
					"Avoid parent directory references (..)",
				},
			})
		}
	}

	if cfg.SourceDir != "" && filepath.Clean(cfg.SourceDir) == filepath.Clean(cfg.OutputDir) {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "outputDir",
			Value:   cfg.OutputDir,
			Message: "output directory must differ from the source directory",
			Suggestions: []string{
				"Use 'dist' or 'build' for compiled output",
			},
		})
	}
}

func validateWebpack(cfg *WebpackConfig, result *ValidationResult) {
	port := cfg.DevServer.Port
	if port < 0 || port > 65535 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "webpack.devServer.port",
			Value:   port,
			Message: fmt.Sprintf("port %d is not in valid range 0-65535", port),
			Suggestions: []string{
				"Common development ports: 3000, 8080, 8000",
				"Port 0 lets the system pick a free port",
			},
		})
	} else if port > 0 && port < 1024 {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "webpack.devServer.port",
			Value:   port,
			Message: "port below 1024 requires elevated privileges",
			Suggestions: []string{
				"Consider using a port above 1024 for development",
			},
		})
	}

	if cfg.Entry == "" {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "webpack.entry",
			Value:   cfg.Entry,
			Message: "no bundle entry configured",
			Suggestions: []string{
				"Set webpack.entry to the application's entry module, e.g. './src/index.js'",
			},
		})
	}

	if cfg.PublicPath != "" && !strings.HasSuffix(cfg.PublicPath, "/") {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "webpack.publicPath",
			Value:   cfg.PublicPath,
			Message: "public path should end with '/'",
		})
	}
}

func validateJest(cfg *JestConfig, result *ValidationResult) {
	if len(cfg.ModuleFileExtensions) == 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "jest.moduleFileExtensions",
			Value:   cfg.ModuleFileExtensions,
			Message: "no module file extensions - nothing can be resolved",
			Suggestions: []string{
				"Use ['.js', '.jsx', '.ts', '.tsx', '.json']",
			},
		})
	}

	seen := make(map[string]bool, len(cfg.ModuleFileExtensions))
	for i, ext := range cfg.ModuleFileExtensions {
		field := fmt.Sprintf("jest.moduleFileExtensions[%d]", i)
		if strings.TrimPrefix(ext, ".") == "" || strings.ContainsAny(ext, `/\ `) {
			result.Errors = append(result.Errors, ValidationError{
				Field:   field,
				Value:   ext,
				Message: fmt.Sprintf("invalid extension %q", ext),
			})
			continue
		}
		normalized := NormalizeExtension(ext)
		if seen[normalized] {
			result.Warnings = append(result.Warnings, ValidationError{
				Field:   field,
				Value:   ext,
				Message: fmt.Sprintf("duplicate extension %q", ext),
			})
		}
		seen[normalized] = true
	}
}

func validateAI(cfg *AIConfig, result *ValidationResult) {
	if !cfg.Enabled {
		return
	}

	if !slices.Contains(KnownAIProviders, cfg.Provider) {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "ai.provider",
			Value:   cfg.Provider,
			Message: fmt.Sprintf("unknown AI provider '%s'", cfg.Provider),
			Suggestions: []string{
				"Available providers: " + strings.Join(KnownAIProviders, ", "),
			},
		})
	}

	if cfg.APIKeyEnv == "" {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "ai.apiKeyEnv",
			Value:   cfg.APIKeyEnv,
			Message: "no API key variable configured",
			Suggestions: []string{
				"Name the environment variable holding the key, e.g. ANTHROPIC_API_KEY",
			},
		})
	}
}

// NormalizeExtension returns ext with a single leading dot.
func NormalizeExtension(ext string) string {
	return "." + strings.TrimPrefix(ext, ".")
}
