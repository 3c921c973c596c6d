package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/kuuzuki-ai/kuuzuki/pkg/types"
)

// EnvPermission is the environment variable whose JSON value, when
// present, fully replaces file-sourced permission config.
const EnvPermission = "KUUZUKI_PERMISSION"

// Load loads configuration from multiple sources (priority order):
// 1. Global config (~/.kuuzuki/)
// 2. Global config (~/.config/kuuzuki/ - XDG compatible)
// 3. Project config (kuuzuki.json[c], .kuuzuki/kuuzuki.json[c])
// 4. KUUZUKI_CONFIG file
// 5. KUUZUKI_CONFIG_CONTENT inline JSON
// 6. Environment variables
func Load(directory string) (*types.Config, error) {
	config := &types.Config{}

	// Track loaded files to avoid duplicates
	loaded := make(map[string]bool)

	loadOnce := func(path string, baseDir string) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return
		}
		if loaded[absPath] {
			return
		}
		if loadConfigFile(path, config, baseDir) == nil {
			loaded[absPath] = true
		}
	}

	// 1. Dotdir global config (~/.kuuzuki/)
	home := os.Getenv("HOME")
	if home != "" {
		dotDir := filepath.Join(home, ".kuuzuki")
		loadOnce(filepath.Join(dotDir, "kuuzuki.json"), dotDir)
		loadOnce(filepath.Join(dotDir, "kuuzuki.jsonc"), dotDir)
	}

	// 2. XDG-compatible global config (~/.config/kuuzuki/)
	globalPath := GetPaths().Config
	loadOnce(filepath.Join(globalPath, "kuuzuki.json"), globalPath)
	loadOnce(filepath.Join(globalPath, "kuuzuki.jsonc"), globalPath)

	// 3. Project config
	if directory != "" {
		projectConfigDir := filepath.Join(directory, ".kuuzuki")
		loadOnce(filepath.Join(directory, "kuuzuki.json"), directory)
		loadOnce(filepath.Join(directory, "kuuzuki.jsonc"), directory)
		loadOnce(filepath.Join(projectConfigDir, "kuuzuki.json"), projectConfigDir)
		loadOnce(filepath.Join(projectConfigDir, "kuuzuki.jsonc"), projectConfigDir)
	}

	// 4. KUUZUKI_CONFIG file override
	if configPath := os.Getenv("KUUZUKI_CONFIG"); configPath != "" {
		loadOnce(configPath, filepath.Dir(configPath))
	}

	// 5. KUUZUKI_CONFIG_CONTENT inline JSON
	if configContent := os.Getenv("KUUZUKI_CONFIG_CONTENT"); configContent != "" {
		var inlineConfig types.Config
		if err := json.Unmarshal(jsonc.ToJSON([]byte(configContent)), &inlineConfig); err == nil {
			mergeConfig(config, &inlineConfig)
		}
	}

	// 6. Environment variables (highest priority)
	applyEnvOverrides(config)

	return config, nil
}

// loadConfigFile loads a single config file with interpolation support.
func loadConfigFile(path string, config *types.Config, baseDir string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err // File doesn't exist, skip
	}

	// Strip JSONC comments using tidwall/jsonc
	data = jsonc.ToJSON(data)

	// Apply interpolation
	data = interpolate(data, baseDir)

	var fileConfig types.Config
	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return err
	}

	mergeConfig(config, &fileConfig)
	return nil
}

// interpolate processes {env:VAR} and {file:path} placeholders.
func interpolate(data []byte, baseDir string) []byte {
	str := string(data)

	// Handle {env:VAR_NAME} placeholders
	envPattern := regexp.MustCompile(`\{env:([^}]+)\}`)
	str = envPattern.ReplaceAllStringFunc(str, func(match string) string {
		varName := envPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})

	// Handle {file:path} placeholders
	filePattern := regexp.MustCompile(`\{file:([^}]+)\}`)
	str = filePattern.ReplaceAllStringFunc(str, func(match string) string {
		filePath := filePattern.FindStringSubmatch(match)[1]

		// Resolve path
		if strings.HasPrefix(filePath, "~/") {
			home := os.Getenv("HOME")
			filePath = filepath.Join(home, filePath[2:])
		} else if !filepath.IsAbs(filePath) {
			filePath = filepath.Join(baseDir, filePath)
		}

		content, err := os.ReadFile(filePath)
		if err != nil {
			return match // Keep original if file not found
		}

		// Escape for JSON string
		escaped := strings.ReplaceAll(string(content), "\\", "\\\\")
		escaped = strings.ReplaceAll(escaped, "\"", "\\\"")
		escaped = strings.ReplaceAll(escaped, "\n", "\\n")
		escaped = strings.ReplaceAll(escaped, "\r", "\\r")
		escaped = strings.ReplaceAll(escaped, "\t", "\\t")

		return escaped
	})

	return []byte(str)
}

// mergeConfig merges source config into target. Permission is replaced
// wholesale, not deep-merged: the last source to set it wins.
func mergeConfig(target, source *types.Config) {
	if source.Schema != "" {
		target.Schema = source.Schema
	}
	if source.LogLevel != "" {
		target.LogLevel = source.LogLevel
	}
	if source.Permission != nil {
		target.Permission = source.Permission
	}
	if len(source.EagerTools) > 0 {
		target.EagerTools = append(target.EagerTools, source.EagerTools...)
	}
	if source.Server != nil {
		if target.Server == nil {
			target.Server = &types.ServerConfig{}
		}
		if source.Server.Host != "" {
			target.Server.Host = source.Server.Host
		}
		if source.Server.Port != 0 {
			target.Server.Port = source.Server.Port
		}
	}
}

// applyEnvOverrides applies environment variable overrides.
func applyEnvOverrides(config *types.Config) {
	if level := os.Getenv("KUUZUKI_LOG_LEVEL"); level != "" {
		config.LogLevel = level
	}

	// Permission override (JSON). The override replaces the file-sourced
	// permission config entirely; there is no merge.
	if permJSON := os.Getenv(EnvPermission); permJSON != "" {
		var perm types.PermissionConfig
		if err := json.Unmarshal([]byte(permJSON), &perm); err == nil {
			config.Permission = &perm
		}
	}
}

// EnvPermissions parses the environment permission override on its own,
// for callers that evaluate precedence per check rather than at load
// time. Returns nil when unset or malformed.
func EnvPermissions() *types.PermissionConfig {
	permJSON := os.Getenv(EnvPermission)
	if permJSON == "" {
		return nil
	}
	var perm types.PermissionConfig
	if err := json.Unmarshal([]byte(permJSON), &perm); err != nil {
		return nil
	}
	return &perm
}

// Save saves the configuration to a file.
func Save(config *types.Config, path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// GetConfigDir returns the config directory to use.
// Prefers KUUZUKI_CONFIG_DIR, then ~/.kuuzuki, then ~/.config/kuuzuki.
func GetConfigDir() string {
	// Check environment variable first
	if dir := os.Getenv("KUUZUKI_CONFIG_DIR"); dir != "" {
		return dir
	}

	home := os.Getenv("HOME")
	if home != "" {
		dotDir := filepath.Join(home, ".kuuzuki")
		if _, err := os.Stat(dotDir); err == nil {
			return dotDir
		}
	}

	// Fall back to XDG location
	return GetPaths().Config
}
