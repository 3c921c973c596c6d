// Package types holds configuration types shared with external layers.
package types

// Config represents the kuuzuki configuration.
type Config struct {
	// Schema reference (for editor support)
	Schema string `json:"$schema,omitempty"`

	// Log level: DEBUG, INFO, WARN, ERROR, FATAL
	LogLevel string `json:"logLevel,omitempty"`

	// Global permission settings
	Permission *PermissionConfig `json:"permission,omitempty"`

	// Tool ids that have historically been requested while missing;
	// the interceptor pre-resolves these at session start.
	EagerTools []string `json:"eagerTools,omitempty"`

	// Server settings for the HTTP surface
	Server *ServerConfig `json:"server,omitempty"`
}

// ServerConfig holds settings for the HTTP surface.
type ServerConfig struct {
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`
}
