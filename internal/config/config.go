package config

import "time"

// Config represents the main application configuration. It is loaded once at
// startup; the only mutation path afterwards is an explicit Save.
type Config struct {
	Providers []ProviderConfig `yaml:"providers"`
	Model     ModelConfig      `yaml:"model"`
	Memory    MemoryConfig     `yaml:"memory"`
	Shell     ShellConfig      `yaml:"shell"`
	UI        UIConfig         `yaml:"ui"`
	Logging   LoggingConfig    `yaml:"logging"`

	// Runtime version information
	Version string `yaml:"-"`
}

// ProviderConfig describes one completion service and the models it offers.
type ProviderConfig struct {
	Name   string `yaml:"name"`             // "local", "gemini", "ollama", "openrouter"
	Active bool   `yaml:"active"`           // inactive providers are never tried
	Kind   string `yaml:"kind,omitempty"`   // adapter kind; defaults to Name
	APIKey string `yaml:"api_key,omitempty"`

	// Endpoint is the base URL for HTTP-based providers
	// (e.g. http://localhost:1234/v1 for an OpenAI-compatible server).
	Endpoint string        `yaml:"endpoint,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`

	// Models is every model this provider offers; ActiveModels is the
	// ordered subset actually tried. A model listed in ActiveModels but
	// missing from Models is skipped.
	Models       []string `yaml:"models"`
	ActiveModels []string `yaml:"active_models,omitempty"`
}

// AdapterKind returns the backend adapter kind for this provider.
func (p *ProviderConfig) AdapterKind() string {
	if p.Kind != "" {
		return p.Kind
	}
	return p.Name
}

// CandidateModels returns the ordered list of models to try for this
// provider: ActiveModels filtered to members of Models, or all of Models
// when no active subset is configured.
func (p *ProviderConfig) CandidateModels() []string {
	if len(p.ActiveModels) == 0 {
		return p.Models
	}
	known := make(map[string]bool, len(p.Models))
	for _, m := range p.Models {
		known[m] = true
	}
	var out []string
	for _, m := range p.ActiveModels {
		if known[m] {
			out = append(out, m)
		}
	}
	return out
}

// ModelConfig holds generation parameters shared by all providers.
type ModelConfig struct {
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	// Larger output window used for streamed generation.
	MaxStreamTokens int `yaml:"max_stream_tokens"`
}

// MemoryConfig holds project memory settings.
type MemoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"` // relative to the project root
	// Watch marks ledger entries stale when tracked files change on disk.
	Watch bool `yaml:"watch"`
}

// ShellConfig holds shell command execution settings.
type ShellConfig struct {
	QueueSize int           `yaml:"queue_size"` // bounded output line queue
	Timeout   time.Duration `yaml:"timeout"`    // 0 = no timeout
}

// UIConfig selects the Renderer/UserPrompt adapters.
type UIConfig struct {
	// Mode is "console" (interactive prompts) or "headless"
	// (log everything, auto-accept every gate).
	Mode string `yaml:"mode"`
	// Color enables styled console output.
	Color bool `yaml:"color"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the default configuration: a local
// OpenAI-compatible server first, then Gemini, then Ollama.
func DefaultConfig() *Config {
	return &Config{
		Providers: []ProviderConfig{
			{
				Name:     "local",
				Kind:     "openai",
				Active:   true,
				Endpoint: "http://localhost:1234/v1",
				Timeout:  30 * time.Second,
				// Most local OpenAI-compatible servers serve whatever
				// is loaded regardless of the requested model name.
				Models: []string{"local-model"},
			},
			{
				Name:    "gemini",
				Active:  false,
				Timeout: 30 * time.Second,
				Models:  []string{"gemini-2.5-flash"},
			},
			{
				Name:     "ollama",
				Active:   false,
				Endpoint: "http://localhost:11434",
				Timeout:  120 * time.Second,
			},
		},
		Model: ModelConfig{
			Temperature:     0.7,
			MaxTokens:       4096,
			MaxStreamTokens: 30000,
		},
		Memory: MemoryConfig{
			Enabled: true,
			Dir:     ".goforge",
			Watch:   false,
		},
		Shell: ShellConfig{
			QueueSize: 1000,
			Timeout:   0,
		},
		UI: UIConfig{
			Mode:  "console",
			Color: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Provider returns the provider config with the given name, or nil.
func (c *Config) Provider(name string) *ProviderConfig {
	for i := range c.Providers {
		if c.Providers[i].Name == name {
			return &c.Providers[i]
		}
	}
	return nil
}

// ActiveProviders returns active providers in configured order.
func (c *Config) ActiveProviders() []*ProviderConfig {
	var out []*ProviderConfig
	for i := range c.Providers {
		if c.Providers[i].Active {
			out = append(out, &c.Providers[i])
		}
	}
	return out
}
