package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/pelletier/go-toml/v2"
)

// Transcription holds the defaults applied to every transcription run.
type Transcription struct {
	Provider     string  `toml:"provider"`
	Model        string  `toml:"model"`
	Language     string  `toml:"language"`
	OutputFormat string  `toml:"output_format"`
	MaxLineCount int     `toml:"max_line_count"`
	MaxLineWidth int     `toml:"max_line_width"`
	Concurrency  int     `toml:"concurrency"`
	Temperature  float64 `toml:"temperature"`
	Translate    bool    `toml:"translate"`
	Timestamps   string  `toml:"timestamps"`
}

// KeyRing stores named API keys for one provider.
type KeyRing struct {
	LastUsed string            `toml:"last_used"`
	Named    map[string]string `toml:"named"`
}

// Proxy describes an outbound proxy for one provider.
type Proxy struct {
	Enabled  bool   `toml:"enabled"`
	Type     string `toml:"type"` // http or socks5
	Host     string `toml:"host"`
	Port     string `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// Deepgram holds the Deepgram-specific request options.
type Deepgram struct {
	Version        string   `toml:"version"`
	SmartFormat    bool     `toml:"smart_format"`
	Punctuate      bool     `toml:"punctuate"`
	Diarize        bool     `toml:"diarize"`
	DetectLanguage bool     `toml:"detect_language"`
	Multichannel   bool     `toml:"multichannel"`
	Keywords       []string `toml:"keywords"`
	Tier           string   `toml:"tier"`
	SampleRate     int      `toml:"sample_rate"`
	Confidence     float64  `toml:"confidence"`
}

// Split controls how long audio is cut before upload.
type Split struct {
	Enabled        bool   `toml:"enabled"`
	SegmentSeconds int    `toml:"segment_seconds"`
	Format         string `toml:"format"`
	SampleRate     int    `toml:"sample_rate"`
	Channels       int    `toml:"channels"`
	Bitrate        string `toml:"bitrate"`
}

type Paths struct {
	LastDirectory string `toml:"last_directory"`
	HistoryDB     string `toml:"history_db"`
	LanguageFile  string `toml:"language_file"`
}

type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config encapsulates all persisted settings.
type Config struct {
	Transcription Transcription      `toml:"transcription"`
	Keys          map[string]KeyRing `toml:"keys"`
	Proxy         map[string]Proxy   `toml:"proxy"`
	Deepgram      Deepgram           `toml:"deepgram"`
	Split         Split              `toml:"split"`
	Paths         Paths              `toml:"paths"`
	Logging       Logging            `toml:"logging"`
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/scribe/config.toml")
}

// Load reads the configuration at path, or the default location when path
// is empty. A missing file yields the defaults. The bool reports whether
// a file was read.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolved, err := resolvePath(path)
	if err != nil {
		return nil, "", false, err
	}

	data, err := os.ReadFile(resolved)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := cfg.normalize(); err != nil {
			return nil, "", false, err
		}
		return &cfg, resolved, false, nil
	case err != nil:
		return nil, "", false, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, "", false, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolved, true, nil
}

// Save writes the configuration atomically while holding an exclusive
// lock next to the file, so concurrent runs do not interleave writes.
func (c *Config) Save(path string) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	lock := flock.New(resolved + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock config: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	encoder.SetIndentTables(true)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(resolved), ".config-*.toml")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close config: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o600); err != nil {
		return fmt.Errorf("chmod config: %w", err)
	}
	if err := os.Rename(tmpPath, resolved); err != nil {
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}

// ProxyURL builds the proxy URL for a provider, or "" when disabled or
// incomplete.
func (c *Config) ProxyURL(provider string) string {
	p, ok := c.Proxy[strings.ToLower(provider)]
	if !ok || !p.Enabled || p.Host == "" || p.Port == "" {
		return ""
	}

	scheme := "http://"
	if strings.EqualFold(p.Type, "socks5") {
		scheme = "socks5://"
	}

	if p.Username != "" && p.Password != "" {
		return fmt.Sprintf("%s%s:%s@%s:%s", scheme, p.Username, p.Password, p.Host, p.Port)
	}
	return fmt.Sprintf("%s%s:%s", scheme, p.Host, p.Port)
}

// APIKey resolves the key for provider: the explicit value, then the
// provider environment variable, then the last used named key.
func (c *Config) APIKey(provider, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := EnvVarForProvider(provider); env != "" {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}
	ring, ok := c.Keys[strings.ToLower(provider)]
	if !ok || ring.LastUsed == "" {
		return ""
	}
	return ring.Named[ring.LastUsed]
}

// AddKey stores a named key and marks it as last used.
func (c *Config) AddKey(provider, name, key string) {
	provider = strings.ToLower(provider)
	if c.Keys == nil {
		c.Keys = make(map[string]KeyRing)
	}
	ring := c.Keys[provider]
	if ring.Named == nil {
		ring.Named = make(map[string]string)
	}
	ring.Named[name] = key
	ring.LastUsed = name
	c.Keys[provider] = ring
}

// RemoveKey deletes a named key; the last used marker is cleared when it
// pointed at the removed key.
func (c *Config) RemoveKey(provider, name string) bool {
	provider = strings.ToLower(provider)
	ring, ok := c.Keys[provider]
	if !ok {
		return false
	}
	if _, exists := ring.Named[name]; !exists {
		return false
	}
	delete(ring.Named, name)
	if ring.LastUsed == name {
		ring.LastUsed = ""
	}
	c.Keys[provider] = ring
	return true
}

// EnvVarForProvider returns the API key environment variable of provider.
func EnvVarForProvider(provider string) string {
	switch strings.ToLower(provider) {
	case "groq":
		return "GROQ_API_KEY"
	case "deepgram":
		return "DEEPGRAM_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	case "gemini":
		return "GEMINI_API_KEY"
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}

func resolvePath(path string) (string, error) {
	if path == "" {
		return DefaultConfigPath()
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Abs(path)
}
