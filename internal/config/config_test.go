package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if exists {
		t.Error("expected exists = false for missing file")
	}
	if resolved != path {
		t.Errorf("resolved = %q, want %q", resolved, path)
	}
	if cfg.Transcription.Provider != "groq" {
		t.Errorf("provider = %q, want groq", cfg.Transcription.Provider)
	}
	if cfg.Transcription.MaxLineCount != 2 || cfg.Transcription.MaxLineWidth != 42 {
		t.Errorf("unexpected layout defaults: %+v", cfg.Transcription)
	}
	if !filepath.IsAbs(cfg.Paths.HistoryDB) {
		t.Errorf("history db path should be expanded, got %q", cfg.Paths.HistoryDB)
	}
}

func TestLoadParsesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[transcription]
provider = "Deepgram"
max_line_count = 3
max_line_width = 60
concurrency = 5

[proxy.deepgram]
enabled = true
type = "SOCKS5"
host = "127.0.0.1"
port = "1080"

[split]
format = "mp3"
segment_seconds = 600
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !exists {
		t.Error("expected exists = true")
	}
	if cfg.Transcription.Provider != "deepgram" {
		t.Errorf("provider = %q, want deepgram", cfg.Transcription.Provider)
	}
	if cfg.Transcription.MaxLineCount != 3 || cfg.Transcription.MaxLineWidth != 60 {
		t.Errorf("layout = %d/%d", cfg.Transcription.MaxLineCount, cfg.Transcription.MaxLineWidth)
	}
	if cfg.Split.SegmentSeconds != 600 || cfg.Split.Format != "mp3" {
		t.Errorf("split = %+v", cfg.Split)
	}
	if got := cfg.ProxyURL("deepgram"); got != "socks5://127.0.0.1:1080" {
		t.Errorf("ProxyURL() = %q", got)
	}
	// untouched sections keep defaults
	if cfg.Deepgram.Confidence != 0.7 {
		t.Errorf("deepgram confidence = %v, want 0.7", cfg.Deepgram.Confidence)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "line count too high",
			content: "[transcription]\nmax_line_count = 6\n",
			wantErr: "max_line_count",
		},
		{
			name:    "line width too low",
			content: "[transcription]\nmax_line_width = 20\n",
			wantErr: "max_line_width",
		},
		{
			name:    "unknown provider",
			content: "[transcription]\nprovider = \"whisperx\"\n",
			wantErr: "unsupported provider",
		},
		{
			name:    "enabled proxy without host",
			content: "[proxy.groq]\nenabled = true\n",
			wantErr: "host and port",
		},
		{
			name:    "malformed toml",
			content: "[transcription\n",
			wantErr: "parse config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}

			_, _, _, err := Load(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Transcription.Provider = "openai"
	cfg.AddKey("openai", "work", "sk-test")
	cfg.Proxy["openai"] = Proxy{Enabled: true, Type: "http", Host: "proxy", Port: "8080", Username: "u", Password: "p"}

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config permissions = %o, want 600", perm)
	}

	loaded, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !exists {
		t.Fatal("expected saved file to exist")
	}
	if loaded.Transcription.Provider != "openai" {
		t.Errorf("provider = %q", loaded.Transcription.Provider)
	}
	if got := loaded.Keys["openai"].Named["work"]; got != "sk-test" {
		t.Errorf("stored key = %q", got)
	}
	if got := loaded.ProxyURL("openai"); got != "http://u:p@proxy:8080" {
		t.Errorf("ProxyURL() = %q", got)
	}
}

func TestAPIKeyResolution(t *testing.T) {
	cfg := Default()
	cfg.AddKey("groq", "personal", "gsk-stored")

	t.Setenv("GROQ_API_KEY", "")
	if got := cfg.APIKey("groq", ""); got != "gsk-stored" {
		t.Errorf("stored key = %q", got)
	}

	t.Setenv("GROQ_API_KEY", "gsk-env")
	if got := cfg.APIKey("groq", ""); got != "gsk-env" {
		t.Errorf("env key = %q", got)
	}
	if got := cfg.APIKey("groq", "gsk-flag"); got != "gsk-flag" {
		t.Errorf("explicit key = %q", got)
	}

	if !cfg.RemoveKey("groq", "personal") {
		t.Fatal("RemoveKey() = false")
	}
	t.Setenv("GROQ_API_KEY", "")
	if got := cfg.APIKey("groq", ""); got != "" {
		t.Errorf("expected no key after removal, got %q", got)
	}
	if cfg.RemoveKey("groq", "personal") {
		t.Error("removing a missing key should report false")
	}
}

func TestProxyURLDisabled(t *testing.T) {
	cfg := Default()
	cfg.Proxy["groq"] = Proxy{Enabled: false, Type: "http", Host: "h", Port: "1"}
	if got := cfg.ProxyURL("groq"); got != "" {
		t.Errorf("disabled proxy gave %q", got)
	}
	if got := cfg.ProxyURL("unknown"); got != "" {
		t.Errorf("missing proxy gave %q", got)
	}
}
