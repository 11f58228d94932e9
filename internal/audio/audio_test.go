package audio

import (
	"testing"
	"time"
)

func TestParseProbe(t *testing.T) {
	data := []byte(`{
		"streams": [
			{"codec_type": "video", "codec_name": "h264"},
			{"codec_type": "audio", "codec_name": "opus", "sample_rate": "48000", "channels": 2},
			{"codec_type": "audio", "codec_name": "aac", "sample_rate": "44100", "channels": 6}
		],
		"format": {"duration": "3723.500000"}
	}`)

	info, err := parseProbe(data)
	if err != nil {
		t.Fatalf("parseProbe() error = %v", err)
	}
	if info.Duration != 3723500*time.Millisecond {
		t.Errorf("Duration = %v", info.Duration)
	}
	if info.Codec != "opus" || info.SampleRate != 48000 || info.Channels != 2 {
		t.Errorf("first audio stream should win, got %+v", info)
	}
	if !info.HasVideo {
		t.Error("expected HasVideo")
	}
}

func TestParseProbeErrors(t *testing.T) {
	tests := map[string]string{
		"invalid json":     `{"format":`,
		"missing duration": `{"format": {}}`,
		"bad duration":     `{"format": {"duration": "N/A"}}`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := parseProbe([]byte(data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestEncodeArgs(t *testing.T) {
	opts := ExtractOptions{SampleRate: 16000, Channels: 1, Bitrate: "64k"}

	tests := []struct {
		ext         string
		codec       string
		wantBitrate bool
	}{
		{"mp3", "libmp3lame", true},
		{"opus", "libopus", true},
		{"aac", "aac", true},
		{"flac", "flac", false},
		{"wav", "pcm_s16le", false},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			args := encodeArgs(tt.ext, opts)
			if args["c:a"] != tt.codec {
				t.Errorf("codec = %v, want %s", args["c:a"], tt.codec)
			}
			if args["ar"] != 16000 || args["ac"] != 1 {
				t.Errorf("rate/channels = %v/%v", args["ar"], args["ac"])
			}
			if _, ok := args["b:a"]; ok != tt.wantBitrate {
				t.Errorf("bitrate present = %v, want %v", ok, tt.wantBitrate)
			}
		})
	}
}

func TestMediaDetection(t *testing.T) {
	tests := []struct {
		path         string
		audio, video bool
	}{
		{"talk.MP3", true, false},
		{"clip.opus", true, false},
		{"movie.mkv", false, true},
		{"notes.txt", false, false},
		{"noext", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := IsAudioFile(tt.path); got != tt.audio {
				t.Errorf("IsAudioFile = %v", got)
			}
			if got := IsVideoFile(tt.path); got != tt.video {
				t.Errorf("IsVideoFile = %v", got)
			}
			if got := IsMediaFile(tt.path); got != (tt.audio || tt.video) {
				t.Errorf("IsMediaFile = %v", got)
			}
		})
	}
}
