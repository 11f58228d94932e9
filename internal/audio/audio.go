package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-audio/wav"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	ffmpegbin "github.com/mgpai22/scribe/internal/ffmpeg"
)

// media file information
type Info struct {
	Duration   time.Duration
	Codec      string
	SampleRate int
	Channels   int
	HasVideo   bool
}

// settings for audio extraction and transcoding
type ExtractOptions struct {
	Format     string // wav, mp3, aac, flac, opus
	SampleRate int
	Channels   int
	Bitrate    string // ignored for lossless formats
}

// small mono files keep uploads under provider size limits
func DefaultExtractOptions() ExtractOptions {
	return ExtractOptions{
		Format:     "mp3",
		SampleRate: 16000,
		Channels:   1,
		Bitrate:    "64k",
	}
}

type ffprobeOutput struct {
	Streams []struct {
		CodecType  string `json:"codec_type"`
		CodecName  string `json:"codec_name"`
		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe reports duration and audio stream details. WAV headers are read
// directly; everything else goes through ffprobe.
func Probe(ctx context.Context, path string) (Info, error) {
	if _, err := os.Stat(path); err != nil {
		return Info{}, fmt.Errorf("file not found: %s", path)
	}

	if strings.EqualFold(filepath.Ext(path), ".wav") {
		if info, err := probeWAV(path); err == nil {
			return info, nil
		}
	}

	ffprobePath, err := ffmpegbin.FFprobePath()
	if err != nil {
		return Info{}, err
	}

	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return Info{}, fmt.Errorf("ffprobe failed: %w", err)
	}

	return parseProbe(out.Bytes())
}

// GetDuration is a shorthand for Probe(...).Duration.
func GetDuration(ctx context.Context, path string) (time.Duration, error) {
	info, err := Probe(ctx, path)
	if err != nil {
		return 0, err
	}
	return info.Duration, nil
}

func parseProbe(data []byte) (Info, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(data, &probe); err != nil {
		return Info{}, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	seconds, err := strconv.ParseFloat(strings.TrimSpace(probe.Format.Duration), 64)
	if err != nil {
		return Info{}, fmt.Errorf("failed to parse duration %q: %w", probe.Format.Duration, err)
	}

	info := Info{Duration: time.Duration(seconds * float64(time.Second))}
	for _, s := range probe.Streams {
		switch s.CodecType {
		case "video":
			info.HasVideo = true
		case "audio":
			if info.Codec != "" {
				continue
			}
			info.Codec = s.CodecName
			info.Channels = s.Channels
			info.SampleRate, _ = strconv.Atoi(s.SampleRate)
		}
	}
	return info, nil
}

func probeWAV(path string) (Info, error) {
	file, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return Info{}, fmt.Errorf("invalid WAV file: %s", path)
	}

	duration, err := decoder.Duration()
	if err != nil {
		return Info{}, fmt.Errorf("failed to read WAV duration: %w", err)
	}

	codec := "pcm_s16le"
	switch decoder.BitDepth {
	case 24:
		codec = "pcm_s24le"
	case 32:
		codec = "pcm_f32le"
	}

	return Info{
		Duration:   duration,
		Codec:      codec,
		SampleRate: int(decoder.SampleRate),
		Channels:   int(decoder.NumChans),
	}, nil
}

// Extract drops any video stream and transcodes the audio to outputPath.
func Extract(
	ctx context.Context,
	inputPath, outputPath string,
	opts ExtractOptions,
) error {
	if _, err := os.Stat(inputPath); err != nil {
		return fmt.Errorf("input file not found: %s", inputPath)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	kwargs := ffmpeg.KwArgs{"vn": ""}
	for k, v := range encodeArgs(opts.Format, opts) {
		kwargs[k] = v
	}

	if err := runFFmpeg(ctx, inputPath, outputPath, kwargs); err != nil {
		return fmt.Errorf("audio extraction failed: %w", err)
	}
	return nil
}

// encodeArgs maps an output extension to codec, rate and bitrate flags.
func encodeArgs(ext string, opts ExtractOptions) ffmpeg.KwArgs {
	kwargs := ffmpeg.KwArgs{}

	switch strings.ToLower(ext) {
	case "opus":
		kwargs["c:a"] = "libopus"
	case "aac", "m4a":
		kwargs["c:a"] = "aac"
	case "flac":
		kwargs["c:a"] = "flac"
	case "wav":
		kwargs["c:a"] = "pcm_s16le"
	default:
		kwargs["c:a"] = "libmp3lame"
	}

	if opts.SampleRate > 0 {
		kwargs["ar"] = opts.SampleRate
	}
	if opts.Channels > 0 {
		kwargs["ac"] = opts.Channels
	}
	if opts.Bitrate != "" && ext != "wav" && ext != "flac" {
		kwargs["b:a"] = opts.Bitrate
	}
	return kwargs
}

func runFFmpeg(ctx context.Context, input, output string, kwargs ffmpeg.KwArgs) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ffmpegPath, err := ffmpegbin.FFmpegPath()
	if err != nil {
		return err
	}

	var stderr bytes.Buffer
	err = ffmpeg.Input(input).
		Output(output, kwargs).
		OverWriteOutput().
		SetFfmpegPath(ffmpegPath).
		WithErrorOutput(&stderr).
		Run()
	if err != nil {
		if msg := lastLine(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}

// checks if the file is a video based on extension
func IsVideoFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4", ".mkv", ".avi", ".mov", ".wmv", ".flv", ".webm",
		".m4v", ".mpeg", ".mpg", ".3gp":
		return true
	}
	return false
}

// checks if the file is an audio file based on extension
func IsAudioFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3", ".wav", ".aac", ".flac", ".ogg", ".opus", ".m4a",
		".wma", ".aiff":
		return true
	}
	return false
}

func IsMediaFile(path string) bool {
	return IsAudioFile(path) || IsVideoFile(path)
}
