package audio

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

const (
	DefaultSegmentSeconds = 1800
	maxParts              = 9
)

// a piece of a longer recording, offset within the original
type Chunk struct {
	Path      string
	Index     int
	StartTime time.Duration
	EndTime   time.Duration
}

type SplitOptions struct {
	SegmentSeconds int
	// "auto" stream-copies the source codec; anything else is transcoded
	Format      string
	SampleRate  int
	Channels    int
	Bitrate     string
	OutputDir   string // defaults to the input's directory
	Concurrency int
}

type span struct {
	start, length float64
}

// planSplit cuts total seconds into pieces of segment seconds, never more
// than maxParts. Longer inputs stretch the piece length instead.
func planSplit(total float64, segment int) []span {
	if total <= 0 {
		return nil
	}
	if segment <= 0 {
		segment = DefaultSegmentSeconds
	}

	length := float64(segment)
	count := int(math.Ceil(total / length))
	if count > maxParts {
		count = maxParts
		length = math.Ceil(total / float64(count))
	}

	spans := make([]span, 0, count)
	for i := range count {
		start := float64(i) * length
		if start >= total {
			break
		}
		spans = append(spans, span{start: start, length: math.Min(length, total-start)})
	}
	return spans
}

// extension for a split output; codec is the probed source codec
func extensionFor(format, codec string) string {
	if format != "" && format != "auto" {
		return format
	}
	switch codec {
	case "aac", "mp3", "opus", "flac":
		return codec
	case "vorbis":
		return "ogg"
	case "pcm_s16le", "pcm_s24le", "pcm_f32le":
		return "wav"
	default:
		return "m4a"
	}
}

func partPath(dir, input string, index int, ext string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(dir, fmt.Sprintf("%s_part%d.%s", base, index+1, ext))
}

// Split cuts the input into pieces of opts.SegmentSeconds. Inputs that fit
// in a single piece are returned as one chunk pointing at the input.
func Split(ctx context.Context, inputPath string, opts SplitOptions) ([]Chunk, error) {
	info, err := Probe(ctx, inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get audio duration: %w", err)
	}

	total := info.Duration.Seconds()
	if total <= 0 {
		return nil, fmt.Errorf("audio duration is zero: %s", inputPath)
	}

	spans := planSplit(total, opts.SegmentSeconds)
	if len(spans) <= 1 {
		return []Chunk{{
			Path:    inputPath,
			EndTime: info.Duration,
		}}, nil
	}

	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = filepath.Dir(inputPath)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	ext := extensionFor(opts.Format, info.Codec)
	streamCopy := opts.Format == "" || opts.Format == "auto"
	chunks := make([]Chunk, len(spans))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		firstErr error
		wg       sync.WaitGroup
	)
	sem := make(chan struct{}, concurrency)

	for i, s := range spans {
		chunks[i] = Chunk{
			Path:      partPath(outputDir, inputPath, i, ext),
			Index:     i,
			StartTime: seconds(s.start),
			EndTime:   seconds(s.start + s.length),
		}

		wg.Go(func() {
			sem <- struct{}{}
			defer func() { <-sem }()

			kwargs := ffmpeg.KwArgs{
				"ss": s.start,
				"t":  s.length,
				"vn": "",
			}
			if streamCopy {
				kwargs["acodec"] = "copy"
			} else {
				for k, v := range encodeArgs(ext, ExtractOptions{
					SampleRate: opts.SampleRate,
					Channels:   opts.Channels,
					Bitrate:    opts.Bitrate,
				}) {
					kwargs[k] = v
				}
			}

			if err := runFFmpeg(ctx, inputPath, chunks[i].Path, kwargs); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("failed to create part %d: %w", i+1, err)
					cancel()
				}
				mu.Unlock()
			}
		})
	}

	wg.Wait()

	if firstErr != nil {
		_ = CleanupChunks(chunks)
		return nil, firstErr
	}
	return chunks, nil
}

// removes all chunk files
func CleanupChunks(chunks []Chunk) error {
	var lastErr error
	for _, chunk := range chunks {
		if err := os.Remove(chunk.Path); err != nil && !os.IsNotExist(err) {
			lastErr = err
		}
	}
	return lastErr
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
