package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mgpai22/scribe/internal/audio"
	"github.com/mgpai22/scribe/internal/history"
	"github.com/mgpai22/scribe/internal/logging"
	"github.com/mgpai22/scribe/internal/subtitle"
	"github.com/mgpai22/scribe/internal/transcribe"
)

// Stage of a single file's processing.
type Stage string

const (
	StagePrepare Stage = "prepare"
	StageUpload  Stage = "upload"
	StageProcess Stage = "process"
	StageFormat  Stage = "format"
	StageDone    Stage = "done"
	StageFailed  Stage = "failed"
)

var stagePercent = map[Stage]int{
	StagePrepare: 10,
	StageUpload:  30,
	StageProcess: 50,
	StageFormat:  80,
	StageDone:    100,
	StageFailed:  100,
}

// Progress is reported on every stage change.
type Progress struct {
	File    string
	Stage   Stage
	Percent int
}

type ProgressFunc func(Progress)

// Recorder persists job outcomes; *history.Store implements it.
type Recorder interface {
	Start(ctx context.Context, input, provider string) (*history.Job, error)
	Finish(ctx context.Context, id, output string, cues int) error
	Fail(ctx context.Context, id string, jobErr error) error
}

// AudioPreparer turns an input file into the chunks to upload. Anything
// it creates goes under workDir, which the runner removes afterwards.
type AudioPreparer interface {
	Prepare(ctx context.Context, input, workDir string) ([]audio.Chunk, error)
}

type Options struct {
	Kind             subtitle.OutputKind
	Layout           subtitle.Layout
	Concurrency      int // files in flight
	ChunkConcurrency int // requests in flight per file
	OutputDir        string
	TempDir          string
	Provider         string
}

// Result of one input file.
type Result struct {
	Input  string
	Output string
	JobID  string
	Cues   int
	Err    error
}

// Runner transcribes a batch of files into subtitle documents.
type Runner struct {
	transcriber transcribe.Transcriber
	preparer    AudioPreparer
	recorder    Recorder
	logger      *logging.Logger
	opts        Options
	onProgress  ProgressFunc
}

type RunnerOption func(*Runner)

func WithRecorder(r Recorder) RunnerOption {
	return func(rn *Runner) { rn.recorder = r }
}

func WithProgress(fn ProgressFunc) RunnerOption {
	return func(rn *Runner) { rn.onProgress = fn }
}

func WithPreparer(p AudioPreparer) RunnerOption {
	return func(rn *Runner) { rn.preparer = p }
}

func WithLogger(l *logging.Logger) RunnerOption {
	return func(rn *Runner) { rn.logger = l }
}

func NewRunner(t transcribe.Transcriber, opts Options, options ...RunnerOption) *Runner {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Layout.MaxLineCount == 0 && opts.Layout.MaxLineWidth == 0 {
		opts.Layout = subtitle.DefaultLayout()
	}
	if opts.Kind == "" {
		opts.Kind = subtitle.KindSRT
	}

	r := &Runner{
		transcriber: t,
		preparer:    FFmpegPreparer{Extract: audio.DefaultExtractOptions()},
		logger:      logging.Nop(),
		opts:        opts,
	}
	for _, o := range options {
		o(r)
	}
	return r
}

// Run processes files with at most Options.Concurrency in flight. One
// file failing does not stop the others; results keep the input order.
func (r *Runner) Run(ctx context.Context, files []string) []Result {
	results := make([]Result, len(files))
	sem := make(chan struct{}, r.opts.Concurrency)

	var wg sync.WaitGroup
	for i, file := range files {
		wg.Go(func() {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[i] = Result{Input: file, Err: ctx.Err()}
				return
			}
			defer func() { <-sem }()

			results[i] = r.processFile(ctx, file)
		})
	}
	wg.Wait()
	return results
}

func (r *Runner) processFile(ctx context.Context, input string) Result {
	result := Result{Input: input}
	log := r.logger.With("file", filepath.Base(input))

	r.report(input, StagePrepare)

	if r.recorder != nil {
		job, err := r.recorder.Start(ctx, input, r.opts.Provider)
		if err != nil {
			log.Warnw("history unavailable", "error", err)
		} else {
			result.JobID = job.ID
		}
	}

	output, cues, err := r.transcribeFile(ctx, input, log)
	if err != nil {
		result.Err = err
		r.report(input, StageFailed)
		log.Errorw("transcription failed", "error", err)
		if result.JobID != "" {
			if ferr := r.recorder.Fail(context.WithoutCancel(ctx), result.JobID, err); ferr != nil {
				log.Warnw("failed to record job failure", "error", ferr)
			}
		}
		return result
	}

	result.Output = output
	result.Cues = cues
	if result.JobID != "" {
		if ferr := r.recorder.Finish(ctx, result.JobID, output, cues); ferr != nil {
			log.Warnw("failed to record job", "error", ferr)
		}
	}

	r.report(input, StageDone)
	log.Infow("subtitle written", "output", output, "cues", cues)
	return result
}

func (r *Runner) transcribeFile(ctx context.Context, input string, log *logging.Logger) (string, int, error) {
	if _, err := os.Stat(input); err != nil {
		return "", 0, fmt.Errorf("input not found: %w", err)
	}

	workDir, err := os.MkdirTemp(r.opts.TempDir, "scribe-*")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create work dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	chunks, err := r.preparer.Prepare(ctx, input, workDir)
	if err != nil {
		return "", 0, fmt.Errorf("failed to prepare audio: %w", err)
	}
	log.Debugw("audio prepared", "chunks", len(chunks))

	r.report(input, StageUpload)
	res, err := transcribe.TranscribeChunks(ctx, r.transcriber, chunks, r.opts.ChunkConcurrency)
	if err != nil {
		return "", 0, err
	}
	r.report(input, StageProcess)

	for _, seg := range res.Segments {
		if seg.End < seg.Start {
			log.Warnw("segment ends before it starts", "start", seg.Start, "end", seg.End)
		}
	}

	r.report(input, StageFormat)
	content, cues := r.render(res.Segments)

	output, err := subtitle.WriteNew(r.outputBase(input), r.opts.Kind, content)
	if err != nil {
		return "", 0, fmt.Errorf("failed to write output for %s: %w", filepath.Base(input), err)
	}

	return output, cues, nil
}

// render returns the document and the number of non-empty cues in it.
func (r *Runner) render(segments []subtitle.Segment) (string, int) {
	if r.opts.Kind == subtitle.KindText {
		n := 0
		for _, seg := range segments {
			if strings.TrimSpace(seg.Text) != "" {
				n++
			}
		}
		return subtitle.PlainText(segments), n
	}

	cues := subtitle.BuildCues(segments, r.opts.Layout)
	return subtitle.RenderSRT(cues), len(cues)
}

func (r *Runner) outputBase(input string) string {
	if r.opts.OutputDir == "" {
		return input
	}
	return filepath.Join(r.opts.OutputDir, filepath.Base(input))
}

func (r *Runner) report(file string, stage Stage) {
	if r.onProgress == nil {
		return
	}
	r.onProgress(Progress{File: file, Stage: stage, Percent: stagePercent[stage]})
}

// FFmpegPreparer extracts audio from video (or unknown) inputs, then
// splits it when splitting is enabled.
type FFmpegPreparer struct {
	Extract      audio.ExtractOptions
	Split        audio.SplitOptions
	SplitEnabled bool
}

func (p FFmpegPreparer) Prepare(ctx context.Context, input, workDir string) ([]audio.Chunk, error) {
	source := input
	if !audio.IsAudioFile(input) {
		extract := p.Extract
		if extract.Format == "" {
			extract = audio.DefaultExtractOptions()
		}
		base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
		source = filepath.Join(workDir, base+"."+extract.Format)
		if err := audio.Extract(ctx, input, source, extract); err != nil {
			return nil, err
		}
	}

	if !p.SplitEnabled {
		return []audio.Chunk{{Path: source}}, nil
	}

	opts := p.Split
	opts.OutputDir = workDir
	return audio.Split(ctx, source, opts)
}
