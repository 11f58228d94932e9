package transcribe

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mgpai22/scribe/internal/audio"
	"github.com/mgpai22/scribe/internal/subtitle"
)

// holds the result of transcribing a chunk
type chunkResult struct {
	Index  int
	Result *Result
	Error  error
}

// TranscribeChunks transcribes chunks with at most concurrency requests in
// flight, shifts every segment by its chunk offset and merges the results
// in chunk order. The first failure cancels the remaining work.
func TranscribeChunks(
	ctx context.Context,
	t Transcriber,
	chunks []audio.Chunk,
	concurrency int,
) (*Result, error) {
	if len(chunks) == 0 {
		return &Result{}, nil
	}
	if len(chunks) == 1 && chunks[0].StartTime == 0 {
		return t.Transcribe(ctx, chunks[0].Path)
	}

	if concurrency <= 0 {
		concurrency = 3
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workChan := make(chan audio.Chunk)
	resultChan := make(chan chunkResult, len(chunks))

	var wg sync.WaitGroup
	for range min(concurrency, len(chunks)) {
		wg.Go(func() {
			for chunk := range workChan {
				if ctx.Err() != nil {
					return
				}
				res, err := t.Transcribe(ctx, chunk.Path)
				if err != nil {
					cancel()
				}
				resultChan <- chunkResult{Index: chunk.Index, Result: res, Error: err}
			}
		})
	}

	go func() {
		defer close(workChan)
		for _, chunk := range chunks {
			select {
			case <-ctx.Done():
				return
			case workChan <- chunk:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	offsets := make(map[int]float64, len(chunks))
	for _, c := range chunks {
		offsets[c.Index] = c.StartTime.Seconds()
	}

	results := make([]chunkResult, 0, len(chunks))
	var firstErr error
	for r := range resultChan {
		if r.Error != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("chunk %d failed: %w", r.Index, r.Error)
			}
			continue
		}
		results = append(results, r)
	}
	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil && len(results) < len(chunks) {
		return nil, err
	}

	// sort by index to maintain order
	sort.Slice(results, func(i, j int) bool {
		return results[i].Index < results[j].Index
	})

	merged := &Result{Duration: chunks[len(chunks)-1].EndTime}
	for _, r := range results {
		if r.Result == nil {
			continue
		}
		offset := offsets[r.Index]
		for _, seg := range r.Result.Segments {
			merged.Segments = append(merged.Segments, subtitle.Segment{
				Start: seg.Start + offset,
				End:   seg.End + offset,
				Text:  seg.Text,
			})
		}
		if r.Result.Text != "" {
			if merged.Text != "" {
				merged.Text += " "
			}
			merged.Text += r.Result.Text
		}
		if merged.Language == "" {
			merged.Language = r.Result.Language
		}
	}
	return merged, nil
}
