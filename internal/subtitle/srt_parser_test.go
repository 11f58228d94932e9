package subtitle

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseSRT(t *testing.T) {
	content := `1
00:00:01,000 --> 00:00:04,000
Hello, world!

2
00:00:05,500 --> 00:00:08,200
This is a test.
With multiple lines.

3
00:00:10,000 --> 00:00:12,500
Final subtitle.
`
	cues, err := ParseSRT(strings.NewReader(content))
	if err != nil {
		t.Fatalf("ParseSRT failed: %v", err)
	}

	if len(cues) != 3 {
		t.Fatalf("expected 3 cues, got %d", len(cues))
	}

	if cues[0].Start != 1 || cues[0].End != 4 {
		t.Errorf("cue 0: expected 1s-4s, got %v-%v", cues[0].Start, cues[0].End)
	}
	if cues[0].Body != "Hello, world!" {
		t.Errorf("cue 0: expected 'Hello, world!', got %q", cues[0].Body)
	}

	expectedBody := "This is a test.\nWith multiple lines."
	if cues[1].Body != expectedBody {
		t.Errorf("cue 1: expected %q, got %q", expectedBody, cues[1].Body)
	}
	if cues[1].Start != 5.5 {
		t.Errorf("cue 1: expected start 5.5, got %v", cues[1].Start)
	}
	if cues[2].Index != 3 {
		t.Errorf("cue 2: expected index 3, got %d", cues[2].Index)
	}
}

func TestParseSRTWindowsLineEndingsAndBOM(t *testing.T) {
	content := "\ufeff1\r\n00:00:00,000 --> 00:00:01,500\r\nHi\r\n\r\n"

	cues, err := ParseSRT(strings.NewReader(content))
	if err != nil {
		t.Fatalf("ParseSRT failed: %v", err)
	}
	if len(cues) != 1 || cues[0].Body != "Hi" || cues[0].End != 1.5 {
		t.Errorf("unexpected cues: %+v", cues)
	}
}

func TestParseSRTInvalidTiming(t *testing.T) {
	content := "1\nnot a timing line\nHello\n"

	if _, err := ParseSRT(strings.NewReader(content)); err == nil {
		t.Error("expected error for malformed timing line")
	}
}

func TestRenderedDocumentRoundTrip(t *testing.T) {
	segments := []Segment{
		{Start: 0.25, End: 1.75, Text: "Hello, world. This is a test."},
		{Start: 2, End: 2, Text: "   "},
		{Start: 3723.004, End: 3725, Text: "你好，世界。这是一个测试。"},
	}
	layout := Layout{MaxLineCount: 2, MaxLineWidth: 15}

	doc := BuildDocument(segments, KindSRT, layout)
	cues, err := ParseSRT(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ParseSRT failed: %v", err)
	}

	want := BuildCues(segments, layout)
	if len(cues) != len(want) {
		t.Fatalf("expected %d cues, got %d", len(want), len(cues))
	}
	for i := range want {
		if cues[i].String() != want[i].String() {
			t.Errorf("cue %d: got %q, want %q", i, cues[i].String(), want[i].String())
		}
	}
}

func TestReadSRTFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.srt")
	if err := os.WriteFile(path, []byte(fallbackDocument), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	cues, err := ReadSRTFile(path)
	if err != nil {
		t.Fatalf("ReadSRTFile failed: %v", err)
	}
	if len(cues) != 1 || cues[0].Body != FallbackCue.Body {
		t.Errorf("unexpected cues: %+v", cues)
	}

	if _, err := ReadSRTFile(filepath.Join(t.TempDir(), "missing.srt")); err == nil {
		t.Error("expected error for missing file")
	}
}
