package subtitle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"golang.org/x/text/language"
)

// language entry of the alias table
type LanguageAlias struct {
	Code         string   `json:"code"`
	EnglishName  string   `json:"english_name,omitempty"`
	NativeName   string   `json:"native_name,omitempty"`
	Alternatives []string `json:"alternatives"`
}

// maps free-form JSON keys to canonical language codes
type LanguageAliases struct {
	Languages []LanguageAlias `json:"languages"`
}

func DefaultLanguageAliases() LanguageAliases {
	return LanguageAliases{
		Languages: []LanguageAlias{
			{
				Code:         "en",
				EnglishName:  "English",
				Alternatives: []string{"english", "eng"},
			},
			{
				Code:         "zh",
				EnglishName:  "Chinese",
				NativeName:   "中文",
				Alternatives: []string{"chinese", "zh-cn", "zh_cn", "cn"},
			},
		},
	}
}

// LoadLanguageAliases reads an alias table from a JSON file.
func LoadLanguageAliases(path string) (LanguageAliases, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return LanguageAliases{}, fmt.Errorf("failed to read language config: %w", err)
	}

	var aliases LanguageAliases
	if err := json.Unmarshal(data, &aliases); err != nil {
		return LanguageAliases{}, fmt.Errorf("failed to parse language config: %w", err)
	}
	return aliases, nil
}

// Resolve maps a key to its canonical code. Keys that match no alias are
// reduced to their BCP 47 base language when they parse as a tag, and
// returned lowercased otherwise.
func (a LanguageAliases) Resolve(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))

	for _, lang := range a.Languages {
		if key == strings.ToLower(lang.Code) {
			return lang.Code
		}
		for _, alt := range lang.Alternatives {
			if key == strings.ToLower(alt) {
				return lang.Code
			}
		}
	}

	tag, err := language.Parse(strings.ReplaceAll(key, "_", "-"))
	if err != nil {
		return key
	}
	base, _ := tag.Base()
	return base.String()
}

// ConvertJSON turns a JSON array of multilingual subtitle items into a
// SubRip document. Each item carries "start" and "end" (numbers or
// timestamp strings) plus one text field per language. Texts of the
// selected languages are stacked in selection order; items with none of
// them are skipped.
func ConvertJSON(r io.Reader, langs []string, aliases LanguageAliases) (string, error) {
	if len(langs) == 0 {
		return "", fmt.Errorf("at least one language is required")
	}

	decoder := json.NewDecoder(r)
	decoder.UseNumber()

	var items []map[string]any
	if err := decoder.Decode(&items); err != nil {
		return "", fmt.Errorf("failed to parse subtitle JSON: %w", err)
	}

	selected := make([]string, len(langs))
	for i, l := range langs {
		selected[i] = aliases.Resolve(l)
	}

	cues := make([]Cue, 0, len(items))
	for _, item := range items {
		texts := collectTexts(item, selected, aliases)
		if len(texts) == 0 {
			continue
		}
		cues = append(cues, Cue{
			Index: len(cues) + 1,
			Start: Seconds(item["start"]),
			End:   Seconds(item["end"]),
			Body:  strings.Join(texts, "\n"),
		})
	}

	return RenderSRT(cues), nil
}

func collectTexts(
	item map[string]any,
	selected []string,
	aliases LanguageAliases,
) []string {
	keys := slices.Sorted(maps.Keys(item))

	var texts []string
	for _, code := range selected {
		for _, key := range keys {
			if key == "start" || key == "end" {
				continue
			}
			value := item[key]
			if aliases.Resolve(key) != code {
				continue
			}
			text, ok := value.(string)
			if ok && strings.TrimSpace(text) != "" {
				texts = append(texts, strings.TrimSpace(text))
			}
			break
		}
	}
	return texts
}

// DecodeSegments reads a JSON array of {start, end, text} objects, as
// emitted by transcription APIs. Missing or malformed fields default to
// zero values.
func DecodeSegments(r io.Reader) ([]Segment, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read segments: %w", err)
	}

	// accept both a bare array and {"segments": [...]}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapper struct {
			Segments json.RawMessage `json:"segments"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, fmt.Errorf("failed to parse segments: %w", err)
		}
		trimmed = wrapper.Segments
		if len(trimmed) == 0 {
			return nil, nil
		}
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var raw []map[string]any
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse segments: %w", err)
	}

	segments := make([]Segment, len(raw))
	for i, item := range raw {
		text, _ := item["text"].(string)
		segments[i] = Segment{
			Start: Seconds(item["start"]),
			End:   Seconds(item["end"]),
			Text:  text,
		}
	}
	return segments, nil
}
