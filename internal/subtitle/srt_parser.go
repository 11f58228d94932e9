package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var timingRegex = regexp.MustCompile(
	`(\d{2,}):(\d{2}):(\d{2})[,.](\d{3})\s*-->\s*(\d{2,}):(\d{2}):(\d{2})[,.](\d{3})`,
)

// ReadSRTFile parses the SubRip file at path.
func ReadSRTFile(path string) ([]Cue, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SRT file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	return ParseSRT(file)
}

// ParseSRT reads SubRip cues. Blocks without a timing line are ignored.
func ParseSRT(r io.Reader) ([]Cue, error) {
	var (
		cues      []Cue
		current   *Cue
		timed     bool
		bodyLines []string
		lineNum   int
	)

	flush := func() {
		if current != nil && timed && len(bodyLines) > 0 {
			current.Body = strings.Join(bodyLines, "\n")
			cues = append(cues, *current)
		}
		current = nil
		timed = false
		bodyLines = nil
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		lineNum++

		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}

		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}

		if current == nil {
			index, err := strconv.Atoi(strings.TrimSpace(line))
			if err == nil {
				current = &Cue{Index: index}
				continue
			}
		}

		if current != nil && !timed {
			matches := timingRegex.FindStringSubmatch(line)
			if len(matches) != 9 {
				return nil, fmt.Errorf(
					"invalid timing line at line %d: %q",
					lineNum,
					line,
				)
			}
			current.Start = clockSeconds(matches[1:5])
			current.End = clockSeconds(matches[5:9])
			timed = true
			continue
		}

		if current != nil {
			bodyLines = append(bodyLines, line)
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading SRT file: %w", err)
	}

	return cues, nil
}

// hours, minutes, seconds, millis; the regex guarantees digits
func clockSeconds(fields []string) float64 {
	h, _ := strconv.Atoi(fields[0])
	m, _ := strconv.Atoi(fields[1])
	s, _ := strconv.Atoi(fields[2])
	ms, _ := strconv.Atoi(fields[3])

	return float64(h*3600+m*60+s) + float64(ms)/1000
}
