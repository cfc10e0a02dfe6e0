// Package manifest parses the label and segment tables of a dialect corpus
// and groups segment requests by source video.
//
// Both tables are plain text, whitespace-delimited, one record per line and
// without a header:
//
//	labels:   <id> <label>
//	segments: <utterance-id> <video-id> <start-seconds> <end-seconds>
//
// Blank lines and lines starting with '#' are ignored.
package manifest

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/alnah/adiclip/internal/label"
)

// LabelTable maps an id (utterance or source video) to its dialect label.
// Built once at load time and read-only afterwards.
type LabelTable map[string]string

// Lookup resolves the label for a segment. The utterance id is tried first,
// then the source video id. ok is false when neither key is present.
func (t LabelTable) Lookup(uttID, videoID string) (string, bool) {
	if l, ok := t[uttID]; ok {
		return l, true
	}
	if l, ok := t[videoID]; ok {
		return l, true
	}
	return "", false
}

// Record is one parsed line of the segment table, before label resolution.
type Record struct {
	UttID   string
	VideoID string
	Start   float64 // Seconds.
	End     float64 // Seconds.
}

// Segment is a labeled request to cut one clip from one source video.
type Segment struct {
	UttID   string
	VideoID string
	Start   float64 // Seconds, >= 0.
	End     float64 // Seconds, > Start.
	Label   string
}

// Duration returns the clip length in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// ClipName returns the output file name "<utt>_<label>.<ext>".
func (s Segment) ClipName(ext string) string {
	return s.UttID + "_" + s.Label + "." + strings.TrimPrefix(ext, ".")
}

// JoinPolicy controls what happens to segments without a label.
type JoinPolicy int

const (
	// Lenient keeps unlabeled segments under label.Unknown.
	Lenient JoinPolicy = iota
	// Strict drops unlabeled segments.
	Strict
)

// String returns the string representation of the JoinPolicy.
func (p JoinPolicy) String() string {
	switch p {
	case Lenient:
		return "lenient"
	case Strict:
		return "strict"
	default:
		return fmt.Sprintf("JoinPolicy(%d)", p)
	}
}

// Options configures Load.
type Options struct {
	Policy JoinPolicy
	// Limit keeps only the first Limit joined segments. Zero or negative means no limit.
	Limit int
}

// Manifest is the loaded, joined view of both tables.
type Manifest struct {
	Labels   LabelTable
	Segments []Segment
	// Unlabeled counts segments that had no label (kept as unknown or dropped, per policy).
	Unlabeled int
}

// Load reads and joins the label and segment tables.
// Any malformed line in either table fails the whole load.
func Load(segmentsPath, labelsPath string, opts Options) (*Manifest, error) {
	labels, err := parseFile(labelsPath, ParseLabels)
	if err != nil {
		return nil, err
	}
	records, err := parseFile(segmentsPath, ParseSegments)
	if err != nil {
		return nil, err
	}

	segments, unlabeled := Join(records, labels, opts.Policy)
	if opts.Limit > 0 && len(segments) > opts.Limit {
		segments = segments[:opts.Limit]
	}

	return &Manifest{
		Labels:    labels,
		Segments:  segments,
		Unlabeled: unlabeled,
	}, nil
}

func parseFile[T any](path string, parse func(io.Reader, string) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path) // #nosec G304 -- manifest path is user-provided by design
	if err != nil {
		return zero, fmt.Errorf("open manifest: %w", err)
	}
	defer func() { _ = f.Close() }()
	return parse(f, path)
}

// ParseLabels parses a label table. name is used in error messages.
// A repeated id keeps its last label.
func ParseLabels(r io.Reader, name string) (LabelTable, error) {
	table := make(LabelTable)
	err := scanRecords(r, name, 2, func(line int, text string, fields []string) error {
		l := label.Normalize(fields[1])
		if err := label.Validate(l); err != nil {
			return &MalformedRecordError{Path: name, Line: line, Text: text, Reason: err.Error()}
		}
		table[fields[0]] = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return table, nil
}

// ParseSegments parses a segment table. name is used in error messages.
// Utterance ids must be unique since they key the output clip path.
func ParseSegments(r io.Reader, name string) ([]Record, error) {
	var records []Record
	seen := make(map[string]int)

	err := scanRecords(r, name, 4, func(line int, text string, fields []string) error {
		malformed := func(reason string) error {
			return &MalformedRecordError{Path: name, Line: line, Text: text, Reason: reason}
		}

		if err := ValidateID(fields[0]); err != nil {
			return malformed("utterance " + err.Error())
		}
		if err := ValidateID(fields[1]); err != nil {
			return malformed("video " + err.Error())
		}

		start, err := parseSeconds(fields[2])
		if err != nil {
			return malformed(fmt.Sprintf("invalid start %q", fields[2]))
		}
		end, err := parseSeconds(fields[3])
		if err != nil {
			return malformed(fmt.Sprintf("invalid end %q", fields[3]))
		}
		if start < 0 {
			return malformed("negative start")
		}
		if end <= start {
			return malformed("end must be greater than start")
		}
		if first, dup := seen[fields[0]]; dup {
			return malformed(fmt.Sprintf("duplicate utterance id (first seen on line %d)", first))
		}
		seen[fields[0]] = line

		records = append(records, Record{
			UttID:   fields[0],
			VideoID: fields[1],
			Start:   start,
			End:     end,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Join resolves the label of every record. It returns the labeled segments in
// input order and the number of records that had no label in the table.
func Join(records []Record, labels LabelTable, policy JoinPolicy) ([]Segment, int) {
	segments := make([]Segment, 0, len(records))
	unlabeled := 0

	for _, rec := range records {
		l, ok := labels.Lookup(rec.UttID, rec.VideoID)
		if !ok {
			unlabeled++
			if policy == Strict {
				continue
			}
			l = label.Unknown
		}
		segments = append(segments, Segment{
			UttID:   rec.UttID,
			VideoID: rec.VideoID,
			Start:   rec.Start,
			End:     rec.End,
			Label:   l,
		})
	}

	return segments, unlabeled
}

// ValidateID checks that an utterance or video id names exactly one entry
// inside its directory: it must be non-empty, not "." or "..", and free of
// path separators and NUL.
func ValidateID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, "/\\\x00") {
		return fmt.Errorf("%w: %q", ErrUnsafeID, id)
	}
	return nil
}

// scanRecords calls fn for every non-blank, non-comment line that splits into
// exactly want fields.
func scanRecords(r io.Reader, name string, want int, fn func(line int, text string, fields []string) error) error {
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		text := scanner.Text()
		trimmed := strings.TrimSpace(text)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		fields := strings.Fields(trimmed)
		if len(fields) != want {
			return &MalformedRecordError{
				Path:   name,
				Line:   lineNum,
				Text:   text,
				Reason: fmt.Sprintf("expected %d fields, got %d", want, len(fields)),
			}
		}
		if err := fn(lineNum, text, fields); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	return nil
}

// parseSeconds parses a finite floating-point number of seconds.
func parseSeconds(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number: %s", s)
	}
	return v, nil
}
