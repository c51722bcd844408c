package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/raphaelgruber/regextract/internal/models"
)

type matchKind int

const (
	matchSubstring matchKind = iota
	matchExact
)

type fieldWeight struct {
	field  string
	kind   matchKind
	weight int
}

var scoringWeights = []fieldWeight{
	{models.FieldCourtName, matchSubstring, 2},
	{models.FieldDateOfArticle, matchSubstring, 1},
	{models.FieldCompanyName, matchSubstring, 2},
	{models.FieldRegistrationCode, matchExact, 2},
	{models.FieldRegistrationYear, matchExact, 2},
}

// IdealScore is the score of a perfect match for one record.
var IdealScore = func() int {
	n := 0
	for _, w := range scoringWeights {
		n += w.weight
	}
	return n
}()

// Match pairs a ground-truth record with its best parsed record.
type Match struct {
	GroundTruth int // index into the ground truth
	Parsed      int // index into the parsed records, -1 when unmatched
	Score       int
}

// CodeMismatch is a ground-truth record whose Registration_Code differs
// from its match.
type CodeMismatch struct {
	GroundTruth int
	Expected    models.ExtractionRecord
	Got         *models.ExtractionRecord // nil when unmatched
}

// EvaluationReport compares parsed records against ground truth.
type EvaluationReport struct {
	Matches        []Match
	MaxScore       int
	ObtainedScore  int
	Similarity     float64
	CodeMismatches []CodeMismatch
}

// Evaluate greedily matches every ground-truth record, in order, to the
// highest scoring unmatched parsed record. Ties go to the earliest record.
func Evaluate(truth, parsed []models.ExtractionRecord) EvaluationReport {
	report := EvaluationReport{MaxScore: len(truth) * IdealScore}
	used := make(map[int]bool)

	for i, gt := range truth {
		best, bestScore := -1, 0
		for j, p := range parsed {
			if used[j] {
				continue
			}
			if s := similarity(gt, p); s > bestScore {
				best, bestScore = j, s
			}
		}

		var got *models.ExtractionRecord
		if best >= 0 {
			used[best] = true
			got = &parsed[best]
		}
		report.ObtainedScore += bestScore
		report.Matches = append(report.Matches, Match{GroundTruth: i, Parsed: best, Score: bestScore})

		var gotCode *string
		if got != nil {
			gotCode = got.RegistrationCode
		}
		if codeDiffers(gt.RegistrationCode, gotCode) {
			report.CodeMismatches = append(report.CodeMismatches, CodeMismatch{GroundTruth: i, Expected: gt, Got: got})
		}
	}

	if report.MaxScore > 0 {
		report.Similarity = float64(report.ObtainedScore) / float64(report.MaxScore)
	}
	return report
}

func similarity(a, b models.ExtractionRecord) int {
	score := 0
	for _, w := range scoringWeights {
		x, y := models.Deref(a.Field(w.field)), models.Deref(b.Field(w.field))
		var ok bool
		switch w.kind {
		case matchSubstring:
			ok = substringMatch(x, y)
		case matchExact:
			ok = exactMatch(x, y)
		}
		if ok {
			score += w.weight
		}
	}
	return score
}

func substringMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	a, b = strings.ToLower(a), strings.ToLower(b)
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func exactMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return normalize(a) == normalize(b)
}

func codeDiffers(a, b *string) bool {
	if a == nil && b == nil {
		return false
	}
	return normalize(models.Deref(a)) != normalize(models.Deref(b))
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// LoadRecords reads a JSON array of register records. Values are coerced
// the same way as model output, so hand-written ground truth may use
// numbers for years.
func LoadRecords(path string) ([]models.ExtractionRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var items []map[string]any
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	records := make([]models.ExtractionRecord, len(items))
	for i, item := range items {
		records[i] = coerceRecord(item)
	}
	return records, nil
}
