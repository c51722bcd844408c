package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/raphaelgruber/regextract/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(court, date, company, code, year string) models.ExtractionRecord {
	return models.ExtractionRecord{
		CourtName:        models.StringPtr(court),
		DateOfArticle:    models.StringPtr(date),
		CompanyName:      models.StringPtr(company),
		RegistrationCode: models.StringPtr(code),
		RegistrationYear: models.StringPtr(year),
	}
}

func TestEvaluate(t *testing.T) {
	truth := []models.ExtractionRecord{
		record("Amtsgericht Glogau", "2. September 1927", "Gebr. Müller GmbH", "HRB 12", "1927"),
		record("Amtsgericht Breslau", "3. September 1927", "Schmidt & Co.", "HRA 7", "1927"),
		record("Amtsgericht Liegnitz", "", "Weber AG", "", "1926"),
	}
	parsed := []models.ExtractionRecord{
		record("Breslau", "3. September", "schmidt & co.", "HRA 8", "1927"),
		record("Amtsgericht Glogau", "2. September 1927", "Gebr. Müller GmbH", " hrb 12 ", "1927"),
	}

	report := Evaluate(truth, parsed)

	assert.Equal(t, 9, IdealScore)
	assert.Equal(t, 27, report.MaxScore)
	require.Len(t, report.Matches, 3)
	assert.Equal(t, Match{GroundTruth: 0, Parsed: 1, Score: 9}, report.Matches[0])
	assert.Equal(t, Match{GroundTruth: 1, Parsed: 0, Score: 7}, report.Matches[1])
	assert.Equal(t, Match{GroundTruth: 2, Parsed: -1, Score: 0}, report.Matches[2])
	assert.Equal(t, 16, report.ObtainedScore)
	assert.InDelta(t, 16.0/27.0, report.Similarity, 1e-9)

	require.Len(t, report.CodeMismatches, 1)
	assert.Equal(t, 1, report.CodeMismatches[0].GroundTruth)
	require.NotNil(t, report.CodeMismatches[0].Got)
	assert.Equal(t, "HRA 8", *report.CodeMismatches[0].Got.RegistrationCode)
}

func TestEvaluateTiesGoToFirst(t *testing.T) {
	truth := []models.ExtractionRecord{record("Amtsgericht Glogau", "", "", "", "")}
	parsed := []models.ExtractionRecord{
		record("Glogau", "", "A", "", ""),
		record("Glogau", "", "B", "", ""),
	}

	report := Evaluate(truth, parsed)

	assert.Equal(t, 0, report.Matches[0].Parsed)
	assert.Equal(t, 2, report.Matches[0].Score)
	assert.Empty(t, report.CodeMismatches)
}

func TestEvaluateEmpty(t *testing.T) {
	report := Evaluate(nil, []models.ExtractionRecord{record("x", "", "", "", "")})
	assert.Zero(t, report.MaxScore)
	assert.Zero(t, report.Similarity)
}

func TestEvaluateUnmatchedCodeIsMismatch(t *testing.T) {
	truth := []models.ExtractionRecord{record("", "", "", "HRB 1", "")}
	report := Evaluate(truth, nil)

	require.Len(t, report.CodeMismatches, 1)
	assert.Nil(t, report.CodeMismatches[0].Got)
}

func TestLoadRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gt.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"Court_name":"Amtsgericht Glogau","Date_of_article":null,"Company_name":"A","Registration_Code":"HRB 1","Registration_year":1927}
	]`), 0o644))

	records, err := LoadRecords(path)

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "1927", *records[0].RegistrationYear)
	assert.Nil(t, records[0].DateOfArticle)

	_, err = LoadRecords(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
