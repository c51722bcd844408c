package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssemble(t *testing.T) {
	t.Run("prose around objects is ignored", func(t *testing.T) {
		results := []string{
			"Here are the records:\n" + `{"Court_name":"Amtsgericht Glogau","Date_of_article":null,"Company_name":"Gebr. Müller","Registration_Code":"HRB 12","Registration_year":"1927"}` + "\nHope this helps!",
		}

		records, err := Assemble(results, discardLogger())

		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "Amtsgericht Glogau", *records[0].CourtName)
		assert.Nil(t, records[0].DateOfArticle)
		assert.Equal(t, "Gebr. Müller", *records[0].CompanyName)
		assert.Equal(t, "HRB 12", *records[0].RegistrationCode)
	})

	t.Run("objects from all results in order", func(t *testing.T) {
		results := []string{
			`[{"Company_name":"A"},{"Company_name":"B"}]`,
			"```json\n" + `{"Company_name":"C"}` + "\n```",
		}

		records, err := Assemble(results, discardLogger())

		require.NoError(t, err)
		require.Len(t, records, 3)
		for i, want := range []string{"A", "B", "C"} {
			assert.Equal(t, want, *records[i].CompanyName)
		}
	})

	t.Run("no objects yields empty slice", func(t *testing.T) {
		records, err := Assemble([]string{"No register entries found.", "[]"}, discardLogger())

		require.NoError(t, err)
		assert.NotNil(t, records)
		assert.Empty(t, records)
	})

	t.Run("invalid object is a parse error", func(t *testing.T) {
		_, err := Assemble([]string{`{"Court_name": Amtsgericht}`}, discardLogger())

		var perr *ParseError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, "[{\"Court_name\": Amtsgericht}]", perr.Text)
		assert.Error(t, perr.Unwrap())
	})

	t.Run("one bad span fails the whole result", func(t *testing.T) {
		results := []string{
			`{"Company_name":"Gebr. Müller"}`,
			`{"Company_name": Schulz & Co}`,
		}

		records, err := Assemble(results, discardLogger())

		var perr *ParseError
		require.ErrorAs(t, err, &perr)
		assert.Nil(t, records)
		assert.Contains(t, perr.Text, "Gebr. Müller")
	})

	t.Run("nested braces do not split objects", func(t *testing.T) {
		records, err := Assemble([]string{`{"Company_name":"X","Date_of_article":{"day":2}}`}, discardLogger())

		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, `{"day":2}`, *records[0].DateOfArticle)
	})
}

func TestCoerceRecord(t *testing.T) {
	records, err := Assemble([]string{`{
		"court_name": "Amtsgericht Breslau",
		"Company_name": "Schmidt & Co.",
		"COMPANY_NAME": "ignored",
		"Registration_year": 1927,
		"Registration_Code": true,
		"Extra": "dropped"
	}`}, discardLogger())

	require.NoError(t, err)
	require.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, "Amtsgericht Breslau", *r.CourtName)
	assert.Equal(t, "Schmidt & Co.", *r.CompanyName)
	assert.Equal(t, "1927", *r.RegistrationYear)
	assert.Equal(t, "true", *r.RegistrationCode)
	assert.Nil(t, r.DateOfArticle)
}

func TestValueText(t *testing.T) {
	assert.Nil(t, valueText(nil))
	assert.Equal(t, "abc", *valueText("abc"))
	assert.Equal(t, "false", *valueText(false))
	assert.Equal(t, `["a",1]`, *valueText([]any{"a", 1}))
}

func TestParseErrorMessage(t *testing.T) {
	err := &ParseError{Text: "[x]", Err: errors.New("invalid character 'x'")}
	assert.Equal(t, "parse extracted records: invalid character 'x'", err.Error())
}
