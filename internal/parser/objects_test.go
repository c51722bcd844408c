package parser

import (
	"reflect"
	"testing"
)

func TestExtractObjects(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "no objects",
			in:   "Keine Eintragungen gefunden.",
			want: nil,
		},
		{
			name: "prose around object",
			in:   `here is the result: {"Court_name":"Amtsgericht X","Company_name":null} done`,
			want: []string{`{"Court_name":"Amtsgericht X","Company_name":null}`},
		},
		{
			name: "array of objects",
			in:   "```json\n[{\"a\":\"1\"},\n {\"a\":\"2\"}]\n```",
			want: []string{`{"a":"1"}`, `{"a":"2"}`},
		},
		{
			name: "nested object kept whole",
			in:   `{"Date_of_article":{"day":"2","month":"September"},"Registration_year":"1927"}`,
			want: []string{`{"Date_of_article":{"day":"2","month":"September"},"Registration_year":"1927"}`},
		},
		{
			name: "braces inside strings",
			in:   `{"Company_name":"Firma {Winter} u. Looke"} {"b":"}"}`,
			want: []string{`{"Company_name":"Firma {Winter} u. Looke"}`, `{"b":"}"}`},
		},
		{
			name: "escaped quotes",
			in:   `{"Company_name":"\"Glückauf\" GmbH {"} tail`,
			want: []string{`{"Company_name":"\"Glückauf\" GmbH {"}`},
		},
		{
			name: "stray brace before object",
			in:   `Text mit { Klammer und dann {"a":"1"}`,
			want: []string{`{"a":"1"}`},
		},
		{
			name: "unterminated object dropped",
			in:   `{"a":"1"} {"b":"2"`,
			want: []string{`{"a":"1"}`},
		},
		{
			name: "quoted brace in prose",
			in:   `Er sagte "{" und {"a":"1"}`,
			want: []string{`{"a":"1"}`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractObjects(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractObjects() = %q, want %q", got, tt.want)
			}
		})
	}
}
