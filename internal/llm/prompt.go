package llm

import (
	"fmt"
	"os"
	"strings"
)

// SystemMessage is sent as the system role with every request.
const SystemMessage = "You extract structured legal data from historical German newspaper entries."

// DefaultInstructions asks for one flat JSON object per register notice.
const DefaultInstructions = `Analyse the following OCR text from a historical German newspaper. For every
court or commercial register notice, return one JSON object with exactly these
keys: "Court_name", "Date_of_article", "Company_name", "Registration_Code",
"Registration_year". Keep the original German spelling, use null for values
that are not present, and return only a JSON array of flat objects.`

// LoadInstructions returns the instructions stored in path, or the defaults
// when path is empty.
func LoadInstructions(path string) (string, error) {
	if path == "" {
		return DefaultInstructions, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read prompt file: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", fmt.Errorf("prompt file %s is empty", path)
	}
	return string(data), nil
}

// BuildUserPrompt joins the instructions and one chunk of text.
func BuildUserPrompt(instructions, text string) string {
	return strings.TrimSpace(instructions) + "\n\n" + strings.TrimSpace(text)
}
