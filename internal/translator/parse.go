package translator

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/retznutz/SharpTranslate/internal/textutil"
)

var codeBlockPattern = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// ParseTranslations extracts the ordered translation array from model
// output. Accepted shapes, tried in order:
//
//  1. {"translations": ["...", ...]}
//  2. any JSON object with exactly one array-valued field
//  3. a bare JSON array of strings
//
// Markdown code fences around the JSON are stripped first.
func ParseTranslations(content string) ([]string, error) {
	content = strings.TrimSpace(content)
	if m := codeBlockPattern.FindStringSubmatch(content); len(m) > 1 {
		content = m[1]
	}

	var wrapped struct {
		Translations []string `json:"translations"`
	}
	if err := json.Unmarshal([]byte(content), &wrapped); err == nil && wrapped.Translations != nil {
		return wrapped.Translations, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &obj); err == nil && len(obj) == 1 {
		for _, raw := range obj {
			var arr []string
			if err := json.Unmarshal(raw, &arr); err == nil {
				return arr, nil
			}
		}
	}

	var arr []string
	if err := json.Unmarshal([]byte(content), &arr); err == nil {
		return arr, nil
	}

	return nil, &RequestError{
		Message:   fmt.Sprintf("no translation array in response: %s", textutil.Truncate(content, 300)),
		Retryable: true,
	}
}
