package minutes

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/johnquangdev/mai-recap/internal/domain/entities"
)

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// ExtractJSON pulls the JSON object out of an LLM response that may be
// wrapped in a markdown code fence or surrounded by prose
func ExtractJSON(content string) string {
	content = strings.TrimSpace(content)

	if m := fencedJSON.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		return content[start : end+1]
	}
	return content
}

// DecodeRecord decodes a meeting record. Never fails: anything that is not a
// JSON object yields an empty record, and mistyped fields are left unset.
func DecodeRecord(data []byte) entities.MeetingRecord {
	var rec entities.MeetingRecord

	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return rec
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return entities.MeetingRecord{}
	}
	return rec
}
