package ai

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	trailingCommaRe   = regexp.MustCompile(`,(\s*[}\]])`)
	missingElemComma  = regexp.MustCompile(`}\s*{`)
	missingFieldComma = regexp.MustCompile(`"\s*\n\s*"`)
)

// Recovery stages for model replies that are not clean JSON. Each stage
// transforms the accumulated text and is only reached when the parse of the
// previous stage's output failed, so a well-formed reply is never rewritten.
var recoverySteps = []func(string) string{
	stripFences,
	cutToBoundaries,
	fixSyntax,
	stripCommentLines,
}

// DecodeJSON unmarshals the JSON document embedded in a model reply.
// Replies rarely arrive clean: recovery strips markdown fences, cuts to the
// outermost object or array boundaries, repairs common syntax slips, and
// drops interleaved comment lines, re-parsing after each stage. A reply
// that survives none of it yields an invalid_json error.
func DecodeJSON(task Task, raw string, v any) error {
	text := strings.TrimSpace(raw)
	err := json.Unmarshal([]byte(text), v)
	for _, step := range recoverySteps {
		if err == nil {
			return nil
		}
		text = step(text)
		err = json.Unmarshal([]byte(text), v)
	}
	if err != nil {
		return &Error{Kind: KindInvalidJSON, Task: task, Detail: err.Error()}
	}
	return nil
}

func stripFences(text string) string {
	if idx := strings.Index(text, "```json"); idx != -1 {
		start := idx + len("```json")
		end := strings.LastIndex(text, "```")
		if end > start {
			return strings.TrimSpace(text[start:end])
		}
	} else if idx := strings.Index(text, "```"); idx != -1 {
		start := idx + len("```")
		end := strings.LastIndex(text, "```")
		if end > start {
			return strings.TrimSpace(text[start:end])
		}
	}
	return text
}

// cutToBoundaries trims to the outermost JSON value, preferring whichever
// of '{' or '[' appears first.
func cutToBoundaries(text string) string {
	objStart := strings.Index(text, "{")
	arrStart := strings.Index(text, "[")

	start, closer := objStart, "}"
	if objStart == -1 || (arrStart != -1 && arrStart < objStart) {
		start, closer = arrStart, "]"
	}

	if start == -1 {
		return text
	}
	end := strings.LastIndex(text, closer)
	if end <= start {
		return text
	}
	return text[start : end+1]
}

func fixSyntax(text string) string {
	text = trailingCommaRe.ReplaceAllString(text, "$1")
	text = missingElemComma.ReplaceAllString(text, "},{")
	text = missingFieldComma.ReplaceAllString(text, "\",\n\"")
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, text)
}

// stripCommentLines drops blank lines and the line comments some models
// interleave with the payload.
func stripCommentLines(text string) string {
	var rebuilt []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		rebuilt = append(rebuilt, line)
	}
	return strings.Join(rebuilt, "\n")
}
