package llm

import "strings"

// ExtractJSON pulls the JSON object out of a completion response. Models
// routinely wrap structured output in code fences or surround it with prose;
// this strips fence lines and slices from the first '{' to the last '}'.
// The second return is false when no braced object is present.
func ExtractJSON(response string) (string, bool) {
	lines := strings.Split(response, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	cleaned := strings.TrimSpace(strings.Join(kept, "\n"))

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return cleaned[start : end+1], true
}
