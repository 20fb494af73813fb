package prompt

import "strings"

// Sanitize trims trailing incomplete content from a length-capped answer.
//
// In table mode everything from the first line without a column separator
// onwards is dropped. Otherwise the answer is cut after its last sentence
// terminator; an answer with no terminator is returned as is.
func Sanitize(raw string, f Flags) string {
	raw = strings.TrimSpace(raw)
	if f.TableFormat {
		return keepTableRows(raw)
	}
	return cutToLastSentence(raw)
}

// keepTableRows keeps lines from the top while they contain "|". raw arrives
// already trimmed, so blank lines before the table do not end it; a model
// that opens with an empty line still gets its table through.
func keepTableRows(raw string) string {
	lines := strings.Split(raw, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if !strings.Contains(line, "|") {
			break
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func cutToLastSentence(raw string) string {
	end := strings.LastIndexAny(raw, ".!?")
	if end < 0 {
		return raw
	}
	return strings.TrimSpace(raw[:end+1])
}
