package engine

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	maxContextRunes = 200
	evidenceBefore  = 20
	evidenceAfter   = 50
)

// fold lower-cases s rune by rune. The result has the same rune count as s,
// so rune offsets found in the folded text are valid in the original.
func fold(s string) string {
	return strings.Map(unicode.ToLower, s)
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '。', '!', '！', '?', '？', '\n':
		return true
	}
	return false
}

func sentences(text string) []string {
	return strings.FieldsFunc(text, isSentenceEnd)
}

// truncateRunes trims s and keeps at most n runes of it.
func truncateRunes(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n]))
}

// runeOffset converts a byte offset in s to a rune offset.
func runeOffset(s string, byteIdx int) int {
	return utf8.RuneCountInString(s[:byteIdx])
}

// window returns the runes of text from before runes ahead of [start,end)
// to after runes past it, clipped and trimmed. start and end are rune offsets.
func window(text []rune, start, end, before, after int) string {
	from := start - before
	if from < 0 {
		from = 0
	}
	to := end + after
	if to > len(text) {
		to = len(text)
	}
	if from >= to {
		return ""
	}
	return strings.TrimSpace(string(text[from:to]))
}

func isLatinLetter(r rune) bool {
	return unicode.Is(unicode.Latin, r)
}

// containsWord reports whether cue occurs in folded with no Latin letter
// directly before or after it. cue must already be folded.
func containsWord(folded, cue string) bool {
	if cue == "" {
		return false
	}
	for offset := 0; offset <= len(folded); {
		i := strings.Index(folded[offset:], cue)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(cue)
		before, _ := utf8.DecodeLastRuneInString(folded[:start])
		after, _ := utf8.DecodeRuneInString(folded[end:])
		if (start == 0 || !isLatinLetter(before)) && (end == len(folded) || !isLatinLetter(after)) {
			return true
		}
		_, size := utf8.DecodeRuneInString(folded[start:])
		offset = start + size
	}
	return false
}

// hasCJK reports whether s contains a CJK unified ideograph.
func hasCJK(s string) bool {
	for _, r := range s {
		if isCJK(r) {
			return true
		}
	}
	return false
}

func isCJK(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FFF
}
