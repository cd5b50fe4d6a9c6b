package checker

import "strings"

// TextSuffix is the suffix a path needs to end with to be checked.
const TextSuffix = ".txt"

// IsCandidate returns whether a path is checked for duplicate lines. The match
// is a plain case-sensitive suffix comparison.
func IsCandidate(path string) bool {
	return strings.HasSuffix(path, TextSuffix)
}

// FilteredLines splits content on newlines and removes all empty strings. No
// other trimming happens, so carriage returns and whitespace are kept.
func FilteredLines(content string) []string {
	parts := strings.Split(content, "\n")
	lines := parts[:0]

	for _, part := range parts {
		if part != "" {
			lines = append(lines, part)
		}
	}

	return lines
}

// FindDuplicates counts the occurrences of every line and returns the values
// occurring more than once, in order of their first occurrence, together with
// the counts of all distinct values.
func FindDuplicates(lines []string) ([]string, map[string]int) {
	counts := make(map[string]int, len(lines))

	for _, line := range lines {
		counts[line]++
	}

	if len(counts) == len(lines) {
		return nil, counts
	}

	duplicates := []string{}
	reported := make(map[string]struct{})

	for _, line := range lines {
		if counts[line] < 2 {
			continue
		}
		if _, ok := reported[line]; ok {
			continue
		}
		reported[line] = struct{}{}
		duplicates = append(duplicates, line)
	}

	return duplicates, counts
}
