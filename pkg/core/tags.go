package core

import (
	"regexp"
	"sort"
)

// tagPattern matches '#' followed by word characters in any script.
var tagPattern = regexp.MustCompile(`#([\p{L}\p{M}\p{N}_]+)`)

// ExtractTags returns every hashtag found in text, without the leading '#',
// in order of appearance and including duplicates.
// Deduplication is left to the caller (see UniqueTags).
func ExtractTags(text string) []string {
	matches := tagPattern.FindAllStringSubmatch(text, -1)
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, m[1])
	}
	return tags
}

// UniqueTags removes duplicates, keeping the first occurrence of each tag.
func UniqueTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// CollectTags returns the sorted union of the tags of all notes.
func CollectTags(notes []Note) []string {
	var all []string
	for _, n := range notes {
		all = append(all, n.Tags...)
	}
	all = UniqueTags(all)
	sort.Strings(all)
	return all
}
