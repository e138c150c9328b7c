package scan

import (
	"fmt"
	"sort"
	"strings"
)

// invisibleRanges lists codepoints that render as nothing or only steer
// text layout and direction. Any of them can smuggle content past a
// human reviewer.
var invisibleRanges = [...][2]rune{
	{0x200B, 0x200F},   // zero-width space/joiners, LRM/RLM
	{0x2060, 0x2064},   // word joiner, invisible operators
	{0x2066, 0x2069},   // directional isolates
	{0x202A, 0x202E},   // directional embedding and override
	{0x206A, 0x206F},   // deprecated format controls
	{0xFEFF, 0xFEFF},   // BOM / zero-width no-break space
	{0x00AD, 0x00AD},   // soft hyphen
	{0x034F, 0x034F},   // combining grapheme joiner
	{0x061C, 0x061C},   // arabic letter mark
	{0x115F, 0x1160},   // hangul fillers
	{0x17B4, 0x17B5},   // khmer inherent vowels
	{0x180E, 0x180E},   // mongolian vowel separator
	{0xE0000, 0xE007F}, // tags block
}

func isInvisible(r rune) bool {
	for _, rg := range invisibleRanges {
		if r >= rg[0] && r <= rg[1] {
			return true
		}
	}
	return false
}

// invisibleIn returns the distinct invisible codepoints in line, in
// ascending order.
func invisibleIn(line string) []rune {
	seen := make(map[rune]bool)
	var found []rune
	for _, r := range line {
		if isInvisible(r) && !seen[r] {
			seen[r] = true
			found = append(found, r)
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i] < found[j] })
	return found
}

// formatCodepoints renders at most five codepoints as U+XXXX notation,
// summarizing the rest.
func formatCodepoints(rs []rune) string {
	const maxShown = 5
	parts := make([]string, 0, maxShown+1)
	for i, r := range rs {
		if i == maxShown {
			parts = append(parts, fmt.Sprintf("(and %d more)", len(rs)-maxShown))
			break
		}
		parts = append(parts, fmt.Sprintf("U+%04X", r))
	}
	return strings.Join(parts, " ")
}
