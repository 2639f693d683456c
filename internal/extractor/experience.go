package extractor

import (
	"strings"

	"resume-qa-go/internal/types"
)

var experienceKeywords = []string{
	"experience", "work", "employment", "job", "position", "role",
}

// LocateExperience 在第一条包含经历关键字的行之后取下一行作为 title。
// 下一行为空或命中行是最后一行时 title 为空字符串。
func LocateExperience(text string) types.Experience {
	lines := splitLines(text)
	for i, line := range lines {
		if !containsAny(toLower(line), experienceKeywords) {
			continue
		}

		title := ""
		if i+1 < len(lines) {
			title = strings.TrimSpace(lines[i+1])
		}
		return types.Experience{Title: &title}
	}
	return types.Experience{}
}
