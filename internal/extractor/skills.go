package extractor

import (
	"sort"
	"strings"
)

// skillVocabulary 固定技能词表，均为小写
var skillVocabulary = []string{
	"python", "java", "javascript", "sql", "mongodb", "postgresql",
	"fastapi", "flask", "django", "react", "node.js", "aws",
	"docker", "git", "linux", "data analysis", "machine learning",
	"deep learning", "tensorflow", "pytorch", "pandas", "numpy",
	"scikit-learn",
}

var skillSectionKeywords = []string{"skills", "technical skills", "competencies"}

const skillSectionWindow = 500

// MatchSkills 在全文和技能段落窗口中做不区分大小写的子串匹配，
// 返回去重并排序后的规范技能名
func MatchSkills(text string) []string {
	lower := toLower(text)

	section := ""
	for _, kw := range skillSectionKeywords {
		if pos := runeIndex(lower, kw); pos >= 0 {
			section = runeWindow(lower, pos, skillSectionWindow)
			break
		}
	}

	seen := make(map[string]struct{}, len(skillVocabulary))
	skills := make([]string, 0)
	for _, token := range skillVocabulary {
		if !strings.Contains(lower, token) && !strings.Contains(section, token) {
			continue
		}
		name := titleCase(token)
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		skills = append(skills, name)
	}
	sort.Strings(skills)
	return skills
}
