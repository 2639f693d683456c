package qa

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	graduationUnavailable = "The graduation date information is not explicitly available in the candidate's data."
	skillsUnavailable     = "Please check the skills section in the candidate's profile for detailed information."
	experienceUnavailable = "Please check the experience section in the candidate's profile for work history details."
	noAnswerAvailable     = "I couldn't generate a proper answer. Please check the candidate's profile or try rephrasing your question."
)

var (
	yearPattern       = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)
	skillsPattern     = regexp.MustCompile(`(?i)skills:\s*([^\n]+)`)
	experiencePattern = regexp.MustCompile(`(?i)experience:\s*(\{[^}]+\})`)
)

// FallbackAnswer 在模型不可用时根据提示词中的关键字给出尽力而为的回答。
// 关键字判断基于小写文本，返回的片段保留原文大小写。
func FallbackAnswer(prompt string) string {
	lower := strings.ToLower(prompt)

	switch {
	case strings.Contains(lower, "graduation") || strings.Contains(lower, "graduate"):
		if strings.Contains(lower, "education") {
			if years := yearPattern.FindAllStringSubmatch(prompt, -1); len(years) > 0 {
				return fmt.Sprintf("The candidate finished graduation in %s.", years[len(years)-1][1])
			}
		}
		return graduationUnavailable

	case strings.Contains(lower, "skill"):
		if m := skillsPattern.FindStringSubmatch(prompt); m != nil {
			return "The candidate has the following skills: " + m[1]
		}
		return skillsUnavailable

	case strings.Contains(lower, "experience") || strings.Contains(lower, "work"):
		if m := experiencePattern.FindStringSubmatch(prompt); m != nil {
			return "Based on the candidate's experience: " + m[1]
		}
		return experienceUnavailable
	}

	return noAnswerAvailable
}
