package extractor

import (
	"strconv"
	"strings"

	"resume-qa-go/internal/types"
	"resume-qa-go/pkg/utils"
)

var educationKeywords = []string{
	"education", "degree", "university", "college",
	"bachelor", "master", "phd", "graduation",
}

const (
	minGraduationYear = 2000
	maxGraduationYear = 2029
)

// LocateEducation 取第一条包含教育关键字的行作为 degree。
// year 为按 2000 到 2029 升序检查时第一个以子串形式出现在该行中的年份。
func LocateEducation(text string) types.Education {
	for _, line := range splitLines(text) {
		if !containsAny(toLower(line), educationKeywords) {
			continue
		}

		degree := strings.TrimSpace(line)
		edu := types.Education{Degree: &degree}
		for year := minGraduationYear; year <= maxGraduationYear; year++ {
			if strings.Contains(line, strconv.Itoa(year)) {
				edu.Year = utils.IntPtr(year)
				break
			}
		}
		return edu
	}
	return types.Education{}
}
