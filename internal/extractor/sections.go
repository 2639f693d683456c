package extractor

import (
	"strings"
)

// 列表类字段最多保留的条目数
const maxListItems = 5

var (
	certificationKeywords = []string{
		"certification", "certificate", "certified", "aws", "google", "microsoft",
	}
	projectKeywords = []string{"project", "projects", "portfolio"}
	hobbyKeywords   = []string{"hobbies", "interests", "hobby", "interest"}
)

const (
	minCertificationLen = 5
	minProjectLineLen   = 10
	projectScanWindow   = 10
)

// LocateCertifications 收集所有包含认证关键字且去空白后长度大于 5 的行
func LocateCertifications(text string) []string {
	certs := make([]string, 0, maxListItems)
	for _, line := range splitLines(text) {
		if !containsAny(toLower(line), certificationKeywords) {
			continue
		}
		cert := strings.TrimSpace(line)
		if runeLen(cert) > minCertificationLen {
			certs = append(certs, cert)
			if len(certs) == maxListItems {
				break
			}
		}
	}
	return certs
}

// LocateProjects 在第一条包含项目关键字的行之后的 10 行内，
// 收集去空白后长度大于 10 的非空行，最多 5 条
func LocateProjects(text string) []string {
	projects := make([]string, 0, maxListItems)
	lines := splitLines(text)
	for i, line := range lines {
		if !containsAny(toLower(line), projectKeywords) {
			continue
		}

		end := i + 1 + projectScanWindow
		if end > len(lines) {
			end = len(lines)
		}
		for _, next := range lines[i+1 : end] {
			candidate := strings.TrimSpace(next)
			if candidate != "" && runeLen(candidate) > minProjectLineLen {
				projects = append(projects, candidate)
			}
			if len(projects) >= maxListItems {
				break
			}
		}
		break
	}
	return projects
}

// LocateHobbies 只处理第一条包含兴趣关键字的行：取第一个冒号之后的内容按逗号切分
func LocateHobbies(text string) []string {
	hobbies := make([]string, 0, maxListItems)
	for _, line := range splitLines(text) {
		if !containsAny(toLower(line), hobbyKeywords) {
			continue
		}

		parts := strings.SplitN(line, ":", 2)
		if len(parts) == 2 {
			for _, item := range strings.Split(parts[1], ",") {
				hobbies = append(hobbies, strings.TrimSpace(item))
				if len(hobbies) == maxListItems {
					break
				}
			}
		}
		break
	}
	return hobbies
}
