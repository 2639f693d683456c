package extractor

import (
	"strings"
)

// 按优先级排列，先命中者决定截取位置
var introductionKeywords = []string{
	"summary", "introduction", "about", "profile", "objective",
}

const (
	introductionWindow    = 300
	maxIntroductionLength = 500
)

// LocateIntroduction 提取简介：
// 按优先级找到第一个出现的关键字，从其位置起截取 300 个字符，去掉关键字与前导冒号；
// 没有关键字时取第一个空行前的段落，若无空行则取前 300 个字符。
func LocateIntroduction(text string) string {
	lower := toLower(text)
	for _, kw := range introductionKeywords {
		pos := runeIndex(lower, kw)
		if pos < 0 {
			continue
		}

		intro := strings.TrimSpace(runeWindow(text, pos, introductionWindow))
		for _, strip := range introductionKeywords {
			intro = strings.Replace(intro, strip, "", 1)
		}
		intro = strings.TrimSpace(intro)
		if strings.HasPrefix(intro, ":") {
			intro = strings.TrimSpace(intro[1:])
		}
		return truncateRunes(intro, maxIntroductionLength)
	}

	return truncateRunes(leadingParagraph(text), maxIntroductionLength)
}

// leadingParagraph 返回第一个空行之前的文本，没有空行时返回前 300 个字符
func leadingParagraph(text string) string {
	var intro string
	if idx := strings.Index(text, "\n\n"); idx >= 0 {
		intro = text[:idx]
	} else {
		intro = truncateRunes(text, introductionWindow)
	}
	return strings.TrimSpace(intro)
}
