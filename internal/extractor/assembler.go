package extractor

import (
	"errors"
	"fmt"

	"resume-qa-go/internal/types"

	"github.com/rs/zerolog"
)

// ErrLocatorFailure 表示某个字段定位器在运行中发生了意外失败
var ErrLocatorFailure = errors.New("字段定位器执行失败")

// LocatorError 记录失败的定位器及其恢复的 panic 值
type LocatorError struct {
	Field string
	Cause interface{}
}

func (e *LocatorError) Error() string {
	return fmt.Sprintf("定位器 %s 失败: %v", e.Field, e.Cause)
}

func (e *LocatorError) Unwrap() error {
	return ErrLocatorFailure
}

// Status 表示提取结果是否完整
type Status int

const (
	// StatusFull 所有定位器均正常完成
	StatusFull Status = iota
	// StatusDegraded 至少一个定位器失败，结果为兜底档案
	StatusDegraded
)

func (s Status) String() string {
	if s == StatusDegraded {
		return string(types.ExtractionDegraded)
	}
	return string(types.ExtractionFull)
}

// ExtractionStatus 转换为持久化使用的状态值
func (s Status) ExtractionStatus() types.ExtractionStatus {
	if s == StatusDegraded {
		return types.ExtractionDegraded
	}
	return types.ExtractionFull
}

// Extraction 一次提取的结果
type Extraction struct {
	Profile types.CandidateProfile
	Status  Status
	Err     error
}

// Degraded 判断是否走了兜底路径
func (e Extraction) Degraded() bool {
	return e.Status == StatusDegraded
}

// fieldLocator 将单个字段的定位结果写入档案
type fieldLocator struct {
	field string
	apply func(text string, profile *types.CandidateProfile)
}

func defaultLocators() []fieldLocator {
	return []fieldLocator{
		{field: "education", apply: func(text string, p *types.CandidateProfile) { p.Education = LocateEducation(text) }},
		{field: "experience", apply: func(text string, p *types.CandidateProfile) { p.Experience = LocateExperience(text) }},
		{field: "skills", apply: func(text string, p *types.CandidateProfile) { p.Skills = MatchSkills(text) }},
		{field: "certifications", apply: func(text string, p *types.CandidateProfile) { p.Certifications = LocateCertifications(text) }},
		{field: "projects", apply: func(text string, p *types.CandidateProfile) { p.Projects = LocateProjects(text) }},
		{field: "hobbies", apply: func(text string, p *types.CandidateProfile) { p.Hobbies = LocateHobbies(text) }},
		{field: "introduction", apply: func(text string, p *types.CandidateProfile) { p.Introduction = LocateIntroduction(text) }},
	}
}

// Assembler 运行所有字段定位器并组装候选人档案
type Assembler struct {
	locators []fieldLocator
	logger   *zerolog.Logger
}

// AssemblerOption 定义 Assembler 的配置选项
type AssemblerOption func(*Assembler)

// WithLogger 设置日志记录器
func WithLogger(logger *zerolog.Logger) AssemblerOption {
	return func(a *Assembler) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// withLocator 追加一个定位器，仅用于测试失败路径
func withLocator(field string, apply func(string, *types.CandidateProfile)) AssemblerOption {
	return func(a *Assembler) {
		a.locators = append(a.locators, fieldLocator{field: field, apply: apply})
	}
}

// NewAssembler 创建档案组装器
func NewAssembler(opts ...AssemblerOption) *Assembler {
	nop := zerolog.Nop()
	a := &Assembler{
		locators: defaultLocators(),
		logger:   &nop,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble 对同一段文本运行全部定位器。
// 任一定位器失败时不向外传播，整体退化为只含前 500 个字符简介的兜底档案。
func (a *Assembler) Assemble(text string) Extraction {
	profile := types.NewEmptyProfile()
	for _, loc := range a.locators {
		if err := runLocator(loc, text, &profile); err != nil {
			a.logger.Warn().
				Err(err).
				Str("field", loc.field).
				Int("text_length", runeLen(text)).
				Msg("字段提取失败，使用兜底档案")
			return Extraction{
				Profile: FallbackProfile(text),
				Status:  StatusDegraded,
				Err:     err,
			}
		}
	}

	a.logger.Debug().
		Int("skills", len(profile.Skills)).
		Int("certifications", len(profile.Certifications)).
		Int("projects", len(profile.Projects)).
		Int("hobbies", len(profile.Hobbies)).
		Msg("候选人档案提取完成")
	return Extraction{Profile: profile, Status: StatusFull}
}

func runLocator(loc fieldLocator, text string, profile *types.CandidateProfile) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &LocatorError{Field: loc.field, Cause: r}
		}
	}()
	loc.apply(text, profile)
	return nil
}

// FallbackProfile 构造兜底档案：简介为文本前 500 个字符，其余字段为空
func FallbackProfile(text string) types.CandidateProfile {
	profile := types.NewEmptyProfile()
	profile.Introduction = truncateRunes(text, maxIntroductionLength)
	return profile
}
