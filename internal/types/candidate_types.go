package types

import "time"

// DocumentFormat 简历文档格式
type DocumentFormat string

const (
	FormatPDF  DocumentFormat = "pdf"
	FormatDOCX DocumentFormat = "docx"
)

// Education 教育信息，degree 为命中关键字的整行，year 为该行中出现的年份
type Education struct {
	Degree *string `json:"degree,omitempty"`
	Year   *int    `json:"year,omitempty"`
}

// IsEmpty 判断教育信息是否为空
func (e Education) IsEmpty() bool {
	return e.Degree == nil && e.Year == nil
}

// Experience 工作经历信息
type Experience struct {
	Title *string `json:"title,omitempty"`
}

// IsEmpty 判断工作经历是否为空
func (e Experience) IsEmpty() bool {
	return e.Title == nil
}

// CandidateProfile 从简历文本中抽取出的结构化候选人档案
type CandidateProfile struct {
	Education      Education  `json:"education"`
	Experience     Experience `json:"experience"`
	Skills         []string   `json:"skills"`
	Certifications []string   `json:"certifications"`
	Projects       []string   `json:"projects"`
	Hobbies        []string   `json:"hobbies"`
	Introduction   string     `json:"introduction"`
}

// NewEmptyProfile 返回所有字段均为空默认值的档案
func NewEmptyProfile() CandidateProfile {
	return CandidateProfile{
		Skills:         []string{},
		Certifications: []string{},
		Projects:       []string{},
		Hobbies:        []string{},
	}
}

// StorageMetadata 对象存储返回的文件元数据
type StorageMetadata struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	FilePath  string    `json:"file_path"`
	FileURL   *string   `json:"file_url"`
	CreatedAt time.Time `json:"created_at"`
	Size      int64     `json:"size"`
}

// CandidateMetadata 候选人记录附带的上传信息
type CandidateMetadata struct {
	Filename      string    `json:"filename"`
	UploadTime    time.Time `json:"upload_time"`
	StorageFileID string    `json:"storage_file_id"`
	FileURL       *string   `json:"file_url,omitempty"`
	Size          int64     `json:"size"`
	FileMD5       string    `json:"file_md5,omitempty"`
}

// ExtractionStatus 档案抽取结果状态
type ExtractionStatus string

const (
	ExtractionFull     ExtractionStatus = "full"
	ExtractionDegraded ExtractionStatus = "degraded"
)

// CandidateDocument 文档存储中的候选人记录
type CandidateDocument struct {
	RecordID         string           `json:"record_id,omitempty"`
	CandidateID      string           `json:"candidate_id"`
	ExtractionStatus ExtractionStatus `json:"extraction_status"`
	CandidateProfile
	Metadata CandidateMetadata `json:"metadata"`
}

// CandidateSummary 候选人列表项
type CandidateSummary struct {
	CandidateID  string    `json:"candidate_id"`
	RecordID     string    `json:"record_id"`
	Filename     string    `json:"filename"`
	UploadTime   time.Time `json:"upload_time"`
	Skills       []string  `json:"skills"`
	Introduction string    `json:"introduction"`
}

// CandidateCreatedEvent 候选人创建后通过 outbox 发布的事件
type CandidateCreatedEvent struct {
	CandidateID      string           `json:"candidate_id"`
	Filename         string           `json:"filename"`
	StorageFileID    string           `json:"storage_file_id"`
	Skills           []string         `json:"skills"`
	ExtractionStatus ExtractionStatus `json:"extraction_status"`
	UploadTime       time.Time        `json:"upload_time"`
}

// AnswerSource 回答来源
type AnswerSource string

const (
	AnswerFromModel    AnswerSource = "model"
	AnswerFromFallback AnswerSource = "fallback"
)
