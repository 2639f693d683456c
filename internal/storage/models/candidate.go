package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"resume-qa-go/internal/types"

	"gorm.io/datatypes"
)

// CandidateRecord 候选人档案表，一次上传对应一条记录
type CandidateRecord struct {
	ID               uint64         `gorm:"primaryKey;autoIncrement"`
	CandidateID      string         `gorm:"type:char(36);not null;uniqueIndex:idx_candidate_records_candidate_id"`
	ExtractionStatus string         `gorm:"type:varchar(20);not null;default:'full'"`
	EducationJSON    datatypes.JSON `gorm:"type:json"`
	ExperienceJSON   datatypes.JSON `gorm:"type:json"`
	SkillsJSON       datatypes.JSON `gorm:"type:json"`
	CertsJSON        datatypes.JSON `gorm:"type:json"`
	ProjectsJSON     datatypes.JSON `gorm:"type:json"`
	HobbiesJSON      datatypes.JSON `gorm:"type:json"`
	Introduction     string         `gorm:"type:text"`
	Filename         string         `gorm:"type:varchar(255)"`
	StorageFileID    string         `gorm:"type:varchar(1024)"`
	FileURL          *string        `gorm:"type:text"`
	Size             int64
	FileMD5          string    `gorm:"type:char(32);index:idx_candidate_records_file_md5"`
	UploadTime       time.Time `gorm:"type:datetime(6);index:idx_candidate_records_upload_time"`
	CreatedAt        time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
}

func (CandidateRecord) TableName() string {
	return "candidate_records"
}

// NewCandidateRecord 从领域文档构建数据库记录
func NewCandidateRecord(doc types.CandidateDocument) (*CandidateRecord, error) {
	record := &CandidateRecord{
		CandidateID:      doc.CandidateID,
		ExtractionStatus: string(doc.ExtractionStatus),
		Introduction:     doc.Introduction,
		Filename:         doc.Metadata.Filename,
		StorageFileID:    doc.Metadata.StorageFileID,
		FileURL:          doc.Metadata.FileURL,
		Size:             doc.Metadata.Size,
		FileMD5:          doc.Metadata.FileMD5,
		UploadTime:       doc.Metadata.UploadTime,
	}

	fields := []struct {
		name  string
		value interface{}
		dest  *datatypes.JSON
	}{
		{"education", doc.Education, &record.EducationJSON},
		{"experience", doc.Experience, &record.ExperienceJSON},
		{"skills", nonNil(doc.Skills), &record.SkillsJSON},
		{"certifications", nonNil(doc.Certifications), &record.CertsJSON},
		{"projects", nonNil(doc.Projects), &record.ProjectsJSON},
		{"hobbies", nonNil(doc.Hobbies), &record.HobbiesJSON},
	}
	for _, f := range fields {
		raw, err := json.Marshal(f.value)
		if err != nil {
			return nil, fmt.Errorf("序列化字段 %s 失败: %w", f.name, err)
		}
		*f.dest = datatypes.JSON(raw)
	}
	return record, nil
}

// ToDocument 将数据库记录转换为领域文档
func (r *CandidateRecord) ToDocument() (types.CandidateDocument, error) {
	doc := types.CandidateDocument{
		RecordID:         strconv.FormatUint(r.ID, 10),
		CandidateID:      r.CandidateID,
		ExtractionStatus: types.ExtractionStatus(r.ExtractionStatus),
		CandidateProfile: types.NewEmptyProfile(),
		Metadata: types.CandidateMetadata{
			Filename:      r.Filename,
			UploadTime:    r.UploadTime,
			StorageFileID: r.StorageFileID,
			FileURL:       r.FileURL,
			Size:          r.Size,
			FileMD5:       r.FileMD5,
		},
	}
	doc.Introduction = r.Introduction

	fields := []struct {
		name string
		raw  datatypes.JSON
		dest interface{}
	}{
		{"education", r.EducationJSON, &doc.Education},
		{"experience", r.ExperienceJSON, &doc.Experience},
		{"skills", r.SkillsJSON, &doc.Skills},
		{"certifications", r.CertsJSON, &doc.Certifications},
		{"projects", r.ProjectsJSON, &doc.Projects},
		{"hobbies", r.HobbiesJSON, &doc.Hobbies},
	}
	for _, f := range fields {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dest); err != nil {
			return types.CandidateDocument{}, fmt.Errorf("解析字段 %s 失败: %w", f.name, err)
		}
	}

	// JSON null 会把切片置空
	doc.Skills = nonNil(doc.Skills)
	doc.Certifications = nonNil(doc.Certifications)
	doc.Projects = nonNil(doc.Projects)
	doc.Hobbies = nonNil(doc.Hobbies)
	return doc, nil
}

// ToSummary 转换为列表项，introduction 按给定长度截断
func (r *CandidateRecord) ToSummary(previewLength int) types.CandidateSummary {
	var skills []string
	if len(r.SkillsJSON) > 0 {
		_ = json.Unmarshal(r.SkillsJSON, &skills)
	}
	return types.CandidateSummary{
		CandidateID:  r.CandidateID,
		RecordID:     strconv.FormatUint(r.ID, 10),
		Filename:     r.Filename,
		UploadTime:   r.UploadTime,
		Skills:       nonNil(skills),
		Introduction: previewIntroduction(r.Introduction, previewLength),
	}
}

// previewIntroduction 超过 limit 个字符时截断并追加 "..."
func previewIntroduction(intro string, limit int) string {
	runes := []rune(intro)
	if limit <= 0 || len(runes) <= limit {
		return intro
	}
	return string(runes[:limit]) + "..."
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
