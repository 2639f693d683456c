package constants

import "time"

const (
	// ServiceVersion 对外展示的服务版本
	ServiceVersion = "1.0.0"

	// UploadLockTTL 上传锁的持有时间
	UploadLockTTL = 2 * time.Minute

	// EventCandidateProfileCreated 候选人档案创建事件
	EventCandidateProfileCreated = "candidate.profile.created"

	// IntroductionPreviewLength 列表接口中简介预览的字符数
	IntroductionPreviewLength = 200
)
