package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "app"

	// CandidateModulePrefix 候选人模块
	CandidateModulePrefix = "candidate"

	// EntityMD5ToCandidate MD5到候选人ID的映射实体
	EntityMD5ToCandidate = "md5_to_candidate"
	// EntityUploadLock 上传分布式锁实体
	EntityUploadLock = "upload_lock"

	// KeyFileMD5ToCandidateID 文件MD5到候选人ID的映射 (STRING)
	// 格式: app:candidate:md5_to_candidate:{md5}
	KeyFileMD5ToCandidateID = AppPrefix + ":" + CandidateModulePrefix + ":" + EntityMD5ToCandidate + ":%s"

	// KeyUploadLock 同一文件并发上传时的互斥锁 (STRING)
	// 格式: app:candidate:upload_lock:{md5}
	KeyUploadLock = AppPrefix + ":" + CandidateModulePrefix + ":" + EntityUploadLock + ":%s"
)
