package processor

import (
	"context"
	"errors"
	"strings"
	"time"

	"resume-qa-go/internal/constants"
	"resume-qa-go/internal/parser"
	"resume-qa-go/internal/qa"
	"resume-qa-go/internal/storage"
	"resume-qa-go/internal/storage/models"
	"resume-qa-go/internal/tracing"
	"resume-qa-go/internal/types"
	"resume-qa-go/pkg/utils"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var processorTracer = otel.Tracer("resume-qa-go/processor")

// UploadResult 上传处理结果
type UploadResult struct {
	CandidateID      string                 `json:"candidate_id"`
	RecordID         string                 `json:"record_id"`
	StorageMetadata  types.StorageMetadata  `json:"storage_metadata"`
	ExtractionStatus types.ExtractionStatus `json:"extraction_status"`
	Duplicate        bool                   `json:"duplicate"`
}

// CandidateService 协调简历上传、候选人查询与问答
type CandidateService struct {
	normalizer TextNormalizer
	assembler  ProfileAssembler
	objects    storage.ResumeObjectStore
	repo       storage.CandidateRepository
	answerer   QuestionAnswerer

	dedup      DedupCache
	uploadLock bool
	exchange   string
	routingKey string
	now        func() time.Time
	newID      func() (string, error)
	logger     *zerolog.Logger
}

// ServiceOption 定义 CandidateService 的配置选项
type ServiceOption func(*CandidateService)

// WithDedupCache 启用基于 MD5 的重复上传检测，lock 为 true 时同一文件并发上传只放行一个
func WithDedupCache(cache DedupCache, lock bool) ServiceOption {
	return func(s *CandidateService) {
		s.dedup = cache
		s.uploadLock = lock
	}
}

// WithEventRouting 设置候选人创建事件的 exchange 与路由键，exchange 为空时不写 outbox
func WithEventRouting(exchange, routingKey string) ServiceOption {
	return func(s *CandidateService) {
		s.exchange = exchange
		s.routingKey = routingKey
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger *zerolog.Logger) ServiceOption {
	return func(s *CandidateService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock 设置时间来源
func WithClock(now func() time.Time) ServiceOption {
	return func(s *CandidateService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator 设置候选人ID生成函数
func WithIDGenerator(gen func() (string, error)) ServiceOption {
	return func(s *CandidateService) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// NewCandidateService 创建候选人服务
func NewCandidateService(
	normalizer TextNormalizer,
	assembler ProfileAssembler,
	objects storage.ResumeObjectStore,
	repo storage.CandidateRepository,
	answerer QuestionAnswerer,
	opts ...ServiceOption,
) *CandidateService {
	nop := zerolog.Nop()
	s := &CandidateService{
		normalizer: normalizer,
		assembler:  assembler,
		objects:    objects,
		repo:       repo,
		answerer:   answerer,
		now:        time.Now,
		newID:      newCandidateID,
		logger:     &nop,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newCandidateID 生成按时间排序的 UUIDv7
func newCandidateID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Upload 处理一次简历上传：格式校验、去重、解析、档案提取、原件存储、持久化
func (s *CandidateService) Upload(ctx context.Context, filename string, data []byte) (*UploadResult, error) {
	ctx, span := processorTracer.Start(ctx, "CandidateService.Upload")
	defer span.End()
	span.SetAttributes(
		attribute.String("file.name", tracing.SafeAttributeValue("file.name", filename, tracing.DefaultMaxLength)),
		attribute.Int("file.size", len(data)),
	)

	format, err := parser.FormatFromFilename(filename)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, newCandidateError("validate", "", err, filename)
	}
	if len(data) == 0 {
		tracing.RecordError(span, ErrEmptyFile, tracing.ErrorTypeValidation)
		return nil, newCandidateError("validate", "", ErrEmptyFile, filename)
	}

	fileMD5 := utils.CalculateMD5(data)
	span.SetAttributes(attribute.String("file.md5", fileMD5))
	log := s.logger.With().Str("filename", filename).Str("md5", fileMD5).Logger()

	if existing := s.findDuplicate(ctx, fileMD5, &log); existing != nil {
		span.SetAttributes(attribute.Bool("upload.duplicate", true))
		return existing, nil
	}

	if s.dedup != nil && s.uploadLock {
		lockValue, lockErr := s.dedup.AcquireUploadLock(ctx, fileMD5)
		switch {
		case lockErr != nil:
			log.Warn().Err(lockErr).Msg("获取上传锁失败，继续处理")
		case lockValue == "":
			tracing.RecordError(span, ErrUploadInProgress, tracing.ErrorTypeValidation)
			return nil, newCandidateError("lock", "", ErrUploadInProgress, fileMD5)
		default:
			defer func() {
				if relErr := s.dedup.ReleaseUploadLock(context.WithoutCancel(ctx), fileMD5, lockValue); relErr != nil {
					log.Warn().Err(relErr).Msg("释放上传锁失败")
				}
			}()
		}
	}

	text, err := s.normalizer.Normalize(ctx, data, format)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeExtraction)
		log.Error().Err(err).Msg("简历文本提取失败")
		return nil, newCandidateError("normalize", "", err, "")
	}

	extraction := s.assembler.Assemble(text)
	status := extraction.Status.ExtractionStatus()
	if extraction.Degraded() {
		log.Warn().
			Err(extraction.Err).
			Str("text_preview", tracing.SafeResumeContent(text)).
			Msg("档案提取退化，保存兜底档案")
	}

	uploadedAt := s.now().UTC()
	meta, err := s.objects.UploadResume(ctx, filename, data, uploadedAt)
	if err != nil {
		errType := tracing.ErrorTypeStorage
		if errors.Is(err, storage.ErrStoragePermissionDenied) {
			errType = tracing.ErrorTypePermission
		}
		tracing.RecordError(span, err, errType)
		log.Error().Err(err).Msg("上传简历原件失败")
		return nil, newCandidateError("store_object", "", err, "")
	}

	candidateID, err := s.newID()
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeInternal)
		return nil, newCandidateError("generate_id", "", ErrIDGeneration, err.Error())
	}
	span.SetAttributes(attribute.String("candidate.id", candidateID))

	doc := types.CandidateDocument{
		CandidateID:      candidateID,
		ExtractionStatus: status,
		CandidateProfile: extraction.Profile,
		Metadata: types.CandidateMetadata{
			Filename:      meta.Filename,
			UploadTime:    uploadedAt,
			StorageFileID: meta.ID,
			FileURL:       meta.FileURL,
			Size:          meta.Size,
			FileMD5:       fileMD5,
		},
	}

	event, err := s.outboxEvent(doc)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeInternal)
		return nil, newCandidateError("persist", candidateID, storage.ErrPersistenceFailure, err.Error())
	}

	recordID, err := s.repo.InsertCandidate(ctx, doc, event)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		log.Error().Err(err).Str("candidate_id", candidateID).Msg("保存候选人记录失败")
		if delErr := s.objects.DeleteObject(context.WithoutCancel(ctx), meta.ID); delErr != nil {
			log.Warn().Err(delErr).Str("storage_file_id", meta.ID).Msg("清理简历原件失败")
		}
		return nil, newCandidateError("persist", candidateID, err, "")
	}

	if s.dedup != nil {
		if err := s.dedup.RememberCandidateMD5(ctx, fileMD5, candidateID); err != nil {
			log.Warn().Err(err).Str("candidate_id", candidateID).Msg("记录文件MD5失败")
		}
	}

	log.Info().
		Str("candidate_id", candidateID).
		Str("record_id", recordID).
		Str("storage_file_id", meta.ID).
		Str("file_url", utils.StringValue(meta.FileURL)).
		Str("extraction_status", string(status)).
		Msg("候选人简历处理完成")
	span.SetStatus(codes.Ok, "")

	return &UploadResult{
		CandidateID:      candidateID,
		RecordID:         recordID,
		StorageMetadata:  meta,
		ExtractionStatus: status,
	}, nil
}

// findDuplicate 查询相同文件是否已上传过，映射过期或记录已删除时视为未命中
func (s *CandidateService) findDuplicate(ctx context.Context, fileMD5 string, log *zerolog.Logger) *UploadResult {
	if s.dedup == nil {
		return nil
	}
	candidateID, err := s.dedup.LookupCandidateByMD5(ctx, fileMD5)
	if err != nil {
		log.Warn().Err(err).Msg("查询文件MD5失败，按新文件处理")
		return nil
	}
	if candidateID == "" {
		return nil
	}

	doc, err := s.repo.GetCandidate(ctx, candidateID)
	if err != nil {
		if !errors.Is(err, storage.ErrCandidateNotFound) {
			log.Warn().Err(err).Str("candidate_id", candidateID).Msg("查询重复候选人失败，按新文件处理")
			return nil
		}
		log.Info().Str("candidate_id", candidateID).Msg("MD5映射指向的候选人已不存在，清除映射")
		if forgetErr := s.dedup.ForgetCandidateMD5(ctx, fileMD5); forgetErr != nil {
			log.Warn().Err(forgetErr).Msg("清除过期MD5映射失败")
		}
		return nil
	}

	log.Info().Str("candidate_id", candidateID).Msg("检测到重复的文件MD5，返回已有候选人")
	return &UploadResult{
		CandidateID:      doc.CandidateID,
		RecordID:         doc.RecordID,
		StorageMetadata:  storageMetadataFromDocument(doc),
		ExtractionStatus: doc.ExtractionStatus,
		Duplicate:        true,
	}
}

func storageMetadataFromDocument(doc types.CandidateDocument) types.StorageMetadata {
	return types.StorageMetadata{
		ID:        doc.Metadata.StorageFileID,
		Filename:  doc.Metadata.Filename,
		FilePath:  doc.Metadata.StorageFileID,
		FileURL:   doc.Metadata.FileURL,
		CreatedAt: doc.Metadata.UploadTime,
		Size:      doc.Metadata.Size,
	}
}

func (s *CandidateService) outboxEvent(doc types.CandidateDocument) (*models.OutboxMessage, error) {
	if s.exchange == "" {
		return nil, nil
	}
	return storage.NewCandidateCreatedOutbox(doc, s.exchange, s.routingKey, constants.EventCandidateProfileCreated)
}

// ListCandidates 返回全部候选人摘要
func (s *CandidateService) ListCandidates(ctx context.Context) ([]types.CandidateSummary, error) {
	summaries, err := s.repo.ListCandidates(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("查询候选人列表失败")
		return nil, newCandidateError("list", "", err, "")
	}
	if summaries == nil {
		summaries = []types.CandidateSummary{}
	}
	return summaries, nil
}

// GetCandidate 按候选人ID查询完整记录
func (s *CandidateService) GetCandidate(ctx context.Context, candidateID string) (types.CandidateDocument, error) {
	candidateID = strings.TrimSpace(candidateID)
	if candidateID == "" {
		return types.CandidateDocument{}, newCandidateError("get", "", storage.ErrCandidateNotFound, "")
	}
	doc, err := s.repo.GetCandidate(ctx, candidateID)
	if err != nil {
		return types.CandidateDocument{}, newCandidateError("get", candidateID, err, "")
	}
	return doc, nil
}

// Ask 针对指定候选人回答问题，推理不可用时回答来源为 fallback
func (s *CandidateService) Ask(ctx context.Context, candidateID, question string) (qa.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return qa.Answer{}, newCandidateError("ask", candidateID, ErrEmptyQuestion, "")
	}

	doc, err := s.GetCandidate(ctx, candidateID)
	if err != nil {
		return qa.Answer{}, err
	}

	answer := s.answerer.Ask(ctx, doc.CandidateProfile, question)
	s.logger.Info().
		Str("candidate_id", doc.CandidateID).
		Str("source", string(answer.Source)).
		Msg("候选人问答完成")
	return answer, nil
}
