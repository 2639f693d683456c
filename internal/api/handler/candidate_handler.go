package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"resume-qa-go/internal/constants"
	"resume-qa-go/internal/logger"
	"resume-qa-go/internal/parser"
	"resume-qa-go/internal/processor"
	"resume-qa-go/internal/qa"
	"resume-qa-go/internal/storage"
	"resume-qa-go/internal/tracing"
	"resume-qa-go/internal/types"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"go.opentelemetry.io/otel/trace"
)

const (
	detailUnsupportedFormat = "Only PDF and DOCX files are supported"
	detailMissingFile       = "No file provided"
	detailFileTooLarge      = "File too large"
	detailNotFound          = "Candidate not found"
	detailEmptyQuestion     = "Question must not be empty"
	detailInvalidBody       = "Invalid request body"
	detailUploadInProgress  = "The same file is already being processed"
	detailInternal          = "Internal server error"
)

// CandidateService 处理器对外暴露的候选人操作
type CandidateService interface {
	Upload(ctx context.Context, filename string, data []byte) (*processor.UploadResult, error)
	ListCandidates(ctx context.Context) ([]types.CandidateSummary, error)
	GetCandidate(ctx context.Context, candidateID string) (types.CandidateDocument, error)
	Ask(ctx context.Context, candidateID, question string) (qa.Answer, error)
}

var _ CandidateService = (*processor.CandidateService)(nil)

// CandidateHandler 候选人相关 HTTP 接口
type CandidateHandler struct {
	service        CandidateService
	maxUploadBytes int64
}

// NewCandidateHandler 创建候选人接口处理器，maxUploadBytes 非正值时不限制大小
func NewCandidateHandler(service CandidateService, maxUploadBytes int64) *CandidateHandler {
	return &CandidateHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
	}
}

// UploadResponse 简历上传响应
type UploadResponse struct {
	Message          string                 `json:"message"`
	CandidateID      string                 `json:"candidate_id"`
	RecordID         string                 `json:"record_id"`
	StorageMetadata  types.StorageMetadata  `json:"storage_metadata"`
	ExtractionStatus types.ExtractionStatus `json:"extraction_status"`
	Duplicate        bool                   `json:"duplicate"`
}

// CandidateListResponse 候选人列表响应
type CandidateListResponse struct {
	Count      int                      `json:"count"`
	Candidates []types.CandidateSummary `json:"candidates"`
}

// AskRequest 问答请求体
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse 问答响应
type AskResponse struct {
	CandidateID string             `json:"candidate_id"`
	Question    string             `json:"question"`
	Answer      string             `json:"answer"`
	Source      types.AnswerSource `json:"source"`
}

// HandleIndex 服务说明
// GET /
func (h *CandidateHandler) HandleIndex(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, utils.H{
		"message": "Resume QA API",
		"version": constants.ServiceVersion,
		"endpoints": utils.H{
			"upload":     "POST /api/v1/upload",
			"candidates": "GET /api/v1/candidates",
			"candidate":  "GET /api/v1/candidate/{id}",
			"ask":        "POST /api/v1/ask/{candidate_id}",
		},
	})
}

// HandleHealth 健康检查
// GET /api/v1/health
func (h *CandidateHandler) HandleHealth(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, utils.H{"status": "ok"})
}

// HandleUpload 上传简历并提取候选人档案
// POST /api/v1/upload
func (h *CandidateHandler) HandleUpload(ctx context.Context, c *app.RequestContext) {
	fileHeader, err := c.FormFile("file")
	if err != nil || fileHeader == nil || strings.TrimSpace(fileHeader.Filename) == "" {
		writeDetail(c, consts.StatusBadRequest, detailMissingFile)
		return
	}
	filename := filepath.Base(fileHeader.Filename)

	if _, err := parser.FormatFromFilename(filename); err != nil {
		writeDetail(c, consts.StatusBadRequest, detailUnsupportedFormat)
		return
	}
	if h.maxUploadBytes > 0 && fileHeader.Size > h.maxUploadBytes {
		writeDetail(c, consts.StatusRequestEntityTooLarge, detailFileTooLarge)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("filename", filename).Msg("打开上传文件失败")
		writeDetail(c, consts.StatusBadRequest, "Could not read uploaded file")
		return
	}
	defer file.Close()

	var reader io.Reader = file
	if h.maxUploadBytes > 0 {
		reader = io.LimitReader(file, h.maxUploadBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("filename", filename).Msg("读取上传文件内容失败")
		writeDetail(c, consts.StatusBadRequest, "Could not read uploaded file")
		return
	}
	if h.maxUploadBytes > 0 && int64(len(data)) > h.maxUploadBytes {
		writeDetail(c, consts.StatusRequestEntityTooLarge, detailFileTooLarge)
		return
	}

	result, err := h.service.Upload(ctx, filename, data)
	if err != nil {
		writeError(ctx, c, err)
		return
	}

	message := "Resume uploaded and processed successfully"
	if result.Duplicate {
		message = "Resume already uploaded"
	}
	c.JSON(consts.StatusOK, UploadResponse{
		Message:          message,
		CandidateID:      result.CandidateID,
		RecordID:         result.RecordID,
		StorageMetadata:  result.StorageMetadata,
		ExtractionStatus: result.ExtractionStatus,
		Duplicate:        result.Duplicate,
	})
}

// HandleListCandidates 列出全部候选人摘要
// GET /api/v1/candidates
func (h *CandidateHandler) HandleListCandidates(ctx context.Context, c *app.RequestContext) {
	summaries, err := h.service.ListCandidates(ctx)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, CandidateListResponse{
		Count:      len(summaries),
		Candidates: summaries,
	})
}

// HandleGetCandidate 查询单个候选人完整记录
// GET /api/v1/candidate/:id
func (h *CandidateHandler) HandleGetCandidate(ctx context.Context, c *app.RequestContext) {
	doc, err := h.service.GetCandidate(ctx, c.Param("id"))
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, doc)
}

// HandleAsk 针对候选人提问
// POST /api/v1/ask/:candidate_id
func (h *CandidateHandler) HandleAsk(ctx context.Context, c *app.RequestContext) {
	candidateID := c.Param("candidate_id")

	var req AskRequest
	if err := json.Unmarshal(c.Request.Body(), &req); err != nil {
		writeDetail(c, consts.StatusBadRequest, detailInvalidBody)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeDetail(c, consts.StatusBadRequest, detailEmptyQuestion)
		return
	}

	answer, err := h.service.Ask(ctx, candidateID, req.Question)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, AskResponse{
		CandidateID: candidateID,
		Question:    req.Question,
		Answer:      answer.Text,
		Source:      answer.Source,
	})
}

// StatusForError 将处理错误映射为 HTTP 状态码与错误说明
func StatusForError(err error) (int, string) {
	switch {
	case errors.Is(err, parser.ErrUnsupportedFormat):
		return consts.StatusBadRequest, detailUnsupportedFormat
	case errors.Is(err, processor.ErrEmptyFile):
		return consts.StatusBadRequest, "Uploaded file is empty"
	case errors.Is(err, processor.ErrEmptyQuestion):
		return consts.StatusBadRequest, detailEmptyQuestion
	case errors.Is(err, parser.ErrExtractionFailure):
		return consts.StatusUnprocessableEntity, "Could not extract text from document: " + err.Error()
	case errors.Is(err, storage.ErrCandidateNotFound):
		return consts.StatusNotFound, detailNotFound
	case errors.Is(err, storage.ErrStoragePermissionDenied):
		return consts.StatusForbidden, "Storage permission denied: " + err.Error()
	case errors.Is(err, processor.ErrUploadInProgress):
		return consts.StatusConflict, detailUploadInProgress
	case errors.Is(err, storage.ErrStorageFailure):
		return consts.StatusInternalServerError, "Storage upload failed: " + err.Error()
	case errors.Is(err, storage.ErrPersistenceFailure), errors.Is(err, storage.ErrDuplicateCandidate):
		return consts.StatusInternalServerError, "Failed to save candidate: " + err.Error()
	default:
		return consts.StatusInternalServerError, detailInternal
	}
}

func writeError(ctx context.Context, c *app.RequestContext, err error) {
	status, detail := StatusForError(err)
	event := logger.Ctx(ctx).Warn()
	if status >= consts.StatusInternalServerError {
		event = logger.Ctx(ctx).Error()
	}
	event.Err(err).Int("status", status).Str("path", string(c.Path())).Msg("请求处理失败")
	tracing.RecordHTTPError(trace.SpanFromContext(ctx), err, status)
	writeDetail(c, status, detail)
}

func writeDetail(c *app.RequestContext, status int, detail string) {
	c.JSON(status, utils.H{"detail": detail})
}
