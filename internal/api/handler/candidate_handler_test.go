package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"testing"
	"time"

	"resume-qa-go/internal/api/handler"
	"resume-qa-go/internal/api/router"
	"resume-qa-go/internal/constants"
	"resume-qa-go/internal/parser"
	"resume-qa-go/internal/processor"
	"resume-qa-go/internal/qa"
	"resume-qa-go/internal/storage"
	"resume-qa-go/internal/types"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	uploadFn func(ctx context.Context, filename string, data []byte) (*processor.UploadResult, error)
	listFn   func(ctx context.Context) ([]types.CandidateSummary, error)
	getFn    func(ctx context.Context, candidateID string) (types.CandidateDocument, error)
	askFn    func(ctx context.Context, candidateID, question string) (qa.Answer, error)
}

func (f *fakeService) Upload(ctx context.Context, filename string, data []byte) (*processor.UploadResult, error) {
	return f.uploadFn(ctx, filename, data)
}

func (f *fakeService) ListCandidates(ctx context.Context) ([]types.CandidateSummary, error) {
	return f.listFn(ctx)
}

func (f *fakeService) GetCandidate(ctx context.Context, candidateID string) (types.CandidateDocument, error) {
	return f.getFn(ctx, candidateID)
}

func (f *fakeService) Ask(ctx context.Context, candidateID, question string) (qa.Answer, error) {
	return f.askFn(ctx, candidateID, question)
}

func newTestEngine(t *testing.T, svc handler.CandidateService, maxUploadBytes int64) *server.Hertz {
	t.Helper()
	h := server.New(server.WithHostPorts("127.0.0.1:0"))
	nop := zerolog.Nop()
	router.RegisterRoutes(h, handler.NewCandidateHandler(svc, maxUploadBytes), &nop)
	return h
}

func createMultipartForm(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func performUpload(t *testing.T, h *server.Hertz, filename string, content []byte) *ut.ResponseRecorder {
	t.Helper()
	body, contentType := createMultipartForm(t, filename, content)
	return ut.PerformRequest(h.Engine, "POST", "/api/v1/upload",
		&ut.Body{Body: body, Len: body.Len()},
		ut.Header{Key: "Content-Type", Value: contentType},
	)
}

func decodeDetail(t *testing.T, resp *ut.ResponseRecorder) string {
	t.Helper()
	var payload map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	return payload["detail"]
}

func TestHandleIndexAndHealth(t *testing.T) {
	h := newTestEngine(t, &fakeService{}, 0)

	resp := ut.PerformRequest(h.Engine, "GET", "/", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var index map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &index))
	assert.Equal(t, constants.ServiceVersion, index["version"])
	assert.Contains(t, index["endpoints"], "ask")

	resp = ut.PerformRequest(h.Engine, "GET", "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"status":"ok"}`, resp.Body.String())
	assert.NotEmpty(t, resp.Header().Get(router.HeaderRequestID), "应生成请求ID")
}

func TestRequestIDIsEchoed(t *testing.T) {
	h := newTestEngine(t, &fakeService{}, 0)

	resp := ut.PerformRequest(h.Engine, "GET", "/api/v1/health", nil,
		ut.Header{Key: router.HeaderRequestID, Value: "req-123"})
	assert.Equal(t, "req-123", resp.Header().Get(router.HeaderRequestID))
}

func TestHandleUpload_Success(t *testing.T) {
	var gotFilename string
	var gotData []byte
	fileURL := "https://cdn.example.com/20240301_093015_jane.pdf"
	svc := &fakeService{
		uploadFn: func(ctx context.Context, filename string, data []byte) (*processor.UploadResult, error) {
			gotFilename, gotData = filename, data
			return &processor.UploadResult{
				CandidateID: "cand-0001",
				RecordID:    "42",
				StorageMetadata: types.StorageMetadata{
					ID:        "20240301_093015_jane.pdf",
					Filename:  "jane.pdf",
					FilePath:  "20240301_093015_jane.pdf",
					FileURL:   &fileURL,
					CreatedAt: time.Date(2024, 3, 1, 9, 30, 15, 0, time.UTC),
					Size:      int64(len(data)),
				},
				ExtractionStatus: types.ExtractionFull,
			}, nil
		},
	}
	h := newTestEngine(t, svc, 1<<20)

	resp := performUpload(t, h, "jane.pdf", []byte("%PDF-1.4 resume"))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "jane.pdf", gotFilename)
	assert.Equal(t, []byte("%PDF-1.4 resume"), gotData)

	var uploadResp handler.UploadResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &uploadResp))
	assert.Equal(t, "cand-0001", uploadResp.CandidateID)
	assert.Equal(t, "42", uploadResp.RecordID)
	assert.False(t, uploadResp.Duplicate)
	assert.Equal(t, types.ExtractionFull, uploadResp.ExtractionStatus)
	require.NotNil(t, uploadResp.StorageMetadata.FileURL)
	assert.Equal(t, fileURL, *uploadResp.StorageMetadata.FileURL)
	assert.Equal(t, "Resume uploaded and processed successfully", uploadResp.Message)
}

func TestHandleUpload_Duplicate(t *testing.T) {
	svc := &fakeService{
		uploadFn: func(ctx context.Context, filename string, data []byte) (*processor.UploadResult, error) {
			return &processor.UploadResult{CandidateID: "cand-old", RecordID: "7", Duplicate: true}, nil
		},
	}
	h := newTestEngine(t, svc, 0)

	resp := performUpload(t, h, "jane.docx", []byte("PK docx"))
	require.Equal(t, http.StatusOK, resp.Code)
	var uploadResp handler.UploadResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &uploadResp))
	assert.True(t, uploadResp.Duplicate)
	assert.Equal(t, "Resume already uploaded", uploadResp.Message)
}

func TestHandleUpload_RequestErrors(t *testing.T) {
	called := false
	svc := &fakeService{
		uploadFn: func(ctx context.Context, filename string, data []byte) (*processor.UploadResult, error) {
			called = true
			return nil, errors.New("should not be called")
		},
	}
	h := newTestEngine(t, svc, 16)

	resp := performUpload(t, h, "notes.txt", []byte("plain text"))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "Only PDF and DOCX files are supported", decodeDetail(t, resp))

	resp = performUpload(t, h, "big.pdf", bytes.Repeat([]byte("a"), 64))
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("other", "value"))
	require.NoError(t, writer.Close())
	resp = ut.PerformRequest(h.Engine, "POST", "/api/v1/upload",
		&ut.Body{Body: body, Len: body.Len()},
		ut.Header{Key: "Content-Type", Value: writer.FormDataContentType()},
	)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "No file provided", decodeDetail(t, resp))

	assert.False(t, called, "请求校验失败时不应调用服务")
}

func TestHandleUpload_ServiceErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"提取失败", &processor.CandidateError{Op: "normalize", BaseErr: &parser.ExtractionError{Format: "pdf", Err: errors.New("bad xref")}}, http.StatusUnprocessableEntity},
		{"存储权限不足", &processor.CandidateError{Op: "store_object", BaseErr: fmt.Errorf("%w: AccessDenied", storage.ErrStoragePermissionDenied)}, http.StatusForbidden},
		{"正在处理", &processor.CandidateError{Op: "lock", BaseErr: processor.ErrUploadInProgress}, http.StatusConflict},
		{"存储失败", &processor.CandidateError{Op: "store_object", BaseErr: fmt.Errorf("%w: timeout", storage.ErrStorageFailure)}, http.StatusInternalServerError},
		{"持久化失败", &processor.CandidateError{Op: "persist", BaseErr: storage.ErrPersistenceFailure}, http.StatusInternalServerError},
		{"空文件", &processor.CandidateError{Op: "validate", BaseErr: processor.ErrEmptyFile}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeService{
				uploadFn: func(ctx context.Context, filename string, data []byte) (*processor.UploadResult, error) {
					return nil, tc.err
				},
			}
			h := newTestEngine(t, svc, 0)
			resp := performUpload(t, h, "jane.pdf", []byte("%PDF"))
			assert.Equal(t, tc.status, resp.Code)
			assert.NotEmpty(t, decodeDetail(t, resp))
		})
	}
}

func TestHandleListCandidates(t *testing.T) {
	svc := &fakeService{
		listFn: func(ctx context.Context) ([]types.CandidateSummary, error) {
			return []types.CandidateSummary{{
				CandidateID:  "cand-0001",
				RecordID:     "42",
				Filename:     "jane.pdf",
				Skills:       []string{"Python"},
				Introduction: "Backend engineer",
			}}, nil
		},
	}
	h := newTestEngine(t, svc, 0)

	resp := ut.PerformRequest(h.Engine, "GET", "/api/v1/candidates", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var listResp handler.CandidateListResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &listResp))
	assert.Equal(t, 1, listResp.Count)
	require.Len(t, listResp.Candidates, 1)
	assert.Equal(t, []string{"Python"}, listResp.Candidates[0].Skills)
}

func TestHandleGetCandidate(t *testing.T) {
	profile := types.NewEmptyProfile()
	profile.Skills = []string{"Go"}
	svc := &fakeService{
		getFn: func(ctx context.Context, candidateID string) (types.CandidateDocument, error) {
			if candidateID != "cand-0001" {
				return types.CandidateDocument{}, fmt.Errorf("%w: %s", storage.ErrCandidateNotFound, candidateID)
			}
			return types.CandidateDocument{CandidateID: candidateID, RecordID: "42", CandidateProfile: profile}, nil
		},
	}
	h := newTestEngine(t, svc, 0)

	resp := ut.PerformRequest(h.Engine, "GET", "/api/v1/candidate/cand-0001", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &doc))
	assert.Equal(t, "cand-0001", doc["candidate_id"])
	assert.Equal(t, []interface{}{"Go"}, doc["skills"])

	resp = ut.PerformRequest(h.Engine, "GET", "/api/v1/candidate/unknown", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "Candidate not found", decodeDetail(t, resp))
}

func TestHandleAsk(t *testing.T) {
	svc := &fakeService{
		askFn: func(ctx context.Context, candidateID, question string) (qa.Answer, error) {
			if candidateID == "missing" {
				return qa.Answer{}, &processor.CandidateError{Op: "get", CandidateID: candidateID, BaseErr: storage.ErrCandidateNotFound}
			}
			return qa.Answer{Text: "The candidate has the following skills: Python, SQL", Source: types.AnswerFromFallback}, nil
		},
	}
	h := newTestEngine(t, svc, 0)

	ask := func(candidateID, body string) *ut.ResponseRecorder {
		buf := bytes.NewBufferString(body)
		return ut.PerformRequest(h.Engine, "POST", "/api/v1/ask/"+candidateID,
			&ut.Body{Body: buf, Len: buf.Len()},
			ut.Header{Key: "Content-Type", Value: "application/json"},
		)
	}

	resp := ask("cand-0001", `{"question":"what skills"}`)
	require.Equal(t, http.StatusOK, resp.Code)
	var askResp handler.AskResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &askResp))
	assert.Equal(t, "cand-0001", askResp.CandidateID)
	assert.Equal(t, "what skills", askResp.Question)
	assert.Contains(t, askResp.Answer, "Python, SQL")
	assert.Equal(t, types.AnswerFromFallback, askResp.Source)

	resp = ask("cand-0001", `{"question":"   "}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ask("cand-0001", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ask("missing", `{"question":"what skills"}`)
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "Candidate not found", decodeDetail(t, resp))
}

func TestStatusForError_Default(t *testing.T) {
	status, detail := handler.StatusForError(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Internal server error", detail)

	status, _ = handler.StatusForError(fmt.Errorf("wrap: %w", parser.ErrUnsupportedFormat))
	assert.Equal(t, http.StatusBadRequest, status)
}
