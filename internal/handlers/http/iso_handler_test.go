package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"courtstream/internal/core/ports"
	"courtstream/internal/core/services"
	"courtstream/internal/infrastructure/repositories/memory"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// stubEncoder satisfies ports.Encoder without spawning ffmpeg.
type stubEncoder struct{}

func (stubEncoder) ExtractSegment(ctx context.Context, job ports.SegmentJob) error { return nil }
func (stubEncoder) Concat(ctx context.Context, manifestPath, outputPath string) error {
	return nil
}
func (stubEncoder) Transcode(ctx context.Context, inputPath, outputPath string) error { return nil }

type handlerFixture struct {
	router    *gin.Engine
	uploadDir string
	outputDir string
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t).Sugar()

	uploadDir := t.TempDir()
	outputDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(uploadDir, "iso"), 0o755))

	captures := services.NewCaptureService(memory.NewCaptureStore(time.Hour, logger), logger)
	renders := services.NewRenderService(captures, stubEncoder{}, nil, nil, outputDir, time.Minute, logger)

	handler := NewISOHandler(captures, renders, nil, uploadDir, outputDir, logger)
	router := gin.New()
	handler.SetupRoutes(router, nil)

	return &handlerFixture{router: router, uploadDir: uploadDir, outputDir: outputDir}
}

func multipartUpload(t *testing.T, sessionID, camID, filename string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte("fake mp4 bytes"))
	require.NoError(t, err)

	require.NoError(t, writer.WriteField("sessionId", sessionID))
	require.NoError(t, writer.WriteField("camId", camID))
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func (f *handlerFixture) upload(t *testing.T, sessionID, camID, filename string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartUpload(t, sessionID, camID, filename)
	req := httptest.NewRequest(http.MethodPost, "/api/upload-iso", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestUploadISO_Success(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.upload(t, "sess-1", "camA", "clip one.mp4")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "sess-1_camA_clip_one.mp4", resp["filename"])
	assert.Equal(t, "/uploads/iso/sess-1_camA_clip_one.mp4", resp["path"])

	stored := filepath.Join(f.uploadDir, "iso", "sess-1_camA_clip_one.mp4")
	_, err := os.Stat(stored)
	assert.NoError(t, err)
}

func TestUploadISO_MissingFile(t *testing.T) {
	f := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/upload-iso", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no file uploaded")
}

func TestUploadISO_MissingFields(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.upload(t, "", "camA", "clip.mp4")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "sessionId is required")

	rec = f.upload(t, "sess-1", "", "clip.mp4")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "camId is required")

	rec = f.upload(t, "../escape", "camA", "clip.mp4")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid characters")
}

func (f *handlerFixture) render(t *testing.T, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/render-iso", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestRenderISO_Success(t *testing.T) {
	f := newHandlerFixture(t)

	require.Equal(t, http.StatusOK, f.upload(t, "sess-1", "camA", "a.mp4").Code)
	require.Equal(t, http.StatusOK, f.upload(t, "sess-1", "camB", "b.mp4").Code)

	rec := f.render(t, gin.H{
		"sessionId": "sess-1",
		"edl": []gin.H{
			{"t": 0, "cam": "camA"},
			{"t": 2000, "cam": "camB"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Success     bool   `json:"success"`
		URL         string `json:"url"`
		SourceFiles []struct {
			CamID    string `json:"camId"`
			URL      string `json:"url"`
			Filename string `json:"filename"`
		} `json:"sourceFiles"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.True(t, resp.Success)
	assert.Equal(t, "/recordings/render_sess-1.mp4", resp.URL)
	require.Len(t, resp.SourceFiles, 2)
	assert.Equal(t, "camA", resp.SourceFiles[0].CamID)
	assert.Equal(t, "/recordings/sess-1_camA_web.mp4", resp.SourceFiles[0].URL)
	assert.Equal(t, "sess-1_camA_web.mp4", resp.SourceFiles[0].Filename)
}

func TestRenderISO_UnknownSession(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.render(t, gin.H{
		"sessionId": "ghost",
		"edl":       []gin.H{{"t": 0, "cam": "camA"}},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "capture session not found")
}

func TestRenderISO_MissingCamsListed(t *testing.T) {
	f := newHandlerFixture(t)

	require.Equal(t, http.StatusOK, f.upload(t, "sess-1", "camA", "a.mp4").Code)

	rec := f.render(t, gin.H{
		"sessionId": "sess-1",
		"edl": []gin.H{
			{"t": 0, "cam": "camA"},
			{"t": 1000, "cam": "camB"},
		},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Error       string   `json:"error"`
		MissingCams []string `json:"missingCams"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "missing source files", resp.Error)
	assert.Equal(t, []string{"camB"}, resp.MissingCams)
}

func TestRenderISO_BadRequests(t *testing.T) {
	f := newHandlerFixture(t)

	// Unparseable body
	req := httptest.NewRequest(http.MethodPost, "/api/render-iso", bytes.NewReader([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Missing session id
	rec = f.render(t, gin.H{"edl": []gin.H{{"t": 0, "cam": "camA"}}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "sessionId is required")

	// Empty EDL
	rec = f.render(t, gin.H{"sessionId": "sess-1", "edl": []gin.H{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
