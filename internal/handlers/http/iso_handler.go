package http

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"courtstream/internal/core/domain"
	"courtstream/internal/core/ports"
	"courtstream/internal/core/services"
	apperrors "courtstream/pkg/errors"
	"courtstream/pkg/validation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ISOHandler exposes the request/response side of the ISO capture and
// render pipeline: camera uploads and director-triggered renders.
type ISOHandler struct {
	captures *services.CaptureService
	renders  *services.RenderService
	metrics  ports.MetricsCollector
	logger   *zap.SugaredLogger

	uploadDir string
	outputDir string
}

func NewISOHandler(
	captures *services.CaptureService,
	renders *services.RenderService,
	metrics ports.MetricsCollector,
	uploadDir, outputDir string,
	logger *zap.SugaredLogger,
) *ISOHandler {
	return &ISOHandler{
		captures:  captures,
		renders:   renders,
		metrics:   metrics,
		uploadDir: uploadDir,
		outputDir: outputDir,
		logger:    logger,
	}
}

func (h *ISOHandler) SetupRoutes(router *gin.Engine, auth gin.HandlerFunc) {
	api := router.Group("/api")
	if auth != nil {
		api.Use(auth)
	}
	{
		api.POST("/upload-iso", h.UploadISO)
		api.POST("/render-iso", h.RenderISO)
	}

	// Deliverables are plain files with deterministic names.
	router.Static("/recordings", h.outputDir)
	router.Static("/uploads/iso", h.isoDir())
}

func (h *ISOHandler) isoDir() string {
	return filepath.Join(h.uploadDir, "iso")
}

func (h *ISOHandler) UploadISO(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file uploaded"})
		return
	}

	sessionID := c.PostForm("sessionId")
	camID := c.PostForm("camId")
	if err := validation.ValidateSessionID(sessionID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validation.ValidateCamID(camID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	filename := fmt.Sprintf("%s_%s_%s", sessionID, camID, sanitize(filepath.Base(file.Filename)))
	dst := filepath.Join(h.isoDir(), filename)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		h.logger.Errorw("failed to store ISO upload", "session_id", sessionID, "cam_id", camID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store upload"})
		return
	}

	absPath, err := filepath.Abs(dst)
	if err != nil {
		absPath = dst
	}
	if err := h.captures.RecordUpload(c.Request.Context(), domain.SessionID(sessionID), domain.CamID(camID), absPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record upload"})
		return
	}

	if h.metrics != nil {
		h.metrics.RecordUpload(file.Size)
	}
	if user, ok := c.Get("user_id"); ok {
		h.logger.Infow("ISO upload accepted", "session_id", sessionID, "cam_id", camID, "user_id", user)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"filename": filename,
		"path":     "/uploads/iso/" + filename,
	})
}

type renderRequest struct {
	SessionID string     `json:"sessionId"`
	EDL       domain.EDL `json:"edl"`
	Room      string     `json:"room,omitempty"`
}

type sourceFileResponse struct {
	CamID    string `json:"camId"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

func (h *ISOHandler) RenderISO(c *gin.Context) {
	var req renderRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid render request"})
		return
	}
	if err := validation.ValidateSessionID(req.SessionID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Room != "" {
		if err := validation.ValidateRoomID(req.Room); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	result, err := h.renders.Render(c.Request.Context(),
		domain.SessionID(req.SessionID), req.EDL, domain.RoomID(req.Room))
	if err != nil {
		h.renderError(c, err)
		return
	}

	sources := make([]sourceFileResponse, 0, len(result.Sources))
	for _, src := range result.Sources {
		sources = append(sources, sourceFileResponse{
			CamID:    string(src.Cam),
			URL:      h.urlFor(src.Path),
			Filename: filepath.Base(src.Path),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"url":         h.urlFor(result.OutputPath),
		"sourceFiles": sources,
	})
}

func (h *ISOHandler) renderError(c *gin.Context, err error) {
	status := apperrors.HTTPStatusFor(err)
	body := gin.H{"error": err.Error()}

	if appErr, ok := err.(*apperrors.AppError); ok {
		body["error"] = appErr.Message
		if missing, ok := appErr.Context["missing_cams"].([]string); ok {
			body["missingCams"] = missing
		}
	}

	c.JSON(status, body)
}

// urlFor maps a deliverable's filesystem location to its download URL.
func (h *ISOHandler) urlFor(path string) string {
	base := filepath.Base(path)
	if absOut, err := filepath.Abs(h.outputDir); err == nil {
		if absPath, err := filepath.Abs(path); err == nil && strings.HasPrefix(absPath, absOut+string(filepath.Separator)) {
			return "/recordings/" + base
		}
	}
	return "/uploads/iso/" + base
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
