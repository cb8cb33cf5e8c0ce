package services

import (
	"context"

	"courtstream/internal/core/domain"
	"courtstream/internal/core/ports"

	"go.uber.org/zap"
)

// CaptureService tracks which camera captures have been uploaded for each
// ISO recording session.
type CaptureService struct {
	store  ports.CaptureStore
	logger *zap.SugaredLogger
}

func NewCaptureService(store ports.CaptureStore, logger *zap.SugaredLogger) *CaptureService {
	return &CaptureService{
		store:  store,
		logger: logger,
	}
}

// RecordUpload upserts the uploaded file path for (session, cam). Repeated
// uploads for the same camera overwrite the previous path.
func (s *CaptureService) RecordUpload(ctx context.Context, session domain.SessionID, cam domain.CamID, path string) error {
	if err := s.store.Put(ctx, session, cam, path); err != nil {
		return err
	}
	s.logger.Infow("recorded ISO upload", "session_id", session, "cam_id", cam, "path", path)
	return nil
}

// Files returns the camera to file-path map for a session, or
// domain.ErrSessionNotFound when no upload ever arrived for it.
func (s *CaptureService) Files(ctx context.Context, session domain.SessionID) (map[domain.CamID]string, error) {
	return s.store.Files(ctx, session)
}
