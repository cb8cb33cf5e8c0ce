package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"courtstream/internal/core/domain"
	"courtstream/internal/core/ports"
	apperrors "courtstream/pkg/errors"
	"courtstream/pkg/tracing"

	"go.uber.org/zap"
)

// Fraction of the progress budget reserved for segment extraction; the
// remainder covers concatenation and the per-camera downloads.
const segmentProgressBudget = 80

// RenderService turns an edit-decision-list plus a capture session's
// uploaded files into one concatenated program output and per-camera
// downloadable deliverables.
type RenderService struct {
	captures *CaptureService
	encoder  ports.Encoder
	notifier ports.RoomNotifier
	metrics  ports.MetricsCollector
	logger   *zap.SugaredLogger

	outputDir        string
	transcodeTimeout time.Duration

	mu       sync.Mutex
	inflight map[domain.SessionID]bool
}

func NewRenderService(
	captures *CaptureService,
	encoder ports.Encoder,
	notifier ports.RoomNotifier,
	metrics ports.MetricsCollector,
	outputDir string,
	transcodeTimeout time.Duration,
	logger *zap.SugaredLogger,
) *RenderService {
	return &RenderService{
		captures:         captures,
		encoder:          encoder,
		notifier:         notifier,
		metrics:          metrics,
		outputDir:        outputDir,
		transcodeTimeout: transcodeTimeout,
		logger:           logger,
		inflight:         make(map[domain.SessionID]bool),
	}
}

// OutputPath returns the deterministic location of a session's final render.
// Re-rendering the same session overwrites it.
func (s *RenderService) OutputPath(session domain.SessionID) string {
	return filepath.Join(s.outputDir, fmt.Sprintf("render_%s.mp4", session))
}

// Render runs the full pipeline for one session. Segment extraction is
// strictly sequential; independent sessions may render concurrently. A
// second render for a session already in flight is rejected.
func (s *RenderService) Render(ctx context.Context, session domain.SessionID, edl domain.EDL, room domain.RoomID) (*domain.RenderResult, error) {
	if err := validateEDL(edl); err != nil {
		return nil, err
	}

	files, err := s.captures.Files(ctx, session)
	if err != nil {
		return nil, apperrors.NewNotFoundError("capture session")
	}

	if missing := missingCams(edl, files); len(missing) > 0 {
		return nil, apperrors.NewInvalidInputError("missing source files").
			WithContext("missing_cams", missing)
	}

	if !s.acquire(session) {
		return nil, apperrors.WrapError(domain.ErrRenderInProgress, apperrors.ErrCodeConflict, "render already in progress", 409)
	}
	defer s.release(session)

	ctx, span := tracing.TraceRender(ctx, "session", string(session))
	defer span.End()
	if room != "" {
		tracing.AddSpanAttributes(ctx, tracing.RoomIDKey.String(string(room)))
	}

	start := time.Now()
	reporter := newProgressReporter(func(p int, status string) {
		if room == "" {
			return
		}
		s.notifier.NotifyRoom(ctx, room, EventRenderProgress, domain.RenderProgress{
			SessionID: session,
			Progress:  p,
			Status:    status,
		})
	})

	result, err := s.run(ctx, session, edl, files, reporter)
	if err != nil {
		reporter.fail(err.Error())
		tracing.RecordError(ctx, err)
		if s.metrics != nil {
			s.metrics.RecordRender("failure", time.Since(start).Seconds())
		}
		s.logger.Errorw("render failed", "session_id", session, "error", err)
		return nil, err
	}

	reporter.complete("render complete")
	if s.metrics != nil {
		s.metrics.RecordRender("success", time.Since(start).Seconds())
	}
	s.logger.Infow("render complete",
		"session_id", session,
		"output", result.OutputPath,
		"segments", len(edl),
		"duration", time.Since(start),
	)
	return result, nil
}

func (s *RenderService) run(ctx context.Context, session domain.SessionID, edl domain.EDL, files map[domain.CamID]string, reporter *progressReporter) (*domain.RenderResult, error) {
	tmpDir := filepath.Join(s.outputDir, "tmp", string(session))
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return nil, apperrors.NewPipelineError("failed to create temp directory", err)
	}
	// Temp segments are removed on every exit, success or failure.
	defer os.RemoveAll(tmpDir)

	segments, err := s.cutSegments(ctx, edl, files, tmpDir, reporter)
	if err != nil {
		return nil, err
	}

	reporter.report(segmentProgressBudget, "concatenating segments")
	outputPath := s.OutputPath(session)
	if err := s.concat(ctx, session, segments, tmpDir, outputPath); err != nil {
		return nil, err
	}

	reporter.report(90, "preparing camera downloads")
	sources := s.cameraDeliverables(ctx, session, files)

	return &domain.RenderResult{
		SessionID:  session,
		OutputPath: outputPath,
		Sources:    sources,
	}, nil
}

// cutSegments extracts one normalized segment per EDL entry, in order.
// Segment i+1 never starts before i completes; the segments share tmpDir and
// encoder concurrency per job is bounded at one.
func (s *RenderService) cutSegments(ctx context.Context, edl domain.EDL, files map[domain.CamID]string, tmpDir string, reporter *progressReporter) ([]string, error) {
	segments := make([]string, 0, len(edl))
	for i, entry := range edl {
		reporter.report(i*segmentProgressBudget/len(edl), fmt.Sprintf("processing segment %d of %d", i+1, len(edl)))

		job := ports.SegmentJob{
			Source:       files[entry.Cam],
			Output:       filepath.Join(tmpDir, fmt.Sprintf("seg_%03d.mp4", i)),
			StartSeconds: float64(entry.T) / 1000.0,
			ToEnd:        true,
		}
		if i+1 < len(edl) {
			job.ToEnd = false
			job.DurationSeconds = float64(edl[i+1].T-entry.T) / 1000.0
		}

		segCtx, span := tracing.StartSpan(ctx, "render.segment")
		tracing.AddSpanAttributes(segCtx,
			tracing.CamIDKey.String(string(entry.Cam)),
			tracing.SegmentKey.Int(i),
		)
		err := s.encoder.ExtractSegment(segCtx, job)
		span.End()
		if err != nil {
			return nil, apperrors.NewPipelineError(
				fmt.Sprintf("segment %d (camera %s) failed", i, entry.Cam), err)
		}
		segments = append(segments, job.Output)
	}
	return segments, nil
}

func (s *RenderService) concat(ctx context.Context, session domain.SessionID, segments []string, tmpDir, outputPath string) error {
	manifest := filepath.Join(tmpDir, "concat.txt")
	var b strings.Builder
	for _, seg := range segments {
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(seg, "'", `'\''`))
	}
	if err := os.WriteFile(manifest, []byte(b.String()), 0o644); err != nil {
		return apperrors.NewPipelineError("failed to write concat manifest", err)
	}

	concatCtx, span := tracing.TraceRender(ctx, "concat", string(session))
	defer span.End()
	if err := s.encoder.Concat(concatCtx, manifest, outputPath); err != nil {
		return apperrors.NewPipelineError("concatenation failed", err)
	}
	return nil
}

// cameraDeliverables produces a downloadable per-camera file for every
// camera in the session's upload map, not just those the EDL referenced.
// Each conversion is bounded by the transcode timeout; on timeout or encoder
// error the original capture is exposed instead. This step never fails the
// render.
func (s *RenderService) cameraDeliverables(ctx context.Context, session domain.SessionID, files map[domain.CamID]string) []domain.SourceFile {
	cams := make([]domain.CamID, 0, len(files))
	for cam := range files {
		cams = append(cams, cam)
	}
	sort.Slice(cams, func(i, j int) bool { return cams[i] < cams[j] })

	sources := make([]domain.SourceFile, len(cams))
	var wg sync.WaitGroup
	for i, cam := range cams {
		wg.Add(1)
		go func(i int, cam domain.CamID) {
			defer wg.Done()
			sources[i] = s.transcodeCamera(ctx, session, cam, files[cam])
		}(i, cam)
	}
	wg.Wait()
	return sources
}

func (s *RenderService) transcodeCamera(ctx context.Context, session domain.SessionID, cam domain.CamID, original string) domain.SourceFile {
	dst := filepath.Join(s.outputDir, fmt.Sprintf("%s_%s_web.mp4", session, cam))
	if _, err := os.Stat(dst); err == nil {
		return domain.SourceFile{Cam: cam, Path: dst, Transcoded: true}
	}

	tctx, cancel := context.WithTimeout(ctx, s.transcodeTimeout)
	defer cancel()

	if err := s.encoder.Transcode(tctx, original, dst); err != nil {
		// Best-effort degradation: expose the original capture.
		s.logger.Warnw("camera transcode failed, falling back to original",
			"session_id", session,
			"cam_id", cam,
			"error", err,
		)
		os.Remove(dst)
		return domain.SourceFile{Cam: cam, Path: original, Transcoded: false}
	}
	return domain.SourceFile{Cam: cam, Path: dst, Transcoded: true}
}

func (s *RenderService) acquire(session domain.SessionID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[session] {
		return false
	}
	s.inflight[session] = true
	return true
}

func (s *RenderService) release(session domain.SessionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, session)
}

func validateEDL(edl domain.EDL) error {
	if len(edl) == 0 {
		return apperrors.NewInvalidInputError("edl must not be empty")
	}
	for i, entry := range edl {
		if entry.Cam == "" {
			return apperrors.NewInvalidInputError(fmt.Sprintf("edl entry %d has no camera", i))
		}
		if entry.T < 0 {
			return apperrors.NewInvalidInputError(fmt.Sprintf("edl entry %d has negative timestamp", i))
		}
		if i > 0 && entry.T < edl[i-1].T {
			return apperrors.NewInvalidInputError(fmt.Sprintf("edl timestamps must be non-decreasing (entry %d)", i))
		}
	}
	return nil
}

// missingCams returns every distinct EDL camera whose upload is absent from
// the session map or no longer on disk.
func missingCams(edl domain.EDL, files map[domain.CamID]string) []string {
	var missing []string
	for _, cam := range edl.Cams() {
		path, ok := files[cam]
		if !ok {
			missing = append(missing, string(cam))
			continue
		}
		if _, err := os.Stat(path); err != nil {
			missing = append(missing, string(cam))
		}
	}
	return missing
}

// progressReporter serializes render progress: values never decrease and
// nothing is emitted after a terminal value (100 or the failure sentinel).
type progressReporter struct {
	mu   sync.Mutex
	last int
	done bool
	emit func(progress int, status string)
}

func newProgressReporter(emit func(progress int, status string)) *progressReporter {
	return &progressReporter{emit: emit}
}

func (r *progressReporter) report(p int, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return
	}
	if p < r.last {
		p = r.last
	}
	r.last = p
	r.emit(p, status)
}

func (r *progressReporter) complete(status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return
	}
	r.done = true
	r.emit(100, status)
}

func (r *progressReporter) fail(status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return
	}
	r.done = true
	r.emit(domain.ProgressFailed, status)
}
