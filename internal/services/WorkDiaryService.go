package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"workdiary/internal/fetcher"
	"workdiary/internal/models"
	"workdiary/internal/providers"
	"workdiary/internal/storage"
	"workdiary/internal/store"
	"workdiary/internal/structures"
	"workdiary/internal/telemetry"

	"github.com/gookit/validate"
	"gopkg.in/guregu/null.v3"
)

const (
	defaultCounters = `{"clicks":0}`
	defaultActive   = `{"apps":[]}`
)

var requiredFields = []string{"projectID", "userID", "taskID", "screenshotTimeStamp", "calcTimeStamp"}

type WorkDiaryServiceInterface interface {
	Ingest(ctx context.Context, req *IngestRequest) (int64, error)
	List(ctx context.Context, filter models.EntryFilter) ([]models.EntryView, error)
	SoftDelete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

type WorkDiaryService struct {
	store   store.Store
	images  storage.ImageStoreInterface
	fetcher fetcher.FetcherInterface
	cache   providers.CacheProviderInterface
	metrics providers.MetricsProviderInterface
	logger  providers.Logger

	// publicBase prefixes stored relative paths in listings.
	publicBase string
}

func NewWorkDiaryService(
	conf *structures.Config,
	st store.Store,
	images storage.ImageStoreInterface,
	remote fetcher.FetcherInterface,
	cache providers.CacheProviderInterface,
	metrics providers.MetricsProviderInterface,
	logger providers.Logger,
) *WorkDiaryService {
	return &WorkDiaryService{
		store:      st,
		images:     images,
		fetcher:    remote,
		cache:      cache,
		metrics:    metrics,
		logger:     logger,
		publicBase: strings.TrimRight(conf.Storage.PublicBaseURL, "/") + "/" + strings.Trim(conf.Storage.PublicPrefix, "/"),
	}
}

// Ingest validates req, persists its images and records the entry.
// Either everything is stored or nothing is: images written before a
// failure are removed again.
func (s *WorkDiaryService) Ingest(ctx context.Context, req *IngestRequest) (int64, error) {
	if err := checkRequired(req); err != nil {
		s.metrics.IncIngestFailures("missing_fields")
		return 0, err
	}

	shotTS, err := NormalizeTimestamp(req.ScreenshotTimeStamp)
	if err != nil {
		s.metrics.IncIngestFailures("invalid_field")
		return 0, &models.InvalidFieldError{Field: "screenshotTimeStamp", Reason: err.Error()}
	}
	calcTS, err := NormalizeTimestamp(req.CalcTimeStamp)
	if err != nil {
		s.metrics.IncIngestFailures("invalid_field")
		return 0, &models.InvalidFieldError{Field: "calcTimeStamp", Reason: err.Error()}
	}

	meta := storage.ImageMeta{
		ProjectID: req.ProjectID,
		TaskID:    req.TaskID,
		Date:      shotTS[:len(models.DateLayout)],
	}

	var written []string
	rollback := func() {
		for _, p := range written {
			if err := s.images.Remove(p); err != nil {
				s.logger.Errorf(providers.TypePost, "Rollback of image %s failed: %s", p, err)
			}
		}
	}

	imagePath, err := s.resolveImage(ctx, "screenshot", req.Screenshot, meta)
	if err != nil {
		s.metrics.IncIngestFailures(failureReason(err))
		return 0, err
	}
	if imagePath != "" {
		written = append(written, imagePath)
	}

	thumbPath, err := s.resolveImage(ctx, "thumbnail", req.Thumbnail, meta)
	if err != nil {
		rollback()
		s.metrics.IncIngestFailures(failureReason(err))
		return 0, err
	}
	if thumbPath != "" {
		written = append(written, thumbPath)
	}

	entry := &models.WorkDiaryEntry{
		ProjectID:           req.ProjectID,
		UserID:              req.UserID,
		TaskID:              req.TaskID,
		ScreenshotTimeStamp: shotTS,
		CalcTimeStamp:       calcTS,
		KeyboardJSON:        s.counterBlob("keyboardJSON", req.KeyboardJSON, req.KeyboardClicks),
		MouseJSON:           s.counterBlob("mouseJSON", req.MouseJSON, req.MouseClicks),
		ActiveJSON:          s.canonical("activeJSON", req.ActiveJSON),
		ActiveFlag:          req.ActiveFlag,
		ActiveMins:          req.ActiveMins,
		ActiveMemo:          req.ActiveMemo,
		DeletedFlag:         req.DeletedFlag,
		ImageURL:            nullPath(imagePath),
		ThumbNailURL:        nullPath(thumbPath),
	}

	id, err := s.store.Insert(ctx, entry)
	if err != nil {
		rollback()
		s.metrics.IncIngestFailures("store")
		return 0, err
	}

	s.cache.Clear()
	s.metrics.IncEntriesIngested()
	s.logger.Infof(providers.TypePost, "Stored entry %d for user %s (project %s, task %s)", id, entry.UserID, entry.ProjectID, entry.TaskID)
	return id, nil
}

func checkRequired(req *IngestRequest) error {
	v := validate.Map(map[string]any{
		"projectID":           req.ProjectID,
		"userID":              req.UserID,
		"taskID":              req.TaskID,
		"screenshotTimeStamp": req.ScreenshotTimeStamp,
		"calcTimeStamp":       req.CalcTimeStamp,
	})
	v.StopOnError = false
	for _, field := range requiredFields {
		v.StringRule(field, "required")
	}
	if v.Validate() {
		return nil
	}

	var missing []string
	for _, field := range requiredFields {
		if len(v.Errors.Field(field)) > 0 {
			missing = append(missing, field)
		}
	}
	return &models.MissingFieldError{Fields: missing}
}

// resolveImage stores one image slot and returns its relative path, or ""
// when the client supplied nothing for it.
func (s *WorkDiaryService) resolveImage(ctx context.Context, slot string, in ImageInput, meta storage.ImageMeta) (string, error) {
	var (
		path string
		size int
		err  error
	)

	source := in.Source()
	switch source {
	case SourceNone:
		return "", nil
	case SourceUpload:
		path, err = s.images.SaveBytes(in.Upload, meta)
		size = len(in.Upload)
	case SourceInline:
		path, err = s.images.SaveDataURL(in.Ref, meta)
	case SourceRemote:
		var data []byte
		data, err = s.fetcher.Fetch(ctx, in.Ref)
		if err == nil {
			path, err = s.images.SaveBytes(data, meta)
			size = len(data)
		}
	}
	if err != nil {
		return "", fmt.Errorf("%s (%s): %w", slot, source, err)
	}

	s.metrics.IncImagesSaved(source.String(), size)
	return path, nil
}

func (s *WorkDiaryService) canonical(field string, v any) string {
	res := telemetry.Canonicalize(v)
	if res.IsFallback() && v != nil {
		s.logger.Warnf(providers.TypePost, "Unusable %s replaced with %s: %s", field, telemetry.EmptyObject, res.Err)
	}
	return res.JSON
}

// counterBlob canonicalizes a mouse/keyboard blob, falling back to the bare
// click counter when the blob was not sent at all.
func (s *WorkDiaryService) counterBlob(field string, v any, clicks *int64) string {
	if v == nil && clicks != nil {
		return telemetry.ClicksJSON(*clicks)
	}
	return s.canonical(field, v)
}

func (s *WorkDiaryService) List(ctx context.Context, filter models.EntryFilter) ([]models.EntryView, error) {
	entries, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	views := make([]models.EntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, s.view(e))
	}
	return views, nil
}

func (s *WorkDiaryService) view(e models.WorkDiaryEntry) models.EntryView {
	return models.EntryView{
		ID:                  e.ID,
		ProjectID:           e.ProjectID,
		UserID:              e.UserID,
		TaskID:              e.TaskID,
		ScreenshotTimeStamp: e.ScreenshotTimeStamp,
		CalcTimeStamp:       e.CalcTimeStamp,
		Timestamp:           e.ScreenshotTimeStamp,
		Screenshot:          s.publicURL(e.ImageURL),
		Thumbnail:           s.publicURL(e.ThumbNailURL),
		ActiveMemo:          e.ActiveMemo,
		ActiveFlag:          e.ActiveFlag,
		ActiveMins:          e.ActiveMins,
		ActiveJSON:          telemetry.Object(e.ActiveJSON, defaultActive),
		MouseJSON:           telemetry.Object(e.MouseJSON, defaultCounters),
		KeyboardJSON:        telemetry.Object(e.KeyboardJSON, defaultCounters),
		MouseClicks:         telemetry.Clicks(e.MouseJSON),
		KeyboardClicks:      telemetry.Clicks(e.KeyboardJSON),
		DeletedFlag:         e.DeletedFlag,
		ImageURL:            e.ImageURL,
		ThumbNailURL:        e.ThumbNailURL,
		CreatedAt:           e.CreatedAt,
		ModifiedAt:          e.ModifiedAt,
	}
}

// publicURL maps a stored path to the address the viewer loads it from.
// Files that are gone from disk map to null.
func (s *WorkDiaryService) publicURL(p null.String) null.String {
	if !p.Valid || p.String == "" {
		return null.String{}
	}
	if strings.HasPrefix(p.String, "http://") || strings.HasPrefix(p.String, "https://") {
		return p
	}
	rel := storage.NormalizePath(p.String)
	if !s.images.Exists(rel) {
		return null.String{}
	}
	return null.StringFrom(s.publicBase + "/" + rel)
}

func (s *WorkDiaryService) SoftDelete(ctx context.Context, id int64) error {
	if err := s.store.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.cache.Clear()
	s.logger.Infof(providers.TypeApp, "Entry %d marked deleted", id)
	return nil
}

func (s *WorkDiaryService) Count(ctx context.Context) (int64, error) {
	return s.store.Count(ctx)
}

// DayFilter builds the ascending filter for one user's calendar day.
func DayFilter(userID, date string) (models.EntryFilter, error) {
	day, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return models.EntryFilter{}, &models.InvalidFieldError{Field: "date", Reason: "expected YYYY-MM-DD"}
	}
	return models.EntryFilter{
		UserID: userID,
		From:   day.Format(models.TimestampLayout),
		To:     day.AddDate(0, 0, 1).Format(models.TimestampLayout),
		Order:  models.OrderAsc,
	}, nil
}

// RangeFilter builds an ascending filter over [from, to) for one user.
// Either bound may be empty.
func RangeFilter(userID, from, to string) (models.EntryFilter, error) {
	filter := models.EntryFilter{UserID: userID, Order: models.OrderAsc}
	if from != "" {
		ts, err := NormalizeTimestamp(from)
		if err != nil {
			return filter, &models.InvalidFieldError{Field: "from", Reason: err.Error()}
		}
		filter.From = ts
	}
	if to != "" {
		ts, err := NormalizeTimestamp(to)
		if err != nil {
			return filter, &models.InvalidFieldError{Field: "to", Reason: err.Error()}
		}
		filter.To = ts
	}
	return filter, nil
}

func nullPath(p string) null.String {
	p = storage.NormalizePath(p)
	if p == "" {
		return null.String{}
	}
	return null.StringFrom(p)
}

func failureReason(err error) string {
	var (
		tooLarge  *models.ImageTooLargeError
		badFormat *models.InvalidImageFormatError
		badShare  *models.InvalidShareLinkError
		fetchErr  *models.FetchError
	)
	switch {
	case errors.As(err, &tooLarge):
		return "image_too_large"
	case errors.As(err, &badFormat):
		return "invalid_image"
	case errors.As(err, &badShare):
		return "invalid_share_link"
	case errors.As(err, &fetchErr):
		return "fetch"
	default:
		return "image_write"
	}
}
