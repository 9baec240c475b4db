package controllers

import (
	"errors"
	json "github.com/goccy/go-json"
	"net/http"
	"strconv"
	"workdiary/internal/models"
	"workdiary/internal/providers"
	"workdiary/internal/services"
	"workdiary/internal/structures"
)

const internalErrorMessage = "Internal server error"

type WorkDiaryController struct {
	logger  providers.Logger
	service services.WorkDiaryServiceInterface
	cache   providers.CacheProviderInterface

	maxMemory     int64
	maxImageBytes int64
	maxBodyBytes  int64
}

type errorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

type createdResponse struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func NewWorkDiaryController(conf *structures.Config, logger providers.Logger, service services.WorkDiaryServiceInterface, cache providers.CacheProviderInterface) *WorkDiaryController {
	maxImage := int64(conf.Storage.MaxImageBytes)
	// Room for two base64 images plus form fields.
	maxBody := 3*maxImage + 1<<20

	return &WorkDiaryController{
		logger:        logger,
		service:       service,
		cache:         cache,
		maxMemory:     conf.Storage.MaxUploadMemory,
		maxImageBytes: maxImage,
		maxBodyBytes:  maxBody,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	gson, err := json.Marshal(v)
	if err != nil {
		http.Error(w, internalErrorMessage, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

// writeError maps service errors to responses. Only client input problems
// are described to the caller; everything else is logged and answered generically.
func (wc *WorkDiaryController) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		missing  *models.MissingFieldError
		invalid  *models.InvalidFieldError
		notFound *models.NotFoundError
	)
	switch {
	case errors.As(err, &missing):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing required fields", Fields: missing.Fields})
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: invalid.Error()})
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: notFound.Error()})
	default:
		wc.logger.Errorf(providers.GetLogTypeByRequestType(r.Method), "%s %s failed: %s", r.Method, r.URL.Path, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: internalErrorMessage})
	}
}

func (wc *WorkDiaryController) serveFromCacheOrCompute(w http.ResponseWriter, r *http.Request, cacheKey string, compute func() (any, error)) {
	if data, ok := wc.cache.Get(cacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	// A write that clears the cache while compute runs must win over this result.
	gen := wc.cache.Generation()
	result, err := compute()
	if err != nil {
		wc.writeError(w, r, err)
		return
	}

	gson, err := json.Marshal(result)
	if err != nil {
		wc.writeError(w, r, err)
		return
	}

	wc.cache.SetIfGeneration(gen, cacheKey, gson)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

// Create handles POST /workdiary.
func (wc *WorkDiaryController) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, wc.maxBodyBytes)

	req, err := services.NewRequestDecoder(r, wc.maxMemory, wc.maxImageBytes).Decode()
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}
	if err != nil {
		wc.writeError(w, r, err)
		return
	}

	id, err := wc.service.Ingest(r.Context(), req)
	if err != nil {
		wc.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: id, Message: "Work diary entry created"})
}

// All handles GET /workdiary/all.
func (wc *WorkDiaryController) All(w http.ResponseWriter, r *http.Request) {
	wc.serveFromCacheOrCompute(w, r, "all", func() (any, error) {
		return wc.service.List(r.Context(), models.EntryFilter{Order: models.OrderDesc})
	})
}

// ByUserDate handles GET /workdiary?userID=&date= and the from/to variant.
func (wc *WorkDiaryController) ByUserDate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := q.Get("userID")
	date := q.Get("date")
	from, to := q.Get("from"), q.Get("to")

	var missing []string
	if userID == "" {
		missing = append(missing, "userID")
	}
	if date == "" && from == "" && to == "" {
		missing = append(missing, "date")
	}
	if len(missing) > 0 {
		wc.writeError(w, r, &models.MissingFieldError{Fields: missing})
		return
	}

	var (
		filter models.EntryFilter
		err    error
	)
	if date != "" {
		filter, err = services.DayFilter(userID, date)
	} else {
		filter, err = services.RangeFilter(userID, from, to)
	}
	if err != nil {
		wc.writeError(w, r, err)
		return
	}

	key := "user:" + userID + ":" + filter.From + ":" + filter.To
	wc.serveFromCacheOrCompute(w, r, key, func() (any, error) {
		return wc.service.List(r.Context(), filter)
	})
}

// Delete handles DELETE /workdiary?id=.
func (wc *WorkDiaryController) Delete(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("id")
	if raw == "" {
		wc.writeError(w, r, &models.MissingFieldError{Fields: []string{"id"}})
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		wc.writeError(w, r, &models.InvalidFieldError{Field: "id", Reason: "expected a positive integer"})
		return
	}

	if err := wc.service.SoftDelete(r.Context(), id); err != nil {
		wc.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, createdResponse{ID: id, Message: "Work diary entry deleted"})
}

func (wc *WorkDiaryController) Ping(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok", Message: "WorkDiary routes are working"})
}

func (wc *WorkDiaryController) Test(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok", Message: "API is working"})
}

type imageURLSample struct {
	ID                    int64   `json:"id"`
	ImageURL              *string `json:"imageURL"`
	ThumbNailURL          *string `json:"thumbNailURL"`
	FormattedImageURL     *string `json:"formattedImageURL"`
	FormattedThumbNailURL *string `json:"formattedThumbNailURL"`
}

// TestImageURL shows how the newest entry's image paths resolve to public URLs.
func (wc *WorkDiaryController) TestImageURL(w http.ResponseWriter, r *http.Request) {
	views, err := wc.service.List(r.Context(), models.EntryFilter{Order: models.OrderDesc, Limit: 1})
	if err != nil {
		wc.writeError(w, r, err)
		return
	}
	if len(views) == 0 {
		writeJSON(w, http.StatusOK, errorResponse{Error: "No screenshots found"})
		return
	}

	v := views[0]
	writeJSON(w, http.StatusOK, imageURLSample{
		ID:                    v.ID,
		ImageURL:              v.ImageURL.Ptr(),
		ThumbNailURL:          v.ThumbNailURL.Ptr(),
		FormattedImageURL:     v.Screenshot.Ptr(),
		FormattedThumbNailURL: v.Thumbnail.Ptr(),
	})
}
