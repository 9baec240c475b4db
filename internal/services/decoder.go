package services

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
	"workdiary/internal/models"

	json "github.com/goccy/go-json"
	"gopkg.in/guregu/null.v3"
)

// ImageSource tells which supply mode filled an image slot.
type ImageSource uint8

const (
	SourceNone ImageSource = iota
	SourceUpload
	SourceInline
	SourceRemote
)

func (s ImageSource) String() string {
	switch s {
	case SourceUpload:
		return "upload"
	case SourceInline:
		return "inline"
	case SourceRemote:
		return "remote"
	default:
		return "none"
	}
}

// ImageInput collects every way a client supplied one image.
// An uploaded part wins over Ref; Ref is either a data URL or a remote URL.
type ImageInput struct {
	Uploaded bool
	Upload   []byte
	Ref      string
}

func (in ImageInput) Source() ImageSource {
	switch {
	case in.Uploaded:
		return SourceUpload
	case strings.HasPrefix(in.Ref, "data:"):
		return SourceInline
	case in.Ref != "":
		return SourceRemote
	default:
		return SourceNone
	}
}

// IngestRequest is a decoded POST /workdiary body.
type IngestRequest struct {
	ProjectID           string
	UserID              string
	TaskID              string
	ScreenshotTimeStamp string
	CalcTimeStamp       string

	// Telemetry values as received; the service canonicalizes them.
	KeyboardJSON any
	MouseJSON    any
	ActiveJSON   any

	// Bare click counters, used only when the matching JSON blob is absent.
	MouseClicks    *int64
	KeyboardClicks *int64

	ActiveFlag null.Bool
	ActiveMins int
	ActiveMemo string

	// DeletedFlag is 0 or 1; 1 stores the entry hidden from every listing.
	DeletedFlag int

	Screenshot ImageInput
	Thumbnail  ImageInput
}

// RequestDecoder turns one HTTP request into an IngestRequest. A decoder is
// built per request and holds no state beyond it.
type RequestDecoder struct {
	r             *http.Request
	maxMemory     int64
	maxImageBytes int64
}

func NewRequestDecoder(r *http.Request, maxMemory, maxImageBytes int64) *RequestDecoder {
	if maxMemory <= 0 {
		maxMemory = 32 << 20
	}
	return &RequestDecoder{r: r, maxMemory: maxMemory, maxImageBytes: maxImageBytes}
}

// Decode reads the body according to its content type. Missing fields are not
// reported here; that is left to the service so all three encodings agree.
func (d *RequestDecoder) Decode() (*IngestRequest, error) {
	mediaType, _, err := mime.ParseMediaType(d.r.Header.Get("Content-Type"))
	if err != nil {
		mediaType = ""
	}

	var (
		fields map[string]any
		files  map[string][]*multipart.FileHeader
	)
	switch mediaType {
	case "application/json":
		fields, err = d.decodeJSON()
	case "multipart/form-data":
		fields, files, err = d.decodeMultipart()
	default:
		fields, err = d.decodeForm()
	}
	if err != nil {
		return nil, err
	}

	req, err := buildRequest(fields)
	if err != nil {
		return nil, err
	}

	if req.Screenshot.Upload, req.Screenshot.Uploaded, err = d.readUpload(files, "screenshot"); err != nil {
		return nil, err
	}
	if req.Thumbnail.Upload, req.Thumbnail.Uploaded, err = d.readUpload(files, "thumbnail"); err != nil {
		return nil, err
	}
	return req, nil
}

func (d *RequestDecoder) decodeJSON() (map[string]any, error) {
	body, err := io.ReadAll(d.r.Body)
	if err != nil {
		return nil, bodyError(err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return map[string]any{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	fields := map[string]any{}
	if err := dec.Decode(&fields); err != nil {
		return nil, &models.InvalidFieldError{Field: "body", Reason: "malformed JSON object"}
	}
	return fields, nil
}

func (d *RequestDecoder) decodeMultipart() (map[string]any, map[string][]*multipart.FileHeader, error) {
	if err := d.r.ParseMultipartForm(d.maxMemory); err != nil {
		return nil, nil, bodyError(err)
	}
	form := d.r.MultipartForm
	return flatten(form.Value), form.File, nil
}

func (d *RequestDecoder) decodeForm() (map[string]any, error) {
	if err := d.r.ParseForm(); err != nil {
		return nil, bodyError(err)
	}
	return flatten(d.r.PostForm), nil
}

func (d *RequestDecoder) readUpload(files map[string][]*multipart.FileHeader, name string) ([]byte, bool, error) {
	headers := files[name]
	if len(headers) == 0 {
		return nil, false, nil
	}
	f, err := headers[0].Open()
	if err != nil {
		return nil, false, fmt.Errorf("open uploaded %s: %w", name, err)
	}
	defer f.Close()

	var src io.Reader = f
	if d.maxImageBytes > 0 {
		// One extra byte lets the persister report the real overflow.
		src = io.LimitReader(f, d.maxImageBytes+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, false, fmt.Errorf("read uploaded %s: %w", name, err)
	}
	return data, true, nil
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &models.InvalidFieldError{
			Field:  "body",
			Reason: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
		}
	}
	return &models.InvalidFieldError{Field: "body", Reason: err.Error()}
}

func flatten(values map[string][]string) map[string]any {
	fields := make(map[string]any, len(values))
	for k, v := range values {
		if len(v) > 0 {
			fields[k] = v[0]
		}
	}
	return fields
}

func buildRequest(fields map[string]any) (*IngestRequest, error) {
	req := &IngestRequest{
		ProjectID:           text(fields["projectID"]),
		UserID:              text(fields["userID"]),
		TaskID:              text(fields["taskID"]),
		ScreenshotTimeStamp: text(fields["screenshotTimeStamp"]),
		CalcTimeStamp:       text(fields["calcTimeStamp"]),
		KeyboardJSON:        fields["keyboardJSON"],
		MouseJSON:           fields["mouseJSON"],
		ActiveJSON:          fields["activeJSON"],
		MouseClicks:         counter(fields, "mouseClicks"),
		KeyboardClicks:      counter(fields, "keyboardClicks"),
		ActiveMemo:          text(fields["activeMemo"]),
	}

	var err error
	if req.ActiveFlag, err = flag(fields["activeFlag"]); err != nil {
		return nil, err
	}
	if req.ActiveMins, err = minutes(fields["activeMins"]); err != nil {
		return nil, err
	}
	if req.DeletedFlag, err = deletedFlag(fields["deletedFlag"]); err != nil {
		return nil, err
	}

	req.Screenshot.Ref = imageRef(fields, "imageURL", "screenshot")
	req.Thumbnail.Ref = imageRef(fields, "thumbNailURL", "thumbnail")
	return req, nil
}

// imageRef picks an inline data URL from either field first, then the URL
// field, then the string alias.
func imageRef(fields map[string]any, key, alias string) string {
	ref := text(fields[key])
	var aliasRef string
	if s, ok := fields[alias].(string); ok {
		aliasRef = strings.TrimSpace(s)
	}
	switch {
	case strings.HasPrefix(ref, "data:"):
		return ref
	case strings.HasPrefix(aliasRef, "data:"):
		return aliasRef
	case ref != "":
		return ref
	default:
		return aliasRef
	}
}

func text(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

func counter(fields map[string]any, key string) *int64 {
	v, ok := fields[key]
	if !ok {
		return nil
	}
	var n int64
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			n = i
		} else if f, err := val.Float64(); err == nil {
			n = int64(f)
		}
	case string:
		n, _ = strconv.ParseInt(strings.TrimSpace(val), 10, 64)
	}
	if n < 0 {
		n = 0
	}
	return &n
}

func flag(v any) (null.Bool, error) {
	switch val := v.(type) {
	case nil:
		return null.Bool{}, nil
	case bool:
		return null.BoolFrom(val), nil
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return null.Bool{}, &models.InvalidFieldError{Field: "activeFlag", Reason: "not a boolean"}
		}
		return null.BoolFrom(f != 0), nil
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "":
			return null.Bool{}, nil
		case "1", "true", "yes", "on":
			return null.BoolFrom(true), nil
		case "0", "false", "no", "off":
			return null.BoolFrom(false), nil
		}
	}
	return null.Bool{}, &models.InvalidFieldError{Field: "activeFlag", Reason: "not a boolean"}
}

// deletedFlag accepts only 0 and 1 (or false and true); absent means 0.
func deletedFlag(v any) (int, error) {
	invalid := &models.InvalidFieldError{Field: "deletedFlag", Reason: "must be 0 or 1"}
	switch val := v.(type) {
	case nil:
		return 0, nil
	case bool:
		if val {
			return 1, nil
		}
		return 0, nil
	case json.Number:
		switch val.String() {
		case "0":
			return 0, nil
		case "1":
			return 1, nil
		}
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "", "0", "false":
			return 0, nil
		case "1", "true":
			return 1, nil
		}
	}
	return 0, invalid
}

func minutes(v any) (int, error) {
	var n int64
	switch val := v.(type) {
	case nil:
		return 0, nil
	case json.Number:
		i, err := val.Int64()
		if err != nil {
			f, ferr := val.Float64()
			if ferr != nil || f != float64(int64(f)) {
				return 0, &models.InvalidFieldError{Field: "activeMins", Reason: "not an integer"}
			}
			i = int64(f)
		}
		n = i
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0, nil
		}
		i, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return 0, &models.InvalidFieldError{Field: "activeMins", Reason: "not an integer"}
		}
		n = i
	default:
		return 0, &models.InvalidFieldError{Field: "activeMins", Reason: "not an integer"}
	}
	if n < 0 {
		return 0, &models.InvalidFieldError{Field: "activeMins", Reason: "must not be negative"}
	}
	return int(n), nil
}

var timestampLayouts = []string{
	models.TimestampLayout,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// NormalizeTimestamp reduces an agent timestamp to TimestampLayout. The wall
// clock reading is kept as sent; zone and sub-second parts are dropped.
func NormalizeTimestamp(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(models.TimestampLayout), nil
		}
	}
	return "", fmt.Errorf("unrecognized timestamp %q", s)
}
