package services

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"workdiary/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v3"
)

func decode(t *testing.T, r *http.Request) (*IngestRequest, error) {
	t.Helper()
	return NewRequestDecoder(r, 1<<20, 1024).Decode()
}

func TestDecode_JSON(t *testing.T) {
	body := `{
		"projectID": 7,
		"userID": "u1",
		"taskID": "t1",
		"screenshotTimeStamp": "2024-03-01T10:00:00Z",
		"calcTimeStamp": "2024-03-01 10:00:00",
		"mouseJSON": {"clicks": 3},
		"keyboardJSON": "{\"clicks\":5}",
		"activeFlag": true,
		"activeMins": 12,
		"activeMemo": "writing",
		"imageURL": "data:image/png;base64,AAAA",
		"thumbnail": "https://cdn.example.com/t.png"
	}`
	r := httptest.NewRequest(http.MethodPost, "/workdiary", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json; charset=utf-8")

	req, err := decode(t, r)
	require.NoError(t, err)

	assert.Equal(t, "7", req.ProjectID)
	assert.Equal(t, "u1", req.UserID)
	assert.Equal(t, "2024-03-01T10:00:00Z", req.ScreenshotTimeStamp)
	assert.IsType(t, map[string]any{}, req.MouseJSON)
	assert.Equal(t, `{"clicks":5}`, req.KeyboardJSON)
	assert.Nil(t, req.ActiveJSON)
	assert.Equal(t, null.BoolFrom(true), req.ActiveFlag)
	assert.Equal(t, 12, req.ActiveMins)
	assert.Equal(t, "writing", req.ActiveMemo)
	assert.Equal(t, SourceInline, req.Screenshot.Source())
	assert.Equal(t, SourceRemote, req.Thumbnail.Source())
	assert.Equal(t, "https://cdn.example.com/t.png", req.Thumbnail.Ref)
}

func TestDecode_JSONMalformed(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/workdiary", strings.NewReader(`{"projectID":`))
	r.Header.Set("Content-Type", "application/json")

	_, err := decode(t, r)
	var invalid *models.InvalidFieldError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "body", invalid.Field)
}

func TestDecode_JSONEmptyBody(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/workdiary", strings.NewReader(""))
	r.Header.Set("Content-Type", "application/json")

	req, err := decode(t, r)
	require.NoError(t, err)
	assert.Empty(t, req.ProjectID)
	assert.Equal(t, SourceNone, req.Screenshot.Source())
}

func TestDecode_URLEncoded(t *testing.T) {
	form := url.Values{
		"projectID":           {"p1"},
		"userID":              {"u1"},
		"taskID":              {"t1"},
		"screenshotTimeStamp": {"2024-03-01 10:00:00"},
		"calcTimeStamp":       {"2024-03-01 10:00:00"},
		"mouseClicks":         {"17"},
		"keyboardClicks":      {"abc"},
		"activeFlag":          {"0"},
		"activeMins":          {""},
		"thumbNailURL":        {"https://drive.google.com/file/d/abc123/view"},
	}
	r := httptest.NewRequest(http.MethodPost, "/workdiary", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	req, err := decode(t, r)
	require.NoError(t, err)

	require.NotNil(t, req.MouseClicks)
	assert.Equal(t, int64(17), *req.MouseClicks)
	require.NotNil(t, req.KeyboardClicks)
	assert.Zero(t, *req.KeyboardClicks)
	assert.Nil(t, req.MouseJSON)
	assert.Equal(t, null.BoolFrom(false), req.ActiveFlag)
	assert.Zero(t, req.ActiveMins)
	assert.Equal(t, SourceNone, req.Screenshot.Source())
	assert.Equal(t, SourceRemote, req.Thumbnail.Source())
}

func TestDecode_Multipart(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("projectID", "p1"))
	require.NoError(t, mw.WriteField("userID", "u1"))
	require.NoError(t, mw.WriteField("taskID", "t1"))
	require.NoError(t, mw.WriteField("screenshotTimeStamp", "2024-03-01 10:00:00"))
	require.NoError(t, mw.WriteField("calcTimeStamp", "2024-03-01 10:00:00"))
	require.NoError(t, mw.WriteField("imageURL", "https://cdn.example.com/ignored.png"))
	require.NoError(t, mw.WriteField("thumbNailURL", "data:image/png;base64,AAAA"))
	part, err := mw.CreateFormFile("screenshot", "shot.png")
	require.NoError(t, err)
	_, err = part.Write(pngBytes)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/workdiary", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())

	req, err := decode(t, r)
	require.NoError(t, err)

	assert.Equal(t, "p1", req.ProjectID)
	assert.Equal(t, SourceUpload, req.Screenshot.Source())
	assert.Equal(t, pngBytes, req.Screenshot.Upload)
	assert.Equal(t, SourceInline, req.Thumbnail.Source())
}

func TestDecode_MultipartUploadIsBounded(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("thumbnail", "big.png")
	require.NoError(t, err)
	_, err = part.Write(make([]byte, 4096))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/workdiary", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())

	req, err := decode(t, r)
	require.NoError(t, err)
	assert.Len(t, req.Thumbnail.Upload, 1025)
}

func TestDecode_InvalidFlexibleFields(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"flag word", `{"activeFlag":"maybe"}`, "activeFlag"},
		{"flag object", `{"activeFlag":{}}`, "activeFlag"},
		{"negative minutes", `{"activeMins":-3}`, "activeMins"},
		{"fractional minutes", `{"activeMins":2.5}`, "activeMins"},
		{"text minutes", `{"activeMins":"ten"}`, "activeMins"},
		{"deleted two", `{"deletedFlag":2}`, "deletedFlag"},
		{"deleted negative", `{"deletedFlag":-1}`, "deletedFlag"},
		{"deleted fraction", `{"deletedFlag":0.5}`, "deletedFlag"},
		{"deleted word", `{"deletedFlag":"yes"}`, "deletedFlag"},
		{"deleted object", `{"deletedFlag":{}}`, "deletedFlag"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/workdiary", strings.NewReader(tt.body))
			r.Header.Set("Content-Type", "application/json")

			_, err := decode(t, r)
			var invalid *models.InvalidFieldError
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, tt.field, invalid.Field)
		})
	}
}

func TestDecode_DeletedFlag(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"absent", `{}`, 0},
		{"null", `{"deletedFlag":null}`, 0},
		{"zero", `{"deletedFlag":0}`, 0},
		{"one", `{"deletedFlag":1}`, 1},
		{"true", `{"deletedFlag":true}`, 1},
		{"text one", `{"deletedFlag":"1"}`, 1},
		{"text false", `{"deletedFlag":"false"}`, 0},
		{"empty text", `{"deletedFlag":""}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/workdiary", strings.NewReader(tt.body))
			r.Header.Set("Content-Type", "application/json")

			req, err := decode(t, r)
			require.NoError(t, err)
			assert.Equal(t, tt.want, req.DeletedFlag)
		})
	}

	form := url.Values{"deletedFlag": {"1"}}
	r := httptest.NewRequest(http.MethodPost, "/workdiary", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req, err := decode(t, r)
	require.NoError(t, err)
	assert.Equal(t, 1, req.DeletedFlag)
}

func TestDecode_InlineImageWinsOverRemoteURL(t *testing.T) {
	body := `{
		"imageURL": "https://cdn.example.com/a.png",
		"screenshot": "data:image/png;base64,AAAA",
		"thumbNailURL": "https://cdn.example.com/t.png",
		"thumbnail": "https://cdn.example.com/other.png"
	}`
	r := httptest.NewRequest(http.MethodPost, "/workdiary", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")

	req, err := decode(t, r)
	require.NoError(t, err)
	assert.Equal(t, SourceInline, req.Screenshot.Source())
	assert.Equal(t, "data:image/png;base64,AAAA", req.Screenshot.Ref)
	// Two remote references keep the URL field.
	assert.Equal(t, "https://cdn.example.com/t.png", req.Thumbnail.Ref)
}

func TestDecode_BodyTooLarge(t *testing.T) {
	rr := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/workdiary", strings.NewReader(`{"projectID":"`+strings.Repeat("x", 100)+`"}`))
	r.Header.Set("Content-Type", "application/json")
	r.Body = http.MaxBytesReader(rr, r.Body, 10)

	_, err := decode(t, r)
	var invalid *models.InvalidFieldError
	require.True(t, errors.As(err, &invalid))
	assert.Contains(t, invalid.Reason, "exceeds 10 bytes")
}

func TestImageSourceString(t *testing.T) {
	assert.Equal(t, "upload", SourceUpload.String())
	assert.Equal(t, "inline", SourceInline.String())
	assert.Equal(t, "remote", SourceRemote.String())
	assert.Equal(t, "none", SourceNone.String())
}
