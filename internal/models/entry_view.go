package models

import (
	"time"

	json "github.com/goccy/go-json"
	"gopkg.in/guregu/null.v3"
)

// EntryView is the client-facing shape of a WorkDiaryEntry.
type EntryView struct {
	ID                  int64           `json:"id"`
	ProjectID           string          `json:"projectID"`
	UserID              string          `json:"userID"`
	TaskID              string          `json:"taskID"`
	ScreenshotTimeStamp string          `json:"screenshotTimeStamp"`
	CalcTimeStamp       string          `json:"calcTimeStamp"`
	Timestamp           string          `json:"timestamp"`
	Screenshot          null.String     `json:"screenshot"`
	Thumbnail           null.String     `json:"thumbnail"`
	ActiveMemo          string          `json:"activeMemo"`
	ActiveFlag          null.Bool       `json:"activeFlag"`
	ActiveMins          int             `json:"activeMins"`
	ActiveJSON          json.RawMessage `json:"activeJSON"`
	MouseJSON           json.RawMessage `json:"mouseJSON"`
	KeyboardJSON        json.RawMessage `json:"keyboardJSON"`
	MouseClicks         int64           `json:"mouseClicks"`
	KeyboardClicks      int64           `json:"keyboardClicks"`
	DeletedFlag         int             `json:"deletedFlag"`
	ImageURL            null.String     `json:"imageURL"`
	ThumbNailURL        null.String     `json:"thumbNailURL"`
	CreatedAt           time.Time       `json:"createdAt"`
	ModifiedAt          time.Time       `json:"modifiedAt"`
}
