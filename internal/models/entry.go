package models

import (
	"time"

	"gopkg.in/guregu/null.v3"
)

// TimestampLayout is the canonical storage form of event timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

// DateLayout is the calendar-day form used in query filters and image partitions.
const DateLayout = "2006-01-02"

// WorkDiaryEntry is one stored activity snapshot.
type WorkDiaryEntry struct {
	ID                  int64       `json:"id"`
	ProjectID           string      `json:"projectID"`
	UserID              string      `json:"userID"`
	TaskID              string      `json:"taskID"`
	ScreenshotTimeStamp string      `json:"screenshotTimeStamp"`
	CalcTimeStamp       string      `json:"calcTimeStamp"`
	KeyboardJSON        string      `json:"keyboardJSON"`
	MouseJSON           string      `json:"mouseJSON"`
	ActiveJSON          string      `json:"activeJSON"`
	ActiveFlag          null.Bool   `json:"activeFlag"`
	ActiveMins          int         `json:"activeMins"`
	DeletedFlag         int         `json:"deletedFlag"`
	ActiveMemo          string      `json:"activeMemo"`
	ImageURL            null.String `json:"imageURL"`
	ThumbNailURL        null.String `json:"thumbNailURL"`
	CreatedAt           time.Time   `json:"createdAt"`
	ModifiedAt          time.Time   `json:"modifiedAt"`
}

type SortOrder int

const (
	OrderDesc SortOrder = iota
	OrderAsc
)

// EntryFilter narrows a listing. Zero values mean "no restriction";
// soft-deleted rows are always excluded.
type EntryFilter struct {
	UserID string
	From   string // inclusive, TimestampLayout
	To     string // exclusive, TimestampLayout
	Order  SortOrder
	Limit  int
}
