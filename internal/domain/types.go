package domain

import "time"

// Pottery production stages. Photos are tagged with the stage they were taken
// at, and an item's currentStatus tracks its furthest stage.
const (
	StageGreenware = "greenware"
	StageBisque    = "bisque"
	StageFinal     = "final"
)

// ValidStage reports whether s is one of the known production stages.
func ValidStage(s string) bool {
	return s == StageGreenware || s == StageBisque || s == StageFinal
}

// MeasurementDetail is one set of dimensions, in centimeters.
type MeasurementDetail struct {
	Height *float64 `json:"height,omitempty"`
	Width  *float64 `json:"width,omitempty"`
	Depth  *float64 `json:"depth,omitempty"`
}

// Measurements records dimensions at each production stage. Clay shrinks as it
// dries and fires, so the same piece is measured more than once.
type Measurements struct {
	Greenware *MeasurementDetail `json:"greenware,omitempty"`
	Bisque    *MeasurementDetail `json:"bisque,omitempty"`
	Final     *MeasurementDetail `json:"final,omitempty"`
}

type Item struct {
	ID              string
	UserID          string
	Name            string
	ClayType        string
	Glaze           string
	Location        string
	Note            string
	CurrentStatus   string
	CreatedDateTime time.Time
	Measurements    *Measurements
	Photos          []*Photo
}

type Photo struct {
	ID         string
	ItemID     string
	StorageKey string
	Stage      string
	ImageNote  string
	FileName   string
	MimeType   string
	IsPrimary  bool
	UploadedAt time.Time
}

type User struct {
	ID             string
	Username       string
	Email          string
	FullName       string
	HashedPassword string
	Disabled       bool
	CreatedAt      time.Time
}
