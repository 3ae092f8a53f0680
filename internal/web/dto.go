package web

import (
	"time"

	"potterylog/internal/domain"
)

// itemPayload is the request body for creating and updating items. Field names
// match the mobile client's JSON contract.
type itemPayload struct {
	Name            string               `json:"name"`
	ClayType        string               `json:"clayType"`
	Glaze           string               `json:"glaze"`
	Location        string               `json:"location"`
	Note            string               `json:"note"`
	CurrentStatus   string               `json:"currentStatus"`
	CreatedDateTime time.Time            `json:"createdDateTime"`
	Measurements    *domain.Measurements `json:"measurements"`
}

// validate returns a human-readable problem description, or "" when the
// payload is acceptable.
func (p *itemPayload) validate() string {
	switch {
	case p.Name == "":
		return "Field 'name' is required."
	case p.ClayType == "":
		return "Field 'clayType' is required."
	case p.Location == "":
		return "Field 'location' is required."
	case p.CreatedDateTime.IsZero():
		return "Field 'createdDateTime' is required."
	case p.CurrentStatus != "" && !domain.ValidStage(p.CurrentStatus):
		return "Field 'currentStatus' must be one of greenware, bisque, final."
	}
	return ""
}

func (p *itemPayload) toDomain() *domain.Item {
	return &domain.Item{
		Name:            p.Name,
		ClayType:        p.ClayType,
		Glaze:           p.Glaze,
		Location:        p.Location,
		Note:            p.Note,
		CurrentStatus:   p.CurrentStatus,
		CreatedDateTime: p.CreatedDateTime,
		Measurements:    p.Measurements,
	}
}

type photoResponse struct {
	ID         string    `json:"id"`
	Stage      string    `json:"stage"`
	ImageNote  string    `json:"imageNote"`
	FileName   string    `json:"fileName"`
	SignedURL  string    `json:"signedUrl"`
	IsPrimary  bool      `json:"isPrimary"`
	UploadedAt time.Time `json:"uploadedAt"`
}

type itemResponse struct {
	ID              string               `json:"id"`
	UserID          string               `json:"user_id"`
	Name            string               `json:"name"`
	ClayType        string               `json:"clayType"`
	Glaze           string               `json:"glaze"`
	Location        string               `json:"location"`
	Note            string               `json:"note"`
	CurrentStatus   string               `json:"currentStatus"`
	CreatedDateTime time.Time            `json:"createdDateTime"`
	Measurements    *domain.Measurements `json:"measurements"`
	Photos          []photoResponse      `json:"photos"`
}

// newPhotoResponse decorates a photo with a fresh signed URL. URLs are
// regenerated on every response so clients always hold an unexpired link.
func (s *Server) newPhotoResponse(photo *domain.Photo) photoResponse {
	return photoResponse{
		ID:         photo.ID,
		Stage:      photo.Stage,
		ImageNote:  photo.ImageNote,
		FileName:   photo.FileName,
		SignedURL:  s.signer.Sign(photo.StorageKey),
		IsPrimary:  photo.IsPrimary,
		UploadedAt: photo.UploadedAt,
	}
}

func (s *Server) newItemResponse(item *domain.Item) itemResponse {
	photos := make([]photoResponse, 0, len(item.Photos))
	for _, photo := range item.Photos {
		photos = append(photos, s.newPhotoResponse(photo))
	}
	return itemResponse{
		ID:              item.ID,
		UserID:          item.UserID,
		Name:            item.Name,
		ClayType:        item.ClayType,
		Glaze:           item.Glaze,
		Location:        item.Location,
		Note:            item.Note,
		CurrentStatus:   item.CurrentStatus,
		CreatedDateTime: item.CreatedDateTime,
		Measurements:    item.Measurements,
		Photos:          photos,
	}
}
