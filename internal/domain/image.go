package domain

import "context"

// ImageUpload is the raw image file received with a create-event request.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ImageUploader stores an event image and returns its public URL
// (infrastructure port). Implementations talk to an image hosting vendor; a
// noop implementation returns a placeholder URL for local development.
type ImageUploader interface {
	Upload(ctx context.Context, eventID string, image ImageUpload) (url string, err error)
}
