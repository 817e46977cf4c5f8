package studio

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"logoanimator/internal/domain"
)

// Status is the user-visible state of a session.
type Status string

const (
	StatusIdle            Status = "idle"
	StatusGeneratingLogo  Status = "generatingLogo"
	StatusGeneratingVideo Status = "generatingVideo"
	StatusFinished        Status = "finished"
	StatusError           Status = "error"
	StatusTimedOut        Status = "timedOut"
)

// Busy reports whether a job is running for the status.
func (s Status) Busy() bool {
	return s == StatusGeneratingLogo || s == StatusGeneratingVideo
}

// Tab selects which image feeds the animation step.
type Tab string

const (
	TabGenerate Tab = "generate"
	TabUpload   Tab = "upload"
)

// ParseTab validates a tab name.
func ParseTab(raw string) (Tab, error) {
	switch Tab(strings.ToLower(strings.TrimSpace(raw))) {
	case TabGenerate:
		return TabGenerate, nil
	case TabUpload:
		return TabUpload, nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidTab, raw)
	}
}

// AspectRatio of the produced video.
type AspectRatio string

const (
	AspectWide AspectRatio = "16:9"
	AspectTall AspectRatio = "9:16"
)

// ParseAspectRatio accepts the ratio itself or the names wide and tall.
func ParseAspectRatio(raw string) (AspectRatio, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "16:9", "wide":
		return AspectWide, nil
	case "9:16", "tall":
		return AspectTall, nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidAspectRatio, raw)
	}
}

// Video is the handle of a fetched clip held in the media store. It stays
// valid until the session releases it.
type Video struct {
	Key      string `json:"-"`
	MIMEType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

// Session is a snapshot of everything a client renders. Values are copied out
// of the Store and never shared.
type Session struct {
	ID             string      `json:"id"`
	Status         Status      `json:"status"`
	Error          string      `json:"error,omitempty"`
	ActiveTab      Tab         `json:"active_tab"`
	Prompt         string      `json:"prompt"`
	UploadedImage  string      `json:"uploaded_image,omitempty"`
	GeneratedImage string      `json:"generated_image,omitempty"`
	GeneratedVideo *Video      `json:"generated_video,omitempty"`
	Progress       string      `json:"progress,omitempty"`
	AspectRatio    AspectRatio `json:"aspect_ratio"`
	Locale         string      `json:"locale"`
	Version        uint64      `json:"version"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// ActiveImage returns the data URL the animation step would use: the
// generated image on the generate tab, the uploaded one otherwise.
func (s Session) ActiveImage() string {
	if s.ActiveTab == TabGenerate {
		return s.GeneratedImage
	}
	return s.UploadedImage
}

func newSession(id, locale string, aspect AspectRatio) Session {
	return Session{
		ID:          id,
		Status:      StatusIdle,
		ActiveTab:   TabGenerate,
		AspectRatio: aspect,
		Locale:      domain.NormalizeLocale(locale),
	}
}

// EncodeDataURL renders bytes as a base64 data URL.
func EncodeDataURL(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL parses a base64 data URL produced by EncodeDataURL.
func DecodeDataURL(raw string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(raw, "data:")
	if !ok {
		return "", nil, fmt.Errorf("studio: not a data url")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("studio: malformed data url")
	}
	mimeType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, fmt.Errorf("studio: data url is not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("studio: decode data url: %w", err)
	}
	return mimeType, data, nil
}
