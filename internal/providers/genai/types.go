package genai

import (
	"context"
	"net/http"

	"logoanimator/internal/infra"
)

// Service is the contract every generative backend implements. Images are
// produced synchronously; videos through a long-running operation that must
// be refreshed until it reports Done.
type Service interface {
	Name() string
	GenerateImages(ctx context.Context, req ImageRequest) ([]ImageAsset, error)
	GenerateVideos(ctx context.Context, req VideoRequest) (*VideoOperation, error)
	GetVideosOperation(ctx context.Context, op *VideoOperation) (*VideoOperation, error)
	DownloadVideo(ctx context.Context, uri string) (*VideoAsset, error)
}

// Options controls how a backend client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	ImageModel string
	VideoModel string
	HTTPClient *http.Client
	Logger     *infra.Logger
	// SyntheticPolls is the number of refreshes a synthetic operation needs
	// before it reports Done.
	SyntheticPolls int
}

// ImageRequest represents the information required to generate images.
type ImageRequest struct {
	Prompt      string
	Quantity    int
	AspectRatio string
	MIMEType    string
	RequestID   string
}

// ImageAsset is the normalized representation of a generated image.
type ImageAsset struct {
	Format string
	Width  int
	Height int
	Data   []byte
}

// VideoRequest represents the information required to start a video job.
type VideoRequest struct {
	Prompt        string
	Image         []byte
	ImageMIMEType string
	AspectRatio   string
	Quantity      int
	RequestID     string
}

// VideoOperation is the opaque handle of a long-running video job.
type VideoOperation struct {
	Name   string
	Done   bool
	Videos []GeneratedVideo
	// Error carries the backend's failure message once Done is true.
	Error string
}

// GeneratedVideo references one produced video. Data is set when the backend
// returns the bytes inline instead of a URI.
type GeneratedVideo struct {
	URI      string
	MIMEType string
	Data     []byte
}

// VideoAsset is the downloaded video.
type VideoAsset struct {
	Format string
	Data   []byte
}

const (
	defaultBaseURL    = "https://generativelanguage.googleapis.com/v1beta"
	defaultImageModel = "imagen-3.0-generate-002"
	defaultVideoModel = "veo-2.0-generate-001"
)
