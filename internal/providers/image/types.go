package image

import (
	"context"
)

// GenerateRequest describes a normalized request passed to any image provider.
type GenerateRequest struct {
	Prompt      string
	Quantity    int
	AspectRatio string
	MIMEType    string
	RequestID   string
}

// Asset represents a generated image.
type Asset struct {
	Format string
	Width  int
	Height int
	Data   []byte
}

// Generator is the contract implemented by all image providers.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) ([]Asset, error)
}
