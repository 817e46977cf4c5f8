package video

import (
	"context"
	"fmt"

	"logoanimator/internal/providers/genai"
)

type GeminiAnimator struct {
	client genai.Service
}

func NewGeminiAnimator(client genai.Service) *GeminiAnimator {
	return &GeminiAnimator{client: client}
}

func (g *GeminiAnimator) Submit(ctx context.Context, req SubmitRequest) (*Operation, error) {
	prompt := req.Prompt
	if prompt == "" {
		prompt = AnimationInstruction
	}
	op, err := g.client.GenerateVideos(ctx, genai.VideoRequest{
		Prompt:        prompt,
		Image:         req.Image,
		ImageMIMEType: req.MIMEType,
		AspectRatio:   req.AspectRatio,
		Quantity:      req.Count,
		RequestID:     req.RequestID,
	})
	if err != nil {
		return nil, err
	}
	return fromGenai(op), nil
}

func (g *GeminiAnimator) Refresh(ctx context.Context, op *Operation) (*Operation, error) {
	if op == nil {
		return nil, fmt.Errorf("video: operation is required")
	}
	refreshed, err := g.client.GetVideosOperation(ctx, &genai.VideoOperation{Name: op.Name, Done: op.Done})
	if err != nil {
		return nil, err
	}
	return fromGenai(refreshed), nil
}

func (g *GeminiAnimator) Fetch(ctx context.Context, v Video) (*Asset, error) {
	if len(v.Data) > 0 {
		format := v.MIMEType
		if format == "" {
			format = "video/mp4"
		}
		return &Asset{Format: format, Data: v.Data}, nil
	}
	if v.URI == "" {
		return nil, fmt.Errorf("video: produced clip has no uri")
	}
	asset, err := g.client.DownloadVideo(ctx, v.URI)
	if err != nil {
		return nil, err
	}
	return &Asset{Format: asset.Format, Data: asset.Data}, nil
}

func fromGenai(op *genai.VideoOperation) *Operation {
	if op == nil {
		return &Operation{}
	}
	out := &Operation{Name: op.Name, Done: op.Done, Err: op.Error}
	for _, v := range op.Videos {
		out.Videos = append(out.Videos, Video{URI: v.URI, MIMEType: v.MIMEType, Data: v.Data})
	}
	return out
}

var _ Animator = (*GeminiAnimator)(nil)
