package genai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	gsdk "google.golang.org/genai"

	"logoanimator/internal/infra"
)

// SDKClient implements Service on top of the official Go SDK. Video bytes are
// still fetched with a plain GET so both clients share the same download path.
type SDKClient struct {
	client     *gsdk.Client
	apiKey     string
	imageModel string
	videoModel string
	httpClient *http.Client
	logger     *infra.Logger
}

// NewSDKClient constructs the SDK-backed client for the Gemini API.
func NewSDKClient(ctx context.Context, opts Options) (*SDKClient, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("genai: api key is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	client, err := gsdk.NewClient(ctx, &gsdk.ClientConfig{
		APIKey:     apiKey,
		Backend:    gsdk.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("genai: create sdk client: %w", err)
	}
	return &SDKClient{
		client:     client,
		apiKey:     apiKey,
		imageModel: firstNonEmpty(opts.ImageModel, defaultImageModel),
		videoModel: firstNonEmpty(opts.VideoModel, defaultVideoModel),
		httpClient: httpClient,
		logger:     loggerOrDiscard(opts.Logger),
	}, nil
}

// Name identifies the backend in logs and job records.
func (c *SDKClient) Name() string {
	return "sdk"
}

func (c *SDKClient) GenerateImages(ctx context.Context, req ImageRequest) ([]ImageAsset, error) {
	mime := firstNonEmpty(req.MIMEType, "image/png")
	resp, err := c.client.Models.GenerateImages(ctx, c.imageModel, req.Prompt, &gsdk.GenerateImagesConfig{
		NumberOfImages: int32(clampQuantity(req.Quantity)),
		OutputMIMEType: mime,
		AspectRatio:    req.AspectRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("generate images: %w", err)
	}
	var assets []ImageAsset
	for _, generated := range resp.GeneratedImages {
		if generated == nil || generated.Image == nil || len(generated.Image.ImageBytes) == 0 {
			continue
		}
		w, h := decodeImageDimensions(generated.Image.ImageBytes)
		assets = append(assets, ImageAsset{
			Format: firstNonEmpty(generated.Image.MIMEType, mime),
			Width:  w,
			Height: h,
			Data:   generated.Image.ImageBytes,
		})
	}
	c.logger.Debug().
		Str("request_id", req.RequestID).
		Str("model", c.imageModel).
		Int("quantity", len(assets)).
		Msg("genai: generated images via sdk")
	return assets, nil
}

func (c *SDKClient) GenerateVideos(ctx context.Context, req VideoRequest) (*VideoOperation, error) {
	var source *gsdk.Image
	if len(req.Image) > 0 {
		source = &gsdk.Image{
			ImageBytes: req.Image,
			MIMEType:   firstNonEmpty(req.ImageMIMEType, "image/png"),
		}
	}
	op, err := c.client.Models.GenerateVideos(ctx, c.videoModel, req.Prompt, source, &gsdk.GenerateVideosConfig{
		NumberOfVideos: int32(clampQuantity(req.Quantity)),
		AspectRatio:    req.AspectRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("generate videos: %w", err)
	}
	c.logger.Debug().
		Str("request_id", req.RequestID).
		Str("model", c.videoModel).
		Str("operation", op.Name).
		Msg("genai: video operation started via sdk")
	return fromSDKOperation(op), nil
}

func (c *SDKClient) GetVideosOperation(ctx context.Context, op *VideoOperation) (*VideoOperation, error) {
	if op == nil || op.Name == "" {
		return nil, fmt.Errorf("genai: operation name is required")
	}
	refreshed, err := c.client.Operations.GetVideosOperation(ctx, &gsdk.GenerateVideosOperation{Name: op.Name}, nil)
	if err != nil {
		return nil, fmt.Errorf("get videos operation: %w", err)
	}
	return fromSDKOperation(refreshed), nil
}

func (c *SDKClient) DownloadVideo(ctx context.Context, uri string) (*VideoAsset, error) {
	data, mime, err := downloadFile(ctx, c.httpClient, defaultBaseURL, c.apiKey, uri)
	if err != nil {
		return nil, err
	}
	return &VideoAsset{Format: firstNonEmpty(mime, "video/mp4"), Data: data}, nil
}

func fromSDKOperation(op *gsdk.GenerateVideosOperation) *VideoOperation {
	if op == nil {
		return &VideoOperation{}
	}
	out := &VideoOperation{Name: op.Name, Done: op.Done}
	if len(op.Error) > 0 {
		if msg, ok := op.Error["message"]; ok {
			out.Error = fmt.Sprint(msg)
		} else {
			out.Error = fmt.Sprint(op.Error)
		}
	}
	if op.Response == nil {
		return out
	}
	for _, generated := range op.Response.GeneratedVideos {
		if generated == nil || generated.Video == nil {
			continue
		}
		v := generated.Video
		if v.URI == "" && len(v.VideoBytes) == 0 {
			continue
		}
		out.Videos = append(out.Videos, GeneratedVideo{URI: v.URI, MIMEType: v.MIMEType, Data: v.VideoBytes})
	}
	if out.Done && len(out.Videos) == 0 && out.Error == "" && op.Response.RAIMediaFilteredCount > 0 {
		out.Error = "filtered: " + strings.Join(op.Response.RAIMediaFilteredReasons, "; ")
	}
	return out
}

var _ Service = (*SDKClient)(nil)
