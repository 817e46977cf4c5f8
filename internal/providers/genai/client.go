package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"logoanimator/internal/infra"
)

// Client talks to the Gemini REST API directly: Imagen through :predict and
// Veo through :predictLongRunning plus operation polling.
type Client struct {
	apiKey     string
	baseURL    string
	imageModel string
	videoModel string
	httpClient *http.Client
	logger     *infra.Logger
}

type predictImageRequest struct {
	Instances  []predictImageInstance `json:"instances"`
	Parameters predictImageParameters `json:"parameters"`
}

type predictImageInstance struct {
	Prompt string `json:"prompt"`
}

type predictImageParameters struct {
	SampleCount   int            `json:"sampleCount"`
	AspectRatio   string         `json:"aspectRatio,omitempty"`
	OutputOptions *outputOptions `json:"outputOptions,omitempty"`
}

type outputOptions struct {
	MimeType string `json:"mimeType,omitempty"`
}

type predictImageResponse struct {
	Predictions []struct {
		BytesBase64Encoded string `json:"bytesBase64Encoded"`
		MimeType           string `json:"mimeType"`
	} `json:"predictions"`
}

type predictVideoRequest struct {
	Instances  []predictVideoInstance `json:"instances"`
	Parameters predictVideoParameters `json:"parameters"`
}

type predictVideoInstance struct {
	Prompt string        `json:"prompt"`
	Image  *inlineBinary `json:"image,omitempty"`
}

type inlineBinary struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType"`
}

type predictVideoParameters struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
	SampleCount int    `json:"sampleCount"`
}

type operationResponse struct {
	Name     string `json:"name"`
	Done     bool   `json:"done"`
	Response *struct {
		GenerateVideoResponse struct {
			GeneratedSamples []struct {
				Video struct {
					URI                string `json:"uri"`
					MimeType           string `json:"mimeType"`
					BytesBase64Encoded string `json:"bytesBase64Encoded"`
				} `json:"video"`
			} `json:"generatedSamples"`
			RAIMediaFilteredCount   int      `json:"raiMediaFilteredCount"`
			RAIMediaFilteredReasons []string `json:"raiMediaFilteredReasons"`
		} `json:"generateVideoResponse"`
	} `json:"response,omitempty"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Status  string `json:"status,omitempty"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

// NewClient constructs a REST client with sane defaults. Callers may provide
// a nil HTTP client; a reusable one with sensible timeouts will be created.
func NewClient(opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("genai: api key is required")
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		imageModel: firstNonEmpty(opts.ImageModel, defaultImageModel),
		videoModel: firstNonEmpty(opts.VideoModel, defaultVideoModel),
		httpClient: client,
		logger:     loggerOrDiscard(opts.Logger),
	}, nil
}

// Name identifies the backend in logs and job records.
func (c *Client) Name() string {
	return "rest"
}

// GenerateImages calls the Imagen predict endpoint. An empty result is not an
// error at this layer; callers decide how to treat it.
func (c *Client) GenerateImages(ctx context.Context, req ImageRequest) ([]ImageAsset, error) {
	mime := firstNonEmpty(req.MIMEType, "image/png")
	payload := predictImageRequest{
		Instances: []predictImageInstance{{Prompt: req.Prompt}},
		Parameters: predictImageParameters{
			SampleCount:   clampQuantity(req.Quantity),
			AspectRatio:   req.AspectRatio,
			OutputOptions: &outputOptions{MimeType: mime},
		},
	}

	var response predictImageResponse
	path := fmt.Sprintf("/models/%s:predict", url.PathEscape(c.imageModel))
	if err := c.invoke(ctx, http.MethodPost, path, payload, &response); err != nil {
		return nil, err
	}

	assets := make([]ImageAsset, 0, len(response.Predictions))
	for i, prediction := range response.Predictions {
		if prediction.BytesBase64Encoded == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(prediction.BytesBase64Encoded)
		if err != nil {
			c.logger.Warn().Err(err).Int("index", i).Msg("genai: skipping undecodable prediction")
			continue
		}
		w, h := decodeImageDimensions(data)
		assets = append(assets, ImageAsset{
			Format: firstNonEmpty(prediction.MimeType, mime),
			Width:  w,
			Height: h,
			Data:   data,
		})
	}

	c.logger.Debug().
		Str("request_id", req.RequestID).
		Str("model", c.imageModel).
		Int("quantity", len(assets)).
		Msg("genai: generated images")

	return assets, nil
}

// GenerateVideos starts a Veo job and returns its operation handle.
func (c *Client) GenerateVideos(ctx context.Context, req VideoRequest) (*VideoOperation, error) {
	instance := predictVideoInstance{Prompt: req.Prompt}
	if len(req.Image) > 0 {
		instance.Image = &inlineBinary{
			BytesBase64Encoded: base64.StdEncoding.EncodeToString(req.Image),
			MimeType:           firstNonEmpty(req.ImageMIMEType, "image/png"),
		}
	}
	payload := predictVideoRequest{
		Instances: []predictVideoInstance{instance},
		Parameters: predictVideoParameters{
			AspectRatio: req.AspectRatio,
			SampleCount: clampQuantity(req.Quantity),
		},
	}

	var response operationResponse
	path := fmt.Sprintf("/models/%s:predictLongRunning", url.PathEscape(c.videoModel))
	if err := c.invoke(ctx, http.MethodPost, path, payload, &response); err != nil {
		return nil, err
	}
	if response.Name == "" {
		return nil, fmt.Errorf("genai: operation name missing from response")
	}

	c.logger.Debug().
		Str("request_id", req.RequestID).
		Str("model", c.videoModel).
		Str("operation", response.Name).
		Msg("genai: video operation started")

	return response.toOperation()
}

// GetVideosOperation refreshes the state of a running operation.
func (c *Client) GetVideosOperation(ctx context.Context, op *VideoOperation) (*VideoOperation, error) {
	if op == nil || op.Name == "" {
		return nil, fmt.Errorf("genai: operation name is required")
	}
	var response operationResponse
	if err := c.invoke(ctx, http.MethodGet, "/"+strings.TrimLeft(op.Name, "/"), nil, &response); err != nil {
		return nil, err
	}
	if response.Name == "" {
		response.Name = op.Name
	}
	return response.toOperation()
}

// DownloadVideo fetches the bytes of a generated video. The API key is
// appended as the key query parameter, as the file endpoint requires.
func (c *Client) DownloadVideo(ctx context.Context, uri string) (*VideoAsset, error) {
	data, mime, err := downloadFile(ctx, c.httpClient, c.baseURL, c.apiKey, uri)
	if err != nil {
		return nil, err
	}
	return &VideoAsset{Format: firstNonEmpty(mime, "video/mp4"), Data: data}, nil
}

func (r operationResponse) toOperation() (*VideoOperation, error) {
	op := &VideoOperation{Name: r.Name, Done: r.Done}
	if r.Error != nil {
		op.Error = firstNonEmpty(r.Error.Message, r.Error.Status, fmt.Sprintf("code %d", r.Error.Code))
	}
	if r.Response == nil {
		return op, nil
	}
	for _, sample := range r.Response.GenerateVideoResponse.GeneratedSamples {
		video := GeneratedVideo{URI: sample.Video.URI, MIMEType: sample.Video.MimeType}
		if sample.Video.BytesBase64Encoded != "" {
			data, err := base64.StdEncoding.DecodeString(sample.Video.BytesBase64Encoded)
			if err != nil {
				return nil, fmt.Errorf("decode inline video: %w", err)
			}
			video.Data = data
		}
		if video.URI == "" && len(video.Data) == 0 {
			continue
		}
		op.Videos = append(op.Videos, video)
	}
	if op.Done && len(op.Videos) == 0 && op.Error == "" && r.Response.GenerateVideoResponse.RAIMediaFilteredCount > 0 {
		op.Error = "filtered: " + strings.Join(r.Response.GenerateVideoResponse.RAIMediaFilteredReasons, "; ")
	}
	return op, nil
}

func (c *Client) invoke(ctx context.Context, method, path string, payload any, out any) error {
	endpoint := strings.TrimRight(c.baseURL, "/") + path
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	q := req.URL.Query()
	q.Set("key", c.apiKey)
	req.URL.RawQuery = q.Encode()
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError("invoke gemini", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return statusError("gemini", resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gemini response: %w", err)
	}
	return nil
}

// transportError drops the query string from a failed request's URL, since
// the API key travels there.
func transportError(what string, err error) error {
	var uerr *url.Error
	if !errors.As(err, &uerr) {
		return fmt.Errorf("%s: %w", what, err)
	}
	target := "request"
	if parsed, perr := url.Parse(uerr.URL); perr == nil {
		parsed.RawQuery = ""
		parsed.User = nil
		target = parsed.String()
	}
	return fmt.Errorf("%s: %s %q: %w", what, uerr.Op, target, uerr.Err)
}

func statusError(what string, resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var apiErr errorResponse
	if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error.Message != "" {
		return fmt.Errorf("%s status %d: %s", what, resp.StatusCode, apiErr.Error.Message)
	}
	if text := strings.TrimSpace(string(data)); text != "" {
		return fmt.Errorf("%s status %d: %s", what, resp.StatusCode, text)
	}
	return fmt.Errorf("%s status %d", what, resp.StatusCode)
}

// downloadFile performs a plain GET against uri with the credential appended.
// Relative URIs resolve against baseURL. Any non-2xx status is a failure.
func downloadFile(ctx context.Context, client *http.Client, baseURL, apiKey, uri string) ([]byte, string, error) {
	target := strings.TrimSpace(uri)
	if target == "" {
		return nil, "", fmt.Errorf("download file: uri is required")
	}
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(target, "/")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create download request: %w", err)
	}
	if apiKey != "" {
		q := req.URL.Query()
		q.Set("key", apiKey)
		req.URL.RawQuery = q.Encode()
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", transportError("download file", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, "", statusError("download file", resp)
	}

	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read file: %w", err)
	}
	return blob, resp.Header.Get("Content-Type"), nil
}

func loggerOrDiscard(l *infra.Logger) *infra.Logger {
	if l != nil {
		return l
	}
	discard := zerolog.New(io.Discard)
	return &discard
}

func clampQuantity(quantity int) int {
	if quantity <= 0 {
		return 1
	}
	if quantity > 4 {
		return 4
	}
	return quantity
}

func decodeImageDimensions(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

var _ Service = (*Client)(nil)
