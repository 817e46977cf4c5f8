package genai

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"
	"strings"
	"sync"

	"logoanimator/internal/infra"
)

const syntheticScheme = "synthetic://"

// maxSyntheticOperations caps operations that were started but never downloaded.
const maxSyntheticOperations = 64

// Synthetic is a deterministic offline backend. Images are rendered locally
// and video operations complete after a fixed number of refreshes, so the
// whole studio flow can run without credentials.
type Synthetic struct {
	polls  int
	logger *infra.Logger

	mu         sync.Mutex
	operations map[string]*syntheticOperation
	order      []string
}

type syntheticOperation struct {
	seed      string
	prompt    string
	remaining int
}

// NewSynthetic constructs the offline backend.
func NewSynthetic(opts Options) *Synthetic {
	polls := opts.SyntheticPolls
	if polls < 0 {
		polls = 0
	}
	return &Synthetic{
		polls:      polls,
		logger:     loggerOrDiscard(opts.Logger),
		operations: make(map[string]*syntheticOperation),
	}
}

// Name identifies the backend in logs and job records.
func (s *Synthetic) Name() string {
	return "synthetic"
}

func (s *Synthetic) GenerateImages(ctx context.Context, req ImageRequest) ([]ImageAsset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	quantity := clampQuantity(req.Quantity)
	width, height := normalizeAspect(req.AspectRatio)
	assets := make([]ImageAsset, quantity)
	for i := 0; i < quantity; i++ {
		seed := deterministicSeed(req.RequestID, req.Prompt, i)
		assets[i] = ImageAsset{
			Format: "image/png",
			Width:  width,
			Height: height,
			Data:   renderSyntheticImage(width, height, seed),
		}
	}
	s.logger.Debug().
		Str("request_id", req.RequestID).
		Int("quantity", quantity).
		Msg("genai: generated synthetic images")
	return assets, nil
}

func (s *Synthetic) GenerateVideos(ctx context.Context, req VideoRequest) (*VideoOperation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(req.Image) == 0 {
		return nil, fmt.Errorf("genai: synthetic video requires a source image")
	}
	seed := deterministicSeed(req.RequestID, req.Prompt, req.AspectRatio, len(req.Image))
	name := "synthetic/operations/" + seed

	s.mu.Lock()
	if _, exists := s.operations[name]; !exists {
		s.order = append(s.order, name)
	}
	s.operations[name] = &syntheticOperation{seed: seed, prompt: req.Prompt, remaining: s.polls}
	for len(s.order) > maxSyntheticOperations {
		delete(s.operations, s.order[0])
		s.order = s.order[1:]
	}
	s.mu.Unlock()

	return s.snapshot(name)
}

func (s *Synthetic) GetVideosOperation(ctx context.Context, op *VideoOperation) (*VideoOperation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if op == nil {
		return nil, fmt.Errorf("genai: operation is required")
	}
	s.mu.Lock()
	if state, ok := s.operations[op.Name]; ok && state.remaining > 0 {
		state.remaining--
	}
	s.mu.Unlock()
	return s.snapshot(op.Name)
}

func (s *Synthetic) DownloadVideo(ctx context.Context, uri string) (*VideoAsset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	seed := strings.TrimSuffix(strings.TrimPrefix(uri, syntheticScheme), ".mp4")
	name := "synthetic/operations/" + seed
	s.mu.Lock()
	state, ok := s.operations[name]
	if ok {
		s.forget(name)
	}
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("download file status 404: unknown synthetic video %q", uri)
	}
	return &VideoAsset{Format: "video/mp4", Data: renderSyntheticVideo(state.seed, state.prompt)}, nil
}

// forget drops a finished operation. Callers hold s.mu.
func (s *Synthetic) forget(name string) {
	delete(s.operations, name)
	for i, candidate := range s.order {
		if candidate == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Synthetic) snapshot(name string) (*VideoOperation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.operations[name]
	if !ok {
		return nil, fmt.Errorf("genai: unknown operation %q", name)
	}
	op := &VideoOperation{Name: name, Done: state.remaining == 0}
	if op.Done {
		op.Videos = []GeneratedVideo{{URI: syntheticScheme + state.seed + ".mp4", MIMEType: "video/mp4"}}
	}
	return op, nil
}

func renderSyntheticImage(width, height int, seed string) []byte {
	if width <= 0 {
		width = 1024
	}
	if height <= 0 {
		height = 1024
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	base := colorFromSeed(seed, 0)
	accent := colorFromSeed(seed, 1)
	draw.Draw(img, img.Bounds(), &image.Uniform{base}, image.Point{}, draw.Src)

	// A centered disc stands in for the logo mark.
	cx, cy := width/2, height/2
	radius := min(width, height) / 3
	for y := cy - radius; y <= cy+radius; y++ {
		for x := cx - radius; x <= cx+radius; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= radius*radius {
				img.Set(x, y, accent)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}

func renderSyntheticVideo(seed, prompt string) []byte {
	lines := []string{
		"Synthetic video placeholder",
		fmt.Sprintf("Seed: %s", seed),
		fmt.Sprintf("Prompt: %s", strings.TrimSpace(prompt)),
	}
	return []byte(strings.Join(lines, "\n"))
}

func colorFromSeed(seed string, shift int) color.RGBA {
	if seed == "" {
		seed = "000000"
	}
	doubled := seed + seed
	start := (shift * 6) % len(seed)
	segment := doubled[start : start+6]
	return color.RGBA{
		R: parseHexByte(segment[0:2]),
		G: parseHexByte(segment[2:4]),
		B: parseHexByte(segment[4:6]),
		A: 255,
	}
}

func parseHexByte(s string) uint8 {
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0
	}
	return uint8(v)
}

func deterministicSeed(parts ...any) string {
	hasher := sha256.New()
	for _, part := range parts {
		fmt.Fprintf(hasher, "%v|", part)
	}
	return hex.EncodeToString(hasher.Sum(nil))[:16]
}

func normalizeAspect(aspect string) (int, int) {
	switch strings.TrimSpace(aspect) {
	case "16:9":
		return 1280, 720
	case "9:16":
		return 720, 1280
	default:
		return 512, 512
	}
}

var _ Service = (*Synthetic)(nil)
