package genai

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"testing"
)

func TestSyntheticImagesAreDeterministicPNGs(t *testing.T) {
	s := NewSynthetic(Options{})
	req := ImageRequest{Prompt: "bakery", Quantity: 1, AspectRatio: "1:1", RequestID: "r1"}
	first, err := s.GenerateImages(context.Background(), req)
	if err != nil {
		t.Fatalf("GenerateImages error: %v", err)
	}
	second, _ := s.GenerateImages(context.Background(), req)
	if len(first) != 1 || !bytes.Equal(first[0].Data, second[0].Data) {
		t.Fatalf("expected deterministic single image")
	}
	if _, err := png.Decode(bytes.NewReader(first[0].Data)); err != nil {
		t.Fatalf("synthetic image is not a png: %v", err)
	}
}

func TestSyntheticOperationCompletesAfterConfiguredPolls(t *testing.T) {
	s := NewSynthetic(Options{SyntheticPolls: 2})
	ctx := context.Background()
	op, err := s.GenerateVideos(ctx, VideoRequest{Prompt: "animate", Image: []byte{1}, AspectRatio: "16:9"})
	if err != nil {
		t.Fatalf("GenerateVideos error: %v", err)
	}
	refreshes := 0
	for !op.Done {
		op, err = s.GetVideosOperation(ctx, op)
		if err != nil {
			t.Fatalf("GetVideosOperation error: %v", err)
		}
		refreshes++
	}
	if refreshes != 2 {
		t.Fatalf("refreshes = %d, want 2", refreshes)
	}
	if len(op.Videos) != 1 {
		t.Fatalf("expected a video once done")
	}
	asset, err := s.DownloadVideo(ctx, op.Videos[0].URI)
	if err != nil {
		t.Fatalf("DownloadVideo error: %v", err)
	}
	if len(asset.Data) == 0 || asset.Format != "video/mp4" {
		t.Fatalf("unexpected asset %+v", asset)
	}
}

func TestSyntheticVideoRequiresImage(t *testing.T) {
	s := NewSynthetic(Options{})
	if _, err := s.GenerateVideos(context.Background(), VideoRequest{Prompt: "animate"}); err == nil {
		t.Fatalf("expected error without source image")
	}
}

func TestNewServiceSelectsBackend(t *testing.T) {
	svc, err := NewService(context.Background(), "synthetic", Options{})
	if err != nil || svc.Name() != "synthetic" {
		t.Fatalf("expected synthetic backend, got %v %v", svc, err)
	}
	if _, err := NewService(context.Background(), "rest", Options{}); err == nil {
		t.Fatalf("expected rest backend to require a key")
	}
	if _, err := NewService(context.Background(), "nope", Options{}); err == nil {
		t.Fatalf("expected unsupported backend error")
	}
}

func syntheticOperationCount(s *Synthetic) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.operations)
}

func TestSyntheticDownloadReleasesOperation(t *testing.T) {
	s := NewSynthetic(Options{})
	ctx := context.Background()
	op, err := s.GenerateVideos(ctx, VideoRequest{Prompt: "spin", Image: []byte{7}})
	if err != nil {
		t.Fatalf("GenerateVideos error: %v", err)
	}
	if !op.Done || len(op.Videos) != 1 {
		t.Fatalf("expected immediate completion, got %+v", op)
	}
	if _, err := s.DownloadVideo(ctx, op.Videos[0].URI); err != nil {
		t.Fatalf("DownloadVideo error: %v", err)
	}
	if got := syntheticOperationCount(s); got != 0 {
		t.Fatalf("operations after download = %d, want 0", got)
	}
	if _, err := s.DownloadVideo(ctx, op.Videos[0].URI); err == nil {
		t.Fatalf("expected second download of the same video to fail")
	}
}

func TestSyntheticAbandonedOperationsAreBounded(t *testing.T) {
	s := NewSynthetic(Options{SyntheticPolls: 3})
	ctx := context.Background()
	var first *VideoOperation
	for i := 0; i < maxSyntheticOperations+10; i++ {
		op, err := s.GenerateVideos(ctx, VideoRequest{Prompt: "spin", Image: []byte{7}, RequestID: fmt.Sprintf("r%d", i)})
		if err != nil {
			t.Fatalf("GenerateVideos error: %v", err)
		}
		if first == nil {
			first = op
		}
	}
	if got := syntheticOperationCount(s); got != maxSyntheticOperations {
		t.Fatalf("operations = %d, want %d", got, maxSyntheticOperations)
	}
	if _, err := s.GetVideosOperation(ctx, first); err == nil {
		t.Fatalf("expected oldest operation to be evicted")
	}
}
