package video

import (
	"context"
	"testing"

	"logoanimator/internal/providers/genai"
)

func TestGeminiAnimatorAgainstSynthetic(t *testing.T) {
	svc := genai.NewSynthetic(genai.Options{SyntheticPolls: 2})
	anim := NewGeminiAnimator(svc)
	ctx := context.Background()

	op, err := anim.Submit(ctx, SubmitRequest{Image: []byte{1, 2}, MIMEType: "image/png", AspectRatio: "16:9", Count: 1})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	refreshes := 0
	for !op.Done {
		op, err = anim.Refresh(ctx, op)
		if err != nil {
			t.Fatalf("Refresh error: %v", err)
		}
		refreshes++
	}
	if refreshes != 2 {
		t.Fatalf("refreshes = %d, want 2", refreshes)
	}
	if len(op.Videos) != 1 {
		t.Fatalf("videos = %d, want 1", len(op.Videos))
	}
	asset, err := anim.Fetch(ctx, op.Videos[0])
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if asset.Format != "video/mp4" || len(asset.Data) == 0 {
		t.Fatalf("unexpected asset %q (%d bytes)", asset.Format, len(asset.Data))
	}
}

func TestFetchPrefersInlineBytes(t *testing.T) {
	anim := NewGeminiAnimator(nil)
	asset, err := anim.Fetch(context.Background(), Video{Data: []byte("clip")})
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if asset.Format != "video/mp4" || string(asset.Data) != "clip" {
		t.Fatalf("unexpected asset %#v", asset)
	}
}

func TestFetchRequiresURI(t *testing.T) {
	anim := NewGeminiAnimator(nil)
	if _, err := anim.Fetch(context.Background(), Video{}); err == nil {
		t.Fatalf("expected error for clip without uri")
	}
}
