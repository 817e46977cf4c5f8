package studio

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"logoanimator/internal/domain"
	"logoanimator/internal/storage"
	"logoanimator/pkg/zip"
)

const (
	ShareText  = "Check out this amazing animated logo I created with the AI Logo Animator!"
	ShareTitle = "AI Animated Logo"

	downloadBaseName = "animated-logo"
)

// Download is a video ready to be served as an attachment.
type Download struct {
	Filename string
	MIMEType string
	Data     []byte
}

// ShareLink opens a platform's share dialog in a new, isolated browsing
// context.
type ShareLink struct {
	URL    string `json:"url"`
	Target string `json:"target"`
	Rel    string `json:"rel"`
}

// Download returns the current video named for the requested container. The
// bytes are served as stored; only the file name follows format.
func (s *Studio) Download(ctx context.Context, format string) (*Download, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "mp4"
	}
	if format != "mp4" && format != "gif" {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
	}
	clip := s.store.Snapshot().GeneratedVideo
	if clip == nil {
		return nil, domain.ErrNoVideo
	}
	data, err := s.opts.Media.Read(ctx, clip.Key)
	if errors.Is(err, storage.ErrNotFound) {
		// Released by a concurrent reset or close.
		return nil, domain.ErrNoVideo
	}
	if err != nil {
		return nil, fmt.Errorf("read video: %w", err)
	}
	return &Download{
		Filename: downloadBaseName + "." + format,
		MIMEType: clip.MIMEType,
		Data:     data,
	}, nil
}

// ShareLink builds the share dialog link for platform. It requires a
// finished video.
func (s *Studio) ShareLink(platform string) (*ShareLink, error) {
	if s.store.Snapshot().GeneratedVideo == nil {
		return nil, domain.ErrNoVideo
	}
	link, err := BuildShareURL(platform, s.opts.ShareAppURL)
	if err != nil {
		return nil, err
	}
	return &ShareLink{URL: link, Target: "_blank", Rel: "noopener noreferrer"}, nil
}

// BuildShareURL renders the share endpoint of twitter, facebook or linkedin
// with the share text and appURL percent-encoded.
func BuildShareURL(platform, appURL string) (string, error) {
	text := encodeComponent(ShareText)
	target := encodeComponent(appURL)
	switch strings.ToLower(strings.TrimSpace(platform)) {
	case "twitter":
		return "https://twitter.com/intent/tweet?text=" + text + "&url=" + target, nil
	case "facebook":
		return "https://www.facebook.com/sharer/sharer.php?u=" + target + "&quote=" + text, nil
	case "linkedin":
		return "https://www.linkedin.com/shareArticle?mini=true&url=" + target +
			"&title=" + encodeComponent(ShareTitle) + "&summary=" + text, nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedPlatform, platform)
	}
}

// encodeComponent escapes like encodeURIComponent: spaces become %20.
func encodeComponent(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
}

// Bundle zips the source logo and the video. It requires a finished video.
func (s *Studio) Bundle(ctx context.Context) ([]byte, error) {
	snap := s.store.Snapshot()
	if snap.GeneratedVideo == nil {
		return nil, domain.ErrNoVideo
	}
	clip, err := s.Download(ctx, "mp4")
	if err != nil {
		return nil, err
	}
	assets := []zip.Asset{{Filename: clip.Filename, MIME: clip.MIMEType, Data: clip.Data}}
	if mimeType, data, err := DecodeDataURL(snap.ActiveImage()); err == nil {
		assets = append([]zip.Asset{{Filename: "logo." + imageExtension(mimeType), MIME: mimeType, Data: data}}, assets...)
	}
	return zip.ArchiveAssets(assets)
}

func imageExtension(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return "jpg"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	default:
		return "png"
	}
}
