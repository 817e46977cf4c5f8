package studio

import (
	"context"
	"fmt"
	"strings"

	"logoanimator/internal/domain"
	"logoanimator/internal/providers/image"
)

// GenerateLogo produces a logo for prompt and waits for the result. A blank
// prompt is ignored. Backend failures leave the session in StatusError with a
// fixed message and are returned wrapped in domain.ErrProviderFailure.
func (s *Studio) GenerateLogo(ctx context.Context, prompt string) error {
	run, err := s.prepareLogo(ctx, prompt)
	if err != nil || run == nil {
		return err
	}
	return run()
}

// StartLogo is GenerateLogo without waiting. Only the single-flight check is
// reported synchronously.
func (s *Studio) StartLogo(prompt string) error {
	run, err := s.prepareLogo(s.base, prompt)
	if err != nil || run == nil {
		return err
	}
	s.spawn(func() { _ = run() })
	return nil
}

func (s *Studio) prepareLogo(parent context.Context, prompt string) (func() error, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, nil
	}
	var released *Video
	j, ctx, _, err := s.begin(parent, domain.JobKindLogo, func(sess *Session) {
		released = sess.GeneratedVideo
		sess.Prompt = prompt
		sess.Status = StatusGeneratingLogo
		sess.Error = ""
		sess.GeneratedImage = ""
		sess.GeneratedVideo = nil
		sess.Progress = ""
	})
	if err != nil {
		return nil, err
	}
	s.release(released)
	return func() error { return s.runLogo(ctx, j, prompt) }, nil
}

func (s *Studio) runLogo(ctx context.Context, j *job, prompt string) error {
	rec := s.recordStart(j, image.LogoAspectRatio)
	log := s.log.With().Str("job_id", j.id).Str("kind", string(j.kind)).Logger()

	assets, err := s.opts.Images.Generate(ctx, image.LogoRequest(prompt, j.id))
	if err == nil && (len(assets) == 0 || len(assets[0].Data) == 0) {
		err = fmt.Errorf("image backend returned no images")
	}
	if err != nil {
		cause := fmt.Errorf("%w: generate logo: %w", domain.ErrProviderFailure, err)
		locale := s.store.Snapshot().Locale
		if !s.finish(j, func(sess *Session) {
			sess.Status = StatusError
			sess.Error = domain.Message(locale, domain.MsgLogoFailed)
		}) {
			s.recordFinish(rec, domain.JobStatusAbandoned, 0, err)
			return domain.ErrJobAbandoned
		}
		log.Error().Err(err).Msg("studio: logo generation failed")
		s.recordFinish(rec, domain.JobStatusFailed, 0, err)
		return cause
	}

	logo := assets[0]
	encoded := EncodeDataURL(firstNonEmpty(logo.Format, image.LogoMIMEType), logo.Data)
	if !s.finish(j, func(sess *Session) {
		sess.GeneratedImage = encoded
		sess.UploadedImage = ""
		sess.ActiveTab = TabGenerate
		sess.Status = StatusIdle
		sess.Error = ""
	}) {
		s.recordFinish(rec, domain.JobStatusAbandoned, 0, nil)
		return domain.ErrJobAbandoned
	}
	log.Info().Int("bytes", len(logo.Data)).Msg("studio: logo generated")
	s.recordFinish(rec, domain.JobStatusSucceeded, 0, nil)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
