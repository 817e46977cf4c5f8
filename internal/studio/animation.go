package studio

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"logoanimator/internal/domain"
	"logoanimator/internal/providers/video"
)

// GenerateAnimation animates the active image and waits for the result.
// Without an active image the session moves to StatusError and
// domain.ErrNoSourceImage is returned before any backend call.
func (s *Studio) GenerateAnimation(ctx context.Context) error {
	run, err := s.prepareAnimation(ctx)
	if err != nil {
		return err
	}
	return run()
}

// StartAnimation is GenerateAnimation without waiting for the job.
func (s *Studio) StartAnimation() error {
	run, err := s.prepareAnimation(s.base)
	if err != nil {
		return err
	}
	s.spawn(func() { _ = run() })
	return nil
}

type animationInput struct {
	image    []byte
	mimeType string
	aspect   AspectRatio
	messages []string
}

func (s *Studio) prepareAnimation(parent context.Context) (func() error, error) {
	var (
		input    animationInput
		released *Video
		missing  bool
	)
	j, ctx, _, err := s.begin(parent, domain.JobKindAnimation, func(sess *Session) {
		mimeType, data, decodeErr := DecodeDataURL(sess.ActiveImage())
		if decodeErr != nil || len(data) == 0 {
			missing = true
			sess.Status = StatusError
			sess.Error = domain.Message(sess.Locale, domain.MsgNoSourceImage)
			sess.Progress = ""
			return
		}
		input = animationInput{
			image:    data,
			mimeType: mimeType,
			aspect:   sess.AspectRatio,
			messages: domain.ProgressMessages(sess.Locale),
		}
		released = sess.GeneratedVideo
		sess.Status = StatusGeneratingVideo
		sess.Error = ""
		sess.GeneratedVideo = nil
		sess.Progress = input.messages[0]
	})
	if err != nil {
		return nil, err
	}
	if missing {
		s.mu.Lock()
		if s.job == j {
			s.job = nil
		}
		s.mu.Unlock()
		j.cancel()
		return nil, domain.ErrNoSourceImage
	}
	s.release(released)
	return func() error { return s.runAnimation(ctx, j, input) }, nil
}

func (s *Studio) runAnimation(ctx context.Context, j *job, in animationInput) error {
	rec := s.recordStart(j, string(in.aspect))
	log := s.log.With().Str("job_id", j.id).Str("kind", string(j.kind)).Logger()

	jobCtx := ctx
	if s.opts.VideoTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, s.opts.VideoTimeout)
		defer cancel()
	}

	op, err := s.opts.Animator.Submit(jobCtx, video.SubmitRequest{
		Prompt:      video.AnimationInstruction,
		Image:       in.image,
		MIMEType:    in.mimeType,
		AspectRatio: string(in.aspect),
		Count:       1,
		RequestID:   j.id,
	})
	if err != nil {
		return s.failAnimation(jobCtx, j, rec, 0, fmt.Errorf("submit animation: %w", err))
	}
	log.Info().Str("operation", op.Name).Msg("studio: animation submitted")

	attempts := 0
	g, gctx := errgroup.WithContext(jobCtx)
	tickCtx, stopTicker := context.WithCancel(gctx)
	g.Go(func() error {
		defer s.stopTicking(j, stopTicker)
		var pollErr error
		op, attempts, pollErr = s.poll(gctx, op)
		return pollErr
	})
	g.Go(func() error {
		s.rotateProgress(tickCtx, j, in.messages)
		return nil
	})
	if err := g.Wait(); err != nil {
		return s.failAnimation(jobCtx, j, rec, attempts, err)
	}

	if op.Err != "" {
		return s.failAnimation(jobCtx, j, rec, attempts, fmt.Errorf("animation operation failed: %s", op.Err))
	}
	if len(op.Videos) == 0 {
		return s.failAnimation(jobCtx, j, rec, attempts, errors.New("animation operation returned no videos"))
	}
	asset, err := s.opts.Animator.Fetch(jobCtx, op.Videos[0])
	if err != nil {
		return s.failAnimation(jobCtx, j, rec, attempts, fmt.Errorf("fetch video: %w", err))
	}
	mimeType := firstNonEmpty(asset.Format, op.Videos[0].MIMEType, "video/mp4")
	key, err := s.opts.Media.Write(jobCtx, mediaKey(s.id, j.id, mimeType), asset.Data)
	if err != nil {
		return s.failAnimation(jobCtx, j, rec, attempts, fmt.Errorf("store video: %w", err))
	}

	clip := &Video{Key: key, MIMEType: mimeType, Size: int64(len(asset.Data))}
	if !s.finish(j, func(sess *Session) {
		sess.GeneratedVideo = clip
		sess.Status = StatusFinished
		sess.Error = ""
		sess.Progress = ""
	}) {
		s.release(clip)
		s.recordFinish(rec, domain.JobStatusAbandoned, attempts, nil)
		return domain.ErrJobAbandoned
	}
	log.Info().Int("poll_attempts", attempts).Int64("bytes", clip.Size).Msg("studio: animation finished")
	s.recordFinish(rec, domain.JobStatusSucceeded, attempts, nil)
	return nil
}

// poll refreshes op every PollInterval until it reports Done.
func (s *Studio) poll(ctx context.Context, op *video.Operation) (*video.Operation, int, error) {
	attempts := 0
	for !op.Done {
		if s.opts.MaxPollAttempts > 0 && attempts >= s.opts.MaxPollAttempts {
			return op, attempts, fmt.Errorf("%w: operation %s not done after %d polls", domain.ErrTimedOut, op.Name, attempts)
		}
		select {
		case <-ctx.Done():
			return op, attempts, ctx.Err()
		case <-time.After(s.opts.PollInterval):
		}
		attempts++
		next, err := s.opts.Animator.Refresh(ctx, op)
		if err != nil {
			return op, attempts, fmt.Errorf("refresh operation %s: %w", op.Name, err)
		}
		op = next
		s.log.Debug().Str("operation", op.Name).Int("attempt", attempts).Bool("done", op.Done).Msg("studio: polled animation")
	}
	return op, attempts, nil
}

// rotateProgress publishes messages[k % len] on the k-th tick. messages[0]
// was published when the job began.
func (s *Studio) rotateProgress(ctx context.Context, j *job, messages []string) {
	if len(messages) == 0 {
		return
	}
	ticks, stop := s.newTicker(s.opts.ProgressInterval)
	defer stop()
	index := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
			index = (index + 1) % len(messages)
			msg := messages[index]
			if !s.publish(j, func(sess *Session) { sess.Progress = msg }) {
				return
			}
		}
	}
}

func (s *Studio) failAnimation(jobCtx context.Context, j *job, rec *domain.Job, attempts int, err error) error {
	timedOut := errors.Is(err, domain.ErrTimedOut) || errors.Is(jobCtx.Err(), context.DeadlineExceeded)
	status, key, state := domain.JobStatusFailed, domain.MsgAnimationFailed, StatusError
	if timedOut {
		status, key, state = domain.JobStatusTimedOut, domain.MsgAnimationTimedOut, StatusTimedOut
	}
	locale := s.store.Snapshot().Locale
	if !s.finish(j, func(sess *Session) {
		sess.Status = state
		sess.Error = domain.Message(locale, key)
		sess.Progress = ""
	}) {
		s.recordFinish(rec, domain.JobStatusAbandoned, attempts, err)
		return domain.ErrJobAbandoned
	}
	s.log.Error().Err(err).
		Str("job_id", j.id).
		Str("kind", string(j.kind)).
		Int("poll_attempts", attempts).
		Bool("timed_out", timedOut).
		Msg("studio: animation failed")
	s.recordFinish(rec, status, attempts, err)
	if timedOut {
		return fmt.Errorf("%w: %w", domain.ErrTimedOut, err)
	}
	return fmt.Errorf("%w: %w", domain.ErrProviderFailure, err)
}

func mediaKey(sessionID, jobID, mimeType string) string {
	ext := "mp4"
	if sub, ok := strings.CutPrefix(mimeType, "video/"); ok {
		sub, _, _ = strings.Cut(sub, ";")
		if sub = strings.TrimSpace(sub); sub != "" {
			ext = sub
		}
	}
	return path.Join("sessions", sessionID, jobID+"."+ext)
}
