package studio

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"logoanimator/internal/domain"
	"logoanimator/internal/infra"
	"logoanimator/internal/providers/image"
	"logoanimator/internal/providers/video"
)

const (
	DefaultPollInterval     = 10 * time.Second
	DefaultProgressInterval = 8 * time.Second
	DefaultVideoTimeout     = 10 * time.Minute
	DefaultShareAppURL      = "https://your-app-url.com"

	recordTimeout = 5 * time.Second
)

// MediaStore owns fetched video bytes. Keys written by a studio are deleted
// by the same studio once the video is superseded or the session ends.
type MediaStore interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
	Read(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// Options wires a Studio to its collaborators. Images, Animator and Media are
// required; Recorder is optional.
type Options struct {
	Images   image.Generator
	Animator video.Animator
	Media    MediaStore
	Recorder domain.JobRecorder
	Backend  string
	Logger   *infra.Logger

	PollInterval     time.Duration
	ProgressInterval time.Duration
	// VideoTimeout bounds an animation job end to end. Zero disables it.
	VideoTimeout time.Duration
	// MaxPollAttempts bounds the number of refreshes. Zero disables it.
	MaxPollAttempts int
	ShareAppURL     string
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.ProgressInterval <= 0 {
		o.ProgressInterval = DefaultProgressInterval
	}
	if o.VideoTimeout < 0 {
		o.VideoTimeout = 0
	}
	if o.MaxPollAttempts < 0 {
		o.MaxPollAttempts = 0
	}
	if strings.TrimSpace(o.ShareAppURL) == "" {
		o.ShareAppURL = DefaultShareAppURL
	}
	return o
}

// job is the single outstanding generation request of a studio.
type job struct {
	id     string
	kind   domain.JobKind
	cancel context.CancelFunc
	// ticking is cleared once the poller returns; progress is only published
	// while it is set. Guarded by Studio.mu.
	ticking bool
}

// Studio drives one session: it owns the state store, runs at most one job at
// a time and releases media it no longer references.
type Studio struct {
	id    string
	base  context.Context
	opts  Options
	log   zerolog.Logger
	store *Store

	mu     sync.Mutex
	job    *job
	closed bool
	wg     sync.WaitGroup

	newTicker func(time.Duration) (<-chan time.Time, func())
}

func realTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// New creates a studio for session id. Background jobs started with the Start
// variants derive their context from base.
func New(base context.Context, id, locale string, opts Options) *Studio {
	opts = opts.withDefaults()
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	if id == "" {
		id = uuid.NewString()
	}
	return &Studio{
		id:    id,
		base:  base,
		opts:  opts,
		log:   log.With().Str("session_id", id).Logger(),
		store: NewStore(newSession(id, locale, AspectWide)),

		newTicker: realTicker,
	}
}

func (s *Studio) ID() string { return s.id }

// Snapshot returns the current session state.
func (s *Studio) Snapshot() Session { return s.store.Snapshot() }

// Subscribe streams session snapshots; see Store.Subscribe.
func (s *Studio) Subscribe() (<-chan Session, func()) { return s.store.Subscribe() }

// Watched reports whether any subscriber is streaming this session.
func (s *Studio) Watched() bool { return s.store.Subscribers() > 0 }

// Busy reports whether a job is in flight.
func (s *Studio) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.job != nil
}

func (s *Studio) SetPrompt(prompt string) Session {
	return s.store.Update(func(sess *Session) { sess.Prompt = prompt })
}

func (s *Studio) SetAspectRatio(raw string) (Session, error) {
	aspect, err := ParseAspectRatio(raw)
	if err != nil {
		return Session{}, err
	}
	return s.store.Update(func(sess *Session) { sess.AspectRatio = aspect }), nil
}

func (s *Studio) SelectTab(raw string) (Session, error) {
	tab, err := ParseTab(raw)
	if err != nil {
		return Session{}, err
	}
	return s.store.Update(func(sess *Session) { sess.ActiveTab = tab }), nil
}

// UploadImage stores a user supplied image as the animation source. Anything
// that does not sniff as an image is rejected.
func (s *Studio) UploadImage(data []byte) (Session, error) {
	if len(data) == 0 {
		return Session{}, fmt.Errorf("%w: empty upload", domain.ErrInvalidImage)
	}
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return Session{}, fmt.Errorf("%w: detected %s", domain.ErrInvalidImage, mimeType)
	}
	encoded := EncodeDataURL(mimeType, data)

	s.mu.Lock()
	if s.job != nil {
		s.mu.Unlock()
		return Session{}, domain.ErrJobInProgress
	}
	var released *Video
	snap := s.store.Update(func(sess *Session) {
		released = sess.GeneratedVideo
		sess.UploadedImage = encoded
		sess.GeneratedImage = ""
		sess.GeneratedVideo = nil
		sess.ActiveTab = TabUpload
		sess.Status = StatusIdle
		sess.Error = ""
		sess.Progress = ""
	})
	s.mu.Unlock()

	s.release(released)
	return snap, nil
}

// Reset abandons any running job, releases media and clears every artifact.
// Aspect ratio and locale survive. Calling it repeatedly is harmless.
func (s *Studio) Reset() Session {
	s.mu.Lock()
	s.abandonLocked()
	var released *Video
	snap := s.store.Update(func(sess *Session) {
		released = sess.GeneratedVideo
		sess.Status = StatusIdle
		sess.Error = ""
		sess.Prompt = ""
		sess.UploadedImage = ""
		sess.GeneratedImage = ""
		sess.GeneratedVideo = nil
		sess.ActiveTab = TabGenerate
		sess.Progress = ""
	})
	s.mu.Unlock()

	s.release(released)
	return snap
}

// Close abandons any running job, releases media and ends all subscriptions.
// Later job starts fail with domain.ErrNotFound.
func (s *Studio) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.abandonLocked()
	var released *Video
	s.store.Update(func(sess *Session) {
		released = sess.GeneratedVideo
		sess.GeneratedVideo = nil
		if sess.Status == StatusFinished || sess.Status.Busy() {
			sess.Status = StatusIdle
		}
		sess.Progress = ""
	})
	s.mu.Unlock()

	s.release(released)
	s.store.Close()
}

// Wait blocks until background jobs have returned.
func (s *Studio) Wait() {
	s.wg.Wait()
}

func (s *Studio) abandonLocked() {
	if s.job == nil {
		return
	}
	s.log.Info().Str("job_id", s.job.id).Str("kind", string(s.job.kind)).Msg("studio: job abandoned")
	s.job.cancel()
	s.job = nil
}

// begin claims the single-flight slot and applies the working state in the
// same critical section.
func (s *Studio) begin(parent context.Context, kind domain.JobKind, fn func(*Session)) (*job, context.Context, Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, nil, Session{}, domain.ErrNotFound
	}
	if s.job != nil {
		return nil, nil, Session{}, domain.ErrJobInProgress
	}
	ctx, cancel := context.WithCancel(parent)
	j := &job{id: uuid.NewString(), kind: kind, cancel: cancel, ticking: kind == domain.JobKindAnimation}
	s.job = j
	snap := s.store.Update(fn)
	return j, ctx, snap, nil
}

// finish applies fn and frees the slot if j is still the current job. It
// reports false for abandoned jobs, whose results must be discarded.
func (s *Studio) finish(j *job, fn func(*Session)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	j.cancel()
	if s.job != j {
		return false
	}
	j.ticking = false
	s.job = nil
	s.store.Update(fn)
	return true
}

// publish applies fn only while j is current and ticking.
func (s *Studio) publish(j *job, fn func(*Session)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job != j || !j.ticking {
		return false
	}
	s.store.Update(fn)
	return true
}

func (s *Studio) stopTicking(j *job, stop context.CancelFunc) {
	s.mu.Lock()
	j.ticking = false
	s.mu.Unlock()
	stop()
}

func (s *Studio) spawn(run func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		run()
	}()
}

func (s *Studio) release(v *Video) {
	if v == nil || v.Key == "" || s.opts.Media == nil {
		return
	}
	if err := s.opts.Media.Delete(context.Background(), v.Key); err != nil {
		s.log.Warn().Err(err).Str("media_key", v.Key).Msg("studio: release media failed")
	}
}

func (s *Studio) recordStart(j *job, aspect string) *domain.Job {
	rec := &domain.Job{
		ID:          j.id,
		SessionID:   s.id,
		Kind:        j.kind,
		Status:      domain.JobStatusRunning,
		AspectRatio: aspect,
		Backend:     s.opts.Backend,
		StartedAt:   time.Now().UTC(),
	}
	if s.opts.Recorder == nil {
		return rec
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := s.opts.Recorder.RecordStart(ctx, rec); err != nil {
		s.log.Warn().Err(err).Str("job_id", j.id).Msg("studio: record job start failed")
	}
	return rec
}

func (s *Studio) recordFinish(rec *domain.Job, status domain.JobStatus, attempts int, cause error) {
	now := time.Now().UTC()
	rec.Status = status
	rec.PollAttempts = attempts
	rec.FinishedAt = &now
	if cause != nil {
		rec.ErrorDetail = cause.Error()
	}
	if s.opts.Recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := s.opts.Recorder.RecordFinish(ctx, rec); err != nil {
		s.log.Warn().Err(err).Str("job_id", rec.ID).Msg("studio: record job finish failed")
	}
}
