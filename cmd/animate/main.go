package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"logoanimator/internal/infra"
	"logoanimator/internal/infra/credentials"
	"logoanimator/internal/providers/genai"
	"logoanimator/internal/providers/image"
	"logoanimator/internal/providers/video"
	"logoanimator/internal/storage"
	"logoanimator/internal/studio"
)

// animate runs one logo animation without the HTTP service: it generates a
// logo from -prompt (or reads -image), animates it and writes the video.
func main() {
	var (
		prompt    = flag.String("prompt", "", "logo description to generate")
		imagePath = flag.String("image", "", "existing logo image to animate instead of generating one")
		aspect    = flag.String("aspect", string(studio.AspectWide), "video aspect ratio: 16:9 or 9:16")
		out       = flag.String("out", "animated-logo.mp4", "output video path")
		format    = flag.String("format", "mp4", "download format: mp4 or gif")
	)
	flag.Parse()

	if (*prompt == "") == (*imagePath == "") {
		fmt.Fprintln(os.Stderr, "exactly one of -prompt or -image is required")
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel).With().Str("cmd", "animate").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	apiKey, err := credentials.ResolveGeminiAPIKey(ctx, cfg.GeminiAPIKey, nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to resolve gemini api key")
	}
	service, err := genai.NewService(ctx, cfg.GenAIBackend, genai.Options{
		APIKey:         apiKey,
		BaseURL:        cfg.GeminiBaseURL,
		ImageModel:     cfg.ImageModel,
		VideoModel:     cfg.VideoModel,
		Logger:         &logger,
		SyntheticPolls: cfg.SyntheticPolls,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build genai backend")
	}

	scratch, err := os.MkdirTemp("", "logoanimator-*")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create scratch directory")
	}
	defer os.RemoveAll(scratch)
	media, err := storage.NewFileStore(scratch)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare media storage")
	}

	st := studio.New(ctx, "", cfg.DefaultLocale, studio.Options{
		Images:           image.NewGeminiGenerator(service),
		Animator:         video.NewGeminiAnimator(service),
		Media:            media,
		Backend:          service.Name(),
		Logger:           &logger,
		PollInterval:     cfg.PollInterval,
		ProgressInterval: cfg.ProgressInterval,
		VideoTimeout:     cfg.VideoTimeout,
		MaxPollAttempts:  cfg.MaxPollAttempts,
	})
	defer st.Close()

	updates, cancel := st.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		var last string
		for snap := range updates {
			line := string(snap.Status)
			if snap.Progress != "" {
				line += ": " + snap.Progress
			}
			if line != last {
				fmt.Fprintln(os.Stderr, line)
				last = line
			}
		}
	}()

	err = run(ctx, st, *prompt, *imagePath, *aspect, *format, *out)
	cancel()
	<-done
	if err != nil {
		if msg := st.Snapshot().Error; msg != "" {
			fmt.Fprintln(os.Stderr, msg)
		}
		logger.Error().Err(err).Msg("animation failed")
		os.Exit(1)
	}
	fmt.Println(*out)
}

func run(ctx context.Context, st *studio.Studio, prompt, imagePath, aspect, format, out string) error {
	if _, err := st.SetAspectRatio(aspect); err != nil {
		return err
	}
	if imagePath != "" {
		data, err := os.ReadFile(imagePath)
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}
		if _, err := st.UploadImage(data); err != nil {
			return err
		}
	} else if err := st.GenerateLogo(ctx, prompt); err != nil {
		return err
	}
	if err := st.GenerateAnimation(ctx); err != nil {
		return err
	}
	dl, err := st.Download(ctx, format)
	if err != nil {
		return err
	}
	return os.WriteFile(out, dl.Data, 0o644)
}
