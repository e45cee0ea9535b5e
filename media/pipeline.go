package media

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Generator is the subset of Client the Pipeline needs.
type Generator interface {
	GenerateSpeech(ctx context.Context, req SpeechRequest) (SpeechResponse, error)
	GenerateVideo(ctx context.Context, req VideoRequest) (VideoResponse, error)
}

var _ Generator = (*Client)(nil)

// Result names the objects a pipeline run produced.
type Result struct {
	AudioKey string
	VideoKey string
	Elapsed  time.Duration
}

// Pipeline turns a transcript and a photo into a talking video: the
// transcript is synthesised first, then the photo is animated with it.
type Pipeline struct {
	gen    Generator
	logger *slog.Logger
}

func NewPipeline(gen Generator, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{gen: gen, logger: logger}
}

// Create runs the pipeline. voiceKey may be empty to use the default voice.
func (p *Pipeline) Create(ctx context.Context, transcript, photoKey, voiceKey string) (Result, error) {
	transcript = strings.TrimSpace(transcript)
	photoKey = strings.TrimSpace(photoKey)
	voiceKey = strings.TrimSpace(voiceKey)

	if transcript == "" {
		return Result{}, fmt.Errorf("%w: transcript is required", ErrInvalidRequest)
	}
	if photoKey == "" {
		return Result{}, fmt.Errorf("%w: photo key is required", ErrInvalidRequest)
	}

	start := time.Now()

	speech, err := p.gen.GenerateSpeech(ctx, SpeechRequest{Text: transcript, VoiceKey: voiceKey})
	if err != nil {
		return Result{}, fmt.Errorf("speech: %w", err)
	}
	if speech.Key == "" {
		return Result{}, fmt.Errorf("speech: empty audio key")
	}

	video, err := p.gen.GenerateVideo(ctx, VideoRequest{
		Transcript: transcript,
		PhotoKey:   photoKey,
		AudioKey:   speech.Key,
	})
	if err != nil {
		return Result{}, fmt.Errorf("video: %w", err)
	}
	if video.Key == "" {
		return Result{}, fmt.Errorf("video: empty video key")
	}

	res := Result{AudioKey: speech.Key, VideoKey: video.Key, Elapsed: time.Since(start)}
	p.logger.InfoContext(ctx, "video created", "audio_key", res.AudioKey, "video_key", res.VideoKey, "elapsed", res.Elapsed)
	return res, nil
}
