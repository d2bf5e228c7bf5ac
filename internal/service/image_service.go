package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/noah-isme/seoblog-api/internal/observability"
	"github.com/noah-isme/seoblog-api/internal/prompt"
	"github.com/noah-isme/seoblog-api/pkg/ai"
)

// ErrImageUnavailable indicates a stored image could not be retrieved.
var ErrImageUnavailable = errors.New("image could not be downloaded")

// FileStorage abstracts upload destinations.
type FileStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// FileFetcher downloads stored files.
type FileFetcher interface {
	FetchBytes(ctx context.Context, rawURL string) ([]byte, error)
}

// ImageFile is a downloaded image with its detected type.
type ImageFile struct {
	Data        []byte
	ContentType string
	Extension   string
}

// ImageService produces one illustration per subtitle.
type ImageService interface {
	Enabled() bool
	GenerateForSubtitles(ctx context.Context, keyword string, subtitles []string) []string
	Download(ctx context.Context, url string) (ImageFile, error)
}

type imageService struct {
	generator ai.ImageGenerator
	storage   FileStorage
	fetcher   FileFetcher
	prompts   *prompt.Builder
	size      string
	logger    zerolog.Logger
}

// NewImageService constructs the image service. Without a generator or storage the
// service is disabled and returns no images.
func NewImageService(generator ai.ImageGenerator, storage FileStorage, fetcher FileFetcher, prompts *prompt.Builder, size string, logger zerolog.Logger) ImageService {
	if size == "" {
		size = "1024x1024"
	}
	return &imageService{
		generator: generator,
		storage:   storage,
		fetcher:   fetcher,
		prompts:   prompts,
		size:      size,
		logger:    logger.With().Str("component", "image_service").Logger(),
	}
}

func (s *imageService) Enabled() bool {
	return s.generator != nil && s.storage != nil
}

// GenerateForSubtitles returns one slot per subtitle holding the stored image URL.
// A slot stays empty when its image fails at any step. A disabled service returns
// no slots.
func (s *imageService) GenerateForSubtitles(ctx context.Context, keyword string, subtitles []string) []string {
	if !s.Enabled() {
		return []string{}
	}

	urls := make([]string, len(subtitles))
	for i, subtitle := range subtitles {
		if ctx.Err() != nil {
			break
		}
		url, err := s.generateOne(ctx, keyword, subtitle, i+1)
		if err != nil {
			s.logger.Warn().Err(err).Int("section", i+1).Str("subtitle", subtitle).Msg("section image skipped")
			continue
		}
		urls[i] = url
	}
	return urls
}

func (s *imageService) Download(ctx context.Context, url string) (ImageFile, error) {
	if s.fetcher == nil {
		return ImageFile{}, ErrImageUnavailable
	}

	data, err := s.fetcher.FetchBytes(ctx, url)
	if err != nil {
		s.logger.Warn().Err(err).Str("url", url).Msg("image download failed")
		return ImageFile{}, ErrImageUnavailable
	}

	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		s.logger.Warn().Str("url", url).Str("mime", mime.String()).Msg("stored file is not an image")
		return ImageFile{}, ErrImageUnavailable
	}

	return ImageFile{Data: data, ContentType: mime.String(), Extension: mime.Extension()}, nil
}

func (s *imageService) generateOne(ctx context.Context, keyword, subtitle string, index int) (string, error) {
	data, err := s.generator.GenerateImage(ctx, ai.ImageRequest{Prompt: s.prompts.Image(keyword, subtitle), Size: s.size})
	if err != nil {
		observability.Images().WithLabelValues("generate_failed").Inc()
		return "", fmt.Errorf("generate image: %w", err)
	}

	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		observability.Images().WithLabelValues("rejected").Inc()
		return "", fmt.Errorf("unexpected image content type %s", mime.String())
	}

	url, err := s.storage.Upload(ctx, fmt.Sprintf("section-%d%s", index, mime.Extension()), bytes.NewReader(data))
	if err != nil {
		observability.Images().WithLabelValues("upload_failed").Inc()
		return "", fmt.Errorf("store image: %w", err)
	}

	observability.Images().WithLabelValues("stored").Inc()
	return url, nil
}
