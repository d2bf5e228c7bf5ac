package service

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/seoblog-api/internal/prompt"
	"github.com/noah-isme/seoblog-api/pkg/ai"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type imageGeneratorStub struct {
	outputs [][]byte
	errs    []error
	prompts []string
	calls   int
}

func (g *imageGeneratorStub) GenerateImage(ctx context.Context, req ai.ImageRequest) ([]byte, error) {
	i := g.calls
	g.calls++
	g.prompts = append(g.prompts, req.Prompt)
	if i < len(g.errs) && g.errs[i] != nil {
		return nil, g.errs[i]
	}
	return g.outputs[i], nil
}

type storageStub struct {
	names []string
}

func (s *storageStub) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	if _, err := io.ReadAll(reader); err != nil {
		return "", err
	}
	s.names = append(s.names, name)
	return "https://cdn.example.com/" + name, nil
}

type fetcherStub struct {
	files map[string][]byte
}

func (f *fetcherStub) FetchBytes(ctx context.Context, rawURL string) ([]byte, error) {
	data, ok := f.files[rawURL]
	if !ok {
		return nil, errors.New("404 Not Found")
	}
	return data, nil
}

func TestImageServiceKeepsSectionPositions(t *testing.T) {
	generator := &imageGeneratorStub{
		outputs: [][]byte{pngHeader, nil, []byte("plain text, not an image"), pngHeader},
		errs:    []error{nil, errors.New("content policy"), nil, nil},
	}
	storage := &storageStub{}

	svc := NewImageService(generator, storage, nil, prompt.NewBuilder(prompt.DefaultLimits()), "", testLogger())
	require.True(t, svc.Enabled())

	urls := svc.GenerateForSubtitles(context.Background(), "자동차 정비", []string{"a", "b", "c", "d"})
	require.Equal(t, []string{"https://cdn.example.com/section-1.png", "", "", "https://cdn.example.com/section-4.png"}, urls)
	require.Equal(t, 4, generator.calls)
	require.Contains(t, generator.prompts[0], "자동차 정비")
}

func TestImageServiceDisabledWithoutStorage(t *testing.T) {
	svc := NewImageService(&imageGeneratorStub{}, nil, nil, prompt.NewBuilder(prompt.DefaultLimits()), "", testLogger())
	require.False(t, svc.Enabled())
	require.Empty(t, svc.GenerateForSubtitles(context.Background(), "k", []string{"a"}))
}

func TestImageServiceDownloadDetectsType(t *testing.T) {
	fetcher := &fetcherStub{files: map[string][]byte{
		"https://cdn.example.com/section-1.png": pngHeader,
		"https://cdn.example.com/notes.txt":     []byte("plain text"),
	}}
	svc := NewImageService(nil, nil, fetcher, prompt.NewBuilder(prompt.DefaultLimits()), "", testLogger())

	file, err := svc.Download(context.Background(), "https://cdn.example.com/section-1.png")
	require.NoError(t, err)
	require.Equal(t, "image/png", file.ContentType)
	require.Equal(t, ".png", file.Extension)
	require.Equal(t, pngHeader, file.Data)

	_, err = svc.Download(context.Background(), "https://cdn.example.com/notes.txt")
	require.ErrorIs(t, err, ErrImageUnavailable)

	_, err = svc.Download(context.Background(), "https://cdn.example.com/missing.png")
	require.ErrorIs(t, err, ErrImageUnavailable)
}
