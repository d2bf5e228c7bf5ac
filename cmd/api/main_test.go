package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/seoblog-api/internal/config"
)

func TestBuildProviderRequiresOpenAIKey(t *testing.T) {
	provider, images, err := buildProvider(context.Background(), config.Config{AIProvider: config.ProviderOpenAI})
	require.Error(t, err)
	require.Nil(t, provider)
	require.Nil(t, images)
}

func TestBuildProviderUsesOpenAIForTextAndImages(t *testing.T) {
	provider, images, err := buildProvider(context.Background(), config.Config{
		AIProvider:   config.ProviderOpenAI,
		OpenAIAPIKey: "sk-test",
		AIModel:      "gpt-4o-mini",
	})
	require.NoError(t, err)
	require.NotNil(t, provider)
	require.NotNil(t, images)
	require.Equal(t, "openai", provider.Name())
	require.Equal(t, "gpt-4o-mini", provider.Model())
}
