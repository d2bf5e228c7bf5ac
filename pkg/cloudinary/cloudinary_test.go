package cloudinary

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestBuildPublicIDSanitisesName(t *testing.T) {
	at := time.Unix(0, 42)

	require.Equal(t, "section-1-42", buildPublicID("section 1.png", at))
	require.Equal(t, "image-42", buildPublicID("정비.png", at))
	require.Equal(t, "image-42", buildPublicID("", at))
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Config{CloudName: "demo"}, zerolog.Nop())
	require.Error(t, err)

	require.False(t, Config{CloudName: "demo", APIKey: "key"}.Configured())
	require.True(t, Config{CloudName: "demo", APIKey: "key", APISecret: "secret"}.Configured())
}
