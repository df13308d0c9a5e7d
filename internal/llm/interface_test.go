package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Corphon/SceneBoard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct{ ImageProvider }

func (stubProvider) Name() string { return "stub" }

func TestRegistry(t *testing.T) {
	Register("stub-test", func(ctx context.Context, cfg ProviderConfig) (ImageProvider, error) {
		if cfg.APIKey == "" {
			return nil, ErrMissingAPIKey
		}
		return stubProvider{}, nil
	})

	p, err := GetProvider(context.Background(), "stub-test", ProviderConfig{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "stub", p.Name())

	_, err = GetProvider(context.Background(), "stub-test", ProviderConfig{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = GetProvider(context.Background(), "missing", ProviderConfig{})
	assert.ErrorIs(t, err, ErrUnknownProvider)

	assert.Contains(t, ListProviders(), "stub-test")
}

func TestSceneImageRequestReferencesBackgroundFirst(t *testing.T) {
	bg := models.ImageData{MIMEType: "image/png", Data: []byte("bg")}
	req := SceneImageRequest{
		Background: &bg,
		Characters: []models.ImageData{{MIMEType: "image/jpeg", Data: []byte("c1")}},
	}
	refs := req.References()
	require.Len(t, refs, 2)
	assert.Equal(t, "bg", string(refs[0].Data))

	req.Background = nil
	assert.Len(t, req.References(), 1)
}

func TestErrors(t *testing.T) {
	err := fmt.Errorf("wrap: %w", &BlockedError{Reason: "SAFETY"})
	blocked, ok := IsBlocked(err)
	require.True(t, ok)
	assert.Equal(t, "SAFETY", blocked.Reason)

	_, ok = IsBlocked(errors.New("PROMPT_BLOCKED: OTHER"))
	assert.True(t, ok)

	genErr := &GenerationError{Op: OpImageEdit, Err: context.DeadlineExceeded}
	assert.ErrorIs(t, genErr, context.DeadlineExceeded)
	assert.Equal(t, "Image editing failed: context deadline exceeded", genErr.Error())
	assert.Equal(t, "Image generation failed: no image", (&GenerationError{Op: OpSceneGeneration, Reason: "no image"}).Error())
}
