package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEntries(t *testing.T) {
	cfg := fromEntries([]string{"PORT=9090", "DATABASE_URL=postgres://u:p@h/db?x=1", "EMPTY=", "BARE", ""})

	assert.Equal(t, "9090", cfg["PORT"])
	assert.Equal(t, "postgres://u:p@h/db?x=1", cfg["DATABASE_URL"])
	assert.Equal(t, "", cfg["EMPTY"])
	assert.Contains(t, cfg, "BARE")
}

func TestGetters(t *testing.T) {
	cfg := map[string]string{
		"PORT":         "9090",
		"BAD_INT":      "nine",
		"ENABLED":      "true",
		"TIMEOUT":      "15s",
		"BAD_TIMEOUT":  "-1s",
		"ORIGINS":      "https://a.dev, ,https://b.dev",
		"BLANK_STRING": "",
	}

	assert.Equal(t, 9090, GetInt(cfg, "PORT", 8080))
	assert.Equal(t, 8080, GetInt(cfg, "BAD_INT", 8080))
	assert.Equal(t, 8080, GetInt(nil, "PORT", 8080))
	assert.True(t, GetBool(cfg, "ENABLED", false))
	assert.False(t, GetBool(cfg, "MISSING", false))
	assert.Equal(t, 15*time.Second, GetDuration(cfg, "TIMEOUT", time.Second))
	assert.Equal(t, time.Second, GetDuration(cfg, "BAD_TIMEOUT", time.Second))
	assert.Equal(t, []string{"https://a.dev", "https://b.dev"}, GetList(cfg, "ORIGINS"))
	assert.Nil(t, GetList(cfg, "MISSING"))
	assert.Equal(t, "fallback", GetString(cfg, "BLANK_STRING", "fallback"))
}

type fakeParameterStore struct {
	pages [][]ssmtypes.Parameter
	err   error
	calls int
}

func (f *fakeParameterStore) GetParametersByPath(_ context.Context, _ *ssm.GetParametersByPathInput, _ ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	page := f.pages[f.calls]
	f.calls++
	out := &ssm.GetParametersByPathOutput{Parameters: page}
	if f.calls < len(f.pages) {
		out.NextToken = aws.String("next")
	}
	return out, nil
}

func TestOverlaySSM(t *testing.T) {
	store := &fakeParameterStore{pages: [][]ssmtypes.Parameter{
		{
			{Name: aws.String("/portfolio/prod/resend-api-key"), Value: aws.String("re_123")},
			{Name: aws.String("/portfolio/prod/JWT_SECRET"), Value: aws.String("from-ssm")},
		},
		{
			{Name: aws.String("/portfolio/prod/s3.bucket"), Value: aws.String("media")},
		},
	}}
	cfg := map[string]string{"JWT_SECRET": "from-env"}

	loaded, err := OverlaySSM(context.Background(), store, "/portfolio/prod", cfg)

	require.NoError(t, err)
	assert.Equal(t, 2, loaded)
	assert.Equal(t, 2, store.calls)
	assert.Equal(t, "re_123", cfg["RESEND_API_KEY"])
	assert.Equal(t, "media", cfg["S3_BUCKET"])
	assert.Equal(t, "from-env", cfg["JWT_SECRET"])
}

func TestOverlaySSM_Error(t *testing.T) {
	store := &fakeParameterStore{err: errors.New("access denied")}

	_, err := OverlaySSM(context.Background(), store, "/portfolio/prod", map[string]string{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestOverlaySSM_Disabled(t *testing.T) {
	loaded, err := OverlaySSM(context.Background(), nil, "", map[string]string{})

	require.NoError(t, err)
	assert.Zero(t, loaded)
}
