package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rpupo63/team-portfolio-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSender struct {
	calls int
	err   error
}

func (c *countingSender) SendPendingDigest(ctx context.Context) (int, error) {
	c.calls++
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("expected a deadline")
	}
	return 2, c.err
}

func TestStartPendingDigest_InvalidCron(t *testing.T) {
	_, err := StartPendingDigest(&countingSender{}, "not a cron", time.Second)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a cron")
}

func TestStartPendingDigest_Starts(t *testing.T) {
	s, err := StartPendingDigest(&countingSender{}, "", time.Second)
	require.NoError(t, err)

	require.Len(t, s.Jobs(), 1)
	assert.Equal(t, "pending-digest", s.Jobs()[0].Name())
	assert.NoError(t, s.Shutdown())
}

func TestRunDigest(t *testing.T) {
	sender := &countingSender{}
	runDigest(sender, time.Second)
	assert.Equal(t, 1, sender.calls)

	sender.err = errors.New("db down")
	runDigest(sender, time.Second)
	assert.Equal(t, 2, sender.calls)
}

func TestMessages(t *testing.T) {
	approved := moderationMessage(`Alpha <beta>`, models.ActionApprove, "ignored")
	assert.Contains(t, approved.Subject, "approved")
	assert.Contains(t, approved.HTML, "Alpha &lt;beta&gt;")
	assert.NotContains(t, approved.Text, "ignored")

	rejected := moderationMessage("Alpha", models.ActionReject, "")
	assert.NotContains(t, rejected.Text, "Reason")

	assert.Equal(t, "1 project is awaiting review", digestMessage(1).Subject)
}

func TestModerationMessage_KeepsNameVerbatim(t *testing.T) {
	name := `Tom's "Best" App`

	approved := moderationMessage(name, models.ActionApprove, "")
	assert.Equal(t, `Your project "Tom's "Best" App" was approved`, approved.Subject)
	assert.Contains(t, approved.Text, name)
	assert.NotContains(t, approved.Text, `"`)
	assert.Contains(t, approved.HTML, "Tom&#39;s &#34;Best&#34; App")

	rejected := moderationMessage(name, models.ActionReject, "needs a README")
	assert.Equal(t, `Your project "Tom's "Best" App" was not approved`, rejected.Subject)
	assert.Contains(t, rejected.Text, name)
	assert.NotContains(t, rejected.Subject, `"`)
}
