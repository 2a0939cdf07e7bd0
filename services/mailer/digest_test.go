package mailer

import (
	"strings"
	"testing"
	"time"

	"github.com/jhillyerd/enmime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/permitleads/leadstack/internal/enum"
	"github.com/permitleads/leadstack/internal/rules"
)

func TestRenderTemplate_SubstitutesDate(t *testing.T) {
	runDate := time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)

	assert.Equal(t, "Leads for 2026-08-30", RenderTemplate("Leads for {{date}}", runDate))
	assert.Equal(t, "2026-08-30 and 2026-08-30", RenderTemplate("{{date}} and {{date}}", runDate))
	assert.Equal(t, "no placeholder here", RenderTemplate("no placeholder here", runDate))
}

func TestBuildDigestMime(t *testing.T) {
	template := rules.EmailTemplate{
		Subject: "New leads {{date}}",
		Body:    "Attached are your leads for {{date}}.",
		Format:  enum.DigestFormatCSV,
	}
	runDate := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	csvBody := []byte("permit_number,city\n2026-001,austin\n")

	mimeMessage, subject, err := BuildDigestMime(template, "leads@permitleads.io", "Jordan Rivera", "jordan@example.com", runDate, csvBody)
	require.NoError(t, err)
	assert.Equal(t, "New leads 2026-08-30", subject)

	envelope, err := enmime.ReadEnvelope(strings.NewReader(mimeMessage))
	require.NoError(t, err)

	assert.Equal(t, "New leads 2026-08-30", envelope.GetHeader("Subject"))
	assert.Contains(t, envelope.GetHeader("To"), "jordan@example.com")
	assert.Contains(t, envelope.Text, "2026-08-30")

	require.Len(t, envelope.Attachments, 1)
	assert.Equal(t, "leads-2026-08-30.csv", envelope.Attachments[0].FileName)
	assert.Equal(t, csvBody, envelope.Attachments[0].Content)
}
