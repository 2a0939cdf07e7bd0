package mailer

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jhillyerd/enmime"
	"github.com/pkg/errors"

	"github.com/permitleads/leadstack/internal/rules"
	"github.com/permitleads/leadstack/internal/utils"
)

const digestSenderName = "Permit Leads"

// RenderTemplate substitutes the {{date}} placeholder in a template string
// with the run date formatted as 2006-01-02.
func RenderTemplate(text string, runDate time.Time) string {
	return strings.ReplaceAll(text, "{{date}}", runDate.Format(utils.DateLayout))
}

// BuildDigestMime assembles the full MIME message for one digest: rendered
// subject and body plus the CSV attachment.
func BuildDigestMime(template rules.EmailTemplate, fromAddress, toName, toAddress string, runDate time.Time, attachment []byte) (string, string, error) {
	subject := RenderTemplate(template.Subject, runDate)
	body := RenderTemplate(template.Body, runDate)

	builder := enmime.Builder().
		From(digestSenderName, fromAddress).
		To(toName, toAddress).
		Subject(subject).
		Text([]byte(body)).
		AddAttachment(attachment, "text/csv", attachmentFilename(runDate))

	part, err := builder.Build()
	if err != nil {
		return "", "", errors.Wrap(err, "failed to build digest MIME message")
	}

	var buf bytes.Buffer
	if err := part.Encode(&buf); err != nil {
		return "", "", errors.Wrap(err, "failed to encode digest MIME message")
	}

	return buf.String(), subject, nil
}

func attachmentFilename(runDate time.Time) string {
	return fmt.Sprintf("leads-%s.csv", runDate.Format(utils.DateLayout))
}
