package mailer

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/permitleads/leadstack/dto"
	"github.com/permitleads/leadstack/interfaces"
	"github.com/permitleads/leadstack/internal/logger"
	"github.com/permitleads/leadstack/internal/tracing"
	"github.com/permitleads/leadstack/services/events"
	"github.com/permitleads/leadstack/services/exporter"
	"github.com/permitleads/leadstack/services/storage"
)

const defaultFromAddress = "leads@permitleads.io"

// AmqpDispatcher renders digests and hands them to the external mailer via
// RabbitMQ. Rendered CSVs are archived to object storage; archive failures
// are logged but never block dispatch.
type AmqpDispatcher struct {
	publisher      *events.RabbitMQPublisher
	digestStorage  interfaces.StorageService
	log            logger.Logger
	fromAddress    string
	archiveEnabled bool
}

func NewAmqpDispatcher(publisher *events.RabbitMQPublisher, digestStorage interfaces.StorageService, log logger.Logger) *AmqpDispatcher {
	return &AmqpDispatcher{
		publisher:      publisher,
		digestStorage:  digestStorage,
		log:            log,
		fromAddress:    defaultFromAddress,
		archiveEnabled: digestStorage != nil,
	}
}

func (d *AmqpDispatcher) Dispatch(ctx context.Context, request *interfaces.DigestRequest) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "AmqpDispatcher.Dispatch")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("automationClassId", request.Class.ID)
	span.SetTag("leadCount", len(request.Leads))

	if len(request.Leads) == 0 {
		return nil
	}
	if request.Client == nil || request.Client.Email == "" {
		err := errors.Errorf("automation class %s has no deliverable client email", request.Class.ID)
		tracing.TraceErr(span, err)
		return err
	}

	runDate := time.Now().UTC()

	csvBody, err := exporter.RenderCSV(request.Permits)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	mimeMessage, subject, err := BuildDigestMime(request.Template, d.fromAddress, request.Client.Name, request.Client.Email, runDate, csvBody)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	archiveKey := ""
	if d.archiveEnabled {
		archiveKey = storage.DigestArchiveKey(request.Class.ID, runDate, "csv")
		if err := d.digestStorage.Upload(ctx, archiveKey, csvBody, "text/csv"); err != nil {
			tracing.TraceErr(span, err)
			d.log.Warnf("Failed to archive digest for class %s: %v", request.Class.ID, err)
			archiveKey = ""
		}
	}

	message := dto.SendDigest{
		AutomationClassID: request.Class.ID,
		ClientID:          request.Client.ID,
		ClientEmail:       request.Client.Email,
		Subject:           subject,
		LeadIDs:           leadIDs(request),
		PermitIDs:         permitIDs(request),
		MimeMessage:       mimeMessage,
		ArchiveKey:        archiveKey,
	}

	if err := d.publisher.PublishSendDigestEvent(ctx, message); err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrapf(err, "failed to publish digest for class %s", request.Class.ID)
	}

	d.log.Infof("Dispatched digest for class %s with %d leads to %s", request.Class.ID, len(request.Leads), request.Client.Email)
	return nil
}

func leadIDs(request *interfaces.DigestRequest) []string {
	ids := make([]string, 0, len(request.Leads))
	for _, lead := range request.Leads {
		ids = append(ids, lead.ID)
	}
	return ids
}

func permitIDs(request *interfaces.DigestRequest) []string {
	ids := make([]string, 0, len(request.Permits))
	for _, permit := range request.Permits {
		ids = append(ids, permit.ID)
	}
	return ids
}
