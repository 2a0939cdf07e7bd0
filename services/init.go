package services

import (
	"github.com/pkg/errors"

	"github.com/permitleads/leadstack/config"
	"github.com/permitleads/leadstack/interfaces"
	"github.com/permitleads/leadstack/internal/logger"
	"github.com/permitleads/leadstack/internal/repository"
	"github.com/permitleads/leadstack/services/distributor"
	"github.com/permitleads/leadstack/services/events"
	"github.com/permitleads/leadstack/services/mailer"
	"github.com/permitleads/leadstack/services/storage"
)

type Services struct {
	Publisher     *events.RabbitMQPublisher
	DigestStorage interfaces.StorageService
	Dispatcher    interfaces.Dispatcher
	Distributor   *distributor.Service
}

func InitServices(cfg *config.Config, log logger.Logger, repos *repository.Repositories) (*Services, error) {
	if cfg.AppConfig.RabbitMQURL == "" {
		return nil, errors.New("RABBITMQ_URL is not configured")
	}

	publisherConfig := &events.PublisherConfig{
		MessageTTL:          events.DefaultMessageTTL,
		MaxRetries:          events.DefaultMaxRetries,
		PublishTimeout:      events.DefaultPublishTimeout,
		ReconnectBackoff:    events.DefaultReconnectBackoff,
		MaxReconnectBackoff: events.DefaultMaxReconnectBackoff,
	}
	publisher, err := events.NewRabbitMQPublisher(cfg.AppConfig.RabbitMQURL, log, publisherConfig)
	if err != nil {
		return nil, err
	}

	// Archiving is optional; without credentials digests are dispatched unarchived.
	var digestStorage interfaces.StorageService
	if cfg.DigestStorageConfig.AccessKeyID != "" {
		digestStorage = storage.NewS3StorageService(
			cfg.DigestStorageConfig.Region,
			cfg.DigestStorageConfig.AccessKeyID,
			cfg.DigestStorageConfig.AccessKeySecret,
			cfg.DigestStorageConfig.DigestBucket,
		)
	}

	dispatcher := mailer.NewAmqpDispatcher(publisher, digestStorage, log)

	engine := distributor.NewService(
		repos.PermitRepository,
		repos.ClientRepository,
		repos.AutomationClassRepository,
		repos.LeadRepository,
		dispatcher,
		log,
	)

	return &Services{
		Publisher:     publisher,
		DigestStorage: digestStorage,
		Dispatcher:    dispatcher,
		Distributor:   engine,
	}, nil
}
