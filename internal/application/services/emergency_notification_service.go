package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/zatekoja/postnatalcare/backend/internal/application/triage"
	"github.com/zatekoja/postnatalcare/backend/internal/domain/entities"
	"github.com/zatekoja/postnatalcare/backend/internal/domain/providers"
	"github.com/zatekoja/postnatalcare/backend/internal/domain/repositories"
	"github.com/zatekoja/postnatalcare/backend/internal/infrastructure/observability"
	"golang.org/x/sync/errgroup"
)

const maxConcurrentAlerts = 4

// EmergencyNotifier alerts a sender's emergency contacts about a red-tier report.
type EmergencyNotifier interface {
	NotifyContacts(ctx context.Context, senderID string, tags []entities.SymptomTag, lang entities.Language) error
}

// EmergencyNotificationService sends alerts over the messaging transport
type EmergencyNotificationService struct {
	contacts      repositories.EmergencyContactRepository
	sender        providers.MessageSender
	engine        *triage.Engine
	alertTemplate string
}

// NewEmergencyNotificationService creates the service. When alertTemplate is
// set, alerts go out as that pre-approved template with the symptom name as
// its only parameter; otherwise the rendered alert text is sent.
func NewEmergencyNotificationService(
	contacts repositories.EmergencyContactRepository,
	sender providers.MessageSender,
	engine *triage.Engine,
	alertTemplate string,
) *EmergencyNotificationService {
	return &EmergencyNotificationService{
		contacts:      contacts,
		sender:        sender,
		engine:        engine,
		alertTemplate: alertTemplate,
	}
}

// NotifyContacts messages every stored contact concurrently. A failed send
// does not stop the remaining contacts; all failures are returned joined.
func (s *EmergencyNotificationService) NotifyContacts(ctx context.Context, senderID string, tags []entities.SymptomTag, lang entities.Language) error {
	logger := observability.SenderLogger(ctx, senderID)

	if s.sender == nil {
		logger.Warn().Msg("no message sender configured, emergency contacts not notified")
		return nil
	}

	contacts, err := s.contacts.ListBySender(ctx, senderID)
	if err != nil {
		return fmt.Errorf("failed to load emergency contacts: %w", err)
	}
	if len(contacts) == 0 {
		logger.Info().Msg("red tier reported but sender has no emergency contacts")
		return nil
	}

	body := s.engine.EmergencyAlert(tags, lang)
	symptom := ""
	if len(tags) > 0 {
		symptom = s.engine.SymptomName(tags[0], lang)
	}

	errs := make([]error, len(contacts))
	var g errgroup.Group
	g.SetLimit(maxConcurrentAlerts)
	for i, contact := range contacts {
		g.Go(func() error {
			var messageID string
			var sendErr error
			if s.alertTemplate != "" {
				messageID, sendErr = s.sender.SendTemplate(ctx, contact.Phone, s.alertTemplate, string(lang), []string{symptom})
			} else {
				messageID, sendErr = s.sender.SendText(ctx, contact.Phone, body)
			}
			if sendErr != nil {
				errs[i] = fmt.Errorf("contact %s: %w", contact.ID, sendErr)
				return nil
			}
			logger.Info().Str("contact_id", contact.ID).Str("message_id", messageID).Msg("emergency contact notified")
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}
