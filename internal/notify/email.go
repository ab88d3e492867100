package notify

import (
	"context"
	"fmt"
	"time"

	retry "github.com/avast/retry-go/v4"
	"github.com/wneessen/go-mail"

	"github.com/aureus-network/aureus-indexer/internal/chain"
	"github.com/aureus-network/aureus-indexer/internal/common"
	"github.com/aureus-network/aureus-indexer/internal/config"
	"github.com/aureus-network/aureus-indexer/internal/logger"
	"github.com/aureus-network/aureus-indexer/internal/store"
)

// EmailSender dispatches recipient notifications over SMTP. It is entirely
// best-effort: a disabled configuration, a wallet without a registered
// mailbox and a permanently failing relay all degrade to a skip or a logged
// failure, never to an indexing error.
type EmailSender struct {
	cfg      *config.EmailConfig
	client   *mail.Client
	renderer *Renderer
	contacts *store.NotificationStore
	log      *logger.Logger
}

// NewEmailSender creates an email sender. A nil or disabled configuration
// yields a sender that skips every event.
func NewEmailSender(
	cfg *config.EmailConfig,
	renderer *Renderer,
	contacts *store.NotificationStore,
	log *logger.Logger,
) (*EmailSender, error) {
	s := &EmailSender{
		cfg:      cfg,
		renderer: renderer,
		contacts: contacts,
		log:      log.WithComponent(common.ComponentEmailSender),
	}

	if cfg == nil || !cfg.Enabled {
		return s, nil
	}

	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}
	s.client = client

	return s, nil
}

// Enabled reports whether the sender has a configured relay.
func (s *EmailSender) Enabled() bool {
	return s.client != nil
}

// Send emails the event's recipient, when the event kind has an email
// rendering and the recipient has a registered contact.
func (s *EmailSender) Send(ctx context.Context, ev *chain.Event) error {
	if !s.Enabled() {
		return nil
	}

	content, ok, err := s.renderer.ContentFor(ctx, ev)
	if err != nil || !ok {
		return err
	}

	address, err := s.contacts.EmailForWallet(ctx, content.Recipient)
	if err != nil {
		return err
	}
	if address == "" {
		s.log.Debugf("no email contact for %s, skipping %s mail", content.Recipient, ev.Kind)
		return nil
	}

	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return fmt.Errorf("invalid sender address %q: %w", s.cfg.From, err)
	}
	if err := msg.To(address); err != nil {
		return fmt.Errorf("invalid recipient address %q: %w", address, err)
	}
	msg.Subject(content.Title)
	msg.SetBodyString(mail.TypeTextPlain, content.Message+"\n\n— the AUREUS network")

	err = retry.Do(
		func() error { return s.client.DialAndSendWithContext(ctx, msg) },
		retry.Context(ctx),
		retry.Attempts(uint(s.cfg.MaxAttempts)),
		retry.Delay(time.Second),
		retry.MaxDelay(30*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		DeliveryInc("email", "error")
		return fmt.Errorf("failed to send %s mail to %s: %w", ev.Kind, address, err)
	}

	DeliveryInc("email", "success")
	s.log.Debugf("sent %s mail to %s", ev.Kind, address)

	return nil
}
