// Package distribution drives the credential delivery pipeline: encode ->
// sign -> QR image -> asset upload -> email, with pending/sending/sent/failed
// status tracking on the attendee row.
package distribution

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"festpass/internal/attendee"
	"festpass/internal/cloudinary"
	"festpass/internal/credential"
	"festpass/internal/mailer"
)

var (
	// ErrForbidden rejects distribution calls from operators without the
	// superuser flag.
	ErrForbidden = errors.New("operator not authorized for distribution")
	// ErrNotFound means the target attendee row does not exist.
	ErrNotFound = errors.New("attendee not found")
	// ErrMissingField means a required field was absent, so no credential
	// was issued.
	ErrMissingField = errors.New("attendee missing required field")
)

var sendsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "festpass_credential_sends_total",
	Help: "Credential send attempts by kind and outcome.",
}, []string{"kind", "outcome"})

// Store is the persistence surface the pipeline needs. *attendee.Repository
// satisfies it.
type Store interface {
	Get(ctx context.Context, kind attendee.Kind, id int64) (*attendee.Attendee, error)
	ListUnsent(ctx context.Context, kind attendee.Kind, limit int) ([]attendee.Attendee, error)
	UpdateStatus(ctx context.Context, kind attendee.Kind, id int64, status, reason string) error
	SetToken(ctx context.Context, kind attendee.Kind, id int64, token string) error
	SetQRCode(ctx context.Context, kind attendee.Kind, id int64, url string) error
}

// Uploader stores a named PNG and returns its durable public URL.
type Uploader interface {
	Upload(data []byte, publicID string) (string, error)
}

// Mailer delivers one HTML email with attachments.
type Mailer interface {
	Send(to, subject, html string, attachments []mailer.Attachment) error
}

// Notifier rebroadcasts row changes after status updates.
type Notifier interface {
	RowChanged(ctx context.Context, table string, id int64, op string)
}

// CloudinaryUploader adapts the cloudinary client to the Uploader surface.
type CloudinaryUploader struct {
	Client *cloudinary.Client
}

func (u CloudinaryUploader) Upload(data []byte, publicID string) (string, error) {
	res, err := u.Client.Upload(data, publicID)
	if err != nil {
		return "", err
	}
	return res.SecureURL, nil
}

// Service orchestrates credential distribution.
type Service struct {
	store    Store
	uploader Uploader
	mailer   Mailer
	notifier Notifier

	secret   string
	issuer   string
	tokenTTL time.Duration
	batchCap int
}

// NewService wires the pipeline. notifier may be nil.
func NewService(store Store, uploader Uploader, m Mailer, notifier Notifier, secret, issuer string, tokenTTL time.Duration, batchCap int) *Service {
	if tokenTTL <= 0 {
		tokenTTL = 72 * time.Hour
	}
	if batchCap <= 0 {
		batchCap = 200
	}
	return &Service{
		store:    store,
		uploader: uploader,
		mailer:   m,
		notifier: notifier,
		secret:   secret,
		issuer:   issuer,
		tokenTTL: tokenTTL,
		batchCap: batchCap,
	}
}

// AssetName is the deterministic public id for an attendee's QR image, so a
// resend overwrites the previous asset in place.
func AssetName(kind attendee.Kind, id int64) string {
	return fmt.Sprintf("qr_%s_%d", kind, id)
}

// InitiateSend runs the full delivery pipeline for one attendee. Steps run
// strictly in sequence; any failure persists status=failed with the failure
// message as the reason and stops the pipeline. A retry or resend re-invokes
// the whole pipeline from scratch.
func (s *Service) InitiateSend(ctx context.Context, op attendee.Organizer, kind attendee.Kind, id int64) error {
	if !op.IsGod {
		return ErrForbidden
	}

	if err := s.store.UpdateStatus(ctx, kind, id, attendee.StatusSending, ""); err != nil {
		return fmt.Errorf("set sending status: %w", err)
	}

	att, err := s.store.Get(ctx, kind, id)
	if err != nil {
		return s.fail(ctx, kind, id, err)
	}
	if att == nil {
		return ErrNotFound
	}

	payload, err := credential.Encode(*att)
	if err != nil {
		// Refuse to issue an incomplete credential; the reason lands on the row.
		_ = s.fail(ctx, kind, id, err)
		return fmt.Errorf("%w: %v", ErrMissingField, err)
	}

	token, err := credential.Sign(payload, s.secret, s.issuer, s.tokenTTL)
	if err != nil {
		return s.fail(ctx, kind, id, fmt.Errorf("sign credential: %w", err))
	}
	payload.Token = token
	if err := s.store.SetToken(ctx, kind, id, token); err != nil {
		return s.fail(ctx, kind, id, fmt.Errorf("persist token: %w", err))
	}

	png, err := credential.PNG(payload)
	if err != nil {
		return s.fail(ctx, kind, id, err)
	}

	name := AssetName(kind, id)
	url, err := s.uploader.Upload(png, name)
	if err != nil {
		return s.fail(ctx, kind, id, err)
	}
	if err := s.store.SetQRCode(ctx, kind, id, url); err != nil {
		return s.fail(ctx, kind, id, fmt.Errorf("persist qrcode url: %w", err))
	}

	subject, body, err := renderEmail(kind, *att)
	if err != nil {
		return s.fail(ctx, kind, id, err)
	}
	err = s.mailer.Send(att.Email, subject, body, []mailer.Attachment{{
		Filename:    name + ".png",
		Content:     png,
		ContentType: "image/png",
	}})
	if err != nil {
		return s.fail(ctx, kind, id, err)
	}

	if err := s.store.UpdateStatus(ctx, kind, id, attendee.StatusSent, ""); err != nil {
		return fmt.Errorf("set sent status: %w", err)
	}
	sendsTotal.WithLabelValues(string(kind), "sent").Inc()
	if s.notifier != nil {
		s.notifier.RowChanged(ctx, kind.Table(), id, "UPDATE")
	}
	return nil
}

// SendAll walks attendees whose credential has not gone out and sends
// sequentially to bound SMTP throughput, stopping at the batch cap.
// Per-row failures are recorded on the row and iteration continues.
func (s *Service) SendAll(ctx context.Context, op attendee.Organizer, kind attendee.Kind) (int, error) {
	if !op.IsGod {
		return 0, ErrForbidden
	}
	pending, err := s.store.ListUnsent(ctx, kind, s.batchCap)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, att := range pending {
		if err := s.InitiateSend(ctx, op, kind, att.ID); err != nil {
			log.Printf("distribution: send to %s %d failed: %v", kind, att.ID, err)
			continue
		}
		sent++
	}
	return sent, nil
}

// fail records the failure reason on the row and propagates the error.
func (s *Service) fail(ctx context.Context, kind attendee.Kind, id int64, cause error) error {
	if err := s.store.UpdateStatus(ctx, kind, id, attendee.StatusFailed, cause.Error()); err != nil {
		log.Printf("distribution: persist failure for %s %d: %v", kind, id, err)
	}
	sendsTotal.WithLabelValues(string(kind), "failed").Inc()
	if s.notifier != nil {
		s.notifier.RowChanged(ctx, kind.Table(), id, "UPDATE")
	}
	return cause
}
