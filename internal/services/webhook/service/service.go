// Package service verifies webhook deliveries and applies repository snapshots
package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	perr "stackscout/internal/platform/errors"
	"stackscout/internal/platform/logger"
	"stackscout/internal/platform/net/http/bind"
	"stackscout/internal/services/webhook/domain"
)

const signaturePrefix = "sha256="

// Config carries the shared secret and the accepted clock skew
type Config struct {
	Secret    string
	Tolerance time.Duration
}

// Svc implements domain.ReceiverPort
type Svc struct {
	store   domain.SnapshotStore
	history domain.HistorySink
	cfg     Config
	log     *logger.Logger

	now   func() time.Time
	newID func() string
}

var _ domain.ReceiverPort = (*Svc)(nil)

// New constructs the webhook service, history may be nil
// with an empty secret every delivery is rejected
func New(store domain.SnapshotStore, history domain.HistorySink, cfg Config) *Svc {
	if store == nil {
		panic("webhook.Service requires a snapshot store")
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = 5 * time.Minute
	}
	s := &Svc{
		store:   store,
		history: history,
		cfg:     cfg,
		log:     logger.Named("webhook"),
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
	if cfg.Secret == "" {
		s.log.Warn().Msg("no webhook secret configured, all deliveries will be rejected")
	}
	return s
}

// Sign returns the signature header value for a body sent at ts
func Sign(secret, ts string, body []byte) string {
	return signaturePrefix + hex.EncodeToString(mac(secret, ts, body))
}

func mac(secret, ts string, body []byte) []byte {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(ts))
	h.Write([]byte{'.'})
	h.Write(body)
	return h.Sum(nil)
}

// Verify checks the signature over "<ts>.<body>" and the timestamp skew
func (s *Svc) Verify(signature, ts string, body []byte) error {
	if s.cfg.Secret == "" || signature == "" || ts == "" {
		return domain.ErrInvalidSignature
	}
	hexSig, ok := strings.CutPrefix(strings.TrimSpace(signature), signaturePrefix)
	if !ok {
		return domain.ErrInvalidSignature
	}
	got, err := hex.DecodeString(hexSig)
	if err != nil || !hmac.Equal(got, mac(s.cfg.Secret, ts, body)) {
		return domain.ErrInvalidSignature
	}

	sec, err := strconv.ParseInt(strings.TrimSpace(ts), 10, 64)
	if err != nil {
		return domain.ErrStaleTimestamp
	}
	skew := s.now().Sub(time.Unix(sec, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > s.cfg.Tolerance {
		return domain.ErrStaleTimestamp
	}
	return nil
}

// Parse decodes and validates a webhook body
func Parse(body []byte) (domain.Payload, error) {
	var p domain.Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return domain.Payload{}, perr.Tag(domain.ErrMalformedPayload, err)
	}
	if err := bind.Struct(p); err != nil {
		return domain.Payload{}, perr.Tag(domain.ErrMalformedPayload, err)
	}
	if p.EventType == "" {
		p.EventType = domain.EventRepoUpdated
	}
	return p, nil
}

// Receive verifies, stores and applies one delivery
// a rejected delivery mutates nothing
func (s *Svc) Receive(ctx context.Context, signature, ts string, body []byte) (domain.ApplyResult, error) {
	if err := s.Verify(signature, ts, body); err != nil {
		s.log.Warn().Err(err).Int("bytes", len(body)).Msg("webhook rejected")
		return domain.ApplyResult{}, err
	}
	p, err := Parse(body)
	if err != nil {
		return domain.ApplyResult{}, err
	}
	snap := p.Snapshot(s.newID())

	n, err := s.store.Apply(ctx, snap)
	if err != nil {
		return domain.ApplyResult{}, err
	}
	log := s.log.With().
		Str("repository", snap.RepositoryFullName).
		Str("snapshot_id", snap.ID).
		Time("captured_at", snap.CapturedAt).
		Logger()
	if s.history != nil {
		if err := s.history.Append(ctx, snap); err != nil {
			log.Warn().Err(err).Msg("snapshot history append failed")
		}
	}
	log.Info().Str("event_type", p.EventType).Int("updated_apps", n).Msg("snapshot applied")

	return domain.ApplyResult{
		RepoID:           snap.RepoID,
		SnapshotID:       snap.ID,
		UpdatedAppsCount: n,
		ProcessedAt:      s.now().UTC(),
	}, nil
}
