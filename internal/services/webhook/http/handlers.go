// Package http exposes the repository webhook endpoint
package http

import (
	"io"
	stdhttp "net/http"

	"stackscout/internal/modkit/httpkit"
	perr "stackscout/internal/platform/errors"
	"stackscout/internal/services/webhook/domain"
)

// Header names carried by every delivery
const (
	HeaderSignature = "X-Stackscout-Signature"
	HeaderTimestamp = "X-Stackscout-Timestamp"
)

// MaxBody caps the accepted webhook body
const MaxBody = 1 << 20

// Register mounts the webhook endpoint on the given router
func Register(r httpkit.Router, s domain.ReceiverPort) {
	h := &handlers{svc: s}
	r.Post("/repository", httpkit.Handle(h.repository))
}

type handlers struct{ svc domain.ReceiverPort }

type reply struct {
	Success bool                `json:"success"`
	Data    *domain.ApplyResult `json:"data,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// swagger:route POST /webhooks/repository Webhooks repositoryWebhook
// @Summary Apply a repository snapshot pushed by the metadata service
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param X-Stackscout-Signature header string true "sha256=<hex hmac of timestamp.body>"
// @Param X-Stackscout-Timestamp header string true "unix seconds"
// @Success 200 {object} map[string]interface{} "applied"
// @Failure 400 {object} map[string]interface{} "malformed payload"
// @Failure 401 {object} map[string]interface{} "bad signature or stale timestamp"
// @Router /webhooks/repository [post]
func (h *handlers) repository(r *stdhttp.Request) httpkit.Response {
	body, err := io.ReadAll(stdhttp.MaxBytesReader(nil, r.Body, MaxBody))
	if err != nil {
		return failure(perr.Tag(domain.ErrMalformedPayload, err))
	}
	res, err := h.svc.Receive(r.Context(), r.Header.Get(HeaderSignature), r.Header.Get(HeaderTimestamp), body)
	if err != nil {
		return failure(err)
	}
	return httpkit.Raw(stdhttp.StatusOK, reply{Success: true, Data: &res})
}

func failure(err error) httpkit.Response {
	status := perr.HTTPStatus(err)
	msg := perr.WireFrom(err).Message
	if status >= stdhttp.StatusInternalServerError {
		msg = stdhttp.StatusText(status)
	}
	return httpkit.Raw(status, reply{Error: msg})
}
