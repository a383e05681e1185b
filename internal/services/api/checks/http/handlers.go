// Package http exposes the validation endpoints
package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"time"

	"cleanse/internal/adapters/geocoder"
	"cleanse/internal/adapters/verifier"
	"cleanse/internal/core/verdict"
	"cleanse/internal/modkit/httpkit"
	perr "cleanse/internal/platform/errors"
	pnet "cleanse/internal/platform/net"
	phttp "cleanse/internal/platform/net/http"
	addrdomain "cleanse/internal/services/address/domain"
	dto "cleanse/internal/services/api/checks/domain"
	auditdomain "cleanse/internal/services/audit/domain"
	auditmod "cleanse/internal/services/audit/module"
	"cleanse/internal/services/batch"
	emaildomain "cleanse/internal/services/email/domain"
	namedomain "cleanse/internal/services/name/domain"
	phonedomain "cleanse/internal/services/phone/domain"

	"github.com/google/uuid"
)

// Handlers carries the validator ports the endpoints dispatch to
type Handlers struct {
	Email   emaildomain.ValidatorPort
	Phone   phonedomain.ValidatorPort
	Address addrdomain.ValidatorPort
	Name    namedomain.ValidatorPort

	Verifier verifier.Port // nil when disabled
	Geo      geocoder.Port // nil when disabled
	Sink     auditdomain.SinkPort

	Batch batch.Config
}

// MountRoutes registers the validation endpoints on r
func (h *Handlers) MountRoutes(r httpkit.Router) {
	phttp.PostJSON(r, "/validate/email", h.validateEmail)
	phttp.PostJSON(r, "/validate/phone", h.validatePhone)
	phttp.PostJSON(r, "/validate/address", h.validateAddress)
	phttp.PostJSON(r, "/validate/name", h.validateName)
	phttp.PostJSON(r, "/validate/batch", h.validateBatch)
}

func (h *Handlers) validateEmail(r *stdhttp.Request, in dto.EmailRequest) (any, error) {
	ctx := pnet.WithRequest(r.Context(), "", in.ClientID)
	res, err := h.Email.Validate(ctx, emaildomain.Input{Email: in.Email, ClientID: in.ClientID})
	if err != nil {
		return nil, err
	}
	auditmod.Record(ctx, h.Sink, "email", res)
	return res, nil
}

func (h *Handlers) validatePhone(r *stdhttp.Request, in dto.PhoneRequest) (any, error) {
	ctx := pnet.WithRequest(r.Context(), "", in.ClientID)
	res, err := h.Phone.Validate(ctx, phonedomain.Input{
		Phone:    in.Phone,
		Country:  in.Country,
		Strict:   in.Strict,
		ClientID: in.ClientID,
	})
	if err != nil {
		return nil, err
	}
	auditmod.Record(ctx, h.Sink, "phone", res)
	return res, nil
}

func (h *Handlers) validateAddress(r *stdhttp.Request, in dto.AddressRequest) (any, error) {
	ctx := pnet.WithRequest(r.Context(), "", in.ClientID)
	res, err := h.Address.Validate(ctx, addrdomain.Input{
		Address:    in.Address,
		Components: in.Components,
		ClientID:   in.ClientID,
	})
	if err != nil {
		return nil, err
	}
	auditmod.Record(ctx, h.Sink, "address", res)
	return res, nil
}

func (h *Handlers) validateName(r *stdhttp.Request, in dto.NameRequest) (any, error) {
	ctx := pnet.WithRequest(r.Context(), "", in.ClientID)
	res, err := h.Name.Validate(ctx, namedomain.Input{Name: in.Name, ClientID: in.ClientID})
	if err != nil {
		return nil, err
	}
	auditmod.Record(ctx, h.Sink, "name", res)
	return res, nil
}

func (h *Handlers) validateBatch(r *stdhttp.Request, in dto.BatchRequest) (any, error) {
	cfg := h.Batch
	if in.Concurrency > 0 {
		cfg.Concurrency = in.Concurrency
	}
	if in.DelayMs > 0 {
		cfg.Delay = time.Duration(in.DelayMs) * time.Millisecond
	}
	if in.ContinueOnError != nil {
		cfg.ContinueOnError = *in.ContinueOnError
	}

	fn, err := h.batchFn(in)
	if err != nil {
		return nil, err
	}
	ctx := pnet.WithRequest(r.Context(), "", in.ClientID)
	out, err := batch.Run(ctx, len(in.Items), cfg, fn)
	if err != nil {
		return nil, err
	}
	return dto.BatchResponse{
		BatchID:  uuid.NewString(),
		Field:    in.Field,
		Count:    len(out),
		Outcomes: out,
	}, nil
}

// batchFn builds the per-item dispatcher for a batch request
// Items may be bare strings or single-item request objects
func (h *Handlers) batchFn(in dto.BatchRequest) (batch.Fn, error) {
	items := in.Items
	switch in.Field {
	case "email":
		return func(ctx context.Context, i int) (*verdict.Result, error) {
			req := dto.EmailRequest{ClientID: in.ClientID}
			if err := decodeItem(items[i], &req.Email, &req); err != nil {
				return nil, err
			}
			res, err := h.Email.Validate(ctx, emaildomain.Input{Email: req.Email, ClientID: req.ClientID})
			if err == nil {
				auditmod.Record(ctx, h.Sink, "email", res)
			}
			return res, err
		}, nil
	case "phone":
		return func(ctx context.Context, i int) (*verdict.Result, error) {
			req := dto.PhoneRequest{ClientID: in.ClientID}
			if err := decodeItem(items[i], &req.Phone, &req); err != nil {
				return nil, err
			}
			res, err := h.Phone.Validate(ctx, phonedomain.Input{
				Phone: req.Phone, Country: req.Country, Strict: req.Strict, ClientID: req.ClientID,
			})
			if err == nil {
				auditmod.Record(ctx, h.Sink, "phone", res)
			}
			return res, err
		}, nil
	case "address":
		return func(ctx context.Context, i int) (*verdict.Result, error) {
			req := dto.AddressRequest{ClientID: in.ClientID}
			if err := decodeItem(items[i], &req.Address, &req); err != nil {
				return nil, err
			}
			res, err := h.Address.Validate(ctx, addrdomain.Input{
				Address: req.Address, Components: req.Components, ClientID: req.ClientID,
			})
			if err == nil {
				auditmod.Record(ctx, h.Sink, "address", res)
			}
			return res, err
		}, nil
	case "name":
		return func(ctx context.Context, i int) (*verdict.Result, error) {
			req := dto.NameRequest{ClientID: in.ClientID}
			if err := decodeItem(items[i], &req.Name, &req); err != nil {
				return nil, err
			}
			res, err := h.Name.Validate(ctx, namedomain.Input{Name: req.Name, ClientID: req.ClientID})
			if err == nil {
				auditmod.Record(ctx, h.Sink, "name", res)
			}
			return res, err
		}, nil
	}
	return nil, perr.Newf(perr.ErrorCodeValidation, "unsupported batch field %q", in.Field)
}

// decodeItem accepts either a JSON string into str or an object into obj
func decodeItem(raw json.RawMessage, str *string, obj any) error {
	if len(raw) > 0 && raw[0] == '"' {
		if err := json.Unmarshal(raw, str); err != nil {
			return perr.JSONErrf("invalid batch item: %v", err)
		}
		return nil
	}
	if err := json.Unmarshal(raw, obj); err != nil {
		return perr.JSONErrf("invalid batch item: %v", err)
	}
	return nil
}

// Health reports provider breaker states without making live calls
func (h *Handlers) Health(_ *stdhttp.Request) (any, error) {
	prov := map[string]string{
		"email_verifier": "disabled",
		"geocoder":       "disabled",
	}
	if h.Verifier != nil {
		prov["email_verifier"] = string(h.Verifier.BreakerState())
	}
	if h.Geo != nil {
		prov["geocoder"] = string(h.Geo.BreakerState())
	}
	return dto.HealthResponse{Status: "ok", Providers: prov}, nil
}
