package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	apperrors "github.com/vortex-fintech/go-cadastro/foundation/errors"
	"github.com/vortex-fintech/go-cadastro/foundation/logger"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads exactly one JSON value and rejects unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return apperrors.InvalidArgument().WithReason("body_too_large").WithMessage("request body too large")
		}
		return apperrors.InvalidArgument().WithReason("malformed_json").WithMessage("malformed JSON body")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return apperrors.InvalidArgument().WithReason("malformed_json").WithMessage("body must hold a single JSON value")
	}
	return nil
}

func writeError(ctx context.Context, w http.ResponseWriter, log logger.LoggerInterface, err error) {
	resp := apperrors.ToErrorResponse(err)
	if status := apperrors.HTTPStatus(resp.Code); status >= 500 && !errors.Is(err, context.Canceled) {
		log.ErrorwCtx(ctx, "request failed", "status", status, "error", err)
	}
	resp.ToHTTP(w)
}
