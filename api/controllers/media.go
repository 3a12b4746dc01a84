package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/castellan-io/backoffice/api/middleware"
	"github.com/castellan-io/backoffice/api/responses"
	"github.com/castellan-io/backoffice/api/validators"
	"github.com/castellan-io/backoffice/internal/media"
	pkgerrors "github.com/castellan-io/backoffice/pkg/errors"
	"github.com/castellan-io/backoffice/pkg/logger"
)

// MediaPresign validates an upload request and returns a signed PUT URL.
func MediaPresign(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "media service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		uid, err := uuid.Parse(userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id"))
			return
		}

		var body media.PresignInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.PresignUpload(r.Context(), uid, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, resp)
	}
}
