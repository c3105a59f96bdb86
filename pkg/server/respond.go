package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/api"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/auth"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/calendar"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/catalog"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/collaborators"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/exports"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/feedback"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/store"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/submissions"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/users"
)

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		api.WriteBadRequest(w, "Invalid request body")
		return false
	}
	return true
}

// principal returns the authenticated caller. Routes behind the JWT
// middleware always have one; a missing principal is answered with 401.
func principal(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	p, err := auth.GetPrincipal(r.Context())
	if err != nil {
		api.WriteUnauthorized(w, "Authentication required")
		return nil, false
	}
	return p, true
}

// writeServiceError maps domain errors to problem responses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, exports.ErrNotFound):
		api.WriteNotFound(w, "Resource not found")
	case errors.Is(err, users.ErrEmailTaken):
		api.WriteConflict(w, err.Error())
	case errors.Is(err, store.ErrConflict):
		api.WriteConflict(w, "Resource already exists")
	case errors.Is(err, feedback.ErrTransition):
		api.WriteConflict(w, err.Error())
	case errors.Is(err, submissions.ErrForbidden),
		errors.Is(err, users.ErrForbidden),
		errors.Is(err, users.ErrWrongPassword),
		errors.Is(err, collaborators.ErrForbidden),
		errors.Is(err, feedback.ErrForbidden):
		api.WriteForbidden(w, err.Error())
	case errors.Is(err, submissions.ErrInvalid),
		errors.Is(err, users.ErrInvalidProvisioning),
		errors.Is(err, collaborators.ErrInvalid),
		errors.Is(err, feedback.ErrInvalid),
		errors.Is(err, catalog.ErrUnknownKind):
		api.WriteUnprocessable(w, err.Error())
	case errors.Is(err, calendar.ErrInvalidDate),
		errors.Is(err, calendar.ErrRangeTooLong),
		errors.Is(err, calendar.ErrRangeInverted):
		api.WriteBadRequest(w, err.Error())
	default:
		api.WriteInternal(w, err)
	}
}

func queryInt(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

// queryKinds reads repeated or comma separated kind parameters.
func queryKinds(r *http.Request, key string) []catalog.Kind {
	var out []catalog.Kind
	for _, v := range r.URL.Query()[key] {
		for _, k := range strings.Split(v, ",") {
			if k = strings.TrimSpace(k); k != "" {
				out = append(out, catalog.Kind(k))
			}
		}
	}
	return out
}
