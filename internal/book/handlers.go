package book

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"bookgate/internal/auth"
	"bookgate/internal/httputils"
	"bookgate/internal/observability/logging"
	"bookgate/internal/observability/metrics"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// maxBodySize caps request bodies
const maxBodySize = 1 << 20

// Handler serves the book HTTP API. Mutating handlers expect the identity
// placed in the request context by the authentication and authorization
// stages.
type Handler struct {
	store    Store
	validate *validator.Validate
	logger   *logging.Logger
	metrics  *metrics.Collector
}

// NewHandler creates the book API handler
func NewHandler(store Store, logger *logging.Logger, metrics *metrics.Collector) *Handler {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &Handler{
		store:    store,
		validate: validate,
		logger:   logger.WithModule("book"),
		metrics:  metrics,
	}
}

// List handles GET /books/
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	books, err := h.store.List(r.Context())
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	summaries := make([]Summary, 0, len(books))
	for _, b := range books {
		summaries = append(summaries, b.Summary())
	}
	_ = httputils.WriteJSON(w, http.StatusOK, summaries)
}

// Get handles GET /books/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(r)
	if !ok {
		writeNotFound(w)
		return
	}

	b, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	_ = httputils.WriteJSON(w, http.StatusOK, b)
}

// Create handles POST /books/
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	in, err := h.decodeInput(r)
	if err != nil {
		writeBodyError(w, err)
		return
	}

	b, err := h.store.Create(r.Context(), in.NewBook(identity.ID))
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	h.metrics.RecordBookMutation("create")
	logging.FromContext(r.Context(), h.logger).Info("Book created", "book_id", b.ID, "user", logging.Subject(identity.ID))
	_ = httputils.WriteJSON(w, http.StatusCreated, b)
}

// Replace handles PUT /books/{id}
func (h *Handler) Replace(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	id, ok := bookID(r)
	if !ok {
		writeNotFound(w)
		return
	}

	in, err := h.decodeInput(r)
	if err != nil {
		writeBodyError(w, err)
		return
	}

	b, err := h.store.Update(r.Context(), id, func(b *Book) {
		in.Replace(b, identity.ID)
	})
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	h.metrics.RecordBookMutation("replace")
	logging.FromContext(r.Context(), h.logger).Info("Book replaced", "book_id", b.ID, "user", logging.Subject(identity.ID))
	_ = httputils.WriteJSON(w, http.StatusOK, b)
}

// Patch handles PATCH /books/{id}
func (h *Handler) Patch(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	id, ok := bookID(r)
	if !ok {
		writeNotFound(w)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeBodyError(w, err)
		return
	}
	patch, err := DecodePatch(body)
	if err != nil {
		writeBodyError(w, err)
		return
	}

	b, err := h.store.Update(r.Context(), id, func(b *Book) {
		patch.Apply(b, identity.ID)
	})
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	h.metrics.RecordBookMutation("patch")
	logging.FromContext(r.Context(), h.logger).Info("Book patched",
		"book_id", b.ID,
		"fields", patch.Fields(),
		"user", logging.Subject(identity.ID),
	)
	_ = httputils.WriteJSON(w, http.StatusOK, b)
}

// Delete handles DELETE /books/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	id, ok := bookID(r)
	if !ok {
		writeNotFound(w)
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	h.metrics.RecordBookMutation("delete")
	logging.FromContext(r.Context(), h.logger).Info("Book deleted", "book_id", id, "user", logging.Subject(identity.ID))
	w.WriteHeader(http.StatusNoContent)
}

// identity returns the caller identity or answers 401
func (h *Handler) identity(w http.ResponseWriter, r *http.Request) (*auth.Identity, bool) {
	identity, ok := auth.Authenticated(r.Context())
	if !ok {
		httputils.WriteUnauthorized(w)
	}
	return identity, ok
}

// decodeInput parses and validates a full book body
func (h *Handler) decodeInput(r *http.Request) (Input, error) {
	var in Input
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&in); err != nil {
		return Input{}, err
	}
	if err := h.validate.Struct(in); err != nil {
		return Input{}, err
	}
	return in, nil
}

func bookID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id, err == nil
}

func writeNotFound(w http.ResponseWriter) {
	httputils.WriteError(w, http.StatusNotFound, "Not Found")
}

// writeBodyError answers 422 for any rejected request body
func writeBodyError(w http.ResponseWriter, err error) {
	var (
		verrs validator.ValidationErrors
		ferr  *FieldError
	)
	switch {
	case errors.As(err, &verrs):
		fields := make([]httputils.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, httputils.FieldError{Field: fe.Field(), Tag: fe.Tag()})
		}
		httputils.WriteValidation(w, "Validation Error", fields)
	case errors.Is(err, ErrPrimaryKeyPatch):
		httputils.WriteValidation(w, "Primary key passed in patch update data",
			[]httputils.FieldError{{Field: "id", Tag: "readonly"}})
	case errors.As(err, &ferr):
		httputils.WriteValidation(w, "Validation Error",
			[]httputils.FieldError{{Field: ferr.Field, Tag: ferr.Tag}})
	default:
		httputils.WriteValidation(w, "Invalid request body", nil)
	}
}

// databaseErrorBody is the 422 document for statements the database rejected
type databaseErrorBody struct {
	Detail   string           `json:"detail"`
	DBErrors []*DatabaseError `json:"db_errors,omitempty"`
}

// writeStoreError maps store failures to responses
func (h *Handler) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeNotFound(w)
	case errors.Is(err, ErrDatabase):
		logging.FromContext(r.Context(), h.logger).Warn("Book store rejected request", logging.Err(err))
		body := databaseErrorBody{Detail: "Database Error"}
		var dbErr *DatabaseError
		if errors.As(err, &dbErr) {
			body.DBErrors = []*DatabaseError{dbErr}
		}
		_ = httputils.WriteJSON(w, http.StatusUnprocessableEntity, body)
	default:
		logging.FromContext(r.Context(), h.logger).Error("Book store failed", logging.Err(err))
		httputils.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}
