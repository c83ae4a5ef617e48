package blanketorderhttp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/blanketorder/internal/blanketorder"
	"github.com/odyssey-erp/blanketorder/internal/form"
	"github.com/odyssey-erp/blanketorder/internal/platform/httpx"
	"github.com/odyssey-erp/blanketorder/internal/terms"
)

const defaultSettleTimeout = 5 * time.Second

// Opener opens a bound Blanket Order form.
type Opener interface {
	Open(ctx context.Context, doc blanketorder.Document) (*form.Form, error)
}

// TermsLister lists the templates a terms link field may pick.
type TermsLister interface {
	List(ctx context.Context, filter terms.Filter) ([]terms.Template, error)
}

// Handler serves Blanket Order form sessions.
type Handler struct {
	logger    *slog.Logger
	opener    Opener
	store     *Store
	terms     TermsLister
	validator *validator.Validate

	settleTimeout time.Duration
}

// NewHandler builds the handler. termsLister may be nil.
func NewHandler(logger *slog.Logger, opener Opener, store *Store, termsLister TermsLister) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:        logger,
		opener:        opener,
		store:         store,
		terms:         termsLister,
		validator:     validator.New(),
		settleTimeout: defaultSettleTimeout,
	}
}

func (h *Handler) open(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.respondValidation(w, err)
		return
	}
	f, err := h.opener.Open(r.Context(), req.Document)
	if err != nil {
		h.logger.Error("open blanket order form", slog.String("name", req.Document.Name), slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	id := h.store.Put(f)
	h.respondState(w, r, http.StatusCreated, id, "", f)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, f, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respondState(w, r, http.StatusOK, id, "", f)
}

func (h *Handler) setField(w http.ResponseWriter, r *http.Request) {
	id, f, ok := h.session(w, r)
	if !ok {
		return
	}
	field := chi.URLParam(r, "field")
	if _, known := f.Meta().Field(field); !known {
		h.respondError(w, fmt.Errorf("%w: unknown field %q", httpx.ErrValidation, field))
		return
	}
	var req setValueRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := f.Do(r.Context(), func(f *form.Form) { f.SetValue(field, req.Value) }); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondState(w, r, http.StatusOK, id, "", f)
}

func (h *Handler) setRowField(w http.ResponseWriter, r *http.Request) {
	id, f, ok := h.session(w, r)
	if !ok {
		return
	}
	row, field := chi.URLParam(r, "row"), chi.URLParam(r, "field")
	if _, known := f.Meta().Child(blanketorder.ItemsTable).Field(field); !known {
		h.respondError(w, fmt.Errorf("%w: unknown item field %q", httpx.ErrValidation, field))
		return
	}
	var req setValueRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	var setErr error
	err := f.Do(r.Context(), func(f *form.Form) {
		setErr = f.SetRowValue(blanketorder.ItemsTable, row, field, req.Value)
	})
	if err == nil {
		err = setErr
	}
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondState(w, r, http.StatusOK, id, row, f)
}

func (h *Handler) addRow(w http.ResponseWriter, r *http.Request) {
	id, f, ok := h.session(w, r)
	if !ok {
		return
	}
	var req addRowRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.respondValidation(w, err)
		return
	}
	var (
		name   string
		addErr error
	)
	err := f.Do(r.Context(), func(f *form.Form) {
		row, err := f.AddChild(blanketorder.ItemsTable, req.Values)
		if err != nil {
			addErr = err
			return
		}
		name = row.Name
	})
	if err == nil {
		err = addErr
	}
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondState(w, r, http.StatusCreated, id, name, f)
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	id, f, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := f.Do(r.Context(), func(f *form.Form) { f.Refresh() }); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondState(w, r, http.StatusOK, id, "", f)
}

func (h *Handler) clickButton(w http.ResponseWriter, r *http.Request) {
	id, f, ok := h.session(w, r)
	if !ok {
		return
	}
	key := chi.URLParam(r, "key")
	if unescaped, err := url.PathUnescape(key); err == nil {
		key = unescaped
	}
	var clickErr error
	err := f.Do(r.Context(), func(f *form.Form) { clickErr = f.ClickButton(key) })
	if err == nil {
		err = clickErr
	}
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondState(w, r, http.StatusOK, id, "", f)
}

func (h *Handler) query(w http.ResponseWriter, r *http.Request) {
	_, f, ok := h.session(w, r)
	if !ok {
		return
	}
	field := chi.URLParam(r, "field")
	var (
		q     form.Query
		found bool
	)
	if err := f.Do(r.Context(), func(f *form.Form) { q, found = f.Query(field) }); err != nil {
		h.respondError(w, err)
		return
	}
	if !found {
		h.respondError(w, fmt.Errorf("%w: no query for %q", httpx.ErrNotFound, field))
		return
	}
	resp := queryResponse{Field: field, Query: q}
	if field == "tc_name" && h.terms != nil {
		templates, err := h.terms.List(r.Context(), terms.FilterFromQuery(q.Filters))
		if err != nil {
			h.logger.Error("list terms templates", slog.Any("error", err))
			h.respondError(w, err)
			return
		}
		for _, t := range templates {
			resp.Options = append(resp.Options, t.Name)
		}
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) close(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (string, *form.Form, bool) {
	id := chi.URLParam(r, "id")
	f, err := h.store.Get(id)
	if err != nil {
		h.respondError(w, err)
		return "", nil, false
	}
	return id, f, true
}

// respondState settles in-flight calls, bounded by the settle timeout, and
// writes the state. A pending navigation is delivered once.
func (h *Handler) respondState(w http.ResponseWriter, r *http.Request, status int, id, row string, f *form.Form) {
	ctx, cancel := context.WithTimeout(r.Context(), h.settleTimeout)
	defer cancel()
	if err := f.Settle(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		h.respondError(w, err)
		return
	}
	var st form.State
	if err := f.Do(r.Context(), func(f *form.Form) {
		st = f.Snapshot()
		f.TakeRoute()
	}); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, status, stateResponse{
		ID:       id,
		Row:      row,
		State:    st,
		Document: blanketorder.DocumentFromState(st),
	})
}

func (h *Handler) respondValidation(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Namespace()] = fe.Tag()
	}
	httpx.JSON(w, http.StatusUnprocessableEntity, httpx.ValidationProblem{
		ProblemDetail: httpx.ProblemDetail{
			Title:  "Validation Failed",
			Status: http.StatusUnprocessableEntity,
		},
		Fields: fields,
	})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, form.ErrClosed):
		httpx.Problem(w, http.StatusNotFound, "Session Not Found", err.Error())
	case errors.Is(err, form.ErrRowNotFound), errors.Is(err, form.ErrButtonNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, form.ErrUnknownTable):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		if !errors.Is(err, httpx.ErrNotFound) && !errors.Is(err, httpx.ErrValidation) {
			h.logger.Error("blanket order request", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
	}
}
