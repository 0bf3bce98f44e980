package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/orderdesk/orderdesk/internal/pagination"
)

func (h *Handler) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	var req OpenSessionRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid request body")
		return
	}
	if err := validateStruct(req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	q, err := queryFor(req.Field, req.Text)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	s, err := h.sessions.Open(r.Context(), q)
	h.writeSession(w, r, http.StatusCreated, s, err)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(r.Context(), r.PathValue("id"))
	h.writeSession(w, r, http.StatusOK, s, err)
}

func (h *Handler) handleDiscardSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Discard(r.Context(), r.PathValue("id")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGoToPage(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.PathValue("page"))
	if err != nil || n < 1 {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "page must be a positive integer")
		return
	}
	s, err := h.sessions.GoTo(r.Context(), r.PathValue("id"), n)
	h.writeSession(w, r, http.StatusOK, s, err)
}

func (h *Handler) handleSubmitSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid request body")
		return
	}
	if err := validateStruct(req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	field, err := parseSearchField(req.Field)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	s, err := h.search.Submit(r.Context(), r.PathValue("id"), field, req.Text)
	h.writeSession(w, r, http.StatusOK, s, err)
}

func (h *Handler) handleClearSearch(w http.ResponseWriter, r *http.Request) {
	s, err := h.search.Clear(r.Context(), r.PathValue("id"))
	h.writeSession(w, r, http.StatusOK, s, err)
}

// writeSession renders s, or the error with s attached when there is one.
func (h *Handler) writeSession(w http.ResponseWriter, r *http.Request, status int, s pagination.Session, err error) {
	if err != nil {
		h.writeSessionError(w, r, newSessionView(s), err)
		return
	}
	writeJSON(w, status, newSessionView(s))
}

// decodeOptionalBody decodes a JSON body into v, accepting an empty body.
func decodeOptionalBody(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
