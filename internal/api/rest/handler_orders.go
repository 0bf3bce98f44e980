package rest

import (
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/schema"
	"github.com/orderdesk/orderdesk/pkg/model"
)

var listDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

// handleListOrders serves one page of a browse or search walk without any
// server-side state. Later pages are addressed by the cursor token returned
// with the previous page.
func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	var params ListParams
	if err := listDecoder.Decode(&params, r.URL.Query()); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid query parameters")
		return
	}
	if err := validateStruct(params); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	q, err := queryFor(params.Field, params.Value)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	pageNumber := 1
	var cursor *model.Cursor
	if params.Cursor != "" {
		cursor, pageNumber, err = decodeCursor(params.Cursor, q)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
	}
	if params.Page != 0 && params.Page != pageNumber {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "page does not match cursor")
		return
	}

	page, err := h.pages.FetchPage(r.Context(), pageNumber, cursor, q)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPageResponse(q, page))
}

// handleIngest accepts a multipart upload in field "file", writes it and
// returns the refreshed first browse page.
func (h *Handler) handleIngest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeDomainError(w, r, err)
			return
		}
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Expected a multipart form with a file field")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Failed to read upload")
		return
	}
	if int64(len(data)) > h.maxUpload {
		writeError(w, http.StatusRequestEntityTooLarge, ErrCodeRequestTooLarge, "File too large")
		return
	}

	res, err := h.ingest.Ingest(r.Context(), data, header.Filename)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	resp := IngestResponse{Result: res}
	browse := model.BrowseQuery()
	page, err := h.pages.FetchPage(r.Context(), 1, nil, browse)
	if err != nil {
		// The write succeeded; the client refreshes on its own.
		h.logger.Warn("Failed to refresh first page after ingest", "batch_id", res.BatchID, "error", err)
	} else {
		resp.FirstPage = newPageResponse(browse, page)
	}
	writeJSON(w, http.StatusOK, resp)
}
