package dbentry

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	json "github.com/json-iterator/go"

	"logstore/internal/application/service"
	"logstore/internal/domain"
)

// MaxBodySize caps a value sent over HTTP.
const MaxBodySize = 64 << 20

type DbEntryHandler struct {
	saveService   *service.SaveEntryService
	deleteService *service.DeleteEntryService
	getService    *service.GetEntryService
}

type EntryResponse struct {
	Key       string `json:"key,omitempty"`
	Value     string `json:"value,omitempty"`
	Tombstone bool   `json:"tombstone"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func MapToEntryResponse(e domain.DbEntry) EntryResponse {
	return EntryResponse{
		Key:       e.Key(),
		Value:     e.Value(),
		Tombstone: e.Tombstone(),
	}
}

func NewDbEntryHandler(saveService *service.SaveEntryService,
	deleteService *service.DeleteEntryService,
	getService *service.GetEntryService) *DbEntryHandler {
	return &DbEntryHandler{
		saveService:   saveService,
		deleteService: deleteService,
		getService:    getService,
	}
}

// SaveEntry stores the raw request body as the value of {key}.
func (h *DbEntryHandler) SaveEntry(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodySize+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if len(body) > MaxBodySize {
		writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: "value too large"})
		return
	}
	result := h.saveService.Execute(service.SaveEntryCommand{
		Key:   key,
		Value: string(body),
	})
	if result.Err != nil {
		writeError(w, result.Err)
		return
	}
	writeJSON(w, http.StatusOK, MapToEntryResponse(result.Entry))
}

func (h *DbEntryHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	result := h.getService.Execute(service.GetEntryQuery{
		Key: key,
	})
	if result.Err != nil {
		writeError(w, result.Err)
		return
	}
	writeJSON(w, http.StatusOK, MapToEntryResponse(result.Entry))
}

func (h *DbEntryHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	result := h.deleteService.Execute(service.DeleteEntryCommand{
		Key: key,
	})
	if result.Err != nil {
		writeError(w, result.Err)
		return
	}
	writeJSON(w, http.StatusOK, MapToEntryResponse(result.Entry))
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidData):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	output, err := json.Marshal(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(output)
}
