package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/ggeraldodequeiroz/minhas-financas-backend/internal/services"
	"github.com/ggeraldodequeiroz/minhas-financas-backend/internal/store"
	"github.com/ggeraldodequeiroz/minhas-financas-backend/types"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

const (
	maxMultipartMemory = 8 << 20
	maxReceiptBytes    = 16 << 20
	formFieldReceipt   = "receipt"

	entryNotFoundMessage = "entry not found in the database"
)

// EntryHandler provides HTTP handlers for financial entries.
type EntryHandler struct {
	entryService *services.EntryService
	userService  *services.UserService
}

// NewEntryHandler constructs a handler with the provided services.
func NewEntryHandler(entryService *services.EntryService, userService *services.UserService) *EntryHandler {
	return &EntryHandler{
		entryService: entryService,
		userService:  userService,
	}
}

// EntryRouter registers entry routes on the given router.
func EntryRouter(
	r chi.Router,
	entryService *services.EntryService,
	userService *services.UserService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewEntryHandler(entryService, userService)

	if authMiddleware != nil {
		r.Use(authMiddleware)
	}
	r.Get("/", handler.FindEntries)
	r.Post("/", handler.CreateEntry)
	r.Route("/{entryID}", func(r chi.Router) {
		r.Get("/", handler.GetEntry)
		r.Put("/", handler.UpdateEntry)
		r.Put("/status", handler.UpdateEntryStatus)
		r.Delete("/", handler.DeleteEntry)
		r.Post("/receipt", handler.UploadReceipt)
		r.Get("/receipt", handler.DownloadReceipt)
	})
}

// FindEntries queries entries by description, month and year, always scoped
// to a single user. The user is resolved before the store is queried.
func (h *EntryHandler) FindEntries(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	rawUser := strings.TrimSpace(query.Get("user"))
	userID, err := strconv.Atoi(rawUser)
	if err != nil || userID < 1 {
		writeError(w, http.StatusBadRequest, "user query parameter is required")
		return
	}

	if _, err := h.userService.GetByID(r.Context(), userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "could not run the query, user not found for the given id")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to resolve user")
		return
	}

	filter := types.EntryFilter{
		Description: strings.TrimSpace(query.Get("description")),
		UserID:      userID,
	}
	if filter.Month, err = parseOptionalQueryInt(query.Get("month")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid month")
		return
	}
	if filter.Year, err = parseOptionalQueryInt(query.Get("year")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}

	entries, err := h.entryService.Find(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to query entries")
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

func (h *EntryHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	id, err := parseEntryID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := h.entryService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, entryNotFoundMessage)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch entry")
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

func (h *EntryHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	draft, err := decodeEntryDraft(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	created, err := h.entryService.Create(r.Context(), draft)
	if err != nil {
		if services.IsBusinessRule(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create entry")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *EntryHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	id, err := parseEntryID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	draft, err := decodeEntryDraft(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	updated, err := h.entryService.Update(r.Context(), id, draft)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusBadRequest, entryNotFoundMessage)
		case services.IsBusinessRule(err):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to update entry")
		}
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *EntryHandler) UpdateEntryStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseEntryID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req EntryStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	updated, err := h.entryService.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusBadRequest, entryNotFoundMessage)
		case services.IsBusinessRule(err):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to update entry status")
		}
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *EntryHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := parseEntryID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.entryService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusBadRequest, entryNotFoundMessage)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete entry")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadReceipt attaches a receipt file to an existing entry.
func (h *EntryHandler) UploadReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := parseEntryID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	file, err := parseReceiptFile(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := h.entryService.AttachReceipt(r.Context(), id, file.Filename, file.ContentType, file.Data)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusBadRequest, entryNotFoundMessage)
		case services.IsBusinessRule(err):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to store receipt")
		}
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

// DownloadReceipt streams the receipt attached to an entry.
func (h *EntryHandler) DownloadReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := parseEntryID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reader, key, err := h.entryService.OpenReceipt(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "receipt not found")
		case services.IsBusinessRule(err):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to open receipt")
		}
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", path.Base(key)))
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = io.Copy(w, reader)
}

// EntryRequest is the create/replace payload. Type and status are optional:
// when omitted the entry field is left unset.
type EntryRequest struct {
	Description string          `json:"description"`
	Value       decimal.Decimal `json:"value"`
	Month       int             `json:"month"`
	Year        int             `json:"year"`
	Type        *string         `json:"type"`
	Status      *string         `json:"status"`
	UserID      int             `json:"user_id"`
}

// EntryStatusRequest carries the status-only transition payload.
type EntryStatusRequest struct {
	Status string `json:"status"`
}

// ReceiptFile represents an uploaded receipt.
type ReceiptFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

func decodeEntryDraft(r *http.Request) (services.EntryDraft, error) {
	var req EntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return services.EntryDraft{}, err
	}
	return services.EntryDraft{
		Description: req.Description,
		Value:       req.Value,
		Month:       req.Month,
		Year:        req.Year,
		Type:        req.Type,
		Status:      req.Status,
		UserID:      req.UserID,
	}, nil
}

func parseEntryID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "entryID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid entry id")
	}
	return id, nil
}

func parseOptionalQueryInt(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

func parseReceiptFile(r *http.Request) (ReceiptFile, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return ReceiptFile{}, errors.New("invalid multipart form")
	}
	return receiptFromForm(r.MultipartForm)
}

func receiptFromForm(form *multipart.Form) (ReceiptFile, error) {
	if form == nil {
		return ReceiptFile{}, errors.New("missing form data")
	}

	files := form.File[formFieldReceipt]
	if len(files) == 0 {
		return ReceiptFile{}, errors.New("receipt file is required")
	}
	if len(files) > 1 {
		return ReceiptFile{}, errors.New("only one receipt file is allowed")
	}

	fileHeader := files[0]
	file, err := fileHeader.Open()
	if err != nil {
		return ReceiptFile{}, fmt.Errorf("failed to read receipt file: %w", err)
	}

	data, err := readFileLimited(file, maxReceiptBytes)
	_ = file.Close()
	if err != nil {
		return ReceiptFile{}, err
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return ReceiptFile{
		Filename:    fileHeader.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("uploaded file too large")
	}
	return data, nil
}
