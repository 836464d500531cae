package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"patientsheets/pkg/patients"
	"patientsheets/pkg/sheets"
)

const maxBodyBytes = 1 << 20

// Options configures the HTTP surface.
type Options struct {
	Table          string
	CORSOrigins    []string
	RequestTimeout time.Duration
}

// Server maps HTTP requests onto patient store operations. Each request opens
// its own document session with the caller's bearer credential.
type Server struct {
	sessions sheets.SessionProvider
	locks    *patients.TableLocks
	opts     Options
}

func NewServer(sessions sheets.SessionProvider, opts Options) *Server {
	return &Server{
		sessions: sessions,
		locks:    patients.NewTableLocks(),
		opts:     opts,
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

func documentID(r *http.Request) string {
	q := r.URL.Query()
	if doc := q.Get("doc"); doc != "" {
		return doc
	}
	return q.Get("selectedSheetId")
}

func (s *Server) openStore(r *http.Request, doc string) (*patients.Store, error) {
	d, err := s.sessions.Open(r.Context(), bearerToken(r), doc)
	if err != nil {
		return nil, err
	}
	return patients.NewStore(d, patients.WithTable(s.opts.Table), patients.WithLocks(s.locks)), nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errBadBody
	}
	return nil
}

var errBadBody = errors.New("invalid request body")

func (s *Server) createPatient(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeBody(w, r, &req); err != nil {
		sendError(w, r, err)
		return
	}
	doc := documentID(r)
	if doc == "" {
		doc = req.SelectedSheetID
	}
	store, err := s.openStore(r, doc)
	if err != nil {
		sendError(w, r, err)
		return
	}
	if err := store.EnsureTable(r.Context()); err != nil {
		sendError(w, r, err)
		return
	}
	res, err := store.Upsert(r.Context(), req.Record)
	if err != nil {
		sendError(w, r, err)
		return
	}
	msg := "Patient data updated in sheet"
	if res.Created {
		msg = "Patient data appended to sheet"
	}
	sendJSON(w, http.StatusOK, createResponse{Message: msg, TableID: doc})
}

func (s *Server) listPatients(w http.ResponseWriter, r *http.Request) {
	store, err := s.openStore(r, documentID(r))
	if err != nil {
		sendError(w, r, err)
		return
	}
	records, err := store.GetAll(r.Context())
	if err != nil {
		sendError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, records)
}

func (s *Server) getPatient(w http.ResponseWriter, r *http.Request) {
	store, err := s.openStore(r, documentID(r))
	if err != nil {
		sendError(w, r, err)
		return
	}
	rec, err := store.GetByKey(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, rec)
}

func (s *Server) updatePatient(w http.ResponseWriter, r *http.Request) {
	var rec patients.Record
	if err := decodeBody(w, r, &rec); err != nil {
		sendError(w, r, err)
		return
	}
	store, err := s.openStore(r, documentID(r))
	if err != nil {
		sendError(w, r, err)
		return
	}
	if _, err := store.Replace(r.Context(), chi.URLParam(r, "id"), rec); err != nil {
		sendError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, messageResponse{Message: "Patient data updated successfully"})
}

func (s *Server) patchPatient(w http.ResponseWriter, r *http.Request) {
	var fields map[string]string
	if err := decodeBody(w, r, &fields); err != nil {
		sendError(w, r, err)
		return
	}
	store, err := s.openStore(r, documentID(r))
	if err != nil {
		sendError(w, r, err)
		return
	}
	rec, err := store.Patch(r.Context(), chi.URLParam(r, "id"), fields)
	if err != nil {
		sendError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, rec)
}

func (s *Server) deletePatient(w http.ResponseWriter, r *http.Request) {
	store, err := s.openStore(r, documentID(r))
	if err != nil {
		sendError(w, r, err)
		return
	}
	if err := store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		sendError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, messageResponse{Message: "Patient deleted"})
}

// searchPatients never answers 404: a miss is an empty array.
func (s *Server) searchPatients(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		id = r.URL.Query().Get("patientId")
	}
	store, err := s.openStore(r, documentID(r))
	if err != nil {
		sendError(w, r, err)
		return
	}
	records, err := store.SearchByKey(r.Context(), id)
	if err != nil {
		sendError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, records)
}

func getHealth(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func sendResponse(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func sendJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		sendResponse(w, http.StatusInternalServerError, []byte(`{"error":"encoding response"}`))
		return
	}
	sendResponse(w, status, body)
}

// sendError logs the cause and answers with one opaque message per class.
func sendError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := http.StatusInternalServerError, "Failed to access patient sheet"
	switch {
	case errors.Is(err, errBadBody):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, sheets.ErrNoDocument):
		status, msg = http.StatusBadRequest, "document id is required"
	case errors.Is(err, sheets.ErrNoCredential):
		status, msg = http.StatusUnauthorized, "credential is required"
	case errors.Is(err, patients.ErrInvalidRecord):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, patients.ErrNotFound):
		status, msg = http.StatusNotFound, "Patient not found"
	}

	entry := logEntry(r).WithError(err).WithField("status", status)
	if status >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Debug("Request rejected")
	}
	sendJSON(w, status, errorResponse{Error: msg})
}
