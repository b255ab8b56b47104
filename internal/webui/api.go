package webui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/tiai1/tiai-solutions/internal/charts"
	"github.com/tiai1/tiai-solutions/internal/leads"
	"github.com/tiai1/tiai-solutions/internal/metrics"
	"github.com/tiai1/tiai-solutions/internal/storage"
)

const maxBodyBytes = 64 << 10

type errorBody struct {
	Message string             `json:"message"`
	Errors  []leads.FieldError `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorBody{Message: msg})
}

// decode reads a bounded JSON body into v.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// rejectInput maps a validation or decode failure to a 400 response.
func rejectInput(w http.ResponseWriter, invalidMsg string, err error) {
	var ve *leads.ValidationError
	switch {
	case errors.Is(err, leads.ErrSpam):
		writeError(w, http.StatusBadRequest, "Spam detected")
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorBody{Message: invalidMsg, Errors: ve.Fields})
	default:
		writeError(w, http.StatusBadRequest, invalidMsg)
	}
}

func (s *Server) save(ctx context.Context, kind string, v any) (storage.Record, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return storage.Record{}, fmt.Errorf("encode %s: %w", kind, err)
	}
	rec, err := s.cfg.Repo.Create(ctx, kind, b)
	if err != nil {
		return storage.Record{}, err
	}
	metrics.RecordLead(kind)
	return rec, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": s.now().UTC().Format(time.RFC3339),
	})
}

type templateView struct {
	Slug        string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Charts      []charts.Blueprint `json:"charts"`
}

func templateViews() []templateView {
	ts := charts.Templates()
	out := make([]templateView, len(ts))
	for i, t := range ts {
		out[i] = templateView{Slug: t.Slug(), Name: t.Name, Description: t.Description, Charts: t.Charts}
	}
	return out
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, templateViews())
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	const invalid = "Invalid form data"
	var c leads.Contact
	if err := decode(w, r, &c); err != nil {
		rejectInput(w, invalid, err)
		return
	}
	if err := c.Validate(); err != nil {
		if errors.Is(err, leads.ErrSpam) {
			s.log.Warn("contact honeypot filled", zap.String("client", clientIP(r)))
		}
		rejectInput(w, invalid, err)
		return
	}

	ctx := r.Context()
	rec, err := s.save(ctx, storage.KindContact, c)
	if err != nil {
		s.log.Error("store contact", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Something went wrong. Please try again or email us directly.")
		return
	}
	if _, err := s.save(ctx, storage.KindLead, leads.ContactLead(rec.ID, c)); err != nil {
		// The contact itself is stored; the analytics lead is best effort.
		s.log.Warn("store contact lead", zap.String("contact_id", rec.ID), zap.Error(err))
	}
	s.log.Info("contact received", zap.String("contact_id", rec.ID), zap.Stringer("contact", c))

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":   true,
		"message":   "Thank you for your message. We'll respond within 24 hours.",
		"contactId": rec.ID,
	})
}

func (s *Server) handleLead(w http.ResponseWriter, r *http.Request) {
	const invalid = "Invalid lead data"
	var l leads.Lead
	if err := decode(w, r, &l); err != nil {
		rejectInput(w, invalid, err)
		return
	}
	if err := l.Validate(); err != nil {
		rejectInput(w, invalid, err)
		return
	}
	rec, err := s.save(r.Context(), storage.KindLead, l)
	if err != nil {
		s.log.Error("store lead", zap.String("source", l.Source), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to track lead")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "leadId": rec.ID})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	const invalid = "Invalid download data"
	var d leads.Download
	if err := decode(w, r, &d); err != nil {
		rejectInput(w, invalid, err)
		return
	}
	if err := d.Validate(); err != nil {
		rejectInput(w, invalid, err)
		return
	}
	rec, err := s.save(r.Context(), storage.KindDownload, d)
	if err != nil {
		s.log.Error("store download", zap.String("template", d.TemplateName), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to track download")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "downloadId": rec.ID})
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	const invalid = "Invalid call request"
	var req leads.CallRequest
	if err := decode(w, r, &req); err != nil {
		rejectInput(w, invalid, err)
		return
	}
	call, err := req.Schedule()
	if err != nil {
		rejectInput(w, invalid, err)
		return
	}
	rec, err := s.save(r.Context(), storage.KindCall, call)
	if err != nil {
		s.log.Error("store call", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to schedule call")
		return
	}
	s.log.Info("call requested", zap.String("call_id", rec.ID), zap.Time("start_at", call.StartAt))
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "callId": rec.ID})
}

func (s *Server) handleCallICS(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, err := s.cfg.Repo.Get(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && rec.Kind != storage.KindCall) {
		writeError(w, http.StatusNotFound, "Call not found")
		return
	}
	if err != nil {
		s.log.Error("load call", zap.String("call_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load call")
		return
	}
	var call leads.Call
	if err := json.Unmarshal(rec.Payload, &call); err != nil {
		s.log.Error("decode call", zap.String("call_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load call")
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="tiai-intro-call.ics"`)
	_, _ = io.WriteString(w, leads.ICS(rec.ID, call, s.now()))
}

// handleDataFile serves a JSON document from DataDir. Names are confined to
// the directory through os.Root.
func (s *Server) handleDataFile(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("filename")
	if filepath.Ext(name) != ".json" {
		writeError(w, http.StatusBadRequest, "Only JSON files are allowed")
		return
	}
	if s.cfg.DataDir == "" || !filepath.IsLocal(name) || filepath.Base(name) != name {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}

	b, err := readRooted(s.cfg.DataDir, name)
	if err != nil || !json.Valid(b) {
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("serve data file", zap.String("file", name), zap.Error(err))
		}
		writeError(w, http.StatusNotFound, "File not found")
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write(b)
}

func readRooted(dir, name string) ([]byte, error) {
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, err
	}
	defer root.Close()
	f, err := root.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
