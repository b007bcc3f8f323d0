package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image/png"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/lazypower/ephemeral/internal/archive"
	"github.com/lazypower/ephemeral/internal/capture"
	"github.com/lazypower/ephemeral/internal/decay"
	"github.com/lazypower/ephemeral/internal/engine"
)

// maxForgetBody covers a base64 encoded capture at the audio size limit.
const maxForgetBody = capture.MaxAudioBytes*4/3 + 1<<20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.eng.Snapshot()
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"session": snap.Status,
	})
}

func (s *Server) handleAlgorithms(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.eng.Registry().All())
}

type forgetRequest struct {
	ContentType string `json:"content_type"`
	Text        string `json:"text"`
	Data        string `json:"data"` // base64 PNG or audio bytes
	Algorithm   string `json:"algorithm"`
}

func (req forgetRequest) content() (decay.Content, error) {
	ct := req.ContentType
	if ct == "" {
		ct = string(decay.Text)
	}
	kind, err := decay.ParseContentType(ct)
	if err != nil {
		return decay.Content{}, err
	}
	if kind == decay.Text {
		return capture.FromText(req.Text)
	}

	data, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		return decay.Content{}, errors.New("data must be base64")
	}
	if kind == decay.Image {
		return capture.FromPNG(bytes.NewReader(data))
	}
	return capture.FromAudio(bytes.NewReader(data))
}

func (s *Server) handleForget(w http.ResponseWriter, r *http.Request) {
	var req forgetRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxForgetBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		respondError(w, http.StatusBadRequest, "invalid json")
		return
	}

	content, err := req.content()
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, capture.ErrTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		respondError(w, status, err.Error())
		return
	}

	snap, ok := s.eng.Start(r.Context(), content, req.Algorithm)
	if !ok {
		respondJSON(w, http.StatusConflict, map[string]any{
			"status":     "busy",
			"session_id": snap.SessionID,
		})
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]any{
		"status":       snap.Status,
		"session_id":   snap.SessionID,
		"algorithm":    snap.Algorithm,
		"descriptor":   snap.Descriptor,
		"content_type": snap.ContentType,
		"integrity":    snap.Integrity,
	})
}

// sessionResponse adds the current image, PNG encoded as a data URL.
type sessionResponse struct {
	engine.Snapshot
	Image string `json:"image,omitempty"`
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	snap := s.eng.Snapshot()
	resp := sessionResponse{Snapshot: snap}
	if snap.Image != nil && len(snap.Image.Pix) > 0 {
		var buf bytes.Buffer
		if err := png.Encode(&buf, snap.Image); err != nil {
			s.logger.Warn("encode session image", zap.Error(err))
		} else {
			resp.Image = "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleArchiveList(w http.ResponseWriter, r *http.Request) {
	entries, err := s.eng.Archive().List(r.Context())
	if err != nil {
		s.logger.Error("list archive", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "archive unavailable")
		return
	}
	if entries == nil {
		entries = []archive.Entry{}
	}
	respondJSON(w, http.StatusOK, entries)
}

func (s *Server) handleArchiveStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.eng.Archive().Stats(r.Context(), time.Now())
	if err != nil {
		s.logger.Error("archive stats", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "archive unavailable")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleArchiveClear(w http.ResponseWriter, r *http.Request) {
	if err := s.eng.ClearArchive(r.Context()); err != nil {
		s.logger.Error("clear archive", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "archive unavailable")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
