package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	geojson "github.com/paulmach/go.geojson"

	"github.com/couchcryptid/flight-map-service/internal/domain"
	"github.com/couchcryptid/flight-map-service/internal/playback"
	"github.com/couchcryptid/flight-map-service/internal/render"
	"github.com/couchcryptid/flight-map-service/internal/session"
)

// MapSession is the session surface the handlers drive.
type MapSession interface {
	Upload(ctx context.Context, filename string, body io.Reader) (session.UploadSummary, error)
	SetYear(ctx context.Context, year *int) (session.FilterSummary, error)
	Years() []domain.YearCount
	StartPlayback(ctx context.Context) error
	StopPlayback(ctx context.Context) (bool, error)
	PlaybackStatus() playback.Status
	SetZoom(zoom float64)
	OpenMarker(code string) bool
	CloseMarker()
	Hover(code string, hovered bool) bool
	Snapshot() render.Snapshot
	GeoJSON() *geojson.FeatureCollection
}

const uploadField = "file"

// handleUpload accepts either a multipart form with a "file" part or a raw
// CSV body named by the filename query parameter.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	filename := r.URL.Query().Get("filename")
	var body io.Reader = r.Body

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, header, err := r.FormFile(uploadField)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
				return
			}
			writeError(w, http.StatusBadRequest, "missing \"file\" form field")
			return
		}
		defer file.Close()
		filename = header.Filename
		body = file
	}

	summary, err := s.session.Upload(r.Context(), filename, body)
	if errors.Is(err, session.ErrNotCSV) {
		writeError(w, http.StatusUnsupportedMediaType, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("upload", "error", err)
		writeError(w, http.StatusInternalServerError, "upload failed")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleScene(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleGeoJSON(w http.ResponseWriter, _ *http.Request) {
	b, err := s.session.GeoJSON().MarshalJSON()
	if err != nil {
		s.logger.Error("marshal geojson", "error", err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	w.Write(b) //nolint:errcheck // client may be gone
}

func (s *Server) handleYears(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Years())
}

type filterRequest struct {
	Year *int `json:"year"`
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid filter body")
		return
	}
	summary, err := s.session.SetYear(r.Context(), req.Year)
	if errors.Is(err, session.ErrNoUpload) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type zoomRequest struct {
	Zoom *float64 `json:"zoom"`
}

func (s *Server) handleZoom(w http.ResponseWriter, r *http.Request) {
	var req zoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Zoom == nil {
		writeError(w, http.StatusBadRequest, "body must be {\"zoom\": <number>}")
		return
	}
	s.session.SetZoom(*req.Zoom)
	writeJSON(w, http.StatusOK, s.session.Snapshot().Viewport)
}

func (s *Server) handleOpenMarker(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if !s.session.OpenMarker(code) {
		writeError(w, http.StatusNotFound, "no marker for "+code)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"open_marker": code})
}

func (s *Server) handleCloseMarker(w http.ResponseWriter, _ *http.Request) {
	s.session.CloseMarker()
	w.WriteHeader(http.StatusNoContent)
}

type hoverRequest struct {
	Hovered bool `json:"hovered"`
}

func (s *Server) handleHover(w http.ResponseWriter, r *http.Request) {
	var req hoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid hover body")
		return
	}
	code := r.PathValue("code")
	if !s.session.Hover(code, req.Hovered) {
		writeError(w, http.StatusNotFound, "no marker for "+code)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePlaybackStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.session.PlaybackStatus())
}

func (s *Server) handlePlaybackStart(w http.ResponseWriter, r *http.Request) {
	err := s.session.StartPlayback(r.Context())
	switch {
	case errors.Is(err, session.ErrNoUpload), errors.Is(err, session.ErrPlaybackActive):
		writeError(w, http.StatusConflict, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusAccepted, s.session.PlaybackStatus())
	}
}

func (s *Server) handlePlaybackStop(w http.ResponseWriter, r *http.Request) {
	stopped, err := s.session.StopPlayback(r.Context())
	if err != nil {
		writeError(w, http.StatusGatewayTimeout, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"stopped": stopped})
}
