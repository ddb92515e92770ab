package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/Nomadcxx/vidmeta/internal/database"
	"github.com/Nomadcxx/vidmeta/internal/naming"
)

const (
	defaultVideoLimit = 50
	maxVideoLimit     = 500
	maxBodyBytes      = 1 << 20
)

type healthResponse struct {
	Status    string    `json:"status"`
	Uptime    string    `json:"uptime"`
	Timestamp time.Time `json:"timestamp"`
}

type parseRequest struct {
	Filenames []string `json:"filenames"`
}

type parseResponse struct {
	Results []naming.ParsedFilename `json:"results"`
}

type addActorRequest struct {
	Name string `json:"name"`
}

type addAliasRequest struct {
	Alias string `json:"alias"`
}

type actorResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Timestamp: time.Now(),
	})
}

func (s *Server) HandleParse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Filenames) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "filenames is required")
		return
	}

	results := make([]naming.ParsedFilename, len(req.Filenames))
	for i, name := range req.Filenames {
		results[i] = naming.ParseFilename(name)
	}
	writeJSON(w, http.StatusOK, parseResponse{Results: results})
}

func (s *Server) HandleListActors(w http.ResponseWriter, r *http.Request) {
	actors, err := s.catalog.ListActorsWithAliases(r.Context())
	if err != nil {
		s.internalError(w, "list_failed", err)
		return
	}
	if actors == nil {
		actors = []database.Actor{}
	}
	writeJSON(w, http.StatusOK, actors)
}

func (s *Server) HandleAddActor(w http.ResponseWriter, r *http.Request) {
	var req addActorRequest
	if !decodeBody(w, r, &req) {
		return
	}
	id, err := s.catalog.AddActor(r.Context(), req.Name)
	if errors.Is(err, database.ErrEmptyName) {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err != nil {
		s.internalError(w, "add_failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, actorResponse{ID: id, Name: strings.TrimSpace(req.Name)})
}

func (s *Server) HandleAddAlias(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid_id", "actor id must be a positive integer")
		return
	}

	var req addAliasRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err = s.catalog.AddAlias(r.Context(), id, req.Alias)
	switch {
	case errors.Is(err, database.ErrEmptyName):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	case errors.Is(err, database.ErrActorNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
		return
	case errors.Is(err, database.ErrAliasTaken):
		writeError(w, http.StatusConflict, "alias_taken", err.Error())
		return
	case err != nil:
		s.internalError(w, "alias_failed", err)
		return
	}

	name, _, err := s.catalog.LookupNameByID(r.Context(), id)
	if err != nil {
		s.internalError(w, "lookup_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":    id,
		"name":  name,
		"alias": strings.TrimSpace(req.Alias),
	})
}

func (s *Server) HandleListVideos(w http.ResponseWriter, r *http.Request) {
	limit := defaultVideoLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = min(n, maxVideoLimit)
	}

	videos, err := s.catalog.ListVideos(r.Context(), limit)
	if err != nil {
		s.internalError(w, "list_failed", err)
		return
	}
	if videos == nil {
		videos = []database.VideoRecord{}
	}
	writeJSON(w, http.StatusOK, videos)
}

func (s *Server) HandleLookupVideo(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "path is required")
		return
	}
	rec, err := s.catalog.GetVideoByPath(r.Context(), path)
	if err != nil {
		s.internalError(w, "lookup_failed", err)
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "not_found", "no video recorded for path")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) internalError(w http.ResponseWriter, code string, err error) {
	s.logger.Error("api", "Request failed", err)
	writeError(w, http.StatusInternalServerError, code, err.Error())
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"code":    code,
		"message": message,
	})
}
