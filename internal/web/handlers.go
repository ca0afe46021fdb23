package web

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strings"

	"leftasrain/internal/leftasrain"
)

type TotalResponse struct {
	Total  int `json:"total"`
	Cached int `json:"cached"`
}

type JobResponse struct {
	ID          string    `json:"id"`
	Status      JobStatus `json:"status"`
	Progress    int       `json:"progress"`
	Total       int       `json:"total"`
	Fetched     int       `json:"fetched"`
	Failed      int       `json:"failed"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   string    `json:"created_at"`
	StartedAt   *string   `json:"started_at,omitempty"`
	CompletedAt *string   `json:"completed_at,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleTotal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.Lock()
	resp := TotalResponse{
		Total:  s.client.Total(r.Context()),
		Cached: s.client.Len(),
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

// handleListTracks lists cached tracks, optionally filtered by a case
// insensitive substring of the artist or title.
func (s *Server) handleListTracks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	remote := s.remoteURLs(r)

	var keep func(leftasrain.Song) bool
	if query != "" {
		keep = func(song leftasrain.Song) bool {
			return strings.Contains(strings.ToLower(song.Artist), query) ||
				strings.Contains(strings.ToLower(song.TrackName), query)
		}
	}

	s.mu.Lock()
	tracks := slices.Collect(s.client.TracksFromFilter(keep, remote))
	s.mu.Unlock()

	slices.SortFunc(tracks, func(a, b leftasrain.Track) int {
		return cmp.Compare(a.TrackNo, b.TrackNo)
	})
	if tracks == nil {
		tracks = []leftasrain.Track{}
	}

	writeJSON(w, http.StatusOK, tracks)
}

func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/tracks/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "Song ID required", http.StatusBadRequest)
		return
	}
	if !leftasrain.IsSongID(id) {
		http.Error(w, "Song ID must be a non-negative integer", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	track, err := s.client.TrackFromID(r.Context(), id, s.remoteURLs(r))
	s.mu.Unlock()

	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, track)
}

// handleLookup resolves a leftasrain:track: URI to a playable track.
func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uri := r.URL.Query().Get("uri")
	if uri == "" {
		http.Error(w, "uri is required", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	track, err := s.client.Lookup(r.Context(), uri)
	s.mu.Unlock()

	switch {
	case errors.Is(err, leftasrain.ErrInvalidURI):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case err != nil:
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		writeJSON(w, http.StatusOK, track)
	}
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	job, err := s.jobMgr.CreateJob()
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	s.logger.Info("Created sync job %s", job.ID)

	go s.processJob(job.ID)

	writeJSON(w, http.StatusAccepted, jobToResponse(job))
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	jobs := s.jobMgr.ListJobs()
	slices.SortFunc(jobs, func(a, b Job) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	responses := make([]*JobResponse, len(jobs))
	for i, job := range jobs {
		responses[i] = jobToResponse(job)
	}

	writeJSON(w, http.StatusOK, responses)
}

func (s *Server) handleJobAction(w http.ResponseWriter, r *http.Request) {
	// Path: /api/jobs/{id} or /api/jobs/{id}/cancel
	path := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "Job ID required", http.StatusBadRequest)
		return
	}

	jobID := parts[0]

	if r.Method == http.MethodGet && len(parts) == 1 {
		job, err := s.jobMgr.GetJob(jobID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, jobToResponse(job))
		return
	}

	if r.Method == http.MethodPost && len(parts) == 2 && parts[1] == "cancel" {
		err := s.jobMgr.UpdateJob(jobID, func(j *Job) {
			if j.Cancel != nil {
				j.Cancel()
			}
			if !j.Status.Done() {
				j.Status = StatusCancelled
			}
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
		return
	}

	http.Error(w, "Invalid request", http.StatusBadRequest)
}

func (s *Server) processJob(jobID string) {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	cancelled := false
	s.jobMgr.UpdateJob(jobID, func(j *Job) {
		if j.Status == StatusCancelled {
			cancelled = true
			return
		}
		j.Cancel = cancel
		j.Status = StatusRunning
	})
	if cancelled {
		return
	}

	s.logger.Info("Starting sync job %s", jobID)

	stats, err := s.client.Sync(ctx, leftasrain.SyncOptions{
		SaveEvery: s.config.SaveEvery,
		Locker:    &s.mu,
		OnProgress: func(done, total int) {
			s.jobMgr.UpdateJob(jobID, func(j *Job) {
				j.Progress = done
				j.Total = total
			})
		},
	})

	s.jobMgr.UpdateJob(jobID, func(j *Job) {
		j.Total = stats.Total
		j.Fetched = stats.Fetched
		j.Failed = stats.Failed
		switch {
		case j.Status == StatusCancelled:
		case errors.Is(err, context.Canceled):
			j.Status = StatusCancelled
		case err != nil:
			j.Status = StatusFailed
			j.Error = err.Error()
		default:
			j.Status = StatusCompleted
		}
	})

	if err != nil {
		s.logger.Error("Sync job %s failed: %v", jobID, err)
		return
	}
	s.logger.Info("Sync job %s completed: %d fetched, %d failed", jobID, stats.Fetched, stats.Failed)
}

func (s *Server) remoteURLs(r *http.Request) bool {
	switch r.URL.Query().Get("remote") {
	case "1", "true":
		return true
	case "0", "false":
		return false
	}
	return s.config.RemoteURLs
}

func jobToResponse(job Job) *JobResponse {
	resp := &JobResponse{
		ID:        job.ID,
		Status:    job.Status,
		Progress:  job.Progress,
		Total:     job.Total,
		Fetched:   job.Fetched,
		Failed:    job.Failed,
		Error:     job.Error,
		CreatedAt: job.CreatedAt.Format("2006-01-02 15:04:05"),
	}

	if job.StartedAt != nil {
		started := job.StartedAt.Format("2006-01-02 15:04:05")
		resp.StartedAt = &started
	}

	if job.CompletedAt != nil {
		completed := job.CompletedAt.Format("2006-01-02 15:04:05")
		resp.CompletedAt = &completed
	}

	return resp
}
