// Package clienttest provides an in-process fake of the comment service for
// tests of packages built on pkg/client.
package clienttest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/replyscope/replyscope/pkg/client"
)

// Task ids seeded by NewBackend.
const (
	CompletedTaskID = "task-done"
	RunningTaskID   = "task-running"
	FailedTaskID    = "task-failed"

	// NewTaskID is returned for every scrape started on the backend.
	NewTaskID = "task-new"
)

// DefaultStreamBody is a plain protocol analysis ending in [DONE].
const DefaultStreamBody = "data: # Summary\\n\n\ndata: Viewers liked the editing.\n\ndata: [DONE]\n\n"

// Backend is a fake comment service. Fields may be changed between requests;
// the handler reads them under the lock.
type Backend struct {
	*httptest.Server

	mu sync.Mutex

	Tasks     []client.Task
	Comments  map[string][]client.Comment
	Stats     map[string]*client.Stats
	Templates []client.Template
	Video     client.VideoInfo

	// Progress is served in order per task; the last entry repeats.
	Progress map[string][]client.Progress

	// StreamBody is written verbatim by both analyze-stream endpoints.
	StreamBody string

	// ExportContent is served by the download endpoint.
	ExportContent string

	// HealthStatus is reported by /health; empty means "healthy".
	HealthStatus string

	requests []string
	scrapes  []client.ScrapeRequest
	analyses []client.AnalyzeRequest
}

// NewBackend starts a fake backend seeded with one completed, one running and
// one failed task. Callers must Close it.
func NewBackend() *Backend {
	b := &Backend{
		Tasks: []client.Task{
			{
				TaskID: CompletedTaskID, VideoID: "BV1xx411c7mD", VideoTitle: "Building a desk",
				Status: client.StatusCompleted, CommentCount: 3,
				StartTime: "2026-01-02T10:00:00", EndTime: "2026-01-02T10:01:30",
			},
			{
				TaskID: RunningTaskID, VideoID: "BV1yy411c7mE", VideoTitle: "Night drive",
				Status: client.StatusRunning, StartTime: "2026-01-03T09:00:00",
				Progress: client.TaskProgress{CurrentPage: 1, TotalComments: 20, PageLimit: 4},
			},
			{
				TaskID: FailedTaskID, VideoID: "BV1zz411c7mF", VideoTitle: "Broken upload",
				Status: client.StatusFailed, StartTime: "2026-01-04T08:00:00", Error: "video not found",
			},
		},
		Comments: map[string][]client.Comment{
			CompletedTaskID: {
				{RPID: 101, Author: "maker", Content: "Great joinery", Likes: 120, Time: "2026-01-01 12:00:00"},
				{RPID: 102, Author: "viewer", Content: "What wood is this?", Likes: 12, Time: "2026-01-01 13:00:00",
					Replies: []client.Comment{{RPID: 201, Author: "maker", Content: "Walnut", Likes: 4, Level: 1}}},
				{RPID: 103, Author: "lurker", Content: "first", Likes: 0, Time: "2026-01-02 08:00:00"},
			},
		},
		Stats: map[string]*client.Stats{
			CompletedTaskID: {
				TaskID:        CompletedTaskID,
				TotalComments: 3,
				ByDate:        map[string]int{"2026-01-01": 2, "2026-01-02": 1},
				ByLikes:       map[string]int{"0-10": 1, "11-50": 1, "51-100": 0, "100+": 1},
				TopKeywords:   []client.Keyword{{Word: "joinery", Count: 2}, {Word: "walnut", Count: 1}},
			},
		},
		Templates: []client.Template{
			{ID: "sentiment", Name: "Sentiment", Description: "Overall audience mood", Prompt: "Summarize the mood"},
			{ID: "topics", Name: "Topics", Description: "Recurring themes", Prompt: "List recurring topics"},
			{ID: client.CustomTemplateID, Name: "Custom", Description: "Your own prompt"},
		},
		Video: client.VideoInfo{
			BVID: "BV1xx411c7mD", AID: 170001, Title: "Building a desk", Author: "maker",
			Views: 10500, CommentsTotal: 3, Likes: 870, CreatedTime: 1767225600,
			Description: "A walnut desk from scratch",
		},
		Progress: map[string][]client.Progress{
			CompletedTaskID: {{TaskID: CompletedTaskID, Status: client.StatusCompleted,
				Progress: client.TaskProgress{CurrentPage: 2, TotalComments: 3, PageLimit: 2}}},
			FailedTaskID: {{TaskID: FailedTaskID, Status: client.StatusFailed, Error: "video not found"}},
			NewTaskID: {
				{TaskID: NewTaskID, Status: client.StatusRunning, Progress: client.TaskProgress{CurrentPage: 1, TotalComments: 20, PageLimit: 2}},
				{TaskID: NewTaskID, Status: client.StatusCompleted, Progress: client.TaskProgress{CurrentPage: 2, TotalComments: 40, PageLimit: 2}},
			},
		},
		StreamBody:    DefaultStreamBody,
		ExportContent: "rpid,author,content\n101,maker,Great joinery\n",
	}

	b.Server = httptest.NewServer(b.routes())
	return b
}

// Requests returns "METHOD /path" for every request served so far.
func (b *Backend) Requests() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.requests...)
}

// Scrapes returns the scrape requests received.
func (b *Backend) Scrapes() []client.ScrapeRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]client.ScrapeRequest(nil), b.scrapes...)
}

// Analyses returns the analyze requests received on any analysis endpoint.
func (b *Backend) Analyses() []client.AnalyzeRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]client.AnalyzeRequest(nil), b.analyses...)
}

// SetStreamBody replaces the analysis stream payload.
func (b *Backend) SetStreamBody(body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.StreamBody = body
}

func (b *Backend) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/comments/scrape", b.handleScrape)
	mux.HandleFunc("GET /api/comments/progress/{id}", b.handleProgress)
	mux.HandleFunc("GET /api/comments/result/{id}", b.handleResult)
	mux.HandleFunc("GET /api/comments/stats/{id}", b.handleStats)
	mux.HandleFunc("POST /api/comments/export", b.handleExport)
	mux.HandleFunc("GET /api/download/{id}", b.handleDownload)
	mux.HandleFunc("POST /api/videos/info", b.handleVideo)
	mux.HandleFunc("GET /api/v2/tasks", b.handleTasks)
	mux.HandleFunc("GET /api/v2/tasks/{id}", b.handleTask)
	mux.HandleFunc("GET /api/v2/templates", b.handleTemplates)
	mux.HandleFunc("POST /api/v2/preview", b.handlePreview)
	mux.HandleFunc("POST /api/analysis/analyze", b.handleAnalyze)
	mux.HandleFunc("POST /api/analysis/analyze-stream", b.handleStream)
	mux.HandleFunc("POST /api/v2/analyze-stream", b.handleStream)
	mux.HandleFunc("GET /health", b.handleHealth)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests = append(b.requests, r.Method+" "+r.URL.Path)
		b.mu.Unlock()
		mux.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
}

func (b *Backend) findTask(id string) (client.Task, bool) {
	for _, t := range b.Tasks {
		if t.TaskID == id {
			return t, true
		}
	}
	return client.Task{}, false
}

func (b *Backend) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req client.ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.scrapes = append(b.scrapes, req)
	writeJSON(w, http.StatusOK, client.ScrapeResponse{
		TaskID:   NewTaskID,
		VideoID:  req.VideoID,
		Status:   client.StatusRunning,
		Progress: client.TaskProgress{PageLimit: req.PageLimit},
	})
}

func (b *Backend) handleProgress(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	seq := b.Progress[r.PathValue("id")]
	if len(seq) == 0 {
		notFound(w)
		return
	}

	p := seq[0]
	if len(seq) > 1 {
		b.Progress[r.PathValue("id")] = seq[1:]
	}
	writeJSON(w, http.StatusOK, p)
}

func (b *Backend) handleResult(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := r.PathValue("id")
	comments, ok := b.Comments[id]
	if !ok {
		notFound(w)
		return
	}

	if kw := r.URL.Query().Get("keyword"); kw != "" {
		filtered := make([]client.Comment, 0, len(comments))
		for _, c := range comments {
			if strings.Contains(c.Content, kw) {
				filtered = append(filtered, c)
			}
		}
		comments = filtered
	}

	total := len(comments)
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit > 0 && limit < len(comments) {
		comments = comments[:limit]
	}

	writeJSON(w, http.StatusOK, client.Result{TaskID: id, TotalCount: total, Comments: comments})
}

func (b *Backend) handleStats(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	stats, ok := b.Stats[r.PathValue("id")]
	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (b *Backend) handleExport(w http.ResponseWriter, r *http.Request) {
	var req client.ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.Comments[req.TaskID]; !ok {
		notFound(w)
		return
	}

	name := req.Filename
	if name == "" {
		name = req.TaskID
	}
	writeJSON(w, http.StatusOK, client.ExportFile{
		FileID:      "file-1",
		Filename:    fmt.Sprintf("%s.%s", name, req.Format),
		DownloadURL: "/api/download/file-1",
		CreatedAt:   "2026-01-05T12:00:00",
	})
}

func (b *Backend) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.PathValue("id") != "file-1" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "file not found"})
		return
	}

	b.mu.Lock()
	content := b.ExportContent
	b.mu.Unlock()

	w.Header().Set("Content-Type", "text/csv")
	_, _ = fmt.Fprint(w, content)
}

func (b *Backend) handleVideo(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	_ = json.NewDecoder(r.Body).Decode(&body)

	b.mu.Lock()
	defer b.mu.Unlock()

	ref := body["video_url_or_id"]
	if !strings.Contains(ref, b.Video.BVID) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "video not found"})
		return
	}
	writeJSON(w, http.StatusOK, b.Video)
}

func (b *Backend) handleTasks(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.Tasks)
}

func (b *Backend) handleTask(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.findTask(r.PathValue("id"))
	if !ok {
		notFound(w)
		return
	}
	t.Comments = b.Comments[t.TaskID]
	writeJSON(w, http.StatusOK, t)
}

func (b *Backend) handleTemplates(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.Templates)
}

func (b *Backend) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req client.PreviewRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	b.mu.Lock()
	defer b.mu.Unlock()

	tmpl := client.FindTemplate(b.Templates, req.TemplateID)
	if tmpl == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "template not found"})
		return
	}
	writeJSON(w, http.StatusOK, client.Preview{
		Prompt: tmpl.Prompt + "\n\n1. Great joinery",
		Count:  len(b.Comments[req.TaskID]),
	})
}

func (b *Backend) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req client.AnalyzeRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.analyses = append(b.analyses, req)
	writeJSON(w, http.StatusOK, client.Analysis{
		TaskID:    req.TaskID,
		Analysis:  "# Summary\nViewers liked the editing.",
		Timestamp: "2026-01-05T12:00:00",
	})
}

func (b *Backend) handleStream(w http.ResponseWriter, r *http.Request) {
	var req client.AnalyzeRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	b.mu.Lock()
	b.analyses = append(b.analyses, req)
	body := b.StreamBody
	b.mu.Unlock()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = fmt.Fprint(w, body)
}

func (b *Backend) handleHealth(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	status := b.HealthStatus
	b.mu.Unlock()

	if status == "" {
		status = "healthy"
	}
	writeJSON(w, http.StatusOK, client.Health{
		Status:   status,
		Services: map[string]string{"scraper": "up", "analyzer": "up"},
	})
}
