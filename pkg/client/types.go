package client

// Task statuses reported by the backend.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Scrape defaults applied when a request leaves them unset.
const (
	DefaultPageLimit = 2
	DefaultDelayMs   = 300
	DefaultSortMode  = "time"
)

// ScrapeRequest starts a comment scrape for one video.
type ScrapeRequest struct {
	VideoID        string `json:"video_id"`
	AuthType       string `json:"auth_type,omitempty"`
	Cookie         string `json:"cookie,omitempty"`
	AppKey         string `json:"app_key,omitempty"`
	AppSecret      string `json:"app_secret,omitempty"`
	PageLimit      int    `json:"page_limit"`
	DelayMs        int    `json:"delay_ms"`
	SortMode       string `json:"sort_mode"`
	IncludeReplies bool   `json:"include_replies"`
}

// TaskProgress is the page/comment counter of a running scrape.
type TaskProgress struct {
	CurrentPage   int `json:"current_page"`
	TotalComments int `json:"total_comments"`
	PageLimit     int `json:"page_limit"`
}

// Fraction is the scraped share of the page limit in [0, 1].
func (p TaskProgress) Fraction() float64 {
	if p.PageLimit <= 0 {
		return 0
	}
	f := float64(p.CurrentPage) / float64(p.PageLimit)
	return min(max(f, 0), 1)
}

// ScrapeResponse acknowledges a started scrape.
type ScrapeResponse struct {
	TaskID   string       `json:"task_id"`
	VideoID  string       `json:"video_id"`
	Status   string       `json:"status"`
	Progress TaskProgress `json:"progress"`
}

// Progress is the polling view of a scrape task.
type Progress struct {
	TaskID         string       `json:"task_id"`
	Status         string       `json:"status"`
	Progress       TaskProgress `json:"progress"`
	VideoTitle     string       `json:"video_title,omitempty"`
	VideoID        string       `json:"video_id,omitempty"`
	StartTime      string       `json:"start_time"`
	EndTime        string       `json:"end_time,omitempty"`
	ElapsedSeconds int64        `json:"elapsed_seconds"`
	Error          string       `json:"error,omitempty"`
}

// Finished reports whether the task reached a terminal status.
func (p *Progress) Finished() bool {
	return p.Status == StatusCompleted || p.Status == StatusFailed
}

// Comment is one scraped comment with its nested replies.
type Comment struct {
	RPID    int64     `json:"rpid"`
	Author  string    `json:"author"`
	Avatar  string    `json:"avatar"`
	Content string    `json:"content"`
	Likes   int       `json:"likes"`
	Time    string    `json:"time"`
	Level   int       `json:"level"`
	Replies []Comment `json:"replies,omitempty"`
}

// ResultQuery filters and orders a result fetch. Zero values are omitted and
// the backend defaults apply (sort time_desc, limit 1000).
type ResultQuery struct {
	Sort    string
	Keyword string
	Limit   int
}

// Result is a page of scraped comments.
type Result struct {
	TaskID     string    `json:"task_id"`
	TotalCount int       `json:"total_count"`
	Comments   []Comment `json:"comments"`
}

// Keyword is a frequent term with its count.
type Keyword struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Like buckets reported in Stats.ByLikes.
var LikeBuckets = []string{"0-10", "11-50", "51-100", "100+"}

// Stats aggregates a completed task's comments.
type Stats struct {
	TaskID        string         `json:"task_id"`
	TotalComments int            `json:"total_comments"`
	ByDate        map[string]int `json:"by_date"`
	ByLikes       map[string]int `json:"by_likes"`
	TopKeywords   []Keyword      `json:"top_keywords"`
}

// ExportRequest asks the backend to write a task's comments to a file.
type ExportRequest struct {
	TaskID   string `json:"task_id"`
	Format   string `json:"format"`
	Sort     string `json:"sort,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// ExportFile describes a file ready for download.
type ExportFile struct {
	FileID      string `json:"file_id"`
	Filename    string `json:"filename"`
	DownloadURL string `json:"download_url"`
	CreatedAt   string `json:"created_at"`
}

// VideoInfo is the metadata of a single video.
type VideoInfo struct {
	BVID          string `json:"bvid"`
	AID           int64  `json:"aid"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	Views         int    `json:"views"`
	CommentsTotal int    `json:"comments_total"`
	Likes         int    `json:"likes"`
	CreatedTime   int64  `json:"created_time"`
	PicURL        string `json:"pic_url"`
	Description   string `json:"description"`
}

// Task is a scrape task as listed by the tasks endpoints. Comments holds a
// short preview and is only populated by Client.Task.
type Task struct {
	TaskID       string       `json:"task_id"`
	VideoID      string       `json:"video_id"`
	VideoTitle   string       `json:"video_title"`
	Status       string       `json:"status"`
	CommentCount int          `json:"comment_count"`
	StartTime    string       `json:"start_time"`
	EndTime      string       `json:"end_time"`
	Error        string       `json:"error,omitempty"`
	Progress     TaskProgress `json:"progress"`
	Comments     []Comment    `json:"comments,omitempty"`
}

// CustomTemplateID selects a caller supplied prompt instead of a preset.
const CustomTemplateID = "custom"

// Template is an analysis prompt template.
type Template struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Prompt      string `json:"prompt"`
}

// PreviewRequest renders a template against a sample of a task's comments.
type PreviewRequest struct {
	TaskID     string `json:"task_id"`
	TemplateID string `json:"template_id"`
}

// Preview is a rendered prompt and the number of sample comments used.
type Preview struct {
	Prompt string `json:"prompt"`
	Count  int    `json:"count"`
}

// AnalyzeRequest runs an analysis over a task's comments.
type AnalyzeRequest struct {
	TaskID       string `json:"task_id"`
	TemplateID   string `json:"template_id"`
	CustomPrompt string `json:"custom_prompt,omitempty"`
	CommentLimit int    `json:"comment_limit,omitempty"`
}

// Analysis is the result of a non-streaming analysis.
type Analysis struct {
	TaskID    string `json:"task_id"`
	Analysis  string `json:"analysis"`
	Timestamp string `json:"timestamp"`
}

// Health is the backend health report.
type Health struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}
