package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// StartScrape starts a scrape task. Unset page limit, delay and sort mode take
// the backend defaults.
func (c *Client) StartScrape(ctx context.Context, req ScrapeRequest) (*ScrapeResponse, error) {
	if strings.TrimSpace(req.VideoID) == "" {
		return nil, fmt.Errorf("video id is required")
	}
	if req.PageLimit <= 0 {
		req.PageLimit = DefaultPageLimit
	}
	if req.DelayMs <= 0 {
		req.DelayMs = DefaultDelayMs
	}
	if req.SortMode == "" {
		req.SortMode = DefaultSortMode
	}
	if req.SortMode != "time" && req.SortMode != "hot" {
		return nil, fmt.Errorf("invalid sort mode %q: must be time or hot", req.SortMode)
	}

	var out ScrapeResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/comments/scrape", req, &out, "failed to start scrape"); err != nil {
		return nil, err
	}
	return &out, nil
}

// Progress fetches the current progress of a task.
func (c *Client) Progress(ctx context.Context, taskID string) (*Progress, error) {
	var out Progress
	if err := c.doJSON(ctx, http.MethodGet, taskPath("/api/comments/progress", taskID), nil, &out, "failed to get progress"); err != nil {
		return nil, err
	}
	return &out, nil
}

// Results fetches a task's comments.
func (c *Client) Results(ctx context.Context, taskID string, q ResultQuery) (*Result, error) {
	params := url.Values{}
	if q.Sort != "" {
		params.Set("sort", q.Sort)
	}
	if q.Keyword != "" {
		params.Set("keyword", q.Keyword)
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	path := taskPath("/api/comments/result", taskID)
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var out Result
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out, "failed to get results"); err != nil {
		return nil, err
	}
	return &out, nil
}

// Stats fetches the date and like distribution of a completed task.
func (c *Client) Stats(ctx context.Context, taskID string) (*Stats, error) {
	var out Stats
	if err := c.doJSON(ctx, http.MethodGet, taskPath("/api/comments/stats", taskID), nil, &out, "failed to get stats"); err != nil {
		return nil, err
	}
	return &out, nil
}

// Export asks the backend to write a task's comments to a downloadable file.
func (c *Client) Export(ctx context.Context, req ExportRequest) (*ExportFile, error) {
	if req.TaskID == "" {
		return nil, fmt.Errorf("task id is required")
	}
	if req.Format == "" {
		return nil, fmt.Errorf("export format is required")
	}

	var out ExportFile
	if err := c.doJSON(ctx, http.MethodPost, "/api/comments/export", req, &out, "failed to export"); err != nil {
		return nil, err
	}
	return &out, nil
}

// Download copies an exported file to w. downloadURL is the value returned in
// ExportFile.DownloadURL and may be relative to the backend.
func (c *Client) Download(ctx context.Context, downloadURL string, w io.Writer) (int64, error) {
	req, err := c.newRequest(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "*/*")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, mapHTTPError(resp, "failed to download")
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("writing download: %w", err)
	}

	c.logger.Debug("downloaded export", "url", downloadURL, "bytes", n)
	return n, nil
}

// VideoInfo looks up a video by BV id, av id or URL.
func (c *Client) VideoInfo(ctx context.Context, urlOrID string) (*VideoInfo, error) {
	if strings.TrimSpace(urlOrID) == "" {
		return nil, fmt.Errorf("video url or id is required")
	}

	body := map[string]string{"video_url_or_id": urlOrID}

	var out VideoInfo
	if err := c.doJSON(ctx, http.MethodPost, "/api/videos/info", body, &out, "failed to get video info"); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health reports the backend's health.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var out Health
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, &out, "health check failed"); err != nil {
		return nil, err
	}
	return &out, nil
}
