package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/replyscope/replyscope/pkg/client"
)

var _ = Describe("WaitForTask", func() {
	var (
		server *httptest.Server
		c      *client.Client
		polls  atomic.Int32
		final  string
	)

	BeforeEach(func() {
		polls.Store(0)
		final = client.StatusCompleted

		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/comments/progress/{id}", func(w http.ResponseWriter, r *http.Request) {
			n := polls.Add(1)
			status := client.StatusRunning
			if n >= 3 {
				status = final
			}
			p := client.Progress{
				TaskID:   r.PathValue("id"),
				Status:   status,
				Progress: client.TaskProgress{CurrentPage: int(n), PageLimit: 3},
			}
			if status == client.StatusFailed {
				p.Error = "cookie expired"
			}
			writeJSON(w, http.StatusOK, p)
		})
		server = httptest.NewServer(mux)

		var err error
		c, err = client.New(client.Config{Target: server.URL})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	It("polls until the task completes", func() {
		var pages []int
		p, err := c.WaitForTask(context.Background(), "task-1", 5*time.Millisecond, func(p *client.Progress) {
			pages = append(pages, p.Progress.CurrentPage)
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(p.Status).To(Equal(client.StatusCompleted))
		Expect(pages).To(Equal([]int{1, 2, 3}))
	})

	It("returns a TaskFailedError for failed tasks", func() {
		final = client.StatusFailed

		p, err := c.WaitForTask(context.Background(), "task-1", 5*time.Millisecond, nil)
		var failed *client.TaskFailedError
		Expect(errors.As(err, &failed)).To(BeTrue())
		Expect(failed.Message).To(Equal("cookie expired"))
		Expect(p.Status).To(Equal(client.StatusFailed))
	})

	It("stops when the context is cancelled", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := c.WaitForTask(ctx, "task-1", time.Hour, nil)
		Expect(err).To(MatchError(context.DeadlineExceeded))
	})
})
