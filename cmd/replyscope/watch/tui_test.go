package watchcmder

import (
	"context"
	"errors"
	"time"

	bubbletea "github.com/charmbracelet/bubbletea"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/replyscope/replyscope/pkg/client"
)

var _ = Describe("Watch TUI model", func() {
	var (
		polls int
		model watchModel
	)

	running := &client.Progress{
		TaskID:     "t-1",
		Status:     client.StatusRunning,
		VideoTitle: "Night drive",
		Progress:   client.TaskProgress{CurrentPage: 1, TotalComments: 20, PageLimit: 4},
	}

	BeforeEach(func() {
		polls = 0
		model = newWatchModel(context.Background(), "t-1", func(context.Context) (*client.Progress, error) {
			polls++
			return running, nil
		}, time.Millisecond)
	})

	update := func(m watchModel, msg bubbletea.Msg) (watchModel, bubbletea.Cmd) {
		next, cmd := m.Update(msg)
		return next.(watchModel), cmd
	}

	It("polls through its commands", func() {
		msg := model.pollCmd()()
		Expect(polls).To(Equal(1))
		Expect(msg).To(Equal(progressMsg{progress: running}))
	})

	It("keeps polling while the task runs", func() {
		m, cmd := update(model, progressMsg{progress: running})
		Expect(m.done).To(BeFalse())
		Expect(cmd).NotTo(BeNil())
		Expect(m.View()).To(ContainSubstring("Night drive"))
		Expect(m.View()).To(ContainSubstring("1/4"))
		Expect(m.View()).To(ContainSubstring("stop watching"))

		m, cmd = update(m, pollTickMsg(time.Now()))
		Expect(cmd).NotTo(BeNil())
		Expect(cmd()).To(Equal(progressMsg{progress: running}))
	})

	It("finishes when the task completes", func() {
		completed := &client.Progress{TaskID: "t-1", Status: client.StatusCompleted}
		m, cmd := update(model, progressMsg{progress: completed})
		Expect(m.done).To(BeTrue())
		Expect(m.failure()).NotTo(HaveOccurred())
		Expect(cmd()).To(Equal(bubbletea.Quit()))
	})

	It("reports a failed task", func() {
		failed := &client.Progress{TaskID: "t-1", Status: client.StatusFailed, Error: "video not found"}
		m, _ := update(model, progressMsg{progress: failed})

		var taskErr *client.TaskFailedError
		Expect(errors.As(m.failure(), &taskErr)).To(BeTrue())
		Expect(m.View()).To(ContainSubstring("video not found"))
	})

	It("stops on a polling error", func() {
		m, cmd := update(model, progressMsg{err: errors.New("connection refused")})
		Expect(m.failure()).To(MatchError("connection refused"))
		Expect(cmd()).To(Equal(bubbletea.Quit()))
	})

	It("stops watching on q", func() {
		m, cmd := update(model, bubbletea.KeyMsg{Type: bubbletea.KeyRunes, Runes: []rune("q")})
		Expect(m.stopped).To(BeTrue())
		Expect(cmd()).To(Equal(bubbletea.Quit()))
	})

	It("ignores other keys", func() {
		m, cmd := update(model, bubbletea.KeyMsg{Type: bubbletea.KeyRunes, Runes: []rune("x")})
		Expect(m.stopped).To(BeFalse())
		Expect(cmd).To(BeNil())
	})
})
