package taskscmder_test

import (
	"bytes"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	taskscmder "github.com/replyscope/replyscope/cmd/replyscope/tasks"
	"github.com/replyscope/replyscope/pkg/client"
	"github.com/replyscope/replyscope/pkg/client/clienttest"
	"github.com/replyscope/replyscope/pkg/dotdir"
)

var _ = Describe("NewTasksCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := taskscmder.NewTasksCmd()
		Expect(cmd.Use).To(Equal("tasks"))
	})

	It("has a show subcommand", func() {
		cmd := taskscmder.NewTasksCmd()
		names := []string{}
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElement("show"))
	})
})

var _ = Describe("Tasks command execution", func() {
	var (
		backend   *clienttest.Backend
		configDir string
		out       *bytes.Buffer
	)

	run := func(args ...string) error {
		root := &cobra.Command{Use: "replyscope"}
		root.PersistentFlags().String("config-dir", configDir, "")
		root.PersistentFlags().Bool("debug", false, "")
		root.AddCommand(taskscmder.NewTasksCmd())
		root.SetOut(out)
		root.SetErr(out)
		root.SetArgs(append(args, "--target", backend.URL))
		return root.Execute()
	}

	BeforeEach(func() {
		backend = clienttest.NewBackend()
		configDir = GinkgoT().TempDir()
		out = &bytes.Buffer{}
	})

	AfterEach(func() {
		backend.Close()
	})

	It("lists all tasks with counters", func() {
		Expect(run("tasks")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Total 3"))
		Expect(out.String()).To(ContainSubstring("Failed 1"))
		Expect(out.String()).To(ContainSubstring(clienttest.CompletedTaskID))
		Expect(out.String()).To(ContainSubstring(clienttest.RunningTaskID))
	})

	It("filters by status", func() {
		Expect(run("tasks", "--status", "failed", "--quiet")).To(Succeed())
		Expect(strings.TrimSpace(out.String())).To(Equal(clienttest.FailedTaskID))
	})

	It("rejects an unknown status", func() {
		err := run("tasks", "--status", "paused")
		Expect(err).To(MatchError(ContainSubstring("invalid status")))
	})

	It("marks the selected task", func() {
		Expect(dotdir.NewManager().SaveSelection(&dotdir.Selection{TaskID: clienttest.RunningTaskID}, configDir)).To(Succeed())

		Expect(run("tasks")).To(Succeed())

		var marked string
		for _, line := range strings.Split(out.String(), "\n") {
			if strings.Contains(line, "*") {
				marked = line
			}
		}
		Expect(marked).To(ContainSubstring(clienttest.RunningTaskID))
	})

	Describe("show", func() {
		It("shows an explicit task with its comments", func() {
			Expect(run("tasks", "show", clienttest.CompletedTaskID)).To(Succeed())
			Expect(out.String()).To(ContainSubstring("Building a desk"))
			Expect(out.String()).To(ContainSubstring("Great joinery"))
		})

		It("falls back to the selected task", func() {
			Expect(dotdir.NewManager().SaveSelection(&dotdir.Selection{TaskID: clienttest.FailedTaskID}, configDir)).To(Succeed())

			Expect(run("tasks", "show")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("video not found"))
		})

		It("errors when nothing is selected", func() {
			err := run("tasks", "show")
			Expect(err).To(MatchError(ContainSubstring("none selected")))
		})

		It("surfaces backend errors", func() {
			err := run("tasks", "show", "missing")
			Expect(err).To(HaveOccurred())

			var apiErr *client.APIError
			Expect(errors.As(err, &apiErr)).To(BeTrue())
			Expect(apiErr.StatusCode).To(Equal(404))
		})
	})
})

var _ = Describe("RenderCounts", func() {
	It("renders every counter", func() {
		s := taskscmder.RenderCounts(client.TaskCounts{Total: 4, Running: 1, Completed: 2, Failed: 1})
		Expect(s).To(ContainSubstring("Total 4"))
		Expect(s).To(ContainSubstring("Running 1"))
		Expect(s).To(ContainSubstring("Completed 2"))
		Expect(s).To(ContainSubstring("Failed 1"))
	})
})
