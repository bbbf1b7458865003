package statuscmder_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	statuscmder "github.com/replyscope/replyscope/cmd/replyscope/status"
	"github.com/replyscope/replyscope/pkg/client/clienttest"
	"github.com/replyscope/replyscope/pkg/dotdir"
)

var _ = Describe("Status command", func() {
	var (
		backend   *clienttest.Backend
		configDir string
		out       *bytes.Buffer
	)

	run := func(args ...string) error {
		root := &cobra.Command{Use: "replyscope"}
		root.PersistentFlags().String("config-dir", configDir, "")
		root.AddCommand(statuscmder.NewStatusCmd())
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

	It("takes no arguments", func() {
		cmd := statuscmder.NewStatusCmd()
		Expect(cmd.Args(cmd, []string{"extra"})).NotTo(Succeed())
	})

	It("shows backend health and services", func() {
		Expect(run("status")).To(Succeed())
		Expect(out.String()).To(ContainSubstring(backend.URL))
		Expect(out.String()).To(ContainSubstring("healthy"))
		Expect(out.String()).To(ContainSubstring("analyzer"))
		Expect(out.String()).To(ContainSubstring("scraper"))
		Expect(out.String()).To(ContainSubstring("No task selected"))
	})

	It("shows the selected task", func() {
		Expect(dotdir.NewManager().SaveSelection(&dotdir.Selection{
			TaskID:     clienttest.CompletedTaskID,
			VideoID:    "BV1xx411c7mD",
			VideoTitle: "Building a desk",
			TemplateID: "sentiment",
		}, configDir)).To(Succeed())

		Expect(run("status")).To(Succeed())
		Expect(out.String()).To(ContainSubstring(clienttest.CompletedTaskID))
		Expect(out.String()).To(ContainSubstring("Building a desk"))
		Expect(out.String()).To(ContainSubstring("sentiment"))
	})

	It("reports a degraded backend", func() {
		backend.HealthStatus = "degraded"
		Expect(run("status")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("degraded"))
	})

	It("fails but still shows the selection when the backend is down", func() {
		Expect(dotdir.NewManager().SaveSelection(&dotdir.Selection{TaskID: "task-x"}, configDir)).To(Succeed())
		backend.Close()

		err := run("status", "--timeout", "1s")
		Expect(err).To(MatchError(ContainSubstring("backend unreachable")))
		Expect(out.String()).To(ContainSubstring("task-x"))
	})
})
