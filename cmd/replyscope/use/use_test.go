package usecmder_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	usecmder "github.com/replyscope/replyscope/cmd/replyscope/use"
	"github.com/replyscope/replyscope/pkg/client/clienttest"
	"github.com/replyscope/replyscope/pkg/dotdir"
)

var _ = Describe("Use command", func() {
	var (
		backend   *clienttest.Backend
		configDir string
		out       *bytes.Buffer
	)

	run := func(args ...string) error {
		root := &cobra.Command{Use: "replyscope"}
		root.PersistentFlags().String("config-dir", configDir, "")
		root.AddCommand(usecmder.NewUseCmd())
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

	It("rejects more than one argument", func() {
		cmd := usecmder.NewUseCmd()
		Expect(cmd.Args(cmd, []string{"a", "b"})).NotTo(Succeed())
	})

	It("selects a task and caches its video", func() {
		Expect(run("use", clienttest.CompletedTaskID, "--template", "sentiment")).To(Succeed())

		sel, err := dotdir.NewManager().LoadSelection(configDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(sel).NotTo(BeNil())
		Expect(sel.TaskID).To(Equal(clienttest.CompletedTaskID))
		Expect(sel.VideoTitle).To(Equal("Building a desk"))
		Expect(sel.TemplateID).To(Equal("sentiment"))
		Expect(out.String()).To(ContainSubstring("Selected"))
	})

	It("does not select unknown tasks", func() {
		Expect(run("use", "missing")).NotTo(Succeed())

		sel, err := dotdir.NewManager().LoadSelection(configDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(sel).To(BeNil())
	})

	It("clears the selection without an argument", func() {
		Expect(run("use", clienttest.CompletedTaskID)).To(Succeed())
		Expect(run("use")).To(Succeed())

		sel, err := dotdir.NewManager().LoadSelection(configDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(sel).To(BeNil())
		Expect(out.String()).To(ContainSubstring("Selection cleared"))
	})
})
