package analyzecmder_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	analyzecmder "github.com/replyscope/replyscope/cmd/replyscope/analyze"
	"github.com/replyscope/replyscope/pkg/client"
	"github.com/replyscope/replyscope/pkg/client/clienttest"
	"github.com/replyscope/replyscope/pkg/dotdir"
	"github.com/replyscope/replyscope/pkg/storage/sqlite"
)

var _ = Describe("Analyze command", func() {
	var (
		backend   *clienttest.Backend
		configDir string
		dbPath    string
		out       *bytes.Buffer
	)

	run := func(args ...string) error {
		root := &cobra.Command{Use: "replyscope"}
		root.PersistentFlags().String("config-dir", configDir, "")
		root.AddCommand(analyzecmder.NewAnalyzeCmd())
		root.SetOut(out)
		root.SetErr(out)
		root.SetArgs(append(args, "--target", backend.URL, "--sqlite", dbPath))
		return root.Execute()
	}

	BeforeEach(func() {
		backend = clienttest.NewBackend()
		configDir = GinkgoT().TempDir()
		dbPath = filepath.Join(GinkgoT().TempDir(), "history.db")
		out = &bytes.Buffer{}
	})

	AfterEach(func() {
		backend.Close()
	})

	It("rejects more than one argument", func() {
		cmd := analyzecmder.NewAnalyzeCmd()
		Expect(cmd.Args(cmd, []string{"a", "b"})).NotTo(Succeed())
	})

	It("requires a template or a prompt", func() {
		err := run("analyze", clienttest.CompletedTaskID)
		Expect(err).To(MatchError(ContainSubstring("no template")))
		Expect(backend.Analyses()).To(BeEmpty())
	})

	It("requires a prompt for the custom template", func() {
		err := run("analyze", clienttest.CompletedTaskID, "--template", client.CustomTemplateID)
		Expect(err).To(MatchError(ContainSubstring("--prompt")))
	})

	It("rejects a prompt combined with a preset template", func() {
		err := run("analyze", clienttest.CompletedTaskID, "--template", "sentiment", "--prompt", "hi")
		Expect(err).To(HaveOccurred())
	})

	It("records no stream protocol for a non-streamed analysis", func() {
		Expect(run("analyze", clienttest.CompletedTaskID, "--template", "sentiment", "--no-stream")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Recorded as"))

		driver, err := sqlite.NewDriver(context.Background(), dbPath)
		Expect(err).NotTo(HaveOccurred())
		defer driver.Close()

		recs, err := driver.ListAnalyses(context.Background(), clienttest.CompletedTaskID)
		Expect(err).NotTo(HaveOccurred())
		Expect(recs).To(HaveLen(1))
		Expect(recs[0].Protocol).To(BeEmpty())
		Expect(recs[0].Content).To(Equal("# Summary\nViewers liked the editing."))
	})

	It("streams the analysis and records it in history", func() {
		Expect(run("analyze", clienttest.CompletedTaskID, "--template", "sentiment")).To(Succeed())

		Expect(out.String()).To(ContainSubstring("# Summary\nViewers liked the editing."))
		Expect(out.String()).To(ContainSubstring("Analysis finished"))
		Expect(out.String()).To(ContainSubstring("Recorded as"))

		reqs := backend.Analyses()
		Expect(reqs).To(HaveLen(1))
		Expect(reqs[0].TaskID).To(Equal(clienttest.CompletedTaskID))
		Expect(reqs[0].TemplateID).To(Equal("sentiment"))
		Expect(backend.Requests()).To(ContainElement(ContainSubstring("/api/v2/analyze-stream")))

		driver, err := sqlite.NewDriver(context.Background(), dbPath)
		Expect(err).NotTo(HaveOccurred())
		defer driver.Close()

		recs, err := driver.ListAnalyses(context.Background(), clienttest.CompletedTaskID)
		Expect(err).NotTo(HaveOccurred())
		Expect(recs).To(HaveLen(1))
		Expect(recs[0].TemplateID).To(Equal("sentiment"))
		Expect(recs[0].Protocol).To(Equal("v2"))
		Expect(recs[0].Content).To(Equal("# Summary\nViewers liked the editing."))
	})

	It("uses the structured endpoint for protocol v1", func() {
		backend.SetStreamBody("event: content\ndata: \"ok\"\n\nevent: done\ndata: {}\n\n")

		Expect(run("analyze", clienttest.CompletedTaskID, "--template", "topics", "--protocol", "v1", "--no-record")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("ok"))
		Expect(out.String()).NotTo(ContainSubstring("Recorded as"))
		Expect(backend.Requests()).To(ContainElement(ContainSubstring("/api/analysis/analyze-stream")))
	})

	It("sends a custom prompt with the custom template", func() {
		Expect(run("analyze", clienttest.CompletedTaskID, "--prompt", "What do viewers ask for?", "--no-record")).To(Succeed())

		reqs := backend.Analyses()
		Expect(reqs).To(HaveLen(1))
		Expect(reqs[0].TemplateID).To(Equal(client.CustomTemplateID))
		Expect(reqs[0].CustomPrompt).To(Equal("What do viewers ask for?"))
	})

	It("falls back to the selected task and its template", func() {
		Expect(dotdir.NewManager().SaveSelection(&dotdir.Selection{
			TaskID:     clienttest.CompletedTaskID,
			VideoTitle: "Building a desk",
			TemplateID: "topics",
		}, configDir)).To(Succeed())

		Expect(run("analyze")).To(Succeed())

		reqs := backend.Analyses()
		Expect(reqs).To(HaveLen(1))
		Expect(reqs[0].TaskID).To(Equal(clienttest.CompletedTaskID))
		Expect(reqs[0].TemplateID).To(Equal("topics"))

		driver, err := sqlite.NewDriver(context.Background(), dbPath)
		Expect(err).NotTo(HaveOccurred())
		defer driver.Close()

		recs, err := driver.ListAnalyses(context.Background(), "")
		Expect(err).NotTo(HaveOccurred())
		Expect(recs).To(HaveLen(1))
		Expect(recs[0].VideoTitle).To(Equal("Building a desk"))
	})

	It("passes the comment limit", func() {
		Expect(run("analyze", clienttest.CompletedTaskID, "--template", "sentiment", "--comment-limit", "25", "--no-record")).To(Succeed())
		Expect(backend.Analyses()[0].CommentLimit).To(Equal(25))
	})

	It("reports in-band stream errors", func() {
		backend.SetStreamBody("data: partial\n\ndata: [ERROR] model overloaded\n\n")

		err := run("analyze", clienttest.CompletedTaskID, "--template", "sentiment")
		Expect(err).To(MatchError(ContainSubstring("model overloaded")))
		Expect(out.String()).To(ContainSubstring("partial"))
		Expect(out.String()).NotTo(ContainSubstring("Recorded as"))
	})

	It("writes the analysis to --output", func() {
		path := filepath.Join(GinkgoT().TempDir(), "report.md")

		Expect(run("analyze", clienttest.CompletedTaskID, "--template", "sentiment", "--output", path, "--no-record")).To(Succeed())

		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("# Summary\nViewers liked the editing."))
		Expect(out.String()).To(ContainSubstring("Saved"))
	})

	It("names saved analyses after the task", func() {
		dir := GinkgoT().TempDir()
		origDir, err := os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(dir)).To(Succeed())
		DeferCleanup(func() { os.Chdir(origDir) })

		Expect(run("analyze", clienttest.CompletedTaskID, "--template", "sentiment", "--save", "--no-record")).To(Succeed())

		matches, err := filepath.Glob(filepath.Join(dir, "analysis_"+clienttest.CompletedTaskID+"_*.md"))
		Expect(err).NotTo(HaveOccurred())
		Expect(matches).To(HaveLen(1))
	})

	Describe("--preview", func() {
		It("prints the rendered prompt without analyzing", func() {
			Expect(run("analyze", clienttest.CompletedTaskID, "--template", "sentiment", "--preview")).To(Succeed())

			Expect(out.String()).To(ContainSubstring("Summarize the mood"))
			Expect(out.String()).To(ContainSubstring("3 sample comments"))
			Expect(backend.Analyses()).To(BeEmpty())
		})

		It("prints a custom prompt as given", func() {
			Expect(run("analyze", clienttest.CompletedTaskID, "--prompt", "Count the questions", "--preview")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("Count the questions"))
			Expect(backend.Requests()).NotTo(ContainElement(ContainSubstring("/api/v2/preview")))
		})
	})
})

var _ = Describe("Analyze command without streaming", func() {
	It("waits for the complete analysis", func() {
		backend := clienttest.NewBackend()
		defer backend.Close()

		out := &bytes.Buffer{}
		root := &cobra.Command{Use: "replyscope"}
		root.PersistentFlags().String("config-dir", GinkgoT().TempDir(), "")
		root.AddCommand(analyzecmder.NewAnalyzeCmd())
		root.SetOut(out)
		root.SetErr(out)
		root.SetArgs([]string{
			"analyze", clienttest.CompletedTaskID,
			"--template", "sentiment",
			"--no-stream", "--no-record",
			"--target", backend.URL,
		})

		Expect(root.Execute()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Viewers liked the editing."))
		Expect(backend.Requests()).To(ContainElement("POST /api/analysis/analyze"))
		Expect(backend.Requests()).NotTo(ContainElement(ContainSubstring("analyze-stream")))
	})
})
