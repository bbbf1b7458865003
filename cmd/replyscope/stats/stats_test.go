package statscmder_test

import (
	"bytes"
	"io"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	statscmder "github.com/replyscope/replyscope/cmd/replyscope/stats"
	"github.com/replyscope/replyscope/pkg/client"
	"github.com/replyscope/replyscope/pkg/client/clienttest"
)

var _ = Describe("Render", func() {
	stats := &client.Stats{
		TaskID:        "t-1",
		TotalComments: 6,
		ByDate:        map[string]int{"2026-01-02": 1, "2026-01-01": 5},
		ByLikes:       map[string]int{"100+": 1, "0-10": 5, "1000+": 2},
		TopKeywords:   []client.Keyword{{Word: "alpha", Count: 3}, {Word: "beta", Count: 2}, {Word: "gamma", Count: 1}},
	}

	It("lists dates in ascending order", func() {
		s := statscmder.Render(io.Discard, stats, 10)
		Expect(strings.Index(s, "2026-01-01")).To(BeNumerically("<", strings.Index(s, "2026-01-02")))
	})

	It("keeps the natural like bucket order and appends unknown buckets", func() {
		s := statscmder.Render(io.Discard, stats, 10)
		Expect(strings.Index(s, "0-10")).To(BeNumerically("<", strings.Index(s, "11-50")))
		Expect(strings.Index(s, "51-100")).To(BeNumerically("<", strings.Index(s, "100+")))
		Expect(strings.Index(s, "100+")).To(BeNumerically("<", strings.Index(s, "1000+")))
	})

	It("caps the keyword list", func() {
		s := statscmder.Render(io.Discard, stats, 2)
		Expect(s).To(ContainSubstring("alpha"))
		Expect(s).To(ContainSubstring("beta"))
		Expect(s).NotTo(ContainSubstring("gamma"))
	})

	It("omits empty sections", func() {
		s := statscmder.Render(io.Discard, &client.Stats{TaskID: "t-2"}, 10)
		Expect(s).NotTo(ContainSubstring("By date"))
		Expect(s).NotTo(ContainSubstring("Top keywords"))
	})
})

var _ = Describe("Stats command", func() {
	var (
		backend   *clienttest.Backend
		configDir string
		out       *bytes.Buffer
	)

	run := func(args ...string) error {
		root := &cobra.Command{Use: "replyscope"}
		root.PersistentFlags().String("config-dir", configDir, "")
		root.AddCommand(statscmder.NewStatsCmd())
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

	It("prints the stats of a task", func() {
		Expect(run("stats", clienttest.CompletedTaskID)).To(Succeed())
		Expect(out.String()).To(ContainSubstring("3 comments"))
		Expect(out.String()).To(ContainSubstring("joinery"))
	})

	It("surfaces not found", func() {
		Expect(run("stats", clienttest.RunningTaskID)).To(MatchError(ContainSubstring("HTTP 404")))
	})
})
