package videocmder_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	videocmder "github.com/replyscope/replyscope/cmd/replyscope/video"
	"github.com/replyscope/replyscope/pkg/client/clienttest"
)

var _ = Describe("Video command", func() {
	var (
		backend *clienttest.Backend
		out     *bytes.Buffer
	)

	run := func(args ...string) error {
		root := &cobra.Command{Use: "replyscope"}
		root.PersistentFlags().String("config-dir", GinkgoT().TempDir(), "")
		root.AddCommand(videocmder.NewVideoCmd())
		root.SetOut(out)
		root.SetErr(out)
		root.SetArgs(append(args, "--target", backend.URL))
		return root.Execute()
	}

	BeforeEach(func() {
		backend = clienttest.NewBackend()
		out = &bytes.Buffer{}
	})

	AfterEach(func() {
		backend.Close()
	})

	It("requires exactly one video", func() {
		cmd := videocmder.NewVideoCmd()
		Expect(cmd.Args(cmd, []string{})).NotTo(Succeed())
	})

	It("prints video details from a URL", func() {
		Expect(run("video", "https://www.bilibili.com/video/BV1xx411c7mD")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Building a desk"))
		Expect(out.String()).To(ContainSubstring("10500"))
		Expect(out.String()).To(ContainSubstring("170001"))
	})

	It("surfaces unknown videos", func() {
		Expect(run("video", "BV0000000000")).To(MatchError(ContainSubstring("video not found")))
	})
})
