package mcpcmder_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	mcpcmder "github.com/replyscope/replyscope/cmd/replyscope/mcp"
	"github.com/replyscope/replyscope/pkg/client/clienttest"
)

var _ = Describe("MCP command", func() {
	var (
		backend   *clienttest.Backend
		configDir string
		out       *bytes.Buffer
	)

	newRoot := func(args ...string) *cobra.Command {
		root := &cobra.Command{Use: "replyscope"}
		root.PersistentFlags().String("config-dir", configDir, "")
		root.AddCommand(mcpcmder.NewMCPCmd())
		root.SetOut(out)
		root.SetErr(out)
		root.SetArgs(append(args, "--target", backend.URL, "--no-record"))
		return root
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
		cmd := mcpcmder.NewMCPCmd()
		Expect(cmd.Args(cmd, []string{"extra"})).NotTo(Succeed())
	})

	It("rejects an unknown stream protocol", func() {
		err := newRoot("mcp", "--protocol", "v9", "--listen", "127.0.0.1:0").Execute()
		Expect(err).To(HaveOccurred())
	})

	It("fails on an unusable listen address", func() {
		err := newRoot("mcp", "--listen", "not-an-address").Execute()
		Expect(err).To(MatchError(ContainSubstring("listening on")))
	})

	It("serves HTTP until the context is cancelled", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			done <- newRoot("mcp", "--listen", "127.0.0.1:0").ExecuteContext(ctx)
		}()

		Eventually(done, 5*time.Second).Should(Receive(BeNil()))
	})

	It("fails when the log file cannot be opened", func() {
		path := filepath.Join(configDir, "missing", "mcp.log")
		err := newRoot("mcp", "--listen", "127.0.0.1:0", "--log-file", path).Execute()
		Expect(err).To(MatchError(ContainSubstring("opening log file")))
	})

	It("writes JSON logs to the log file", func() {
		path := filepath.Join(configDir, "mcp.log")
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			done <- newRoot("mcp", "--listen", "127.0.0.1:0", "--log-file", path).ExecuteContext(ctx)
		}()
		Eventually(done, 5*time.Second).Should(Receive(BeNil()))

		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`"msg":"serving MCP over HTTP"`))
		Expect(string(data)).To(ContainSubstring(`"msg":"shutting down MCP server"`))
	})
})
