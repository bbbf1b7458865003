package replyscopecmder_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	replyscopecmder "github.com/replyscope/replyscope/cmd/replyscope"
	"github.com/replyscope/replyscope/pkg/client/clienttest"
)

var _ = Describe("Replyscope root command", func() {
	It("registers every subcommand", func() {
		cmd := replyscopecmder.NewReplyscopeCmd()

		names := []string{}
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements(
			"init", "config", "status", "version",
			"scrape", "watch", "tasks", "use", "video",
			"comments", "stats", "export",
			"templates", "analyze", "history", "sync", "mcp",
		))
	})

	It("exposes the global flags", func() {
		cmd := replyscopecmder.NewReplyscopeCmd()
		Expect(cmd.PersistentFlags().Lookup("debug")).NotTo(BeNil())
		Expect(cmd.PersistentFlags().Lookup("config-dir")).NotTo(BeNil())
	})

	It("runs a subcommand against the configured directory", func() {
		backend := clienttest.NewBackend()
		defer backend.Close()

		var out bytes.Buffer
		cmd := replyscopecmder.NewReplyscopeCmd()
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs([]string{"--config-dir", GinkgoT().TempDir(), "use", clienttest.CompletedTaskID, "--target", backend.URL})

		Expect(cmd.Execute()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Selected"))
	})
})
