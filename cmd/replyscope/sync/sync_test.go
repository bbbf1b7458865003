package synccmder_test

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	synccmder "github.com/replyscope/replyscope/cmd/replyscope/sync"
	"github.com/replyscope/replyscope/pkg/client"
	"github.com/replyscope/replyscope/pkg/client/clienttest"
	"github.com/replyscope/replyscope/pkg/storage"
	"github.com/replyscope/replyscope/pkg/storage/sqlite"
)

var _ = Describe("Sync command", func() {
	var (
		backend   *clienttest.Backend
		configDir string
		dbPath    string
		out       *bytes.Buffer
	)

	run := func(args ...string) error {
		root := &cobra.Command{Use: "replyscope"}
		root.PersistentFlags().String("config-dir", configDir, "")
		root.AddCommand(synccmder.NewSyncCmd())
		root.SetOut(out)
		root.SetErr(out)
		root.SetArgs(append(args, "--target", backend.URL, "--sqlite", dbPath))
		return root.Execute()
	}

	snapshots := func() []*storage.TaskSnapshot {
		driver, err := sqlite.NewDriver(context.Background(), dbPath)
		Expect(err).NotTo(HaveOccurred())
		defer driver.Close()

		snaps, err := driver.ListTasks(context.Background())
		Expect(err).NotTo(HaveOccurred())
		return snaps
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

	It("stores a snapshot of every task", func() {
		Expect(run("sync")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Synced 3 of 3 tasks"))

		snaps := snapshots()
		Expect(snaps).To(HaveLen(3))

		ids := make([]string, 0, len(snaps))
		for _, s := range snaps {
			ids = append(ids, s.TaskID)
		}
		Expect(ids).To(ConsistOf(clienttest.CompletedTaskID, clienttest.RunningTaskID, clienttest.FailedTaskID))
	})

	It("replaces earlier snapshots of the same task", func() {
		Expect(run("sync")).To(Succeed())
		Expect(run("sync")).To(Succeed())
		Expect(snapshots()).To(HaveLen(3))
	})

	It("filters by status", func() {
		Expect(run("sync", "--status", client.StatusCompleted)).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Synced 1 of 1 tasks"))

		snaps := snapshots()
		Expect(snaps).To(HaveLen(1))
		Expect(snaps[0].TaskID).To(Equal(clienttest.CompletedTaskID))
		Expect(snaps[0].CommentCount).To(Equal(3))
		Expect(snaps[0].VideoTitle).To(Equal("Building a desk"))
	})

	It("stores every task when there are more than the recorder queue holds", func() {
		tasks := make([]client.Task, 0, 600)
		for i := range 600 {
			tasks = append(tasks, client.Task{
				TaskID:     fmt.Sprintf("task-%04d", i),
				VideoID:    "BV1xx411c7mD",
				VideoTitle: "Building a desk",
				Status:     client.StatusCompleted,
			})
		}
		backend.Tasks = tasks

		Expect(run("sync")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Synced 600 of 600 tasks"))
		Expect(snapshots()).To(HaveLen(600))
	})

	It("fails when the backend is unreachable", func() {
		backend.Close()
		Expect(run("sync", "--timeout", "1s")).NotTo(Succeed())
	})
})

var _ = Describe("Snapshot", func() {
	It("copies the task fields and sync time", func() {
		now := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
		snap := synccmder.Snapshot(client.Task{
			TaskID:       "task-1",
			VideoID:      "BV1",
			VideoTitle:   "Desk",
			Status:       client.StatusRunning,
			CommentCount: 7,
			StartTime:    "2026-01-05T11:00:00",
		}, now)

		Expect(snap.TaskID).To(Equal("task-1"))
		Expect(snap.VideoID).To(Equal("BV1"))
		Expect(snap.Status).To(Equal(client.StatusRunning))
		Expect(snap.CommentCount).To(Equal(7))
		Expect(snap.SyncedAt).To(Equal(now))
		Expect(snap.Validate()).To(Succeed())
	})
})
