// Package storagetest holds the shared Ginkgo specs every storage.Driver
// implementation must pass.
package storagetest

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/replyscope/replyscope/pkg/storage"
)

// DescribeDriver registers the driver conformance specs. newDriver is called
// before every spec; the returned driver is closed afterwards.
func DescribeDriver(newDriver func() storage.Driver) {
	var (
		driver storage.Driver
		ctx    context.Context
		base   time.Time
	)

	record := func(id, taskID string, age time.Duration) *storage.AnalysisRecord {
		return &storage.AnalysisRecord{
			ID:         id,
			TaskID:     taskID,
			VideoTitle: "video " + taskID,
			TemplateID: "sentiment",
			Protocol:   "v2",
			Content:    "# Summary\n\nmostly positive",
			CreatedAt:  base.Add(-age),
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		driver = newDriver()
	})

	AfterEach(func() {
		if driver != nil {
			Expect(driver.Close()).To(Succeed())
			driver = nil
		}
	})

	Describe("SaveAnalysis and GetAnalysis", func() {
		It("stores and retrieves an analysis", func() {
			rec := record("a-1", "task-1", 0)
			rec.CustomPrompt = "be brief"
			Expect(driver.SaveAnalysis(ctx, rec)).To(Succeed())

			got, err := driver.GetAnalysis(ctx, "a-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.TaskID).To(Equal("task-1"))
			Expect(got.VideoTitle).To(Equal("video task-1"))
			Expect(got.TemplateID).To(Equal("sentiment"))
			Expect(got.CustomPrompt).To(Equal("be brief"))
			Expect(got.Protocol).To(Equal("v2"))
			Expect(got.Content).To(Equal(rec.Content))
			Expect(got.CreatedAt.Equal(rec.CreatedAt)).To(BeTrue())
		})

		It("ignores a second save with the same ID", func() {
			Expect(driver.SaveAnalysis(ctx, record("a-1", "task-1", 0))).To(Succeed())

			dup := record("a-1", "task-1", 0)
			dup.Content = "changed"
			Expect(driver.SaveAnalysis(ctx, dup)).To(Succeed())

			got, err := driver.GetAnalysis(ctx, "a-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Content).NotTo(Equal("changed"))
		})

		It("returns NotFoundError for an unknown ID", func() {
			_, err := driver.GetAnalysis(ctx, "missing")
			Expect(err).To(HaveOccurred())
			Expect(storage.IsNotFound(err)).To(BeTrue())
		})

		It("rejects records without a task", func() {
			Expect(driver.SaveAnalysis(ctx, record("a-1", "", 0))).NotTo(Succeed())
			Expect(driver.SaveAnalysis(ctx, nil)).NotTo(Succeed())
		})
	})

	Describe("ListAnalyses", func() {
		BeforeEach(func() {
			Expect(driver.SaveAnalysis(ctx, record("old", "task-1", 2*time.Hour))).To(Succeed())
			Expect(driver.SaveAnalysis(ctx, record("new", "task-1", 0))).To(Succeed())
			Expect(driver.SaveAnalysis(ctx, record("other", "task-2", time.Hour))).To(Succeed())
		})

		It("lists every analysis newest first", func() {
			recs, err := driver.ListAnalyses(ctx, "")
			Expect(err).NotTo(HaveOccurred())
			ids := make([]string, 0, len(recs))
			for _, r := range recs {
				ids = append(ids, r.ID)
			}
			Expect(ids).To(Equal([]string{"new", "other", "old"}))
		})

		It("filters by task", func() {
			recs, err := driver.ListAnalyses(ctx, "task-2")
			Expect(err).NotTo(HaveOccurred())
			Expect(recs).To(HaveLen(1))
			Expect(recs[0].ID).To(Equal("other"))
		})

		It("returns nothing for an unknown task", func() {
			recs, err := driver.ListAnalyses(ctx, "task-9")
			Expect(err).NotTo(HaveOccurred())
			Expect(recs).To(BeEmpty())
		})
	})

	Describe("PutTask and ListTasks", func() {
		It("upserts snapshots by task ID", func() {
			Expect(driver.PutTask(ctx, &storage.TaskSnapshot{
				TaskID: "task-b", Status: "running", SyncedAt: base,
			})).To(Succeed())
			Expect(driver.PutTask(ctx, &storage.TaskSnapshot{
				TaskID: "task-a", Status: "completed", CommentCount: 40, SyncedAt: base,
			})).To(Succeed())
			Expect(driver.PutTask(ctx, &storage.TaskSnapshot{
				TaskID: "task-b", VideoTitle: "done now", Status: "completed", CommentCount: 12, SyncedAt: base.Add(time.Minute),
			})).To(Succeed())

			snaps, err := driver.ListTasks(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(snaps).To(HaveLen(2))
			Expect(snaps[0].TaskID).To(Equal("task-a"))
			Expect(snaps[0].CommentCount).To(Equal(40))
			Expect(snaps[1].TaskID).To(Equal("task-b"))
			Expect(snaps[1].Status).To(Equal("completed"))
			Expect(snaps[1].VideoTitle).To(Equal("done now"))
			Expect(snaps[1].SyncedAt.Equal(base.Add(time.Minute))).To(BeTrue())
		})

		It("rejects snapshots without a task ID", func() {
			Expect(driver.PutTask(ctx, &storage.TaskSnapshot{})).NotTo(Succeed())
		})
	})
}
