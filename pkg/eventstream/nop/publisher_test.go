package nop_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/replyscope/replyscope/pkg/eventstream"
	"github.com/replyscope/replyscope/pkg/eventstream/nop"
)

var _ = Describe("Publisher", func() {
	It("creates a non-nil publisher", func() {
		p := nop.NewPublisher()
		Expect(p).NotTo(BeNil())
	})

	It("returns ErrNilEvent for nil events", func() {
		p := nop.NewPublisher()
		Expect(p.PublishAnalysis(context.Background(), nil)).To(MatchError(eventstream.ErrNilEvent))
		Expect(p.PublishTask(context.Background(), nil)).To(MatchError(eventstream.ErrNilEvent))
	})

	It("succeeds for non-nil events", func() {
		p := nop.NewPublisher()
		Expect(p.PublishAnalysis(context.Background(), &eventstream.AnalysisCompletedEvent{})).To(Succeed())
		Expect(p.PublishTask(context.Background(), &eventstream.TaskSyncedEvent{})).To(Succeed())
	})

	It("closes successfully", func() {
		p := nop.NewPublisher()
		Expect(p.Close()).To(Succeed())
	})
})
