package kafka_test

import (
	"context"
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/replyscope/replyscope/pkg/eventstream"
	"github.com/replyscope/replyscope/pkg/eventstream/kafka"
)

type recordingWriter struct {
	messages []kafkago.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

var _ = Describe("Publisher", func() {
	var (
		w   *recordingWriter
		pub *kafka.Publisher
		ctx context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		w = &recordingWriter{}
		pub = kafka.NewPublisherWithWriter(w, "replyscope.events")
	})

	Describe("NewPublisher", func() {
		It("requires brokers", func() {
			_, err := kafka.NewPublisher(kafka.Config{Topic: "t"})
			Expect(err).To(MatchError(ContainSubstring("broker")))
		})

		It("requires a topic", func() {
			_, err := kafka.NewPublisher(kafka.Config{Brokers: []string{"localhost:9092"}})
			Expect(err).To(MatchError(ContainSubstring("topic")))
		})

		It("builds a publisher without connecting", func() {
			p, err := kafka.NewPublisher(kafka.Config{Brokers: []string{"localhost:9092"}, Topic: "t"})
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Close()).To(Succeed())
		})
	})

	It("writes analysis events keyed by task with a type header", func() {
		event := eventstream.NewAnalysisCompletedEvent(
			eventstream.EventSource{Target: "http://localhost:8080"},
			eventstream.AnalysisMeta{ID: "a-1", TaskID: "task-7", TemplateID: "summary"},
		)
		Expect(pub.PublishAnalysis(ctx, event)).To(Succeed())

		Expect(w.messages).To(HaveLen(1))
		msg := w.messages[0]
		Expect(string(msg.Key)).To(Equal("task-7"))
		Expect(msg.Headers).To(ContainElement(kafkago.Header{
			Key: "event_type", Value: []byte(eventstream.EventTypeAnalysisCompleted),
		}))

		var decoded eventstream.AnalysisCompletedEvent
		Expect(json.Unmarshal(msg.Value, &decoded)).To(Succeed())
		Expect(decoded.Analysis.ID).To(Equal("a-1"))
		Expect(decoded.EventID).To(Equal(event.EventID))
	})

	It("writes task events keyed by task", func() {
		event := eventstream.NewTaskSyncedEvent(eventstream.EventSource{}, eventstream.TaskMeta{TaskID: "task-3", Status: "completed"})
		Expect(pub.PublishTask(ctx, event)).To(Succeed())

		Expect(w.messages).To(HaveLen(1))
		Expect(string(w.messages[0].Key)).To(Equal("task-3"))
	})

	It("rejects nil events", func() {
		Expect(pub.PublishAnalysis(ctx, nil)).To(MatchError(eventstream.ErrNilEvent))
		Expect(pub.PublishTask(ctx, nil)).To(MatchError(eventstream.ErrNilEvent))
		Expect(w.messages).To(BeEmpty())
	})

	It("wraps writer failures", func() {
		w.err = errors.New("broker down")
		err := pub.PublishTask(ctx, eventstream.NewTaskSyncedEvent(eventstream.EventSource{}, eventstream.TaskMeta{TaskID: "t"}))
		Expect(err).To(MatchError(ContainSubstring("broker down")))
		Expect(err).To(MatchError(ContainSubstring("replyscope.events")))
	})

	It("closes the writer", func() {
		Expect(pub.Close()).To(Succeed())
		Expect(w.closed).To(BeTrue())
	})
})
