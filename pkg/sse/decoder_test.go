package sse_test

import (
	"errors"
	"io"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/replyscope/replyscope/pkg/sse"
)

// recording collects every callback fired by a Decoder.
type recording struct {
	chunks []string
	errs   []error
	dones  int
}

func (r *recording) handler() sse.Handler {
	return sse.Handler{
		OnContent: func(chunk string) { r.chunks = append(r.chunks, chunk) },
		OnError:   func(err error) { r.errs = append(r.errs, err) },
		OnDone:    func() { r.dones++ },
	}
}

func (r *recording) terminals() int {
	return len(r.errs) + r.dones
}

// feed writes each buffer in order, then closes the decoder.
func feed(d *sse.Decoder, bufs ...string) {
	for _, b := range bufs {
		if _, err := d.Write([]byte(b)); err != nil {
			break
		}
	}
	Expect(d.Close()).To(Succeed())
}

const structuredStream = "event: content\ndata: \"Hello\"\n\n" +
	"event: content\ndata: \", world\"\n\n" +
	"data: [DONE]\n\n"

const plainStream = "data: line one\\nline two\n\n" +
	"data: more\n\n" +
	"data: [DONE]\n\n"

var _ = Describe("Decoder", func() {
	var rec *recording

	BeforeEach(func() {
		rec = &recording{}
	})

	Describe("structured protocol", func() {
		It("emits content chunks in order followed by one done", func() {
			d := sse.NewDecoder(sse.ProtocolStructured, rec.handler())
			feed(d, structuredStream)

			Expect(rec.chunks).To(Equal([]string{"Hello", ", world"}))
			Expect(rec.dones).To(Equal(1))
			Expect(rec.errs).To(BeEmpty())
		})

		It("decodes JSON escaped newlines into multi-line text", func() {
			d := sse.NewDecoder(sse.ProtocolStructured, rec.handler())
			feed(d, "event: content\ndata: \"hello\\nworld\"\n\n")

			Expect(rec.chunks).To(Equal([]string{"hello\nworld"}))
		})

		It("falls back to the raw payload when it is not a JSON string", func() {
			d := sse.NewDecoder(sse.ProtocolStructured, rec.handler())
			feed(d, "event: content\ndata: raw text\\n kept\n\n")

			Expect(rec.chunks).To(Equal([]string{"raw text\\n kept"}))
		})

		It("ignores data lines outside a content event", func() {
			d := sse.NewDecoder(sse.ProtocolStructured, rec.handler())
			feed(d, "data: \"orphan\"\n\nevent: progress\ndata: 12\n\nevent: content\ndata: \"kept\"\n\n")

			Expect(rec.chunks).To(Equal([]string{"kept"}))
		})

		It("treats an event: done frame as completion", func() {
			d := sse.NewDecoder(sse.ProtocolStructured, rec.handler())
			feed(d, "event: content\ndata: \"a\"\n\nevent: done\ndata: \n\nevent: content\ndata: \"b\"\n\n")

			Expect(rec.chunks).To(Equal([]string{"a"}))
			Expect(rec.dones).To(Equal(1))
		})

		It("does not treat an [ERROR] payload as a sentinel", func() {
			d := sse.NewDecoder(sse.ProtocolStructured, rec.handler())
			feed(d, "event: content\ndata: [ERROR] not special here\n\n")

			Expect(rec.errs).To(BeEmpty())
			Expect(rec.chunks).To(Equal([]string{"[ERROR] not special here"}))
		})
	})

	Describe("plain protocol", func() {
		It("emits content for every data line and unescapes literal newlines", func() {
			d := sse.NewDecoder(sse.ProtocolPlain, rec.handler())
			feed(d, plainStream)

			Expect(rec.chunks).To(Equal([]string{"line one\nline two", "more"}))
			Expect(rec.dones).To(Equal(1))
		})

		It("prefers a JSON string decode when the payload is quoted", func() {
			d := sse.NewDecoder(sse.ProtocolPlain, rec.handler())
			feed(d, "data: \"hello\\nworld\"\n\n")

			Expect(rec.chunks).To(Equal([]string{"hello\nworld"}))
		})

		It("turns an [ERROR] sentinel into a single error", func() {
			d := sse.NewDecoder(sse.ProtocolPlain, rec.handler())
			feed(d, "data: partial\n\ndata: [ERROR] model unavailable\n\ndata: after\n\n")

			Expect(rec.chunks).To(Equal([]string{"partial"}))
			Expect(rec.errs).To(HaveLen(1))
			Expect(rec.errs[0]).To(MatchError("model unavailable"))
			Expect(rec.dones).To(BeZero())
		})

		It("is the default when no protocol is given", func() {
			d := sse.NewDecoder("", rec.handler())
			feed(d, "data: a\\nb\n\n")

			Expect(rec.chunks).To(Equal([]string{"a\nb"}))
		})
	})

	Describe("auto protocol", func() {
		It("accepts both framings in a single stream", func() {
			d := sse.NewDecoder(sse.ProtocolAuto, rec.handler())
			feed(d, "event: content\ndata: \"one\"\n\ndata: two\\nthree\n\nevent: progress\ndata: skip\n\ndata: [DONE]\n\n")

			Expect(rec.chunks).To(Equal([]string{"one", "two\nthree"}))
			Expect(rec.dones).To(Equal(1))
		})
	})

	Describe("termination", func() {
		It("stops processing at [DONE] and ignores later frames in the same buffer", func() {
			d := sse.NewDecoder(sse.ProtocolPlain, rec.handler())
			_, err := d.Write([]byte("data: a\n\ndata: [DONE]\n\ndata: b\n\n"))
			Expect(err).NotTo(HaveOccurred())

			Expect(rec.chunks).To(Equal([]string{"a"}))
			Expect(rec.dones).To(Equal(1))
			Expect(d.Terminated()).To(BeTrue())
		})

		It("rejects writes after termination", func() {
			d := sse.NewDecoder(sse.ProtocolPlain, rec.handler())
			feed(d, "data: [DONE]\n\n")

			_, err := d.Write([]byte("data: late\n\n"))
			Expect(err).To(MatchError(sse.ErrTerminated))
			Expect(rec.chunks).To(BeEmpty())
		})

		It("emits exactly one error for a data line under event: error", func() {
			d := sse.NewDecoder(sse.ProtocolStructured, rec.handler())
			feed(d, "event: content\ndata: \"x\"\n\nevent: error\ndata: quota exceeded\n\nevent: content\ndata: \"y\"\n\ndata: [DONE]\n\n")

			Expect(rec.chunks).To(Equal([]string{"x"}))
			Expect(rec.errs).To(HaveLen(1))
			Expect(rec.dones).To(BeZero())

			var streamErr *sse.StreamError
			Expect(errors.As(rec.errs[0], &streamErr)).To(BeTrue())
			Expect(streamErr.Message).To(Equal("quota exceeded"))
		})

		It("emits exactly one done when the stream ends without a sentinel", func() {
			d := sse.NewDecoder(sse.ProtocolPlain, rec.handler())
			feed(d, "data: only\n\n")

			Expect(rec.chunks).To(Equal([]string{"only"}))
			Expect(rec.dones).To(Equal(1))
			Expect(d.Close()).To(Succeed())
			Expect(rec.dones).To(Equal(1))
		})

		It("processes a final unterminated line on close", func() {
			d := sse.NewDecoder(sse.ProtocolPlain, rec.handler())
			feed(d, "data: tail")

			Expect(rec.chunks).To(Equal([]string{"tail"}))
			Expect(rec.dones).To(Equal(1))
		})

		It("fires nothing after Abort", func() {
			d := sse.NewDecoder(sse.ProtocolPlain, rec.handler())
			_, err := d.Write([]byte("data: a\n\ndata: b"))
			Expect(err).NotTo(HaveOccurred())

			d.Abort()
			Expect(d.Close()).To(Succeed())

			Expect(rec.chunks).To(Equal([]string{"a"}))
			Expect(rec.terminals()).To(BeZero())
		})

		It("works as an io.Copy destination", func() {
			d := sse.NewDecoder(sse.ProtocolPlain, rec.handler())
			_, err := io.Copy(d, strings.NewReader(plainStream+"data: ignored\n\n"))
			Expect(err).To(Or(BeNil(), MatchError(sse.ErrTerminated)))

			Expect(rec.chunks).To(Equal([]string{"line one\nline two", "more"}))
			Expect(rec.dones).To(Equal(1))
		})
	})

	Describe("line handling", func() {
		It("ignores comment lines", func() {
			d := sse.NewDecoder(sse.ProtocolPlain, rec.handler())
			feed(d, ": keep-alive\n\ndata: real\n\n")

			Expect(rec.chunks).To(Equal([]string{"real"}))
		})

		It("strips carriage returns before line feeds", func() {
			d := sse.NewDecoder(sse.ProtocolStructured, rec.handler())
			feed(d, "event: content\r\ndata: \"crlf\"\r\n\r\ndata: [DONE]\r\n\r\n")

			Expect(rec.chunks).To(Equal([]string{"crlf"}))
			Expect(rec.dones).To(Equal(1))
		})

		It("accepts fields without a space after the colon", func() {
			d := sse.NewDecoder(sse.ProtocolStructured, rec.handler())
			feed(d, "event:content\ndata:\"tight\"\n\n")

			Expect(rec.chunks).To(Equal([]string{"tight"}))
		})

		It("trims only one leading space from the payload", func() {
			d := sse.NewDecoder(sse.ProtocolPlain, rec.handler())
			feed(d, "data:   indented\n\n")

			Expect(rec.chunks).To(Equal([]string{"  indented"}))
		})

		It("resets the event name on a blank line", func() {
			d := sse.NewDecoder(sse.ProtocolStructured, rec.handler())
			feed(d, "event: content\ndata: \"first\"\n\ndata: \"second\"\n\n")

			Expect(rec.chunks).To(Equal([]string{"first"}))
		})
	})

	Describe("chunk boundaries", func() {
		type outcome struct {
			chunks []string
			errs   int
			dones  int
		}

		run := func(protocol sse.Protocol, bufs ...string) outcome {
			r := &recording{}
			feed(sse.NewDecoder(protocol, r.handler()), bufs...)
			return outcome{chunks: r.chunks, errs: len(r.errs), dones: r.dones}
		}

		splitEverywhere := func(protocol sse.Protocol, stream string) {
			whole := run(protocol, stream)

			for i := 0; i <= len(stream); i++ {
				got := run(protocol, stream[:i], stream[i:])
				Expect(got).To(Equal(whole), "split at offset %d", i)
			}

			var bytewise []string
			for i := range len(stream) {
				bytewise = append(bytewise, stream[i:i+1])
			}
			Expect(run(protocol, bytewise...)).To(Equal(whole))
		}

		It("produces identical output for any split of a structured stream", func() {
			splitEverywhere(sse.ProtocolStructured, structuredStream)
		})

		It("produces identical output for any split of a plain stream", func() {
			splitEverywhere(sse.ProtocolPlain, plainStream)
		})

		It("produces identical output for any split of an error stream", func() {
			splitEverywhere(sse.ProtocolStructured, "event: content\ndata: \"a\"\n\nevent: error\ndata: boom\n\n")
		})

		It("keeps a multi-byte character intact across buffers", func() {
			stream := "data: 评论分析\n\ndata: [DONE]\n\n"
			b := []byte(stream)
			got := run(sse.ProtocolPlain, string(b[:8]), string(b[8:]))

			Expect(got.chunks).To(Equal([]string{"评论分析"}))
			Expect(got.dones).To(Equal(1))
		})
	})

	Describe("ParseProtocol", func() {
		DescribeTable("maps names to protocols",
			func(in string, want sse.Protocol) {
				got, err := sse.ParseProtocol(in)
				Expect(err).NotTo(HaveOccurred())
				Expect(got).To(Equal(want))
			},
			Entry("v1", "v1", sse.ProtocolStructured),
			Entry("structured", "structured", sse.ProtocolStructured),
			Entry("v2", "v2", sse.ProtocolPlain),
			Entry("plain", "PLAIN", sse.ProtocolPlain),
			Entry("empty", "", sse.ProtocolPlain),
			Entry("auto", "auto", sse.ProtocolAuto),
		)

		It("rejects unknown names", func() {
			_, err := sse.ParseProtocol("v3")
			Expect(err).To(HaveOccurred())
		})
	})
})
