package nop_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chorus/pkg/eventstream"
	"github.com/papercomputeco/chorus/pkg/eventstream/nop"
)

var _ = Describe("Publisher", func() {
	It("accepts a write event", func() {
		p := nop.NewPublisher()
		err := p.PublishWrite(context.Background(), &eventstream.WriteAcceptedEvent{
			SchemaVersion: eventstream.SchemaVersionV1,
			EventType:     eventstream.EventTypeWriteAccepted,
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects a nil event", func() {
		p := nop.NewPublisher()
		Expect(p.PublishWrite(context.Background(), nil)).To(MatchError(eventstream.ErrNilWriteEvent))
	})

	It("closes cleanly", func() {
		Expect(nop.NewPublisher().Close()).To(Succeed())
	})
})
