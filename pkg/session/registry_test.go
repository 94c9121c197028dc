package session_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chorus/pkg/session"
)

var _ = Describe("NewID", func() {
	It("uses the fixed prefix plus 8 hex characters", func() {
		id := session.NewID()
		Expect(id).To(MatchRegexp(`^agent-[0-9a-f]{8}$`))
	})

	It("generates distinct ids", func() {
		Expect(session.NewID()).NotTo(Equal(session.NewID()))
	})
})

var _ = Describe("Registry", func() {
	var reg *session.Registry

	BeforeEach(func() {
		reg = session.NewRegistry()
	})

	It("creates a session on Register", func() {
		reg.Register("agent-00000001", "INT-001")

		Expect(reg.IsActive("agent-00000001")).To(BeTrue())
		intentID, ok := reg.IntentFor("agent-00000001")
		Expect(ok).To(BeTrue())
		Expect(intentID).To(Equal("INT-001"))
	})

	It("keeps last-activity at or after creation", func() {
		reg.Register("agent-00000001", "")

		sessions := reg.ListActive()
		Expect(sessions).To(HaveLen(1))
		Expect(sessions[0].LastActivity).To(BeTemporally(">=", sessions[0].CreatedAt))
	})

	It("removes a session on Unregister", func() {
		reg.Register("agent-00000001", "")
		reg.Unregister("agent-00000001")
		Expect(reg.IsActive("agent-00000001")).To(BeFalse())
	})

	It("tracks observed files in sorted order", func() {
		reg.Register("agent-00000001", "")
		reg.AddFile("agent-00000001", "src/b.ts")
		reg.AddFile("agent-00000001", "src/a.ts")
		reg.AddFile("agent-00000001", "src/a.ts")

		sessions := reg.ListActive()
		Expect(sessions[0].Files).To(Equal([]string{"src/a.ts", "src/b.ts"}))

		reg.RemoveFile("agent-00000001", "src/a.ts")
		Expect(reg.ListActive()[0].Files).To(Equal([]string{"src/b.ts"}))
	})

	It("rebinds the intent via BindIntent", func() {
		reg.Register("agent-00000001", "INT-001")
		reg.BindIntent("agent-00000001", "INT-002")

		intentID, _ := reg.IntentFor("agent-00000001")
		Expect(intentID).To(Equal("INT-002"))
	})

	Describe("Sweep", func() {
		It("evicts sessions idle beyond maxAge, keeping active ones", func() {
			now := time.Unix(50000, 0)
			reg = session.NewRegistry(session.WithClock(func() time.Time { return now }))

			reg.Register("agent-aaaaaaaa", "")
			now = now.Add(31 * time.Minute)
			reg.Register("agent-bbbbbbbb", "")

			removed := reg.Sweep(30 * time.Minute)

			Expect(removed).To(Equal(1))
			Expect(reg.IsActive("agent-aaaaaaaa")).To(BeFalse())
			Expect(reg.IsActive("agent-bbbbbbbb")).To(BeTrue())
		})

		It("spares sessions whose activity was refreshed by Touch", func() {
			now := time.Unix(50000, 0)
			reg = session.NewRegistry(session.WithClock(func() time.Time { return now }))

			reg.Register("agent-aaaaaaaa", "")
			now = now.Add(29 * time.Minute)
			reg.Touch("agent-aaaaaaaa")
			now = now.Add(2 * time.Minute)

			Expect(reg.Sweep(30 * time.Minute)).To(BeZero())
		})

		It("counts AddFile as activity", func() {
			now := time.Unix(50000, 0)
			reg = session.NewRegistry(session.WithClock(func() time.Time { return now }))

			reg.Register("agent-aaaaaaaa", "")
			now = now.Add(29 * time.Minute)
			reg.AddFile("agent-aaaaaaaa", "src/a.ts")
			now = now.Add(2 * time.Minute)

			Expect(reg.Sweep(30 * time.Minute)).To(BeZero())
		})
	})

	Describe("sweeper lifecycle", func() {
		It("starts and stops cleanly", func() {
			reg.StartSweeper(10*time.Millisecond, time.Minute)
			reg.StopSweeper()
		})

		It("tolerates StopSweeper without a start", func() {
			reg.StopSweeper()
		})
	})
})
