package trace_test

import (
	"encoding/json"
	"os"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chorus/pkg/hashutil"
	"github.com/papercomputeco/chorus/pkg/mutation"
	"github.com/papercomputeco/chorus/pkg/orchdir"
	"github.com/papercomputeco/chorus/pkg/trace"
)

func validEntry(path string) *trace.Entry {
	content := "x = 2"
	return &trace.Entry{
		ID:        trace.NewEntryID(),
		Timestamp: trace.FormatTimestamp(time.Now()),
		VCS:       trace.VCS{RevisionID: "unknown"},
		Files: []trace.File{{
			RelativePath: path,
			Conversations: []trace.Conversation{{
				URL:         "agent-00000001",
				Contributor: trace.Contributor{EntityType: trace.EntityAI, ModelIdentifier: "unknown"},
				Ranges: []trace.Range{{
					StartLine:   1,
					EndLine:     1,
					ContentHash: hashutil.Prefix + hashutil.Digest(content),
				}},
				Related: []trace.Related{{Type: trace.RelatedSpecification, Value: "INT-001"}},
			}},
		}},
		MutationClass: mutation.ClassASTRefactor,
	}
}

var _ = Describe("NewEntryID", func() {
	It("returns 32 lowercase hex characters", func() {
		Expect(trace.NewEntryID()).To(MatchRegexp(`^[0-9a-f]{32}$`))
	})
})

var _ = Describe("FormatTimestamp", func() {
	It("renders ISO-8601 UTC with millisecond precision", func() {
		ts := trace.FormatTimestamp(time.Date(2026, 8, 5, 9, 30, 1, 250_000_000, time.UTC))
		Expect(ts).To(Equal("2026-08-05T09:30:01.250Z"))
	})
})

var _ = Describe("Ledger", func() {
	var (
		ws     string
		ledger *trace.Ledger
	)

	BeforeEach(func() {
		ws = GinkgoT().TempDir()
		ledger = trace.NewLedger(nil)
	})

	Describe("Append", func() {
		It("appends one JSON object per line", func() {
			Expect(ledger.Append(ws, validEntry("src/a.ts"))).To(Succeed())
			Expect(ledger.Append(ws, validEntry("src/b.ts"))).To(Succeed())

			data, err := os.ReadFile(orchdir.TracePath(ws))
			Expect(err).NotTo(HaveOccurred())

			lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
			Expect(lines).To(HaveLen(2))
			for _, line := range lines {
				var decoded map[string]any
				Expect(json.Unmarshal([]byte(line), &decoded)).To(Succeed())
			}
		})

		It("creates the orchestration directory on demand", func() {
			Expect(ledger.Append(ws, validEntry("src/a.ts"))).To(Succeed())
			Expect(orchdir.TracePath(ws)).To(BeAnExistingFile())
		})

		It("rejects an entry with no files", func() {
			entry := validEntry("src/a.ts")
			entry.Files = nil
			Expect(ledger.Append(ws, entry)).To(MatchError(trace.ErrInvalidEntry))
		})

		It("rejects a malformed content hash", func() {
			entry := validEntry("src/a.ts")
			entry.Files[0].Conversations[0].Ranges[0].ContentHash = "sha256:short"
			Expect(ledger.Append(ws, entry)).To(MatchError(trace.ErrInvalidEntry))
		})

		It("rejects a content hash without the prefix", func() {
			entry := validEntry("src/a.ts")
			entry.Files[0].Conversations[0].Ranges[0].ContentHash = hashutil.Digest("x")
			Expect(ledger.Append(ws, entry)).To(MatchError(trace.ErrInvalidEntry))
		})

		It("rejects a zero start line", func() {
			entry := validEntry("src/a.ts")
			entry.Files[0].Conversations[0].Ranges[0].StartLine = 0
			Expect(ledger.Append(ws, entry)).To(MatchError(trace.ErrInvalidEntry))
		})

		It("rejects an end line before the start line", func() {
			entry := validEntry("src/a.ts")
			entry.Files[0].Conversations[0].Ranges[0].StartLine = 5
			entry.Files[0].Conversations[0].Ranges[0].EndLine = 3
			Expect(ledger.Append(ws, entry)).To(MatchError(trace.ErrInvalidEntry))
		})

		It("rejects an unknown mutation class", func() {
			entry := validEntry("src/a.ts")
			entry.MutationClass = mutation.Class("REWRITE")
			Expect(ledger.Append(ws, entry)).To(MatchError(trace.ErrInvalidEntry))
		})

		It("rejects an unknown contributor entity type", func() {
			entry := validEntry("src/a.ts")
			entry.Files[0].Conversations[0].Contributor.EntityType = "ROBOT"
			Expect(ledger.Append(ws, entry)).To(MatchError(trace.ErrInvalidEntry))
		})

		It("leaves the ledger untouched when validation fails", func() {
			entry := validEntry("src/a.ts")
			entry.Files = nil
			_ = ledger.Append(ws, entry)
			Expect(orchdir.TracePath(ws)).NotTo(BeAnExistingFile())
		})

		It("serialises concurrent appends into well-formed JSONL", func() {
			var wg sync.WaitGroup
			for range 20 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer GinkgoRecover()
					Expect(ledger.Append(ws, validEntry("src/a.ts"))).To(Succeed())
				}()
			}
			wg.Wait()

			entries, err := ledger.Read(ws)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(20))
		})
	})

	Describe("Read", func() {
		It("returns entries in file order with the appended entry last", func() {
			first := validEntry("src/a.ts")
			last := validEntry("src/b.ts")
			Expect(ledger.Append(ws, first)).To(Succeed())
			Expect(ledger.Append(ws, last)).To(Succeed())

			entries, err := ledger.Read(ws)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(2))
			Expect(entries[1].ID).To(Equal(last.ID))
		})

		It("returns empty for a missing ledger", func() {
			entries, err := ledger.Read(ws)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(BeEmpty())
		})

		It("skips unparseable lines and keeps the rest", func() {
			Expect(ledger.Append(ws, validEntry("src/a.ts"))).To(Succeed())

			f, err := os.OpenFile(orchdir.TracePath(ws), os.O_APPEND|os.O_WRONLY, 0o644)
			Expect(err).NotTo(HaveOccurred())
			_, err = f.WriteString("not json\n")
			Expect(err).NotTo(HaveOccurred())
			Expect(f.Close()).To(Succeed())

			Expect(ledger.Append(ws, validEntry("src/b.ts"))).To(Succeed())

			entries, err := ledger.Read(ws)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(2))
		})

		It("skips lines that fail schema validation", func() {
			Expect(ledger.Append(ws, validEntry("src/a.ts"))).To(Succeed())

			bad := validEntry("src/bad.ts")
			bad.MutationClass = "REWRITE"
			data, err := json.Marshal(bad)
			Expect(err).NotTo(HaveOccurred())

			f, err := os.OpenFile(orchdir.TracePath(ws), os.O_APPEND|os.O_WRONLY, 0o644)
			Expect(err).NotTo(HaveOccurred())
			_, err = f.Write(append(data, '\n'))
			Expect(err).NotTo(HaveOccurred())
			Expect(f.Close()).To(Succeed())

			entries, err := ledger.Read(ws)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
		})

		It("tolerates trailing empty lines", func() {
			Expect(ledger.Append(ws, validEntry("src/a.ts"))).To(Succeed())

			f, err := os.OpenFile(orchdir.TracePath(ws), os.O_APPEND|os.O_WRONLY, 0o644)
			Expect(err).NotTo(HaveOccurred())
			_, err = f.WriteString("\n\n")
			Expect(err).NotTo(HaveOccurred())
			Expect(f.Close()).To(Succeed())

			entries, err := ledger.Read(ws)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
		})
	})
})
