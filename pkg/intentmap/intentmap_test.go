package intentmap_test

import (
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chorus/pkg/intentmap"
	"github.com/papercomputeco/chorus/pkg/orchdir"
)

var _ = Describe("Writer", func() {
	var (
		ws     string
		writer *intentmap.Writer
	)

	readRaw := func() string {
		data, err := os.ReadFile(orchdir.IntentMapPath(ws))
		Expect(err).NotTo(HaveOccurred())
		return string(data)
	}

	BeforeEach(func() {
		ws = GinkgoT().TempDir()
		writer = intentmap.NewWriter()
	})

	Describe("Upsert", func() {
		It("creates the document with header, section, and bullet", func() {
			Expect(writer.Upsert(ws, "INT-001", "src/a.ts", "Auth")).To(Succeed())

			raw := readRaw()
			Expect(raw).To(HavePrefix("# Intent Map\n"))
			Expect(raw).To(ContainSubstring("## INT-001: Auth\n"))
			Expect(raw).To(ContainSubstring("- src/a.ts\n"))
		})

		It("renders a section without a name as the bare id", func() {
			Expect(writer.Upsert(ws, "INT-001", "src/a.ts", "")).To(Succeed())
			Expect(readRaw()).To(ContainSubstring("## INT-001\n"))
		})

		It("deduplicates paths", func() {
			Expect(writer.Upsert(ws, "INT-001", "src/a.ts", "Auth")).To(Succeed())
			before := readRaw()
			Expect(writer.Upsert(ws, "INT-001", "src/a.ts", "Auth")).To(Succeed())
			Expect(readRaw()).To(Equal(before))
		})

		It("keeps paths in ascending order within a section", func() {
			Expect(writer.Upsert(ws, "INT-001", "src/b.ts", "Auth")).To(Succeed())
			Expect(writer.Upsert(ws, "INT-001", "src/a.ts", "Auth")).To(Succeed())

			raw := readRaw()
			Expect(raw).To(ContainSubstring("- src/a.ts\n- src/b.ts\n"))
		})

		It("keeps sections in ascending id order", func() {
			Expect(writer.Upsert(ws, "INT-002", "src/b.ts", "Billing")).To(Succeed())
			Expect(writer.Upsert(ws, "INT-001", "src/a.ts", "Auth")).To(Succeed())

			raw := readRaw()
			Expect(raw).To(MatchRegexp(`(?s)## INT-001.*## INT-002`))
		})

		It("normalises paths to forward-slash workspace-relative form", func() {
			Expect(writer.Upsert(ws, "INT-001", ws+"/src/a.ts", "Auth")).To(Succeed())
			Expect(readRaw()).To(ContainSubstring("- src/a.ts\n"))
		})

		It("preserves an existing name when upserting without one", func() {
			Expect(writer.Upsert(ws, "INT-001", "src/a.ts", "Auth")).To(Succeed())
			Expect(writer.Upsert(ws, "INT-001", "src/b.ts", "")).To(Succeed())
			Expect(readRaw()).To(ContainSubstring("## INT-001: Auth\n"))
		})
	})

	Describe("Remove", func() {
		It("undoes an upsert", func() {
			Expect(writer.Upsert(ws, "INT-001", "src/a.ts", "Auth")).To(Succeed())
			before := readRaw()

			Expect(writer.Upsert(ws, "INT-001", "src/b.ts", "Auth")).To(Succeed())
			Expect(writer.Remove(ws, "INT-001", "src/b.ts")).To(Succeed())

			Expect(readRaw()).To(Equal(before))
		})

		It("drops a section once its last path is removed", func() {
			Expect(writer.Upsert(ws, "INT-001", "src/a.ts", "Auth")).To(Succeed())
			Expect(writer.Remove(ws, "INT-001", "src/a.ts")).To(Succeed())
			Expect(readRaw()).NotTo(ContainSubstring("## INT-001"))
		})

		It("is a no-op when the map file is missing", func() {
			Expect(writer.Remove(ws, "INT-001", "src/a.ts")).To(Succeed())
			Expect(orchdir.IntentMapPath(ws)).NotTo(BeAnExistingFile())
		})

		It("is a no-op for an unknown path", func() {
			Expect(writer.Upsert(ws, "INT-001", "src/a.ts", "Auth")).To(Succeed())
			before := readRaw()
			Expect(writer.Remove(ws, "INT-001", "src/zzz.ts")).To(Succeed())
			Expect(readRaw()).To(Equal(before))
		})
	})

	Describe("Read", func() {
		It("round-trips paths and names", func() {
			Expect(writer.Upsert(ws, "INT-001", "src/b.ts", "Auth")).To(Succeed())
			Expect(writer.Upsert(ws, "INT-001", "src/a.ts", "Auth")).To(Succeed())
			Expect(writer.Upsert(ws, "INT-002", "src/c.ts", "")).To(Succeed())

			paths, names, err := intentmap.Read(ws)
			Expect(err).NotTo(HaveOccurred())
			Expect(paths).To(HaveKeyWithValue("INT-001", []string{"src/a.ts", "src/b.ts"}))
			Expect(paths).To(HaveKeyWithValue("INT-002", []string{"src/c.ts"}))
			Expect(names).To(HaveKeyWithValue("INT-001", "Auth"))
		})

		It("returns empty maps for a missing file", func() {
			paths, _, err := intentmap.Read(ws)
			Expect(err).NotTo(HaveOccurred())
			Expect(paths).To(BeEmpty())
		})

		It("tolerates extra blank lines in a hand-edited document", func() {
			_, err := orchdir.Ensure(ws)
			Expect(err).NotTo(HaveOccurred())
			doc := "# Intent Map\n\nblurb\n\n\n## INT-001: Auth\n\n\n- src/a.ts\n\n\n"
			Expect(os.WriteFile(orchdir.IntentMapPath(ws), []byte(doc), 0o644)).To(Succeed())

			paths, _, err := intentmap.Read(ws)
			Expect(err).NotTo(HaveOccurred())
			Expect(paths).To(HaveKeyWithValue("INT-001", []string{"src/a.ts"}))
		})
	})
})
