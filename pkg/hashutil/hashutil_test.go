package hashutil_test

import (
	"crypto/sha256"
	"encoding/hex"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chorus/pkg/hashutil"
)

func rawSHA256(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

var _ = Describe("Digest", func() {
	It("returns 64 lowercase hex characters", func() {
		d := hashutil.Digest("x = 1\n")
		Expect(d).To(HaveLen(64))
		Expect(d).To(MatchRegexp(`^[0-9a-f]{64}$`))
	})

	It("is deterministic", func() {
		Expect(hashutil.Digest("hello")).To(Equal(hashutil.Digest("hello")))
	})

	It("matches plain SHA-256 for LF content", func() {
		Expect(hashutil.Digest("a\nb")).To(Equal(rawSHA256("a\nb")))
	})

	It("normalises CRLF and bare CR to LF", func() {
		lf := hashutil.Digest("a\nb")
		Expect(hashutil.Digest("a\r\nb")).To(Equal(lf))
		Expect(hashutil.Digest("a\rb")).To(Equal(lf))
	})

	It("hashes the empty string to the known value", func() {
		Expect(hashutil.Digest("")).To(Equal(rawSHA256("")))
	})
})

var _ = Describe("DigestRange", func() {
	content := "one\ntwo\nthree\nfour"

	It("hashes a single line", func() {
		Expect(hashutil.DigestRange(content, 2, 2)).To(Equal(hashutil.Digest("two")))
	})

	It("hashes an inclusive range joined with LF and no trailing newline", func() {
		Expect(hashutil.DigestRange(content, 2, 3)).To(Equal(hashutil.Digest("two\nthree")))
	})

	It("covers the whole content when the range spans every line", func() {
		Expect(hashutil.DigestRange(content, 1, 4)).To(Equal(hashutil.Digest(content)))
	})

	It("clamps start below one and end beyond the last line", func() {
		Expect(hashutil.DigestRange(content, -3, 100)).To(Equal(hashutil.Digest(content)))
	})

	It("hashes the empty string when start exceeds end", func() {
		Expect(hashutil.DigestRange(content, 3, 2)).To(Equal(hashutil.Digest("")))
	})

	It("hashes the empty string when the range is wholly out of bounds", func() {
		Expect(hashutil.DigestRange(content, 10, 20)).To(Equal(hashutil.Digest("")))
	})

	It("normalises line endings before splitting", func() {
		Expect(hashutil.DigestRange("a\r\nb\r\nc", 2, 2)).To(Equal(hashutil.Digest("b")))
	})

	It("equals Digest for a trailing-newline file spanned fully", func() {
		c := "x = 2\n"
		Expect(hashutil.DigestRange(c, 1, 2)).To(Equal(hashutil.Digest(c)))
	})
})
