package logging_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/borsokman/localhost/internal/logging"
)

var _ = Describe("Fields", func() {
	It("never mutates the receiver on Add", func() {
		base := logging.NewFields().Add("conn", 1)
		derived := base.Add("state", "reading")

		Expect(base).NotTo(HaveKey("state"))
		Expect(derived).To(HaveKeyWithValue("conn", 1))
		Expect(derived).To(HaveKeyWithValue("state", "reading"))
	})
})

var _ = Describe("ParseLevel", func() {
	It("defaults unknown names to info", func() {
		Expect(logging.ParseLevel("bogus")).To(Equal(logging.InfoLevel))
	})

	It("resolves known names", func() {
		Expect(logging.ParseLevel("debug")).To(Equal(logging.DebugLevel))
	})
})
