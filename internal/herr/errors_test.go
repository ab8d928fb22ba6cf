package herr_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/borsokman/localhost/internal/herr"
)

var _ = Describe("Error", func() {
	It("formats a bare error without parents", func() {
		e := herr.New(herr.CodeConfigParse, "unexpected token")
		Expect(e.Error()).To(ContainSubstring("config-parse"))
		Expect(e.Error()).To(ContainSubstring("unexpected token"))
	})

	It("formats nested parents into the message", func() {
		parent := errors.New("bind: address in use")
		e := herr.New(herr.CodeListenerBind, "failed to bind", parent)
		Expect(e.Error()).To(ContainSubstring("address in use"))
	})

	It("reports codes found anywhere in the parent chain", func() {
		inner := herr.New(herr.CodeCgiStart, "exec failed")
		outer := herr.New(herr.CodeCgiResponse, "bad status line", inner)
		Expect(outer.HasCode(herr.CodeCgiStart)).To(BeTrue())
		Expect(outer.HasCode(herr.CodeConfigParse)).To(BeFalse())
	})
})
