package conn_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/borsokman/localhost/internal/conn"
	"github.com/borsokman/localhost/internal/fdutil"
)

var _ = Describe("Table", func() {
	It("resolves a CGI pipe fd to its owning connection", func() {
		table := conn.NewTable()
		c := conn.New(fdutil.New(5), "0.0.0.0:8080", time.Second)
		table.Insert(5, c)
		table.LinkPipe(9, 5)

		owner, ok := table.ResolveOwner(9)
		Expect(ok).To(BeTrue())
		Expect(owner).To(Equal(5))
	})

	It("sweeps only connections past their idle timeout", func() {
		table := conn.NewTable()
		fresh := conn.New(fdutil.New(1), "a", time.Hour)
		stale := conn.New(fdutil.New(2), "a", time.Millisecond)
		stale.LastActivity = time.Now().Add(-time.Hour)
		table.Insert(1, fresh)
		table.Insert(2, stale)

		timedOut := table.SweepTimedOut(time.Now())
		Expect(timedOut).To(ConsistOf(2))
	})
})
