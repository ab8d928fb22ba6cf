package httpmsg_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/borsokman/localhost/internal/httpmsg"
)

var _ = Describe("Parse", func() {
	It("reports Incomplete until the header terminator arrives", func() {
		r := httpmsg.Parse([]byte("GET / HTTP/1.1\r\nHost: a\r\n"), 0)
		Expect(r.Outcome).To(Equal(httpmsg.Incomplete))
	})

	It("parses a simple GET with no body", func() {
		r := httpmsg.Parse([]byte("GET /index.html HTTP/1.1\r\nHost: a\r\n\r\n"), 0)
		Expect(r.Outcome).To(Equal(httpmsg.Complete))
		Expect(r.Request.Method).To(Equal(httpmsg.MethodGet))
		Expect(r.Request.Path).To(Equal("/index.html"))
		Expect(r.Request.KeepAlive).To(BeTrue())
	})

	It("honors Connection: close", func() {
		r := httpmsg.Parse([]byte("GET / HTTP/1.1\r\nHost: a\r\nConnection: close\r\n\r\n"), 0)
		Expect(r.Request.KeepAlive).To(BeFalse())
	})

	It("waits for the full body before completing", func() {
		raw := []byte("POST /x HTTP/1.1\r\nHost: a\r\nContent-Length: 5\r\n\r\nhel")
		r := httpmsg.Parse(raw, 0)
		Expect(r.Outcome).To(Equal(httpmsg.Incomplete))
	})

	It("rejects a body over the configured limit", func() {
		raw := []byte("POST /x HTTP/1.1\r\nHost: a\r\nContent-Length: 11\r\n\r\nHELLOWORLD!")
		r := httpmsg.Parse(raw, 10)
		Expect(r.Outcome).To(Equal(httpmsg.Error))
		Expect(r.Err).To(Equal(httpmsg.ErrBodyTooLarge))
	})

	It("dechunks a chunked body", func() {
		raw := []byte("POST /x HTTP/1.1\r\nHost: a\r\nTransfer-Encoding: chunked\r\n\r\n4\r\nWiki\r\n0\r\n\r\n")
		r := httpmsg.Parse(raw, 0)
		Expect(r.Outcome).To(Equal(httpmsg.Complete))
		Expect(string(r.Request.Body)).To(Equal("Wiki"))
	})

	It("only accepts GET, POST, DELETE", func() {
		r := httpmsg.Parse([]byte("PUT / HTTP/1.1\r\nHost: a\r\n\r\n"), 0)
		Expect(r.Outcome).To(Equal(httpmsg.Error))
	})
})

var _ = Describe("Serialize", func() {
	It("inserts Content-Length and Connection when absent", func() {
		resp := httpmsg.NewResponse(httpmsg.StatusOK, []byte("HI"))
		out := Serialize(resp)
		Expect(out).To(ContainSubstring("Content-Length: 2"))
		Expect(out).To(ContainSubstring("Connection: keep-alive"))
	})
})

func Serialize(r *httpmsg.Response) string {
	return string(httpmsg.Serialize(r, true, 75))
}
