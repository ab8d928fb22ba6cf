package cgi_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/borsokman/localhost/internal/cgi"
	"github.com/borsokman/localhost/internal/httpmsg"
)

var _ = Describe("ParseResponse", func() {
	It("maps a Status pseudo-header onto the response status", func() {
		raw := []byte("Status: 200 OK\r\nContent-Type: text/plain\r\n\r\nx=1")
		resp, err := cgi.ParseResponse(raw)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Status).To(Equal(httpmsg.StatusOK))
		ct, _ := resp.Headers.Get("Content-Type")
		Expect(ct).To(Equal("text/plain"))
		Expect(string(resp.Body)).To(Equal("x=1"))
	})

	It("falls back to LFLF when CRLFCRLF is absent", func() {
		raw := []byte("Content-Type: text/plain\n\nbody")
		resp, err := cgi.ParseResponse(raw)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(resp.Body)).To(Equal("body"))
	})

	It("defaults to 200 when no Status header is present", func() {
		raw := []byte("Content-Type: text/plain\r\n\r\nok")
		resp, _ := cgi.ParseResponse(raw)
		Expect(resp.Status).To(Equal(httpmsg.StatusOK))
	})

	It("maps an unrecognized Status code to 500", func() {
		raw := []byte("Status: 999 Mystery\r\n\r\n")
		resp, _ := cgi.ParseResponse(raw)
		Expect(resp.Status).To(Equal(httpmsg.StatusInternalServerError))
	})

	It("treats the whole buffer as the body with default 200 when no header/body boundary exists", func() {
		raw := []byte("just a raw body, no blank line anywhere")
		resp, err := cgi.ParseResponse(raw)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Status).To(Equal(httpmsg.StatusOK))
		Expect(string(resp.Body)).To(Equal(string(raw)))
	})
})
