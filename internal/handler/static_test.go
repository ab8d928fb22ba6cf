package handler_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/borsokman/localhost/internal/config"
	"github.com/borsokman/localhost/internal/handler"
	"github.com/borsokman/localhost/internal/httpmsg"
)

var _ = Describe("Static", func() {
	var root string
	var server *config.Server

	BeforeEach(func() {
		root = GinkgoT().TempDir()
		Expect(os.WriteFile(filepath.Join(root, "index.html"), []byte("HI"), 0o644)).To(Succeed())
		server = &config.Server{Root: root}
	})

	It("serves an existing file", func() {
		resp := handler.Static(server, nil, root, "/index.html", nil)
		Expect(resp.Status).To(Equal(httpmsg.StatusOK))
		Expect(resp.Body).To(Equal([]byte("HI")))
	})

	It("rejects path traversal before touching the filesystem", func() {
		resp := handler.Static(server, nil, root, "/../../etc/passwd", nil)
		Expect(resp.Status).To(Equal(httpmsg.StatusNotFound))
	})

	It("serves the index file for a directory request", func() {
		resp := handler.Static(server, nil, root, "/", []string{"index.html"})
		Expect(resp.Status).To(Equal(httpmsg.StatusOK))
		Expect(resp.Body).To(Equal([]byte("HI")))
	})

	It("404s a missing file", func() {
		resp := handler.Static(server, nil, root, "/nope.html", nil)
		Expect(resp.Status).To(Equal(httpmsg.StatusNotFound))
	})
})
