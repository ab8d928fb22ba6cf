package config_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/borsokman/localhost/internal/config"
)

const sample = `
server {
  listen 8080;
  server_name example.com;
  root ./www;
  index index.html;
  error_page 404 errors/404.html;
  client_max_body_size 1000000;
  keep_alive_timeout 30;

  location / {
    methods GET;
    autoindex off;
  }

  location /cgi-bin {
    root ./cgi-bin;
    methods GET POST;
    cgi .py /usr/bin/python3;
  }

  location /old {
    redirect /new;
  }
}
`

var _ = Describe("Parse", func() {
	It("parses a full server block", func() {
		cfg, err := config.Parse(sample, "/srv/conf")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Servers).To(HaveLen(1))

		s := cfg.Servers[0]
		Expect(s.Listen).To(Equal([]string{"0.0.0.0:8080"}))
		Expect(s.ServerNames).To(Equal([]string{"example.com"}))
		Expect(s.Root).To(Equal("/srv/conf/www"))
		Expect(s.ClientMaxBodySize).To(BeEquivalentTo(1000000))
		Expect(s.EffectiveKeepAliveTimeout().Seconds()).To(Equal(30.0))
	})

	It("selects the longest-prefix location", func() {
		cfg, _ := config.Parse(sample, "/srv/conf")
		s := &cfg.Servers[0]
		loc := s.FindLocation("/cgi-bin/echo.py")
		Expect(loc).NotTo(BeNil())
		Expect(loc.Cgi).NotTo(BeNil())
		Expect(loc.Cgi.Extension).To(Equal(".py"))
	})

	It("defaults the keep-alive timeout to 75s when unset", func() {
		cfg, _ := config.Parse(`server { listen 80; }`, "/srv")
		Expect(cfg.Servers[0].EffectiveKeepAliveTimeout().Seconds()).To(Equal(75.0))
	})

	It("rejects configs with no server blocks", func() {
		cfg := &config.Config{}
		Expect(cfg.Validate()).To(HaveOccurred())
	})
})
