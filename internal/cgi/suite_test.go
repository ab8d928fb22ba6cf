package cgi_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestCgi(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Cgi Suite")
}
