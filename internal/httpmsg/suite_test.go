package httpmsg_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestHttpmsg(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Httpmsg Suite")
}
