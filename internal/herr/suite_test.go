package herr_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestHerr(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Herr Suite")
}
