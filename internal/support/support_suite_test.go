package support_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestSupport(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Support Suite")
}
