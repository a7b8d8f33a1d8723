package llm_test

import (
	"testing"

	"pagewatch.dev/core/common/llm"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestLLM(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "llm suite")
}

var _ = Describe("Temp", func() {
	It("returns a pointer to the given value", func() {
		p := llm.Temp(0.1)
		Expect(p).NotTo(BeNil())
		Expect(*p).To(Equal(0.1))
	})
})

var _ = Describe("Message", func() {
	It("carries role and content as constructed", func() {
		msg := llm.Message{Role: llm.RoleUser, Content: "hello"}
		Expect(msg.Role).To(Equal("user"))
		Expect(msg.Content).To(Equal("hello"))
	})
})

var _ = Describe("RateLimited", func() {
	It("reports a retry hint when present", func() {
		secs := 30
		err := &llm.RateLimited{RetryAfterSeconds: &secs}
		Expect(err.Error()).To(ContainSubstring("30"))
	})

	It("reports generically when no hint is present", func() {
		err := &llm.RateLimited{}
		Expect(err.Error()).To(ContainSubstring("rate limited"))
	})
})
