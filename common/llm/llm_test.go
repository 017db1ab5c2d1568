package llm_test

import (
	"context"
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/openai/openai-go"

	"mailscope.app/triage/common/llm"
)

var _ = Describe("New", func() {
	It("requires an API key", func() {
		_, err := llm.New(llm.Config{Provider: llm.ProviderOpenAI, Model: "gpt-4o-mini"})
		Expect(err).To(HaveOccurred())
	})

	It("defaults to the OpenAI provider", func() {
		client, err := llm.New(llm.Config{APIKey: "test-key", Model: "gpt-4o-mini"})
		Expect(err).NotTo(HaveOccurred())
		Expect(client.Model()).To(Equal("gpt-4o-mini"))
	})

	It("builds an Anthropic client when asked", func() {
		client, err := llm.New(llm.Config{
			Provider: llm.ProviderAnthropic,
			APIKey:   "test-key",
			Model:    "claude-sonnet-4-5",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(client.Model()).To(Equal("claude-sonnet-4-5"))
	})

	It("rejects unknown providers", func() {
		_, err := llm.New(llm.Config{Provider: "cohere", APIKey: "k", Model: "m"})
		Expect(err).To(MatchError(ContainSubstring("unsupported LLM provider")))
	})
})

var _ = Describe("GenerateSchema", func() {
	type testPayload struct {
		Title  string   `json:"title" jsonschema:"required"`
		Quotes []string `json:"quotes" jsonschema:"required,minItems=1"`
	}

	It("reflects a closed schema from struct tags", func() {
		schema := llm.GenerateSchema[testPayload]()
		Expect(schema).NotTo(BeNil())
		rendered := fmt.Sprintf("%v", schema)
		Expect(rendered).To(ContainSubstring("title"))
		Expect(rendered).To(ContainSubstring("quotes"))
	})
})

var _ = Describe("IsRetryable", func() {
	ctx := context.Background()

	It("treats nil as not retryable", func() {
		Expect(llm.IsRetryable(ctx, nil)).To(BeFalse())
	})

	It("never retries cancelled contexts", func() {
		Expect(llm.IsRetryable(ctx, context.Canceled)).To(BeFalse())
		Expect(llm.IsRetryable(ctx, fmt.Errorf("call failed: %w", context.DeadlineExceeded))).To(BeFalse())
	})

	It("retries rate limits and server errors", func() {
		Expect(llm.IsRetryable(ctx, &openai.Error{StatusCode: 429})).To(BeTrue())
		Expect(llm.IsRetryable(ctx, &openai.Error{StatusCode: 503})).To(BeTrue())
	})

	It("does not retry client errors", func() {
		Expect(llm.IsRetryable(ctx, &openai.Error{StatusCode: 400})).To(BeFalse())
		Expect(llm.IsRetryable(ctx, &openai.Error{StatusCode: 401})).To(BeFalse())
	})

	It("retries bare network errors", func() {
		Expect(llm.IsRetryable(ctx, errors.New("connection reset by peer"))).To(BeTrue())
	})
})
