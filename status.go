package tryon

import (
	"fmt"
	"strings"
	"time"
)

// StatusMessage renders a progress line for attempt (0-indexed).
func StatusMessage(attempt, maxRetries int) string {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return fmt.Sprintf("Generation in progress (attempt %d/%d)...", attempt+1, maxRetries)
}

func quotaReason(retryAfter time.Duration) string {
	var b strings.Builder
	b.WriteString("API quota exceeded (free tier). ")
	if retryAfter > 0 {
		fmt.Fprintf(&b, "Try again in approximately %d seconds. ", int((retryAfter+time.Second-1)/time.Second))
	}
	b.WriteString("\n\nFree tier limits:\n")
	b.WriteString("- 60 requests per minute\n")
	b.WriteString("- 300,000 tokens per day\n")
	b.WriteString("\nCheck your usage at: https://ai.dev/usage?tab=rate-limit\n")
	b.WriteString("More information: https://ai.google.dev/gemini-api/docs/rate-limits")
	return b.String()
}

func textOnlyReason(lastModel, recommended string) string {
	return fmt.Sprintf("None of the tried models can generate images on this plan. "+
		"Model %s returned text only. "+
		"Try %s, which is built for image generation, "+
		"or consider a paid plan that offers more image generation models.", lastModel, recommended)
}

func exhaustedReason(modelCount int, lastDetail string) string {
	if lastDetail == "" {
		lastDetail = "unknown error while generating the image"
	}
	return fmt.Sprintf("Generation failed after trying %d model(s): %s", modelCount, lastDetail)
}

const emptyResponseDetail = "The API did not return a valid image. This model may not support image generation on the free tier."
