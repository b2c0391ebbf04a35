package rules

import (
	"fmt"
	"math/rand"
	"strings"
)

const fallbackTopic = "similar things"

var iceBreakerTemplates = []string{
	"Hey! I noticed we both love %s. What got you into it?",
	"Hi there! %s caught my eye. Tell me more about your interests!",
	"Hello! I see you're into %s. Any recommendations?",
	"Hey! Your interest in %s is intriguing. How did you get started?",
}

// IceBreaker fills one of the fixed templates with the first interest tag,
// or a generic topic when the list is empty. The random source is injected
// so callers can pin template selection in tests.
func IceBreaker(rng *rand.Rand, interests []string) string {
	topic := fallbackTopic
	for _, tag := range interests {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			topic = trimmed
			break
		}
	}

	template := iceBreakerTemplates[rng.Intn(len(iceBreakerTemplates))]
	return fmt.Sprintf(template, topic)
}
