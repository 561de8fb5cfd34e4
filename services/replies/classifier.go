package replies

import (
	"strings"

	"github.com/customeros/outflow/internal/enum"
)

// Lexicon precedence is fixed: opt-out intent always wins over interest, so a
// reply carrying both classifies negative.
var (
	negativeLexicon = []string{"stop", "unsubscribe", "not interested", "remove"}
	positiveLexicon = []string{"yes", "interested", "let's", "schedule", "book"}
)

func Classify(text string) enum.Sentiment {
	lowered := strings.ToLower(text)
	for _, token := range negativeLexicon {
		if strings.Contains(lowered, token) {
			return enum.SentimentNegative
		}
	}
	for _, token := range positiveLexicon {
		if strings.Contains(lowered, token) {
			return enum.SentimentPositive
		}
	}
	return enum.SentimentNeutral
}
