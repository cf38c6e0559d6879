package scoring

import (
	"math"

	"newsyacht/models"
)

// Default smoothing constants: alpha for token counts, beta for the class
// prior.
const (
	DefaultAlpha = 1.0
	DefaultBeta  = 1.0
)

// TokenCounts holds how many times a token has been seen in upvoted and
// downvoted documents.
type TokenCounts struct {
	Up   int64
	Down int64
}

// Model is a multinomial naive-Bayes classifier over the two vote classes,
// trained incrementally one labeled document at a time. It mirrors the
// persisted state: four aggregate counters plus per-token counts.
type Model struct {
	UpDocs          int64
	DownDocs        int64
	UpTotalTokens   int64
	DownTotalTokens int64
	Tokens          map[string]TokenCounts
}

func NewModel() *Model {
	return &Model{Tokens: make(map[string]TokenCounts)}
}

func (m *Model) VocabularySize() int {
	return len(m.Tokens)
}

// Score returns a probability-like value in (0, 1) that a document with the
// given tokens would be upvoted. Values above 0.5 predict a like. Unseen
// tokens contribute only the smoothing prior.
func (m *Model) Score(tokens []string, alpha, beta float64) float64 {
	// Guard against an empty vocabulary: the denominators must stay positive.
	v := float64(max(m.VocabularySize(), 1))

	score := math.Log((float64(m.UpDocs) + beta) / (float64(m.DownDocs) + beta))

	upDenom := float64(m.UpTotalTokens) + alpha*v
	downDenom := float64(m.DownTotalTokens) + alpha*v

	for token, count := range countTokens(tokens) {
		counts := m.Tokens[token]
		upNum := float64(counts.Up) + alpha
		downNum := float64(counts.Down) + alpha

		score += float64(count) * (math.Log(upNum/upDenom) - math.Log(downNum/downDenom))
	}

	return sigmoid(score)
}

// ScoreText tokenizes document and scores it with the default smoothing.
func (m *Model) ScoreText(document string) float64 {
	return m.Score(Tokenize(document), DefaultAlpha, DefaultBeta)
}

// Update trains the model on one labeled document and returns the per-token
// count deltas, which the caller persists as atomic increments. Update is
// not idempotent: it must run exactly once per vote event.
func (m *Model) Update(document string, vote models.Vote) map[string]int64 {
	deltas := countTokens(Tokenize(document))

	var total int64
	for _, count := range deltas {
		total += count
	}

	for token, count := range deltas {
		counts := m.Tokens[token]
		if vote == models.VoteUp {
			counts.Up += count
		} else {
			counts.Down += count
		}
		m.Tokens[token] = counts
	}

	if vote == models.VoteUp {
		m.UpDocs++
		m.UpTotalTokens += total
	} else {
		m.DownDocs++
		m.DownTotalTokens += total
	}

	return deltas
}

func countTokens(tokens []string) map[string]int64 {
	counts := make(map[string]int64, len(tokens))
	for _, token := range tokens {
		counts[token]++
	}
	return counts
}

// sigmoid branches on the sign of z so the exponential never overflows.
func sigmoid(z float64) float64 {
	if z >= 0 {
		ez := math.Exp(-z)
		return 1 / (1 + ez)
	}
	ez := math.Exp(z)
	return ez / (1 + ez)
}
