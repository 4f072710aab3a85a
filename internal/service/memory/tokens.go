package memory

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// TokenEstimator reports the approximate token cost of a message content.
type TokenEstimator interface {
	Estimate(content string) int
}

// HeuristicEstimator uses the len/4 approximation. Good enough for
// buffer eviction decisions and avoids a tokenizer download.
type HeuristicEstimator struct{}

func (HeuristicEstimator) Estimate(content string) int {
	return len(content) / 4
}

// TiktokenEstimator counts real cl100k_base tokens.
type TiktokenEstimator struct {
	enc *tiktoken.Tiktoken
}

func NewTiktokenEstimator() (*TiktokenEstimator, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("load cl100k_base encoding: %w", err)
	}
	return &TiktokenEstimator{enc: enc}, nil
}

func (t *TiktokenEstimator) Estimate(content string) int {
	return len(t.enc.Encode(content, nil, nil))
}
