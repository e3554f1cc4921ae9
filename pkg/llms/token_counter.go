package llms

import (
	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"

	"github.com/introduceourtown/townrec/pkg/models"
)

const DefaultTokenEncoding = "cl100k_base"

var _ models.TokenCounter = &TiktokenCounter{}

func init() {
	// BPE ranks are embedded in the binary rather than downloaded at startup
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// TiktokenCounter counts tokens locally using a tiktoken encoding.
type TiktokenCounter struct {
	tkm *tiktoken.Tiktoken
}

func NewTiktokenCounter(encoding string) (*TiktokenCounter, error) {
	if encoding == "" {
		encoding = DefaultTokenEncoding
	}
	tkm, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, NewLLMError("unable to load token encoding "+encoding, err)
	}
	return &TiktokenCounter{tkm: tkm}, nil
}

// GetTokenCount returns the number of tokens in the text
func (c *TiktokenCounter) GetTokenCount(text string) (int, error) {
	return len(c.tkm.Encode(text, nil, nil)), nil
}
