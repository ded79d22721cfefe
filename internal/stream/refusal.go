package stream

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRefusal is reported when the model declined the request.
var ErrRefusal = errors.New("model refused request")

// RefusalFunc reports whether the accumulated output prefix is a refusal.
type RefusalFunc func(prefix string) bool

// DefaultRefusalPhrases are the openers treated as refusals by DefaultRefusal.
var DefaultRefusalPhrases = []string{
	"I'm sorry",
	"I will not continue this story",
}

// DefaultRefusal matches DefaultRefusalPhrases.
var DefaultRefusal = PrefixRefusal(DefaultRefusalPhrases...)

// PrefixRefusal returns a RefusalFunc matching any of the given prefixes.
func PrefixRefusal(phrases ...string) RefusalFunc {
	return func(prefix string) bool {
		for _, p := range phrases {
			if strings.HasPrefix(prefix, p) {
				return true
			}
		}
		return false
	}
}

func refusalError(prefix string) error {
	const maxShown = 60
	if len(prefix) > maxShown {
		prefix = prefix[:maxShown] + "..."
	}
	return fmt.Errorf("%w: %q", ErrRefusal, prefix)
}
