// Package keystore resolves per-video keys from loosely structured key/value text.
package keystore

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"pcmdec/internal/core/domain"
)

// DefaultPattern matches <string name="KEY">VALUE</string> anywhere in a document.
const DefaultPattern = `<string name="([^"]+)">([^<]+)</string>`

var ErrEmptyInput = errors.New("key document is empty")

var defaultPattern = regexp.MustCompile(DefaultPattern)

type options struct {
	pattern *regexp.Regexp
	logger  *zap.Logger
}

type Option func(*options)

// WithPattern replaces DefaultPattern. The pattern must have two capture
// groups: the key and the value.
func WithPattern(re *regexp.Regexp) Option {
	return func(o *options) {
		if re != nil {
			o.pattern = re
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Store is an immutable video id to key mapping. It is safe for concurrent use.
type Store struct {
	data map[string]string
}

// New extracts every key/value pair from text. Keys and values are trimmed,
// pairs with an empty side are dropped, and a repeated key keeps the last value.
func New(text string, opts ...Option) (*Store, error) {
	o := options{pattern: defaultPattern, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	if Trim(text) == "" {
		return nil, ErrEmptyInput
	}

	data := make(map[string]string)
	for _, m := range o.pattern.FindAllStringSubmatch(text, -1) {
		if len(m) < 3 {
			continue
		}
		key := Trim(m[1])
		value := Trim(m[2])
		if key == "" || value == "" {
			continue
		}
		data[key] = value
	}

	if len(data) == 0 {
		o.logger.Warn("no key pairs found in key document")
	} else {
		o.logger.Info("extracted key pairs", zap.Int("count", len(data)))
	}

	return &Store{data: data}, nil
}

// Load reads the key document at path and builds a Store from it.
func Load(path string, opts ...Option) (*Store, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read key document %s: %v", domain.ErrIO, path, err)
	}
	return New(string(content), opts...)
}

// Trim strips leading and trailing characters at or below U+0020, which
// covers ASCII spaces and control bytes but not Unicode spaces such as U+00A0.
func Trim(s string) string {
	return strings.TrimFunc(s, func(r rune) bool { return r <= ' ' })
}

// Lookup trims key and returns its value. Matching is case-sensitive.
func (s *Store) Lookup(key string) (string, bool) {
	key = Trim(key)
	if key == "" {
		return "", false
	}
	v, ok := s.data[key]
	return v, ok
}

func (s *Store) Contains(key string) bool {
	_, ok := s.Lookup(key)
	return ok
}

func (s *Store) Size() int {
	return len(s.data)
}
