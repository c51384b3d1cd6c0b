// Package similarity indexes claim text so reviewers can see similar claims.
// It is best-effort: callers log and discard its errors.
package similarity

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	lru "github.com/hashicorp/golang-lru"
	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/green-credits/config"
)

// Match is one ranked search hit.
type Match struct {
	ID       string            `json:"id"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata"`
}

type Store interface {
	Index(ctx context.Context, id, text string, metadata map[string]string) error
	Search(ctx context.Context, text string, limit int, excludeID string) ([]Match, error)
}

// New selects a Store by configuration. rdb may be nil for the memory backend.
func New(cfg config.SimilarityConfig, rdb *redis.Client) (Store, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryStore(cfg.Capacity)
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("redis similarity backend requires a redis client")
		}
		return NewRedisStore(rdb, cfg.KeyPrefix), nil
	default:
		return nil, fmt.Errorf("unknown similarity backend %q", cfg.Backend)
	}
}

// Tokenize lowercases text and splits it into a set of words of two or more
// letters or digits.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < 2 {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// jaccard returns |a∩b| / |a∪b| for two sorted, de-duplicated token lists.
func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	i, j, inter := 0, 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			inter++
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return float64(inter) / float64(len(a)+len(b)-inter)
}

func rank(matches []Match, limit int) []Match {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].Score > matches[j].Score
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

type document struct {
	tokens   []string
	metadata map[string]string
}

// MemoryStore keeps the most recently indexed documents in an LRU cache.
type MemoryStore struct {
	cache *lru.Cache
}

func NewMemoryStore(capacity int) (*MemoryStore, error) {
	if capacity <= 0 {
		capacity = 10000
	}
	c, err := lru.New(capacity)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{cache: c}, nil
}

func (s *MemoryStore) Index(_ context.Context, id, text string, metadata map[string]string) error {
	md := make(map[string]string, len(metadata))
	for k, v := range metadata {
		md[k] = v
	}
	s.cache.Add(id, document{tokens: Tokenize(text), metadata: md})
	return nil
}

func (s *MemoryStore) Search(_ context.Context, text string, limit int, excludeID string) ([]Match, error) {
	q := Tokenize(text)
	matches := []Match{}
	for _, k := range s.cache.Keys() {
		id := k.(string)
		if id == excludeID {
			continue
		}
		v, ok := s.cache.Peek(id)
		if !ok {
			continue
		}
		doc := v.(document)
		if score := jaccard(q, doc.tokens); score > 0 {
			matches = append(matches, Match{ID: id, Score: score, Metadata: doc.metadata})
		}
	}
	return rank(matches, limit), nil
}
