package similarity

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps an inverted index in Redis:
//
//	<prefix>doc:<id>   hash {tokens, meta}
//	<prefix>tok:<word> set of document ids
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) docKey(id string) string  { return s.prefix + "doc:" + id }
func (s *RedisStore) tokKey(tok string) string { return s.prefix + "tok:" + tok }

func (s *RedisStore) Index(ctx context.Context, id, text string, metadata map[string]string) error {
	tokens := Tokenize(text)
	meta, err := json.Marshal(metadata)
	if err != nil {
		return err
	}

	// drop postings of a previous version of the document
	old, err := s.rdb.HGet(ctx, s.docKey(id), "tokens").Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("read document: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	for _, tok := range strings.Fields(old) {
		pipe.SRem(ctx, s.tokKey(tok), id)
	}
	pipe.HSet(ctx, s.docKey(id), "tokens", strings.Join(tokens, " "), "meta", string(meta))
	for _, tok := range tokens {
		pipe.SAdd(ctx, s.tokKey(tok), id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("index document: %w", err)
	}
	return nil
}

func (s *RedisStore) Search(ctx context.Context, text string, limit int, excludeID string) ([]Match, error) {
	q := Tokenize(text)
	if len(q) == 0 {
		return []Match{}, nil
	}

	pipe := s.rdb.Pipeline()
	postings := make([]*redis.StringSliceCmd, len(q))
	for i, tok := range q {
		postings[i] = pipe.SMembers(ctx, s.tokKey(tok))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("read postings: %w", err)
	}

	candidates := make(map[string]struct{})
	for _, cmd := range postings {
		for _, id := range cmd.Val() {
			if id != excludeID {
				candidates[id] = struct{}{}
			}
		}
	}
	if len(candidates) == 0 {
		return []Match{}, nil
	}

	ids := make([]string, 0, len(candidates))
	docs := make([]*redis.SliceCmd, 0, len(candidates))
	pipe = s.rdb.Pipeline()
	for id := range candidates {
		ids = append(ids, id)
		docs = append(docs, pipe.HMGet(ctx, s.docKey(id), "tokens", "meta"))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("read documents: %w", err)
	}

	matches := make([]Match, 0, len(ids))
	for i, cmd := range docs {
		vals := cmd.Val()
		if len(vals) != 2 || vals[0] == nil {
			continue
		}
		tokStr, _ := vals[0].(string)
		score := jaccard(q, strings.Fields(tokStr))
		if score == 0 {
			continue
		}
		md := map[string]string{}
		if metaStr, ok := vals[1].(string); ok && metaStr != "" {
			_ = json.Unmarshal([]byte(metaStr), &md)
		}
		matches = append(matches, Match{ID: ids[i], Score: score, Metadata: md})
	}
	return rank(matches, limit), nil
}
