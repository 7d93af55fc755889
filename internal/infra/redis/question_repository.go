package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"medquiz-service/internal/domain"
)

// QuestionLoader fetches question content from a backing store.
type QuestionLoader interface {
	LoadQuestions(ctx context.Context, category string, limit int) ([]domain.Question, error)
	LoadCategories(ctx context.Context) ([]string, error)
}

// QuestionRepository caches question batches in Redis and falls back to a
// loader on cache miss. Batches are stored as:
//
//	SET questions:{category}:{limit} <json array>  EX ttl
//
// Categories share one key: SET questions:categories <json array>.
type QuestionRepository struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionRepository(client *redis.Client, loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionRepository) FetchQuestions(ctx context.Context, category string, limit int) ([]domain.Question, error) {
	key := r.batchKey(category, limit)

	if cached, err := r.client.Get(ctx, key).Bytes(); err == nil {
		var questions []domain.Question
		if err := json.Unmarshal(cached, &questions); err == nil && len(questions) > 0 {
			return questions, nil
		}
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if cached, err := r.client.Get(ctx, key).Bytes(); err == nil {
			var questions []domain.Question
			if err := json.Unmarshal(cached, &questions); err == nil && len(questions) > 0 {
				return questions, nil
			}
		}

		questions, err := r.loader.LoadQuestions(ctx, category, limit)
		if err != nil {
			return nil, err
		}
		if len(questions) > 0 {
			if data, err := json.Marshal(questions); err == nil {
				_ = r.client.Set(ctx, key, data, r.ttlWithJitter()).Err()
			}
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (r *QuestionRepository) FetchCategories(ctx context.Context) ([]string, error) {
	key := "questions:categories"

	if cached, err := r.client.Get(ctx, key).Bytes(); err == nil {
		var categories []string
		if err := json.Unmarshal(cached, &categories); err == nil && len(categories) > 0 {
			return categories, nil
		}
	}

	categories, err := r.loader.LoadCategories(ctx)
	if err != nil {
		return nil, err
	}
	if len(categories) > 0 {
		if data, err := json.Marshal(categories); err == nil {
			_ = r.client.Set(ctx, key, data, r.ttlWithJitter()).Err()
		}
	}
	return categories, nil
}

func (r *QuestionRepository) batchKey(category string, limit int) string {
	if category == "" {
		category = "all"
	}
	return "questions:" + category + ":" + strconv.Itoa(limit)
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
