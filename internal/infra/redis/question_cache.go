package redis

import (
	"context"
	"math/rand"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/cupertitieus-ctrl/notesareboring/internal/app"
	"github.com/cupertitieus-ctrl/notesareboring/internal/domain"
)

// QuestionCache keeps each question's answer key in Redis so the
// submit-answer hot path skips the relational store.
// Layout: HSET question:{id} answer {correct} limit {seconds}
type QuestionCache struct {
	client *redis.Client
	source app.QuestionSource
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionCache(client *redis.Client, source app.QuestionSource, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Question returns a lightweight question: only the correct answer and time
// limit are cached, which is all scoring needs.
func (c *QuestionCache) Question(ctx context.Context, questionID string) (domain.Question, error) {
	key := c.key(questionID)

	fields, err := c.client.HGetAll(ctx, key).Result()
	if err == nil && len(fields) > 0 {
		return questionFromFields(questionID, fields), nil
	}

	result, err, _ := c.sf.Do(questionID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		fields, err := c.client.HGetAll(ctx, key).Result()
		if err == nil && len(fields) > 0 {
			return questionFromFields(questionID, fields), nil
		}

		question, err := c.source.Question(ctx, questionID)
		if err != nil {
			return domain.Question{}, err
		}

		pipe := c.client.Pipeline()
		pipe.HSet(ctx, key, "answer", question.CorrectAnswer, "limit", question.TimeLimitSeconds)
		if ttl := c.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return question, nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return result.(domain.Question), nil
}

func (c *QuestionCache) key(questionID string) string {
	return "question:" + questionID
}

func questionFromFields(questionID string, fields map[string]string) domain.Question {
	limit := app.DefaultTimeLimitSeconds
	if raw, ok := fields["limit"]; ok {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	return domain.Question{
		ID:               questionID,
		CorrectAnswer:    fields["answer"],
		TimeLimitSeconds: limit,
	}
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
