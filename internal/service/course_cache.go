package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-classroom/internal/dto"
	"github.com/noah-isme/gema-classroom/internal/observability"
)

const defaultCourseCacheTTL = 2 * time.Minute

// CourseCache keeps course details with their rosters in Redis. A nil client disables caching.
type CourseCache struct {
	redis  *redis.Client
	prefix string
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCourseCache builds a course details cache.
func NewCourseCache(client *redis.Client, channelBase string, ttl time.Duration, logger zerolog.Logger) *CourseCache {
	if ttl <= 0 {
		ttl = defaultCourseCacheTTL
	}
	prefix := "course"
	if channelBase != "" {
		prefix = channelBase + ":course"
	}

	return &CourseCache{
		redis:  client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger.With().Str("component", "course_cache").Logger(),
	}
}

func (c *CourseCache) key(courseID uint) string {
	return fmt.Sprintf("%s:%d:details", c.prefix, courseID)
}

// Get returns the cached details if present.
func (c *CourseCache) Get(ctx context.Context, courseID uint) (dto.CourseDetailResponse, bool) {
	if c == nil || c.redis == nil {
		return dto.CourseDetailResponse{}, false
	}

	raw, err := c.redis.Get(ctx, c.key(courseID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn().Err(err).Uint("course_id", courseID).Msg("failed to read course cache")
		}
		observability.RosterCacheLookups().WithLabelValues("miss").Inc()
		return dto.CourseDetailResponse{}, false
	}

	var detail dto.CourseDetailResponse
	if err := json.Unmarshal(raw, &detail); err != nil {
		c.logger.Warn().Err(err).Uint("course_id", courseID).Msg("failed to decode cached course")
		observability.RosterCacheLookups().WithLabelValues("miss").Inc()
		return dto.CourseDetailResponse{}, false
	}

	observability.RosterCacheLookups().WithLabelValues("hit").Inc()
	return detail, true
}

// Set stores the details for the configured TTL.
func (c *CourseCache) Set(ctx context.Context, detail dto.CourseDetailResponse) {
	if c == nil || c.redis == nil {
		return
	}

	payload, err := json.Marshal(detail)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to encode course details")
		return
	}
	if err := c.redis.Set(ctx, c.key(detail.ID), payload, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Uint("course_id", detail.ID).Msg("failed to cache course details")
	}
}

// Invalidate drops the cached details after a course or membership change.
func (c *CourseCache) Invalidate(ctx context.Context, courseID uint) {
	if c == nil || c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, c.key(courseID)).Err(); err != nil {
		c.logger.Warn().Err(err).Uint("course_id", courseID).Msg("failed to invalidate course cache")
	}
}
