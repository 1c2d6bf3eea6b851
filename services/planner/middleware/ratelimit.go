// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// clientTTL is how long an idle client's bucket survives before pruning.
const clientTTL = 3 * time.Minute

// RateLimiter enforces a token bucket per client IP.
//
// # Description
//
// An annealing run costs real CPU, so the optimize endpoints are guarded
// against a single client firing plans in a loop. Each client IP gets its
// own rate.Limiter; buckets idle past clientTTL are pruned lazily on the
// next request, so no background goroutine is needed.
//
// # Thread Safety
//
// Safe for concurrent use.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientBucket

	limit rate.Limit
	burst int

	// onReject is invoked with the request path when a request is
	// rejected. Used by the service to record metrics. May be nil.
	onReject func(path string)

	// now is injectable for pruning tests.
	now func() time.Time
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiterOption configures a RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithRejectHook registers a callback fired on every rejected request.
func WithRejectHook(fn func(path string)) RateLimiterOption {
	return func(rl *RateLimiter) { rl.onReject = fn }
}

// WithLimiterClock replaces the wall clock used for bucket pruning.
func WithLimiterClock(now func() time.Time) RateLimiterOption {
	return func(rl *RateLimiter) { rl.now = now }
}

// NewRateLimiter builds a limiter allowing rps sustained requests per second
// with the given burst per client IP.
func NewRateLimiter(rps float64, burst int, opts ...RateLimiterOption) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*clientBucket),
		limit:   rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(rl)
	}
	return rl
}

// Middleware returns the Gin middleware enforcing the limit.
//
// Rejected requests get 429 with a Retry-After hint and never reach the
// handler.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			if rl.onReject != nil {
				rl.onReject(c.FullPath())
			}
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many optimization requests, slow down",
			})
			return
		}

		c.Next()
	}
}

// Allow reports whether the client may proceed, consuming one token if so.
func (rl *RateLimiter) Allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.pruneLocked(now)

	bucket, ok := rl.clients[clientIP]
	if !ok {
		bucket = &clientBucket{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[clientIP] = bucket
	}
	bucket.lastSeen = now

	return bucket.limiter.Allow()
}

// ActiveClients returns the number of tracked client buckets.
func (rl *RateLimiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// pruneLocked drops buckets idle past clientTTL. Caller holds mu.
func (rl *RateLimiter) pruneLocked(now time.Time) {
	for ip, bucket := range rl.clients {
		if now.Sub(bucket.lastSeen) > clientTTL {
			delete(rl.clients, ip)
		}
	}
}
