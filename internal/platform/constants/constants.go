// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Security: JWT issuer configuration.
  - Redis Taxonomy: Channel prefixes for the live notification fan-out.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "chaptra-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	// Multipart book uploads (cover + PDF) need headroom here.
	DefaultReadTimeout = 60 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	// Kept at zero-compatible high value because SSE streams write indefinitely;
	// the stream handler manages its own heartbeat deadline.
	DefaultWriteTimeout = 0

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for a standard request lifecycle.
	// Applied per-route-group; the SSE stream route is exempt.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Authentication

const (
	// AuthIssuer is the standard 'iss' claim in JWTs.
	AuthIssuer = "chaptra.app"

	// AccessTokenTTL is the lifetime of an issued bearer token. Long-lived
	// because the session guard validates the stored current-token digest
	// against the database on every request anyway.
	AccessTokenTTL = 7 * 24 * time.Hour
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldMeta    = "meta"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldItems   = "items"
	FieldTotal   = "total"
	FieldMessage = "message"
	FieldStatus  = "status"
)

// # Database Schemas

const (
	SchemaCore   = "core"
	SchemaUsers  = "users"
	SchemaAccess = "access"
	SchemaNotify = "notify"
)

// # Redis Channels (Fan-out Taxonomy)

const (
	// RedisChannelUserNotify is the pub/sub channel prefix for per-user
	// live notification delivery. Full channel: notify:user:<userID>.
	RedisChannelUserNotify = "notify:user:"

	// RedisChannelUserNotifyPattern subscribes to every per-user channel.
	RedisChannelUserNotifyPattern = "notify:user:*"
)

// # Blob Store Keys

const (
	// BlobPrefixCover is the object key prefix for book cover images.
	BlobPrefixCover = "covers/"

	// BlobPrefixPDF is the object key prefix for book and chapter PDFs.
	BlobPrefixPDF = "pdfs/"

	// PresignedURLTTL is the validity window for presigned GET links.
	PresignedURLTTL = 1 * time.Hour
)
