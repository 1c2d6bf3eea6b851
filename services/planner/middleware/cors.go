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
	"strings"

	"github.com/gin-gonic/gin"
)

// CORS allows the browser dashboard to call the API from another origin.
//
// # Description
//
// With no allowed origins configured, every origin is accepted (the service
// runs inside a trusted network during the pilot). Pass explicit origins to
// lock it down. Preflight OPTIONS requests are answered with 204 and never
// reach the handlers.
//
// # Inputs
//
//   - allowedOrigins: origins permitted to call the API. Empty means all.
//
// # Examples
//
//	// Development: any origin
//	router.Use(middleware.CORS())
//
//	// Production: dashboard host only
//	router.Use(middleware.CORS("https://dashboard.agriq.ps"))
//
// # Thread Safety
//
// Thread-safe. The returned middleware can be used concurrently.
func CORS(allowedOrigins ...string) gin.HandlerFunc {
	allowAll := len(allowedOrigins) == 0

	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[strings.TrimRight(origin, "/")] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		switch {
		case origin == "":
			// Same-origin or non-browser caller, nothing to negotiate.
		case allowAll:
			c.Header("Access-Control-Allow-Origin", "*")
		case allowed[strings.TrimRight(origin, "/")]:
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
		c.Header("Access-Control-Max-Age", "3600")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
