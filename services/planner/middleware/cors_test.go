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
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func corsRequest(t *testing.T, mw gin.HandlerFunc, method, origin string) (*httptest.ResponseRecorder, *bool) {
	t.Helper()

	reached := false
	router := gin.New()
	router.Use(mw)
	router.Handle(method, "/", func(c *gin.Context) {
		reached = true
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(method, "/", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w, &reached
}

func TestCORS_OpenByDefault(t *testing.T) {
	w, reached := corsRequest(t, CORS(), http.MethodGet, "https://anywhere.example")

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.True(t, *reached)
}

func TestCORS_AllowedOriginEchoed(t *testing.T) {
	w, _ := corsRequest(t, CORS("https://dashboard.agriq.ps"),
		http.MethodGet, "https://dashboard.agriq.ps")

	assert.Equal(t, "https://dashboard.agriq.ps", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", w.Header().Get("Vary"))
}

func TestCORS_UnknownOriginGetsNoHeader(t *testing.T) {
	w, reached := corsRequest(t, CORS("https://dashboard.agriq.ps"),
		http.MethodGet, "https://evil.example")

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.True(t, *reached, "request still runs; the browser enforces the policy")
}

func TestCORS_PreflightShortCircuits(t *testing.T) {
	w, reached := corsRequest(t, CORS(), http.MethodOptions, "https://anywhere.example")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.False(t, *reached, "preflight should never reach the handler")
	assert.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
}

func TestCORS_SameOriginRequest(t *testing.T) {
	w, reached := corsRequest(t, CORS(), http.MethodGet, "")

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.True(t, *reached)
}
