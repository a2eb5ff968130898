//
// Tencent is pleased to support the open source community by making trpc-flowgraph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-flowgraph-go is licensed under the Apache License Version 2.0.
//
//

package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"trpc.group/trpc-go/trpc-flowgraph-go/log"
)

// isRetryableError reports whether a tool-call failure is worth retrying.
// Matching is deliberately narrow to avoid retry loops on permanent errors.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "connection timeout") ||
		strings.Contains(errStr, "connection lost") ||
		strings.Contains(errStr, "connection aborted") ||
		strings.Contains(errStr, "i/o timeout") ||
		strings.Contains(errStr, "read timeout") ||
		strings.Contains(errStr, "write timeout") ||
		strings.Contains(errStr, "dial timeout") ||
		errStr == "eof" ||
		strings.HasSuffix(errStr, ": eof") {
		return true
	}
	return isHTTPStatusRetryable(errStr)
}

// isHTTPStatusRetryable checks for retryable HTTP status codes (408, 409,
// 429, 5xx) with patterns precise enough not to match port numbers.
func isHTTPStatusRetryable(errStr string) bool {
	retryableCodes := []string{
		"408", "409", "429",
		"500", "501", "502", "503", "504", "505", "506", "507", "508", "509", "510", "511",
	}
	for _, code := range retryableCodes {
		if strings.Contains(errStr, "http "+code) ||
			strings.Contains(errStr, "status "+code) ||
			strings.Contains(errStr, "status: "+code) ||
			strings.Contains(errStr, "code "+code) ||
			strings.Contains(errStr, "code: "+code) ||
			strings.Contains(errStr, code+" ") {
			return true
		}
	}
	return false
}

// executeWithRetry runs an operation with exponential backoff. A nil config
// or zero MaxRetries executes exactly once.
func executeWithRetry(
	ctx context.Context,
	retryConfig *RetryConfig,
	operation func() (any, error),
	operationName string,
) (any, error) {
	if retryConfig == nil || retryConfig.MaxRetries <= 0 {
		return operation()
	}

	var lastErr error
	backoff := retryConfig.InitialBackoff
	for attempt := 0; attempt <= retryConfig.MaxRetries; attempt++ {
		result, err := operation()
		if err == nil {
			if attempt > 0 {
				log.Debugf("operation %s succeeded after %d attempts", operationName, attempt+1)
			}
			return result, nil
		}
		if !isRetryableError(err) {
			return nil, err
		}
		lastErr = err
		if attempt >= retryConfig.MaxRetries {
			break
		}
		log.Debugf("operation %s failed (attempt %d/%d), retrying in %s: %v",
			operationName, attempt+1, retryConfig.MaxRetries+1, backoff, err)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("operation cancelled during retry backoff: %w", ctx.Err())
		case <-time.After(backoff):
			backoff = time.Duration(float64(backoff) * retryConfig.BackoffFactor)
			if backoff > retryConfig.MaxBackoff {
				backoff = retryConfig.MaxBackoff
			}
		}
	}
	log.Errorf("operation %s exhausted %d attempts: %v", operationName, retryConfig.MaxRetries+1, lastErr)
	return nil, lastErr
}
