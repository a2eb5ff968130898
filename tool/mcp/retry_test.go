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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRetryableError(t *testing.T) {
	retryable := []string{
		"dial tcp 127.0.0.1:8080: connection refused",
		"connection reset by peer",
		"read tcp: i/o timeout",
		"EOF",
		"unexpected read: EOF",
		"server returned HTTP 503",
		"request failed with status 429",
		"request failed with status: 502 bad gateway",
		"upstream error code: 500",
	}
	for _, msg := range retryable {
		assert.True(t, isRetryableError(errors.New(msg)), msg)
	}

	permanent := []string{
		"invalid arguments",
		"tool not found",
		"unauthorized: status 401",
		"listening on port 5000x", // a port number is not a status code
		"EOF while reading config name",
	}
	for _, msg := range permanent {
		assert.False(t, isRetryableError(errors.New(msg)), msg)
	}

	assert.False(t, isRetryableError(nil))
}

func TestExecuteWithRetry(t *testing.T) {
	quick := &RetryConfig{
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		BackoffFactor:  2.0,
		MaxBackoff:     5 * time.Millisecond,
	}

	t.Run("succeeds after transient failures", func(t *testing.T) {
		attempts := 0
		out, err := executeWithRetry(context.Background(), quick, func() (any, error) {
			attempts++
			if attempts < 3 {
				return nil, errors.New("connection refused")
			}
			return "ok", nil
		}, "op")
		require.NoError(t, err)
		assert.Equal(t, "ok", out)
		assert.Equal(t, 3, attempts)
	})

	t.Run("permanent error returns immediately", func(t *testing.T) {
		attempts := 0
		_, err := executeWithRetry(context.Background(), quick, func() (any, error) {
			attempts++
			return nil, errors.New("invalid arguments")
		}, "op")
		require.Error(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("exhausts the budget", func(t *testing.T) {
		attempts := 0
		transient := errors.New("connection reset by peer")
		_, err := executeWithRetry(context.Background(), quick, func() (any, error) {
			attempts++
			return nil, transient
		}, "op")
		require.ErrorIs(t, err, transient)
		assert.Equal(t, quick.MaxRetries+1, attempts)
	})

	t.Run("nil config runs once", func(t *testing.T) {
		attempts := 0
		_, err := executeWithRetry(context.Background(), nil, func() (any, error) {
			attempts++
			return nil, errors.New("connection refused")
		}, "op")
		require.Error(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("cancellation interrupts the backoff", func(t *testing.T) {
		slow := &RetryConfig{
			MaxRetries:     3,
			InitialBackoff: time.Minute,
			BackoffFactor:  2.0,
			MaxBackoff:     time.Hour,
		}
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()
		_, err := executeWithRetry(ctx, slow, func() (any, error) {
			return nil, errors.New("connection refused")
		}, "op")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cancelled during retry backoff")
	})
}
