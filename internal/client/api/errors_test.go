package api

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestIsConnectivity проверяет разделение ошибок связности и ответов сервера
func TestIsConnectivity(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
		{
			name: "url error",
			err:  &url.Error{Op: "Get", URL: "http://localhost", Err: errors.New("connection refused")},
			want: true,
		},
		{
			name: "wrapped url error",
			err:  fmt.Errorf("request failed: %w", &url.Error{Op: "Get", URL: "http://localhost", Err: errors.New("refused")}),
			want: true,
		},
		{
			name: "deadline exceeded",
			err:  context.DeadlineExceeded,
			want: true,
		},
		{
			name: "explicit offline",
			err:  ErrOffline,
			want: true,
		},
		{
			// Ответ от сервера получен - это не проблема связности,
			// какой бы ни был статус
			name: "server 500",
			err:  &Error{StatusCode: 500},
			want: false,
		},
		{
			name: "generic error",
			err:  errors.New("boom"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsConnectivity(tt.err))
		})
	}
}

// TestIsRetryable проверяет классификацию ошибок на повторяемые
func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "connectivity", err: ErrOffline, want: true},
		{name: "server 500", err: &Error{StatusCode: 500}, want: true},
		{name: "server 503", err: &Error{StatusCode: 503}, want: true},
		{name: "request timeout 408", err: &Error{StatusCode: 408}, want: true},
		{name: "rate limit 429", err: &Error{StatusCode: 429}, want: true},
		{name: "bad request 400", err: &Error{StatusCode: 400}, want: false},
		{name: "unauthorized 401", err: &Error{StatusCode: 401}, want: false},
		{name: "conflict 409", err: &Error{StatusCode: 409}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

// TestIsBenignConflict проверяет распознавание конфликтов,
// чье намерение уже выполнено на сервере
func TestIsBenignConflict(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "409 already exists",
			err:  &Error{StatusCode: 409, Message: "order already exists"},
			want: true,
		},
		{
			name: "422 already paid in body",
			err:  &Error{StatusCode: 422, Body: []byte(`{"error":"order already paid"}`)},
			want: true,
		},
		{
			name: "409 table occupied",
			err:  &Error{StatusCode: 409, Message: "table is already occupied"},
			want: true,
		},
		{
			name: "422 duplicate",
			err:  &Error{StatusCode: 422, Message: "duplicate expense entry"},
			want: true,
		},
		{
			// Маркер есть, но статус не конфликтный
			name: "500 with marker",
			err:  &Error{StatusCode: 500, Message: "already exists"},
			want: false,
		},
		{
			// Конфликтный статус без маркера - настоящий конфликт
			name: "409 without marker",
			err:  &Error{StatusCode: 409, Message: "version mismatch"},
			want: false,
		},
		{
			name: "connectivity error",
			err:  ErrOffline,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsBenignConflict(tt.err))
		})
	}
}

// TestError_Error проверяет форматирование ошибки сервера
func TestError_Error(t *testing.T) {
	withMessage := &Error{StatusCode: 404, Message: "order not found"}
	assert.Equal(t, "server error (404): order not found", withMessage.Error())

	bare := &Error{StatusCode: 502}
	assert.Equal(t, "server error (502)", bare.Error())
}
