package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"saveai-api/common"
	"saveai-api/model"
	"saveai-api/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, data any) {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	assert.Equal(t, "success", env.Status)
	require.NoError(t, json.Unmarshal(env.Data, data))
}

func TestTransactionHandler_CreateTransaction(t *testing.T) {
	userID := uuid.New()
	caller := claimsFor(userID, model.PermissionTransactionsWrite)

	t.Run("created", func(t *testing.T) {
		svc := new(mockTransactionService)
		h := NewTransactionHandler(svc)
		hash := "0x" + strings.Repeat("ab", 32)
		created := &model.Transaction{
			ID: uuid.New(), Type: model.TransactionTypeDeposit, Amount: decimal.RequireFromString("1000.00"),
			Currency: "AED", Status: model.TransactionStatusCompleted, UserID: userID, BlockchainHash: &hash,
		}
		svc.On("CreateTransaction", mock.Anything, mock.MatchedBy(func(req model.CreateTransactionRequest) bool {
			return req.Type == model.TransactionTypeDeposit && req.Amount.Equal(decimal.NewFromInt(1000)) && req.Metadata["category"] == "salary"
		}), caller).Return(created, nil).Once()

		body := `{"type":"deposit","amount":"1000.00","metadata":{"category":"salary"}}`
		req := withClaims(httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(body)), caller)
		rr := httptest.NewRecorder()
		ErrorHandlingMiddleware(h.CreateTransaction).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		var got model.Transaction
		decodeEnvelope(t, rr, &got)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, hash, *got.BlockchainHash)
		svc.AssertExpectations(t)
	})

	t.Run("invalid body", func(t *testing.T) {
		h := NewTransactionHandler(new(mockTransactionService))
		req := withClaims(httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(`{"type":"refund","amount":"5"}`)), caller)
		rr := httptest.NewRecorder()
		ErrorHandlingMiddleware(h.CreateTransaction).ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("security validation failed", func(t *testing.T) {
		svc := new(mockTransactionService)
		h := NewTransactionHandler(svc)
		verr := &service.ValidationError{Validation: &model.SecurityValidation{Checks: map[string]bool{
			model.CheckAmountWithinLimits: false, model.CheckUserAuthorized: true, model.CheckRiskAssessment: true,
		}}}
		svc.On("CreateTransaction", mock.Anything, mock.Anything, caller).Return(nil, verr).Once()

		req := withClaims(httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(`{"type":"payment","amount":"0.001"}`)), caller)
		rr := httptest.NewRecorder()
		ErrorHandlingMiddleware(h.CreateTransaction).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.JSONEq(t, `{"code":403,"message":"Security validation failed","details":{"failed_checks":["amount_within_limits"]}}`, rr.Body.String())
	})

	t.Run("attestation failed", func(t *testing.T) {
		svc := new(mockTransactionService)
		h := NewTransactionHandler(svc)
		svc.On("CreateTransaction", mock.Anything, mock.Anything, caller).
			Return(nil, fmt.Errorf("%w: node down", service.ErrAttestationFailed)).Once()

		req := withClaims(httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(`{"type":"payment","amount":"10"}`)), caller)
		rr := httptest.NewRecorder()
		ErrorHandlingMiddleware(h.CreateTransaction).ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadGateway, rr.Code)
	})

	t.Run("no claims", func(t *testing.T) {
		h := NewTransactionHandler(new(mockTransactionService))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(`{}`))
		rr := httptest.NewRecorder()
		ErrorHandlingMiddleware(h.CreateTransaction).ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestTransactionHandler_CreateTransaction_AmountBounds(t *testing.T) {
	caller := claimsFor(uuid.New(), model.PermissionTransactionsWrite)
	tests := []struct {
		name string
		body string
		want int
	}{
		{"huge exponent", `{"type":"payment","amount":1e30000000}`, http.StatusBadRequest},
		{"tiny exponent", `{"type":"payment","amount":"1e-30000000"}`, http.StatusBadRequest},
		{"oversized body", `{"type":"payment","amount":"1.00","metadata":{"note":"` + strings.Repeat("x", common.MaxBodyBytes) + `"}}`, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockTransactionService)
			h := NewTransactionHandler(svc)

			req := withClaims(httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(tt.body)), caller)
			rr := httptest.NewRecorder()
			start := time.Now()
			ErrorHandlingMiddleware(h.CreateTransaction).ServeHTTP(rr, req)

			assert.Less(t, time.Since(start), time.Second)
			assert.Equal(t, tt.want, rr.Code)
			svc.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestTransactionHandler_ListTransactions(t *testing.T) {
	userID := uuid.New()
	caller := claimsFor(userID, model.PermissionTransactionsRead)

	t.Run("parses filters", func(t *testing.T) {
		svc := new(mockTransactionService)
		h := NewTransactionHandler(svc)
		other := uuid.New()
		svc.On("ListUserTransactions", mock.Anything, &other, mock.MatchedBy(func(f model.TransactionFilter) bool {
			return f.Start.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) &&
				f.End.Equal(time.Date(2025, 1, 31, 23, 59, 59, 999999000, time.UTC)) &&
				f.Type == model.TransactionTypePayment && f.Status == ""
		}), caller).Return([]*model.Transaction{}, nil).Once()

		req := withClaims(httptest.NewRequest(http.MethodGet, "/api/v1/transactions?start=2025-01-01&end=2025-01-31&type=payment&user_id="+other.String(), nil), caller)
		rr := httptest.NewRecorder()
		ErrorHandlingMiddleware(h.ListTransactions).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var got []model.Transaction
		decodeEnvelope(t, rr, &got)
		assert.Empty(t, got)
		svc.AssertExpectations(t)
	})

	t.Run("bad start", func(t *testing.T) {
		h := NewTransactionHandler(new(mockTransactionService))
		req := withClaims(httptest.NewRequest(http.MethodGet, "/api/v1/transactions?start=yesterday", nil), caller)
		rr := httptest.NewRecorder()
		ErrorHandlingMiddleware(h.ListTransactions).ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("service rejects range", func(t *testing.T) {
		svc := new(mockTransactionService)
		h := NewTransactionHandler(svc)
		svc.On("ListUserTransactions", mock.Anything, (*uuid.UUID)(nil), mock.Anything, caller).Return(nil, service.ErrInvalidRange).Once()

		req := withClaims(httptest.NewRequest(http.MethodGet, "/api/v1/transactions?start=2025-02-01T00:00:00Z&end=2025-01-01T00:00:00Z", nil), caller)
		rr := httptest.NewRecorder()
		ErrorHandlingMiddleware(h.ListTransactions).ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), service.ErrInvalidRange.Error())
	})
}

func TestTransactionHandler_GetTransaction(t *testing.T) {
	userID := uuid.New()
	caller := claimsFor(userID, model.PermissionTransactionsRead)
	id := uuid.New()

	cases := []struct {
		name     string
		pathID   string
		svcErr   error
		wantCode int
	}{
		{"found", id.String(), nil, http.StatusOK},
		{"not found", id.String(), service.ErrTransactionNotFound, http.StatusNotFound},
		{"forbidden", id.String(), service.ErrPermissionDenied, http.StatusForbidden},
		{"internal", id.String(), errors.New("connection refused"), http.StatusInternalServerError},
		{"bad id", "42", nil, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := new(mockTransactionService)
			h := NewTransactionHandler(svc)
			if tc.svcErr != nil {
				svc.On("GetTransaction", mock.Anything, id, caller).Return(nil, tc.svcErr).Once()
			} else {
				svc.On("GetTransaction", mock.Anything, id, caller).Return(&model.Transaction{ID: id, UserID: userID}, nil).Maybe()
			}

			req := withClaims(httptest.NewRequest(http.MethodGet, "/api/v1/transactions/"+tc.pathID, nil), caller)
			req.SetPathValue("id", tc.pathID)
			rr := httptest.NewRecorder()
			ErrorHandlingMiddleware(h.GetTransaction).ServeHTTP(rr, req)
			assert.Equal(t, tc.wantCode, rr.Code)
		})
	}
}

func TestTransactionHandler_UpdateTransactionStatus(t *testing.T) {
	userID := uuid.New()
	caller := claimsFor(userID, model.PermissionTransactionsWrite)
	id := uuid.New()

	t.Run("updated", func(t *testing.T) {
		svc := new(mockTransactionService)
		h := NewTransactionHandler(svc)
		svc.On("UpdateTransactionStatus", mock.Anything, id, model.TransactionStatusCancelled, caller).
			Return(&model.Transaction{ID: id, Status: model.TransactionStatusCancelled}, nil).Once()

		req := withClaims(httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"status":"cancelled"}`)), caller)
		req.SetPathValue("id", id.String())
		rr := httptest.NewRecorder()
		ErrorHandlingMiddleware(h.UpdateTransactionStatus).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var got model.Transaction
		decodeEnvelope(t, rr, &got)
		assert.Equal(t, model.TransactionStatusCancelled, got.Status)
	})

	t.Run("transition conflict", func(t *testing.T) {
		svc := new(mockTransactionService)
		h := NewTransactionHandler(svc)
		svc.On("UpdateTransactionStatus", mock.Anything, id, model.TransactionStatusFailed, caller).
			Return(nil, fmt.Errorf("%w: completed to failed", service.ErrInvalidTransition)).Once()

		req := withClaims(httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"status":"failed"}`)), caller)
		req.SetPathValue("id", id.String())
		rr := httptest.NewRecorder()
		ErrorHandlingMiddleware(h.UpdateTransactionStatus).ServeHTTP(rr, req)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("unknown status rejected by validation", func(t *testing.T) {
		h := NewTransactionHandler(new(mockTransactionService))
		req := withClaims(httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"status":"settled"}`)), caller)
		req.SetPathValue("id", id.String())
		rr := httptest.NewRecorder()
		ErrorHandlingMiddleware(h.UpdateTransactionStatus).ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
