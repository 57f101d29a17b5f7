package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gobudget/internal/adapter/http/dto"
	"github.com/iho/gobudget/internal/domain"
	"github.com/iho/gobudget/internal/usecase"
)

type transactionServiceStub struct {
	createFn func(ctx context.Context, input usecase.CreateTransactionInput) (*usecase.TransactionResult, error)
	updateFn func(ctx context.Context, input usecase.UpdateTransactionInput) (*usecase.TransactionResult, error)
	deleteFn func(ctx context.Context, userID, id string) error
	getFn    func(ctx context.Context, userID, id string) (*domain.Transaction, error)
	listFn   func(ctx context.Context, userID, period string) ([]*domain.Transaction, error)
}

func (s *transactionServiceStub) CreateTransaction(ctx context.Context, input usecase.CreateTransactionInput) (*usecase.TransactionResult, error) {
	return s.createFn(ctx, input)
}

func (s *transactionServiceStub) UpdateTransaction(ctx context.Context, input usecase.UpdateTransactionInput) (*usecase.TransactionResult, error) {
	return s.updateFn(ctx, input)
}

func (s *transactionServiceStub) DeleteTransaction(ctx context.Context, userID, id string) error {
	return s.deleteFn(ctx, userID, id)
}

func (s *transactionServiceStub) GetTransaction(ctx context.Context, userID, id string) (*domain.Transaction, error) {
	return s.getFn(ctx, userID, id)
}

func (s *transactionServiceStub) ListTransactions(ctx context.Context, userID, period string) ([]*domain.Transaction, error) {
	return s.listFn(ctx, userID, period)
}

func testTransaction(input usecase.CreateTransactionInput) *domain.Transaction {
	return &domain.Transaction{
		ID:         "tx-1",
		UserID:     input.UserID,
		Type:       input.Type,
		CategoryID: input.CategoryID,
		Amount:     domain.MustMoney(input.Amount.String(), input.Currency),
		Date:       input.Date,
	}
}

func transactionBody(t *testing.T) *bytes.Reader {
	t.Helper()
	body, err := json.Marshal(dto.TransactionRequest{
		Type:       "expense",
		CategoryID: strPtr("food"),
		Amount:     "85",
		Currency:   "BRL",
		Date:       "2025-10-10",
	})
	require.NoError(t, err)
	return bytes.NewReader(body)
}

func strPtr(s string) *string { return &s }

func TestTransactionHandler_Create_Success(t *testing.T) {
	handler := NewTransactionHandler(&transactionServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateTransactionInput) (*usecase.TransactionResult, error) {
			assert.Equal(t, testUser, input.UserID)
			assert.Equal(t, time.Date(2025, 10, 10, 0, 0, 0, 0, time.UTC), input.Date)
			return &usecase.TransactionResult{
				Transaction: testTransaction(input),
				Warnings:    []string{"Food is at 85% of its limit"},
			}, nil
		},
	})

	req := withUser(httptest.NewRequest(http.MethodPost, "/transactions", transactionBody(t)))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp dto.TransactionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "85.00", resp.Amount)
	assert.Equal(t, "2025-10-10", resp.Date)
	assert.Len(t, resp.Warnings, 1)
}

func TestTransactionHandler_Create_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "blocked by rules", err: &domain.ValidationError{Errors: []string{"limit exceeded"}}, status: http.StatusUnprocessableEntity},
		{name: "closed month", err: &domain.PeriodClosedError{UserID: testUser, Period: "2025-10"}, status: http.StatusLocked},
		{name: "unknown category", err: domain.ErrCategoryNotFound, status: http.StatusNotFound},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			handler := NewTransactionHandler(&transactionServiceStub{
				createFn: func(ctx context.Context, input usecase.CreateTransactionInput) (*usecase.TransactionResult, error) {
					return nil, tt.err
				},
			})

			rec := httptest.NewRecorder()
			handler.Create(rec, withUser(httptest.NewRequest(http.MethodPost, "/transactions", transactionBody(t))))

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestTransactionHandler_Create_InvalidPayload(t *testing.T) {
	handler := NewTransactionHandler(&transactionServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateTransactionInput) (*usecase.TransactionResult, error) {
			t.Fatal("CreateTransaction should not be called for invalid payload")
			return nil, nil
		},
	})

	for _, body := range []string{"{", `{"type":"expense","amount":"x","date":"2025-10-01"}`} {
		rec := httptest.NewRecorder()
		handler.Create(rec, withUser(httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewBufferString(body))))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestTransactionHandler_Update(t *testing.T) {
	handler := NewTransactionHandler(&transactionServiceStub{
		updateFn: func(ctx context.Context, input usecase.UpdateTransactionInput) (*usecase.TransactionResult, error) {
			assert.Equal(t, "tx-1", input.ID)
			return &usecase.TransactionResult{Transaction: testTransaction(input.CreateTransactionInput)}, nil
		},
	})

	req := setChiURLParam(withUser(httptest.NewRequest(http.MethodPut, "/", transactionBody(t))), "id", "tx-1")
	rec := httptest.NewRecorder()
	handler.Update(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTransactionHandler_Delete(t *testing.T) {
	handler := NewTransactionHandler(&transactionServiceStub{
		deleteFn: func(ctx context.Context, userID, id string) error {
			if id == "closed" {
				return &domain.PeriodClosedError{Period: "2025-09"}
			}
			return nil
		},
	})

	rec := httptest.NewRecorder()
	handler.Delete(rec, setChiURLParam(withUser(httptest.NewRequest(http.MethodDelete, "/", nil)), "id", "tx-1"))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	handler.Delete(rec, setChiURLParam(withUser(httptest.NewRequest(http.MethodDelete, "/", nil)), "id", "closed"))
	assert.Equal(t, http.StatusLocked, rec.Code)
}

func TestTransactionHandler_List(t *testing.T) {
	var gotPeriod string
	handler := NewTransactionHandler(&transactionServiceStub{
		listFn: func(ctx context.Context, userID, period string) ([]*domain.Transaction, error) {
			gotPeriod = period
			return []*domain.Transaction{{ID: "tx-1", Amount: domain.MustMoney("1", "BRL")}}, nil
		},
	})

	rec := httptest.NewRecorder()
	handler.List(rec, withUser(httptest.NewRequest(http.MethodGet, "/transactions?period=2025-09", nil)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2025-09", gotPeriod)

	var resp []dto.TransactionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp, 1)
}

func TestTransactionHandler_Get_NotFound(t *testing.T) {
	handler := NewTransactionHandler(&transactionServiceStub{
		getFn: func(ctx context.Context, userID, id string) (*domain.Transaction, error) {
			return nil, domain.ErrTransactionNotFound
		},
	})

	rec := httptest.NewRecorder()
	handler.Get(rec, setChiURLParam(withUser(httptest.NewRequest(http.MethodGet, "/", nil)), "id", "tx-9"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
