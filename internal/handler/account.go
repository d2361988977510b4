package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"fareflow/internal/service"
)

// AccountHandler handles HTTP requests for card accounts.
type AccountHandler struct {
	accountService *service.AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountService *service.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// BalanceResponse is the HTTP response for a balance query.
type BalanceResponse struct {
	CardUID string `json:"cardUID"`
	Balance int64  `json:"balance"`
}

// AddFundsRequest is the HTTP request body for a top-up.
type AddFundsRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// AddFundsResponse is the HTTP response for a top-up.
type AddFundsResponse struct {
	CardUID    string `json:"cardUID"`
	Amount     int64  `json:"amount"`
	NewBalance int64  `json:"newBalance"`
	Message    string `json:"message"`
}

// GetBalance handles GET /v1/accounts/:cardUID/balance
func (h *AccountHandler) GetBalance(c *gin.Context) {
	account, err := h.accountService.GetAccount(c.Request.Context(), c.Param("cardUID"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, BalanceResponse{
		CardUID: account.CardUID,
		Balance: account.Balance,
	})
}

// AddFunds handles POST /v1/accounts/:cardUID/funds
func (h *AccountHandler) AddFunds(c *gin.Context) {
	var req AddFundsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "amount must be a positive integer"})
		return
	}

	cardUID := c.Param("cardUID")
	account, err := h.accountService.AddFunds(c.Request.Context(), cardUID, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, AddFundsResponse{
		CardUID:    account.CardUID,
		Amount:     req.Amount,
		NewBalance: account.Balance,
		Message:    fmt.Sprintf("Successfully added %d to account %s", req.Amount, account.CardUID),
	})
}
