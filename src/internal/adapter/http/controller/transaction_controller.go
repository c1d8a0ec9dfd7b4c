package controller

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/api-sage/bank-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/bank-ledger/src/internal/commons"
	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/logger"
	"github.com/api-sage/bank-ledger/src/internal/usecase/service_interfaces"
)

const maxRequestBody = 1 << 20

type TransactionController struct {
	transferService    service_interfaces.TransferService
	transactionService service_interfaces.TransactionService
}

func NewTransactionController(
	transferService service_interfaces.TransferService,
	transactionService service_interfaces.TransactionService,
) *TransactionController {
	return &TransactionController{
		transferService:    transferService,
		transactionService: transactionService,
	}
}

func (c *TransactionController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	wrap := func(h http.HandlerFunc) http.Handler {
		if authMiddleware == nil {
			return h
		}
		return authMiddleware(h)
	}

	mux.Handle("POST /transactions", wrap(c.transfer))
	mux.Handle("GET /transactions", wrap(c.listAllTransactions))
	mux.Handle("GET /transactions/{transactionId}", wrap(c.getTransaction))
	mux.Handle("GET /accounts/{accountNumber}/transactions", wrap(c.listTransactions))
}

func (c *TransactionController) transfer(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.TransferRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		logError(r, err, nil)
		response := withRequestID(r, commons.ErrorResponse[models.TransactionResponse]("invalid request body", err.Error()))
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}
	logRequest(r, req)

	if err := req.Validate(); err != nil {
		response := withRequestID(r, commons.ErrorResponse[models.TransactionResponse]("validation failed", err.Error()))
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}

	entry, err := c.transferService.Transfer(r.Context(), req.ToDomain())
	if err != nil {
		status := statusFor(err)
		logError(r, err, logger.Fields{"status": status, "kind": string(domain.KindOf(err))})
		response := withRequestID(r, commons.ErrorResponse[models.TransactionResponse](
			clientMessage(err, "Transaction failed"),
			errorCode(err),
		))
		writeJSON(w, status, response)
		logResponse(r, status, response, start)
		return
	}

	response := withRequestID(r, commons.SuccessResponse("Transaction successful", models.NewTransactionResponse(entry)))
	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func (c *TransactionController) getTransaction(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	transactionID := strings.TrimSpace(r.PathValue("transactionId"))
	entry, err := c.transactionService.GetTransaction(r.Context(), transactionID)
	if err != nil {
		status := statusFor(err)
		logError(r, err, logger.Fields{"transactionId": transactionID, "status": status})
		response := withRequestID(r, commons.ErrorResponse[models.TransactionResponse](
			clientMessage(err, "Unable to fetch transaction right now"),
			errorCode(err),
		))
		writeJSON(w, status, response)
		logResponse(r, status, response, start)
		return
	}

	response := withRequestID(r, commons.SuccessResponse("Transaction retrieved", models.NewTransactionResponse(entry)))
	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func (c *TransactionController) listTransactions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	accountNumber := strings.TrimSpace(r.PathValue("accountNumber"))
	entries, err := c.transactionService.ListTransactions(r.Context(), accountNumber)
	if err != nil {
		status := statusFor(err)
		logError(r, err, logger.Fields{"accountNumber": accountNumber, "status": status})
		response := withRequestID(r, commons.ErrorResponse[[]models.TransactionResponse](
			clientMessage(err, "Unable to fetch transactions right now"),
			errorCode(err),
		))
		writeJSON(w, status, response)
		logResponse(r, status, response, start)
		return
	}

	response := withRequestID(r, commons.SuccessResponse("Transactions retrieved", models.NewTransactionResponses(entries)))
	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, len(entries), start)
}

func (c *TransactionController) listAllTransactions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			response := withRequestID(r, commons.ErrorResponse[[]models.TransactionResponse]("validation failed", "limit must be a positive integer"))
			writeJSON(w, http.StatusBadRequest, response)
			logResponse(r, http.StatusBadRequest, response, start)
			return
		}
		limit = parsed
	}

	entries, err := c.transactionService.ListAllTransactions(r.Context(), limit)
	if err != nil {
		status := statusFor(err)
		logError(r, err, logger.Fields{"limit": limit, "status": status})
		response := withRequestID(r, commons.ErrorResponse[[]models.TransactionResponse](
			clientMessage(err, "Unable to fetch transactions right now"),
			errorCode(err),
		))
		writeJSON(w, status, response)
		logResponse(r, status, response, start)
		return
	}

	response := withRequestID(r, commons.SuccessResponse("Transactions retrieved", models.NewTransactionResponses(entries)))
	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, len(entries), start)
}

func errorCode(err error) string {
	if kind := domain.KindOf(err); kind != "" {
		return string(kind)
	}
	return "INTERNAL_ERROR"
}
