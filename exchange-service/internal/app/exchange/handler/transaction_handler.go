package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"exchanger/exchange-service/internal/app/exchange/entity"
	"exchanger/exchange-service/internal/app/exchange/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// TransactionHandler обрабатывает HTTP запросы для транзакций конвертации
type TransactionHandler struct {
	transactionService service.TransactionServiceInterface
	validator          *validator.Validate
}

func NewTransactionHandler(transactionService service.TransactionServiceInterface) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		validator:          validator.New(),
	}
}

// Create обрабатывает POST /api/v1/transactions
// Конвертирует сумму по текущему курсу и сохраняет транзакцию текущего пользователя
func (h *TransactionHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	var req entity.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var syntaxErr *json.SyntaxError
		switch {
		case errors.Is(err, io.EOF):
			// пустое тело - то же, что отсутствующий transaction
		case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		default:
			c.JSON(http.StatusUnprocessableEntity, entity.ErrorsResponse{Errors: []string{"Transaction parameters are invalid"}})
			return
		}
	}

	if req.Transaction == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "param is missing or the value is empty: transaction"})
		return
	}

	if err := h.validator.Struct(req.Transaction); err != nil {
		c.JSON(http.StatusUnprocessableEntity, entity.ErrorsResponse{Errors: formatValidationErrors(err)})
		return
	}

	tx, err := h.transactionService.Create(c.Request.Context(), userID, req.Transaction.ToConversionRequest())
	if err != nil {
		writeServiceError(c, err, "Failed to create transaction")
		return
	}

	c.JSON(http.StatusCreated, entity.NewTransactionResponse(tx))
}

// List обрабатывает GET /api/v1/transactions[?user_id=<uuid>]
// Без user_id возвращает транзакции текущего пользователя
func (h *TransactionHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	if raw := c.Query("user_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		userID = parsed
	}

	txs, err := h.transactionService.ListForUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		l := requestLogger(c)
		l.Error().Err(err).Str("target_user_id", userID.String()).Msg("failed to list transactions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list transactions"})
		return
	}

	c.JSON(http.StatusOK, entity.NewTransactionListResponse(txs))
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, false
	}
	userID, ok := value.(uuid.UUID)
	return userID, ok
}

var fieldLabels = map[string]string{
	"FromCurrency": "From currency",
	"ToCurrency":   "To currency",
	"FromValue":    "From value",
}

// formatValidationErrors переводит ошибки validator в сообщения вида "From currency is invalid"
func formatValidationErrors(err error) []string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []string{"Validation failed"}
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		label, ok := fieldLabels[fieldError.Field()]
		if !ok {
			label = fieldError.Field()
		}
		if fieldError.Tag() == "required" {
			messages = append(messages, label+" can't be blank")
		} else {
			messages = append(messages, label+" is invalid")
		}
	}
	return messages
}
