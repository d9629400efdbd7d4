package handler

import (
	"net/http"

	"exchanger/exchange-service/internal/app/exchange/entity"
	"exchanger/exchange-service/internal/app/exchange/service"

	"github.com/gin-gonic/gin"
)

// RatesHandler отдает текущую таблицу курсов
type RatesHandler struct {
	conversionService service.ConversionServiceInterface
}

func NewRatesHandler(conversionService service.ConversionServiceInterface) *RatesHandler {
	return &RatesHandler{conversionService: conversionService}
}

// Latest обрабатывает GET /api/v1/rates
func (h *RatesHandler) Latest(c *gin.Context) {
	table, err := h.conversionService.LatestRates(c.Request.Context())
	if err != nil {
		writeServiceError(c, err, "Failed to load rates")
		return
	}

	c.JSON(http.StatusOK, entity.RatesResponse{
		Base:  h.conversionService.BaseCurrency(),
		Rates: table.Rates(),
	})
}
