package ginserver

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	gin "github.com/gin-gonic/gin"

	catalogapp "roamly/internal/app/handlers/catalog"
	"roamly/internal/app/queries"
	domaincatalog "roamly/internal/domain/catalog"
)

type CatalogHandler struct {
	Queries queries.Bus
}

func (h CatalogHandler) Get(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	q := catalogapp.GetItemQuery{
		ItemID:  c.Param("id"),
		Variant: c.Query("variant"),
	}
	result, err := queries.Ask[catalogapp.GetItemQuery, *catalogapp.ItemSnapshot](c.Request.Context(), h.Queries, q)
	if err != nil {
		writeCatalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h CatalogHandler) Quote(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	quantity := 0
	if raw := c.Query("quantity"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quantity"})
			return
		}
		quantity = parsed
	}
	checkIn, err := parseTimeParam(c.Query("check_in"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid check_in"})
		return
	}
	checkOut, err := parseTimeParam(c.Query("check_out"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid check_out"})
		return
	}
	date, err := parseTimeParam(c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
		return
	}
	q := catalogapp.GetQuoteQuery{
		ItemID:   c.Param("id"),
		Variant:  c.Query("variant"),
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Date:     date,
		Quantity: quantity,
	}
	result, err := queries.Ask[catalogapp.GetQuoteQuery, *catalogapp.QuoteResult](c.Request.Context(), h.Queries, q)
	if err != nil {
		writeCatalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func writeCatalogError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domaincatalog.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
	case errors.Is(err, domaincatalog.ErrUnknownVariant):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseTimeParam(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

var _ CatalogHTTP = CatalogHandler{}
