package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	meapp "roamly/internal/app/handlers/me"
	"roamly/internal/app/queries"
)

type MeHandler struct {
	Queries queries.Bus
}

func (h MeHandler) ListReservations(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	q := meapp.ListReservationsQuery{CallerID: user.ID}
	result, err := queries.Ask[meapp.ListReservationsQuery, *meapp.ListReservationsResult](c.Request.Context(), h.Queries, q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ MeHTTP = MeHandler{}
