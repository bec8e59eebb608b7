package handler

import (
	"net/http"

	"pto-tracker/pkg/timestamp"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type loginRequest struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "", "Username and password are required")
		return
	}

	token, user, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

func (h *Handler) dashboard(c *gin.Context) {
	user := currentUser(c)

	dashboard, err := h.calendar.Dashboard(user, h.now())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":      user,
		"first_day": dashboard.FirstDay,
		"on_pto":    dashboard.OnPTO,
	})
}

// calculatePTO projects the balance on a trip's start date.
// Query: start_date (epoch), per_quarter and hours_avail (decimals).
func (h *Handler) calculatePTO(c *gin.Context) {
	tripStart, err := timestamp.Parse(c.Query("start_date"))
	if err != nil {
		badRequest(c, "start_date", err.Error())
		return
	}
	perQuarter, err := decimal.NewFromString(c.Query("per_quarter"))
	if err != nil {
		badRequest(c, "per_quarter", "Enter a number.")
		return
	}
	available, err := decimal.NewFromString(c.Query("hours_avail"))
	if err != nil {
		badRequest(c, "hours_avail", "Enter a number.")
		return
	}

	result := h.accrual.Calculate(h.now(), tripStart, perQuarter, available)
	c.JSON(http.StatusOK, gin.H{
		"hours_available_on_start": result.HoursAvailable.StringFixed(2),
		"days_available_on_start":  result.DaysAvailable.StringFixed(2),
	})
}
