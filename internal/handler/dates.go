package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"pto-tracker/internal/service"
	"pto-tracker/pkg/timestamp"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type notifyRequest struct {
	Start   string `form:"start" json:"start"`
	End     string `form:"end" json:"end"`
	Details string `form:"details" json:"details"`
	Notify  string `form:"notify" json:"notify"`
}

func entryID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return 0, false
	}
	return uint(id), true
}

// notifyForm returns what the new PTO form needs: initial dates from the
// query string and the managers who will be told.
func (h *Handler) notifyForm(c *gin.Context) {
	user := currentUser(c)

	initial := gin.H{}
	for _, key := range []string{"start", "end"} {
		if raw := c.Query(key); raw != "" {
			if t, err := timestamp.ParseDate(raw); err == nil {
				initial[key] = t.Format("2006-01-02")
			}
		}
	}

	managers, err := h.notifications.Managers(user)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"initial":      initial,
		"manager":      managers.Manager,
		"hr_managers":  managers.HRManagers,
		"all_managers": managers.AllManagers,
	})
}

func (h *Handler) notify(c *gin.Context) {
	user := currentUser(c)

	var req notifyRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "", "Invalid request body")
		return
	}

	in := service.DraftInput{Details: req.Details, Notify: req.Notify}
	verr := &service.ValidationError{FieldErrors: map[string]string{}}
	for field, raw := range map[string]string{"start": req.Start, "end": req.End} {
		if raw == "" {
			continue
		}
		t, err := timestamp.ParseInputDate(raw, h.config.DefaultDateFormat)
		if err != nil {
			verr.FieldErrors[field] = "Enter a valid date."
			continue
		}
		if field == "start" {
			in.Start = t
		} else {
			in.End = t
		}
	}
	if verr.HasErrors() {
		h.respondError(c, verr)
		return
	}

	entry, err := h.entries.CreateDraftEntry(user, in)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Entry added, now specify hours",
		"entry":   entry,
		"next":    fmt.Sprintf("/dates/hours/%d", entry.ID),
	})
}

func (h *Handler) hoursForm(c *gin.Context) {
	id, ok := entryID(c)
	if !ok {
		return
	}

	form, err := h.entries.HoursForm(currentUser(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, form)
}

// hours finalizes the entry and sends the notification. Values come as
// form fields or a JSON object keyed by day field name.
func (h *Handler) hours(c *gin.Context) {
	user := currentUser(c)
	id, ok := entryID(c)
	if !ok {
		return
	}

	values, err := hoursValues(c)
	if err != nil {
		badRequest(c, "", "Invalid request body")
		return
	}

	result, err := h.entries.FinalizeHours(user, id, values)
	if err != nil {
		h.respondError(c, err)
		return
	}

	extra := service.SplitNotifyList(result.Entry.NotifyExtra)
	sent, err := h.notifications.Send(result.Entry, extra, result.IsEdit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	query := url.Values{}
	for _, r := range sent.Recipients {
		query.Add("e", r)
	}

	message := "Hours submitted."
	if result.IsEdit {
		message = "Hours updated."
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    message,
		"entry":      result.Entry,
		"is_edit":    result.IsEdit,
		"reversal":   result.Reversal,
		"recipients": sent.Recipients,
		"next":       fmt.Sprintf("/dates/emails-sent/%d?%s", result.Entry.ID, query.Encode()),
	})
}

func hoursValues(c *gin.Context) (map[string]string, error) {
	values := make(map[string]string)

	if c.ContentType() == binding.MIMEJSON {
		var raw map[string]interface{}
		if err := c.ShouldBindJSON(&raw); err != nil {
			return nil, err
		}
		for k, v := range raw {
			switch n := v.(type) {
			case float64:
				values[k] = strconv.FormatFloat(n, 'f', -1, 64)
			case nil:
				values[k] = ""
			default:
				values[k] = fmt.Sprint(n)
			}
		}
		return values, nil
	}

	if err := c.Request.ParseForm(); err != nil {
		return nil, err
	}
	for k := range c.Request.PostForm {
		values[k] = c.Request.PostForm.Get(k)
	}
	return values, nil
}

func (h *Handler) emailsSent(c *gin.Context) {
	id, ok := entryID(c)
	if !ok {
		return
	}

	recipients, err := h.entries.EmailsSent(currentUser(c), id, c.QueryArray("e"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipients": recipients})
}

func (h *Handler) list(c *gin.Context) {
	var filter service.LedgerFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, "", "Invalid filter")
		return
	}

	page, err := h.ledger.Page(filter, h.now())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) listJSON(c *gin.Context) {
	var filter service.LedgerFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, "", "Invalid filter")
		return
	}

	rows, err := h.ledger.Rows(filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	data := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		data = append(data, r.Values())
	}
	c.JSON(http.StatusOK, gin.H{"aaData": data})
}

func (h *Handler) calendarEvents(c *gin.Context) {
	start, err := timestamp.Parse(c.Query("start"))
	if err != nil {
		badRequest(c, "start", err.Error())
		return
	}
	end, err := timestamp.Parse(c.Query("end"))
	if err != nil {
		badRequest(c, "end", err.Error())
		return
	}

	events, err := h.calendar.Events(currentUser(c), start, end)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}
