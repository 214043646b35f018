package dashboard

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/support-triage-poc/server/internal/agent/model"
	errx "github.com/support-triage-poc/server/internal/core/error"
	logx "github.com/support-triage-poc/server/pkg/logger"
)

// ErrorResponse is the JSON body returned on failure.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// QueueResponse is the JSON body of GET /api/queue.
type QueueResponse struct {
	Queue   []model.IncidentRecord `json:"queue"`
	Pending []Pending              `json:"pending"`
	Stats   Stats                  `json:"stats"`
}

// TriageResponse is the JSON body of a completed triage run.
type TriageResponse struct {
	Result        *model.FinalState `json:"result"`
	Narrative     string            `json:"narrative"`
	Decision      string            `json:"decision"`
	NeedsApproval bool              `json:"needs_approval"`
	NeedsReview   bool              `json:"needs_review"`
}

type Handler struct {
	session *Session
}

func NewHandler(session *Session) *Handler {
	return &Handler{session: session}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) Signals(c *gin.Context) {
	c.JSON(http.StatusOK, h.session.Signals())
}

func (h *Handler) Queue(c *gin.Context) {
	c.JSON(http.StatusOK, QueueResponse{
		Queue:   h.session.Queue(),
		Pending: h.session.Pending(),
		Stats:   h.session.Stats(),
	})
}

func (h *Handler) Triage(c *gin.Context) {
	id := c.Param("id")
	out, err := h.session.Triage(c.Request.Context(), id)
	if err != nil {
		fail(c, "Failed to triage ticket", id, err)
		return
	}
	c.JSON(http.StatusOK, toTriageResponse(out))
}

func (h *Handler) Approve(c *gin.Context) {
	id := c.Param("id")
	if err := h.session.Approve(c.Request.Context(), id); err != nil {
		fail(c, "Failed to approve ticket", id, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "action": model.AuditActionApproved})
}

func (h *Handler) Reject(c *gin.Context) {
	id := c.Param("id")
	if err := h.session.Reject(c.Request.Context(), id); err != nil {
		fail(c, "Failed to reject ticket", id, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "action": model.AuditActionRejected})
}

func (h *Handler) Audit(c *gin.Context) {
	entries, err := h.session.Audit(c.Request.Context())
	if err != nil {
		fail(c, "Failed to list audit log", "", err)
		return
	}
	if entries == nil {
		entries = []model.AuditEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

// Page renders the dashboard.
func (h *Handler) Page(c *gin.Context) {
	entries, err := h.session.Audit(c.Request.Context())
	if err != nil {
		logx.Warn().Err(err).Msg("dashboard: audit log unavailable")
	}
	var last *TriageResponse
	if id := c.Query("ticket"); id != "" {
		if r, ok := h.session.Result(id); ok {
			resp := toTriageResponse(r)
			last = &resp
		}
	}
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Signals": h.session.Signals(),
		"Queue":   h.session.Queue(),
		"Pending": h.session.Pending(),
		"Stats":   h.session.Stats(),
		"Audit":   entries,
		"Last":    last,
		"Error":   c.Query("error"),
	})
}

// Form actions post back to the page and redirect so a reload does not
// resubmit.
func (h *Handler) triageForm(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.session.Triage(c.Request.Context(), id); err != nil {
		logx.Error().Err(err).Str("ticket_id", id).Msg("dashboard: triage failed")
		redirect(c, "error", err.Error())
		return
	}
	redirect(c, "ticket", id)
}

func (h *Handler) approveForm(c *gin.Context) {
	if err := h.session.Approve(c.Request.Context(), c.Param("id")); err != nil {
		redirect(c, "error", err.Error())
		return
	}
	redirect(c, "", "")
}

func (h *Handler) rejectForm(c *gin.Context) {
	if err := h.session.Reject(c.Request.Context(), c.Param("id")); err != nil {
		redirect(c, "error", err.Error())
		return
	}
	redirect(c, "", "")
}

// RegisterRoutes registers the JSON API under r.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	r.GET("/signals", h.Signals)
	r.GET("/queue", h.Queue)
	r.GET("/audit", h.Audit)
	tickets := r.Group("/tickets")
	{
		tickets.POST(":id/triage", h.Triage)
		tickets.POST(":id/approve", h.Approve)
		tickets.POST(":id/reject", h.Reject)
	}
}

// RegisterPageRoutes registers the HTML page and its form actions under r.
func RegisterPageRoutes(r gin.IRoutes, h *Handler) {
	r.GET("/", h.Page)
	r.POST("/tickets/:id/triage", h.triageForm)
	r.POST("/tickets/:id/approve", h.approveForm)
	r.POST("/tickets/:id/reject", h.rejectForm)
}

func toTriageResponse(out *model.FinalState) TriageResponse {
	return TriageResponse{
		Result:        out,
		Narrative:     out.Narrative(),
		Decision:      out.Decision(),
		NeedsApproval: out.NeedsApproval(),
		NeedsReview:   out.NeedsReview(),
	}
}

func fail(c *gin.Context, msg, ticketID string, err error) {
	status := errx.StatusOf(err)
	ev := logx.Error()
	if status < http.StatusInternalServerError {
		ev = logx.Warn()
	}
	ev.Err(err).Str("ticket_id", ticketID).Int("status", status).Msg(msg)
	c.JSON(status, ErrorResponse{Error: msg, Message: err.Error()})
}

func redirect(c *gin.Context, key, value string) {
	target := "/"
	if key != "" {
		target += "?" + url.Values{key: {value}}.Encode()
	}
	c.Redirect(http.StatusSeeOther, target)
}
