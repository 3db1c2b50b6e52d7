package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library/internal/services"
)

type IssuesController struct {
	issues IssueManager
}

func NewIssuesController(issues IssueManager) *IssuesController {
	return &IssuesController{issues: issues}
}

// IssueBook lends one copy of a book to a student.
// POST /issues
func (ic *IssuesController) IssueBook(c *gin.Context) {
	var in services.IssueCreateInput
	if !bindJSON(c, &in) {
		return
	}

	issue, err := ic.issues.Issue(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, issue)
}

// ReturnBook closes an active loan.
// PUT /issues/:id/return
func (ic *IssuesController) ReturnBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	issue, err := ic.issues.Return(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, issue)
}
