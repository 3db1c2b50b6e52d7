package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library/internal/database/students"
	"github.com/mrlokans/library/internal/services"
)

type StudentsController struct {
	students StudentManager
	issues   IssueManager
}

func NewStudentsController(students StudentManager, issues IssueManager) *StudentsController {
	return &StudentsController{students: students, issues: issues}
}

// POST /students
func (sc *StudentsController) CreateStudent(c *gin.Context) {
	var in services.StudentCreateInput
	if !bindJSON(c, &in) {
		return
	}

	student, err := sc.students.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, student)
}

// ListStudents returns a filtered page of students.
// GET /students?department=&semester=&name=&roll_number=&phone=&page=&limit=
func (sc *StudentsController) ListStudents(c *gin.Context) {
	page, ok := queryInt(c, "page")
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	semester, ok := queryInt(c, "semester")
	if !ok {
		return
	}

	p, err := services.NewPagination(page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	filter := students.Filter{
		Department: c.Query("department"),
		Semester:   semester,
		Name:       c.Query("name"),
		RollNumber: c.Query("roll_number"),
		Phone:      c.Query("phone"),
	}

	list, err := sc.students.List(c.Request.Context(), filter, p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GET /students/:id
func (sc *StudentsController) GetStudent(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	student, err := sc.students.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, student)
}

// PUT /students/:id
func (sc *StudentsController) UpdateStudent(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var in services.StudentUpdateInput
	if !bindJSON(c, &in) {
		return
	}

	student, err := sc.students.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, student)
}

// DELETE /students/:id
func (sc *StudentsController) DeleteStudent(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := sc.students.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// IssuedBooks lists a student's active loans. The path segment may be the
// numeric id, roll number, email or phone.
// GET /students/:id/issued-books
func (sc *StudentsController) IssuedBooks(c *gin.Context) {
	loans, err := sc.issues.ActiveForStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loans)
}
