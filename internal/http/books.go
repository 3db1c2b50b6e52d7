package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library/internal/database/books"
	"github.com/mrlokans/library/internal/services"
)

type BooksController struct {
	books BookManager
}

func NewBooksController(books BookManager) *BooksController {
	return &BooksController{books: books}
}

// CreateBook adds a book to the catalogue.
// POST /books
func (bc *BooksController) CreateBook(c *gin.Context) {
	var in services.BookCreateInput
	if !bindJSON(c, &in) {
		return
	}

	book, err := bc.books.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, book)
}

// ListBooks returns a filtered page of books.
// GET /books?id=&isbn=&title=&author=&category=&available_only=&page=&limit=
func (bc *BooksController) ListBooks(c *gin.Context) {
	page, ok := queryInt(c, "page")
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	id, ok := queryInt(c, "id")
	if !ok {
		return
	}
	if id < 0 {
		respondBadRequest(c, "id must be positive")
		return
	}

	p, err := services.NewPagination(page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	filter := books.Filter{
		ID:            uint(id),
		ISBN:          c.Query("isbn"),
		Title:         c.Query("title"),
		Author:        c.Query("author"),
		Category:      c.Query("category"),
		AvailableOnly: queryBool(c, "available_only"),
	}

	list, err := bc.books.List(c.Request.Context(), filter, p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GET /books/:id
func (bc *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.books.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

// UpdateBook applies a partial update.
// PUT /books/:id
func (bc *BooksController) UpdateBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var in services.BookUpdateInput
	if !bindJSON(c, &in) {
		return
	}

	book, err := bc.books.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

// DELETE /books/:id
func (bc *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := bc.books.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
