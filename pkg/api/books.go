package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"bookstore/pkg/catalog"
	"bookstore/pkg/otel"
)

func pathVar(r *http.Request, name string) string {
	return mux.Vars(r)[name]
}

type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

type priceRequest struct {
	Price *decimal.Decimal `json:"price"`
}

// searchBooksHandler searches the catalog. Without a field it lists every book.
// @Summary Search books
// @Produce json
// @Param field query string false "isbn, title, author or genre"
// @Param value query string false "Exact value to match"
// @Success 200 {array} catalog.Book
// @Security ApiKeyAuth
// @Router /books [get]
func (s *Server) searchBooksHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "searchBooksHandler")
	defer span.End()

	q := r.URL.Query()
	field := q.Get("field")
	if field == "" {
		writeJSON(w, http.StatusOK, s.store.Books(ctx))
		return
	}
	writeJSON(w, http.StatusOK, s.store.Search(ctx, field, q.Get("value")))
}

// getBookHandler looks up a book by ISBN.
// @Summary Get book
// @Produce json
// @Param isbn path string true "ISBN"
// @Success 200 {object} catalog.Book
// @Failure 404 {object} errorResponse
// @Security ApiKeyAuth
// @Router /books/{isbn} [get]
func (s *Server) getBookHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "getBookHandler")
	defer span.End()

	b, err := s.store.Book(ctx, pathVar(r, "isbn"))
	if err != nil {
		s.writeCommandError(w, r, "get book", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// addBookHandler registers a new book.
// @Summary Add book
// @Accept json
// @Produce json
// @Param book body catalog.Book true "Book"
// @Success 201 {object} catalog.Book
// @Failure 400 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Security ApiKeyAuth
// @Router /books [post]
func (s *Server) addBookHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "addBookHandler")
	defer span.End()

	var b catalog.Book
	if err := decode(r, &b); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, err.Error())
		return
	}
	if err := s.store.AddBook(ctx, accountFrom(ctx), b); err != nil {
		s.writeCommandError(w, r, "add book", err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// updateQuantityHandler sets a book's stock.
// @Summary Update quantity
// @Accept json
// @Produce json
// @Param isbn path string true "ISBN"
// @Param body body quantityRequest true "New quantity"
// @Success 200 {object} catalog.Book
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Security ApiKeyAuth
// @Router /books/{isbn}/quantity [put]
func (s *Server) updateQuantityHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "updateQuantityHandler")
	defer span.End()

	var req quantityRequest
	if err := decode(r, &req); err != nil || req.Quantity == nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "quantity is required")
		return
	}
	isbn := pathVar(r, "isbn")
	if err := s.store.UpdateQuantity(ctx, accountFrom(ctx), isbn, *req.Quantity); err != nil {
		s.writeCommandError(w, r, "update quantity", err)
		return
	}
	s.writeBook(w, r, isbn)
}

// updatePriceHandler sets a book's price.
// @Summary Update price
// @Accept json
// @Produce json
// @Param isbn path string true "ISBN"
// @Param body body priceRequest true "New price"
// @Success 200 {object} catalog.Book
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Security ApiKeyAuth
// @Router /books/{isbn}/price [put]
func (s *Server) updatePriceHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "updatePriceHandler")
	defer span.End()

	var req priceRequest
	if err := decode(r, &req); err != nil || req.Price == nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "price is required")
		return
	}
	isbn := pathVar(r, "isbn")
	if err := s.store.UpdatePrice(ctx, accountFrom(ctx), isbn, *req.Price); err != nil {
		s.writeCommandError(w, r, "update price", err)
		return
	}
	s.writeBook(w, r, isbn)
}

func (s *Server) writeBook(w http.ResponseWriter, r *http.Request, isbn string) {
	b, err := s.store.Book(r.Context(), isbn)
	if err != nil {
		s.writeCommandError(w, r, "get book", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}
