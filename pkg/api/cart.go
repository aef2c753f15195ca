package api

import (
	"net/http"

	"bookstore/pkg/otel"
)

// cartItemRequest adds one copy when quantity is omitted.
type cartItemRequest struct {
	ISBN     string `json:"isbn"`
	Quantity *int   `json:"quantity,omitempty"`
}

// getCartHandler returns the customer's cart.
// @Summary Get cart
// @Produce json
// @Success 200 {object} bookstore.CartView
// @Failure 403 {object} errorResponse
// @Security ApiKeyAuth
// @Router /cart [get]
func (s *Server) getCartHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "getCartHandler")
	defer span.End()

	v, err := s.store.Cart(ctx, accountFrom(ctx))
	if err != nil {
		s.writeCommandError(w, r, "get cart", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// addCartItemHandler reserves copies of a book in the cart. Adding a book
// already in the cart replaces its quantity.
// @Summary Add to cart
// @Accept json
// @Produce json
// @Param item body cartItemRequest true "Book and quantity"
// @Success 200 {object} bookstore.CartView
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Security ApiKeyAuth
// @Router /cart/items [post]
func (s *Server) addCartItemHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "addCartItemHandler")
	defer span.End()

	var req cartItemRequest
	if err := decode(r, &req); err != nil || req.ISBN == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "isbn is required")
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	v, err := s.store.CartAdd(ctx, accountFrom(ctx), req.ISBN, qty)
	if err != nil {
		s.writeCommandError(w, r, "add to cart", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// removeCartItemHandler drops a book from the cart and releases its stock.
// @Summary Remove from cart
// @Produce json
// @Param isbn path string true "ISBN"
// @Success 200 {object} bookstore.CartView
// @Failure 404 {object} errorResponse
// @Security ApiKeyAuth
// @Router /cart/items/{isbn} [delete]
func (s *Server) removeCartItemHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "removeCartItemHandler")
	defer span.End()

	v, err := s.store.CartRemove(ctx, accountFrom(ctx), pathVar(r, "isbn"))
	if err != nil {
		s.writeCommandError(w, r, "remove from cart", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// clearCartHandler empties the cart and releases all its stock.
// @Summary Clear cart
// @Success 204
// @Security ApiKeyAuth
// @Router /cart [delete]
func (s *Server) clearCartHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "clearCartHandler")
	defer span.End()

	if err := s.store.CartClear(ctx, accountFrom(ctx)); err != nil {
		s.writeCommandError(w, r, "clear cart", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// checkoutHandler turns the cart into a pending order.
// @Summary Checkout
// @Produce json
// @Success 201 {object} order.Order
// @Failure 409 {object} errorResponse
// @Security ApiKeyAuth
// @Router /checkout [post]
func (s *Server) checkoutHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "checkoutHandler")
	defer span.End()

	o, err := s.store.Checkout(ctx, accountFrom(ctx))
	if err != nil {
		s.writeCommandError(w, r, "checkout", err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}
