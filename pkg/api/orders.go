package api

import (
	"net/http"

	"bookstore/pkg/order"
	"bookstore/pkg/otel"
)

// listOrdersHandler lists the customer's order history, or every order for employees.
// @Summary List orders
// @Produce json
// @Success 200 {array} order.Details
// @Security ApiKeyAuth
// @Router /orders [get]
func (s *Server) listOrdersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "listOrdersHandler")
	defer span.End()

	orders, err := s.store.Orders(ctx, accountFrom(ctx))
	if err != nil {
		s.writeCommandError(w, r, "list orders", err)
		return
	}
	out := make([]order.Details, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.Details())
	}
	writeJSON(w, http.StatusOK, out)
}

// pendingOrdersHandler lists orders awaiting a decision.
// @Summary Pending orders
// @Produce json
// @Success 200 {array} order.Summary
// @Failure 403 {object} errorResponse
// @Security ApiKeyAuth
// @Router /orders/pending [get]
func (s *Server) pendingOrdersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "pendingOrdersHandler")
	defer span.End()

	pending, err := s.store.PendingOrders(ctx, accountFrom(ctx))
	if err != nil {
		s.writeCommandError(w, r, "pending orders", err)
		return
	}
	writeJSON(w, http.StatusOK, pending)
}

// getOrderHandler retrieves an order by ID.
// @Summary Get order
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} order.Order
// @Failure 404 {object} errorResponse
// @Security ApiKeyAuth
// @Router /orders/{id} [get]
func (s *Server) getOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "getOrderHandler")
	defer span.End()

	o, err := s.store.Order(ctx, accountFrom(ctx), pathVar(r, "id"))
	if err != nil {
		s.writeCommandError(w, r, "get order", err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// approveOrderHandler approves an order.
// @Summary Approve order
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} order.Order
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Security ApiKeyAuth
// @Router /orders/{id}/approve [post]
func (s *Server) approveOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "approveOrderHandler")
	defer span.End()

	o, err := s.store.ApproveOrder(ctx, accountFrom(ctx), pathVar(r, "id"))
	if err != nil {
		s.writeCommandError(w, r, "approve order", err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// cancelOrderHandler rejects an order and restocks its books.
// @Summary Cancel order
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} order.Order
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Security ApiKeyAuth
// @Router /orders/{id}/cancel [post]
func (s *Server) cancelOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "cancelOrderHandler")
	defer span.End()

	o, err := s.store.CancelOrder(ctx, accountFrom(ctx), pathVar(r, "id"))
	if err != nil {
		s.writeCommandError(w, r, "cancel order", err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// salesHandler summarizes the ledger.
// @Summary Sales summary
// @Produce json
// @Success 200 {object} bookstore.Sales
// @Failure 403 {object} errorResponse
// @Security ApiKeyAuth
// @Router /sales [get]
func (s *Server) salesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "salesHandler")
	defer span.End()

	sales, err := s.store.Sales(ctx, accountFrom(ctx))
	if err != nil {
		s.writeCommandError(w, r, "sales", err)
		return
	}
	writeJSON(w, http.StatusOK, sales)
}
