package api

import (
	"errors"
	"net/http"

	"orderhub/internal/domain/order"
	reqdto "orderhub/internal/handler/dto/request"
	resdto "orderhub/internal/handler/dto/response"
	"orderhub/internal/handler/httperr"
	"orderhub/internal/infra"
	"orderhub/internal/usecase/commands"
	"orderhub/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OrderHandler struct {
	commands commands.OrderCommands
	queries  queries.OrderQueries
}

func NewOrderHandler(cmds commands.OrderCommands, qrys queries.OrderQueries) *OrderHandler {
	return &OrderHandler{
		commands: cmds,
		queries:  qrys,
	}
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req reqdto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}

	o, err := h.commands.CreateOrder(c.Request.Context(), req.ToCommand())
	if err != nil {
		h.respondCommandError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resdto.FromOrder(o))
}

func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid order id", nil)
		return
	}

	var req reqdto.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}

	o, err := h.commands.UpdateOrder(c.Request.Context(), orderID, req.ToPatch())
	if err != nil {
		h.respondCommandError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromOrder(o))
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid order id", nil)
		return
	}

	view, err := h.queries.GetByID(c.Request.Context(), orderID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			httperr.AbortWithError(c, http.StatusNotFound, err, "Order not found", nil)
			return
		}
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	var q struct {
		Page     int `form:"page"`
		PageSize int `form:"page_size"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid query parameters", nil)
		return
	}

	page, err := h.queries.List(c.Request.Context(), q.Page, q.PageSize)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *OrderHandler) SearchOrders(c *gin.Context) {
	var req reqdto.SearchOrdersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}

	page, err := h.queries.Search(c.Request.Context(), req.ToFilter(), req.Page, req.PageSize)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *OrderHandler) BulkUpdateStatus(c *gin.Context) {
	var req reqdto.BulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}

	target, ok := order.ParseStatus(req.Status)
	if !ok {
		httperr.AbortWithError(c, http.StatusBadRequest, commands.ErrDomainValidation, "Unknown order status", nil)
		return
	}

	updated, err := h.commands.BulkUpdateStatus(c.Request.Context(), req.OrderIDs, target)
	if err != nil {
		h.respondCommandError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromOrders(updated))
}

func (h *OrderHandler) BulkDelete(c *gin.Context) {
	var req reqdto.BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}

	if err := h.commands.BulkDelete(c.Request.Context(), req.OrderIDs); err != nil {
		h.respondCommandError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.BulkDeleteResponse{Deleted: len(req.OrderIDs)})
}

func (h *OrderHandler) GenerateInvoices(c *gin.Context) {
	var req reqdto.InvoiceBundleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}

	url, err := h.commands.GenerateInvoiceBundle(c.Request.Context(), req.OrderIDs)
	if err != nil {
		h.respondCommandError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.InvoiceBundleResponse{URL: url})
}

func (h *OrderHandler) respondCommandError(c *gin.Context, err error) {
	var (
		stockErr      *commands.InsufficientStockError
		voucherErr    *commands.VoucherInvalidError
		missErr       *commands.BulkPartialMissError
		transitionErr *commands.InvalidTransitionError
	)

	switch {
	case errors.As(err, &stockErr):
		httperr.AbortWithError(c, http.StatusConflict, err, "Insufficient stock", stockErr.Shortages)
	case errors.As(err, &voucherErr):
		httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Voucher rejected", gin.H{
			"code":   voucherErr.Code,
			"reason": voucherErr.Reason,
		})
	case errors.As(err, &missErr):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Unknown order ids", missErr.Missing)
	case errors.As(err, &transitionErr):
		httperr.AbortWithError(c, http.StatusConflict, err, "Invalid status transition", gin.H{
			"order_id": transitionErr.OrderID,
			"from":     transitionErr.From,
			"to":       transitionErr.To,
		})
	case errors.Is(err, commands.ErrCustomerNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Customer not found", nil)
	case errors.Is(err, commands.ErrOrderNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Order not found", nil)
	case errors.Is(err, commands.ErrProductNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Product not found", nil)
	case errors.Is(err, commands.ErrVoucherNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Voucher not found", nil)
	case errors.Is(err, commands.ErrDomainValidation):
		httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Domain validation failed", nil)
	case errors.Is(err, commands.ErrInvoiceGeneration):
		httperr.AbortWithError(c, http.StatusBadGateway, err, "Invoice generation failed", nil)
	default:
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
	}
}
