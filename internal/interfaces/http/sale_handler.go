package http

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pdv-cierre/internal/application/dto"
	"github.com/jhoicas/pdv-cierre/internal/application/sale"
	"github.com/jhoicas/pdv-cierre/internal/domain"
	"github.com/jhoicas/pdv-cierre/internal/domain/entity"
	"github.com/jhoicas/pdv-cierre/pkg/logger"
)

// SaleHandler consulta y cierre de ventas.
type SaleHandler struct {
	svc *sale.Service
	log *logger.Logger
}

// NewSaleHandler construye el handler de ventas.
func NewSaleHandler(svc *sale.Service, log *logger.Logger) *SaleHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &SaleHandler{svc: svc, log: log}
}

// GetByID godoc
// @Summary      Consultar venta
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  int  true  "ID de la venta"
// @Success      200  {object}  dto.SaleResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [get]
func (h *SaleHandler) GetByID(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_ID", Message: "id de venta inválido"})
	}
	v, err := h.svc.Get(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toSaleResponse(v))
}

// Close godoc
// @Summary      Cerrar venta en el ECF
// @Description  Subtotaliza, registra los pagos y cierra el cupón; luego lee el GT y persiste la venta.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  int                   true  "ID de la venta"
// @Param        body  body  dto.CloseSaleRequest  true  "pagos y ajuste"
// @Success      200   {object}  dto.CloseSaleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/close [post]
func (h *SaleHandler) Close(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_ID", Message: "id de venta inválido"})
	}
	var req dto.CloseSaleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if req.RetryAttempts < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "retry_attempts no puede ser negativo"})
	}

	in := sale.CloseSaleInput{
		Payments:   make([]entity.Payment, 0, len(req.Payments)),
		Gross:      req.Gross,
		Adjustment: req.Adjustment,
		Change:     req.Change,
		Confirmer:  sale.NewPolicyConfirmer(req.RetryAttempts),
	}
	for _, p := range req.Payments {
		in.Payments = append(in.Payments, entity.Payment{TenderCode: p.TenderCode, Amount: p.Amount})
	}

	res, err := h.svc.Close(c.UserContext(), id, GetUserID(c), in)
	if res != nil && errors.Is(err, domain.ErrGrandTotalSync) {
		// cupón cerrado y venta guardada: se informa como advertencia
		h.log.Warn().Err(err).Int64("sale_id", id).Msg("http: venta cerrada sin GT sincronizado")
		out := toCloseResponse(res)
		out.Warning = err.Error()
		return c.JSON(out)
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toCloseResponse(res))
}

// writeError traduce errores de dominio a status HTTP.
func writeError(c *fiber.Ctx, err error) error {
	var ce *domain.ClosingError
	step := ""
	if errors.As(err, &ce) {
		step = ce.Step
	}
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "venta no encontrada"})
	case errors.Is(err, domain.ErrUserNotFound):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "operador no encontrado"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "operador inactivo"})
	case errors.Is(err, domain.ErrSaleAlreadyClosed):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "SALE_CLOSED", Message: err.Error()})
	case errors.Is(err, domain.ErrPersistence):
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "PERSISTENCE_FAILED", Message: err.Error(), Step: domain.StepPersistence})
	case errors.Is(err, domain.ErrClosingFailed):
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "CLOSING_FAILED", Message: err.Error(), Step: closingStep(err)})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error(), Step: step})
}

// closingStep paso del ECF que provocó el rechazo, si la causa es un DeviceError.
func closingStep(err error) string {
	for err != nil {
		var ce *domain.ClosingError
		if !errors.As(err, &ce) {
			return ""
		}
		if ce.Kind == domain.KindDevice {
			return ce.Step
		}
		err = ce.Err
	}
	return ""
}

func toCloseResponse(r *sale.CloseSaleResult) dto.CloseSaleResponse {
	out := dto.CloseSaleResponse{
		ClosingID:  r.ClosingID,
		SaleID:     r.SaleID,
		Gross:      r.Gross,
		Adjustment: r.Adjustment,
		Net:        r.Net,
		Tenders:    make([]dto.TenderResponse, 0, len(r.Tenders)),
		GrandTotal: r.GrandTotal,
		Attempts:   r.Attempts,
		States:     make([]string, 0, len(r.States)),
		ClosedAt:   r.ClosedAt,
	}
	for _, t := range r.Tenders {
		out.Tenders = append(out.Tenders, dto.TenderResponse{Code: t.Code, Amount: t.Amount})
	}
	for _, s := range r.States {
		out.States = append(out.States, string(s))
	}
	return out
}

func toSaleResponse(v *entity.Sale) dto.SaleResponse {
	out := dto.SaleResponse{
		ID:         v.ID,
		COO:        v.COO,
		Date:       v.Date,
		Gross:      v.Gross,
		Adjustment: v.Adjustment,
		Net:        v.Net,
		Closed:     v.Closed,
		Operator:   v.Operator.Login,
		Items:      make([]dto.SaleItemResponse, 0, len(v.Items)),
	}
	if v.Seller != nil {
		out.Seller = v.Seller.Login
	}
	if v.Customer != nil {
		out.Customer = v.Customer.Name
	}
	for _, it := range v.Items {
		out.Items = append(out.Items, dto.SaleItemResponse{
			ID:         it.ID,
			ProductID:  it.Product.ID,
			Product:    it.Product.Name,
			Packaging:  it.Packaging.Name,
			Quantity:   it.Quantity,
			Cancelled:  it.Cancelled,
			GrossUnit:  it.GrossUnit,
			Adjustment: it.Adjustment,
			NetUnit:    it.NetUnit,
			Total:      it.Total,
		})
	}
	return out
}
