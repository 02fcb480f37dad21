package handler

import (
	"net/http"

	"posledger/internal/apierror"
	"posledger/internal/dto"
	"posledger/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ProductsHandler struct{ svc service.ProductService }

func NewProductsHandler(svc service.ProductService) *ProductsHandler {
	return &ProductsHandler{svc: svc}
}

// CreateProduct godoc
// @Summary      Create a product
// @Description  Registers the product and seeds the movement ledger with an "initial" entry when opening stock is given.
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateProductRequest true "Product detail"
// @Success      201  {object} dto.ProductResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/products [post]
func (h *ProductsHandler) CreateProduct(c *gin.Context) {
	var req dto.CreateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	userID, businessID := actor(c)

	resp, err := h.svc.Create(c.Request.Context(), userID, businessID, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// GetProduct godoc
// @Summary      Get one product
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Product UUID"
// @Success      200 {object} dto.ProductResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/products/{id} [get]
func (h *ProductsHandler) GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	_, businessID := actor(c)

	resp, err := h.svc.GetByID(c.Request.Context(), businessID, id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetByBarcode godoc
// @Summary      Look up a product by barcode
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        barcode path string true "Barcode"
// @Success      200 {object} dto.ProductResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/products/barcode/{barcode} [get]
func (h *ProductsHandler) GetByBarcode(c *gin.Context) {
	_, businessID := actor(c)

	resp, err := h.svc.GetByBarcode(c.Request.Context(), businessID, c.Param("barcode"))
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListProducts godoc
// @Summary      List products
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        barcode  query string false "Exact barcode"
// @Param        name     query string false "Name substring"
// @Param        category query string false "Category"
// @Param        active   query string false "false | all (default: active only)"
// @Param        page     query int    false "Page (default 1)"
// @Param        limit    query int    false "Rows per page (default 50)"
// @Success      200 {object} dto.ProductListResponse
// @Router       /v1/products [get]
func (h *ProductsHandler) ListProducts(c *gin.Context) {
	var filter dto.ProductFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	_, businessID := actor(c)

	resp, err := h.svc.List(c.Request.Context(), businessID, filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateProduct godoc
// @Summary      Update product metadata and prices
// @Description  Stock is never writable here; it only moves through the ledger.
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                   true "Product UUID"
// @Param        body body dto.UpdateProductRequest true "Fields to update"
// @Success      200  {object} dto.ProductResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/products/{id} [put]
func (h *ProductsHandler) UpdateProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	var req dto.UpdateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	_, businessID := actor(c)

	resp, err := h.svc.Update(c.Request.Context(), businessID, id, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DeactivateProduct godoc
// @Summary      Deactivate a product
// @Tags         products
// @Security     BearerAuth
// @Param        id path string true "Product UUID"
// @Success      204
// @Failure      404 {object} apierror.APIError
// @Router       /v1/products/{id} [delete]
func (h *ProductsHandler) DeactivateProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	_, businessID := actor(c)

	if err := h.svc.Deactivate(c.Request.Context(), businessID, id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PriceCheck godoc
// @Summary      Price check by barcode
// @Description  Customer-facing lookup served through a short-lived Redis cache.
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        barcode path string true "Barcode"
// @Success      200 {object} dto.PriceCheckResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/price-check/{barcode} [get]
func (h *ProductsHandler) PriceCheck(c *gin.Context) {
	_, businessID := actor(c)

	resp, err := h.svc.PriceCheck(c.Request.Context(), businessID, c.Param("barcode"))
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}
