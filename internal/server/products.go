package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/AuroraCommerceLab/boutique/backend/internal/catalog"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type productPayload struct {
	Name        string  `json:"name" binding:"required"`
	Price       float64 `json:"price" binding:"required"`
	Rating      int     `json:"rating" binding:"required"`
	Category    string  `json:"category" binding:"required"`
	AgeRange    string  `json:"ageRange" binding:"required"`
	Description string  `json:"description" binding:"required"`
	Material    string  `json:"material" binding:"required"`
	InStock     *bool   `json:"inStock" binding:"required"`
	Image       string  `json:"image" binding:"required"`
}

type productPatchPayload struct {
	Name        *string  `json:"name"`
	Price       *float64 `json:"price"`
	Rating      *int     `json:"rating"`
	Category    *string  `json:"category"`
	AgeRange    *string  `json:"ageRange"`
	Description *string  `json:"description"`
	Material    *string  `json:"material"`
	InStock     *bool    `json:"inStock"`
	Image       *string  `json:"image"`
}

func (h *httpHandler) handleCreateProduct(c *gin.Context) {
	var request productPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	product, err := h.catalog.Create(c.Request.Context(), catalog.ProductInput{
		Name:        request.Name,
		Price:       request.Price,
		Rating:      request.Rating,
		Category:    request.Category,
		AgeRange:    request.AgeRange,
		Description: request.Description,
		Material:    request.Material,
		InStock:     *request.InStock,
		Image:       request.Image,
	})
	if err != nil {
		h.logger.Error("failed to create product", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create_failed"})
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *httpHandler) handleListProducts(c *gin.Context) {
	offset := parseIntQuery(c, "skip", 0)
	limit := parseIntQuery(c, "limit", 100)

	products, err := h.catalog.List(c.Request.Context(), offset, limit)
	if err != nil {
		h.logger.Error("failed to list products", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_failed"})
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *httpHandler) handleGetProduct(c *gin.Context) {
	product, err := h.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		h.logger.Error("failed to load product", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get_failed"})
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *httpHandler) handleUpdateProduct(c *gin.Context) {
	var request productPatchPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	product, err := h.catalog.Update(c.Request.Context(), c.Param("id"), catalog.ProductPatch{
		Name:        request.Name,
		Price:       request.Price,
		Rating:      request.Rating,
		Category:    request.Category,
		AgeRange:    request.AgeRange,
		Description: request.Description,
		Material:    request.Material,
		InStock:     request.InStock,
		Image:       request.Image,
	})
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		h.logger.Error("failed to update product", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update_failed"})
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *httpHandler) handleDeleteProduct(c *gin.Context) {
	err := h.catalog.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		h.logger.Error("failed to delete product", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

func parseIntQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
