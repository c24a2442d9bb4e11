package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"loyalty-backend/config"
	"loyalty-backend/models"
	"loyalty-backend/services"
	"loyalty-backend/utils"
)

const productCacheTTL = 5 * time.Minute

// CreateProductInput defines the expected JSON structure for creating a product
type CreateProductInput struct {
	SKU         string           `json:"sku" binding:"required"`
	Name        string           `json:"name" binding:"required"`
	Description string           `json:"description"`
	Category    string           `json:"category" binding:"required"`
	Brand       string           `json:"brand"`
	Price       decimal.Decimal  `json:"price" binding:"required"`
	SalePrice   *decimal.Decimal `json:"salePrice"`
	ImageURL    string           `json:"imageUrl" binding:"omitempty,url"`
	Stock       int              `json:"stock" binding:"min=0"`
}

// UpdateProductInput defines the expected JSON structure for updating a product
type UpdateProductInput struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Category    *string          `json:"category"`
	Brand       *string          `json:"brand"`
	Price       *decimal.Decimal `json:"price"`
	SalePrice   *decimal.Decimal `json:"salePrice"`
	ClearSale   bool             `json:"clearSale"`
	ImageURL    *string          `json:"imageUrl" binding:"omitempty,url"`
	Stock       *int             `json:"stock" binding:"omitempty,min=0"`
	IsActive    *bool            `json:"isActive"`
}

type ProductPage struct {
	Items    []models.Product `json:"items"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

type ProductDetail struct {
	models.Product
	InWishlist bool `json:"inWishlist"`
}

var productSorts = map[string]string{
	"price_asc":  "COALESCE(sale_price, price) ASC",
	"price_desc": "COALESCE(sale_price, price) DESC",
	"rating":     "rating DESC, review_count DESC",
	"newest":     "created_at DESC",
	"name":       "name ASC",
}

type ProductController struct {
	Cache services.Cache
}

func (pc *ProductController) invalidate(c *gin.Context) {
	if pc.Cache != nil {
		pc.Cache.DeletePrefix(c.Request.Context(), "products:")
	}
}

func productQuery(c *gin.Context) (*gorm.DB, error) {
	var lo, hi *decimal.Decimal
	if v := c.Query("minPrice"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, errors.New("minPrice must be a number")
		}
		lo = &d
	}
	if v := c.Query("maxPrice"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, errors.New("maxPrice must be a number")
		}
		hi = &d
	}

	q := config.DB.Model(&models.Product{}).Where("is_active = ?", true)

	if v := c.Query("category"); v != "" {
		q = q.Where("category = ?", v)
	}
	if v := c.Query("brand"); v != "" {
		q = q.Where("brand = ?", v)
	}
	if v := strings.TrimSpace(c.Query("search")); v != "" {
		like := "%" + v + "%"
		q = q.Where("name ILIKE ? OR description ILIKE ?", like, like)
	}
	if lo != nil {
		q = q.Where("COALESCE(sale_price, price) >= ?", *lo)
	}
	if hi != nil {
		q = q.Where("COALESCE(sale_price, price) <= ?", *hi)
	}
	if inStock, _ := strconv.ParseBool(c.Query("inStock")); inStock {
		q = q.Where("stock > 0")
	}
	return q, nil
}

// GetProducts lists active products with filters, sorting and pagination
func (pc *ProductController) GetProducts(c *gin.Context) {
	page := utils.ParsePagination(c)

	sortKey := c.DefaultQuery("sort", "name")
	order, ok := productSorts[sortKey]
	if !ok {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid sort: "+sortKey)
		return
	}

	q, err := productQuery(c)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	var result ProductPage
	cacheKey := "products:list:" + c.Request.URL.Query().Encode()
	err = services.CacheJSON(c.Request.Context(), pc.Cache, cacheKey, productCacheTTL, &result, func() (interface{}, error) {
		out := ProductPage{Items: []models.Product{}, Page: page.Page, PageSize: page.PageSize}
		if err := q.Session(&gorm.Session{}).Count(&out.Total).Error; err != nil {
			return nil, err
		}
		if err := q.Session(&gorm.Session{}).Order(order).
			Offset(page.Offset()).Limit(page.PageSize).Find(&out.Items).Error; err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		respondDBError(c, err, "product")
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetCategories returns every category with its active product count
func (pc *ProductController) GetCategories(c *gin.Context) {
	var categories []CategoryCount
	err := services.CacheJSON(c.Request.Context(), pc.Cache, "products:categories", productCacheTTL, &categories, func() (interface{}, error) {
		out := []CategoryCount{}
		err := config.DB.Model(&models.Product{}).
			Select("category, COUNT(*) AS count").
			Where("is_active = ?", true).
			Group("category").Order("category").
			Scan(&out).Error
		return out, err
	})
	if err != nil {
		respondDBError(c, err, "category")
		return
	}

	c.JSON(http.StatusOK, categories)
}

// GetProduct returns one product and whether the caller saved it
func (pc *ProductController) GetProduct(c *gin.Context) {
	customerID, ok := currentCustomer(c)
	if !ok {
		return
	}
	productID, ok := parseIDParam(c, "id", "product")
	if !ok {
		return
	}

	var product models.Product
	err := services.CacheJSON(c.Request.Context(), pc.Cache, "products:item:"+productID.String(), productCacheTTL, &product, func() (interface{}, error) {
		var p models.Product
		err := config.DB.Where("id = ? AND is_active = ?", productID, true).First(&p).Error
		return p, err
	})
	if err != nil {
		respondDBError(c, err, "product")
		return
	}

	var saved int64
	if err := config.DB.Model(&models.WishlistItem{}).
		Where("customer_id = ? AND product_id = ?", customerID, productID).
		Count(&saved).Error; err != nil {
		respondDBError(c, err, "wishlist")
		return
	}

	c.JSON(http.StatusOK, ProductDetail{Product: product, InWishlist: saved > 0})
}

// CreateProduct adds a product to the catalog
func (pc *ProductController) CreateProduct(c *gin.Context) {
	var input CreateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if !input.Price.IsPositive() {
		utils.RespondWithError(c, http.StatusBadRequest, "Price must be positive")
		return
	}

	product := models.Product{
		SKU:         input.SKU,
		Name:        input.Name,
		Description: input.Description,
		Category:    input.Category,
		Brand:       input.Brand,
		Price:       input.Price,
		ImageURL:    input.ImageURL,
		Stock:       input.Stock,
		IsActive:    true,
	}
	if input.SalePrice != nil {
		product.SalePrice = decimal.NewNullDecimal(*input.SalePrice)
	}

	if err := config.DB.Create(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.RespondWithError(c, http.StatusConflict, "SKU already exists")
			return
		}
		respondDBError(c, err, "product")
		return
	}
	pc.invalidate(c)

	c.JSON(http.StatusCreated, product)
}

// UpdateProduct updates an existing product
func (pc *ProductController) UpdateProduct(c *gin.Context) {
	productID, ok := parseIDParam(c, "id", "product")
	if !ok {
		return
	}

	var input UpdateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var product models.Product
	if err := config.DB.First(&product, "id = ?", productID).Error; err != nil {
		respondDBError(c, err, "product")
		return
	}

	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.Brand != nil {
		product.Brand = *input.Brand
	}
	if input.Price != nil {
		if !input.Price.IsPositive() {
			utils.RespondWithError(c, http.StatusBadRequest, "Price must be positive")
			return
		}
		product.Price = *input.Price
	}
	if input.SalePrice != nil {
		product.SalePrice = decimal.NewNullDecimal(*input.SalePrice)
	}
	if input.ClearSale {
		product.SalePrice = decimal.NullDecimal{}
	}
	if input.ImageURL != nil {
		product.ImageURL = *input.ImageURL
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := config.DB.Save(&product).Error; err != nil {
		respondDBError(c, err, "product")
		return
	}
	pc.invalidate(c)

	c.JSON(http.StatusOK, product)
}

// DeleteProduct soft deletes a product
func (pc *ProductController) DeleteProduct(c *gin.Context) {
	productID, ok := parseIDParam(c, "id", "product")
	if !ok {
		return
	}

	result := config.DB.Where("id = ?", productID).Delete(&models.Product{})
	if result.Error != nil {
		respondDBError(c, result.Error, "product")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Product not found")
		return
	}
	pc.invalidate(c)

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully", "id": productID})
}

func productExists(id uuid.UUID) (bool, error) {
	var count int64
	err := config.DB.Model(&models.Product{}).Where("id = ? AND is_active = ?", id, true).Count(&count).Error
	return count > 0, err
}
