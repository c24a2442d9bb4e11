package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"loyalty-backend/config"
	"loyalty-backend/models"
	"loyalty-backend/utils"
)

type AddWishlistInput struct {
	ProductID uuid.UUID `json:"productId" binding:"required"`
}

// GetWishlist returns the caller's saved products, newest first
func GetWishlist(c *gin.Context) {
	customerID, ok := currentCustomer(c)
	if !ok {
		return
	}

	items := []models.WishlistItem{}
	if err := config.DB.Preload("Product").
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&items).Error; err != nil {
		respondDBError(c, err, "wishlist")
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// AddToWishlist saves a product; saving it twice returns the existing row
func AddToWishlist(c *gin.Context) {
	customerID, ok := currentCustomer(c)
	if !ok {
		return
	}

	var input AddWishlistInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	exists, err := productExists(input.ProductID)
	if err != nil {
		respondDBError(c, err, "product")
		return
	}
	if !exists {
		utils.RespondWithError(c, http.StatusNotFound, "Product not found")
		return
	}

	var item models.WishlistItem
	err = config.DB.Where("customer_id = ? AND product_id = ?", customerID, input.ProductID).First(&item).Error
	if err == nil {
		c.JSON(http.StatusOK, item)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		respondDBError(c, err, "wishlist")
		return
	}

	item = models.WishlistItem{CustomerID: customerID, ProductID: input.ProductID}
	if err := config.DB.Create(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusOK, item)
			return
		}
		respondDBError(c, err, "wishlist")
		return
	}

	c.JSON(http.StatusCreated, item)
}

// RemoveFromWishlist deletes a saved product
func RemoveFromWishlist(c *gin.Context) {
	customerID, ok := currentCustomer(c)
	if !ok {
		return
	}
	productID, ok := parseIDParam(c, "productId", "product")
	if !ok {
		return
	}

	result := config.DB.Where("customer_id = ? AND product_id = ?", customerID, productID).
		Delete(&models.WishlistItem{})
	if result.Error != nil {
		respondDBError(c, result.Error, "wishlist")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Product not in wishlist")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Removed from wishlist", "productId": productID})
}
