package api

import (
	"log"
	"net/http"
	"strconv"

	"github.com/shop-admin/internal/middleware"
	"github.com/shop-admin/internal/model"
	"github.com/shop-admin/internal/upload"
)

// GetProducts godoc
// @Summary List products
// @Description List products, optionally filtered by category and search term
// @Tags Products
// @Produce json
// @Param category query string false "Exact category match"
// @Param search query string false "Substring match over name or description"
// @Success 200 {object} map[string][]model.Product
// @Failure 500 {object} map[string]string "Server error"
// @Router /products [get]
func (h *Handler) GetProducts(w http.ResponseWriter, r *http.Request) {
	filter := &model.ProductFilter{
		Category: r.URL.Query().Get("category"),
		Search:   r.URL.Query().Get("search"),
	}

	products, err := h.products.List(r.Context(), filter)
	if err != nil {
		log.Printf("Get products error: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string][]*model.Product{"products": products})
}

// GetCategories godoc
// @Summary List distinct product categories
// @Tags Products
// @Produce json
// @Success 200 {object} map[string][]string
// @Failure 500 {object} map[string]string "Server error"
// @Router /products/categories [get]
func (h *Handler) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.products.Categories(r.Context())
	if err != nil {
		log.Printf("Get categories error: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string][]string{"categories": categories})
}

// GetProduct godoc
// @Summary Get a product by id
// @Tags Products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} map[string]model.Product
// @Failure 404 {object} map[string]string "Not found"
// @Failure 500 {object} map[string]string "Server error"
// @Router /products/{id} [get]
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.FindByID(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("Get product error: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if product == nil {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]*model.Product{"product": product})
}

// CreateProduct godoc
// @Summary Create a product
// @Description Create a product from multipart form fields plus up to 3 image files
// @Tags Products
// @Accept mpfd
// @Produce json
// @Param name formData string true "Product name"
// @Param description formData string true "Product description"
// @Param price formData number true "Non-negative price"
// @Param category formData string true "Category"
// @Param stock_quantity formData integer true "Non-negative stock quantity"
// @Param images formData file false "Image files (max 3, 5MB each)"
// @Success 201 {object} map[string]model.Product
// @Failure 400 {object} map[string]string "Validation or upload error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 500 {object} map[string]string "Server error"
// @Security BearerAuth
// @Router /products [post]
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	images, err := h.uploads.SaveProductImages(r)
	if err != nil {
		if upload.IsIntakeError(err) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("Create product upload error: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		upload.Cleanup(model.ImageList(images).Paths())
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	data, msg := parseProductForm(r)
	if msg != "" {
		upload.Cleanup(model.ImageList(images).Paths())
		respondError(w, http.StatusBadRequest, msg)
		return
	}
	data.CreatedBy = user.ID
	data.Images = images

	product, err := h.products.Create(r.Context(), data)
	if err != nil {
		log.Printf("Create product error: %v", err)
		upload.Cleanup(model.ImageList(images).Paths())
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Product created successfully",
		"product": product,
	})
}

// UpdateProduct godoc
// @Summary Update a product
// @Description Replace a product's fields; newly uploaded images replace the old set
// @Tags Products
// @Accept mpfd
// @Produce json
// @Param id path string true "Product ID"
// @Param name formData string true "Product name"
// @Param description formData string true "Product description"
// @Param price formData number true "Non-negative price"
// @Param category formData string true "Category"
// @Param stock_quantity formData integer true "Non-negative stock quantity"
// @Param images formData file false "Replacement image files (max 3, 5MB each)"
// @Success 200 {object} map[string]model.Product
// @Failure 400 {object} map[string]string "Validation or upload error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Not found"
// @Failure 500 {object} map[string]string "Server error"
// @Security BearerAuth
// @Router /products/{id} [put]
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	newImages, err := h.uploads.SaveProductImages(r)
	if err != nil {
		if upload.IsIntakeError(err) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("Update product upload error: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}
	newPaths := model.ImageList(newImages).Paths()

	data, msg := parseProductForm(r)
	if msg != "" {
		upload.Cleanup(newPaths)
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	existing, err := h.products.FindByID(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("Update product error: %v", err)
		upload.Cleanup(newPaths)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if existing == nil {
		upload.Cleanup(newPaths)
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}

	// Old images survive unless replacements were uploaded.
	data.Images = existing.Images
	if len(newImages) > 0 {
		data.Images = newImages
	}

	product, err := h.products.Update(r.Context(), existing.ID, data)
	if err != nil || product == nil {
		if err != nil {
			log.Printf("Update product error: %v", err)
		}
		upload.Cleanup(newPaths)
		if err == nil {
			respondError(w, http.StatusNotFound, "Product not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	// Only now, with the new state committed, is it safe to drop the old
	// files.
	if len(newImages) > 0 {
		upload.Cleanup(existing.Images.Paths())
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Product updated successfully",
		"product": product,
	})
}

// DeleteProduct godoc
// @Summary Delete a product
// @Description Delete a product and its stored image files
// @Tags Products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} map[string]string
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Not found"
// @Failure 500 {object} map[string]string "Server error"
// @Security BearerAuth
// @Router /products/{id} [delete]
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("Delete product error: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if product == nil {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}

	// Files go only after the row is gone, so a failure here can orphan a
	// file but never leave a row pointing at nothing.
	upload.Cleanup(product.Images.Paths())

	respondJSON(w, http.StatusOK, map[string]string{"message": "Product deleted successfully"})
}

// DeleteProductImage godoc
// @Summary Delete a single product image
// @Description Remove the image at the given index from a product, deleting its file
// @Tags Products
// @Produce json
// @Param id path string true "Product ID"
// @Param imageIndex path int true "Index into the product's image list"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Invalid index"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Not found"
// @Failure 500 {object} map[string]string "Server error"
// @Security BearerAuth
// @Router /products/{id}/images/{imageIndex} [delete]
func (h *Handler) DeleteProductImage(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.FindByID(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("Delete product image error: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if product == nil {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}
	if len(product.Images) == 0 {
		respondError(w, http.StatusNotFound, "No images found for this product")
		return
	}

	index, err := strconv.Atoi(r.PathValue("imageIndex"))
	if err != nil || index < 0 || index >= len(product.Images) {
		respondError(w, http.StatusBadRequest, "Invalid image index")
		return
	}

	target := product.Images[index]
	remaining := make(model.ImageList, 0, len(product.Images)-1)
	remaining = append(remaining, product.Images[:index]...)
	remaining = append(remaining, product.Images[index+1:]...)

	data := &model.ProductData{
		Name:          product.Name,
		Description:   product.Description,
		Price:         product.Price,
		Category:      product.Category,
		StockQuantity: product.StockQuantity,
		Images:        remaining,
	}

	updated, err := h.products.Update(r.Context(), product.ID, data)
	if err != nil || updated == nil {
		if err != nil {
			log.Printf("Delete product image error: %v", err)
		}
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	// Unlink only after the shortened list is durable.
	upload.Cleanup([]string{target.Path})

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":         "Image deleted successfully",
		"remainingImages": len(remaining),
	})
}

// parseProductForm validates the multipart form fields and returns the
// product data, or a client-facing message describing the first failure.
func parseProductForm(r *http.Request) (*model.ProductData, string) {
	name := r.FormValue("name")
	if name == "" {
		return nil, "Product name is required"
	}
	description := r.FormValue("description")
	if description == "" {
		return nil, "Product description is required"
	}
	price, err := strconv.ParseFloat(r.FormValue("price"), 64)
	if err != nil || price < 0 {
		return nil, "Price must be a positive number"
	}
	category := r.FormValue("category")
	if category == "" {
		return nil, "Category is required"
	}
	stock, err := strconv.Atoi(r.FormValue("stock_quantity"))
	if err != nil || stock < 0 {
		return nil, "Stock quantity must be a non-negative integer"
	}

	return &model.ProductData{
		Name:          name,
		Description:   description,
		Price:         price,
		Category:      category,
		StockQuantity: stock,
		Images:        model.ImageList{},
	}, ""
}
