package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shop-admin/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDBDown = errors.New("connection refused")

func authed(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestListProducts(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "a", 0)
	p2 := env.seedProduct(t, "b", 0)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/products", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string][]*model.Product
	decodeBody(t, rec, &resp)
	require.Len(t, resp["products"], 2)
	// Newest first.
	assert.Equal(t, p2.ID, resp["products"][0].ID)
}

func TestListProductsCategoryFilter(t *testing.T) {
	env := newTestEnv(t)
	p1 := env.seedProduct(t, "a", 0)
	env.seedProduct(t, "b", 0)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/products?category=a", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string][]*model.Product
	decodeBody(t, rec, &resp)
	require.Len(t, resp["products"], 1)
	assert.Equal(t, p1.ID, resp["products"][0].ID)

	require.NotNil(t, env.products.lastFilter)
	assert.Equal(t, "a", env.products.lastFilter.Category)
}

func TestListProductsSearchFilter(t *testing.T) {
	env := newTestEnv(t)
	target := env.seedProduct(t, "a", 0)
	target.Name = "Ultrawide Monitor"
	other := env.seedProduct(t, "a", 0)
	other.Name = "Desk lamp"

	rec := env.do(httptest.NewRequest(http.MethodGet, "/products?search=monitor", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string][]*model.Product
	decodeBody(t, rec, &resp)
	require.Len(t, resp["products"], 1)
	assert.Equal(t, target.ID, resp["products"][0].ID)
}

func TestGetCategories(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "b", 0)
	env.seedProduct(t, "a", 0)
	env.seedProduct(t, "a", 0)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/products/categories", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string][]string
	decodeBody(t, rec, &resp)
	// Each category once, ascending.
	assert.Equal(t, []string{"a", "b"}, resp["categories"])
}

func TestGetProductNotFound(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/products/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateProduct(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	req := multipartRequest(t, http.MethodPost, "/products", validProductFields(),
		[]formFile{png("front.png"), png("back.png")})
	rec := env.do(authed(req, token))

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Message string         `json:"message"`
		Product *model.Product `json:"product"`
	}
	decodeBody(t, rec, &resp)
	require.NotNil(t, resp.Product)
	assert.Equal(t, "Mechanical keyboard", resp.Product.Name)
	assert.Equal(t, 129.50, resp.Product.Price)
	assert.Equal(t, 12, resp.Product.StockQuantity)
	assert.Equal(t, "admin-1", resp.Product.CreatedBy)
	require.Len(t, resp.Product.Images, 2)
	assert.Equal(t, "front.png", resp.Product.Images[0].OriginalName)

	// Both files really exist under the uploads directory.
	assert.Len(t, env.storedFiles(t), 2)
}

func TestCreateProductRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(t, env.users.add("user-1", model.UserRoleUser))

	req := multipartRequest(t, http.MethodPost, "/products", validProductFields(), nil)
	rec := env.do(authed(req, token))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, env.products.products)
}

func TestCreateProductTooManyFiles(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	files := make([]formFile, 4)
	for i := range files {
		files[i] = png(fmt.Sprintf("img-%d.png", i))
	}
	req := multipartRequest(t, http.MethodPost, "/products", validProductFields(), files)
	rec := env.do(authed(req, token))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Too many files")
	assert.Empty(t, env.storedFiles(t), "rejected request leaves zero files")
	assert.Empty(t, env.products.products)
}

func TestCreateProductValidationCleansUpFiles(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	fields := validProductFields()
	delete(fields, "name")
	req := multipartRequest(t, http.MethodPost, "/products", fields, []formFile{png("img.png")})
	rec := env.do(authed(req, token))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Product name is required")
	assert.Empty(t, env.storedFiles(t), "accepted files must be deleted on validation failure")
}

func TestCreateProductDBFailureCleansUpFiles(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)
	env.products.createErr = errDBDown

	req := multipartRequest(t, http.MethodPost, "/products", validProductFields(), []formFile{png("img.png")})
	rec := env.do(authed(req, token))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, env.storedFiles(t), "accepted files must be deleted when the insert fails")
}

func TestUpdateProductReplacesImages(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)
	product := env.seedProduct(t, "a", 2)
	oldPaths := product.Images.Paths()

	req := multipartRequest(t, http.MethodPut, "/products/"+product.ID, validProductFields(),
		[]formFile{png("new.png")})
	rec := env.do(authed(req, token))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Product *model.Product `json:"product"`
	}
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Product.Images, 1)
	assert.Equal(t, "new.png", resp.Product.Images[0].OriginalName)

	// Old files are gone, the new one exists.
	for _, path := range oldPaths {
		assert.NoFileExists(t, path)
	}
	assert.FileExists(t, resp.Product.Images[0].Path)
}

func TestUpdateProductWithoutNewImagesKeepsOld(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)
	product := env.seedProduct(t, "a", 2)
	oldImages := product.Images

	req := multipartRequest(t, http.MethodPut, "/products/"+product.ID, validProductFields(), nil)
	rec := env.do(authed(req, token))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Product *model.Product `json:"product"`
	}
	decodeBody(t, rec, &resp)
	assert.Equal(t, oldImages, resp.Product.Images)
	for _, path := range oldImages.Paths() {
		assert.FileExists(t, path)
	}
}

func TestUpdateProductDBFailure(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)
	product := env.seedProduct(t, "a", 2)
	env.products.updateErr = errDBDown

	req := multipartRequest(t, http.MethodPut, "/products/"+product.ID, validProductFields(),
		[]formFile{png("new.png")})
	rec := env.do(authed(req, token))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	// Old files untouched, new files cleaned up.
	for _, path := range product.Images.Paths() {
		assert.FileExists(t, path)
	}
	assert.Len(t, env.storedFiles(t), 2, "only the seeded files remain")
}

func TestUpdateProductNotFoundCleansUpFiles(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	req := multipartRequest(t, http.MethodPut, "/products/nope", validProductFields(),
		[]formFile{png("new.png")})
	rec := env.do(authed(req, token))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, env.storedFiles(t))
}

func TestDeleteProduct(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)
	product := env.seedProduct(t, "a", 2)

	req := httptest.NewRequest(http.MethodDelete, "/products/"+product.ID, nil)
	rec := env.do(authed(req, token))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Product deleted successfully")
	assert.Empty(t, env.products.products)
	for _, path := range product.Images.Paths() {
		assert.NoFileExists(t, path)
	}
}

func TestDeleteProductDBFailureKeepsFiles(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)
	product := env.seedProduct(t, "a", 1)
	env.products.deleteErr = errDBDown

	req := httptest.NewRequest(http.MethodDelete, "/products/"+product.ID, nil)
	rec := env.do(authed(req, token))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	// Files survive a failed delete; the row still references them.
	for _, path := range product.Images.Paths() {
		assert.FileExists(t, path)
	}
}

func TestDeleteProductNotFound(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	req := httptest.NewRequest(http.MethodDelete, "/products/nope", nil)
	rec := env.do(authed(req, token))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteProductImage(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)
	product := env.seedProduct(t, "a", 3)
	first, second, third := product.Images[0], product.Images[1], product.Images[2]

	req := httptest.NewRequest(http.MethodDelete, "/products/"+product.ID+"/images/1", nil)
	rec := env.do(authed(req, token))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Message         string `json:"message"`
		RemainingImages int    `json:"remainingImages"`
	}
	decodeBody(t, rec, &resp)
	assert.Equal(t, 2, resp.RemainingImages)

	// Remaining images keep their relative order and the target file is
	// gone.
	stored, err := env.products.FindByID(t.Context(), product.ID)
	require.NoError(t, err)
	require.Len(t, stored.Images, 2)
	assert.Equal(t, first.Filename, stored.Images[0].Filename)
	assert.Equal(t, third.Filename, stored.Images[1].Filename)
	assert.NoFileExists(t, second.Path)
	assert.FileExists(t, first.Path)
	assert.FileExists(t, third.Path)

	// Other fields survive verbatim.
	assert.Equal(t, product.Name, stored.Name)
	assert.Equal(t, product.Price, stored.Price)
	assert.Equal(t, product.StockQuantity, stored.StockQuantity)
}

func TestDeleteProductImageInvalidIndex(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)
	product := env.seedProduct(t, "a", 2)

	for _, idx := range []string{"-1", "2", "abc"} {
		req := httptest.NewRequest(http.MethodDelete, "/products/"+product.ID+"/images/"+idx, nil)
		rec := env.do(authed(req, token))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "index %s", idx)
	}
	// Nothing was deleted.
	assert.Len(t, env.storedFiles(t), 2)
}

func TestDeleteProductImageNoImages(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)
	product := env.seedProduct(t, "a", 0)

	req := httptest.NewRequest(http.MethodDelete, "/products/"+product.ID+"/images/0", nil)
	rec := env.do(authed(req, token))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteProductImageDBFailureKeepsFile(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)
	product := env.seedProduct(t, "a", 2)
	env.products.updateErr = errDBDown

	req := httptest.NewRequest(http.MethodDelete, "/products/"+product.ID+"/images/0", nil)
	rec := env.do(authed(req, token))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	// The file must not be unlinked before the shortened list is stored.
	assert.FileExists(t, product.Images[0].Path)
}
