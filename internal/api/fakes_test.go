package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/shop-admin/internal/config"
	"github.com/shop-admin/internal/middleware"
	"github.com/shop-admin/internal/model"
	"github.com/shop-admin/internal/upload"
	"github.com/stretchr/testify/require"
)

// In-memory stores standing in for the sqlx repositories.

type fakeUserStore struct {
	users     []*model.User
	createErr error
}

func (f *fakeUserStore) Create(_ context.Context, req *model.RegisterRequest) (*model.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	user := &model.User{
		ID:        fmt.Sprintf("user-%d", len(f.users)+1),
		Username:  req.Username,
		Email:     req.Email,
		Password:  "hashed:" + req.Password,
		Role:      model.UserRoleUser,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	f.users = append(f.users, user)
	return user, nil
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) FindByID(_ context.Context, id string) (*model.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) List(_ context.Context) ([]*model.User, error) {
	out := make([]*model.User, len(f.users))
	// Newest first, matching the repository's ORDER BY created_at DESC.
	for i, u := range f.users {
		out[len(f.users)-1-i] = u
	}
	return out, nil
}

func (f *fakeUserStore) ValidatePassword(user *model.User, password string) bool {
	return user.Password == "hashed:"+password
}

func (f *fakeUserStore) add(id string, role model.UserRole) *model.User {
	user := &model.User{
		ID:       id,
		Username: id,
		Email:    id + "@example.com",
		Password: "hashed:secret123",
		Role:     role,
	}
	f.users = append(f.users, user)
	return user
}

type fakeProductStore struct {
	products   []*model.Product
	seq        int
	createErr  error
	updateErr  error
	deleteErr  error
	findErr    error
	listErr    error
	lastFilter *model.ProductFilter
}

func (f *fakeProductStore) Create(_ context.Context, data *model.ProductData) (*model.Product, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.seq++
	product := &model.Product{
		ID:            fmt.Sprintf("product-%d", f.seq),
		Name:          data.Name,
		Description:   data.Description,
		Price:         data.Price,
		Category:      data.Category,
		StockQuantity: data.StockQuantity,
		CreatedBy:     data.CreatedBy,
		Images:        data.Images,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	// Prepend: List returns newest first.
	f.products = append([]*model.Product{product}, f.products...)
	return product, nil
}

func (f *fakeProductStore) List(_ context.Context, filter *model.ProductFilter) ([]*model.Product, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.lastFilter = filter
	out := []*model.Product{}
	for _, p := range f.products {
		if filter != nil && filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter != nil && filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(p.Name), needle) &&
				!strings.Contains(strings.ToLower(p.Description), needle) {
				continue
			}
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProductStore) FindByID(_ context.Context, id string) (*model.Product, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeProductStore) Update(_ context.Context, id string, data *model.ProductData) (*model.Product, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	for _, p := range f.products {
		if p.ID == id {
			p.Name = data.Name
			p.Description = data.Description
			p.Price = data.Price
			p.Category = data.Category
			p.StockQuantity = data.StockQuantity
			p.Images = data.Images
			p.UpdatedAt = time.Now()
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeProductStore) Delete(_ context.Context, id string) (*model.Product, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	for i, p := range f.products {
		if p.ID == id {
			f.products = append(f.products[:i], f.products[i+1:]...)
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeProductStore) Categories(_ context.Context) ([]string, error) {
	seen := map[string]bool{}
	categories := []string{}
	for _, p := range f.products {
		if !seen[p.Category] {
			seen[p.Category] = true
			categories = append(categories, p.Category)
		}
	}
	sort.Strings(categories)
	return categories, nil
}

// Test environment wiring the real router, middleware and upload store
// around the fakes.

type testEnv struct {
	router    http.Handler
	users     *fakeUserStore
	products  *fakeProductStore
	auth      *middleware.AuthMiddleware
	uploadDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "products")
	users := &fakeUserStore{}
	products := &fakeProductStore{}
	auth := middleware.NewAuthMiddleware(config.JWTConfig{Secret: "test-secret", ExpirationHours: 24}, users)
	handler := NewHandler(users, products, upload.NewStore(dir), auth)

	return &testEnv{
		router:    NewRouter(handler, auth, dir),
		users:     users,
		products:  products,
		auth:      auth,
		uploadDir: dir,
	}
}

func (e *testEnv) tokenFor(t *testing.T, user *model.User) string {
	t.Helper()
	token, err := e.auth.GenerateToken(user)
	require.NoError(t, err)
	return token
}

func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	return e.tokenFor(t, e.users.add("admin-1", model.UserRoleAdmin))
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) storedFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(e.uploadDir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

// seedProduct adds a product whose image files really exist on disk.
func (e *testEnv) seedProduct(t *testing.T, category string, imageCount int) *model.Product {
	t.Helper()

	require.NoError(t, os.MkdirAll(e.uploadDir, 0o755))
	e.products.seq++
	images := model.ImageList{}
	for i := 0; i < imageCount; i++ {
		filename := fmt.Sprintf("product-seed-%d-%d.png", e.products.seq, i)
		path := filepath.Join(e.uploadDir, filename)
		require.NoError(t, os.WriteFile(path, []byte("image-bytes"), 0o644))
		images = append(images, model.ProductImage{
			Filename:     filename,
			OriginalName: fmt.Sprintf("original-%d.png", i),
			Path:         path,
			Size:         11,
			URL:          "/uploads/products/" + filename,
		})
	}

	product := &model.Product{
		ID:            fmt.Sprintf("product-%d", e.products.seq),
		Name:          "Seeded product",
		Description:   "Seeded description",
		Price:         9.99,
		Category:      category,
		StockQuantity: 5,
		CreatedBy:     "admin-1",
		Images:        images,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	e.products.products = append([]*model.Product{product}, e.products.products...)
	return product
}

// Request helpers

func jsonRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

type formFile struct {
	filename    string
	contentType string
	content     []byte
}

func multipartRequest(t *testing.T, method, path string, fields map[string]string, files []formFile) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, w.WriteField(key, value))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name=%q; filename=%q`, upload.FieldName, f.filename))
		h.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func validProductFields() map[string]string {
	return map[string]string{
		"name":           "Mechanical keyboard",
		"description":    "Clicky and loud",
		"price":          "129.50",
		"category":       "peripherals",
		"stock_quantity": "12",
	}
}

func png(name string) formFile {
	return formFile{filename: name, contentType: "image/png", content: []byte("png-bytes")}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}
