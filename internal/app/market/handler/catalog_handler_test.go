package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ashtraymarket/internal/app/market/config"
	"ashtraymarket/internal/app/market/entity"
	"ashtraymarket/internal/app/market/repository"
	"ashtraymarket/internal/app/market/repository/mocks"
	"ashtraymarket/internal/app/market/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Хелперы для создания тестового окружения

type catalogHandlerMocks struct {
	productRepo  *mocks.MockProductRepository
	categoryRepo *mocks.MockCategoryRepository
	shopRepo     *mocks.MockShopRepository
	wishRepo     *mocks.MockWishListRepository
}

func newTestCatalogHandler() (*CatalogHandler, catalogHandlerMocks) {
	m := catalogHandlerMocks{
		productRepo:  new(mocks.MockProductRepository),
		categoryRepo: new(mocks.MockCategoryRepository),
		shopRepo:     new(mocks.MockShopRepository),
		wishRepo:     new(mocks.MockWishListRepository),
	}

	producer := new(mocks.MockMessagePublisher)
	producer.On("PublishMessage", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("[]uint8")).Return(nil).Maybe()

	catalogService := service.NewCatalogService(
		m.productRepo, m.categoryRepo, m.shopRepo, m.wishRepo,
		nil, producer, "product-events", config.WishlistConfig{},
	)
	handler := NewCatalogHandler(catalogService)

	return handler, m
}

// ==================== CreateProduct Handler Tests ====================

func TestCatalogHandler_CreateProduct_Success(t *testing.T) {
	// Arrange
	handler, m := newTestCatalogHandler()

	ownerID := uuid.New()
	shopID := uuid.New()
	categoryID := uuid.New()

	m.shopRepo.On("GetByID", mock.Anything, shopID).Return(&entity.Shop{ID: shopID, OwnerID: ownerID}, nil)
	m.categoryRepo.On("GetByID", mock.Anything, categoryID).Return(&entity.Category{ID: categoryID, Name: "Ceramics"}, nil)
	m.productRepo.On("CreateForOwner", mock.Anything, ownerID, mock.AnythingOfType("*entity.Product")).Return(nil)

	reqBody := entity.CreateProductRequest{
		ShopID:     shopID,
		Name:       "Clay Ashtray",
		Price:      19.99,
		CategoryID: categoryID,
	}
	body, _ := json.Marshal(reqBody)

	router := setupAuthedRouter(http.MethodPost, "/products", ownerID, handler.CreateProduct)
	req := httptest.NewRequest(http.MethodPost, "/products", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusCreated, rec.Code)

	var response entity.Product
	err := json.Unmarshal(rec.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "Clay Ashtray", response.Name)
	assert.Equal(t, shopID, response.ShopID)
	m.productRepo.AssertExpectations(t)
}

func TestCatalogHandler_CreateProduct_ValidationErrors(t *testing.T) {
	testCases := []struct {
		name     string
		request  entity.CreateProductRequest
		expected string
	}{
		{
			name:     "Missing shop_id",
			request:  entity.CreateProductRequest{Name: "Clay Ashtray", Price: 19.99, CategoryID: uuid.New()},
			expected: "field 'ShopID' is required",
		},
		{
			name:     "Missing name",
			request:  entity.CreateProductRequest{ShopID: uuid.New(), Price: 19.99, CategoryID: uuid.New()},
			expected: "field 'Name' is required",
		},
		{
			name:     "Name too short",
			request:  entity.CreateProductRequest{ShopID: uuid.New(), Name: "x", Price: 19.99, CategoryID: uuid.New()},
			expected: "field 'Name' is too short",
		},
		{
			name:     "Missing category_id",
			request:  entity.CreateProductRequest{ShopID: uuid.New(), Name: "Clay Ashtray", Price: 19.99},
			expected: "field 'CategoryID' is required",
		},
		{
			name:     "Negative quantity",
			request:  entity.CreateProductRequest{ShopID: uuid.New(), Name: "Clay Ashtray", Price: 19.99, QuantityAvailable: -1, CategoryID: uuid.New()},
			expected: "field 'QuantityAvailable' must be at least 0",
		},
	}

	handler, _ := newTestCatalogHandler()

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			body, _ := json.Marshal(tc.request)

			router := setupAuthedRouter(http.MethodPost, "/products", uuid.New(), handler.CreateProduct)
			req := httptest.NewRequest(http.MethodPost, "/products", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var response map[string]string
			json.Unmarshal(rec.Body.Bytes(), &response)
			assert.Contains(t, response["message"], tc.expected)
		})
	}
}

func TestCatalogHandler_CreateProduct_ForeignShop(t *testing.T) {
	// Arrange
	handler, m := newTestCatalogHandler()

	shopID := uuid.New()
	m.shopRepo.On("GetByID", mock.Anything, shopID).Return(&entity.Shop{ID: shopID, OwnerID: uuid.New()}, nil)

	reqBody := entity.CreateProductRequest{
		ShopID:     shopID,
		Name:       "Clay Ashtray",
		Price:      19.99,
		CategoryID: uuid.New(),
	}
	body, _ := json.Marshal(reqBody)

	router := setupAuthedRouter(http.MethodPost, "/products", uuid.New(), handler.CreateProduct)
	req := httptest.NewRequest(http.MethodPost, "/products", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusForbidden, rec.Code)
	m.productRepo.AssertNotCalled(t, "CreateForOwner", mock.Anything, mock.Anything, mock.Anything)
}

// ==================== GetProduct Handler Tests ====================

func TestCatalogHandler_GetProduct_Success(t *testing.T) {
	// Arrange
	handler, m := newTestCatalogHandler()

	productID := uuid.New()
	product := &entity.Product{
		ID:    productID,
		Name:  "Clay Ashtray",
		Price: 19.99,
	}
	m.productRepo.On("GetByID", mock.Anything, productID).Return(product, nil)
	m.productRepo.On("IncrementViews", mock.Anything, productID).Return(nil)

	router := setupTestRouter(http.MethodGet, "/products/:id", handler.GetProduct)
	req := httptest.NewRequest(http.MethodGet, "/products/"+productID.String(), nil)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)

	var response entity.Product
	err := json.Unmarshal(rec.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "Clay Ashtray", response.Name)
	m.productRepo.AssertCalled(t, "IncrementViews", mock.Anything, productID)
}

func TestCatalogHandler_GetProduct_InvalidID(t *testing.T) {
	// Arrange
	handler, m := newTestCatalogHandler()

	router := setupTestRouter(http.MethodGet, "/products/:id", handler.GetProduct)
	req := httptest.NewRequest(http.MethodGet, "/products/not-a-uuid", nil)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	m.productRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestCatalogHandler_GetProduct_NotFound(t *testing.T) {
	// Arrange
	handler, m := newTestCatalogHandler()

	productID := uuid.New()
	m.productRepo.On("GetByID", mock.Anything, productID).Return(nil, repository.ErrNotFound)

	router := setupTestRouter(http.MethodGet, "/products/:id", handler.GetProduct)
	req := httptest.NewRequest(http.MethodGet, "/products/"+productID.String(), nil)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ==================== ListProducts Handler Tests ====================

func TestCatalogHandler_ListProducts_FilterByShop(t *testing.T) {
	// Arrange
	handler, m := newTestCatalogHandler()

	shopID := uuid.New()
	products := []entity.Product{
		{ID: uuid.New(), ShopID: shopID, Name: "Clay Ashtray"},
		{ID: uuid.New(), ShopID: shopID, Name: "Glass Ashtray"},
	}
	m.productRepo.On("List", mock.Anything, mock.MatchedBy(func(f entity.ProductFilter) bool {
		return f.ShopID != nil && *f.ShopID == shopID && f.CategoryID == nil && f.Status == nil
	})).Return(products, nil)

	router := setupTestRouter(http.MethodGet, "/products", handler.ListProducts)
	req := httptest.NewRequest(http.MethodGet, "/products?shop_id="+shopID.String(), nil)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)

	var response entity.ProductListResponse
	err := json.Unmarshal(rec.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, 2, response.Total)
	assert.Len(t, response.Products, 2)
}

func TestCatalogHandler_ListProducts_InvalidStatusFilter(t *testing.T) {
	// Arrange
	handler, m := newTestCatalogHandler()

	router := setupTestRouter(http.MethodGet, "/products", handler.ListProducts)
	req := httptest.NewRequest(http.MethodGet, "/products?status=archived", nil)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	m.productRepo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

// ==================== ChangePrice Handler Tests ====================

func TestCatalogHandler_ChangePrice_Success(t *testing.T) {
	// Arrange
	handler, m := newTestCatalogHandler()

	ownerID := uuid.New()
	shopID := uuid.New()
	productID := uuid.New()
	product := &entity.Product{
		ID:     productID,
		ShopID: shopID,
		Name:   "Clay Ashtray",
		Price:  19.99,
	}

	m.productRepo.On("GetByID", mock.Anything, productID).Return(product, nil)
	m.shopRepo.On("GetByID", mock.Anything, shopID).Return(&entity.Shop{ID: shopID, OwnerID: ownerID}, nil)
	m.productRepo.On("ChangePrice", mock.Anything, productID, 14.50).Return(product, nil)

	reqBody := entity.ChangePriceRequest{Price: 14.50}
	body, _ := json.Marshal(reqBody)

	router := setupAuthedRouter(http.MethodPut, "/products/:id/price", ownerID, handler.ChangePrice)
	req := httptest.NewRequest(http.MethodPut, "/products/"+productID.String()+"/price", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
	m.productRepo.AssertExpectations(t)
}

func TestCatalogHandler_ChangePrice_NotOwner(t *testing.T) {
	// Arrange
	handler, m := newTestCatalogHandler()

	shopID := uuid.New()
	productID := uuid.New()
	product := &entity.Product{
		ID:     productID,
		ShopID: shopID,
		Price:  19.99,
	}

	m.productRepo.On("GetByID", mock.Anything, productID).Return(product, nil)
	m.shopRepo.On("GetByID", mock.Anything, shopID).Return(&entity.Shop{ID: shopID, OwnerID: uuid.New()}, nil)

	reqBody := entity.ChangePriceRequest{Price: 14.50}
	body, _ := json.Marshal(reqBody)

	router := setupAuthedRouter(http.MethodPut, "/products/:id/price", uuid.New(), handler.ChangePrice)
	req := httptest.NewRequest(http.MethodPut, "/products/"+productID.String()+"/price", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusForbidden, rec.Code)
	m.productRepo.AssertNotCalled(t, "ChangePrice", mock.Anything, mock.Anything, mock.Anything)
}

// ==================== Category Handler Tests ====================

func TestCatalogHandler_GetCategories_Success(t *testing.T) {
	// Arrange
	handler, m := newTestCatalogHandler()

	categories := []entity.Category{
		{ID: uuid.New(), Name: "Ceramics"},
		{ID: uuid.New(), Name: "Glass"},
	}
	m.categoryRepo.On("GetAll", mock.Anything).Return(categories, nil)

	router := setupTestRouter(http.MethodGet, "/categories", handler.GetCategories)
	req := httptest.NewRequest(http.MethodGet, "/categories", nil)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)

	var response entity.CategoryListResponse
	err := json.Unmarshal(rec.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, 2, response.Total)
}

func TestCatalogHandler_CreateCategory_Duplicate(t *testing.T) {
	// Arrange
	handler, m := newTestCatalogHandler()

	m.categoryRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.Category")).Return(repository.ErrDuplicateCategory)

	reqBody := entity.CreateCategoryRequest{Name: "Ceramics"}
	body, _ := json.Marshal(reqBody)

	router := setupTestRouter(http.MethodPost, "/categories", handler.CreateCategory)
	req := httptest.NewRequest(http.MethodPost, "/categories", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusConflict, rec.Code)
}

// ==================== Wishlist Handler Tests ====================

func TestCatalogHandler_AddToWishlist_Success(t *testing.T) {
	// Arrange
	handler, m := newTestCatalogHandler()

	userID := uuid.New()
	productID := uuid.New()
	item := &entity.WishListItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
	}

	m.productRepo.On("GetByID", mock.Anything, productID).Return(&entity.Product{ID: productID}, nil)
	m.wishRepo.On("Add", mock.Anything, userID, productID, false).Return(item, nil)

	reqBody := entity.WishlistRequest{ProductID: productID}
	body, _ := json.Marshal(reqBody)

	router := setupAuthedRouter(http.MethodPost, "/wishlist", userID, handler.AddToWishlist)
	req := httptest.NewRequest(http.MethodPost, "/wishlist", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusCreated, rec.Code)
	m.wishRepo.AssertExpectations(t)
}

func TestCatalogHandler_AddToWishlist_ProductNotFound(t *testing.T) {
	// Arrange
	handler, m := newTestCatalogHandler()

	productID := uuid.New()
	m.productRepo.On("GetByID", mock.Anything, productID).Return(nil, repository.ErrNotFound)

	reqBody := entity.WishlistRequest{ProductID: productID}
	body, _ := json.Marshal(reqBody)

	router := setupAuthedRouter(http.MethodPost, "/wishlist", uuid.New(), handler.AddToWishlist)
	req := httptest.NewRequest(http.MethodPost, "/wishlist", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusNotFound, rec.Code)
	m.wishRepo.AssertNotCalled(t, "Add", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
