package entity

import (
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// === Пользователи и магазины (PostgreSQL, pgx) ===

// User представляет пользователя маркетплейса
type User struct {
	ID                uuid.UUID `json:"id" db:"id"`
	Email             string    `json:"email" db:"email"`
	Username          string    `json:"username" db:"username"`
	PasswordHash      string    `json:"-" db:"password_hash"` // не возвращаем в JSON
	IsActive          bool      `json:"is_active" db:"is_active"`
	IsStaff           bool      `json:"is_staff" db:"is_staff"`
	IsSuperuser       bool      `json:"is_superuser" db:"is_superuser"`
	IsVerified        bool      `json:"is_verified" db:"is_verified"`
	ShopOwner         bool      `json:"shop_owner" db:"shop_owner"` // true тогда и только тогда, когда у пользователя есть магазин
	UserImage         string    `json:"user_image,omitempty" db:"user_image"`
	UserAge           *int      `json:"user_age,omitempty" db:"user_age"` // минимум 1
	AboutUser         string    `json:"about_user,omitempty" db:"about_user"`
	OrdersCompleted   int       `json:"orders_completed" db:"orders_completed"`
	OrdersNow         int       `json:"orders_now" db:"orders_now"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	PasswordUpdatedAt time.Time `json:"password_updated_at" db:"password_updated_at"`
}

// IsStaffUser проверяет права сотрудника без обращения к ролям
func (u *User) IsStaffUser() bool {
	return u.IsStaff
}

// IsSuperuserAccount проверяет права суперпользователя
func (u *User) IsSuperuserAccount() bool {
	return u.IsSuperuser
}

// MaxIdentityColors - предел количества фирменных цветов магазина
const MaxIdentityColors = 3

// Shop представляет магазин, принадлежащий одному пользователю
type Shop struct {
	ID                uuid.UUID `json:"id" db:"id"`
	Name              string    `json:"name" db:"name"` // уникальное имя магазина
	OwnerID           uuid.UUID `json:"owner_id" db:"owner_id"`
	ShopImage         string    `json:"shop_image,omitempty" db:"shop_image"`
	ShopLogo          string    `json:"shop_logo,omitempty" db:"shop_logo"`
	IdentityColors    []string  `json:"identity_colors" db:"identity_colors"` // не более MaxIdentityColors
	SellingCategories []string  `json:"selling_categories" db:"selling_categories"`
	BestSellers       []string  `json:"best_sellers" db:"best_sellers"` // ID товаров-лидеров продаж
	Views             int64     `json:"views" db:"views"`
	MonthlySoldItems  int64     `json:"monthly_sold_items" db:"monthly_sold_items"`
	ProfitThisMonth   float64   `json:"profit_this_month" db:"profit_this_month"`
	ProfitThisYear    float64   `json:"profit_this_year" db:"profit_this_year"`
	AboutShop         string    `json:"about_shop,omitempty" db:"about_shop"`
	PhysicalAddress   string    `json:"physical_address,omitempty" db:"physical_address"`
	IsVerified        bool      `json:"is_verified" db:"is_verified"`
	IsActive          bool      `json:"is_active" db:"is_active"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// Address представляет адрес пользователя или магазина
type Address struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	UserID     *uuid.UUID `json:"user_id,omitempty" db:"user_id"`
	ShopID     *uuid.UUID `json:"shop_id,omitempty" db:"shop_id"`
	Street     string     `json:"street" db:"street"`
	City       string     `json:"city" db:"city"`
	PostalCode string     `json:"postal_code" db:"postal_code"`
	Country    string     `json:"country" db:"country"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// RefreshToken хранит refresh токены для обновления JWT
type RefreshToken struct {
	UserID    uuid.UUID `json:"user_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenPair содержит access и refresh токены
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // время жизни access token в секундах
}

// === Каталог и заказы (PostgreSQL, GORM) ===

// ProductStatus представляет статус товара
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// Product представляет товар в каталоге
// Принадлежит ровно одному магазину и одной категории
type Product struct {
	ID                uuid.UUID     `json:"id" gorm:"type:uuid;primaryKey"`
	Name              string        `json:"name" gorm:"type:varchar(150);not null"`
	ShortDescription  string        `json:"short_description" gorm:"type:varchar(300)"`
	LongDescription   string        `json:"long_description" gorm:"type:text"`
	Price             float64       `json:"price" gorm:"type:decimal(10,2);not null;check:price > 0"`
	QuantityAvailable int           `json:"quantity_available" gorm:"not null;check:quantity_available >= 0"`
	Dimensions        string        `json:"dimensions" gorm:"type:varchar(50)"`
	Weight            float64       `json:"weight" gorm:"type:decimal(5,2);check:weight > 0"`
	Image1            string        `json:"image_1,omitempty" gorm:"type:varchar(255)"`
	Image2            string        `json:"image_2,omitempty" gorm:"type:varchar(255)"`
	Image3            string        `json:"image_3,omitempty" gorm:"type:varchar(255)"`
	Status            ProductStatus `json:"status" gorm:"type:varchar(10);not null;default:'active'"`
	Views             int64         `json:"views" gorm:"not null;default:0"`
	Sold              int64         `json:"sold" gorm:"not null;default:0"`
	ShopID            uuid.UUID     `json:"shop_id" gorm:"type:uuid;not null;index"`
	CategoryID        uuid.UUID     `json:"category_id" gorm:"type:uuid;not null;index"`
	CreatedAt         time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName указывает имя таблицы для GORM
func (Product) TableName() string {
	return "products"
}

// Category представляет категорию товаров
type Category struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string    `json:"name" gorm:"type:varchar(100);uniqueIndex;not null"`
	Description string    `json:"description,omitempty" gorm:"type:text"`
	Image       string    `json:"image,omitempty" gorm:"type:varchar(255)"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName указывает имя таблицы для GORM
func (Category) TableName() string {
	return "categories"
}

// PriceHistory - неизменяемая запись об изменении цены товара
// Строки только добавляются, никогда не изменяются и не удаляются
// (кроме каскадного удаления вместе с товаром)
type PriceHistory struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ProductID uuid.UUID `json:"product_id" gorm:"type:uuid;not null;index"`
	Price     float64   `json:"price" gorm:"type:decimal(10,2);not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName указывает имя таблицы для GORM
func (PriceHistory) TableName() string {
	return "price_history"
}

// OrderStatus представляет статусы заказа
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order представляет заказ пользователя
type Order struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID      `json:"user_id" gorm:"type:uuid;not null;index"`
	TotalAmount float64        `json:"total_amount" gorm:"type:decimal(10,2);not null"`
	Status      OrderStatus    `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	CreatedAt   time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	Items       []OrderProduct `json:"items,omitempty" gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName указывает имя таблицы для GORM
func (Order) TableName() string {
	return "orders"
}

// OrderProduct - связь заказа с товаром
type OrderProduct struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	OrderID   uuid.UUID `json:"order_id" gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID `json:"product_id" gorm:"type:uuid;not null"`
	ShopID    uuid.UUID `json:"shop_id" gorm:"type:uuid;not null"`
	Quantity  int       `json:"quantity" gorm:"not null;check:quantity > 0"`
	UnitPrice float64   `json:"unit_price" gorm:"type:decimal(10,2);not null"` // цена на момент покупки
}

// TableName указывает имя таблицы для GORM
func (OrderProduct) TableName() string {
	return "order_products"
}

// WishListItem - запись списка желаний (user, product)
// Уникальность пары регулируется политикой WishlistConfig
type WishListItem struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID `json:"product_id" gorm:"type:uuid;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName указывает имя таблицы для GORM
func (WishListItem) TableName() string {
	return "wish_lists"
}

// === Отзывы (MongoDB) ===

// Review представляет отзыв пользователя о товаре и/или магазине
// Уникален по тройке (user_id, product_id, shop_id) - индекс в MongoDB
type Review struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    string             `json:"user_id" bson:"user_id"`                 // UUID пользователя
	ProductID string             `json:"product_id,omitempty" bson:"product_id"` // UUID товара, пустая строка если отзыв о магазине
	ShopID    string             `json:"shop_id,omitempty" bson:"shop_id"`       // UUID магазина, пустая строка если отзыв о товаре
	Rating    int                `json:"rating" bson:"rating"`                   // оценка от 1 до 5
	Comment   string             `json:"comment" bson:"comment"`
	Images    []string           `json:"images,omitempty" bson:"images,omitempty"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

// ReviewRating - голос пользователя о полезности отзыва
// Уникален по паре (review_id, user_id)
type ReviewRating struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ReviewID  string             `json:"review_id" bson:"review_id"`
	UserID    string             `json:"user_id" bson:"user_id"`
	Value     int                `json:"value" bson:"value"` // от 1 до 5
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// RatingSummary - агрегированная оценка товара или магазина
type RatingSummary struct {
	Average float64 `json:"average" bson:"average"`
	Count   int64   `json:"count" bson:"count"`
}

// === События Kafka ===

// ProductEvent представляет событие изменения товара
type ProductEvent struct {
	EventType string    `json:"event_type"` // PRODUCT_CREATED, PRODUCT_UPDATED, PRODUCT_DELETED
	ProductID uuid.UUID `json:"product_id"`
	ShopID    uuid.UUID `json:"shop_id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderEventItem - позиция заказа внутри события
type OrderEventItem struct {
	ProductID uuid.UUID `json:"product_id"`
	ShopID    uuid.UUID `json:"shop_id"`
	Quantity  int       `json:"quantity"`
	UnitPrice float64   `json:"unit_price"`
}

// OrderEvent представляет событие изменения заказа
type OrderEvent struct {
	EventType   string           `json:"event_type"` // ORDER_CREATED, ORDER_UPDATED
	OrderID     uuid.UUID        `json:"order_id"`
	UserID      uuid.UUID        `json:"user_id"`
	TotalAmount float64          `json:"total_amount"`
	Status      OrderStatus      `json:"status"`
	Items       []OrderEventItem `json:"items,omitempty"`
	Timestamp   time.Time        `json:"timestamp"`
}

// ReviewEvent представляет событие создания отзыва
type ReviewEvent struct {
	EventType string    `json:"event_type"` // REVIEW_CREATED
	ReviewID  string    `json:"review_id"`
	ProductID string    `json:"product_id,omitempty"`
	ShopID    string    `json:"shop_id,omitempty"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Timestamp time.Time `json:"timestamp"`
}
