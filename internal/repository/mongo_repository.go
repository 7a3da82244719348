package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type cartDocument struct {
	UserID    string         `bson:"user_id"`
	Lines     []lineDocument `bson:"lines"`
	Version   uint64         `bson:"version"`
	CreatedAt time.Time      `bson:"created_at"`
	UpdatedAt time.Time      `bson:"updated_at"`
}

// prices are kept as strings so no precision is lost to BSON doubles
type lineDocument struct {
	ProductID   int64           `bson:"product_id"`
	Name        string          `bson:"name"`
	Description string          `bson:"description,omitempty"`
	Price       string          `bson:"price"`
	Stock       int             `bson:"stock"`
	CategoryID  int64           `bson:"category_id,omitempty"`
	Rating      float64         `bson:"rating,omitempty"`
	SellCount   int             `bson:"sell_count,omitempty"`
	Color       string          `bson:"color,omitempty"`
	Images      []imageDocument `bson:"images,omitempty"`
	Quantity    int             `bson:"quantity"`
	Selected    bool            `bson:"selected"`
}

type imageDocument struct {
	ID  int64  `bson:"id"`
	URL string `bson:"url"`
}

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *mongoRepository {
	return &mongoRepository{
		collection: db.Collection("carts"),
	}
}

func (m *mongoRepository) GetCart(ctx context.Context, userID string) (*domain.CartSnapshot, error) {
	var doc cartDocument

	filter := bson.M{"user_id": userID}
	err := m.collection.FindOne(ctx, filter).Decode(&doc)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	lines := make([]domain.CartLine, 0, len(doc.Lines))
	for _, l := range doc.Lines {
		line, err := l.toDomain()
		if err != nil {
			return nil, fmt.Errorf("failed to decode cart line %d: %w", l.ProductID, err)
		}
		lines = append(lines, line)
	}

	snap := domain.NewCartSnapshot(lines, doc.Version)
	return &snap, nil
}

// SaveCart upserts the snapshot unless a snapshot with the same or a newer
// version is already stored, in which case ErrStaleCart is returned.
func (m *mongoRepository) SaveCart(ctx context.Context, userID string, cart domain.CartSnapshot) error {
	now := time.Now().UTC()

	lines := make([]lineDocument, len(cart.Lines))
	for i, l := range cart.Lines {
		lines[i] = lineFromDomain(l)
	}

	filter := bson.M{
		"user_id": userID,
		"version": bson.M{"$lt": cart.Version},
	}
	update := bson.M{
		"$set": bson.M{
			"lines":      lines,
			"version":    cart.Version,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}
	opts := options.Update().SetUpsert(true)

	_, err := m.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		// the filter missed an existing newer document and the upsert hit the unique user_id index
		if mongo.IsDuplicateKeyError(err) {
			return ErrStaleCart
		}
		return fmt.Errorf("failed to upsert cart: %w", err)
	}

	return nil
}

func (m *mongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(90 * 24 * 60 * 60), // 90 days TTL
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

func lineFromDomain(l domain.CartLine) lineDocument {
	doc := lineDocument{
		ProductID:   l.Product.ID,
		Name:        l.Product.Name,
		Description: l.Product.Description,
		Price:       l.Product.Price.String(),
		Stock:       l.Product.Stock,
		CategoryID:  l.Product.CategoryID,
		Rating:      l.Product.Rating,
		SellCount:   l.Product.SellCount,
		Color:       l.Product.Color,
		Quantity:    l.Quantity,
		Selected:    l.Selected,
	}
	for _, img := range l.Product.Images {
		doc.Images = append(doc.Images, imageDocument{ID: img.ID, URL: img.URL})
	}
	return doc
}

func (d lineDocument) toDomain() (domain.CartLine, error) {
	price, err := decimal.NewFromString(d.Price)
	if err != nil {
		return domain.CartLine{}, err
	}
	p := domain.Product{
		ID:          d.ProductID,
		Name:        d.Name,
		Description: d.Description,
		Price:       price,
		Stock:       d.Stock,
		CategoryID:  d.CategoryID,
		Rating:      d.Rating,
		SellCount:   d.SellCount,
		Color:       d.Color,
	}
	for _, img := range d.Images {
		p.Images = append(p.Images, domain.Image{ID: img.ID, URL: img.URL})
	}
	return domain.CartLine{Product: p, Quantity: d.Quantity, Selected: d.Selected}, nil
}
