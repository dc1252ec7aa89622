package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clinicshop/storefront/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type cartDocument struct {
	CartID    string    `bson:"cart_id"`
	Payload   string    `bson:"payload"`
	Version   int64     `bson:"version"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type MongoRepository struct {
	collection *mongo.Collection
	ttl        time.Duration
}

func NewMongoRepository(db *mongo.Database, ttl time.Duration) *MongoRepository {
	if ttl <= 0 {
		ttl = DefaultCartTTL
	}
	return &MongoRepository{
		collection: db.Collection("carts"),
		ttl:        ttl,
	}
}

func (m *MongoRepository) GetCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	var doc cartDocument

	err := m.collection.FindOne(ctx, bson.M{"cart_id": cartID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return decodeCart(cartID, []byte(doc.Payload))
}

func (m *MongoRepository) SaveCart(ctx context.Context, cart *domain.Cart) error {
	data, err := encodeCart(cart)
	if err != nil {
		return err
	}

	doc := cartDocument{
		CartID:    cart.ID,
		Payload:   string(data),
		Version:   cart.Version,
		UpdatedAt: time.Now().UTC(),
	}
	filter := bson.M{"cart_id": cart.ID}
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)

	if _, err := m.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert cart: %w", err)
	}
	return nil
}

func (m *MongoRepository) DeleteCart(ctx context.Context, cartID string) error {
	if _, err := m.collection.DeleteOne(ctx, bson.M{"cart_id": cartID}); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}

func (m *MongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "cart_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(m.ttl.Seconds())),
		},
	}

	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (m *MongoRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.collection.Database().Client().Disconnect(ctx)
}
