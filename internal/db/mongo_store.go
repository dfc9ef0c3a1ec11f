package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/thumuadocu/market-api/internal/config"
	"github.com/thumuadocu/market-api/internal/models"
)

const (
	CollectionNotifications = "notifications"
	CollectionStatus        = "history_status"
)

// ConnectMongo подключается к MongoDB и проверяет соединение
func ConnectMongo(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ошибка проверки соединения с MongoDB: %w", err)
	}

	log.Println("✅ Успешное подключение к MongoDB")
	return client, nil
}

// LogStore хранит уведомления и журнал смены статусов в MongoDB
type LogStore struct {
	notifications *mongo.Collection
	history       *mongo.Collection
}

// NewLogStore создаёт хранилище уведомлений для базы database
func NewLogStore(client *mongo.Client, database string) *LogStore {
	db := client.Database(database)
	return &LogStore{
		notifications: db.Collection(CollectionNotifications),
		history:       db.Collection(CollectionStatus),
	}
}

// EnsureIndexes создаёт индексы для выборки уведомлений пользователя
func (s *LogStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := WithTimeout(ctx)
	defer cancel()

	_, err := s.notifications.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create notification index: %w", err)
	}

	_, err = s.history.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "related_type", Value: 1}, {Key: "related_id", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create history index: %w", err)
	}
	return nil
}

// SaveNotification сохраняет уведомление
func (s *LogStore) SaveNotification(ctx context.Context, n *models.Notification) error {
	ctx, cancel := WithTimeout(ctx)
	defer cancel()

	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	if _, err := s.notifications.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("failed to insert notification to Mongo: %w", err)
	}
	return nil
}

// SaveHistoryStatus добавляет запись в журнал смены статусов
func (s *LogStore) SaveHistoryStatus(ctx context.Context, h *models.HistoryStatus) error {
	ctx, cancel := WithTimeout(ctx)
	defer cancel()

	if h.ID.IsZero() {
		h.ID = primitive.NewObjectID()
	}

	if _, err := s.history.InsertOne(ctx, h); err != nil {
		return fmt.Errorf("failed to insert history status to Mongo: %w", err)
	}
	return nil
}

// ListNotifications возвращает уведомления пользователя, новые первыми
func (s *LogStore) ListNotifications(ctx context.Context, userID string, limit int64) ([]models.Notification, error) {
	ctx, cancel := WithTimeout(ctx)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cur, err := s.notifications.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find notifications: %w", err)
	}
	defer cur.Close(ctx)

	notifications := []models.Notification{}
	if err := cur.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}
	return notifications, nil
}

// CountUnread считает непрочитанные уведомления
func (s *LogStore) CountUnread(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := WithTimeout(ctx)
	defer cancel()

	n, err := s.notifications.CountDocuments(ctx, bson.M{"user_id": userID, "is_read": false})
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return n, nil
}

// MarkRead отмечает уведомление прочитанным; чужое уведомление считается ненайденным
func (s *LogStore) MarkRead(ctx context.Context, userID, id string) error {
	ctx, cancel := WithTimeout(ctx)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	res, err := s.notifications.UpdateOne(ctx,
		bson.M{"_id": oid, "user_id": userID},
		bson.M{"$set": bson.M{"is_read": true}},
	)
	if err != nil {
		return fmt.Errorf("failed to update notification: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
