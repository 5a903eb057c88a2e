// file.go — реализация FileRepository поверх MongoDB.
package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bigkaa/teamchat/file-module/internal/domain/model"
)

// filesCollection — имя коллекции метаданных файлов.
const filesCollection = "files"

// activeFilter — базовый фильтр: только не удалённые записи.
func activeFilter() bson.M {
	return bson.M{"deleted_at": nil}
}

// MongoFileRepository — FileRepository поверх MongoDB.
type MongoFileRepository struct {
	db     *mongo.Database
	files  *mongo.Collection
	logger *slog.Logger
}

// NewMongoFileRepository создаёт репозиторий над базой данных db.
func NewMongoFileRepository(db *mongo.Database, logger *slog.Logger) *MongoFileRepository {
	return &MongoFileRepository{
		db:     db,
		files:  db.Collection(filesCollection),
		logger: logger,
	}
}

// EnsureIndexes создаёт индексы коллекции files. Вызывается при старте.
//
// Ключевой индекс — частичный уникальный (workspace_id, checksum) по
// активным записям с непустым checksum: он закрывает гонку двух
// конкурентных загрузок одинакового содержимого. MongoDB не умеет
// $eq: null в partialFilterExpression, поэтому условие выражено через
// зеркальное поле active и $gt: "" для checksum.
func (r *MongoFileRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "file_id", Value: 1}},
			Options: options.Index().
				SetName("uniq_file_id").
				SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "workspace_id", Value: 1}, {Key: "checksum", Value: 1}},
			Options: options.Index().
				SetName("uniq_workspace_checksum_active").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{
					"active":   true,
					"checksum": bson.M{"$gt": ""},
				}),
		},
		{
			Keys: bson.D{{Key: "workspace_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("workspace_created"),
		},
		{
			Keys: bson.D{{Key: "uploaded_by", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("user_created"),
		},
		{
			Keys: bson.D{{Key: "channel_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("channel_created"),
		},
	}

	names, err := r.files.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("создание индексов %s: %w", filesCollection, err)
	}
	r.logger.Info("Индексы MongoDB созданы",
		slog.String("collection", filesCollection),
		slog.Any("indexes", names))
	return nil
}

// Insert вставляет новую файловую запись.
func (r *MongoFileRepository) Insert(ctx context.Context, file *model.File) error {
	file.Active = file.DeletedAt == nil

	if _, err := r.files.InsertOne(ctx, file); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateChecksum
		}
		return fmt.Errorf("вставка файла %s: %w", file.FileID, err)
	}
	return nil
}

// GetByID возвращает активный файл по file_id.
func (r *MongoFileRepository) GetByID(ctx context.Context, fileID string) (*model.File, error) {
	filter := activeFilter()
	filter["file_id"] = fileID

	var file model.File
	if err := r.files.FindOne(ctx, filter).Decode(&file); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("поиск файла %s: %w", fileID, err)
	}
	return &file, nil
}

// GetByChecksum возвращает активный файл с данным checksum в workspace.
func (r *MongoFileRepository) GetByChecksum(ctx context.Context, workspaceID, checksum string) (*model.File, error) {
	filter := activeFilter()
	filter["workspace_id"] = workspaceID
	filter["checksum"] = checksum

	var file model.File
	if err := r.files.FindOne(ctx, filter).Decode(&file); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("поиск по checksum в workspace %s: %w", workspaceID, err)
	}
	return &file, nil
}

// scopeField сопоставляет scope листинга полю документа.
func scopeField(scope ListScope) (string, error) {
	switch scope {
	case ScopeUser:
		return "uploaded_by", nil
	case ScopeWorkspace:
		return "workspace_id", nil
	case ScopeChannel:
		return "channel_id", nil
	default:
		return "", fmt.Errorf("неизвестный scope листинга: %q", scope)
	}
}

// List возвращает страницу активных файлов и общее количество.
// Сортировка — по created_at по убыванию (новые первыми).
func (r *MongoFileRepository) List(ctx context.Context, params ListParams) ([]*model.File, int64, error) {
	field, err := scopeField(params.Scope)
	if err != nil {
		return nil, 0, err
	}

	filter := activeFilter()
	filter[field] = params.ScopeID
	if params.Category != "" {
		filter["category"] = params.Category
	}

	total, err := r.files.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("подсчёт файлов: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(params.Offset).
		SetLimit(params.Limit)

	cursor, err := r.files.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("листинг файлов: %w", err)
	}
	defer cursor.Close(ctx)

	files := make([]*model.File, 0, params.Limit)
	if err := cursor.All(ctx, &files); err != nil {
		return nil, 0, fmt.Errorf("чтение курсора листинга: %w", err)
	}
	return files, total, nil
}

// GetByIDs возвращает активные файлы по списку file_id.
func (r *MongoFileRepository) GetByIDs(ctx context.Context, fileIDs []string) ([]*model.File, error) {
	if len(fileIDs) == 0 {
		return nil, nil
	}

	filter := activeFilter()
	filter["file_id"] = bson.M{"$in": fileIDs}

	cursor, err := r.files.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("batch-поиск файлов: %w", err)
	}
	defer cursor.Close(ctx)

	files := make([]*model.File, 0, len(fileIDs))
	if err := cursor.All(ctx, &files); err != nil {
		return nil, fmt.Errorf("чтение курсора batch-поиска: %w", err)
	}
	return files, nil
}

// SoftDelete помечает файл удалённым и возвращает запись до удаления.
// active=false выводит запись из-под частичного уникального индекса,
// освобождая checksum для повторной загрузки.
func (r *MongoFileRepository) SoftDelete(ctx context.Context, fileID string) (*model.File, error) {
	filter := activeFilter()
	filter["file_id"] = fileID

	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"deleted_at": now,
		"active":     false,
		"updated_at": now,
	}}

	var file model.File
	err := r.files.FindOneAndUpdate(ctx, filter, update).Decode(&file)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("мягкое удаление файла %s: %w", fileID, err)
	}
	file.DeletedAt = &now
	file.Active = false
	return &file, nil
}

// UpdateFields обновляет разрешённые поля и возвращает обновлённый документ.
func (r *MongoFileRepository) UpdateFields(ctx context.Context, fileID string, fields map[string]any) (*model.File, error) {
	filter := activeFilter()
	filter["file_id"] = fileID

	set := bson.M{"updated_at": time.Now().UTC()}
	for k, v := range fields {
		set[k] = v
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var file model.File
	err := r.files.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&file)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("обновление файла %s: %w", fileID, err)
	}
	return &file, nil
}

// AddShared добавляет пользователей в shared_with
// ($addToSet + $each — идемпотентно).
func (r *MongoFileRepository) AddShared(ctx context.Context, fileID string, userIDs []string) (*model.File, error) {
	return r.updateShared(ctx, fileID, bson.M{
		"$addToSet": bson.M{"shared_with": bson.M{"$each": userIDs}},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
}

// RemoveShared убирает пользователя из shared_with ($pull — идемпотентно).
func (r *MongoFileRepository) RemoveShared(ctx context.Context, fileID, userID string) (*model.File, error) {
	return r.updateShared(ctx, fileID, bson.M{
		"$pull": bson.M{"shared_with": userID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
}

func (r *MongoFileRepository) updateShared(ctx context.Context, fileID string, update bson.M) (*model.File, error) {
	filter := activeFilter()
	filter["file_id"] = fileID

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var file model.File
	err := r.files.FindOneAndUpdate(ctx, filter, update, opts).Decode(&file)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("изменение доступа к файлу %s: %w", fileID, err)
	}
	return &file, nil
}

// IncrementDownloads атомарно увеличивает счётчик скачиваний.
// updated_at намеренно не трогаем: скачивание не меняет метаданные.
func (r *MongoFileRepository) IncrementDownloads(ctx context.Context, fileID string) error {
	filter := activeFilter()
	filter["file_id"] = fileID

	res, err := r.files.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"downloads": 1}})
	if err != nil {
		return fmt.Errorf("инкремент скачиваний файла %s: %w", fileID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// GlobalStats считает агрегат по всем активным файлам.
func (r *MongoFileRepository) GlobalStats(ctx context.Context) (*model.StorageStats, error) {
	return r.stats(ctx, "", "")
}

// WorkspaceStats считает агрегат по активным файлам workspace.
func (r *MongoFileRepository) WorkspaceStats(ctx context.Context, workspaceID string) (*model.StorageStats, error) {
	return r.stats(ctx, "workspace_id", workspaceID)
}

// UserStats считает агрегат по активным файлам пользователя.
func (r *MongoFileRepository) UserStats(ctx context.Context, userID string) (*model.StorageStats, error) {
	return r.stats(ctx, "uploaded_by", userID)
}

// stats — общий aggregation pipeline: группировка по категории,
// затем свёртка в итоговые количества и суммарный размер.
// Пустой field означает агрегат без дополнительного фильтра.
func (r *MongoFileRepository) stats(ctx context.Context, field, value string) (*model.StorageStats, error) {
	match := activeFilter()
	if field != "" {
		match[field] = value
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$category",
			"count": bson.M{"$sum": 1},
			"size":  bson.M{"$sum": "$size"},
		}}},
	}

	cursor, err := r.files.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("агрегация статистики: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Category model.FileCategory `bson:"_id"`
		Count    int64              `bson:"count"`
		Size     int64              `bson:"size"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("чтение курсора статистики: %w", err)
	}

	stats := &model.StorageStats{
		ByCategory: make(map[model.FileCategory]int64, len(rows)),
	}
	for _, row := range rows {
		stats.TotalFiles += row.Count
		stats.TotalSize += row.Size
		stats.ByCategory[row.Category] = row.Count
	}
	return stats, nil
}

// CheckReady проверяет доступность MongoDB через ping.
func (r *MongoFileRepository) CheckReady(ctx context.Context) error {
	if err := r.db.Client().Ping(ctx, nil); err != nil {
		return fmt.Errorf("ping MongoDB: %w", err)
	}
	return nil
}
