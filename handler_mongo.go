package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCollection captures the subset of collection operations the
// handler performs.
type MongoCollection interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	UpdateMany(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

// mongoHandler serves the document-store backend. Operations are fully
// parameter-driven: collection, filter, document and update document all
// travel in the request parameters, never in query text.
type mongoHandler struct {
	cfg NetworkConfig
	log *slog.Logger
}

func newMongoHandler(cfg NetworkConfig, log *slog.Logger) Handler {
	return &mongoHandler{cfg: cfg, log: log}
}

func (h *mongoHandler) Backend() Backend { return BackendMongoDB }

func (h *mongoHandler) Execute(ctx context.Context, req Request) (any, error) {
	if !h.cfg.Enabled {
		return nil, &UnavailableError{Backend: BackendMongoDB}
	}
	op := strings.ToLower(req.Operation)
	switch op {
	case "find", "insert", "update", "delete":
	default:
		return nil, &UnsupportedOperationError{Backend: BackendMongoDB, Operation: req.Operation}
	}

	uri := fmt.Sprintf("mongodb://%s:%d", h.cfg.Host, h.cfg.Port)
	h.log.Debug("opening connection", slog.String("backend", string(BackendMongoDB)))
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, execErr(BackendMongoDB, err)
	}
	defer func() { _ = client.Disconnect(context.WithoutCancel(ctx)) }()
	if err := client.Ping(ctx, nil); err != nil {
		return nil, execErr(BackendMongoDB, err)
	}

	coll := client.Database(h.cfg.Database).Collection(collectionName(req.Parameters))
	return h.run(ctx, coll, req)
}

// run executes a validated operation against a collection. Split from
// Execute so tests can drive it with a stub collection.
func (h *mongoHandler) run(ctx context.Context, coll MongoCollection, req Request) (any, error) {
	switch strings.ToLower(req.Operation) {
	case "find":
		return h.find(ctx, coll, req)
	case "insert":
		return h.insert(ctx, coll, req)
	case "update":
		return h.update(ctx, coll, req)
	default:
		return h.delete(ctx, coll, req)
	}
}

func (h *mongoHandler) find(ctx context.Context, coll MongoCollection, req Request) (any, error) {
	cursor, err := coll.Find(ctx, mappingParam(req.Parameters, "query"))
	if err != nil {
		return nil, execErr(BackendMongoDB, err)
	}
	defer func() { _ = cursor.Close(ctx) }()
	docs := []map[string]any{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, execErr(BackendMongoDB, err)
	}
	for _, doc := range docs {
		if id, ok := doc["_id"]; ok {
			doc["_id"] = identifierString(id)
		}
	}
	return docs, nil
}

func (h *mongoHandler) insert(ctx context.Context, coll MongoCollection, req Request) (any, error) {
	res, err := coll.InsertOne(ctx, mappingParam(req.Parameters, "document"))
	if err != nil {
		return nil, execErr(BackendMongoDB, err)
	}
	return map[string]any{"inserted_id": identifierString(res.InsertedID)}, nil
}

func (h *mongoHandler) update(ctx context.Context, coll MongoCollection, req Request) (any, error) {
	res, err := coll.UpdateMany(ctx,
		mappingParam(req.Parameters, "query"),
		mappingParam(req.Parameters, "update"))
	if err != nil {
		return nil, execErr(BackendMongoDB, err)
	}
	return map[string]any{
		"matched_count":  res.MatchedCount,
		"modified_count": res.ModifiedCount,
	}, nil
}

func (h *mongoHandler) delete(ctx context.Context, coll MongoCollection, req Request) (any, error) {
	res, err := coll.DeleteMany(ctx, mappingParam(req.Parameters, "query"))
	if err != nil {
		return nil, execErr(BackendMongoDB, err)
	}
	return map[string]any{"deleted_count": res.DeletedCount}, nil
}

func collectionName(params map[string]any) string {
	if name, ok := params["collection"].(string); ok && name != "" {
		return name
	}
	return "default"
}

func mappingParam(params map[string]any, key string) bson.M {
	if m, ok := params[key].(map[string]any); ok {
		return bson.M(m)
	}
	return bson.M{}
}

// identifierString converts a backend-native identifier to its string
// form so documents serialize portably.
func identifierString(id any) string {
	switch v := id.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
