package dbclient

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"workbench/internal/domain"
	"workbench/internal/logging"
)

// mongoConnector implements Connector for MongoDB. Queries are JSON
// documents rather than SQL.
type mongoConnector struct {
	client  *mongo.Client
	dbName  string
	decoder *Decoder
}

// mongoQuery is the JSON structure users write for MongoDB queries.
type mongoQuery struct {
	Collection string         `json:"collection"`
	Operation  string         `json:"operation,omitempty"` // find (default), aggregate, insertOne, updateMany, deleteMany
	Filter     map[string]any `json:"filter,omitempty"`
	Projection map[string]any `json:"projection,omitempty"`
	Sort       map[string]any `json:"sort,omitempty"`
	Limit      int64          `json:"limit,omitempty"`
	Document   map[string]any `json:"document,omitempty"`
	Update     map[string]any `json:"update,omitempty"`
	Pipeline   []any          `json:"pipeline,omitempty"`
}

// buildMongoURI accepts a full mongodb:// or mongodb+srv:// URI in Host
// (with <password> placeholders filled in) or builds one from host:port.
func buildMongoURI(conn *domain.DbConnection) string {
	if strings.HasPrefix(conn.Host, "mongodb+srv://") || strings.HasPrefix(conn.Host, "mongodb://") {
		uri := conn.Host
		if conn.Password != "" {
			uri = strings.ReplaceAll(uri, "<password>", conn.Password)
			uri = strings.ReplaceAll(uri, "<db_password>", conn.Password)
		}
		return uri
	}
	u := url.URL{Scheme: "mongodb", Host: conn.Host, Path: "/"}
	if conn.User != "" {
		u.User = url.UserPassword(conn.User, conn.Password)
	}
	return u.String()
}

// mongoDatabaseName prefers the profile's db_name, then the URI path.
func mongoDatabaseName(conn *domain.DbConnection, uri string) string {
	if conn.DBName != "" {
		return conn.DBName
	}
	if u, err := url.Parse(uri); err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}
	return "test"
}

func newMongoConnector(uri, dbName string) (*mongoConnector, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%w: mongo: %v", ErrConnect, err)
	}

	dec := NewDecoder()
	dec.Prepend(bsonValue)

	log := logging.WithComponent("mongo")
	log.Debug().Str("database", dbName).Msg("client created")
	return &mongoConnector{client: client, dbName: dbName, decoder: dec}, nil
}

// unmarshalEJSON re-encodes a map[string]any field and uses bson.UnmarshalExtJSON
// so Extended JSON types ($oid, $date, $numberLong) become BSON values.
func unmarshalEJSON(field map[string]any) map[string]any {
	if field == nil {
		return nil
	}
	raw, err := json.Marshal(field)
	if err != nil {
		return field
	}
	var doc bson.D
	if err := bson.UnmarshalExtJSON(raw, false, &doc); err != nil {
		log := logging.WithComponent("mongo")
		log.Warn().Err(err).Msg("extended json parse")
		return field
	}
	result := make(map[string]any, len(doc))
	for _, elem := range doc {
		result[elem.Key] = elem.Value
	}
	return result
}

func (m *mongoConnector) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := m.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("%w: %v", ErrConnect, err)
	}
	return nil
}

func (m *mongoConnector) Query(ctx context.Context, query string, maxRows int) (*domain.QueryResult, error) {
	var mq mongoQuery
	if err := json.Unmarshal([]byte(query), &mq); err != nil {
		return nil, fmt.Errorf("%w: invalid query JSON: %v", ErrQuery, err)
	}
	if mq.Collection == "" {
		return nil, fmt.Errorf("%w: query must specify 'collection'", ErrQuery)
	}

	mq.Filter = unmarshalEJSON(mq.Filter)
	mq.Document = unmarshalEJSON(mq.Document)
	mq.Update = unmarshalEJSON(mq.Update)
	mq.Projection = unmarshalEJSON(mq.Projection)
	mq.Sort = unmarshalEJSON(mq.Sort)
	if mq.Filter == nil {
		mq.Filter = map[string]any{}
	}

	coll := m.client.Database(m.dbName).Collection(mq.Collection)

	switch mq.Operation {
	case "", "find":
		return m.execFind(ctx, coll, mq, maxRows)
	case "aggregate":
		return m.execAggregate(ctx, coll, mq, maxRows)
	case "insertOne":
		return m.execInsertOne(ctx, coll, mq)
	case "updateMany":
		return m.execUpdateMany(ctx, coll, mq)
	case "deleteMany":
		return m.execDeleteMany(ctx, coll, mq)
	default:
		return nil, fmt.Errorf("%w: unsupported operation: %s", ErrQuery, mq.Operation)
	}
}

func (m *mongoConnector) execFind(ctx context.Context, coll *mongo.Collection, mq mongoQuery, maxRows int) (*domain.QueryResult, error) {
	opts := options.Find()
	if mq.Projection != nil {
		opts.SetProjection(mq.Projection)
	}
	if mq.Sort != nil {
		opts.SetSort(mq.Sort)
	}
	if mq.Limit > 0 {
		opts.SetLimit(mq.Limit)
	}

	cursor, err := coll.Find(ctx, mq.Filter, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: find: %v", ErrQuery, err)
	}
	return m.collect(ctx, cursor, maxRows)
}

func (m *mongoConnector) execAggregate(ctx context.Context, coll *mongo.Collection, mq mongoQuery, maxRows int) (*domain.QueryResult, error) {
	pipeline := mq.Pipeline
	if pipeline == nil {
		pipeline = []any{}
	}
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("%w: aggregate: %v", ErrQuery, err)
	}
	return m.collect(ctx, cursor, maxRows)
}

func (m *mongoConnector) execInsertOne(ctx context.Context, coll *mongo.Collection, mq mongoQuery) (*domain.QueryResult, error) {
	if mq.Document == nil {
		return nil, fmt.Errorf("%w: insertOne requires 'document'", ErrQuery)
	}
	res, err := coll.InsertOne(ctx, mq.Document)
	if err != nil {
		return nil, fmt.Errorf("%w: insertOne: %v", ErrQuery, err)
	}
	id := m.decoder.Decode(Column{Name: "inserted_id", Type: "BSON"}, res.InsertedID)
	return domain.NewQueryResult([]string{"inserted_id"}, [][]string{{id}}), nil
}

func (m *mongoConnector) execUpdateMany(ctx context.Context, coll *mongo.Collection, mq mongoQuery) (*domain.QueryResult, error) {
	if mq.Update == nil {
		return nil, fmt.Errorf("%w: updateMany requires 'update'", ErrQuery)
	}
	res, err := coll.UpdateMany(ctx, mq.Filter, mq.Update)
	if err != nil {
		return nil, fmt.Errorf("%w: updateMany: %v", ErrQuery, err)
	}
	return domain.NewQueryResult(
		[]string{"matched", "modified"},
		[][]string{{strconv.FormatInt(res.MatchedCount, 10), strconv.FormatInt(res.ModifiedCount, 10)}},
	), nil
}

func (m *mongoConnector) execDeleteMany(ctx context.Context, coll *mongo.Collection, mq mongoQuery) (*domain.QueryResult, error) {
	res, err := coll.DeleteMany(ctx, mq.Filter)
	if err != nil {
		return nil, fmt.Errorf("%w: deleteMany: %v", ErrQuery, err)
	}
	return domain.NewQueryResult([]string{"deleted"}, [][]string{{strconv.FormatInt(res.DeletedCount, 10)}}), nil
}

// collect drains cursor into a table. Columns are the union of all
// document keys: _id first, then alphabetical.
func (m *mongoConnector) collect(ctx context.Context, cursor *mongo.Cursor, maxRows int) (*domain.QueryResult, error) {
	defer cursor.Close(ctx)

	var docs []bson.D
	for cursor.Next(ctx) {
		if maxRows > 0 && len(docs) >= maxRows {
			break
		}
		var doc bson.D
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: decode: %v", ErrQuery, err)
		}
		docs = append(docs, doc)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("%w: cursor: %v", ErrQuery, err)
	}

	seen := map[string]bool{}
	var columns []string
	for _, doc := range docs {
		for _, elem := range doc {
			if !seen[elem.Key] {
				seen[elem.Key] = true
				columns = append(columns, elem.Key)
			}
		}
	}
	sort.SliceStable(columns, func(i, j int) bool {
		if columns[i] == "_id" {
			return true
		}
		if columns[j] == "_id" {
			return false
		}
		return columns[i] < columns[j]
	})

	rows := make([][]string, 0, len(docs))
	for _, doc := range docs {
		byKey := make(map[string]any, len(doc))
		for _, elem := range doc {
			byKey[elem.Key] = elem.Value
		}
		row := make([]string, len(columns))
		for j, name := range columns {
			row[j] = m.decoder.Decode(Column{Name: name, Type: "BSON"}, byKey[name])
		}
		rows = append(rows, row)
	}
	return domain.NewQueryResult(columns, rows), nil
}

func (m *mongoConnector) Schema(ctx context.Context) (map[string][]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	db := m.client.Database(m.dbName)
	collections, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("%w: list collections: %v", ErrQuery, err)
	}

	schema := make(map[string][]string, len(collections))
	for _, name := range collections {
		fields := []string{}
		var doc bson.D
		err := db.Collection(name).FindOne(ctx, bson.M{}).Decode(&doc)
		if err == nil {
			for _, elem := range doc {
				fields = append(fields, elem.Key)
			}
		}
		schema[name] = fields
	}
	return schema, nil
}

func (m *mongoConnector) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

// bsonValue renders driver-specific BSON types before the generic steps.
func bsonValue(_ Column, v any) (string, bool) {
	switch x := v.(type) {
	case bson.ObjectID:
		return x.Hex(), true
	case bson.DateTime:
		return FormatTimestamp(x.Time()), true
	case bson.Decimal128:
		return x.String(), true
	case bson.Binary:
		return fmt.Sprintf("<blob len=%d>", len(x.Data)), true
	case bson.D, bson.M, bson.A:
		b, err := json.Marshal(plainBSON(x))
		if err != nil {
			return "", false
		}
		return string(b), true
	}
	return "", false
}

// plainBSON converts nested BSON containers into maps and slices that
// encode as ordinary JSON.
func plainBSON(v any) any {
	switch x := v.(type) {
	case bson.D:
		out := make(map[string]any, len(x))
		for _, e := range x {
			out[e.Key] = plainBSON(e.Value)
		}
		return out
	case bson.M:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = plainBSON(val)
		}
		return out
	case bson.A:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = plainBSON(val)
		}
		return out
	case bson.ObjectID:
		return x.Hex()
	case bson.DateTime:
		return FormatTimestamp(x.Time())
	case bson.Decimal128:
		return x.String()
	}
	return v
}
