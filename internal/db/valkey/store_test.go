package valkey

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/patentsearch/internal/db"
)

// --- client.go tests ---

func TestPing_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := newTestStore(c)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := newTestStore(c)
	if err := s.Ping(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

// --- hash.go tests ---

func TestHSetMulti_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisInt64(2)),
			mock.Result(mock.RedisInt64(2)),
		})

	s := newTestStore(c)
	err := s.HSetMulti(context.Background(), []db.HashSetItem{
		{Key: "patentsearch:patent:US-1", Fields: map[string]string{"title": "a"}},
		{Key: "patentsearch:patent:US-2", Fields: map[string]string{"title": "b"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHSetMulti_ReportsFailingKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisInt64(2)),
			mock.ErrorResult(errors.New("OOM")),
		})

	s := newTestStore(c)
	err := s.HSetMulti(context.Background(), []db.HashSetItem{
		{Key: "k1", Fields: map[string]string{"f": "v"}},
		{Key: "k2", Fields: map[string]string{"f": "v"}},
	})
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpHSet {
		t.Fatalf("err = %v, want *db.Error HSET", err)
	}
	if dbErr.Key != "k2" || !strings.Contains(err.Error(), "k2") {
		t.Errorf("error should name the key: %v", err)
	}
}

func TestHSetMulti_Empty(t *testing.T) {
	s := newTestStore(nil)
	if err := s.HSetMulti(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDel_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("DEL", "mykey")).
		Return(mock.Result(mock.RedisInt64(1)))

	s := newTestStore(c)
	if err := s.Del(context.Background(), "mykey"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// --- kv.go tests ---

func TestGet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "mykey")).
		Return(mock.Result(mock.RedisString("hello")))

	s := newTestStore(c)
	data, err := s.Get(context.Background(), "mykey")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("data = %q", data)
	}
}

func TestGet_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "missing")).
		Return(mock.Result(mock.RedisNil()))

	s := newTestStore(c)
	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("err = %v, want ErrKeyNotFound", err)
	}
}

func TestSetWithTTL_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "k", "v", "EX", "60")).
		Return(mock.Result(mock.RedisString("OK")))

	s := newTestStore(c)
	if err := s.SetWithTTL(context.Background(), "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestIncr_ReturnsValue(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("INCR", "counter")).
		Return(mock.Result(mock.RedisInt64(7)))

	s := newTestStore(c)
	n, err := s.Incr(context.Background(), "counter")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 7 {
		t.Errorf("n = %d, want 7", n)
	}
}

func TestExpire_WithNX(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("EXPIRE", "mykey", "300", "NX")).
		Return(mock.Result(mock.RedisInt64(1)))

	s := newTestStore(c)
	if err := s.Expire(context.Background(), "mykey", 5*time.Minute, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// --- index.go tests ---

func TestCreateIndex_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			joined := strings.Join(cmd, " ")
			return cmd[0] == "FT.CREATE" &&
				strings.Contains(joined, "idx ON HASH PREFIX 1 p: SCHEMA") &&
				strings.Contains(joined, "country TAG") &&
				strings.Contains(joined, "vector VECTOR HNSW 10 TYPE FLOAT32 DIM 4 DISTANCE_METRIC COSINE M 16 EF_CONSTRUCTION 200")
		})).
		Return(mock.Result(mock.RedisString("OK")))

	s := newTestStore(c)
	def, err := db.NewIndex("idx", "p:").
		Tag("country").
		Vector("vector", 4, db.DistanceCosine, db.HNSW{M: 16, EFConstruction: 200}).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := s.CreateIndex(context.Background(), def); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateIndex_AlreadyExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), gomock.Any()).
		Return(mock.Result(mock.RedisError("Index already exists")))

	s := newTestStore(c)
	def := &db.IndexDefinition{Name: "idx", Prefix: "p:", Fields: []db.IndexField{{Name: "f", Kind: db.FieldTag}}}
	if err := s.CreateIndex(context.Background(), def); !errors.Is(err, db.ErrIndexExists) {
		t.Errorf("err = %v, want ErrIndexExists", err)
	}
}

func TestDropIndex_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.DROPINDEX", "idx")).
		Return(mock.Result(mock.RedisError("Unknown Index name")))

	s := newTestStore(c)
	if err := s.DropIndex(context.Background(), "idx"); !errors.Is(err, db.ErrIndexNotFound) {
		t.Errorf("err = %v, want ErrIndexNotFound", err)
	}
}

func TestIndexInfo_Valkey(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.INFO", "idx")).
		Return(mock.Result(mock.RedisArray(
			mock.RedisString("index_name"), mock.RedisString("idx"),
			mock.RedisString("num_docs"), mock.RedisInt64(250),
			mock.RedisString("backfill_in_progress"), mock.RedisString("0"),
			mock.RedisString("state"), mock.RedisString("ready"),
		)))

	s := newTestStore(c)
	info, err := s.IndexInfo(context.Background(), "idx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.NumDocs != 250 || info.Indexing {
		t.Errorf("info = %+v", info)
	}
}

func TestIndexInfo_RedisIndexing(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.INFO", "idx")).
		Return(mock.Result(mock.RedisArray(
			mock.RedisString("num_docs"), mock.RedisString("12"),
			mock.RedisString("indexing"), mock.RedisInt64(1),
		)))

	s := newTestStore(c)
	info, err := s.IndexInfo(context.Background(), "idx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.NumDocs != 12 || !info.Indexing {
		t.Errorf("info = %+v", info)
	}
}

func TestIndexInfo_Missing(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.INFO", "idx")).
		Return(mock.Result(mock.RedisError("Unknown Index name")))

	s := newTestStore(c)
	if _, err := s.IndexInfo(context.Background(), "idx"); !errors.Is(err, db.ErrIndexNotFound) {
		t.Errorf("err = %v, want ErrIndexNotFound", err)
	}
}

// --- search.go tests ---

func TestSearchKNN_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH" && cmd[2] == "(@country:{US | EP})=>[KNN 10 @vector $BLOB]"
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(2),
			mock.RedisString("patentsearch:patent:US-1"),
			mock.RedisArray(
				mock.RedisString("__vector_score"), mock.RedisString("0.2"),
				mock.RedisString("assignee"), mock.RedisString("Acme"),
			),
			mock.RedisString("patentsearch:patent:US-2"),
			mock.RedisArray(
				mock.RedisString("__vector_score"), mock.RedisString("1.4"),
			),
		)))

	s := newTestStore(c)
	result, err := s.SearchKNN(context.Background(), &db.KNNQuery{
		IndexName: "idx",
		Filter:    db.PreFilter{Tags: []db.TagFilter{{Field: "country", Values: []string{"US", "EP"}}}},
		Vector:    []float32{0.1, 0.2},
		K:         10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Entries) != 2 {
		t.Fatalf("entries = %d", len(result.Entries))
	}
	// cosine distance 0.2 maps to similarity 0.8
	if got := result.Entries[0].Score; got < 0.79 || got > 0.81 {
		t.Errorf("score = %f, want ~0.8", got)
	}
	if result.Entries[0].Fields["assignee"] != "Acme" {
		t.Errorf("fields = %v", result.Entries[0].Fields)
	}
	if _, ok := result.Entries[0].Fields["__vector_score"]; ok {
		t.Error("__vector_score should be stripped")
	}
	if result.Entries[1].Score != 0 {
		t.Errorf("distance above 1 should floor at 0, got %f", result.Entries[1].Score)
	}
}

func TestSearchKNN_MissingIndex(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), gomock.Any()).
		Return(mock.Result(mock.RedisError("Unknown Index name")))

	s := newTestStore(c)
	_, err := s.SearchKNN(context.Background(), &db.KNNQuery{IndexName: "idx", Vector: []float32{1}, K: 1})
	if !errors.Is(err, db.ErrIndexNotFound) {
		t.Errorf("err = %v, want ErrIndexNotFound", err)
	}
}

func TestSearchKNN_Validation(t *testing.T) {
	s := &Store{}
	ctx := context.Background()

	if _, err := s.SearchKNN(ctx, &db.KNNQuery{Vector: []float32{0.1}, K: 10}); err == nil {
		t.Error("expected error for empty index name")
	}
	if _, err := s.SearchKNN(ctx, &db.KNNQuery{IndexName: "idx", K: 10}); err == nil {
		t.Error("expected error for empty vector")
	}
	if _, err := s.SearchKNN(ctx, &db.KNNQuery{IndexName: "idx", Vector: []float32{0.1}}); err == nil {
		t.Error("expected error for k=0")
	}
}

func TestSearchKNN_EFRuntimeAndReturnFields(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			joined := strings.Join(cmd, " ")
			return cmd[2] == "*=>[KNN 5 @vector $BLOB EF_RUNTIME $EF]" &&
				strings.Contains(joined, "RETURN 2 assignee country") &&
				strings.Contains(joined, "PARAMS 4 BLOB") &&
				strings.HasSuffix(joined, "EF 64 DIALECT 2")
		})).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(0))))

	res, err := newTestStore(c).SearchKNN(context.Background(), &db.KNNQuery{
		IndexName:    "idx",
		Vector:       []float32{1, 0},
		K:            5,
		EFRuntime:    64,
		ReturnFields: []string{"assignee", "country"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 0 || len(res.Entries) != 0 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestVectorToBytes(t *testing.T) {
	b := VectorToBytes([]float32{1.0, 0})
	if len(b) != 8 {
		t.Fatalf("expected 8 bytes, got %d", len(b))
	}
	// 1.0f little-endian = 00 00 80 3f
	if b[2] != 0x80 || b[3] != 0x3f {
		t.Errorf("unexpected encoding % x", b[:4])
	}
}

func TestCreateIndex_InvalidDefinitionNotSent(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl) // no Do expected

	err := newTestStore(c).CreateIndex(context.Background(), &db.IndexDefinition{Name: "idx"})
	if err == nil || !strings.Contains(err.Error(), "prefix is required") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func newTestStore(c rueidis.Client) *Store {
	return &Store{client: c}
}
