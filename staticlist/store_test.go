package staticlist

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/clearskye/epic-connector/core"
)

func writeListFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "list.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write list file: %v", err)
	}
	return path
}

func newTestStore(t *testing.T, content string) *Store {
	t.Helper()
	store, err := NewStore(writeListFile(t, content))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func TestStore_ParsesHeaderAndTrims(t *testing.T) {
	store := newTestStore(t, "ID,Name\n10501, Cardiology \n10502,Radiology\n")

	records, err := store.Records(context.Background())
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0]["ID"] != "10501" || records[0]["Name"] != "Cardiology" {
		t.Fatalf("records[0] = %v", records[0])
	}
}

func TestStore_SniffsDelimiter(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"semicolon", "ID;Name\n1;Cardiology\n"},
		{"tab", "ID\tName\n1\tCardiology\n"},
		{"pipe", "ID|Name\n1|Cardiology\n"},
		{"caret", "ID^Name\n1^Cardiology\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newTestStore(t, tc.content)
			records, err := store.Records(context.Background())
			if err != nil {
				t.Fatalf("Records: %v", err)
			}
			if len(records) != 1 || records[0]["Name"] != "Cardiology" {
				t.Fatalf("records = %v", records)
			}
		})
	}
}

func TestStore_ExactMatchWinsOverPaging(t *testing.T) {
	store := newTestStore(t, "ID,Name\n1,Cardiology\n2,Radiology\n3,Oncology\n")

	page, err := store.Search(context.Background(), Query{
		Field:    "Name",
		Value:    "Radiology",
		PageSize: 10,
		Offset:   2,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(page.Records) != 1 || page.Records[0]["ID"] != "2" {
		t.Fatalf("page = %v", page.Records)
	}
	if page.Total != 3 {
		t.Fatalf("total = %d, want 3", page.Total)
	}
}

func TestStore_FilterMissReturnsEmpty(t *testing.T) {
	store := newTestStore(t, "ID,Name\n1,Cardiology\n")

	page, err := store.Search(context.Background(), Query{Field: "Name", Value: "Surgery"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(page.Records) != 0 {
		t.Fatalf("page = %v, want empty", page.Records)
	}
}

func TestStore_Pagination(t *testing.T) {
	store := newTestStore(t, "ID\n1\n2\n3\n4\n5\n")

	page, err := store.Search(context.Background(), Query{PageSize: 2, Offset: 2})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(page.Records) != 2 || page.Records[0]["ID"] != "3" || page.Records[1]["ID"] != "4" {
		t.Fatalf("page = %v", page.Records)
	}

	past, err := store.Search(context.Background(), Query{PageSize: 2, Offset: 10})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(past.Records) != 0 {
		t.Fatalf("page past end = %v, want empty", past.Records)
	}
}

func TestStore_MissingFileIsInternalError(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "absent.csv"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, err := store.Records(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewStore_RequiresPath(t *testing.T) {
	if _, err := NewStore("   "); err == nil {
		t.Fatal("expected error")
	}
}

type countingSource struct {
	loads   int
	records []core.Record
	err     error
}

func (c *countingSource) Records(ctx context.Context) ([]core.Record, error) {
	c.loads++
	return c.records, c.err
}

func newTestCacheService(t *testing.T) repositorycache.CacheService {
	t.Helper()
	config := repositorycache.DefaultConfig()
	config.TTL = time.Minute
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	return service
}

func TestCachedStore_ReadsBaseOnce(t *testing.T) {
	base := &countingSource{records: []core.Record{{"ID": "1", "Name": "Cardiology"}}}
	cached, err := NewCachedStore(base, newTestCacheService(t), "departments")
	if err != nil {
		t.Fatalf("NewCachedStore: %v", err)
	}

	for i := 0; i < 3; i++ {
		records, err := cached.Records(context.Background())
		if err != nil {
			t.Fatalf("Records: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("records = %v", records)
		}
	}
	if base.loads != 1 {
		t.Fatalf("base loads = %d, want 1", base.loads)
	}
}

func TestCachedStore_InvalidateForcesReload(t *testing.T) {
	base := &countingSource{records: []core.Record{{"ID": "1"}}}
	cached, err := NewCachedStore(base, newTestCacheService(t), "departments")
	if err != nil {
		t.Fatalf("NewCachedStore: %v", err)
	}

	if _, err := cached.Records(context.Background()); err != nil {
		t.Fatalf("Records: %v", err)
	}
	if err := cached.Invalidate(context.Background()); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, err := cached.Records(context.Background()); err != nil {
		t.Fatalf("Records: %v", err)
	}
	if base.loads != 2 {
		t.Fatalf("base loads = %d, want 2", base.loads)
	}
}

func TestCachedStore_PropagatesBaseErrors(t *testing.T) {
	wantErr := errors.New("disk gone")
	base := &countingSource{err: wantErr}
	cached, err := NewCachedStore(base, newTestCacheService(t), "departments")
	if err != nil {
		t.Fatalf("NewCachedStore: %v", err)
	}
	if _, err := cached.Records(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestListCacheKey_EscapesName(t *testing.T) {
	key := ListCacheKey("security classes/v2")
	const want = "epic-connector::staticlist::v1::security%20classes%2Fv2"
	if key != want {
		t.Fatalf("key = %q, want %q", key, want)
	}
}

func TestCachedStore_SearchUsesCache(t *testing.T) {
	base := &countingSource{records: []core.Record{
		{"ID": "1", "Name": "Cardiology"},
		{"ID": "2", "Name": "Radiology"},
	}}
	cached, err := NewCachedStore(base, newTestCacheService(t), "departments")
	if err != nil {
		t.Fatalf("NewCachedStore: %v", err)
	}

	page, err := cached.Search(context.Background(), Query{Field: "Name", Value: "Radiology"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(page.Records) != 1 || page.Records[0]["ID"] != "2" {
		t.Fatalf("page = %v", page.Records)
	}
	if _, err := cached.Search(context.Background(), Query{PageSize: 1}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if base.loads != 1 {
		t.Fatalf("base loads = %d, want 1", base.loads)
	}
}
