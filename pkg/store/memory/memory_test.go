package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/crudgen/pkg/store"
)

// --- Helpers ---

func newPeopleDB(t *testing.T) *DB {
	t.Helper()
	db := New()
	require.NoError(t, db.CreateTable(TableConfig{
		Name:    "persons",
		Columns: []string{"firstName", "parentId"},
		Relations: []store.RelationConfig{
			{Name: "children", Table: "persons", ForeignKey: "parentId"},
			{Name: "possessions", Table: "possessions", ForeignKey: "person_id"},
		},
	}))
	require.NoError(t, db.CreateTable(TableConfig{
		Name:    "possessions",
		Columns: []string{"name", "person_id"},
	}))
	return db
}

func mustModel(t *testing.T, db *DB, name string) store.Model {
	t.Helper()
	m, err := db.Model(name)
	require.NoError(t, err)
	return m
}

// --- Table management ---

func TestCreateTable_Validation(t *testing.T) {
	db := New()
	assert.Error(t, db.CreateTable(TableConfig{}))
	require.NoError(t, db.CreateTable(TableConfig{Name: "t"}))
	assert.Error(t, db.CreateTable(TableConfig{Name: "t"}), "duplicate table")
	assert.Equal(t, []string{"t"}, db.Tables())
}

func TestModel_UnknownTable(t *testing.T) {
	_, err := New().Model("nope")
	assert.True(t, errors.Is(err, store.ErrNoTable))
}

// --- Direct queries ---

func TestInsert_GeneratesSequentialIDs(t *testing.T) {
	ctx := context.Background()
	db := newPeopleDB(t)
	people := mustModel(t, db, "persons")

	first, err := people.Insert(ctx, store.Record{"firstName": "Alice"})
	require.NoError(t, err)
	second, err := people.Insert(ctx, store.Record{"firstName": "Bob", "id": 99})
	require.NoError(t, err)

	assert.Equal(t, store.Record{"id": int64(1), "firstName": "Alice"}, first)
	assert.Equal(t, int64(2), second["id"], "client supplied id is ignored")
}

func TestWhere_FiltersByEquality(t *testing.T) {
	ctx := context.Background()
	db := newPeopleDB(t)
	people := mustModel(t, db, "persons")

	_, _ = people.Insert(ctx, store.Record{"firstName": "Alice"})
	_, _ = people.Insert(ctx, store.Record{"firstName": "Bob"})

	all, err := people.Where(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	bobs, err := people.Where(ctx, store.Record{"firstName": "Bob"})
	require.NoError(t, err)
	require.Len(t, bobs, 1)
	assert.Equal(t, "Bob", bobs[0]["firstName"])

	byStringID, err := people.Where(ctx, store.Record{"id": "1"})
	require.NoError(t, err)
	require.Len(t, byStringID, 1)
	assert.Equal(t, "Alice", byStringID[0]["firstName"])

	none, err := people.Where(ctx, store.Record{"firstName": "Carol"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestWhere_UnknownColumn(t *testing.T) {
	db := newPeopleDB(t)
	_, err := mustModel(t, db, "persons").Where(context.Background(), store.Record{"bad": true})

	var colErr *store.ColumnError
	require.ErrorAs(t, err, &colErr)
	assert.Equal(t, "bad", colErr.Column)
}

func TestWhere_Schemaless(t *testing.T) {
	db := New()
	require.NoError(t, db.CreateTable(TableConfig{Name: "notes"}))
	notes := mustModel(t, db, "notes")

	_, err := notes.Insert(context.Background(), store.Record{"anything": "goes"})
	require.NoError(t, err)
	rows, err := notes.Where(context.Background(), store.Record{"bad": true})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestFirst(t *testing.T) {
	ctx := context.Background()
	db := newPeopleDB(t)
	people := mustModel(t, db, "persons")

	got, err := people.First(ctx, store.Record{"id": 1})
	require.NoError(t, err)
	assert.Nil(t, got)

	_, _ = people.Insert(ctx, store.Record{"firstName": "Alice"})
	got, err = people.First(ctx, store.Record{"id": 1})
	require.NoError(t, err)
	assert.Equal(t, "Alice", got["firstName"])
}

func TestPatchByID(t *testing.T) {
	ctx := context.Background()
	db := newPeopleDB(t)
	people := mustModel(t, db, "persons")
	_, _ = people.Insert(ctx, store.Record{"firstName": "Alice"})

	updated, err := people.PatchByID(ctx, "1", store.Record{"firstName": "Sly"})
	require.NoError(t, err)
	assert.Equal(t, store.Record{"id": int64(1), "firstName": "Sly"}, updated)

	_, err = people.PatchByID(ctx, 42, store.Record{"firstName": "Nobody"})
	var nf *store.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Record with id 42 not found", err.Error())
}

func TestDeleteByID(t *testing.T) {
	ctx := context.Background()
	db := newPeopleDB(t)
	people := mustModel(t, db, "persons")
	_, _ = people.Insert(ctx, store.Record{"firstName": "Alice"})

	n, err := people.DeleteByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = people.DeleteByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	ctx := context.Background()
	db := newPeopleDB(t)
	people := mustModel(t, db, "persons")

	rec, _ := people.Insert(ctx, store.Record{"firstName": "Alice"})
	rec["firstName"] = "Mallory"

	got, _ := people.First(ctx, store.Record{"id": 1})
	assert.Equal(t, "Alice", got["firstName"])
}

// --- Relations ---

func TestRelated_SelfReferential(t *testing.T) {
	ctx := context.Background()
	db := newPeopleDB(t)
	people := mustModel(t, db, "persons")

	gary, _ := people.Insert(ctx, store.Record{"firstName": "Gary"})
	other, _ := people.Insert(ctx, store.Record{"firstName": "Other"})
	_, _ = people.Insert(ctx, store.Record{"firstName": "Barry", "parentId": gary["id"]})
	_, _ = people.Insert(ctx, store.Record{"firstName": "Stray", "parentId": other["id"]})

	kids := people.Related("children").For("1")

	rows, err := kids.Where(ctx, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Barry", rows[0]["firstName"])

	harry, err := kids.Insert(ctx, store.Record{"firstName": "Harry"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), harry["parentId"], "foreign key is normalised to an integer")

	rows, _ = kids.Where(ctx, nil)
	assert.Len(t, rows, 2)
}

func TestRelated_ScopedMutations(t *testing.T) {
	ctx := context.Background()
	db := newPeopleDB(t)
	people := mustModel(t, db, "persons")
	_, _ = people.Insert(ctx, store.Record{"firstName": "A"})
	_, _ = people.Insert(ctx, store.Record{"firstName": "B"})

	possessionsOfA := people.Related("possessions").For(1)
	possessionsOfB := people.Related("possessions").For(2)

	watch, err := possessionsOfA.Insert(ctx, store.Record{"name": "Watch"})
	require.NoError(t, err)

	got, err := possessionsOfB.First(ctx, store.Record{"id": watch["id"]})
	require.NoError(t, err)
	assert.Nil(t, got, "B cannot see A's possession")

	_, err = possessionsOfB.PatchByID(ctx, watch["id"], store.Record{"name": "Stolen"})
	assert.True(t, store.IsNotFound(err))

	n, err := possessionsOfB.DeleteByID(ctx, watch["id"])
	require.NoError(t, err)
	assert.Zero(t, n)

	patched, err := possessionsOfA.PatchByID(ctx, watch["id"], store.Record{"name": "Pocket watch"})
	require.NoError(t, err)
	assert.Equal(t, "Pocket watch", patched["name"])
	assert.Equal(t, int64(1), patched["person_id"])

	n, err = possessionsOfA.DeleteByID(ctx, watch["id"])
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRelated_PatchKeepsParent(t *testing.T) {
	ctx := context.Background()
	people := mustModel(t, newPeopleDB(t), "persons")
	_, _ = people.Insert(ctx, store.Record{"firstName": "A"})
	_, _ = people.Insert(ctx, store.Record{"firstName": "B"})
	kids := people.Related("children").For("1")
	kid, err := kids.Insert(ctx, store.Record{"firstName": "Kid"})
	require.NoError(t, err)

	moved, err := kids.PatchByID(ctx, kid["id"], store.Record{"parentId": 2})
	require.NoError(t, err)
	assert.Equal(t, int64(1), moved["parentId"])

	rows, err := people.Related("children").For(2).Where(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestInsert_KeyColumnsAreIntegers(t *testing.T) {
	ctx := context.Background()
	possessions := mustModel(t, newPeopleDB(t), "possessions")

	rec, err := possessions.Insert(ctx, store.Record{"name": "42", "person_id": "1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec["person_id"])
	assert.Equal(t, "42", rec["name"], "other columns keep their type")

	rec, err = possessions.PatchByID(ctx, rec["id"], store.Record{"person_id": float64(2)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec["person_id"])

	assert.True(t, isKeyColumn("parentId"))
	assert.True(t, isKeyColumn("person_id"))
	assert.False(t, isKeyColumn("Id"))
	assert.False(t, isKeyColumn("name"))
}

func TestRelated_Unknown(t *testing.T) {
	db := newPeopleDB(t)
	_, err := mustModel(t, db, "persons").Related("pets").For(1).Where(context.Background(), nil)

	var relErr *store.RelationError
	require.ErrorAs(t, err, &relErr)
	assert.Equal(t, "pets", relErr.Relation)
}

// --- Seed & reset ---

func TestSeedAndReset(t *testing.T) {
	ctx := context.Background()
	db := New()
	require.NoError(t, db.CreateTable(TableConfig{
		Name: "persons",
		Seed: []store.Record{{"firstName": "Alice"}, {"firstName": "Bob"}},
	}))
	count, err := db.Count("persons")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	people := mustModel(t, db, "persons")
	_, _ = people.Insert(ctx, store.Record{"firstName": "Carol"})

	require.NoError(t, db.Reset())
	count, _ = db.Count("persons")
	assert.Equal(t, 2, count)

	carol, _ := people.Insert(ctx, store.Record{"firstName": "Carol"})
	assert.Equal(t, int64(3), carol["id"])

	require.NoError(t, db.Seed("persons", []store.Record{{"firstName": "Dan"}}))
	count, _ = db.Count("persons")
	assert.Equal(t, 4, count)
}

// --- Concurrency ---

func TestConcurrentInserts(t *testing.T) {
	ctx := context.Background()
	db := New()
	require.NoError(t, db.CreateTable(TableConfig{Name: "events"}))
	events := mustModel(t, db, "events")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = events.Insert(ctx, store.Record{"n": i})
		}(i)
	}
	wg.Wait()

	rows, err := events.Where(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 50)

	seen := make(map[string]bool)
	for _, r := range rows {
		seen[store.Key(r["id"])] = true
	}
	assert.Len(t, seen, 50, "ids are unique")
}
