package student

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRoster() *Roster {
	return NewRoster(nil,
		Record{ID: "S003", Name: "Carl Jones", Marks: Marks{"Mathematics": 60, "Physics": 80}},
		Record{ID: "S001", Name: "Jane Doe", Marks: Marks{"Mathematics": 90, "English": 85}},
		Record{ID: "S002", Name: "John Smith", Marks: Marks{"Mathematics": 40}},
	)
}

func ids(records []Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func TestRoster_List(t *testing.T) {
	rst := newTestRoster()
	assert.Equal(t, []string{"S001", "S002", "S003"}, ids(rst.List()))
	assert.Equal(t, DefaultGradeScale, rst.Scale())

	// callers cannot alias the roster state
	list := rst.List()
	list[0].Marks["Mathematics"] = 0
	r, ok := rst.Get("S001")
	require.True(t, ok)
	assert.Equal(t, 90.0, r.Marks["Mathematics"])
}

func TestRoster_UpsertGet(t *testing.T) {
	rst := NewRoster(nil)
	in := Record{ID: "S001", Name: "Jane Doe", Marks: Marks{"Mathematics": 90}}
	rst.Upsert(in)

	got, ok := rst.Get("S001")
	require.True(t, ok)
	assert.Equal(t, in, got)

	// no aliasing in either direction
	in.Marks["Mathematics"] = 10
	got.Marks["English"] = 50
	again, _ := rst.Get("S001")
	assert.Equal(t, Marks{"Mathematics": 90}, again.Marks)

	// full replace, no merge
	rst.Upsert(Record{ID: "S001", Name: "Jane Roe", Marks: Marks{"Physics": 70}})
	again, _ = rst.Get("S001")
	assert.Equal(t, Record{ID: "S001", Name: "Jane Roe", Marks: Marks{"Physics": 70}}, again)
	assert.Equal(t, 1, rst.Count())

	_, ok = rst.Get("S404")
	assert.False(t, ok)
}

func TestRoster_DeleteClear(t *testing.T) {
	rst := newTestRoster()
	assert.True(t, rst.Delete("S002"))
	assert.False(t, rst.Delete("S002"))
	assert.False(t, rst.Delete("S404"))
	assert.Equal(t, 2, rst.Count())

	assert.Equal(t, 2, rst.Clear())
	assert.Zero(t, rst.Count())
	assert.Empty(t, rst.List())
}

func TestRoster_Replace(t *testing.T) {
	rst := newTestRoster()
	rst.Replace([]Record{{ID: "S009", Name: "New Kid"}})
	assert.Equal(t, []string{"S009"}, ids(rst.List()))
}

func TestRoster_Search(t *testing.T) {
	rst := newTestRoster()
	tests := []struct {
		query string
		want  []string
	}{
		{query: "jane", want: []string{"S001"}},
		{query: "  JO ", want: []string{"S002", "S003"}},
		{query: "s00", want: []string{"S001", "S002", "S003"}},
		{query: "", want: []string{"S001", "S002", "S003"}},
		{query: "zzz", want: []string{}},
	}
	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			assert.Equal(t, tc.want, ids(rst.Search(tc.query)))
		})
	}
}

func TestRoster_InRange(t *testing.T) {
	rst := newTestRoster() // averages: S001 87.5, S002 40, S003 70
	assert.Equal(t, []string{"S001", "S003"}, ids(rst.InRange(70, 87.5)))
	assert.Equal(t, []string{"S002"}, ids(rst.InRange(0, 69.99)))
	assert.Empty(t, rst.InRange(95, 100))
}

func TestRoster_Performers(t *testing.T) {
	rst := newTestRoster()
	rst.Upsert(Record{ID: "S000", Name: "Tie Breaker", Marks: Marks{"Mathematics": 70}})

	assert.Equal(t, []string{"S001", "S000", "S003", "S002"}, ids(rst.TopPerformers(10)))
	assert.Equal(t, []string{"S001", "S000"}, ids(rst.TopPerformers(2)))
	assert.Equal(t, []string{"S002", "S000", "S003"}, ids(rst.BottomPerformers(3)))
	assert.Empty(t, rst.TopPerformers(0))
	assert.Empty(t, NewRoster(nil).BottomPerformers(3))
}

func TestRoster_Concurrent(t *testing.T) {
	rst := NewRoster(nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('A' + i%26))
			rst.Upsert(Record{ID: id, Name: "Name", Marks: Marks{"Mathematics": float64(i)}})
			_ = rst.List()
			_ = rst.Statistics()
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 26, rst.Count())
}
