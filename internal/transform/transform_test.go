package transform

import (
	"testing"
	"time"

	"csvpivot/pkg/records"
)

func TestProjections(t *testing.T) {
	t.Parallel()

	in := []records.Record{{"a": float64(1), "b": "x", "c": true}}

	out := RenameField{From: "a", To: "z"}.Apply(in)
	if _, ok := out[0]["a"]; ok {
		t.Fatalf("rename left the source field behind: %v", out[0])
	}
	if out[0]["z"] != float64(1) {
		t.Fatalf("rename lost the value: %v", out[0])
	}
	if in[0]["a"] != float64(1) {
		t.Fatal("rename mutated its input")
	}

	out = RemoveFields{Fields: []string{"b", "missing"}}.Apply(in)
	if len(out[0]) != 2 {
		t.Fatalf("remove: %v", out[0])
	}

	out = SelectFields{Fields: []string{"a", "missing"}}.Apply(in)
	if len(out[0]) != 1 || out[0]["a"] != float64(1) {
		t.Fatalf("select: %v", out[0])
	}
	if _, ok := out[0]["missing"]; ok {
		t.Fatal("select materialized an absent field")
	}
}

func TestTransformAndCalculatedFields(t *testing.T) {
	t.Parallel()

	in := []records.Record{{"n": float64(2)}, {"n": float64(3)}}

	out := TransformField{Field: "n", Fn: func(v any, _ records.Record) any {
		return v.(float64) * 10
	}}.Apply(in)
	if out[0]["n"] != float64(20) || out[1]["n"] != float64(30) {
		t.Fatalf("transformField: %v", out)
	}
	if in[0]["n"] != float64(2) {
		t.Fatal("transformField mutated its input")
	}

	out = AddCalculatedField{Field: "double", Fn: func(row records.Record) any {
		return row.Value("n").(float64) * 2
	}}.Apply(in)
	if out[1]["double"] != float64(6) {
		t.Fatalf("addCalculatedField: %v", out[1])
	}
}

func TestFillMissing(t *testing.T) {
	t.Parallel()

	in := []records.Record{
		{"city": "Brno"},
		{"city": nil},
		{"city": ""},
		{"other": true},
	}

	out := FillMissing{Field: "city", Value: "unknown"}.Apply(in)
	if out[0]["city"] != "Brno" {
		t.Fatalf("fill overwrote a present value: %v", out[0])
	}
	for i := 1; i < len(out); i++ {
		if out[i]["city"] != "unknown" {
			t.Fatalf("row %d not filled: %v", i, out[i])
		}
	}

	out = FillMissing{Field: "city", Compute: func(row records.Record) any {
		if row.Value("other") == true {
			return "computed"
		}
		return "fallback"
	}}.Apply(in)
	if out[3]["city"] != "computed" || out[1]["city"] != "fallback" {
		t.Fatalf("computed fill: %v", out)
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	n := Normalize{
		Fields: []FieldInfo{
			{Name: "amount", Type: TypeNumber},
			{Name: "active", Type: TypeBoolean},
			{Name: "day", Type: TypeDate},
			{Name: "note", Type: TypeString},
			{Name: "score", Type: TypeNumber, Nullable: true},
		},
		Now: func() time.Time { return fixed },
	}

	out := n.Apply([]records.Record{
		{"amount": "12.5", "active": "TRUE", "day": "2023-01-31", "note": float64(7), "score": "abc"},
		{"amount": "abc", "active": nil, "day": "yesterday", "note": nil, "score": float64(1)},
	})

	if out[0]["amount"] != float64(12.5) || out[0]["active"] != true || out[0]["note"] != "7" {
		t.Fatalf("coerced row: %v", out[0])
	}
	if d, ok := out[0]["day"].(time.Time); !ok || d.Year() != 2023 {
		t.Fatalf("day not parsed: %v", out[0]["day"])
	}
	if out[0]["score"] != nil {
		t.Fatalf("nullable unparseable must be nil, got %v", out[0]["score"])
	}

	if out[1]["amount"] != float64(0) || out[1]["active"] != false || out[1]["note"] != "" {
		t.Fatalf("defaulted row: %v", out[1])
	}
	if d, ok := out[1]["day"].(time.Time); !ok || !d.Equal(fixed) {
		t.Fatalf("defaulted date: %v", out[1]["day"])
	}
	if out[1]["score"] != float64(1) {
		t.Fatalf("nullable coercible value lost: %v", out[1]["score"])
	}
}

func TestGuessFields(t *testing.T) {
	t.Parallel()

	rows := []records.Record{
		{"amount": float64(1), "active": true, "day": time.Now(), "note": "hi", "gap": float64(1)},
		{"amount": float64(2), "active": false, "day": time.Now(), "note": nil},
	}
	infos := GuessFields(rows)

	byName := make(map[string]FieldInfo, len(infos))
	for _, fi := range infos {
		byName[fi.Name] = fi
	}
	want := map[string]FieldInfo{
		"amount": {Name: "amount", Type: TypeNumber},
		"active": {Name: "active", Type: TypeBoolean},
		"day":    {Name: "day", Type: TypeDate},
		"note":   {Name: "note", Type: TypeString, Nullable: true},
		"gap":    {Name: "gap", Type: TypeNumber, Nullable: true},
	}
	for name, w := range want {
		if byName[name] != w {
			t.Fatalf("%s = %+v, want %+v", name, byName[name], w)
		}
	}

	// Mixed non-null types fall back to string.
	infos = GuessFields([]records.Record{{"v": float64(1)}, {"v": "x"}})
	if infos[0].Type != TypeString {
		t.Fatalf("mixed field = %+v, want string", infos[0])
	}
}

func TestAutoNormalize(t *testing.T) {
	t.Parallel()

	// "amount" is numeric in every row, so nulls stay null (nullable) and
	// the present values keep their type.
	out := AutoNormalize{}.Apply([]records.Record{
		{"amount": float64(1)},
		{"amount": nil},
	})
	if out[0]["amount"] != float64(1) || out[1]["amount"] != nil {
		t.Fatalf("autonormalize: %v", out)
	}
}

func TestDeDup(t *testing.T) {
	t.Parallel()

	rows := []records.Record{
		{"k": "a", "seq": float64(1)},
		{"k": "b", "seq": float64(2)},
		{"k": "a", "seq": float64(3)},
	}

	out := DeDup{Keys: []string{"k"}}.Apply(rows)
	if len(out) != 2 || out[0]["seq"] != float64(1) || out[1]["seq"] != float64(2) {
		t.Fatalf("keep-first: %v", out)
	}

	out = DeDup{Keys: []string{"k"}, Policy: "keep-last"}.Apply(rows)
	if len(out) != 2 || out[0]["seq"] != float64(3) || out[1]["seq"] != float64(2) {
		t.Fatalf("keep-last: %v", out)
	}

	// Keys are typed tuples, not joined strings.
	tricky := []records.Record{
		{"a": "x,y", "b": "z"},
		{"a": "x", "b": "y,z"},
		{"a": float64(1)},
		{"a": "1"},
	}
	if out := (DeDup{Keys: []string{"a", "b"}}).Apply(tricky); len(out) != 4 {
		t.Fatalf("typed keys collapsed distinct rows: %v", out)
	}
}

func TestDeDup_UnspecifiedKeys(t *testing.T) {
	t.Parallel()

	// No keys configured: the first row's field set is the key, so exact
	// duplicates collapse while rows differing in any field survive.
	rows := []records.Record{
		{"k": "a", "v": float64(1)},
		{"k": "a", "v": float64(1)},
		{"k": "a", "v": float64(2)},
	}
	out := DeDup{}.Apply(rows)
	if len(out) != 2 {
		t.Fatalf("full-row dedup kept %d rows, want 2: %v", len(out), out)
	}
	if out[0]["v"] != float64(1) || out[1]["v"] != float64(2) {
		t.Fatalf("wrong survivors: %v", out)
	}
}

func TestGroupAggregate(t *testing.T) {
	t.Parallel()

	if _, err := NewGroupAggregate(nil, map[string]Aggregation{"x": {Field: "v", Kind: "variance"}}); err == nil {
		t.Fatal("bad kind accepted")
	}

	g, err := NewGroupAggregate([]string{"city"}, map[string]Aggregation{
		"total":  {Field: "v", Kind: "sum"},
		"visits": {Field: "v", Kind: "count"},
	})
	if err != nil {
		t.Fatalf("NewGroupAggregate: %v", err)
	}

	out := g.Apply([]records.Record{
		{"city": "Brno", "v": float64(10)},
		{"city": "Praha", "v": float64(1)},
		{"city": "Brno", "v": float64(5)},
	})
	if len(out) != 2 {
		t.Fatalf("groups: %v", out)
	}
	if out[0]["city"] != "Brno" || out[0]["total"] != float64(15) || out[0]["visits"] != float64(2) {
		t.Fatalf("first group: %v", out[0])
	}
	if out[1]["city"] != "Praha" || out[1]["total"] != float64(1) {
		t.Fatalf("second group: %v", out[1])
	}
}

func TestWidePivot(t *testing.T) {
	t.Parallel()

	if _, err := NewWidePivot([]string{"r"}, "c", "v", "variance"); err == nil {
		t.Fatal("bad kind accepted")
	}

	w, err := NewWidePivot([]string{"r"}, "c", "v", "sum")
	if err != nil {
		t.Fatalf("NewWidePivot: %v", err)
	}
	out := w.Apply([]records.Record{
		{"r": "A", "c": "X", "v": float64(10)},
		{"r": "A", "c": "Y", "v": float64(20)},
		{"r": "B", "c": "X", "v": float64(5)},
	})
	if len(out) != 2 {
		t.Fatalf("rows: %v", out)
	}
	if out[0]["r"] != "A" || out[0]["X"] != float64(10) || out[0]["Y"] != float64(20) {
		t.Fatalf("row A: %v", out[0])
	}
	if out[1]["r"] != "B" || out[1]["X"] != float64(5) {
		t.Fatalf("row B: %v", out[1])
	}
	if _, ok := out[1]["Y"]; ok {
		t.Fatalf("empty cell must be absent: %v", out[1])
	}
}

func TestChain(t *testing.T) {
	t.Parallel()

	c := Chain{
		FillMissing{Field: "n", Value: float64(0)},
		TransformField{Field: "n", Fn: func(v any, _ records.Record) any {
			return v.(float64) + 1
		}},
		SelectFields{Fields: []string{"n"}},
	}
	out := c.Apply([]records.Record{{"n": float64(1), "junk": "x"}, {"n": nil}})
	if out[0]["n"] != float64(2) || out[1]["n"] != float64(1) || len(out[0]) != 1 {
		t.Fatalf("chain: %v", out)
	}
}
