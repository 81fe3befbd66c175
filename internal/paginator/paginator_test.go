package paginator

import "testing"

func TestNumPages(t *testing.T) {
	cases := []struct {
		count, perPage, want int
	}{
		{0, 10, 1},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 10, 3},
	}
	for _, c := range cases {
		if got := New(c.perPage, c.count).NumPages(); got != c.want {
			t.Fatalf("count=%d perPage=%d: got %d pages, want %d", c.count, c.perPage, got, c.want)
		}
	}
}

func TestResolve(t *testing.T) {
	p := New(10, 25)
	cases := map[string]int{
		"":    1,
		"abc": 1,
		"2.0": 1,
		"1":   1,
		"2":   2,
		"3":   3,
		"4":   3,
		"99":  3,
		"0":   3,
		"-1":  3,
	}
	for raw, want := range cases {
		if got := p.Resolve(raw); got != want {
			t.Fatalf("Resolve(%q) = %d, want %d", raw, got, want)
		}
	}
}

func TestBounds(t *testing.T) {
	p := New(10, 25)
	if off, lim := p.Bounds(1); off != 0 || lim != 10 {
		t.Fatalf("page 1 bounds = %d,%d", off, lim)
	}
	if off, lim := p.Bounds(3); off != 20 || lim != 5 {
		t.Fatalf("page 3 bounds = %d,%d", off, lim)
	}
	if off, lim := New(10, 0).Bounds(1); off != 0 || lim != 0 {
		t.Fatalf("empty bounds = %d,%d", off, lim)
	}
}

func TestSliceSecondPageHoldsRemainder(t *testing.T) {
	items := make([]int, 13)
	for i := range items {
		items[i] = i
	}

	first := Slice(items, 10, "")
	if len(first.Items) != 10 || first.Number != 1 || !first.HasNext || first.HasPrevious {
		t.Fatalf("unexpected first page: %+v", first)
	}

	second := Slice(items, 10, "2")
	if len(second.Items) != 3 || second.Items[0] != 10 {
		t.Fatalf("unexpected second page: %+v", second)
	}
	if second.HasNext || !second.HasPrevious || second.NumPages != 2 || second.Count != 13 {
		t.Fatalf("unexpected second page metadata: %+v", second)
	}
}

func TestSlicePastEndReturnsLastPage(t *testing.T) {
	items := []string{"a", "b", "c"}
	page := Slice(items, 2, "7")
	if page.Number != 2 || len(page.Items) != 1 || page.Items[0] != "c" {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestSliceEmpty(t *testing.T) {
	page := Slice([]string{}, 10, "3")
	if page.Number != 1 || page.NumPages != 1 || len(page.Items) != 0 {
		t.Fatalf("unexpected page: %+v", page)
	}
	if page.Items == nil {
		t.Fatalf("expected non-nil items for stable JSON")
	}
}

func TestNormalize(t *testing.T) {
	if Normalize("") != 1 || Normalize("x") != 1 || Normalize("4") != 4 || Normalize("-2") != -2 {
		t.Fatalf("unexpected normalization")
	}
}
