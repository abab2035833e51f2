package sqlog

import (
	"os"
	"testing"
)

func TestRefList(t *testing.T) {
	for _, test := range []struct {
		refs []int
		want string
	}{
		{nil, ""},
		{[]int{7}, "7"},
		{[]int{7, 8, 12}, "7,8,12"},
	} {
		if got := (Record{Refs: test.refs}).RefList(); got != test.want {
			t.Errorf("RefList(%v) = %q, want %q", test.refs, got, test.want)
		}
	}
}

func TestLog(t *testing.T) {
	url := os.Getenv("PDUSMS_TEST_MYSQL") // e.g. root@/pdusms?charset=utf8
	if url == "" {
		t.Skip("PDUSMS_TEST_MYSQL is not set")
	}
	db, err := Connect(url)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	err = db.Insert(Record{
		ID:       "test",
		Called:   "79026000000",
		Text:     "hello",
		Alphabet: "narrow",
		Parts:    1,
		Ref:      42,
		Refs:     []int{1},
	})
	if err != nil {
		t.Fatal(err)
	}
}
