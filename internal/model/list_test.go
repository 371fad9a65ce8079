package model_test

import (
	"reflect"
	"testing"

	"github.com/emmacherrin/foodpix/internal/model"
)

func TestListify(t *testing.T) {
	tests := []struct {
		in   string
		want model.List
	}{
		{"", model.List{}},
		{"vegan", model.List{"vegan"}},
		{"Emma, Brie, Spencer", model.List{"Emma", "Brie", "Spencer"}},
		{" a ,, b ,", model.List{"a", "b"}},
	}
	for _, tt := range tests {
		if got := model.Listify(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Listify(%q) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}

func TestListRoundTrip(t *testing.T) {
	// Given: 식이 제한 태그 목록
	original := model.List{"vegan", "gluten-free"}

	// When: 텍스트로 저장했다가 다시 읽음
	stored, err := original.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	var reloaded model.List
	if err := reloaded.Scan([]byte(stored.(string))); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	// Then: 순서와 값이 보존됨
	if stored != "vegan, gluten-free" {
		t.Errorf("stored text = %q", stored)
	}
	if !reflect.DeepEqual(reloaded, original) {
		t.Errorf("reloaded = %#v, want %#v", reloaded, original)
	}
}

func TestListScanNull(t *testing.T) {
	l := model.List{"stale"}
	if err := l.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) failed: %v", err)
	}
	if len(l) != 0 {
		t.Errorf("Scan(nil) = %#v, want empty", l)
	}
	if err := l.Scan(42); err == nil {
		t.Errorf("Scan(int) should fail")
	}
}

func TestToMap(t *testing.T) {
	d := model.NewDish("r1", "Turkey Club Sandwich", "image_test.jpg", "2023-07-14", 4)
	m := d.ToMap()
	if m["dish_name"] != "Turkey Club Sandwich" || m["stars"] != 4 {
		t.Errorf("unexpected map: %v", m)
	}
	if got, ok := m["dietary_restrictions"].([]string); !ok || len(got) != 0 {
		t.Errorf("dietary_restrictions = %#v, want empty []string", m["dietary_restrictions"])
	}

	r := model.NewRestaurant("Spencer's Sandwiches", "26694 Humber St", "American", 42.4, -83.1)
	if r.ID == "" || r.ID == d.ID {
		t.Errorf("expected fresh distinct IDs, got %q and %q", r.ID, d.ID)
	}
	if r.ToMap()["restaurant_name"] != "Spencer's Sandwiches" {
		t.Errorf("unexpected map: %v", r.ToMap())
	}
}
