package admstate

import (
	"reflect"
	"testing"
)

func TestToAddressListDefault(t *testing.T) {
	s, _, _ := fixture(t)
	rows, err := s.ToAddressList(ListOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := [][]string{
		{"ABROAD", "brandenburg", "zuellichau"},
		{"HOMELAND", "bromberg", "kolmar"},
		{"HOMELAND", "bromberg", "schwerin"},
		{"HOMELAND", "posen", "birnbaum"},
		{"HOMELAND", "posen", "meseritz"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("rows:\nwant: %v\ngot:  %v", want, rows)
	}
}

func TestToAddressListHomelandOnly(t *testing.T) {
	s, _, _ := fixture(t)
	rows, err := s.ToAddressList(ListOptions{OnlyHomeland: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := [][]string{
		{"bromberg", "kolmar"},
		{"bromberg", "schwerin"},
		{"posen", "birnbaum"},
		{"posen", "meseritz"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("rows:\nwant: %v\ngot:  %v", want, rows)
	}
}

func TestToAddressListWithVariantsExpandsEveryName(t *testing.T) {
	s, regions, districts := fixture(t)
	rows, err := s.ToAddressList(ListOptions{
		OnlyHomeland: true,
		WithVariants: true,
		Regions:      regions,
		Districts:    districts,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// posen has two name variants, so do its districts: the cross product
	// appears in the expansion.
	found := map[string]bool{}
	for _, row := range rows {
		found[row[0]+"/"+row[1]] = true
	}
	for _, want := range []string{"posen/meseritz", "Posen/Meseritz", "posen/Birnbaum", "Posen/birnbaum"} {
		if !found[want] {
			t.Fatalf("expected expanded row %q, got %v", want, rows)
		}
	}
}

func TestToAddressListVariantsRequireRegistries(t *testing.T) {
	s, _, _ := fixture(t)
	if _, err := s.ToAddressList(ListOptions{WithVariants: true}); err == nil {
		t.Fatal("expected error without registries")
	}
}

func TestToAddressListCurrentNames(t *testing.T) {
	s, regions, districts := fixture(t)
	rows, err := s.ToAddressList(ListOptions{
		OnlyHomeland: true,
		CurrentNames: true,
		Regions:      regions,
		Districts:    districts,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Fixture states carry the canonical identifier as display name.
	want := [][]string{
		{"bromberg", "kolmar"},
		{"bromberg", "schwerin"},
		{"posen", "birnbaum"},
		{"posen", "meseritz"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("rows:\nwant: %v\ngot:  %v", want, rows)
	}
}
