package config

import "testing"

func TestDefaultPrices(t *testing.T) {
	prices := DefaultPrices()

	cases := map[int]int64{
		1:  15000,
		3:  40000,
		7:  80000,
		10: 100000,
		30: 250000,
	}
	for days, want := range cases {
		got, ok := prices.PriceFor(days)
		if !ok {
			t.Errorf("PriceFor(%d): duration missing", days)
			continue
		}
		if got != want {
			t.Errorf("PriceFor(%d) = %d, want %d", days, got, want)
		}
	}

	if _, ok := prices.PriceFor(9); ok {
		t.Error("9 days is not offered")
	}

	durations := prices.Durations()
	if len(durations) != 12 {
		t.Fatalf("got %d durations, want 12", len(durations))
	}
	for i := 1; i < len(durations); i++ {
		if durations[i] <= durations[i-1] {
			t.Fatalf("durations not ascending: %v", durations)
		}
	}
}

func TestParseInt64CSV(t *testing.T) {
	ids, err := parseInt64CSV(" 123, 456 ,789")
	if err != nil {
		t.Fatalf("parseInt64CSV: %v", err)
	}
	if len(ids) != 3 || ids[0] != 123 || ids[2] != 789 {
		t.Errorf("ids = %v", ids)
	}

	if _, err := parseInt64CSV("123,abc"); err == nil {
		t.Error("non-numeric entry should fail")
	}

	ids, err = parseInt64CSV("")
	if err != nil || ids != nil {
		t.Errorf("empty input: ids=%v err=%v", ids, err)
	}
}

func TestIsAdmin(t *testing.T) {
	cfg := &Config{AdminIDs: []int64{100, 200}}
	if !cfg.IsAdmin(100) || cfg.IsAdmin(300) {
		t.Error("allowlist check is wrong")
	}
}
