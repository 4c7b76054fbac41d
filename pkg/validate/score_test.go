package validate

import "testing"

func TestScoreVersionCommandSingleRecord(t *testing.T) {
	result := ParseResult{
		Records:       []Record{{"version": "15.2"}},
		Fields:        []string{"version"},
		dominantCount: 1,
	}
	got := Score("show_version", result)
	if got < 40 {
		t.Errorf("Score() = %d, want >= 40 for a clean single-record version parse", got)
	}
}

func TestScoreVersionCommandMultipleRecordsPenalized(t *testing.T) {
	result := ParseResult{
		Records:       []Record{{"version": "a"}, {"version": "b"}},
		Fields:        []string{"version"},
		dominantCount: 2,
	}
	got := Score("show_version", result)
	single := Score("show_version", ParseResult{
		Records:       []Record{{"version": "a"}},
		Fields:        []string{"version"},
		dominantCount: 1,
	})
	if got >= single {
		t.Errorf("Score() for 2 records = %d, want less than single-record score %d", got, single)
	}
}

func TestScoreZeroWhenNoRecords(t *testing.T) {
	got := Score("show_ip_arp", ParseResult{})
	if got != 0 {
		t.Errorf("Score() = %d, want 0", got)
	}
}

func TestScoreIncreasesWithFieldRichness(t *testing.T) {
	sparse := ParseResult{
		Records:       []Record{{"ip": "1.1.1.1"}},
		Fields:        []string{"ip"},
		dominantCount: 1,
	}
	rich := ParseResult{
		Records: []Record{{"ip": "1.1.1.1", "mac": "aa", "iface": "eth0", "vlan": "1",
			"age": "10", "type": "dynamic"}},
		Fields:        []string{"ip", "mac", "iface", "vlan", "age", "type"},
		dominantCount: 1,
	}
	if Score("show_ip_arp", rich) <= Score("show_ip_arp", sparse) {
		t.Error("richer field set did not score higher")
	}
}

func TestScoreWithinBounds(t *testing.T) {
	result := ParseResult{
		Records: []Record{
			{"a": "1", "b": "2", "c": "3", "d": "4", "e": "5", "f": "6", "g": "7", "h": "8", "i": "9", "j": "10"},
		},
		Fields:        []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"},
		dominantCount: 1,
	}
	for i := 1; i < 20; i++ {
		records := make([]Record, i)
		for j := range records {
			records[j] = result.Records[0]
		}
		r := ParseResult{Records: records, Fields: result.Fields, dominantCount: i}
		score := Score("show_ip_arp", r)
		if score < 0 || score > 100 {
			t.Errorf("Score() = %d for %d records, want in [0,100]", score, i)
		}
	}
}

func TestLerp(t *testing.T) {
	cases := []struct {
		x, x0, x1   int
		y0, y1, want float64
	}{
		{1, 1, 2, 10, 20, 10},
		{2, 1, 2, 10, 20, 20},
		{5, 3, 9, 20, 30, 23.333333333333332},
	}
	for _, c := range cases {
		got := lerp(c.x, c.x0, c.x1, c.y0, c.y1)
		if diff := got - c.want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("lerp(%d,%d,%d,%v,%v) = %v, want %v", c.x, c.x0, c.x1, c.y0, c.y1, got, c.want)
		}
	}
}
