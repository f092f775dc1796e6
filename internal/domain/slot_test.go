package domain

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestParseStateKey(t *testing.T) {
	key, err := ParseStateKey("11H00|2025-01-06")
	if err != nil {
		t.Fatalf("ParseStateKey: %v", err)
	}
	if key.TimeLabel != "11H00" || key.Date != "2025-01-06" {
		t.Fatalf("unexpected key: %+v", key)
	}
	if got := key.StateKey(); got != "11H00|2025-01-06" {
		t.Fatalf("StateKey: got %q", got)
	}

	for _, bad := range []string{"", "11H00", "|2025-01-06", "11H00|", "11H00|06/01/2025", "11H00|2025-13-40"} {
		if _, err := ParseStateKey(bad); err == nil {
			t.Fatalf("ParseStateKey(%q): expected error", bad)
		}
	}
}

func TestPersistedStateJSONRoundTrip(t *testing.T) {
	state := PersistedState{
		{TimeLabel: "11H00", Date: "2025-01-06"}: {"Padel 1": StatusFree, "Padel 2": StatusOccupied},
		{TimeLabel: "18H00", Date: "2025-01-07"}: {"Padel 3": StatusOccupied},
	}

	data, err := json.Marshal(state)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var back PersistedState
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(state, back) {
		t.Fatalf("round trip mismatch:\nwant %+v\ngot  %+v", state, back)
	}
}

func TestPersistedStateRejectsUnknownStatus(t *testing.T) {
	var state PersistedState
	if err := json.Unmarshal([]byte(`{"11H00|2025-01-06": {"Padel 1": "peut-être"}}`), &state); err == nil {
		t.Fatalf("expected error for unknown status")
	}
	if err := json.Unmarshal([]byte(`{"pas-une-clé": {"Padel 1": "libre"}}`), &state); err == nil {
		t.Fatalf("expected error for malformed key")
	}
}

func TestPersistedStatePrune(t *testing.T) {
	state := PersistedState{
		{TimeLabel: "11H00", Date: "2025-01-05"}: {"Padel 1": StatusFree},
		{TimeLabel: "11H00", Date: "2025-01-06"}: {"Padel 1": StatusFree},
		{TimeLabel: "11H00", Date: "2025-02-01"}: {"Padel 1": StatusOccupied},
	}
	state.Prune("2025-01-06")

	if len(state) != 2 {
		t.Fatalf("expected 2 entries after prune, got %d", len(state))
	}
	if _, kept := state[GridKey{TimeLabel: "11H00", Date: "2025-01-05"}]; kept {
		t.Fatalf("entry before horizon should have been pruned")
	}
}

func TestDateSetMonthGrouping(t *testing.T) {
	set := DateSet{
		"2025-02-10": {},
		"2025-01-20": {},
		"2025-01-06": {},
	}

	data, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var byMonth map[string][]string
	if err := json.Unmarshal(data, &byMonth); err != nil {
		t.Fatalf("Unmarshal raw: %v", err)
	}
	if len(byMonth) != 2 {
		t.Fatalf("expected 2 months, got %v", byMonth)
	}
	jan := byMonth["2025-01"]
	if len(jan) != 2 || jan[0] != "2025-01-06" || jan[1] != "2025-01-20" {
		t.Fatalf("january not sorted: %v", jan)
	}

	var back DateSet
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal DateSet: %v", err)
	}
	if !reflect.DeepEqual(set, back) {
		t.Fatalf("round trip mismatch: %v vs %v", set, back)
	}
}

func TestDateSetRejectsBadDate(t *testing.T) {
	var set DateSet
	if err := json.Unmarshal([]byte(`{"2025-01": ["06/01/2025"]}`), &set); err == nil {
		t.Fatalf("expected error for non-ISO date")
	}
}

func TestSnapshotValidate(t *testing.T) {
	good := Snapshot{
		Grid: map[GridKey]CourtStatuses{
			{TimeLabel: "11H00", Date: "2025-01-06"}: {"Padel 1": StatusFree},
		},
		Dates: []string{"2025-01-06"},
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("Validate(good): %v", err)
	}

	cases := map[string]Snapshot{
		"nil grid": {},
		"bad date in key": {
			Grid: map[GridKey]CourtStatuses{{TimeLabel: "11H00", Date: "06/01/2025"}: {"Padel 1": StatusFree}},
		},
		"empty time label": {
			Grid: map[GridKey]CourtStatuses{{Date: "2025-01-06"}: {"Padel 1": StatusFree}},
		},
		"no courts": {
			Grid: map[GridKey]CourtStatuses{{TimeLabel: "11H00", Date: "2025-01-06"}: {}},
		},
		"unknown status": {
			Grid: map[GridKey]CourtStatuses{{TimeLabel: "11H00", Date: "2025-01-06"}: {"Padel 1": "?"}},
		},
		"bad bookable date": {
			Grid:  map[GridKey]CourtStatuses{{TimeLabel: "11H00", Date: "2025-01-06"}: {"Padel 1": StatusFree}},
			Dates: []string{"demain"},
		},
	}
	for name, snap := range cases {
		if err := snap.Validate(); err == nil {
			t.Fatalf("Validate(%s): expected error", name)
		}
	}
}
