package events

import (
	"encoding/json"
	"testing"
	"time"

	"wardq/pkg/model"
)

func TestQueueSnapshotChangedCarriesEntries(t *testing.T) {
	event := QueueSnapshotChanged{
		FacilityID:   "city-general",
		Trigger:      TriggerQueueAdvanced,
		ServingToken: 4,
		WaitingCount: 2,
		Entries: []*model.QueueEntry{
			{Token: 4, State: model.QueueInConsultation},
			{Token: 5, State: model.QueueWaiting},
			{Token: 6, State: model.QueueWaiting},
		},
		OccurredAt: time.Now().UTC(),
	}

	raw, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	entriesRaw, ok := payload["entries"]
	if !ok {
		t.Fatal("queue snapshot payload has no entries field")
	}

	var entries []*model.QueueEntry
	if err := json.Unmarshal(entriesRaw, &entries); err != nil {
		t.Fatalf("decode entries: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Token != 4 || entries[0].State != model.QueueInConsultation {
		t.Errorf("unexpected first entry %+v", entries[0])
	}
}

func TestResourceSnapshotChangedCarriesCategories(t *testing.T) {
	event := ResourceSnapshotChanged{
		FacilityID: "city-general",
		Trigger:    TriggerReservationConfirmed,
		Categories: []*model.CategoryAvailability{
			{Category: model.CategoryICU, Total: 4, Available: 1},
		},
		OccurredAt: time.Now().UTC(),
	}

	raw, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := payload["categories"]; !ok {
		t.Fatal("resource snapshot payload has no categories field")
	}
}
