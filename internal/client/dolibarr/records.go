package dolibarr

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/fieldops/kobo-dolibarr-bridge/internal/domain"
)

// asRecords tolerates the listing shapes the API is known to emit: a
// bare array, or an object wrapping the array under "rows". Anything
// else counts as a malformed (empty) page.
func asRecords(raw json.RawMessage) []map[string]any {
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil
	}

	items, ok := decoded.([]any)
	if !ok {
		wrapper, isMap := decoded.(map[string]any)
		if !isMap {
			return nil
		}
		if items, ok = wrapper["rows"].([]any); !ok {
			return nil
		}
	}

	records := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if record, isMap := item.(map[string]any); isMap {
			records = append(records, record)
		}
	}
	return records
}

// The API serializes most numeric fields as strings, so every record
// field goes through a coercion.

func fieldString(record map[string]any, key string) string {
	return domain.Stringify(record[key])
}

func fieldInt(record map[string]any, keys ...string) int {
	for _, key := range keys {
		raw, ok := record[key]
		if !ok || raw == nil {
			continue
		}
		switch v := raw.(type) {
		case float64:
			return int(v)
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return n
			}
		}
	}
	return 0
}

func ticketFrom(record map[string]any) domain.RemoteTicket {
	options, _ := record["array_options"].(map[string]any)
	return domain.RemoteTicket{
		ID:      fieldString(record, "id"),
		Ref:     fieldString(record, "ref"),
		Status:  fieldInt(record, "fk_statut", "status"),
		Options: options,
	}
}

func thirdpartyFrom(record map[string]any) domain.RemoteThirdparty {
	return domain.RemoteThirdparty{
		ID:         fieldString(record, "id"),
		Name:       fieldString(record, "name"),
		ClientCode: fieldString(record, "code_client"),
		Ref:        fieldString(record, "ref"),
	}
}

func userFrom(record map[string]any) domain.RemoteUser {
	return domain.RemoteUser{
		ID:    fieldString(record, "id"),
		Login: fieldString(record, "login"),
	}
}
