package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// The store document is shared with an external system that owns the
// profiles. All mutations here go through gjson/sjson path operations so
// that only the fields keypulse owns are rewritten; everything else in the
// document is carried through byte-for-byte.

// escapePathKey escapes a credential id for use as a single gjson/sjson
// path component.
func escapePathKey(id string) string {
	r := strings.NewReplacer(`\`, `\\`, `.`, `\.`, `*`, `\*`, `?`, `\?`, `|`, `\|`, `#`, `\#`, `@`, `\@`)
	return r.Replace(id)
}

func statsPath(id string) string {
	return "usageStats." + escapePathKey(id)
}

// recordsFromDoc parses the document into Records, keeping only profiles
// in the given provider namespace. Profile iteration order follows the
// document, so runs probe credentials in a stable order.
func recordsFromDoc(doc []byte, provider string) ([]Record, error) {
	if !gjson.ValidBytes(doc) {
		return nil, fmt.Errorf("store document is not valid JSON")
	}
	profiles := gjson.GetBytes(doc, "profiles")
	if !profiles.Exists() || !profiles.IsObject() {
		return nil, fmt.Errorf("store document has no profiles object")
	}

	var records []Record
	profiles.ForEach(func(key, prof gjson.Result) bool {
		if prof.Get("provider").String() != provider {
			return true
		}
		id := key.String()
		rec := Record{
			ID:       id,
			APIKey:   prof.Get("apiKey").String(),
			Provider: provider,
			Health:   healthFromDoc(doc, id),
		}
		records = append(records, rec)
		return true
	})
	return records, nil
}

func healthFromDoc(doc []byte, id string) HealthState {
	stats := gjson.GetBytes(doc, statsPath(id))
	if !stats.Exists() {
		return HealthState{}
	}
	h := HealthState{
		DisabledUntil:  stats.Get("disabledUntil").Int(),
		DisabledReason: stats.Get("disabledReason").String(),
		ErrorCount:     int(stats.Get("errorCount").Int()),
		LastFailureAt:  stats.Get("lastFailureAt").Int(),
	}
	if fc := stats.Get("failureCounts"); fc.IsObject() {
		h.FailureCounts = make(map[string]int)
		fc.ForEach(func(key, val gjson.Result) bool {
			h.FailureCounts[key.String()] = int(val.Int())
			return true
		})
	}
	return h
}

// disableDoc stamps a billing disablement for id onto the document.
func disableDoc(doc []byte, id string, now time.Time, d time.Duration) ([]byte, error) {
	if !gjson.GetBytes(doc, "profiles."+escapePathKey(id)).Exists() {
		return nil, &NotFoundError{ID: id}
	}

	base := statsPath(id)
	errorCount := gjson.GetBytes(doc, base+".errorCount").Int() + 1
	billingFails := gjson.GetBytes(doc, base+".failureCounts."+ReasonBilling).Int() + 1

	var err error
	for _, set := range []struct {
		path  string
		value interface{}
	}{
		{base + ".disabledUntil", now.Add(d).UnixMilli()},
		{base + ".disabledReason", ReasonBilling},
		{base + ".errorCount", errorCount},
		{base + ".failureCounts." + ReasonBilling, billingFails},
		{base + ".lastFailureAt", now.UnixMilli()},
	} {
		doc, err = sjson.SetBytes(doc, set.path, set.value)
		if err != nil {
			return nil, fmt.Errorf("set %s: %w", set.path, err)
		}
	}
	return doc, nil
}

// reenableDoc clears a billing disablement for id. Returns changed=false
// when the record is not billing-disabled, including when it was disabled
// by some other subsystem for an unrelated reason.
func reenableDoc(doc []byte, id string) (out []byte, changed bool, err error) {
	if !gjson.GetBytes(doc, "profiles."+escapePathKey(id)).Exists() {
		return nil, false, &NotFoundError{ID: id}
	}

	base := statsPath(id)
	if gjson.GetBytes(doc, base+".disabledReason").String() != ReasonBilling {
		return doc, false, nil
	}

	for _, path := range []string{
		base + ".disabledUntil",
		base + ".disabledReason",
		base + ".failureCounts." + ReasonBilling,
	} {
		doc, err = sjson.DeleteBytes(doc, path)
		if err != nil {
			return nil, false, fmt.Errorf("delete %s: %w", path, err)
		}
	}
	doc, err = sjson.SetBytes(doc, base+".errorCount", 0)
	if err != nil {
		return nil, false, fmt.Errorf("reset errorCount: %w", err)
	}
	return doc, true, nil
}
