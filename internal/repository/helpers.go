// Package repository persists the frozen domain.Graph and scheduler
// results to SQLite, using a Create/Get/List repository shape adapted to
// the scheduling engine's composite (project, entity) id space: every
// graph-scoped table is keyed by (project_id, id) since domain.EntityID
// and domain.ScenarioID are only unique within one Graph.
package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

func loadLocation(name string) (*time.Location, error) {
	if name == "" || name == "UTC" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("repository: loading time zone %q: %w", name, err)
	}
	return loc, nil
}

func secondsToDuration(s int64) time.Duration {
	return time.Duration(s) * time.Second
}

func marshalJSON(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("repository: marshal: %w", err)
	}
	return string(b), nil
}

func unmarshalJSON[T any](s string) (T, error) {
	var out T
	if s == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return out, fmt.Errorf("repository: unmarshal: %w", err)
	}
	return out, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullableTimeToString(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func parseNullableTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, ns.String)
	if err != nil {
		return nil, fmt.Errorf("repository: parsing timestamp %q: %w", ns.String, err)
	}
	return &t, nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("repository: parsing timestamp %q: %w", s, err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func intToBool(i int) bool { return i != 0 }

func nowUTC() string { return time.Now().UTC().Format(time.RFC3339) }
