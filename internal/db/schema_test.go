package db

import (
	"strings"
	"testing"
)

func TestSchemaCreatesTables(t *testing.T) {
	for _, table := range Tables {
		if !strings.Contains(Schema, "CREATE TABLE IF NOT EXISTS "+table+" (") {
			t.Errorf("schema does not create %s", table)
		}
	}
	if strings.Count(Schema, "CREATE TABLE") != len(Tables) {
		t.Errorf("Tables is out of sync with schema.sql")
	}
}

func TestSchemaEnforcesSinglePendingPair(t *testing.T) {
	idx := strings.Index(Schema, "CREATE UNIQUE INDEX IF NOT EXISTS exchanges_pending_pair_idx")
	if idx < 0 {
		t.Fatal("pending pair index missing")
	}
	stmt := Schema[idx:]
	stmt = stmt[:strings.Index(stmt, ";")]
	if !strings.Contains(stmt, "(from_product_id, to_product_id)") || !strings.Contains(stmt, "WHERE status = 'pending'") {
		t.Errorf("unexpected index definition: %s", stmt)
	}
}
