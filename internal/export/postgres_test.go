package export

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestPostgresSinkValidation(t *testing.T) {
	table := sampleTable(t)
	if _, err := (PostgresSink{Table: "utterances"}).Write(context.Background(), table); err == nil {
		t.Fatal("expected error without DSN")
	}
	if _, err := (PostgresSink{DSN: "postgres://localhost/x"}).Write(context.Background(), table); err == nil {
		t.Fatal("expected error without table")
	}
}

func TestMetadataJSONOmitsIDTextAndNulls(t *testing.T) {
	table := sampleTable(t)
	first, err := metadataJSON(table, 0)
	if err != nil {
		t.Fatalf("metadataJSON: %v", err)
	}
	if string(first) != `{"Speaker_name":"Alice"}` {
		t.Fatalf("row 0 metadata = %s", first)
	}
	second, err := metadataJSON(table, 1)
	if err != nil {
		t.Fatalf("metadataJSON: %v", err)
	}
	if string(second) != `{}` {
		t.Fatalf("row 1 metadata = %s, want empty object", second)
	}
}

func TestPostgresSinkWrite(t *testing.T) {
	dsn := os.Getenv("PARLACORPUS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("PARLACORPUS_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	sink := PostgresSink{DSN: dsn, Table: "parlacorpus_export_test"}

	for i := 0; i < 2; i++ {
		n, err := sink.Write(ctx, sampleTable(t))
		if err != nil {
			t.Fatalf("Write #%d: %v", i, err)
		}
		if n != 2 {
			t.Fatalf("copied %d rows, want 2", n)
		}
	}

	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer func() {
		_, _ = conn.Exec(context.Background(), `DROP TABLE IF EXISTS parlacorpus_export_test`)
		_ = conn.Close(context.Background())
	}()

	var count int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM parlacorpus_export_test`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("rows = %d, want 2 after replacing twice", count)
	}

	var speaker *string
	if err := conn.QueryRow(ctx,
		`SELECT metadata->>'Speaker_name' FROM parlacorpus_export_test WHERE utterance_id = 'u2'`,
	).Scan(&speaker); err != nil {
		t.Fatalf("query metadata: %v", err)
	}
	if speaker != nil {
		t.Fatalf("null metadata should be absent, got %q", *speaker)
	}
}
