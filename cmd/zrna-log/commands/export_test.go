package commands

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestExportToJSONL(t *testing.T) {
	path := createTestLogFile(t, "session.zlog", sessionEvents())
	out := filepath.Join(t.TempDir(), "session.jsonl")

	if err := RunExport(path, "jsonl", out); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer f.Close()

	lines := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var obj map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &obj); err != nil {
			t.Fatalf("line %d is not JSON: %v", lines+1, err)
		}
		if obj["ConnectionID"] != testSession {
			t.Errorf("line %d: ConnectionID = %v", lines+1, obj["ConnectionID"])
		}
		lines++
	}
	if lines != 5 {
		t.Errorf("expected 5 lines, got %d", lines)
	}
}

func TestExportToCSV(t *testing.T) {
	path := createTestLogFile(t, "session.zlog", sessionEvents())
	out := filepath.Join(t.TempDir(), "session.csv")

	if err := RunExport(path, "csv", out); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse CSV: %v", err)
	}
	if len(records) != 6 {
		t.Fatalf("expected header and 5 rows, got %d records", len(records))
	}
	if records[0][0] != "timestamp" || len(records[0]) != len(csvHeader) {
		t.Errorf("unexpected header: %v", records[0])
	}

	request := records[2]
	if request[7] != "REQUEST" || request[8] != "1" || request[9] != "GET" || request[10] != "/module/flux-capacitor" {
		t.Errorf("unexpected request row: %v", request)
	}
	frame := records[4]
	if frame[7] != "frame" || frame[12] != "1500" || frame[2] != "IN" {
		t.Errorf("unexpected frame row: %v", frame)
	}
	response := records[5]
	if response[11] != "NOT_FOUND_ERROR" {
		t.Errorf("unexpected response row: %v", response)
	}
}

func TestExportUnknownFormat(t *testing.T) {
	path := createTestLogFile(t, "session.zlog", sessionEvents())
	if err := RunExport(path, "xml", ""); err == nil {
		t.Error("expected error for unknown format")
	}
}
