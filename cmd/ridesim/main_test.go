package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const climbTrack = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <trk><name>climb</name><trkseg>
    <trkpt lat="0" lon="0"><ele>100</ele><time>2024-05-01T08:00:00Z</time></trkpt>
    <trkpt lat="0" lon="0.001"><ele>104</ele><time>2024-05-01T08:00:01Z</time></trkpt>
    <trkpt lat="0" lon="0.002"><ele>108</ele><time>2024-05-01T08:00:02Z</time></trkpt>
    <trkpt lat="0" lon="0.003"><ele>112</ele><time>2024-05-01T08:00:03Z</time></trkpt>
    <trkpt lat="0" lon="0.004"><ele>116</ele><time>2024-05-01T08:00:04Z</time></trkpt>
    <trkpt lat="0" lon="0.005"><ele>120</ele><time>2024-05-01T08:00:05Z</time></trkpt>
  </trkseg></trk>
</gpx>`

func writeTrack(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "climb.gpx")
	if err := os.WriteFile(path, []byte(climbTrack), 0o644); err != nil {
		t.Fatalf("write track: %v", err)
	}
	return path
}

func TestRunReplaysAndExports(t *testing.T) {
	dir := t.TempDir()
	opts := options{
		input:   writeTrack(t),
		speedup: 100,
		gpxOut:  filepath.Join(dir, "out.gpx"),
		fitOut:  filepath.Join(dir, "out.fit"),
	}

	var out bytes.Buffer
	if err := run(context.Background(), opts, &out); err != nil {
		t.Fatalf("run: %v", err)
	}

	text := out.String()
	if !strings.Contains(text, "end of track") || strings.Contains(text, "interrupted") {
		t.Fatalf("expected the replay to finish on its own: %s", text)
	}
	if !strings.Contains(text, "replaying 6 points") || !strings.Contains(text, "6 points") {
		t.Fatalf("unexpected output: %s", text)
	}
	if !strings.Contains(text, "+20 m") {
		t.Fatalf("expected 20 m of climbing in output: %s", text)
	}

	gpxData, err := os.ReadFile(opts.gpxOut)
	if err != nil || !bytes.Contains(gpxData, []byte("<name>climb</name>")) {
		t.Fatalf("gpx output: %v", err)
	}
	fitData, err := os.ReadFile(opts.fitOut)
	if err != nil || len(fitData) < 12 || string(fitData[8:12]) != ".FIT" {
		t.Fatalf("fit output: %v", err)
	}
}

func TestRunAsksAdvisor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"title":"Strong climb","summary":"Steady effort.","recommendations":["rest","eat","sleep","stretch"]}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	err := run(context.Background(), options{input: writeTrack(t), speedup: 100, advisorURL: srv.URL}, &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "Strong climb") || !strings.Contains(out.String(), "3. sleep") {
		t.Fatalf("unexpected output: %s", out.String())
	}
	if strings.Contains(out.String(), "stretch") {
		t.Fatalf("expected recommendations trimmed to three")
	}
}

func TestRunMissingFile(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), options{input: filepath.Join(t.TempDir(), "none.gpx")}, &out); err == nil {
		t.Fatalf("expected load error")
	}
}

func TestRunInterruptedStopsRide(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	if err := run(ctx, options{input: writeTrack(t), speedup: 1}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "interrupted") {
		t.Fatalf("expected interrupted notice: %s", out.String())
	}
}
