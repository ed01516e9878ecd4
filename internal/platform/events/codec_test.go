package events

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestCodec_RoundTripsEveryVariant(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := []Event{
		AnalysisRequested{AppID: "a", GitHub: "https://github.com/o/r", JobID: "j", UserID: "system", Status: "in_progress", SourceKind: "github"},
		AnalysisFinished{AppID: "a", JobID: "j", Stack: []string{"go", "postgresql"}, Repository: RepositoryMeta{FullName: "o/r", Stars: 3}, Readme: "# hi"},
		AnalysisFailed{AppID: "a", JobID: "j", Error: "clone failed"},
		SubmissionBatchCreated{Period: "daily", Submissions: []Submission{{ID: "s1", Name: "r"}}},
	}
	for _, want := range cases {
		b, err := Encode(want, at)
		if err != nil {
			t.Fatalf("Encode %s: %v", want.EventName(), err)
		}
		got, env, err := Decode(b)
		if err != nil {
			t.Fatalf("Decode %s: %v", want.EventName(), err)
		}
		if env.Name != want.EventName() || !env.EmittedAt.Equal(at) {
			t.Fatalf("envelope = %+v", env)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("round trip mismatch:\n got %#v\nwant %#v", got, want)
		}
	}
}

func TestCodec_WireFieldNames(t *testing.T) {
	t.Parallel()

	b, _ := Encode(AnalysisRequested{AppID: "a", GitHub: "g", JobID: "j"}, time.Now())
	var env map[string]json.RawMessage
	if err := json.Unmarshal(b, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, k := range []string{"name", "payload", "emitted_at"} {
		if _, ok := env[k]; !ok {
			t.Fatalf("envelope missing %q: %s", k, b)
		}
	}
	var payload map[string]any
	_ = json.Unmarshal(env["payload"], &payload)
	for _, k := range []string{"appId", "github", "jobId", "userId", "status", "sourceKind"} {
		if _, ok := payload[k]; !ok {
			t.Fatalf("payload missing %q: %s", k, env["payload"])
		}
	}
}

func TestCodec_Errors(t *testing.T) {
	t.Parallel()

	if _, _, err := Decode([]byte("{")); err == nil {
		t.Fatalf("expected envelope error")
	}
	if _, _, err := Decode([]byte(`{"name":"nope","payload":{}}`)); !errors.Is(err, ErrUnknownEvent) {
		t.Fatalf("expected ErrUnknownEvent, got %v", err)
	}
	if _, _, err := Decode([]byte(`{"name":"analysis/failed","payload":"x"}`)); err == nil {
		t.Fatalf("expected payload error")
	}
	mismatch := `{"name":"github-app-submission/daily","payload":{"period":"weekly"}}`
	if _, _, err := Decode([]byte(mismatch)); err == nil {
		t.Fatalf("expected period mismatch error")
	}
}
