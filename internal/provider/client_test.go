package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"roomcraft/internal/domain"
)

// captureTransport answers every request from a canned response and records
// the last request it saw.
type captureTransport struct {
	status int
	body   string
	last   *http.Request
	read   []byte
}

func (c *captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.last = req
	if req.Body != nil {
		c.read, _ = io.ReadAll(req.Body)
	}
	return &http.Response{
		StatusCode: c.status,
		Body:       io.NopCloser(bytes.NewReader([]byte(c.body))),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}, nil
}

func testClient(transport *captureTransport) *Client {
	return NewClient(Options{
		APIKey:        "test-key",
		BaseURL:       "https://provider.test/v1",
		RatePerSecond: 1000,
		HTTPClient:    &http.Client{Transport: transport},
	})
}

func imageInput() SubmitInput {
	return SubmitInput{
		Kind:      domain.MediaImage,
		Directive: domain.Directive{Prompt: "redesign this room"},
		SourceURL: "https://uploads.example.com/room.jpg",
	}
}

func TestSubmitSendsAuthorizedRequest(t *testing.T) {
	transport := &captureTransport{status: http.StatusOK, body: `{"id":"task-1","status":"queued"}`}
	client := testClient(transport)

	id, err := client.Submit(context.Background(), imageInput())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if id != "task-1" {
		t.Fatalf("id = %q, want task-1", id)
	}
	if got := transport.last.Header.Get("Authorization"); got != "Bearer test-key" {
		t.Fatalf("Authorization = %q", got)
	}
	if transport.last.URL.Path != "/v1/generations" {
		t.Fatalf("path = %q", transport.last.URL.Path)
	}

	var sent submitRequest
	if err := json.Unmarshal(transport.read, &sent); err != nil {
		t.Fatalf("decode sent body: %v", err)
	}
	if sent.Mode != "image" || sent.Prompt != "redesign this room" {
		t.Fatalf("sent = %+v", sent)
	}
	if sent.Source.URL != "https://uploads.example.com/room.jpg" {
		t.Fatalf("sent.Source.URL = %q", sent.Source.URL)
	}
}

func TestSubmitEncodesInlineSource(t *testing.T) {
	transport := &captureTransport{status: http.StatusOK, body: `{"task_id":"task-2"}`}
	client := testClient(transport)

	in := imageInput()
	in.SourceURL = ""
	in.SourceData = []byte{0x89, 0x50, 0x4e, 0x47}
	in.SourceMIME = "image/png"

	id, err := client.Submit(context.Background(), in)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if id != "task-2" {
		t.Fatalf("id = %q, want task-2 from task_id field", id)
	}

	var sent submitRequest
	if err := json.Unmarshal(transport.read, &sent); err != nil {
		t.Fatalf("decode sent body: %v", err)
	}
	if sent.Source.Data == "" || sent.Source.MIMEType != "image/png" {
		t.Fatalf("sent.Source = %+v", sent.Source)
	}
}

func TestSubmitErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   domain.Kind
	}{
		{"server error", http.StatusInternalServerError, `{}`, domain.KindProviderUnavailable},
		{"bad gateway", http.StatusBadGateway, ``, domain.KindProviderUnavailable},
		{"rejected with message", http.StatusBadRequest, `{"message":"prompt too long"}`, domain.KindProviderRejected},
		{"unauthorized", http.StatusUnauthorized, `{"error":"invalid key"}`, domain.KindProviderRejected},
		{"missing job id", http.StatusOK, `{"status":"queued"}`, domain.KindProviderContract},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := testClient(&captureTransport{status: tt.status, body: tt.body})
			_, err := client.Submit(context.Background(), imageInput())
			if !domain.IsKind(err, tt.kind) {
				t.Fatalf("KindOf(err) = %v, want %v (err = %v)", domain.KindOf(err), tt.kind, err)
			}
		})
	}
}

func TestSubmitRejectedMessagePreserved(t *testing.T) {
	client := testClient(&captureTransport{status: http.StatusUnprocessableEntity, body: `{"message":"image resolution too low"}`})
	_, err := client.Submit(context.Background(), imageInput())
	if err == nil || err.Error() != "provider_rejected: image resolution too low" {
		t.Fatalf("err = %v, want provider message verbatim", err)
	}
}

func TestSubmitValidation(t *testing.T) {
	client := testClient(&captureTransport{status: http.StatusOK, body: `{"id":"x"}`})

	in := imageInput()
	in.Directive.Prompt = "   "
	if _, err := client.Submit(context.Background(), in); !domain.IsKind(err, domain.KindProviderRejected) {
		t.Fatalf("empty prompt: KindOf(err) = %v, want %v", domain.KindOf(err), domain.KindProviderRejected)
	}

	in = imageInput()
	in.SourceURL = ""
	if _, err := client.Submit(context.Background(), in); !domain.IsKind(err, domain.KindProviderRejected) {
		t.Fatalf("missing source: KindOf(err) = %v, want %v", domain.KindOf(err), domain.KindProviderRejected)
	}
}

func TestSubmitWithoutCredentials(t *testing.T) {
	client := NewClient(Options{BaseURL: "https://provider.test/v1"})
	_, err := client.Submit(context.Background(), imageInput())
	if !domain.IsKind(err, domain.KindConfiguration) {
		t.Fatalf("KindOf(err) = %v, want %v", domain.KindOf(err), domain.KindConfiguration)
	}
}

func TestStatusDecodesKnownShapes(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		state domain.JobState
		url   string
	}{
		{"object in progress", `{"id":"t1","status":"processing"}`, domain.JobInProgress, ""},
		{"object completed", `{"id":"t1","status":"completed","output":{"url":"https://tmp/x.png"}}`, domain.JobCompleted, "https://tmp/x.png"},
		{"array form", `[{"id":"t1","status":"succeeded","output":{"url":"https://tmp/y.png"}}]`, domain.JobCompleted, "https://tmp/y.png"},
		{"legacy success image", `{"success":true,"assets":{"image":"https://tmp/z.png"}}`, domain.JobCompleted, "https://tmp/z.png"},
		{"legacy success video", `{"success":true,"assets":{"video":"https://tmp/z.mp4"}}`, domain.JobCompleted, "https://tmp/z.mp4"},
		{"legacy running", `{"success":true,"status":"running"}`, domain.JobInProgress, ""},
		{"legacy failure", `{"success":false,"error":"content policy"}`, domain.JobFailed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := testClient(&captureTransport{status: http.StatusOK, body: tt.body})
			job, err := client.Status(context.Background(), "t1")
			if err != nil {
				t.Fatalf("Status() error = %v", err)
			}
			if job.State != tt.state {
				t.Fatalf("job.State = %v, want %v", job.State, tt.state)
			}
			if job.ResultURL != tt.url {
				t.Fatalf("job.ResultURL = %q, want %q", job.ResultURL, tt.url)
			}
		})
	}
}

func TestStatusRejectsUnknownShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ``},
		{"empty object", `{}`},
		{"unknown status word", `{"id":"t1","status":"daydreaming"}`},
		{"empty array", `[]`},
		{"legacy success without assets", `{"success":true}`},
		{"html error page", `<html>bad gateway</html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := testClient(&captureTransport{status: http.StatusOK, body: tt.body})
			_, err := client.Status(context.Background(), "t1")
			if !domain.IsKind(err, domain.KindProviderContract) {
				t.Fatalf("KindOf(err) = %v, want %v (err = %v)", domain.KindOf(err), domain.KindProviderContract, err)
			}
		})
	}
}

func TestStatusFailedJobIsNotAnError(t *testing.T) {
	client := testClient(&captureTransport{status: http.StatusOK, body: `{"id":"t1","status":"failed","error":"blocked by safety filter"}`})
	job, err := client.Status(context.Background(), "t1")
	if err != nil {
		t.Fatalf("Status() error = %v, want nil", err)
	}
	if job.State != domain.JobFailed || job.FailureReason != "blocked by safety filter" {
		t.Fatalf("job = %+v", job)
	}
}

func TestStatusRequestPath(t *testing.T) {
	transport := &captureTransport{status: http.StatusOK, body: `{"id":"t9","status":"queued"}`}
	client := testClient(transport)
	if _, err := client.Status(context.Background(), "t9"); err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if transport.last.URL.Path != "/v1/generations/t9" {
		t.Fatalf("path = %q", transport.last.URL.Path)
	}
	if transport.last.Method != http.MethodGet {
		t.Fatalf("method = %q", transport.last.Method)
	}
}
