package provider

import (
	"encoding/json"
	"strings"

	"roomcraft/internal/domain"
)

type submitRequest struct {
	Mode   string         `json:"mode"`
	Prompt string         `json:"prompt"`
	Source submitSource   `json:"source"`
	Params map[string]any `json:"params,omitempty"`
}

type submitSource struct {
	URL      string `json:"url,omitempty"`
	Data     string `json:"data,omitempty"`
	MIMEType string `json:"mime_type,omitempty"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (e errorResponse) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// taskPayload is the canonical single-task shape of the provider API.
type taskPayload struct {
	ID     string `json:"id"`
	TaskID string `json:"task_id"`
	Status string `json:"status"`
	Error  string `json:"error"`
	Output struct {
		URL string `json:"url"`
	} `json:"output"`
}

// legacyPayload is the older response shape still emitted by some provider
// deployments.
type legacyPayload struct {
	Success *bool  `json:"success"`
	Status  string `json:"status"`
	Error   string `json:"error"`
	Assets  struct {
		Image string `json:"image"`
		Video string `json:"video"`
	} `json:"assets"`
}

// decodeJobResponse normalizes the provider's status body into a
// GenerationJob. The upstream contract is unstable (single object, array, or
// a legacy success/assets envelope have all been observed), so decoding is an
// explicit tagged union: any body that matches none of the known shapes is a
// contract error, never a guess.
func decodeJobResponse(raw []byte) (*domain.GenerationJob, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return nil, domain.NewError(domain.KindProviderContract, "empty status response")
	}

	if strings.HasPrefix(trimmed, "[") {
		var list []taskPayload
		if err := json.Unmarshal(raw, &list); err != nil || len(list) == 0 {
			return nil, domain.NewError(domain.KindProviderContract, "unrecognized array status response")
		}
		return taskToJob(list[0])
	}

	var task taskPayload
	if err := json.Unmarshal(raw, &task); err == nil && (task.ID != "" || task.TaskID != "" || task.Status != "") {
		return taskToJob(task)
	}

	var legacy legacyPayload
	if err := json.Unmarshal(raw, &legacy); err == nil && legacy.Success != nil {
		return legacyToJob(legacy)
	}

	return nil, domain.NewError(domain.KindProviderContract, "unrecognized status response shape")
}

func taskToJob(task taskPayload) (*domain.GenerationJob, error) {
	state, err := normalizeState(task.Status)
	if err != nil {
		return nil, err
	}
	id := task.ID
	if id == "" {
		id = task.TaskID
	}
	return &domain.GenerationJob{
		ProviderID:    id,
		State:         state,
		FailureReason: task.Error,
		ResultURL:     task.Output.URL,
	}, nil
}

func legacyToJob(legacy legacyPayload) (*domain.GenerationJob, error) {
	if !*legacy.Success {
		reason := legacy.Error
		if reason == "" {
			reason = "generation failed"
		}
		return &domain.GenerationJob{State: domain.JobFailed, FailureReason: reason}, nil
	}
	url := legacy.Assets.Image
	if url == "" {
		url = legacy.Assets.Video
	}
	if url != "" {
		return &domain.GenerationJob{State: domain.JobCompleted, ResultURL: url}, nil
	}
	// success=true with no asset and a non-terminal status means the job is
	// still running on legacy deployments.
	if legacy.Status != "" {
		state, err := normalizeState(legacy.Status)
		if err != nil {
			return nil, err
		}
		return &domain.GenerationJob{State: state}, nil
	}
	return nil, domain.NewError(domain.KindProviderContract, "legacy response reports success without assets")
}

func normalizeState(status string) (domain.JobState, error) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "queued", "submitted", "pending", "accepted":
		return domain.JobSubmitted, nil
	case "processing", "in_progress", "running", "generating":
		return domain.JobInProgress, nil
	case "completed", "succeeded", "done":
		return domain.JobCompleted, nil
	case "failed", "error", "rejected":
		return domain.JobFailed, nil
	default:
		return "", domain.NewError(domain.KindProviderContract, "unknown job status "+strings.TrimSpace(status))
	}
}
