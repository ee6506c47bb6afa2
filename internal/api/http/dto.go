package http

import "video-dispatcher/internal/domain"

// RecordResponse summarises the outcome of one creation event.
type RecordResponse struct {
	Bucket   string   `json:"bucket"`
	Key      string   `json:"key"`
	Outcome  string   `json:"outcome"`
	LessonID string   `json:"lesson_id,omitempty"`
	TaskArn  string   `json:"task_arn,omitempty"`
	Error    string   `json:"error,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// BatchResponse is returned for every dispatched notification batch.
type BatchResponse struct {
	BatchID  string           `json:"batch_id"`
	Received int              `json:"received"`
	Ignored  int              `json:"ignored"`
	Launched int              `json:"launched"`
	Skipped  int              `json:"skipped"`
	Failed   int              `json:"failed"`
	Error    string           `json:"error,omitempty"`
	Records  []RecordResponse `json:"records"`
}

func newBatchResponse(res *domain.BatchResult) BatchResponse {
	resp := BatchResponse{
		BatchID:  res.BatchID,
		Received: res.Received,
		Ignored:  res.Ignored,
		Launched: res.Count(domain.OutcomeLaunched),
		Skipped:  res.Count(domain.OutcomeSkipped),
		Failed:   res.Count(domain.OutcomeFailed),
		Records:  make([]RecordResponse, 0, len(res.Outcomes)),
	}
	if err := res.Err(); err != nil {
		resp.Error = err.Error()
	}
	for _, o := range res.Outcomes {
		rec := RecordResponse{
			Bucket:   o.Bucket,
			Key:      o.Key,
			Outcome:  string(o.Kind),
			LessonID: o.LessonID,
			TaskArn:  o.TaskHandle.String(),
		}
		switch {
		case o.Err != nil:
			rec.Error = o.Err.Error()
		case o.Reason != nil:
			rec.Error = o.Reason.Error()
		}
		for _, w := range o.Warnings {
			rec.Warnings = append(rec.Warnings, w.Error())
		}
		resp.Records = append(resp.Records, rec)
	}
	return resp
}
