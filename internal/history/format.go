package history

import (
	"time"

	"github.com/xeonx/timeago"

	"github.com/goatkit/timeflow/internal/models"
)

// Event is a display-ready history row returned by the API.
type Event struct {
	Status    string    `json:"status"`
	Reason    string    `json:"reason,omitempty"`
	Actor     string    `json:"actor"`
	At        time.Time `json:"at"`
	When      string    `json:"when"`
	Assignee  string    `json:"assignee,omitempty"`
	TeamCode  string    `json:"team_code,omitempty"`
	TaskType  string    `json:"task_type_code,omitempty"`
	StartDate string    `json:"start_date,omitempty"`
	DueDate   string    `json:"due_date,omitempty"`
}

func relative(t time.Time) string {
	return timeago.English.Format(t)
}

func dateStr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// FormatTask renders task history rows for display, preserving order.
func FormatTask(rows []models.TaskHist) []Event {
	out := make([]Event, 0, len(rows))
	for _, h := range rows {
		out = append(out, Event{
			Status:    h.StatusCode,
			Reason:    deref(h.StatusReason),
			Actor:     h.CreatedBy,
			At:        h.CreatedAt,
			When:      relative(h.CreatedAt),
			Assignee:  deref(h.Assignee),
			TeamCode:  deref(h.AssignedTeamCode),
			TaskType:  deref(h.TaskTypeCode),
			StartDate: dateStr(h.StartDate),
			DueDate:   dateStr(h.DueDate),
		})
	}
	return out
}
