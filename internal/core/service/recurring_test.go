package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/tradeworks/contractor-hub/internal/core/domain"
)

func recurringTemplate(id, nextRun, frequency string) domain.Document {
	payload := `{
		"invoice_number": "INV-20260101-AAAA",
		"invoice_date": "2026-01-01",
		"due_date": "2026-01-15",
		"status": "sent",
		"line_items": [{"description": "Monthly maintenance", "amount": 450}],
		"recurring": {"enabled": true, "frequency": "` + frequency + `", "next_run_date": "` + nextRun + `"}
	}`
	return domain.Document{
		ID:        id,
		AccountID: testAccount,
		JobID:     "job-1",
		Type:      domain.DocInvoice,
		Payload:   json.RawMessage(payload),
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func fixedIDs(ids ...string) func() string {
	i := 0
	return func() string {
		id := ids[i]
		i++
		return id
	}
}

func TestGenerateRecurring_DueTemplate(t *testing.T) {
	today := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	tpl := recurringTemplate("tpl-1", "2026-03-09", "Monthly")

	run := GenerateRecurring([]domain.Document{tpl}, today, fixedIDs("b7e2c1d0-0000-4000-8000-000000000001"))

	require.Len(t, run.Drafts, 1)
	require.Len(t, run.Templates, 1)
	assert.Empty(t, run.Skipped)

	draft := run.Drafts[0]
	assert.Equal(t, "b7e2c1d0-0000-4000-8000-000000000001", draft.ID)
	assert.Equal(t, domain.DocInvoice, draft.Type)
	assert.Equal(t, "job-1", draft.JobID)
	assert.Equal(t, "draft", gjson.GetBytes(draft.Payload, "status").String())
	assert.Equal(t, "INV-20260309-B7E2", gjson.GetBytes(draft.Payload, "invoice_number").String())
	assert.Equal(t, "2026-03-09", gjson.GetBytes(draft.Payload, "invoice_date").String())
	assert.Equal(t, "2026-03-23", gjson.GetBytes(draft.Payload, "due_date").String(), "14 day terms carried over")
	assert.False(t, gjson.GetBytes(draft.Payload, "recurring").Exists())
	assert.Equal(t, "Monthly maintenance", gjson.GetBytes(draft.Payload, "line_items.0.description").String())

	advanced := run.Templates[0]
	assert.Equal(t, "tpl-1", advanced.ID)
	assert.Equal(t, "2026-04-09", gjson.GetBytes(advanced.Payload, "recurring.next_run_date").String(),
		"advanced one month from the original next run date, not from today")
	assert.Equal(t, "sent", gjson.GetBytes(advanced.Payload, "status").String())

	assert.Equal(t, "2026-03-09", gjson.GetBytes(tpl.Payload, "recurring.next_run_date").String(), "input untouched")
}

func TestGenerateRecurring_NotYetDue(t *testing.T) {
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	tpl := recurringTemplate("tpl-1", "2026-03-15", "Monthly")

	run := GenerateRecurring([]domain.Document{tpl}, today, fixedIDs())

	assert.Empty(t, run.Drafts)
	assert.Empty(t, run.Templates)
	assert.Empty(t, run.Skipped)
}

func TestGenerateRecurring_DueToday(t *testing.T) {
	today := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)
	run := GenerateRecurring([]domain.Document{recurringTemplate("tpl-1", "2026-03-10", "Annually")}, today, fixedIDs("d1"))

	require.Len(t, run.Drafts, 1)
	assert.Equal(t, "2027-03-10", gjson.GetBytes(run.Templates[0].Payload, "recurring.next_run_date").String())
}

func TestGenerateRecurring_Frequencies(t *testing.T) {
	today := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	cases := map[string]string{
		"Monthly":     "2026-02-28",
		"Quarterly":   "2026-04-28",
		"Bi-Annually": "2026-07-28",
		"Annually":    "2027-01-28",
	}
	for freq, want := range cases {
		run := GenerateRecurring([]domain.Document{recurringTemplate("tpl", "2026-01-28", freq)}, today, fixedIDs("x"))
		require.Len(t, run.Templates, 1, freq)
		assert.Equal(t, want, gjson.GetBytes(run.Templates[0].Payload, "recurring.next_run_date").String(), freq)
	}
}

func TestGenerateRecurring_IgnoresNonTemplates(t *testing.T) {
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	disabled := recurringTemplate("tpl-off", "2026-03-01", "Monthly")
	disabled.Payload = json.RawMessage(`{"recurring":{"enabled":false,"frequency":"Monthly","next_run_date":"2026-03-01"}}`)
	estimate := recurringTemplate("est", "2026-03-01", "Monthly")
	estimate.Type = domain.DocEstimate
	plain := domain.Document{ID: "plain", Type: domain.DocInvoice, Payload: json.RawMessage(`{"status":"paid"}`)}

	run := GenerateRecurring([]domain.Document{disabled, estimate, plain}, today, fixedIDs())
	assert.Empty(t, run.Drafts)
	assert.Empty(t, run.Skipped)
}

func TestGenerateRecurring_SkipsMalformed(t *testing.T) {
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	badFreq := recurringTemplate("bad-freq", "2026-03-01", "Weekly")
	badDate := recurringTemplate("bad-date", "soon", "Monthly")

	run := GenerateRecurring([]domain.Document{badFreq, badDate}, today, fixedIDs("a", "b"))
	assert.Empty(t, run.Drafts)
	assert.Contains(t, run.Skipped, "bad-freq")
	assert.Contains(t, run.Skipped, "bad-date")
}

func TestGenerateRecurring_DefaultTerms(t *testing.T) {
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	tpl := domain.Document{
		ID:      "tpl",
		Type:    domain.DocInvoice,
		Payload: json.RawMessage(`{"recurring":{"enabled":true,"frequency":"Monthly","next_run_date":"2026-03-01T00:00:00Z"}}`),
	}
	run := GenerateRecurring([]domain.Document{tpl}, today, fixedIDs("abcd1234"))
	require.Len(t, run.Drafts, 1)
	assert.Equal(t, "2026-03-31", gjson.GetBytes(run.Drafts[0].Payload, "due_date").String())
	assert.Equal(t, "INV-20260301-ABCD", gjson.GetBytes(run.Drafts[0].Payload, "invoice_number").String())
}

func TestRunRecurring_WritesDraftsAndAdvancesTemplates(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()
	job := &domain.Job{Name: "Maintenance"}
	require.NoError(t, f.ctrl.CreateJob(ctx, job))
	tpl := recurringTemplate("", "2026-03-09", "Monthly")
	tpl.ID = ""
	tpl.JobID = job.ID
	require.NoError(t, f.ctrl.SaveDocument(ctx, &tpl))

	created, err := f.ctrl.RunRecurring(ctx, testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	docs := f.ctrl.State().Documents()
	require.Len(t, docs, 2)
	for _, d := range docs {
		if d.ID == tpl.ID {
			assert.Equal(t, "2026-04-09", gjson.GetBytes(d.Payload, "recurring.next_run_date").String())
			continue
		}
		assert.Equal(t, "draft", gjson.GetBytes(d.Payload, "status").String())
	}

	created, err = f.ctrl.RunRecurring(ctx, testNow)
	require.NoError(t, err)
	assert.Zero(t, created, "a template is not reprocessed in the same period")
}
