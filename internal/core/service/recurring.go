package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/tradeworks/contractor-hub/internal/api/metrics"
	"github.com/tradeworks/contractor-hub/internal/core/domain"
)

const (
	dateLayout       = "2006-01-02"
	defaultTermsDays = 30
)

// RecurringRun is the result of one pass of GenerateRecurring.
type RecurringRun struct {
	// Drafts are the newly materialised invoices.
	Drafts []domain.Document
	// Templates are the due templates with next_run_date advanced.
	Templates []domain.Document
	// Skipped maps template ids to the reason they could not be processed.
	Skipped map[string]error
}

// GenerateRecurring emits one draft invoice for every recurring invoice
// template whose next run date is on or before today, and advances each such
// template by its frequency from its previous next run date. Templates not
// yet due are not returned. The function is pure: docs are not modified.
func GenerateRecurring(docs []domain.Document, now time.Time, newID func() string) RecurringRun {
	today := domain.DateOnly(now)
	run := RecurringRun{Skipped: map[string]error{}}

	for _, tpl := range docs {
		if tpl.Type != domain.DocInvoice {
			continue
		}
		rec := gjson.GetBytes(tpl.Payload, "recurring")
		if !rec.Get("enabled").Bool() {
			continue
		}

		nextRun, err := parseDate(rec.Get("next_run_date").String())
		if err != nil {
			run.Skipped[tpl.ID] = fmt.Errorf("next_run_date: %w", err)
			continue
		}
		if nextRun.After(today) {
			continue
		}
		freq := domain.Frequency(rec.Get("frequency").String())
		advanced, ok := freq.Advance(nextRun)
		if !ok {
			run.Skipped[tpl.ID] = fmt.Errorf("unknown frequency %q", freq)
			continue
		}

		draft, err := materialiseDraft(tpl, nextRun, now, newID())
		if err != nil {
			run.Skipped[tpl.ID] = err
			continue
		}
		payload, err := sjson.SetBytes(cloneBytes(tpl.Payload), "recurring.next_run_date", advanced.Format(dateLayout))
		if err != nil {
			run.Skipped[tpl.ID] = fmt.Errorf("advance template: %w", err)
			continue
		}

		updated := tpl
		updated.Payload = payload
		run.Drafts = append(run.Drafts, draft)
		run.Templates = append(run.Templates, updated)
	}
	return run
}

// materialiseDraft copies the template payload into a new draft invoice dated
// invoiceDate. Payment terms carry over from the template.
func materialiseDraft(tpl domain.Document, invoiceDate, now time.Time, id string) (domain.Document, error) {
	terms := paymentTermsDays(tpl.Payload)
	due := invoiceDate.AddDate(0, 0, terms)

	payload := cloneBytes(tpl.Payload)
	var err error
	for _, path := range []string{"recurring", "signature"} {
		if payload, err = sjson.DeleteBytes(payload, path); err != nil {
			return domain.Document{}, fmt.Errorf("draft %s: %w", path, err)
		}
	}
	sets := []struct {
		path  string
		value any
	}{
		{"status", "draft"},
		{"invoice_number", invoiceNumber(invoiceDate, id)},
		{"invoice_date", invoiceDate.Format(dateLayout)},
		{"due_date", due.Format(dateLayout)},
	}
	for _, s := range sets {
		if payload, err = sjson.SetBytes(payload, s.path, s.value); err != nil {
			return domain.Document{}, fmt.Errorf("draft %s: %w", s.path, err)
		}
	}

	return domain.Document{
		ID:        id,
		AccountID: tpl.AccountID,
		JobID:     tpl.JobID,
		Type:      domain.DocInvoice,
		Payload:   payload,
		CreatedAt: now,
	}, nil
}

// paymentTermsDays is the template's due date minus its invoice date, or the
// default terms when either is missing.
func paymentTermsDays(payload []byte) int {
	res := gjson.GetManyBytes(payload, "invoice_date", "due_date")
	issued, err1 := parseDate(res[0].String())
	due, err2 := parseDate(res[1].String())
	if err1 != nil || err2 != nil || due.Before(issued) {
		return defaultTermsDays
	}
	return int(due.Sub(issued).Hours() / 24)
}

// invoiceNumber formats INV-YYYYMMDD-XXXX with a suffix taken from id.
func invoiceNumber(date time.Time, id string) string {
	suffix := strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	if len(suffix) > 4 {
		suffix = suffix[:4]
	}
	return fmt.Sprintf("INV-%s-%s", date.Format("20060102"), suffix)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("missing date")
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return domain.DateOnly(t), nil
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return []byte("{}")
	}
	return append([]byte(nil), b...)
}

// RunRecurring generates the due drafts from the published documents, writes
// drafts and advanced templates to the remote store, and refreshes. It
// returns the number of drafts created.
func (c *SyncController) RunRecurring(ctx context.Context, now time.Time) (int, error) {
	var created int
	var failures []error
	err := c.write(ctx, "run_recurring", func(ctx context.Context) error {
		run := GenerateRecurring(c.state.Documents(), now, c.newID)
		for id, reason := range run.Skipped {
			c.log.Warn().Err(reason).Str("template_id", id).Msg("recurring template skipped")
		}

		for i := range run.Drafts {
			draft, tpl := run.Drafts[i], run.Templates[i]
			if err := c.remote.Documents().Insert(ctx, &draft); err != nil {
				if errors.Is(err, domain.ErrSchemaMismatch) {
					return err
				}
				failures = append(failures, fmt.Errorf("template %s: %w", tpl.ID, err))
				continue
			}
			// A template advances only once its draft exists.
			if err := c.remote.Documents().Update(ctx, &tpl); err != nil {
				failures = append(failures, fmt.Errorf("advance template %s: %w", tpl.ID, err))
			}
			created++
			metrics.RecurringDraftsTotal.Inc()
		}
		if created > 0 {
			if err := c.remote.Profiles().IncrementUsage(ctx, c.accountID, created, 0); err != nil {
				c.log.Warn().Err(err).Msg("failed to count recurring drafts")
			}
		}
		c.log.Info().Int("drafts", created).Msg("recurring run completed")
		return nil
	})
	if err != nil {
		return created, err
	}
	return created, errors.Join(failures...)
}
