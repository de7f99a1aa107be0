package services

import (
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"logbook-api/models"

	sqlmysql "github.com/go-sql-driver/mysql"
)

func logbookRow(id, ownerID int64, status string) *queryStep {
	weekStart := time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)
	return &queryStep{
		kind:    kindQuery,
		pattern: regexp.MustCompile("SELECT \\* FROM `logbooks` WHERE logbook_id = \\?"),
		columns: []string{"logbook_id", "owner_id", "status", "week_start_date", "week_end_date"},
		rows: [][]driver.Value{
			{id, ownerID, status, weekStart, weekStart.AddDate(0, 0, 6)},
		},
	}
}

func TestSubmitFirstSubmission(t *testing.T) {
	steps := []*queryStep{
		logbookRow(7, 42, "draft"),
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT count\\(\\*\\) FROM `logbook_entries` WHERE logbook_id = \\?"),
			args:    []driver.Value{int64(7)},
			columns: []string{"count(*)"},
			rows:    [][]driver.Value{{int64(3)}},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE `logbooks` SET .* WHERE logbook_id = \\? AND status = \\?"),
			result:  scriptedResult{rowsAffected: 1},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `logbook_audit_log`"),
			result:  scriptedResult{lastInsertID: 1, rowsAffected: 1},
		},
	}

	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	service := NewWorkflowService(gormDB)
	lb, err := service.Submit(7, Actor{UserID: 42, Role: models.RoleTrainee})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lb.Status != models.StatusSubmitted {
		t.Errorf("status = %q, want submitted", lb.Status)
	}
	if lb.SubmittedAt == nil {
		t.Error("submitted_at not stamped on first submission")
	}
	if lb.ResubmittedAt != nil {
		t.Error("resubmitted_at stamped on first submission")
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
	if commits, rollbacks := state.txCounts(); commits != 1 || rollbacks != 0 {
		t.Errorf("tx counts = %d commits, %d rollbacks; want 1, 0", commits, rollbacks)
	}
}

func TestSubmitResubmissionStampsResubmittedAt(t *testing.T) {
	weekStart := time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)
	submittedAt := time.Date(2025, time.January, 10, 9, 0, 0, 0, time.UTC)
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM `logbooks` WHERE logbook_id = \\?"),
			columns: []string{"logbook_id", "owner_id", "status", "week_start_date", "submitted_at"},
			rows: [][]driver.Value{
				{int64(7), int64(42), "returned_for_edits", weekStart, submittedAt},
			},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT count\\(\\*\\) FROM `logbook_entries`"),
			columns: []string{"count(*)"},
			rows:    [][]driver.Value{{int64(3)}},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE `logbooks` SET .*`resubmitted_at`"),
			result:  scriptedResult{rowsAffected: 1},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `logbook_audit_log`"),
			result:  scriptedResult{lastInsertID: 2, rowsAffected: 1},
		},
	}

	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	service := NewWorkflowService(gormDB)
	lb, err := service.Submit(7, Actor{UserID: 42, Role: models.RoleTrainee})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lb.Status != models.StatusSubmitted {
		t.Errorf("status = %q, want submitted", lb.Status)
	}
	if lb.ResubmittedAt == nil {
		t.Error("resubmitted_at not stamped on resubmission")
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}

func TestSubmitEmptyLogbook(t *testing.T) {
	steps := []*queryStep{
		logbookRow(7, 42, "draft"),
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT count\\(\\*\\) FROM `logbook_entries`"),
			columns: []string{"count(*)"},
			rows:    [][]driver.Value{{int64(0)}},
		},
	}

	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	service := NewWorkflowService(gormDB)
	if _, err := service.Submit(7, Actor{UserID: 42, Role: models.RoleTrainee}); !errors.Is(err, ErrEmptyLogbook) {
		t.Fatalf("got %v, want ErrEmptyLogbook", err)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
	if commits, _ := state.txCounts(); commits != 0 {
		t.Errorf("empty logbook must not open a transaction; got %d commits", commits)
	}
}

func TestSubmitStaleStateRollsBack(t *testing.T) {
	steps := []*queryStep{
		logbookRow(7, 42, "draft"),
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT count\\(\\*\\) FROM `logbook_entries`"),
			columns: []string{"count(*)"},
			rows:    [][]driver.Value{{int64(3)}},
		},
		{
			// A concurrent transition already moved the status, so the
			// precondition matches no rows.
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE `logbooks` SET .* WHERE logbook_id = \\? AND status = \\?"),
			result:  scriptedResult{rowsAffected: 0},
		},
	}

	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	service := NewWorkflowService(gormDB)
	if _, err := service.Submit(7, Actor{UserID: 42, Role: models.RoleTrainee}); !errors.Is(err, ErrStaleState) {
		t.Fatalf("got %v, want ErrStaleState", err)
	}

	// The audit insert never runs and the transaction rolls back.
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
	if commits, rollbacks := state.txCounts(); commits != 0 || rollbacks != 1 {
		t.Errorf("tx counts = %d commits, %d rollbacks; want 0, 1", commits, rollbacks)
	}
}

func TestSubmitForeignLogbookForbidden(t *testing.T) {
	steps := []*queryStep{
		logbookRow(7, 42, "draft"),
	}

	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	service := NewWorkflowService(gormDB)
	if _, err := service.Submit(7, Actor{UserID: 99, Role: models.RoleTrainee}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("got %v, want ErrForbidden", err)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}

func TestReviewRejectMirrorsReasonIntoThread(t *testing.T) {
	steps := []*queryStep{
		logbookRow(7, 42, "submitted"),
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE `logbooks` SET .* WHERE logbook_id = \\? AND status = \\?"),
			result:  scriptedResult{rowsAffected: 1},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE `logbook_entries` SET"),
			result:  scriptedResult{rowsAffected: 3},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `logbook_audit_log`"),
			result:  scriptedResult{lastInsertID: 3, rowsAffected: 1},
		},
		{
			// No general thread yet; FirstOrCreate falls through to insert.
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM `comment_threads`"),
			columns: []string{"thread_id", "logbook_id", "thread_type"},
			rows:    [][]driver.Value{},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `comment_threads`"),
			result:  scriptedResult{lastInsertID: 5, rowsAffected: 1},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `comment_messages`"),
			result:  scriptedResult{lastInsertID: 9, rowsAffected: 1},
		},
	}

	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	service := NewWorkflowService(gormDB)
	lb, err := service.Review(7, Actor{UserID: 5, Role: models.RoleSupervisor}, EventReject, "missing section C hours", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lb.Status != models.StatusRejected {
		t.Errorf("status = %q, want rejected", lb.Status)
	}
	if lb.SupervisorComments == nil || *lb.SupervisorComments != "missing section C hours" {
		t.Errorf("supervisor comments = %v, want decision reason", lb.SupervisorComments)
	}
	if lb.IsLocked {
		t.Error("rejected logbook must stay unlocked for rework")
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
	if commits, rollbacks := state.txCounts(); commits != 1 || rollbacks != 0 {
		t.Errorf("tx counts = %d commits, %d rollbacks; want 1, 0", commits, rollbacks)
	}
}

func TestReviewEntryCommentScopeValidated(t *testing.T) {
	tests := []struct {
		name    string
		comment EntryComment
	}{
		{"zero entry id", EntryComment{EntryID: 0, Section: models.SectionA, Message: "tighten this up"}},
		{"empty section", EntryComment{EntryID: 3, Section: "", Message: "tighten this up"}},
		{"bogus section", EntryComment{EntryID: 3, Section: "D", Message: "tighten this up"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			steps := []*queryStep{
				logbookRow(7, 42, "submitted"),
			}
			gormDB, state, cleanup := newScriptedGormDB(t, steps)
			defer cleanup()

			service := NewWorkflowService(gormDB)
			_, err := service.Review(7, Actor{UserID: 5, Role: models.RoleSupervisor}, EventApprove, "", []EntryComment{tt.comment})
			if !errors.Is(err, ErrInvalidScope) {
				t.Fatalf("got %v, want ErrInvalidScope", err)
			}

			// Rejected before any write; nothing persists.
			if err := state.verifyComplete(); err != nil {
				t.Fatal(err)
			}
			if commits, _ := state.txCounts(); commits != 0 {
				t.Errorf("malformed scope must not open a transaction; got %d commits", commits)
			}
		})
	}
}

// Blank per-entry remarks are skipped, not validated, so a payload padding
// empty rows for unremarked entries still goes through.
func TestReviewEntryCommentBlankMessageSkipped(t *testing.T) {
	steps := []*queryStep{
		logbookRow(7, 42, "submitted"),
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE `logbooks` SET .* WHERE logbook_id = \\? AND status = \\?"),
			result:  scriptedResult{rowsAffected: 1},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE `logbook_entries` SET"),
			result:  scriptedResult{rowsAffected: 3},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `logbook_audit_log`"),
			result:  scriptedResult{lastInsertID: 8, rowsAffected: 1},
		},
	}

	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	service := NewWorkflowService(gormDB)
	lb, err := service.Review(7, Actor{UserID: 5, Role: models.RoleSupervisor}, EventApprove, "", []EntryComment{
		{EntryID: 0, Section: "", Message: "   "},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lb.Status != models.StatusApproved {
		t.Errorf("status = %q, want approved", lb.Status)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}

func TestCreateLogbookDuplicateWeekConflicts(t *testing.T) {
	steps := []*queryStep{
		{
			// Existence check sees nothing; the row lands concurrently.
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM `logbooks` WHERE owner_id = \\? AND week_start_date = \\?"),
			columns: []string{"logbook_id", "owner_id", "status"},
			rows:    [][]driver.Value{},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `logbooks`"),
			err:     &sqlmysql.MySQLError{Number: 1062, Message: "Duplicate entry '42-2025-01-06' for key 'uq_owner_week'"},
		},
	}

	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	service := NewWorkflowService(gormDB)
	if _, err := service.CreateLogbook(42, time.Date(2025, time.January, 8, 0, 0, 0, 0, time.UTC)); !errors.Is(err, ErrConflict) {
		t.Fatalf("got %v, want ErrConflict", err)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}

func TestReviewRejectWithoutReason(t *testing.T) {
	steps := []*queryStep{
		logbookRow(7, 42, "submitted"),
	}

	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	service := NewWorkflowService(gormDB)
	if _, err := service.Review(7, Actor{UserID: 5, Role: models.RoleSupervisor}, EventReject, "   ", nil); !errors.Is(err, ErrMissingReason) {
		t.Fatalf("got %v, want ErrMissingReason", err)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}

// Full round trip: submit, return for edits, resubmit, approve. Each call
// loads fresh state, so the script provides the logbook as the previous
// transition left it.
func TestSubmitReturnResubmitApproveFlow(t *testing.T) {
	weekStart := time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)
	firstSubmit := time.Date(2025, time.January, 10, 9, 0, 0, 0, time.UTC)
	logbookSelect := regexp.MustCompile("SELECT \\* FROM `logbooks` WHERE logbook_id = \\?")
	entryCount := regexp.MustCompile("SELECT count\\(\\*\\) FROM `logbook_entries`")
	logbookUpdate := regexp.MustCompile("UPDATE `logbooks` SET .* WHERE logbook_id = \\? AND status = \\?")
	entriesUpdate := regexp.MustCompile("UPDATE `logbook_entries` SET")
	auditInsert := regexp.MustCompile("INSERT INTO `logbook_audit_log`")

	steps := []*queryStep{
		// Submit from draft.
		{kind: kindQuery, pattern: logbookSelect,
			columns: []string{"logbook_id", "owner_id", "status", "week_start_date"},
			rows:    [][]driver.Value{{int64(7), int64(42), "draft", weekStart}}},
		{kind: kindQuery, pattern: entryCount, columns: []string{"count(*)"}, rows: [][]driver.Value{{int64(3)}}},
		{kind: kindExec, pattern: logbookUpdate, result: scriptedResult{rowsAffected: 1}},
		{kind: kindExec, pattern: auditInsert, result: scriptedResult{lastInsertID: 1, rowsAffected: 1}},

		// Return for edits; the general thread already exists.
		{kind: kindQuery, pattern: logbookSelect,
			columns: []string{"logbook_id", "owner_id", "status", "week_start_date", "submitted_at"},
			rows:    [][]driver.Value{{int64(7), int64(42), "submitted", weekStart, firstSubmit}}},
		{kind: kindExec, pattern: logbookUpdate, result: scriptedResult{rowsAffected: 1}},
		{kind: kindExec, pattern: entriesUpdate, result: scriptedResult{rowsAffected: 3}},
		{kind: kindExec, pattern: auditInsert, result: scriptedResult{lastInsertID: 2, rowsAffected: 1}},
		{kind: kindQuery, pattern: regexp.MustCompile("SELECT \\* FROM `comment_threads`"),
			columns: []string{"thread_id", "logbook_id", "thread_type", "entry_id", "entry_section"},
			rows:    [][]driver.Value{{int64(5), int64(7), "general", int64(0), ""}}},
		{kind: kindExec, pattern: regexp.MustCompile("INSERT INTO `comment_messages`"),
			result: scriptedResult{lastInsertID: 9, rowsAffected: 1}},

		// Resubmit.
		{kind: kindQuery, pattern: logbookSelect,
			columns: []string{"logbook_id", "owner_id", "status", "week_start_date", "submitted_at"},
			rows:    [][]driver.Value{{int64(7), int64(42), "returned_for_edits", weekStart, firstSubmit}}},
		{kind: kindQuery, pattern: entryCount, columns: []string{"count(*)"}, rows: [][]driver.Value{{int64(3)}}},
		{kind: kindExec, pattern: logbookUpdate, result: scriptedResult{rowsAffected: 1}},
		{kind: kindExec, pattern: auditInsert, result: scriptedResult{lastInsertID: 3, rowsAffected: 1}},

		// Approve.
		{kind: kindQuery, pattern: logbookSelect,
			columns: []string{"logbook_id", "owner_id", "status", "week_start_date", "submitted_at"},
			rows:    [][]driver.Value{{int64(7), int64(42), "submitted", weekStart, firstSubmit}}},
		{kind: kindExec, pattern: logbookUpdate, result: scriptedResult{rowsAffected: 1}},
		{kind: kindExec, pattern: entriesUpdate, result: scriptedResult{rowsAffected: 3}},
		{kind: kindExec, pattern: auditInsert, result: scriptedResult{lastInsertID: 4, rowsAffected: 1}},
	}

	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	service := NewWorkflowService(gormDB)
	trainee := Actor{UserID: 42, Role: models.RoleTrainee}
	supervisor := Actor{UserID: 5, Role: models.RoleSupervisor}

	lb, err := service.Submit(7, trainee)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if lb.Status != models.StatusSubmitted {
		t.Fatalf("after submit status = %q", lb.Status)
	}

	lb, err = service.Review(7, supervisor, EventReturnForEdits, "week 2 hours missing", nil)
	if err != nil {
		t.Fatalf("return for edits: %v", err)
	}
	if lb.Status != models.StatusReturnedForEdits {
		t.Fatalf("after return status = %q", lb.Status)
	}

	lb, err = service.Submit(7, trainee)
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if lb.ResubmittedAt == nil {
		t.Error("resubmit did not stamp resubmitted_at")
	}

	lb, err = service.Review(7, supervisor, EventApprove, "", nil)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if lb.Status != models.StatusApproved || !lb.IsLocked {
		t.Fatalf("after approve status = %q locked = %v", lb.Status, lb.IsLocked)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
	if commits, rollbacks := state.txCounts(); commits != 4 || rollbacks != 0 {
		t.Errorf("tx counts = %d commits, %d rollbacks; want 4, 0", commits, rollbacks)
	}
}

func TestReviewApproveLocksEntries(t *testing.T) {
	steps := []*queryStep{
		logbookRow(7, 42, "submitted"),
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE `logbooks` SET .*`is_locked`.* WHERE logbook_id = \\? AND status = \\?"),
			result:  scriptedResult{rowsAffected: 1},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE `logbook_entries` SET .*`is_locked`"),
			result:  scriptedResult{rowsAffected: 3},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `logbook_audit_log`"),
			result:  scriptedResult{lastInsertID: 4, rowsAffected: 1},
		},
	}

	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	service := NewWorkflowService(gormDB)
	lb, err := service.Review(7, Actor{UserID: 5, Role: models.RoleSupervisor}, EventApprove, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lb.Status != models.StatusApproved {
		t.Errorf("status = %q, want approved", lb.Status)
	}
	if !lb.IsLocked {
		t.Error("approved logbook must be locked")
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}
