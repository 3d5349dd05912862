package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snaps_engagement/internal/model"
)

type fakeReconciler struct {
	calls []string
}

func (f *fakeReconciler) report(kind model.EntityKind, id int64) *model.ReconcileReport {
	f.calls = append(f.calls, string(kind))
	return &model.ReconcileReport{Entity: kind, ID: id}
}

func (f *fakeReconciler) ReconcileUser(_ context.Context, id int64) (*model.ReconcileReport, error) {
	return f.report(model.EntityUser, id), nil
}

func (f *fakeReconciler) ReconcilePost(_ context.Context, id int64) (*model.ReconcileReport, error) {
	return f.report(model.EntityPost, id), nil
}

func (f *fakeReconciler) ReconcileComment(_ context.Context, id int64) (*model.ReconcileReport, error) {
	return f.report(model.EntityComment, id), nil
}

func (f *fakeReconciler) ReconcileAllUsers(context.Context) (int, []*model.ReconcileReport, error) {
	return 0, nil, nil
}

func TestReconcileOne_Dispatch(t *testing.T) {
	r := &fakeReconciler{}
	for _, kind := range []model.EntityKind{model.EntityUser, model.EntityPost, model.EntityComment} {
		report, err := reconcileOne(context.Background(), r, kind, 7)
		require.NoError(t, err)
		assert.Equal(t, kind, report.Entity)
	}
	assert.Equal(t, []string{"user", "post", "comment"}, r.calls)

	_, err := reconcileOne(context.Background(), r, model.EntityCollection, 7)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestPrintReport(t *testing.T) {
	report := &model.ReconcileReport{
		Entity: model.EntityPost,
		ID:     3,
		Drifts: []model.CounterDrift{{Entity: model.EntityPost, ID: 3, Field: "likes_count", Stored: 5, Actual: 2}},
	}

	var text bytes.Buffer
	require.NoError(t, printReport(&text, "text", report))
	assert.Equal(t, "post 3\n  likes_count: 5 -> 2\n", text.String())

	var clean bytes.Buffer
	require.NoError(t, printReport(&clean, "text", &model.ReconcileReport{Entity: model.EntityUser, ID: 1}))
	assert.Equal(t, "user 1\n  no drift\n", clean.String())

	var js bytes.Buffer
	require.NoError(t, printReport(&js, "json", report))
	var decoded model.ReconcileReport
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	assert.Equal(t, report.Drifts, decoded.Drifts)
}

func TestPrintSummary_EmptyDriftIsArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printSummary(&buf, "json", 4, nil))
	assert.JSONEq(t, `{"checked":4,"drifted":[]}`, buf.String())

	buf.Reset()
	require.NoError(t, printSummary(&buf, "text", 4, nil))
	assert.Equal(t, "checked 4 users, 0 drifted\n", buf.String())
}

func TestRootCommand_RejectsUnknownFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"migrate", "--format", "yaml"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
