package dose

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/daniel-odulate22/vigil-scan/internal/drugdb"
	"github.com/daniel-odulate22/vigil-scan/internal/model"
	"github.com/daniel-odulate22/vigil-scan/internal/queue"
)

type staticConn struct{ online bool }

func (c *staticConn) Current() bool          { return c.online }
func (c *staticConn) OnChange(fn func(bool)) {}

type fakeRemote struct {
	err     error
	inserts []model.PendingDose
}

func (r *fakeRemote) Insert(ctx context.Context, dose *model.PendingDose) error {
	if r.err != nil {
		return r.err
	}
	r.inserts = append(r.inserts, *dose)
	return nil
}

type fakeResolver struct {
	med *drugdb.Medication
	err error
}

func (r *fakeResolver) Lookup(ctx context.Context, code string) (*drugdb.Medication, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.med, nil
}

func newTestService(t *testing.T, online bool, remote *fakeRemote, resolver *fakeResolver) (*Service, queue.Store) {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.PendingDose{}))
	q := queue.NewGormStore(db)
	return NewService(q, remote, &staticConn{online: online}, resolver), q
}

func TestService_ConfirmOnlineWritesThrough(t *testing.T) {
	remote := &fakeRemote{}
	resolver := &fakeResolver{med: &drugdb.Medication{Name: "Lisinopril 10mg"}}
	s, q := newTestService(t, true, remote, resolver)

	out, err := s.Confirm(context.Background(), ConfirmRequest{
		UserID: "user-1",
		Code:   "036000291452",
	})
	require.NoError(t, err)

	assert.True(t, out.Synced)
	assert.False(t, out.Queued)
	assert.True(t, out.Verified)
	assert.Equal(t, "Lisinopril 10mg", out.Dose.MedicationName)
	require.Len(t, remote.inserts, 1)

	n, err := q.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestService_ConfirmOfflineQueuesLocally(t *testing.T) {
	remote := &fakeRemote{}
	resolver := &fakeResolver{err: errors.New("network unreachable")}
	s, q := newTestService(t, false, remote, resolver)

	out, err := s.Confirm(context.Background(), ConfirmRequest{
		UserID:         "user-1",
		Code:           "036000291452",
		MedicationName: "Lisinopril (manual)",
	})
	require.NoError(t, err)

	assert.True(t, out.Queued)
	assert.False(t, out.Synced)
	assert.False(t, out.Verified, "unreachable lookup cannot verify")
	assert.Empty(t, remote.inserts)

	doses, err := q.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, doses, 1)
	assert.Equal(t, "Lisinopril (manual)", doses[0].MedicationName)
	assert.False(t, doses[0].Verified)
}

func TestService_ConfirmManualEntryIsUnverified(t *testing.T) {
	remote := &fakeRemote{}
	s, _ := newTestService(t, true, remote, &fakeResolver{})

	out, err := s.Confirm(context.Background(), ConfirmRequest{
		UserID:         "user-1",
		MedicationName: "Vitamin D 1000IU",
	})
	require.NoError(t, err)
	assert.False(t, out.Verified)
	assert.Equal(t, "Vitamin D 1000IU", out.Dose.MedicationName)
}

func TestService_ConfirmRemoteFailureFallsBackToQueue(t *testing.T) {
	remote := &fakeRemote{err: errors.New("service unavailable")}
	resolver := &fakeResolver{med: &drugdb.Medication{Name: "Metformin 500mg"}}
	s, q := newTestService(t, true, remote, resolver)

	out, err := s.Confirm(context.Background(), ConfirmRequest{
		UserID: "user-1",
		Code:   "036000291452",
	})
	require.NoError(t, err)

	assert.True(t, out.Queued)
	assert.False(t, out.Synced)

	n, err := q.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestService_ConfirmRejectsMissingName(t *testing.T) {
	s, _ := newTestService(t, false, &fakeRemote{}, &fakeResolver{err: drugdb.ErrNotFound})

	_, err := s.Confirm(context.Background(), ConfirmRequest{
		UserID: "user-1",
		Code:   "036000291452",
	})
	assert.Error(t, err, "unresolved code without a manual name cannot be confirmed")
}

func TestService_ConfirmStampsTimes(t *testing.T) {
	s, _ := newTestService(t, true, &fakeRemote{}, &fakeResolver{})

	before := time.Now().UTC()
	out, err := s.Confirm(context.Background(), ConfirmRequest{
		UserID:         "user-1",
		MedicationName: "Aspirin 81mg",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, out.Dose.ID)
	assert.False(t, out.Dose.TakenAt.Before(before))
	assert.False(t, out.Dose.CreatedAt.Before(before))
}
