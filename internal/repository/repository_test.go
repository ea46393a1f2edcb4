package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"month-end-close-backend/internal/models"
	"month-end-close-backend/internal/repository/testutil"
)

func TestAccrualRuleRepository(t *testing.T) {
	db := testutil.SetupTestDatabase(t)
	repo := NewAccrualRuleRepository(db)
	ctx := context.Background()

	t.Run("missing rule", func(t *testing.T) {
		rule, err := repo.Get(ctx, "org-none")
		require.NoError(t, err)
		assert.Nil(t, rule)
	})

	t.Run("upsert inserts then updates", func(t *testing.T) {
		rule := models.DefaultAccrualRule("org-1")
		require.NoError(t, repo.Upsert(ctx, &rule))

		rule.MinAmount = 250
		rule.ExcludedAccounts = datatypes.JSONSlice[string]{"61", "62"}
		require.NoError(t, repo.Upsert(ctx, &rule))

		got, err := repo.Get(ctx, "org-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, 250.0, got.MinAmount)
		assert.Equal(t, []string{"61", "62"}, []string(got.ExcludedAccounts))
		assert.Empty(t, got.IncludeAccounts)
	})
}

func TestAccrualCandidateRepository(t *testing.T) {
	db := testutil.SetupTestDatabase(t)
	repo := NewAccrualCandidateRepository(db)
	ctx := context.Background()

	t.Run("create if absent keeps the first row", func(t *testing.T) {
		first := testutil.CreateTestCandidate("org-1", "61", nil)
		stored, err := repo.CreateIfAbsent(ctx, first)
		require.NoError(t, err)
		assert.Equal(t, first.ID, stored.ID)

		dup := testutil.CreateTestCandidate("org-1", "61", nil)
		dup.ExpectedAmount = 9999
		stored, err = repo.CreateIfAbsent(ctx, dup)
		require.NoError(t, err)
		assert.Equal(t, first.ID, stored.ID)
		assert.Equal(t, 2000.0, stored.ExpectedAmount)
		assert.Equal(t, "Office Rent appeared in 6 of the last 6 months", stored.Explanation.Data().Reason)
	})

	t.Run("vendor distinguishes candidates", func(t *testing.T) {
		withVendor := testutil.CreateTestCandidate("org-1", "61", testutil.StringPtr("Acme"))
		stored, err := repo.CreateIfAbsent(ctx, withVendor)
		require.NoError(t, err)
		assert.Equal(t, withVendor.ID, stored.ID)
		require.NotNil(t, stored.VendorName)
		assert.Equal(t, "Acme", *stored.VendorName)
	})

	t.Run("get and update status", func(t *testing.T) {
		c := testutil.CreateTestCandidate("org-2", "70", nil)
		_, err := repo.CreateIfAbsent(ctx, c)
		require.NoError(t, err)

		require.NoError(t, repo.UpdateStatus(ctx, c.ID, models.CandidateStatusApproved))
		got, err := repo.GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, models.CandidateStatusApproved, got.Status)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, repo.UpdateStatus(ctx, uuid.New(), models.CandidateStatusRejected), ErrNotFound)
	})

	t.Run("list filters", func(t *testing.T) {
		from, to := testutil.Date(2024, 6, 1), testutil.Date(2024, 6, 30)
		all, err := repo.List(ctx, CandidateFilter{OrgID: "org-1"})
		require.NoError(t, err)
		assert.Len(t, all, 2)

		pending, err := repo.List(ctx, CandidateFilter{OrgID: "org-1", PeriodFrom: &from, PeriodTo: &to, Status: models.CandidateStatusPending})
		require.NoError(t, err)
		assert.Len(t, pending, 2)

		approved, err := repo.List(ctx, CandidateFilter{OrgID: "org-1", Status: models.CandidateStatusApproved})
		require.NoError(t, err)
		assert.Empty(t, approved)
		assert.NotNil(t, approved)
	})
}

func TestPostingRecordRepository(t *testing.T) {
	db := testutil.SetupTestDatabase(t)
	repo := NewPostingRecordRepository(db)
	ctx := context.Background()
	id := uuid.New()

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)

	msg := "ledger api error 503: unavailable"
	require.NoError(t, repo.Upsert(ctx, &models.PostingRecord{
		CandidateID:   id,
		OrgID:         "org-1",
		PostingStatus: models.PostingStatusError,
		ErrorMessage:  &msg,
		PostedAt:      time.Now(),
	}))

	entryID := "JE-1"
	require.NoError(t, repo.Upsert(ctx, &models.PostingRecord{
		CandidateID:    id,
		OrgID:          "org-1",
		PostingStatus:  models.PostingStatusSuccess,
		JournalEntryID: &entryID,
		PostedAt:       time.Now(),
	}))

	got, err = repo.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.Succeeded())
	assert.Nil(t, got.ErrorMessage)

	require.NoError(t, repo.Upsert(ctx, &models.PostingRecord{
		CandidateID:   id,
		OrgID:         "org-1",
		PostingStatus: models.PostingStatusError,
		ErrorMessage:  &msg,
		PostedAt:      time.Now(),
	}))
	got, err = repo.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.Succeeded())
	assert.Equal(t, "JE-1", *got.JournalEntryID)
}

func TestLedgerConnectionRepository(t *testing.T) {
	db := testutil.SetupTestDatabase(t)
	repo := NewLedgerConnectionRepository(db)
	ctx := context.Background()

	got, err := repo.Get(ctx, "org-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	conn := &models.LedgerConnection{OrgID: "org-1", RealmID: "realm-1", AccessToken: "a", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, repo.Save(ctx, conn))
	conn.AccessToken = "b"
	require.NoError(t, repo.Save(ctx, conn))

	got, err = repo.Get(ctx, "org-1")
	require.NoError(t, err)
	assert.Equal(t, "b", got.AccessToken)
	assert.Equal(t, "realm-1", got.RealmID)
}
