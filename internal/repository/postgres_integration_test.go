//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mmeshcher/bank-backoffice/internal/model"
)

func newTestPostgres(t *testing.T) *Postgres {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("bank"),
		tcpostgres.WithUsername("bank"),
		tcpostgres.WithPassword("bank"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := NewPostgres(dsn)
	require.NoError(t, err)
	db.retryDelays = []time.Duration{10 * time.Millisecond}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func TestPostgres_Customers(t *testing.T) {
	ctx := context.Background()
	db := newTestPostgres(t)
	repo := db.Customers()

	id, err := repo.Insert(ctx, testCustomer("Jan", "Peeters"))
	require.NoError(t, err)
	assert.Positive(t, id)

	_, err = repo.Insert(ctx, testCustomer("Jan", "Peeters"))
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = repo.Insert(ctx, testCustomer("An", "Janssens"))
	require.NoError(t, err)

	exists, err := repo.ExistsByNameAddress(ctx, testCustomer("Jan", "Peeters").Key())
	require.NoError(t, err)
	assert.True(t, exists)

	changed := testCustomer("Jan", "Peeters")
	changed.ID = id
	changed.City = "Gent"
	require.NoError(t, repo.Update(ctx, changed))

	got, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Gent", got.City)
	assert.Equal(t, model.CustomerStatusEnrolled, got.Status)

	require.NoError(t, repo.SetUnenrolled(ctx, id))
	assert.ErrorIs(t, repo.SetUnenrolled(ctx, id+100), ErrNotFound)

	enrolled, err := repo.ListByStatus(ctx, model.CustomerStatusEnrolled)
	require.NoError(t, err)
	assert.Equal(t, []string{"Janssens An"}, names(enrolled))

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Janssens An", "Peeters Jan"}, names(all))

	none, err := repo.FindByID(ctx, id+100)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestPostgres_Accounts(t *testing.T) {
	ctx := context.Background()
	db := newTestPostgres(t)

	owner, err := db.Customers().Insert(ctx, testCustomer("Jan", "Peeters"))
	require.NoError(t, err)

	repo := db.Accounts()
	a := &model.Account{
		Number:  mustNumber(t, "BE68 5390 0754 7034"),
		Balance: decimal.Zero,
		Status:  model.AccountStatusOpen,
		Owner:   owner,
	}
	require.NoError(t, repo.Insert(ctx, a))
	assert.ErrorIs(t, repo.Insert(ctx, a), ErrDuplicate)

	orphan := *a
	orphan.Number = mustNumber(t, "BE62 0016 6836 7361")
	orphan.Owner = owner + 100
	assert.ErrorIs(t, repo.Insert(ctx, &orphan), ErrUnknownOwner)

	require.NoError(t, repo.SetBalance(ctx, a.Number.String(), decimal.RequireFromString("100.01")))

	got, err := repo.FindByNumber(ctx, a.Number.String())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "100.01", got.Balance.StringFixed(2))
	assert.Equal(t, a.Number, got.Number)

	n, err := repo.CountByOwnerAndStatus(ctx, owner, model.AccountStatusOpen)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, repo.SetBalance(ctx, a.Number.String(), decimal.Zero))
	require.NoError(t, repo.SetClosed(ctx, a.Number.String()))

	closed, err := repo.ListByOwnerAndStatus(ctx, owner, model.AccountStatusClosed)
	require.NoError(t, err)
	assert.Equal(t, []string{"BE68 5390 0754 7034"}, numbers(closed))

	all, err := repo.ListByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	assert.ErrorIs(t, repo.SetClosed(ctx, "BE62 0016 6836 7361"), ErrNotFound)
}

func TestPostgres_CorruptAccountNumber(t *testing.T) {
	ctx := context.Background()
	db := newTestPostgres(t)

	owner, err := db.Customers().Insert(ctx, testCustomer("Jan", "Peeters"))
	require.NoError(t, err)

	_, err = db.pool.Exec(ctx,
		`INSERT INTO accounts (number, balance, status, owner_id) VALUES ('BE00 0000 0000 0000', 0, 'OPEN', $1)`,
		owner,
	)
	require.NoError(t, err)

	_, err = db.Accounts().FindByNumber(ctx, "BE00 0000 0000 0000")
	assert.ErrorIs(t, err, ErrCorruptRow)
}
