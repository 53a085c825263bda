package ledger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/labour-market/internal/domain/entity"
	"github.com/ignatzorin/labour-market/internal/domain/repository"
	"github.com/ignatzorin/labour-market/internal/infrastructure/memory"
	"github.com/ignatzorin/labour-market/internal/usecase/ledger"
)

// TestLedgerReplayMatchesBalances: после любой последовательности операций
// пересчёт журнала совпадает с кэшем, а балансы неотрицательны.
func TestLedgerReplayMatchesBalances(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("replay equals cached balances", prop.ForAll(
		func(kinds []int, cents []int64, jobs []int) bool {
			store := memory.NewStore()
			ctx := context.Background()
			owner, vendor := uuid.New(), uuid.New()
			jobIDs := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

			for i := 0; i < len(kinds) && i < len(cents) && i < len(jobs); i++ {
				amt := decimal.New(cents[i], -2)
				jobID := jobIDs[jobs[i]]
				// Отказы (нехватка средств, эскроу) допустимы и должны откатываться целиком.
				_ = store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
					var err error
					switch kinds[i] {
					case 0:
						_, err = ledger.Credit(ctx, tx, owner, amt, "")
					case 1:
						_, err = ledger.Debit(ctx, tx, owner, amt, "")
					case 2:
						_, err = ledger.Hold(ctx, tx, owner, amt, jobID, "")
					case 3:
						_, _, err = ledger.Release(ctx, tx, owner, vendor, amt, jobID, "")
					case 4:
						_, err = ledger.Refund(ctx, tx, owner, amt, jobID, "")
					}
					return err
				})
			}

			for _, userID := range []uuid.UUID{owner, vendor} {
				ok := store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
					account, err := tx.LockAccount(ctx, userID)
					if err != nil {
						return err
					}
					txs, err := tx.AccountTransactions(ctx, account.ID)
					if err != nil {
						return err
					}
					available, escrow, err := entity.Replay(txs)
					if err != nil || !account.Matches(available, escrow) {
						return errMismatch
					}
					if account.Available.IsNegative() || account.Escrow.IsNegative() {
						return errMismatch
					}
					perJob := decimal.Zero
					for _, jobID := range jobIDs {
						perJob = perJob.Add(entity.EscrowHeldForJob(txs, jobID))
					}
					if !perJob.Equal(account.Escrow) {
						return errMismatch
					}
					return nil
				})
				if ok != nil {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 4)),
		gen.SliceOf(gen.Int64Range(1, 50_000)),
		gen.SliceOf(gen.IntRange(0, 2)),
	))

	properties.TestingRun(t)
}

var errMismatch = errors.New("ledger mismatch")
