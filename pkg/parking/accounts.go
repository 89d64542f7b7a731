package parking

import (
	"context"
	"strings"
)

// NewAccount carries registration input. The credential hash is opaque to
// the core; the caller hashes before registering.
type NewAccount struct {
	LoginID             string
	DisplayName         string
	Email               string
	Phone               string
	VehicleNumber       string
	CredentialHash      string
	OpeningBalanceCents AmountCents
}

// RegisterAccount creates an account. An opening balance, when present, is
// recorded with a paired credit ledger entry in the same transaction.
func (service *Service) RegisterAccount(ctx context.Context, input NewAccount) (Account, error) {
	if strings.TrimSpace(input.LoginID) == "" {
		return Account{}, ErrInvalidLoginID
	}
	if strings.TrimSpace(input.Email) == "" {
		return Account{}, ErrInvalidEmail
	}
	if input.OpeningBalanceCents < 0 {
		return Account{}, ErrInvalidAmount
	}
	var created Account
	err := service.store.WithTx(ctx, func(ctx context.Context, txStore Store) error {
		now := service.nowFn()
		account := Account{
			LoginID:        strings.TrimSpace(input.LoginID),
			DisplayName:    strings.TrimSpace(input.DisplayName),
			Email:          strings.TrimSpace(input.Email),
			Phone:          strings.TrimSpace(input.Phone),
			VehicleNumber:  strings.TrimSpace(input.VehicleNumber),
			BalanceCents:   input.OpeningBalanceCents,
			CredentialHash: input.CredentialHash,
			CreatedAt:      now,
		}
		userID, err := txStore.CreateAccount(ctx, account)
		if err != nil {
			return err
		}
		account.UserID = userID
		if input.OpeningBalanceCents > 0 {
			if err := txStore.InsertLedgerEntry(ctx, LedgerEntry{
				UserID:      userID,
				AmountCents: input.OpeningBalanceCents,
				Kind:        LedgerKindCredit,
				Description: topUpDescription,
				CreatedAt:   now,
			}); err != nil {
				return err
			}
		}
		created = account
		return nil
	})
	return created, err
}

// CreditWallet tops up a wallet and appends the paired credit ledger entry.
// Returns the new balance.
func (service *Service) CreditWallet(ctx context.Context, userID int64, amount AmountCents) (AmountCents, error) {
	var balance AmountCents
	operationError := service.store.WithTx(ctx, func(ctx context.Context, txStore Store) error {
		if amount <= 0 {
			return ErrInvalidAmount
		}
		if _, err := txStore.GetAccount(ctx, userID); err != nil {
			return err
		}
		if err := txStore.CreditBalance(ctx, userID, amount); err != nil {
			return err
		}
		if err := txStore.InsertLedgerEntry(ctx, LedgerEntry{
			UserID:      userID,
			AmountCents: amount,
			Kind:        LedgerKindCredit,
			Description: topUpDescription,
			CreatedAt:   service.nowFn(),
		}); err != nil {
			return err
		}
		account, err := txStore.GetAccount(ctx, userID)
		if err != nil {
			return err
		}
		balance = account.BalanceCents
		return nil
	})
	service.logOperation(ctx, OperationLog{
		Operation:   operationCredit,
		UserID:      userID,
		AmountCents: amount,
		Error:       operationError,
	})
	return balance, operationError
}

// Account returns one account by id.
func (service *Service) Account(ctx context.Context, userID int64) (Account, error) {
	return service.store.GetAccount(ctx, userID)
}

// AccountByLogin returns one account by login id.
func (service *Service) AccountByLogin(ctx context.Context, loginID string) (Account, error) {
	return service.store.GetAccountByLogin(ctx, loginID)
}

// Accounts lists all registered accounts.
func (service *Service) Accounts(ctx context.Context) ([]Account, error) {
	return service.store.ListAccounts(ctx)
}

// Transactions returns the newest wallet ledger entries across all
// accounts. A non-positive limit falls back to the default.
func (service *Service) Transactions(ctx context.Context, limit int) ([]LedgerEntry, error) {
	if limit <= 0 {
		limit = defaultLedgerLimit
	}
	return service.store.ListLedgerEntries(ctx, limit)
}
