package unitofwork

import (
	"context"
	"fmt"
)

type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}

// InTransaction runs fn inside one transaction, committing when fn returns nil
// and rolling back otherwise.
func InTransaction(ctx context.Context, factory RepositoryFactory, fn func(uow UnitOfWork) error) (err error) {
	uow := factory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = uow.Rollback()
			panic(p)
		}
		if err != nil {
			_ = uow.Rollback()
		}
	}()

	if err = fn(uow); err != nil {
		return err
	}
	if err = uow.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
