// Package repository provides repository interfaces and GORM implementations
// for the bonsai collection schema.
//
// # Units of Work
//
// Constructors take a *gorm.DB. Pass the handle given to
// datastore.Interface.Transaction to make several repositories write inside
// one transaction:
//
//	err := store.Transaction(ctx, func(tx *gorm.DB) error {
//	    trees := repository.NewTreeRepository(tx)
//	    updates := repository.NewUpdateRepository(tx)
//	    ...
//	})
//
// # Error Handling
//
// All repositories return sentinel errors (ErrTreeNotFound, etc.)
// instead of leaking GORM errors, so callers can use errors.Is.
//
// # Required Schema Constraints
//
// SpeciesRepository.GetOrCreate relies on the unique index on species.name
// to resolve concurrent creation of the same species.
package repository
