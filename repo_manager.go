package tube

import (
	"github.com/goliatone/go-repository-bun"
)

// RepositoryManager bundles the repositories the service works with and the
// transaction runner they share.
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Users() Users
	Videos() Videos
	Subscriptions() Subscriptions
}
