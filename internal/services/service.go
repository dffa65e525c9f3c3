package services

import (
	"context"
	"io"
	"time"

	"github.com/cleantrack-dev/cleantrack/internal/models"
	"github.com/cleantrack-dev/cleantrack/internal/policy"
	"github.com/sirupsen/logrus"
)

// Repository is the persistence contract the services run against. Both
// store.Store and memstore.Store satisfy it.
type Repository interface {
	Ping(ctx context.Context) error

	GetUser(ctx context.Context, id uint) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	FindEmployeesByName(ctx context.Context, name string) ([]models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	ListOwners(ctx context.Context) ([]models.User, error)
	ListEmployees(ctx context.Context, ownerID uint) ([]models.User, error)
	ListUsersByIDs(ctx context.Context, ids []uint) ([]models.User, error)
	CountEmployees(ctx context.Context, ownerID uint) (int64, error)
	DeleteEmployee(ctx context.Context, employeeID uint) error
	UpdateSubscription(ctx context.Context, ownerID, adminID uint, before, after models.Subscription) (models.SubscriptionChange, error)
	ListSubscriptionChanges(ctx context.Context, ownerID uint) ([]models.SubscriptionChange, error)

	CreateProperty(ctx context.Context, property *models.Property) error
	GetProperty(ctx context.Context, id uint) (models.Property, error)
	ListPropertiesByOwner(ctx context.Context, ownerID uint) ([]models.Property, error)
	ListPropertiesByEmployee(ctx context.Context, employeeID uint) ([]models.Property, error)
	CountProperties(ctx context.Context, ownerID uint) (int64, error)
	SaveProperty(ctx context.Context, property models.Property, employeeIDs []uint) error
	ReplaceAssignments(ctx context.Context, ownerID, employeeID uint, propertyIDs []uint) error
	DeleteProperty(ctx context.Context, id uint) error

	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id uint) (models.Task, error)
	CompleteTask(ctx context.Context, task models.Task) error
	ListTasks(ctx context.Context, propertyID uint, filter policy.TaskFilter) ([]models.Task, error)
	CountPendingTasks(ctx context.Context, propertyIDs []uint) (map[uint]int64, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

type TokenIssuer interface {
	Issue(userID uint, role models.Role) (string, time.Time, error)
}

// Notifier is told when anything a property's viewers display has changed.
type Notifier interface {
	PropertyChanged(propertyID uint)
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   uint
	Role models.Role
}

type Deps struct {
	Repo     Repository
	Hasher   PasswordHasher
	Tokens   TokenIssuer
	Notifier Notifier
	Log      *logrus.Logger
	Clock    func() time.Time
}

type Service struct {
	repo   Repository
	hasher PasswordHasher
	tokens TokenIssuer
	notify Notifier
	log    *logrus.Logger
	now    func() time.Time
}

func New(d Deps) *Service {
	s := &Service{
		repo:   d.Repo,
		hasher: d.Hasher,
		tokens: d.Tokens,
		notify: d.Notifier,
		log:    d.Log,
		now:    d.Clock,
	}

	if s.notify == nil {
		s.notify = nopNotifier{}
	}

	if s.log == nil {
		s.log = logrus.New()
		s.log.SetOutput(io.Discard)
	}

	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}

	return s
}

// Ping reports whether the backing store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

type nopNotifier struct{}

func (nopNotifier) PropertyChanged(uint) {}

func requireRole(actor Actor, roles ...models.Role) error {
	for _, r := range roles {
		if actor.Role == r {
			return nil
		}
	}
	return policy.Forbidden("%s accounts cannot perform this action", actor.Role)
}

// owner loads id and insists it is an owner account.
func (s *Service) owner(ctx context.Context, id uint) (models.User, error) {
	user, err := s.repo.GetUser(ctx, id)

	if err != nil {
		return user, renameNotFound(err, "owner")
	}

	if user.Role != models.RoleOwner {
		return user, policy.NotFound("owner")
	}

	return user, nil
}

// employeeOf loads id and insists it is an employee of ownerID. Another
// owner's employee is reported as missing.
func (s *Service) employeeOf(ctx context.Context, ownerID, id uint) (models.User, error) {
	user, err := s.repo.GetUser(ctx, id)

	if err != nil {
		return user, renameNotFound(err, "employee")
	}

	if user.Role != models.RoleEmployee || user.OwnerID == nil || *user.OwnerID != ownerID {
		return user, policy.NotFound("employee")
	}

	return user, nil
}

// readableProperty loads a property the actor may read. Another owner's
// property is reported as missing; an unassigned employee is forbidden.
func (s *Service) readableProperty(ctx context.Context, actor Actor, id uint) (models.Property, error) {
	property, err := s.repo.GetProperty(ctx, id)

	if err != nil {
		return property, err
	}

	if policy.HasAccess(property, actor.ID, actor.Role) {
		return property, nil
	}

	switch actor.Role {
	case models.RoleOwner:
		return property, policy.NotFound("property")
	case models.RoleEmployee:
		return property, policy.Forbidden("you are not assigned to this property")
	default:
		return property, policy.Forbidden("%s accounts cannot access properties", actor.Role)
	}
}

func renameNotFound(err error, what string) error {
	if perr, ok := policy.As(err); ok && perr.Kind == policy.ErrNotFound {
		return policy.NotFound(what)
	}
	return err
}
