// Package memstore keeps the store contract in process memory. It backs the
// service and handler tests and honours the same cascades and the same
// conditional task completion as the gorm store.
package memstore

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cleantrack-dev/cleantrack/internal/models"
	"github.com/cleantrack-dev/cleantrack/internal/policy"
)

type Store struct {
	mu sync.Mutex

	nextID      uint
	users       map[uint]models.User
	properties  map[uint]models.Property
	assignments map[uint]map[uint]bool // property id -> employee ids
	tasks       map[uint]models.Task
	changes     []models.SubscriptionChange

	// Fail, when set, is returned by every call to simulate an outage.
	Fail error
}

func New() *Store {
	return &Store{
		users:       make(map[uint]models.User),
		properties:  make(map[uint]models.Property),
		assignments: make(map[uint]map[uint]bool),
		tasks:       make(map[uint]models.Task),
	}
}

func (s *Store) id() uint {
	s.nextID++
	return s.nextID
}

func (s *Store) stamp(base *models.BaseModel) {
	now := time.Now().UTC()
	base.ID = s.id()
	base.CreatedAt = now
	base.UpdatedAt = now
}

func (s *Store) failed() error {
	if s.Fail != nil {
		return policy.Unavailable(s.Fail)
	}
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.failed()
}

// ---------------- Users ----------------

func (s *Store) GetUser(_ context.Context, id uint) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failed(); err != nil {
		return models.User{}, err
	}

	u, ok := s.users[id]
	if !ok {
		return models.User{}, policy.NotFound("user")
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failed(); err != nil {
		return models.User{}, err
	}

	email = strings.ToLower(strings.TrimSpace(email))

	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, policy.NotFound("user")
}

func (s *Store) FindEmployeesByName(_ context.Context, name string) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failed(); err != nil {
		return nil, err
	}

	name = strings.ToLower(strings.TrimSpace(name))

	return s.filterUsers(func(u models.User) bool {
		return u.Role == models.RoleEmployee && strings.ToLower(u.Name) == name
	}, byIDAsc), nil
}

func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failed(); err != nil {
		return err
	}

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	for _, u := range s.users {
		if u.Email == user.Email {
			return policy.Duplicate("email")
		}
	}

	s.stamp(&user.BaseModel)
	s.users[user.ID] = *user

	return nil
}

func (s *Store) ListOwners(_ context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failed(); err != nil {
		return nil, err
	}

	return s.filterUsers(func(u models.User) bool { return u.Role == models.RoleOwner }, byIDDesc), nil
}

func (s *Store) ListEmployees(_ context.Context, ownerID uint) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failed(); err != nil {
		return nil, err
	}

	return s.filterUsers(func(u models.User) bool { return isEmployeeOf(u, ownerID) }, byIDAsc), nil
}

func (s *Store) ListUsersByIDs(_ context.Context, ids []uint) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failed(); err != nil {
		return nil, err
	}

	wanted := make(map[uint]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	users := s.filterUsers(func(u models.User) bool { return wanted[u.ID] }, byIDAsc)

	sort.SliceStable(users, func(i, j int) bool { return users[i].Name < users[j].Name })

	return users, nil
}

func (s *Store) CountEmployees(_ context.Context, ownerID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failed(); err != nil {
		return 0, err
	}

	return int64(len(s.filterUsers(func(u models.User) bool { return isEmployeeOf(u, ownerID) }, nil))), nil
}

func (s *Store) DeleteEmployee(_ context.Context, employeeID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failed(); err != nil {
		return err
	}

	u, ok := s.users[employeeID]
	if !ok || u.Role != models.RoleEmployee {
		return policy.NotFound("employee")
	}

	for _, set := range s.assignments {
		delete(set, employeeID)
	}
	delete(s.users, employeeID)

	return nil
}

func (s *Store) UpdateSubscription(_ context.Context, ownerID, adminID uint, before, after models.Subscription) (models.SubscriptionChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failed(); err != nil {
		return models.SubscriptionChange{}, err
	}

	owner, ok := s.users[ownerID]
	if !ok || owner.Role != models.RoleOwner {
		return models.SubscriptionChange{}, policy.NotFound("owner")
	}

	beforeJSON, err := json.Marshal(before)
	if err != nil {
		return models.SubscriptionChange{}, err
	}

	afterJSON, err := json.Marshal(after)
	if err != nil {
		return models.SubscriptionChange{}, err
	}

	owner.Subscription = after
	owner.UpdatedAt = time.Now().UTC()
	s.users[ownerID] = owner

	change := models.SubscriptionChange{OwnerID: ownerID, AdminID: adminID, Before: beforeJSON, After: afterJSON}
	s.stamp(&change.BaseModel)
	s.changes = append(s.changes, change)

	return change, nil
}

func (s *Store) ListSubscriptionChanges(_ context.Context, ownerID uint) ([]models.SubscriptionChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failed(); err != nil {
		return nil, err
	}

	changes := []models.SubscriptionChange{}

	for i := len(s.changes) - 1; i >= 0; i-- {
		if s.changes[i].OwnerID == ownerID {
			changes = append(changes, s.changes[i])
		}
	}

	return changes, nil
}

// ---------------- Properties ----------------

func (s *Store) CreateProperty(_ context.Context, property *models.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failed(); err != nil {
		return err
	}

	if property.Status == "" {
		property.Status = models.PropertyActive
	}

	s.stamp(&property.BaseModel)
	property.EmployeeIDs = []uint{}

	stored := *property
	stored.EmployeeIDs = nil
	s.properties[property.ID] = stored
	s.assignments[property.ID] = make(map[uint]bool)

	return nil
}

func (s *Store) GetProperty(_ context.Context, id uint) (models.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failed(); err != nil {
		return models.Property{}, err
	}

	p, ok := s.properties[id]
	if !ok {
		return models.Property{}, policy.NotFound("property")
	}
	return s.withEmployees(p), nil
}

func (s *Store) ListPropertiesByOwner(_ context.Context, ownerID uint) ([]models.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failed(); err != nil {
		return nil, err
	}

	return s.filterProperties(func(p models.Property) bool { return p.OwnerID == ownerID }), nil
}

func (s *Store) ListPropertiesByEmployee(_ context.Context, employeeID uint) ([]models.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failed(); err != nil {
		return nil, err
	}

	return s.filterProperties(func(p models.Property) bool { return s.assignments[p.ID][employeeID] }), nil
}

func (s *Store) CountProperties(_ context.Context, ownerID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failed(); err != nil {
		return 0, err
	}

	var count int64
	for _, p := range s.properties {
		if p.OwnerID == ownerID {
			count++
		}
	}
	return count, nil
}

func (s *Store) SaveProperty(_ context.Context, property models.Property, employeeIDs []uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failed(); err != nil {
		return err
	}

	stored, ok := s.properties[property.ID]
	if !ok {
		return policy.NotFound("property")
	}

	stored.Name = property.Name
	stored.Status = property.Status
	stored.UpdatedAt = time.Now().UTC()
	s.properties[property.ID] = stored

	if employeeIDs != nil {
		set := make(map[uint]bool, len(employeeIDs))
		for _, id := range employeeIDs {
			set[id] = true
		}
		s.assignments[property.ID] = set
	}

	return nil
}

func (s *Store) ReplaceAssignments(_ context.Context, ownerID, employeeID uint, propertyIDs []uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failed(); err != nil {
		return err
	}

	for id, p := range s.properties {
		if p.OwnerID == ownerID {
			delete(s.assignments[id], employeeID)
		}
	}

	for _, id := range propertyIDs {
		if set, ok := s.assignments[id]; ok {
			set[employeeID] = true
		}
	}

	return nil
}

func (s *Store) DeleteProperty(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failed(); err != nil {
		return err
	}

	if _, ok := s.properties[id]; !ok {
		return policy.NotFound("property")
	}

	for taskID, t := range s.tasks {
		if t.PropertyID == id {
			delete(s.tasks, taskID)
		}
	}
	delete(s.assignments, id)
	delete(s.properties, id)

	return nil
}

// ---------------- Tasks ----------------

func (s *Store) CreateTask(_ context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failed(); err != nil {
		return err
	}

	s.stamp(&task.BaseModel)
	s.tasks[task.ID] = *task

	return nil
}

func (s *Store) GetTask(_ context.Context, id uint) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failed(); err != nil {
		return models.Task{}, err
	}

	t, ok := s.tasks[id]
	if !ok {
		return models.Task{}, policy.NotFound("task")
	}
	return t, nil
}

func (s *Store) CompleteTask(_ context.Context, task models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failed(); err != nil {
		return err
	}

	if task.CompletedByID == nil || task.CompletedAt == nil {
		return policy.Validation("task", "task has no completion to store")
	}

	stored, ok := s.tasks[task.ID]
	if !ok {
		return policy.NotFound("task")
	}

	if stored.CompletedAt != nil {
		return policy.AlreadyCompleted()
	}

	stored.CompletedByID = task.CompletedByID
	stored.CompletedAt = task.CompletedAt
	s.tasks[task.ID] = stored

	return nil
}

// SetTaskCompletion overwrites a task's completion pair. Tests use it to seed
// history at fixed timestamps.
func (s *Store) SetTaskCompletion(taskID, userID uint, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tasks[taskID]
	t.CompletedByID = &userID
	t.CompletedAt = &at
	s.tasks[taskID] = t
}

func (s *Store) ListTasks(_ context.Context, propertyID uint, filter policy.TaskFilter) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failed(); err != nil {
		return nil, err
	}

	if filter.State != policy.TaskPending && filter.State != policy.TaskCompleted {
		return nil, policy.Validation("status", "unknown task state %q", filter.State)
	}

	tasks := []models.Task{}

	for _, t := range s.tasks {
		if t.PropertyID == propertyID && filter.Matches(t) {
			tasks = append(tasks, t)
		}
	}

	sort.Slice(tasks, func(i, j int) bool {
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		}
		return tasks[i].ID > tasks[j].ID
	})

	return tasks, nil
}

func (s *Store) CountPendingTasks(_ context.Context, propertyIDs []uint) (map[uint]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failed(); err != nil {
		return nil, err
	}

	counts := make(map[uint]int64, len(propertyIDs))

	for _, id := range propertyIDs {
		counts[id] = 0
	}

	for _, t := range s.tasks {
		if _, ok := counts[t.PropertyID]; ok && t.CompletedAt == nil {
			counts[t.PropertyID]++
		}
	}

	return counts, nil
}

// ---------------- Helpers ----------------

type userOrder func(a, b models.User) bool

func byIDAsc(a, b models.User) bool  { return a.ID < b.ID }
func byIDDesc(a, b models.User) bool { return a.ID > b.ID }

func isEmployeeOf(u models.User, ownerID uint) bool {
	return u.Role == models.RoleEmployee && u.OwnerID != nil && *u.OwnerID == ownerID
}

func (s *Store) filterUsers(keep func(models.User) bool, less userOrder) []models.User {
	users := []models.User{}

	for _, u := range s.users {
		if keep(u) {
			users = append(users, u)
		}
	}

	if less != nil {
		sort.Slice(users, func(i, j int) bool { return less(users[i], users[j]) })
	}

	return users
}

func (s *Store) filterProperties(keep func(models.Property) bool) []models.Property {
	properties := []models.Property{}

	for _, p := range s.properties {
		if keep(p) {
			properties = append(properties, s.withEmployees(p))
		}
	}

	sort.Slice(properties, func(i, j int) bool { return properties[i].ID > properties[j].ID })

	return properties
}

func (s *Store) withEmployees(p models.Property) models.Property {
	ids := make([]uint, 0, len(s.assignments[p.ID]))

	for id := range s.assignments[p.ID] {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	p.EmployeeIDs = ids

	return p
}
