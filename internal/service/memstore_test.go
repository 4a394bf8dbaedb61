package service

import (
	"coachlink/fitness-platform/internal/domain"
	"coachlink/fitness-platform/internal/repository"
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore is an in-memory stand-in for the mongo repositories, shared by the
// service tests. Every repository method takes the store mutex, so individual
// operations are atomic exactly like single-document updates are. Transactions
// are serialized and snapshot/restore the whole store, so a failed transaction
// rolls back everything it wrote.
type memStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	users         map[primitive.ObjectID]domain.User
	requests      map[primitive.ObjectID]domain.AssociationRequest
	plans         map[primitive.ObjectID]domain.TrainingPlan
	workouts      map[primitive.ObjectID]domain.WorkoutLog
	messages      map[primitive.ObjectID]domain.ChatMessage
	notifications map[primitive.ObjectID]domain.Notification
	loginTokens   map[string]domain.LoginToken
}

func newMemStore() *memStore {
	return &memStore{
		users:         make(map[primitive.ObjectID]domain.User),
		requests:      make(map[primitive.ObjectID]domain.AssociationRequest),
		plans:         make(map[primitive.ObjectID]domain.TrainingPlan),
		workouts:      make(map[primitive.ObjectID]domain.WorkoutLog),
		messages:      make(map[primitive.ObjectID]domain.ChatMessage),
		notifications: make(map[primitive.ObjectID]domain.Notification),
		loginTokens:   make(map[string]domain.LoginToken),
	}
}

// --- TxRunner ---

func (s *memStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(ctx); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type memSnapshot struct {
	users         map[primitive.ObjectID]domain.User
	requests      map[primitive.ObjectID]domain.AssociationRequest
	plans         map[primitive.ObjectID]domain.TrainingPlan
	workouts      map[primitive.ObjectID]domain.WorkoutLog
	messages      map[primitive.ObjectID]domain.ChatMessage
	notifications map[primitive.ObjectID]domain.Notification
	loginTokens   map[string]domain.LoginToken
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := memSnapshot{
		users:         make(map[primitive.ObjectID]domain.User, len(s.users)),
		requests:      make(map[primitive.ObjectID]domain.AssociationRequest, len(s.requests)),
		plans:         make(map[primitive.ObjectID]domain.TrainingPlan, len(s.plans)),
		workouts:      make(map[primitive.ObjectID]domain.WorkoutLog, len(s.workouts)),
		messages:      make(map[primitive.ObjectID]domain.ChatMessage, len(s.messages)),
		notifications: make(map[primitive.ObjectID]domain.Notification, len(s.notifications)),
		loginTokens:   make(map[string]domain.LoginToken, len(s.loginTokens)),
	}
	for id, u := range s.users {
		u.ClientIDs = append([]primitive.ObjectID(nil), u.ClientIDs...)
		snap.users[id] = u
	}
	for id, r := range s.requests {
		snap.requests[id] = r
	}
	for id, p := range s.plans {
		snap.plans[id] = p
	}
	for id, w := range s.workouts {
		snap.workouts[id] = w
	}
	for id, m := range s.messages {
		snap.messages[id] = m
	}
	for id, n := range s.notifications {
		snap.notifications[id] = n
	}
	for t, lt := range s.loginTokens {
		snap.loginTokens[t] = lt
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = snap.users
	s.requests = snap.requests
	s.plans = snap.plans
	s.workouts = snap.workouts
	s.messages = snap.messages
	s.notifications = snap.notifications
	s.loginTokens = snap.loginTokens
}

// --- Seeding helpers ---

func (s *memStore) seedUser(u domain.User) domain.User {
	if u.ID == primitive.NilObjectID {
		u.ID = primitive.NewObjectID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	s.users[u.ID] = u
	s.mu.Unlock()
	return u
}

func (s *memStore) seedTrainer(maxClients int) domain.User {
	return s.seedUser(domain.User{
		Username:    "trainer-" + primitive.NewObjectID().Hex(),
		Email:       primitive.NewObjectID().Hex() + "@trainers.test",
		Role:        domain.RoleTrainer,
		IsValidated: true,
		MaxClients:  maxClients,
	})
}

func (s *memStore) seedClient() domain.User {
	return s.seedUser(domain.User{
		Username:    "client-" + primitive.NewObjectID().Hex(),
		Email:       primitive.NewObjectID().Hex() + "@clients.test",
		Role:        domain.RoleClient,
		IsValidated: true,
	})
}

func (s *memStore) seedManagedClient(trainerID primitive.ObjectID) domain.User {
	client := s.seedClient()
	s.mu.Lock()
	c := s.users[client.ID]
	c.TrainerID = &trainerID
	s.users[client.ID] = c
	t := s.users[trainerID]
	t.ClientIDs = append(t.ClientIDs, client.ID)
	s.users[trainerID] = t
	s.mu.Unlock()
	c.TrainerID = &trainerID
	return c
}

func (s *memStore) getUser(id primitive.ObjectID) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id]
}

func (s *memStore) getRequest(id primitive.ObjectID) domain.AssociationRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[id]
}

// === UserRepository ===

type memUserRepo struct{ s *memStore }

func (r *memUserRepo) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email || u.Username == user.Username {
			return primitive.NilObjectID, repository.ErrConflict
		}
	}
	id := primitive.NewObjectID()
	user.ID = id
	user.CreatedAt = time.Now().UTC()
	r.s.users[id] = *user
	return id, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			out := u
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == username {
			out := u
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := u
	out.ClientIDs = append([]primitive.ObjectID(nil), u.ClientIDs...)
	return &out, nil
}

func (r *memUserRepo) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.User
	for _, u := range r.s.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *memUserRepo) ListUnvalidatedTrainers(ctx context.Context) ([]domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.User
	for _, u := range r.s.users {
		if u.Role == domain.RoleTrainer && !u.IsValidated {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memUserRepo) GetClientsByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.User
	for _, u := range r.s.users {
		if u.TrainerID != nil && *u.TrainerID == trainerID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *memUserRepo) CountByRole(ctx context.Context, role domain.Role) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, u := range r.s.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

func (r *memUserRepo) SetValidated(ctx context.Context, trainerID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[trainerID]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsValidated = true
	r.s.users[trainerID] = u
	return nil
}

func (r *memUserRepo) SetMaxClients(ctx context.Context, trainerID primitive.ObjectID, max int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[trainerID]
	if !ok {
		return repository.ErrNotFound
	}
	u.MaxClients = max
	r.s.users[trainerID] = u
	return nil
}

func (r *memUserRepo) AddClientWithinCapacity(ctx context.Context, trainerID, clientID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.users[trainerID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, id := range t.ClientIDs {
		if id == clientID {
			return nil // already on the roster
		}
	}
	if len(t.ClientIDs) >= t.RosterCeiling() {
		return repository.ErrNoCapacity
	}
	t.ClientIDs = append(append([]primitive.ObjectID(nil), t.ClientIDs...), clientID)
	r.s.users[trainerID] = t
	return nil
}

func (r *memUserRepo) RemoveClientFromTrainer(ctx context.Context, trainerID, clientID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.users[trainerID]
	if !ok {
		return repository.ErrNotFound
	}
	kept := make([]primitive.ObjectID, 0, len(t.ClientIDs))
	for _, id := range t.ClientIDs {
		if id != clientID {
			kept = append(kept, id)
		}
	}
	t.ClientIDs = kept
	r.s.users[trainerID] = t
	return nil
}

func (r *memUserRepo) SetTrainerForClient(ctx context.Context, clientID, trainerID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.users[clientID]
	if !ok {
		return repository.ErrNotFound
	}
	c.TrainerID = &trainerID
	r.s.users[clientID] = c
	return nil
}

func (r *memUserRepo) UnsetTrainerForClient(ctx context.Context, clientID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.users[clientID]
	if !ok {
		return repository.ErrNotFound
	}
	c.TrainerID = nil
	r.s.users[clientID] = c
	return nil
}

func (r *memUserRepo) UnsetTrainerForClientsOf(ctx context.Context, trainerID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, u := range r.s.users {
		if u.TrainerID != nil && *u.TrainerID == trainerID {
			u.TrainerID = nil
			r.s.users[id] = u
		}
	}
	return nil
}

func (r *memUserRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.users, id)
	return nil
}

// === AssociationRequestRepository ===

type memRequestRepo struct{ s *memStore }

func (r *memRequestRepo) Create(ctx context.Context, req *domain.AssociationRequest) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	// One-pending-per-client, like the partial unique index.
	for _, existing := range r.s.requests {
		if existing.ClientID == req.ClientID && existing.Status == domain.RequestPending {
			return primitive.NilObjectID, repository.ErrConflict
		}
	}
	id := primitive.NewObjectID()
	req.ID = id
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	r.s.requests[id] = *req
	return id, nil
}

func (r *memRequestRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.AssociationRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := req
	return &out, nil
}

func (r *memRequestRepo) GetPendingByClientID(ctx context.Context, clientID primitive.ObjectID) (*domain.AssociationRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, req := range r.s.requests {
		if req.ClientID == clientID && req.Status == domain.RequestPending {
			out := req
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memRequestRepo) ListPendingByTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]domain.AssociationRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.AssociationRequest
	for _, req := range r.s.requests {
		if req.TargetTrainerID == trainerID && req.Status == domain.RequestPending {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memRequestRepo) ListPendingChanges(ctx context.Context) ([]domain.AssociationRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.AssociationRequest
	for _, req := range r.s.requests {
		if req.Status == domain.RequestPending && req.CurrentTrainerID != nil {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memRequestRepo) CountPending(ctx context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, req := range r.s.requests {
		if req.Status == domain.RequestPending {
			n++
		}
	}
	return n, nil
}

func (r *memRequestRepo) ListResolved(ctx context.Context, filter repository.ResolvedRequestFilter) ([]domain.AssociationRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.AssociationRequest
	for _, req := range r.s.requests {
		if !req.Status.IsTerminal() {
			continue
		}
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		if filter.TrainerID != nil && req.TargetTrainerID != *filter.TrainerID {
			continue
		}
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ResolvedAt != nil && out[j].ResolvedAt != nil && out[i].ResolvedAt.After(*out[j].ResolvedAt)
	})
	return out, nil
}

func (r *memRequestRepo) MarkResolved(ctx context.Context, id primitive.ObjectID, status domain.RequestStatus, resolvedBy primitive.ObjectID, resolvedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.requests[id]
	if !ok {
		return repository.ErrNotFound
	}
	if req.Status != domain.RequestPending {
		return repository.ErrStaleState
	}
	req.Status = status
	req.ResolvedAt = &resolvedAt
	req.ResolvedBy = &resolvedBy
	r.s.requests[id] = req
	return nil
}

func (r *memRequestRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.requests[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.requests, id)
	return nil
}

// === TrainingPlanRepository ===

type memPlanRepo struct{ s *memStore }

func (r *memPlanRepo) Create(ctx context.Context, plan *domain.TrainingPlan) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	id := primitive.NewObjectID()
	plan.ID = id
	plan.CreatedAt = time.Now().UTC()
	r.s.plans[id] = *plan
	return id, nil
}

func (r *memPlanRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TrainingPlan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := p
	return &out, nil
}

func (r *memPlanRepo) GetByClientAndTrainerID(ctx context.Context, clientID, trainerID primitive.ObjectID) ([]domain.TrainingPlan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.TrainingPlan
	for _, p := range r.s.plans {
		if p.ClientID == clientID && p.TrainerID == trainerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memPlanRepo) GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.TrainingPlan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.TrainingPlan
	for _, p := range r.s.plans {
		if p.ClientID == clientID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memPlanRepo) SetActive(ctx context.Context, planID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.plans[planID]
	if !ok {
		return repository.ErrNotFound
	}
	p.IsActive = true
	r.s.plans[planID] = p
	return nil
}

func (r *memPlanRepo) DeactivateForClient(ctx context.Context, clientID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, p := range r.s.plans {
		if p.ClientID == clientID && p.IsActive {
			p.IsActive = false
			r.s.plans[id] = p
		}
	}
	return nil
}

// === WorkoutLogRepository ===

type memWorkoutRepo struct{ s *memStore }

func (r *memWorkoutRepo) Create(ctx context.Context, log *domain.WorkoutLog) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	id := primitive.NewObjectID()
	log.ID = id
	log.CreatedAt = time.Now().UTC()
	r.s.workouts[id] = *log
	return id, nil
}

func (r *memWorkoutRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.workouts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := w
	return &out, nil
}

func (r *memWorkoutRepo) ListByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.WorkoutLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.WorkoutLog
	for _, w := range r.s.workouts {
		if w.ClientID == clientID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (r *memWorkoutRepo) ListByTrainerAndClient(ctx context.Context, trainerID, clientID primitive.ObjectID) ([]domain.WorkoutLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.WorkoutLog
	for _, w := range r.s.workouts {
		if w.TrainerID == trainerID && w.ClientID == clientID {
			out = append(out, w)
		}
	}
	return out, nil
}

// === ChatMessageRepository ===

type memMessageRepo struct{ s *memStore }

func (r *memMessageRepo) Create(ctx context.Context, msg *domain.ChatMessage) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	id := primitive.NewObjectID()
	msg.ID = id
	r.s.messages[id] = *msg
	return id, nil
}

func (r *memMessageRepo) ListConversation(ctx context.Context, userA, userB primitive.ObjectID) ([]domain.ChatMessage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.ChatMessage
	for _, m := range r.s.messages {
		if (m.SenderID == userA && m.RecipientID == userB) || (m.SenderID == userB && m.RecipientID == userA) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SentAt.Before(out[j].SentAt) })
	return out, nil
}

func (r *memMessageRepo) MarkConversationRead(ctx context.Context, recipientID, senderID primitive.ObjectID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, m := range r.s.messages {
		if m.RecipientID == recipientID && m.SenderID == senderID && m.ReadAt == nil {
			readAt := at
			m.ReadAt = &readAt
			r.s.messages[id] = m
		}
	}
	return nil
}

// === NotificationRepository ===

type memNotificationRepo struct{ s *memStore }

func (r *memNotificationRepo) Create(ctx context.Context, n *domain.Notification) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	id := primitive.NewObjectID()
	n.ID = id
	r.s.notifications[id] = *n
	return id, nil
}

func (r *memNotificationRepo) ListByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Notification
	for _, n := range r.s.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memNotificationRepo) MarkRead(ctx context.Context, id, userID primitive.ObjectID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok || n.UserID != userID {
		return repository.ErrNotFound
	}
	readAt := at
	n.ReadAt = &readAt
	r.s.notifications[id] = n
	return nil
}

// === LoginTokenRepository ===

type memLoginTokenRepo struct{ s *memStore }

func (r *memLoginTokenRepo) Create(ctx context.Context, token *domain.LoginToken) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	id := primitive.NewObjectID()
	token.ID = id
	r.s.loginTokens[token.Token] = *token
	return id, nil
}

func (r *memLoginTokenRepo) Consume(ctx context.Context, token string, now time.Time) (*domain.LoginToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	lt, ok := r.s.loginTokens[token]
	if !ok || now.After(lt.ExpiresAt) {
		return nil, repository.ErrNotFound
	}
	if lt.UsedAt != nil {
		return nil, repository.ErrStaleState
	}
	usedAt := now
	lt.UsedAt = &usedAt
	r.s.loginTokens[token] = lt
	out := lt
	return &out, nil
}

// === FileStorage fake ===

// memStorage hands out deterministic fake URLs and records deletions.
type memStorage struct {
	mu      sync.Mutex
	deleted []string
}

func (m *memStorage) GeneratePresignedUploadURL(ctx context.Context, objectKey, contentType string, expiry time.Duration) (string, error) {
	return "https://bucket.test/upload/" + objectKey, nil
}

func (m *memStorage) GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	return "https://bucket.test/download/" + objectKey, nil
}

func (m *memStorage) DeleteObject(ctx context.Context, objectKey string) error {
	m.mu.Lock()
	m.deleted = append(m.deleted, objectKey)
	m.mu.Unlock()
	return nil
}

// === Notifier fake ===

// recordingNotifier captures emitted events without a hub or persistence.
type recordingNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	UserID    primitive.ObjectID
	EventType string
	Message   string
}

func (n *recordingNotifier) Notify(ctx context.Context, userID primitive.ObjectID, eventType, message string) error {
	n.mu.Lock()
	n.events = append(n.events, recordedEvent{UserID: userID, EventType: eventType, Message: message})
	n.mu.Unlock()
	return nil
}

func (n *recordingNotifier) eventsFor(userID primitive.ObjectID) []recordedEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []recordedEvent
	for _, e := range n.events {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}
