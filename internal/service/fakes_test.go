package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"debtflow/internal/model"
	"debtflow/internal/notify"
	"debtflow/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory stand-ins for the repository layer. They mirror the SQL
// contracts closely enough that the services can be exercised without a
// database; the lock fake in particular implements the same conditional
// update the real repository issues.

type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// --- requests ---

type fakeRequestRepo struct {
	mu       sync.Mutex
	requests map[uuid.UUID]model.DebtRequest
	handles  map[uuid.UUID]map[string]string
	org      *fakeOrgRepo // hydrates relations when set
	seq      int
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{
		requests: make(map[uuid.UUID]model.DebtRequest),
		handles:  make(map[uuid.UUID]map[string]string),
	}
}

func (r *fakeRequestRepo) Create(ctx context.Context, req *model.DebtRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	req.CreatedAt = time.Now()
	req.UpdatedAt = time.Now()
	r.requests[req.ID] = *req
	return nil
}

func (r *fakeRequestRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.DebtRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := req
	return &copied, nil
}

func (r *fakeRequestRepo) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.DebtRequest, error) {
	req, err := r.FindByID(ctx, id)
	if err != nil || r.org == nil {
		return req, err
	}
	if brand, brandErr := r.org.FindBrand(ctx, req.BrandID); brandErr == nil {
		req.Brand = brand
	}
	if branch, branchErr := r.org.FindBranch(ctx, req.BranchID); branchErr == nil {
		req.Branch = branch
	}
	if svr, svrErr := r.org.FindSVR(ctx, req.SVRID); svrErr == nil {
		req.SVR = svr
	}
	return req, nil
}

func (r *fakeRequestRepo) List(ctx context.Context, filter repository.RequestFilter) ([]model.DebtRequest, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.DebtRequest
	for _, req := range r.requests {
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		if filter.BrandID != "" && req.BrandID.String() != filter.BrandID {
			continue
		}
		if filter.BranchID != "" && req.BranchID.String() != filter.BranchID {
			continue
		}
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestNo < out[j].RequestNo })
	return out, int64(len(out)), nil
}

func (r *fakeRequestRepo) ListPending(ctx context.Context, q repository.PendingQuery) ([]model.DebtRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	branchSet := make(map[uuid.UUID]bool, len(q.BranchIDs))
	for _, id := range q.BranchIDs {
		branchSet[id] = true
	}
	brandSet := make(map[uuid.UUID]bool, len(q.BrandIDs))
	for _, id := range q.BrandIDs {
		brandSet[id] = true
	}

	var out []model.DebtRequest
	for _, req := range r.requests {
		if req.Status != q.Status {
			continue
		}
		if q.Unscoped {
			out = append(out, req)
			continue
		}
		addressed := req.CurrentApproverID != nil && *req.CurrentApproverID == q.ActorID
		inScope := branchSet[req.BranchID] || brandSet[req.BrandID]
		if addressed || inScope {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestNo < out[j].RequestNo })
	return out, nil
}

func (r *fakeRequestRepo) Update(ctx context.Context, req *model.DebtRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.requests[req.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	req.UpdatedAt = time.Now()
	r.requests[req.ID] = *req
	return nil
}

func (r *fakeRequestRepo) NextRequestNo(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return fmt.Sprintf("DR-%s-%05d", time.Now().Format("20060102"), r.seq), nil
}

func (r *fakeRequestRepo) AcquireLock(ctx context.Context, id, actor uuid.UUID, now time.Time, ttl time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return false, nil
	}
	pending := false
	for _, status := range repository.PendingStatuses {
		if req.Status == status {
			pending = true
			break
		}
	}
	if !pending {
		return false, nil
	}

	free := req.LockedBy == nil
	own := req.LockedBy != nil && *req.LockedBy == actor
	expired := req.LockedBy != nil && req.LockedAt != nil && req.LockedAt.Before(now.Add(-ttl))
	if !free && !own && !expired {
		return false, nil
	}

	req.LockedBy = &actor
	req.LockedAt = &now
	r.requests[id] = req
	return true, nil
}

func (r *fakeRequestRepo) ReleaseLock(ctx context.Context, id, actor uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil
	}
	if req.LockedBy != nil && *req.LockedBy == actor {
		req.LockedBy = nil
		req.LockedAt = nil
		r.requests[id] = req
	}
	return nil
}

func (r *fakeRequestRepo) SweepExpiredLocks(ctx context.Context, now time.Time, ttl time.Duration) ([]model.DebtRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := now.Add(-ttl)
	var reclaimed []model.DebtRequest
	for id, req := range r.requests {
		if req.LockedBy == nil || req.LockedAt == nil || !req.LockedAt.Before(cutoff) {
			continue
		}
		pending := false
		for _, status := range repository.PendingStatuses {
			if req.Status == status {
				pending = true
				break
			}
		}
		if !pending {
			continue
		}
		reclaimed = append(reclaimed, req)
		req.LockedBy = nil
		req.LockedAt = nil
		r.requests[id] = req
	}
	return reclaimed, nil
}

func (r *fakeRequestRepo) SetMessageHandle(ctx context.Context, id uuid.UUID, column, messageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handles[id] == nil {
		r.handles[id] = make(map[string]string)
	}
	r.handles[id][column] = messageID
	req, ok := r.requests[id]
	if ok {
		switch column {
		case notify.HandlePreview:
			req.PreviewMessageID = messageID
		case notify.HandleFinal:
			req.FinalMessageID = messageID
		}
		r.requests[id] = req
	}
	return nil
}

// --- approval records ---

type fakeRecordRepo struct {
	mu      sync.Mutex
	records []model.ApprovalRecord
}

func (r *fakeRecordRepo) Create(ctx context.Context, record *model.ApprovalRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.CreatedAt = time.Now()
	r.records = append(r.records, *record)
	return nil
}

func (r *fakeRecordRepo) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]model.ApprovalRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ApprovalRecord
	for _, rec := range r.records {
		if rec.RequestID == requestID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// --- reminders ---

type fakeReminderRepo struct {
	mu        sync.Mutex
	reminders map[uuid.UUID]model.Reminder // keyed by request id
	requests  *fakeRequestRepo
	sweepLock bool
}

func newFakeReminderRepo(requests *fakeRequestRepo) *fakeReminderRepo {
	return &fakeReminderRepo{
		reminders: make(map[uuid.UUID]model.Reminder),
		requests:  requests,
		sweepLock: true,
	}
}

func (r *fakeReminderRepo) Create(ctx context.Context, reminder *model.Reminder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if reminder.ID == uuid.Nil {
		reminder.ID = uuid.New()
	}
	r.reminders[reminder.RequestID] = *reminder
	return nil
}

func (r *fakeReminderRepo) FindByRequest(ctx context.Context, requestID uuid.UUID) (*model.Reminder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reminder, ok := r.reminders[requestID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := reminder
	return &copied, nil
}

func (r *fakeReminderRepo) Due(ctx context.Context, now time.Time, limit int) ([]model.Reminder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Reminder
	for _, reminder := range r.reminders {
		if reminder.Escalated || reminder.NextReminderAt.After(now) {
			continue
		}
		req, err := r.requests.FindByID(ctx, reminder.RequestID)
		if err != nil {
			continue
		}
		pending := false
		for _, status := range repository.PendingStatuses {
			if req.Status == status {
				pending = true
				break
			}
		}
		if !pending {
			continue
		}
		out = append(out, reminder)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *fakeReminderRepo) Update(ctx context.Context, reminder *model.Reminder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reminders[reminder.RequestID] = *reminder
	return nil
}

func (r *fakeReminderRepo) ResetSchedule(ctx context.Context, requestID uuid.UUID, next time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reminder, ok := r.reminders[requestID]
	if !ok {
		return nil
	}
	reminder.ReminderCount = 0
	reminder.Escalated = false
	reminder.NextReminderAt = next
	r.reminders[requestID] = reminder
	return nil
}

func (r *fakeReminderRepo) DeleteByRequest(ctx context.Context, requestID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.reminders, requestID)
	return nil
}

func (r *fakeReminderRepo) TrySweepLock(ctx context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sweepLock, nil
}

// --- audit ---

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []model.AuditLog
}

func (r *fakeAuditRepo) Log(ctx context.Context, entry *model.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) List(ctx context.Context, action string, page, limit int) ([]model.AuditLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.AuditLog
	for _, entry := range r.entries {
		if action == "" || entry.Action == action {
			out = append(out, entry)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeAuditRepo) ListByEntity(ctx context.Context, entityID string) ([]model.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.AuditLog
	for _, entry := range r.entries {
		if entry.EntityID == entityID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (r *fakeAuditRepo) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for _, entry := range r.entries {
		out = append(out, entry.Action)
	}
	return out
}

// --- org catalog ---

type fakeOrgRepo struct {
	mu       sync.Mutex
	brands   map[uuid.UUID]model.Brand
	branches map[uuid.UUID]model.Branch
	svrs     map[uuid.UUID]model.SVR
}

func newFakeOrgRepo() *fakeOrgRepo {
	return &fakeOrgRepo{
		brands:   make(map[uuid.UUID]model.Brand),
		branches: make(map[uuid.UUID]model.Branch),
		svrs:     make(map[uuid.UUID]model.SVR),
	}
}

func (r *fakeOrgRepo) CreateBrand(ctx context.Context, brand *model.Brand) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if brand.ID == uuid.Nil {
		brand.ID = uuid.New()
	}
	r.brands[brand.ID] = *brand
	return nil
}

func (r *fakeOrgRepo) FindBrand(ctx context.Context, id uuid.UUID) (*model.Brand, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	brand, ok := r.brands[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := brand
	return &copied, nil
}

func (r *fakeOrgRepo) ListBrands(ctx context.Context) ([]model.Brand, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Brand
	for _, brand := range r.brands {
		out = append(out, brand)
	}
	return out, nil
}

func (r *fakeOrgRepo) UpdateBrand(ctx context.Context, brand *model.Brand) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.brands[brand.ID] = *brand
	return nil
}

func (r *fakeOrgRepo) CreateBranch(ctx context.Context, branch *model.Branch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if branch.ID == uuid.Nil {
		branch.ID = uuid.New()
	}
	r.branches[branch.ID] = *branch
	return nil
}

func (r *fakeOrgRepo) FindBranch(ctx context.Context, id uuid.UUID) (*model.Branch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	branch, ok := r.branches[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := branch
	return &copied, nil
}

func (r *fakeOrgRepo) ListBranches(ctx context.Context, brandID string) ([]model.Branch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Branch
	for _, branch := range r.branches {
		if brandID == "" || branch.BrandID.String() == brandID {
			out = append(out, branch)
		}
	}
	return out, nil
}

func (r *fakeOrgRepo) UpdateBranch(ctx context.Context, branch *model.Branch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.branches[branch.ID] = *branch
	return nil
}

func (r *fakeOrgRepo) CreateSVR(ctx context.Context, svr *model.SVR) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if svr.ID == uuid.Nil {
		svr.ID = uuid.New()
	}
	r.svrs[svr.ID] = *svr
	return nil
}

func (r *fakeOrgRepo) FindSVR(ctx context.Context, id uuid.UUID) (*model.SVR, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	svr, ok := r.svrs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := svr
	return &copied, nil
}

func (r *fakeOrgRepo) ListSVRs(ctx context.Context, branchID string) ([]model.SVR, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.SVR
	for _, svr := range r.svrs {
		if branchID == "" || svr.BranchID.String() == branchID {
			out = append(out, svr)
		}
	}
	return out, nil
}

func (r *fakeOrgRepo) UpdateSVR(ctx context.Context, svr *model.SVR) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.svrs[svr.ID] = *svr
	return nil
}

// --- renames ---

type fakeRenameRepo struct {
	mu      sync.Mutex
	renames []model.EntityRename
}

func (r *fakeRenameRepo) Create(ctx context.Context, rename *model.EntityRename) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rename.ID == uuid.Nil {
		rename.ID = uuid.New()
	}
	rename.CreatedAt = time.Now()
	r.renames = append(r.renames, *rename)
	return nil
}

func (r *fakeRenameRepo) LatestName(ctx context.Context, entityType string, entityID uuid.UUID) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	latest := ""
	for _, rename := range r.renames {
		if rename.EntityType == entityType && rename.EntityID == entityID {
			latest = rename.NewName
		}
	}
	return latest, nil
}

func (r *fakeRenameRepo) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]model.EntityRename, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.EntityRename
	for _, rename := range r.renames {
		if rename.EntityType == entityType && rename.EntityID == entityID {
			out = append(out, rename)
		}
	}
	return out, nil
}

// --- assignments ---

type fakeAssignmentRepo struct {
	mu          sync.Mutex
	assignments []model.Assignment
	nextID      uint
}

func (r *fakeAssignmentRepo) Create(ctx context.Context, assignment *model.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	assignment.ID = r.nextID
	assignment.CreatedAt = time.Now()
	r.assignments = append(r.assignments, *assignment)
	return nil
}

func (r *fakeAssignmentRepo) FindByID(ctx context.Context, id uint) (*model.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.assignments {
		if a.ID == id {
			copied := a
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeAssignmentRepo) ActiveForScope(ctx context.Context, role string, branchID, brandID *uuid.UUID) ([]model.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Assignment
	for _, a := range r.assignments {
		if !a.IsActive || a.Role != role {
			continue
		}
		if branchID != nil && (a.BranchID == nil || *a.BranchID != *branchID) {
			continue
		}
		if brandID != nil && (a.BrandID == nil || *a.BrandID != *brandID) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeAssignmentRepo) ScopesForUser(ctx context.Context, userID uuid.UUID, role string) ([]uuid.UUID, []uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var branchIDs, brandIDs []uuid.UUID
	for _, a := range r.assignments {
		if !a.IsActive || a.Role != role || a.UserID != userID {
			continue
		}
		if a.BranchID != nil {
			branchIDs = append(branchIDs, *a.BranchID)
		}
		if a.BrandID != nil {
			brandIDs = append(brandIDs, *a.BrandID)
		}
	}
	return branchIDs, brandIDs, nil
}

func (r *fakeAssignmentRepo) List(ctx context.Context, role string, page, limit int) ([]model.Assignment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Assignment
	for _, a := range r.assignments {
		if role == "" || a.Role == role {
			out = append(out, a)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeAssignmentRepo) SetActive(ctx context.Context, id uint, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.assignments {
		if r.assignments[i].ID == id {
			r.assignments[i].IsActive = active
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeAssignmentRepo) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.assignments {
		if r.assignments[i].ID == id {
			r.assignments = append(r.assignments[:i], r.assignments[i+1:]...)
			return nil
		}
	}
	return nil
}

// --- users ---

type fakeUserRepo struct {
	mu      sync.Mutex
	users   map[uuid.UUID]model.User
	refresh map[string]model.RefreshToken
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:   make(map[uuid.UUID]model.User),
		refresh: make(map[string]model.RefreshToken),
	}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	user, ok := r.users[parsed]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := user
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Username == username {
			copied := user
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) ListByRole(ctx context.Context, role string) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.User
	for _, user := range r.users {
		if user.Role == role {
			out = append(out, user)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeUserRepo) List(ctx context.Context, page, limit int) ([]model.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.User
	for _, user := range r.users {
		out = append(out, user)
	}
	return out, int64(len(out)), nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	parsed, err := uuid.Parse(id)
	if err != nil {
		return err
	}
	delete(r.users, parsed)
	return nil
}

func (r *fakeUserRepo) mustFirstUserID() uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.users {
		return id
	}
	return uuid.Nil
}

func (r *fakeUserRepo) CreateRefreshToken(ctx context.Context, token *model.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	r.refresh[token.Token] = *token
	return nil
}

func (r *fakeUserRepo) GetRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.refresh[token]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if user, userOK := r.users[stored.UserID]; userOK {
		stored.User = user
	}
	return &stored, nil
}

func (r *fakeUserRepo) DeleteRefreshToken(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.refresh, token)
	return nil
}

// --- dispatcher ---

type fakeDispatcher struct {
	mu     sync.Mutex
	events []notify.Event
	chats  []notify.ChatMessage
}

func (d *fakeDispatcher) Publish(event notify.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
}

func (d *fakeDispatcher) PublishChat(msg notify.ChatMessage) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.chats = append(d.chats, msg)
}

func (d *fakeDispatcher) eventTypes() []notify.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]notify.EventType, 0, len(d.events))
	for _, e := range d.events {
		out = append(out, e.Type)
	}
	return out
}

// --- resolver ---

type fakeResolver struct {
	approvers map[string]uuid.UUID // role -> addressee
	eligible  map[uuid.UUID]string // user -> role they may act for
	scopes    map[uuid.UUID][]uuid.UUID
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		approvers: make(map[string]uuid.UUID),
		eligible:  make(map[uuid.UUID]string),
	}
}

func (f *fakeResolver) ResolveApprover(ctx context.Context, role string, branchID, brandID uuid.UUID) (uuid.UUID, error) {
	id, ok := f.approvers[role]
	if !ok {
		return uuid.Nil, ErrApproverUnresolved
	}
	return id, nil
}

func (f *fakeResolver) IsEligible(ctx context.Context, userID uuid.UUID, role string, branchID, brandID uuid.UUID) (bool, error) {
	return f.eligible[userID] == role, nil
}

func (f *fakeResolver) ScopesFor(ctx context.Context, userID uuid.UUID, role string) ([]uuid.UUID, []uuid.UUID, error) {
	return f.scopes[userID], nil, nil
}
