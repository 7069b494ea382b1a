package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/flexible-healthcare/training-service/internal/models"
	"github.com/flexible-healthcare/training-service/internal/repositories"
)

// MockRepository is an in-memory Repository. Transactions run fn against the
// same store and restore progress and compliance rows when fn fails.
type MockRepository struct {
	mu sync.Mutex
	// seq orders rows created in the same instant
	seq int

	modules       map[string]*models.TrainingModule
	progress      []*models.UserProgress
	compliance    []*models.ComplianceRecord
	notifications []*models.Notification
	profiles      map[string]*models.Profile
	goals         []*models.WeeklyGoal
	achievements  []*models.Achievement
	earned        []*models.UserAchievement
	favorites     []*models.UserFavorite
	users         map[string]*models.User
	passwords     map[string]string

	// hideActive makes GetActive miss so Create hits the unique index
	hideActive bool
	txCount    int

	// injected write failures
	failProgressUpdate     error
	failComplianceUpsert   error
	failNotificationCreate error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		modules:   make(map[string]*models.TrainingModule),
		profiles:  make(map[string]*models.Profile),
		users:     make(map[string]*models.User),
		passwords: make(map[string]string),
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (m *MockRepository) TrainingModule() repositories.TrainingModuleRepository {
	return mockModules{m}
}
func (m *MockRepository) Progress() repositories.ProgressRepository { return mockProgress{m} }
func (m *MockRepository) Compliance() repositories.ComplianceRepository {
	return mockCompliance{m}
}
func (m *MockRepository) Notification() repositories.NotificationRepository {
	return mockNotifications{m}
}
func (m *MockRepository) Profile() repositories.ProfileRepository { return mockProfiles{m} }
func (m *MockRepository) WeeklyGoal() repositories.WeeklyGoalRepository {
	return mockGoals{m}
}
func (m *MockRepository) Achievement() repositories.AchievementRepository {
	return mockAchievements{m}
}
func (m *MockRepository) Favorite() repositories.FavoriteRepository { return mockFavorites{m} }
func (m *MockRepository) User() repositories.UserRepository         { return mockUsers{m} }
func (m *MockRepository) Dashboard() repositories.DashboardRepository {
	return mockDashboard{m}
}
func (m *MockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	m.mu.Lock()
	m.txCount++
	progress := slices.Clone(m.progress)
	compliance := make([]*models.ComplianceRecord, len(m.compliance))
	for i, r := range m.compliance {
		c := *r
		compliance[i] = &c
	}
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.progress = progress
		m.compliance = compliance
		m.mu.Unlock()
		return err
	}
	return nil
}
func (m *MockRepository) Ping(ctx context.Context) error { return nil }
func (m *MockRepository) Close() error                   { return nil }

// ===== FIXTURES =====

func (m *MockRepository) addModule(module *models.TrainingModule) *models.TrainingModule {
	m.mu.Lock()
	defer m.mu.Unlock()
	if module.ID == "" {
		module.ID = newID("mod", len(m.modules)+1)
	}
	m.modules[module.ID] = module
	return module
}

func (m *MockRepository) addProgress(p *models.UserProgress) *models.UserProgress {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	if p.ID == "" {
		p.ID = newID("prog", m.seq)
	}
	if p.Module == nil {
		p.Module = m.modules[p.ModuleID]
	}
	m.progress = append(m.progress, p)
	return p
}

func (m *MockRepository) addCompliance(r *models.ComplianceRecord) *models.ComplianceRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	if r.ID == "" {
		r.ID = newID("cert", m.seq)
	}
	if r.Module == nil {
		r.Module = m.modules[r.ModuleID]
	}
	m.compliance = append(m.compliance, r)
	return r
}

func (m *MockRepository) addUser(user *models.User, password string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	m.passwords[user.ID] = password
}

func newID(prefix string, n int) string {
	return fmt.Sprintf("%s-%03d", prefix, n)
}

func ptr[T any](v T) *T { return &v }

func copyProgress(p *models.UserProgress) *models.UserProgress {
	c := *p
	return &c
}

// ===== MODULES =====

type mockModules struct{ m *MockRepository }

func (r mockModules) Create(ctx context.Context, tx *gorm.DB, module *models.TrainingModule) error {
	r.m.addModule(module)
	return nil
}

func (r mockModules) Update(ctx context.Context, tx *gorm.DB, module *models.TrainingModule) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.modules[module.ID]; !ok {
		return repositories.ErrNotFound
	}
	r.m.modules[module.ID] = module
	return nil
}

func (r mockModules) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.TrainingModule, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	module, ok := r.m.modules[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := *module
	return &c, nil
}

func (r mockModules) GetByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*models.TrainingModule, error) {
	var out []*models.TrainingModule
	for _, id := range ids {
		if module, err := r.GetByID(ctx, tx, id); err == nil {
			out = append(out, module)
		}
	}
	return out, nil
}

func (r mockModules) sorted() []*models.TrainingModule {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]*models.TrainingModule, 0, len(r.m.modules))
	for _, module := range r.m.modules {
		out = append(out, module)
	}
	slices.SortFunc(out, func(a, b *models.TrainingModule) int { return strings.Compare(a.ID, b.ID) })
	return out
}

func (r mockModules) List(ctx context.Context, tx *gorm.DB, filters repositories.ModuleFilters) ([]*models.TrainingModule, int64, error) {
	var matched []*models.TrainingModule
	for _, module := range r.sorted() {
		if filters.Category != "" && module.Category != filters.Category {
			continue
		}
		if filters.Search != "" && !strings.Contains(strings.ToLower(module.Title), strings.ToLower(filters.Search)) {
			continue
		}
		matched = append(matched, module)
	}
	total := int64(len(matched))
	start := min(filters.Offset, len(matched))
	end := len(matched)
	if filters.Limit > 0 {
		end = min(start+filters.Limit, len(matched))
	}
	return matched[start:end], total, nil
}

func (r mockModules) ListAll(ctx context.Context, tx *gorm.DB) ([]*models.TrainingModule, error) {
	return r.sorted(), nil
}

func (r mockModules) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return int64(len(r.m.modules)), nil
}

// ===== PROGRESS =====

type mockProgress struct{ m *MockRepository }

func (r mockProgress) Create(ctx context.Context, tx *gorm.DB, progress *models.UserProgress) error {
	r.m.mu.Lock()
	for _, p := range r.m.progress {
		if p.UserID == progress.UserID && p.ModuleID == progress.ModuleID && !p.IsCompleted() {
			r.m.mu.Unlock()
			return gorm.ErrDuplicatedKey
		}
	}
	r.m.mu.Unlock()
	stored := copyProgress(progress)
	r.m.addProgress(stored)
	progress.ID = stored.ID
	return nil
}

func (r mockProgress) Update(ctx context.Context, tx *gorm.DB, progress *models.UserProgress) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failProgressUpdate != nil {
		return r.m.failProgressUpdate
	}
	for i, p := range r.m.progress {
		if p.ID == progress.ID && p.UserID == progress.UserID {
			updated := copyProgress(progress)
			updated.Module = p.Module
			r.m.progress[i] = updated
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (r mockProgress) GetByID(ctx context.Context, tx *gorm.DB, userID, id string) (*models.UserProgress, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, p := range r.m.progress {
		if p.ID == id && p.UserID == userID {
			return copyProgress(p), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r mockProgress) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, userID, id string) (*models.UserProgress, error) {
	return r.GetByID(ctx, tx, userID, id)
}

func (r mockProgress) GetActive(ctx context.Context, tx *gorm.DB, userID, moduleID string) (*models.UserProgress, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.hideActive {
		return nil, repositories.ErrNotFound
	}
	for _, p := range r.m.progress {
		if p.UserID == userID && p.ModuleID == moduleID && !p.IsCompleted() {
			return copyProgress(p), nil
		}
	}
	return nil, repositories.ErrNotFound
}

// latest keeps the last row appended per module, which is also the most recently started
func (r mockProgress) latest(userID string) map[string]*models.UserProgress {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make(map[string]*models.UserProgress)
	for _, p := range r.m.progress {
		if p.UserID == userID {
			out[p.ModuleID] = p
		}
	}
	return out
}

func (r mockProgress) GetLatest(ctx context.Context, tx *gorm.DB, userID, moduleID string) (*models.UserProgress, error) {
	if p, ok := r.latest(userID)[moduleID]; ok {
		return copyProgress(p), nil
	}
	return nil, repositories.ErrNotFound
}

func (r mockProgress) ListLatestByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.UserProgress, error) {
	var out []*models.UserProgress
	for _, p := range r.latest(userID) {
		out = append(out, copyProgress(p))
	}
	slices.SortFunc(out, func(a, b *models.UserProgress) int { return strings.Compare(a.ModuleID, b.ModuleID) })
	return out, nil
}

func (r mockProgress) List(ctx context.Context, tx *gorm.DB, userID string, filters repositories.ProgressFilters) ([]*models.UserProgress, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.UserProgress
	for _, p := range r.m.progress {
		if p.UserID != userID {
			continue
		}
		if filters.Status != nil && p.Status != *filters.Status {
			continue
		}
		if filters.ModuleID != nil && p.ModuleID != *filters.ModuleID {
			continue
		}
		out = append(out, copyProgress(p))
	}
	total := int64(len(out))
	start := min(filters.Offset, len(out))
	end := len(out)
	if filters.Limit > 0 {
		end = min(start+filters.Limit, len(out))
	}
	return out[start:end], total, nil
}

func (r mockProgress) ListDueBetween(ctx context.Context, tx *gorm.DB, userID string, from, to time.Time) ([]*models.UserProgress, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.UserProgress
	for _, p := range r.m.progress {
		if p.UserID == userID && p.IsInProgress() && p.DueDate != nil &&
			!p.DueDate.Before(from) && !p.DueDate.After(to) {
			out = append(out, copyProgress(p))
		}
	}
	return out, nil
}

func (r mockProgress) ListCompletedBetween(ctx context.Context, tx *gorm.DB, userID string, from, to time.Time) ([]*models.UserProgress, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.UserProgress
	for _, p := range r.m.progress {
		if p.UserID == userID && p.IsCompleted() && p.CompletedAt != nil &&
			!p.CompletedAt.Before(from) && p.CompletedAt.Before(to) {
			out = append(out, copyProgress(p))
		}
	}
	return out, nil
}

func (r mockProgress) CompletionTotals(ctx context.Context, tx *gorm.DB, userID string, category *string) (*repositories.CompletionTotals, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	seen := make(map[string]bool)
	totals := &repositories.CompletionTotals{}
	for _, p := range r.m.progress {
		if p.UserID != userID || !p.IsCompleted() || seen[p.ModuleID] {
			continue
		}
		module := r.m.modules[p.ModuleID]
		if module == nil {
			continue
		}
		if category != nil && module.Category != *category {
			continue
		}
		seen[p.ModuleID] = true
		totals.Modules++
		totals.Minutes += int64(module.Duration())
	}
	return totals, nil
}

// ===== COMPLIANCE =====

type mockCompliance struct{ m *MockRepository }

func (r mockCompliance) Upsert(ctx context.Context, tx *gorm.DB, record *models.ComplianceRecord) error {
	r.m.mu.Lock()
	if r.m.failComplianceUpsert != nil {
		r.m.mu.Unlock()
		return r.m.failComplianceUpsert
	}
	for _, existing := range r.m.compliance {
		if existing.UserID == record.UserID && existing.ModuleID == record.ModuleID {
			existing.IsValid = record.IsValid
			existing.ExpiryDate = record.ExpiryDate
			existing.UpdatedAt = time.Now()
			r.m.mu.Unlock()
			return nil
		}
	}
	r.m.mu.Unlock()
	c := *record
	c.UpdatedAt = time.Now()
	r.m.addCompliance(&c)
	record.ID = c.ID
	return nil
}

func (r mockCompliance) find(match func(*models.ComplianceRecord) bool) (*models.ComplianceRecord, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, rec := range r.m.compliance {
		if match(rec) {
			c := *rec
			return &c, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r mockCompliance) GetByID(ctx context.Context, tx *gorm.DB, userID, id string) (*models.ComplianceRecord, error) {
	return r.find(func(rec *models.ComplianceRecord) bool { return rec.ID == id && rec.UserID == userID })
}

func (r mockCompliance) GetByModule(ctx context.Context, tx *gorm.DB, userID, moduleID string) (*models.ComplianceRecord, error) {
	return r.find(func(rec *models.ComplianceRecord) bool { return rec.ModuleID == moduleID && rec.UserID == userID })
}

func (r mockCompliance) ListByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.ComplianceRecord, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.ComplianceRecord
	for i := len(r.m.compliance) - 1; i >= 0; i-- {
		if rec := r.m.compliance[i]; rec.UserID == userID {
			c := *rec
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r mockCompliance) ListExpiringBetween(ctx context.Context, tx *gorm.DB, userID string, from, to time.Time) ([]*models.ComplianceRecord, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.ComplianceRecord
	for _, rec := range r.m.compliance {
		if rec.UserID == userID && rec.IsValid && rec.ExpiryDate != nil &&
			!rec.ExpiryDate.Before(from) && !rec.ExpiryDate.After(to) {
			c := *rec
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r mockCompliance) CountValid(ctx context.Context, tx *gorm.DB, userID string) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for _, rec := range r.m.compliance {
		if rec.UserID == userID && rec.IsValid {
			n++
		}
	}
	return n, nil
}

// ===== NOTIFICATIONS =====

type mockNotifications struct{ m *MockRepository }

func (r mockNotifications) Create(ctx context.Context, tx *gorm.DB, n *models.Notification) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.seq++
	if n.ID == "" {
		n.ID = newID("note", r.m.seq)
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().Add(time.Duration(r.m.seq) * time.Millisecond)
	}
	c := *n
	r.m.notifications = append(r.m.notifications, &c)
	return nil
}

func (r mockNotifications) CreateIfAbsent(ctx context.Context, tx *gorm.DB, n *models.Notification) (bool, error) {
	r.m.mu.Lock()
	if r.m.failNotificationCreate != nil {
		r.m.mu.Unlock()
		return false, r.m.failNotificationCreate
	}
	for _, existing := range r.m.notifications {
		if n.DedupKey != nil && existing.DedupKey != nil && *existing.DedupKey == *n.DedupKey {
			r.m.mu.Unlock()
			return false, nil
		}
	}
	r.m.mu.Unlock()
	return true, r.Create(ctx, tx, n)
}

func (r mockNotifications) GetByID(ctx context.Context, tx *gorm.DB, userID, id string) (*models.Notification, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, n := range r.m.notifications {
		if n.ID == id && n.UserID == userID {
			c := *n
			return &c, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r mockNotifications) ListRecent(ctx context.Context, tx *gorm.DB, userID string, limit int) ([]*models.Notification, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.Notification
	for i := len(r.m.notifications) - 1; i >= 0; i-- {
		if n := r.m.notifications[i]; n.UserID == userID {
			c := *n
			out = append(out, &c)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r mockNotifications) CountUnread(ctx context.Context, tx *gorm.DB, userID string) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var count int64
	for _, n := range r.m.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r mockNotifications) MarkRead(ctx context.Context, tx *gorm.DB, userID, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, n := range r.m.notifications {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (r mockNotifications) MarkAllRead(ctx context.Context, tx *gorm.DB, userID string) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var updated int64
	for _, n := range r.m.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			updated++
		}
	}
	return updated, nil
}

// ===== PROFILE, GOALS, ACHIEVEMENTS, FAVORITES =====

type mockProfiles struct{ m *MockRepository }

func (r mockProfiles) GetByID(ctx context.Context, tx *gorm.DB, userID string) (*models.Profile, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.profiles[userID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (r mockProfiles) Create(ctx context.Context, tx *gorm.DB, profile *models.Profile) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.profiles[profile.ID]; !ok {
		c := *profile
		r.m.profiles[profile.ID] = &c
	}
	return nil
}

func (r mockProfiles) Update(ctx context.Context, tx *gorm.DB, profile *models.Profile) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.profiles[profile.ID]; !ok {
		return repositories.ErrNotFound
	}
	c := *profile
	r.m.profiles[profile.ID] = &c
	return nil
}

type mockGoals struct{ m *MockRepository }

func (r mockGoals) GetByWeek(ctx context.Context, tx *gorm.DB, userID string, weekStart time.Time) (*models.WeeklyGoal, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, g := range r.m.goals {
		if g.UserID == userID && time.Time(g.WeekStart).Equal(weekStart) {
			c := *g
			return &c, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r mockGoals) Upsert(ctx context.Context, tx *gorm.DB, goal *models.WeeklyGoal) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, g := range r.m.goals {
		if g.UserID == goal.UserID && time.Time(g.WeekStart).Equal(time.Time(goal.WeekStart)) {
			g.TargetModules = goal.TargetModules
			g.TargetMinutes = goal.TargetMinutes
			return nil
		}
	}
	c := *goal
	r.m.goals = append(r.m.goals, &c)
	return nil
}

type mockAchievements struct{ m *MockRepository }

func (r mockAchievements) ListAll(ctx context.Context, tx *gorm.DB) ([]*models.Achievement, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return slices.Clone(r.m.achievements), nil
}

func (r mockAchievements) ListEarned(ctx context.Context, tx *gorm.DB, userID string) ([]*models.UserAchievement, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.UserAchievement
	for _, e := range r.m.earned {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r mockAchievements) Grant(ctx context.Context, tx *gorm.DB, earned *models.UserAchievement) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, e := range r.m.earned {
		if e.UserID == earned.UserID && e.AchievementID == earned.AchievementID {
			return false, nil
		}
	}
	r.m.earned = append(r.m.earned, earned)
	return true, nil
}

type mockFavorites struct{ m *MockRepository }

func (r mockFavorites) List(ctx context.Context, tx *gorm.DB, userID string) ([]*models.UserFavorite, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.UserFavorite
	for _, f := range r.m.favorites {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r mockFavorites) Add(ctx context.Context, tx *gorm.DB, favorite *models.UserFavorite) error {
	if ok, _ := r.Exists(ctx, tx, favorite.UserID, favorite.ModuleID); ok {
		return nil
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.favorites = append(r.m.favorites, favorite)
	return nil
}

func (r mockFavorites) Remove(ctx context.Context, tx *gorm.DB, userID, moduleID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.favorites = slices.DeleteFunc(r.m.favorites, func(f *models.UserFavorite) bool {
		return f.UserID == userID && f.ModuleID == moduleID
	})
	return nil
}

func (r mockFavorites) Exists(ctx context.Context, tx *gorm.DB, userID, moduleID string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, f := range r.m.favorites {
		if f.UserID == userID && f.ModuleID == moduleID {
			return true, nil
		}
	}
	return false, nil
}

// ===== USERS =====

type mockUsers struct{ m *MockRepository }

func (r mockUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if u, ok := r.m.users[id]; ok {
		return u, nil
	}
	return nil, repositories.ErrNotFound
}

func (r mockUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r mockUsers) Create(ctx context.Context, req *models.SignUpRequest) (*models.User, error) {
	if _, err := r.GetByEmail(ctx, req.Email); err == nil {
		return nil, repositories.ErrUserAlreadyExists
	}
	r.m.mu.Lock()
	id := newID("user", len(r.m.users)+1)
	r.m.mu.Unlock()

	user := &models.User{
		ID:          id,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DisplayName: req.FirstName + " " + req.LastName,
		Role:        models.RoleLearner,
	}
	r.m.addUser(user, req.Password)
	return user, nil
}

func (r mockUsers) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := r.GetByEmail(ctx, email)
	if err != nil {
		return nil, repositories.ErrInvalidCredentials
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.passwords[user.ID] != password {
		return nil, repositories.ErrInvalidCredentials
	}
	return user, nil
}

func (r mockUsers) ParseToken(token string) (*models.User, error) {
	if token == "provider-token" {
		return &models.User{ID: "provider-user", Email: "provider@example.com", Role: models.RoleManager}, nil
	}
	return nil, errors.New("unknown token")
}

// ===== DASHBOARD =====

type mockDashboard struct{ m *MockRepository }

func (r mockDashboard) GetProgressStatusCounts(ctx context.Context, tx *gorm.DB, userID string) (*repositories.ProgressStatusCounts, error) {
	counts := &repositories.ProgressStatusCounts{}
	for _, p := range (mockProgress{r.m}).latest(userID) {
		switch p.Status {
		case models.ProgressCompleted:
			counts.Completed++
		case models.ProgressInProgress:
			counts.InProgress++
		}
	}
	return counts, nil
}

func (r mockDashboard) GetCertificateCounts(ctx context.Context, tx *gorm.DB, userID string, now time.Time) (*repositories.CertificateCounts, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	counts := &repositories.CertificateCounts{}
	for _, rec := range r.m.compliance {
		if rec.UserID != userID || !rec.IsValid {
			continue
		}
		switch rec.Status(now) {
		case models.ComplianceExpired:
			counts.Expired++
		case models.ComplianceExpiringSoon:
			counts.Expiring++
		default:
			counts.Valid++
		}
	}
	return counts, nil
}
