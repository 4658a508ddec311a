package admin

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/loyaltyhub-backend/internal/transactions"
	"github.com/angelmondragon/loyaltyhub-backend/internal/users"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/db/models"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/loyaltyhub-backend/pkg/errors"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/logger"
)

const (
	recentTransactionLimit = 10

	defaultUserPageSize = 20
	maxUserPageSize     = 100
)

// Service aggregates the operator dashboard, account administration,
// and reporting.
type Service interface {
	DashboardStats(ctx context.Context) (*DashboardStats, error)
	ListUsers(ctx context.Context, params ListUsersParams) (*UserPage, error)
	UpdateUser(ctx context.Context, userID uuid.UUID, params UpdateUserParams) (*UserAccount, error)
	Analytics(ctx context.Context, params AnalyticsParams) (*AnalyticsReport, error)
}

// ServiceParams wires the dashboard dependencies.
type ServiceParams struct {
	Logger       *logger.Logger
	Users        users.Repository
	Transactions transactions.Repository
}

type service struct {
	logg         *logger.Logger
	users        users.Repository
	transactions transactions.Repository
}

// NewService builds the admin service.
func NewService(params ServiceParams) (Service, error) {
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	if params.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	if params.Transactions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transactions repository required")
	}
	return &service{
		logg:         params.Logger,
		users:        params.Users,
		transactions: params.Transactions,
	}, nil
}

// DashboardStats is the operator overview snapshot.
type DashboardStats struct {
	TotalCustomers     int64                `json:"totalCustomers"`
	TotalRevenue       decimal.Decimal      `json:"totalRevenue"`
	PointsOutstanding  int64                `json:"pointsOutstanding"`
	TierDistribution   map[enums.Tier]int64 `json:"tierDistribution"`
	Transactions24h    int64                `json:"transactions24h"`
	RecentTransactions []models.Transaction `json:"recentTransactions"`
}

// DashboardStats assembles user counts, completed purchase revenue,
// points liability, tier spread, and recent ledger activity.
func (s *service) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	customers, err := s.users.CountByRole(ctx, enums.UserRoleCustomer)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count customers")
	}
	revenue, err := s.transactions.SumCompletedRevenue(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum revenue")
	}
	outstanding, err := s.users.SumLoyaltyPoints(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum points")
	}
	distribution, err := s.users.TierDistribution(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "tier distribution")
	}
	recent, err := s.transactions.Recent(ctx, recentTransactionLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recent transactions")
	}
	last24h, err := s.transactions.CountSince(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count transactions")
	}

	return &DashboardStats{
		TotalCustomers:     customers,
		TotalRevenue:       revenue,
		PointsOutstanding:  outstanding,
		TierDistribution:   distribution,
		Transactions24h:    last24h,
		RecentTransactions: recent,
	}, nil
}

// UserAccount is the operator view of one account. Password material
// never leaves the users package through this type.
type UserAccount struct {
	ID                 uuid.UUID       `json:"id"`
	Email              string          `json:"email"`
	FirstName          string          `json:"firstName"`
	LastName           string          `json:"lastName"`
	Role               enums.UserRole  `json:"role"`
	LoyaltyPoints      int64           `json:"loyaltyPoints"`
	Tier               enums.Tier      `json:"tier"`
	TotalSpent         decimal.Decimal `json:"totalSpent"`
	SweepstakesEntries int64           `json:"sweepstakesEntries"`
	IsActive           bool            `json:"isActive"`
	LastLoginAt        *time.Time      `json:"lastLoginAt,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
}

func accountView(user *models.User) UserAccount {
	return UserAccount{
		ID:                 user.ID,
		Email:              user.Email,
		FirstName:          user.FirstName,
		LastName:           user.LastName,
		Role:               user.Role,
		LoyaltyPoints:      user.LoyaltyPoints,
		Tier:               user.Tier,
		TotalSpent:         user.TotalSpent,
		SweepstakesEntries: user.SweepstakesEntries,
		IsActive:           user.IsActive,
		LastLoginAt:        user.LastLoginAt,
		CreatedAt:          user.CreatedAt,
	}
}

// ListUsersParams filters and pages the account listing.
type ListUsersParams struct {
	Tier   *enums.Tier
	Search string
	Page   int
	Limit  int
}

// UserPage is one page of accounts plus offset bookkeeping.
type UserPage struct {
	Users      []UserAccount `json:"users"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	TotalPages int64         `json:"totalPages"`
}

// ListUsers pages through accounts newest first, optionally narrowed
// by tier or a name/email search.
func (s *service) ListUsers(ctx context.Context, params ListUsersParams) (*UserPage, error) {
	page := params.Page
	if page < 1 {
		page = 1
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultUserPageSize
	}
	if limit > maxUserPageSize {
		limit = maxUserPageSize
	}

	rows, total, err := s.users.List(ctx, users.ListParams{
		Tier:   params.Tier,
		Search: strings.TrimSpace(params.Search),
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}

	accounts := make([]UserAccount, 0, len(rows))
	for i := range rows {
		accounts = append(accounts, accountView(&rows[i]))
	}
	totalPages := total / int64(limit)
	if total%int64(limit) != 0 {
		totalPages++
	}

	return &UserPage{
		Users:      accounts,
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
	}, nil
}

// UpdateUserParams carries the optional account fields an operator may
// change. Points and tier are excluded: balance moves go through the
// adjustment endpoint so the ledger stays complete, and tier always
// follows the balance.
type UpdateUserParams struct {
	FirstName *string
	LastName  *string
	Role      *enums.UserRole
	IsActive  *bool
}

// UpdateUser applies a partial account update and returns the fresh view.
func (s *service) UpdateUser(ctx context.Context, userID uuid.UUID, params UpdateUserParams) (*UserAccount, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	if params.FirstName != nil {
		user.FirstName = *params.FirstName
	}
	if params.LastName != nil {
		user.LastName = *params.LastName
	}
	if params.Role != nil {
		user.Role = *params.Role
	}
	if params.IsActive != nil {
		user.IsActive = *params.IsActive
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
	}

	account := accountView(user)
	return &account, nil
}

// AnalyticsMetric selects which daily series the report covers.
type AnalyticsMetric string

const (
	MetricRevenue AnalyticsMetric = "revenue"
	MetricSignups AnalyticsMetric = "signups"
	MetricPoints  AnalyticsMetric = "points"
)

// AnalyticsParams bounds the report window. Zero times leave that side
// of the window open.
type AnalyticsParams struct {
	Metric AnalyticsMetric
	From   time.Time
	To     time.Time
}

// SeriesPoint is one day of the requested metric. Amount is set for
// revenue, Points for points; signups carry only the count.
type SeriesPoint struct {
	Day    string           `json:"day"`
	Count  int64            `json:"count"`
	Amount *decimal.Decimal `json:"amount,omitempty"`
	Points *int64           `json:"points,omitempty"`
}

// AnalyticsReport is the ordered daily series for one metric.
type AnalyticsReport struct {
	Metric AnalyticsMetric `json:"metric"`
	Series []SeriesPoint   `json:"series"`
}

// Analytics assembles the date-bucketed series for one metric.
func (s *service) Analytics(ctx context.Context, params AnalyticsParams) (*AnalyticsReport, error) {
	report := &AnalyticsReport{Metric: params.Metric, Series: []SeriesPoint{}}

	switch params.Metric {
	case MetricRevenue:
		buckets, err := s.transactions.RevenueByDay(ctx, params.From, params.To)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revenue series")
		}
		for _, bucket := range buckets {
			amount := bucket.Amount
			report.Series = append(report.Series, SeriesPoint{Day: bucket.Day, Count: bucket.Count, Amount: &amount})
		}
	case MetricSignups:
		buckets, err := s.users.SignupsByDay(ctx, params.From, params.To)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "signup series")
		}
		for _, bucket := range buckets {
			report.Series = append(report.Series, SeriesPoint{Day: bucket.Day, Count: bucket.Count})
		}
	case MetricPoints:
		buckets, err := s.transactions.PointsByDay(ctx, params.From, params.To)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "points series")
		}
		for _, bucket := range buckets {
			points := bucket.Points
			report.Series = append(report.Series, SeriesPoint{Day: bucket.Day, Count: bucket.Count, Points: &points})
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown analytics metric").
			WithDetails(map[string]any{"metric": string(params.Metric)})
	}

	return report, nil
}
