package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	adminsvc "github.com/angelmondragon/loyaltyhub-backend/internal/admin"
	"github.com/angelmondragon/loyaltyhub-backend/internal/auth"
	"github.com/angelmondragon/loyaltyhub-backend/internal/loyalty"
	paymentsvc "github.com/angelmondragon/loyaltyhub-backend/internal/payments"
	rewardsvc "github.com/angelmondragon/loyaltyhub-backend/internal/rewards"
	sweepsvc "github.com/angelmondragon/loyaltyhub-backend/internal/sweepstakes"
	pkgAuth "github.com/angelmondragon/loyaltyhub-backend/pkg/auth"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/auth/session"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/config"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/db/models"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/enums"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessionManager struct{}

func (stubSessionManager) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type stubAuthService struct{}

func (stubAuthService) Register(ctx context.Context, req auth.RegisterRequest) (*auth.AuthResponse, error) {
	panic("unimplemented")
}

func (stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.AuthResponse, error) {
	panic("unimplemented")
}

func (stubAuthService) Refresh(ctx context.Context, req auth.RefreshRequest) (*auth.AuthResponse, error) {
	panic("unimplemented")
}

func (stubAuthService) Logout(ctx context.Context, accessID string) error {
	return nil
}

type stubLoyaltyService struct{}

func (stubLoyaltyService) EarnPoints(ctx context.Context, params loyalty.EarnPointsParams) (*loyalty.EarnPointsResult, error) {
	panic("unimplemented")
}

func (stubLoyaltyService) AdjustPoints(ctx context.Context, params loyalty.AdjustPointsParams) (*loyalty.AdjustPointsResult, error) {
	panic("unimplemented")
}

func (stubLoyaltyService) Summary(ctx context.Context, userID uuid.UUID) (*loyalty.SummaryResult, error) {
	return &loyalty.SummaryResult{}, nil
}

type stubRewardsService struct{}

func (stubRewardsService) Redeem(ctx context.Context, userID, rewardID uuid.UUID) (*rewardsvc.RedeemResult, error) {
	panic("unimplemented")
}

func (stubRewardsService) Catalog(ctx context.Context, userID uuid.UUID) ([]models.Reward, error) {
	return []models.Reward{}, nil
}

func (stubRewardsService) ListAll(ctx context.Context) ([]models.Reward, error) {
	return []models.Reward{}, nil
}

func (stubRewardsService) Get(ctx context.Context, rewardID uuid.UUID) (*models.Reward, error) {
	panic("unimplemented")
}

func (stubRewardsService) Create(ctx context.Context, params rewardsvc.CreateParams) (*models.Reward, error) {
	panic("unimplemented")
}

func (stubRewardsService) Update(ctx context.Context, rewardID uuid.UUID, params rewardsvc.UpdateParams) (*models.Reward, error) {
	panic("unimplemented")
}

type stubSweepstakesService struct{}

func (stubSweepstakesService) Enter(ctx context.Context, params sweepsvc.EnterParams) (*sweepsvc.EnterResult, error) {
	panic("unimplemented")
}

func (stubSweepstakesService) SelectWinners(ctx context.Context, sweepstakesID uuid.UUID) ([]models.SweepstakesWinner, error) {
	panic("unimplemented")
}

func (stubSweepstakesService) List(ctx context.Context, status *enums.SweepstakesStatus) ([]models.Sweepstakes, error) {
	return []models.Sweepstakes{}, nil
}

func (stubSweepstakesService) Get(ctx context.Context, sweepstakesID uuid.UUID) (*sweepsvc.DetailResult, error) {
	panic("unimplemented")
}

func (stubSweepstakesService) UserEntry(ctx context.Context, sweepstakesID, userID uuid.UUID) (*models.SweepstakesEntry, error) {
	panic("unimplemented")
}

func (stubSweepstakesService) Create(ctx context.Context, params sweepsvc.CreateParams) (*models.Sweepstakes, error) {
	panic("unimplemented")
}

func (stubSweepstakesService) Update(ctx context.Context, sweepstakesID uuid.UUID, params sweepsvc.UpdateParams) (*models.Sweepstakes, error) {
	panic("unimplemented")
}

type stubPaymentsService struct{}

func (stubPaymentsService) Purchase(ctx context.Context, params paymentsvc.PurchaseParams) (*paymentsvc.PurchaseResult, error) {
	panic("unimplemented")
}

func (stubPaymentsService) CompleteTransaction(ctx context.Context, transactionID uuid.UUID) (*loyalty.EarnPointsResult, error) {
	panic("unimplemented")
}

func (stubPaymentsService) FailTransaction(ctx context.Context, transactionID uuid.UUID) error {
	panic("unimplemented")
}

func (stubPaymentsService) History(ctx context.Context, params paymentsvc.HistoryParams) (*paymentsvc.HistoryResult, error) {
	return &paymentsvc.HistoryResult{}, nil
}

type stubAdminService struct{}

func (stubAdminService) DashboardStats(ctx context.Context) (*adminsvc.DashboardStats, error) {
	return &adminsvc.DashboardStats{}, nil
}

func (stubAdminService) ListUsers(ctx context.Context, params adminsvc.ListUsersParams) (*adminsvc.UserPage, error) {
	return &adminsvc.UserPage{}, nil
}

func (stubAdminService) UpdateUser(ctx context.Context, userID uuid.UUID, params adminsvc.UpdateUserParams) (*adminsvc.UserAccount, error) {
	return &adminsvc.UserAccount{ID: userID}, nil
}

func (stubAdminService) Analytics(ctx context.Context, params adminsvc.AnalyticsParams) (*adminsvc.AnalyticsReport, error) {
	return &adminsvc.AnalyticsReport{Metric: params.Metric}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		nil, // redis client not wired in routing tests
		stubSessionManager{},
		Services{
			Auth:        stubAuthService{},
			Loyalty:     stubLoyaltyService{},
			Rewards:     stubRewardsService{},
			Sweepstakes: stubSweepstakesService{},
			Payments:    stubPaymentsService{},
			Admin:       stubAdminService{},
		},
	)
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPrivateGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for private ping got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	customer := httptest.NewRequest(http.MethodGet, "/api/admin/v1/ping", nil)
	customer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, customer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/admin/v1/ping", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestRewardsCatalogRequiresAuth(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	anon := httptest.NewRequest(http.MethodGet, "/api/v1/rewards/", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, anon)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous catalog got %d", resp.Code)
	}

	member := httptest.NewRequest(http.MethodGet, "/api/v1/rewards/", nil)
	member.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, member)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for member catalog got %d", resp.Code)
	}
}

func TestAdminDashboardRejectsCustomer(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer dashboard got %d", resp.Code)
	}
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		Tier:   enums.TierBronze,
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}
