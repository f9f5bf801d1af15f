package service_test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/straye-as/crm-api/internal/cache"
	"github.com/straye-as/crm-api/internal/metrics"
	"github.com/straye-as/crm-api/internal/phone"
	"github.com/straye-as/crm-api/internal/repository"
	"github.com/straye-as/crm-api/internal/service"
	"github.com/straye-as/crm-api/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	db      *gorm.DB
	redis   *miniredis.Miniredis
	metrics *metrics.Metrics

	users      *repository.UserRepository
	contacts   *repository.ContactRepository
	leads      *repository.LeadRepository
	deals      *repository.DealRepository
	history    *repository.DealStageHistoryRepository
	activities *repository.ActivityRepository

	userService     *service.UserService
	contactService  *service.ContactService
	leadService     *service.LeadService
	dealService     *service.DealService
	activityService *service.ActivityService
	reportService   *service.ReportService
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.SetupTestDB(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log := zap.NewNop()
	reportCache := cache.NewWithClient(client, "test:", log)
	m := metrics.New()
	phones := phone.NewNormalizer("NO")

	env := &testEnv{
		db:         db,
		redis:      mr,
		metrics:    m,
		users:      repository.NewUserRepository(db),
		contacts:   repository.NewContactRepository(db),
		leads:      repository.NewLeadRepository(db),
		deals:      repository.NewDealRepository(db),
		history:    repository.NewDealStageHistoryRepository(db),
		activities: repository.NewActivityRepository(db),
	}

	env.userService = service.NewUserService(env.users, reportCache, log)
	env.contactService = service.NewContactService(env.contacts, env.users, phones, log)
	env.leadService = service.NewLeadService(env.leads, env.contacts, env.deals, env.users, phones, reportCache, m, log)
	env.dealService = service.NewDealService(env.deals, env.history, env.users, env.contacts, env.leads, reportCache, m, log)
	env.activityService = service.NewActivityService(env.activities, env.users, env.contacts, env.leads, env.deals, m, log)
	env.reportService = service.NewReportService(env.deals, env.activities, reportCache, time.Minute, m, log)
	return env
}

func counterValue(t *testing.T, c prometheus.Collector) float64 {
	t.Helper()
	return promtest.ToFloat64(c)
}
