// Command seed fills a development database with fake CRM data and prints a
// bearer token for every seeded user.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/straye-as/crm-api/internal/auth"
	"github.com/straye-as/crm-api/internal/config"
	"github.com/straye-as/crm-api/internal/database"
	"github.com/straye-as/crm-api/internal/domain"
	"github.com/straye-as/crm-api/internal/logger"
	"github.com/straye-as/crm-api/internal/metrics"
	"github.com/straye-as/crm-api/internal/phone"
	"github.com/straye-as/crm-api/internal/repository"
	"github.com/straye-as/crm-api/internal/service"
	"go.uber.org/zap"
)

var (
	leadSources = []domain.LeadSource{
		domain.LeadSourceWebsite, domain.LeadSourceReferral, domain.LeadSourceColdCall,
		domain.LeadSourceTradeShow, domain.LeadSourcePartner,
	}
	activityTypes = []domain.ActivityType{
		domain.ActivityTypeCall, domain.ActivityTypeEmail, domain.ActivityTypeMeeting, domain.ActivityTypeTask,
	}
	stages = domain.DealStages
)

type services struct {
	users      *service.UserService
	contacts   *service.ContactService
	leads      *service.LeadService
	deals      *service.DealService
	activities *service.ActivityService
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Seed error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	perRep := flag.Int("per-rep", 5, "contacts and leads created for each rep")
	seed := flag.Int64("seed", 0, "random seed (0 picks one)")
	flag.Parse()

	if *seed != 0 {
		gofakeit.Seed(*seed)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log, err := logger.NewLogger(&cfg.Logging, &cfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	m := metrics.New()
	phones := phone.NewNormalizer(cfg.Phone.DefaultRegion)
	userRepo := repository.NewUserRepository(db)
	contactRepo := repository.NewContactRepository(db)
	leadRepo := repository.NewLeadRepository(db)
	dealRepo := repository.NewDealRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	svc := services{
		users:      service.NewUserService(userRepo, nil, log),
		contacts:   service.NewContactService(contactRepo, userRepo, phones, log),
		leads:      service.NewLeadService(leadRepo, contactRepo, dealRepo, userRepo, phones, nil, m, log),
		deals:      service.NewDealService(dealRepo, repository.NewDealStageHistoryRepository(db), userRepo, contactRepo, leadRepo, nil, m, log),
		activities: service.NewActivityService(activityRepo, userRepo, contactRepo, leadRepo, dealRepo, m, log),
	}

	ctx := context.Background()
	system := auth.NewSystemContext()
	suffix := uuid.NewString()[:6]

	roles := []domain.UserRole{domain.RoleAdmin, domain.RoleManager, domain.RoleRep, domain.RoleRep, domain.RoleReadOnly}
	seeded := make([]*domain.UserDTO, 0, len(roles))
	for i, role := range roles {
		u, err := svc.users.Create(ctx, system, &domain.CreateUserRequest{
			Name:  gofakeit.Name(),
			Email: fmt.Sprintf("%s.%d.%s@example.com", string(role), i, suffix),
			Role:  role,
		})
		if err != nil {
			return fmt.Errorf("failed to create %s user: %w", role, err)
		}
		seeded = append(seeded, u)
	}

	for _, u := range seeded {
		if u.Role != domain.RoleRep {
			continue
		}
		actor := &auth.UserContext{UserID: u.ID, DisplayName: u.Name, Email: u.Email, Role: u.Role}
		if err := seedPortfolio(ctx, svc, actor, *perRep); err != nil {
			return err
		}
		log.Info("Seeded portfolio", zap.String("owner", u.Email), zap.Int("contacts", *perRep))
	}

	signer := auth.NewJWTValidator(&cfg.Auth)
	ttl := cfg.Auth.TokenTTLDuration()
	for _, u := range seeded {
		token, err := signer.SignToken(u.ID, u.Email, ttl)
		if err != nil {
			return fmt.Errorf("failed to sign token for %s: %w", u.Email, err)
		}
		fmt.Printf("%-10s %-40s %s\n", u.Role, u.Email, token)
	}
	return nil
}

// seedPortfolio creates contacts, leads, deals and activities owned by actor.
// Every other lead is converted and its deal moved to a random stage.
func seedPortfolio(ctx context.Context, svc services, actor *auth.UserContext, n int) error {
	for i := 0; i < n; i++ {
		person := gofakeit.Person()
		company := gofakeit.Company()

		contact, err := svc.contacts.Create(ctx, actor, &domain.CreateContactRequest{
			FirstName: person.FirstName,
			LastName:  person.LastName,
			Email:     fmt.Sprintf("%s.%s@example.com", gofakeit.Username(), uuid.NewString()[:6]),
			Phone:     fmt.Sprintf("+47 %d", gofakeit.Number(40000000, 49999999)),
			Company:   company,
			Position:  person.Job.Title,
			Tags:      []string{gofakeit.BuzzWord()},
		})
		if err != nil {
			return fmt.Errorf("failed to create contact: %w", err)
		}

		value := decimal.NewFromInt(int64(gofakeit.Number(5, 500)) * 1000)
		lead, err := svc.leads.Create(ctx, actor, &domain.CreateLeadRequest{
			Title:     fmt.Sprintf("%s lead for %s", gofakeit.ProductName(), company),
			Company:   company,
			Source:    leadSources[gofakeit.Number(0, len(leadSources)-1)],
			Status:    domain.LeadStatusQualified,
			Value:     &value,
			ContactID: &contact.ID,
		})
		if err != nil {
			return fmt.Errorf("failed to create lead: %w", err)
		}

		var dealID *uuid.UUID
		if i%2 == 0 {
			deal, err := svc.leads.ConvertToDeal(ctx, actor, lead.ID, &domain.ConvertLeadRequest{})
			if err != nil {
				return fmt.Errorf("failed to convert lead: %w", err)
			}
			stage := stages[gofakeit.Number(0, len(stages)-1)]
			if _, err := svc.deals.MoveStage(ctx, actor, deal.ID, &domain.MoveDealStageRequest{Stage: stage}); err != nil {
				return fmt.Errorf("failed to move deal: %w", err)
			}
			dealID = &deal.ID
		}

		due := time.Now().UTC().AddDate(0, 0, gofakeit.Number(-5, 14))
		activity, err := svc.activities.Create(ctx, actor, &domain.CreateActivityRequest{
			Title:     gofakeit.HipsterSentence(4),
			Type:      activityTypes[gofakeit.Number(0, len(activityTypes)-1)],
			DueDate:   &due,
			ContactID: &contact.ID,
			DealID:    dealID,
		})
		if err != nil {
			return fmt.Errorf("failed to create activity: %w", err)
		}
		if gofakeit.Bool() {
			if _, err := svc.activities.SetCompleted(ctx, actor, activity.ID, true); err != nil {
				return fmt.Errorf("failed to complete activity: %w", err)
			}
		}
	}
	return nil
}
