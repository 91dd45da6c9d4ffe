package service

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/price"
	"github.com/stripe/stripe-go/v74/product"

	"github.com/rentloop/rentloop-backend/internal/models"
	"github.com/rentloop/rentloop-backend/internal/repository"
	"github.com/rentloop/rentloop-backend/pkg/payment"
)

type BillingService struct {
	stripeService *payment.StripeService
	userRepo      *repository.UserRepository
	planRepo      *repository.PlanRepository
	purchaseRepo  *repository.PlanPurchaseRepository
}

func NewBillingService(stripeService *payment.StripeService, userRepo *repository.UserRepository, planRepo *repository.PlanRepository, purchaseRepo *repository.PlanPurchaseRepository) *BillingService {
	return &BillingService{
		stripeService: stripeService,
		userRepo:      userRepo,
		planRepo:      planRepo,
		purchaseRepo:  purchaseRepo,
	}
}

func (s *BillingService) GetPlans() ([]models.Plan, error) {
	return s.planRepo.GetAll()
}

func (s *BillingService) GetPlan(planID uint) (*models.Plan, error) {
	return s.planRepo.GetByID(planID)
}

func (s *BillingService) CreateCheckoutSession(userID uint, planID uint) (*models.CheckoutSession, error) {
	plan, err := s.planRepo.GetByID(planID)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	productParams := &stripe.ProductParams{
		Name: stripe.String(plan.Name),
		Description: stripe.String(fmt.Sprintf("%d listings, %d photos",
			plan.ListingLimit,
			plan.PhotoLimit)),
	}
	prod, err := product.New(productParams)
	if err != nil {
		return nil, err
	}

	priceParams := &stripe.PriceParams{
		Product:    stripe.String(prod.ID),
		UnitAmount: stripe.Int64(int64(plan.Price * 100)), // USD to cents
		Currency:   stripe.String(string(stripe.CurrencyUSD)),
	}
	p, err := price.New(priceParams)
	if err != nil {
		return nil, err
	}

	session, err := s.stripeService.CreateCheckoutSession(
		user.Email,
		p.ID,
		map[string]string{
			"user_id": fmt.Sprintf("%d", userID),
			"plan_id": fmt.Sprintf("%d", planID),
		},
	)
	if err != nil {
		return nil, err
	}

	purchase := &models.PlanPurchase{
		UserID:          userID,
		PlanID:          planID,
		ListingLimit:    plan.ListingLimit,
		PhotoLimit:      plan.PhotoLimit,
		Price:           plan.Price,
		StripeSessionID: session.ID,
		Status:          models.PurchaseStatusPending,
	}

	if err := s.purchaseRepo.Create(purchase); err != nil {
		return nil, err
	}

	return &models.CheckoutSession{
		ID:  session.ID,
		URL: session.URL,
	}, nil
}

func (s *BillingService) HandleStripeWebhook(event *stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return err
		}

		userID, err := strconv.ParseUint(session.Metadata["user_id"], 10, 32)
		if err != nil {
			return err
		}

		purchase, err := s.purchaseRepo.GetBySessionID(session.ID)
		if err != nil {
			return err
		}

		purchase.Status = models.PurchaseStatusCompleted
		if err := s.purchaseRepo.Update(purchase); err != nil {
			return err
		}

		user, err := s.userRepo.GetByID(uint(userID))
		if err != nil {
			return err
		}

		user.ListingLimit += purchase.ListingLimit
		user.PhotoLimit += purchase.PhotoLimit
		return s.userRepo.Update(user)

	case "checkout.session.expired", "checkout.session.async_payment_failed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return err
		}

		purchase, err := s.purchaseRepo.GetBySessionID(session.ID)
		if err != nil {
			return err
		}

		purchase.Status = models.PurchaseStatusFailed
		return s.purchaseRepo.Update(purchase)
	}

	return nil
}

func (s *BillingService) GetPurchaseHistory(userID uint) ([]models.PlanPurchase, error) {
	return s.purchaseRepo.GetUserPurchaseHistory(userID)
}
