package email

import (
	"fmt"
	"os"
	"time"

	"github.com/resendlabs/resend-go"
	"go.uber.org/zap"

	"github.com/rentloop/rentloop-backend/internal/repository"
)

// EmailService sends transactional mail through Resend. Review notifications
// are fire-and-forget: every failure is logged and swallowed so a mail
// outage can never fail a request.
type EmailService struct {
	client   *resend.Client
	from     string
	fromName string
	userRepo *repository.UserRepository
	logger   *zap.Logger
}

func NewEmailService(userRepo *repository.UserRepository, logger *zap.Logger) *EmailService {
	return &EmailService{
		client:   resend.NewClient(os.Getenv("RESEND_API_KEY")),
		from:     os.Getenv("EMAIL_FROM_ADDRESS"),
		fromName: os.Getenv("EMAIL_FROM_NAME"),
		userRepo: userRepo,
		logger:   logger,
	}
}

func (s *EmailService) SendWelcomeEmail(email, fullName string) error {
	html := fmt.Sprintf(`<h2>Welcome to Rentloop, %s!</h2>
<p>Your host account is ready. Create your first listing and start hosting.</p>
<p>&copy; %d Rentloop</p>`, fullName, time.Now().Year())

	params := &resend.SendEmailRequest{
		From:    s.fromName + " <" + s.from + ">",
		To:      []string{email},
		Subject: "Welcome to Rentloop!",
		Html:    html,
	}

	resp, err := s.client.Emails.Send(params)
	if err != nil {
		s.logger.Error("failed to send welcome email",
			zap.String("email", email), zap.Error(err))
		return err
	}

	s.logger.Info("sent welcome email",
		zap.String("email", email), zap.String("resend_id", resp.Id))
	return nil
}

// NotifyApproved tells the host their image update went live.
func (s *EmailService) NotifyApproved(requestID uint, hostID uint) {
	s.notifyReview(requestID, hostID, "approved",
		"Your listing photo update is live",
		"Good news! An admin approved your photo update and your listing now shows the new images.")
}

// NotifyRejected tells the host their image update was declined.
func (s *EmailService) NotifyRejected(requestID uint, hostID uint) {
	s.notifyReview(requestID, hostID, "rejected",
		"Your listing photo update was declined",
		"An admin reviewed your photo update and declined it. Your listing keeps its current images.")
}

func (s *EmailService) notifyReview(requestID, hostID uint, outcome, subject, body string) {
	user, err := s.userRepo.GetByID(hostID)
	if err != nil {
		s.logger.Warn("review notification skipped, host lookup failed",
			zap.Uint("request_id", requestID), zap.Uint("host_id", hostID), zap.Error(err))
		return
	}

	html := fmt.Sprintf(`<h2>Hi %s,</h2>
<p>%s</p>
<p>Request reference: #%d</p>
<p>&copy; %d Rentloop</p>`, user.FullName, body, requestID, time.Now().Year())

	params := &resend.SendEmailRequest{
		From:    s.fromName + " <" + s.from + ">",
		To:      []string{user.Email},
		Subject: subject,
		Html:    html,
	}

	if _, err := s.client.Emails.Send(params); err != nil {
		s.logger.Warn("review notification not delivered",
			zap.Uint("request_id", requestID),
			zap.String("outcome", outcome),
			zap.String("email", user.Email),
			zap.Error(err))
		return
	}

	s.logger.Info("sent review notification",
		zap.Uint("request_id", requestID),
		zap.String("outcome", outcome),
		zap.String("email", user.Email))
}
