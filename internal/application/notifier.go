package application

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/mother-community/config"
	repo "github.com/oksasatya/mother-community/internal/domain/repository"
	"github.com/oksasatya/mother-community/pkg/mailer"
	"github.com/oksasatya/mother-community/pkg/mailer/templates"
)

// Notifier enqueues e-mail jobs for the worker. All methods are best-effort:
// failures are logged and never reach the caller. A nil Notifier is valid.
type Notifier struct {
	Jobs    repo.JobPublisher
	Cfg     *config.Config
	Logger  *logrus.Logger
	Enabled bool
	Now     func() time.Time
}

func NewNotifier(jobs repo.JobPublisher, cfg *config.Config, logger *logrus.Logger) *Notifier {
	return &Notifier{Jobs: jobs, Cfg: cfg, Logger: logger, Enabled: cfg != nil && cfg.MailSendEnabled}
}

func (n *Notifier) Welcome(ctx context.Context, email string) {
	n.enqueue(ctx, email, templates.Welcome, "")
}

func (n *Notifier) NewMessage(ctx context.Context, to, name, senderName, content, senderID string) {
	if n == nil || n.Cfg == nil {
		return
	}
	threadURL := n.Cfg.AppURL + "/messages/" + senderID
	n.enqueue(ctx, to, templates.NewMessage, name, templates.WithMessage(senderName, content, threadURL))
}

func (n *Notifier) AccountDeleted(ctx context.Context, email, name string) {
	n.enqueue(ctx, email, templates.AccountDeleted, name)
}

func (n *Notifier) enqueue(ctx context.Context, to, tmpl, name string, opts ...templates.Option) {
	if n == nil || !n.Enabled || n.Jobs == nil || n.Cfg == nil || to == "" {
		return
	}
	now := time.Now
	if n.Now != nil {
		now = n.Now
	}
	opts = append([]templates.Option{templates.WithTime(now())}, opts...)
	job := mailer.EmailJob{
		To:       to,
		Template: tmpl,
		Data:     templates.ToMap(templates.NewEmailData(n.Cfg, name, to, opts...)),
	}
	if err := n.Jobs.PublishJSON(ctx, job); err != nil && n.Logger != nil {
		n.Logger.WithError(err).WithFields(logrus.Fields{"template": tmpl, "to": to}).Warn("enqueue email failed")
	}
}
