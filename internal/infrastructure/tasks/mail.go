package tasks

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/greenloop/config"
	"github.com/oksasatya/greenloop/internal/application"
	"github.com/oksasatya/greenloop/internal/domain/entity"
	"github.com/oksasatya/greenloop/internal/domain/xp"
	"github.com/oksasatya/greenloop/pkg/mailer"
	mailtpl "github.com/oksasatya/greenloop/pkg/mailer/templates"
)

// Mailer queues notification emails for cmd/email_worker. It honours the
// user's emailNotifications toggle.
type Mailer struct {
	pub    Publisher
	runner application.Runner
	cfg    *config.Config
	table  xp.Table
	logger *logrus.Logger
}

func NewMailer(pub Publisher, runner application.Runner, cfg *config.Config, table xp.Table, logger *logrus.Logger) *Mailer {
	return &Mailer{pub: pub, runner: runner, cfg: cfg, table: table, logger: logger}
}

// LevelUp implements application.LevelUpNotifier.
func (m *Mailer) LevelUp(u *entity.User, from entity.Level) {
	if !m.enabled(u) {
		return
	}
	opts := []mailtpl.Option{
		mailtpl.WithProgress(string(u.Level), string(from), u.TotalXP),
		mailtpl.WithTime(time.Now()),
	}
	if next, ok := m.table.NextTier(u.Level); ok {
		opts = append(opts, mailtpl.WithNextLevel(string(next.Level), next.MinXP))
	}
	m.enqueue("email.level_up", mailer.NewTemplateJob(u.Email, u.ID, mailtpl.LevelUp,
		mailtpl.NewLevelUpData(m.cfg, u.Name, u.Email, opts...)))
}

// Welcome implements application.WelcomeNotifier.
func (m *Mailer) Welcome(u *entity.User) {
	if !m.enabled(u) {
		return
	}
	m.enqueue("email.welcome", mailer.NewTemplateJob(u.Email, u.ID, mailtpl.Welcome,
		mailtpl.NewWelcomeData(m.cfg, u.Name, u.Email, mailtpl.WithTime(time.Now()))))
}

func (m *Mailer) enabled(u *entity.User) bool {
	if m == nil || m.pub == nil || m.runner == nil || u == nil || u.Email == "" {
		return false
	}
	if m.cfg != nil && !m.cfg.MailSendEnabled {
		return false
	}
	return u.Settings.Enabled("emailNotifications")
}

func (m *Mailer) enqueue(name string, job mailer.EmailJob) {
	m.runner.Go(name, func(ctx context.Context) error {
		return m.pub.PublishJSON(ctx, job)
	})
}
