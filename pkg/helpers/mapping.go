package helpers

import (
	"github.com/oksasatya/go-social-graph/config"
	"github.com/oksasatya/go-social-graph/pkg/events"
	"github.com/oksasatya/go-social-graph/pkg/mailer"
	mailtpl "github.com/oksasatya/go-social-graph/pkg/mailer/templates"
)

// JobForEvent maps a graph event to the email it should trigger. The bool is
// false for events that do not notify anyone or carry no recipient address.
func JobForEvent(cfg *config.Config, ev events.Event) (mailer.EmailJob, bool) {
	switch ev.Type {
	case events.UserCreated:
		to := ev.Data["email"]
		if to == "" {
			return mailer.EmailJob{}, false
		}
		return mailer.EmailJob{
			To:       to,
			Template: mailtpl.Welcome,
			Data:     mailtpl.NewWelcomeData(cfg, ev.Data["name"], to, mailtpl.WithTime(ev.At)),
		}, true
	case events.FollowCreated:
		to := ev.Data["followed_email"]
		if to == "" || ev.Actor == ev.Target {
			return mailer.EmailJob{}, false
		}
		return mailer.EmailJob{
			To:       to,
			Template: mailtpl.NewFollower,
			Data: mailtpl.NewFollowerData(cfg, ev.Data["followed_name"], to,
				ev.Actor, ev.Data["follower_name"], mailtpl.WithTime(ev.At)),
		}, true
	default:
		return mailer.EmailJob{}, false
	}
}
